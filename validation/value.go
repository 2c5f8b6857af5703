package validation

import (
	"fmt"
	"reflect"
)

// Kind classifies a value for Check. It is the coarse classification a
// caller states an expectation against, not the full Go type system.
type Kind int

const (
	// KindInvalid is the kind of values Check cannot classify (nil,
	// channels, functions).
	KindInvalid Kind = iota
	// KindString is textual data.
	KindString
	// KindBool is a boolean.
	KindBool
	// KindInt covers all integer widths, signed and unsigned.
	KindInt
	// KindFloat covers float32 and float64.
	KindFloat
	// KindSequence covers slices and arrays.
	KindSequence
	// KindMap covers maps.
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// KindOf classifies a value. It never panics.
func KindOf(v any) Kind {
	switch v.(type) {
	case string:
		return KindString
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Map:
		return KindMap
	default:
		return KindInvalid
	}
}

// Check verifies that value is of the expected kind. label names the
// value in the returned error ("program", "args[3]", ...). A string
// expectation that fails carries ErrNotText; every other mismatch
// carries ErrKindMismatch.
func Check(value any, kind Kind, label string) error {
	actual := KindOf(value)
	if actual == kind {
		return nil
	}

	sentinel := ErrKindMismatch
	if kind == KindString {
		sentinel = ErrNotText
	}

	return &ValidationError{
		Field: label,
		Value: fmt.Sprintf("%v", value),
		Rule:  fmt.Sprintf("expected %s, got %s", kind, actual),
		Err:   sentinel,
	}
}

// Checker accumulates several Check results so a caller can report every
// bad input at once instead of stopping at the first.
type Checker struct {
	errs []error
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Add runs Check and records any failure. It returns the checker for
// chaining.
func (c *Checker) Add(value any, kind Kind, label string) *Checker {
	if err := Check(value, kind, label); err != nil {
		c.errs = append(c.errs, err)
	}
	return c
}

// Err returns nil when every added check passed, or an *Errors holding
// each failure in the order the checks were added.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &Errors{Errors: c.errs}
}
