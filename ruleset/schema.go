package ruleset

import (
	"fmt"
	"strings"
	"time"
)

// Config is the top-level shape of a rules file.
type Config struct {
	Metadata Metadata      `yaml:"metadata"`
	Version  string        `yaml:"version"`
	Programs []ProgramRule `yaml:"programs"`
	Defaults Defaults      `yaml:"defaults"`
}

// Metadata names and describes a rules file.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Created     string `yaml:"created"`
	Updated     string `yaml:"updated"`
}

// Defaults contains settings applied when a program rule does not
// override them.
type Defaults struct {
	// Timeout is the default dispatch timeout.
	Timeout Duration `yaml:"timeout"`

	// Shell overrides the interpreter used by the system backend.
	Shell string `yaml:"shell"`

	// MaxArgs caps the argument count per command. Zero means no cap.
	MaxArgs int `yaml:"max_args"`

	// MaxArgLength caps the byte length of a single argument. Zero means
	// no cap.
	MaxArgLength ByteSize `yaml:"max_arg_length"`

	// AllowUnlisted permits programs that have no rule of their own.
	AllowUnlisted bool `yaml:"allow_unlisted"`
}

// ProgramRule defines the rule for one program name. A trailing '*' in
// the name matches any suffix, so "git-*" covers git-upload-pack and
// friends.
type ProgramRule struct {
	Name             string   `yaml:"name"`
	Timeout          Duration `yaml:"timeout"`
	DeniedSubstrings []string `yaml:"denied_substrings"`
	MaxArgs          int      `yaml:"max_args"`
	MaxArgLength     ByteSize `yaml:"max_arg_length"`
	Enabled          bool     `yaml:"enabled"`
}

// Duration wraps time.Duration so rule files can spell timeouts the way
// time.ParseDuration reads them: "30s", "5m", "1h30m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML decodes a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML encodes the duration back into its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// ByteSize holds a byte count that rule files may spell as a bare
// integer or with a size suffix: "512", "4Ki", "10MB".
type ByteSize struct {
	Bytes int64
}

var byteSuffixes = map[string]int64{
	"":    1,
	"B":   1,
	"K":   1000,
	"KB":  1000,
	"Ki":  1024,
	"KiB": 1024,
	"M":   1000 * 1000,
	"MB":  1000 * 1000,
	"Mi":  1024 * 1024,
	"MiB": 1024 * 1024,
	"G":   1000 * 1000 * 1000,
	"GB":  1000 * 1000 * 1000,
	"Gi":  1024 * 1024 * 1024,
	"GiB": 1024 * 1024 * 1024,
}

// UnmarshalYAML accepts either a bare integer node or a suffixed size
// string.
func (b *ByteSize) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var n int64
	if err := unmarshal(&n); err == nil {
		b.Bytes = n
		return nil
	}

	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}

	parsed, err := parseByteSize(text)
	if err != nil {
		return err
	}
	b.Bytes = parsed
	return nil
}

// parseByteSize turns "4Ki" or "10M" into a byte count. The empty
// string counts as zero, matching an absent field.
func parseByteSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	split := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if split < 0 {
		split = len(s)
	}

	var num int64
	if _, err := fmt.Sscanf(s[:split], "%d", &num); err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	multiplier, ok := byteSuffixes[s[split:]]
	if !ok {
		return 0, fmt.Errorf("invalid byte size suffix %q", s[split:])
	}

	return num * multiplier, nil
}

// MarshalYAML encodes the size with the largest binary suffix that
// divides it evenly, falling back to a bare count.
func (b ByteSize) MarshalYAML() (interface{}, error) {
	const (
		ki = int64(1024)
		mi = 1024 * ki
		gi = 1024 * mi
	)

	switch {
	case b.Bytes == 0:
		return "0", nil
	case b.Bytes%gi == 0:
		return fmt.Sprintf("%dGi", b.Bytes/gi), nil
	case b.Bytes%mi == 0:
		return fmt.Sprintf("%dMi", b.Bytes/mi), nil
	case b.Bytes%ki == 0:
		return fmt.Sprintf("%dKi", b.Bytes/ki), nil
	default:
		return fmt.Sprintf("%d", b.Bytes), nil
	}
}
