package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"

	"github.com/victoralfred/goshell/dispatch"
)

// Event is one audit log entry, a single JSON line in the log file.
type Event struct {
	Time     time.Time         `json:"time"`
	Metadata map[string]string `json:"metadata,omitempty"`
	ID       string            `json:"id"`
	Op       string            `json:"op"`
	Program  string            `json:"program"`
	Line     string            `json:"line,omitempty"`
	Status   string            `json:"status"`
	Refusal  string            `json:"refusal,omitempty"`
	Error    string            `json:"error,omitempty"`
	Output   string            `json:"output,omitempty"`
	Duration time.Duration     `json:"duration"`
	Code     int               `json:"code"`
	OK       bool              `json:"ok"`
}

// LogLevel determines which dispatches get logged.
type LogLevel string

const (
	// LogAll logs every dispatch.
	LogAll LogLevel = "all"

	// LogFailures logs refused and failed dispatches.
	LogFailures LogLevel = "failures"

	// LogRefusals logs only dispatches refused before execution.
	LogRefusals LogLevel = "refusals"
)

// Filter selects audit events in a query.
type Filter struct {
	// Since excludes events before this time, when set.
	Since time.Time

	// Until excludes events after this time, when set.
	Until time.Time

	// Program filters by program name.
	Program string

	// Op filters by operation ("run" or "capture").
	Op string

	// Status filters by outcome label ("ok", "failed", "refused").
	Status string

	// Limit is the maximum number of events to return. Zero means all.
	Limit int
}

// AuditConfig configures the audit log.
type AuditConfig struct {
	Level         LogLevel
	BasePath      string
	FilePath      string
	MaxOutputSize int
	Enabled       bool
	IncludeOutput bool
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		Level:         LogAll,
		IncludeOutput: false,
		MaxOutputSize: 1024,
		BasePath:      "/var/log",
		FilePath:      "goshell/audit.log",
	}
}

// FileLog is an append-only JSON lines audit log confined to a base
// directory. It satisfies dispatch.Audit.
type FileLog struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

var _ dispatch.Audit = (*FileLog)(nil)

// NewFileLog creates a file-backed audit log under config.BasePath.
func NewFileLog(config AuditConfig) (*FileLog, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &FileLog{
		config:   config,
		safePath: sp,
	}, nil
}

// Record appends the dispatch report to the log.
func (l *FileLog) Record(ctx context.Context, rep *dispatch.Report) error {
	if !l.config.Enabled {
		return nil
	}

	event := l.eventFromReport(rep)
	if !l.shouldLog(event) {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Query reads the log back and returns the events matching the filter,
// oldest first.
func (l *FileLog) Query(ctx context.Context, filter *Filter) ([]*Event, error) {
	l.mu.Lock()
	data, err := l.safePath.ReadFile(l.config.FilePath)
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	var events []*Event
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			// A torn write must not hide the rest of the log.
			continue
		}

		if filter != nil && !matches(&event, filter) {
			continue
		}

		events = append(events, &event)
		if filter != nil && filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}

	return events, nil
}

func matches(event *Event, filter *Filter) bool {
	if filter.Program != "" && event.Program != filter.Program {
		return false
	}
	if filter.Op != "" && event.Op != filter.Op {
		return false
	}
	if filter.Status != "" && event.Status != filter.Status {
		return false
	}
	if !filter.Since.IsZero() && event.Time.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && event.Time.After(filter.Until) {
		return false
	}
	return true
}

func (l *FileLog) eventFromReport(rep *dispatch.Report) *Event {
	event := &Event{
		Time:     time.Now().UTC(),
		Metadata: rep.Metadata,
		ID:       rep.ID,
		Op:       string(rep.Op),
		Program:  rep.Program,
		Line:     rep.Line,
		Status:   rep.StatusLabel(),
		Refusal:  string(rep.Refusal),
		Duration: rep.Duration,
		Code:     rep.Status.Code,
		OK:       rep.Status.OK,
	}

	if rep.Err != nil {
		event.Error = rep.Err.Error()
	}

	if l.config.IncludeOutput {
		event.Output = rep.Output
		if len(event.Output) > l.config.MaxOutputSize {
			event.Output = event.Output[:l.config.MaxOutputSize] + "...(truncated)"
		}
	}

	return event
}

func (l *FileLog) shouldLog(event *Event) bool {
	switch l.config.Level {
	case LogAll:
		return true
	case LogFailures:
		return !event.OK
	case LogRefusals:
		return event.Refusal != ""
	default:
		return true
	}
}
