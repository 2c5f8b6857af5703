package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/victoralfred/goshell/cmdline"
	"github.com/victoralfred/goshell/dispatch"
)

// Metrics aggregates in-process dispatch counters. It satisfies
// dispatch.Hook, so it is wired with dispatch.WithHooks and fed by
// every settled dispatch, refusals included.
type Metrics struct {
	programStats     map[string]*ProgramStats
	totalDispatches  int64
	succeeded        int64
	failed           int64
	refused          int64
	validationFailed int64
	ruleDenied       int64
	rateLimited      int64
	circuitOpen      int64
	totalDuration    int64
	durationCount    int64
	minDuration      int64
	maxDuration      int64
	mu               sync.RWMutex
}

var _ dispatch.Hook = (*Metrics)(nil)

// ProgramStats contains per-program statistics.
type ProgramStats struct {
	LastDispatchAt time.Time
	Program        string
	LastStatus     string
	Total          int64
	Succeeded      int64
	Failed         int64
	Refused        int64
	TotalDuration  int64
	AvgDuration    int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		programStats: make(map[string]*ProgramStats),
		minDuration:  -1,
	}
}

// PreDispatch passes the command through unchanged.
func (m *Metrics) PreDispatch(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error) {
	return cmd, nil
}

// PostDispatch records the settled dispatch.
func (m *Metrics) PostDispatch(ctx context.Context, rep *dispatch.Report) error {
	m.Record(rep)
	return nil
}

// Record counts one dispatch report.
func (m *Metrics) Record(rep *dispatch.Report) {
	atomic.AddInt64(&m.totalDispatches, 1)

	switch {
	case rep.Refused():
		atomic.AddInt64(&m.refused, 1)
		switch rep.Refusal {
		case dispatch.ErrCodeValidationFailed:
			atomic.AddInt64(&m.validationFailed, 1)
		case dispatch.ErrCodeRuleDenied:
			atomic.AddInt64(&m.ruleDenied, 1)
		case dispatch.ErrCodeRateLimited:
			atomic.AddInt64(&m.rateLimited, 1)
		case dispatch.ErrCodeCircuitOpen:
			atomic.AddInt64(&m.circuitOpen, 1)
		}

	case rep.Status.OK:
		atomic.AddInt64(&m.succeeded, 1)

	default:
		atomic.AddInt64(&m.failed, 1)
	}

	// Refusals spend no time in the backend; only executed dispatches
	// contribute to the duration distribution.
	if !rep.Refused() {
		m.recordDuration(rep.Duration.Nanoseconds())
	}

	m.updateProgramStats(rep)
}

func (m *Metrics) recordDuration(duration int64) {
	atomic.AddInt64(&m.totalDuration, duration)
	atomic.AddInt64(&m.durationCount, 1)

	for {
		old := atomic.LoadInt64(&m.minDuration)
		if old >= 0 && duration >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minDuration, old, duration) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&m.maxDuration)
		if duration <= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.maxDuration, old, duration) {
			break
		}
	}
}

func (m *Metrics) updateProgramStats(rep *dispatch.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.programStats[rep.Program]
	if !ok {
		stats = &ProgramStats{Program: rep.Program}
		m.programStats[rep.Program] = stats
	}

	stats.Total++
	stats.LastDispatchAt = time.Now()
	stats.LastStatus = rep.StatusLabel()

	switch {
	case rep.Refused():
		stats.Refused++
	case rep.Status.OK:
		stats.Succeeded++
	default:
		stats.Failed++
	}

	if !rep.Refused() {
		stats.TotalDuration += rep.Duration.Nanoseconds()
		executed := stats.Succeeded + stats.Failed
		if executed > 0 {
			stats.AvgDuration = stats.TotalDuration / executed
		}
	}
}

// Snapshot returns a point-in-time copy of the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalDispatches:  atomic.LoadInt64(&m.totalDispatches),
		Succeeded:        atomic.LoadInt64(&m.succeeded),
		Failed:           atomic.LoadInt64(&m.failed),
		Refused:          atomic.LoadInt64(&m.refused),
		ValidationFailed: atomic.LoadInt64(&m.validationFailed),
		RuleDenied:       atomic.LoadInt64(&m.ruleDenied),
		RateLimited:      atomic.LoadInt64(&m.rateLimited),
		CircuitOpen:      atomic.LoadInt64(&m.circuitOpen),
		AvgDuration:      m.avgDuration(),
		MinDuration:      time.Duration(atomic.LoadInt64(&m.minDuration)),
		MaxDuration:      time.Duration(atomic.LoadInt64(&m.maxDuration)),
		ProgramStats:     m.copyProgramStats(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ProgramStats     map[string]*ProgramStats
	TotalDispatches  int64
	Succeeded        int64
	Failed           int64
	Refused          int64
	ValidationFailed int64
	RuleDenied       int64
	RateLimited      int64
	CircuitOpen      int64
	AvgDuration      time.Duration
	MinDuration      time.Duration
	MaxDuration      time.Duration
}

// SuccessRate returns the share of dispatches that executed and
// succeeded, as a percentage.
func (s MetricsSnapshot) SuccessRate() float64 {
	if s.TotalDispatches == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.TotalDispatches) * 100
}

// RefusalRate returns the share of dispatches refused before
// execution, as a percentage.
func (s MetricsSnapshot) RefusalRate() float64 {
	if s.TotalDispatches == 0 {
		return 0
	}
	return float64(s.Refused) / float64(s.TotalDispatches) * 100
}

func (m *Metrics) avgDuration() time.Duration {
	count := atomic.LoadInt64(&m.durationCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalDuration) / count)
}

func (m *Metrics) copyProgramStats() map[string]*ProgramStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*ProgramStats, len(m.programStats))
	for k, v := range m.programStats {
		copied := *v
		result[k] = &copied
	}
	return result
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.totalDispatches, 0)
	atomic.StoreInt64(&m.succeeded, 0)
	atomic.StoreInt64(&m.failed, 0)
	atomic.StoreInt64(&m.refused, 0)
	atomic.StoreInt64(&m.validationFailed, 0)
	atomic.StoreInt64(&m.ruleDenied, 0)
	atomic.StoreInt64(&m.rateLimited, 0)
	atomic.StoreInt64(&m.circuitOpen, 0)
	atomic.StoreInt64(&m.totalDuration, 0)
	atomic.StoreInt64(&m.durationCount, 0)
	atomic.StoreInt64(&m.minDuration, -1)
	atomic.StoreInt64(&m.maxDuration, 0)

	m.mu.Lock()
	m.programStats = make(map[string]*ProgramStats)
	m.mu.Unlock()
}
