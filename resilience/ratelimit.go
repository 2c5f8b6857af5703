// Package resilience provides rate limiting and circuit breaking for
// dispatched commands.
package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/victoralfred/goshell/dispatch"
)

// RateLimiterConfig sets dispatch budgets.
type RateLimiterConfig struct {
	// DefaultLimit is the sustained dispatches per second a program may
	// reach.
	DefaultLimit float64

	// DefaultBurst is how many dispatches may land back to back.
	DefaultBurst int

	// PerProgram enables per-program rate limiting.
	PerProgram bool

	// ProgramLimits contains per-program rate limits.
	ProgramLimits map[string]ProgramLimit
}

// ProgramLimit defines the rate limit for a specific program.
type ProgramLimit struct {
	Limit float64
	Burst int
}

// DefaultRateLimiterConfig grants every program 100 dispatches per
// second with room for bursts of 150.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultLimit:  100,
		DefaultBurst:  150,
		PerProgram:    true,
		ProgramLimits: make(map[string]ProgramLimit),
	}
}

// RateLimiter limits dispatch rate, globally or per program. It
// satisfies dispatch.RateLimiter.
type RateLimiter struct {
	config   RateLimiterConfig
	global   *rate.Limiter
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

var _ dispatch.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a limiter with full buckets and any
// per-program overrides from config already in place.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		global:   rate.NewLimiter(rate.Limit(config.DefaultLimit), config.DefaultBurst),
		limiters: make(map[string]*rate.Limiter),
	}

	for program, limit := range config.ProgramLimits {
		rl.limiters[program] = rate.NewLimiter(rate.Limit(limit.Limit), limit.Burst)
	}

	return rl
}

// Allow checks if a dispatch of the program is allowed right now.
func (rl *RateLimiter) Allow(program string) bool {
	if !rl.config.PerProgram {
		return rl.global.Allow()
	}
	return rl.limiter(program).Allow()
}

// Wait blocks until a dispatch of the program is allowed or the
// context is canceled.
func (rl *RateLimiter) Wait(ctx context.Context, program string) error {
	if !rl.config.PerProgram {
		return rl.global.Wait(ctx)
	}
	return rl.limiter(program).Wait(ctx)
}

// SetLimit updates the rate limit for a program.
func (rl *RateLimiter) SetLimit(program string, limit rate.Limit, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters[program]; ok {
		limiter.SetLimit(limit)
		limiter.SetBurst(burst)
	} else {
		rl.limiters[program] = rate.NewLimiter(limit, burst)
	}
}

func (rl *RateLimiter) limiter(program string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.limiters[program]
	rl.mu.RUnlock()

	if ok {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Another goroutine may have created it between the locks.
	if existing, ok := rl.limiters[program]; ok {
		return existing
	}

	limiter = rate.NewLimiter(rate.Limit(rl.config.DefaultLimit), rl.config.DefaultBurst)
	rl.limiters[program] = limiter
	return limiter
}
