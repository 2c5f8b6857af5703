// Package config collects the knobs of every goshell subsystem into
// named profiles.
package config

import (
	"time"

	"github.com/victoralfred/goshell/observability"
	"github.com/victoralfred/goshell/resilience"
	"github.com/victoralfred/goshell/validation"
)

// Config carries the settings FromConfig needs to assemble a
// dispatcher.
type Config struct {
	CircuitBreaker resilience.CircuitBreakerConfig
	RateLimiter    resilience.RateLimiterConfig
	Telemetry      observability.TelemetryConfig
	RulesPath      string
	RulesBasePath  string
	Dispatcher     DispatcherConfig
	Arguments      validation.ArgumentConfig
	Audit          observability.AuditConfig
}

// DispatcherConfig configures the dispatcher.
type DispatcherConfig struct {
	// Shell is the interpreter path for the system backend. Empty means
	// the platform default.
	Shell string

	// DefaultTimeout bounds commands that carry no timeout of their own.
	DefaultTimeout time.Duration

	// EnableRules loads and enforces the ruleset at RulesPath.
	EnableRules bool

	// EnableRateLimit wires the rate limiter.
	EnableRateLimit bool

	// EnableCircuitBreaker wires the circuit breaker.
	EnableCircuitBreaker bool

	// EnableTelemetry wires OpenTelemetry tracing and metrics.
	EnableTelemetry bool

	// EnableAudit wires the audit log.
	EnableAudit bool
}

// DefaultConfig enables every admission layer with moderate limits and
// no ruleset requirement.
func DefaultConfig() Config {
	return Config{
		Dispatcher: DispatcherConfig{
			DefaultTimeout:       30 * time.Second,
			EnableRateLimit:      true,
			EnableCircuitBreaker: true,
			EnableTelemetry:      true,
			EnableAudit:          true,
		},
		Arguments: validation.ArgumentConfig{
			MaxArgs:      100,
			MaxArgLength: 4096,
		},
		RateLimiter:    resilience.DefaultRateLimiterConfig(),
		CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		Telemetry:      observability.DefaultTelemetryConfig(),
		Audit:          observability.DefaultAuditConfig(),
		RulesPath:      "rules.yaml",
		RulesBasePath:  "/etc/goshell",
	}
}

// DevelopmentConfig loosens the limits and keeps captured output in
// audit records.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Dispatcher.DefaultTimeout = 60 * time.Second
	cfg.RateLimiter.DefaultLimit = 1000
	cfg.RateLimiter.DefaultBurst = 2000
	cfg.CircuitBreaker.FailureThreshold = 10
	cfg.Audit.Level = observability.LogAll
	cfg.Audit.IncludeOutput = true
	return cfg
}

// ProductionConfig slows the breaker's recovery and keeps command
// output out of audit records.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Dispatcher.DefaultTimeout = 30 * time.Second
	cfg.RateLimiter.DefaultLimit = 100
	cfg.RateLimiter.DefaultBurst = 150
	cfg.CircuitBreaker.FailureThreshold = 5
	cfg.CircuitBreaker.Timeout = 60 * time.Second
	cfg.Audit.Level = observability.LogAll
	cfg.Audit.IncludeOutput = false
	return cfg
}

// RestrictedConfig returns highly restrictive configuration: an explicit
// ruleset is required and every limit is tightened.
func RestrictedConfig() Config {
	cfg := ProductionConfig()
	cfg.Dispatcher.EnableRules = true
	cfg.RateLimiter.DefaultLimit = 10
	cfg.RateLimiter.DefaultBurst = 20
	cfg.CircuitBreaker.FailureThreshold = 3
	cfg.Arguments.MaxArgs = 16
	cfg.Arguments.MaxArgLength = 1024
	return cfg
}

// Validate clamps out-of-range values to safe defaults.
func (c *Config) Validate() error {
	if c.Dispatcher.DefaultTimeout <= 0 {
		c.Dispatcher.DefaultTimeout = 30 * time.Second
	}

	if c.Arguments.MaxArgs <= 0 {
		c.Arguments.MaxArgs = 100
	}

	if c.Arguments.MaxArgLength <= 0 {
		c.Arguments.MaxArgLength = 4096
	}

	if c.Audit.MaxOutputSize <= 0 {
		c.Audit.MaxOutputSize = 1024
	}

	return nil
}
