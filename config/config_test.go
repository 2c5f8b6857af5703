package config

import (
	"testing"
	"time"

	"github.com/victoralfred/goshell/observability"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dispatcher.DefaultTimeout != 30*time.Second {
		t.Errorf("DefaultTimeout = %s, want 30s", cfg.Dispatcher.DefaultTimeout)
	}
	if !cfg.Dispatcher.EnableRateLimit || !cfg.Dispatcher.EnableCircuitBreaker {
		t.Error("resilience should be enabled by default")
	}
	if cfg.Dispatcher.EnableRules {
		t.Error("rules need an explicit file and should be off by default")
	}
	if cfg.Arguments.MaxArgs != 100 || cfg.Arguments.MaxArgLength != 4096 {
		t.Errorf("Arguments = %+v", cfg.Arguments)
	}
	if cfg.RulesBasePath != "/etc/goshell" {
		t.Errorf("RulesBasePath = %q", cfg.RulesBasePath)
	}
	if cfg.Telemetry.ServiceName != "goshell" {
		t.Errorf("Telemetry.ServiceName = %q", cfg.Telemetry.ServiceName)
	}
}

func TestDevelopmentConfig(t *testing.T) {
	cfg := DevelopmentConfig()

	if cfg.Dispatcher.DefaultTimeout != 60*time.Second {
		t.Errorf("DefaultTimeout = %s, want 60s", cfg.Dispatcher.DefaultTimeout)
	}
	if cfg.RateLimiter.DefaultLimit != 1000 {
		t.Errorf("DefaultLimit = %f, want 1000", cfg.RateLimiter.DefaultLimit)
	}
	if !cfg.Audit.IncludeOutput {
		t.Error("development audit should include output")
	}
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()

	if cfg.Audit.IncludeOutput {
		t.Error("production audit must not include output")
	}
	if cfg.CircuitBreaker.Timeout != 60*time.Second {
		t.Errorf("CircuitBreaker.Timeout = %s, want 60s", cfg.CircuitBreaker.Timeout)
	}
	if cfg.Audit.Level != observability.LogAll {
		t.Errorf("Audit.Level = %q", cfg.Audit.Level)
	}
}

func TestRestrictedConfig(t *testing.T) {
	cfg := RestrictedConfig()

	if !cfg.Dispatcher.EnableRules {
		t.Error("restricted mode must enforce a ruleset")
	}
	if cfg.RateLimiter.DefaultLimit != 10 || cfg.RateLimiter.DefaultBurst != 20 {
		t.Errorf("RateLimiter = %+v", cfg.RateLimiter)
	}
	if cfg.Arguments.MaxArgs != 16 || cfg.Arguments.MaxArgLength != 1024 {
		t.Errorf("Arguments = %+v", cfg.Arguments)
	}
	if cfg.CircuitBreaker.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", cfg.CircuitBreaker.FailureThreshold)
	}
}

func TestConfig_ValidateClampsValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dispatcher.DefaultTimeout = -1
	cfg.Arguments.MaxArgs = 0
	cfg.Arguments.MaxArgLength = -5
	cfg.Audit.MaxOutputSize = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Dispatcher.DefaultTimeout != 30*time.Second {
		t.Errorf("DefaultTimeout = %s, want clamped 30s", cfg.Dispatcher.DefaultTimeout)
	}
	if cfg.Arguments.MaxArgs != 100 {
		t.Errorf("MaxArgs = %d, want clamped 100", cfg.Arguments.MaxArgs)
	}
	if cfg.Arguments.MaxArgLength != 4096 {
		t.Errorf("MaxArgLength = %d, want clamped 4096", cfg.Arguments.MaxArgLength)
	}
	if cfg.Audit.MaxOutputSize != 1024 {
		t.Errorf("MaxOutputSize = %d, want clamped 1024", cfg.Audit.MaxOutputSize)
	}
}
