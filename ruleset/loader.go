package ruleset

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"
)

// Loader reads rulesets from YAML files and keeps the compiled form
// current across reloads.
type Loader struct {
	mu        sync.RWMutex
	active    *Compiled
	activeSum [32]byte

	dir  *safepath.SafePath
	file string

	checks    []ConfigValidator
	listeners []func(*Compiled)
	stop      chan struct{}
}

// ConfigValidator validates a ruleset configuration before compilation.
type ConfigValidator interface {
	Validate(config *Config) error
}

// LoaderOption customizes a Loader at construction.
type LoaderOption func(*Loader)

// WithValidator adds a check every loaded configuration must pass
// before it is compiled.
func WithValidator(v ConfigValidator) LoaderOption {
	return func(l *Loader) {
		l.checks = append(l.checks, v)
	}
}

// WithOnChange adds a callback invoked when the ruleset changes.
func WithOnChange(fn func(*Compiled)) LoaderOption {
	return func(l *Loader) {
		l.listeners = append(l.listeners, fn)
	}
}

// NewLoader creates a ruleset loader. The ruleset file is resolved and
// read inside basePath only.
func NewLoader(basePath, rulesFile string, opts ...LoaderOption) (*Loader, error) {
	dir, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("confining ruleset reads to %s: %w", basePath, err)
	}

	l := &Loader{dir: dir, file: rulesFile}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load reads, validates, and compiles the ruleset file. When the file
// content is unchanged since the last load, the current ruleset is
// returned without recompiling.
func (l *Loader) Load(ctx context.Context) (*Compiled, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.dir.ReadFile(l.file)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset %s: %w", l.file, err)
	}

	sum := sha256.Sum256(data)
	if l.active != nil && sum == l.activeSum {
		return l.active, nil
	}

	compiled, err := l.build(data)
	if err != nil {
		return nil, err
	}
	compiled.hash = fmt.Sprintf("%x", sum)

	l.active = compiled
	l.activeSum = sum
	for _, notify := range l.listeners {
		notify(compiled)
	}
	return compiled, nil
}

// build turns raw file content into a compiled ruleset, running the
// configured checks in between.
func (l *Loader) build(data []byte) (*Compiled, error) {
	config, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing ruleset: %w", err)
	}

	for _, check := range l.checks {
		if err := check.Validate(config); err != nil {
			return nil, fmt.Errorf("ruleset rejected: %w", err)
		}
	}

	compiled, err := Compile(config)
	if err != nil {
		return nil, fmt.Errorf("compiling ruleset: %w", err)
	}
	return compiled, nil
}

// Get returns the most recently loaded ruleset, or nil before the first
// successful Load.
func (l *Loader) Get() *Compiled {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Reload is Load for callers that only care about the error.
func (l *Loader) Reload(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

// Watch polls the ruleset file for changes at the given interval until
// ctx ends or StopWatch is called.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	stop := make(chan struct{})
	l.stop = stop
	go l.poll(ctx, interval, stop)
}

func (l *Loader) poll(ctx context.Context, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			// A failed reload keeps the previous ruleset active.
			_, _ = l.Load(ctx)
		}
	}
}

// StopWatch ends the polling started by Watch.
func (l *Loader) StopWatch() {
	if l.stop != nil {
		close(l.stop)
	}
}

// ParseYAML decodes a rules file without compiling it.
func ParseYAML(data []byte) (*Config, error) {
	config := new(Config)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfigValidator validates the basic shape of a ruleset.
type DefaultConfigValidator struct{}

// Validate checks the structural requirements every rules file must
// meet before compilation.
func (v *DefaultConfigValidator) Validate(config *Config) error {
	if config.Version == "" {
		return fmt.Errorf("ruleset version is required")
	}

	for i, p := range config.Programs {
		if p.Name == "" {
			return fmt.Errorf("program %d: name is required", i)
		}
		if p.MaxArgs < 0 {
			return fmt.Errorf("program %d: max_args must not be negative", i)
		}
		for j, sub := range p.DeniedSubstrings {
			if sub == "" {
				return fmt.Errorf("program %d, denied_substring %d: must not be empty", i, j)
			}
		}
	}

	return nil
}

// ExampleRules returns a small ruleset demonstrating the file format.
func ExampleRules() *Config {
	return &Config{
		Version: "1.0",
		Metadata: Metadata{
			Name:        "example-rules",
			Description: "Example dispatch ruleset",
		},
		Defaults: Defaults{
			Timeout:       Duration{30 * time.Second},
			MaxArgs:       64,
			MaxArgLength:  ByteSize{4 * 1024},
			AllowUnlisted: false,
		},
		Programs: []ProgramRule{
			{
				Name:    "echo",
				Enabled: true,
			},
			{
				Name:             "git",
				Enabled:          true,
				MaxArgs:          16,
				Timeout:          Duration{10 * time.Second},
				DeniedSubstrings: []string{"--exec", "--upload-pack"},
			},
			{
				Name:    "git-*",
				Enabled: true,
			},
			{
				Name:         "ls",
				Enabled:      true,
				MaxArgLength: ByteSize{1024},
			},
			{
				Name:    "rm",
				Enabled: false,
			},
		},
	}
}
