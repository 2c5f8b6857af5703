package resilience

import (
	"sync"
	"time"

	"github.com/victoralfred/goshell/dispatch"
)

// CircuitState is the admission posture of one circuit.
type CircuitState int

const (
	// StateClosed admits every dispatch.
	StateClosed CircuitState = iota
	// StateOpen sheds every dispatch until the cool-down passes.
	StateOpen
	// StateHalfOpen admits probes while the circuit decides whether it
	// is safe to close again.
	StateHalfOpen
)

// String renders the state for logs and reports.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes when circuits trip and how they recover.
type CircuitBreakerConfig struct {
	// FailureThreshold is how many failures since the last success trip
	// a closed circuit.
	FailureThreshold int

	// SuccessThreshold is how many probe successes close a half-open
	// circuit.
	SuccessThreshold int

	// Timeout is the cool-down an open circuit serves before admitting
	// probes.
	Timeout time.Duration

	// PerProgram gives every program its own circuit instead of one
	// shared across all dispatches.
	PerProgram bool

	// OnStateChange, when set, observes every transition. The program
	// is empty for the shared circuit.
	OnStateChange func(program string, from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns per-program circuits with
// conservative thresholds.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		PerProgram:       true,
	}
}

// CircuitBreaker sheds dispatches to programs whose recent history is
// all failures. It satisfies dispatch.CircuitBreaker.
type CircuitBreaker struct {
	config   CircuitBreakerConfig
	shared   *circuit
	circuits map[string]*circuit
	mu       sync.RWMutex
}

var _ dispatch.CircuitBreaker = (*CircuitBreaker)(nil)

// NewCircuitBreaker creates a breaker with every circuit closed.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		config:   config,
		circuits: make(map[string]*circuit),
	}
	cb.shared = newCircuit("", &cb.config)
	return cb
}

// Allow reports whether a dispatch of the program may proceed.
func (cb *CircuitBreaker) Allow(program string) bool {
	return cb.circuitFor(program).allow()
}

// RecordSuccess feeds a successful settlement back into the program's
// circuit.
func (cb *CircuitBreaker) RecordSuccess(program string) {
	cb.circuitFor(program).success()
}

// RecordFailure feeds a failed settlement back into the program's
// circuit.
func (cb *CircuitBreaker) RecordFailure(program string) {
	cb.circuitFor(program).failure()
}

// State reports the program's current circuit state.
func (cb *CircuitBreaker) State(program string) CircuitState {
	return cb.circuitFor(program).current()
}

// Reset closes the program's circuit and clears its counters.
func (cb *CircuitBreaker) Reset(program string) {
	cb.circuitFor(program).reset()
}

// circuitFor returns the circuit guarding the program, creating it on
// first use. In global mode every program maps to the shared circuit.
func (cb *CircuitBreaker) circuitFor(program string) *circuit {
	if !cb.config.PerProgram {
		return cb.shared
	}

	cb.mu.RLock()
	c, ok := cb.circuits[program]
	cb.mu.RUnlock()
	if ok {
		return c
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	// A concurrent first touch may have created it already.
	if existing, ok := cb.circuits[program]; ok {
		return existing
	}
	c = newCircuit(program, &cb.config)
	cb.circuits[program] = c
	return c
}

// circuit is the state machine for one program. The zero state is
// closed.
type circuit struct {
	program string
	config  *CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
}

func newCircuit(program string, config *CircuitBreakerConfig) *circuit {
	return &circuit{program: program, config: config}
}

func (c *circuit) allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refresh()
	return c.state != StateOpen
}

func (c *circuit) success() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		c.failures = 0
	case StateHalfOpen:
		c.successes++
		if c.successes < c.config.SuccessThreshold {
			return
		}
		c.shift(StateClosed)
	}
}

func (c *circuit) failure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures++
	// Every failure re-arms the cool-down, including late settlements
	// that land while the circuit is already open.
	c.lastFailure = time.Now()

	switch c.state {
	case StateClosed:
		if c.failures >= c.config.FailureThreshold {
			c.shift(StateOpen)
		}
	case StateHalfOpen:
		c.shift(StateOpen)
	}
}

func (c *circuit) current() CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refresh()
	return c.state
}

// reset closes the circuit without notifying the observer.
func (c *circuit) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateClosed
	c.failures = 0
	c.successes = 0
}

// refresh moves an expired open circuit to half-open. Callers hold
// c.mu.
func (c *circuit) refresh() {
	if c.state == StateOpen && time.Since(c.lastFailure) > c.config.Timeout {
		c.shift(StateHalfOpen)
	}
}

// shift moves the circuit to a new state, restarts both counters, and
// notifies the observer. Callers hold c.mu.
func (c *circuit) shift(to CircuitState) {
	from := c.state
	c.state = to
	c.failures = 0
	c.successes = 0

	if c.config.OnStateChange != nil {
		c.config.OnStateChange(c.program, from, to)
	}
}
