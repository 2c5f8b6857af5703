package runner

import (
	"context"
	"sync"
)

// Call records one backend invocation: which operation was asked for and
// the exact command line it received.
type Call struct {
	Op   Op
	Line string
}

// Scripted is a Backend for tests. Responses are queued per operation and
// consumed in order; every invocation is recorded so callers can assert
// the exact command lines that were dispatched, in order. When a queue is
// exhausted the conservative failure is returned, so a test that forgets
// to queue a response fails loudly instead of passing by accident.
type Scripted struct {
	mu           sync.Mutex
	calls        []Call
	runQueue     []ExecResult
	captureQueue []CaptureResult
}

// NewScripted creates a scripted backend with empty queues.
func NewScripted() *Scripted {
	return &Scripted{}
}

// QueueRun appends responses for subsequent Run calls.
func (s *Scripted) QueueRun(results ...ExecResult) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runQueue = append(s.runQueue, results...)
	return s
}

// QueueCapture appends responses for subsequent Capture calls.
func (s *Scripted) QueueCapture(results ...CaptureResult) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captureQueue = append(s.captureQueue, results...)
	return s
}

// Run records the command line and pops the next queued response.
func (s *Scripted) Run(_ context.Context, line string) ExecResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: OpRun, Line: line})

	if len(s.runQueue) == 0 {
		return ExecFailure()
	}
	result := s.runQueue[0]
	s.runQueue = s.runQueue[1:]
	return result
}

// Capture records the command line and pops the next queued response.
func (s *Scripted) Capture(_ context.Context, line string) CaptureResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: OpCapture, Line: line})

	if len(s.captureQueue) == 0 {
		return CaptureFailure()
	}
	result := s.captureQueue[0]
	s.captureQueue = s.captureQueue[1:]
	return result
}

// Calls returns a copy of every recorded invocation, in order.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// Lines returns just the recorded command lines, in call order.
func (s *Scripted) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, len(s.calls))
	for i, call := range s.calls {
		lines[i] = call.Line
	}
	return lines
}

// CallCount returns how many times the backend has been invoked.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Reset clears recorded calls and any unconsumed responses.
func (s *Scripted) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.runQueue = nil
	s.captureQueue = nil
}

var _ Backend = (*Scripted)(nil)
