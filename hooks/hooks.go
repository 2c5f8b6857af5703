// Package hooks provides named, priority-ordered extension points around
// command dispatch. A Registry satisfies dispatch.Hook, so a whole set of
// hooks is wired into a dispatcher with a single dispatch.WithHooks call.
package hooks

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/victoralfred/goshell/cmdline"
	"github.com/victoralfred/goshell/dispatch"
)

// Hook identifies an extension point implementation.
type Hook interface {
	// Name returns the identifier the hook registers under.
	Name() string

	// Priority orders hook invocation; lower runs first.
	Priority() int
}

// PreDispatchHook is called before admission checks. It may rewrite the
// command or veto the dispatch with an error.
type PreDispatchHook interface {
	Hook
	PreDispatch(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error)
}

// PostDispatchHook is called after the dispatch settles, refusals
// included.
type PostDispatchHook interface {
	Hook
	PostDispatch(ctx context.Context, rep *dispatch.Report) error
}

// ErrorHook is called when a dispatch settles with an error attached,
// before the post-dispatch hooks run.
type ErrorHook interface {
	Hook
	OnError(ctx context.Context, rep *dispatch.Report) error
}

// Registry manages hook registration and invocation. It satisfies
// dispatch.Hook and fans out to every registered hook in priority order.
type Registry struct {
	preDispatch  []PreDispatchHook
	postDispatch []PostDispatchHook
	errorHooks   []ErrorHook
	names        map[string]bool
	mu           sync.RWMutex
}

var _ dispatch.Hook = (*Registry)(nil)

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register adds a hook to the registry. The hook must carry a unique,
// non-empty name and implement at least one of PreDispatchHook,
// PostDispatchHook, or ErrorHook.
func (r *Registry) Register(hook Hook) error {
	if hook.Name() == "" {
		return fmt.Errorf("hook name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[hook.Name()] {
		return fmt.Errorf("hook %s: already registered", hook.Name())
	}

	registered := false

	// A hook can implement multiple extension points.
	if h, ok := hook.(PreDispatchHook); ok {
		r.preDispatch = insertByPriority(r.preDispatch, h)
		registered = true
	}

	if h, ok := hook.(PostDispatchHook); ok {
		r.postDispatch = insertByPriority(r.postDispatch, h)
		registered = true
	}

	if h, ok := hook.(ErrorHook); ok {
		r.errorHooks = insertByPriority(r.errorHooks, h)
		registered = true
	}

	if !registered {
		return fmt.Errorf("hook %s: implements no dispatch extension point", hook.Name())
	}

	r.names[hook.Name()] = true
	return nil
}

// Unregister removes the named hook from every extension point it was
// registered on. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.preDispatch = removeByName(r.preDispatch, name)
	r.postDispatch = removeByName(r.postDispatch, name)
	r.errorHooks = removeByName(r.errorHooks, name)
	delete(r.names, name)
}

// PreDispatch runs the pre-dispatch hooks in priority order, threading
// command rewrites through the chain.
func (r *Registry) PreDispatch(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := cmd
	for _, hook := range r.preDispatch {
		modified, err := hook.PreDispatch(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
		if modified != nil {
			current = modified
		}
	}
	return current, nil
}

// PostDispatch routes the report to the error hooks when the dispatch
// settled with an error, then runs the post-dispatch hooks.
func (r *Registry) PostDispatch(ctx context.Context, rep *dispatch.Report) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rep.Err != nil {
		for _, hook := range r.errorHooks {
			if err := hook.OnError(ctx, rep); err != nil {
				return fmt.Errorf("hook %s: %w", hook.Name(), err)
			}
		}
	}

	for _, hook := range r.postDispatch {
		if err := hook.PostDispatch(ctx, rep); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// insertByPriority keeps hooks sorted by priority. Equal priorities keep
// registration order.
func insertByPriority[H Hook](hooks []H, h H) []H {
	hooks = append(hooks, h)
	slices.SortStableFunc(hooks, func(a, b H) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})
	return hooks
}

func removeByName[H Hook](hooks []H, name string) []H {
	kept := make([]H, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			kept = append(kept, h)
		}
	}
	return kept
}

// LoggingHook is a built-in hook that logs each dispatch through an
// injected print function.
type LoggingHook struct {
	emit func(format string, args ...interface{})
}

// NewLoggingHook creates a logging hook that prints through emit,
// typically log.Printf.
func NewLoggingHook(emit func(format string, args ...interface{})) *LoggingHook {
	return &LoggingHook{emit: emit}
}

func (h *LoggingHook) Name() string  { return "logging" }
func (h *LoggingHook) Priority() int { return 1000 }

// PreDispatch logs the command about to be dispatched.
func (h *LoggingHook) PreDispatch(ctx context.Context, cmd *cmdline.Command) (*cmdline.Command, error) {
	h.emit("dispatching: %s %v", cmd.Program, cmd.Args)
	return cmd, nil
}

// PostDispatch logs the settled dispatch.
func (h *LoggingHook) PostDispatch(ctx context.Context, rep *dispatch.Report) error {
	if rep.Refused() {
		h.emit("refused: %s - %s: %v", rep.Program, rep.Refusal, rep.Err)
	} else {
		h.emit("dispatched: %s - %s duration=%v", rep.Program, rep.Status, rep.Duration)
	}
	return nil
}
