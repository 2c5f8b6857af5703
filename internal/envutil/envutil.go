// Package envutil builds and renders the environment spawned command
// lines run with.
package envutil

import (
	"fmt"
	"sort"
)

// MinimalEnvironment is the fixed baseline every command line starts
// from: a bare system PATH, a neutral UTF-8 locale, and an unprivileged
// HOME and USER. Nothing from the parent process leaks in; callers add
// what a command needs via MergeEnvironment.
func MinimalEnvironment() map[string]string {
	return map[string]string{
		"PATH":   "/usr/bin:/bin",
		"LANG":   "C.UTF-8",
		"LC_ALL": "C.UTF-8",
		"HOME":   "/tmp",
		"USER":   "nobody",
	}
}

// MergeEnvironment overlays override onto base, override winning on
// shared keys. The result is always a fresh map; neither input is
// mutated or aliased.
func MergeEnvironment(base, override map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(override))

	for k, v := range base {
		merged[k] = v
	}

	for k, v := range override {
		merged[k] = v
	}

	return merged
}

// Render converts an environment map to the KEY=value slice form expected
// by process invocation. Entries are sorted by key so the rendered
// environment is deterministic.
func Render(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return result
}
