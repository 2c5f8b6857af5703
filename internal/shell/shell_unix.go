//go:build unix

package shell

import "syscall"

// defaultSysProcAttr starts each interpreter in its own process group, so
// killing the interpreter on timeout reaps the whole command line,
// background children included.
func defaultSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}

// extractSignal reads the terminating signal out of a wait status, when
// the process was in fact signaled rather than exiting.
func extractSignal(state interface{}) (syscall.Signal, bool) {
	if ws, ok := state.(syscall.WaitStatus); ok && ws.Signaled() {
		return ws.Signal(), true
	}
	return 0, false
}
