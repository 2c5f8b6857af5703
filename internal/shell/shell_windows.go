//go:build windows

package shell

import "syscall"

// defaultSysProcAttr returns nil on Windows: process groups are a Unix
// notion, and exec manages console process trees itself.
func defaultSysProcAttr() *syscall.SysProcAttr {
	return nil
}

// extractSignal never matches on Windows, where a wait status carries no
// Unix signal.
func extractSignal(_ interface{}) (syscall.Signal, bool) {
	return 0, false
}
