//go:build !windows

package proc

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

var relayedSignals = []os.Signal{unix.SIGTERM, unix.SIGHUP, unix.SIGQUIT}

func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

// exitCode follows the shell convention for signal-terminated children.
func exitCode(st *os.ProcessState) int {
	if st == nil {
		return -1
	}
	if ws, ok := st.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return st.ExitCode()
}
