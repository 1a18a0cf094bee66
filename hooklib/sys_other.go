//go:build !linux

package hooklib

import "syscall"

func rawWrite(b []byte) {
	_, _ = syscall.Write(syscall.Stderr, b)
}

func rawExit(code int) {
	syscall.Exit(code)
}

// A callback from C runs on the goroutine that made the C call, so the
// goroutine id identifies a re-entrant resolver as well as a thread id.
func threadID() int64 {
	return goroutineID()
}
