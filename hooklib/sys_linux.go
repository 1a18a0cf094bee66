//go:build linux

package hooklib

import "golang.org/x/sys/unix"

func rawWrite(b []byte) {
	for len(b) > 0 {
		n, err := unix.Write(unix.Stderr, b)
		if err == unix.EINTR {
			continue
		}
		if err != nil || n <= 0 {
			return
		}
		b = b[n:]
	}
}

// rawExit ends the process with exit_group: no deferred calls, no finalizers.
func rawExit(code int) {
	unix.Exit(code)
}

func threadID() int64 {
	return int64(unix.Gettid())
}
