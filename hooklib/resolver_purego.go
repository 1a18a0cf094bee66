//go:build linux && !cgo

package hooklib

import "github.com/ebitengine/purego"

// glibc's RTLD_NEXT pseudo handle, ((void *) -1l).
const rtldNext = ^uintptr(0)

type nextResolver struct{}

func (nextResolver) Resolve(name Name) uintptr {
	if name.CString() == nil {
		return 0
	}
	addr, err := purego.Dlsym(rtldNext, name.String())
	if err != nil {
		return 0
	}
	return addr
}
