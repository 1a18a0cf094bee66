//go:build darwin || freebsd || linux

package hooklib

import (
	"sync"

	"github.com/ebitengine/purego"
)

type libraryResolver struct {
	path   string
	once   sync.Once
	handle uintptr
}

// Library returns a resolver that looks symbols up in the shared library at
// path instead of following the search order. The library is opened on the
// first lookup; if it cannot be opened every lookup reports not found.
func Library(path string) Resolver {
	return &libraryResolver{path: path}
}

func (l *libraryResolver) Resolve(name Name) uintptr {
	l.once.Do(func() {
		handle, err := purego.Dlopen(l.path, purego.RTLD_NOW|purego.RTLD_LOCAL)
		if err == nil {
			l.handle = handle
		}
	})
	if l.handle == 0 {
		return 0
	}
	addr, err := purego.Dlsym(l.handle, name.String())
	if err != nil {
		return 0
	}
	return addr
}
