//go:build linux && cgo

package hooklib

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdint.h>

// Lives in the interposing object, so RTLD_NEXT starts after it.
static uintptr_t preload_dlsym_next(const char *name) {
	return (uintptr_t)dlsym(RTLD_NEXT, name);
}
*/
import "C"

import "unsafe"

type nextResolver struct{}

func (nextResolver) Resolve(name Name) uintptr {
	cname := name.CString()
	if cname == nil {
		return 0
	}
	return uintptr(C.preload_dlsym_next((*C.char)(unsafe.Pointer(cname))))
}
