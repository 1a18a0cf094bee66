package hooklib

import (
	"strings"

	"github.com/pkg/errors"
)

// Name is the exported name of an intercepted symbol. It keeps a
// NUL-terminated copy so that the resolver can hand it to dlsym without
// allocating through libc.
type Name struct {
	cstr []byte
}

// NewName returns the name of the symbol s. Symbol names are known at build
// time, so an empty name or one containing NUL panics.
func NewName(s string) Name {
	if s == "" {
		panic(errors.New("hooklib: empty symbol name"))
	}
	if strings.IndexByte(s, 0) >= 0 {
		panic(errors.Errorf("hooklib: symbol name %q contains NUL", s))
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return Name{cstr: b}
}

func (n Name) String() string {
	return string(n.Bytes())
}

// Bytes returns the name without its terminator.
func (n Name) Bytes() []byte {
	if len(n.cstr) == 0 {
		return nil
	}
	return n.cstr[:len(n.cstr)-1]
}

// CString returns a pointer to the NUL-terminated name.
func (n Name) CString() *byte {
	if len(n.cstr) == 0 {
		return nil
	}
	return &n.cstr[0]
}
