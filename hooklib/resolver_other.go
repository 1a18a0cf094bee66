//go:build !linux

package hooklib

// Interposition through RTLD_NEXT is only wired up on Linux; elsewhere every
// symbol is reported missing and the wrapper dies on first use.
type nextResolver struct{}

func (nextResolver) Resolve(Name) uintptr {
	return 0
}
