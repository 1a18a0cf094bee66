package hooklib

// Resolver locates the real definition of an intercepted symbol. A zero
// address means the symbol was not found.
//
// Resolvers may run inside hooked allocation or I/O paths and must not call
// anything that can route back through the symbol being resolved.
type Resolver interface {
	Resolve(name Name) uintptr
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(name Name) uintptr

func (f ResolverFunc) Resolve(name Name) uintptr {
	return f(name)
}

// Next looks up the next definition of a symbol after the module that
// contains this package, i.e. dlsym(RTLD_NEXT, name).
var Next Resolver = nextResolver{}
