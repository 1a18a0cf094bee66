package hooklib

import (
	"reflect"
	"sync/atomic"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// Hook is the runtime half of an interposition wrapper: it owns the target
// slot of one intercepted symbol and hands the real definition, bound to the
// Go function type F, to the user hook.
//
// Given a hook declared as
//
//	//preload:hook
//	func frobulate(real func(C.int) C.size_t, n C.int) C.size_t
//
// the generated code is
//
//	var _preload_target_frobulate = hooklib.New[func(C.int) C.size_t]("frobulate")
//
//	//export frobulate
//	func frobulate(n C.int) C.size_t {
//		return _preload_hook_frobulate(_preload_target_frobulate.Target(), n)
//	}
//
// F must match the C signature of the real symbol exactly; a mismatch is not
// detectable at run time.
type Hook[F any] struct {
	slot     Slot
	resolver Resolver
	bind     func(addr uintptr) F
	target   atomic.Pointer[F]
}

type options struct {
	resolver Resolver
	binder   interface{}
}

// Option configures a Hook created with New.
type Option func(*options)

// WithResolver replaces the default Next resolver.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithBinder replaces the default binder, which turns the resolved C entry
// point into a callable F with purego. The binder type must match the hook.
func WithBinder[F any](bind func(addr uintptr) F) Option {
	return func(o *options) {
		o.binder = bind
	}
}

// New creates the hook of the symbol called name and registers it in the
// process-wide index. It panics if F is not a function type or the symbol is
// already hooked.
func New[F any](name string, opts ...Option) *Hook[F] {
	if typ := reflect.TypeOf((*F)(nil)).Elem(); typ.Kind() != reflect.Func {
		panic(errors.Errorf("hooklib: hook %s: expecting a function type but got `%s`", name, typ))
	}
	o := options{resolver: Next}
	for _, opt := range opts {
		opt(&o)
	}
	h := &Hook[F]{
		slot:     Slot{name: NewName(name)},
		resolver: o.resolver,
		bind:     bindFunc[F],
	}
	if o.binder != nil {
		bind, ok := o.binder.(func(uintptr) F)
		if !ok {
			panic(errors.Errorf("hooklib: hook %s: unexpected binder type `%T`", name, o.binder))
		}
		h.bind = bind
	}
	index.add(h)
	return h
}

// Target returns the real definition of the symbol, resolving and binding it
// on first use. It does not return if the symbol cannot be resolved.
func (h *Hook[F]) Target() F {
	if p := h.target.Load(); p != nil {
		return *p
	}
	return h.bindSlow()
}

func (h *Hook[F]) bindSlow() F {
	fn := h.bind(h.slot.Addr(h.resolver))
	if !h.target.CompareAndSwap(nil, &fn) {
		// Lost the race against another binder of the same address.
		return *h.target.Load()
	}
	return fn
}

// Addr returns the resolved entry point, resolving it if needed.
func (h *Hook[F]) Addr() uintptr {
	return h.slot.Addr(h.resolver)
}

func (h *Hook[F]) Name() string {
	return h.slot.name.String()
}

func (h *Hook[F]) Resolved() bool {
	return h.slot.Resolved()
}

func bindFunc[F any](addr uintptr) F {
	var fn F
	purego.RegisterFunc(&fn, addr)
	return fn
}
