package hooklib

import (
	"runtime"
	"sync/atomic"
)

const (
	stateUnresolved uint32 = iota
	stateResolving
	stateResolved
	stateFailed
)

// Slot caches the entry point of the real definition of one intercepted
// symbol. It is resolved at most once; after that the address never changes.
// A failed resolution is permanent and fatal.
//
// The zero Slot is unusable, create one with NewSlot or through New.
type Slot struct {
	name  Name
	state atomic.Uint32
	// threadID of the resolver, 0 until it is known
	owner atomic.Int64
	addr  atomic.Uintptr
}

func NewSlot(name Name) *Slot {
	return &Slot{name: name}
}

func (s *Slot) Name() Name {
	return s.name
}

// Resolved reports whether the slot holds a valid entry point.
func (s *Slot) Resolved() bool {
	return s.state.Load() == stateResolved
}

// Addr returns the entry point of the real symbol, asking r for it if the
// slot is still unresolved. Concurrent first callers wait for a single
// resolution. Addr does not return if the symbol cannot be resolved, or if
// r calls back into Addr for the same slot from the resolving thread (the
// calling goroutine where the OS has no thread id).
func (s *Slot) Addr(r Resolver) uintptr {
	if s.state.Load() == stateResolved {
		return s.addr.Load()
	}
	return s.resolveSlow(r)
}

func (s *Slot) resolveSlow(r Resolver) uintptr {
	for {
		switch s.state.Load() {
		case stateResolved:
			return s.addr.Load()
		case stateFailed:
			barf(msgUnresolved, s.name)
		case stateResolving:
			// The resolver came back through this very symbol: waiting would
			// never end.
			if tid := threadID(); tid > 0 && s.owner.Load() == tid {
				barf(msgRecursive, s.name)
			}
			runtime.Gosched()
		case stateUnresolved:
			if s.state.CompareAndSwap(stateUnresolved, stateResolving) {
				return s.resolve(r)
			}
		}
	}
}

func (s *Slot) resolve(r Resolver) uintptr {
	// Pinned so that a re-entrant call is recognised by its thread id.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	s.owner.Store(threadID())

	addr := r.Resolve(s.name)
	if addr == 0 {
		s.state.Store(stateFailed)
		barf(msgUnresolved, s.name)
	}
	s.addr.Store(addr)
	s.state.Store(stateResolved)
	return addr
}
