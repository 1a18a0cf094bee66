package hooklib

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func countingResolver(addr uintptr, delay time.Duration, calls *atomic.Int32) Resolver {
	return ResolverFunc(func(Name) uintptr {
		calls.Add(1)
		time.Sleep(delay)
		return addr
	})
}

func TestSlotResolveOnce(t *testing.T) {
	var calls atomic.Int32
	s := NewSlot(NewName("slot_resolve_once"))
	r := countingResolver(0xdead, 10*time.Millisecond, &calls)

	const callers = 128
	start := make(chan struct{})
	got := make([]uintptr, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			got[i] = s.Addr(r)
		}(i)
	}
	close(start)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("resolver called %d times, want 1", n)
	}
	for i, addr := range got {
		if addr != 0xdead {
			t.Fatalf("caller %d observed %#x", i, addr)
		}
	}
}

func TestSlotPublicationIsFinal(t *testing.T) {
	var calls atomic.Int32
	s := NewSlot(NewName("slot_final"))
	if s.Resolved() {
		t.Fatal("new slot already resolved")
	}
	if addr := s.Addr(countingResolver(0x1000, 0, &calls)); addr != 0x1000 {
		t.Fatalf("first Addr = %#x", addr)
	}
	if !s.Resolved() {
		t.Fatal("slot not resolved")
	}
	// A different resolver must not be consulted again.
	for i := 0; i < 3; i++ {
		if addr := s.Addr(countingResolver(0x2000, 0, &calls)); addr != 0x1000 {
			t.Fatalf("Addr changed to %#x", addr)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("resolver called %d times, want 1", n)
	}
	if s.Name().String() != "slot_final" {
		t.Fatalf("unexpected name %q", s.Name())
	}
}
