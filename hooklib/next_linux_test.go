package hooklib

import (
	"os"
	"testing"
)

// The test binary is the first module in search order, so RTLD_NEXT lands
// in libc.

func TestNextResolvesLibc(t *testing.T) {
	s := NewSlot(NewName("abs"))
	abs := bindFunc[func(int32) int32](s.Addr(Next))
	if got := abs(-42); got != 42 {
		t.Fatalf("abs(-42) = %d", got)
	}

	getpid := bindFunc[func() int32](NewSlot(NewName("getpid")).Addr(Next))
	if got := getpid(); int(got) != os.Getpid() {
		t.Fatalf("getpid() = %d, want %d", got, os.Getpid())
	}
}

func TestNextMissingSymbol(t *testing.T) {
	if addr := Next.Resolve(NewName("goPreload_definitely_missing")); addr != 0 {
		t.Fatalf("resolved a missing symbol to %#x", addr)
	}
}

func TestLibraryResolver(t *testing.T) {
	libc := Library("libc.so.6")
	addr := libc.Resolve(NewName("labs"))
	if addr == 0 {
		t.Skip("libc.so.6 not available")
	}
	labs := bindFunc[func(int64) int64](addr)
	if got := labs(-7); got != 7 {
		t.Fatalf("labs(-7) = %d", got)
	}

	if addr := Library("/nonexistent/libnothing.so").Resolve(NewName("labs")); addr != 0 {
		t.Fatalf("resolved from a missing library: %#x", addr)
	}
}
