package hooklib

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Interceptor is the type-erased view of a Hook.
type Interceptor interface {
	Name() string
	Addr() uintptr
	Resolved() bool
}

type symbolIndexType struct {
	sync.RWMutex
	hooks map[string]Interceptor
}

// index of hooks by symbol name, filled by the package-level New calls of the
// generated code.
var index = symbolIndexType{hooks: make(map[string]Interceptor)}

func (t *symbolIndexType) add(h Interceptor) {
	t.Lock()
	defer t.Unlock()
	if _, exists := t.hooks[h.Name()]; exists {
		panic(errors.Errorf("hooklib: symbol `%s` is already hooked", h.Name()))
	}
	t.hooks[h.Name()] = h
}

// Find returns the hook of the given symbol, nil if it is not hooked.
func Find(symbol string) Interceptor {
	index.RLock()
	defer index.RUnlock()
	return index.hooks[symbol]
}

// Symbols returns the sorted names of every hooked symbol.
func Symbols() []string {
	index.RLock()
	defer index.RUnlock()
	names := make([]string, 0, len(index.hooks))
	for name := range index.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveAll resolves every hooked symbol now instead of on first call, in
// symbol order. The process dies on the first one that cannot be resolved.
func ResolveAll() {
	for _, name := range Symbols() {
		if h := Find(name); h != nil {
			h.Addr()
		}
	}
}
