//go:build frobtrace

package main

import "C"

//preload:hook
func frob_trace(real func(C.int) C.int, level C.int) C.int {
	return real(level)
}
