//go:build ignore

package main

import "C"

//preload:hook
func frob_gen(real func() C.int) C.int {
	return real()
}
