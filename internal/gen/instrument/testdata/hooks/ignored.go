//preload:ignore

package main

import "C"

//preload:hook
func ignored_symbol(real func() C.int) C.int {
	return real()
}
