package main

import "C"

//preload:hook
func read(real func(C.int) C.int, fd C.int) C.int {
	return real(fd)
}
