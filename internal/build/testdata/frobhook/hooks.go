package main

/*
#include <stddef.h>
*/
import "C"

//preload:hook
func frobulate(real_frobulate func(C.int) C.size_t, n C.int) C.size_t {
	return real_frobulate(n + 42)
}

//preload:hook
func check_password(_ func(*C.char) C.int, passwd *C.char) C.int {
	return 1
}

// Defined by no library: calling it must end the process.
//
//preload:hook
func goPreload_nosuch(real func() C.int) C.int {
	return real()
}

func main() {}
