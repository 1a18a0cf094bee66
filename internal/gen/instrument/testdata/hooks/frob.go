package main

/*
#include <stddef.h>
*/
import "C"

import "fmt"

//preload:hook
func frobulate(real_frobulate func(C.int) C.size_t, n C.int) C.size_t {
	fmt.Println("frobulating", n)
	return real_frobulate(n + 42)
}

func main() {}
