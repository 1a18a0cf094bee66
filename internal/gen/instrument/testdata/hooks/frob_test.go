package main

//preload:hook
func from_a_test(real func()) {}
