package main

import "sync/atomic"

var hits int64

func scale(x, n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += x * 2
	}
	return s
}

func count(n int) {
	for i := 0; i < n; i++ {
		atomic.AddInt64(&hits, 1)
	}
}

func unused(x, d int) int {
	s := 0
	for i := 0; i < 10; i++ {
		s += x / d
	}
	return s
}

func main() {
	scale(1, 2)
	count(3)
}
