package main

import "sync/atomic"

var count int64

func bar() {
	for i := 0; i < 3; i++ {
		atomic.AddInt64(&count, 1)
	}
}
