package main

func main() {
	foo(10)
	bar()
}
