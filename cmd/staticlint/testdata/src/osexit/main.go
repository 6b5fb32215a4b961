package main

import (
	"os"
	"syscall"
)

func helper() {
	os.Exit(2)
}

func main() {
	defer helper()

	go func() {
		os.Exit(3)
	}()

	syscall.Exit(1) // want "avoid direct syscall.Exit call in main function of main package"
	os.Exit(0)      // want "avoid direct os.Exit call in main function of main package"
}
