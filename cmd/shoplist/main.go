package main

import (
	"os"

	"shoplist/internal/render"
)

func main() {
	if err := newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr)).Execute(); err != nil {
		render.New(os.Stderr, true).Fail(err.Error())
		os.Exit(1)
	}
}
