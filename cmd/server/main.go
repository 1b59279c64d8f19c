// Package main provides the entry point for the prmetrics server.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
