// Package main provides the entry point for the bengal CLI.
package main

import (
	"fmt"
	"os"

	"github.com/bengal-go/bengal/cmd/bengal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
