// Package main provides the entry point for the oversight CLI.
package main

import (
	"os"

	"github.com/viant/oversight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
