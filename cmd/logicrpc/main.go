// Package main is the entry point for the logicrpc CLI.
package main

import (
	"os"

	"github.com/isaiah-harvey/logicrpc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
