// Package main is the entry point for the logicrpcd daemon.
package main

import (
	"log"
	"os"

	"github.com/isaiah-harvey/logicrpc/internal/daemon/cmd"
)

func main() {
	log.SetPrefix("[logicrpcd] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
