// Package main provides the entry point for the pgplayer command line
// tool.
package main

import (
	"os"

	"github.com/faakharhzb/pgplayer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
