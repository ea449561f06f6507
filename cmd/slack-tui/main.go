// Package main is the entry point for the slack-tui command.
package main

import (
	"os"

	"github.com/hy4ri/slack-tui/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
