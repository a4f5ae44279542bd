// Package main is the entry point for the quote CLI, which prices
// district quotes offline with the same engine the server uses.
package main

import (
	"os"

	"github.com/DukeRupert/busroute/cmd/quote/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
