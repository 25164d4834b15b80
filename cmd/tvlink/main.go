// Package main is the entry point for the tvlink application.
package main

import (
	"os"

	"github.com/tvlink/tvlink/cmd/tvlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
