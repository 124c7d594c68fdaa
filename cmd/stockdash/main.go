// Command stockdash is a synthetic stock dashboard.
package main

import (
	"os"

	"github.com/fatih/color"

	"stockdash/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
