// Package main is the entry point for the irisbridge CLI tool.
package main

import (
	"os"

	"github.com/blue-harrier/irisbridge/cmd/irisbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
