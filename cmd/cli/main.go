// Package main is the entry point for the reviewpay CLI.
package main

import (
	"os"

	"reviewpay/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
