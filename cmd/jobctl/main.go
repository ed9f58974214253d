// Package main is the operator CLI for scheduled jobs.
package main

import (
	"os"

	"github.com/lehoang82vt/solar-platform-sub001/cmd/jobctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
