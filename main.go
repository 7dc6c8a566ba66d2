// Package main is the entry point for the atlas CLI.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/atlas/cmd"
	"github.com/danielolaszy/atlas/internal/logging"
)

func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logging.Debug("starting atlas", "version", cmd.Version, "log_level", logLevel)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
