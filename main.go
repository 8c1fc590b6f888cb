// Package main is the container entry point for the hosted agent.
package main

import (
	"github.com/dotcommander/agenthost/internal/cmd"
	"github.com/dotcommander/agenthost/internal/config"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version = ""
	//nolint: gochecknoglobals
	CommitSHA = ""
)

func main() {
	cfgErr := config.LoadDotEnv("")
	var cfg config.Config
	if cfgErr == nil {
		cfg, cfgErr = config.Load()
	}
	cmd.Execute(cmd.BuildInfo{Version: Version, CommitSHA: CommitSHA}, cfg, cfgErr)
}
