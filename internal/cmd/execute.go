package cmd

import (
	"os"

	"github.com/dotcommander/agenthost/internal/config"
)

// Execute wires commands and runs Cobra. The process exits non-zero on
// any fatal error.
func Execute(build BuildInfo, cfg config.Config, cfgErr error) {
	root := NewRootCmd(build, cfg, cfgErr)
	if err := root.Execute(); err != nil {
		handleError(err)
		os.Exit(1)
	}
}
