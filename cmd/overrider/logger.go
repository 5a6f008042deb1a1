package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newLogger builds the CLI logger from --log-level and --quiet. Quiet keeps
// warnings and errors only.
func newLogger(cmd *cobra.Command) (*log.Logger, error) {
	levelStr, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if quiet && level < log.WarnLevel {
		level = log.WarnLevel
	}
	return log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "overrider",
		Level:  level,
	}), nil
}
