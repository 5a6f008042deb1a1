package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"overrider/internal/buildpipeline"
)

// reportRun prints what a pipeline run produced and turns failing
// diagnostics into errFailed.
func reportRun(cmd *cobra.Command, s *settings, logger *log.Logger, result buildpipeline.Result) error {
	run := result.Run
	if err := printDiagnostics(cmd, run); err != nil {
		return err
	}
	if s.timings {
		printTimings(cmd.ErrOrStderr(), run.Timings, result.Timings)
	}

	changed := 0
	for _, w := range result.Written {
		if !w.Unchanged {
			changed++
			logger.Debug("generated", "file", w.Path)
		}
	}
	if len(result.Written) > 0 {
		logger.Info("generated", "files", len(result.Written), "changed", changed)
	}
	if run.Failed() {
		return errFailed
	}
	return nil
}
