package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"overrider/internal/buildpipeline"
	"overrider/internal/trace"
	"overrider/internal/ui"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] [patterns...]",
		Short: "Scan and generate in one step",
		Long: `build scans the templates and rewrites them against the freshly computed
table in one process. The table is kept in memory unless --write-table is set.`,
		RunE: runBuild,
	}
	cmd.Flags().String("out", "", "directory for generated files (default: next to each template)")
	cmd.Flags().String("write-table", "", "also persist the table to this file")
	cmd.Flags().Bool("dry-run", false, "rewrite and report without writing files")
	cmd.Flags().Int("jobs", 0, "parallel jobs (0 = GOMAXPROCS)")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	addFormatFlag(cmd)
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	req, err := buildRequest(cmd, s)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := parseUIMode(uiValue)
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "overrider build")
	defer span.End("")

	var result buildpipeline.Result
	if mode.enabled(os.Stdout, quiet) {
		req.Files = buildpipeline.PlanFiles(req.Driver)
		err = ui.Run("overrider build", req.Files, cmd.OutOrStdout(), func(sink buildpipeline.ProgressSink) error {
			req.Progress = sink
			var runErr error
			result, runErr = buildpipeline.Run(ctx, req)
			return runErr
		})
	} else {
		result, err = buildpipeline.Run(ctx, req)
	}
	if err != nil {
		return err
	}
	return reportRun(cmd, s, logger, result)
}

// buildRequest is shared by build and watch.
func buildRequest(cmd *cobra.Command, s *settings) (*buildpipeline.Request, error) {
	writeTable, _, err := changedString(cmd, "write-table")
	if err != nil {
		return nil, err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	return &buildpipeline.Request{
		Driver:     s.driverOptions(),
		Mode:       buildpipeline.ModeBuild,
		OutDir:     s.outDir,
		WriteTable: writeTable,
		DryRun:     dryRun,
	}, nil
}
