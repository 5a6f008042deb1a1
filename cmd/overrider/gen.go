package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"overrider/internal/buildpipeline"
	"overrider/internal/driver"
	"overrider/internal/fix"
	"overrider/internal/trace"
)

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen [flags] [patterns...]",
		Short: "Rewrite templates against a table computed by scan",
		Long: `gen rewrites every template against a predicate table written by
"overrider scan". Without --table it reads $OVERRIDER_TABLE, then the
manifest's [table].path, then the process environment.`,
		RunE: runGen,
	}
	cmd.Flags().String("table", "", "table file produced by scan")
	cmd.Flags().String("out", "", "directory for generated files (default: next to each template)")
	cmd.Flags().Bool("fix", false, "apply suggested fixes to the templates")
	cmd.Flags().Bool("dry-run", false, "rewrite and report without writing files")
	cmd.Flags().Int("jobs", 0, "parallel rewrite jobs (0 = GOMAXPROCS)")
	addFormatFlag(cmd)
	return cmd
}

func runGen(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	applyFixes, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return fmt.Errorf("failed to get fix flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	tablePath, err := s.tableFor(cmd, "table")
	if err != nil {
		return err
	}
	lookup, src, err := driver.LoadTable(tablePath)
	if err != nil {
		return err
	}
	logger.Debug("table", "source", src)

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "overrider gen")
	defer span.End("")

	result, err := buildpipeline.Run(ctx, &buildpipeline.Request{
		Driver: s.driverOptions(),
		Mode:   buildpipeline.ModeGenerate,
		Lookup: lookup,
		OutDir: s.outDir,
		DryRun: dryRun || applyFixes,
	})
	if err != nil {
		return err
	}
	if applyFixes {
		return runFixes(cmd, s, result)
	}
	return reportRun(cmd, s, logger, result)
}

// runFixes edits the templates in place. The outputs of this run are stale
// afterwards, so nothing else is written.
func runFixes(cmd *cobra.Command, s *settings, result buildpipeline.Result) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	applied, err := result.Run.ApplyFixes()
	switch {
	case errors.Is(err, fix.ErrNoFixes):
		logger.Info("no fixes to apply")
		return reportRun(cmd, s, logger, result)
	case err != nil:
		return fmt.Errorf("apply fixes: %w", err)
	}
	for _, a := range applied.Applied {
		logger.Info("fixed", "file", a.PrimaryPath, "fix", a.Title)
	}
	for _, sk := range applied.Skipped {
		logger.Warn("fix skipped", "fix", sk.Title, "reason", sk.Reason)
	}
	logger.Info("templates changed; rerun scan and gen", "changed", len(applied.FileChanges))
	return nil
}
