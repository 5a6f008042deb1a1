package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"overrider/internal/buildpipeline"
	"overrider/internal/trace"
	"overrider/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] [patterns...]",
		Short: "Rebuild whenever a template changes",
		Long: `watch runs build once and again after every change to a matching
template. Changes are debounced; a change during a running build queues
exactly one more build. Stop with Ctrl-C.`,
		RunE: runWatch,
	}
	cmd.Flags().String("out", "", "directory for generated files (default: next to each template)")
	cmd.Flags().String("write-table", "", "also persist the table to this file")
	cmd.Flags().Bool("dry-run", false, "rewrite and report without writing files")
	cmd.Flags().Int("jobs", 0, "parallel jobs (0 = GOMAXPROCS)")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a rebuild")
	addFormatFlag(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := cmd.Context()

	rebuild := func(ctx context.Context, changed []string) error {
		ctx, span := trace.Start(ctx, trace.ScopeDriver, "overrider build")
		defer span.End("")
		if len(changed) > 0 {
			logger.Info("rebuilding", "changed", changed)
		}
		result, err := buildpipeline.Run(ctx, req)
		if err != nil {
			return err
		}
		return quietFailure(logger, reportRun(cmd, s, logger, result))
	}

	w, err := watch.New(watch.Config{
		BaseDir:  s.baseDir,
		Patterns: s.patterns,
		Ignore:   watchIgnores(req),
		Debounce: debounce,
		OnChange: rebuild,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := rebuild(ctx, nil); err != nil {
		logger.Error("initial build", "err", err)
	}
	logger.Info("watching", "dir", s.baseDir, "patterns", s.patterns)
	return w.Run(ctx)
}

// watchIgnores lists what the watcher must not react to: the
// configured excludes and the generated files themselves.
func watchIgnores(req *buildpipeline.Request) []string {
	return req.Driver.Excludes()
}

// quietFailure keeps the watcher alive after a failed build: the
// diagnostics are already on screen.
func quietFailure(logger *log.Logger, err error) error {
	if errors.Is(err, errFailed) {
		logger.Warn("build failed; waiting for changes")
		return nil
	}
	return err
}
