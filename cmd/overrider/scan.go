package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"overrider/internal/buildpipeline"
	"overrider/internal/driver"
	"overrider/internal/table"
	"overrider/internal/trace"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [flags] [patterns...]",
		Short: "Resolve priority chains and write the predicate table",
		Long: `scan reads every template, picks the winner of each priority chain and
writes the resulting predicate table. The format follows the extension:
.json, .toml, .yaml, .mp/.msgpack or .env. Use -o - to print JSON.`,
		RunE: runScan,
	}
	cmd.Flags().StringP("output", "o", "", "table file (default: [table].path from overrider.toml)")
	cmd.Flags().Int("jobs", 0, "parallel parse jobs (0 = GOMAXPROCS)")
	addFormatFlag(cmd)
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	output := s.tablePath
	if v, ok, err := changedString(cmd, "output"); err != nil {
		return err
	} else if ok {
		output = v
	}
	if output == "" {
		return errors.New("no table path: pass -o or set [table].path in overrider.toml")
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "overrider scan")
	defer span.End("")

	res, err := driver.Scan(ctx, s.driverOptions())
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, res); err != nil {
		return err
	}
	if res.Failed() {
		return errFailed
	}

	if output == "-" {
		if err := table.Encode(cmd.OutOrStdout(), res.Table, table.FormatJSON); err != nil {
			return fmt.Errorf("encode table: %w", err)
		}
	} else {
		if err := res.WriteTable(output); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
		logger.Info("table written", "path", output, "templates", len(res.Scan.Units), "chains", len(res.Scan.Chains), "run", res.Table.RunID)
	}
	if s.timings {
		printTimings(cmd.ErrOrStderr(), res.Timings, buildpipeline.Timings{})
	}
	return nil
}
