package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"overrider/internal/driver"
	"overrider/internal/table"
	"overrider/internal/trace"
)

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env [flags] [patterns...]",
		Short: "Print the predicate table as KEY=VALUE lines",
		Long: `env prints the table in environment encoding: one line per excluded
predicate, final requirement and accepted flag list. With --table it
converts an existing table file instead of scanning.

	eval "$(overrider env | sed 's/^/export /')"
	overrider gen`,
		RunE: runEnv,
	}
	cmd.Flags().String("table", "", "print this table file instead of scanning")
	addFormatFlag(cmd)
	return cmd
}

func runEnv(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("table")
	if err != nil {
		return fmt.Errorf("failed to get table flag: %w", err)
	}
	if path != "" {
		t, err := table.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read table: %w", err)
		}
		return table.Encode(cmd.OutOrStdout(), t, table.FormatEnv)
	}

	s, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, span := trace.Start(cmd.Context(), trace.ScopeDriver, "overrider env")
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
	return table.Encode(cmd.OutOrStdout(), res.Table, table.FormatEnv)
}
