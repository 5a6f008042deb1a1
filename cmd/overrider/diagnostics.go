package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"overrider/internal/diagfmt"
	"overrider/internal/driver"
	"overrider/internal/version"
)

const formatFlagUsage = "diagnostics format (pretty|short|json|sarif)"

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", "pretty", formatFlagUsage)
}

// printDiagnostics renders the run's diagnostics. Human formats go to
// stderr, machine formats to stdout so they can be piped.
func printDiagnostics(cmd *cobra.Command, res *driver.Result) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	useColor, err := colorEnabled(cmd)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "pretty":
		if res.Bag.Len() == 0 {
			return nil
		}
		diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.Files, diagfmt.PrettyOpts{
			Color:       useColor,
			Context:     2,
			PathMode:    diagfmt.PathModeAuto,
			ShowNotes:   true,
			ShowFixes:   true,
			ShowPreview: true,
		})
	case "short":
		diagfmt.Short(cmd.ErrOrStderr(), res.Bag, res.Files, diagfmt.PathModeRelative)
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			IncludeNotes:     true,
			IncludeFixes:     true,
			IncludePreviews:  true,
		})
	case "sarif":
		return diagfmt.Sarif(cmd.OutOrStdout(), res.Bag, res.Files, diagfmt.SarifRunMeta{
			ToolName:       "overrider",
			ToolVersion:    version.Current().Version,
			InvocationArgs: os.Args,
		})
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	return nil
}
