package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"overrider/internal/prof"
	"overrider/internal/project"
	"overrider/internal/version"
)

// errFailed is returned once diagnostics have been printed; main exits
// with status 1 without repeating it.
var errFailed = errors.New("overrider: build failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "overrider",
		Short: "Compile-time overrides for Go declarations",
		Long: `overrider rewrites template Go files so that exactly one implementation of
every overridable function, method or constant survives, chosen by priority
or by command-line flags.`,
		Version:           version.Current().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: preRun,
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("config", "", "path to "+project.ManifestName+" (default: search upwards from the working directory)")
	pf.String("log-level", "info", "log level (debug|info|warn|error)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("cpuprofile", "", "write a CPU profile to this file")
	pf.String("memprofile", "", "write a heap profile to this file on exit")
	pf.String("exectrace", "", "write a runtime execution trace to this file")

	root.AddCommand(
		newScanCmd(),
		newGenCmd(),
		newBuildCmd(),
		newEnvCmd(),
		newInspectCmd(),
		newWatchCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if perr := profiling.Stop(); perr != nil {
		fmt.Fprintf(root.ErrOrStderr(), "profile: %v\n", perr)
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(root.ErrOrStderr(), "interrupted")
		return 130
	default:
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
}

// profiling is stopped by run once the command returns, error or not.
var profiling *prof.Session

// preRun resolves --color for fatih/color and starts the requested profiles.
func preRun(cmd *cobra.Command, _ []string) error {
	enabled, err := colorEnabled(cmd)
	if err != nil {
		return err
	}
	color.NoColor = !enabled

	var cfg prof.Config
	for name, dst := range map[string]*string{"cpuprofile": &cfg.CPU, "memprofile": &cfg.Mem, "exectrace": &cfg.Trace} {
		if *dst, err = cmd.Flags().GetString(name); err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}
	if !cfg.Enabled() {
		return nil
	}
	profiling, err = prof.Start(cfg)
	return err
}

func colorEnabled(cmd *cobra.Command) (bool, error) {
	value, err := cmd.Flags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stderr) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
