package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"overrider/internal/driver"
	"overrider/internal/project"
	"overrider/internal/rewrite"
)

var errNoPatterns = errors.New("no template patterns: pass globs as arguments or run `overrider init`")

// settings is overrider.toml merged with the command line. Flags win over
// the manifest, the manifest wins over built-in defaults.
type settings struct {
	manifest *project.Manifest

	baseDir  string
	patterns []string
	exclude  []string

	outDir    string
	tablePath string

	jobs           int
	maxDiagnostics int
	timings        bool

	flagSource string
	tag        string
	suffix     string
}

func loadSettings(cmd *cobra.Command, args []string) (*settings, error) {
	m, err := loadManifest(cmd)
	if err != nil {
		return nil, err
	}

	s := &settings{
		manifest:       m,
		baseDir:        ".",
		maxDiagnostics: 100,
		flagSource:     rewrite.DefaultFlagSource,
		tag:            rewrite.DefaultBuildTag,
		suffix:         rewrite.DefaultSuffix,
	}
	if m != nil {
		s.applyManifest(m)
	}
	// шаблоны из аргументов считаются от рабочего каталога
	if len(args) > 0 {
		s.baseDir = "."
		s.patterns = args
	}
	if len(s.patterns) == 0 {
		return nil, errNoPatterns
	}
	if err := s.applyFlags(cmd); err != nil {
		return nil, err
	}
	return s, nil
}

func loadManifest(cmd *cobra.Command) (*project.Manifest, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return project.LoadFile(path)
	}
	m, err := project.Load(".")
	if errors.Is(err, project.ErrNoManifest) {
		return nil, nil
	}
	return m, err
}

func (s *settings) applyManifest(m *project.Manifest) {
	c := m.Config
	s.baseDir = m.Root
	s.patterns = c.Templates.Patterns
	s.exclude = c.Templates.Exclude
	s.outDir = m.Resolve(c.Generate.Out)
	s.tablePath = m.Resolve(c.Table.Path)
	s.jobs = c.Build.Jobs
	if c.Build.MaxDiagnostics > 0 {
		s.maxDiagnostics = c.Build.MaxDiagnostics
	}
	if c.Generate.FlagSource != "" {
		s.flagSource = c.Generate.FlagSource
	}
	if c.Generate.Tag != "" {
		s.tag = c.Generate.Tag
	}
	if c.Generate.Suffix != "" {
		s.suffix = c.Generate.Suffix
	}
}

func (s *settings) applyFlags(cmd *cobra.Command) error {
	if v, ok, err := changedInt(cmd, "max-diagnostics"); err != nil {
		return err
	} else if ok {
		s.maxDiagnostics = v
	}
	if v, ok, err := changedInt(cmd, "jobs"); err != nil {
		return err
	} else if ok {
		s.jobs = v
	}
	if v, ok, err := changedString(cmd, "out"); err != nil {
		return err
	} else if ok {
		s.outDir = v
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	s.timings = timings
	if s.jobs < 0 || s.maxDiagnostics < 0 {
		return errors.New("--jobs and --max-diagnostics must not be negative")
	}
	return nil
}

func (s *settings) driverOptions() driver.Options {
	return driver.Options{
		Patterns:       s.patterns,
		BaseDir:        s.baseDir,
		Exclude:        s.exclude,
		Jobs:           s.jobs,
		MaxDiagnostics: s.maxDiagnostics,
		EnableTimings:  s.timings,
		Rewrite: rewrite.Options{
			FlagSource: s.flagSource,
			BuildTag:   s.tag,
			Suffix:     s.suffix,
		},
	}
}

// tableFor picks the table generation reads: the flag, then
// OVERRIDER_TABLE, then the manifest. An empty result makes
// driver.LoadTable fall back to the process environment.
func (s *settings) tableFor(cmd *cobra.Command, flag string) (string, error) {
	v, ok, err := changedString(cmd, flag)
	if err != nil || ok {
		return v, err
	}
	if os.Getenv(driver.TableEnv) != "" {
		return "", nil
	}
	if s.tablePath != "" {
		if _, err := os.Stat(s.tablePath); err == nil {
			return s.tablePath, nil
		}
	}
	return "", nil
}

// changedString reads a flag only when the command defines it and the user
// set it.
func changedString(cmd *cobra.Command, name string) (string, bool, error) {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return "", false, nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return v, true, nil
}

func changedInt(cmd *cobra.Command, name string) (int, bool, error) {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return 0, false, nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return v, true, nil
}
