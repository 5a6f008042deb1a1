// Package project locates and decodes overrider.toml, the manifest that
// fixes template patterns, table location and generation options for a tree.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file that marks a project root.
const ManifestName = "overrider.toml"

// ErrNoManifest is returned by Load when no manifest exists up the tree.
var ErrNoManifest = errors.New("no " + ManifestName + " found")

// Manifest is a decoded overrider.toml.
type Manifest struct {
	Path   string // absolute path of the manifest
	Root   string // directory holding it
	Config Config
}

// Config mirrors the manifest sections. Zero values mean "use the default".
type Config struct {
	Templates TemplatesConfig `toml:"templates"`
	Generate  GenerateConfig  `toml:"generate"`
	Table     TableConfig     `toml:"table"`
	Build     BuildConfig     `toml:"build"`
}

type TemplatesConfig struct {
	Patterns []string `toml:"patterns"`
	Exclude  []string `toml:"exclude"`
}

type GenerateConfig struct {
	Out        string `toml:"out"`
	FlagSource string `toml:"flag_source"`
	Tag        string `toml:"tag"`
	Suffix     string `toml:"suffix"`
}

type TableConfig struct {
	Path string `toml:"path"`
}

type BuildConfig struct {
	Jobs           int `toml:"jobs"`
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Find walks up from startDir and returns the nearest manifest path, or ""
// when the walk reaches the filesystem root.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", startDir, err)
	}
	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		candidate := filepath.Join(dir, ManifestName)
		_, err := os.Stat(candidate)
		switch {
		case err == nil:
			return candidate, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
	}
	return "", nil
}

// Load finds the manifest above startDir and decodes it.
func Load(startDir string) (*Manifest, error) {
	path, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, ErrNoManifest
	}
	return LoadFile(path)
}

// LoadFile decodes the manifest at path. Unknown keys are rejected so that
// typos do not silently fall back to defaults.
func LoadFile(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	var cfg Config
	meta, err := toml.DecodeFile(abs, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", abs, strings.Join(keys, ", "))
	}
	if meta.IsDefined("templates", "patterns") && len(cfg.Templates.Patterns) == 0 {
		return nil, fmt.Errorf("%s: [templates].patterns is empty", abs)
	}
	if slices.Contains(cfg.Templates.Patterns, "") {
		return nil, fmt.Errorf("%s: [templates].patterns contains an empty pattern", abs)
	}
	if cfg.Build.Jobs < 0 || cfg.Build.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: [build] values must not be negative", abs)
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Resolve makes a manifest-relative path absolute. Empty stays empty.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// DefaultManifest is what `overrider init` writes.
func DefaultManifest() string {
	return `# overrider project manifest
[templates]
# doublestar globs, relative to this file
patterns = ["templates/**/*.go"]
exclude = ["vendor/**", "testdata/**"]

[generate]
# out = "gen"
flag_source = "overrideFlags"
tag = "overrider"
suffix = "_override.go"

[table]
path = ".overrider/table.json"

[build]
jobs = 0
max_diagnostics = 100
`
}
