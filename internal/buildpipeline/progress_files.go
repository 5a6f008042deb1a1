package buildpipeline

import (
	"cmp"
	"path/filepath"
	"strings"

	"overrider/internal/driver"
	"overrider/internal/scan"
	"overrider/internal/source"
)

// PlanFiles lists the templates a run over opts would touch, in the form
// progress events use. A bad glob gives an empty plan; the run reports it.
func PlanFiles(opts driver.Options) []string {
	base := cmp.Or(opts.BaseDir, ".")
	paths, _, err := scan.Expand(opts.BaseDir, opts.Patterns)
	if err != nil {
		return nil
	}
	paths = scan.Exclude(base, paths, opts.Excludes())

	plan := make([]string, 0, len(paths))
	seen := map[string]bool{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if d := displayPath(p, base); !seen[d] {
			seen[d] = true
			plan = append(plan, d)
		}
	}
	return plan
}

// displayPath is file relative to baseDir with forward slashes, as driver
// file events report it. Paths escaping baseDir stay as given.
func displayPath(file, baseDir string) string {
	file = filepath.Clean(file)
	if strings.TrimSpace(baseDir) == "" {
		return filepath.ToSlash(file)
	}
	rel, err := source.RelativePath(file, baseDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return filepath.ToSlash(file)
	}
	return rel
}
