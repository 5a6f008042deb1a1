package scan

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// Expand resolves patterns against base. Matches of one pattern are sorted;
// patterns keep caller order and a path matched twice is kept once, at its
// first position. Patterns that match nothing are returned in empty.
func Expand(base string, patterns []string) (paths, empty []string, err error) {
	seen := make(map[string]struct{})
	for _, pat := range patterns {
		full := pat
		if base != "" && !filepath.IsAbs(pat) {
			full = filepath.Join(base, pat)
		}
		if !doublestar.ValidatePathPattern(full) {
			return nil, nil, &Error{
				Code: diag.ScanGlobError,
				Span: source.NoSpan,
				Msg:  fmt.Sprintf("invalid glob pattern %q", pat),
				Err:  doublestar.ErrBadPattern,
			}
		}
		matches, gerr := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
		if gerr != nil {
			return nil, nil, &Error{
				Code: diag.ScanGlobError,
				Span: source.NoSpan,
				Msg:  fmt.Sprintf("cannot expand %q: %v", pat, gerr),
				Err:  gerr,
			}
		}
		if len(matches) == 0 {
			empty = append(empty, pat)
			continue
		}
		slices.Sort(matches)
		for _, m := range matches {
			m = filepath.Clean(m)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}
	return paths, empty, nil
}

// Exclude drops the paths whose slash-separated form relative to base
// matches one of patterns. Patterns without a slash also match the base name.
func Exclude(base string, paths, patterns []string) []string {
	if len(patterns) == 0 {
		return paths
	}
	if base == "" {
		base = "."
	}
	kept := paths[:0:0]
	for _, p := range paths {
		rel, err := source.RelativePath(p, base)
		if err != nil {
			rel = filepath.ToSlash(p)
		}
		if !Match(rel, patterns) {
			kept = append(kept, p)
		}
	}
	return kept
}

// Match reports whether the slash-separated relative path matches one of
// patterns, with the same base-name rule as Exclude.
func Match(rel string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
		if !strings.Contains(pat, "/") {
			if ok, _ := doublestar.Match(pat, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}
