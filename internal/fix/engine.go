package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// ErrNoFixes is returned when no fix could be applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// AppliedFix records a fix written to disk.
type AppliedFix struct {
	ID          string
	Title       string
	Code        diag.Code
	PrimaryPath string
	EditCount   int
}

// SkippedFix is a fix that was not applied, with the reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises what happened to one template.
type FileChange struct {
	Path      string
	EditCount int
}

type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

// pending is one selected fix with its edits split per file.
type pending struct {
	d     diag.Diagnostic
	fix   diag.Fix
	files map[source.FileID][]diag.TextEdit
}

// Apply writes one fix per diagnostic into the files it targets. A
// diagnostic contributes its preferred fix, otherwise its first
// always-safe one. A fix is all-or-nothing: when any of its edits
// overlaps an already accepted edit or its guard text no longer matches,
// the whole fix is skipped.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic) (*ApplyResult, error) {
	res := &ApplyResult{}
	if fs == nil {
		return res, errors.New("fix: FileSet is nil")
	}

	accepted := make(map[source.FileID][]diag.TextEdit)
	seen := make(map[string]bool)
	for i, d := range diagnostics {
		f, ok := choose(d.Fixes)
		if !ok {
			continue
		}
		if f.ID == "" {
			f.ID = fmt.Sprintf("%s@%d:%d#%d", d.Code.ID(), d.Primary.File, d.Primary.Start, i)
		}
		if seen[f.ID] {
			res.Skipped = append(res.Skipped, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
			continue
		}
		seen[f.ID] = true

		p := pending{d: d, fix: f, files: make(map[source.FileID][]diag.TextEdit)}
		for _, e := range f.Edits {
			p.files[e.Span.File] = append(p.files[e.Span.File], e)
		}
		if reason := check(fs, p, accepted); reason != "" {
			res.Skipped = append(res.Skipped, SkippedFix{ID: f.ID, Title: f.Title, Reason: reason})
			continue
		}
		for id, edits := range p.files {
			accepted[id] = append(accepted[id], edits...)
		}
		res.Applied = append(res.Applied, AppliedFix{
			ID:          f.ID,
			Title:       f.Title,
			Code:        d.Code,
			PrimaryPath: displayPath(fs, d.Primary.File),
			EditCount:   len(f.Edits),
		})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}

	ids := make([]source.FileID, 0, len(accepted))
	for id := range accepted {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		file := fs.Get(id)
		if err := writeAtomic(file.Path, splice(file.Content, accepted[id])); err != nil {
			return res, fmt.Errorf("write %s: %w", file.Path, err)
		}
		res.FileChanges = append(res.FileChanges, FileChange{Path: displayPath(fs, id), EditCount: len(accepted[id])})
	}
	return res, nil
}

func choose(fixes []diag.Fix) (diag.Fix, bool) {
	var safe *diag.Fix
	for i := range fixes {
		if len(fixes[i].Edits) == 0 {
			continue
		}
		if fixes[i].IsPreferred {
			return fixes[i], true
		}
		if safe == nil && fixes[i].Applicability == diag.FixApplicabilityAlwaysSafe {
			safe = &fixes[i]
		}
	}
	if safe == nil {
		return diag.Fix{}, false
	}
	return *safe, true
}

// check validates p against the original contents and the edits accepted so
// far; offsets always refer to the file as loaded.
func check(fs *source.FileSet, p pending, accepted map[source.FileID][]diag.TextEdit) string {
	for id, edits := range p.files {
		file := fs.Get(id)
		switch {
		case file == nil:
			return "target file is unknown"
		case file.Flags&source.FileVirtual != 0:
			return "target file is virtual"
		}
		for i, e := range edits {
			if e.Span.End < e.Span.Start || int(e.Span.End) > len(file.Content) {
				return "edit span out of range"
			}
			if e.OldText != "" && string(file.Content[e.Span.Start:e.Span.End]) != e.OldText {
				return "existing text does not match expected content"
			}
			for _, prev := range accepted[id] {
				if overlaps(prev.Span, e.Span) {
					return "conflicts with an earlier fix in " + displayPath(fs, id)
				}
			}
			for _, other := range edits[i+1:] {
				if overlaps(other.Span, e.Span) {
					return "fix has overlapping edits"
				}
			}
		}
	}
	return ""
}

// overlaps treats spans as half-open; two insertions never collide, an
// insertion collides with a span that strictly contains its position.
func overlaps(a, b source.Span) bool {
	switch {
	case a.Start == a.End && b.Start == b.End:
		return false
	case a.Start == a.End:
		return b.Start < a.Start && a.Start < b.End
	case b.Start == b.End:
		return a.Start < b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// splice applies non-overlapping edits to src back to front.
func splice(src []byte, edits []diag.TextEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.TextEdit) int {
		return int(b.Span.Start) - int(a.Span.Start)
	})
	out := slices.Clone(src)
	for _, e := range sorted {
		var sb strings.Builder
		sb.Grow(len(out) + len(e.NewText))
		sb.Write(out[:e.Span.Start])
		sb.WriteString(e.NewText)
		sb.Write(out[e.Span.End:])
		out = []byte(sb.String())
	}
	return out
}

func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".overrider-fix-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func displayPath(fs *source.FileSet, id source.FileID) string {
	if file := fs.Get(id); file != nil {
		return file.FormatPath("relative", fs.BaseDir())
	}
	return ""
}
