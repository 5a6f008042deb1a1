// Package testkit holds checks shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// CheckDiagnostics verifies what every renderer relies on:
//  1. a span either has no file (source.NoFile) or lies inside its file;
//  2. notes follow the same rule;
//  3. a fix edit with OldText matches the bytes it replaces.
func CheckDiagnostics(fs *source.FileSet, items []diag.Diagnostic) error {
	for i, d := range items {
		if err := checkSpan(fs, d.Primary); err != nil {
			return fmt.Errorf("diagnostic %d (%s): %w", i, d.Code.ID(), err)
		}
		for _, n := range d.Notes {
			if err := checkSpan(fs, n.Span); err != nil {
				return fmt.Errorf("diagnostic %d (%s) note: %w", i, d.Code.ID(), err)
			}
		}
		for _, fx := range d.Fixes {
			for _, e := range fx.Edits {
				if err := checkEdit(fs, e); err != nil {
					return fmt.Errorf("diagnostic %d (%s) fix %q: %w", i, d.Code.ID(), fx.Title, err)
				}
			}
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	if sp.File == source.NoFile {
		return nil
	}
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span %v points to unknown file", sp)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("span %v ends before it starts", sp)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > lenContent {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, lenContent)
	}
	return nil
}

func checkEdit(fs *source.FileSet, e diag.TextEdit) error {
	if e.Span.File == source.NoFile {
		return fmt.Errorf("edit without a file")
	}
	if err := checkSpan(fs, e.Span); err != nil {
		return err
	}
	if e.OldText == "" {
		return nil
	}
	f := fs.Get(e.Span.File)
	if got := string(f.Content[e.Span.Start:e.Span.End]); got != e.OldText {
		return fmt.Errorf("edit expects %q, file has %q", e.OldText, got)
	}
	return nil
}
