package diagfmt

import (
	"fmt"
	"strings"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// preview holds the whole lines touched by one edit, before and after.
type preview struct {
	before []string
	after  []string
}

func editPreview(fs *source.FileSet, edit diag.TextEdit) (preview, error) {
	if fs == nil {
		return preview{}, fmt.Errorf("nil FileSet")
	}
	f := fs.Get(edit.Span.File)
	if f == nil {
		return preview{}, fmt.Errorf("file %d not in set", edit.Span.File)
	}
	start, end := fs.Resolve(edit.Span)
	from := f.LineStart(start.Line)
	to := max(f.LineEnd(max(end.Line, start.Line)), from)
	if edit.Span.Start < from || edit.Span.End > to || edit.Span.End < edit.Span.Start {
		return preview{}, fmt.Errorf("edit %v outside lines %d..%d", edit.Span, start.Line, end.Line)
	}

	block := string(f.Content[from:to])
	relStart, relEnd := edit.Span.Start-from, edit.Span.End-from
	changed := block[:relStart] + edit.NewText + block[relEnd:]
	return preview{before: previewLines(block), after: previewLines(changed)}, nil
}

func previewLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
