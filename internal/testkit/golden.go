package testkit

import (
	"fmt"
	"slices"
	"strings"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// Golden renders diagnostics one per line as
//
//	<severity> <CODE> <path>:<line>:<col> <message>
//
// with notes as "note" lines under the same code. Paths are relative to the
// FileSet base, lines are sorted, and anything pointing into a generated
// *_override.go file or into no file at all is left out.
func Golden(fs *source.FileSet, items []diag.Diagnostic) string {
	var lines []string
	emit := func(sev string, code diag.Code, sp source.Span, msg string) {
		f := fs.Get(sp.File)
		if f == nil {
			return
		}
		path := strings.TrimPrefix(f.FormatPath(source.PathRelative, fs.BaseDir()), "./")
		if strings.HasSuffix(path, "_override.go") {
			return
		}
		start, _ := fs.Resolve(sp)
		lines = append(lines, fmt.Sprintf("%s %s %s:%d:%d %s", sev, code.ID(), path, start.Line, start.Col, flatten(msg)))
	}
	for _, d := range items {
		emit(strings.ToLower(d.Severity.String()), d.Code, d.Primary, d.Message)
		for _, n := range d.Notes {
			emit("note", d.Code, n.Span, n.Msg)
		}
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}

func flatten(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
