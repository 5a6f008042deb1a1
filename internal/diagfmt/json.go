package diagfmt

import (
	"encoding/json"
	"io"
	"slices"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// Report is the document JSON writes.
type Report struct {
	Diagnostics []Entry `json:"diagnostics"`
	Count       int     `json:"count"`
}

type Entry struct {
	Severity string    `json:"severity"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Location *Location `json:"location"` // null для глобальных диагностик
	Notes    []Note    `json:"notes,omitempty"`
	Fixes    []Fix     `json:"fixes,omitempty"`
}

type Location struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type Note struct {
	Message  string    `json:"message"`
	Location *Location `json:"location"`
}

type Fix struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Applicability string `json:"applicability"`
	IsPreferred   bool   `json:"is_preferred,omitempty"`
	Edits         []Edit `json:"edits,omitempty"`
}

type Edit struct {
	Location    *Location `json:"location"`
	NewText     string    `json:"new_text"`
	OldText     string    `json:"old_text,omitempty"`
	BeforeLines []string  `json:"before_lines,omitempty"`
	AfterLines  []string  `json:"after_lines,omitempty"`
}

type jsonBuilder struct {
	fs   *source.FileSet
	opts JSONOpts
}

// BuildReport converts the bag without encoding it. Timing diagnostics keep
// their note regardless of IncludeNotes: it carries the payload.
func BuildReport(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) Report {
	b := jsonBuilder{fs: fs, opts: opts}
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	rep := Report{Diagnostics: make([]Entry, 0, len(items))}
	for _, d := range items {
		rep.Diagnostics = append(rep.Diagnostics, b.entry(d))
	}
	rep.Count = len(rep.Diagnostics)
	return rep
}

// JSON writes the bag as an indented Report.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(bag, fs, opts))
}

func (b jsonBuilder) entry(d diag.Diagnostic) Entry {
	e := Entry{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
		Location: b.location(d.Primary),
	}
	if b.opts.IncludeNotes || d.Code == diag.ObsTimings {
		for _, n := range d.Notes {
			e.Notes = append(e.Notes, Note{Message: n.Msg, Location: b.location(n.Span)})
		}
	}
	if b.opts.IncludeFixes {
		for _, f := range preferredFirst(d.Fixes) {
			e.Fixes = append(e.Fixes, b.fix(f))
		}
	}
	return e
}

func (b jsonBuilder) fix(f diag.Fix) Fix {
	out := Fix{
		ID:            f.ID,
		Title:         f.Title,
		Applicability: f.Applicability.String(),
		IsPreferred:   f.IsPreferred,
	}
	for _, te := range f.Edits {
		ed := Edit{Location: b.location(te.Span), NewText: te.NewText, OldText: te.OldText}
		if b.opts.IncludePreviews {
			if pv, err := editPreview(b.fs, te); err == nil {
				ed.BeforeLines, ed.AfterLines = pv.before, pv.after
			}
		}
		out.Edits = append(out.Edits, ed)
	}
	return out
}

func (b jsonBuilder) location(sp source.Span) *Location {
	if b.fs == nil {
		return nil
	}
	f := b.fs.Get(sp.File)
	if f == nil {
		return nil
	}
	loc := &Location{File: formatPath(f, b.fs, b.opts.PathMode), StartByte: sp.Start, EndByte: sp.End}
	if b.opts.IncludePositions {
		start, end := b.fs.Resolve(sp)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// preferredFirst orders fixes the way fix.Apply picks them.
func preferredFirst(fixes []diag.Fix) []diag.Fix {
	out := slices.Clone(fixes)
	slices.SortStableFunc(out, func(a, b diag.Fix) int {
		switch {
		case a.IsPreferred && !b.IsPreferred:
			return -1
		case b.IsPreferred && !a.IsPreferred:
			return 1
		}
		return int(a.Applicability) - int(b.Applicability)
	})
	return out
}
