package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"overrider/internal/diag"
	"overrider/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note, code, gutter, caret, fix *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		fix:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.gutter, p.caret, p.fix} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
// Диагностики без позиции печатаются без контекста.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, d, fs, opts, pal)
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "... and %d more diagnostic(s) not shown\n", n)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	sev := pal.severity(d.Severity).Sprint(d.Severity.String())
	code := pal.code.Sprint(d.Code.ID())
	loc, ok := locate(fs, d.Primary, opts.PathMode)
	if ok {
		fmt.Fprintf(w, "%s: %s %s: %s\n", loc, sev, code, d.Message)
		renderContext(w, fs, d.Primary, opts, pal)
	} else {
		fmt.Fprintf(w, "%s %s: %s\n", sev, code, d.Message)
	}

	// заметка с таймингами несёт JSON, в pretty её не показываем
	if (opts.ShowNotes || d.Severity >= diag.SevError) && d.Code != diag.ObsTimings {
		for _, n := range d.Notes {
			label := pal.note.Sprint("note")
			if nloc, ok := locate(fs, n.Span, opts.PathMode); ok {
				fmt.Fprintf(w, "  %s: %s: %s\n", label, nloc, n.Msg)
			} else {
				fmt.Fprintf(w, "  %s: %s\n", label, n.Msg)
			}
		}
	}

	if opts.ShowFixes {
		for i, f := range d.Fixes {
			renderFix(w, fs, i+1, f, opts, pal)
		}
	}
	fmt.Fprintln(w)
}

func renderFix(w io.Writer, fs *source.FileSet, n int, f diag.Fix, opts PrettyOpts, pal palette) {
	meta := []string{f.Applicability.String()}
	if f.ID != "" {
		meta = append(meta, "id="+f.ID)
	}
	if f.IsPreferred {
		meta = append(meta, "preferred")
	}
	fmt.Fprintf(w, "  %s: %s [%s]\n", pal.fix.Sprintf("fix #%d", n), f.Title, strings.Join(meta, ", "))
	for _, e := range f.Edits {
		where := "?"
		if loc, ok := locate(fs, e.Span, opts.PathMode); ok {
			where = loc
		}
		fmt.Fprintf(w, "      %s apply=%s\n", where, strconv.Quote(e.NewText))
		if !opts.ShowPreview {
			continue
		}
		pv, err := editPreview(fs, e)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, "      preview:")
		for _, l := range pv.before {
			fmt.Fprintf(w, "        %s\n", pal.err.Sprint("- "+l))
		}
		for _, l := range pv.after {
			fmt.Fprintf(w, "        %s\n", pal.fix.Sprint("+ "+l))
		}
	}
}

// locate renders path:line:col, or reports false for spans outside any file.
func locate(fs *source.FileSet, sp source.Span, mode PathMode) (string, bool) {
	if fs == nil {
		return "", false
	}
	f := fs.Get(sp.File)
	if f == nil {
		return "", false
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, fs, mode), start.Line, start.Col), true
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	return f.FormatPath(mode.style(), fs.BaseDir())
}

func renderContext(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, pal palette) {
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	ctx := uint32(max(opts.Context, 0))
	first := start.Line - min(ctx, start.Line-1)
	last := start.Line + ctx
	gutterWidth := len(strconv.FormatUint(uint64(last), 10))
	blank := pal.gutter.Sprint(strings.Repeat(" ", gutterWidth) + " |")

	fmt.Fprintln(w, blank)
	for ln := first; ln <= last; ln++ {
		if ln > start.Line && ln > f.Lines() {
			break
		}
		text := expandTabs(strings.TrimRight(f.Line(ln), "\r"))
		if opts.Width > 0 {
			text = runewidth.Truncate(text, int(opts.Width), "...")
		}
		num := pal.gutter.Sprintf("%*d |", gutterWidth, ln)
		fmt.Fprintf(w, "%s %s\n", num, text)
		if ln != start.Line {
			continue
		}
		raw := f.Line(ln)
		startCol := int(start.Col) - 1
		endCol := len(raw)
		if end.Line == start.Line {
			endCol = int(end.Col) - 1
		}
		startCol = clamp(startCol, 0, len(raw))
		endCol = clamp(endCol, startCol, len(raw))
		pad := runewidth.StringWidth(expandTabs(raw[:startCol]))
		span := runewidth.StringWidth(expandTabs(raw[startCol:endCol]))
		marker := "^"
		if span > 1 {
			marker += strings.Repeat("~", span-1)
		}
		fmt.Fprintf(w, "%s %s%s\n", blank, strings.Repeat(" ", pad), pal.caret.Sprint(marker))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
