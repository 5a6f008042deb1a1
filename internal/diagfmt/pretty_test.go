package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"overrider/internal/diag"
	"overrider/internal/fix"
	"overrider/internal/source"
)

const finalTemplate = "//go:build overrider\n\npackage greet\n\n//overrider:override_final\nfunc Greet() string { return \"x\" }\n"

const finalDirective = "//overrider:override_final"

func finalDiagnostic(t *testing.T, path string) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(path, []byte(finalTemplate))
	start := uint32(strings.Index(finalTemplate, finalDirective))
	sp := source.Span{File: id, Start: start, End: start + uint32(len(finalDirective))}

	d := diag.NewError(diag.GenFinalRequested, sp, "final override of Greet needs priority 1").
		WithNote(sp, "no override_default chain exists for Greet").
		WithFixSuggestion(fix.ReplaceSpan(
			"turn final into override_default",
			sp,
			"//overrider:override_default(priority = 1)",
			finalDirective,
			fix.WithID("final-greet"),
			fix.Preferred(),
		))
	bag := diag.NewBag(10)
	bag.Add(d)
	return fs, bag
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs, bag := finalDiagnostic(t, "/home/user/project/src/greet.go")
	fs.SetBaseDir("/home/user/project")

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/src/greet.go:5:1"},
		{name: "Relative path", mode: PathModeRelative, contains: "\nsrc/greet.go:5:1"},
		{name: "Basename only", mode: PathModeBasename, contains: "\ngreet.go:5:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := "\n" + buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR GEN2003: final override of Greet needs priority 1") {
				t.Errorf("missing header line:\n%s", output)
			}
		})
	}
}

func TestPrettyContextAndCaret(t *testing.T) {
	fs, bag := finalDiagnostic(t, "greet.go")

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := strings.Join([]string{
		"greet.go:5:1: ERROR GEN2003: final override of Greet needs priority 1",
		"  |",
		"5 | //overrider:override_final",
		"  | ^" + strings.Repeat("~", len(finalDirective)-1),
		"  note: greet.go:5:1: no override_default chain exists for Greet",
		"",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyContextLines(t *testing.T) {
	fs, bag := finalDiagnostic(t, "greet.go")

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1})
	out := buf.String()

	for _, line := range []string{"4 | \n", "5 | //overrider:override_final\n", "6 | func Greet() string"} {
		if !strings.Contains(out, line) {
			t.Errorf("missing %q in:\n%s", line, out)
		}
	}
}

func TestPrettyFixesAndPreview(t *testing.T) {
	fs, bag := finalDiagnostic(t, "greet.go")

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{
		PathMode:    PathModeBasename,
		ShowFixes:   true,
		ShowPreview: true,
	})
	out := buf.String()

	for _, want := range []string{
		"fix #1: turn final into override_default [always-safe, id=final-greet, preferred]",
		`greet.go:5:1 apply="//overrider:override_default(priority = 1)"`,
		"preview:",
		"- //overrider:override_final",
		"+ //overrider:override_default(priority = 1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrettyWithoutLocation(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.IOWriteFileError, source.NoSpan, "cannot write out.go"))

	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{})

	if got, want := buf.String(), "ERROR IO4002: cannot write out.go\n\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrettyColor(t *testing.T) {
	fs, bag := finalDiagnostic(t, "greet.go")

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})

	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain output carries escape codes:\n%q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("colored output has no escape codes:\n%q", colored.String())
	}
}

func TestPrettyTabsAndWideRunes(t *testing.T) {
	src := "\tx := \"日本\" // bad\n"
	fs := source.NewFileSet()
	id := fs.AddVirtual("w.go", []byte(src))
	start := uint32(strings.Index(src, "// bad"))
	bag := diag.NewBag(1)
	bag.Add(diag.NewWarning(diag.AttrUnknownDirective, source.Span{File: id, Start: start, End: start + 6}, "odd"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})

	// таб раскрывается в 4 пробела, каждый иероглиф занимает две колонки
	pad := strings.Repeat(" ", 4+len(`x := "`)+4+len(`" `))
	if !strings.Contains(buf.String(), "  | "+pad+"^~~~~~\n") {
		t.Errorf("caret misaligned:\n%s", buf.String())
	}
}

func TestShort(t *testing.T) {
	fs, bag := finalDiagnostic(t, "greet.go")
	bag.Add(diag.NewError(diag.IOTableError, source.NoSpan, "cannot write table"))

	var buf bytes.Buffer
	Short(&buf, bag, fs, PathModeBasename)

	want := "greet.go:5:1: ERROR GEN2003: final override of Greet needs priority 1\n" +
		"overrider: ERROR IO4003: cannot write table\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyReportsDropped(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.IOTableError, source.NoSpan, "first"))
	bag.Add(diag.NewError(diag.IOTableError, source.NoSpan, "second"))

	var buf bytes.Buffer
	Pretty(&buf, bag, nil, PrettyOpts{})
	if !strings.Contains(buf.String(), "... and 1 more diagnostic(s) not shown") {
		t.Errorf("missing dropped summary:\n%s", buf.String())
	}
}
