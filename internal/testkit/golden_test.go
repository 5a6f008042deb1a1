package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"overrider/internal/diag"
	"overrider/internal/source"
)

func TestGolden(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")
	tmpl := fs.Add("/workspace/greet/greet.go", []byte("a\nb\n"), 0)
	gen := fs.Add("/workspace/greet/greet_override.go", []byte("x\n"), 0)

	items := []diag.Diagnostic{
		diag.NewError(diag.GenFinalRequested, source.Span{File: tmpl, Start: 0, End: 1}, "first line\nsecond").
			WithNote(source.Span{File: gen}, "skip me").
			WithNote(source.Span{File: tmpl, Start: 2, End: 3}, "note line"),
		diag.NewWarning(diag.ScanFlagWithoutDefault, source.Span{File: tmpl, Start: 2, End: 3}, "another"),
		diag.NewError(diag.IOTableError, source.NoSpan, "nowhere"),
	}

	want := "error GEN2003 greet/greet.go:1:1 first line second\n" +
		"note GEN2003 greet/greet.go:2:1 note line\n" +
		"warning SCN3005 greet/greet.go:2:1 another"
	assert.Equal(t, want, Golden(fs, items))
}
