package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overrider/internal/diag"
	"overrider/internal/fix"
	"overrider/internal/source"
)

func TestCheckDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.go", []byte("//overrider:override_final\n"))
	sp := source.Span{File: id, Start: 2, End: 26}

	good := diag.NewError(diag.GenFinalRequested, sp, "final").
		WithNote(source.NoSpan, "no location").
		WithFixSuggestion(fix.ReplaceSpan("raise", sp, "overrider:override_default(priority = 1)", "overrider:override_final"))
	require.NoError(t, CheckDiagnostics(fs, []diag.Diagnostic{good, diag.NewWarning(diag.ScanGlobError, source.NoSpan, "glob")}))

	outside := diag.NewError(diag.GenFinalRequested, source.Span{File: id, Start: 2, End: 400}, "x")
	assert.Error(t, CheckDiagnostics(fs, []diag.Diagnostic{outside}))

	stale := diag.NewError(diag.GenFinalRequested, sp, "x").
		WithFixSuggestion(fix.ReplaceSpan("raise", sp, "new", "something else"))
	assert.ErrorContains(t, CheckDiagnostics(fs, []diag.Diagnostic{stale}), "edit expects")

	unknown := diag.NewError(diag.GenFinalRequested, source.Span{File: id + 5}, "x")
	assert.Error(t, CheckDiagnostics(fs, []diag.Diagnostic{unknown}))
}
