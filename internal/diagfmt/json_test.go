package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	fs, bag := finalDiagnostic(t, "greet.go")

	var buf bytes.Buffer
	opts := JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
		IncludeFixes:     true,
		IncludePreviews:  true,
	}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output Report
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", output.Count)
	}

	d := output.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "GEN2003" {
		t.Errorf("unexpected header %s %s", d.Severity, d.Code)
	}
	if d.Location == nil {
		t.Fatal("expected location")
	}
	if d.Location.File != "greet.go" || d.Location.StartLine != 5 || d.Location.StartCol != 1 {
		t.Errorf("unexpected location %+v", *d.Location)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(d.Notes))
	}

	if len(d.Fixes) != 1 {
		t.Fatalf("expected 1 fix, got %d", len(d.Fixes))
	}
	f := d.Fixes[0]
	if f.ID != "final-greet" || !f.IsPreferred || f.Applicability != "always-safe" {
		t.Errorf("unexpected fix %+v", f)
	}
	if len(f.Edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(f.Edits))
	}
	e := f.Edits[0]
	if e.OldText != finalDirective {
		t.Errorf("old text = %q", e.OldText)
	}
	if len(e.AfterLines) != 1 || e.AfterLines[0] != "//overrider:override_default(priority = 1)" {
		t.Errorf("after lines = %q", e.AfterLines)
	}
}

func TestJSONLocationlessIsNull(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.ScanGlobError, source.NoSpan, "bad pattern"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, source.NewFileSet(), JSONOpts{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"location": null`) {
		t.Errorf("expected null location:\n%s", buf.String())
	}
}

func TestJSONMax(t *testing.T) {
	bag := diag.NewBag(0)
	for range 5 {
		bag.Add(diag.NewWarning(diag.ScanFlagWithoutDefault, source.NoSpan, "flag"))
	}
	out := BuildReport(bag, nil, JSONOpts{Max: 2})
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
}

// тайминги всегда несут заметку, даже без IncludeNotes
func TestJSONKeepsTimingNotes(t *testing.T) {
	bag := diag.NewBag(0)
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan, "pipeline timings")
	d.Notes = []diag.Note{{Span: source.NoSpan, Msg: `{"phases":[]}`}}
	bag.Add(d)

	out := BuildReport(bag, nil, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 1 {
		t.Errorf("timing note dropped")
	}
}

func TestSarif(t *testing.T) {
	fs, bag := finalDiagnostic(t, "greet.go")
	bag.Add(diag.NewError(diag.IOTableError, source.NoSpan, "cannot write table"))

	var buf bytes.Buffer
	if err := Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "overrider", ToolVersion: "1.2.3", InvocationArgs: []string{"build"}}); err != nil {
		t.Fatal(err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v\n%s", err, buf.String())
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log header %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Version != "1.2.3" || len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("unexpected driver %+v", run.Tool.Driver)
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Error("run with errors reported as successful")
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}

	first := run.Results[0]
	if first.RuleID != "GEN2003" || first.Level != "error" {
		t.Errorf("unexpected result %+v", first)
	}
	if len(first.Locations) != 1 || first.Locations[0].Physical.Region.StartLine != 5 {
		t.Errorf("unexpected locations %+v", first.Locations)
	}
	if len(first.Fixes) != 1 || first.Fixes[0].Changes[0].Replacements[0].Inserted.Text != "//overrider:override_default(priority = 1)" {
		t.Errorf("unexpected fixes %+v", first.Fixes)
	}
	if len(run.Results[1].Locations) != 0 {
		t.Errorf("locationless result has locations")
	}
}
