// Package trace records spans of an overrider build: the scan phase, each
// parsed template, chain resolution and each rewritten file.
//
// Enable it from the CLI:
//
//	overrider build --trace=- --trace-level=detail 'pkg/**/*.go'
//
// Text output goes through a charmbracelet/log logger; NDJSON output is one
// JSON object per line. Levels map onto scopes:
//
//   - phase: driver and phase spans
//   - detail: plus one span per file
//   - debug: plus per-chain decisions
//   - error: only failures
//
// The tracer travels through context:
//
//	ctx = trace.WithTracer(ctx, t)
//	ctx, span := trace.Start(ctx, trace.ScopePhase, "scan")
//	defer span.End("")
package trace
