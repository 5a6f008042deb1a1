// Package diag defines the diagnostic model shared by the scanner, the
// rewriter and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form: ATR for directive parsing, GEN for the rewriter, SCN for the
//     scanner, IO for file and table access.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the source.Span of the offending directive or declaration.
//   - Notes – optional secondary spans, e.g. "winning override declared here".
//   - Fixes – structured edits that internal/fix can apply.
//
// A final override request is the main producer of fixes: the diagnostic
// carries a TextEdit that replaces the directive with the override_default
// form naming the required priority.
//
// # Emitting diagnostics
//
// Producers build values with New/NewError/NewWarning, chain WithNote and
// WithFixSuggestion, and add them to a Bag. A Bag can be merged, sorted,
// deduplicated and turned into a single error via Err, which is how several
// diagnostics of one template are reported together.
//
// Package diag performs no formatting or IO. Rendering lives in
// internal/diagfmt, fix application in internal/fix.
package diag
