package scan

import (
	"fmt"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// Error aborts a scan. Glob, I/O and directive errors are all fatal: the
// table would otherwise silently keep candidates that should lose.
type Error struct {
	Code diag.Code
	Path string
	// Span is source.NoSpan for errors without a source location (glob, I/O).
	Span source.Span
	Msg  string
	// Related points at the other candidates of a priority tie.
	Related []source.Span
	Err     error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code.ID(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Diagnostic renders e for diagfmt.
func (e *Error) Diagnostic() diag.Diagnostic {
	d := diag.NewError(e.Code, e.Span, e.Msg)
	for _, sp := range e.Related {
		d = d.WithNote(sp, "also declared here with the same priority")
	}
	return d
}

// Deferred records a file the Go parser rejected. The scan stops and leaves
// the syntax error to the compiler.
type Deferred struct {
	Path   string
	FileID source.FileID
	Err    error
}

func (d *Deferred) Diagnostic(fs *source.FileSet) diag.Diagnostic {
	sp := source.NoSpan
	if fs.Get(d.FileID) != nil {
		sp = source.Span{File: d.FileID}
	}
	return diag.NewWarning(diag.ScanParseError, sp,
		fmt.Sprintf("%s does not parse; scan skipped, the compiler will report it: %v", d.Path, d.Err))
}
