package directive

import (
	"fmt"
	"go/token"

	"overrider/internal/diag"
	"overrider/internal/source"
)

// Error is a directive problem located in the parsed file.
type Error struct {
	Code diag.Code
	Pos  token.Pos
	End  token.Pos
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Msg)
}

// Diagnostic converts e into an error diagnostic of file id.
func (e *Error) Diagnostic(tf *token.File, id source.FileID) diag.Diagnostic {
	return diag.NewError(e.Code, source.PosSpan(tf, id, e.Pos, e.End), e.Msg)
}

func errorAt(code diag.Code, pos, end token.Pos, format string, args ...any) *Error {
	return &Error{Code: code, Pos: pos, End: end, Msg: fmt.Sprintf(format, args...)}
}
