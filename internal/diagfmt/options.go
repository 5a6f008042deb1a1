package diagfmt

import "overrider/internal/source"

// PathMode selects how template paths appear in rendered diagnostics.
type PathMode uint8

const (
	PathModeAuto PathMode = iota // as scanned, long absolute paths shortened
	PathModeAbsolute
	PathModeRelative // against the FileSet base
	PathModeBasename
)

func (m PathMode) style() string {
	switch m {
	case PathModeAbsolute:
		return source.PathAbsolute
	case PathModeRelative:
		return source.PathRelative
	case PathModeBasename:
		return source.PathBasename
	}
	return source.PathAuto
}

// PrettyOpts controls the human-readable renderer.
type PrettyOpts struct {
	Color    bool
	Context  int8 // строки контекста вокруг позиции
	PathMode PathMode
	// Width truncates source lines; zero keeps them whole.
	Width       uint8
	ShowNotes   bool // notes of errors are always shown
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts controls JSON output. Max truncates the rendered list only; the
// bag keeps everything.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int
	IncludeNotes     bool
	IncludeFixes     bool
	IncludePreviews  bool
}

// SarifRunMeta describes the tool invocation recorded in a SARIF run.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
