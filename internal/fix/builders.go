package fix

import (
	"overrider/internal/diag"
	"overrider/internal/source"
)

// Option adjusts a fix built by ReplaceSpan.
type Option func(*diag.Fix)

// WithID gives the fix a stable identifier; Apply skips repeated ids.
func WithID(id string) Option {
	return func(f *diag.Fix) { f.ID = id }
}

// Preferred makes Apply pick this fix over the other suggestions of the
// same diagnostic.
func Preferred() Option {
	return func(f *diag.Fix) { f.IsPreferred = true }
}

// ReplaceSpan builds a single-edit fix. When expect is not empty the edit
// only applies while the span still holds exactly that text.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	f := diag.Fix{
		Title:         title,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}},
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}
