// Package directive extracts and parses //overrider: comment directives.
//
// A directive occupies one line comment in the doc comment of a declaration:
//
//	//overrider:override_default(priority = 2)
//	func Greet() string { ... }
//
// The argument list is optional, may be parenthesised or bare, and is
// tokenised with go/scanner. Each directive kind has a Schema describing the
// arguments it accepts; parsing is driven entirely by the schema.
package directive

import (
	"go/ast"
	"go/token"
	"strings"

	"overrider/internal/diag"
)

// Prefix starts every directive comment.
const Prefix = "//overrider:"

// Kind of override directive.
type Kind uint8

const (
	KindDefault Kind = iota + 1
	KindOverrideDefault
	KindFinal
	KindFlag
)

var kindNames = map[string]Kind{
	"default":          KindDefault,
	"override_default": KindOverrideDefault,
	"override_final":   KindFinal,
	"override_flag":    KindFlag,
}

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindOverrideDefault:
		return "override_default"
	case KindFinal:
		return "override_final"
	case KindFlag:
		return "override_flag"
	}
	return "unknown"
}

// LookupKind maps a directive name to its kind.
func LookupKind(name string) (Kind, bool) {
	k, ok := kindNames[name]
	return k, ok
}

// Directive is one directive comment as written.
type Directive struct {
	Kind    Kind
	Name    string
	Args    string
	Comment *ast.Comment
	// ArgsPos is the position of the first byte of Args.
	ArgsPos token.Pos
}

func (d Directive) Pos() token.Pos { return d.Comment.Slash }
func (d Directive) End() token.Pos { return d.Comment.End() }

// Is reports whether a comment text is an overrider directive.
func Is(text string) bool {
	return strings.HasPrefix(text, Prefix)
}

// Extract returns the directives of cg in source order. A comment with the
// directive prefix but an unknown name yields an error and is skipped.
func Extract(cg *ast.CommentGroup) ([]Directive, []*Error) {
	if cg == nil {
		return nil, nil
	}
	var (
		out  []Directive
		errs []*Error
	)
	for _, c := range cg.List {
		if !Is(c.Text) {
			continue
		}
		rest := c.Text[len(Prefix):]
		nameLen := strings.IndexFunc(rest, func(r rune) bool {
			return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
		})
		if nameLen < 0 {
			nameLen = len(rest)
		}
		name := rest[:nameLen]
		kind, ok := LookupKind(name)
		if !ok {
			errs = append(errs, &Error{
				Code: diag.AttrUnknownDirective,
				Pos:  c.Slash,
				End:  c.End(),
				Msg:  "unknown directive " + Prefix + name,
			})
			continue
		}
		out = append(out, Directive{
			Kind:    kind,
			Name:    name,
			Args:    rest[nameLen:],
			Comment: c,
			ArgsPos: c.Slash + token.Pos(len(Prefix)+nameLen),
		})
	}
	return out, errs
}

// Strip removes directive comments from cg. It reports whether anything was
// removed and whether the group became empty.
func Strip(cg *ast.CommentGroup) (removed, empty bool) {
	if cg == nil {
		return false, true
	}
	kept := cg.List[:0]
	for _, c := range cg.List {
		if Is(c.Text) {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	cg.List = kept
	return removed, len(kept) == 0
}
