// Package lint implements a go/analysis pass that checks //overrider:
// directives where the Go toolchain can see them.
//
// Template files carry a build constraint on the template tag and are
// invisible to a normal build, so any directive the pass meets in a compiled
// file is suspicious: either the file lacks the constraint and its
// directives are silently compiled as plain comments, or the directive is
// malformed or attached to something that cannot be overridden.
package lint

import (
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/token"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"overrider/internal/diag"
	"overrider/internal/directive"
	"overrider/internal/rewrite"
)

const (
	CategoryMissingTag = "missing-template-tag"
	CategoryDirective  = "directive"
	CategoryMisplaced  = "misplaced-directive"
)

var buildTag = rewrite.DefaultBuildTag

// Analyzer reports directive problems. Use it with singlechecker or go vet -vettool.
var Analyzer = &analysis.Analyzer{
	Name:     "overriderlint",
	Doc:      "reports //overrider: directives that would be ignored or rejected",
	Run:      run,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

func init() {
	Analyzer.Flags.StringVar(&buildTag, "tag", rewrite.DefaultBuildTag, "build tag that marks template files")
}

func run(pass *analysis.Pass) (any, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	docs := topLevelDocs(insp)

	for _, f := range pass.Files {
		if ast.IsGenerated(f) {
			continue
		}
		checkFile(pass, f, docs)
	}
	return nil, nil
}

func checkFile(pass *analysis.Pass, f *ast.File, docs map[*ast.CommentGroup]bool) {
	var first *ast.Comment
	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if !directive.Is(c.Text) {
				continue
			}
			if first == nil {
				first = c
			}
			if !docs[cg] {
				pass.Report(analysis.Diagnostic{
					Pos:      c.Pos(),
					End:      c.End(),
					Category: CategoryMisplaced,
					Message:  "directive is not attached to a top-level declaration and has no effect",
				})
			}
		}
	}
	if first == nil {
		return
	}

	if !requiresTag(f, buildTag) {
		pass.Report(analysis.Diagnostic{
			Pos:      first.Pos(),
			End:      first.End(),
			Category: CategoryMissingTag,
			Message:  fmt.Sprintf("file has overrider directives but no //go:build %s constraint; it compiles as ordinary code", buildTag),
			SuggestedFixes: []analysis.SuggestedFix{{
				Message:   "add //go:build " + buildTag,
				TextEdits: []analysis.TextEdit{addTagEdit(f, buildTag)},
			}},
		})
	}

	coll := directive.Collect(f)
	for _, e := range coll.Errors {
		report(pass, e.Pos, e.End, e.Code, e.Msg)
	}
	for _, u := range coll.Unsupported {
		report(pass, u.Directive.Pos(), u.Directive.End(), diag.GenUnsupportedItemKind,
			fmt.Sprintf("%s%s cannot be applied to a %s declaration", directive.Prefix, u.Directive.Name, u.What))
	}
}

func report(pass *analysis.Pass, pos, end token.Pos, code diag.Code, msg string) {
	pass.Report(analysis.Diagnostic{
		Pos:      pos,
		End:      end,
		Category: CategoryDirective,
		Message:  code.ID() + ": " + msg,
	})
}

// topLevelDocs collects the comment groups directive.Collect reads from:
// docs of top-level declarations and of their specs.
func topLevelDocs(insp *inspector.Inspector) map[*ast.CommentGroup]bool {
	docs := make(map[*ast.CommentGroup]bool)
	filter := []ast.Node{(*ast.FuncDecl)(nil), (*ast.GenDecl)(nil)}
	insp.WithStack(filter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push || len(stack) != 2 {
			return false
		}
		switch d := n.(type) {
		case *ast.FuncDecl:
			add(docs, d.Doc)
		case *ast.GenDecl:
			add(docs, d.Doc)
			for _, s := range d.Specs {
				switch sp := s.(type) {
				case *ast.ValueSpec:
					add(docs, sp.Doc)
				case *ast.TypeSpec:
					add(docs, sp.Doc)
				case *ast.ImportSpec:
					add(docs, sp.Doc)
				}
			}
		}
		return false
	})
	return docs
}

func add(set map[*ast.CommentGroup]bool, cg *ast.CommentGroup) {
	if cg != nil {
		set[cg] = true
	}
}

// requiresTag reports whether the file's //go:build line excludes it from
// builds that do not set tag.
func requiresTag(f *ast.File, tag string) bool {
	expr := goBuild(f)
	if expr == nil {
		return false
	}
	return !expr.Eval(func(t string) bool { return t != tag })
}

func goBuild(f *ast.File) constraint.Expr {
	c := goBuildComment(f)
	if c == nil {
		return nil
	}
	expr, err := constraint.Parse(c.Text)
	if err != nil {
		return nil
	}
	return expr
}

func goBuildComment(f *ast.File) *ast.Comment {
	for _, cg := range f.Comments {
		if cg.Pos() >= f.Package {
			break
		}
		for _, c := range cg.List {
			if constraint.IsGoBuild(c.Text) {
				return c
			}
		}
	}
	return nil
}

// addTagEdit extends an existing //go:build line with tag or inserts a new
// one at the top of the file.
func addTagEdit(f *ast.File, tag string) analysis.TextEdit {
	if c := goBuildComment(f); c != nil {
		if expr, err := constraint.Parse(c.Text); err == nil {
			and := &constraint.AndExpr{X: expr, Y: &constraint.TagExpr{Tag: tag}}
			return analysis.TextEdit{Pos: c.Pos(), End: c.End(), NewText: []byte("//go:build " + and.String())}
		}
	}
	return analysis.TextEdit{Pos: f.FileStart, End: f.FileStart, NewText: []byte("//go:build " + tag + "\n\n")}
}
