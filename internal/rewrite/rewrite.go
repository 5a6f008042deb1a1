// Package rewrite is the compile-time half of overrider. It turns one
// template file into plain Go: candidates the predicate table excludes are
// removed, flag candidates are renamed to their extension identifiers,
// dispatchers are synthesised for items that accept flags, and final
// markers become build-breaking diagnostics.
package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/scanner"
	"go/token"
	"path/filepath"
	"strings"

	"overrider/internal/diag"
	"overrider/internal/directive"
	"overrider/internal/source"
	"overrider/internal/table"
	"overrider/internal/trace"
)

const (
	DefaultFlagSource = "overrideFlags"
	DefaultBuildTag   = "overrider"
	DefaultSuffix     = "_override.go"
)

// Options configures a Rewriter.
type Options struct {
	// Lookup answers predicate queries. If it also implements
	// table.Coverage, files it does not cover are rejected. Nil falls back
	// to the process environment.
	Lookup table.Lookup
	// FlagSource is the expression dispatchers query for flag occurrences.
	FlagSource string
	// BuildTag is removed from the template's build constraint.
	BuildTag string
	// Suffix replaces ".go" in output file names.
	Suffix         string
	MaxDiagnostics int
}

func (o *Options) defaults() {
	if o.Lookup == nil {
		o.Lookup = table.EnvLookup{}
	}
	if o.FlagSource == "" {
		o.FlagSource = DefaultFlagSource
	}
	if o.BuildTag == "" {
		o.BuildTag = DefaultBuildTag
	}
	if o.Suffix == "" {
		o.Suffix = DefaultSuffix
	}
}

// Output is the result of rewriting one template.
type Output struct {
	Path    string // template path as loaded
	OutPath string
	// Src is the generated file; nil when Bag has errors.
	Src []byte
	Bag *diag.Bag

	Kept        int
	Dropped     int
	Renamed     int
	Dispatchers int
}

// OutputPath derives the generated file name of a template.
func OutputPath(path, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.TrimSuffix(path, ".go") + suffix
}

// Rewriter rewrites templates loaded into one FileSet.
type Rewriter struct {
	opts  Options
	files *source.FileSet
}

// New returns a Rewriter resolving spans against files.
func New(files *source.FileSet, opts Options) *Rewriter {
	opts.defaults()
	return &Rewriter{opts: opts, files: files}
}

// File parses and rewrites the template with the given id.
func (r *Rewriter) File(ctx context.Context, id source.FileID) (*Output, error) {
	f := r.files.Get(id)
	if f == nil {
		return nil, fmt.Errorf("rewrite: unknown file id %d", id)
	}
	fset := token.NewFileSet()
	af, err := parser.ParseFile(fset, f.Path, f.Content, parser.ParseComments)
	if err != nil {
		out := r.newOutput(f)
		r.reportSyntax(out.Bag, fset, id, err)
		return out, nil
	}
	return r.Unit(ctx, fset, id, af)
}

// Unit rewrites an already parsed template. af is modified in place and
// must be parsed with object resolution, import pruning reads Ident.Obj.
func (r *Rewriter) Unit(ctx context.Context, fset *token.FileSet, id source.FileID, af *ast.File) (*Output, error) {
	f := r.files.Get(id)
	if f == nil {
		return nil, fmt.Errorf("rewrite: unknown file id %d", id)
	}
	_, span := trace.Start(ctx, trace.ScopeFile, "rewrite:"+filepath.Base(f.Path))
	defer span.End("")

	out := r.newOutput(f)
	u := &unit{
		r:    r,
		fset: fset,
		tf:   fset.File(af.Pos()),
		id:   id,
		file: f,
		ast:  af,
		bag:  out.Bag,
		out:  out,
	}
	r.checkCoverage(u)

	coll := directive.Collect(af)
	for _, e := range coll.Errors {
		u.bag.Add(e.Diagnostic(u.tf, id))
	}
	for _, un := range coll.Unsupported {
		u.bag.Add(diag.NewError(diag.GenUnsupportedItemKind, u.span(un.Directive.Pos(), un.Directive.End()),
			fmt.Sprintf("%s%s cannot be applied to a %s declaration; only functions, methods and constants can be overridden",
				directive.Prefix, un.Directive.Name, un.What)))
	}

	for i := range coll.Items {
		u.decide(&coll.Items[i])
	}
	if u.bag.HasErrors() {
		u.bag.Sort()
		span.WithExtra("errors", fmt.Sprint(u.bag.Len()))
		return out, nil
	}

	u.apply()
	u.pruneImports()
	u.stripRemainingDirectives()
	removeBuildTag(af, r.opts.BuildTag)

	src, err := u.render()
	if err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", f.Path, err)
	}
	out.Src = src
	u.bag.Sort()
	span.WithExtra("dropped", fmt.Sprint(out.Dropped)).WithExtra("dispatchers", fmt.Sprint(out.Dispatchers))
	return out, nil
}

func (r *Rewriter) newOutput(f *source.File) *Output {
	return &Output{
		Path:    f.Path,
		OutPath: OutputPath(f.Path, r.opts.Suffix),
		Bag:     diag.NewBag(r.opts.MaxDiagnostics),
	}
}

func (r *Rewriter) reportSyntax(bag *diag.Bag, fset *token.FileSet, id source.FileID, err error) {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		bag.Add(diag.NewError(diag.ScanParseError, source.Span{File: id}, err.Error()))
		return
	}
	f := r.files.Get(id)
	for _, e := range list {
		off := e.Pos.Offset
		if off < 0 || off > len(f.Content) {
			off = 0
		}
		sp := source.Span{File: id, Start: uint32(off), End: uint32(off)} //nolint:gosec // bounded by content length
		bag.Add(diag.NewError(diag.ScanParseError, sp, e.Msg))
	}
}

// checkCoverage rejects tables that were computed without this file or
// from a different version of it.
func (r *Rewriter) checkCoverage(u *unit) {
	cov, ok := r.opts.Lookup.(table.Coverage)
	if !ok {
		return
	}
	rel, err := source.RelativePath(u.file.Path, r.files.BaseDir())
	if err != nil {
		rel = filepath.ToSlash(u.file.Path)
	}
	whole := source.Span{File: u.id}
	digest, covered := cov.Covers(rel)
	switch {
	case !covered:
		u.bag.Add(diag.NewError(diag.GenMissingBuildStep, whole,
			fmt.Sprintf("predicate table does not cover %s; run `overrider scan` over it first", rel)))
	case digest != u.file.Digest():
		u.bag.Add(diag.NewError(diag.GenStaleTable, whole,
			fmt.Sprintf("%s changed after the predicate table was computed; rerun `overrider scan`", rel)))
	}
}

// render prints the transformed file, appends dispatchers and formats.
func (u *unit) render() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by overrider from %s. DO NOT EDIT.\n\n", filepath.Base(u.file.Path))
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, u.fset, u.ast); err != nil {
		return nil, err
	}
	for _, d := range u.dispatchers {
		buf.WriteString("\n")
		buf.WriteString(d)
	}
	return formatSource(u.out.OutPath, buf.Bytes())
}
