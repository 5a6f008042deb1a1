// Package scan is the build-time half of overrider. It reads every template
// file of a build, groups tagged declarations into priority chains, picks a
// winner per chain and records the losers in a predicate table that the
// rewriter consumes.
package scan

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"overrider/internal/diag"
	"overrider/internal/directive"
	"overrider/internal/source"
	"overrider/internal/table"
	"overrider/internal/trace"
)

// Options configures one scan.
type Options struct {
	// Patterns are doublestar globs, relative to BaseDir unless absolute.
	Patterns []string
	// BaseDir anchors patterns and the input paths recorded in the table.
	// Empty means the working directory.
	BaseDir string
	// Exclude removes matched paths, e.g. previously generated outputs.
	Exclude []string
	// Jobs limits parallel parsing; <= 0 uses GOMAXPROCS.
	Jobs int
}

// Unit is one parsed template file.
type Unit struct {
	Path   string // relative to BaseDir, slash separated
	FileID source.FileID
	AST    *ast.File
}

// Result is the outcome of a scan.
type Result struct {
	Table *table.Table
	Files *source.FileSet
	Fset  *token.FileSet
	Units []Unit
	// Chains lists default chains and flag sub-chains, grouped by key in
	// first-seen order.
	Chains []*Chain
	Finals []Final
	// Deferred is set when a file failed to parse. Table is then empty.
	Deferred *Deferred
	Warnings []diag.Diagnostic
}

type parsed struct {
	unit Unit
	tf   *token.File
	coll directive.Collection
	err  error
}

// Scan runs the prioritization pass over the files matched by opts.Patterns.
// Directive and resolution errors come back together with the partial
// Result, whose Files resolve the error spans.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopePhase, "scan")
	defer span.End("")

	base := opts.BaseDir
	if base == "" {
		base = "."
	}
	paths, empty, err := Expand(opts.BaseDir, opts.Patterns)
	if err != nil {
		trace.Fail(trace.FromContext(ctx), "scan", err, span.ID())
		return nil, err
	}
	paths = Exclude(base, paths, opts.Exclude)

	res := &Result{
		Table: table.New(),
		Files: source.NewFileSetWithBase(base),
		Fset:  token.NewFileSet(),
	}
	for _, pat := range empty {
		res.Warnings = append(res.Warnings, diag.NewWarning(diag.ScanGlobError, source.NoSpan,
			fmt.Sprintf("pattern %q matched no files", pat)))
	}

	// FileSet не потокобезопасен: читаем последовательно, парсим параллельно
	units := make([]Unit, 0, len(paths))
	for _, p := range paths {
		id, lerr := res.Files.Load(p)
		if lerr != nil {
			e := &Error{Code: diag.ScanIoError, Path: p, Span: source.NoSpan, Msg: fmt.Sprintf("cannot read %s: %v", p, lerr), Err: lerr}
			trace.Fail(trace.FromContext(ctx), "scan", e, span.ID())
			return nil, e
		}
		rel, rerr := source.RelativePath(p, base)
		if rerr != nil {
			rel = filepath.ToSlash(p)
		}
		units = append(units, Unit{Path: rel, FileID: id})
	}

	results, err := parseAll(ctx, res.Files, res.Fset, units, opts.Jobs)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if r.err != nil {
			// синтаксис - забота компилятора
			res.Deferred = &Deferred{Path: r.unit.Path, FileID: r.unit.FileID, Err: r.err}
			res.Table = table.New()
			res.Units = nil
			span.WithExtra("deferred", r.unit.Path)
			return res, nil
		}
	}

	col := newCollector()
	for _, r := range results {
		if len(r.coll.Errors) > 0 {
			e := r.coll.Errors[0]
			return res, &Error{
				Code: e.Code,
				Path: r.unit.Path,
				Span: source.PosSpan(r.tf, r.unit.FileID, e.Pos, e.End),
				Msg:  e.Msg,
				Err:  e,
			}
		}
		for i := range r.coll.Items {
			tg := &r.coll.Items[i]
			from, to := tg.Pos()
			sp := source.PosSpan(r.tf, r.unit.FileID, from, to)
			if cand, ok := candidateOf(tg, r.unit.Path, sp); ok {
				col.addCandidate(cand)
			}
			if tg.Final != nil {
				col.addFinal(Final{
					Key:  tg.Key,
					Path: r.unit.Path,
					Span: source.PosSpan(r.tf, r.unit.FileID, tg.Final.Directive.Pos(), tg.Final.Directive.End()),
					Bare: tg.Candidate == nil,
				})
			}
		}
		res.Units = append(res.Units, r.unit)
		res.Table.AddInput(r.unit.Path, res.Files.Get(r.unit.FileID).Digest())
	}

	_, rspan := trace.Start(ctx, trace.ScopePhase, "resolve")
	resolved, err := col.resolve(res.Table)
	if err != nil {
		rspan.End("failed")
		trace.Fail(trace.FromContext(ctx), "resolve", err, span.ID())
		return res, err
	}
	for _, ch := range resolved.chains {
		if w, ok := ch.WinnerCandidate(); ok {
			trace.Point(trace.FromContext(ctx), trace.ScopeItem, "chain:"+w.Key.Sig(),
				fmt.Sprintf("winner priority %d of %d", w.Priority, len(ch.Candidates)), rspan.ID())
		}
	}
	rspan.WithExtra("chains", fmt.Sprint(len(resolved.chains))).End("")

	res.Chains = resolved.chains
	res.Finals = resolved.finals
	res.Warnings = append(res.Warnings, resolved.warnings...)
	span.WithExtra("files", fmt.Sprint(len(res.Units)))
	return res, nil
}

// parseAll parses units concurrently. Results keep input order.
func parseAll(ctx context.Context, files *source.FileSet, fset *token.FileSet, units []Unit, jobs int) ([]parsed, error) {
	if len(units) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]parsed, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))

	for i, u := range units {
		f := files.Get(u.FileID)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, fspan := trace.Start(gctx, trace.ScopeFile, "parse:"+u.Path)
			defer fspan.End("")

			af, err := parser.ParseFile(fset, f.Path, f.Content, parser.ParseComments)
			r := parsed{unit: u, err: err}
			if err == nil {
				r.unit.AST = af
				r.tf = fset.File(af.Pos())
				r.coll = directive.Collect(af)
				fspan.WithExtra("tagged", fmt.Sprint(len(r.coll.Items)))
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
