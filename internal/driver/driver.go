// Package driver runs overrider builds. A build scans the template files,
// resolves the predicate table and rewrites every template against it;
// generation alone rewrites templates against a table computed earlier.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"overrider/internal/diag"
	"overrider/internal/observ"
	"overrider/internal/rewrite"
	"overrider/internal/scan"
	"overrider/internal/source"
	"overrider/internal/table"
)

// Options configures Build and Generate.
type Options struct {
	Patterns []string
	BaseDir  string
	// Exclude is matched against paths relative to BaseDir. Outputs of the
	// configured suffix are always excluded.
	Exclude        []string
	Jobs           int
	MaxDiagnostics int
	EnableTimings  bool
	// Rewrite holds the generator settings. Its Lookup is ignored by Build,
	// which always passes the freshly scanned table.
	Rewrite rewrite.Options
	OnPhase PhaseObserver
	OnFile  FileObserver
}

func (o Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Excludes returns Exclude plus the pattern matching generated outputs.
func (o Options) Excludes() []string {
	suffix := o.Rewrite.Suffix
	if suffix == "" {
		suffix = rewrite.DefaultSuffix
	}
	out := make([]string, 0, len(o.Exclude)+1)
	out = append(out, "*"+suffix)
	return append(out, o.Exclude...)
}

// Result is everything one run produced.
type Result struct {
	Files *source.FileSet
	// Table is the scanned table; nil after Generate or a failed scan.
	Table *table.Table
	Scan  *scan.Result
	// Outputs keep template order. An output with errors has no Src.
	Outputs  []*rewrite.Output
	Bag      *diag.Bag
	Deferred *scan.Deferred
	Timings  observ.Report
}

// Failed reports whether nothing may be written.
func (r *Result) Failed() bool {
	return r.Deferred != nil || r.Bag.HasErrors()
}

// Scan runs only the prioritization pass. The returned Result has a Table
// and no Outputs; a failed scan leaves Table nil and reports through Bag.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	timer := newTimer(opts.EnableTimings)
	res, err := scanInto(ctx, timer, opts)
	if err != nil {
		return nil, err
	}
	res.finish(timer, opts)
	return res, nil
}

func scanInto(ctx context.Context, timer *observ.Timer, opts Options) (*Result, error) {
	res := &Result{Bag: diag.NewBag(opts.MaxDiagnostics)}

	done := beginPhase(timer, opts.OnPhase, "scan")
	sr, err := scan.Scan(ctx, scan.Options{
		Patterns: opts.Patterns,
		BaseDir:  opts.BaseDir,
		Exclude:  opts.Excludes(),
		Jobs:     opts.Jobs,
	})
	if sr != nil {
		res.Scan = sr
		res.Files = sr.Files
		res.Table = sr.Table
	} else {
		res.Files = source.NewFileSetWithBase(opts.BaseDir)
	}
	var se *scan.Error
	switch {
	case errors.As(err, &se):
		done("", err)
		res.Table = nil
		res.Bag.Add(se.Diagnostic())
		return res, nil
	case err != nil:
		done("", err)
		return nil, err
	}
	done(fmt.Sprintf("files=%d chains=%d", len(sr.Units), len(sr.Chains)), nil)

	for _, w := range sr.Warnings {
		res.Bag.Add(w)
	}
	if sr.Deferred != nil {
		res.Deferred = sr.Deferred
		res.Table = nil
		res.Bag.Add(sr.Deferred.Diagnostic(sr.Files))
	}
	return res, nil
}

// Build scans the templates matched by opts.Patterns and rewrites them
// against the table the scan produced. The table never leaves the process
// unless the caller persists Result.Table.
func Build(ctx context.Context, opts Options) (*Result, error) {
	timer := newTimer(opts.EnableTimings)
	res, err := scanInto(ctx, timer, opts)
	if err != nil {
		return nil, err
	}
	if res.Table == nil {
		res.finish(timer, opts)
		return res, nil
	}
	sr := res.Scan

	ropts := opts.Rewrite
	ropts.Lookup = sr.Table
	ropts.MaxDiagnostics = opts.MaxDiagnostics
	rw := rewrite.New(sr.Files, ropts)

	done := beginPhase(timer, opts.OnPhase, "rewrite")
	paths := make([]string, len(sr.Units))
	for i, u := range sr.Units {
		paths[i] = u.Path
	}
	outs, err := rewriteAll(ctx, opts, paths, func(ctx context.Context, i int) (*rewrite.Output, error) {
		u := sr.Units[i]
		return rw.Unit(ctx, sr.Fset, u.FileID, u.AST)
	})
	if err != nil {
		done("", err)
		return nil, err
	}
	res.collect(outs)
	done(fmt.Sprintf("outputs=%d", len(outs)), nil)

	res.finish(timer, opts)
	return res, nil
}

// Generate rewrites the templates matched by opts.Patterns against lookup,
// a table produced by an earlier scan. Nil lookup reads the process
// environment.
func Generate(ctx context.Context, opts Options, lookup table.Lookup) (*Result, error) {
	timer := newTimer(opts.EnableTimings)
	base := opts.BaseDir
	if base == "" {
		base = "."
	}
	res := &Result{
		Bag:   diag.NewBag(opts.MaxDiagnostics),
		Files: source.NewFileSetWithBase(base),
	}

	done := beginPhase(timer, opts.OnPhase, "load")
	paths, empty, err := scan.Expand(opts.BaseDir, opts.Patterns)
	if err != nil {
		done("", err)
		var se *scan.Error
		if errors.As(err, &se) {
			res.Bag.Add(se.Diagnostic())
			res.finish(timer, opts)
			return res, nil
		}
		return nil, err
	}
	for _, pat := range empty {
		res.Bag.Add(diag.NewWarning(diag.ScanGlobError, source.NoSpan, fmt.Sprintf("pattern %q matched no files", pat)))
	}
	paths = scan.Exclude(base, paths, opts.Excludes())

	ids := make([]source.FileID, 0, len(paths))
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		id, lerr := res.Files.Load(p)
		if lerr != nil {
			res.Bag.Add(diag.NewError(diag.IOLoadFileError, source.NoSpan, fmt.Sprintf("cannot read %s: %v", p, lerr)))
			continue
		}
		rel, rerr := source.RelativePath(p, base)
		if rerr != nil {
			rel = p
		}
		ids = append(ids, id)
		rels = append(rels, rel)
	}
	done(fmt.Sprintf("files=%d", len(ids)), nil)
	if res.Bag.HasErrors() {
		res.finish(timer, opts)
		return res, nil
	}

	ropts := opts.Rewrite
	ropts.Lookup = lookup
	ropts.MaxDiagnostics = opts.MaxDiagnostics
	rw := rewrite.New(res.Files, ropts)

	done = beginPhase(timer, opts.OnPhase, "rewrite")
	outs, err := rewriteAll(ctx, opts, rels, func(ctx context.Context, i int) (*rewrite.Output, error) {
		return rw.File(ctx, ids[i])
	})
	if err != nil {
		done("", err)
		return nil, err
	}
	res.collect(outs)
	done(fmt.Sprintf("outputs=%d", len(outs)), nil)

	res.finish(timer, opts)
	return res, nil
}

// rewriteAll runs fn for every template, at most opts.Jobs at a time.
// Templates are independent once the table is fixed; outputs keep input order.
func rewriteAll(ctx context.Context, opts Options, paths []string, fn func(context.Context, int) (*rewrite.Output, error)) ([]*rewrite.Output, error) {
	outs := make([]*rewrite.Output, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs())
	for i := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileDone := beginFile(opts.OnFile, paths[i], "rewrite")
			out, err := fn(gctx, i)
			if err != nil {
				fileDone(err)
				return err
			}
			if out.Bag.HasErrors() {
				fileDone(fmt.Errorf("%w: %d diagnostic(s)", ErrTemplateRejected, out.Bag.Len()))
			} else {
				fileDone(nil)
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// ErrTemplateRejected marks a template whose rewrite produced errors.
var ErrTemplateRejected = errors.New("template rejected")

func (r *Result) collect(outs []*rewrite.Output) {
	r.Outputs = outs
	for _, out := range outs {
		r.Bag.Merge(out.Bag)
	}
}

func (r *Result) finish(timer *observ.Timer, opts Options) {
	r.Bag.Sort()
	r.Bag.Dedup()
	if timer == nil {
		return
	}
	r.Timings = timer.Report()
	reportTimings(r.Bag, opts.BaseDir, r.Timings)
}

func newTimer(enabled bool) *observ.Timer {
	if !enabled {
		return nil
	}
	return observ.NewTimer()
}
