// Package buildpipeline runs one overrider invocation end to end: the
// driver's scan and rewrite, writing the generated files, persisting the
// table on request, and reporting per-file progress to a sink.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"overrider/internal/driver"
	"overrider/internal/table"
)

// Mode selects how the table is obtained.
type Mode uint8

const (
	// ModeBuild scans and rewrites in one process.
	ModeBuild Mode = iota
	// ModeGenerate rewrites against Request.Lookup.
	ModeGenerate
)

// Request configures Run.
type Request struct {
	Driver driver.Options
	Mode   Mode
	Lookup table.Lookup
	OutDir string
	// WriteTable persists the scanned table when set (ModeBuild only).
	WriteTable string
	DryRun     bool
	Progress   ProgressSink
	// Files are announced as queued before the run; see PlanFiles.
	Files []string
}

// Result captures the run and stage timings.
type Result struct {
	Run     *driver.Result
	Written []driver.Written
	Timings Timings
}

// Run executes req. Diagnostics never produce an error here: the caller
// inspects Result.Run.Failed(). Errors are reserved for cancellation and
// failed writes.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if req == nil {
		return result, errors.New("missing build request")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	emitQueued(req.Progress, req.Files)

	obs := &phaseObserver{sink: req.Progress, files: req.Files, timings: &result.Timings}
	opts := req.Driver
	opts.OnPhase = chainPhase(opts.OnPhase, obs.OnPhase)
	opts.OnFile = chainFile(opts.OnFile, obs.OnFile)

	var (
		run *driver.Result
		err error
	)
	switch req.Mode {
	case ModeGenerate:
		run, err = driver.Generate(ctx, opts, req.Lookup)
	default:
		run, err = driver.Build(ctx, opts)
	}
	if err != nil {
		emitStage(req.Progress, req.Files, obs.stage(), StatusError, err, 0)
		return result, err
	}
	result.Run = run

	if req.DryRun {
		finishFiles(req.Progress, req.Files, run, nil)
		return result, nil
	}

	start := time.Now()
	emitStage(req.Progress, nil, StageWrite, StatusWorking, nil, 0)
	written, werr := run.Write(req.OutDir)
	result.Written = written
	if werr == nil && req.WriteTable != "" && run.Table != nil {
		werr = run.WriteTable(req.WriteTable)
	}
	elapsed := time.Since(start)
	result.Timings.Add(StageWrite, elapsed)
	finishFiles(req.Progress, req.Files, run, written)
	if werr != nil {
		emitStage(req.Progress, nil, StageWrite, StatusError, werr, elapsed)
		return result, fmt.Errorf("write outputs: %w", werr)
	}
	status := StatusDone
	if run.Failed() {
		status = StatusError
	}
	emitStage(req.Progress, nil, StageWrite, status, nil, elapsed)
	return result, nil
}

// finishFiles reports the final state of every template: error when it
// has no output, unchanged or done otherwise. A run that failed before the
// rewrite marks every planned file.
func finishFiles(sink ProgressSink, files []string, run *driver.Result, written []driver.Written) {
	if sink == nil {
		return
	}
	unchanged := make(map[string]bool, len(written))
	for _, w := range written {
		unchanged[w.Template] = w.Unchanged
	}
	var deferred string
	if run.Deferred != nil {
		deferred = run.Deferred.Path
		sink.OnEvent(Event{File: deferred, Stage: StageScan, Status: StatusError, Err: run.Deferred.Err})
	}
	if len(run.Outputs) == 0 && run.Failed() {
		for _, file := range files {
			if file != deferred {
				sink.OnEvent(Event{File: file, Stage: StageScan, Status: StatusError})
			}
		}
		return
	}
	for _, out := range run.Outputs {
		if out == nil {
			continue
		}
		file := displayPath(out.Path, run.Files.BaseDir())
		switch {
		case out.Src == nil:
			sink.OnEvent(Event{File: file, Stage: StageRewrite, Status: StatusError, Err: driver.ErrTemplateRejected})
		case unchanged[out.Path]:
			sink.OnEvent(Event{File: file, Stage: StageWrite, Status: StatusSkipped})
		default:
			sink.OnEvent(Event{File: file, Stage: StageWrite, Status: StatusDone})
		}
	}
}

type phaseObserver struct {
	sink    ProgressSink
	files   []string
	timings *Timings
	current Stage
}

func (p *phaseObserver) stage() Stage {
	if p.current == "" {
		return StageScan
	}
	return p.current
}

func (p *phaseObserver) OnPhase(ev driver.PhaseEvent) {
	var st Stage
	switch ev.Name {
	case "scan", "load":
		st = StageScan
	case "rewrite":
		st = StageRewrite
	default:
		return
	}
	if ev.Status == driver.PhaseStart {
		p.current = st
		// файлы получают rewrite-события из OnFile
		files := p.files
		if st == StageRewrite {
			files = nil
		}
		emitStage(p.sink, files, st, StatusWorking, nil, 0)
		return
	}
	p.timings.Add(st, ev.Elapsed)
	if ev.Err != nil {
		emitStage(p.sink, nil, st, StatusError, ev.Err, ev.Elapsed)
	}
}

func (p *phaseObserver) OnFile(ev driver.FileEvent) {
	if p.sink == nil {
		return
	}
	if ev.Status == driver.PhaseStart {
		p.sink.OnEvent(Event{File: ev.Path, Stage: StageRewrite, Status: StatusWorking})
		return
	}
	if ev.Err != nil {
		p.sink.OnEvent(Event{File: ev.Path, Stage: StageRewrite, Status: StatusError, Err: ev.Err, Elapsed: ev.Elapsed})
	}
}

func chainPhase(first, second driver.PhaseObserver) driver.PhaseObserver {
	if first == nil {
		return second
	}
	return func(ev driver.PhaseEvent) {
		first(ev)
		second(ev)
	}
}

func chainFile(first, second driver.FileObserver) driver.FileObserver {
	if first == nil {
		return second
	}
	return func(ev driver.FileEvent) {
		first(ev)
		second(ev)
	}
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageScan, Status: StatusQueued})
	}
}

func emitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}
