package buildpipeline

import "time"

// Stage is a coarse step of a run as the progress view shows it.
type Stage string

const (
	StageScan    Stage = "scan"    // load, parse, resolve priorities
	StageRewrite Stage = "rewrite" // one template at a time
	StageWrite   Stage = "write"   // outputs and the optional table
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusSkipped: the generated file already had this content.
	StatusSkipped Status = "unchanged"
	StatusError   Status = "error"
)

// Event is a progress update. An empty File means the whole run.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink receives events from concurrent rewrites and must be safe
// for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings accumulates time per stage.
type Timings struct {
	spent map[Stage]time.Duration
}

// Add charges d to stage.
func (t *Timings) Add(stage Stage, d time.Duration) {
	if t.spent == nil {
		t.spent = make(map[Stage]time.Duration, 3)
	}
	t.spent[stage] += d
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t.spent[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	return t.spent[stage]
}
