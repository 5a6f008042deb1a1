package driver

import (
	"time"

	"overrider/internal/observ"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a phase boundary of a run: load, scan or rewrite.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives phase events emitted by Build and Generate.
type PhaseObserver func(PhaseEvent)

// FileEvent describes the work on one template. Path is relative to the
// base directory, slash separated.
type FileEvent struct {
	Path    string
	Phase   string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// FileObserver receives file events. Templates are rewritten concurrently,
// so it must be safe for concurrent use.
type FileObserver func(FileEvent)

func beginPhase(timer *observ.Timer, obs PhaseObserver, name string) func(note string, err error) {
	end := timer.Track(name)
	start := time.Now()
	if obs != nil {
		obs(PhaseEvent{Name: name, Status: PhaseStart})
	}
	return func(note string, err error) {
		if err != nil && note == "" {
			note = "failed"
		}
		end(note)
		if obs != nil {
			obs(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start), Err: err})
		}
	}
}

func beginFile(obs FileObserver, path, phase string) func(err error) {
	if obs == nil {
		return func(error) {}
	}
	start := time.Now()
	obs(FileEvent{Path: path, Phase: phase, Status: PhaseStart})
	return func(err error) {
		obs(FileEvent{Path: path, Phase: phase, Status: PhaseEnd, Elapsed: time.Since(start), Err: err})
	}
}
