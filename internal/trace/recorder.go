package trace

import (
	"io"
	"sync"
)

// Recorder keeps the last N events in memory. The driver uses it to dump
// recent history when a build fails; tests use it to assert on spans.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	head   int  // next write position
	full   bool // буфер уже переполнялся
	level  Level
}

// NewRecorder creates a Recorder holding up to capacity events.
func NewRecorder(capacity int, level Level) *Recorder {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Recorder{events: make([]Event, capacity), level: level}
}

func (r *Recorder) Emit(ev *Event) {
	if ev.Kind != KindFailure && !r.level.ShouldEmit(ev.Scope) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.head] = *ev
	r.head = (r.head + 1) % len(r.events)
	if r.head == 0 {
		r.full = true
	}
}

// Snapshot returns the stored events oldest first.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.events[:r.head]...)
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.head:]...)
	return append(out, r.events[:r.head]...)
}

// Names lists the names of span-begin events in order.
func (r *Recorder) Names() []string {
	var names []string
	for _, ev := range r.Snapshot() {
		if ev.Kind == KindSpanBegin {
			names = append(names, ev.Name)
		}
	}
	return names
}

// Dump writes the stored events to w.
func (r *Recorder) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) Flush() error  { return nil }
func (r *Recorder) Close() error  { return nil }
func (r *Recorder) Level() Level  { return r.level }
func (r *Recorder) Enabled() bool { return r.level > LevelOff }
