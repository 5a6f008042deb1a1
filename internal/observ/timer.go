package observ

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type phase struct {
	name    string
	started time.Time
	took    time.Duration
	note    string
}

// Timer measures the phases of one build in the order they start.
// The zero value is not usable; a nil *Timer silently records nothing.
type Timer struct {
	now    func() time.Time
	phases []phase
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens a phase. The returned index is -1 on a nil Timer.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.phases = append(t.phases, phase{name: name, started: t.now()})
	return len(t.phases) - 1
}

// End closes phase idx. Unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	if t == nil || idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.took, p.note = t.now().Sub(p.started), note
}

// Track is Begin with the matching End bound into a closure.
func (t *Timer) Track(name string) func(note string) {
	idx := t.Begin(name)
	return func(note string) { t.End(idx, note) }
}

func (t *Timer) Len() int {
	if t == nil {
		return 0
	}
	return len(t.phases)
}

// PhaseReport описывает одну фазу в сериализуемом виде.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is the snapshot attached to the OBS6001 diagnostic and printed by
// --timings.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func (t *Timer) Report() Report {
	var r Report
	if t.Len() == 0 {
		return r
	}
	var sum time.Duration
	r.Phases = make([]PhaseReport, 0, len(t.phases))
	for _, p := range t.phases {
		sum += p.took
		r.Phases = append(r.Phases, PhaseReport{Name: p.name, DurationMS: ms(p.took), Note: p.note})
	}
	r.TotalMS = ms(sum)
	return r
}

// Duration adds up every phase whose name is listed.
func (r Report) Duration(names ...string) time.Duration {
	var total float64
	for _, p := range r.Phases {
		if slices.Contains(names, p.Name) {
			total += p.DurationMS
		}
	}
	return time.Duration(total * float64(time.Millisecond))
}

// Summary renders the report as an aligned plain-text table.
func (t *Timer) Summary() string {
	r := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	row := func(name string, v float64, note string) {
		fmt.Fprintf(&b, "  %-20s %7.2f ms", name, v)
		if note != "" {
			fmt.Fprintf(&b, "  // %s", note)
		}
		b.WriteByte('\n')
	}
	for _, p := range r.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", r.TotalMS, "")
	return b.String()
}
