package trace

import (
	"sync/atomic"
	"time"
)

// счётчики общие на процесс: Seq упорядочивает события разных трассировщиков
var seq, spanIDs atomic.Uint64

func admits(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

// stamp fills Time and Seq and hands ev to t.
func stamp(t Tracer, ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	ev.Seq = seq.Add(1)
	t.Emit(&ev)
}

// Span is an open begin/end pair. A nil *Span is inert.
type Span struct {
	t      Tracer
	ev     Event
	extras map[string]string
}

// Begin opens a span under parent (0 for a root span). When t filters the
// scope out the result is nil and every method on it is a no-op.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !admits(t, scope) {
		return nil
	}
	s := &Span{t: t, ev: Event{
		Time:     time.Now(),
		Scope:    scope,
		SpanID:   spanIDs.Add(1),
		ParentID: parent,
		Name:     name,
	}}
	open := s.ev
	open.Kind = KindSpanBegin
	stamp(t, open)
	return s
}

// End closes the span with an optional detail and reports how long it was open.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	elapsed := time.Since(s.ev.Time)
	closing := s.ev
	closing.Time = time.Time{}
	closing.Kind = KindSpanEnd
	closing.Detail = detail
	closing.Elapsed = elapsed
	closing.Extra = s.extras
	stamp(s.t, closing)
	return elapsed
}

// WithExtra attaches key=value to the closing event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil {
		return nil
	}
	if s.extras == nil {
		s.extras = map[string]string{}
	}
	s.extras[key] = value
	return s
}

// ID is what children pass as parent.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.ev.SpanID
}

// Point records an instant under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !admits(t, scope) {
		return
	}
	stamp(t, Event{Kind: KindPoint, Scope: scope, ParentID: parent, Name: name, Detail: detail})
}

// Fail records err as a driver-scope failure. Only LevelOff hides it.
func Fail(t Tracer, name string, err error, parent uint64) {
	if err == nil || t == nil || !t.Enabled() {
		return
	}
	stamp(t, Event{Kind: KindFailure, Scope: ScopeDriver, ParentID: parent, Name: name, Detail: err.Error()})
}
