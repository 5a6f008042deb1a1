package trace

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// StreamTracer writes events immediately to an io.Writer.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	logger *log.Logger // FormatText only
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	st := &StreamTracer{w: w, level: level, format: format}
	if format != FormatNDJSON {
		st.logger = log.NewWithOptions(w, log.Options{
			Prefix:          "trace",
			Level:           log.DebugLevel,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.000",
		})
	}
	return st
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev.Kind != KindFailure && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	if t.logger != nil {
		// logger сам сериализует запись
		msg := arrow(ev.Kind) + " " + strings.Repeat("  ", depth(ev.Scope)) + ev.Name
		if ev.Kind == KindFailure {
			t.logger.Error(msg, keyvals(ev)...)
		} else {
			t.logger.Debug(msg, keyvals(ev)...)
		}
		return
	}
	data := FormatEvent(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	// ошибки записи трассы не должны ронять сборку
	_, _ = t.w.Write(data) //nolint:errcheck
}

func depth(s Scope) int {
	if s <= ScopeDriver {
		return 0
	}
	return int(s - ScopeDriver)
}

// Flush flushes the writer if it buffers.
func (t *StreamTracer) Flush() error {
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it is an io.Closer other than
// the process's standard streams.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok && !isStdStream(t.w) {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
