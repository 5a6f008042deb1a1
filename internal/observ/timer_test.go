package observ

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(step time.Duration) func() time.Time {
	cur := time.Unix(0, 0)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(2 * time.Millisecond)

	done := tm.Track("scan")
	done("files=3")
	idx := tm.Begin("rewrite")
	tm.End(idx, "")
	tm.End(42, "ignored")

	r := tm.Report()
	require.Len(t, r.Phases, 2)
	assert.Equal(t, "scan", r.Phases[0].Name)
	assert.Equal(t, "files=3", r.Phases[0].Note)
	assert.InDelta(t, 2.0, r.Phases[0].DurationMS, 1e-9)
	assert.InDelta(t, 4.0, r.TotalMS, 1e-9)
	assert.Equal(t, 4*time.Millisecond, r.Duration("scan", "rewrite"))

	s := tm.Summary()
	assert.Contains(t, s, "scan")
	assert.Contains(t, s, "// files=3")
	assert.Contains(t, s, "total")
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	assert.Equal(t, -1, tm.Begin("x"))
	tm.End(0, "")
	tm.Track("y")("")
	assert.Equal(t, 0, tm.Len())
	assert.Empty(t, tm.Report().Phases)
}
