// Package table holds the compilation predicate table: the scanner's
// decisions handed to the rewriter for one build.
package table

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"overrider/internal/item"
)

// SchemaVersion increments when the persisted layout changes.
const SchemaVersion = 1

// Input is a template file the table was computed from.
type Input struct {
	Path   string `json:"path" toml:"path" yaml:"path" msgpack:"path"`
	Digest string `json:"digest" toml:"digest" yaml:"digest" msgpack:"digest"`
}

// Table maps predicates and keys to the scanner's decisions. Only excluded
// predicates are stored; anything absent is kept.
type Table struct {
	Schema      int               `json:"schema" toml:"schema" yaml:"schema" msgpack:"schema"`
	RunID       string            `json:"run_id" toml:"run_id" yaml:"run_id" msgpack:"run_id"`
	CreatedAt   time.Time         `json:"created_at" toml:"created_at" yaml:"created_at" msgpack:"created_at"`
	Inputs      []Input           `json:"inputs" toml:"inputs" yaml:"inputs" msgpack:"inputs"`
	Excluded    map[string]bool   `json:"excluded" toml:"excluded" yaml:"excluded" msgpack:"excluded"`
	Finals      map[string]uint32 `json:"finals" toml:"finals" yaml:"finals" msgpack:"finals"`
	AcceptFlags map[string]string `json:"accept_flags" toml:"accept_flags" yaml:"accept_flags" msgpack:"accept_flags"`
}

// New returns an empty table stamped with a fresh run id.
func New() *Table {
	return &Table{
		Schema:      SchemaVersion,
		RunID:       uuid.NewString(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Excluded:    make(map[string]bool),
		Finals:      make(map[string]uint32),
		AcceptFlags: make(map[string]string),
	}
}

func (t *Table) ensure() {
	if t.Excluded == nil {
		t.Excluded = make(map[string]bool)
	}
	if t.Finals == nil {
		t.Finals = make(map[string]uint32)
	}
	if t.AcceptFlags == nil {
		t.AcceptFlags = make(map[string]string)
	}
}

// Exclude marks predicate as excluded.
func (t *Table) Exclude(predicate string) {
	t.ensure()
	t.Excluded[predicate] = true
}

// SetFinal records the priority a final override of key must declare.
func (t *Table) SetFinal(key string, priority uint32) {
	t.ensure()
	t.Finals[key] = priority
}

// SetAcceptFlags records the ordered flags the dispatcher of key tests.
func (t *Table) SetAcceptFlags(key string, flags []item.FlagRef) {
	t.ensure()
	if len(flags) == 0 {
		delete(t.AcceptFlags, key)
		return
	}
	t.AcceptFlags[key] = item.EncodeAcceptList(flags)
}

// AddInput records a covered template file. A path recorded twice keeps
// its position and takes the new digest.
func (t *Table) AddInput(path, digest string) {
	for i := range t.Inputs {
		if t.Inputs[i].Path == path {
			t.Inputs[i].Digest = digest
			return
		}
	}
	t.Inputs = append(t.Inputs, Input{Path: path, Digest: digest})
}

// IsExcluded reports whether predicate was excluded.
func (t *Table) IsExcluded(predicate string) bool {
	return t.Excluded[predicate]
}

// RequiredPriority returns the priority recorded for a final key.
func (t *Table) RequiredPriority(key string) (uint32, bool) {
	p, ok := t.Finals[key]
	return p, ok
}

// AcceptedFlags returns the encoded accept list of key, "" when none.
func (t *Table) AcceptedFlags(key string) string {
	return t.AcceptFlags[key]
}

// Covers returns the recorded digest of path.
func (t *Table) Covers(path string) (string, bool) {
	for _, in := range t.Inputs {
		if in.Path == path {
			return in.Digest, true
		}
	}
	return "", false
}

// Empty reports whether the table holds no decisions.
func (t *Table) Empty() bool {
	return len(t.Excluded) == 0 && len(t.Finals) == 0 && len(t.AcceptFlags) == 0
}

// SameDecisions reports whether t and other carry identical decisions,
// ignoring run metadata.
func (t *Table) SameDecisions(other *Table) bool {
	return maps.Equal(t.Excluded, other.Excluded) &&
		maps.Equal(t.Finals, other.Finals) &&
		maps.Equal(t.AcceptFlags, other.AcceptFlags)
}

// Entry is one line of the flat view used by the env codec and inspect output.
type Entry struct {
	Key   string
	Value string
}

// Entries returns every decision as a sorted key/value list.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.Excluded)+len(t.Finals)+len(t.AcceptFlags))
	for _, k := range slices.Sorted(maps.Keys(t.Excluded)) {
		if t.Excluded[k] {
			out = append(out, Entry{Key: k, Value: "1"})
		}
	}
	for _, k := range slices.Sorted(maps.Keys(t.Finals)) {
		out = append(out, Entry{Key: k, Value: uintString(t.Finals[k])})
	}
	for _, k := range slices.Sorted(maps.Keys(t.AcceptFlags)) {
		out = append(out, Entry{Key: k, Value: t.AcceptFlags[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
