package scan

import (
	"overrider/internal/directive"
	"overrider/internal/item"
	"overrider/internal/source"
)

// Candidate is one compiled-in-or-out implementation of an item.
type Candidate struct {
	Key      item.Key
	Kind     directive.Kind // default, override_default or override_flag
	Priority uint32
	Flag     item.FlagRef
	// Final is set when the same declaration also carries override_final.
	Final bool
	Path  string
	Span  source.Span
}

// Predicate is the exclusion predicate the rewriter looks up for c.
func (c Candidate) Predicate() string {
	if c.Kind == directive.KindFlag {
		return item.FlagPredicate(c.Priority, c.Flag, c.Key)
	}
	return item.PriorityPredicate(c.Priority, c.Key)
}

// Chain groups the candidates of one key. Flag candidates form one chain
// per flag token; IsFlag tells them apart from the default chain.
type Chain struct {
	Key        item.Key
	Flag       item.FlagRef
	IsFlag     bool
	Candidates []Candidate
	// Winner indexes Candidates; -1 until resolved.
	Winner int
}

// WinnerCandidate returns the surviving candidate.
func (c *Chain) WinnerCandidate() (Candidate, bool) {
	if c.Winner < 0 || c.Winner >= len(c.Candidates) {
		return Candidate{}, false
	}
	return c.Candidates[c.Winner], true
}

// Excluded reports whether candidate i loses.
func (c *Chain) Excluded(i int) bool {
	return i != c.Winner
}

// Final is an override_final marker.
type Final struct {
	Key  item.Key
	Path string
	Span source.Span
	// Bare is set when the declaration carries no candidate directive, so
	// it can never win and always breaks the build.
	Bare bool
	// Required is the priority that would make the marker win.
	Required uint32
}

// keyState accumulates everything seen for one key.
type keyState struct {
	key       item.Key
	chain     *Chain
	flags     []*Chain
	flagIndex map[string]int // token -> index in flags
	finals    []Final
}

// collector groups tagged declarations by key in first-seen order.
type collector struct {
	order []*keyState
	byKey map[item.Key]*keyState
}

func newCollector() *collector {
	return &collector{byKey: make(map[item.Key]*keyState)}
}

func (c *collector) state(k item.Key) *keyState {
	if ks, ok := c.byKey[k]; ok {
		return ks
	}
	ks := &keyState{key: k, flagIndex: make(map[string]int)}
	c.byKey[k] = ks
	c.order = append(c.order, ks)
	return ks
}

func (c *collector) addCandidate(cand Candidate) {
	ks := c.state(cand.Key)
	if cand.Kind != directive.KindFlag {
		if ks.chain == nil {
			ks.chain = &Chain{Key: cand.Key, Winner: -1}
		}
		ks.chain.Candidates = append(ks.chain.Candidates, cand)
		return
	}
	tok := cand.Flag.Token()
	idx, ok := ks.flagIndex[tok]
	if !ok {
		idx = len(ks.flags)
		ks.flagIndex[tok] = idx
		ks.flags = append(ks.flags, &Chain{Key: cand.Key, Flag: cand.Flag, IsFlag: true, Winner: -1})
	}
	ks.flags[idx].Candidates = append(ks.flags[idx].Candidates, cand)
}

func (c *collector) addFinal(f Final) {
	ks := c.state(f.Key)
	ks.finals = append(ks.finals, f)
}
