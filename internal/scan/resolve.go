package scan

import (
	"fmt"
	"math"

	"overrider/internal/diag"
	"overrider/internal/directive"
	"overrider/internal/item"
	"overrider/internal/source"
	"overrider/internal/table"
)

// resolution is the outcome of resolving every collected key.
type resolution struct {
	chains   []*Chain
	finals   []Final
	warnings []diag.Diagnostic
}

// resolve picks the winner of every chain and records the decisions in t.
// Keys are processed in first-seen order, so identical inputs produce an
// identical table.
func (c *collector) resolve(t *table.Table) (*resolution, error) {
	res := &resolution{}
	for _, ks := range c.order {
		if ks.chain != nil {
			if err := pickWinner(ks.chain); err != nil {
				return nil, err
			}
			excludeLosers(t, ks.chain)
			res.chains = append(res.chains, ks.chain)
		}

		if len(ks.flags) > 0 {
			accept := make([]item.FlagRef, 0, len(ks.flags))
			for _, fc := range ks.flags {
				if err := pickWinner(fc); err != nil {
					return nil, err
				}
				excludeLosers(t, fc)
				accept = append(accept, fc.Flag)
				res.chains = append(res.chains, fc)
			}
			t.SetAcceptFlags(item.AcceptFlagsKey(ks.key), accept)
			if ks.chain == nil {
				first := ks.flags[0].Candidates[0]
				res.warnings = append(res.warnings, diag.NewWarning(diag.ScanFlagWithoutDefault, first.Span,
					fmt.Sprintf("%s has override_flag candidates but no default; no dispatcher will be generated", ks.key)))
			}
		}

		if len(ks.finals) > 0 {
			required := uint32(1)
			if ks.chain != nil {
				w, _ := ks.chain.WinnerCandidate()
				if w.Priority == math.MaxUint32 {
					return nil, &Error{
						Code: diag.AttrInvalidLiteral,
						Path: w.Path,
						Span: w.Span,
						Msg:  fmt.Sprintf("%s wins with the maximum priority; override_final cannot outrank it", ks.key),
					}
				}
				required = w.Priority + 1
			}
			t.SetFinal(item.FinalKey(ks.key), required)
			for _, f := range ks.finals {
				f.Required = required
				res.finals = append(res.finals, f)
			}
		}
	}
	return res, nil
}

// pickWinner selects the highest priority. Equal priorities at the top
// share one predicate, so no table could keep just one of them: a tie is
// rejected.
func pickWinner(ch *Chain) error {
	best := 0
	for i, cand := range ch.Candidates[1:] {
		if cand.Priority > ch.Candidates[best].Priority {
			best = i + 1
		}
	}
	top := ch.Candidates[best]
	var related []source.Span
	for i, cand := range ch.Candidates {
		if i != best && cand.Priority == top.Priority {
			related = append(related, cand.Span)
		}
	}
	if len(related) > 0 {
		what := "candidates"
		if ch.IsFlag {
			what = "override_flag(flag = " + ch.Flag.String() + ") candidates"
		}
		return &Error{
			Code:    diag.ScanPriorityTie,
			Path:    top.Path,
			Span:    top.Span,
			Msg:     fmt.Sprintf("%d %s of %s tie at priority %d; give each a distinct priority", len(related)+1, what, ch.Key, top.Priority),
			Related: related,
		}
	}
	ch.Winner = best
	return nil
}

func excludeLosers(t *table.Table, ch *Chain) {
	for i, cand := range ch.Candidates {
		if ch.Excluded(i) {
			t.Exclude(cand.Predicate())
		}
	}
}

// candidateOf converts a tagged declaration into its candidate, if any.
func candidateOf(tg *directive.Tagged, path string, sp source.Span) (Candidate, bool) {
	if tg.Candidate == nil {
		return Candidate{}, false
	}
	return Candidate{
		Key:      tg.Key,
		Kind:     tg.Candidate.Kind,
		Priority: tg.Candidate.Priority,
		Flag:     tg.Candidate.Flag,
		Final:    tg.Final != nil,
		Path:     path,
		Span:     sp,
	}, true
}
