package diag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Bag collects the diagnostics of one run. A positive limit caps how many
// are kept; the rest are only counted.
type Bag struct {
	items   []Diagnostic
	limit   int
	dropped int
}

func NewBag(limit int) *Bag {
	return &Bag{limit: limit}
}

// Add returns false when the limit was already reached.
func (b *Bag) Add(d Diagnostic) bool {
	if b.limit > 0 && len(b.items) >= b.limit {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Dropped is the number of diagnostics refused by the limit.
func (b *Bag) Dropped() int { return b.dropped }

func (b *Bag) Len() int { return len(b.items) }

// Items exposes the stored diagnostics. Callers must not modify the slice.
func (b *Bag) Items() []Diagnostic { return b.items }

func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

// Merge appends everything other holds. The limit grows so that merged
// per-template bags never lose entries.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
	if b.limit > 0 {
		b.limit = max(b.limit, len(b.items))
	}
	b.dropped += other.dropped
}

// Sort orders by file and position, errors before warnings at the same
// spot, then by code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup drops repeats of code, primary span and message; the first one wins.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		span string
		msg  string
	}
	seen := make(map[key]bool, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := key{d.Code, d.Primary.String(), d.Message}
		if seen[k] {
			return true
		}
		seen[k] = true
		return false
	})
}

// Err folds the error diagnostics into a *BagError, nil when there are none.
func (b *Bag) Err() error {
	var errs []Diagnostic
	for _, d := range b.items {
		if d.Severity >= SevError {
			errs = append(errs, d)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &BagError{Diagnostics: errs}
}

// BagError carries several error diagnostics through an error return.
type BagError struct {
	Diagnostics []Diagnostic
}

func (e *BagError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].Error()
	}
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(parts), strings.Join(parts, "; "))
}
