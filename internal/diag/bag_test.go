package diag

import (
	"testing"

	"overrider/internal/source"
)

func TestBagLimitSortAndErr(t *testing.T) {
	bag := NewBag(2)
	sp := func(start uint32) source.Span { return source.Span{Start: start, End: start + 1} }

	bag.Add(NewWarning(ScanFlagWithoutDefault, sp(9), "late warning"))
	bag.Add(NewError(GenFinalRequested, sp(1), "early error"))
	if bag.Add(NewError(GenFinalRequested, sp(5), "over limit")) {
		t.Fatal("expected Add to refuse diagnostics over the limit")
	}
	if bag.Dropped() != 1 {
		t.Fatalf("dropped = %d", bag.Dropped())
	}

	bag.Sort()
	if bag.Items()[0].Message != "early error" {
		t.Fatalf("unexpected order: %+v", bag.Items())
	}

	err := bag.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "GEN2003: early error" {
		t.Fatalf("err = %q", got)
	}

	warnOnly := NewBag(0)
	warnOnly.Add(NewWarning(ScanFlagWithoutDefault, sp(0), "w"))
	if warnOnly.Err() != nil {
		t.Fatal("warnings must not produce an error")
	}
}

func TestBagMergeAndDedup(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(GenFinalRequested, source.Span{}, "same"))
	b := NewBag(0)
	b.Add(NewError(GenFinalRequested, source.Span{}, "same"))
	b.Add(NewError(GenFinalRequested, source.Span{Start: 4, End: 5}, "other"))

	a.Merge(b)
	if a.Len() != 3 {
		t.Fatalf("len after merge = %d", a.Len())
	}
	a.Dedup()
	if a.Len() != 2 {
		t.Fatalf("len after dedup = %d", a.Len())
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		AttrMalformedArguments: "ATR1001",
		GenMissingBuildStep:    "GEN2002",
		ScanPriorityTie:        "SCN3004",
		IOLoadFileError:        "IO4001",
		UnknownCode:            "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
	if Code(1999).Title() != "Unknown error" {
		t.Error("unknown codes should fall back to the unknown title")
	}
}
