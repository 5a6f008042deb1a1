package source

import (
	"fmt"
	"go/token"

	"fortio.org/safecast"
)

// NoFile marks spans that do not point into any file.
const NoFile FileID = ^FileID(0)

// NoSpan is the location of diagnostics about no particular file position.
var NoSpan = Span{File: NoFile}

type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// PosSpan converts a go/token position range of tf into a Span of file id.
// Invalid positions collapse to offset 0.
func PosSpan(tf *token.File, id FileID, from, to token.Pos) Span {
	start := posOffset(tf, from)
	end := posOffset(tf, to)
	if end < start {
		end = start
	}
	return Span{File: id, Start: start, End: end}
}

func posOffset(tf *token.File, p token.Pos) uint32 {
	if tf == nil || !p.IsValid() {
		return 0
	}
	base := tf.Base()
	if int(p) < base || int(p) > base+tf.Size() {
		return 0
	}
	off, err := safecast.Conv[uint32](int(p) - base)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return off
}
