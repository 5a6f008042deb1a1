package fuzztests

import (
	"go/parser"
	"go/token"
	"testing"

	"overrider/internal/directive"
)

func FuzzDirectiveCollect(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fset := token.NewFileSet()
		af, err := parser.ParseFile(fset, "fuzz.go", input, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return
		}
		tf := fset.File(af.Pos())
		coll := directive.Collect(af)
		for _, e := range coll.Errors {
			if e.Code.ID() == "" || e.Msg == "" {
				t.Fatalf("incomplete error %+v", e)
			}
			if !e.Pos.IsValid() || tf.Offset(e.Pos) > tf.Size() {
				t.Fatalf("error position outside the file: %+v", e)
			}
		}
		for i := range coll.Items {
			from, to := coll.Items[i].Pos()
			if from > to {
				t.Fatalf("item %d: inverted span %d..%d", i, from, to)
			}
		}
	})
}
