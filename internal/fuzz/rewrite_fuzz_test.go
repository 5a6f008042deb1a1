package fuzztests

import (
	"context"
	"go/parser"
	"go/token"
	"testing"
	"time"

	"overrider/internal/rewrite"
	"overrider/internal/source"
	"overrider/internal/table"
	"overrider/internal/testkit"
)

// rewriteTimeout is the maximum time allowed for rewriting a single input.
// If rewriting takes longer, it indicates a potential infinite loop.
const rewriteTimeout = 5 * time.Second

// emptyEnv makes every candidate survive: no predicate is excluded.
var emptyEnv = table.EnvLookup{Getenv: func(string) (string, bool) { return "", false }}

func FuzzRewrite(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.go", input)
		rw := rewrite.New(fs, rewrite.Options{Lookup: emptyEnv, MaxDiagnostics: 64})

		ctx, cancel := context.WithTimeout(context.Background(), rewriteTimeout)
		defer cancel()
		done := make(chan *rewrite.Output, 1)
		go func() {
			out, err := rw.File(ctx, id)
			if err != nil {
				t.Errorf("rewrite: %v", err)
			}
			done <- out
		}()

		var out *rewrite.Output
		select {
		case out = <-done:
		case <-ctx.Done():
			t.Fatalf("rewrite hang (> %v) on %d bytes", rewriteTimeout, len(input))
		}
		if out == nil {
			return
		}
		if err := testkit.CheckDiagnostics(fs, out.Bag.Items()); err != nil {
			t.Fatal(err)
		}
		if out.Src == nil {
			return
		}
		if _, err := parser.ParseFile(token.NewFileSet(), "out.go", out.Src, parser.ParseComments); err != nil {
			t.Fatalf("generated file does not parse: %v\n%s", err, out.Src)
		}
	})
}
