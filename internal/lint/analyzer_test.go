package lint

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), Analyzer, "a", "clean")
}

func TestRequiresTag(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "no constraint", src: "package p\n", want: false},
		{name: "template", src: "//go:build overrider\n\npackage p\n", want: true},
		{name: "and", src: "//go:build overrider && linux\n\npackage p\n", want: true},
		{name: "or", src: "//go:build overrider || linux\n\npackage p\n", want: false},
		{name: "negated", src: "//go:build !overrider\n\npackage p\n", want: false},
		{name: "other tag", src: "//go:build linux\n\npackage p\n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parser.ParseFile(token.NewFileSet(), "p.go", tt.src, parser.ParseComments)
			require.NoError(t, err)
			assert.Equal(t, tt.want, requiresTag(f, "overrider"))
		})
	}
}

func TestAddTagEdit(t *testing.T) {
	fset := token.NewFileSet()

	f, err := parser.ParseFile(fset, "p.go", "package p\n", parser.ParseComments)
	require.NoError(t, err)
	edit := addTagEdit(f, "overrider")
	assert.Equal(t, f.FileStart, edit.Pos)
	assert.Equal(t, "//go:build overrider\n\n", string(edit.NewText))

	f, err = parser.ParseFile(fset, "q.go", "//go:build linux || darwin\n\npackage p\n", parser.ParseComments)
	require.NoError(t, err)
	edit = addTagEdit(f, "overrider")
	assert.Equal(t, "//go:build (linux || darwin) && overrider", string(edit.NewText))
}
