package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overrider/internal/diag"
	"overrider/internal/item"
	"overrider/internal/trace"
)

const header = "//go:build overrider\n\npackage greet\n\n"

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(header+body), 0o600))
	}
	return dir
}

func scanDir(t *testing.T, dir string, patterns ...string) (*Result, error) {
	t.Helper()
	if len(patterns) == 0 {
		patterns = []string{"**/*.go"}
	}
	return Scan(context.Background(), Options{Patterns: patterns, BaseDir: dir, Jobs: 2})
}

var foo = item.Key{Kind: item.KindFunc, Name: "Foo"}

func TestHighestPriorityWins(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:default
func Foo() int { return 0 }

//overrider:override_default
func Foo() int { return 1 }

//overrider:override_default(priority = 2)
func Foo() int { return 2 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)

	tbl := res.Table
	assert.True(t, tbl.IsExcluded(item.PriorityPredicate(0, foo)))
	assert.True(t, tbl.IsExcluded(item.PriorityPredicate(1, foo)))
	assert.False(t, tbl.IsExcluded(item.PriorityPredicate(2, foo)))
	assert.Len(t, tbl.Excluded, 2)

	require.Len(t, res.Chains, 1)
	w, ok := res.Chains[0].WinnerCandidate()
	require.True(t, ok)
	assert.Equal(t, uint32(2), w.Priority)
}

func TestLoneDefaultIsKept(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:default
func Foo() int { return 0 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	assert.True(t, res.Table.Empty())
	require.Len(t, res.Chains, 1)
	assert.Equal(t, 0, res.Chains[0].Winner)
}

func TestChainSpansFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a/foo.go": `
//overrider:default
func Foo() int { return 0 }
`,
		"b/foo.go": `
//overrider:override_default(priority = 4)
func Foo() int { return 4 }
`,
	})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	assert.True(t, res.Table.IsExcluded(item.PriorityPredicate(0, foo)))

	require.Len(t, res.Table.Inputs, 2)
	assert.Equal(t, "a/foo.go", res.Table.Inputs[0].Path)
	assert.Equal(t, "b/foo.go", res.Table.Inputs[1].Path)
	assert.Len(t, res.Table.Inputs[0].Digest, 64)

	require.Len(t, res.Chains[0].Candidates, 2)
	assert.Equal(t, "a/foo.go", res.Chains[0].Candidates[0].Path)
}

func TestFinalRequiredPriority(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:override_default(priority = 5)
func Foo() int { return 5 }

//overrider:override_final
func Foo() int { return 6 }

//overrider:override_final
func Lonely() {}
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)

	p, ok := res.Table.RequiredPriority(item.FinalKey(foo))
	require.True(t, ok)
	assert.Equal(t, uint32(6), p)

	p, ok = res.Table.RequiredPriority(item.FinalKey(item.Key{Kind: item.KindFunc, Name: "Lonely"}))
	require.True(t, ok)
	assert.Equal(t, uint32(1), p)

	require.Len(t, res.Finals, 2)
	assert.True(t, res.Finals[0].Bare)
	assert.Equal(t, uint32(6), res.Finals[0].Required)
}

func TestFinalThatWins(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:default
func Foo() int { return 0 }

//overrider:override_default(priority = 3)
//overrider:override_final
func Foo() int { return 3 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)

	p, _ := res.Table.RequiredPriority(item.FinalKey(foo))
	assert.Equal(t, uint32(4), p)
	assert.False(t, res.Table.IsExcluded(item.PriorityPredicate(3, foo)))
	require.Len(t, res.Finals, 1)
	assert.False(t, res.Finals[0].Bare)

	w, _ := res.Chains[0].WinnerCandidate()
	assert.True(t, w.Final)
}

func TestFlagsAcceptListInSourceOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:default
func Foo() int { return 0 }

//overrider:override_flag(flag = a)
func Foo() int { return 1 }

//overrider:override_flag(flag = b, invert = true)
func Foo() int { return 2 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "_a i_b", res.Table.AcceptedFlags(item.AcceptFlagsKey(foo)))
	assert.Empty(t, res.Table.Excluded)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Chains, 3)
	assert.False(t, res.Chains[0].IsFlag)
	assert.Equal(t, "a", res.Chains[1].Flag.Name)
}

func TestFlagSubChainsAreIndependent(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:default
func Foo() int { return 0 }

//overrider:override_flag(flag = a)
func Foo() int { return 1 }

//overrider:override_flag(flag = b, priority = 2)
func Foo() int { return 2 }

//overrider:override_flag(flag = a, priority = 3)
func Foo() int { return 3 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)

	a, b := item.FlagRef{Name: "a"}, item.FlagRef{Name: "b"}
	assert.True(t, res.Table.IsExcluded(item.FlagPredicate(1, a, foo)))
	assert.False(t, res.Table.IsExcluded(item.FlagPredicate(3, a, foo)))
	assert.False(t, res.Table.IsExcluded(item.FlagPredicate(2, b, foo)))
	assert.Equal(t, "_a _b", res.Table.AcceptedFlags(item.AcceptFlagsKey(foo)))
}

func TestFlagWithoutDefaultWarns(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:override_flag(flag = a)
func Foo() int { return 1 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diag.ScanFlagWithoutDefault, res.Warnings[0].Code)
}

func TestPriorityTieRejected(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:default
func Foo() int { return 0 }

//overrider:override_default(priority = 2)
func Foo() int { return 1 }

//overrider:override_default(priority = 2)
func Foo() int { return 2 }
`})
	_, err := scanDir(t, dir)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, diag.ScanPriorityTie, se.Code)
	assert.Len(t, se.Related, 1)
	assert.Contains(t, se.Error(), "tie at priority 2")
}

func TestTieBelowWinnerIsFine(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:override_default
func Foo() int { return 1 }

//overrider:override_default
func Foo() int { return 1 }

//overrider:override_default(priority = 9)
func Foo() int { return 9 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	assert.True(t, res.Table.IsExcluded(item.PriorityPredicate(1, foo)))
}

func TestConstGroupChains(t *testing.T) {
	dir := writeFiles(t, map[string]string{"level.go": `
type Level int

//overrider:default
const (
	Low Level = 1
	High Level = 10
)

//overrider:override_default(priority = 2)
const High Level = 20
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	high := item.Key{Kind: item.KindImplConst, Name: "High"}
	low := item.Key{Kind: item.KindImplConst, Name: "Low"}
	assert.True(t, res.Table.IsExcluded(item.PriorityPredicate(0, high)))
	assert.False(t, res.Table.IsExcluded(item.PriorityPredicate(0, low)))
}

func TestTypedAndUntypedConstsShareChain(t *testing.T) {
	dir := writeFiles(t, map[string]string{"limits.go": `
type Level int

//overrider:default
const Timeout = 5

//overrider:override_default
const Timeout int = 10

//overrider:default
const Max = Level(1)

//overrider:override_default(priority = 2)
const Max Level = 2
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	require.Len(t, res.Chains, 2)

	timeout, maxKey := item.ConstKey("Timeout"), item.ConstKey("Max")
	assert.True(t, res.Table.IsExcluded(item.PriorityPredicate(0, timeout)))
	assert.False(t, res.Table.IsExcluded(item.PriorityPredicate(1, timeout)))
	assert.True(t, res.Table.IsExcluded(item.PriorityPredicate(0, maxKey)))
	assert.False(t, res.Table.IsExcluded(item.PriorityPredicate(2, maxKey)))
}

func TestUnderscoredMethodsKeepSeparateChains(t *testing.T) {
	dir := writeFiles(t, map[string]string{"m.go": `
type A_B struct{}
type A struct{}

//overrider:default
func (A_B) c() int { return 0 }

//overrider:override_default
func (A_B) c() int { return 1 }

//overrider:default
func (A) B_c() int { return 2 }
`})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	require.Len(t, res.Chains, 2)

	abc := item.Key{Kind: item.KindMethod, Owner: "A_B", Name: "c"}
	aBc := item.Key{Kind: item.KindMethod, Owner: "A", Name: "B_c"}
	assert.True(t, res.Table.IsExcluded(item.PriorityPredicate(0, abc)))
	assert.False(t, res.Table.IsExcluded(item.PriorityPredicate(0, aBc)))
	assert.Len(t, res.Table.Excluded, 1)
}

func TestScanIsDeterministic(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.go": `
//overrider:default
func Foo() int { return 0 }

//overrider:override_flag(flag = x)
func Foo() int { return 1 }
`,
		"b.go": `
//overrider:override_default(priority = 2)
func Foo() int { return 2 }

//overrider:override_final
func Bar() {}
`,
	})
	first, err := scanDir(t, dir)
	require.NoError(t, err)
	second, err := scanDir(t, dir)
	require.NoError(t, err)
	assert.True(t, first.Table.SameDecisions(second.Table))
	assert.Equal(t, first.Table.Inputs, second.Table.Inputs)
	assert.NotEqual(t, first.Table.RunID, second.Table.RunID)
}

func TestParseErrorDefers(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"bad.go": "func Broken( {}\n",
		"ok.go": `
//overrider:default
func Foo() int { return 0 }

//overrider:override_default
func Foo() int { return 1 }
`,
	})
	res, err := scanDir(t, dir)
	require.NoError(t, err)
	require.NotNil(t, res.Deferred)
	assert.Equal(t, "bad.go", res.Deferred.Path)
	assert.True(t, res.Table.Empty())
	assert.Equal(t, diag.ScanParseError, res.Deferred.Diagnostic(res.Files).Code)
}

func TestMalformedDirectiveIsFatal(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:override_default(priority = -3)
func Foo() int { return 0 }
`})
	_, err := scanDir(t, dir)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, diag.AttrInvalidLiteral, se.Code)
	assert.Equal(t, "foo.go", se.Path)

	start, _ := func() (uint32, uint32) { return se.Span.Start, se.Span.End }()
	assert.NotZero(t, start)
}

func TestGlobErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := scanDir(t, dir, "[")
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, diag.ScanGlobError, se.Code)

	res, err := scanDir(t, dir, "nothing/*.go")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diag.ScanGlobError, res.Warnings[0].Code)
	assert.Equal(t, diag.SevWarning, res.Warnings[0].Severity)
}

func TestExpandDedupsAcrossPatterns(t *testing.T) {
	dir := writeFiles(t, map[string]string{"b.go": "", "a.go": "", "sub/c.go": ""})
	paths, empty, err := Expand(dir, []string{"b.go", "*.go", "sub/**"})
	require.NoError(t, err)
	assert.Empty(t, empty)
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(dir, p)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"b.go", "a.go", "sub/c.go"}, rel)
}

func TestExcludeGeneratedOutputs(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"foo.go":                "//overrider:default\nfunc Foo() {}\n",
		"foo_override.go":       "func Foo() {}\n",
		"sub/bar_override.go":   "",
		"sub/keep_override.txt": "",
	})
	paths, _, err := Expand(dir, []string{"**/*"})
	require.NoError(t, err)
	kept := Exclude(dir, paths, []string{"*_override.go"})
	require.Len(t, kept, 2)
	assert.Equal(t, "foo.go", filepath.Base(kept[0]))
	assert.Equal(t, "keep_override.txt", filepath.Base(kept[1]))

	res, err := Scan(context.Background(), Options{Patterns: []string{"**/*.go"}, BaseDir: dir, Exclude: []string{"**/*_override.go"}})
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Equal(t, "foo.go", res.Units[0].Path)
}

func TestScanTraces(t *testing.T) {
	dir := writeFiles(t, map[string]string{"foo.go": `
//overrider:default
func Foo() int { return 0 }
`})
	rec := trace.NewRecorder(64, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), rec)
	_, err := Scan(ctx, Options{Patterns: []string{"*.go"}, BaseDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"scan", "parse:foo.go", "resolve"}, rec.Names())
}
