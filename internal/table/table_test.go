package table

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overrider/internal/item"
)

func sampleTable() *Table {
	greet := item.Key{Kind: item.KindFunc, Name: "Greet"}
	start := item.Key{Kind: item.KindMethod, Owner: "Server", Name: "Start"}

	t := New()
	t.AddInput("greet/greet.go", strings.Repeat("ab", 32))
	t.Exclude(item.PriorityPredicate(0, greet))
	t.Exclude(item.FlagPredicate(1, item.FlagRef{Name: "loud"}, greet))
	t.SetFinal(item.FinalKey(greet), 2)
	t.SetFinal(item.FinalKey(start), 1)
	t.SetAcceptFlags(item.AcceptFlagsKey(greet), []item.FlagRef{{Name: "loud"}, {Name: "quiet", Invert: true}})
	return t
}

func TestCodecsRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatMsgpack, FormatJSON, FormatTOML, FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			want := sampleTable()
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, want, f))

			got, err := Decode(&buf, f)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnvCodec(t *testing.T) {
	want := sampleTable()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want, FormatEnv))

	text := buf.String()
	assert.Contains(t, text, "__override_priority_0_func_Greet=1\n")
	assert.Contains(t, text, "__override_final_func_Greet=2\n")
	assert.Contains(t, text, "__override_acceptflags_func_Greet='_loud i_quiet'\n")

	got, err := Decode(strings.NewReader(text), FormatEnv)
	require.NoError(t, err)
	assert.True(t, want.SameDecisions(got))
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Inputs, got.Inputs)
}

func TestEnvDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("NOT_OURS=1\n"), FormatEnv)
	assert.ErrorContains(t, err, "unknown key")

	_, err = Decode(strings.NewReader("__override_final_func_F=high\n"), FormatEnv)
	assert.ErrorContains(t, err, "invalid priority")

	_, err = Decode(strings.NewReader("just text\n"), FormatEnv)
	assert.ErrorContains(t, err, "KEY=VALUE")

	got, err := Decode(strings.NewReader("export __override_priority_1_func_F=0\n"), FormatEnv)
	require.NoError(t, err)
	assert.False(t, got.IsExcluded("__override_priority_1_func_F"))
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := sampleTable()
	for _, name := range []string{"t.mp", "t.json", "t.toml", "t.yaml", "t.env", "nested/t.msgpack"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, want), name)
		got, err := ReadFile(path)
		require.NoError(t, err, name)
		assert.True(t, want.SameDecisions(got), name)
	}

	err := WriteFile(filepath.Join(dir, "t.txt"), want)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestLookup(t *testing.T) {
	tbl := sampleTable()
	greet := item.Key{Kind: item.KindFunc, Name: "Greet"}

	assert.True(t, tbl.IsExcluded(item.PriorityPredicate(0, greet)))
	assert.False(t, tbl.IsExcluded(item.PriorityPredicate(1, greet)))

	p, ok := tbl.RequiredPriority(item.FinalKey(greet))
	assert.True(t, ok)
	assert.Equal(t, uint32(2), p)
	_, ok = tbl.RequiredPriority("__override_final_func_Missing")
	assert.False(t, ok)

	assert.Equal(t, "_loud i_quiet", tbl.AcceptedFlags(item.AcceptFlagsKey(greet)))

	digest, ok := tbl.Covers("greet/greet.go")
	assert.True(t, ok)
	assert.Len(t, digest, 64)
	_, ok = tbl.Covers("other.go")
	assert.False(t, ok)
}

func TestEnvLookup(t *testing.T) {
	env := map[string]string{
		"__override_priority_0_func_Greet":  "1",
		"__override_priority_1_func_Greet":  "0",
		"__override_final_func_Greet":       "3",
		"__override_final_func_Bad":         "x",
		"__override_acceptflags_func_Greet": " _loud ",
	}
	l := EnvLookup{Getenv: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	assert.True(t, l.IsExcluded("__override_priority_0_func_Greet"))
	assert.False(t, l.IsExcluded("__override_priority_1_func_Greet"))
	assert.False(t, l.IsExcluded("__override_priority_2_func_Greet"))

	p, ok := l.RequiredPriority("__override_final_func_Greet")
	assert.True(t, ok)
	assert.Equal(t, uint32(3), p)
	_, ok = l.RequiredPriority("__override_final_func_Bad")
	assert.False(t, ok)

	assert.Equal(t, "_loud", l.AcceptedFlags("__override_acceptflags_func_Greet"))
}

func TestSetAcceptFlagsEmptyRemoves(t *testing.T) {
	tbl := New()
	tbl.SetAcceptFlags("k", []item.FlagRef{{Name: "a"}})
	tbl.SetAcceptFlags("k", nil)
	assert.True(t, tbl.Empty())
	assert.NotEmpty(t, tbl.RunID)
}

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("x/y.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("mp")
	require.NoError(t, err)
	assert.Equal(t, FormatMsgpack, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
