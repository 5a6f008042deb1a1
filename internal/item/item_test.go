package item

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigAndPredicates(t *testing.T) {
	fn := Key{Kind: KindFunc, Name: "Greet"}
	m := Key{Kind: KindMethod, Owner: "Server", Name: "Start"}
	c := ConstKey("Limit")

	assert.Equal(t, "func_Greet", fn.Sig())
	assert.Equal(t, "method_6Server_Start", m.Sig())
	assert.Equal(t, "implconst_Limit", c.Sig())

	assert.Equal(t, "__override_priority_0_func_Greet", PriorityPredicate(0, fn))
	assert.Equal(t, "__override_priority_2_method_6Server_Start", PriorityPredicate(2, m))
	assert.Equal(t, "__override_final_implconst_Limit", FinalKey(c))
	assert.Equal(t, "__override_acceptflags_func_Greet", AcceptFlagsKey(fn))

	loud := FlagRef{Name: "loud"}
	quiet := FlagRef{Name: "quiet", Invert: true}
	assert.Equal(t, "__override_priority_1_flag_5_loud_func_Greet", FlagPredicate(1, loud, fn))
	assert.Equal(t, "__override_priority_3_flag_7i_quiet_func_Greet", FlagPredicate(3, quiet, fn))
	assert.Equal(t, "__override_flagext_5_loud_Greet", FlagExtIdent(loud, "Greet"))
	assert.Equal(t, "__override_flagext_7i_quiet_Greet", FlagExtIdent(quiet, "Greet"))
	assert.Equal(t, "__override_flagentry_Greet", FlagEntryIdent("Greet"))
}

func TestUnderscoresDoNotCollide(t *testing.T) {
	ab := Key{Kind: KindMethod, Owner: "A_B", Name: "c"}
	a := Key{Kind: KindMethod, Owner: "A", Name: "B_c"}
	assert.NotEqual(t, ab.Sig(), a.Sig())
	assert.NotEqual(t, PriorityPredicate(0, ab), PriorityPredicate(0, a))
	assert.NotEqual(t, FinalKey(ab), FinalKey(a))
	assert.NotEqual(t, AcceptFlagsKey(ab), AcceptFlagsKey(a))

	// флаг a у b_func_c против флага a_func_b у c
	f1, f2 := FlagRef{Name: "a"}, FlagRef{Name: "a_func_b"}
	k1, k2 := Key{Kind: KindFunc, Name: "b_func_c"}, Key{Kind: KindFunc, Name: "c"}
	assert.NotEqual(t, FlagPredicate(1, f1, k1), FlagPredicate(1, f2, k2))
	assert.NotEqual(t, FlagExtIdent(FlagRef{Name: "a"}, "b_c"), FlagExtIdent(FlagRef{Name: "a_b"}, "c"))
}

func TestConstKeyIgnoresType(t *testing.T) {
	assert.Equal(t, Key{Kind: KindImplConst, Name: "Timeout"}, ConstKey("Timeout"))
}

func TestAcceptListRoundTrip(t *testing.T) {
	flags := []FlagRef{{Name: "loud"}, {Name: "quiet", Invert: true}, {Name: "i_x"}}
	enc := EncodeAcceptList(flags)
	assert.Equal(t, "_loud i_quiet _i_x", enc)

	dec, err := DecodeAcceptList(enc)
	require.NoError(t, err)
	assert.Equal(t, flags, dec)

	empty, err := DecodeAcceptList("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = DecodeAcceptList("loud")
	assert.Error(t, err)
}

func TestFuncKey(t *testing.T) {
	src := `package p
func Plain() {}
func (s *Server) Ptr() {}
func (s Server) Val() {}
func (l *List[T]) Generic() {}
func (m Map[K, V]) Generic2() {}
`
	f, err := parser.ParseFile(token.NewFileSet(), "p.go", src, 0)
	require.NoError(t, err)

	var got []Key
	for _, d := range f.Decls {
		got = append(got, FuncKey(d.(*ast.FuncDecl)))
	}
	assert.Equal(t, []Key{
		{Kind: KindFunc, Name: "Plain"},
		{Kind: KindMethod, Owner: "Server", Name: "Ptr"},
		{Kind: KindMethod, Owner: "Server", Name: "Val"},
		{Kind: KindMethod, Owner: "List", Name: "Generic"},
		{Kind: KindMethod, Owner: "Map", Name: "Generic2"},
	}, got)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "method (Server).Start", Key{Kind: KindMethod, Owner: "Server", Name: "Start"}.String())
	assert.Equal(t, "const Limit", Key{Kind: KindImplConst, Name: "Limit"}.String())
	assert.Equal(t, "func Greet", Key{Kind: KindFunc, Name: "Greet"}.String())
}
