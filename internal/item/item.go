// Package item names the declarations that take part in overriding and
// derives every generated identifier and table key from them.
//
// The naming protocol is shared by the scanner, which writes keys into the
// predicate table, and the rewriter, which reads them back. Both sides must
// derive identical strings, so all formatting lives here.
package item

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the taggable declaration kind.
type Kind uint8

const (
	KindFunc Kind = iota + 1
	KindMethod
	KindImplConst
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindMethod:
		return "method"
	case KindImplConst:
		return "implconst"
	}
	return "unknown"
}

// Noun is the word used in user-facing messages.
func (k Kind) Noun() string {
	switch k {
	case KindFunc:
		return "Function"
	case KindMethod:
		return "Method"
	case KindImplConst:
		return "Constant"
	}
	return "Item"
}

// Key identifies an override chain: kind, receiver type and name. Owner is
// set for methods only; a constant is one package-level name whatever its
// declared type.
type Key struct {
	Kind  Kind
	Owner string
	Name  string
}

// Sig is the item signature embedded in predicates and table keys. Distinct
// keys give distinct signatures: identifiers may contain '_', so the
// receiver carries its length (method_6Server_Start).
func (k Key) Sig() string {
	switch k.Kind {
	case KindFunc:
		return "func_" + k.Name
	case KindMethod:
		return "method_" + lenPrefixed(k.Owner) + "_" + k.Name
	case KindImplConst:
		return "implconst_" + k.Name
	}
	return "item_" + k.Name
}

// lenPrefixed makes s self-delimiting inside an identifier.
func lenPrefixed(s string) string {
	return strconv.Itoa(len(s)) + s
}

func (k Key) String() string {
	switch k.Kind {
	case KindMethod:
		return fmt.Sprintf("method (%s).%s", k.Owner, k.Name)
	case KindImplConst:
		return "const " + k.Name
	}
	return "func " + k.Name
}

// FlagRef names a runtime flag and whether the dispatcher checks its absence.
type FlagRef struct {
	Name   string
	Invert bool
}

// Token is the flag form embedded in identifiers: "_name" or "i_name".
func (f FlagRef) Token() string {
	if f.Invert {
		return "i_" + f.Name
	}
	return "_" + f.Name
}

func (f FlagRef) String() string {
	if f.Invert {
		return "!" + f.Name
	}
	return f.Name
}

// ParseFlagToken reverses FlagRef.Token.
func ParseFlagToken(tok string) (FlagRef, error) {
	switch {
	case strings.HasPrefix(tok, "i_") && len(tok) > 2:
		return FlagRef{Name: tok[2:], Invert: true}, nil
	case strings.HasPrefix(tok, "_") && len(tok) > 1:
		return FlagRef{Name: tok[1:]}, nil
	}
	return FlagRef{}, fmt.Errorf("invalid flag token %q", tok)
}
