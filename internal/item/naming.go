package item

import (
	"fmt"
	"strings"
)

const prefix = "__override_"

// PriorityPredicate is the exclusion predicate of a default or
// override_default candidate with priority p.
func PriorityPredicate(p uint32, k Key) string {
	return fmt.Sprintf("%spriority_%d_%s", prefix, p, k.Sig())
}

// FlagPredicate is the exclusion predicate of a flag candidate. The flag
// token is length-prefixed like a method receiver.
func FlagPredicate(p uint32, f FlagRef, k Key) string {
	return fmt.Sprintf("%spriority_%d_flag_%s_%s", prefix, p, lenPrefixed(f.Token()), k.Sig())
}

// FinalKey is the table key holding the priority a final override must use.
func FinalKey(k Key) string {
	return prefix + "final_" + k.Sig()
}

// AcceptFlagsKey is the table key holding the ordered flags the dispatcher tests.
func AcceptFlagsKey(k Key) string {
	return prefix + "acceptflags_" + k.Sig()
}

// FlagExtIdent is the identifier a surviving flag candidate is renamed to.
func FlagExtIdent(f FlagRef, name string) string {
	return prefix + "flagext_" + lenPrefixed(f.Token()) + "_" + name
}

// FlagEntryIdent is the identifier the winning default is renamed to when a
// dispatcher takes over its name.
func FlagEntryIdent(name string) string {
	return prefix + "flagentry_" + name
}

// EncodeAcceptList joins flag tokens with single spaces, preserving order.
func EncodeAcceptList(flags []FlagRef) string {
	toks := make([]string, 0, len(flags))
	for _, f := range flags {
		toks = append(toks, f.Token())
	}
	return strings.Join(toks, " ")
}

// DecodeAcceptList splits an encoded accept list. An empty string yields nil.
func DecodeAcceptList(s string) ([]FlagRef, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]FlagRef, 0, len(fields))
	for _, tok := range fields {
		f, err := ParseFlagToken(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
