package table

import (
	"os"
	"strconv"
	"strings"
)

// Lookup is the read side the rewriter consumes.
type Lookup interface {
	IsExcluded(predicate string) bool
	RequiredPriority(key string) (uint32, bool)
	AcceptedFlags(key string) string
}

// Coverage is implemented by lookups that know which files they cover.
type Coverage interface {
	Covers(path string) (digest string, ok bool)
}

var (
	_ Lookup   = (*Table)(nil)
	_ Coverage = (*Table)(nil)
	_ Lookup   = EnvLookup{}
)

// EnvLookup reads decisions from process environment variables, the
// encoding produced by `overrider env`. It has no coverage information.
type EnvLookup struct {
	// Getenv defaults to os.LookupEnv.
	Getenv func(string) (string, bool)
}

func (e EnvLookup) get(key string) (string, bool) {
	if e.Getenv != nil {
		return e.Getenv(key)
	}
	return os.LookupEnv(key)
}

func (e EnvLookup) IsExcluded(predicate string) bool {
	v, ok := e.get(predicate)
	return ok && v != "" && v != "0"
}

func (e EnvLookup) RequiredPriority(key string) (uint32, bool) {
	v, ok := e.get(key)
	if !ok {
		return 0, false
	}
	p, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(p), true
}

func (e EnvLookup) AcceptedFlags(key string) string {
	v, _ := e.get(key)
	return strings.TrimSpace(v)
}

func uintString(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
