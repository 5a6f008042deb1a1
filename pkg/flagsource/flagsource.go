// Package flagsource answers the one question generated flag dispatchers ask:
// how many times was a flag given on the command line.
//
// A dispatcher produced for
//
//	//overrider:override_flag(flag = fast)
//
// calls overrideFlags.Occurrences("fast") on every invocation, where
// overrideFlags is a package-level value of a type implementing Source. The
// adapters below cover the usual flag libraries; Lazy defers building the
// source until the first call so it can be declared before flags are parsed.
package flagsource

import (
	"flag"
	"strconv"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/unicode/norm"
)

// Source reports flag occurrences. Zero means the flag was not given.
type Source interface {
	Occurrences(name string) int
}

// Func adapts a function to Source.
type Func func(name string) int

func (f Func) Occurrences(name string) int { return f(name) }

// Map is a fixed table of occurrences, handy in tests.
type Map map[string]int

func (m Map) Occurrences(name string) int { return m[norm.NFC.String(name)] }

// None is a Source without flags; every dispatcher falls through to its
// non-flag implementation.
var None Source = Map(nil)

// PFlag adapts a parsed pflag set. Count flags report their count; any
// other flag counts once when it was set on the command line.
func PFlag(fs *pflag.FlagSet) Source {
	return Func(func(name string) int {
		f := fs.Lookup(norm.NFC.String(name))
		if f == nil || !f.Changed {
			return 0
		}
		if f.Value.Type() == "count" {
			if n, err := strconv.Atoi(f.Value.String()); err == nil {
				return n
			}
		}
		return 1
	})
}

// Cobra adapts the flags of cmd, local and inherited.
func Cobra(cmd *cobra.Command) Source {
	return PFlag(cmd.Flags())
}

// Std adapts a parsed standard library flag set. The standard package does
// not count repetitions, so a set flag counts once.
func Std(fs *flag.FlagSet) Source {
	return Func(func(name string) int {
		name = norm.NFC.String(name)
		n := 0
		fs.Visit(func(f *flag.Flag) {
			if f.Name == name {
				n = 1
			}
		})
		return n
	})
}

// Lazy builds the underlying Source on first use. Until init returns a
// non-nil source every flag reports zero.
type Lazy struct {
	get func() Source
}

// NewLazy wraps init, which runs at most once.
func NewLazy(init func() Source) *Lazy {
	return &Lazy{get: sync.OnceValue(func() Source {
		if s := init(); s != nil {
			return s
		}
		return None
	})}
}

func (l *Lazy) Occurrences(name string) int {
	if l == nil || l.get == nil {
		return 0
	}
	return l.get().Occurrences(name)
}

// Counter is a mutable Source for programs that assemble flags by hand.
type Counter struct {
	mu     sync.RWMutex
	counts map[string]int
}

// Add records one more occurrence of name.
func (c *Counter) Add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[norm.NFC.String(name)]++
}

func (c *Counter) Occurrences(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[norm.NFC.String(name)]
}
