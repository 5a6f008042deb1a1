package rewrite

import (
	"fmt"
	"go/ast"
	"go/token"

	"overrider/internal/diag"
	"overrider/internal/directive"
	"overrider/internal/fix"
	"overrider/internal/item"
	"overrider/internal/source"
)

type action uint8

const (
	actKeep     action = iota
	actDrop            // excluded candidate or bare final
	actRename          // surviving flag candidate
	actDispatch        // surviving default that a dispatcher takes over
)

type plan struct {
	tg      *directive.Tagged
	act     action
	newName string
}

// unit is the state of one template while it is being rewritten.
type unit struct {
	r    *Rewriter
	fset *token.FileSet
	tf   *token.File
	id   source.FileID
	file *source.File
	ast  *ast.File
	bag  *diag.Bag
	out  *Output

	plans       []plan
	dispatchers []string
	// selector roots referenced by removed declarations
	droppedRefs map[string]struct{}
}

func (u *unit) span(from, to token.Pos) source.Span {
	return source.PosSpan(u.tf, u.id, from, to)
}

func predicateOf(tg *directive.Tagged) string {
	c := tg.Candidate
	if c.Kind == directive.KindFlag {
		return item.FlagPredicate(c.Priority, c.Flag, tg.Key)
	}
	return item.PriorityPredicate(c.Priority, tg.Key)
}

// decide looks tg up in the predicate table and records what to do with it.
func (u *unit) decide(tg *directive.Tagged) {
	look := u.r.opts.Lookup
	if tg.Candidate == nil {
		// голый final никогда не компилируется
		u.checkFinal(tg, true)
		u.plans = append(u.plans, plan{tg: tg, act: actDrop})
		return
	}

	excluded := look.IsExcluded(predicateOf(tg))
	if tg.Final != nil {
		u.checkFinal(tg, excluded)
	}
	if excluded {
		u.plans = append(u.plans, plan{tg: tg, act: actDrop})
		return
	}
	if tg.Candidate.Kind == directive.KindFlag {
		u.plans = append(u.plans, plan{tg: tg, act: actRename, newName: item.FlagExtIdent(tg.Candidate.Flag, tg.Key.Name)})
		return
	}

	fd, isFunc := tg.Decl.(*ast.FuncDecl)
	raw := look.AcceptedFlags(item.AcceptFlagsKey(tg.Key))
	if !isFunc || raw == "" {
		u.plans = append(u.plans, plan{tg: tg, act: actKeep})
		return
	}
	flags, err := item.DecodeAcceptList(raw)
	if err != nil {
		u.bag.Add(diag.NewError(diag.IOTableError, u.span(tg.Candidate.Directive.Pos(), tg.Candidate.Directive.End()),
			fmt.Sprintf("accepted flags of %s: %v", tg.Key, err)))
		return
	}
	src, ok := u.dispatcher(fd, flags)
	if !ok {
		return
	}
	u.dispatchers = append(u.dispatchers, src)
	u.plans = append(u.plans, plan{tg: tg, act: actDispatch, newName: item.FlagEntryIdent(tg.Key.Name)})
}

// checkFinal compares a final marker against the table. A bare marker
// always breaks the build; a marker on a candidate only when that
// candidate lost its chain.
func (u *unit) checkFinal(tg *directive.Tagged, lost bool) {
	fin := tg.Final.Directive
	finSpan := u.span(fin.Pos(), fin.End())
	required, ok := u.r.opts.Lookup.RequiredPriority(item.FinalKey(tg.Key))
	if !ok {
		u.bag.Add(diag.NewError(diag.GenMissingBuildStep, finSpan,
			fmt.Sprintf("no final priority recorded for %s; run `overrider scan` over this file before generating", tg.Key)))
		return
	}
	if !lost {
		return
	}

	replacement := fmt.Sprintf("%soverride_default(priority = %d)", directive.Prefix, required)
	target := fin
	if tg.Candidate != nil {
		target = tg.Candidate.Directive
	}
	msg := fmt.Sprintf("%s %s requested final. Replace %s with %s or higher",
		tg.Key.Kind.Noun(), tg.Key.Name, target.Comment.Text, replacement)
	d := diag.NewError(diag.GenFinalRequested, finSpan, msg).
		WithFixSuggestion(fix.ReplaceSpan(
			fmt.Sprintf("raise %s to priority %d", tg.Key, required),
			u.span(target.Pos(), target.End()),
			replacement,
			target.Comment.Text,
			fix.WithID("final:"+tg.Key.Sig()),
			fix.Preferred(),
		))
	if tg.Candidate != nil {
		d = d.WithNote(u.span(target.Pos(), target.End()),
			fmt.Sprintf("priority %d is outranked in this build", tg.Candidate.Priority))
	}
	u.bag.Add(d)
}
