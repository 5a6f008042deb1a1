package rewrite

import (
	"go/ast"
	"go/token"

	"overrider/internal/directive"
)

// apply carries out the recorded plans on the file's AST.
func (u *unit) apply() {
	dropDecl := make(map[ast.Decl]bool)
	dropConst := make(map[*ast.ValueSpec]map[int]bool)

	for _, p := range u.plans {
		switch p.act {
		case actDrop:
			u.out.Dropped++
			if p.tg.Spec == nil {
				dropDecl[p.tg.Decl] = true
				continue
			}
			names := dropConst[p.tg.Spec]
			if names == nil {
				names = make(map[int]bool)
				dropConst[p.tg.Spec] = names
			}
			names[p.tg.NameIndex] = true
		case actRename:
			u.out.Renamed++
			p.tg.Ident.Name = p.newName
		case actDispatch:
			u.out.Dispatchers++
			p.tg.Ident.Name = p.newName
			// doc переезжает в диспетчер
			if fd, ok := p.tg.Decl.(*ast.FuncDecl); ok && fd.Doc != nil {
				u.dropComments(fd.Doc.Pos(), fd.Doc.End())
				fd.Doc = nil
			}
		default:
			u.out.Kept++
		}
	}

	decls := u.ast.Decls[:0]
	for _, d := range u.ast.Decls {
		if dropDecl[d] {
			u.dropNode(d)
			continue
		}
		if gd, ok := d.(*ast.GenDecl); ok && gd.Tok == token.CONST && u.pruneConsts(gd, dropConst) {
			u.dropNode(gd)
			continue
		}
		decls = append(decls, d)
	}
	u.ast.Decls = decls
}

// pruneConsts removes dropped constants from gd and reports whether gd is
// now empty. Groups that rely on implicit repetition (iota) keep their
// shape: dropped names become blank identifiers instead.
func (u *unit) pruneConsts(gd *ast.GenDecl, drop map[*ast.ValueSpec]map[int]bool) bool {
	implicit := repeatsValues(gd)
	specs := gd.Specs[:0]
	for _, s := range gd.Specs {
		vs, ok := s.(*ast.ValueSpec)
		names := drop[vs]
		if !ok || len(names) == 0 {
			specs = append(specs, s)
			continue
		}
		if !implicit && len(names) == len(vs.Names) {
			u.dropNode(vs)
			continue
		}
		for i := range names {
			vs.Names[i].Name = "_"
		}
		specs = append(specs, vs)
	}
	gd.Specs = specs
	return len(specs) == 0
}

// repeatsValues reports whether removing a spec from gd could change the
// meaning of the others: some spec repeats the previous expression list or
// the group counts with iota.
func repeatsValues(gd *ast.GenDecl) bool {
	for _, s := range gd.Specs {
		vs, ok := s.(*ast.ValueSpec)
		if !ok {
			continue
		}
		if len(vs.Values) == 0 {
			return true
		}
		for _, v := range vs.Values {
			found := false
			ast.Inspect(v, func(n ast.Node) bool {
				if id, ok := n.(*ast.Ident); ok && id.Name == "iota" {
					found = true
				}
				return !found
			})
			if found {
				return true
			}
		}
	}
	return false
}

// dropNode removes n together with its doc and trailing comments and
// remembers which selector roots it referenced, for import pruning.
func (u *unit) dropNode(n ast.Node) {
	from, to := n.Pos(), n.End()
	switch d := n.(type) {
	case *ast.FuncDecl:
		if d.Doc != nil {
			from = d.Doc.Pos()
		}
	case *ast.GenDecl:
		if d.Doc != nil {
			from = d.Doc.Pos()
		}
	case *ast.ValueSpec:
		if d.Doc != nil {
			from = d.Doc.Pos()
		}
		if d.Comment != nil {
			to = d.Comment.End()
		}
	}
	for name := range selectorRoots(n) {
		if u.droppedRefs == nil {
			u.droppedRefs = make(map[string]struct{})
		}
		u.droppedRefs[name] = struct{}{}
	}
	u.dropComments(from, to)
}

func (u *unit) dropComments(from, to token.Pos) {
	kept := u.ast.Comments[:0]
	for _, cg := range u.ast.Comments {
		if cg.Pos() >= from && cg.End() <= to {
			continue
		}
		kept = append(kept, cg)
	}
	u.ast.Comments = kept
}

// stripRemainingDirectives removes directive lines from the comments that
// survived and detaches groups left empty.
func (u *unit) stripRemainingDirectives() {
	for _, cg := range u.ast.Comments {
		directive.Strip(cg)
	}
	pruneEmptyComments(u.ast)
}

// pruneEmptyComments drops empty comment groups; the printer cannot
// position them.
func pruneEmptyComments(f *ast.File) {
	kept := f.Comments[:0]
	for _, cg := range f.Comments {
		if len(cg.List) > 0 {
			kept = append(kept, cg)
		}
	}
	f.Comments = kept

	empty := func(cg *ast.CommentGroup) bool { return cg != nil && len(cg.List) == 0 }
	if empty(f.Doc) {
		f.Doc = nil
	}
	ast.Inspect(f, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.FuncDecl:
			if empty(x.Doc) {
				x.Doc = nil
			}
		case *ast.GenDecl:
			if empty(x.Doc) {
				x.Doc = nil
			}
		case *ast.ValueSpec:
			if empty(x.Doc) {
				x.Doc = nil
			}
			if empty(x.Comment) {
				x.Comment = nil
			}
		case *ast.TypeSpec:
			if empty(x.Doc) {
				x.Doc = nil
			}
			if empty(x.Comment) {
				x.Comment = nil
			}
		case *ast.ImportSpec:
			if empty(x.Doc) {
				x.Doc = nil
			}
			if empty(x.Comment) {
				x.Comment = nil
			}
		case *ast.Field:
			if empty(x.Doc) {
				x.Doc = nil
			}
			if empty(x.Comment) {
				x.Comment = nil
			}
		}
		return true
	})
}
