package rewrite

import (
	"go/ast"
	"go/build/constraint"
)

// removeBuildTag takes tag out of the file's build constraint. The
// constraint line disappears when tag was its only requirement; legacy
// "// +build" lines are always removed.
func removeBuildTag(f *ast.File, tag string) {
	for _, cg := range f.Comments {
		if cg.Pos() >= f.Package {
			break
		}
		kept := cg.List[:0]
		for _, c := range cg.List {
			switch {
			case constraint.IsPlusBuild(c.Text):
				continue
			case constraint.IsGoBuild(c.Text):
				expr, err := constraint.Parse(c.Text)
				if err != nil {
					break
				}
				rest, always := withoutTag(expr, tag)
				if always {
					continue
				}
				c.Text = "//go:build " + rest.String()
			}
			kept = append(kept, c)
		}
		cg.List = kept
	}
	pruneEmptyComments(f)
}

// withoutTag substitutes true for tag in x. It reports whether the whole
// expression became true.
func withoutTag(x constraint.Expr, tag string) (constraint.Expr, bool) {
	switch e := x.(type) {
	case *constraint.TagExpr:
		return e, e.Tag == tag
	case *constraint.AndExpr:
		l, lt := withoutTag(e.X, tag)
		r, rt := withoutTag(e.Y, tag)
		switch {
		case lt && rt:
			return nil, true
		case lt:
			return r, false
		case rt:
			return l, false
		}
		return &constraint.AndExpr{X: l, Y: r}, false
	case *constraint.OrExpr:
		l, lt := withoutTag(e.X, tag)
		r, rt := withoutTag(e.Y, tag)
		if lt || rt {
			return nil, true
		}
		return &constraint.OrExpr{X: l, Y: r}, false
	}
	return x, false
}
