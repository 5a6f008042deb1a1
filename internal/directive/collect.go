package directive

import (
	"go/ast"
	"go/token"

	"overrider/internal/diag"
	"overrider/internal/item"
)

// Tagged is one declaration name carrying override directives.
type Tagged struct {
	Key item.Key
	// Decl is the *ast.FuncDecl or the const *ast.GenDecl.
	Decl ast.Decl
	// Spec and NameIndex locate a constant inside its GenDecl.
	Spec      *ast.ValueSpec
	NameIndex int
	Ident     *ast.Ident
	// Doc is the comment group the directives were read from. For a
	// constant it is either the spec's doc or the const group's doc.
	Doc       *ast.CommentGroup
	FromGroup bool
	// Candidate is the default, override_default or override_flag directive.
	Candidate *Spec
	// Final is set when the declaration carries override_final.
	Final *Spec
}

// Pos returns the position diagnostics about t should point at.
func (t *Tagged) Pos() (token.Pos, token.Pos) {
	if t.Candidate != nil {
		return t.Candidate.Directive.Pos(), t.Candidate.Directive.End()
	}
	if t.Final != nil {
		return t.Final.Directive.Pos(), t.Final.Directive.End()
	}
	return t.Ident.Pos(), t.Ident.End()
}

// Unsupported is a directive attached to a declaration that cannot be overridden.
type Unsupported struct {
	Directive Directive
	What      string
}

// Collection is the result of walking one file.
type Collection struct {
	Items       []Tagged
	Unsupported []Unsupported
	Errors      []*Error
}

// Collect walks the top-level declarations of f in source order.
//
// Directives on a const group apply to each constant in the group unless the
// constant's own doc comment carries directives, which then replace the
// group's. Malformed directives are reported in Errors and the affected
// declaration is left out of Items.
func Collect(f *ast.File) Collection {
	var c Collection
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			c.collectFunc(d)
		case *ast.GenDecl:
			if d.Tok == token.CONST {
				c.collectConsts(d)
			} else {
				c.collectUnsupported(d)
			}
		}
	}
	return c
}

func (c *Collection) collectFunc(fd *ast.FuncDecl) {
	dirs := c.extract(fd.Doc)
	if len(dirs) == 0 {
		return
	}
	cand, final, ok := c.classify(dirs, false)
	if !ok {
		return
	}
	c.Items = append(c.Items, Tagged{
		Key:       item.FuncKey(fd),
		Decl:      fd,
		Ident:     fd.Name,
		Doc:       fd.Doc,
		Candidate: cand,
		Final:     final,
	})
}

func (c *Collection) collectConsts(gd *ast.GenDecl) {
	groupDirs := c.extract(gd.Doc)
	var groupCand, groupFinal *Spec
	groupOK := true
	if len(groupDirs) > 0 {
		groupCand, groupFinal, groupOK = c.classify(groupDirs, true)
	}

	for _, s := range gd.Specs {
		vs, ok := s.(*ast.ValueSpec)
		if !ok {
			continue
		}

		doc := vs.Doc
		if doc == gd.Doc {
			// одиночная декларация без скобок: doc принадлежит GenDecl
			doc = nil
		}
		cand, final := groupCand, groupFinal
		fromGroup := true
		holder := gd.Doc
		if dirs := c.extract(doc); len(dirs) > 0 {
			var ok bool
			cand, final, ok = c.classify(dirs, true)
			if !ok {
				continue
			}
			fromGroup = false
			holder = doc
		} else if !groupOK || (groupCand == nil && groupFinal == nil) {
			continue
		}

		for i, name := range vs.Names {
			if name.Name == "_" {
				continue
			}
			c.Items = append(c.Items, Tagged{
				Key:       item.ConstKey(name.Name),
				Decl:      gd,
				Spec:      vs,
				NameIndex: i,
				Ident:     name,
				Doc:       holder,
				FromGroup: fromGroup && gd.Lparen.IsValid(),
				Candidate: cand,
				Final:     final,
			})
		}
	}
}

func (c *Collection) collectUnsupported(gd *ast.GenDecl) {
	what := gd.Tok.String()
	for _, d := range c.extract(gd.Doc) {
		c.Unsupported = append(c.Unsupported, Unsupported{Directive: d, What: what})
	}
	for _, s := range gd.Specs {
		var doc *ast.CommentGroup
		switch sp := s.(type) {
		case *ast.TypeSpec:
			doc = sp.Doc
		case *ast.ValueSpec:
			doc = sp.Doc
		case *ast.ImportSpec:
			doc = sp.Doc
		}
		if doc == nil || doc == gd.Doc {
			continue
		}
		for _, d := range c.extract(doc) {
			c.Unsupported = append(c.Unsupported, Unsupported{Directive: d, What: what})
		}
	}
}

func (c *Collection) extract(cg *ast.CommentGroup) []Directive {
	dirs, errs := Extract(cg)
	c.Errors = append(c.Errors, errs...)
	return dirs
}

// classify parses dirs and splits them into the candidate and the final
// marker. At most one candidate directive is allowed; a final marker may
// accompany a default or override_default candidate but not a flag.
func (c *Collection) classify(dirs []Directive, isConst bool) (cand, final *Spec, ok bool) {
	ok = true
	for _, d := range dirs {
		spec, err := Parse(d)
		if err != nil {
			c.Errors = append(c.Errors, err)
			ok = false
			continue
		}
		switch spec.Kind {
		case KindFinal:
			if final != nil {
				c.Errors = append(c.Errors, errorAt(diag.GenConflictingDirectives, d.Pos(), d.End(),
					"%s given twice", d.Name))
				ok = false
				continue
			}
			s := spec
			final = &s
		default:
			if cand != nil {
				c.Errors = append(c.Errors, errorAt(diag.GenConflictingDirectives, d.Pos(), d.End(),
					"%s conflicts with %s on the same declaration", d.Name, cand.Directive.Name))
				ok = false
				continue
			}
			if isConst && spec.Kind == KindFlag {
				c.Errors = append(c.Errors, errorAt(diag.GenFlagOnConstant, d.Pos(), d.End(),
					"override_flag cannot be applied to constants; only functions and methods can dispatch on flags"))
				ok = false
				continue
			}
			s := spec
			cand = &s
		}
	}
	if ok && final != nil && cand != nil && cand.Kind == KindFlag {
		c.Errors = append(c.Errors, errorAt(diag.GenConflictingDirectives, final.Directive.Pos(), final.Directive.End(),
			"override_final cannot be combined with override_flag"))
		ok = false
	}
	return cand, final, ok
}
