package rewrite

import (
	"go/ast"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/imports"
)

// selectorRoots collects X of every pkg.Sel expression under n. Roots the
// parser resolved to a declaration in the file (locals, params, receivers)
// are not package names and are skipped, as astutil.UsesImport does.
func selectorRoots(n ast.Node) map[string]struct{} {
	roots := make(map[string]struct{})
	ast.Inspect(n, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && id.Obj == nil {
				roots[id.Name] = struct{}{}
			}
		}
		return true
	})
	return roots
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// importNames guesses the names an import may be referred to by. Without
// type information the package clause is unknown, so several spellings
// are tried.
func importNames(spec *ast.ImportSpec) []string {
	if spec.Name != nil {
		return []string{spec.Name.Name}
	}
	p, err := strconv.Unquote(spec.Path.Value)
	if err != nil {
		return nil
	}
	last := path.Base(p)
	if majorVersion.MatchString(last) && path.Dir(p) != "." {
		last = path.Base(path.Dir(p))
	}
	names := []string{last}
	if i := strings.Index(last, ".v"); i > 0 {
		names = append(names, last[:i])
	}
	for _, n := range names {
		if t := strings.TrimPrefix(n, "go-"); t != n {
			names = append(names, t)
		}
	}
	for _, n := range names {
		if strings.ContainsAny(n, "-.") {
			names = append(names, strings.NewReplacer("-", "_", ".", "_").Replace(n))
		}
	}
	return names
}

// pruneImports deletes imports only dropped declarations used. An import
// is kept whenever any of its possible names is still referenced.
func (u *unit) pruneImports() {
	if len(u.droppedRefs) == 0 {
		return
	}
	// диспетчеры используют типы из сигнатуры сохранённой функции
	used := selectorRoots(u.ast)
	var remove []*ast.ImportSpec
	for _, spec := range u.ast.Imports {
		names := importNames(spec)
		if len(names) == 0 || names[0] == "_" || names[0] == "." {
			continue
		}
		stillUsed, wasUsed := false, false
		for _, n := range names {
			if _, ok := used[n]; ok {
				stillUsed = true
			}
			if _, ok := u.droppedRefs[n]; ok {
				wasUsed = true
			}
		}
		if wasUsed && !stillUsed {
			remove = append(remove, spec)
		}
	}
	for _, spec := range remove {
		name := ""
		if spec.Name != nil {
			name = spec.Name.Name
		}
		p, _ := strconv.Unquote(spec.Path.Value)
		astutil.DeleteNamedImport(u.fset, u.ast, name, p)
	}
}

// formatSource gofmts src and sorts its import block.
func formatSource(filename string, src []byte) ([]byte, error) {
	return imports.Process(filename, src, &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
}
