package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"strconv"
	"strings"

	"overrider/internal/diag"
	"overrider/internal/directive"
	"overrider/internal/item"
)

// dispatcher renders the function that takes over fd's name when flag
// candidates exist:
//
//	func Greet(name string) string {
//		if overrideFlags.Occurrences("loud") > 0 {
//			return __override_flagext_5_loud_Greet(name)
//		} else {
//			return __override_flagentry_Greet(name)
//		}
//	}
//
// Flags are tested in accept-list order; inverted flags test for absence.
func (u *unit) dispatcher(fd *ast.FuncDecl, flags []item.FlagRef) (string, bool) {
	name := fd.Name.Name
	var b strings.Builder
	if fd.Doc != nil {
		for _, c := range fd.Doc.List {
			if !directive.Is(c.Text) {
				b.WriteString(c.Text)
				b.WriteByte('\n')
			}
		}
	}

	params, args, ok := u.forwardParams(fd)
	if !ok {
		return "", false
	}

	b.WriteString("func ")
	recv := ""
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		field := fd.Recv.List[0]
		recv = "recv"
		if len(field.Names) > 0 && field.Names[0].Name != "_" {
			recv = field.Names[0].Name
		}
		for containsName(args, recv) {
			recv += "_"
		}
		fmt.Fprintf(&b, "(%s %s) ", recv, u.expr(field.Type))
	}
	b.WriteString(name)

	typeArgs := ""
	if tp := fd.Type.TypeParams; tp != nil && len(tp.List) > 0 {
		decl, names := u.fields(tp)
		fmt.Fprintf(&b, "[%s]", decl)
		typeArgs = "[" + strings.Join(names, ", ") + "]"
	}
	fmt.Fprintf(&b, "(%s)", params)

	hasResults := false
	if res := fd.Type.Results; res != nil && len(res.List) > 0 {
		hasResults = true
		decl, names := u.fields(res)
		if len(res.List) == 1 && len(names) == 0 {
			b.WriteString(" " + decl)
		} else {
			fmt.Fprintf(&b, " (%s)", decl)
		}
	}

	call := func(target string) string {
		callee := target + typeArgs
		if recv != "" {
			callee = recv + "." + target
		}
		stmt := callee + "(" + strings.Join(args, ", ") + ")"
		if hasResults {
			return "return " + stmt
		}
		return stmt
	}

	src := u.r.opts.FlagSource
	b.WriteString(" {\n")
	for i, fl := range flags {
		if i == 0 {
			b.WriteString("\tif ")
		} else {
			b.WriteString(" else if ")
		}
		cmp := "> 0"
		if fl.Invert {
			cmp = "== 0"
		}
		fmt.Fprintf(&b, "%s.Occurrences(%s) %s {\n\t\t%s\n\t}", src, strconv.Quote(fl.Name), cmp, call(item.FlagExtIdent(fl, name)))
	}
	fmt.Fprintf(&b, " else {\n\t\t%s\n\t}\n}\n", call(item.FlagEntryIdent(name)))
	return b.String(), true
}

// forwardParams renders the parameter list and the argument list that
// forwards it. Unnamed and blank parameters cannot be forwarded.
func (u *unit) forwardParams(fd *ast.FuncDecl) (params string, args []string, ok bool) {
	ok = true
	var parts []string
	list := fd.Type.Params.List
	for i, field := range list {
		if len(field.Names) == 0 {
			u.unforwardable(fd, field, "an unnamed parameter")
			ok = false
			continue
		}
		names := make([]string, 0, len(field.Names))
		for _, n := range field.Names {
			if n.Name == "_" {
				u.unforwardable(fd, field, "a blank parameter")
				ok = false
			}
			names = append(names, n.Name)
		}
		parts = append(parts, strings.Join(names, ", ")+" "+u.expr(field.Type))
		_, variadic := field.Type.(*ast.Ellipsis)
		for j, n := range names {
			if variadic && i == len(list)-1 && j == len(names)-1 {
				n += "..."
			}
			args = append(args, n)
		}
	}
	return strings.Join(parts, ", "), args, ok
}

func (u *unit) unforwardable(fd *ast.FuncDecl, field *ast.Field, what string) {
	u.bag.Add(diag.NewError(diag.GenUnforwardableParam, u.span(field.Pos(), field.End()),
		fmt.Sprintf("%s has %s; name every parameter so the flag dispatcher can forward it", fd.Name.Name, what)))
}

// fields renders a type-parameter or result list and returns its names.
func (u *unit) fields(fl *ast.FieldList) (string, []string) {
	var (
		parts []string
		names []string
	)
	for _, field := range fl.List {
		typ := u.expr(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		fieldNames := make([]string, 0, len(field.Names))
		for _, n := range field.Names {
			fieldNames = append(fieldNames, n.Name)
		}
		names = append(names, fieldNames...)
		parts = append(parts, strings.Join(fieldNames, ", ")+" "+typ)
	}
	return strings.Join(parts, ", "), names
}

func (u *unit) expr(e ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, u.fset, e); err != nil {
		return "any"
	}
	return buf.String()
}

func containsName(args []string, name string) bool {
	for _, a := range args {
		if strings.TrimSuffix(a, "...") == name {
			return true
		}
	}
	return false
}
