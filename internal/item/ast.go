package item

import "go/ast"

// FuncKey derives the key of a function or method declaration.
func FuncKey(fd *ast.FuncDecl) Key {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return Key{Kind: KindFunc, Name: fd.Name.Name}
	}
	return Key{
		Kind:  KindMethod,
		Owner: ReceiverTypeName(fd.Recv.List[0].Type),
		Name:  fd.Name.Name,
	}
}

// ConstKey derives the key of one constant name. Typed and untyped
// declarations of the same name compete in one chain.
func ConstKey(name string) Key {
	return Key{Kind: KindImplConst, Name: name}
}

// ReceiverTypeName extracts the base type name from a receiver, stripping
// the pointer and any type parameters.
func ReceiverTypeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		// *T и *T[P]
		return ReceiverTypeName(e.X)
	case *ast.ParenExpr:
		return ReceiverTypeName(e.X)
	case *ast.IndexExpr:
		return ReceiverTypeName(e.X)
	case *ast.IndexListExpr:
		return ReceiverTypeName(e.X)
	}
	return ""
}
