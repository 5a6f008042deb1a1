package directive

import (
	"go/scanner"
	"go/token"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"overrider/internal/diag"
	"overrider/internal/item"
)

// ArgType is the value type a directive parameter accepts.
type ArgType uint8

const (
	TypeUint ArgType = iota + 1
	TypeBool
	TypeIdent
)

func (t ArgType) String() string {
	switch t {
	case TypeUint:
		return "non-negative integer"
	case TypeBool:
		return "boolean"
	case TypeIdent:
		return "identifier"
	}
	return "value"
}

// Param describes one accepted argument.
type Param struct {
	Name     string
	Type     ArgType
	Required bool
	Default  Value
}

// Schema lists the parameters of a directive kind.
type Schema struct {
	Params []Param
}

func (s Schema) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Value is a parsed argument value.
type Value struct {
	Type  ArgType
	Uint  uint32
	Bool  bool
	Ident string
	Pos   token.Pos
}

// Args holds the arguments of one directive with defaults filled in.
type Args struct {
	values map[string]Value
}

func (a Args) Uint(name string) uint32  { return a.values[name].Uint }
func (a Args) Bool(name string) bool    { return a.values[name].Bool }
func (a Args) Ident(name string) string { return a.values[name].Ident }

// Has reports whether name is known, either given or defaulted.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

var schemas = map[Kind]Schema{
	KindDefault: {},
	KindOverrideDefault: {Params: []Param{
		{Name: "priority", Type: TypeUint, Default: Value{Type: TypeUint, Uint: 1}},
	}},
	KindFinal: {},
	KindFlag: {Params: []Param{
		{Name: "flag", Type: TypeIdent, Required: true},
		{Name: "priority", Type: TypeUint, Default: Value{Type: TypeUint, Uint: 1}},
		{Name: "invert", Type: TypeBool, Default: Value{Type: TypeBool}},
	}},
}

// SchemaFor returns the argument schema of k.
func SchemaFor(k Kind) Schema {
	return schemas[k]
}

type argToken struct {
	tok token.Token
	lit string
	pos token.Pos // absolute position in the parsed file
}

func tokenize(d Directive) ([]argToken, *Error) {
	src := []byte(d.Args)
	fset := token.NewFileSet()
	tf := fset.AddFile("", -1, len(src))
	abs := func(p token.Pos) token.Pos {
		return d.ArgsPos + token.Pos(int(p)-tf.Base())
	}

	var first *Error
	var sc scanner.Scanner
	sc.Init(tf, src, func(pos token.Position, msg string) {
		if first == nil {
			at := d.ArgsPos + token.Pos(pos.Offset)
			first = errorAt(diag.AttrMalformedArguments, at, at, "%s: %s", d.Name, msg)
		}
	}, 0)

	var toks []argToken
	for {
		pos, tok, lit := sc.Scan()
		if tok == token.SEMICOLON && lit == "\n" {
			// автоматическая точка с запятой в конце строки
			continue
		}
		toks = append(toks, argToken{tok: tok, lit: lit, pos: abs(pos)})
		if tok == token.EOF {
			break
		}
	}
	if first != nil {
		return nil, first
	}
	return toks, nil
}

func (t argToken) text() string {
	if t.lit != "" {
		return t.lit
	}
	return t.tok.String()
}

func (t argToken) end() token.Pos {
	return t.pos + token.Pos(len(t.text()))
}

// Parse parses the arguments of d against s.
func (s Schema) Parse(d Directive) (Args, *Error) {
	toks, err := tokenize(d)
	if err != nil {
		return Args{}, err
	}

	i := 0
	paren := false
	if toks[i].tok == token.LPAREN {
		paren = true
		i++
	}

	type rawArg struct {
		key   argToken
		value []argToken
	}
	var raw []rawArg

	for {
		t := toks[i]
		if paren && t.tok == token.RPAREN {
			i++
			break
		}
		if t.tok == token.EOF {
			if paren {
				return Args{}, errorAt(diag.AttrMalformedArguments, t.pos, t.pos, "%s: missing closing ')'", d.Name)
			}
			break
		}
		if len(s.Params) == 0 {
			return Args{}, errorAt(diag.AttrMalformedArguments, t.pos, d.End(), "%s takes no arguments", d.Name)
		}
		if t.tok != token.IDENT {
			return Args{}, errorAt(diag.AttrMalformedArguments, t.pos, t.end(), "%s: expected argument name, found %s", d.Name, t.text())
		}
		if toks[i+1].tok != token.ASSIGN {
			n := toks[i+1]
			return Args{}, errorAt(diag.AttrMalformedArguments, n.pos, n.end(), "%s: expected '=' after %s", d.Name, t.lit)
		}
		i += 2
		start := i
		// значение: одна лексема или унарный минус с литералом
		if toks[i].tok == token.SUB || toks[i].tok == token.ADD {
			i++
		}
		switch toks[i].tok {
		case token.EOF, token.COMMA, token.RPAREN:
			return Args{}, errorAt(diag.AttrMalformedArguments, toks[i].pos, toks[i].pos, "%s: missing value for %s", d.Name, t.lit)
		}
		i++
		raw = append(raw, rawArg{key: t, value: toks[start:i]})
		if toks[i].tok == token.COMMA {
			i++
		}
	}
	if toks[i].tok != token.EOF {
		t := toks[i]
		return Args{}, errorAt(diag.AttrMalformedArguments, t.pos, t.end(), "%s: unexpected %s after arguments", d.Name, t.text())
	}

	values := make(map[string]Value, len(s.Params))
	for _, ra := range raw {
		name := ra.key.lit
		p, ok := s.param(name)
		if !ok {
			return Args{}, errorAt(diag.AttrUnknownArgument, ra.key.pos, ra.key.end(), "%s: unknown argument %q", d.Name, name)
		}
		if _, dup := values[name]; dup {
			return Args{}, errorAt(diag.AttrDuplicateArgument, ra.key.pos, ra.key.end(), "%s: argument %q given twice", d.Name, name)
		}
		v, verr := convert(d, p, ra.value)
		if verr != nil {
			return Args{}, verr
		}
		values[name] = v
	}
	for _, p := range s.Params {
		if _, ok := values[p.Name]; ok {
			continue
		}
		if p.Required {
			return Args{}, errorAt(diag.AttrMissingArgument, d.Pos(), d.End(), "%s: missing required argument %q", d.Name, p.Name)
		}
		values[p.Name] = p.Default
	}
	return Args{values: values}, nil
}

func convert(d Directive, p Param, toks []argToken) (Value, *Error) {
	first, last := toks[0], toks[len(toks)-1]
	bad := func() *Error {
		text := ""
		for _, t := range toks {
			text += t.text()
		}
		return errorAt(diag.AttrInvalidLiteral, first.pos, last.end(),
			"%s: %s must be a %s, found %s", d.Name, p.Name, p.Type, text)
	}
	if len(toks) != 1 {
		return Value{}, bad()
	}
	t := toks[0]
	switch p.Type {
	case TypeUint:
		if t.tok != token.INT {
			return Value{}, bad()
		}
		n, err := strconv.ParseUint(t.lit, 0, 32)
		if err != nil {
			return Value{}, errorAt(diag.AttrInvalidLiteral, t.pos, t.end(),
				"%s: %s does not fit in 32 bits: %s", d.Name, p.Name, t.lit)
		}
		return Value{Type: TypeUint, Uint: uint32(n), Pos: t.pos}, nil
	case TypeBool:
		if t.tok != token.IDENT || (t.lit != "true" && t.lit != "false") {
			return Value{}, bad()
		}
		return Value{Type: TypeBool, Bool: t.lit == "true", Pos: t.pos}, nil
	case TypeIdent:
		if t.tok != token.IDENT || t.lit == "_" {
			return Value{}, bad()
		}
		return Value{Type: TypeIdent, Ident: norm.NFC.String(t.lit), Pos: t.pos}, nil
	}
	return Value{}, bad()
}

// Spec is a fully parsed directive.
type Spec struct {
	Kind      Kind
	Priority  uint32
	Flag      item.FlagRef
	Directive Directive
}

// Parse parses d with the schema of its kind.
func Parse(d Directive) (Spec, *Error) {
	args, err := SchemaFor(d.Kind).Parse(d)
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Kind: d.Kind, Directive: d}
	switch d.Kind {
	case KindOverrideDefault:
		spec.Priority = args.Uint("priority")
	case KindFlag:
		spec.Priority = args.Uint("priority")
		spec.Flag = item.FlagRef{Name: args.Ident("flag"), Invert: args.Bool("invert")}
	}
	return spec, nil
}
