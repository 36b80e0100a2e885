package main

// astjson decodes the serialized-AST sidecar files this CLI drives the
// analyzer over. spec.md §1 scopes tokenization/parse-tree construction out
// of the module proper ("the core consumes an already-built abstract syntax
// tree"); this file plays the role of the external front-end that produces
// one, reading a JSON encoding of internal/ast's node shapes instead of
// source text. Type annotations are written as small strings ("int64",
// "pointer[int64]", "array3[Point]", "" for an undeclared slot) and resolved
// against the module's own type declarations while decoding, exactly as a
// real parser's binder would resolve a name to its declaration.

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/types"
)

type jsonPos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func (p jsonPos) toPos(module string) ast.Pos {
	return ast.Pos{Line: p.Line, Col: p.Col, Module: module}
}

type jsonDirective struct {
	jsonPos
	Path string `json:"path"`
}

type jsonField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonTypeDecl struct {
	jsonPos
	Name   string      `json:"name"`
	Fields []jsonField `json:"fields"`
}

type jsonFuncSig struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Return string   `json:"return"`
}

type jsonInterfaceDecl struct {
	jsonPos
	Name      string        `json:"name"`
	Functions []jsonFuncSig `json:"functions"`
}

type jsonParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Mutable bool   `json:"mutable"`
}

type jsonTypeParam struct {
	Name       string            `json:"name"`
	Interfaces []string          `json:"interfaces"`
	Fields     map[string]string `json:"fields"`
}

type jsonFunctionDecl struct {
	jsonPos
	Name       string          `json:"name"`
	Params     []jsonParam     `json:"params"`
	Return     string          `json:"return"`
	Body       json.RawMessage `json:"body"`
	Extern     bool            `json:"extern"`
	Variadic   bool            `json:"variadic"`
	TypeParams []jsonTypeParam `json:"typeParams"`
}

type jsonProgram struct {
	Module     string             `json:"module"`
	Uses       []jsonDirective    `json:"uses"`
	Includes   []jsonDirective    `json:"includes"`
	Types      []jsonTypeDecl     `json:"types"`
	Interfaces []jsonInterfaceDecl `json:"interfaces"`
	Functions  []jsonFunctionDecl `json:"functions"`
	Statements []json.RawMessage  `json:"statements"`
}

// jsonNode is the tagged-union wire shape for every expression/statement
// node; fields irrelevant to Kind are simply left zero.
type jsonNode struct {
	jsonPos
	Kind string `json:"kind"`

	Name string `json:"name"` // ident and decl name (call uses Callee, assign uses Target)

	IntVal        int64   `json:"intVal"`
	FloatVal      float64 `json:"floatVal"`
	BoolVal       bool    `json:"boolVal"`
	StrVal        string  `json:"strVal"`
	Annotated     bool    `json:"annotated"`
	AnnotatedType string  `json:"annotatedType"`

	Elements []json.RawMessage `json:"elements"`

	TypeName string              `json:"typeName"`
	Fields   []jsonStructFieldIn `json:"fields"`

	Object    json.RawMessage `json:"object"`
	FieldPath []string        `json:"fieldPath"`

	Operand json.RawMessage `json:"operand"`

	Callee string        `json:"callee"`
	Args   []jsonCallArg `json:"args"`

	Mutable      bool            `json:"mutable"`
	DeclaredType string          `json:"declaredType"`
	Value        json.RawMessage `json:"value"`

	Target string `json:"target"`

	Cond json.RawMessage `json:"cond"`
	Then json.RawMessage `json:"then"`
	Else json.RawMessage `json:"else"`

	Stmts []json.RawMessage `json:"stmts"`
}

type jsonStructFieldIn struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type jsonCallArg struct {
	Value json.RawMessage `json:"value"`
	Mut   bool            `json:"mut"`
}

// decoder carries the per-module type-declaration table built from
// jsonProgram.Types so named type annotations resolve to the same
// *ast.TypeDecl a real binder would attach (internal/collect's field-access
// path requires a concrete NominalType's Def to be populated, see
// internal/collect/collect.go's stepField).
type decoder struct {
	module     string
	typeDecls  map[string]*ast.TypeDecl
}

// decodeProgram turns raw JSON bytes into an *ast.Program, resolving every
// type annotation against the program's own type declarations.
func decodeProgram(data []byte) (*ast.Program, error) {
	var jp jsonProgram
	if err := json.Unmarshal(data, &jp); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}

	d := &decoder{module: jp.Module, typeDecls: map[string]*ast.TypeDecl{}}

	// Pass 1: register every type name so field/param annotations anywhere
	// else in the file (declared before or after a given type) resolve.
	tdecls := make([]*ast.TypeDecl, 0, len(jp.Types))
	for _, jt := range jp.Types {
		td := &ast.TypeDecl{Pos: jt.toPos(d.module), Name: jt.Name}
		d.typeDecls[jt.Name] = td
		tdecls = append(tdecls, td)
	}
	for i, jt := range jp.Types {
		td := tdecls[i]
		for _, jf := range jt.Fields {
			td.Fields = append(td.Fields, ast.FieldDef{Name: jf.Name, Declared: d.parseType(jf.Type)})
		}
	}

	prog := &ast.Program{Module: d.module, Types: tdecls}

	for _, ju := range jp.Uses {
		prog.Uses = append(prog.Uses, &ast.UseDirective{Pos: ju.toPos(d.module), Path: ju.Path})
	}
	for _, ji := range jp.Includes {
		prog.Includes = append(prog.Includes, &ast.IncludeDirective{Pos: ji.toPos(d.module), Path: ji.Path})
	}

	for _, ji := range jp.Interfaces {
		id := &ast.InterfaceDecl{Pos: ji.toPos(d.module), Name: ji.Name}
		for _, sig := range ji.Functions {
			params := make([]types.Type, len(sig.Params))
			for i, p := range sig.Params {
				params[i] = d.parseType(p)
			}
			id.Functions = append(id.Functions, ast.FunctionSignature{
				Name: sig.Name, Params: params, Return: d.parseType(sig.Return),
			})
		}
		prog.Interfaces = append(prog.Interfaces, id)
	}

	for _, jf := range jp.Functions {
		fn, err := d.decodeFunction(jf)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}

	for _, raw := range jp.Statements {
		n, err := d.decodeNode(raw)
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, n)
	}

	return prog, nil
}

func (d *decoder) decodeFunction(jf jsonFunctionDecl) (*ast.FunctionDecl, error) {
	fn := &ast.FunctionDecl{
		Pos:        jf.toPos(d.module),
		Name:       jf.Name,
		ReturnType: d.parseType(jf.Return),
		IsExtern:   jf.Extern,
		IsVariadic: jf.Variadic,
		Module:     d.module,
	}
	for _, jp := range jf.Params {
		fn.Params = append(fn.Params, ast.Param{Name: jp.Name, Declared: d.parseType(jp.Type), Mutable: jp.Mutable})
	}
	for _, jtp := range jf.TypeParams {
		tp := ast.TypeParam{Name: jtp.Name, Interfaces: jtp.Interfaces}
		if len(jtp.Fields) > 0 {
			tp.Fields = make(map[string]types.Type, len(jtp.Fields))
			for name, typ := range jtp.Fields {
				tp.Fields[name] = d.parseType(typ)
			}
		}
		fn.TypeParams = append(fn.TypeParams, tp)
	}
	if len(jf.Body) > 0 && string(jf.Body) != "null" {
		body, err := d.decodeNode(jf.Body)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", jf.Name, err)
		}
		fn.Body = body
	}
	return fn, nil
}

func (d *decoder) decodeExpr(raw json.RawMessage) (ast.Expr, error) {
	n, err := d.decodeNode(raw)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	e, ok := n.(ast.Expr)
	if !ok {
		return nil, fmt.Errorf("node is not an expression: %T", n)
	}
	return e, nil
}

func (d *decoder) decodeNode(raw json.RawMessage) (ast.Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var jn jsonNode
	if err := json.Unmarshal(raw, &jn); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	pos := jn.toPos(d.module)

	switch jn.Kind {
	case "ident":
		return ast.NewIdentifier(pos, jn.Name), nil
	case "int":
		lit := ast.NewIntLiteral(pos, jn.IntVal)
		if jn.Annotated {
			lit.Annotated, lit.AnnotatedType = true, d.parseType(jn.AnnotatedType)
		}
		return lit, nil
	case "float":
		lit := ast.NewFloatLiteral(pos, jn.FloatVal)
		if jn.Annotated {
			lit.Annotated, lit.AnnotatedType = true, d.parseType(jn.AnnotatedType)
		}
		return lit, nil
	case "bool":
		return ast.NewBoolLiteral(pos, jn.BoolVal), nil
	case "string":
		return ast.NewStringLiteral(pos, jn.StrVal), nil
	case "array":
		elems := make([]ast.Expr, len(jn.Elements))
		for i, raw := range jn.Elements {
			e, err := d.decodeExpr(raw)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return ast.NewArrayLiteral(pos, elems), nil
	case "struct":
		fields := make([]ast.StructFieldInit, len(jn.Fields))
		for i, jf := range jn.Fields {
			v, err := d.decodeExpr(jf.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = ast.StructFieldInit{Name: jf.Name, Value: v}
		}
		return ast.NewStructLiteral(pos, jn.TypeName, fields), nil
	case "field":
		obj, err := d.decodeExpr(jn.Object)
		if err != nil {
			return nil, err
		}
		return ast.NewFieldAccess(pos, obj, jn.FieldPath), nil
	case "addressof":
		operand, err := d.decodeExpr(jn.Operand)
		if err != nil {
			return nil, err
		}
		return ast.NewAddressOf(pos, operand), nil
	case "deref":
		operand, err := d.decodeExpr(jn.Operand)
		if err != nil {
			return nil, err
		}
		return ast.NewDereference(pos, operand), nil
	case "new":
		operand, err := d.decodeExpr(jn.Operand)
		if err != nil {
			return nil, err
		}
		return ast.NewNewExpr(pos, operand), nil
	case "call":
		args := make([]ast.Argument, len(jn.Args))
		for i, ja := range jn.Args {
			v, err := d.decodeExpr(ja.Value)
			if err != nil {
				return nil, err
			}
			args[i] = ast.Argument{Value: v, Mut: ja.Mut}
		}
		return ast.NewCall(pos, jn.Callee, args), nil
	case "decl":
		v, err := d.decodeExpr(jn.Value)
		if err != nil {
			return nil, err
		}
		var declared types.Type
		if jn.DeclaredType != "" {
			declared = d.parseType(jn.DeclaredType)
		}
		return ast.NewDeclaration(pos, jn.Name, jn.Mutable, declared, v), nil
	case "assign":
		v, err := d.decodeExpr(jn.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewAssignment(pos, jn.Target, v), nil
	case "return":
		v, err := d.decodeExpr(jn.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewReturn(pos, v), nil
	case "if":
		cond, err := d.decodeExpr(jn.Cond)
		if err != nil {
			return nil, err
		}
		thenNode, err := d.decodeNode(jn.Then)
		if err != nil {
			return nil, err
		}
		thenBlock, err := d.asBlock(thenNode, pos)
		if err != nil {
			return nil, err
		}
		var elseBlock *ast.Block
		if len(jn.Else) > 0 && string(jn.Else) != "null" {
			elseNode, err := d.decodeNode(jn.Else)
			if err != nil {
				return nil, err
			}
			elseBlock, err = d.asBlock(elseNode, pos)
			if err != nil {
				return nil, err
			}
		}
		return ast.NewIf(pos, cond, thenBlock, elseBlock), nil
	case "block":
		stmts := make([]ast.Node, len(jn.Stmts))
		for i, raw := range jn.Stmts {
			n, err := d.decodeNode(raw)
			if err != nil {
				return nil, err
			}
			stmts[i] = n
		}
		return ast.NewBlock(pos, stmts), nil
	case "exprstmt":
		v, err := d.decodeExpr(jn.Value)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStatement{Value: v}, nil
	default:
		return nil, fmt.Errorf("%s: unknown node kind %q", pos, jn.Kind)
	}
}

func (d *decoder) asBlock(n ast.Node, pos ast.Pos) (*ast.Block, error) {
	if n == nil {
		return ast.NewBlock(pos, nil), nil
	}
	if b, ok := n.(*ast.Block); ok {
		return b, nil
	}
	return ast.NewBlock(n.Position(), []ast.Node{n}), nil
}

// parseType parses the small type-annotation grammar: "" is NoType, a bare
// primitive name is a concrete primitive, "name[p1, p2, ...]" is a
// parametric NominalType, and any other bare name is resolved against this
// module's own type declarations (falling back to an unresolved nominal
// reference, exactly as a parser would hand the binder a name it cannot yet
// find and let semantic analysis report undefined-type).
func (d *decoder) parseType(s string) types.Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.NoType{}
	}
	if open := strings.IndexByte(s, '['); open >= 0 && strings.HasSuffix(s, "]") {
		name := s[:open]
		inner := s[open+1 : len(s)-1]
		parts := splitTopLevel(inner)
		params := make([]types.Type, len(parts))
		for i, p := range parts {
			params[i] = d.parseType(p)
		}
		return &types.NominalType{Name: name, Params: params}
	}
	if isPrimitiveName(s) {
		return types.Primitive(s)
	}
	if td, ok := d.typeDecls[s]; ok {
		return &types.NominalType{Name: s, Def: td}
	}
	return &types.NominalType{Name: s}
}

var primitiveSet = map[string]bool{
	types.Int8: true, types.Int16: true, types.Int32: true, types.Int64: true,
	types.Float32: true, types.Float64: true, types.Bool: true, types.String: true, types.Void: true,
}

func isPrimitiveName(s string) bool { return primitiveSet[s] }

// splitTopLevel splits s on commas that are not nested inside brackets, so
// "pointer[arrayN[int64]], int64" splits correctly.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	last := strings.TrimSpace(s[start:])
	if last != "" {
		parts = append(parts, last)
	}
	return parts
}
