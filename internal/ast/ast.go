// Package ast defines the parsed-tree node shapes the semantic core
// consumes (spec.md §6.1) and the small accessor facade (§4.2) the
// analyzer uses on them. Tokenization and parse-tree construction
// themselves are out of scope (spec.md §1) — this package only models
// the shape of an already-built tree.
package ast

import (
	"fmt"

	"github.com/diamond-lang/diamondc/internal/types"
)

// Pos is the source location carried by every node.
type Pos struct {
	Line   int
	Col    int
	Module string
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Module, p.Line, p.Col)
}

// Node is satisfied by every AST node.
type Node interface {
	Position() Pos
}

// Expr is satisfied by every expression node; it additionally carries the
// type annotation slot the analyzer fills in.
type Expr interface {
	Node
	GetType() types.Type
	SetType(types.Type)
}

// Stmt is satisfied by every top-level-of-a-block statement node.
type Stmt interface {
	Node
}

// base is embedded by every expression node; it stores position and the
// type slot (NoType until the analyzer fills it in).
type base struct {
	Pos Pos
	Typ types.Type
}

func (b *base) Position() Pos        { return b.Pos }
func (b *base) GetType() types.Type  { return b.Typ }
func (b *base) SetType(t types.Type) { b.Typ = t }

// newBase constructs a base with the NoType default.
func newBase(pos Pos) base { return base{Pos: pos, Typ: types.NoType{}} }

// Identifier is a name reference.
type Identifier struct {
	base
	Name string
}

func NewIdentifier(pos Pos, name string) *Identifier {
	return &Identifier{base: newBase(pos), Name: name}
}

// LiteralKind distinguishes literal node payloads.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	BoolLit
	StringLit
)

// Literal is an integer/float/bool/string literal.
type Literal struct {
	base
	Kind     LiteralKind
	IntVal   int64
	FloatVal float64
	BoolVal  bool
	StrVal   string
	// Annotated is true when the literal carries an explicit type
	// annotation at the source level (spec.md §4.5 literal rules).
	Annotated     bool
	AnnotatedType types.Type
}

func NewIntLiteral(pos Pos, v int64) *Literal {
	return &Literal{base: newBase(pos), Kind: IntLit, IntVal: v}
}

func NewFloatLiteral(pos Pos, v float64) *Literal {
	return &Literal{base: newBase(pos), Kind: FloatLit, FloatVal: v}
}

func NewBoolLiteral(pos Pos, v bool) *Literal {
	return &Literal{base: newBase(pos), Kind: BoolLit, BoolVal: v}
}

func NewStringLiteral(pos Pos, v string) *Literal {
	return &Literal{base: newBase(pos), Kind: StringLit, StrVal: v}
}

// ArrayLiteral is an array literal; every element's type is unified into
// one equivalence class (spec.md §4.5).
type ArrayLiteral struct {
	base
	Elements []Expr
}

func NewArrayLiteral(pos Pos, elems []Expr) *ArrayLiteral {
	return &ArrayLiteral{base: newBase(pos), Elements: elems}
}

// StructFieldInit is one `field: expr` entry of a struct literal.
type StructFieldInit struct {
	Name  string
	Value Expr
}

// StructLiteral constructs a nominal struct value.
type StructLiteral struct {
	base
	TypeName string
	Fields   []StructFieldInit
}

func NewStructLiteral(pos Pos, typeName string, fields []StructFieldInit) *StructLiteral {
	return &StructLiteral{base: newBase(pos), TypeName: typeName, Fields: fields}
}

// FieldAccess is a dotted chain `a.f1.f2...fn`.
type FieldAccess struct {
	base
	Object Expr
	Fields []string
}

func NewFieldAccess(pos Pos, object Expr, fields []string) *FieldAccess {
	return &FieldAccess{base: newBase(pos), Object: object, Fields: fields}
}

// AddressOf is `&operand`.
type AddressOf struct {
	base
	Operand Expr
}

func NewAddressOf(pos Pos, operand Expr) *AddressOf {
	return &AddressOf{base: newBase(pos), Operand: operand}
}

// Dereference is `*operand`.
type Dereference struct {
	base
	Operand Expr
}

func NewDereference(pos Pos, operand Expr) *Dereference {
	return &Dereference{base: newBase(pos), Operand: operand}
}

// NewExpr is `new operand`, producing boxed[T].
type NewExpr struct {
	base
	Operand Expr
}

func NewNewExpr(pos Pos, operand Expr) *NewExpr {
	return &NewExpr{base: newBase(pos), Operand: operand}
}

// Argument is one actual argument of a call, with the `mut` marker the
// overload resolver must preserve (spec.md §4.7).
type Argument struct {
	Value Expr
	Mut   bool
}

// Call is a function call. ResolvedCallee/ArgTypes are filled in by the
// specialization resolver (spec.md §6.2); they are the annotated-tree
// output every call node carries after analysis. ArgVars is populated by
// Pass 1 (internal/collect): for each argument position it holds the
// TypeVariable id assigned at collection time, or -1 if the argument's
// collected type was anything other than a bare TypeVariable — Pass 3 uses it to recover each argument's
// pre-defaulting interface domain (spec.md §4.7, scenario S4) from the
// unifier's Result even after Finalize has overwritten the node's own type
// slot with the defaulted concrete type. ReturnVar is the fresh
// TypeVariable id minted for the call's own result at collection time
// (always set, since every call site gets one per spec.md §4.5's Call
// rule) — Pass 3 uses it the same way to recover the call's pre-defaulting
// interface domain when filtering overload candidates by return type
// (spec.md §4.7 step 3).
type Call struct {
	base
	Callee         string
	Args           []Argument
	ResolvedCallee *FunctionDecl
	ArgTypes       []types.Type
	ArgVars        []int
	ReturnVar      int
}

func NewCall(pos Pos, callee string, args []Argument) *Call {
	return &Call{base: newBase(pos), Callee: callee, Args: args}
}

// Declaration is `name = expr` or `name be expr`.
type Declaration struct {
	base
	Name     string
	Mutable  bool
	Declared types.Type // NoType if no source annotation
	Value    Expr
}

func NewDeclaration(pos Pos, name string, mutable bool, declared types.Type, value Expr) *Declaration {
	if declared == nil {
		declared = types.NoType{}
	}
	return &Declaration{base: newBase(pos), Name: name, Mutable: mutable, Declared: declared, Value: value}
}

// Assignment is `target := value`.
type Assignment struct {
	base
	Target string
	Value  Expr
}

func NewAssignment(pos Pos, target string, value Expr) *Assignment {
	return &Assignment{base: newBase(pos), Target: target, Value: value}
}

// Return is `return value` (or a bare `return`; Value is nil then, type void).
type Return struct {
	base
	Value Expr
}

func NewReturn(pos Pos, value Expr) *Return {
	return &Return{base: newBase(pos), Value: value}
}

// If is `if cond { then } else { else }`. Else may be nil.
type If struct {
	base
	Cond Expr
	Then *Block
	Else *Block
}

func NewIf(pos Pos, cond Expr, then, els *Block) *If {
	return &If{base: newBase(pos), Cond: cond, Then: then, Else: els}
}

// Block is a brace-delimited sequence of statements/expressions; it is
// itself an Expr so it can appear wherever an expression can (spec.md
// §4.2's IsExpression governs when it actually counts as one).
type Block struct {
	base
	Stmts []Node
}

func NewBlock(pos Pos, stmts []Node) *Block {
	return &Block{base: newBase(pos), Stmts: stmts}
}

// ExprStatement wraps an expression used as a statement (spec.md §4.5's
// "unhandled-return-value" check applies to exactly this node).
type ExprStatement struct {
	Value Expr
}

func (e *ExprStatement) Position() Pos { return e.Value.Position() }
