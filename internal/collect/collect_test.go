package collect

import (
	"testing"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/scope"
	"github.com/diamond-lang/diamondc/internal/types"
	"github.com/diamond-lang/diamondc/internal/unify"
)

func newIntrinsicAdd(sc *scope.Stack) {
	mk := func(name string, t string) *ast.FunctionDecl {
		return &ast.FunctionDecl{
			Name:       name,
			Params:     []ast.Param{{Name: "a", Declared: types.Primitive(t)}, {Name: "b", Declared: types.Primitive(t)}},
			ReturnType: types.Primitive(t),
			IsExtern:   true,
		}
	}
	for _, t := range []string{types.Int64, types.Float64} {
		_ = sc.DeclareFunction("+", mk("+", t))
		_ = sc.DeclareFunction("*", mk("*", t))
	}
}

// TestArithmeticDefaulting covers scenario S1: `x be 1 + 2 * 3` defaults to
// int64 with no errors.
func TestArithmeticDefaulting(t *testing.T) {
	sc := scope.New()
	newIntrinsicAdd(sc)
	ch := diag.NewChannel()
	c := New(sc, ch)

	pos := ast.Pos{}
	mul := ast.NewCall(pos, "*", []ast.Argument{
		{Value: ast.NewIntLiteral(pos, 2)},
		{Value: ast.NewIntLiteral(pos, 3)},
	})
	add := ast.NewCall(pos, "+", []ast.Argument{
		{Value: ast.NewIntLiteral(pos, 1)},
		{Value: mul},
	})
	decl := ast.NewDeclaration(pos, "x", false, nil, add)
	c.collectStmt(decl)

	if ch.HasErrors() {
		t.Fatalf("unexpected errors: %v", ch.All())
	}
	res, err := unify.Unify(c.Store, ch, pos)
	if err != nil {
		t.Fatal(err)
	}
	unify.Finalize(add, res)
	if !add.GetType().Equals(types.Primitive(types.Int64)) {
		t.Fatalf("expected int64, got %s", add.GetType())
	}
}

// TestImmutableReassignment covers scenario S3.
func TestImmutableReassignment(t *testing.T) {
	sc := scope.New()
	ch := diag.NewChannel()
	c := New(sc, ch)
	pos := ast.Pos{}

	decl := ast.NewDeclaration(pos, "x", false, nil, ast.NewIntLiteral(pos, 5))
	c.collectStmt(decl)
	assign := ast.NewAssignment(ast.Pos{Line: 2}, "x", ast.NewIntLiteral(pos, 6))
	c.collectStmt(assign)

	found := false
	for _, d := range ch.All() {
		if d.Kind == diag.ReassigningImmutable && d.Pos.Line == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reassigning-immutable at line 2, got %v", ch.All())
	}
}

// TestFieldAccessThroughInference covers the collection side of scenario
// S5: a field access on an undeclared parameter records a structural field
// constraint whose field type is a fresh variable.
func TestFieldAccessThroughInference(t *testing.T) {
	sc := scope.New()
	ch := diag.NewChannel()

	pointDecl := &ast.TypeDecl{Name: "Point", Fields: []ast.FieldDef{
		{Name: "x", Declared: types.Primitive(types.Int64)},
		{Name: "y", Declared: types.Primitive(types.Int64)},
	}}
	if err := sc.DeclareType(pointDecl); err != nil {
		t.Fatal(err)
	}

	c := New(sc, ch)
	pos := ast.Pos{}
	pVar := c.Fresh()
	sc.Push()
	sc.DeclareVariable(&scope.VarBinding{Name: "p", Type: pVar})
	fa := ast.NewFieldAccess(pos, ast.NewIdentifier(pos, "p"), []string{"x"})
	resultType := c.collectExpr(fa)
	sc.Pop()

	if ch.HasErrors() {
		t.Fatalf("unexpected errors: %v", ch.All())
	}
	fields := c.Store.FieldsOf(pVar.ID)
	if len(fields) != 1 || fields[0].Field != "x" {
		t.Fatalf("expected one structural field constraint on x, got %+v", fields)
	}
	if _, ok := resultType.(*types.TypeVariable); !ok {
		t.Fatalf("expected field access to yield a fresh variable pre-specialization, got %T", resultType)
	}
}

func TestArrayLiteralUnifiesElements(t *testing.T) {
	sc := scope.New()
	ch := diag.NewChannel()
	c := New(sc, ch)
	pos := ast.Pos{}
	arr := ast.NewArrayLiteral(pos, []ast.Expr{
		ast.NewIntLiteral(pos, 1),
		ast.NewIntLiteral(pos, 2),
	})
	t2 := c.collectExpr(arr)
	n, ok := t2.(*types.NominalType)
	if !ok || n.Name != "array2" {
		t.Fatalf("expected array2[...], got %s", t2)
	}
}
