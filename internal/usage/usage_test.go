package usage

import (
	"testing"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/types"
)

func callTo(fn *ast.FunctionDecl, argTypes ...types.Type) *ast.Call {
	c := ast.NewCall(ast.Pos{}, fn.Name, nil)
	c.ResolvedCallee = fn
	c.ArgTypes = argTypes
	return c
}

func TestNonGenericMarkedUsedOnce(t *testing.T) {
	callee := &ast.FunctionDecl{Name: "helper"}
	callExpr := callTo(callee)
	body := ast.NewBlock(ast.Pos{}, []ast.Node{&ast.ExprStatement{Value: callExpr}})
	prog := &ast.Program{Statements: []ast.Node{body}}

	m := New()
	m.MarkProgram(prog)

	if !callee.IsUsed {
		t.Fatal("expected helper to be marked used")
	}
}

func TestExternMarkedUsedWithoutSpecialization(t *testing.T) {
	callee := &ast.FunctionDecl{Name: "puts", IsExtern: true}
	callExpr := callTo(callee, types.Primitive(types.Int64))
	prog := &ast.Program{Statements: []ast.Node{&ast.ExprStatement{Value: callExpr}}}

	m := New()
	m.MarkProgram(prog)

	if !callee.IsUsed {
		t.Fatal("expected extern function to be marked used")
	}
}

func TestGenericOnlyMarksCalledSpecialization(t *testing.T) {
	idFn := &ast.FunctionDecl{
		Name:       "id",
		TypeParams: []ast.TypeParam{{Name: "a"}},
	}
	specInt := &ast.Specialization{Args: []types.Type{types.Primitive(types.Int64)}, Return: types.Primitive(types.Int64)}
	specBool := &ast.Specialization{Args: []types.Type{types.Primitive(types.Bool)}, Return: types.Primitive(types.Bool)}
	idFn.AddSpecialization(specInt)
	idFn.AddSpecialization(specBool)

	callExpr := callTo(idFn, types.Primitive(types.Int64))
	prog := &ast.Program{Statements: []ast.Node{&ast.ExprStatement{Value: callExpr}}}

	m := New()
	m.MarkProgram(prog)

	if !specInt.Used {
		t.Fatal("expected int64 specialization to be marked used")
	}
	if specBool.Used {
		t.Fatal("expected bool specialization to remain unused")
	}
	if !idFn.IsUsed {
		t.Fatal("expected id to be marked used overall")
	}
}

func TestTransitiveReachabilityThroughCallBody(t *testing.T) {
	inner := &ast.FunctionDecl{Name: "inner"}
	innerCall := callTo(inner)
	outer := &ast.FunctionDecl{
		Name: "outer",
		Body: ast.NewBlock(ast.Pos{}, []ast.Node{&ast.ExprStatement{Value: innerCall}}),
	}
	outerCall := callTo(outer)
	prog := &ast.Program{Statements: []ast.Node{&ast.ExprStatement{Value: outerCall}}}

	m := New()
	m.MarkProgram(prog)

	if !outer.IsUsed || !inner.IsUsed {
		t.Fatal("expected both outer and inner to be transitively marked used")
	}
}

func TestRecursiveBodyVisitedOnce(t *testing.T) {
	// A function that calls itself shouldn't cause infinite recursion
	// through walk/markCallee.
	recFn := &ast.FunctionDecl{Name: "rec"}
	selfCall := callTo(recFn)
	recFn.Body = ast.NewBlock(ast.Pos{}, []ast.Node{&ast.ExprStatement{Value: selfCall}})

	topCall := callTo(recFn)
	prog := &ast.Program{Statements: []ast.Node{&ast.ExprStatement{Value: topCall}}}

	m := New()
	m.MarkProgram(prog)

	if !recFn.IsUsed {
		t.Fatal("expected rec to be marked used")
	}
}

func TestWarnUnusedReportsDeadFunction(t *testing.T) {
	used := &ast.FunctionDecl{Name: "used", IsUsed: true}
	dead := &ast.FunctionDecl{Name: "dead"}
	ext := &ast.FunctionDecl{Name: "ext", IsExtern: true}
	entry := &ast.FunctionDecl{Name: "main"}

	ch := diag.NewChannel()
	WarnUnused([]*ast.FunctionDecl{used, dead, ext, entry}, map[string]bool{"main": true}, ch)

	if len(ch.All()) != 1 {
		t.Fatalf("expected exactly one unused-function diagnostic, got %v", ch.All())
	}
	if ch.All()[0].Kind != diag.ConstraintFailed {
		t.Fatalf("expected ConstraintFailed kind, got %v", ch.All()[0].Kind)
	}
}
