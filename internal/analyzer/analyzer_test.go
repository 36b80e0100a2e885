package analyzer

import (
	"fmt"
	"testing"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/config"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/dmodule"
	"github.com/diamond-lang/diamondc/internal/types"
	"github.com/stretchr/testify/require"
)

// fakePrograms is a dmodule.ProgramLoader backed by an in-memory map,
// standing in for the JSON-AST sidecar a real CLI would read (parsing
// itself is out of scope for this module, spec.md §1), matching the
// fixture shape internal/dmodule/dmodule_test.go's fakePrograms already uses.
type fakePrograms struct {
	progs map[string]*ast.Program
}

func (f *fakePrograms) LoadProgram(path string) (*ast.Program, error) {
	p, ok := f.progs[path]
	if !ok {
		return nil, fmt.Errorf("no such module: %s", path)
	}
	return p, nil
}

func newAnalyzer(progs map[string]*ast.Program) *Analyzer {
	cfg := &config.Config{}
	return New(cfg, &fakePrograms{progs: progs})
}

// TestArithmeticDefaulting covers scenario S1 end to end through the
// Analyzer: `x be 1 + 2 * 3` with no annotation defaults to int64.
func TestArithmeticDefaulting(t *testing.T) {
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

	prog := &ast.Program{Module: "main", Statements: []ast.Node{decl}}
	a := newAnalyzer(map[string]*ast.Program{"main.dmd": prog})

	res, err := a.Check("main.dmd")
	require.NoError(t, err)
	require.False(t, a.Ch.HasErrors(), "unexpected diagnostics: %v", a.Diagnostics())
	require.True(t, add.GetType().Equals(types.Primitive(types.Int64)))
	require.Same(t, prog, res.Program)
}

// TestImmutableReassignment covers scenario S3 end to end: reassigning an
// immutably-declared top-level binding is flagged but does not abort
// analysis of the rest of the program.
func TestImmutableReassignment(t *testing.T) {
	pos := ast.Pos{}
	decl := ast.NewDeclaration(pos, "x", false, nil, ast.NewIntLiteral(pos, 5))
	assign := ast.NewAssignment(ast.Pos{Line: 2}, "x", ast.NewIntLiteral(pos, 6))

	prog := &ast.Program{Module: "main", Statements: []ast.Node{decl, assign}}
	a := newAnalyzer(map[string]*ast.Program{"main.dmd": prog})

	_, err := a.Check("main.dmd")
	require.NoError(t, err)

	found := false
	for _, d := range a.Diagnostics() {
		if d.Kind == diag.ReassigningImmutable && d.Pos.Line == 2 {
			found = true
		}
	}
	require.True(t, found, "expected reassigning-immutable at line 2, got %v", a.Diagnostics())
}

// TestUnhandledReturnValue covers scenario S6: calling a non-void function
// as a bare statement, discarding its result, is flagged.
func TestUnhandledReturnValue(t *testing.T) {
	pos := ast.Pos{}
	inc := &ast.FunctionDecl{
		Pos:        pos,
		Name:       "inc",
		Params:     []ast.Param{{Name: "x", Declared: types.Primitive(types.Int64)}},
		ReturnType: types.Primitive(types.Int64),
		Body:       ast.NewIdentifier(pos, "x"),
	}
	call := ast.NewCall(pos, "inc", []ast.Argument{{Value: ast.NewIntLiteral(pos, 1)}})
	stmt := &ast.ExprStatement{Value: call}

	prog := &ast.Program{
		Module:     "main",
		Statements: []ast.Node{stmt},
		Functions:  []*ast.FunctionDecl{inc},
	}
	a := newAnalyzer(map[string]*ast.Program{"main.dmd": prog})

	_, err := a.Check("main.dmd")
	require.NoError(t, err)

	found := false
	for _, d := range a.Diagnostics() {
		if d.Kind == diag.UnhandledReturnValue {
			found = true
		}
	}
	require.True(t, found, "expected unhandled-return-value, got %v", a.Diagnostics())
}

// TestGenericIdentitySpecializesTwice covers scenario S2 end to end: a
// function with an entirely undeclared parameter and return type, never
// given explicit generic syntax, is discovered as generic by signature
// generalization and specializes once per distinct argument type it is
// called with.
func TestGenericIdentitySpecializesTwice(t *testing.T) {
	pos := ast.Pos{}
	identity := &ast.FunctionDecl{
		Pos:  pos,
		Name: "identity",
		Params: []ast.Param{
			{Name: "x", Declared: types.NoType{}},
		},
		ReturnType: types.NoType{},
		Body:       ast.NewIdentifier(pos, "x"),
	}

	callInt := ast.NewCall(pos, "identity", []ast.Argument{{Value: ast.NewIntLiteral(pos, 1)}})
	declInt := ast.NewDeclaration(pos, "a", false, nil, callInt)
	callBool := ast.NewCall(pos, "identity", []ast.Argument{{Value: ast.NewBoolLiteral(pos, true)}})
	declBool := ast.NewDeclaration(pos, "b", false, nil, callBool)

	prog := &ast.Program{
		Module:     "main",
		Statements: []ast.Node{declInt, declBool},
		Functions:  []*ast.FunctionDecl{identity},
	}
	a := newAnalyzer(map[string]*ast.Program{"main.dmd": prog})

	_, err := a.Check("main.dmd")
	require.NoError(t, err)
	require.False(t, a.Ch.HasErrors(), "unexpected diagnostics: %v", a.Diagnostics())

	require.True(t, identity.IsGeneric(), "expected identity to be discovered as generic")
	require.Len(t, identity.Specializations, 2)

	spec := identity.FindSpecialization([]types.Type{types.Primitive(types.Int64)})
	require.NotNil(t, spec)
	require.True(t, spec.Return.Equals(types.Primitive(types.Int64)))

	spec = identity.FindSpecialization([]types.Type{types.Primitive(types.Bool)})
	require.NotNil(t, spec)
	require.True(t, spec.Return.Equals(types.Primitive(types.Bool)))
}

// TestFieldAccessThroughInference covers scenario S5: a function whose sole
// parameter is never declared and is used only through a structural field
// access (`p.x`) becomes generic over that field's owner type, and its
// return type resolves per call site through the field's actual type —
// exercising the field-constraint binding added to
// internal/specialize's checkTypeParamConstraints.
func TestFieldAccessThroughInference(t *testing.T) {
	pos := ast.Pos{}
	pointDecl := &ast.TypeDecl{Name: "Point", Fields: []ast.FieldDef{
		{Name: "x", Declared: types.Primitive(types.Int64)},
		{Name: "y", Declared: types.Primitive(types.Int64)},
	}}

	first := &ast.FunctionDecl{
		Pos:        pos,
		Name:       "first",
		Params:     []ast.Param{{Name: "p", Declared: types.NoType{}}},
		ReturnType: types.NoType{},
		Body:       ast.NewFieldAccess(pos, ast.NewIdentifier(pos, "p"), []string{"x"}),
	}

	arg := ast.NewStructLiteral(pos, "Point", []ast.StructFieldInit{
		{Name: "x", Value: ast.NewIntLiteral(pos, 1)},
		{Name: "y", Value: ast.NewIntLiteral(pos, 2)},
	})
	call := ast.NewCall(pos, "first", []ast.Argument{{Value: arg}})
	decl := ast.NewDeclaration(pos, "r", false, nil, call)

	prog := &ast.Program{
		Module:     "main",
		Statements: []ast.Node{decl},
		Functions:  []*ast.FunctionDecl{first},
		Types:      []*ast.TypeDecl{pointDecl},
	}
	a := newAnalyzer(map[string]*ast.Program{"main.dmd": prog})

	_, err := a.Check("main.dmd")
	require.NoError(t, err)
	require.False(t, a.Ch.HasErrors(), "unexpected diagnostics: %v", a.Diagnostics())

	require.True(t, first.IsGeneric(), "expected first to be discovered as generic over its field access")
	require.Len(t, first.Specializations, 1)
	require.True(t, first.Specializations[0].Return.Equals(types.Primitive(types.Int64)),
		"expected first(Point) to specialize with return int64, got %s", first.Specializations[0].Return)
}

// TestWarnUnusedReportsDeadFunction covers SPEC_FULL.md §4 item 3: an
// unreferenced, non-extern function is reported once WarnUnused is enabled.
func TestWarnUnusedReportsDeadFunction(t *testing.T) {
	pos := ast.Pos{}
	dead := &ast.FunctionDecl{
		Pos:        pos,
		Name:       "dead",
		Params:     []ast.Param{{Name: "x", Declared: types.Primitive(types.Int64)}},
		ReturnType: types.Primitive(types.Int64),
		Body:       ast.NewIdentifier(pos, "x"),
	}
	prog := &ast.Program{
		Module:    "main",
		Functions: []*ast.FunctionDecl{dead},
	}
	a := newAnalyzer(map[string]*ast.Program{"main.dmd": prog})
	a.WarnUnused = true

	_, err := a.Check("main.dmd")
	require.NoError(t, err)

	found := false
	for _, d := range a.Diagnostics() {
		if d.Kind == diag.ConstraintFailed {
			found = true
		}
	}
	require.True(t, found, "expected an unused-function report for dead, got %v", a.Diagnostics())
}

var _ dmodule.ProgramLoader = (*fakePrograms)(nil)
