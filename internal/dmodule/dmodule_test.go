package dmodule

import (
	"fmt"
	"testing"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/scope"
	"github.com/stretchr/testify/require"
)

// fakePrograms is a ProgramLoader backed by an in-memory map, standing in
// for the JSON-AST sidecar a real CLI would read (parsing itself is out of
// scope for this module).
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

func declFn(name string) *ast.FunctionDecl {
	return &ast.FunctionDecl{Name: name, ReturnType: nil}
}

// stubAnalyze stands in for the part of internal/analyzer that runs before
// dependency injection: declare the module's own top-level functions into
// both its working scope and its export scope, then let the loader merge
// in whatever use/include directives name.
func stubAnalyze(l *Loader) Analyzer {
	return func(mod *Module) error {
		mod.Scope = scope.New()
		mod.Exports = scope.New()
		for _, fn := range mod.Program.Functions {
			if err := mod.Scope.DeclareFunction(fn.Name, fn); err != nil {
				return err
			}
			if err := mod.Exports.DeclareFunction(fn.Name, fn); err != nil {
				return err
			}
		}
		return l.Inject(mod)
	}
}

func TestResolveJoinsRelativeToCurrentModuleDir(t *testing.T) {
	got := Resolve("app/main.dmd", "util")
	require.Equal(t, "app/util.dmd", got)

	got = Resolve("app/main.dmd", "../shared/helpers")
	require.Equal(t, "shared/helpers.dmd", got)
}

func TestLoadIsDeduplicated(t *testing.T) {
	progs := &fakePrograms{progs: map[string]*ast.Program{
		"a.dmd": {Functions: []*ast.FunctionDecl{declFn("f")}},
	}}
	l := NewLoader(progs, nil, "")
	l.SetAnalyzer(stubAnalyze(l))

	mod1, err := l.Load("a.dmd")
	require.NoError(t, err)
	mod2, err := l.Load("a.dmd")
	require.NoError(t, err)
	require.Same(t, mod1, mod2)
}

// TestCircularDependencyIsLegal: a circular use (a uses b, b uses a) is not
// an error (spec.md §9: "Re-entry during Parsing means a circular import —
// this is legal and handled by completing scope injection lazily"). b's
// re-entrant Load of a finds a's own in-progress *Module via the cache
// (in state Parsed, not yet Analyzed; a's Scope/Exports are populated
// before a recurses into Inject), so b still sees a's own top-level
// declarations.
func TestCircularDependencyIsLegal(t *testing.T) {
	progs := &fakePrograms{progs: map[string]*ast.Program{
		"a.dmd": {Uses: []*ast.UseDirective{{Path: "b"}}, Functions: []*ast.FunctionDecl{declFn("fromA")}},
		"b.dmd": {Uses: []*ast.UseDirective{{Path: "a"}}, Functions: []*ast.FunctionDecl{declFn("fromB")}},
	}}
	l := NewLoader(progs, nil, "")
	l.SetAnalyzer(stubAnalyze(l))

	modA, err := l.Load("a.dmd")
	require.NoError(t, err)
	require.Equal(t, Analyzed, modA.State)

	names := map[string]bool{}
	for _, fn := range modA.Scope.ExportedFunctions() {
		names[fn.Name] = true
	}
	require.True(t, names["fromA"])
	require.True(t, names["fromB"], "a's use of b should still see b's own export despite the cycle")

	modB, err := l.Load("b.dmd")
	require.NoError(t, err)
	bNames := map[string]bool{}
	for _, fn := range modB.Scope.ExportedFunctions() {
		bNames[fn.Name] = true
	}
	require.True(t, bNames["fromB"])
	require.True(t, bNames["fromA"], "b's re-entrant use of a should see at least a's own export")
}

// TestUseIsNonTransitive: b includes c, a uses b. a's own scope sees b's
// export and also c's, since b's include of c re-exports c's definitions to
// every importer of b; a's own Exports receive neither, since a merely
// uses b.
func TestUseIsNonTransitive(t *testing.T) {
	progs := &fakePrograms{progs: map[string]*ast.Program{
		"c.dmd": {Functions: []*ast.FunctionDecl{declFn("fromC")}},
		"b.dmd": {
			Includes:  []*ast.IncludeDirective{{Path: "c"}},
			Functions: []*ast.FunctionDecl{declFn("fromB")},
		},
		"a.dmd": {Uses: []*ast.UseDirective{{Path: "b"}}},
	}}
	l := NewLoader(progs, nil, "")
	l.SetAnalyzer(stubAnalyze(l))

	modA, err := l.Load("a.dmd")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, fn := range modA.Scope.ExportedFunctions() {
		names[fn.Name] = true
	}
	require.True(t, names["fromB"], "expected a's scope to contain b's own export")
	require.True(t, names["fromC"], "b's include of c is visible within a's use of b")

	// But a's own Exports (what a re-exports to ITS importers) gets
	// neither, since a only used b rather than included it.
	require.Empty(t, modA.Exports.ExportedFunctions())
}

// TestIncludeIsTransitive: b includes c. b's own Exports (what b's
// importers receive) should carry both fromB and fromC.
func TestIncludeIsTransitive(t *testing.T) {
	progs := &fakePrograms{progs: map[string]*ast.Program{
		"c.dmd": {Functions: []*ast.FunctionDecl{declFn("fromC")}},
		"b.dmd": {
			Includes:  []*ast.IncludeDirective{{Path: "c"}},
			Functions: []*ast.FunctionDecl{declFn("fromB")},
		},
	}}
	l := NewLoader(progs, nil, "")
	l.SetAnalyzer(stubAnalyze(l))

	modB, err := l.Load("b.dmd")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, fn := range modB.Exports.ExportedFunctions() {
		names[fn.Name] = true
	}
	require.True(t, names["fromB"])
	require.True(t, names["fromC"], "include must transitively re-export c's exports through b")
}

func TestPreloadStdlibMergesIntoRoot(t *testing.T) {
	progs := &fakePrograms{progs: map[string]*ast.Program{
		"stdlib/list.dmd": {Functions: []*ast.FunctionDecl{declFn("map")}},
	}}
	l := NewLoader(progs, nil, "stdlib")
	l.SetAnalyzer(stubAnalyze(l))

	root := scope.New()
	err := l.PreloadStdlib([]string{"list"}, root)
	require.NoError(t, err)

	_, fn, _, _, found := root.Lookup("map")
	require.True(t, found)
	require.NotNil(t, fn)
}
