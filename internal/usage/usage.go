// Package usage implements Pass 4, the Usage Marker (spec.md §4.8): a
// transitive reachability closure from the program entry that flags which
// function specializations are "live" so the backend only emits those.
// Grounded on the teacher's internal/elaborate/scc.go (reachability/SCC-style
// closure over the call graph) and original_source's
// semantic/check_functions_used.cpp, the direct ancestor; SPEC_FULL.md §4
// supplements that file's "report unused" behavior as an optional
// WarnUnused diagnostic alongside the reachability closure.
package usage

import (
	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/types"
)

// Marker runs the reachability closure and records which non-generic
// functions, and which generic specializations, are live.
type Marker struct {
	visitedFn   map[*ast.FunctionDecl]bool
	visitedSpec map[specKey]bool
}

type specKey struct {
	fn   *ast.FunctionDecl
	args string
}

// New returns an empty Marker.
func New() *Marker {
	return &Marker{visitedFn: map[*ast.FunctionDecl]bool{}, visitedSpec: map[specKey]bool{}}
}

// MarkProgram closes over reachability starting from prog's top-level
// statements (the implicit top-level block, spec.md §4.8).
func (m *Marker) MarkProgram(prog *ast.Program) {
	for _, s := range prog.Statements {
		m.walk(s)
	}
}

// walk visits every node reachable from n, marking each call's resolved
// callee (and, transitively, that callee's body) as used.
func (m *Marker) walk(n ast.Node) {
	switch v := n.(type) {
	case *ast.Call:
		m.markCallee(v)
		for _, a := range v.Args {
			m.walk(a.Value)
		}
	case *ast.Declaration:
		m.walk(v.Value)
	case *ast.Assignment:
		m.walk(v.Value)
	case *ast.Return:
		if v.Value != nil {
			m.walk(v.Value)
		}
	case *ast.ExprStatement:
		m.walk(v.Value)
	case *ast.Block:
		for _, s := range v.Stmts {
			m.walk(s)
		}
	case *ast.If:
		m.walk(v.Cond)
		m.walk(v.Then)
		if v.Else != nil {
			m.walk(v.Else)
		}
	case *ast.ArrayLiteral:
		for _, e := range v.Elements {
			m.walk(e)
		}
	case *ast.StructLiteral:
		for _, f := range v.Fields {
			m.walk(f.Value)
		}
	case *ast.FieldAccess:
		m.walk(v.Object)
	case *ast.AddressOf:
		m.walk(v.Operand)
	case *ast.Dereference:
		m.walk(v.Operand)
	case *ast.NewExpr:
		m.walk(v.Operand)
	}
}

// markCallee marks call's resolved callee used (spec.md §4.8): a
// non-generic function is used as soon as any live call targets it, a
// generic function's specific specialization is used only when a live call
// targets that exact argument tuple, and an extern function needs no
// specialization bookkeeping at all. The callee's body is visited exactly
// once per distinct (function, specialization) pair to keep the closure
// terminating on recursive call graphs.
func (m *Marker) markCallee(call *ast.Call) {
	fn := call.ResolvedCallee
	if fn == nil {
		return
	}
	if fn.IsExtern {
		fn.IsUsed = true
		return
	}
	if !fn.IsGeneric() {
		already := m.visitedFn[fn]
		fn.IsUsed = true
		if already {
			return
		}
		m.visitedFn[fn] = true
		if fn.Body != nil {
			m.walk(fn.Body)
		}
		return
	}

	spec := fn.FindSpecialization(call.ArgTypes)
	if spec == nil {
		return // not yet resolved to a concrete specialization; nothing to mark
	}
	key := specKey{fn: fn, args: types.HashTuple(call.ArgTypes)}
	already := m.visitedSpec[key]
	spec.Used = true
	fn.IsUsed = true
	if already {
		return
	}
	m.visitedSpec[key] = true
	if fn.Body != nil {
		m.walk(fn.Body)
	}
}

// WarnUnused reports an informational diagnostic for every non-extern
// function that ended up with no live specializations (SPEC_FULL.md §4
// item 3: the original's check_functions_used.cpp reports, rather than
// silently drops, unused declarations). entryFunctions is excluded from the
// report even if nothing calls it directly (e.g. the designated program
// entry point, if the source convention names one).
func WarnUnused(fns []*ast.FunctionDecl, entryFunctions map[string]bool, ch *diag.Channel) {
	for _, fn := range fns {
		if fn.IsExtern || entryFunctions[fn.Name] {
			continue
		}
		if !fn.IsUsed {
			ch.Addf(diag.ConstraintFailed, fn.Position(), "function %q is never used", fn.Name)
		}
	}
}
