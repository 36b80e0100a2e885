// Package unify implements Pass 2 (spec.md §4.6): labeling each equivalence
// class produced by the constraint store with a representative type,
// propagating interface-constraint domains lattice-style, and finalizing by
// substituting every TypeVariable in the annotated tree with its class's
// label. Grounded on the teacher's internal/types/unification.go
// (Unifier.Unify, substitution application) and
// original_source/src/semantic/unify.cpp.
package unify

import (
	"fmt"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/constraints"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/types"
)

// Label is the resolved representative of one equivalence class: either a
// concrete Type or a fresh FinalTypeVariable, plus the merged interface
// domain composed from the class's interface constraints (non-empty whenever
// the class carries one, whether its label is a concrete member, a default
// per spec.md §4.6 step 4, or a FinalTypeVariable).
type Label struct {
	Type   types.Type
	Domain string // "" if no interface constraint applies
}

// Result is the outcome of labeling every class in a Store.
type Result struct {
	// ByVar maps every registered TypeVariable id to its class's Label.
	ByVar map[int]*Label
}

// Resolve looks up the final type for a TypeVariable id after labeling.
func (r *Result) Resolve(id int) types.Type {
	if l, ok := r.ByVar[id]; ok {
		return l.Type
	}
	return types.NoType{}
}

// Unify runs Pass 2 over one function body's (or the top-level block's)
// constraint store: label, propagate, finalize+default (spec.md §4.6 steps
// 2–4; step 1's merge-to-fixed-point is the union-find itself, already
// applied as constraints were collected). Errors are recorded into ch and
// also returned as an *diag.AbortError, since a unification failure aborts
// the enclosing function's analysis (spec.md §7).
func Unify(store *constraints.Store, ch *diag.Channel, pos ast.Pos) (*Result, error) {
	res := &Result{ByVar: make(map[int]*Label)}

	for _, rep := range store.Representatives() {
		label, domain, err := labelClass(store, rep)
		if err != nil {
			return nil, diag.Abort(ch, diag.IncompatibleTypes, pos, err.Error())
		}
		for _, member := range store.Class(rep) {
			res.ByVar[member] = &Label{Type: label, Domain: domain}
		}
	}
	return res, nil
}

// labelClass implements spec.md §4.6 steps 2–4 for one equivalence class:
// pick the sole concrete member as representative (error on more than one
// distinct concrete member), else mint a FinalTypeVariable; compose the
// class's interface domain lattice-style; and if the class ends up
// unresolved with exactly one interface constraint, default it per spec.md
// §8 invariant 6.
func labelClass(store *constraints.Store, rep int) (types.Type, string, error) {
	concreteMembers := distinct(store.ConcreteMembers(rep))
	domain, domainErr := composeDomain(store.InterfacesOf(rep))
	if domainErr != nil {
		return nil, "", domainErr
	}

	switch len(concreteMembers) {
	case 0:
		// No concrete member: default if exactly one interface constraint
		// applies and nothing else (field/parameter constraints) forces it
		// to stay open; otherwise mint a final type variable to be solved
		// (or remain polymorphic) at specialization time.
		if domain != "" && len(store.FieldsOf(rep)) == 0 && len(store.ParametersOf(rep)) == 0 {
			if def, ok := types.DefaultFor(domain); ok {
				return def, domain, nil
			}
		}
		return &types.FinalTypeVariable{ID: store.FreshFinalID()}, domain, nil
	case 1:
		t := concreteMembers[0]
		// Satisfies only ever returns true for the built-in Number/Float
		// interfaces (spec.md §4.1); user interfaces aren't decidable from
		// the type alone, so only check the built-ins here.
		if (domain == types.Number || domain == types.Float) && !types.Satisfies(t, domain) {
			return nil, "", fmt.Errorf("constraint-failed: %s does not satisfy %s", t, domain)
		}
		return t, domain, nil
	default:
		return nil, "", fmt.Errorf("conflicting concrete types in one equivalence class: %s", joinTypes(concreteMembers))
	}
}

func distinct(ts []types.Type) []types.Type {
	var out []types.Type
	for _, t := range ts {
		dup := false
		for _, o := range out {
			if o.Equals(t) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

func joinTypes(ts []types.Type) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s
}

// composeDomain folds a class's interface-constraint set through the
// lattice (spec.md §4.6 step 3: Number ⊓ Float = Float; any two others that
// disagree is a conflict). Built-in interfaces compose via
// types.MeetInterfaces; any single user interface name (there is at most
// one meaningfully decidable set here since user interfaces aren't
// lattice-composable) passes through unchanged.
func composeDomain(ifaces map[string]bool) (string, error) {
	if len(ifaces) == 0 {
		return "", nil
	}
	names := make([]string, 0, len(ifaces))
	for n := range ifaces {
		names = append(names, n)
	}
	result := names[0]
	for _, n := range names[1:] {
		merged, ok := types.MeetInterfaces(result, n)
		if !ok {
			return "", fmt.Errorf("conflicting interface constraints: %s vs %s", result, n)
		}
		result = merged
	}
	return result, nil
}

// Finalize walks expr's tree replacing every TypeVariable annotation with
// its resolved Label from res, recursing into nominal type parameters and
// struct fields the same way types.Substitute does for FinalTypeVariable
// (spec.md §4.6 step 4: "each original TypeVariable is replaced everywhere
// in the AST with its class representative").
func Finalize(n ast.Node, res *Result) {
	walk(n, func(e ast.Expr) {
		e.SetType(resolveVars(e.GetType(), res))
	})
}

func resolveVars(t types.Type, res *Result) types.Type {
	switch v := t.(type) {
	case *types.TypeVariable:
		return res.Resolve(v.ID)
	case *types.NominalType:
		if len(v.Params) == 0 {
			return v
		}
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = resolveVars(p, res)
		}
		return &types.NominalType{Name: v.Name, Params: params, Def: v.Def}
	case *types.StructType:
		fields := make(map[string]types.Type, len(v.Fields))
		for name, ft := range v.Fields {
			fields[name] = resolveVars(ft, res)
		}
		return &types.StructType{Fields: fields, FieldOrder: v.FieldOrder, Open: v.Open}
	default:
		return t
	}
}

// walk visits every expression node reachable from n, applying fn to each.
// It is a small tree-walk over the concrete node set defined in
// internal/ast, mirroring the collector's own traversal shape.
func walk(n ast.Node, fn func(ast.Expr)) {
	switch v := n.(type) {
	case *ast.Declaration:
		walk(v.Value, fn)
	case *ast.Assignment:
		walk(v.Value, fn)
	case *ast.Return:
		if v.Value != nil {
			walk(v.Value, fn)
		}
	case ast.Expr:
		fn(v)
		walkExprChildren(v, fn)
	case *ast.ExprStatement:
		walk(v.Value, fn)
	case *ast.Program:
		for _, s := range v.Statements {
			walk(s, fn)
		}
		for _, f := range v.Functions {
			walkFunction(f, fn)
		}
	}
}

func walkExprChildren(e ast.Expr, fn func(ast.Expr)) {
	switch v := e.(type) {
	case *ast.ArrayLiteral:
		for _, el := range v.Elements {
			walk(el, fn)
		}
	case *ast.StructLiteral:
		for _, f := range v.Fields {
			walk(f.Value, fn)
		}
	case *ast.FieldAccess:
		walk(v.Object, fn)
	case *ast.AddressOf:
		walk(v.Operand, fn)
	case *ast.Dereference:
		walk(v.Operand, fn)
	case *ast.NewExpr:
		walk(v.Operand, fn)
	case *ast.Call:
		for _, a := range v.Args {
			walk(a.Value, fn)
		}
	case *ast.Block:
		for _, s := range v.Stmts {
			walk(s, fn)
		}
	case *ast.If:
		walk(v.Cond, fn)
		walk(v.Then, fn)
		if v.Else != nil {
			walk(v.Else, fn)
		}
	}
}

func walkFunction(f *ast.FunctionDecl, fn func(ast.Expr)) {
	if f.Body != nil {
		walk(f.Body, fn)
	}
}
