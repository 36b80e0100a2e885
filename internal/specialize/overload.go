// Package specialize implements Pass 3, the Specialization Resolver
// (spec.md §4.7): for each call site it either picks the one concrete
// overload that matches under constraints, or resolves (and
// content-addresses) a generic function's specialization for the call's
// concrete argument tuple. Grounded on the teacher's
// internal/types/dictionaries.go (dictionary/instance lookup keyed by
// normalized type) and internal/elaborate/dictionaries.go (elaboration-time
// dictionary resolution, the closest teacher analogue to monomorphization),
// plus original_source/src/semantic/context.hpp's
// remove_incompatible_functions_with_argument_type /
// remove_incompatible_functions_with_return_type.
package specialize

import (
	"fmt"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/scope"
	"github.com/diamond-lang/diamondc/internal/types"
	"github.com/diamond-lang/diamondc/internal/unify"
)

// IntrinsicModule marks a FunctionDecl as one of the pre-seeded intrinsic
// overload sets (spec.md §6.4) rather than a user declaration. Only
// intrinsic overload sets get the defaulting tie-break of DESIGN.md's Open
// Question 3.
const IntrinsicModule = "<intrinsic>"

// ArgInfo is one call argument's resolved type plus, when it was still an
// unresolved TypeVariable at collection time, the interface domain it was
// defaulted from (spec.md §4.7 scenario S4 needs the domain, not just the
// defaulted concrete type, to tell "every candidate agrees" apart from
// "genuinely ambiguous").
type ArgInfo struct {
	Type    types.Type
	Domain  string
	Mutable bool
}

// Resolver runs Pass 3 over every call site in a finalized tree.
type Resolver struct {
	Scope *scope.Stack
	Ch    *diag.Channel
	Res   *unify.Result

	// stack is the explicit recursive-specialization call stack (spec.md
	// §4.7 step 4, §9): (function name, argument-tuple hash) frames
	// checked for containment before recursing into a new generic
	// specialization request.
	stack []string
}

// New returns a Resolver over sc, reporting into ch, using res to recover
// pre-defaulting interface domains for call arguments.
func New(sc *scope.Stack, ch *diag.Channel, res *unify.Result) *Resolver {
	return &Resolver{Scope: sc, Ch: ch, Res: res}
}

// ResolveCall implements spec.md §4.7 for one call site. It mutates call in
// place: ResolvedCallee and ArgTypes are set to the chosen concrete
// signature, and — for a generic callee — a specialization is appended to
// the callee's Specializations list (reused if one already exists for this
// argument tuple).
func (r *Resolver) ResolveCall(call *ast.Call) {
	_, fnBinding, _, _, ok := r.Scope.Lookup(call.Callee)
	if !ok {
		r.Ch.Add(diag.New(diag.UndefinedFunction, call.Position(), "undefined function "+call.Callee))
		return
	}

	args := r.argInfo(call)

	var candidates []*ast.FunctionDecl
	for _, d := range fnBinding.Decls {
		if len(d.Params) == len(args) || (d.IsVariadic && len(args) >= len(d.Params)) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		r.Ch.Add(diag.New(diag.UndefinedFunction, call.Position(), "undefined function "+call.Callee))
		return
	}

	if fnBinding.IsGeneric() {
		r.resolveGeneric(call, candidates[0], args)
		return
	}
	r.resolveOverload(call, candidates, args)
}

// argInfo recovers each argument's final type and (if applicable)
// pre-defaulting interface domain.
func (r *Resolver) argInfo(call *ast.Call) []ArgInfo {
	out := make([]ArgInfo, len(call.Args))
	for i, a := range call.Args {
		t := a.Value.GetType()
		domain := ""
		if i < len(call.ArgVars) && call.ArgVars[i] >= 0 {
			if l, ok := r.Res.ByVar[call.ArgVars[i]]; ok {
				domain = l.Domain
			}
		}
		out[i] = ArgInfo{Type: t, Domain: domain, Mutable: a.Mut}
	}
	return out
}

// returnInfo recovers the call's own finalized return type and (if
// applicable) the pre-defaulting interface domain it was defaulted from,
// the same way argInfo does for an argument position (spec.md §4.7 step 3
// needs this to filter overload candidates by return type).
func (r *Resolver) returnInfo(call *ast.Call) ArgInfo {
	t := call.GetType()
	domain := ""
	if l, ok := r.Res.ByVar[call.ReturnVar]; ok {
		domain = l.Domain
	}
	return ArgInfo{Type: t, Domain: domain}
}

// resolveOverload implements spec.md §4.7's four-step overload-resolution
// algorithm for a concrete (non-generic) overload set.
func (r *Resolver) resolveOverload(call *ast.Call, candidates []*ast.FunctionDecl, args []ArgInfo) {
	survivors := candidates
	for i, arg := range args {
		survivors = filterByArg(survivors, i, arg)
		if len(survivors) == 0 {
			break
		}
	}

	if len(survivors) > 0 {
		survivors = filterByReturn(survivors, r.returnInfo(call))
	}

	if len(survivors) > 1 && isIntrinsicSet(candidates) {
		if tie := intrinsicDefaultTieBreak(survivors, args); tie != nil {
			survivors = []*ast.FunctionDecl{tie}
		}
	}

	switch len(survivors) {
	case 0:
		r.Ch.Add(diag.New(diag.UndefinedFunction, call.Position(), "undefined function "+call.Callee))
	case 1:
		r.commit(call, survivors[0], args)
	default:
		r.Ch.Add(diag.New(diag.AmbiguousCall, call.Position(), ambiguousMessage(call.Callee)))
	}
}

// filterByArg applies spec.md §4.7 step 2 for one argument position:
// exact-match on a concrete actual, constraint-compatible match when the
// actual is still interface-constrained, and mutability preserved in both
// directions.
func filterByArg(candidates []*ast.FunctionDecl, pos int, arg ArgInfo) []*ast.FunctionDecl {
	var out []*ast.FunctionDecl
	for _, c := range candidates {
		if pos >= len(c.Params) {
			// variadic tail position: no per-position formal to check.
			out = append(out, c)
			continue
		}
		p := c.Params[pos]
		if p.Mutable != arg.Mutable {
			continue
		}
		// An actual that was itself only interface-constrained (e.g. a bare
		// integer literal defaulted to int64 by the unifier) is judged by
		// that domain, not by the concrete value it happened to default
		// to — otherwise every such call would spuriously resolve to the
		// exact-match overload instead of surfacing genuine ambiguity
		// (spec.md §4.7, scenario S4). Only an actual that was concrete
		// all along (Domain == "") is matched by exact equality.
		if arg.Domain != "" {
			if types.Satisfies(p.Declared, arg.Domain) {
				out = append(out, c)
			}
			continue
		}
		if p.Declared.Equals(arg.Type) {
			out = append(out, c)
		}
	}
	return out
}

// filterByReturn applies spec.md §4.7 step 3: filter the survivors of step 2
// by the call's own (inferred) return type, "the same way" step 2 filters by
// argument — exact match against a concrete expected return, or
// constraint-compatible match when the expected return is still
// interface-constrained. When the call's result carries neither a concrete
// type nor an outstanding interface domain (e.g. its value is never used in
// a context that constrains it), there is nothing yet to filter by and every
// survivor is kept.
func filterByReturn(candidates []*ast.FunctionDecl, ret ArgInfo) []*ast.FunctionDecl {
	if ret.Domain != "" {
		var out []*ast.FunctionDecl
		for _, c := range candidates {
			if types.Satisfies(c.ReturnType, ret.Domain) {
				out = append(out, c)
			}
		}
		return out
	}
	if !types.IsConcrete(ret.Type) {
		return candidates
	}
	var out []*ast.FunctionDecl
	for _, c := range candidates {
		if c.ReturnType.Equals(ret.Type) {
			out = append(out, c)
		}
	}
	return out
}

func isIntrinsicSet(candidates []*ast.FunctionDecl) bool {
	for _, c := range candidates {
		if c.Module != IntrinsicModule {
			return false
		}
	}
	return len(candidates) > 0
}

// intrinsicDefaultTieBreak implements DESIGN.md's Open Question 3: if every
// surviving candidate's contested formal positions are exactly the default
// concrete type for the single shared interface domain on the actuals, pick
// that candidate instead of raising ambiguous-call. Returns nil when no such
// single, unambiguous default exists.
func intrinsicDefaultTieBreak(survivors []*ast.FunctionDecl, args []ArgInfo) *ast.FunctionDecl {
	var domain string
	for _, a := range args {
		if a.Domain == "" {
			continue
		}
		if domain == "" {
			domain = a.Domain
		} else if domain != a.Domain {
			return nil
		}
	}
	if domain == "" {
		return nil
	}
	def, ok := types.DefaultFor(domain)
	if !ok {
		return nil
	}
	var match *ast.FunctionDecl
	for _, c := range survivors {
		allDefault := true
		for i, a := range args {
			if a.Domain == "" {
				continue
			}
			if i >= len(c.Params) || !c.Params[i].Declared.Equals(def) {
				allDefault = false
				break
			}
		}
		if allDefault {
			if match != nil {
				return nil // more than one default-typed survivor: no tie-break
			}
			match = c
		}
	}
	return match
}

// commit records the chosen candidate and concrete argument tuple onto the
// call node (spec.md §4.7 step 4). It emits no unification: the call's own
// type and any type variable still unresolved at this call site are left
// as they are.
func (r *Resolver) commit(call *ast.Call, fn *ast.FunctionDecl, args []ArgInfo) {
	call.ResolvedCallee = fn
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.Type
	}
	call.ArgTypes = argTypes
}

// ambiguousMessage formats resolveOverload's ambiguous-call diagnostic text.
func ambiguousMessage(name string) string {
	return fmt.Sprintf("ambiguous call to %s", name)
}
