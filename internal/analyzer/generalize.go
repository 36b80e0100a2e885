package analyzer

import (
	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/collect"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/scope"
	"github.com/diamond-lang/diamondc/internal/types"
	"github.com/diamond-lang/diamondc/internal/unify"
)

// generalizeSignature promotes a function whose parameters and/or return
// type were left undeclared (spec.md §3.3's "a parameter or return type may
// be omitted and inferred from usage") into a properly generic
// ast.FunctionDecl before any call site tries to resolve it.
//
// It runs fn's body through its own private collect+unify pass (discarding
// any diagnostics — this is a signature-discovery pass, not the real
// analysis that analyzeFunction performs afterward) and inspects the
// resolved label of each undeclared parameter and the return slot. A
// parameter or return type that resolves to a types.FinalTypeVariable means
// fn's body never pinned it to one concrete type on its own, so fn becomes
// generic: fn.TypeParams gets one entry per distinct such variable, carrying
// whatever Number/Float interface domain or field constraints the body
// discovered, and fn.Params/fn.ReturnType are rewritten to reference those
// placeholders directly. A function whose undeclared slots all resolve to a
// single concrete type (e.g. a bare numeric literal defaulting to int64)
// is left non-generic, with those slots simply filled in.
//
// Grounded on original_source/src/semantic/context.cpp's
// new_final_type_variable/type_parameters handling: the original assigns a
// function's type parameters once, ahead of resolving any of its call
// sites, rather than discovering genericity lazily per call.
func (a *Analyzer) generalizeSignature(sc *scope.Stack, fn *ast.FunctionDecl) {
	if fn.IsExtern || fn.Body == nil || fn.IsGeneric() {
		return
	}
	if fn.IsCompletelyTyped() {
		return
	}

	scratch := diag.NewChannel()
	col := collect.New(sc, scratch)
	col.CollectFunction(fn)

	res, err := unify.Unify(col.Store, scratch, fn.Position())
	if err != nil {
		// Leave fn untouched; the real pass in analyzeFunction will hit the
		// same failure and report it properly against a.Ch.
		return
	}

	paramVars := col.ParamVars()
	newParams := make([]types.Type, len(fn.Params))
	generic := false
	for i := range fn.Params {
		newParams[i] = fn.Params[i].Declared
		if i >= len(paramVars) || paramVars[i] < 0 {
			continue
		}
		lbl := res.ByVar[paramVars[i]]
		if lbl == nil {
			continue
		}
		newParams[i] = lbl.Type
		if _, ok := lbl.Type.(*types.FinalTypeVariable); ok {
			generic = true
		}
	}

	newReturn := fn.ReturnType
	if rv := col.ReturnVar(); rv >= 0 {
		if lbl := res.ByVar[rv]; lbl != nil {
			newReturn = lbl.Type
		}
	}

	for i := range fn.Params {
		fn.Params[i].Declared = newParams[i]
	}
	fn.ReturnType = newReturn
	if generic {
		fn.TypeParams = buildTypeParams(col, res, newParams)
	}
}

// buildTypeParams derives one ast.TypeParam per distinct FinalTypeVariable
// id appearing among paramTypes, carrying the interface domain and field
// constraints recorded against that parameter's seed variable in col's
// store (spec.md §4.5's field/interface constraint bookkeeping).
func buildTypeParams(col *collect.Collector, res *unify.Result, paramTypes []types.Type) []ast.TypeParam {
	paramVars := col.ParamVars()
	seen := map[string]bool{}
	var out []ast.TypeParam
	for i, pt := range paramTypes {
		ftv, ok := pt.(*types.FinalTypeVariable)
		if !ok || seen[ftv.ID] {
			continue
		}
		seen[ftv.ID] = true
		tp := ast.TypeParam{Name: ftv.ID}
		if i < len(paramVars) && paramVars[i] >= 0 {
			v := paramVars[i]
			if lbl := res.ByVar[v]; lbl != nil && lbl.Domain != "" {
				tp.Interfaces = []string{lbl.Domain}
			}
			if fields := col.Store.FieldsOf(v); len(fields) > 0 {
				tp.Fields = map[string]types.Type{}
				for _, fc := range fields {
					tp.Fields[fc.Field] = res.Resolve(fc.Var)
				}
			}
		}
		out = append(out, tp)
	}
	return out
}
