package specialize

import (
	"fmt"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/types"
)

// resolveGeneric implements spec.md §4.7's generic-specialization algorithm
// for a call whose callee is the single generic overload named by
// call.Callee.
func (r *Resolver) resolveGeneric(call *ast.Call, fn *ast.FunctionDecl, args []ArgInfo) {
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.Type
	}

	if !allConcrete(argTypes) {
		// Not enough information yet to specialize (e.g. called from inside
		// another not-yet-specialized generic body); record the tentative
		// callee and argument types so a later specialization pass over the
		// concrete call site can finish the job, without raising an error.
		call.ResolvedCallee = fn
		call.ArgTypes = argTypes
		return
	}

	key := frameKey(fn.Name, argTypes)
	if contains(r.stack, key) {
		// Recursion guard (spec.md §4.7 step 4, §9): the same (name,
		// argument tuple) is already being specialized higher in the call
		// stack. Break the cycle by reusing whatever specialization already
		// exists (possibly still being populated) rather than recursing
		// forever.
		call.ResolvedCallee = fn
		call.ArgTypes = argTypes
		if existing := fn.FindSpecialization(argTypes); existing != nil {
			return
		}
		return
	}

	if existing := fn.FindSpecialization(argTypes); existing != nil {
		call.ResolvedCallee = fn
		call.ArgTypes = argTypes
		return
	}

	r.stack = append(r.stack, key)
	defer func() { r.stack = r.stack[:len(r.stack)-1] }()

	subst, err := unifyFormals(fn, argTypes)
	if err != nil {
		r.Ch.Add(diag.New(diag.IncompatibleTypes, call.Position(), err.Error()))
		call.ResolvedCallee = fn
		call.ArgTypes = argTypes
		return
	}

	if err := r.checkTypeParamConstraints(call, fn, subst); err != nil {
		r.Ch.Add(diag.New(diag.ConstraintFailed, call.Position(), err.Error()))
		call.ResolvedCallee = fn
		call.ArgTypes = argTypes
		return
	}

	retType := types.Substitute(fn.ReturnType, subst)
	spec := &ast.Specialization{Args: argTypes, Return: retType, Bindings: subst}
	fn.AddSpecialization(spec)

	call.ResolvedCallee = fn
	call.ArgTypes = argTypes
}

// unifyFormals unifies each declared formal (whose type-parameter
// occurrences are FinalTypeVariable placeholders) against the concrete
// argument tuple, accumulating a substitution map. It errors when a formal
// and actual are both concrete and disagree, or when one type parameter
// would be bound to two different actual types.
func unifyFormals(fn *ast.FunctionDecl, argTypes []types.Type) (map[string]types.Type, error) {
	subst := map[string]types.Type{}
	for i, p := range fn.Params {
		if i >= len(argTypes) {
			break
		}
		if err := unifyFormal(p.Declared, argTypes[i], subst); err != nil {
			return nil, err
		}
	}
	return subst, nil
}

func unifyFormal(formal, actual types.Type, subst map[string]types.Type) error {
	switch f := formal.(type) {
	case *types.FinalTypeVariable:
		if existing, ok := subst[f.ID]; ok {
			if !existing.Equals(actual) {
				return fmt.Errorf("constraint-failed: %s bound to both %s and %s", f.ID, existing, actual)
			}
			return nil
		}
		subst[f.ID] = actual
		return nil
	case *types.NominalType:
		a, ok := actual.(*types.NominalType)
		if !ok || len(a.Params) != len(f.Params) {
			return fmt.Errorf("incompatible-types: expected %s, got %s", formal, actual)
		}
		// An arrayN formal of unknown size (the container intrinsics'
		// declared shape) matches any concrete array length; only the
		// element type is unified. Every other constructor (pointer,
		// boxed, a user nominal) still requires an exact name.
		sameShape := a.Name == f.Name
		if !sameShape {
			_, fSizeKnown := types.GetArraySize(f)
			if types.IsArray(f) && types.IsArray(a) && !fSizeKnown {
				sameShape = true
			}
		}
		if !sameShape {
			return fmt.Errorf("incompatible-types: expected %s, got %s", formal, actual)
		}
		for i := range f.Params {
			if err := unifyFormal(f.Params[i], a.Params[i], subst); err != nil {
				return err
			}
		}
		return nil
	default:
		if !formal.Equals(actual) {
			return fmt.Errorf("incompatible-types: expected %s, got %s", formal, actual)
		}
		return nil
	}
}

// checkTypeParamConstraints verifies the interface and field constraints on
// fn's type parameters against the substitution produced for this call
// (spec.md §4.7 step 2): Number/Float or user-interface membership, and
// `.field` structural requirements. Call-like constraints on other
// functions are not checked.
func (r *Resolver) checkTypeParamConstraints(call *ast.Call, fn *ast.FunctionDecl, subst map[string]types.Type) error {
	for _, tp := range fn.TypeParams {
		concrete, ok := subst[tp.Name]
		if !ok {
			continue // unconstrained-by-this-call type parameter (unused in params)
		}
		for _, iface := range tp.Interfaces {
			if !types.Satisfies(concrete, iface) {
				if _, _, ifaceB, _, found := r.Scope.Lookup(iface); found && ifaceB != nil {
					if !ifaceB.Attached[types.Hash(concrete)] {
						return fmt.Errorf("%s does not satisfy interface %s", concrete, iface)
					}
					continue
				}
				return fmt.Errorf("%s does not satisfy interface %s", concrete, iface)
			}
		}
		for fieldName, fieldType := range tp.Fields {
			n, ok := concrete.(*types.NominalType)
			if !ok {
				return fmt.Errorf("%s has no fields (required .%s)", concrete, fieldName)
			}
			decl, ok := n.Def.(interface {
				FieldType(string) (types.Type, bool)
			})
			if !ok {
				return fmt.Errorf("%s has no fields (required .%s)", concrete, fieldName)
			}
			actualField, ok := decl.FieldType(fieldName)
			if !ok {
				return fmt.Errorf("%s has no field %s", concrete, fieldName)
			}
			if ftv, isVar := fieldType.(*types.FinalTypeVariable); isVar {
				// fieldType names another of fn's type parameters (e.g. the
				// return type derived from p.x in `first(p) = p.x`) rather
				// than a fixed constraint: bind it from the actual field
				// instead of requiring equality against a literal type.
				if bound, ok := subst[ftv.ID]; ok {
					if !bound.Equals(actualField) {
						return fmt.Errorf("field %s of %s has type %s, want %s", fieldName, concrete, actualField, bound)
					}
				} else {
					subst[ftv.ID] = actualField
				}
				continue
			}
			if !actualField.Equals(fieldType) {
				return fmt.Errorf("field %s of %s has type %s, want %s", fieldName, concrete, actualField, fieldType)
			}
		}
	}
	return nil
}

func allConcrete(ts []types.Type) bool {
	for _, t := range ts {
		if !types.IsConcrete(t) {
			return false
		}
	}
	return true
}

func frameKey(name string, argTypes []types.Type) string {
	return name + "(" + types.HashTuple(argTypes) + ")"
}

func contains(stack []string, key string) bool {
	for _, s := range stack {
		if s == key {
			return true
		}
	}
	return false
}
