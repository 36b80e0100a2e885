// intrinsics.go pre-seeds the fixed intrinsic operation set of spec.md
// §6.4 into a scope's root frame: arithmetic, comparison, logical, print,
// subscript/subscript_mut, size, negate, and not. The operators, print,
// negate, and not are concrete overload sets over the closed primitive type
// list (spec.md §3.1), not single generic functions, so that scenario S1's
// clean defaulting and scenario S4's genuine ambiguous-call stay
// distinguishable (see internal/specialize's intrinsic tie-break);
// subscript, subscript_mut, and size are each one generic declaration over
// the array element type.
package analyzer

import (
	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/scope"
	"github.com/diamond-lang/diamondc/internal/specialize"
	"github.com/diamond-lang/diamondc/internal/types"
)

var numericTypes = []string{types.Int8, types.Int16, types.Int32, types.Int64, types.Float32, types.Float64}
var integerTypes = []string{types.Int8, types.Int16, types.Int32, types.Int64}
var allPrimitives = []string{types.Int8, types.Int16, types.Int32, types.Int64, types.Float32, types.Float64, types.Bool, types.String}

// SeedIntrinsics declares every intrinsic overload (and the three
// container-shaped generics, `subscript`/`subscript_mut`/`size`) into sc's
// current (root) frame. It panics on a scope conflict (a generic sharing a
// name with another declaration, or a function name clashing with an
// interface or type), which would only ever indicate a bug in this
// function's own declaration set, never user input.
func SeedIntrinsics(sc *scope.Stack) {
	for _, op := range []string{"+", "-", "*", "/"} {
		for _, t := range numericTypes {
			declareMust(sc, binaryIntrinsic(op, t, t))
		}
	}
	for _, t := range integerTypes {
		declareMust(sc, binaryIntrinsic("%", t, t))
	}
	for _, op := range []string{"<", "<=", ">", ">="} {
		for _, t := range numericTypes {
			declareMust(sc, binaryIntrinsic(op, t, types.Bool))
		}
	}
	for _, op := range []string{"==", "!="} {
		for _, t := range allPrimitives {
			declareMust(sc, binaryIntrinsic(op, t, types.Bool))
		}
	}
	for _, op := range []string{"and", "or"} {
		declareMust(sc, binaryIntrinsic(op, types.Bool, types.Bool))
	}
	declareMust(sc, unaryIntrinsic("not", types.Bool, types.Bool))
	for _, t := range numericTypes {
		declareMust(sc, unaryIntrinsic("negate", t, t))
	}
	for _, t := range allPrimitives {
		declareMust(sc, unaryIntrinsic("print", t, types.Void))
	}

	declareMust(sc, subscriptIntrinsic())
	declareMust(sc, subscriptMutIntrinsic())
	declareMust(sc, sizeIntrinsic())
}

func declareMust(sc *scope.Stack, fn *ast.FunctionDecl) {
	if err := sc.DeclareFunction(fn.Name, fn); err != nil {
		panic("analyzer: intrinsic seeding conflict for " + fn.Name + ": " + err.Error())
	}
}

func binaryIntrinsic(name, operandType, resultType string) *ast.FunctionDecl {
	t := types.Primitive(operandType)
	return &ast.FunctionDecl{
		Name:       name,
		Module:     specialize.IntrinsicModule,
		Params:     []ast.Param{{Name: "a", Declared: t}, {Name: "b", Declared: t}},
		ReturnType: types.Primitive(resultType),
		IsExtern:   true,
		State:      ast.CompletelyTyped,
	}
}

func unaryIntrinsic(name, operandType, resultType string) *ast.FunctionDecl {
	return &ast.FunctionDecl{
		Name:       name,
		Module:     specialize.IntrinsicModule,
		Params:     []ast.Param{{Name: "a", Declared: types.Primitive(operandType)}},
		ReturnType: types.Primitive(resultType),
		IsExtern:   true,
		State:      ast.CompletelyTyped,
	}
}

// subscriptIntrinsic is `subscript(xs: arrayN[a], i: int64) -> a`, the sole
// generic overload reading an array element (spec.md §6.4).
func subscriptIntrinsic() *ast.FunctionDecl {
	elem := &types.FinalTypeVariable{ID: "a"}
	arr := types.Array(-1, elem)
	return &ast.FunctionDecl{
		Name:       "subscript",
		Module:     specialize.IntrinsicModule,
		Params:     []ast.Param{{Name: "xs", Declared: arr}, {Name: "i", Declared: types.Primitive(types.Int64)}},
		ReturnType: elem,
		IsExtern:   true,
		TypeParams: []ast.TypeParam{{Name: "a"}},
	}
}

// subscriptMutIntrinsic is `subscript_mut(xs: mut arrayN[a], i: int64) ->
// pointer[a]`, the mutable-element-reference counterpart used on the
// left-hand side of `xs[i] := v`-style element assignment.
func subscriptMutIntrinsic() *ast.FunctionDecl {
	elem := &types.FinalTypeVariable{ID: "a"}
	arr := types.Array(-1, elem)
	return &ast.FunctionDecl{
		Name:       "subscript_mut",
		Module:     specialize.IntrinsicModule,
		Params:     []ast.Param{{Name: "xs", Declared: arr, Mutable: true}, {Name: "i", Declared: types.Primitive(types.Int64)}},
		ReturnType: types.Pointer(elem),
		IsExtern:   true,
		TypeParams: []ast.TypeParam{{Name: "a"}},
	}
}

// sizeIntrinsic is `size(xs: arrayN[a]) -> int64`.
func sizeIntrinsic() *ast.FunctionDecl {
	elem := &types.FinalTypeVariable{ID: "a"}
	arr := types.Array(-1, elem)
	return &ast.FunctionDecl{
		Name:       "size",
		Module:     specialize.IntrinsicModule,
		Params:     []ast.Param{{Name: "xs", Declared: arr}},
		ReturnType: types.Primitive(types.Int64),
		IsExtern:   true,
		TypeParams: []ast.TypeParam{{Name: "a"}},
	}
}
