// Package collect implements Pass 1, the Constraint Collector (spec.md
// §4.5): a single top-down walk of one function body (or the top-level
// program block) that assigns fresh type variables and emits
// equality/interface/field/parameter constraints into a per-run
// constraints.Store. Grounded on original_source/src/semantic/type_infer.cpp
// (the richer copy) and the teacher's internal/elaborate/expressions.go +
// internal/types/inference.go top-down-walk-assigning-fresh-variables shape.
package collect

import (
	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/constraints"
	"github.com/diamond-lang/diamondc/internal/diag"
	"github.com/diamond-lang/diamondc/internal/scope"
	"github.com/diamond-lang/diamondc/internal/types"
)

// Collector runs Pass 1 over one function body or the top-level block. It
// never leaks inference state between functions: each FunctionDecl (and the
// program's top-level block) gets its own Collector over a fresh Store,
// though all of them share the Scope stack and the module-wide error
// channel (spec.md §4.6: "Inference state does not leak between functions;
// each function gets a private solver").
type Collector struct {
	Scope *scope.Stack
	Store *constraints.Store
	Ch    *diag.Channel

	nextVarID int

	// currentFn is the enclosing function declaration, used by Return to
	// unify with the declared/inferred return slot. Nil at top level, where
	// a bare `return` or returning value is likewise out of place but not
	// rejected here (spec.md scopes that check to the parser/elsewhere).
	currentFn *ast.FunctionDecl
	// fnReturnVar is the fresh variable standing in for currentFn's return
	// type while it is being inferred (nil if the function declares a
	// concrete return type, in which case Return unifies against that
	// directly).
	fnReturnVar *types.TypeVariable

	// paramVars[i] is the TypeVariable id seeded for fn.Params[i] during the
	// most recent CollectFunction call, or -1 if that parameter already had
	// a concrete/declared type. internal/analyzer's signature generalization
	// step reads this after Unify to recover each undeclared parameter's
	// resolved label.
	paramVars []int
}

// New returns a Collector sharing sc and ch, with a fresh Store.
func New(sc *scope.Stack, ch *diag.Channel) *Collector {
	return &Collector{Scope: sc, Store: constraints.New(), Ch: ch}
}

// Fresh mints a new TypeVariable, internal to this Collector's run.
func (c *Collector) Fresh() *types.TypeVariable {
	c.nextVarID++
	return &types.TypeVariable{ID: c.nextVarID}
}

// ParamVars returns, for the most recent CollectFunction call, the seed
// TypeVariable id for each parameter (-1 for a parameter that already had a
// concrete or declared type and so never got a fresh variable).
func (c *Collector) ParamVars() []int { return c.paramVars }

// ReturnVar returns the fresh TypeVariable id standing in for the enclosing
// function's return type, or -1 if it declares a concrete return type.
func (c *Collector) ReturnVar() int {
	if c.fnReturnVar == nil {
		return -1
	}
	return c.fnReturnVar.ID
}

// unifyTypes unifies two types: if both are variables, union their classes;
// if one is a variable and the other concrete, record the equality; if both
// are the same container shape (e.g. two arrayN's, one possibly of unknown
// size — the shape intrinsic signatures like subscript declare before a call
// site's element type is known), recurse into their parameters so a fresh
// variable nested inside one of them still gets bound; otherwise they must
// already be equal (mismatches are reported as incompatible-types but
// collection continues per spec.md §7).
func (c *Collector) unifyTypes(pos ast.Pos, a, b types.Type) {
	av, aIsVar := a.(*types.TypeVariable)
	bv, bIsVar := b.(*types.TypeVariable)
	switch {
	case aIsVar && bIsVar:
		c.Store.Union(av.ID, bv.ID)
	case aIsVar && !bIsVar:
		c.Store.AddEquality(av.ID, b)
	case !aIsVar && bIsVar:
		c.Store.AddEquality(bv.ID, a)
	default:
		an, aNom := a.(*types.NominalType)
		bn, bNom := b.(*types.NominalType)
		if aNom && bNom && len(an.Params) == len(bn.Params) && sameContainerShape(an, bn) {
			for i := range an.Params {
				c.unifyTypes(pos, an.Params[i], bn.Params[i])
			}
			return
		}
		if !a.Equals(b) {
			c.Ch.Add(diag.NewTypeMismatch(pos, a, b))
		}
	}
}

// sameContainerShape reports whether two nominal types are the same
// constructor for unification purposes: either their names match exactly,
// or both are arrayN and at least one side's length is unknown (the
// container intrinsics' declared element-only shape).
func sameContainerShape(a, b *types.NominalType) bool {
	if a.Name == b.Name {
		return true
	}
	if !types.IsArray(a) || !types.IsArray(b) {
		return false
	}
	_, aKnown := types.GetArraySize(a)
	_, bKnown := types.GetArraySize(b)
	return !aKnown || !bKnown
}

// CollectProgram walks the top-level statements of prog into this
// Collector's store. Top-level function/interface/type declarations are
// expected to have already been registered into Scope by the caller
// (internal/analyzer), since declaration order at top level is unordered
// with respect to forward references.
func (c *Collector) CollectProgram(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		c.collectStmt(stmt)
	}
}

// CollectFunction runs Pass 1 over fn's body: pushes a scope frame binding
// each parameter, then walks the body, unifying its result (if it is an
// expression body) or its `return` statements (if a block body) with fn's
// return slot.
func (c *Collector) CollectFunction(fn *ast.FunctionDecl) {
	c.currentFn = fn
	if types.IsConcrete(fn.ReturnType) {
		c.fnReturnVar = nil
	} else {
		c.fnReturnVar = c.Fresh()
	}

	c.Scope.Push()
	defer c.Scope.Pop()
	c.paramVars = make([]int, len(fn.Params))
	for i := range fn.Params {
		p := &fn.Params[i]
		var pt types.Type = p.Declared
		c.paramVars[i] = -1
		if _, isNo := pt.(types.NoType); isNo || pt == nil {
			fresh := c.Fresh()
			pt = fresh
			c.paramVars[i] = fresh.ID
		}
		c.Scope.DeclareVariable(&scope.VarBinding{Name: p.Name, Type: pt, Mutable: p.Mutable, IsArgument: true})
	}

	if fn.Body == nil {
		return
	}
	if expr, ok := fn.Body.(ast.Expr); ok && ast.IsExpression(expr) {
		t := c.collectExpr(expr)
		c.unifyReturn(fn.Position(), t)
		return
	}
	c.collectStmt(fn.Body)
}

func (c *Collector) unifyReturn(pos ast.Pos, t types.Type) {
	if c.fnReturnVar != nil {
		c.unifyTypes(pos, c.fnReturnVar, t)
	} else if c.currentFn != nil {
		c.unifyTypes(pos, c.currentFn.ReturnType, t)
	}
}

// collectStmt dispatches a statement-position node. Declarations,
// assignments, returns, bare expressions, and nested blocks/ifs used as
// statements all come through here.
func (c *Collector) collectStmt(n ast.Node) {
	switch v := n.(type) {
	case *ast.Declaration:
		c.collectDeclaration(v)
	case *ast.Assignment:
		c.collectAssignment(v)
	case *ast.Return:
		c.collectReturn(v)
	case *ast.ExprStatement:
		c.collectExprStatement(v)
	case *ast.Block:
		c.Scope.Push()
		for _, s := range v.Stmts {
			c.collectStmt(s)
		}
		c.Scope.Pop()
	case ast.Expr:
		c.collectExpr(v)
	}
}

func (c *Collector) collectDeclaration(d *ast.Declaration) {
	rhs := c.collectExpr(d.Value)
	declared := d.Declared
	if _, isNo := declared.(types.NoType); isNo || declared == nil {
		declared = rhs
	} else {
		c.unifyTypes(d.Position(), declared, rhs)
	}
	c.Scope.DeclareVariable(&scope.VarBinding{Name: d.Name, Type: declared, Mutable: d.Mutable})
}

func (c *Collector) collectAssignment(a *ast.Assignment) {
	binding, ok := c.Scope.LookupVariable(a.Target)
	if !ok {
		c.Ch.Add(diag.New(diag.UndefinedVariable, a.Position(), "undefined variable "+a.Target))
		c.collectExpr(a.Value)
		return
	}
	if !binding.Mutable {
		c.Ch.Add(diag.New(diag.ReassigningImmutable, a.Position(), "reassigning immutable binding "+a.Target))
	}
	rhs := c.collectExpr(a.Value)
	c.unifyTypes(a.Position(), binding.Type, rhs)
}

func (c *Collector) collectReturn(r *ast.Return) {
	var t types.Type = types.Primitive(types.Void)
	if r.Value != nil {
		t = c.collectExpr(r.Value)
	}
	c.unifyReturn(r.Position(), t)
}

func (c *Collector) collectExprStatement(e *ast.ExprStatement) {
	c.collectExpr(e.Value)
	if call, ok := e.Value.(*ast.Call); ok {
		// The call's own type is still a fresh result variable here, so
		// voidness is read from the callee's declared return types.
		if _, fnBinding, _, _, found := c.Scope.Lookup(call.Callee); found && fnBinding != nil && len(fnBinding.Decls) > 0 {
			allVoid := true
			for _, d := range fnBinding.Decls {
				if d.ReturnType == nil || !d.ReturnType.Equals(types.Primitive(types.Void)) {
					allVoid = false
				}
			}
			if allVoid {
				return
			}
		}
		// A non-void call used as a bare statement discards its result
		// (spec.md §7, scenario S6); non-call expression-statements are not
		// flagged since the grammar this core consumes only produces this
		// diagnostic for calls (spec.md §8 S6 wording).
		c.Ch.Add(diag.New(diag.UnhandledReturnValue, e.Position(), "unhandled return value"))
	}
}

// collectExpr is the expression-position dispatcher; it returns the Type
// assigned to n (also stored via n.SetType).
func (c *Collector) collectExpr(n ast.Expr) types.Type {
	var t types.Type
	switch v := n.(type) {
	case *ast.Literal:
		t = c.collectLiteral(v)
	case *ast.Identifier:
		t = c.collectIdentifier(v)
	case *ast.ArrayLiteral:
		t = c.collectArrayLiteral(v)
	case *ast.StructLiteral:
		t = c.collectStructLiteral(v)
	case *ast.FieldAccess:
		t = c.collectFieldAccess(v)
	case *ast.AddressOf:
		t = types.Pointer(c.collectExpr(v.Operand))
	case *ast.Dereference:
		t = c.collectDereference(v)
	case *ast.NewExpr:
		t = types.Boxed(c.collectExpr(v.Operand))
	case *ast.Call:
		t = c.collectCall(v)
	case *ast.Block:
		t = c.collectBlockExpr(v)
	case *ast.If:
		t = c.collectIf(v)
	default:
		t = types.NoType{}
	}
	n.SetType(t)
	return t
}

func (c *Collector) collectLiteral(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.IntLit:
		if l.Annotated {
			if !types.IsInteger(l.AnnotatedType) && !types.IsFloat(l.AnnotatedType) {
				c.Ch.Add(diag.New(diag.IncompatibleTypes, l.Position(), "integer literal annotation must be integer or float"))
			}
			return l.AnnotatedType
		}
		v := c.Fresh()
		c.Store.AddInterfaceConstraint(v.ID, types.Number)
		return v
	case ast.FloatLit:
		if l.Annotated {
			if !types.IsFloat(l.AnnotatedType) {
				c.Ch.Add(diag.New(diag.IncompatibleTypes, l.Position(), "float literal annotation must be a float type"))
			}
			return l.AnnotatedType
		}
		v := c.Fresh()
		c.Store.AddInterfaceConstraint(v.ID, types.Float)
		return v
	case ast.BoolLit:
		return types.Primitive(types.Bool)
	case ast.StringLit:
		return types.Primitive(types.String)
	default:
		return types.NoType{}
	}
}

func (c *Collector) collectIdentifier(id *ast.Identifier) types.Type {
	b, ok := c.Scope.LookupVariable(id.Name)
	if !ok {
		c.Ch.Add(diag.New(diag.UndefinedVariable, id.Position(), "undefined variable "+id.Name))
		return c.Fresh()
	}
	return b.Type
}

func (c *Collector) collectArrayLiteral(a *ast.ArrayLiteral) types.Type {
	if len(a.Elements) == 0 {
		// An empty array literal is typed array0[a] with a fresh type
		// variable a, which takes a concrete element type only if later
		// unification ties it to one. Nothing defaults or rejects an
		// element type that stays unconstrained.
		return types.Array(0, c.Fresh())
	}
	elemType := c.collectExpr(a.Elements[0])
	for _, el := range a.Elements[1:] {
		t := c.collectExpr(el)
		c.unifyTypes(el.Position(), elemType, t)
	}
	return types.Array(len(a.Elements), elemType)
}

func (c *Collector) collectStructLiteral(s *ast.StructLiteral) types.Type {
	_, _, _, typeBinding, ok := c.Scope.Lookup(s.TypeName)
	if !ok || typeBinding == nil {
		c.Ch.Add(diag.New(diag.UndefinedType, s.Position(), "undefined type "+s.TypeName))
		for _, f := range s.Fields {
			c.collectExpr(f.Value)
		}
		return c.Fresh()
	}
	decl := typeBinding.Decl
	seen := map[string]bool{}
	for _, f := range s.Fields {
		valType := c.collectExpr(f.Value)
		declared, ok := decl.FieldType(f.Name)
		if !ok {
			c.Ch.Add(diag.New(diag.MissingField, s.Position(), "no such field "+f.Name+" on "+s.TypeName))
			continue
		}
		seen[f.Name] = true
		c.unifyTypes(f.Value.Position(), declared, valType)
	}
	for _, fd := range decl.Fields {
		if !seen[fd.Name] {
			c.Ch.Add(diag.New(diag.NotAllFieldsInit, s.Position(), "field "+fd.Name+" not initialized"))
		}
	}
	return &types.NominalType{Name: s.TypeName, Def: decl}
}

// collectFieldAccess implements spec.md §4.5's two-path rule: when the
// object's type is already concrete-nominal, each field's declared type is
// read directly from the type definition; otherwise a structural field
// constraint chains through fresh variables for each dotted step.
func (c *Collector) collectFieldAccess(fa *ast.FieldAccess) types.Type {
	objType := c.collectExpr(fa.Object)
	cur := objType
	for _, field := range fa.Fields {
		cur = c.stepField(fa.Position(), cur, field)
	}
	return cur
}

func (c *Collector) stepField(pos ast.Pos, cur types.Type, field string) types.Type {
	if n, ok := cur.(*types.NominalType); ok && types.IsConcrete(n) {
		decl, ok := n.Def.(interface {
			FieldType(string) (types.Type, bool)
		})
		if !ok {
			c.Ch.Add(diag.New(diag.UndefinedType, pos, "type "+n.Name+" has no fields"))
			return c.Fresh()
		}
		ft, ok := decl.FieldType(field)
		if !ok {
			c.Ch.Add(diag.New(diag.MissingField, pos, "no such field "+field+" on "+n.Name))
			return c.Fresh()
		}
		return ft
	}
	if v, ok := cur.(*types.TypeVariable); ok {
		fieldVar := c.Fresh()
		c.Store.AddFieldConstraint(v.ID, field, fieldVar.ID)
		return fieldVar
	}
	if ftv, ok := cur.(*types.FinalTypeVariable); ok && c.currentFn != nil {
		// A parameter already generalized into a type parameter: its field
		// types were recorded on that TypeParam by signature generalization.
		for _, tp := range c.currentFn.TypeParams {
			if ft, ok := tp.Fields[field]; ok && tp.Name == ftv.ID {
				return ft
			}
		}
	}
	c.Ch.Add(diag.New(diag.IncompatibleTypes, pos, "cannot access field "+field+" on "+cur.String()))
	return c.Fresh()
}

func (c *Collector) collectDereference(d *ast.Dereference) types.Type {
	operand := c.collectExpr(d.Operand)
	if v, ok := operand.(*types.TypeVariable); ok {
		elem := c.Fresh()
		c.Store.AddParameterConstraint(v.ID, types.PointerCon, elem.ID)
		return elem
	}
	if types.IsPointer(operand) || types.IsBoxed(operand) {
		return operand.(*types.NominalType).Params[0]
	}
	c.Ch.Add(diag.New(diag.IncompatibleTypes, d.Position(), "cannot dereference "+operand.String()))
	return c.Fresh()
}

// collectCall implements spec.md §4.5's Call rule. Every argument is
// collected first; the call site gets a fresh result variable. When the
// callee name resolves, after an arity filter, to exactly one candidate —
// whether a non-generic singleton or the sole generic overload — the
// collector eagerly instantiates that candidate's prototype (fresh copies
// of its type parameters for a generic) and unifies each formal with each
// actual plus the formal return with the fresh result variable, so
// inference information flows within this function body immediately. When
// more than one candidate survives the arity filter, the call is a genuine
// overload-resolution question deferred to Pass 3 (internal/specialize),
// which has access to the final, concrete, labeled types (spec.md §4.7);
// Pass 1 only reserves the fresh result variable in that case and leaves
// Call.ResolvedCallee for Pass 3 to fill in.
func (c *Collector) collectCall(call *ast.Call) types.Type {
	argTypes := make([]types.Type, len(call.Args))
	call.ArgVars = make([]int, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = c.collectExpr(a.Value)
		if v, ok := argTypes[i].(*types.TypeVariable); ok {
			call.ArgVars[i] = v.ID
		} else {
			call.ArgVars[i] = -1
		}
	}

	result := c.Fresh()
	call.ReturnVar = result.ID

	_, fnBinding, _, _, ok := c.Scope.Lookup(call.Callee)
	if !ok {
		c.Ch.Add(diag.New(diag.UndefinedFunction, call.Position(), "undefined function "+call.Callee))
		return result
	}

	var candidates []*ast.FunctionDecl
	for _, d := range fnBinding.Decls {
		if len(d.Params) == len(argTypes) || (d.IsVariadic && len(argTypes) >= len(d.Params)) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		c.Ch.Add(diag.New(diag.UndefinedFunction, call.Position(), "undefined function "+call.Callee))
		return result
	}
	if len(candidates) > 1 {
		// Deferred to Pass 3 (internal/specialize), which has the final
		// labeled types and the pre-defaulting interface domain needed to
		// tell scenario S1 (clean intrinsic defaulting) from S4 (genuine
		// ambiguous-call) apart. No formal<->actual unification yet.
		return result
	}

	candidate := candidates[0]
	call.ResolvedCallee = candidate
	subst := map[string]types.Type{}
	for _, tp := range candidate.TypeParams {
		subst[tp.Name] = c.Fresh()
	}
	for i, p := range candidate.Params {
		formal := instantiate(p.Declared, subst)
		if i < len(argTypes) {
			c.unifyTypes(call.Position(), formal, argTypes[i])
		}
	}
	retType := instantiate(candidate.ReturnType, subst)
	c.unifyTypes(call.Position(), result, retType)
	return result
}

// instantiate substitutes a generic function's declared type-parameter names
// with the fresh TypeVariables minted for this call site. Declared types
// reference type parameters as FinalTypeVariable placeholders at
// declaration time (e.g. `a` in `function id(x: a) -> a`), so this is a
// simple name-keyed swap, not a recursive unifier.
func instantiate(t types.Type, subst map[string]types.Type) types.Type {
	switch v := t.(type) {
	case *types.FinalTypeVariable:
		if sub, ok := subst[v.ID]; ok {
			return sub
		}
		return t
	case *types.NominalType:
		if len(v.Params) == 0 {
			return t
		}
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = instantiate(p, subst)
		}
		return &types.NominalType{Name: v.Name, Params: params, Def: v.Def}
	default:
		return t
	}
}

func (c *Collector) collectIf(i *ast.If) types.Type {
	cond := c.collectExpr(i.Cond)
	c.unifyTypes(i.Cond.Position(), cond, types.Primitive(types.Bool))

	thenType := c.collectBlockExpr(i.Then)
	if i.Else == nil {
		return types.Primitive(types.Void)
	}
	elseType := c.collectBlockExpr(i.Else)
	if ast.IsExpression(i) {
		result := c.Fresh()
		c.unifyTypes(i.Position(), result, thenType)
		c.unifyTypes(i.Position(), result, elseType)
		return result
	}
	c.unifyTypes(i.Position(), thenType, elseType)
	return types.Primitive(types.Void)
}

// collectBlockExpr collects a block's statements in a fresh child frame and
// returns its trailing expression's type when the block qualifies as an
// expression (spec.md §4.2), or void otherwise.
func (c *Collector) collectBlockExpr(b *ast.Block) types.Type {
	c.Scope.Push()
	defer c.Scope.Pop()
	var last types.Type = types.Primitive(types.Void)
	for i, s := range b.Stmts {
		if i == len(b.Stmts)-1 {
			if e, ok := s.(ast.Expr); ok && ast.IsExpression(e) {
				last = c.collectExpr(e)
				continue
			}
		}
		c.collectStmt(s)
	}
	b.SetType(last)
	return last
}
