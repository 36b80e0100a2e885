// Package types implements the algebraic type representation used by the
// semantic core: the five-variant Type sum, equality, stringification,
// predicates, and substitution described in spec.md §3.1 and §4.1.
package types

import (
	"fmt"
	"strings"
)

// Type is the tagged sum every part of the analyzer operates on.
type Type interface {
	String() string
	Equals(Type) bool
}

// Definition is satisfied by an AST type declaration. NominalType holds an
// optional pointer to one; types never imports ast, so this is expressed as
// an interface any user-defined type node can implement.
type Definition interface {
	DefName() string
}

// NoType marks an uninitialized annotation slot.
type NoType struct{}

func (NoType) String() string    { return "<no type>" }
func (NoType) Equals(o Type) bool { _, ok := o.(NoType); return ok }

// TypeVariable is a fresh inference variable, internal to one analysis run.
type TypeVariable struct {
	ID int
}

func (t *TypeVariable) String() string { return fmt.Sprintf("t%d", t.ID) }

func (t *TypeVariable) Equals(o Type) bool {
	if ov, ok := o.(*TypeVariable); ok {
		return t.ID == ov.ID
	}
	return false
}

// FinalTypeVariable is a surface-visible polymorphic parameter produced by
// the unifier once a TypeVariable's equivalence class has no concrete
// member to label it with.
type FinalTypeVariable struct {
	ID string
}

func (t *FinalTypeVariable) String() string { return t.ID }

func (t *FinalTypeVariable) Equals(o Type) bool {
	if ov, ok := o.(*FinalTypeVariable); ok {
		return t.ID == ov.ID
	}
	return false
}

// NominalType is a primitive, built-in (pointer/boxed/arrayN), or
// user-defined struct type, identified by name plus a parameter list.
type NominalType struct {
	Name   string
	Params []Type
	Def    Definition // non-nil only for user-defined struct types
}

func (t *NominalType) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s[%s]", t.Name, strings.Join(parts, ", "))
}

func (t *NominalType) Equals(o Type) bool {
	ov, ok := o.(*NominalType)
	if !ok || ov.Name != t.Name || len(ov.Params) != len(t.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equals(ov.Params[i]) {
			return false
		}
	}
	return true
}

// StructType is a structural record used for field-access constraints on a
// variable before its nominal type is known.
type StructType struct {
	Fields     map[string]Type
	FieldOrder []string // preserves declaration order for display (§4 of SPEC_FULL)
	Open       bool
}

func (t *StructType) String() string {
	parts := make([]string, 0, len(t.FieldOrder))
	for _, name := range t.FieldOrder {
		parts = append(parts, fmt.Sprintf("%s: %s", name, t.Fields[name].String()))
	}
	if t.Open {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

// Equals is intentionally asymmetric: every field of t must be present and
// equal in o, but o may carry additional fields. This subset-equality is
// used only for display/debugging, per spec.md §4.1.
func (t *StructType) Equals(o Type) bool {
	ov, ok := o.(*StructType)
	if !ok {
		return false
	}
	for name, typ := range t.Fields {
		oTyp, ok := ov.Fields[name]
		if !ok || !typ.Equals(oTyp) {
			return false
		}
	}
	return true
}

// Primitive name set (spec.md §3.1 invariant: closed set).
const (
	Int8    = "int8"
	Int16   = "int16"
	Int32   = "int32"
	Int64   = "int64"
	Float32 = "float32"
	Float64 = "float64"
	Bool    = "bool"
	String  = "string"
	Void    = "void"
)

var primitiveNames = map[string]bool{
	Int8: true, Int16: true, Int32: true, Int64: true,
	Float32: true, Float64: true, Bool: true, String: true, Void: true,
}

var integerNames = map[string]bool{Int8: true, Int16: true, Int32: true, Int64: true}
var floatNames = map[string]bool{Float32: true, Float64: true}

// Built-in parametric type constructor names.
const (
	PointerCon = "pointer"
	BoxedCon   = "boxed"
	ArrayCon   = "arrayN" // suffix carries the size, see Array()/GetArraySize
)

// Primitive constructs a concrete primitive NominalType. It panics if name
// is not in the closed primitive set — callers are expected to use the
// named constants.
func Primitive(name string) *NominalType {
	if !primitiveNames[name] {
		panic("types: not a primitive name: " + name)
	}
	return &NominalType{Name: name}
}

// Pointer constructs pointer[elem].
func Pointer(elem Type) *NominalType {
	return &NominalType{Name: PointerCon, Params: []Type{elem}}
}

// Boxed constructs boxed[elem].
func Boxed(elem Type) *NominalType {
	return &NominalType{Name: BoxedCon, Params: []Type{elem}}
}

// Array constructs arrayN[elem]. size < 0 means an unknown-length array
// ("array" with no numeric suffix).
func Array(size int, elem Type) *NominalType {
	name := "array"
	if size >= 0 {
		name = fmt.Sprintf("array%d", size)
	}
	return &NominalType{Name: name, Params: []Type{elem}}
}

// GetArraySize returns the N suffix of an arrayN type. ok is false when t is
// not an array type or the size is unknown ("array" with no suffix).
func GetArraySize(t Type) (size int, ok bool) {
	n, isNominal := t.(*NominalType)
	if !isNominal || !strings.HasPrefix(n.Name, "array") {
		return 0, false
	}
	suffix := strings.TrimPrefix(n.Name, "array")
	if suffix == "" {
		return 0, false
	}
	var parsed int
	if _, err := fmt.Sscanf(suffix, "%d", &parsed); err != nil {
		return 0, false
	}
	return parsed, true
}

// IsConcrete is true iff t contains no TypeVariable, FinalTypeVariable or
// NoType at any depth, and all nested parameters/fields are concrete too.
func IsConcrete(t Type) bool {
	switch v := t.(type) {
	case NoType:
		return false
	case *TypeVariable:
		return false
	case *FinalTypeVariable:
		return false
	case *NominalType:
		for _, p := range v.Params {
			if !IsConcrete(p) {
				return false
			}
		}
		return true
	case *StructType:
		for _, f := range v.Fields {
			if !IsConcrete(f) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isNominalNamed(t Type, names map[string]bool) bool {
	n, ok := t.(*NominalType)
	return ok && names[n.Name]
}

// IsInteger reports whether t is one of the closed integer primitives.
func IsInteger(t Type) bool { return isNominalNamed(t, integerNames) }

// IsFloat reports whether t is one of the closed float primitives.
func IsFloat(t Type) bool { return isNominalNamed(t, floatNames) }

// IsPointer reports whether t is pointer[_].
func IsPointer(t Type) bool {
	n, ok := t.(*NominalType)
	return ok && n.Name == PointerCon
}

// IsBoxed reports whether t is boxed[_].
func IsBoxed(t Type) bool {
	n, ok := t.(*NominalType)
	return ok && n.Name == BoxedCon
}

// IsArray reports whether t is arrayN[_] for any N (including unknown).
func IsArray(t Type) bool {
	n, ok := t.(*NominalType)
	return ok && strings.HasPrefix(n.Name, "array")
}

// IsStructType reports whether t is a structural record.
func IsStructType(t Type) bool {
	_, ok := t.(*StructType)
	return ok
}

// Substitute replaces every FinalTypeVariable whose id appears in bindings,
// recursing into nominal parameters and struct fields. It is called once
// per function specialization with a complete substitution map; encountering
// an unresolved FinalTypeVariable not present in bindings at emission time is
// a caller bug (the unifier must have solved it by then), so it is returned
// unchanged rather than silently dropped — callers that need to detect this
// should check IsConcrete on the result.
func Substitute(t Type, bindings map[string]Type) Type {
	switch v := t.(type) {
	case *FinalTypeVariable:
		if sub, ok := bindings[v.ID]; ok {
			return sub
		}
		return t
	case *NominalType:
		if len(v.Params) == 0 {
			return t
		}
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = Substitute(p, bindings)
		}
		return &NominalType{Name: v.Name, Params: params, Def: v.Def}
	case *StructType:
		fields := make(map[string]Type, len(v.Fields))
		for name, typ := range v.Fields {
			fields[name] = Substitute(typ, bindings)
		}
		return &StructType{Fields: fields, FieldOrder: v.FieldOrder, Open: v.Open}
	default:
		return t
	}
}

// Hash returns the canonical string form used to key maps by type (e.g.
// specialization tables keyed by argument tuple).
func Hash(t Type) string { return t.String() }

// HashTuple hashes an ordered tuple of types, used to key specializations
// and the specialization-resolution call-stack guard.
func HashTuple(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = Hash(t)
	}
	return strings.Join(parts, ",")
}
