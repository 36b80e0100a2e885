package ast

import "github.com/diamond-lang/diamondc/internal/types"

// AnalysisState tracks where a function declaration is in the pipeline
// (spec.md §3.3).
type AnalysisState int

const (
	NotAnalyzed AnalysisState = iota
	BeingAnalyzed
	Analyzed
	CompletelyTyped
)

func (s AnalysisState) String() string {
	switch s {
	case NotAnalyzed:
		return "NotAnalyzed"
	case BeingAnalyzed:
		return "BeingAnalyzed"
	case Analyzed:
		return "Analyzed"
	case CompletelyTyped:
		return "CompletelyTyped"
	default:
		return "Unknown"
	}
}

// Param is one formal parameter.
type Param struct {
	Name     string
	Declared types.Type // NoType if untyped
	Mutable  bool
}

// TypeParam is a generic function's declared type parameter, carrying its
// interface and structural field constraints (spec.md §3.3).
type TypeParam struct {
	Name       string
	Interfaces []string
	Fields     map[string]types.Type
}

// Specialization records one concrete instantiation of a generic function
// (spec.md §3.4). Two specializations of the same function are equal iff
// their argument tuples are equal element-wise; FunctionDecl enforces the
// content-addressing (one specialization per distinct tuple).
type Specialization struct {
	Args        []types.Type
	Return      types.Type
	Bindings    map[string]types.Type // FinalTypeVariable id -> concrete type
	Used        bool
}

// ArgsEqual reports whether this specialization's argument tuple matches args.
func (s *Specialization) ArgsEqual(args []types.Type) bool {
	if len(s.Args) != len(args) {
		return false
	}
	for i := range args {
		if !s.Args[i].Equals(args[i]) {
			return false
		}
	}
	return true
}

// FunctionDecl is one declared function. A name with more than one
// FunctionDecl sharing it forms an overload set (scope.Binding); a
// generic function is a singleton FunctionDecl whose TypeParams is
// non-empty.
type FunctionDecl struct {
	Pos             Pos
	Name            string
	Params          []Param
	ReturnType      types.Type // NoType if undeclared
	Body            Node       // Expr or *Block
	IsExtern        bool
	IsVariadic      bool
	Module          string
	TypeParams      []TypeParam
	Specializations []*Specialization
	State           AnalysisState
	IsUsed          bool
}

func (f *FunctionDecl) Position() Pos { return f.Pos }

// IsGeneric reports whether this declaration has type parameters.
func (f *FunctionDecl) IsGeneric() bool { return len(f.TypeParams) > 0 }

// FindSpecialization returns the existing specialization for args, if any.
func (f *FunctionDecl) FindSpecialization(args []types.Type) *Specialization {
	for _, s := range f.Specializations {
		if s.ArgsEqual(args) {
			return s
		}
	}
	return nil
}

// AddSpecialization appends a new specialization, enforcing content
// addressing (spec.md §3.4): a specialization whose argument tuple already
// has an entry is not added again.
func (f *FunctionDecl) AddSpecialization(s *Specialization) {
	if f.FindSpecialization(s.Args) != nil {
		return
	}
	f.Specializations = append(f.Specializations, s)
}

// IsCompletelyTyped reports whether every parameter and the return type are
// concrete at declaration, requiring no inference (spec.md §3.3).
func (f *FunctionDecl) IsCompletelyTyped() bool {
	if !types.IsConcrete(f.ReturnType) {
		return false
	}
	for _, p := range f.Params {
		if !types.IsConcrete(p.Declared) {
			return false
		}
	}
	return true
}

// FunctionSignature is one method of an InterfaceDecl.
type FunctionSignature struct {
	Name   string
	Params []types.Type
	Return types.Type
}

// InterfaceDecl is a named set of functions forming a trait-style dispatch
// (spec.md §3.2).
type InterfaceDecl struct {
	Pos       Pos
	Name      string
	Functions []FunctionSignature
}

func (i *InterfaceDecl) Position() Pos { return i.Pos }

// FieldDef is one field of a TypeDecl.
type FieldDef struct {
	Name     string
	Declared types.Type
}

// TypeDecl is a user struct type definition. It implements
// types.Definition so a NominalType can point back to it.
type TypeDecl struct {
	Pos    Pos
	Name   string
	Fields []FieldDef
}

func (t *TypeDecl) Position() Pos   { return t.Pos }
func (t *TypeDecl) DefName() string { return t.Name }

// FieldType looks up a declared field's type by name.
func (t *TypeDecl) FieldType(name string) (types.Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Declared, true
		}
	}
	return nil, false
}
