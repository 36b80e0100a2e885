// Package scope implements the nested lexical scope stack (spec.md §4.3):
// two parallel maps per frame — a mutable variable scope and an
// effectively-immutable functions-and-types scope — with top-down lookup
// and top-frame-only insertion.
package scope

import (
	"fmt"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/types"
)

// BindingKind distinguishes what a functions-and-types entry holds. Spec.md
// §3.2: within one scope a name resolves to at most one binding kind.
type BindingKind int

const (
	KindFunction BindingKind = iota
	KindInterface
	KindType
)

// VarBinding is a variable or function-argument entry in the variable scope.
type VarBinding struct {
	Name    string
	Type    types.Type
	Mutable bool
	// IsArgument distinguishes a FunctionArgument binding from a plain
	// Variable declaration (spec.md §3.2); both live in the variable scope.
	IsArgument bool
}

// FuncBinding is the functions-and-types-scope entry for a name bound to one
// or more function declarations. Concrete functions form an overload set
// (len(Decls) >= 1, none generic); a generic function is always a singleton
// with Decls[0].IsGeneric() true — spec.md §9's "Concrete(Vec<Function>) |
// Generic(Function)" tagged union, collapsed to one slice plus a flag since
// mixing is rejected at insertion time.
type FuncBinding struct {
	Name  string
	Decls []*ast.FunctionDecl
}

func (f *FuncBinding) IsGeneric() bool {
	return len(f.Decls) == 1 && f.Decls[0].IsGeneric()
}

// InterfaceBinding is the functions-and-types-scope entry for a declared
// interface. Attached is transient, per-analysis-run state (e.g. which
// concrete types have been observed to satisfy it in the current function);
// it is cleared whenever the frame that declared the interface is popped
// (spec.md §4.3).
type InterfaceBinding struct {
	Decl     *ast.InterfaceDecl
	Attached map[string]bool
}

// TypeBinding is the functions-and-types-scope entry for a user type
// declaration.
type TypeBinding struct {
	Decl *ast.TypeDecl
}

// entry is the functions-and-types-scope's typed union; exactly one of the
// three pointers is non-nil.
type entry struct {
	kind      BindingKind
	fn        *FuncBinding
	iface     *InterfaceBinding
	typeDecl  *TypeBinding
}

// frame is one lexical level: a variable map and a functions-and-types map.
type frame struct {
	vars    map[string]*VarBinding
	ftypes  map[string]*entry
	// ifaceOwned lists interface names first declared in this frame, so
	// their transient Attached state can be cleared on pop.
	ifaceOwned []string
}

func newFrame() *frame {
	return &frame{
		vars:   make(map[string]*VarBinding),
		ftypes: make(map[string]*entry),
	}
}

// Stack is the nested scope stack; frames[0] is the root (global) scope.
type Stack struct {
	frames []*frame
}

// New returns a stack containing only the root frame.
func New() *Stack {
	return &Stack{frames: []*frame{newFrame()}}
}

// Push opens a new lexical block.
func (s *Stack) Push() {
	s.frames = append(s.frames, newFrame())
}

// Pop closes the innermost block. Per spec.md §4.3, any interface bindings
// declared in the popped frame have their transient attached-method state
// cleared (the binding itself, if it needs to survive, must have been
// declared in an outer frame — popping the frame it lives in removes it
// entirely along with its state).
func (s *Stack) Pop() {
	if len(s.frames) == 1 {
		panic("scope: cannot pop the root frame")
	}
	top := s.frames[len(s.frames)-1]
	for _, name := range top.ifaceOwned {
		if e, ok := top.ftypes[name]; ok && e.iface != nil {
			e.iface.Attached = map[string]bool{}
		}
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// top returns the innermost frame.
func (s *Stack) top() *frame { return s.frames[len(s.frames)-1] }

// DeclareVariable inserts a variable or function-argument binding into the
// top frame. Shadowing a variable from an outer frame is always legal.
func (s *Stack) DeclareVariable(b *VarBinding) {
	s.top().vars[b.Name] = b
}

// LookupVariable walks the stack top-down, variables only.
func (s *Stack) LookupVariable(name string) (*VarBinding, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if b, ok := s.frames[i].vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Lookup resolves name by consulting variables first, then
// functions-and-types, walking frames top-down (spec.md §4.3). It returns
// exactly one of the four possible binding shapes.
func (s *Stack) Lookup(name string) (varB *VarBinding, fn *FuncBinding, iface *InterfaceBinding, typ *TypeBinding, found bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if b, ok := f.vars[name]; ok {
			return b, nil, nil, nil, true
		}
		if e, ok := f.ftypes[name]; ok {
			switch e.kind {
			case KindFunction:
				return nil, e.fn, nil, nil, true
			case KindInterface:
				return nil, nil, e.iface, nil, true
			case KindType:
				return nil, nil, nil, e.typeDecl, true
			}
		}
	}
	return nil, nil, nil, nil, false
}

// DeclareFunction inserts decl under name into the top frame. If the name
// already holds an overload set in that frame, decl is merged into it unless
// either side is generic, in which case it is a
// "generic-overload-conflict" (spec.md §4.3, §9: mixing Concrete/Generic is
// an error). Declaring a function with the name of an existing interface or
// type in the same frame is also an error.
func (s *Stack) DeclareFunction(name string, decl *ast.FunctionDecl) error {
	top := s.top()
	existing, ok := top.ftypes[name]
	if !ok {
		top.ftypes[name] = &entry{kind: KindFunction, fn: &FuncBinding{Name: name, Decls: []*ast.FunctionDecl{decl}}}
		return nil
	}
	switch existing.kind {
	case KindInterface:
		return fmt.Errorf("scope: %q is already declared as an interface", name)
	case KindType:
		return fmt.Errorf("scope: %q is already declared as a type", name)
	case KindFunction:
		fb := existing.fn
		if decl.IsGeneric() || fb.IsGeneric() {
			return fmt.Errorf("scope: generic-overload-conflict for %q", name)
		}
		fb.Decls = append(fb.Decls, decl)
		return nil
	}
	return nil
}

// DeclareInterface inserts an interface declaration into the top frame.
func (s *Stack) DeclareInterface(decl *ast.InterfaceDecl) error {
	top := s.top()
	if _, ok := top.ftypes[decl.Name]; ok {
		return fmt.Errorf("scope: %q is already declared in this scope", decl.Name)
	}
	top.ftypes[decl.Name] = &entry{kind: KindInterface, iface: &InterfaceBinding{Decl: decl, Attached: map[string]bool{}}}
	top.ifaceOwned = append(top.ifaceOwned, decl.Name)
	return nil
}

// DeclareType inserts a type declaration into the top frame. Redeclaring an
// existing name (of any kind) in the same frame is always an error (spec.md
// §4.3: "Adding a type with an existing name is an error").
func (s *Stack) DeclareType(decl *ast.TypeDecl) error {
	top := s.top()
	if _, ok := top.ftypes[decl.Name]; ok {
		return fmt.Errorf("scope: redefined-type %q", decl.Name)
	}
	top.ftypes[decl.Name] = &entry{kind: KindType, typeDecl: &TypeBinding{Decl: decl}}
	return nil
}

// Depth returns the current number of open frames, root included.
func (s *Stack) Depth() int { return len(s.frames) }

// ExportedFunctions returns every function declaration in the root frame,
// flattening each overload set (used by internal/dmodule to inject one
// module's top-level declarations into an importer's scope).
func (s *Stack) ExportedFunctions() []*ast.FunctionDecl {
	var out []*ast.FunctionDecl
	for _, e := range s.frames[0].ftypes {
		if e.kind == KindFunction {
			out = append(out, e.fn.Decls...)
		}
	}
	return out
}

// ExportedInterfaces returns every interface declared in the root frame.
func (s *Stack) ExportedInterfaces() []*ast.InterfaceDecl {
	var out []*ast.InterfaceDecl
	for _, e := range s.frames[0].ftypes {
		if e.kind == KindInterface {
			out = append(out, e.iface.Decl)
		}
	}
	return out
}

// ExportedTypes returns every type declared in the root frame.
func (s *Stack) ExportedTypes() []*ast.TypeDecl {
	var out []*ast.TypeDecl
	for _, e := range s.frames[0].ftypes {
		if e.kind == KindType {
			out = append(out, e.typeDecl.Decl)
		}
	}
	return out
}
