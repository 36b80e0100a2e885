package ast

// UseDirective is `use "path"` — a private, non-transitive import (spec.md
// §4.4, §6.3): its exports are visible only in the importing module, never
// re-exported to modules that import this one.
type UseDirective struct {
	Pos  Pos
	Path string
}

func (u *UseDirective) Position() Pos { return u.Pos }

// IncludeDirective is `include "path"` — a transitive, re-exporting import.
// Definitions pulled in by an include become visible to anyone who imports
// the including module in turn (spec.md §4.4, §9 Open Question 2).
type IncludeDirective struct {
	Pos  Pos
	Path string
}

func (i *IncludeDirective) Position() Pos { return i.Pos }

// Program is the root node the analyzer consumes (spec.md §6.1): a sequence
// of use/include directives, top-level statements, and top-level
// declarations (functions, interfaces, types).
type Program struct {
	Pos        Pos
	Module     string
	Uses       []*UseDirective
	Includes   []*IncludeDirective
	Statements []Node
	Functions  []*FunctionDecl
	Interfaces []*InterfaceDecl
	Types      []*TypeDecl
}

func (p *Program) Position() Pos { return p.Pos }
