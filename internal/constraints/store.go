// Package constraints implements the per-analysis-run constraint store
// (spec.md §3.5, §9): a union-find over TypeVariable ids for equivalence
// classes, plus interface, structural-field, and parameter constraint maps
// keyed by type variable, and the final type-bindings substitution produced
// per specialization. Grounded on original_source/src/semantic/context.hpp's
// TypeInference struct — the "later, richer" design spec.md §9 calls
// authoritative.
package constraints

import (
	"fmt"
	"sort"

	"github.com/diamond-lang/diamondc/internal/types"
)

// FieldConstraint is one (field_name, type_variable) pair of a structural
// field constraint, insertion-ordered (spec.md §9).
type FieldConstraint struct {
	Field string
	Var   int
}

// ParameterConstraint records that a type variable must be instantiated as
// container[Param] for some container name — e.g. "must be pointer[X]" at a
// dereference site (spec.md §4.5, SPEC_FULL §4.2).
type ParameterConstraint struct {
	Container string
	Param     int
}

// Store is one function body's (or the top-level block's) constraint
// accumulator. It is never shared across functions (spec.md §4.6: "private
// solver" per function).
type Store struct {
	parent map[int]int // union-find parent pointers, keyed by TypeVariable id
	rank   map[int]int

	// members lists every TypeVariable id that has been registered, so
	// class enumeration (for Label) is deterministic.
	members []int
	seen    map[int]bool

	// concrete records any non-variable Type unified into a variable's
	// class; multiple conflicting concrete members is a label-time error.
	concrete map[int][]types.Type

	interfaceConstraints map[int]map[string]bool
	fieldConstraints     map[int][]FieldConstraint
	parameterConstraints map[int][]ParameterConstraint

	nextFinalID int
}

// New returns an empty constraint store.
func New() *Store {
	return &Store{
		parent:               make(map[int]int),
		rank:                 make(map[int]int),
		seen:                 make(map[int]bool),
		concrete:             make(map[int][]types.Type),
		interfaceConstraints: make(map[int]map[string]bool),
		fieldConstraints:     make(map[int][]FieldConstraint),
		parameterConstraints: make(map[int][]ParameterConstraint),
	}
}

func (s *Store) register(id int) {
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.parent[id] = id
	s.rank[id] = 0
	s.members = append(s.members, id)
}

// find returns the representative id of v's equivalence class, path-compressing.
func (s *Store) find(v int) int {
	s.register(v)
	if s.parent[v] != v {
		s.parent[v] = s.find(s.parent[v])
	}
	return s.parent[v]
}

// Union merges the equivalence classes of a and b (spec.md §4.6 step 1:
// "merge equivalence classes that share any element", modeled as union-find
// per spec.md §9's design note).
func (s *Store) Union(a, b int) {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return
	}
	if s.rank[ra] < s.rank[rb] {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	if s.rank[ra] == s.rank[rb] {
		s.rank[ra]++
	}
	s.concrete[ra] = append(s.concrete[ra], s.concrete[rb]...)
	delete(s.concrete, rb)
	s.mergeInterfaces(ra, rb)
	s.mergeFields(ra, rb)
	s.mergeParameters(ra, rb)
}

func (s *Store) mergeInterfaces(ra, rb int) {
	if s.interfaceConstraints[rb] == nil {
		return
	}
	if s.interfaceConstraints[ra] == nil {
		s.interfaceConstraints[ra] = make(map[string]bool)
	}
	for name := range s.interfaceConstraints[rb] {
		s.interfaceConstraints[ra][name] = true
	}
	delete(s.interfaceConstraints, rb)
}

func (s *Store) mergeFields(ra, rb int) {
	if len(s.fieldConstraints[rb]) == 0 {
		return
	}
	existing := map[string]bool{}
	for _, fc := range s.fieldConstraints[ra] {
		existing[fc.Field] = true
	}
	for _, fc := range s.fieldConstraints[rb] {
		if !existing[fc.Field] {
			s.fieldConstraints[ra] = append(s.fieldConstraints[ra], fc)
		}
	}
	delete(s.fieldConstraints, rb)
}

func (s *Store) mergeParameters(ra, rb int) {
	if len(s.parameterConstraints[rb]) == 0 {
		return
	}
	s.parameterConstraints[ra] = append(s.parameterConstraints[ra], s.parameterConstraints[rb]...)
	delete(s.parameterConstraints, rb)
}

// AddEquality records that variable v's class must also contain the
// concrete type t (called when a variable is unified against a non-variable
// type; the variable side still gets registered so it can be merged with
// other variables later).
func (s *Store) AddEquality(v int, t types.Type) {
	r := s.find(v)
	s.concrete[r] = append(s.concrete[r], t)
}

// AddInterfaceConstraint records that v must inhabit the named interface.
func (s *Store) AddInterfaceConstraint(v int, iface string) {
	r := s.find(v)
	if s.interfaceConstraints[r] == nil {
		s.interfaceConstraints[r] = make(map[string]bool)
	}
	s.interfaceConstraints[r][iface] = true
}

// InterfacesOf returns the set of interface names constraining v's class.
func (s *Store) InterfacesOf(v int) map[string]bool {
	return s.interfaceConstraints[s.find(v)]
}

// AddFieldConstraint records that v's class, once resolved, must be a
// nominal type with a field named field whose type unifies with fieldVar.
func (s *Store) AddFieldConstraint(v int, field string, fieldVar int) {
	r := s.find(v)
	for _, fc := range s.fieldConstraints[r] {
		if fc.Field == field {
			// Same field requested twice: unify the two field-type
			// variables rather than recording a duplicate entry.
			s.Union(fc.Var, fieldVar)
			return
		}
	}
	s.fieldConstraints[r] = append(s.fieldConstraints[r], FieldConstraint{Field: field, Var: fieldVar})
}

// FieldsOf returns the insertion-ordered field constraints on v's class.
func (s *Store) FieldsOf(v int) []FieldConstraint {
	return s.fieldConstraints[s.find(v)]
}

// AddParameterConstraint records that v's class must resolve to
// container[param] for some concrete param.
func (s *Store) AddParameterConstraint(v int, container string, param int) {
	r := s.find(v)
	s.parameterConstraints[r] = append(s.parameterConstraints[r], ParameterConstraint{Container: container, Param: param})
}

// ParametersOf returns the parameter constraints on v's class.
func (s *Store) ParametersOf(v int) []ParameterConstraint {
	return s.parameterConstraints[s.find(v)]
}

// Class returns every TypeVariable id currently in the same equivalence
// class as v, sorted for determinism.
func (s *Store) Class(v int) []int {
	r := s.find(v)
	var out []int
	for _, id := range s.members {
		if s.find(id) == r {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// ConcreteMembers returns the non-variable types that have been unified into
// v's class (used by Label to find the unique representative, or detect a
// conflict when there is more than one distinct one).
func (s *Store) ConcreteMembers(v int) []types.Type {
	return s.concrete[s.find(v)]
}

// Representatives returns the distinct class representatives across every
// registered variable, in first-registration order (deterministic labeling
// order for Unifier.Label).
func (s *Store) Representatives() []int {
	var out []int
	seenRep := map[int]bool{}
	for _, id := range s.members {
		r := s.find(id)
		if !seenRep[r] {
			seenRep[r] = true
			out = append(out, r)
		}
	}
	return out
}

// FreshFinalID mints the next surface-visible FinalTypeVariable id:
// "a", "b", ..., "z", "a1", "b1", ... (spec.md §3.1).
func (s *Store) FreshFinalID() string {
	id := s.nextFinalID
	s.nextFinalID++
	letter := rune('a' + id%26)
	gen := id / 26
	if gen == 0 {
		return string(letter)
	}
	return fmt.Sprintf("%c%d", letter, gen)
}
