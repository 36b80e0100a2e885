// Package diag implements the error channel (spec.md §4.9, §7): structured,
// accumulating diagnostics that never abort the caller. Codes follow the
// teacher's per-family stable-code taxonomy (internal/errors/codes.go's
// PAR###/MOD###/TC### families), adapted to this spec's ErrorKind set.
package diag

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/types"
)

// normalizeMessage applies the same NFC normalization the teacher's lexer
// boundary performs on source text (internal/lexer/normalize.go), so a
// diagnostic message built from a source identifier displays identically
// regardless of the identifier's original Unicode normalization form.
// IsNormalString is the fast, allocation-free path for the common case.
func normalizeMessage(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// Kind is the ErrorKind taxonomy of spec.md §7.
type Kind string

const (
	FileNotFound          Kind = "file-not-found"
	ParseError            Kind = "parse-error"
	UndefinedVariable     Kind = "undefined-variable"
	UndefinedFunction     Kind = "undefined-function"
	UndefinedType         Kind = "undefined-type"
	AmbiguousCall         Kind = "ambiguous-call"
	ReassigningImmutable  Kind = "reassigning-immutable"
	IncompatibleTypes     Kind = "incompatible-types"
	UnhandledReturnValue  Kind = "unhandled-return-value"
	RedefinedType         Kind = "redefined-type"
	GenericOverloadConfl  Kind = "generic-overload-conflict"
	NotAllFieldsInit      Kind = "not-all-fields-initialized"
	MissingField          Kind = "missing-field"
	IncompatibleReturn    Kind = "incompatible-return-type"
	ConstraintFailed      Kind = "constraint-failed"
	CircularDependency    Kind = "circular-dependency"
)

// Code maps each Kind to a stable family code, grounded on the teacher's
// internal/errors/codes.go PAR###/MOD###/TC###/LDR### convention. This
// module's families: SEM### (semantic pass errors proper), MOD### (module
// loader errors), SCP### (scope/binding errors).
var codeTable = map[Kind]string{
	FileNotFound:         "MOD001",
	ParseError:           "MOD002",
	UndefinedVariable:    "SEM001",
	UndefinedFunction:    "SEM002",
	UndefinedType:        "SEM003",
	AmbiguousCall:        "SEM004",
	ReassigningImmutable: "SCP001",
	IncompatibleTypes:    "SEM005",
	UnhandledReturnValue: "SEM006",
	RedefinedType:        "SCP002",
	GenericOverloadConfl: "SCP003",
	NotAllFieldsInit:     "SEM007",
	MissingField:         "SEM008",
	IncompatibleReturn:   "SEM009",
	ConstraintFailed:     "SEM010",
	CircularDependency:   "MOD003",
}

func Code(k Kind) string {
	if c, ok := codeTable[k]; ok {
		return c
	}
	return "SEM000"
}

// Diagnostic is one reported error, carrying enough to render a one-line
// English description plus the conflicting types' display forms for type
// errors (spec.md §7).
type Diagnostic struct {
	Kind     Kind
	Code     string
	Pos      ast.Pos
	Message  string
	Expected types.Type // nil unless the kind is type-related
	Actual   types.Type // nil unless the kind is type-related
}

func (d *Diagnostic) Error() string {
	s := fmt.Sprintf("%s: [%s] %s", d.Pos.String(), d.Code, d.Message)
	if d.Expected != nil && d.Actual != nil {
		s += fmt.Sprintf(" (expected %s, got %s)", d.Expected.String(), d.Actual.String())
	}
	return s
}

// New constructs a Diagnostic with its code filled in from kind.
func New(kind Kind, pos ast.Pos, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Code: Code(kind), Pos: pos, Message: normalizeMessage(message)}
}

// NewTypeMismatch constructs an incompatible-types diagnostic carrying both
// sides' display forms (teacher precedent: internal/types/errors.go's
// NewTypeMismatchError).
func NewTypeMismatch(pos ast.Pos, expected, actual types.Type) *Diagnostic {
	return &Diagnostic{
		Kind:     IncompatibleTypes,
		Code:     Code(IncompatibleTypes),
		Pos:      pos,
		Message:  "incompatible types",
		Expected: expected,
		Actual:   actual,
	}
}

// Channel accumulates diagnostics across one module's analysis (spec.md
// §4.9): operations record into it and continue; the caller decides when to
// stop. Channel holds only the diagnostic list; the propagation policy of
// spec.md §7 (collection errors never abort, unification/specialization
// failures abort only the enclosing function) is carried by Abort and
// AbortError, not by Channel.
type Channel struct {
	diags []*Diagnostic
}

// NewChannel returns an empty accumulator.
func NewChannel() *Channel { return &Channel{} }

// Add records a diagnostic and continues.
func (c *Channel) Add(d *Diagnostic) { c.diags = append(c.diags, d) }

// Addf is a convenience wrapper around New+Add.
func (c *Channel) Addf(kind Kind, pos ast.Pos, format string, args ...interface{}) {
	c.Add(New(kind, pos, fmt.Sprintf(format, args...)))
}

// All returns every accumulated diagnostic, in report order.
func (c *Channel) All() []*Diagnostic { return c.diags }

// HasErrors reports whether any diagnostic has been recorded.
func (c *Channel) HasErrors() bool { return len(c.diags) > 0 }

// Merge appends another channel's diagnostics onto this one, preserving
// order (used when a module's analysis pulls in diagnostics accumulated
// while analyzing a dependency).
func (c *Channel) Merge(other *Channel) {
	c.diags = append(c.diags, other.diags...)
}

// AbortError wraps a Diagnostic that aborts the enclosing function's
// analysis (unification/specialization failures per spec.md §7), as
// distinct from a diagnostic merely recorded during collection. The caller
// (internal/analyzer) catches this to move on to the next top-level
// definition rather than failing the whole module.
type AbortError struct {
	Diag *Diagnostic
}

func (e *AbortError) Error() string { return e.Diag.Error() }

// Abort constructs an AbortError from a kind/pos/message, also recording the
// diagnostic into ch so it still surfaces in the final report.
func Abort(ch *Channel, kind Kind, pos ast.Pos, message string) error {
	d := New(kind, pos, message)
	ch.Add(d)
	return &AbortError{Diag: d}
}
