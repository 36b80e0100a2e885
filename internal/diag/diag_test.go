package diag

import (
	"testing"

	"github.com/diamond-lang/diamondc/internal/ast"
	"github.com/diamond-lang/diamondc/internal/types"
)

func TestChannelNeverAborts(t *testing.T) {
	ch := NewChannel()
	ch.Addf(UndefinedVariable, ast.Pos{Line: 1, Col: 1}, "undefined variable %q", "x")
	ch.Addf(UndefinedFunction, ast.Pos{Line: 2, Col: 1}, "undefined function %q", "f")
	if len(ch.All()) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(ch.All()))
	}
	if !ch.HasErrors() {
		t.Fatal("expected HasErrors true")
	}
}

func TestTypeMismatchCarriesBothTypes(t *testing.T) {
	d := NewTypeMismatch(ast.Pos{}, types.Primitive(types.Int64), types.Primitive(types.Bool))
	msg := d.Error()
	if !containsAll(msg, "int64", "bool") {
		t.Fatalf("expected both type names in message, got %q", msg)
	}
}

func TestAbortRecordsAndReturnsError(t *testing.T) {
	ch := NewChannel()
	err := Abort(ch, ConstraintFailed, ast.Pos{}, "cycle")
	if err == nil {
		t.Fatal("expected non-nil error")
	}
	if !ch.HasErrors() {
		t.Fatal("expected the aborting diagnostic to also be recorded")
	}
	if _, ok := err.(*AbortError); !ok {
		t.Fatalf("expected *AbortError, got %T", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
