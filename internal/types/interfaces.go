package types

// Built-in interface (trait) names, per spec.md GLOSSARY. User interfaces
// are declared by name in ast.InterfaceDecl and referenced the same way.
const (
	Number = "Number"
	Float  = "Float"
)

// DefaultFor returns the concrete type an unresolved variable constrained
// only by the given built-in interface defaults to (spec.md §4.6 step 4,
// §8 invariant 6). ok is false for a non-built-in (user) interface name,
// which has no default.
func DefaultFor(iface string) (Type, bool) {
	switch iface {
	case Number:
		return Primitive(Int64), true
	case Float:
		return Primitive(Float64), true
	default:
		return nil, false
	}
}

// Satisfies reports whether a concrete type inhabits a built-in interface.
// User interfaces are not decidable from the type alone (they depend on
// which functions are declared against it), so Satisfies only ever returns
// true for Number/Float; callers must check user interfaces via the scope's
// interface declarations instead.
func Satisfies(t Type, iface string) bool {
	switch iface {
	case Number:
		return IsInteger(t) || IsFloat(t)
	case Float:
		return IsFloat(t)
	default:
		return false
	}
}

// MeetInterfaces composes two interface domains lattice-style: Number ⊓
// Float = Float; any two others that disagree is a conflict (ok=false).
func MeetInterfaces(a, b string) (result string, ok bool) {
	if a == b {
		return a, true
	}
	if a == Number && b == Float {
		return Float, true
	}
	if a == Float && b == Number {
		return Float, true
	}
	return "", false
}
