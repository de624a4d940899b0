// types.go: the static type model.
//
// Pulse has four value types (int, uint, float, string), a void marker for
// value-less positions, and function signatures with ordered parameter and
// result types (multiple results supported). There is no bool: comparisons
// produce int 0/1 and conditions accept any numeric type (nonzero is true).
//
// AnyNumType is a host-contract extension: it is legal only as a parameter
// type of a binding-table function and matches any numeric argument. It
// exists so conversion builtins like as_float need not be declared once per
// source kind.
package pulse

import "strings"

// Kind discriminates the cases of Type.
type Kind int

const (
	KindInvalid Kind = iota // zero value; "no type known/expected"
	KindVoid
	KindInt
	KindUint
	KindFloat
	KindString
	KindFunc
	KindAnyNum // host function parameters only
)

// Type describes a Pulse type. Params/Results are meaningful only when
// Kind == KindFunc. Types are immutable values; compare with Equal.
type Type struct {
	Kind    Kind
	Params  []Type
	Results []Type
}

// Predeclared non-function types.
var (
	VoidType   = Type{Kind: KindVoid}
	IntType    = Type{Kind: KindInt}
	UintType   = Type{Kind: KindUint}
	FloatType  = Type{Kind: KindFloat}
	StringType = Type{Kind: KindString}
	AnyNumType = Type{Kind: KindAnyNum}
)

// FuncType builds a function signature type.
func FuncType(params, results []Type) Type {
	return Type{Kind: KindFunc, Params: params, Results: results}
}

// IsNumeric reports whether t is int, uint or float.
func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindUint || t.Kind == KindFloat
}

// IsValid reports whether t carries a known type (including void).
func (t Type) IsValid() bool { return t.Kind != KindInvalid }

// Equal reports structural equality.
func (t Type) Equal(u Type) bool {
	if t.Kind != u.Kind {
		return false
	}
	if t.Kind != KindFunc {
		return true
	}
	if len(t.Params) != len(u.Params) || len(t.Results) != len(u.Results) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(u.Params[i]) {
			return false
		}
	}
	for i := range t.Results {
		if !t.Results[i].Equal(u.Results[i]) {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case KindInvalid:
		return "<invalid>"
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindAnyNum:
		return "<numeric>"
	case KindFunc:
		var b strings.Builder
		b.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteString(")")
		switch len(t.Results) {
		case 0:
		case 1:
			b.WriteString(" -> ")
			b.WriteString(t.Results[0].String())
		default:
			b.WriteString(" -> (")
			for i, r := range t.Results {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(r.String())
			}
			b.WriteString(")")
		}
		return b.String()
	default:
		return "<unknown>"
	}
}

// typeByName resolves a primitive type keyword ("int", "uint", "float",
// "string") as written in annotations. Returns false for anything else.
func typeByName(name string) (Type, bool) {
	switch name {
	case "int":
		return IntType, true
	case "uint":
		return UintType, true
	case "float":
		return FloatType, true
	case "string":
		return StringType, true
	}
	return Type{}, false
}
