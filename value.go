// value.go: the runtime value model.
//
// Value is a small tagged union covering the four Pulse value types. Widths
// are fixed by this implementation's host contract: int64, uint64, float64.
package pulse

import (
	"fmt"
	"strconv"
)

// ValueTag enumerates the runtime kinds a Value may hold.
type ValueTag int

const (
	VTInt ValueTag = iota
	VTUint
	VTFloat
	VTStr
)

// Value is the universal runtime carrier. Tag determines which field of
// Data is valid: int64, uint64, float64 or string.
type Value struct {
	Tag  ValueTag
	Data any
}

// Constructors.
func IntVal(n int64) Value     { return Value{Tag: VTInt, Data: n} }
func UintVal(n uint64) Value   { return Value{Tag: VTUint, Data: n} }
func FloatVal(f float64) Value { return Value{Tag: VTFloat, Data: f} }
func StrVal(s string) Value    { return Value{Tag: VTStr, Data: s} }

// Accessors. They panic on tag mismatch; after a successful type check the
// evaluator never mismatches.
func (v Value) Int() int64     { return v.Data.(int64) }
func (v Value) Uint() uint64   { return v.Data.(uint64) }
func (v Value) Float() float64 { return v.Data.(float64) }
func (v Value) Str() string    { return v.Data.(string) }

// TypeOf reports the static type a value inhabits.
func (v Value) TypeOf() Type {
	switch v.Tag {
	case VTInt:
		return IntType
	case VTUint:
		return UintType
	case VTFloat:
		return FloatType
	default:
		return StringType
	}
}

// Truthy applies the numeric truthiness rule: nonzero is true. Strings are
// never conditions (the checker rejects them); Truthy reports false for them.
func (v Value) Truthy() bool {
	switch v.Tag {
	case VTInt:
		return v.Int() != 0
	case VTUint:
		return v.Uint() != 0
	case VTFloat:
		return v.Float() != 0
	default:
		return false
	}
}

// String renders a human-friendly representation.
func (v Value) String() string {
	switch v.Tag {
	case VTInt:
		return strconv.FormatInt(v.Int(), 10)
	case VTUint:
		return strconv.FormatUint(v.Uint(), 10) + "u"
	case VTFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case VTStr:
		return fmt.Sprintf("%q", v.Str())
	default:
		return "<unknown>"
	}
}
