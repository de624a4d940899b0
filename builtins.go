// builtins.go: the standard conversion builtins.
//
// Pulse has no implicit numeric conversion, so scripts that mix widths call
// these host functions. They come in two halves, mirroring the table/
// environment split: DeclareCastBuiltins registers the signatures (each
// takes one argument of any numeric type), BindCastBuiltins supplies the
// implementations. Hosts normally call both, but can bind their own
// replacements as long as the signatures match.
package pulse

import "fmt"

// DeclareCastBuiltins adds as_int, as_uint and as_float to table.
func DeclareCastBuiltins(table *BindingTable) error {
	for name, result := range map[string]Type{
		"as_int":   IntType,
		"as_uint":  UintType,
		"as_float": FloatType,
	} {
		if err := table.DeclareFunc(name, []Type{AnyNumType}, []Type{result}); err != nil {
			return err
		}
	}
	return nil
}

// BindCastBuiltins installs the conversion implementations into env.
func BindCastBuiltins(env *Environment) {
	env.SetFunc("as_int", func(args []Value) ([]Value, error) {
		v, err := castInt(args[0])
		if err != nil {
			return nil, err
		}
		return []Value{v}, nil
	})
	env.SetFunc("as_uint", func(args []Value) ([]Value, error) {
		v, err := castUint(args[0])
		if err != nil {
			return nil, err
		}
		return []Value{v}, nil
	})
	env.SetFunc("as_float", func(args []Value) ([]Value, error) {
		return []Value{castFloat(args[0])}, nil
	})
}

// castInt converts with range checking: a value that does not fit in int64
// is an error rather than a silent wrap, since the script asked for the
// value, not its bit pattern.
func castInt(v Value) (Value, error) {
	switch v.Tag {
	case VTInt:
		return v, nil
	case VTUint:
		u := v.Uint()
		if u > 1<<63-1 {
			return Value{}, fmt.Errorf("%du does not fit in int", u)
		}
		return IntVal(int64(u)), nil
	case VTFloat:
		f := v.Float()
		if f != f || f < -(1<<63) || f >= 1<<63 {
			return Value{}, fmt.Errorf("%g does not fit in int", f)
		}
		return IntVal(int64(f)), nil
	}
	return Value{}, fmt.Errorf("as_int: non-numeric argument")
}

func castUint(v Value) (Value, error) {
	switch v.Tag {
	case VTUint:
		return v, nil
	case VTInt:
		n := v.Int()
		if n < 0 {
			return Value{}, fmt.Errorf("%d does not fit in uint", n)
		}
		return UintVal(uint64(n)), nil
	case VTFloat:
		f := v.Float()
		if f != f || f < 0 || f >= 1<<64 {
			return Value{}, fmt.Errorf("%g does not fit in uint", f)
		}
		return UintVal(uint64(f)), nil
	}
	return Value{}, fmt.Errorf("as_uint: non-numeric argument")
}

// castFloat never fails: every int64 and uint64 has a nearest float64.
func castFloat(v Value) Value {
	switch v.Tag {
	case VTInt:
		return FloatVal(float64(v.Int()))
	case VTUint:
		return FloatVal(float64(v.Uint()))
	default:
		return v
	}
}
