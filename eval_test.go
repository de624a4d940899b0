package pulse

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

// evalSrc compiles and runs src against a fresh environment with the cast
// builtins bound, returning the script's results.
func evalSrc(t *testing.T, table *BindingTable, env *Environment, src string) []Value {
	t.Helper()
	if env == nil {
		env = NewEnvironment()
	}
	BindCastBuiltins(env)
	s := mustCompile(t, table, src)
	vs, err := s.Eval(env)
	if err != nil {
		t.Fatalf("eval error:\n%s\n%v", src, err)
	}
	return vs
}

func evalFault(t *testing.T, table *BindingTable, env *Environment, src string) *RuntimeFault {
	t.Helper()
	if env == nil {
		env = NewEnvironment()
	}
	BindCastBuiltins(env)
	s := mustCompile(t, table, src)
	_, err := s.Eval(env)
	if err == nil {
		t.Fatalf("expected runtime fault:\n%s", src)
	}
	rf, ok := err.(*RuntimeFault)
	if !ok {
		t.Fatalf("expected *RuntimeFault, got %T: %v", err, err)
	}
	return rf
}

func TestEvalArithmetic(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, "return 2 + 3 * 4, (2 + 3) * 4, 10 / 3, 10 - 4 - 3;")
	be.Equal(t, vs, []Value{IntVal(14), IntVal(20), IntVal(3), IntVal(3)})
}

func TestEvalUintArithmetic(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, `
		let a = 10u;
		return a / 4, a - 12;
	`)
	be.Equal(t, vs[0], UintVal(2))
	be.Equal(t, vs[1], UintVal(math.MaxUint64-1))
}

func TestEvalIntWraps(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, `
		let a = 9223372036854775807;
		return a + 1;
	`)
	be.Equal(t, vs, []Value{IntVal(math.MinInt64)})
}

func TestEvalFloatArithmetic(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, "return 1.5f * 4.0f, 1.0f / 0.0f;")
	be.Equal(t, vs[0], FloatVal(6))
	be.True(t, math.IsInf(vs[1].Float(), 1))
}

func TestEvalIntDivisionByZeroFaults(t *testing.T) {
	rf := evalFault(t, hostTable(t), nil, "let d = 0; return 1 / d;")
	be.True(t, strings.Contains(rf.Msg, "division by zero"))
	be.Equal(t, rf.Pos.Line, 1)

	evalFault(t, hostTable(t), nil, "let d = 0u; return 1 / d;")
}

func TestEvalComparisonsYieldInt(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil,
		"return 3 < 5, 5 < 3, 4 == 4, 4 != 4, 2 >= 2, 1 > 2;")
	be.Equal(t, vs, []Value{IntVal(1), IntVal(0), IntVal(1), IntVal(0), IntVal(1), IntVal(0)})
}

func TestEvalUnaryOperators(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, "return !0, !3, -5, -(2u - 3);")
	be.Equal(t, vs[0], IntVal(1))
	be.Equal(t, vs[1], IntVal(0))
	be.Equal(t, vs[2], IntVal(-5))
	be.Equal(t, vs[3], UintVal(1))
}

func TestEvalShortCircuit(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareFunc("boom", nil, []Type{IntType}), nil)

	env := NewEnvironment()
	env.SetFunc("boom", func([]Value) ([]Value, error) {
		return nil, errors.New("must not run")
	})

	vs := evalSrc(t, table, env, "return 0 && boom(), 1 || boom();")
	be.Equal(t, vs, []Value{IntVal(0), IntVal(1)})
}

func TestEvalLogicalNormalizes(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, "let f = 2.5f; return f && 3.0f, 0.0f || f;")
	be.Equal(t, vs, []Value{IntVal(1), IntVal(1)})
}

func TestEvalStrings(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, `
		let s = "foo" + "bar";
		return s, s == "foobar", s != "foobar";
	`)
	be.Equal(t, vs, []Value{StrVal("foobar"), IntVal(1), IntVal(0)})
}

func TestEvalIfStatementPicksOneBranch(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareFunc("trace", []Type{StringType}, nil), nil)

	var seen []string
	env := NewEnvironment()
	env.SetFunc("trace", func(args []Value) ([]Value, error) {
		seen = append(seen, args[0].Str())
		return nil, nil
	})

	evalSrc(t, table, env, `
		let n = 2;
		if (n == 1) { trace("one"); }
		elif (n == 2) { trace("two"); }
		else { trace("other"); }
	`)
	be.Equal(t, seen, []string{"two"})
}

func TestEvalIfExpression(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, `
		let n = 7;
		let label = if (n < 0) { yield "neg"; } elif (n == 0) { yield "zero"; } else { yield "pos"; };
		return label;
	`)
	be.Equal(t, vs, []Value{StrVal("pos")})
}

func TestEvalBlockExpression(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, `
		let x = { let tt = 3; yield tt * tt; };
		return x;
	`)
	be.Equal(t, vs, []Value{IntVal(9)})
}

func TestEvalReturnInsideExpressionBlock(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, `
		let x = if (1) { return 42; } else { yield 0; };
		return 7;
	`)
	be.Equal(t, vs, []Value{IntVal(42)})
}

func TestEvalDestructuring(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareFunc("pos", nil, []Type{IntType, IntType}), nil)

	calls := 0
	env := NewEnvironment()
	env.SetFunc("pos", func([]Value) ([]Value, error) {
		calls++
		return []Value{IntVal(3), IntVal(-4)}, nil
	})

	vs := evalSrc(t, table, env, "let x, y = pos(); return x, y;")
	be.Equal(t, vs, []Value{IntVal(3), IntVal(-4)})
	be.Equal(t, calls, 1)
}

func TestEvalHostGlobals(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareVar("speed", IntType), nil)
	be.Err(t, table.DeclareVar("name", StringType), nil)

	env := NewEnvironment()
	env.SetVar("speed", IntVal(10))
	env.SetVar("name", StrVal("rover"))

	vs := evalSrc(t, table, env, `return speed * 2, name + "!";`)
	be.Equal(t, vs, []Value{IntVal(20), StrVal("rover!")})
}

func TestEvalMissingEnvironmentEntryFaults(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareVar("speed", IntType), nil)
	rf := evalFault(t, table, NewEnvironment(), "return speed;")
	be.True(t, strings.Contains(rf.Msg, "speed"))

	be.Err(t, table.DeclareFunc("tick", nil, nil), nil)
	rf = evalFault(t, table, NewEnvironment(), "tick();")
	be.True(t, strings.Contains(rf.Msg, "tick"))
}

func TestEvalHostErrorBecomesFault(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareFunc("fail", nil, []Type{IntType}), nil)

	cause := errors.New("disk on fire")
	env := NewEnvironment()
	env.SetFunc("fail", func([]Value) ([]Value, error) { return nil, cause })

	rf := evalFault(t, table, env, "return fail();")
	be.True(t, errors.Is(rf, cause))
	be.True(t, strings.Contains(rf.Msg, "disk on fire"))
}

func TestEvalCastBuiltins(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, `
		return as_int(2.9f), as_uint(7), as_float(3) / 2.0f;
	`)
	be.Equal(t, vs, []Value{IntVal(2), UintVal(7), FloatVal(1.5)})
}

func TestEvalCastRangeFaults(t *testing.T) {
	rf := evalFault(t, hostTable(t), nil, "return as_uint(0 - 1);")
	be.True(t, strings.Contains(rf.Msg, "does not fit"))
}

func TestEvalFallOffEndReturnsNothing(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, "let x = 1; x + 1;")
	be.Equal(t, len(vs), 0)
}

func TestEvalEmptyReturn(t *testing.T) {
	vs := evalSrc(t, hostTable(t), nil, "return;")
	be.Equal(t, len(vs), 0)
}
