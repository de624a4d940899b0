package pulse

import (
	"testing"

	"github.com/nalgeon/be"
)

// --- shared compile helpers --------------------------------------------------

// hostTable builds a table with the cast builtins plus any extra declarations
// the test needs.
func hostTable(t *testing.T) *BindingTable {
	t.Helper()
	table := NewBindingTable()
	if err := DeclareCastBuiltins(table); err != nil {
		t.Fatalf("declare builtins: %v", err)
	}
	return table
}

func mustCompile(t *testing.T, table *BindingTable, src string) *Script {
	t.Helper()
	s, err := Compile(src, table)
	if err != nil {
		t.Fatalf("compile error:\n%s\n%v", src, err)
	}
	return s
}

// wantDiag compiles src expecting semantic failure and asserts that the
// accumulated findings include kind.
func wantDiag(t *testing.T, table *BindingTable, src string, kind DiagKind) Diagnostics {
	t.Helper()
	_, err := Compile(src, table)
	if err == nil {
		t.Fatalf("expected %s for:\n%s", kind, src)
	}
	ds, ok := err.(Diagnostics)
	if !ok {
		t.Fatalf("expected Diagnostics, got %T: %v", err, err)
	}
	if !ds.HasKind(kind) {
		t.Fatalf("findings lack %s:\n%v", kind, ds)
	}
	return ds
}

// --- binding -----------------------------------------------------------------

func TestBindUnresolvedName(t *testing.T) {
	wantDiag(t, hostTable(t), "return missing;", DiagUnresolvedName)
	wantDiag(t, hostTable(t), "missing_fn();", DiagUnresolvedName)
}

func TestBindGlobalAssignmentRejected(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareVar("speed", IntType), nil)
	wantDiag(t, table, "speed = 3;", DiagIllegalShadow)
}

func TestBindShadowGlobalWithDifferentType(t *testing.T) {
	table := hostTable(t)
	be.Err(t, table.DeclareVar("speed", IntType), nil)

	s := mustCompile(t, table, `
		let speed = 1.5f;
		let v: float = speed;
		return v;
	`)
	be.Equal(t, s.ResultTypes(), []Type{FloatType})
}

func TestBindShadowSameScope(t *testing.T) {
	// A second let for the same name is a fresh binding, not a mutation;
	// the initializer still sees the previous one.
	table := hostTable(t)
	s := mustCompile(t, table, `
		let x = 1;
		let x = x + 1;
		return x;
	`)
	vs, err := s.Eval(NewEnvironment())
	be.Err(t, err, nil)
	be.Equal(t, vs, []Value{IntVal(2)})
}

func TestBindBlockScopeEnds(t *testing.T) {
	wantDiag(t, hostTable(t), `
		{ let q = 1; q; }
		return q;
	`, DiagUnresolvedName)
}

func TestBindInnerShadowDoesNotLeak(t *testing.T) {
	table := hostTable(t)
	s := mustCompile(t, table, `
		let x = 1;
		if (1) { let x = 100; x; }
		return x;
	`)
	vs, err := s.Eval(NewEnvironment())
	be.Err(t, err, nil)
	be.Equal(t, vs, []Value{IntVal(1)})
}

func TestBindTableRejectsDuplicates(t *testing.T) {
	table := NewBindingTable()
	be.Err(t, table.DeclareVar("a", IntType), nil)
	be.Err(t, table.DeclareVar("a", FloatType))
}

func TestBindTableRejectsBadTypes(t *testing.T) {
	table := NewBindingTable()
	be.Err(t, table.DeclareVar("v", VoidType))
	be.Err(t, table.DeclareVar("f", FuncType(nil, nil)))
	be.Err(t, table.DeclareVar("n", AnyNumType))
	// AnyNum is fine as a parameter, not as a result.
	be.Err(t, table.DeclareFunc("g", []Type{AnyNumType}, []Type{IntType}), nil)
	be.Err(t, table.DeclareFunc("h", []Type{IntType}, []Type{AnyNumType}))
}
