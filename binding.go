// binding.go: the host contract.
//
// A BindingTable is the compile-time half: a name -> type contract declared
// by the host before compilation. An Environment is the run-time half: the
// concrete values and callables for every table entry, supplied per
// invocation. The core trusts the host to keep the two in agreement (the
// table it compiled against must describe the environment it evaluates
// against); it never re-checks value shapes at run time.
//
/// Both halves are plain data with no locks: a table must not be mutated
// while compilations that saw it are in flight, and a single Environment
// must not be shared by concurrent evaluations that mutate it. Distinct
// environments over one table and one compiled script are safe in parallel.
package pulse

import "fmt"

/// BindingTable declares the host globals visible to a compilation: data
// globals with a value type and host functions with a signature.
type BindingTable struct {
	entries map[string]Type

	results         []Type
	resultsDeclared bool
}

// NewBindingTable creates an empty table.
func NewBindingTable() *BindingTable {
	return &BindingTable{entries: make(map[string]Type)}
}

// DeclareVar declares a read-only data global.
func (bt *BindingTable) DeclareVar(name string, t Type) error {
	if !t.IsValid() || t.Kind == KindFunc || t.Kind == KindVoid || t.Kind == KindAnyNum {
		return fmt.Errorf("binding %q: invalid data global type %s", name, t)
	}
	return bt.declare(name, t)
}

// DeclareFunc declares a host function. AnyNumType is allowed as a parameter
// type and matches any numeric argument.
func (bt *BindingTable) DeclareFunc(name string, params, results []Type) error {
	for _, r := range results {
		if !r.IsValid() || r.Kind == KindFunc || r.Kind == KindVoid || r.Kind == KindAnyNum {
			return fmt.Errorf("binding %q: invalid result type %s", name, r)
		}
	}
	for _, pt := range params {
		if !pt.IsValid() || pt.Kind == KindFunc || pt.Kind == KindVoid {
			return fmt.Errorf("binding %q: invalid parameter type %s", name, pt)
		}
	}
	return bt.declare(name, FuncType(params, results))
}

func (bt *BindingTable) declare(name string, t Type) error {
	if _, dup := bt.entries[name]; dup {
		return fmt.Errorf("binding %q: declared twice", name)
	}
	bt.entries[name] = t
	return nil
}

// DeclareResult pins the script result shape: every top-level return must
// match it. Without it, the first type-checked return fixes the shape.
func (bt *BindingTable) DeclareResult(types ...Type) {
	bt.results = append([]Type(nil), types...)
	bt.resultsDeclared = true
}

// Lookup resolves a declared binding.
func (bt *BindingTable) Lookup(name string) (Type, bool) {
	t, ok := bt.entries[name]
	return t, ok
}

// HostFunc is the implementation of a declared host function. Args arrive in
// declaration order with types per the binding table; the returned values
// must match the declared results. A non-nil error aborts the invocation as
// a RuntimeFault.
type HostFunc func(args []Value) ([]Value, error)

// Environment supplies concrete values and behavior for one evaluation.
type Environment struct {
	vars  map[string]Value
	funcs map[string]HostFunc
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{
		vars:  make(map[string]Value),
		funcs: make(map[string]HostFunc),
	}
}

// SetVar supplies the value of a data global.
func (env *Environment) SetVar(name string, v Value) {
	env.vars[name] = v
}

// SetFunc supplies the implementation of a host function.
func (env *Environment) SetFunc(name string, fn HostFunc) {
	env.funcs[name] = fn
}

// Var reads a data global.
func (env *Environment) Var(name string) (Value, bool) {
	v, ok := env.vars[name]
	return v, ok
}

// Func reads a host function.
func (env *Environment) Func(name string) (HostFunc, bool) {
	fn, ok := env.funcs[name]
	return fn, ok
}
