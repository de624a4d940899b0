// script.go: the embedding entry points.
//
// Compile is the whole front end behind one call: scan, parse, bind, check.
// Lexing and parsing fail fast on the first malformed construct; once a tree
// exists, binding and checking run to completion and report every finding in
// one Diagnostics value. The resulting Script is immutable and safe to
// evaluate from any number of goroutines at once, each invocation against
// its own Environment.
package pulse

// Script is a compiled, type-checked program. It holds no evaluation state.
type Script struct {
	prog     *Program
	table    *BindingTable
	results  []Type
	numSlots int
	src      string
}

// Compile builds a script from source against the host contract in table.
// Scan and parse failures return *LexError or *ParseError; semantic failures
// return Diagnostics with every finding. The table must not change while the
// returned script is alive.
func Compile(src string, table *BindingTable) (*Script, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}

	var diags Diagnostics
	locals := bindProgram(prog, table, &diags)
	results := checkProgram(prog, table, &diags)
	if len(diags) > 0 {
		return nil, diags
	}

	return &Script{
		prog:     prog,
		table:    table,
		results:  results,
		numSlots: len(locals),
		src:      src,
	}, nil
}

// Eval runs the script against env, which must supply every binding the
// table declares. Each call gets fresh local storage, so concurrent Eval
// calls on one script are safe as long as they do not share a mutated
// Environment. Failures are *RuntimeFault.
func (s *Script) Eval(env *Environment) ([]Value, error) {
	return evalProgram(s.prog, s.numSlots, env)
}

// ResultTypes reports the script's result shape: the host-declared shape, or
// the one fixed by the script's first return, or empty when the script never
// returns a value.
func (s *Script) ResultTypes() []Type {
	return append([]Type(nil), s.results...)
}

// Source reports the text the script was compiled from, for error rendering.
func (s *Script) Source() string { return s.src }
