// checker.go: static type checking and definite assignment.
//
// The checker runs after binding in one post-order walk. Three rules carry
// most of the weight:
//
//   - Literal typing is contextual. An unsuffixed int literal has no type of
//     its own; it adopts the type the surrounding expression expects (an
//     annotation, the other operand, a parameter) and defaults to int when
//     nothing constrains it. Suffixes pin a literal and win over context, so
//     a pinned literal in the wrong context is an error, never a silent
//     conversion.
//   - Operands must already agree. Arithmetic, comparison and logical
//     operators require both sides to have the same type; there is no
//     implicit numeric promotion. Conversions go through host builtins.
//   - Values flow only where a value of that exact type is expected. Both
//     forms of branching unify: an expression-form if needs every arm to
//     yield one common type.
//
// Definite assignment is flow-sensitive over the statement list: a local is
// readable once every path from its declaration assigns it. Branch arms are
// checked against a clone of the incoming set and the join keeps the
// intersection; an if without else contributes nothing. Arms that end in
// return are excluded from the join.
//
// Like the binder, the checker reports everything it finds and keeps going,
// using the invalid type as a poison marker so one mistake is one message.
package pulse

import (
	"fmt"
	"math"
)

// assignSet tracks the locals definitely assigned at a program point.
type assignSet map[*Symbol]struct{}

func (s assignSet) has(sym *Symbol) bool { _, ok := s[sym]; return ok }
func (s assignSet) add(sym *Symbol)      { s[sym] = struct{}{} }

func (s assignSet) clone() assignSet {
	out := make(assignSet, len(s))
	for sym := range s {
		out[sym] = struct{}{}
	}
	return out
}

// mergeIntersection adds to s every symbol present in all of sets. With no
// sets it adds nothing.
func (s assignSet) mergeIntersection(sets []assignSet) {
	if len(sets) == 0 {
		return
	}
	for sym := range sets[0] {
		in := true
		for _, other := range sets[1:] {
			if !other.has(sym) {
				in = false
				break
			}
		}
		if in {
			s.add(sym)
		}
	}
}

type checker struct {
	diags *Diagnostics

	// Script result shape. Either declared up front by the host or fixed
	// by the first return the checker reaches.
	results      []Type
	resultsFixed bool
}

// checkProgram type-checks a bound program and returns the script's result
// shape. Findings land in diags.
func checkProgram(prog *Program, table *BindingTable, diags *Diagnostics) []Type {
	c := &checker{diags: diags}
	if table.resultsDeclared {
		c.results = append([]Type(nil), table.results...)
		c.resultsFixed = true
	}

	as := make(assignSet)
	terminates := c.checkStmts(prog.Stmts, as)

	if len(c.results) > 0 && !terminates {
		pos := Pos{Line: 1}
		if len(prog.Stmts) > 0 {
			pos = prog.Stmts[len(prog.Stmts)-1].Pos()
		}
		c.report(DiagArityMismatch, pos,
			"script can finish without returning its declared %d value(s)", len(c.results))
	}
	return c.results
}

func (c *checker) report(kind DiagKind, pos Pos, format string, args ...any) {
	*c.diags = append(*c.diags, Diagnostic{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos})
}

// checkStmts checks a statement sequence and reports whether it terminates
// on every path (reaches a return unconditionally). Statements after a
// terminating one are unreachable but still checked.
func (c *checker) checkStmts(stmts []Stmt, as assignSet) bool {
	terminates := false
	for _, s := range stmts {
		if c.checkStmt(s, as) {
			terminates = true
		}
	}
	return terminates
}

func (c *checker) checkStmt(s Stmt, as assignSet) bool {
	switch n := s.(type) {
	case *LetStmt:
		c.checkLet(n, as)
	case *AssignStmt:
		c.checkAssign(n, as)
	case *ExprStmt:
		// A call in statement position may return any number of values,
		// including none; whatever it produces is discarded.
		if call, ok := n.X.(*CallExpr); ok {
			c.checkCall(call, as)
		} else {
			c.checkExpr(n.X, Type{}, as)
		}
	case *ReturnStmt:
		c.checkReturn(n, as)
		return true
	case *If:
		return c.checkIfStmt(n, as)
	case *Block:
		// Statement blocks run unconditionally, so their assignments to
		// outer locals stick.
		return c.checkStmts(n.Stmts, as)
	case *YieldStmt:
		// Unreachable via the parser outside expression blocks.
		c.checkExpr(n.Value, Type{}, as)
	case *EmptyStmt:
	}
	return false
}

func (c *checker) checkLet(n *LetStmt, as assignSet) {
	if len(n.Names) > 1 {
		c.checkDestructure(n, as)
		return
	}

	d := n.Names[0]
	var ann Type
	if n.Ann != nil {
		ann = n.Ann[0]
	}

	if n.Init == nil {
		if !ann.IsValid() {
			c.report(DiagTypeMismatch, n.Pos(),
				"declaration of %q needs a type annotation or an initializer", d.Name)
		}
		if d.Sym != nil {
			d.Sym.Type = ann
		}
		return
	}

	t := c.checkExpr(n.Init, ann, as)
	if ann.IsValid() {
		if t.IsValid() && !t.Equal(ann) {
			c.report(DiagTypeMismatch, n.Init.Pos(),
				"cannot initialize %s %q with %s value", ann, d.Name, t)
		}
		t = ann
	}
	if d.Sym != nil {
		d.Sym.Type = t
		as.add(d.Sym)
	}
}

// checkDestructure handles "let x, y = f();". The parser guarantees the
// initializer is a call.
func (c *checker) checkDestructure(n *LetStmt, as assignSet) {
	call, ok := n.Init.(*CallExpr)
	if !ok {
		return
	}
	rs := c.checkCall(call, as)
	if rs != nil && len(rs) != len(n.Names) {
		c.report(DiagArityMismatch, n.Pos(),
			"cannot unpack %d result(s) of %q into %d names",
			len(rs), call.Callee.Name, len(n.Names))
	}
	for i, d := range n.Names {
		var t Type
		if rs != nil && i < len(rs) {
			t = rs[i]
		}
		if n.Ann != nil {
			if t.IsValid() && !t.Equal(n.Ann[i]) {
				c.report(DiagTypeMismatch, d.Pos,
					"result %d of %q is %s, annotation says %s",
					i+1, call.Callee.Name, t, n.Ann[i])
			}
			t = n.Ann[i]
		}
		if d.Sym != nil {
			d.Sym.Type = t
			as.add(d.Sym)
		}
	}
}

func (c *checker) checkAssign(n *AssignStmt, as assignSet) {
	sym := n.Name.Sym
	if sym == nil {
		// Binder already reported the bad target.
		c.checkExpr(n.Value, Type{}, as)
		return
	}
	if as.has(sym) {
		c.report(DiagImmutableAssign, n.Name.Pos(),
			"%q is already assigned; values are immutable once set", sym.Name)
	}
	t := c.checkExpr(n.Value, sym.Type, as)
	if sym.Type.IsValid() {
		if t.IsValid() && !t.Equal(sym.Type) {
			c.report(DiagTypeMismatch, n.Value.Pos(),
				"cannot assign %s value to %s %q", t, sym.Type, sym.Name)
		}
	} else if t.IsValid() {
		sym.Type = t
	}
	as.add(sym)
}

func (c *checker) checkReturn(n *ReturnStmt, as assignSet) {
	if c.resultsFixed {
		if len(n.Values) != len(c.results) {
			c.report(DiagArityMismatch, n.Pos(),
				"return supplies %d value(s), script returns %d", len(n.Values), len(c.results))
		}
		for i, v := range n.Values {
			var want Type
			if i < len(c.results) {
				want = c.results[i]
			}
			t := c.checkExpr(v, want, as)
			if want.IsValid() && t.IsValid() && !t.Equal(want) {
				c.report(DiagTypeMismatch, v.Pos(),
					"return value %d is %s, script returns %s", i+1, t, want)
			}
		}
		return
	}

	// First return fixes the shape for the rest of the script.
	ts := make([]Type, len(n.Values))
	for i, v := range n.Values {
		ts[i] = c.checkExpr(v, Type{}, as)
	}
	c.results = ts
	c.resultsFixed = true
}

// checkIfStmt checks statement-form if. Reports true when every arm
// terminates and an else is present.
func (c *checker) checkIfStmt(n *If, as assignSet) bool {
	var outs []assignSet
	allTerm := true

	for _, br := range n.Branches {
		c.checkCond(br.Cond, as)
		bas := as.clone()
		if c.checkStmts(br.Body.Stmts, bas) {
			continue
		}
		allTerm = false
		outs = append(outs, bas)
	}
	if n.Else == nil {
		// The fall-through path assigns nothing, so the join is the
		// entry set unchanged.
		return false
	}
	eas := as.clone()
	if !c.checkStmts(n.Else.Stmts, eas) {
		allTerm = false
		outs = append(outs, eas)
	}
	as.mergeIntersection(outs)
	return allTerm
}

func (c *checker) checkCond(cond Expr, as assignSet) {
	t := c.checkExpr(cond, Type{}, as)
	if t.IsValid() && !t.IsNumeric() {
		c.report(DiagConditionType, cond.Pos(),
			"condition must be numeric (nonzero is true), got %s", t)
	}
}

// ----- expressions -----

// checkExpr resolves the type of e in a single-value context. want, when
// valid, is the type the context expects: it steers untyped literals but is
// not enforced here; callers that require agreement compare the result
// themselves. Returns the invalid type after reporting, so errors do not
// cascade.
func (c *checker) checkExpr(e Expr, want Type, as assignSet) Type {
	switch n := e.(type) {
	case *BasicLit:
		return c.checkLit(n, want)

	case *Ident:
		sym := n.Sym
		if sym == nil {
			return Type{}
		}
		if sym.Type.Kind == KindFunc {
			c.report(DiagTypeMismatch, n.Pos(),
				"%q is a function and must be called", sym.Name)
			return Type{}
		}
		if sym.Origin == OriginLocal && !as.has(sym) {
			c.report(DiagUseBeforeAssignment, n.Pos(),
				"%q may be read before it is assigned", sym.Name)
		}
		n.typ = sym.Type
		return n.typ

	case *UnaryExpr:
		return c.checkUnary(n, want, as)

	case *BinaryExpr:
		return c.checkBinary(n, want, as)

	case *CallExpr:
		rs := c.checkCall(n, as)
		if rs == nil {
			return Type{}
		}
		switch len(rs) {
		case 0:
			c.report(DiagTypeMismatch, n.Pos(),
				"%q returns no value and cannot be used in an expression", n.Callee.Name)
			return Type{}
		case 1:
			return rs[0]
		default:
			c.report(DiagArityMismatch, n.Pos(),
				"%q returns %d values; unpack them with let", n.Callee.Name, len(rs))
			return Type{}
		}

	case *ParenExpr:
		return c.checkExpr(n.X, want, as)

	case *If:
		return c.checkIfExpr(n, want, as)

	case *Block:
		t, term := c.checkBlockValue(n, want, as)
		if term {
			return Type{}
		}
		return t
	}
	return Type{}
}

func (c *checker) checkLit(n *BasicLit, want Type) Type {
	switch n.Kind {
	case LitString:
		n.typ = StringType
	case LitFloat:
		n.typ = FloatType
	case LitInt:
		switch n.Suffix {
		case 'i':
			n.typ = IntType
		case 'u':
			n.typ = UintType
		default:
			if want.IsNumeric() {
				n.typ = want
			} else {
				n.typ = IntType
			}
		}
		if n.typ.Kind == KindInt && n.IntVal > math.MaxInt64 {
			c.report(DiagTypeMismatch, n.Pos(), "constant %d overflows int", n.IntVal)
		}
	}
	return n.typ
}

func (c *checker) checkUnary(n *UnaryExpr, want Type, as assignSet) Type {
	switch n.Op {
	case MINUS:
		inner := Type{}
		if want.IsNumeric() {
			inner = want
		}
		t := c.checkExpr(n.X, inner, as)
		if t.IsValid() && !t.IsNumeric() {
			c.report(DiagOperandTypeMismatch, n.Pos(),
				"operator - needs a numeric operand, got %s", t)
			t = Type{}
		}
		n.typ = t
	case BANG:
		t := c.checkExpr(n.X, Type{}, as)
		if t.IsValid() && !t.IsNumeric() {
			c.report(DiagOperandTypeMismatch, n.Pos(),
				"operator ! needs a numeric operand, got %s", t)
		}
		n.typ = IntType
	}
	return n.typ
}

// untypedOperand reports whether e is an unsuffixed int literal, possibly
// wrapped in parens or a leading minus. Such operands take their type from
// the other side of a binary operator.
func untypedOperand(e Expr) bool {
	switch n := e.(type) {
	case *BasicLit:
		return n.Kind == LitInt && n.Suffix == 0
	case *ParenExpr:
		return untypedOperand(n.X)
	case *UnaryExpr:
		return n.Op == MINUS && untypedOperand(n.X)
	}
	return false
}

func (c *checker) checkBinary(n *BinaryExpr, want Type, as assignSet) Type {
	arith := n.Op == PLUS || n.Op == MINUS || n.Op == MULT || n.Op == DIV

	// Only arithmetic passes the outer expectation down; comparisons and
	// logic produce int regardless of context.
	outer := Type{}
	if arith && (want.IsNumeric() || (n.Op == PLUS && want.Kind == KindString)) {
		outer = want
	}

	// Check the anchored side first so its type can steer an untyped
	// literal on the other side.
	var lt, rt Type
	if untypedOperand(n.L) && !untypedOperand(n.R) {
		rt = c.checkExpr(n.R, outer, as)
		lw := rt
		if !lw.IsValid() {
			lw = outer
		}
		lt = c.checkExpr(n.L, lw, as)
	} else {
		lt = c.checkExpr(n.L, outer, as)
		rw := lt
		if !rw.IsValid() {
			rw = outer
		}
		rt = c.checkExpr(n.R, rw, as)
	}

	opName := n.Op.String()
	if !lt.IsValid() || !rt.IsValid() {
		if !arith {
			n.typ = IntType
		}
		return n.typ
	}
	if !lt.Equal(rt) {
		c.report(DiagOperandTypeMismatch, n.Pos(),
			"mismatched operands %s and %s for %s; convert one side explicitly", lt, rt, opName)
		if !arith {
			n.typ = IntType
		}
		return n.typ
	}

	switch n.Op {
	case PLUS:
		if !lt.IsNumeric() && lt.Kind != KindString {
			c.report(DiagOperandTypeMismatch, n.Pos(), "operator + not defined on %s", lt)
			return Type{}
		}
		n.typ = lt
	case MINUS, MULT, DIV:
		if !lt.IsNumeric() {
			c.report(DiagOperandTypeMismatch, n.Pos(), "operator %s not defined on %s", opName, lt)
			return Type{}
		}
		n.typ = lt
	case EQ, NEQ:
		if !lt.IsNumeric() && lt.Kind != KindString {
			c.report(DiagOperandTypeMismatch, n.Pos(), "operator %s not defined on %s", opName, lt)
		}
		n.typ = IntType
	case LESS, LESS_EQ, GREATER, GREATER_EQ:
		if lt.Kind == KindString {
			c.report(DiagOperandTypeMismatch, n.Pos(), "strings support only == and !=")
		} else if !lt.IsNumeric() {
			c.report(DiagOperandTypeMismatch, n.Pos(), "operator %s not defined on %s", opName, lt)
		}
		n.typ = IntType
	case AND, OR:
		if !lt.IsNumeric() {
			c.report(DiagOperandTypeMismatch, n.Pos(), "operator %s needs numeric operands, got %s", opName, lt)
		}
		n.typ = IntType
	}
	return n.typ
}

// checkCall verifies callee and arguments and returns the full result tuple,
// or nil when the callee did not resolve to a function. Result-count rules
// are the caller's business since they depend on context.
func (c *checker) checkCall(n *CallExpr, as assignSet) []Type {
	sym := n.Callee.Sym
	if sym == nil {
		for _, a := range n.Args {
			c.checkExpr(a, Type{}, as)
		}
		return nil
	}
	if sym.Type.Kind != KindFunc {
		c.report(DiagTypeMismatch, n.Callee.Pos(), "%q is not a function", sym.Name)
		for _, a := range n.Args {
			c.checkExpr(a, Type{}, as)
		}
		return nil
	}

	sig := sym.Type
	n.sig = sig
	if len(n.Args) != len(sig.Params) {
		c.report(DiagArityMismatch, n.Pos(),
			"%q takes %d argument(s), got %d", sym.Name, len(sig.Params), len(n.Args))
	}
	for i, a := range n.Args {
		var want Type
		if i < len(sig.Params) {
			want = sig.Params[i]
		}
		if want.Kind == KindAnyNum {
			t := c.checkExpr(a, Type{}, as)
			if t.IsValid() && !t.IsNumeric() {
				c.report(DiagTypeMismatch, a.Pos(),
					"argument %d to %q must be numeric, got %s", i+1, sym.Name, t)
			}
			continue
		}
		t := c.checkExpr(a, want, as)
		if want.IsValid() && t.IsValid() && !t.Equal(want) {
			c.report(DiagTypeMismatch, a.Pos(),
				"argument %d to %q is %s, want %s", i+1, sym.Name, t, want)
		}
	}

	switch len(sig.Results) {
	case 0:
		n.typ = VoidType
	case 1:
		n.typ = sig.Results[0]
	}
	return sig.Results
}

// checkIfExpr unifies the arm types of an expression-form if. The first
// constrained arm fixes the type; every other arm must match it. Arms that
// end in return contribute no value and are excluded from both unification
// and the definite-assignment join.
func (c *checker) checkIfExpr(n *If, want Type, as assignSet) Type {
	unified := want
	var outs []assignSet
	reported := false

	arm := func(body *Block) {
		bas := as.clone()
		t, term := c.checkBlockValue(body, unified, bas)
		if term {
			return
		}
		outs = append(outs, bas)
		if !t.IsValid() {
			return
		}
		if !unified.IsValid() {
			unified = t
			return
		}
		if !t.Equal(unified) && !reported {
			c.report(DiagBranchTypeMismatch, body.Pos(),
				"branches disagree: this one yields %s, earlier context wants %s", t, unified)
			reported = true
		}
	}

	for _, br := range n.Branches {
		c.checkCond(br.Cond, as)
		arm(br.Body)
	}
	if n.Else != nil {
		arm(n.Else)
	}
	as.mergeIntersection(outs)

	if reported {
		unified = Type{}
	}
	n.typ = unified
	return unified
}

// checkBlockValue checks an expression-form block: every statement runs,
// then the trailing yield supplies the value. A block whose tail is a return
// (or that returns unconditionally before reaching its yield) terminates the
// invocation instead of yielding; it reports term=true and no type.
func (c *checker) checkBlockValue(b *Block, want Type, as assignSet) (Type, bool) {
	if len(b.Stmts) == 0 {
		return Type{}, false
	}
	last := b.Stmts[len(b.Stmts)-1]
	term := c.checkStmts(b.Stmts[:len(b.Stmts)-1], as)

	switch tail := last.(type) {
	case *YieldStmt:
		t := c.checkExpr(tail.Value, want, as)
		b.typ = t
		if term {
			return Type{}, true
		}
		return t, false
	case *ReturnStmt:
		c.checkStmt(tail, as)
		return Type{}, true
	default:
		// Parser guarantees yield or return in the tail slot.
		c.checkStmt(tail, as)
		return Type{}, term
	}
}
