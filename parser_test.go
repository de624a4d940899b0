package pulse

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func parse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("parse error:\n%s\n%v", src, err)
	}
	return prog
}

func parseErr(t *testing.T, src, wantSubstr string) *ParseError {
	t.Helper()
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("expected parse error for:\n%s", src)
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if !strings.Contains(pe.Msg, wantSubstr) {
		t.Fatalf("error %q does not mention %q", pe.Msg, wantSubstr)
	}
	return pe
}

func TestParseLetForms(t *testing.T) {
	prog := parse(t, `
		let a = 1;
		let b: float;
		let c: uint = 7u;
	`)
	be.Equal(t, len(prog.Stmts), 3)

	a := prog.Stmts[0].(*LetStmt)
	be.Equal(t, a.Names[0].Name, "a")
	be.True(t, a.Ann == nil)
	be.True(t, a.Init != nil)

	b := prog.Stmts[1].(*LetStmt)
	be.Equal(t, b.Ann[0], FloatType)
	be.True(t, b.Init == nil)

	c := prog.Stmts[2].(*LetStmt)
	be.Equal(t, c.Ann[0], UintType)
}

func TestParseDestructuringLet(t *testing.T) {
	prog := parse(t, "let x, y = pos();")
	let := prog.Stmts[0].(*LetStmt)
	be.Equal(t, len(let.Names), 2)
	be.Equal(t, let.Names[0].Name, "x")
	be.Equal(t, let.Names[1].Name, "y")
	call := let.Init.(*CallExpr)
	be.Equal(t, call.Callee.Name, "pos")
}

func TestParseDestructuringAnnotated(t *testing.T) {
	prog := parse(t, "let x, y: (float, float) = pos();")
	let := prog.Stmts[0].(*LetStmt)
	be.Equal(t, let.Ann, []Type{FloatType, FloatType})
}

func TestParseDestructuringNeedsCall(t *testing.T) {
	parseErr(t, "let x, y = 1 + 2;", "requires a call")
	parseErr(t, "let x, y;", "requires an initializer")
}

func TestParseTupleAnnotationArity(t *testing.T) {
	parseErr(t, "let x, y: (int, int, int) = pos();", "3 elements for 2 names")
	parseErr(t, "let x: (int, int) = one();", "2 elements for 1 names")
	parseErr(t, "let x, y: int = pos();", "needs a tuple type")
}

func TestParseAssignStatement(t *testing.T) {
	prog := parse(t, "x = y + 1;")
	asn := prog.Stmts[0].(*AssignStmt)
	be.Equal(t, asn.Name.Name, "x")
	sum := asn.Value.(*BinaryExpr)
	be.Equal(t, sum.Op, PLUS)
}

func TestParseIfElifElseStatement(t *testing.T) {
	prog := parse(t, `
		if (a) { f(); } elif (b) { g(); } elif (c) { h(); } else { k(); }
	`)
	n := prog.Stmts[0].(*If)
	be.Equal(t, n.Mode, IfStatement)
	be.Equal(t, len(n.Branches), 3)
	be.True(t, n.Else != nil)
}

func TestParseIfStatementElseOptional(t *testing.T) {
	prog := parse(t, "if (a) { f(); }")
	n := prog.Stmts[0].(*If)
	be.True(t, n.Else == nil)
}

func TestParseIfExpressionRequiresElse(t *testing.T) {
	parseErr(t, "let x = if (a) { yield 1; };", "requires an else")
}

func TestParseIfExpressionForm(t *testing.T) {
	prog := parse(t, "let x = if (a) { yield 1; } else { yield 2; };")
	let := prog.Stmts[0].(*LetStmt)
	n := let.Init.(*If)
	be.Equal(t, n.Mode, IfExpression)
	y := n.Branches[0].Body.Stmts[0].(*YieldStmt)
	be.Equal(t, y.Value.(*BasicLit).IntVal, uint64(1))
}

func TestParseBlockExpression(t *testing.T) {
	prog := parse(t, "let x = { let t = 2; yield t * t; };")
	let := prog.Stmts[0].(*LetStmt)
	blk := let.Init.(*Block)
	be.Equal(t, blk.Mode, IfExpression)
	be.Equal(t, len(blk.Stmts), 2)
}

func TestParseYieldPlacement(t *testing.T) {
	parseErr(t, "yield 1;", "expression-form block")
	parseErr(t, "if (a) { yield 1; }", "expression-form block")
	parseErr(t, "let x = { yield 1; yield 2; };", "final statement")
	parseErr(t, "let x = { f(); };", "must end with a yield")
}

func TestParseExpressionBlockMayEndInReturn(t *testing.T) {
	prog := parse(t, "let x = if (a) { return 0; } else { yield 2; };")
	n := prog.Stmts[0].(*LetStmt).Init.(*If)
	_, isRet := n.Branches[0].Body.Stmts[0].(*ReturnStmt)
	be.True(t, isRet)
}

func TestParsePrecedence(t *testing.T) {
	prog := parse(t, "let x = 1 + 2 * 3 < 4 == 5 && 6 || 7;")
	or := prog.Stmts[0].(*LetStmt).Init.(*BinaryExpr)
	be.Equal(t, or.Op, OR)
	and := or.L.(*BinaryExpr)
	be.Equal(t, and.Op, AND)
	eq := and.L.(*BinaryExpr)
	be.Equal(t, eq.Op, EQ)
	less := eq.L.(*BinaryExpr)
	be.Equal(t, less.Op, LESS)
	plus := less.L.(*BinaryExpr)
	be.Equal(t, plus.Op, PLUS)
	mul := plus.R.(*BinaryExpr)
	be.Equal(t, mul.Op, MULT)
}

func TestParseLeftAssociativity(t *testing.T) {
	prog := parse(t, "let x = 10 - 4 - 3;")
	outer := prog.Stmts[0].(*LetStmt).Init.(*BinaryExpr)
	be.Equal(t, outer.Op, MINUS)
	inner := outer.L.(*BinaryExpr)
	be.Equal(t, inner.L.(*BasicLit).IntVal, uint64(10))
	be.Equal(t, outer.R.(*BasicLit).IntVal, uint64(3))
}

func TestParseUnaryChain(t *testing.T) {
	prog := parse(t, "let x = - -5;")
	outer := prog.Stmts[0].(*LetStmt).Init.(*UnaryExpr)
	be.Equal(t, outer.Op, MINUS)
	inner := outer.X.(*UnaryExpr)
	be.Equal(t, inner.X.(*BasicLit).IntVal, uint64(5))
}

func TestParseCallArguments(t *testing.T) {
	prog := parse(t, "move(dx, 2 * k, \"n\");")
	call := prog.Stmts[0].(*ExprStmt).X.(*CallExpr)
	be.Equal(t, call.Callee.Name, "move")
	be.Equal(t, len(call.Args), 3)

	prog = parse(t, "tick();")
	call = prog.Stmts[0].(*ExprStmt).X.(*CallExpr)
	be.Equal(t, len(call.Args), 0)
}

func TestParseReturnForms(t *testing.T) {
	prog := parse(t, "return;")
	be.Equal(t, len(prog.Stmts[0].(*ReturnStmt).Values), 0)

	prog = parse(t, "return a, b + 1, c();")
	be.Equal(t, len(prog.Stmts[0].(*ReturnStmt).Values), 3)
}

func TestParseMissingSemicolon(t *testing.T) {
	parseErr(t, "let x = 1", "';'")
}

func TestParseUnclosedBlock(t *testing.T) {
	parseErr(t, "if (a) { f();", "not closed")
}
