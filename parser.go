// parser.go: recursive-descent parser from tokens to the AST.
//
// The parser enforces grammar shape only; names and types are the binder's
// and checker's business. The one semantic wrinkle it owns is the
// statement/expression split of conditionals and blocks: the same "if"/"{"
// syntax parses in expression form wherever a value is expected (the
// right-hand side of a let, a yield value, a return value, an argument, an
// operand), and in statement form elsewhere. Expression form makes "else"
// mandatory and requires every branch block to end in a yield; statement
// form forbids yield outright. Parsing is fail-fast: the first *ParseError
// aborts the compilation.
package pulse

import "fmt"

// ParseError is a fatal grammar failure at a source position.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Pos.Line, e.Pos.Col+1, e.Msg)
}

// Parse lexes and parses a complete source string into a Program.
func Parse(src string) (*Program, error) {
	lex := NewLexer(src)
	toks, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

type parser struct {
	toks []Token
	i    int
}

// ----- token basics -----

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekN(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	g := p.peek()
	return Token{}, &ParseError{Pos: g.Pos, Msg: fmt.Sprintf("%s, found %s", msg, g.Type)}
}

func (p *parser) errAt(pos Pos, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// ----- precedence -----

// lbp is the left binding power of an infix operator (0 = not infix).
func lbp(t TokenType) int {
	switch t {
	case MULT, DIV:
		return 70
	case PLUS, MINUS:
		return 60
	case LESS, LESS_EQ, GREATER, GREATER_EQ:
		return 50
	case EQ, NEQ:
		return 40
	case AND:
		return 30
	case OR:
		return 20
	}
	return 0
}

// ----- program & statements -----

func (p *parser) program() (*Program, error) {
	prog := &Program{}
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, s)
	}
	return prog, nil
}

func (p *parser) statement() (Stmt, error) {
	switch p.peek().Type {
	case SEMI:
		tok := p.peek()
		p.i++
		return &EmptyStmt{pos: tok.Pos}, nil
	case LET:
		return p.letStmt()
	case RETURN:
		return p.returnStmt()
	case YIELD:
		return nil, p.errAt(p.peek().Pos, "yield is only allowed inside an expression-form block")
	case IF:
		return p.ifConstruct(IfStatement)
	case LBRACE:
		return p.block(IfStatement)
	case IDENT:
		if p.peekN(1).Type == ASSIGN {
			return p.assignStmt()
		}
	}
	// expression statement
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMI, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return &ExprStmt{X: e}, nil
}

// letStmt parses "let a (, b)* (":" type)? ("=" expr)? ";".
func (p *parser) letStmt() (Stmt, error) {
	let := p.peek()
	p.i++ // consume 'let'

	var names []*DeclName
	for {
		tok, err := p.need(IDENT, "expected name after 'let'")
		if err != nil {
			return nil, err
		}
		names = append(names, &DeclName{Name: tok.Literal.(string), Pos: tok.Pos})
		if !p.match(COMMA) {
			break
		}
	}

	var ann []Type
	if p.match(COLON) {
		var err error
		ann, err = p.typeAnnotation(len(names))
		if err != nil {
			return nil, err
		}
	}

	var init Expr
	if p.match(ASSIGN) {
		var err error
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.need(SEMI, "expected ';' after declaration"); err != nil {
		return nil, err
	}

	if len(names) > 1 {
		if init == nil {
			return nil, p.errAt(let.Pos, "destructuring declaration requires an initializer")
		}
		if _, ok := init.(*CallExpr); !ok {
			return nil, p.errAt(init.Pos(), "destructuring requires a call on the right-hand side")
		}
	}
	return &LetStmt{Names: names, Ann: ann, Init: init, pos: let.Pos}, nil
}

// typeAnnotation parses "type" or "(type, type, ...)" after a ':'. The
// element count must match the declared name count.
func (p *parser) typeAnnotation(nameCount int) ([]Type, error) {
	if p.match(LPAREN) {
		var ann []Type
		for {
			t, err := p.typeName()
			if err != nil {
				return nil, err
			}
			ann = append(ann, t)
			if !p.match(COMMA) {
				break
			}
		}
		if _, err := p.need(RPAREN, "expected ')' after tuple type"); err != nil {
			return nil, err
		}
		if len(ann) < 2 {
			return nil, p.errAt(p.prev().Pos, "tuple type needs at least two elements")
		}
		if len(ann) != nameCount {
			return nil, p.errAt(p.prev().Pos,
				"tuple type has %d elements for %d names", len(ann), nameCount)
		}
		return ann, nil
	}
	t, err := p.typeName()
	if err != nil {
		return nil, err
	}
	if nameCount != 1 {
		return nil, p.errAt(p.prev().Pos, "destructuring declaration needs a tuple type")
	}
	return []Type{t}, nil
}

func (p *parser) typeName() (Type, error) {
	tok, err := p.need(TYPENAME, "expected type name")
	if err != nil {
		return Type{}, err
	}
	t, ok := typeByName(tok.Lexeme)
	if !ok {
		return Type{}, p.errAt(tok.Pos, "unknown type %q", tok.Lexeme)
	}
	return t, nil
}

func (p *parser) assignStmt() (Stmt, error) {
	tok := p.peek()
	p.i++ // IDENT
	target := &Ident{Name: tok.Literal.(string), pos: tok.Pos}
	p.i++ // '='
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMI, "expected ';' after assignment"); err != nil {
		return nil, err
	}
	return &AssignStmt{Name: target, Value: value, pos: tok.Pos}, nil
}

func (p *parser) returnStmt() (Stmt, error) {
	ret := p.peek()
	p.i++ // 'return'
	var values []Expr
	if p.peek().Type != SEMI {
		for {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			values = append(values, e)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.need(SEMI, "expected ';' after return"); err != nil {
		return nil, err
	}
	return &ReturnStmt{Values: values, pos: ret.Pos}, nil
}

// ifConstruct parses the conditional in either mode.
func (p *parser) ifConstruct(mode IfMode) (*If, error) {
	ifTok := p.peek()
	p.i++ // 'if'

	var branches []IfBranch
	for {
		if _, err := p.need(LPAREN, "expected '(' after condition keyword"); err != nil {
			return nil, err
		}
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "expected ')' after condition"); err != nil {
			return nil, err
		}
		body, err := p.block(mode)
		if err != nil {
			return nil, err
		}
		branches = append(branches, IfBranch{Cond: cond, Body: body})
		if !p.match(ELIF) {
			break
		}
	}

	var elseBlock *Block
	if p.match(ELSE) {
		var err error
		elseBlock, err = p.block(mode)
		if err != nil {
			return nil, err
		}
	} else if mode == IfExpression {
		return nil, p.errAt(ifTok.Pos, "expression-form if requires an else branch")
	}

	return &If{Mode: mode, Branches: branches, Else: elseBlock, pos: ifTok.Pos}, nil
}

// block parses "{ ... }". In expression mode the final statement must be a
// yield; in statement mode yield is rejected.
func (p *parser) block(mode IfMode) (*Block, error) {
	open, err := p.need(LBRACE, "expected '{'")
	if err != nil {
		return nil, err
	}
	b := &Block{Mode: mode, pos: open.Pos}
	for p.peek().Type != RBRACE {
		if p.atEnd() {
			return nil, p.errAt(open.Pos, "block was not closed")
		}
		if p.peek().Type == YIELD {
			if mode != IfExpression {
				return nil, p.errAt(p.peek().Pos, "yield is only allowed inside an expression-form block")
			}
			y, err := p.yieldStmt()
			if err != nil {
				return nil, err
			}
			b.Stmts = append(b.Stmts, y)
			if p.peek().Type != RBRACE {
				return nil, p.errAt(p.peek().Pos, "yield must be the final statement of a block")
			}
			break
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	if _, err := p.need(RBRACE, "expected '}'"); err != nil {
		return nil, err
	}
	if mode == IfExpression {
		if len(b.Stmts) == 0 {
			return nil, p.errAt(open.Pos, "expression block must end with a yield")
		}
		if _, ok := b.Stmts[len(b.Stmts)-1].(*YieldStmt); !ok {
			// the last statement may be a return, which also leaves the block
			if _, ok := b.Stmts[len(b.Stmts)-1].(*ReturnStmt); !ok {
				return nil, p.errAt(open.Pos, "expression block must end with a yield")
			}
		}
	}
	return b, nil
}

func (p *parser) yieldStmt() (*YieldStmt, error) {
	y := p.peek()
	p.i++ // 'yield'
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(SEMI, "expected ';' after yield"); err != nil {
		return nil, err
	}
	return &YieldStmt{Value: value, pos: y.Pos}, nil
}

// ----- expressions -----

func (p *parser) expression() (Expr, error) {
	return p.binaryExpr(0)
}

// binaryExpr is precedence-climbing over lbp; all operators are
// left-associative.
func (p *parser) binaryExpr(minBP int) (Expr, error) {
	left, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		bp := lbp(op.Type)
		if bp == 0 || bp <= minBP {
			return left, nil
		}
		p.i++
		right, err := p.binaryExpr(bp)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, L: left, R: right, pos: op.Pos}
	}
}

func (p *parser) unaryExpr() (Expr, error) {
	if t := p.peek(); t.Type == MINUS || t.Type == BANG {
		p.i++
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: t.Type, X: x, pos: t.Pos}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INT:
		p.i++
		lit := tok.Literal.(IntLit)
		return &BasicLit{Kind: LitInt, IntVal: lit.Value, Suffix: lit.Suffix, pos: tok.Pos}, nil
	case FLOAT:
		p.i++
		lit := tok.Literal.(FloatLit)
		return &BasicLit{Kind: LitFloat, FloatVal: lit.Value, pos: tok.Pos}, nil
	case STRING:
		p.i++
		return &BasicLit{Kind: LitString, StrVal: tok.Literal.(string), pos: tok.Pos}, nil
	case IDENT:
		p.i++
		id := &Ident{Name: tok.Literal.(string), pos: tok.Pos}
		if p.match(LPAREN) {
			return p.callArgs(id, tok.Pos)
		}
		return id, nil
	case LPAREN:
		p.i++
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return &ParenExpr{X: inner, pos: tok.Pos}, nil
	case IF:
		return p.ifConstruct(IfExpression)
	case LBRACE:
		return p.block(IfExpression)
	}
	return nil, p.errAt(tok.Pos, "unexpected token %s", tok.Type)
}

func (p *parser) callArgs(callee *Ident, pos Pos) (Expr, error) {
	call := &CallExpr{Callee: callee, pos: pos}
	if p.match(RPAREN) {
		return call, nil
	}
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RPAREN, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return call, nil
}
