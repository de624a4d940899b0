// ast.go: the abstract syntax tree.
//
// Nodes are built once by the parser and are structurally immutable after
// that; the binder and checker annotate them (symbol references, resolved
// types) but never reshape them. Every node carries the source position of
// its first token.
package pulse

// Node is the common interface of all AST nodes.
type Node interface {
	Pos() Pos
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes. Type reports the checker-resolved
// type and is meaningful only after a successful Compile.
type Expr interface {
	Node
	exprNode()
	Type() Type
}

// Program is one compilation unit: an ordered sequence of statements.
type Program struct {
	Stmts []Stmt
}

func (p *Program) Pos() Pos {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return Pos{Line: 1}
}

// ----- statements -----

// LetStmt declares one local (len(Names)==1) or destructures the results of
// a call into several (len(Names)>=2). Ann and Init are both optional for a
// single name; destructuring always has an Init and its annotation, when
// present, is a tuple with one element per name.
type LetStmt struct {
	Names []*DeclName
	Ann   []Type // nil, or one entry per name
	Init  Expr   // nil for "let x: int;"
	pos   Pos
}

// DeclName is one declared name inside a let. The binder attaches the fresh
// symbol it introduces.
type DeclName struct {
	Name string
	Pos  Pos
	Sym  *Symbol
}

// AssignStmt initializes an already-declared local: "x = expr;".
type AssignStmt struct {
	Name  *Ident
	Value Expr
	pos   Pos
}

// ExprStmt is a standalone expression evaluated for its side effects.
type ExprStmt struct {
	X Expr
}

// ReturnStmt terminates the invocation with zero or more values.
type ReturnStmt struct {
	Values []Expr
	pos    Pos
}

// YieldStmt supplies the value of an expression-form block. The parser only
// admits it as the final statement of such a block.
type YieldStmt struct {
	Value Expr
	pos   Pos
}

// EmptyStmt is a bare ";".
type EmptyStmt struct {
	pos Pos
}

func (s *LetStmt) Pos() Pos    { return s.pos }
func (s *AssignStmt) Pos() Pos { return s.pos }
func (s *ExprStmt) Pos() Pos   { return s.X.Pos() }
func (s *ReturnStmt) Pos() Pos { return s.pos }
func (s *YieldStmt) Pos() Pos  { return s.pos }
func (s *EmptyStmt) Pos() Pos  { return s.pos }

func (*LetStmt) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode() {}
func (*YieldStmt) stmtNode()  {}
func (*EmptyStmt) stmtNode()  {}

// ----- blocks and conditionals -----

// IfMode distinguishes the two uses of the conditional construct.
type IfMode int

const (
	// IfStatement: used where no value is expected; else optional.
	IfStatement IfMode = iota
	// IfExpression: used where a value is required; every branch block must
	// end in a yield and else is mandatory.
	IfExpression
)

// Block is a brace-delimited statement sequence. In expression form its
// final statement is a YieldStmt whose value is the block's value.
type Block struct {
	Stmts []Stmt
	Mode  IfMode
	pos   Pos
	typ   Type
}

func (b *Block) Pos() Pos   { return b.pos }
func (b *Block) Type() Type { return b.typ }
func (*Block) stmtNode()    {}
func (*Block) exprNode()    {}

// IfBranch is one "(cond) { ... }" arm.
type IfBranch struct {
	Cond Expr
	Body *Block
}

// If is the conditional construct in both of its forms, distinguished by
// Mode rather than by node kind so the binder, checker and evaluator share
// one implementation.
type If struct {
	Mode     IfMode
	Branches []IfBranch // if plus elif arms, in source order
	Else     *Block     // nil only in statement mode
	pos      Pos
	typ      Type
}

func (n *If) Pos() Pos   { return n.pos }
func (n *If) Type() Type { return n.typ }
func (*If) stmtNode()    {}
func (*If) exprNode()    {}

// ----- expressions -----

// Ident is a reference to a local or host-global binding. Sym is attached by
// the binder.
type Ident struct {
	Name string
	pos  Pos
	Sym  *Symbol
	typ  Type
}

// LitKind discriminates BasicLit cases.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
)

// BasicLit is a literal. An int literal with Suffix 0 is untyped until the
// checker resolves it from context (defaulting to int); Suffix 'i'/'u' pins
// it. Float and string literals are always float and string.
type BasicLit struct {
	Kind     LitKind
	IntVal   uint64 // magnitude, LitInt
	FloatVal float64
	StrVal   string
	Suffix   byte // 0, 'i', 'u' (the 'f' suffix is folded by the lexer)
	pos      Pos
	typ      Type
}

// UnaryExpr is "-x" or "!x".
type UnaryExpr struct {
	Op  TokenType // MINUS or BANG
	X   Expr
	pos Pos
	typ Type
}

// BinaryExpr is an arithmetic, comparison or logical operation.
type BinaryExpr struct {
	Op   TokenType
	L, R Expr
	pos  Pos
	typ  Type
}

// CallExpr invokes a host function declared in the binding table.
type CallExpr struct {
	Callee *Ident
	Args   []Expr
	pos    Pos
	typ    Type   // single-result type, or void
	sig    Type   // resolved signature (checker)
}

// ParenExpr is "(x)".
type ParenExpr struct {
	X   Expr
	pos Pos
}

func (e *Ident) Pos() Pos      { return e.pos }
func (e *BasicLit) Pos() Pos   { return e.pos }
func (e *UnaryExpr) Pos() Pos  { return e.pos }
func (e *BinaryExpr) Pos() Pos { return e.pos }
func (e *CallExpr) Pos() Pos   { return e.pos }
func (e *ParenExpr) Pos() Pos  { return e.pos }

func (e *Ident) Type() Type      { return e.typ }
func (e *BasicLit) Type() Type   { return e.typ }
func (e *UnaryExpr) Type() Type  { return e.typ }
func (e *BinaryExpr) Type() Type { return e.typ }
func (e *CallExpr) Type() Type   { return e.typ }
func (e *ParenExpr) Type() Type  { return e.X.Type() }

func (*Ident) exprNode()      {}
func (*BasicLit) exprNode()   {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode()   {}
func (*ParenExpr) exprNode()  {}

// Results reports the full result tuple of the resolved callee signature.
// Empty until the checker has run.
func (e *CallExpr) Results() []Type {
	if e.sig.Kind != KindFunc {
		return nil
	}
	return e.sig.Results
}
