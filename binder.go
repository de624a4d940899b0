// binder.go: scope resolution.
//
// The binder walks the AST with a two-tier scope structure: frame 0 is the
// fixed host-global frame pre-populated from the binding table, and every
// block pushes one child frame. Frames live in an arena and chain by parent
// index, not by pointer; lookup walks indexes innermost-to-outermost and the
// first match wins, which is what makes shadowing work. A let always
// introduces a fresh symbol in the innermost frame — legal even when the
// name matches a global or an outer local, and legal again in the same
// frame (the new symbol replaces visibility from that point on; it never
// mutates the earlier binding). The only rejected write is assignment to a
// host global.
//
// Binding does not abort on failure: findings accumulate alongside the
// checker's so one compile reports everything.
package pulse

import "fmt"

// SymbolOrigin distinguishes host-injected from script-declared bindings.
type SymbolOrigin int

const (
	OriginGlobal SymbolOrigin = iota // from the binding table; read-only
	OriginLocal                      // let-declared
)

// Symbol is one resolved binding. Identifier nodes reference symbols; they
// never own them. For locals, Slot is the index into the evaluator's
// per-invocation slot frame. Type is filled by the checker for locals.
type Symbol struct {
	Name    string
	Type    Type
	Origin  SymbolOrigin
	Slot    int // -1 for globals
	HasInit bool
	DeclPos Pos
}

type scopeFrame struct {
	parent int // -1 for the global frame
	names  map[string]*Symbol
}

type binder struct {
	table  *BindingTable
	frames []scopeFrame
	cur    int
	locals []*Symbol // all local symbols, in slot order
	diags  *Diagnostics
}

// bindProgram resolves every identifier of prog against table, attaching
// symbols in place. It returns the local symbols in slot order; findings
// land in diags.
func bindProgram(prog *Program, table *BindingTable, diags *Diagnostics) []*Symbol {
	b := &binder{table: table, diags: diags}

	global := scopeFrame{parent: -1, names: make(map[string]*Symbol)}
	for name, t := range table.entries {
		global.names[name] = &Symbol{Name: name, Type: t, Origin: OriginGlobal, Slot: -1, HasInit: true}
	}
	b.frames = append(b.frames, global)
	b.cur = 0

	b.pushScope() // top-level statements get their own frame above the globals
	for _, s := range prog.Stmts {
		b.bindStmt(s)
	}
	return b.locals
}

func (b *binder) pushScope() {
	b.frames = append(b.frames, scopeFrame{parent: b.cur, names: make(map[string]*Symbol)})
	b.cur = len(b.frames) - 1
}

func (b *binder) popScope() {
	b.cur = b.frames[b.cur].parent
}

// lookup walks parent links innermost-to-outermost; first match wins.
func (b *binder) lookup(name string) *Symbol {
	for i := b.cur; i >= 0; i = b.frames[i].parent {
		if sym, ok := b.frames[i].names[name]; ok {
			return sym
		}
	}
	return nil
}

// define introduces a fresh local in the innermost frame, shadowing any
// previous binding of the name.
func (b *binder) define(d *DeclName, hasInit bool) {
	sym := &Symbol{
		Name:    d.Name,
		Origin:  OriginLocal,
		Slot:    len(b.locals),
		HasInit: hasInit,
		DeclPos: d.Pos,
	}
	b.locals = append(b.locals, sym)
	b.frames[b.cur].names[d.Name] = sym
	d.Sym = sym
}

func (b *binder) report(kind DiagKind, pos Pos, format string, args ...any) {
	*b.diags = append(*b.diags, Diagnostic{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos})
}

// ----- walk -----

func (b *binder) bindStmt(s Stmt) {
	switch n := s.(type) {
	case *LetStmt:
		// The initializer binds before the new names exist, so
		// "let x = x + 1;" reads the outer x.
		if n.Init != nil {
			b.bindExpr(n.Init)
		}
		for _, d := range n.Names {
			b.define(d, n.Init != nil)
		}
	case *AssignStmt:
		b.bindExpr(n.Value)
		sym := b.lookup(n.Name.Name)
		if sym == nil {
			b.report(DiagUnresolvedName, n.Name.Pos(), "undefined name %q", n.Name.Name)
			return
		}
		if sym.Origin == OriginGlobal {
			b.report(DiagIllegalShadow, n.Name.Pos(),
				"cannot assign to host global %q; declare a shadow with 'let' instead", n.Name.Name)
			return
		}
		n.Name.Sym = sym
	case *ExprStmt:
		b.bindExpr(n.X)
	case *ReturnStmt:
		for _, v := range n.Values {
			b.bindExpr(v)
		}
	case *YieldStmt:
		b.bindExpr(n.Value)
	case *If:
		b.bindIf(n)
	case *Block:
		b.bindBlock(n)
	case *EmptyStmt:
	}
}

func (b *binder) bindIf(n *If) {
	for _, br := range n.Branches {
		b.bindExpr(br.Cond)
		b.bindBlock(br.Body)
	}
	if n.Else != nil {
		b.bindBlock(n.Else)
	}
}

func (b *binder) bindBlock(blk *Block) {
	b.pushScope()
	for _, s := range blk.Stmts {
		b.bindStmt(s)
	}
	b.popScope()
}

func (b *binder) bindExpr(e Expr) {
	switch n := e.(type) {
	case *Ident:
		sym := b.lookup(n.Name)
		if sym == nil {
			b.report(DiagUnresolvedName, n.Pos(), "undefined name %q", n.Name)
			return
		}
		n.Sym = sym
	case *BasicLit:
	case *UnaryExpr:
		b.bindExpr(n.X)
	case *BinaryExpr:
		b.bindExpr(n.L)
		b.bindExpr(n.R)
	case *CallExpr:
		sym := b.lookup(n.Callee.Name)
		if sym == nil {
			b.report(DiagUnresolvedName, n.Callee.Pos(), "undefined function %q", n.Callee.Name)
		} else {
			n.Callee.Sym = sym
		}
		for _, a := range n.Args {
			b.bindExpr(a)
		}
	case *ParenExpr:
		b.bindExpr(n.X)
	case *If:
		b.bindIf(n)
	case *Block:
		b.bindBlock(n)
	}
}
