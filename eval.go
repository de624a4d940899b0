// eval.go: the tree-walking evaluator.
//
// Evaluation trusts the checker: operand tags always agree, call arities
// match, every read local was assigned. What remains dynamic is the data
// itself, so the only faults are integer division by zero, host functions
// returning errors, and an environment that fails to supply a binding the
// table promised. int and uint arithmetic wraps; float follows IEEE 754
// (division by zero gives an infinity, not a fault).
//
// return unwinds through a control record threaded down the walk rather
// than a panic: every statement and expression helper checks ctl.returned
// after a nested evaluation and backs out. A return buried in an
// expression-form block therefore abandons the whole surrounding
// expression, which is exactly the language rule.
package pulse

import "fmt"

// RuntimeFault is an evaluation failure, carrying the position of the
// construct that faulted. Host function errors are wrapped and reachable
// via Unwrap.
type RuntimeFault struct {
	Pos Pos
	Msg string
	Err error
}

func (f *RuntimeFault) Error() string {
	return fmt.Sprintf("RUNTIME FAULT at %d:%d: %s", f.Pos.Line, f.Pos.Col, f.Msg)
}

func (f *RuntimeFault) Unwrap() error { return f.Err }

func faultf(pos Pos, format string, args ...any) *RuntimeFault {
	return &RuntimeFault{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// control threads return propagation through the walk.
type control struct {
	returned bool
	results  []Value
}

type evaluator struct {
	env   *Environment
	slots []Value // local storage, indexed by Symbol.Slot
}

// evalProgram runs a checked program against env. A script that falls off
// the end returns no values.
func evalProgram(prog *Program, numSlots int, env *Environment) ([]Value, error) {
	ev := &evaluator{env: env, slots: make([]Value, numSlots)}
	var ctl control
	if err := ev.execStmts(prog.Stmts, &ctl); err != nil {
		return nil, err
	}
	if ctl.returned {
		return ctl.results, nil
	}
	return nil, nil
}

func (ev *evaluator) execStmts(stmts []Stmt, ctl *control) error {
	for _, s := range stmts {
		if err := ev.execStmt(s, ctl); err != nil {
			return err
		}
		if ctl.returned {
			return nil
		}
	}
	return nil
}

func (ev *evaluator) execStmt(s Stmt, ctl *control) error {
	switch n := s.(type) {
	case *LetStmt:
		if n.Init == nil {
			return nil
		}
		if len(n.Names) > 1 {
			vs, err := ev.call(n.Init.(*CallExpr), ctl)
			if err != nil || ctl.returned {
				return err
			}
			for i, d := range n.Names {
				ev.slots[d.Sym.Slot] = vs[i]
			}
			return nil
		}
		v, err := ev.eval(n.Init, ctl)
		if err != nil || ctl.returned {
			return err
		}
		ev.slots[n.Names[0].Sym.Slot] = v
		return nil

	case *AssignStmt:
		v, err := ev.eval(n.Value, ctl)
		if err != nil || ctl.returned {
			return err
		}
		ev.slots[n.Name.Sym.Slot] = v
		return nil

	case *ExprStmt:
		if call, ok := n.X.(*CallExpr); ok {
			_, err := ev.call(call, ctl)
			return err
		}
		_, err := ev.eval(n.X, ctl)
		return err

	case *ReturnStmt:
		vs := make([]Value, len(n.Values))
		for i, e := range n.Values {
			v, err := ev.eval(e, ctl)
			if err != nil || ctl.returned {
				return err
			}
			vs[i] = v
		}
		ctl.returned = true
		ctl.results = vs
		return nil

	case *If:
		return ev.execIf(n, ctl)

	case *Block:
		return ev.execStmts(n.Stmts, ctl)

	case *EmptyStmt:
		return nil
	}
	return nil
}

func (ev *evaluator) execIf(n *If, ctl *control) error {
	body, err := ev.selectArm(n, ctl)
	if err != nil || ctl.returned || body == nil {
		return err
	}
	return ev.execStmts(body.Stmts, ctl)
}

// selectArm evaluates conditions in order and picks the first truthy arm,
// falling back to else (nil when absent in statement form).
func (ev *evaluator) selectArm(n *If, ctl *control) (*Block, error) {
	for _, br := range n.Branches {
		c, err := ev.eval(br.Cond, ctl)
		if err != nil || ctl.returned {
			return nil, err
		}
		if c.Truthy() {
			return br.Body, nil
		}
	}
	return n.Else, nil
}

func (ev *evaluator) eval(e Expr, ctl *control) (Value, error) {
	switch n := e.(type) {
	case *BasicLit:
		return litValue(n), nil

	case *Ident:
		sym := n.Sym
		if sym.Origin == OriginLocal {
			return ev.slots[sym.Slot], nil
		}
		v, ok := ev.env.Var(sym.Name)
		if !ok {
			return Value{}, faultf(n.Pos(), "environment does not supply global %q", sym.Name)
		}
		return v, nil

	case *UnaryExpr:
		v, err := ev.eval(n.X, ctl)
		if err != nil || ctl.returned {
			return Value{}, err
		}
		if n.Op == BANG {
			return boolInt(!v.Truthy()), nil
		}
		switch v.Tag {
		case VTInt:
			return IntVal(-v.Int()), nil
		case VTUint:
			return UintVal(-v.Uint()), nil
		default:
			return FloatVal(-v.Float()), nil
		}

	case *BinaryExpr:
		return ev.evalBinary(n, ctl)

	case *CallExpr:
		vs, err := ev.call(n, ctl)
		if err != nil || ctl.returned {
			return Value{}, err
		}
		return vs[0], nil

	case *ParenExpr:
		return ev.eval(n.X, ctl)

	case *If:
		body, err := ev.selectArm(n, ctl)
		if err != nil || ctl.returned {
			return Value{}, err
		}
		return ev.evalBlockValue(body, ctl)

	case *Block:
		return ev.evalBlockValue(n, ctl)
	}
	return Value{}, faultf(e.Pos(), "unevaluable expression")
}

// evalBlockValue runs an expression-form block and produces its yield value.
// A return inside the block unwinds instead.
func (ev *evaluator) evalBlockValue(b *Block, ctl *control) (Value, error) {
	last := len(b.Stmts) - 1
	if err := ev.execStmts(b.Stmts[:last], ctl); err != nil || ctl.returned {
		return Value{}, err
	}
	switch tail := b.Stmts[last].(type) {
	case *YieldStmt:
		return ev.eval(tail.Value, ctl)
	default:
		// Tail is a return.
		if err := ev.execStmt(tail, ctl); err != nil {
			return Value{}, err
		}
		return Value{}, nil
	}
}

func (ev *evaluator) call(n *CallExpr, ctl *control) ([]Value, error) {
	fn, ok := ev.env.Func(n.Callee.Name)
	if !ok {
		return nil, faultf(n.Pos(), "environment does not supply function %q", n.Callee.Name)
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.eval(a, ctl)
		if err != nil || ctl.returned {
			return nil, err
		}
		args[i] = v
	}
	vs, err := fn(args)
	if err != nil {
		return nil, &RuntimeFault{
			Pos: n.Pos(),
			Msg: fmt.Sprintf("%s: %v", n.Callee.Name, err),
			Err: err,
		}
	}
	return vs, nil
}

func (ev *evaluator) evalBinary(n *BinaryExpr, ctl *control) (Value, error) {
	// Logical operators short-circuit; everything else is strict.
	if n.Op == AND || n.Op == OR {
		l, err := ev.eval(n.L, ctl)
		if err != nil || ctl.returned {
			return Value{}, err
		}
		if n.Op == AND && !l.Truthy() {
			return boolInt(false), nil
		}
		if n.Op == OR && l.Truthy() {
			return boolInt(true), nil
		}
		r, err := ev.eval(n.R, ctl)
		if err != nil || ctl.returned {
			return Value{}, err
		}
		return boolInt(r.Truthy()), nil
	}

	l, err := ev.eval(n.L, ctl)
	if err != nil || ctl.returned {
		return Value{}, err
	}
	r, err := ev.eval(n.R, ctl)
	if err != nil || ctl.returned {
		return Value{}, err
	}

	switch l.Tag {
	case VTInt:
		a, b := l.Int(), r.Int()
		switch n.Op {
		case PLUS:
			return IntVal(a + b), nil
		case MINUS:
			return IntVal(a - b), nil
		case MULT:
			return IntVal(a * b), nil
		case DIV:
			if b == 0 {
				return Value{}, faultf(n.Pos(), "integer division by zero")
			}
			return IntVal(a / b), nil
		case EQ:
			return boolInt(a == b), nil
		case NEQ:
			return boolInt(a != b), nil
		case LESS:
			return boolInt(a < b), nil
		case LESS_EQ:
			return boolInt(a <= b), nil
		case GREATER:
			return boolInt(a > b), nil
		case GREATER_EQ:
			return boolInt(a >= b), nil
		}

	case VTUint:
		a, b := l.Uint(), r.Uint()
		switch n.Op {
		case PLUS:
			return UintVal(a + b), nil
		case MINUS:
			return UintVal(a - b), nil
		case MULT:
			return UintVal(a * b), nil
		case DIV:
			if b == 0 {
				return Value{}, faultf(n.Pos(), "integer division by zero")
			}
			return UintVal(a / b), nil
		case EQ:
			return boolInt(a == b), nil
		case NEQ:
			return boolInt(a != b), nil
		case LESS:
			return boolInt(a < b), nil
		case LESS_EQ:
			return boolInt(a <= b), nil
		case GREATER:
			return boolInt(a > b), nil
		case GREATER_EQ:
			return boolInt(a >= b), nil
		}

	case VTFloat:
		a, b := l.Float(), r.Float()
		switch n.Op {
		case PLUS:
			return FloatVal(a + b), nil
		case MINUS:
			return FloatVal(a - b), nil
		case MULT:
			return FloatVal(a * b), nil
		case DIV:
			return FloatVal(a / b), nil
		case EQ:
			return boolInt(a == b), nil
		case NEQ:
			return boolInt(a != b), nil
		case LESS:
			return boolInt(a < b), nil
		case LESS_EQ:
			return boolInt(a <= b), nil
		case GREATER:
			return boolInt(a > b), nil
		case GREATER_EQ:
			return boolInt(a >= b), nil
		}

	case VTStr:
		a, b := l.Str(), r.Str()
		switch n.Op {
		case PLUS:
			return StrVal(a + b), nil
		case EQ:
			return boolInt(a == b), nil
		case NEQ:
			return boolInt(a != b), nil
		}
	}
	return Value{}, faultf(n.Pos(), "operator %s not defined on %s", n.Op, l.TypeOf())
}

// litValue materializes a literal per its checked type. An unsuffixed int
// literal that adopted uint or float from context converts here.
func litValue(n *BasicLit) Value {
	switch n.Kind {
	case LitString:
		return StrVal(n.StrVal)
	case LitFloat:
		return FloatVal(n.FloatVal)
	default:
		switch n.Type().Kind {
		case KindUint:
			return UintVal(n.IntVal)
		case KindFloat:
			return FloatVal(float64(n.IntVal))
		default:
			return IntVal(int64(n.IntVal))
		}
	}
}

func boolInt(b bool) Value {
	if b {
		return IntVal(1)
	}
	return IntVal(0)
}
