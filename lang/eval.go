package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/cel/lang/token"
)

// Execute evaluates p against c. A nil context behaves like [NewContext],
// and a nil program fails with [ErrNilProgram].
//
// Evaluation reads but never modifies c, and returns a fresh value for
// composite results. Any failure aborts evaluation; the error matches one of
// the execution sentinels such as [ErrNoSuchVariable] via errors.Is.
func Execute(p *Program, c *Context) (Value, error) {
	if p == nil || p.root == nil {
		return nil, ErrNilProgram
	}

	if c == nil {
		c = NewContext()
	}

	v, err := c.eval(p.root)
	if err != nil {
		c.logger.TraceContext(context.Background(), "execute failed",
			slog.String("source", p.source),
			slog.Any("error", err))

		return nil, err
	}

	c.logger.TraceContext(context.Background(), "execute complete",
		slog.String("source", p.source),
		slog.String("result_type", kindOf(v).String()))

	return v, nil
}

// withPos attaches the failing node's position to an evaluation error.
func withPos(err error, pos token.Position) error {
	if e, ok := err.(*Error); ok && pos.IsValid() {
		for _, a := range e.attrs {
			if a.Key == "pos" {
				return e
			}
		}

		return e.With(slog.String("pos", pos.String()))
	}

	return err
}

// eval evaluates one node. Each node kind has exactly one rule.
func (c *Context) eval(e Expr) (Value, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		return c.evalIdent(n)

	case *Select:
		return c.evalSelect(n)

	case *Index:
		return c.evalIndex(n)

	case *Unary:
		return c.evalUnary(n)

	case *Binary:
		return c.evalBinary(n)

	case *Logical:
		return c.evalLogical(n)

	case *Conditional:
		return c.evalConditional(n)

	case *ListExpr:
		return c.evalList(n)

	case *MapExpr:
		return c.evalMap(n)

	case *Call:
		return c.evalCall(n)
	}

	return nil, ErrTypeMismatch.With(slog.String("reason", "unknown node"))
}

func (c *Context) evalIdent(n *Ident) (Value, error) {
	if v, ok := c.vars[n.Name]; ok {
		return v, nil
	}

	if c.HasFunction(n.Name) {
		return Function{Name: n.Name}, nil
	}

	return nil, ErrNoSuchVariable.With(
		slog.String("name", n.Name),
		slog.String("pos", n.At.String()),
	)
}

// evalSelect reads a field. On a map the field name is a string key; on any
// other value naming a method yields a bound function reference.
func (c *Context) evalSelect(n *Select) (Value, error) {
	operand, err := c.eval(n.Operand)
	if err != nil {
		return nil, err
	}

	if m, ok := operand.(*Map); ok {
		v, ok := m.Get(String(n.Field))
		if !ok {
			return nil, ErrNoSuchKey.With(
				slog.String("key", n.Field),
				slog.String("pos", n.At.String()),
			)
		}

		return v, nil
	}

	for _, b := range c.funcs[n.Field] {
		if b.receiver != receiverForbidden &&
			(b.receiver == receiverAny || kindIn(kindOf(operand), b.receivers)) {
			return Function{Name: n.Field, Receiver: operand}, nil
		}
	}

	return nil, ErrNotIndexable.With(
		slog.String("kind", kindOf(operand).String()),
		slog.String("field", n.Field),
		slog.String("pos", n.At.String()),
	)
}

func (c *Context) evalIndex(n *Index) (Value, error) {
	operand, err := c.eval(n.Operand)
	if err != nil {
		return nil, err
	}

	idx, err := c.eval(n.Index)
	if err != nil {
		return nil, err
	}

	v, err := index(operand, idx)
	if err != nil {
		return nil, withPos(err, n.At)
	}

	return v, nil
}

// index applies operand[idx] for lists and maps.
func index(operand, idx Value) (Value, error) {
	switch x := operand.(type) {
	case List:
		var i int64

		switch k := idx.(type) {
		case Int:
			i = int64(k)
		case Uint:
			if uint64(k) > uint64(len(x)) {
				i = int64(len(x))
			} else {
				i = int64(k)
			}
		default:
			return nil, ErrTypeMismatch.With(
				slog.String("reason", "list index must be int or uint"),
				slog.String("index", kindOf(idx).String()),
			)
		}

		if i < 0 || i >= int64(len(x)) {
			return nil, ErrIndexOutOfRange.With(
				slog.String("index", Repr(idx)),
				slog.Int("size", len(x)),
			)
		}

		return x[i], nil

	case *Map:
		if _, err := keyOf(idx); err != nil {
			return nil, err
		}

		v, ok := x.Get(idx)
		if !ok {
			return nil, ErrNoSuchKey.With(slog.String("key", Repr(idx)))
		}

		return v, nil
	}

	return nil, ErrNotIndexable.With(slog.String("kind", kindOf(operand).String()))
}

func (c *Context) evalUnary(n *Unary) (Value, error) {
	operand, err := c.eval(n.Operand)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpNot:
		b, ok := operand.(Bool)
		if !ok {
			return nil, ErrTypeMismatch.With(
				slog.String("op", "!"),
				slog.String("operand", kindOf(operand).String()),
				slog.String("pos", n.At.String()),
			)
		}

		return !b, nil

	case OpNeg:
		v, err := negate(operand)
		if err != nil {
			return nil, withPos(err, n.At)
		}

		return v, nil
	}

	return nil, ErrTypeMismatch.With(slog.String("op", n.Op.String()))
}

var arithOps = map[Operator]arithOp{
	OpAdd: opAdd,
	OpSub: opSub,
	OpMul: opMul,
	OpDiv: opDiv,
	OpMod: opMod,
}

func (c *Context) evalBinary(n *Binary) (Value, error) {
	left, err := c.eval(n.Left)
	if err != nil {
		return nil, err
	}

	right, err := c.eval(n.Right)
	if err != nil {
		return nil, err
	}

	v, err := applyBinary(n.Op, left, right)
	if err != nil {
		return nil, withPos(err, n.At)
	}

	return v, nil
}

func applyBinary(op Operator, left, right Value) (Value, error) {
	switch op {
	case OpEq:
		return Bool(Equal(left, right)), nil

	case OpNe:
		return Bool(!Equal(left, right)), nil

	case OpLt, OpLe, OpGt, OpGe:
		c, err := Compare(left, right)
		if err != nil {
			return nil, err
		}

		switch op {
		case OpLt:
			return Bool(c < 0), nil
		case OpLe:
			return Bool(c <= 0), nil
		case OpGt:
			return Bool(c > 0), nil
		default:
			return Bool(c >= 0), nil
		}
	}

	if aop, ok := arithOps[op]; ok {
		return arith(aop, left, right)
	}

	return nil, mismatch(op.String(), left, right)
}

// evalLogical evaluates Right only when Left does not decide the result.
func (c *Context) evalLogical(n *Logical) (Value, error) {
	left, err := c.eval(n.Left)
	if err != nil {
		return nil, err
	}

	if n.Op == OpCoalesce {
		if kindOf(left) != KindNull {
			return left, nil
		}

		return c.eval(n.Right)
	}

	lb, ok := left.(Bool)
	if !ok {
		return nil, boolMismatch(n.Op, left, n.At)
	}

	if (n.Op == OpAnd && !bool(lb)) || (n.Op == OpOr && bool(lb)) {
		return lb, nil
	}

	right, err := c.eval(n.Right)
	if err != nil {
		return nil, err
	}

	rb, ok := right.(Bool)
	if !ok {
		return nil, boolMismatch(n.Op, right, n.At)
	}

	return rb, nil
}

func boolMismatch(op Operator, v Value, pos token.Position) error {
	return ErrTypeMismatch.With(
		slog.String("op", op.String()),
		slog.String("reason", "operand must be bool"),
		slog.String("operand", kindOf(v).String()),
		slog.String("pos", pos.String()),
	)
}

// evalConditional evaluates exactly one branch.
func (c *Context) evalConditional(n *Conditional) (Value, error) {
	cond, err := c.eval(n.Cond)
	if err != nil {
		return nil, err
	}

	b, ok := cond.(Bool)
	if !ok {
		return nil, ErrTypeMismatch.With(
			slog.String("reason", "condition must be bool"),
			slog.String("operand", kindOf(cond).String()),
			slog.String("pos", n.At.String()),
		)
	}

	if b {
		return c.eval(n.Then)
	}

	return c.eval(n.Else)
}

func (c *Context) evalList(n *ListExpr) (Value, error) {
	out := make(List, len(n.Elems))

	for i, el := range n.Elems {
		v, err := c.eval(el)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// evalMap evaluates entries in source order, key before value.
func (c *Context) evalMap(n *MapExpr) (Value, error) {
	m := &Map{
		index: make(map[mapKey]int, len(n.Entries)),
		keys:  make([]Value, 0, len(n.Entries)),
		vals:  make([]Value, 0, len(n.Entries)),
	}

	for _, ent := range n.Entries {
		k, err := c.eval(ent.Key)
		if err != nil {
			return nil, err
		}

		v, err := c.eval(ent.Value)
		if err != nil {
			return nil, err
		}

		if err := m.insert(k, v); err != nil {
			return nil, withPos(err, ent.Key.Pos())
		}
	}

	return m, nil
}

// evalCall evaluates the receiver and arguments once, left to right, then
// dispatches.
func (c *Context) evalCall(n *Call) (Value, error) {
	var (
		receiver    Value
		hasReceiver = n.Receiver != nil
	)

	if hasReceiver {
		v, err := c.eval(n.Receiver)
		if err != nil {
			return nil, err
		}

		receiver = v
	}

	args := make([]Value, len(n.Args))

	for i, arg := range n.Args {
		v, err := c.eval(arg)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	v, err := c.Call(n.Name, hasReceiver, receiver, args...)
	if err != nil {
		return nil, withPos(err, n.At)
	}

	return v, nil
}
