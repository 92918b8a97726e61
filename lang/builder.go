package lang

import "slices"

// Builder provides a programmatic API for constructing syntax trees without
// parsing source text. This is useful for generating expressions, such as a
// configuration map, that are later rendered with [Program.String].
//
// Example:
//
//	b := lang.NewBuilder()
//	p := b.Program(
//	    b.Map(
//	        b.Entry(b.String("level"), b.String("info")),
//	        b.Entry(b.String("depth"), b.Value(lang.Int(100))),
//	    ),
//	)
//
// Nodes produced by a Builder carry no source positions.
type Builder struct{}

// NewBuilder creates a new syntax tree builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Value creates a literal node holding v. A nil v is null.
func (b *Builder) Value(v Value) Expr {
	if v == nil {
		v = Null{}
	}

	return &Literal{Value: v}
}

// String creates a string literal node.
func (b *Builder) String(s string) Expr { return b.Value(String(s)) }

// Bool creates a boolean literal node.
func (b *Builder) Bool(v bool) Expr { return b.Value(Bool(v)) }

// Ident creates an identifier node.
func (b *Builder) Ident(name string) Expr {
	return &Ident{Name: name}
}

// Select creates a field selection node.
func (b *Builder) Select(operand Expr, field string) Expr {
	return &Select{Operand: operand, Field: field}
}

// Binary creates an arithmetic, comparison, or logical node for op.
func (b *Builder) Binary(op Operator, left, right Expr) Expr {
	switch op {
	case OpAnd, OpOr, OpCoalesce:
		return &Logical{Op: op, Left: left, Right: right}
	}

	return &Binary{Op: op, Left: left, Right: right}
}

// List creates a list constructor node.
func (b *Builder) List(elems ...Expr) Expr {
	return &ListExpr{Elems: slices.Clone(elems)}
}

// Entry pairs a key and value for [Builder.Map].
func (b *Builder) Entry(key, value Expr) MapEntry {
	return MapEntry{Key: key, Value: value}
}

// Map creates a map constructor node.
func (b *Builder) Map(entries ...MapEntry) Expr {
	return &MapExpr{Entries: slices.Clone(entries)}
}

// Call creates a call node. A nil receiver makes a free call.
func (b *Builder) Call(receiver Expr, name string, args ...Expr) Expr {
	return &Call{Receiver: receiver, Name: name, Args: slices.Clone(args)}
}

// Program wraps root in a [Program] whose source is the canonical rendering
// of the tree.
func (b *Builder) Program(root Expr) *Program {
	p := &Program{root: root}
	p.source = p.String()

	return p
}
