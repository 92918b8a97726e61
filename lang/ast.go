package lang

import (
	"strconv"

	"github.com/ardnew/cel/lang/token"
)

// Expr is a node in the abstract syntax tree. Nodes are immutable after
// construction and each node exclusively owns its children.
type Expr interface {
	// Pos returns the position of the token that introduced the node.
	Pos() token.Position
	// Kind returns the node variant.
	Kind() NodeKind

	exprNode()
}

// NodeKind identifies the variant of an [Expr].
type NodeKind uint8

const (
	NodeLiteral NodeKind = iota
	NodeIdent
	NodeSelect
	NodeIndex
	NodeUnary
	NodeBinary
	NodeLogical
	NodeConditional
	NodeList
	NodeMap
	NodeCall
)

var nodeKindNames = [...]string{
	NodeLiteral:     "Literal",
	NodeIdent:       "Ident",
	NodeSelect:      "Select",
	NodeIndex:       "Index",
	NodeUnary:       "Unary",
	NodeBinary:      "Binary",
	NodeLogical:     "Logical",
	NodeConditional: "Conditional",
	NodeList:        "List",
	NodeMap:         "Map",
	NodeCall:        "Call",
}

// String returns a string representation of the node kind.
func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}

	return "NodeKind(" + strconv.Itoa(int(k)) + ")"
}

// Operator identifies a unary, binary, or logical operator.
type Operator uint8

const (
	OpNot Operator = iota // !
	OpNeg                 // - (unary)

	OpAdd // +
	OpSub // -
	OpMul // *
	OpDiv // /
	OpMod // %
	OpEq  // ==
	OpNe  // !=
	OpLt  // <
	OpLe  // <=
	OpGt  // >
	OpGe  // >=

	OpAnd      // &&
	OpOr       // ||
	OpCoalesce // ??
)

var operatorNames = [...]string{
	OpNot:      "!",
	OpNeg:      "-",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpMod:      "%",
	OpEq:       "==",
	OpNe:       "!=",
	OpLt:       "<",
	OpLe:       "<=",
	OpGt:       ">",
	OpGe:       ">=",
	OpAnd:      "&&",
	OpOr:       "||",
	OpCoalesce: "??",
}

// String returns the source spelling of the operator.
func (op Operator) String() string {
	if int(op) < len(operatorNames) {
		return operatorNames[op]
	}

	return "Operator(" + strconv.Itoa(int(op)) + ")"
}

type (
	// Literal is a constant value written in source.
	Literal struct {
		Value Value
		At    token.Position
	}

	// Ident references a variable or function by name.
	Ident struct {
		Name string
		At   token.Position
	}

	// Select reads a field: Operand.Field. On a map it looks up the string
	// key Field.
	Select struct {
		Operand Expr
		Field   string
		At      token.Position
	}

	// Index reads Operand[Index].
	Index struct {
		Operand Expr
		Index   Expr
		At      token.Position
	}

	// Unary applies OpNot or OpNeg.
	Unary struct {
		Operand Expr
		At      token.Position
		Op      Operator
	}

	// Binary applies an arithmetic or comparison operator. Both operands are
	// always evaluated, left first.
	Binary struct {
		Left  Expr
		Right Expr
		At    token.Position
		Op    Operator
	}

	// Logical applies a short-circuiting operator: OpAnd, OpOr, or
	// OpCoalesce. Right is evaluated only when Left does not decide the
	// result.
	Logical struct {
		Left  Expr
		Right Expr
		At    token.Position
		Op    Operator
	}

	// Conditional is Cond ? Then : Else.
	Conditional struct {
		Cond Expr
		Then Expr
		Else Expr
		At   token.Position
	}

	// ListExpr constructs a list.
	ListExpr struct {
		Elems []Expr
		At    token.Position
	}

	// MapExpr constructs a map.
	MapExpr struct {
		Entries []MapEntry
		At      token.Position
	}

	// MapEntry is one key: value pair of a [MapExpr].
	MapEntry struct {
		Key   Expr
		Value Expr
	}

	// Call invokes a function. Receiver is nil for a free call name(args)
	// and set for a method call receiver.name(args).
	Call struct {
		Receiver Expr
		Name     string
		Args     []Expr
		At       token.Position
	}
)

func (n *Literal) Pos() token.Position     { return n.At }
func (n *Ident) Pos() token.Position       { return n.At }
func (n *Select) Pos() token.Position      { return n.At }
func (n *Index) Pos() token.Position       { return n.At }
func (n *Unary) Pos() token.Position       { return n.At }
func (n *Binary) Pos() token.Position      { return n.At }
func (n *Logical) Pos() token.Position     { return n.At }
func (n *Conditional) Pos() token.Position { return n.At }
func (n *ListExpr) Pos() token.Position    { return n.At }
func (n *MapExpr) Pos() token.Position     { return n.At }
func (n *Call) Pos() token.Position        { return n.At }

func (*Literal) Kind() NodeKind     { return NodeLiteral }
func (*Ident) Kind() NodeKind       { return NodeIdent }
func (*Select) Kind() NodeKind      { return NodeSelect }
func (*Index) Kind() NodeKind       { return NodeIndex }
func (*Unary) Kind() NodeKind       { return NodeUnary }
func (*Binary) Kind() NodeKind      { return NodeBinary }
func (*Logical) Kind() NodeKind     { return NodeLogical }
func (*Conditional) Kind() NodeKind { return NodeConditional }
func (*ListExpr) Kind() NodeKind    { return NodeList }
func (*MapExpr) Kind() NodeKind     { return NodeMap }
func (*Call) Kind() NodeKind        { return NodeCall }

func (*Literal) exprNode()     {}
func (*Ident) exprNode()       {}
func (*Select) exprNode()      {}
func (*Index) exprNode()       {}
func (*Unary) exprNode()       {}
func (*Binary) exprNode()      {}
func (*Logical) exprNode()     {}
func (*Conditional) exprNode() {}
func (*ListExpr) exprNode()    {}
func (*MapExpr) exprNode()     {}
func (*Call) exprNode()        {}

// Walk traverses the tree rooted at e in depth-first order, calling fn for
// each node before its children. If fn returns false the node's children
// are skipped.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}

	switch n := e.(type) {
	case *Select:
		Walk(n.Operand, fn)

	case *Index:
		Walk(n.Operand, fn)
		Walk(n.Index, fn)

	case *Unary:
		Walk(n.Operand, fn)

	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *Logical:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *Conditional:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)

	case *ListExpr:
		for _, el := range n.Elems {
			Walk(el, fn)
		}

	case *MapExpr:
		for _, ent := range n.Entries {
			Walk(ent.Key, fn)
			Walk(ent.Value, fn)
		}

	case *Call:
		Walk(n.Receiver, fn)

		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	}
}
