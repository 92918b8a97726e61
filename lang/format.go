package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Output formats shared by programs and values.
const (
	FormatNative = "native"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// Formats lists the supported output format names.
func Formats() []string { return []string{FormatNative, FormatJSON, FormatYAML} }

// Precedence levels used when rendering source, lowest first.
const (
	precTernary = iota + 1
	precCoalesce
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

func operatorPrec(op Operator) int {
	switch op {
	case OpCoalesce:
		return precCoalesce
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpEq, OpNe:
		return precEquality
	case OpLt, OpLe, OpGt, OpGe:
		return precRelational
	case OpAdd, OpSub:
		return precAdditive
	case OpMul, OpDiv, OpMod:
		return precMultiplicative
	}

	return precUnary
}

func exprPrec(e Expr) int {
	switch n := e.(type) {
	case *Conditional:
		return precTernary
	case *Binary:
		return operatorPrec(n.Op)
	case *Logical:
		return operatorPrec(n.Op)
	case *Unary:
		return precUnary
	case *Literal:
		if strings.HasPrefix(Repr(n.Value), "-") {
			return precUnary
		}
	}

	return precPostfix
}

// String renders the program as canonical source text. Compiling the result
// yields an equivalent program.
func (p *Program) String() string {
	var sb strings.Builder

	writeExpr(&sb, p.root, precTernary)

	return sb.String()
}

// writeExpr renders e, parenthesized when its precedence is below min.
func writeExpr(sb *strings.Builder, e Expr, minPrec int) {
	if exprPrec(e) < minPrec {
		sb.WriteByte('(')
		writeExpr(sb, e, precTernary)
		sb.WriteByte(')')

		return
	}

	switch n := e.(type) {
	case *Literal:
		sb.WriteString(Repr(n.Value))

	case *Ident:
		sb.WriteString(n.Name)

	case *Select:
		writeExpr(sb, n.Operand, precPostfix)
		sb.WriteByte('.')
		sb.WriteString(n.Field)

	case *Index:
		writeExpr(sb, n.Operand, precPostfix)
		sb.WriteByte('[')
		writeExpr(sb, n.Index, precTernary)
		sb.WriteByte(']')

	case *Unary:
		sb.WriteString(n.Op.String())
		writeExpr(sb, n.Operand, precUnary)

	case *Binary:
		writeInfix(sb, n.Op, n.Left, n.Right)

	case *Logical:
		writeInfix(sb, n.Op, n.Left, n.Right)

	case *Conditional:
		writeExpr(sb, n.Cond, precCoalesce)
		sb.WriteString(" ? ")
		writeExpr(sb, n.Then, precTernary)
		sb.WriteString(" : ")
		writeExpr(sb, n.Else, precTernary)

	case *ListExpr:
		sb.WriteByte('[')
		writeList(sb, n.Elems)
		sb.WriteByte(']')

	case *MapExpr:
		sb.WriteByte('{')

		for i, ent := range n.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}

			writeExpr(sb, ent.Key, precTernary)
			sb.WriteString(": ")
			writeExpr(sb, ent.Value, precTernary)
		}

		sb.WriteByte('}')

	case *Call:
		if n.Receiver != nil {
			writeExpr(sb, n.Receiver, precPostfix)
			sb.WriteByte('.')
		}

		sb.WriteString(n.Name)
		sb.WriteByte('(')
		writeList(sb, n.Args)
		sb.WriteByte(')')
	}
}

// writeInfix renders a left-associative binary operation.
func writeInfix(sb *strings.Builder, op Operator, left, right Expr) {
	prec := operatorPrec(op)

	writeExpr(sb, left, prec)
	sb.WriteString(" " + op.String() + " ")
	writeExpr(sb, right, prec+1)
}

func writeList(sb *strings.Builder, exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			sb.WriteString(", ")
		}

		writeExpr(sb, e, precTernary)
	}
}

// Format writes the canonical source of the program followed by a newline.
func (p *Program) Format(_ context.Context, w io.Writer) error {
	_, err := fmt.Fprintln(w, p.String())

	return err
}

// FormatIndent is like [Program.Format], but when the root is a non-empty
// list or map it places each element on its own line, indented by indent
// spaces, with a trailing comma. Nested values stay on one line.
func (p *Program) FormatIndent(ctx context.Context, w io.Writer, indent int) error {
	var items []string

	switch n := p.root.(type) {
	case *ListExpr:
		for _, e := range n.Elems {
			items = append(items, exprString(e))
		}

	case *MapExpr:
		for _, ent := range n.Entries {
			items = append(items, exprString(ent.Key)+": "+exprString(ent.Value))
		}
	}

	if indent <= 0 || len(items) == 0 {
		return p.Format(ctx, w)
	}

	lb, rb := "[", "]"
	if p.root.Kind() == NodeMap {
		lb, rb = "{", "}"
	}

	var sb strings.Builder

	sb.WriteString(lb + "\n")

	for _, item := range items {
		sb.WriteString(strings.Repeat(" ", indent) + item + ",\n")
	}

	sb.WriteString(rb + "\n")

	_, err := io.WriteString(w, sb.String())

	return err
}

func exprString(e Expr) string {
	var sb strings.Builder

	writeExpr(&sb, e, precTernary)

	return sb.String()
}

// FormatJSON writes the syntax tree as JSON to the writer.
func (p *Program) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	return writeJSON(w, p.ToMap(), indent)
}

// FormatYAML writes the syntax tree as YAML to the writer.
func (p *Program) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	return writeYAML(ctx, w, p.ToMap(), indent)
}

// FormatValue writes v to w in the named format: native source syntax,
// JSON, or YAML.
func FormatValue(
	ctx context.Context,
	w io.Writer,
	v Value,
	format string,
	indent int,
) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, plain(v), indent)

	case FormatYAML:
		return writeYAML(ctx, w, plain(v), indent)

	case "", FormatNative:
		_, err := fmt.Fprintln(w, Repr(v))

		return err
	}

	return fmt.Errorf("unknown format %q", format)
}

func writeJSON(w io.Writer, data any, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(data, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(data)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

func writeYAML(ctx context.Context, w io.Writer, data any, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, data, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

func writer(w io.Writer) func(eol string, item ...string) {
	return func(eol string, item ...string) {
		_, err := io.WriteString(w, strings.Join(item, ": ")+eol)
		if err != nil {
			panic(err)
		}
	}
}

// Print writes an indented dump of the syntax tree.
func (p *Program) Print(w io.Writer) {
	printExpr(w, "", p.root, 0)
}

func printExpr(w io.Writer, label string, e Expr, indent int) {
	prefix := strings.Repeat("  ", indent)
	put := writer(w)

	if label != "" {
		prefix += label + " "
	}

	if e == nil {
		put("\n", prefix+"(nil)")

		return
	}

	head := prefix + e.Kind().String()

	switch n := e.(type) {
	case *Literal:
		put("\n", head, Repr(n.Value))

	case *Ident:
		put("\n", head, n.Name)

	case *Select:
		put("\n", head, n.Field)
		printExpr(w, "", n.Operand, indent+1)

	case *Index:
		put("\n", head)
		printExpr(w, "", n.Operand, indent+1)
		printExpr(w, "[]", n.Index, indent+1)

	case *Unary:
		put("\n", head, n.Op.String())
		printExpr(w, "", n.Operand, indent+1)

	case *Binary:
		put("\n", head, n.Op.String())
		printExpr(w, "", n.Left, indent+1)
		printExpr(w, "", n.Right, indent+1)

	case *Logical:
		put("\n", head, n.Op.String())
		printExpr(w, "", n.Left, indent+1)
		printExpr(w, "", n.Right, indent+1)

	case *Conditional:
		put("\n", head)
		printExpr(w, "?", n.Cond, indent+1)
		printExpr(w, "then", n.Then, indent+1)
		printExpr(w, "else", n.Else, indent+1)

	case *ListExpr:
		if len(n.Elems) == 0 {
			put("\n", head, "(empty)")

			return
		}

		put("\n", head)

		for _, el := range n.Elems {
			printExpr(w, "", el, indent+1)
		}

	case *MapExpr:
		if len(n.Entries) == 0 {
			put("\n", head, "(empty)")

			return
		}

		put("\n", head)

		for _, ent := range n.Entries {
			printExpr(w, "key", ent.Key, indent+1)
			printExpr(w, "value", ent.Value, indent+1)
		}

	case *Call:
		put("\n", head, n.Name)

		if n.Receiver != nil {
			printExpr(w, "receiver", n.Receiver, indent+1)
		}

		for _, arg := range n.Args {
			printExpr(w, "", arg, indent+1)
		}
	}
}
