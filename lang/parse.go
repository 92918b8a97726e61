package lang

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/cel/lang/token"
)

// parser holds the parser state. It consumes a token slice produced by the
// lexer and builds the tree by recursive descent, one function per
// precedence level.
type parser struct {
	tokens   []token.Token
	pos      int
	depth    int
	maxDepth int
}

// parse reduces tokens to a single expression. Trailing tokens are an error.
func parse(tokens []token.Token, maxDepth int) (Expr, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		tokens = append(tokens, token.Token{Kind: token.EOF})
	}

	p := &parser{
		tokens:   tokens,
		maxDepth: maxDepth,
	}

	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if !p.at(token.EOF) {
		return nil, p.unexpected("end of input")
	}

	return e, nil
}

// parseExpr parses a full expression (ternary level).
//
//	expr → coalesce ( '?' expr ':' expr )?
func (p *parser) parseExpr() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	cond, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}

	if !p.at(token.Question) {
		return cond, nil
	}

	q := p.advance()

	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Colon, "':'"); err != nil {
		return nil, err
	}

	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &Conditional{Cond: cond, Then: then, Else: els, At: q.Pos}, nil
}

func (p *parser) parseCoalesce() (Expr, error) {
	return p.parseLogical(OpCoalesce, token.Coalesce, p.parseOr)
}

func (p *parser) parseOr() (Expr, error) {
	return p.parseLogical(OpOr, token.OrOr, p.parseAnd)
}

func (p *parser) parseAnd() (Expr, error) {
	return p.parseLogical(OpAnd, token.AndAnd, p.parseEquality)
}

// parseLogical parses a left-associative chain of one short-circuit
// operator.
func (p *parser) parseLogical(
	op Operator,
	kind token.Kind,
	next func() (Expr, error),
) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	var folds int
	defer p.release(&folds)

	for p.at(kind) {
		tok := p.advance()

		if err := p.fold(&folds); err != nil {
			return nil, err
		}

		right, err := next()
		if err != nil {
			return nil, err
		}

		left = &Logical{Op: op, Left: left, Right: right, At: tok.Pos}
	}

	return left, nil
}

var (
	equalityOps = map[token.Kind]Operator{
		token.Eq:    OpEq,
		token.NotEq: OpNe,
	}
	relationalOps = map[token.Kind]Operator{
		token.Less:      OpLt,
		token.LessEq:    OpLe,
		token.Greater:   OpGt,
		token.GreaterEq: OpGe,
	}
	additiveOps = map[token.Kind]Operator{
		token.Plus:  OpAdd,
		token.Minus: OpSub,
	}
	multiplicativeOps = map[token.Kind]Operator{
		token.Star:    OpMul,
		token.Slash:   OpDiv,
		token.Percent: OpMod,
	}
)

func (p *parser) parseEquality() (Expr, error) {
	return p.parseBinary(equalityOps, p.parseRelational)
}

func (p *parser) parseRelational() (Expr, error) {
	return p.parseBinary(relationalOps, p.parseAdditive)
}

func (p *parser) parseAdditive() (Expr, error) {
	return p.parseBinary(additiveOps, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (Expr, error) {
	return p.parseBinary(multiplicativeOps, p.parseUnary)
}

// parseBinary parses a left-associative chain of the operators in ops.
func (p *parser) parseBinary(
	ops map[token.Kind]Operator,
	next func() (Expr, error),
) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	var folds int
	defer p.release(&folds)

	for {
		op, ok := ops[p.peek().Kind]
		if !ok {
			return left, nil
		}

		tok := p.advance()

		if err := p.fold(&folds); err != nil {
			return nil, err
		}

		right, err := next()
		if err != nil {
			return nil, err
		}

		left = &Binary{Op: op, Left: left, Right: right, At: tok.Pos}
	}
}

// parseUnary parses prefix operators, which are right-associative.
//
//	unary → ( '!' | '-' ) unary | postfix
func (p *parser) parseUnary() (Expr, error) {
	var op Operator

	switch p.peek().Kind {
	case token.Bang:
		op = OpNot
	case token.Minus:
		if lit, ok := p.minInt64(); ok {
			return lit, nil
		}

		op = OpNeg
	default:
		return p.parsePostfix()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.advance()

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &Unary{Op: op, Operand: operand, At: tok.Pos}, nil
}

// minInt64 folds "-9223372036854775808" into a single literal, since the
// magnitude alone does not fit an int. It applies only when no postfix
// operator follows the digits.
func (p *parser) minInt64() (Expr, bool) {
	minus, num, after := p.peekAt(0), p.peekAt(1), p.peekAt(2)

	if num.Kind != token.Int || after.Kind == token.Dot ||
		after.Kind == token.LBracket {
		return nil, false
	}

	u, err := parseUintDigits(num.Value)
	if err != nil || u != 1<<63 {
		return nil, false
	}

	p.advance()
	p.advance()

	return &Literal{Value: Int(math.MinInt64), At: minus.Pos}, true
}

// parsePostfix parses member access, method calls, and indexing.
//
//	postfix → primary ( '.' IDENT ( '(' args ')' )? | '[' expr ']' )*
func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	var folds int
	defer p.release(&folds)

	for {
		switch p.peek().Kind {
		case token.Dot, token.LBracket:
			if err := p.fold(&folds); err != nil {
				return nil, err
			}
		}

		switch p.peek().Kind {
		case token.Dot:
			p.advance()

			name, err := p.expect(token.Ident, "identifier")
			if err != nil {
				return nil, err
			}

			if p.at(token.LParen) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}

				e = &Call{Receiver: e, Name: name.Text, Args: args, At: name.Pos}

				continue
			}

			e = &Select{Operand: e, Field: name.Text, At: name.Pos}

		case token.LBracket:
			open := p.advance()

			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(token.RBracket, "']'"); err != nil {
				return nil, err
			}

			e = &Index{Operand: e, Index: idx, At: open.Pos}

		default:
			return e, nil
		}
	}
}

// parsePrimary parses literals, identifiers, free calls, parenthesized
// expressions, and list and map constructors.
func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.Int, token.Uint, token.Float, token.String, token.Bytes,
		token.True, token.False, token.Null:
		p.advance()

		v, err := literalValue(tok)
		if err != nil {
			return nil, &SyntaxError{
				Pos:      tok.Pos,
				Expected: "valid " + tok.Kind.String(),
				Found:    tok.String(),
				err:      err,
			}
		}

		return &Literal{Value: v, At: tok.Pos}, nil

	case token.Ident:
		p.advance()

		if p.at(token.LParen) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}

			return &Call{Name: tok.Text, Args: args, At: tok.Pos}, nil
		}

		return &Ident{Name: tok.Text, At: tok.Pos}, nil

	case token.LParen:
		p.advance()

		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}

		return e, nil

	case token.LBracket:
		return p.parseList()

	case token.LBrace:
		return p.parseMap()
	}

	return nil, p.unexpected("expression")
}

// parseArgs parses a parenthesized, comma-separated argument list.
func (p *parser) parseArgs() ([]Expr, error) {
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}

	var args []Expr

	if p.at(token.RParen) {
		p.advance()

		return args, nil
	}

	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if p.at(token.Comma) {
			p.advance()

			continue
		}

		if _, err := p.expect(token.RParen, "',' or ')'"); err != nil {
			return nil, err
		}

		return args, nil
	}
}

// parseList parses '[' ( expr ( ',' expr )* ','? )? ']'.
func (p *parser) parseList() (Expr, error) {
	open := p.advance()
	list := &ListExpr{At: open.Pos}

	for !p.at(token.RBracket) {
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		list.Elems = append(list.Elems, el)

		if !p.at(token.Comma) {
			break
		}

		p.advance()
	}

	if _, err := p.expect(token.RBracket, "',' or ']'"); err != nil {
		return nil, err
	}

	return list, nil
}

// parseMap parses '{' ( entry ( ',' entry )* ','? )? '}' where
// entry → expr ':' expr.
func (p *parser) parseMap() (Expr, error) {
	open := p.advance()
	m := &MapExpr{At: open.Pos}

	for !p.at(token.RBrace) {
		key, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.Colon, "':'"); err != nil {
			return nil, err
		}

		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		m.Entries = append(m.Entries, MapEntry{Key: key, Value: val})

		if !p.at(token.Comma) {
			break
		}

		p.advance()
	}

	if _, err := p.expect(token.RBrace, "',' or '}'"); err != nil {
		return nil, err
	}

	return m, nil
}

// literalValue decodes a literal token.
func literalValue(tok token.Token) (Value, error) {
	switch tok.Kind {
	case token.Int:
		u, err := parseUintDigits(tok.Value)
		if err != nil || u > math.MaxInt64 {
			return nil, ErrOverflow.With(slogLiteral(tok))
		}

		return Int(int64(u)), nil

	case token.Uint:
		u, err := parseUintDigits(tok.Value)
		if err != nil {
			return nil, ErrOverflow.With(slogLiteral(tok))
		}

		return Uint(u), nil

	case token.Float:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, ErrOverflow.With(slogLiteral(tok))
		}

		return Float(f), nil

	case token.String:
		return String(tok.Value), nil

	case token.Bytes:
		return Bytes(tok.Value), nil

	case token.True:
		return Bool(true), nil

	case token.False:
		return Bool(false), nil

	case token.Null:
		return Null{}, nil
	}

	return nil, ErrTypeMismatch.With(slogLiteral(tok))
}

// parseUintDigits parses decimal or 0x-prefixed hexadecimal digits.
func parseUintDigits(s string) (uint64, error) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}

	return strconv.ParseUint(s, 10, 64)
}

func slogLiteral(tok token.Token) slog.Attr {
	return slog.String("literal", tok.Text)
}

// Helper methods

func (p *parser) peek() token.Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) token.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}

	return p.tokens[len(p.tokens)-1]
}

func (p *parser) at(kind token.Kind) bool { return p.peek().Kind == kind }

func (p *parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return tok
}

// expect consumes a token of the given kind or reports what was expected.
func (p *parser) expect(kind token.Kind, expected string) (token.Token, error) {
	if !p.at(kind) {
		return token.Token{}, p.unexpected(expected)
	}

	return p.advance(), nil
}

func (p *parser) unexpected(expected string) *SyntaxError {
	tok := p.peek()

	return &SyntaxError{
		Pos:      tok.Pos,
		Expected: expected,
		Found:    tok.String(),
	}
}

// enter records one level of nesting and fails once the limit is passed.
func (p *parser) enter() error {
	p.depth++

	if p.maxDepth > 0 && p.depth > p.maxDepth {
		tok := p.peek()

		return &SyntaxError{
			Pos:      tok.Pos,
			Expected: "shallower expression",
			Found:    "nesting depth " + strconv.Itoa(p.depth),
			err:      ErrMaxDepthExceeded,
		}
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

// fold counts one more node stacked on the left operand of a loop. Each
// fold deepens the tree by one, the same as a nested operand.
func (p *parser) fold(n *int) error {
	*n++

	return p.enter()
}

// release undoes the folds of a loop once it returns.
func (p *parser) release(n *int) { p.depth -= *n }
