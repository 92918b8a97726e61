// Package token defines the lexical tokens of the expression language and the
// source positions attached to them.
package token

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

import "strconv"

// Kind identifies the lexical class of a [Token].
type Kind uint8

const (
	Invalid Kind = iota // invalid
	EOF                 // end of input

	// Literals and names.
	Ident  // identifier
	Int    // int literal
	Uint   // uint literal
	Float  // double literal
	String // string literal
	Bytes  // bytes literal
	True   // true
	False  // false
	Null   // null

	// Operators and punctuation.
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Percent   // %
	Bang      // !
	Eq        // ==
	NotEq     // !=
	Less      // <
	LessEq    // <=
	Greater   // >
	GreaterEq // >=
	AndAnd    // &&
	OrOr      // ||
	Coalesce  // ??
	Dot       // .
	LBracket  // [
	RBracket  // ]
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	Comma     // ,
	Colon     // :
	Question  // ?
)

// IsLiteral reports whether the kind denotes a literal value.
func (k Kind) IsLiteral() bool {
	switch k {
	case Int, Uint, Float, String, Bytes, True, False, Null:
		return true
	default:
		return false
	}
}

// IsOperator reports whether the kind denotes an operator or punctuation.
func (k Kind) IsOperator() bool { return k >= Plus && k <= Question }

// keywords maps reserved words to their token kinds.
var keywords = map[string]Kind{
	"true":  True,
	"false": False,
	"null":  Null,
}

// Lookup returns the keyword kind for name, or [Ident] if name is not
// reserved.
func Lookup(name string) Kind {
	if k, ok := keywords[name]; ok {
		return k
	}

	return Ident
}

// Position is a location in source text. Line and Column are 1-based; Column
// counts runes. Offset is the 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position was set.
func (p Position) IsValid() bool { return p.Line > 0 }

// Token is a single lexical token.
//
// Text is the exact source spelling. Value holds the decoded payload: the
// unescaped content of string and bytes literals, or the digits of a numeric
// literal with separators, radix prefix retained, and suffix removed.
type Token struct {
	Text  string
	Value string
	Pos   Position
	Kind  Kind
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch {
	case t.Kind == EOF:
		return t.Kind.String()

	case t.Kind.IsOperator(), t.Kind == True, t.Kind == False, t.Kind == Null:
		return strconv.Quote(t.Text)

	default:
		return t.Kind.String() + " " + strconv.Quote(t.Text)
	}
}
