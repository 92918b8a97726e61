// Package lexer converts expression source text into a stream of tokens.
//
// Scanning is a single left-to-right pass. Whitespace and comments (line
// comments introduced by "//" and block comments delimited by "/*" and "*/")
// separate tokens but are never emitted. Any failure aborts the scan; no
// partial token stream is returned.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/cel/lang/token"
)

// Error reports a lexical failure at a source position.
type Error struct {
	Reason string
	Pos    token.Position
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "lex error at " + e.Pos.String() + ": " + e.Reason
}

// Tokenize scans source and returns its tokens. The final token is always
// [token.EOF].
func Tokenize(source string) ([]token.Token, error) {
	l := &lexer{
		input: source,
		line:  1,
		col:   1,
	}

	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}

		l.tokens = append(l.tokens, tok)

		if tok.Kind == token.EOF {
			return l.tokens, nil
		}
	}
}

// lexer holds the scanning state.
type lexer struct {
	input  string
	tokens []token.Token
	pos    int
	line   int
	col    int
}

// operators lists the operator spellings ordered longest first so that the
// greedy match picks "==" before "=".
var operators = []struct {
	text string
	kind token.Kind
}{
	{"==", token.Eq},
	{"!=", token.NotEq},
	{"<=", token.LessEq},
	{">=", token.GreaterEq},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"??", token.Coalesce},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"!", token.Bang},
	{"<", token.Less},
	{">", token.Greater},
	{".", token.Dot},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{",", token.Comma},
	{":", token.Colon},
	{"?", token.Question},
}

func (l *lexer) next() (token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}

	pos := l.position()

	if l.eof() {
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	}

	ch := l.peek()

	switch {
	case isIdentifierStart(ch):
		return l.scanIdentifier()

	case isDigit(ch):
		return l.scanNumber()

	case ch == '"' || ch == '\'':
		return l.scanString(pos, l.pos, false, false)
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op.text) {
			l.advanceN(len(op.text))

			return token.Token{Kind: op.kind, Text: op.text, Pos: pos}, nil
		}
	}

	return token.Token{}, l.errorf(pos, "unexpected character %q", ch)
}

// scanIdentifier scans an identifier or keyword. String prefixes (r, b, and
// their combinations) immediately followed by a quote start a string or bytes
// literal instead.
func (l *lexer) scanIdentifier() (token.Token, error) {
	pos := l.position()
	start := l.pos

	for !l.eof() && isIdentifierContinue(l.peek()) {
		l.advance()
	}

	text := l.input[start:l.pos]

	if q := l.peek(); q == '"' || q == '\'' {
		if raw, bytes, ok := stringPrefix(text); ok {
			return l.scanString(pos, start, raw, bytes)
		}
	}

	return token.Token{
		Kind:  token.Lookup(text),
		Text:  text,
		Value: text,
		Pos:   pos,
	}, nil
}

// stringPrefix decodes the optional raw/bytes prefix of a string literal.
func stringPrefix(s string) (raw, bytes, ok bool) {
	if len(s) == 0 || len(s) > 2 {
		return false, false, false
	}

	for _, r := range strings.ToLower(s) {
		switch r {
		case 'r':
			if raw {
				return false, false, false
			}

			raw = true

		case 'b':
			if bytes {
				return false, false, false
			}

			bytes = true

		default:
			return false, false, false
		}
	}

	return raw, bytes, true
}

// scanNumber scans an int, uint, or double literal.
func (l *lexer) scanNumber() (token.Token, error) {
	pos := l.position()
	start := l.pos

	var digits strings.Builder

	kind := token.Int

	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advanceN(2)
		digits.WriteString("0x")

		if err := l.scanDigits(&digits, isHexDigit); err != nil {
			return token.Token{}, err
		}
	} else {
		if err := l.scanDigits(&digits, isDigit); err != nil {
			return token.Token{}, err
		}

		if l.peek() == '.' && isDigit(l.peekAt(1)) {
			kind = token.Float

			l.advance()
			digits.WriteByte('.')

			if err := l.scanDigits(&digits, isDigit); err != nil {
				return token.Token{}, err
			}
		}

		if e := l.peek(); e == 'e' || e == 'E' {
			kind = token.Float

			l.advance()
			digits.WriteByte('e')

			if s := l.peek(); s == '+' || s == '-' {
				l.advance()
				digits.WriteRune(s)
			}

			if !isDigit(l.peek()) {
				return token.Token{}, l.errorf(l.position(), "missing exponent digits")
			}

			if err := l.scanDigits(&digits, isDigit); err != nil {
				return token.Token{}, err
			}
		}
	}

	if u := l.peek(); (u == 'u' || u == 'U') && kind == token.Int {
		kind = token.Uint

		l.advance()
	}

	if !l.eof() && isIdentifierContinue(l.peek()) {
		return token.Token{}, l.errorf(l.position(), "invalid character %q in numeric literal", l.peek())
	}

	return token.Token{
		Kind:  kind,
		Text:  l.input[start:l.pos],
		Value: digits.String(),
		Pos:   pos,
	}, nil
}

// scanDigits consumes a run of digits accepted by valid, permitting single
// underscores between digits. The digits (without separators) are appended
// to sb.
func (l *lexer) scanDigits(sb *strings.Builder, valid func(rune) bool) error {
	if !valid(l.peek()) {
		return l.errorf(l.position(), "expected digit")
	}

	for !l.eof() {
		ch := l.peek()

		if ch == '_' {
			if !valid(l.peekAt(1)) {
				return l.errorf(l.position(), "invalid digit separator")
			}

			l.advance()

			continue
		}

		if !valid(ch) {
			break
		}

		sb.WriteRune(ch)
		l.advance()
	}

	return nil
}

// scanString scans a quoted literal starting at the current quote character.
// start is the byte offset of the literal including any prefix.
func (l *lexer) scanString(
	pos token.Position,
	start int,
	raw, bytes bool,
) (token.Token, error) {
	quote := l.peek()
	delim := string(quote)

	if strings.HasPrefix(l.input[l.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}

	l.advanceN(len(delim))

	var sb strings.Builder

	for {
		if l.eof() {
			return token.Token{}, l.errorf(pos, "unterminated string literal")
		}

		if strings.HasPrefix(l.input[l.pos:], delim) {
			l.advanceN(len(delim))

			break
		}

		ch := l.peek()

		if ch == '\n' && len(delim) == 1 {
			return token.Token{}, l.errorf(pos, "unterminated string literal")
		}

		if ch == '\\' && !raw {
			if err := l.scanEscape(&sb, bytes); err != nil {
				return token.Token{}, err
			}

			continue
		}

		// Copy the raw bytes of the rune so invalid UTF-8 survives verbatim.
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		sb.WriteString(l.input[l.pos : l.pos+size])
		l.advance()
	}

	kind := token.String
	if bytes {
		kind = token.Bytes
	}

	return token.Token{
		Kind:  kind,
		Text:  l.input[start:l.pos],
		Value: sb.String(),
		Pos:   pos,
	}, nil
}

// scanEscape decodes one escape sequence at the current backslash.
// In bytes literals hex and octal escapes produce raw bytes. Elsewhere every
// numeric escape names a code point and produces its UTF-8 encoding.
func (l *lexer) scanEscape(sb *strings.Builder, bytes bool) error {
	pos := l.position()

	l.advance() // backslash

	if l.eof() {
		return l.errorf(pos, "unterminated escape sequence")
	}

	ch := l.peek()

	switch ch {
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case '\\', '"', '\'', '`', '?':
		sb.WriteRune(ch)

	case 'x', 'X':
		l.advance()

		n, err := l.scanRadix(pos, 2, 16)
		if err != nil {
			return err
		}

		writeCode(sb, n, bytes)

		return nil

	case 'u', 'U':
		width := 4
		if ch == 'U' {
			width = 8
		}

		l.advance()

		n, err := l.scanRadix(pos, width, 16)
		if err != nil {
			return err
		}

		r := rune(n)
		if !utf8.ValidRune(r) {
			return l.errorf(pos, "invalid code point U+%X in escape sequence", n)
		}

		sb.WriteRune(r)

		return nil

	case '0', '1', '2', '3':
		n, err := l.scanRadix(pos, 3, 8)
		if err != nil {
			return err
		}

		writeCode(sb, n, bytes)

		return nil

	default:
		return l.errorf(pos, "invalid escape sequence \\%c", ch)
	}

	l.advance()

	return nil
}

// writeCode appends the value of a hex or octal escape.
func writeCode(sb *strings.Builder, n uint32, bytes bool) {
	if bytes {
		sb.WriteByte(byte(n))

		return
	}

	sb.WriteRune(rune(n))
}

// scanRadix consumes exactly width digits in the given base.
func (l *lexer) scanRadix(pos token.Position, width, base int) (uint32, error) {
	var n uint32

	for range width {
		d, ok := digitValue(l.peek())
		if !ok || d >= base {
			return 0, l.errorf(pos, "invalid escape sequence")
		}

		n = n*uint32(base) + uint32(d)

		l.advance()
	}

	return n, nil
}

func (l *lexer) skipWhitespaceAndComments() error {
	for !l.eof() {
		switch {
		case unicode.IsSpace(l.peek()):
			l.advance()

		case strings.HasPrefix(l.input[l.pos:], "//"):
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}

		case strings.HasPrefix(l.input[l.pos:], "/*"):
			pos := l.position()

			l.advanceN(2)

			for {
				if l.eof() {
					return l.errorf(pos, "unterminated block comment")
				}

				if strings.HasPrefix(l.input[l.pos:], "*/") {
					l.advanceN(2)

					break
				}

				l.advance()
			}

		default:
			return nil
		}
	}

	return nil
}

// Helper methods

func (l *lexer) eof() bool { return l.pos >= len(l.input) }

func (l *lexer) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])

	return r
}

// peekAt returns the rune n runes ahead of the current one.
func (l *lexer) peekAt(n int) rune {
	off := l.pos

	for ; n > 0 && off < len(l.input); n-- {
		_, size := utf8.DecodeRuneInString(l.input[off:])
		off += size
	}

	if off >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[off:])

	return r
}

func (l *lexer) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])

	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// advanceN advances over n bytes of ASCII text.
func (l *lexer) advanceN(n int) {
	for range n {
		l.advance()
	}
}

func (l *lexer) position() token.Position {
	return token.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *lexer) errorf(pos token.Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

// Character classification

func isIdentifierStart(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isIdentifierContinue(r rune) bool {
	return isIdentifierStart(r) || isDigit(r)
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isHexDigit(r rune) bool {
	_, ok := digitValue(r)

	return ok
}

func digitValue(r rune) (int, bool) {
	switch {
	case '0' <= r && r <= '9':
		return int(r - '0'), true
	case 'a' <= r && r <= 'f':
		return int(r-'a') + 10, true
	case 'A' <= r && r <= 'F':
		return int(r-'A') + 10, true
	default:
		return 0, false
	}
}
