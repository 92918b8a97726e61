package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/cel/lang/lexer"
	"github.com/ardnew/cel/lang/token"
)

// Predefined errors (sentinel values).
//
// Every evaluation failure returned by [Execute] matches exactly one of the
// execution sentinels via [errors.Is].
var (
	ErrNoSuchVariable     = NewError("no such variable")
	ErrNoSuchKey          = NewError("no such key")
	ErrIndexOutOfRange    = NewError("index out of range")
	ErrNotIndexable       = NewError("value is not indexable")
	ErrNoMatchingOverload = NewError("no matching overload")
	ErrTypeMismatch       = NewError("type mismatch")
	ErrOverflow           = NewError("arithmetic overflow")
	ErrDuplicateKey       = NewError("duplicate map key")
	ErrFunction           = NewError("function error")
	ErrDivisionByZero     = NewError("division by zero")

	ErrMaxDepthExceeded = NewError("maximum nesting depth exceeded")
	ErrReadInput        = NewError("failed to read input")
	ErrInvalidVariable  = NewError("invalid variable binding")
	ErrNilProgram       = NewError("nil program")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Copies made by [Error.Wrap] and [Error.With] remember the sentinel they
// were derived from, so errors.Is matches the sentinel regardless of
// attributes or cause.
type Error struct {
	base  *Error
	err   error // Wrapped error (for errors.Unwrap)
	msg   string
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.base = e

	return e
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}

	if e == t {
		return true
	}

	return e.base != nil && e.base == t.base
}

// Sentinel returns the predefined error e was derived from, or nil.
func (e *Error) Sentinel() *Error { return e.base }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		base:  e.base,
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		base:  e.base,
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// LexError reports a lexical failure during compilation.
type LexError = lexer.Error

// SyntaxError reports a token that does not fit the grammar.
type SyntaxError struct {
	err      error // optional cause, e.g. ErrMaxDepthExceeded
	Expected string
	Found    string
	Pos      token.Position
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var sb strings.Builder

	sb.WriteString("syntax error at ")
	sb.WriteString(e.Pos.String())
	sb.WriteString(": expected ")
	sb.WriteString(e.Expected)

	if e.Found != "" {
		sb.WriteString(", found ")
		sb.WriteString(e.Found)
	}

	if e.err != nil {
		sb.WriteString(" (")
		sb.WriteString(e.err.Error())
		sb.WriteString(")")
	}

	return sb.String()
}

// Unwrap returns the underlying cause, if any.
func (e *SyntaxError) Unwrap() error { return e.err }

// CompileError is returned by [Compile]. It wraps either a [*LexError] or a
// [*SyntaxError] and keeps the source text so the failure can be shown in
// context.
type CompileError struct {
	Err    error
	Source string
}

// Error implements the error interface. The message includes the offending
// source line with a caret under the failing column.
func (e *CompileError) Error() string {
	return e.Err.Error() + e.Snippet()
}

// Unwrap returns the lexical or syntax error.
func (e *CompileError) Unwrap() error { return e.Err }

// Pos returns the source position of the failure.
func (e *CompileError) Pos() token.Position {
	var lexErr *LexError
	if errors.As(e.Err, &lexErr) {
		return lexErr.Pos
	}

	var synErr *SyntaxError
	if errors.As(e.Err, &synErr) {
		return synErr.Pos
	}

	return token.Position{}
}

// Snippet formats the offending source line with a caret marking the
// failing column. It returns an empty string if the position is unknown.
func (e *CompileError) Snippet() string {
	pos := e.Pos()
	lines := strings.Split(e.Source, "\n")

	if pos.Line <= 0 || pos.Line > len(lines) {
		return ""
	}

	var src strings.Builder

	// Print the line with line number
	src.WriteString("\n  ")
	src.WriteString(strconv.Itoa(pos.Line))
	src.WriteString(" | ")
	src.WriteString(lines[pos.Line-1])
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	lineNumWidth := len(strconv.Itoa(pos.Line))
	padding := strings.Repeat(" ", lineNumWidth+5)

	if pos.Column > 0 {
		padding += strings.Repeat(" ", pos.Column-1)
	}

	src.WriteString(padding + "^")

	return src.String()
}
