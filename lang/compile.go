package lang

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/readahead"

	"github.com/ardnew/cel/lang/lexer"
	"github.com/ardnew/cel/log"
)

// DefaultMaxDepth is the default limit on expression nesting.
const DefaultMaxDepth = 250

// Program is a compiled expression. It is immutable and safe for concurrent
// evaluation against distinct contexts, or against a shared context that is
// not being modified.
type Program struct {
	root   Expr
	source string
}

// Option configures compilation.
type Option func(*options)

type options struct {
	logger   log.Logger // not part of the cache key
	maxDepth int
}

// WithMaxDepth limits how deeply expressions may nest. Every parenthesized
// or bracketed operand, prefix operator, and each operator, member access or
// index applied to the result of another counts as one level, so a chain
// such as a + b + c is as deep as its length. Exceeding the limit is a
// [*SyntaxError] wrapping [ErrMaxDepthExceeded]. A limit of zero or less
// disables the check, which lets evaluation recurse without bound.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithLogger sets the logger used for trace output during compilation.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func makeOptions(opts ...Option) options {
	o := options{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// Compile lexes and parses source into a [Program]. Names are not resolved;
// unbound identifiers fail only when the program is executed.
//
// On failure the error is a [*CompileError] wrapping a [*LexError] or
// [*SyntaxError], and no program is returned.
func Compile(source string, opts ...Option) (*Program, error) {
	return CompileContext(context.Background(), source, opts...)
}

// CompileContext is like [Compile] but passes ctx to the trace logger.
func CompileContext(
	ctx context.Context,
	source string,
	opts ...Option,
) (*Program, error) {
	o := makeOptions(opts...)

	return compile(ctx, source, o)
}

func compile(ctx context.Context, source string, o options) (*Program, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		o.logger.TraceContext(ctx, "lex failed", slog.String("error", err.Error()))

		return nil, &CompileError{Source: source, Err: err}
	}

	o.logger.TraceContext(ctx, "lex complete", slog.Int("token_count", len(tokens)))

	root, err := parse(tokens, o.maxDepth)
	if err != nil {
		o.logger.TraceContext(ctx, "parse failed", slog.String("error", err.Error()))

		return nil, &CompileError{Source: source, Err: err}
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("root", root.Kind().String()),
		slog.Int("max_depth", o.maxDepth))

	return &Program{root: root, source: source}, nil
}

// CompileReader reads the whole of r and compiles it.
func CompileReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Program, error) {
	source, err := ReadSource(r)
	if err != nil {
		return nil, err
	}

	return CompileContext(ctx, source, opts...)
}

// ReadSource reads all of r with asynchronous read-ahead and trims trailing
// whitespace.
func ReadSource(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return strings.TrimRight(string(data), " \t\r\n"), nil
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.source }

// Root returns the root of the syntax tree.
func (p *Program) Root() Expr { return p.root }

// Execute evaluates the program against c.
func (p *Program) Execute(c *Context) (Value, error) {
	return Execute(p, c)
}
