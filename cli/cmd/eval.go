package cmd

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/cel/lang"
	"github.com/ardnew/cel/log"
)

// Eval compiles and evaluates a single expression.
type Eval struct {
	Bindings `embed:""`

	AST    bool   `help:"Print the syntax tree before the result"`
	Format string `default:"native" enum:"native,json,yaml" help:"Result format (${enum})" short:"o"`
	Indent int    `default:"0"                              help:"Indent width for JSON and YAML output (0 is compact)"`

	Expr string `arg:"" help:"Expression to evaluate, or '-' to read it from stdin" name:"expr"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if !slices.Contains(lang.Formats(), e.Format) {
		return ErrInvalidFormat.With(
			slog.String("format", e.Format),
			slog.String("valid", strings.Join(lang.Formats(), ",")))
	}

	s := streamsFrom(ctx)

	src, err := readExpression(ctx, e.Expr)
	if err != nil {
		return err
	}

	p, err := lang.CompileCached(ctx, src,
		lang.WithLogger(log.Component("lang")))
	if err != nil {
		return err
	}

	c, err := e.Context(ctx)
	if err != nil {
		return err
	}

	if e.AST {
		p.Print(s.Out)
	}

	v, err := p.Execute(c)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	log.DebugContext(ctx, "evaluated",
		slog.String("expr", p.String()),
		slog.String("type", v.Kind().String()))

	return lang.FormatValue(ctx, s.Out, v, e.Format, e.Indent)
}

// readExpression returns arg, or all of stdin when arg is "-".
func readExpression(ctx context.Context, arg string) (string, error) {
	if arg != stdinSource {
		return arg, nil
	}

	src, err := lang.ReadSource(streamsFrom(ctx).In)
	if err != nil {
		return "", ErrReadExpression.Wrap(err).With(slog.String("source", "stdin"))
	}

	return src, nil
}
