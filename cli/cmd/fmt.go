package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/cel/lang"
	"github.com/ardnew/cel/log"
)

// Fmt compiles an expression without evaluating it and prints it in the
// chosen form.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Print canonical source (default)."`
	AST    AST    `cmd:""                    help:"Print the syntax tree as an indented outline."`
	JSON   JSON   `cmd:""                    help:"Print the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Print the syntax tree as YAML."`
}

// Source is the expression argument shared by the fmt subcommands.
type Source struct {
	Expr string `arg:"" default:"-" help:"Expression to format, or '-' to read it from stdin" name:"expr"`
}

func (s Source) compile(ctx context.Context, format string) (*lang.Program, error) {
	src, err := readExpression(ctx, s.Expr)
	if err != nil {
		return nil, err
	}

	p, err := lang.CompileContext(ctx, src,
		lang.WithLogger(log.Component("lang")))
	if err != nil {
		log.DebugContext(ctx, "format failed", slog.String("format", format))

		return nil, err
	}

	return p, nil
}

// Native prints the canonical source form of an expression.
type Native struct {
	Source `embed:""`
}

// Run executes the fmt native command.
func (f *Native) Run(ctx context.Context) error {
	p, err := f.compile(ctx, lang.FormatNative)
	if err != nil {
		return err
	}

	return p.Format(ctx, streamsFrom(ctx).Out)
}

// AST prints the syntax tree as an indented outline.
type AST struct {
	Source `embed:""`
}

// Run executes the fmt ast command.
func (a *AST) Run(ctx context.Context) error {
	p, err := a.compile(ctx, "ast")
	if err != nil {
		return err
	}

	p.Print(streamsFrom(ctx).Out)

	return nil
}

// JSON prints the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 is compact)" short:"i"`

	Source `embed:""`
}

// Run executes the fmt json command.
func (j *JSON) Run(ctx context.Context) error {
	p, err := j.compile(ctx, lang.FormatJSON)
	if err != nil {
		return err
	}

	return p.FormatJSON(ctx, streamsFrom(ctx).Out, j.Indent)
}

// YAML prints the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output (0 is flow style)" short:"i"`

	Source `embed:""`
}

// Run executes the fmt yaml command.
func (y *YAML) Run(ctx context.Context) error {
	p, err := y.compile(ctx, lang.FormatYAML)
	if err != nil {
		return err
	}

	return p.FormatYAML(ctx, streamsFrom(ctx).Out, y.Indent)
}
