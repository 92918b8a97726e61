package cmd

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/cel/host"
	"github.com/ardnew/cel/lang"
	"github.com/ardnew/cel/log"
)

// Bindings are the flags shared by commands that evaluate expressions.
type Bindings struct {
	Var  []string `help:"Bind a variable to the value of an expression (name=expr)" placeholder:"NAME=EXPR" short:"v"`
	Demo bool     `help:"Bind the sample variables and functions"`
	Host bool     `help:"Bind host information (env, platform, path helpers)"`
}

// Context builds the evaluation context: the built-ins, the optional demo
// and host bindings, the binding files stored in ctx, and finally each
// --var in command-line order. Later bindings replace earlier ones.
func (b *Bindings) Context(ctx context.Context) (*lang.Context, error) {
	logger := log.Component("lang")

	c := lang.NewContext(lang.WithContextLogger(logger))

	if b.Demo {
		addDemo(c)
	}

	if b.Host {
		if err := host.Register(c); err != nil {
			return nil, ErrInvalidBinding.Wrap(err).With(slog.String("source", "host"))
		}
	}

	files := bindingFilesFrom(ctx)
	defer closeAll(files)

	for _, f := range files {
		if err := bindFile(ctx, c, f); err != nil {
			return nil, err
		}
	}

	for _, arg := range b.Var {
		if err := bindVar(ctx, c, arg, logger); err != nil {
			return nil, err
		}
	}

	log.TraceContext(ctx, "bindings ready",
		slog.Int("variables", len(c.Variables())),
		slog.Bool("demo", b.Demo),
		slog.Bool("host", b.Host))

	return c, nil
}

// addDemo installs the sample bindings of the interactive shell.
func addDemo(c *lang.Context) {
	c.AddVariable("TestDouble", lang.Float(0))
	c.AddVariable("TestString", lang.String("World"))
	c.AddVariable("TestTime", lang.Uint(0))
	c.AddVariable("Now", lang.Uint(1))
	c.AddFunction("TestFunction",
		func(recv lang.Value, _ []lang.Value, _ *lang.Context) (lang.Value, error) {
			return lang.String("Hello") + recv.(lang.String), nil
		},
		lang.WithReceiver(lang.KindString), lang.WithArity(0),
		lang.WithDoc(`prefixes the receiver with "Hello"`))
}

// bindFile decodes a YAML mapping of variable names to values.
func bindFile(ctx context.Context, c *lang.Context, f SourceFile) error {
	src, err := lang.ReadSource(f)
	if err != nil {
		return ErrReadBindings.Wrap(err).With(slog.String("file", f.Name))
	}

	var vars map[string]any

	if err := yaml.UnmarshalContext(ctx, []byte(src), &vars); err != nil {
		return ErrReadBindings.Wrap(err).With(slog.String("file", f.Name))
	}

	for name, v := range vars {
		vars[name] = normalizeYAML(v)
	}

	if err := c.AddVariables(vars); err != nil {
		return ErrInvalidBinding.Wrap(err).With(slog.String("file", f.Name))
	}

	return nil
}

// normalizeYAML converts the unsigned integers produced by the YAML decoder
// for non-negative scalars into signed integers when they fit, so that
// "count: 3" binds an int rather than a uint.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}

	case []any:
		for i, e := range x {
			x[i] = normalizeYAML(e)
		}

	case map[string]any:
		for k, e := range x {
			x[k] = normalizeYAML(e)
		}
	}

	return v
}

// bindVar compiles and evaluates the expression of a "name=expr" binding
// against the bindings made so far.
func bindVar(ctx context.Context, c *lang.Context, arg string, logger log.Logger) error {
	name, src, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)

	if !ok || !isIdentifier(name) {
		return ErrInvalidBinding.With(
			slog.String("var", arg),
			slog.String("reason", "want NAME=EXPR"))
	}

	p, err := lang.CompileCached(ctx, src, lang.WithLogger(logger))
	if err != nil {
		return ErrInvalidBinding.Wrap(err).With(slog.String("var", name))
	}

	v, err := p.Execute(c)
	if err != nil {
		return ErrInvalidBinding.Wrap(err).With(slog.String("var", name))
	}

	c.AddVariable(name, v)

	return nil
}

func isIdentifier(s string) bool {
	switch s {
	case "", "true", "false", "null":
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}

	return true
}
