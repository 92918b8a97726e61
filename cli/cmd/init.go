package cmd

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/cel/lang"
	"github.com/ardnew/cel/log"
	"github.com/ardnew/cel/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init writes a configuration file holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	p, err := i.buildConfig(ktx)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	err = p.FormatIndent(ctx, file, defaultConfigIndent)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildConfig constructs a map literal from the current flag values, keyed
// by flag name. Help, version and profiling flags are omitted, as are
// unset strings and empty lists.
func (i *Init) buildConfig(ktx *kong.Context) (*lang.Program, error) {
	b := lang.NewBuilder()

	var entries []lang.MapEntry

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		expr, err := flagValue(b, ktx.FlagValue(flag))
		if err != nil {
			return nil, err
		}

		if expr != nil {
			entries = append(entries, b.Entry(b.String(flag.Name), expr))
		}
	}

	return b.Program(b.Map(entries...)), nil
}

// flagValue returns the literal for a flag value, or nil if it is unset.
func flagValue(b *lang.Builder, val any) (lang.Expr, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil

	case string:
		if v == "" {
			return nil, nil
		}

	case []string:
		if len(v) == 0 {
			return nil, nil
		}

	case interface{ String() string }:
		// Named flag types such as log levels render as their text.
		val = v.String()
	}

	lv, err := lang.ValueOf(val)
	if err != nil {
		return nil, err
	}

	if l, ok := lv.(lang.List); ok {
		if len(l) == 0 {
			return nil, nil
		}

		elems := make([]lang.Expr, len(l))
		for i, e := range l {
			elems[i] = b.Value(e)
		}

		return b.List(elems...), nil
	}

	return b.Value(lv), nil
}
