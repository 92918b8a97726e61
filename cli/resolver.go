package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/cel/host"
	"github.com/ardnew/cel/lang"
	"github.com/ardnew/cel/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written as a single map expression:
//
//	{
//	  "log-level": "debug",
//	  "log_format": env("LOG_FORMAT") ?? "text",
//	  "log-pretty": false,
//	}
//
// The expression is evaluated with the host bindings (env, platform, ...),
// so settings may depend on the environment. Keys are flag names, with
// hyphens or underscores. Command-line flags override configuration values.
//
// A file that fails to compile or evaluate, or whose value is not a map,
// is reported as a warning and otherwise ignored, so that "init --force"
// can still replace it.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		cfg, err := loadConfig(ctx, r)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration file", slog.Any("error", err))

			return config{}, nil
		}

		return cfg, nil
	}
}

// loadConfig evaluates the configuration expression read from r.
func loadConfig(ctx context.Context, r io.Reader) (config, error) {
	src, err := lang.ReadSource(r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(src) == "" {
		return config{}, nil
	}

	p, err := lang.CompileContext(ctx, src,
		lang.WithLogger(log.Component("config")))
	if err != nil {
		return nil, err
	}

	c := lang.NewContext()
	if err := host.Register(c); err != nil {
		return nil, err
	}

	v, err := p.Execute(c)
	if err != nil {
		return nil, err
	}

	m, ok := v.(*lang.Map)
	if !ok {
		return nil, lang.ErrTypeMismatch.With(
			slog.String("reason", "configuration must be a map"),
			slog.String("type", v.Kind().String()))
	}

	cfg := make(config, m.Len())

	for k, e := range m.All() {
		key, ok := k.(lang.String)
		if !ok {
			return nil, lang.ErrTypeMismatch.With(
				slog.String("reason", "configuration keys must be strings"),
				slog.String("key", lang.Repr(k)))
		}

		cfg[string(key)] = flagText(lang.Native(e))
	}

	log.TraceContext(ctx, "configuration loaded", slog.Int("keys", len(cfg)))

	return cfg, nil
}

// flagText converts numbers to the strings kong parses flag values from.
// Lists are converted element-wise.
func flagText(v any) any {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = flagText(e)
		}

		return out
	}

	return v
}

// config implements [kong.Resolver] over an evaluated configuration map.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver]. It looks up the flag by its name,
// then with hyphens replaced by underscores.
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
