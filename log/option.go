package log

import "io"

// Option derives a new logger configuration from an existing one.
type Option func(config) config

func apply(c config, opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// WithDefaults resets every setting and directs output to w.
func WithDefaults(w io.Writer) Option {
	return func(config) config { return defaults(w) }
}

// WithOutput directs records to w, or discards them if w is nil.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		c.output = w

		return c
	}
}

// WithLevel discards records below level.
func WithLevel(level Level) Option {
	return func(c config) config {
		c.level = level

		return c
	}
}

func WithFormat(format Format) Option {
	return func(c config) config {
		c.format = format

		return c
	}
}

// WithTimeLayout sets the timestamp layout. The layout may name one of the
// [time] package constants, ignoring case and punctuation ("RFC3339Nano",
// "rfc-3339-nano"), or one of the short stamps "ms", "us" and "ns".
// Any other text is used verbatim with [time.Time.Format]. Blank text or
// "none" omits timestamps.
func WithTimeLayout(layout string) Option {
	resolved := resolveLayout(layout)

	return func(c config) config {
		c.layout = resolved

		return c
	}
}

// WithCaller includes the source position of the logging call.
func WithCaller(enable bool) Option {
	return func(c config) config {
		c.caller = enable

		return c
	}
}

// WithPretty renders records for humans. Keys and values are styled when
// the output is a color terminal, and JSON records span multiple lines.
func WithPretty(enable bool) Option {
	return func(c config) config {
		c.pretty = enable

		return c
	}
}
