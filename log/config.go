package log

//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

import (
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Level is the severity of a record. It extends [slog.Level] with
// [LevelTrace], which the compiler uses for per-stage diagnostics.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel is the level of a logger built without [WithLevel].
const DefaultLevel = LevelInfo

var levels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// Levels yields the name of every level, most verbose first.
func Levels() iter.Seq[string] { return names(levels) }

// ParseLevel returns the level named by s. Besides "trace", any text
// accepted by [slog.Level.UnmarshalText] is recognized, such as "warn+2".
// Unrecognized text yields [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, LevelTrace.String()) {
		return LevelTrace
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format selects the record encoding.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the format of a logger built without [WithFormat].
const DefaultFormat = FormatJSON

var formats = []Format{FormatJSON, FormatText}

// Formats yields the name of every format, default first.
func Formats() iter.Seq[string] { return names(formats) }

// ParseFormat returns the format named by s, ignoring case.
// Unrecognized text yields [DefaultFormat].
func ParseFormat(s string) Format {
	s = strings.TrimSpace(s)
	if i := slices.IndexFunc(formats, func(f Format) bool {
		return strings.EqualFold(s, f.String())
	}); i >= 0 {
		return formats[i]
	}

	return DefaultFormat
}

func names[T interface{ String() string }](list []T) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range list {
			if !yield(v.String()) {
				return
			}
		}
	}
}

// DefaultTimeLayout is the timestamp layout of a logger built without
// [WithTimeLayout].
const DefaultTimeLayout = time.RFC3339

const (
	DefaultCaller = false
	DefaultPretty = true
)

// config is a snapshot of logger settings. Options never mutate a config
// that a handler has already been built from.
type config struct {
	output io.Writer
	layout string // empty omits timestamps
	level  Level
	format Format
	caller bool
	pretty bool
}

func defaults(w io.Writer) config {
	if w == nil {
		w = io.Discard
	}

	return config{
		output: w,
		layout: DefaultTimeLayout,
		level:  DefaultLevel,
		format: DefaultFormat,
		caller: DefaultCaller,
		pretty: DefaultPretty,
	}
}

// stamp renders t with the configured layout.
func (c config) stamp(t time.Time) string {
	if c.layout == "" {
		return ""
	}

	return t.Format(c.layout)
}

// replaceAttr drops or reformats the time attribute and names levels by
// their package spelling so that trace records are not rendered "DEBUG-4".
func (c config) replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			s := c.stamp(t)
			if s == "" {
				return slog.Attr{}
			}

			return slog.String(slog.TimeKey, s)
		}

	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, levelName(Level(l)))
		}
	}

	return a
}

func levelName(l Level) string {
	if slices.Contains(levels, l) {
		return strings.ToUpper(l.String())
	}

	return slog.Level(l).String()
}

func (c config) handler() slog.Handler {
	if c.pretty {
		return newPrettyHandler(c)
	}

	opts := &slog.HandlerOptions{
		AddSource:   c.caller,
		Level:       slog.Level(c.level),
		ReplaceAttr: c.replaceAttr,
	}

	switch c.format {
	case FormatJSON:
		return slog.NewJSONHandler(c.output, opts)
	case FormatText:
		return slog.NewTextHandler(c.output, opts)
	}

	return slog.DiscardHandler
}

// namedLayouts maps normalized names to [time] layouts. Several short
// aliases exist for the sub-second stamps.
var namedLayouts = func() map[string]string {
	m := map[string]string{
		"ansic":       time.ANSIC,
		"unixdate":    time.UnixDate,
		"rubydate":    time.RubyDate,
		"rfc822":      time.RFC822,
		"rfc822z":     time.RFC822Z,
		"rfc850":      time.RFC850,
		"rfc1123":     time.RFC1123,
		"rfc1123z":    time.RFC1123Z,
		"rfc3339":     time.RFC3339,
		"rfc3339nano": time.RFC3339Nano,
		"kitchen":     time.Kitchen,
		"datetime":    time.DateTime,
		"stamp":       time.Stamp,
		"none":        "",
	}

	for layout, aliases := range map[string][]string{
		time.StampMilli: {"stampmilli", "milli", "millis", "ms"},
		time.StampMicro: {"stampmicro", "micro", "micros", "us"},
		time.StampNano:  {"stampnano", "nano", "nanos", "ns"},
	} {
		for _, a := range aliases {
			m[a] = layout
		}
	}

	return m
}()

// resolveLayout returns the layout named by s, or s itself when it names
// none. Text without letters or digits disables timestamps.
func resolveLayout(s string) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		}

		return -1
	}, strings.ToLower(s))

	if key == "" {
		return ""
	}

	if layout, ok := namedLayouts[key]; ok {
		return layout
	}

	return s
}
