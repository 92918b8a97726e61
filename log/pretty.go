package log

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of one output. Colors are dropped by the
// renderer when the output is not a color terminal.
type palette struct {
	key, str, num, dur, stamp, null lipgloss.Style
	yes, no                         lipgloss.Style
	levels                          map[Level]lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) *palette {
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		dur:   fg("5"),
		stamp: fg("4"),
		null:  fg("8"),
		yes:   fg("2"),
		no:    fg("1"),
		levels: map[Level]lipgloss.Style{
			LevelTrace: fg("8"),
			LevelDebug: fg("4"),
			LevelInfo:  fg("2").Bold(true),
			LevelWarn:  fg("3").Bold(true),
			LevelError: fg("1").Bold(true),
		},
	}
}

func (p *palette) level(l slog.Level) string {
	lv := Level(l)

	// Round custom levels down to the nearest named one.
	style := p.levels[LevelTrace]
	for _, named := range levels {
		if lv >= named {
			style = p.levels[named]
		}
	}

	return style.Render(levelName(lv))
}

type field struct{ key, val string }

// prettyHandler renders records as key=value lines in text format, and as
// indented multi-line objects in JSON format.
type prettyHandler struct {
	cfg    config
	mu     *sync.Mutex
	pal    *palette
	fields []field
	prefix string
}

func newPrettyHandler(c config) *prettyHandler {
	return &prettyHandler{
		cfg: c,
		mu:  &sync.Mutex{},
		pal: newPalette(lipgloss.NewRenderer(c.output)),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= slog.Level(h.cfg.level)
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.fields)+r.NumAttrs())

	if ts := h.cfg.stamp(r.Time); !r.Time.IsZero() && ts != "" {
		fields = append(fields, field{slog.TimeKey, h.pal.stamp.Render(ts)})
	}

	fields = append(fields, field{slog.LevelKey, h.pal.level(r.Level)})

	if h.cfg.caller && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if f.File != "" {
			src := fmt.Sprintf("%s:%d", f.File, f.Line)
			fields = append(fields, field{slog.SourceKey, h.pal.str.Render(src)})
		}
	}

	fields = append(fields, field{slog.MessageKey, h.pal.str.Render(r.Message)})
	fields = append(fields, h.fields...)

	r.Attrs(func(a slog.Attr) bool {
		fields = h.flatten(fields, h.prefix, a)

		return true
	})

	var sb strings.Builder

	switch h.cfg.format {
	case FormatJSON:
		sb.WriteString("{\n")

		for i, f := range fields {
			if i > 0 {
				sb.WriteString(",\n")
			}

			sb.WriteString("  " + h.pal.key.Render(f.key) + ": " + f.val)
		}

		sb.WriteString("\n}\n")

	default:
		for i, f := range fields {
			if i > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(h.pal.key.Render(f.key) + "=" + f.val)
		}

		sb.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.cfg.output.Write([]byte(sb.String()))

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.fields = slices.Clip(c.fields)

	for _, a := range attrs {
		c.fields = h.flatten(c.fields, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix += name + "."

	return &c
}

// flatten appends a to fields, expanding groups into dotted keys.
func (h *prettyHandler) flatten(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range a.Value.Group() {
			fields = h.flatten(fields, prefix, g)
		}

		return fields
	}

	return append(fields, field{prefix + a.Key, h.value(a.Value)})
}

func (h *prettyHandler) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return h.pal.num.Render(v.String())

	case slog.KindBool:
		if v.Bool() {
			return h.pal.yes.Render("true")
		}

		return h.pal.no.Render("false")

	case slog.KindDuration:
		return h.pal.dur.Render(v.Duration().String())

	case slog.KindTime:
		ts := h.cfg.stamp(v.Time())
		if ts == "" {
			ts = v.Time().Format(time.RFC3339)
		}

		return h.pal.stamp.Render(ts)

	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
			return h.pal.null.Render("null")
		case error:
			return h.pal.no.Render(x.Error())
		}
	}

	return h.pal.str.Render(v.String())
}
