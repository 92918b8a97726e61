package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plain builds a JSON logger without timestamps or styling.
func plain(buf *bytes.Buffer, opts ...Option) Logger {
	return Make(buf, append([]Option{
		WithFormat(FormatJSON),
		WithTimeLayout("none"),
		WithPretty(false),
	}, opts...)...)
}

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any

	for line := range strings.Lines(buf.String()) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)

		records = append(records, rec)
	}

	return records
}

func TestMake_Defaults(t *testing.T) {
	l := Make(nil)

	assert.Equal(t, LevelInfo, l.Level())
	assert.Equal(t, FormatJSON, l.Format())
	assert.True(t, l.cfg.pretty)
	assert.False(t, l.cfg.caller)
	assert.Equal(t, time.RFC3339, l.cfg.layout)
}

func TestLogger_Zero(t *testing.T) {
	var l Logger

	assert.NotPanics(t, func() {
		l.Trace("dropped")
		l.ErrorContext(t.Context(), "dropped", slog.Int("n", 1))
	})

	assert.Equal(t, DefaultLevel, l.Level())
	assert.Equal(t, DefaultFormat, l.Format())
	assert.Nil(t, l.With(slog.String("k", "v")).Logger)

	var buf bytes.Buffer

	w := l.Wrap(WithOutput(&buf), WithPretty(false), WithTimeLayout("none"))
	w.Warn("kept")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer

	l := plain(&buf, WithLevel(LevelWarn))
	l.Trace("t")
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	var got []string
	for _, rec := range decode(t, &buf) {
		got = append(got, rec["level"].(string)+":"+rec["msg"].(string))
	}

	assert.Equal(t, []string{"WARN:w", "ERROR:e"}, got)
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	plain(&buf, WithLevel(LevelTrace)).TraceContext(t.Context(), "lexed",
		slog.Int("tokens", 7))

	recs := decode(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "TRACE", recs[0]["level"])
	assert.InDelta(t, 7, recs[0]["tokens"], 0)
	assert.NotContains(t, recs[0], "time")
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithTimeLayout("none"), WithPretty(false)).
		Info("compiled expression", slog.String("src", "1 + 2"))

	assert.Equal(t, "level=INFO msg=\"compiled expression\" src=\"1 + 2\"\n", buf.String())
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	plain(&buf, WithCaller(true)).Info("here")
	Make(&buf, WithFormat(FormatText), WithPretty(true), WithCaller(true),
		WithTimeLayout("none")).Info("there")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rec struct {
		Source struct{ File string } `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.True(t, strings.HasSuffix(rec.Source.File, "log_test.go"), rec.Source.File)

	assert.Contains(t, lines[1], "log_test.go:")
}

func TestLogger_WrapKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer

	base := plain(&buf).With(slog.String("component", "lang"))
	verbose := base.Wrap(WithLevel(LevelTrace))

	base.Trace("hidden")
	verbose.Trace("shown")

	assert.Equal(t, LevelInfo, base.Level())
	assert.Equal(t, LevelTrace, verbose.Level())

	recs := decode(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
	assert.Equal(t, "lang", recs[0]["component"])
}

func TestLogger_WithIsolated(t *testing.T) {
	var buf bytes.Buffer

	base := plain(&buf).With(slog.String("a", "1"))
	left := base.With(slog.String("b", "2"))
	right := base.With(slog.String("c", "3"))

	left.Info("left")
	right.Info("right")

	recs := decode(t, &buf)
	require.Len(t, recs, 2)
	assert.NotContains(t, recs[1], "b")
	assert.Equal(t, "3", recs[1]["c"])
	assert.Len(t, right.attrs, 2)
}

func TestPretty_Text(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "0")

	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithTimeLayout("none")).
		With(slog.String("component", "repl"))

	l.Info("evaluated",
		slog.Int("n", 3),
		slog.Group("req", slog.String("id", "x"), slog.Duration("took", time.Second)),
		slog.Bool("ok", false),
		slog.Any("err", errors.New("boom")),
		slog.Any("nil", nil))

	assert.Equal(t,
		"level=INFO msg=evaluated component=repl n=3 req.id=x req.took=1s ok=false err=boom nil=null\n",
		buf.String())
}

func TestPretty_JSON(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "0")

	var buf bytes.Buffer

	Make(&buf, WithTimeLayout("none"), WithLevel(LevelTrace)).
		WithGroup("eval").
		Debug("step", slog.Float64("x", 1.5))

	assert.Equal(t, "{\n  level: DEBUG,\n  msg: step,\n  eval.x: 1.5\n}\n", buf.String())
}

func TestPretty_Levels(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "0")

	var buf bytes.Buffer

	h := Make(&buf, WithTimeLayout("none"), WithLevel(LevelTrace)).Handler()

	assert.True(t, h.Enabled(t.Context(), slog.Level(LevelTrace)))
	assert.Equal(t, "INFO+2", levelName(Level(slog.LevelInfo+2)))
	assert.Equal(t, "TRACE", levelName(LevelTrace))
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
	)

	l := Make(lockedWriter{&buf, &mu}, WithFormat(FormatText), WithTimeLayout("none"))

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Go(func() {
			l.With(slog.Int("worker", i)).Info("tick")
		})
	}

	wg.Wait()

	assert.Equal(t, 8, strings.Count(buf.String(), "msg=tick"))
}

type lockedWriter struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.buf.Write(p)
}
