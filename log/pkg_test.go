package log

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useDefault replaces the default logger for the duration of t.
func useDefault(t *testing.T, l Logger) {
	t.Helper()

	prev := Default()

	defaultMu.Lock()
	defaultLog = l
	defaultMu.Unlock()

	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = prev
		defaultMu.Unlock()
	})
}

func TestPackage_Functions(t *testing.T) {
	var buf bytes.Buffer

	useDefault(t, plain(&buf, WithLevel(LevelTrace)))

	Trace("t")
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	TraceContext(t.Context(), "tc")
	DebugContext(t.Context(), "dc")
	InfoContext(t.Context(), "ic")
	WarnContext(t.Context(), "wc")
	ErrorContext(t.Context(), "ec", slog.String("key", "value"))

	recs := decode(t, &buf)
	require.Len(t, recs, 10)

	var levels []string
	for _, rec := range recs {
		levels = append(levels, rec["level"].(string))
	}

	assert.Equal(t, []string{
		"TRACE", "DEBUG", "INFO", "WARN", "ERROR",
		"TRACE", "DEBUG", "INFO", "WARN", "ERROR",
	}, levels)
	assert.Equal(t, "value", recs[9]["key"])
}

func TestPackage_Config(t *testing.T) {
	var buf bytes.Buffer

	useDefault(t, plain(&buf))

	before := Component("lang")

	Trace("hidden")
	assert.Zero(t, buf.Len())

	Config(WithLevel(LevelTrace))
	assert.Equal(t, LevelTrace, Default().Level())

	Trace("visible", slog.Int("depth", 3))
	before.Trace("still hidden")

	recs := decode(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "visible", recs[0]["msg"])
	assert.InDelta(t, 3, recs[0]["depth"], 0)
}

func TestPackage_Component(t *testing.T) {
	var buf bytes.Buffer

	useDefault(t, plain(&buf))

	Component("repl").Info("started")
	With(slog.String("file", "vars.yaml")).Warn("skipped")

	recs := decode(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "repl", recs[0]["component"])
	assert.Equal(t, "vars.yaml", recs[1]["file"])
	assert.NotContains(t, recs[1], "component")
}

func TestPackage_ConfigConcurrent(t *testing.T) {
	useDefault(t, plain(new(bytes.Buffer)))

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Go(func() {
			if i%2 == 0 {
				Config(WithLevel(LevelDebug))
			} else {
				Component("lang").Debug("tick")
			}
		})
	}

	wg.Wait()

	assert.Equal(t, LevelDebug, Default().Level())
}
