package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/cel/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false))

	logger.Info("compiled", slog.String("src", "size(name) > 3"))
	logger.Debug("not shown")
	// Output: level=INFO msg=compiled src="size(name) > 3"
}

func Example_trace() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.ParseLevel("trace")),
		log.WithTimeLayout("none"),
		log.WithPretty(false)).
		With(slog.String("component", "lang"))

	logger.Trace("parsed", slog.Int("nodes", 5))
	// Output: {"level":"TRACE","msg":"parsed","component":"lang","nodes":5}
}
