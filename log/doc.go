// Package log is the structured logger shared by the compiler, the
// evaluator and the command line tools. It wraps [log/slog] with typed
// attributes, an extra [LevelTrace] and a pretty printer for terminals.
//
// Loggers are values. Options produce a new logger and never modify one
// already in use:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("none"))
//
//	logger.TraceContext(ctx, "parsed", slog.Int("nodes", 12))
//
// The zero [Logger] discards every record, so a component can hold one
// unconditionally.
//
// # Default logger
//
// The package-level functions log through a default logger that writes
// to standard error. The command line adjusts it once from its flags with
// [Config], and subsystems take a tagged copy with [Component]:
//
//	log.Config(log.WithLevel(log.ParseLevel("debug")))
//
//	c := lang.NewContext(lang.WithContextLogger(log.Component("repl")))
//
// # Output
//
// [FormatJSON] and [FormatText] select the [slog] JSON and text handlers.
// With [WithPretty], records are rendered as aligned key=value text or as
// indented objects, and styled with lipgloss when the output is a color
// terminal. Timestamps follow [WithTimeLayout], which accepts the names of
// the [time] layouts or a custom layout; "none" omits them.
package log
