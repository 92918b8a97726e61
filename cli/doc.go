// Package cli contains the command line interface for cel.
//
// # Usage
//
// Expressions are evaluated by default:
//
//	cel '1 + 2 * 3'
//	cel --demo 'TestString.TestFunction()'
//	cel --var 'port=8080' --var 'host="localhost"' 'host + ":" + string(port)'
//	cel --vars vars.yaml -o json '{"ok": size(items) > 0}'
//	echo '[1, 2, 3].size()' | cel -
//
// The fmt subcommands print an expression without evaluating it, as
// canonical source or as a syntax tree (ast, json, yaml). The repl
// subcommand starts an interactive shell with completion and history, and
// init writes the current flag values to the configuration file.
//
// # Configuration
//
// Flags are read from config.cel in the per-user configuration directory
// (for example ~/.config/cel). The file holds one map expression keyed by
// flag name, evaluated with the host bindings, as written by init:
//
//	{
//	  "log-level": env("CEL_LOG_LEVEL") ?? "info",
//	  "log-format": "text",
//	}
//
// A config.json file with the same keys is also consulted. Command-line
// flags take precedence over both.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, or a Go layout)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o cel .
//
// It adds --pprof-mode (allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread, trace) and --pprof-dir, which defaults to the pprof
// directory under the cache directory.
package cli
