// Package cmd implements the commands of the cel command line: eval, fmt,
// repl and init. Each command is a kong node whose Run method receives the
// [context.Context] built by [WithContext], [WithStreams] and
// [WithBindingFiles].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the configuration file.
	ConfigIdentifier = "config"
)
