package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/cel/cli/cmd/repl"
	"github.com/ardnew/cel/log"
)

// Repl starts the interactive shell.
type Repl struct {
	Bindings `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := r.Context(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	log.TraceContext(ctx, "starting repl", slog.String("cache", cacheDir))

	return repl.Run(ctx, c, cacheDir, log.Component("repl"))
}
