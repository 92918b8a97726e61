package lang

import (
	"context"
	"encoding/binary"
	"log/slog"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// globalCache stores compiled programs keyed by a hash of the source and the
// options that affect compilation.
var globalCache sync.Map

// state memoizes one compilation, successful or not.
type state struct {
	program *Program
	err     error
	once    sync.Once
}

// hashOptions hashes the options that change compilation results. The
// logger does not participate.
func hashOptions(o options) uint64 {
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(int64(o.maxDepth)))

	return xxh3.Hash(buf[:])
}

// cacheKey combines the source and options hashes.
func cacheKey(source string, o options) (key string, sourceHash uint64) {
	sourceHash = xxh3.HashString(source)

	return strconv.FormatUint(sourceHash^hashOptions(o), 36), sourceHash
}

// CompileCached is like [Compile] but memoizes the result, including
// failures, so repeated compilation of the same source is a lookup.
// Programs are immutable, so the cached value is shared.
func CompileCached(
	ctx context.Context,
	source string,
	opts ...Option,
) (*Program, error) {
	o := makeOptions(opts...)
	key, sourceHash := cacheKey(source, o)

	value, cacheHit := globalCache.LoadOrStore(key, new(state))

	entry, ok := value.(*state)
	if !ok {
		return nil, ErrTypeMismatch.
			With(slog.String("issue", "invalid entry type in cache"))
	}

	o.logger.TraceContext(
		ctx,
		"cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.Bool("cache_hit", cacheHit),
	)

	entry.once.Do(func() {
		entry.program, entry.err = compile(ctx, source, o)
	})

	return entry.program, entry.err
}

// ClearCache removes all cached programs.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	globalCache.Clear()
}
