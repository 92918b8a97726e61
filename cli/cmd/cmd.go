package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type streamsKey struct{}

// Streams are the standard input and output used by commands.
type Streams struct {
	In  io.Reader
	Out io.Writer
}

// WithStreams returns a new context.Context whose commands read from in and
// write to out instead of the process streams.
func WithStreams(ctx context.Context, in io.Reader, out io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, Streams{In: in, Out: out})
}

func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	return s
}

type bindingFilesKey struct{}

// SourceFile is an opened binding file.
type SourceFile struct {
	io.Reader

	Name string
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithBindingFiles returns a new context.Context containing the variable
// binding files named by paths.
//
// Paths naming the same file through symlinks or relative paths are opened
// once, and every "-" collapses into a single stdin reader placed last.
func WithBindingFiles(ctx context.Context, paths []string) context.Context {
	return context.WithValue(ctx, bindingFilesKey{}, buildSourceFiles(ctx, paths))
}

// buildSourceFiles opens each unique path. Files that cannot be opened are
// skipped; kong has already validated that they exist.
func buildSourceFiles(ctx context.Context, paths []string) []SourceFile {
	if len(paths) == 0 {
		return nil
	}

	files := make([]SourceFile, 0, len(paths))
	seen := make(map[fileKey]struct{})

	hasStdin := false

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		reader, ok := openUniqueFile(path, seen)
		if !ok {
			continue
		}

		files = append(files, SourceFile{Reader: reader, Name: path})
	}

	if hasStdin {
		files = append(files, SourceFile{Reader: streamsFrom(ctx).In, Name: stdinSource})
	}

	if len(files) == 0 {
		return nil
	}

	return files
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates.
func openUniqueFile(path string, seen map[fileKey]struct{}) (io.Reader, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return nil, false
	}

	if _, exists := seen[key]; exists {
		return nil, false
	}

	seen[key] = struct{}{}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, false
	}

	return file, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true //nolint:unconvert
}

// bindingFilesFrom retrieves the files stored in ctx by WithBindingFiles.
func bindingFilesFrom(ctx context.Context) []SourceFile {
	files, _ := ctx.Value(bindingFilesKey{}).([]SourceFile)

	return files
}

// closeAll closes every file that implements io.Closer other than stdin.
func closeAll(files []SourceFile) {
	for _, f := range files {
		if c, ok := f.Reader.(io.Closer); ok && f.Name != stdinSource {
			_ = c.Close()
		}
	}
}
