// Package host binds information about the running process and its
// filesystem into an expression [lang.Context].
//
// These bindings read the environment and filesystem, so programs that use
// them are not deterministic. The front-end installs them only on request.
//
// Variables:
//
//	target    {"os": ..., "arch": ...} using GCC/LLVM naming
//	platform  {"os": ..., "arch": ...} using Go naming
//	hostname  string
//	user      {"name", "uid", "gid", "home"} or null
//	shell     string
//	cwd       string
//
// Functions:
//
//	env(name)                      value of an environment variable, or null
//	env()                          map of all environment variables
//	path.exists() path.isDir() path.isRegular() path.isSymlink() path.abs()
//	pathCat(elem, ...)             joins path elements
//	pathRel(from, to)              relative path from one location to another
//	pathPrefix(list, item, ...)    prepends items to a PATH-like list
//	pathPrefixIf(list, fn, item, ...) prepends items accepted by fn
package host

import (
	"bufio"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/cel/lang"
)

// Option configures [Register].
type Option func(*config)

type config struct {
	getenv  func(string) (string, bool)
	environ func() []string
}

// WithEnviron replaces the process environment with the given "KEY=VALUE"
// entries.
func WithEnviron(env []string) Option {
	m := buildProcessEnvMap(env)

	return func(c *config) {
		c.getenv = func(key string) (string, bool) {
			v, ok := m[key]

			return v, ok
		}
		c.environ = func() []string { return env }
	}
}

// Register adds the host variables and functions to c.
func Register(c *lang.Context, opts ...Option) error {
	cfg := config{
		getenv:  os.LookupEnv,
		environ: os.Environ,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	vars := map[string]any{
		"target":   getTarget(cfg).toMap(),
		"platform": getPlatform(cfg).toMap(),
		"hostname": getHostname(),
		"user":     userMap(getUser()),
		"shell":    getShell(cfg),
		"cwd":      getCwd(),
	}

	if err := c.AddVariables(vars); err != nil {
		return err
	}

	c.AddFunction("env", envLookup(cfg),
		lang.WithoutReceiver(), lang.WithParams(lang.KindString),
		lang.WithDoc("value of an environment variable, or null"))
	c.AddFunction("env", envAll(cfg),
		lang.WithoutReceiver(), lang.WithArity(0),
		lang.WithDoc("map of all environment variables"))

	for name, fn := range map[string]func(string) bool{
		"exists":    fileExists,
		"isDir":     fileIsDir,
		"isRegular": fileIsRegular,
		"isSymlink": fileIsSymlink,
	} {
		c.AddFunction(name, stringPredicate(fn),
			lang.WithReceiver(lang.KindString), lang.WithArity(0),
			lang.WithDoc("reports whether the path "+describe(name)))
	}

	c.AddFunction("abs", func(r lang.Value, _ []lang.Value, _ *lang.Context) (lang.Value, error) {
		return lang.String(pathAbs(string(r.(lang.String)))), nil
	}, lang.WithReceiver(lang.KindString), lang.WithArity(0),
		lang.WithDoc("absolute form of the path"))

	c.AddFunction("pathCat", func(_ lang.Value, args []lang.Value, _ *lang.Context) (lang.Value, error) {
		elem, err := strs("pathCat", args)
		if err != nil {
			return nil, err
		}

		return lang.String(pathCat(elem...)), nil
	}, lang.WithoutReceiver(), lang.WithDoc("joins path elements"))

	c.AddFunction("pathRel", func(_ lang.Value, args []lang.Value, _ *lang.Context) (lang.Value, error) {
		return lang.String(pathRel(
			string(args[0].(lang.String)),
			string(args[1].(lang.String)),
		)), nil
	}, lang.WithoutReceiver(), lang.WithParams(lang.KindString, lang.KindString),
		lang.WithDoc("relative path from one location to another"))

	c.AddFunction("pathPrefix", pathPrefix,
		lang.WithoutReceiver(),
		lang.WithDoc("prepends items to a PATH-like list"))
	c.AddFunction("pathPrefixIf", pathPrefixIf,
		lang.WithoutReceiver(),
		lang.WithDoc("prepends the items accepted by a predicate function"))

	return nil
}

func describe(name string) string {
	switch name {
	case "isDir":
		return "is a directory"
	case "isRegular":
		return "is a regular file"
	case "isSymlink":
		return "is a symbolic link"
	}

	return "exists"
}

func stringPredicate(fn func(string) bool) lang.Func {
	return func(r lang.Value, _ []lang.Value, _ *lang.Context) (lang.Value, error) {
		return lang.Bool(fn(string(r.(lang.String)))), nil
	}
}

// strs requires every argument to be a string.
func strs(fn string, args []lang.Value) ([]string, error) {
	out := make([]string, len(args))

	for i, a := range args {
		s, ok := a.(lang.String)
		if !ok {
			return nil, lang.ErrNoMatchingOverload.With(
				slog.String("function", fn),
				slog.Int("arg", i),
				slog.String("kind", a.Kind().String()),
			)
		}

		out[i] = string(s)
	}

	return out, nil
}

func envLookup(cfg config) lang.Func {
	return func(_ lang.Value, args []lang.Value, _ *lang.Context) (lang.Value, error) {
		v, ok := cfg.getenv(string(args[0].(lang.String)))
		if !ok {
			return lang.Null{}, nil
		}

		return lang.String(v), nil
	}
}

func envAll(cfg config) lang.Func {
	return func(lang.Value, []lang.Value, *lang.Context) (lang.Value, error) {
		m := buildProcessEnvMap(cfg.environ())
		vars := make(map[string]any, len(m))

		for k, v := range m {
			vars[k] = v
		}

		return lang.ValueOf(vars)
	}
}

func pathPrefix(_ lang.Value, args []lang.Value, _ *lang.Context) (lang.Value, error) {
	items, err := strs("pathPrefix", args)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, lang.ErrNoMatchingOverload.With(
			slog.String("function", "pathPrefix"),
		)
	}

	return lang.String(mungPrefix(items[0], items[1:]...)), nil
}

func pathPrefixIf(_ lang.Value, args []lang.Value, c *lang.Context) (lang.Value, error) {
	if len(args) < 2 {
		return nil, lang.ErrNoMatchingOverload.With(
			slog.String("function", "pathPrefixIf"),
		)
	}

	ref, ok := args[1].(lang.Function)
	if !ok {
		return nil, lang.ErrTypeMismatch.With(
			slog.String("function", "pathPrefixIf"),
			slog.String("reason", "predicate must be a function"),
		)
	}

	rest, err := strs("pathPrefixIf", append([]lang.Value{args[0]}, args[2:]...))
	if err != nil {
		return nil, err
	}

	var callErr error

	predicate := func(item string) bool {
		v, err := callPredicate(c, ref, item)
		if err != nil {
			if callErr == nil {
				callErr = err
			}

			return false
		}

		return v
	}

	out := mungPrefixIf(rest[0], predicate, rest[1:]...)
	if callErr != nil {
		return nil, callErr
	}

	return lang.String(out), nil
}

// callPredicate applies a function reference to item. A bound reference
// receives item as its argument; an unbound one receives item as receiver
// when it accepts one, else as its argument.
func callPredicate(c *lang.Context, ref lang.Function, item string) (bool, error) {
	var (
		v   lang.Value
		err error
	)

	if ref.Receiver != nil {
		v, err = c.Call(ref.Name, true, ref.Receiver, lang.String(item))
	} else {
		v, err = c.Call(ref.Name, true, lang.String(item))
		if err != nil {
			v, err = c.Call(ref.Name, false, nil, lang.String(item))
		}
	}

	if err != nil {
		return false, err
	}

	b, ok := v.(lang.Bool)
	if !ok {
		return false, lang.ErrTypeMismatch.With(
			slog.String("function", ref.Name),
			slog.String("reason", "predicate must return bool"),
		)
	}

	return bool(b), nil
}

// ---------------------------------------------------------------------------
// System information helpers
// ---------------------------------------------------------------------------

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

func (t target) toMap() map[string]any {
	return map[string]any{"os": t.OS, "arch": t.Arch}
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget(cfg config) target {
	t := getPlatform(cfg)

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		arm, ok := cfg.getenv("GOARM")
		if ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch strings.TrimSpace(arm) {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform(cfg config) target {
	var (
		o, a string
		ok   bool
	)

	if o, ok = cfg.getenv("GOHOSTOS"); !ok {
		if o, ok = cfg.getenv("GOOS"); !ok {
			o = runtime.GOOS
		}
	}

	if a, ok = cfg.getenv("GOHOSTARCH"); !ok {
		if a, ok = cfg.getenv("GOARCH"); !ok {
			a = runtime.GOARCH
		}
	}

	return target{OS: o, Arch: a}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUser() *user.User {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return u
}

func userMap(u *user.User) any {
	if u == nil {
		return nil
	}

	return map[string]any{
		"name": u.Username,
		"uid":  u.Uid,
		"gid":  u.Gid,
		"home": u.HomeDir,
	}
}

func getShell(cfg config) string {
	if shell, ok := cfg.getenv("SHELL"); ok {
		return shell
	}

	u := getUser()
	if u == nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// ---------------------------------------------------------------------------
// Filesystem functions
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeSymlink != 0
}

// ---------------------------------------------------------------------------
// Path manipulation functions
// ---------------------------------------------------------------------------

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// ---------------------------------------------------------------------------
// PATH-like string manipulation (mung)
// ---------------------------------------------------------------------------

func mungPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

func mungPrefixIf(
	list string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// buildProcessEnvMap converts a "KEY=VALUE" string slice to a map.
func buildProcessEnvMap(envList []string) map[string]string {
	result := make(map[string]string, len(envList))

	for _, entry := range envList {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			result[key] = value
		}
	}

	return result
}
