package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/cel/cli/cmd"
	"github.com/ardnew/cel/pkg"
)

func TestMain(m *testing.M) {
	// The configuration and cache directories are resolved once per process.
	root, err := os.MkdirTemp("", "cel-cli-test-*")
	if err != nil {
		panic(err)
	}

	os.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))

	code := m.Run()

	os.RemoveAll(root)
	os.Exit(code)
}

// exitCode is raised by the exit function passed to Run.
type exitCode int

// run calls Run with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (out string, code int, err error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	stdout := os.Stdout
	os.Stdout = w

	done := make(chan string)

	go func() {
		data, _ := io.ReadAll(r)
		done <- string(data)
	}()

	code = -1

	func() {
		defer func() {
			if v := recover(); v != nil {
				c, ok := v.(exitCode)
				if !ok {
					panic(v)
				}

				code = int(c)
			}
		}()

		err = Run(context.Background(), func(c int) { panic(exitCode(c)) }, args...)
	}()

	os.Stdout = stdout

	w.Close()

	return <-done, code, err
}

func TestRun_Eval(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"1 + 2"}, "3\n"},
		{[]string{"eval", "--var", "x=2", "-v", "y=x*21", "y"}, "42\n"},
		{[]string{"eval", "-o", "json", `{"a": [true]}`}, "{\"a\":[true]}\n"},
		{[]string{"eval", "--demo", "TestString"}, "\"World\"\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, code, err := run(t, tt.args...)
			if err != nil || code != -1 {
				t.Fatalf("Run() error = %v, exit = %d", err, code)
			}

			if got != tt.want {
				t.Errorf("Run() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_BindingFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	if err := os.WriteFile(path, []byte("name: cel\nsizes: [1, 2]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, _, err := run(t, "--vars", path, "eval", `name + string(size(sizes))`)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got != "\"cel2\"\n" {
		t.Errorf("Run() output = %q", got)
	}
}

func TestRun_Fmt(t *testing.T) {
	got, _, err := run(t, "fmt", "(1+2)*x")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got != "(1 + 2) * x\n" {
		t.Errorf("Run() output = %q", got)
	}

	got, _, err = run(t, "fmt", "ast", "!x")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got != "Unary: !\n  Ident: x\n" {
		t.Errorf("Run() output = %q", got)
	}
}

func TestRun_Version(t *testing.T) {
	got, code, _ := run(t, "--version")

	if code != 0 {
		t.Errorf("exit = %d, want 0", code)
	}

	if !strings.Contains(got, pkg.Version) {
		t.Errorf("output = %q, want version %s", got, pkg.Version)
	}
}

func TestRun_Errors(t *testing.T) {
	if _, _, err := run(t, "eval", "1 / 0"); err == nil {
		t.Error("Run(1 / 0) error = nil")
	}

	if _, _, err := run(t, "eval", "--var", "bad", "1"); !errors.Is(err, cmd.ErrInvalidBinding) {
		t.Errorf("Run(--var bad) error = %v, want ErrInvalidBinding", err)
	}
}

func TestRun_InitThenConfig(t *testing.T) {
	path := configPath(baseConfig + configExt)
	t.Cleanup(func() { os.Remove(path) })

	if _, _, err := run(t, "init"); err != nil {
		t.Fatalf("Run(init) error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), `"log-level": "info"`) {
		t.Errorf("config =\n%s", data)
	}

	if _, _, err := run(t, "init"); !errors.Is(err, cmd.ErrFileExists) {
		t.Errorf("second Run(init) error = %v, want ErrFileExists", err)
	}

	// The configuration file is read back on the next run.
	if err := os.WriteFile(path, []byte(`{"log-level": "error"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := run(t, "init", "--force"); err != nil {
		t.Fatalf("Run(init --force) error = %v", err)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(data), `"log-level": "error"`) {
		t.Errorf("config =\n%s", data)
	}
}

func TestPaths(t *testing.T) {
	if !strings.HasSuffix(configPath("x"), filepath.Join(basePrefix(), "x")) {
		t.Errorf("configPath(x) = %q", configPath("x"))
	}

	if !strings.HasPrefix(cacheDir(), os.Getenv("XDG_CACHE_HOME")) {
		t.Errorf("cacheDir() = %q, want under %q", cacheDir(), os.Getenv("XDG_CACHE_HOME"))
	}

	if basePrefix() == "" || strings.HasPrefix(basePrefix(), ".") {
		t.Errorf("basePrefix() = %q", basePrefix())
	}
}
