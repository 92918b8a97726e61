package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/cel/lang"
)

type initCLI struct {
	Level   string   `default:"info"`
	Depth   int      `default:"3"`
	Verbose bool     `default:"true"`
	Vars    []string `name:"vars"`
	Tags    []string `default:"a,b"`
	Pprof   string   `name:"pprof-mode"`
	Secret  string   `default:"x"     hidden:""`

	Init Init `cmd:""`
}

// newInitContext parses "init" with the configuration path set to path.
func newInitContext(t *testing.T, path string, args ...string) (context.Context, *Init) {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: path})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(context.Background(), ktx), &cli.Init
}

func TestInitRun(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		setup   func(t *testing.T, path string)
		wantErr error
	}{
		{name: "create_new_config"},
		{
			name: "overwrite_existing_with_force",
			args: []string{"--force"},
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "fail_without_force",
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: ErrFileExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.cel")

			if tt.setup != nil {
				tt.setup(t, path)
			}

			ctx, cmd := newInitContext(t, path, tt.args...)

			err := cmd.Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrWriteConfig) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error = %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			p, err := lang.Compile(string(data))
			if err != nil {
				t.Fatalf("generated config does not compile: %v\n%s", err, data)
			}

			v, err := p.Execute(lang.NewContext())
			if err != nil {
				t.Fatalf("generated config does not evaluate: %v", err)
			}

			got, ok := lang.Native(v).(map[string]any)
			if !ok {
				t.Fatalf("config = %s, want a map", lang.Repr(v))
			}

			want := map[string]any{
				"level":   "info",
				"depth":   int64(3),
				"verbose": true,
				"tags":    []any{"a", "b"},
			}

			if len(got) != len(want) {
				t.Errorf("config keys = %v, want %v", got, want)
			}

			for k, w := range want {
				if !lang.Equal(mustValue(t, got[k]), mustValue(t, w)) {
					t.Errorf("config[%q] = %v, want %v", k, got[k], w)
				}
			}
		})
	}
}

func mustValue(t *testing.T, x any) lang.Value {
	t.Helper()

	v, err := lang.ValueOf(x)
	if err != nil {
		t.Fatal(err)
	}

	return v
}

func TestInitRun_Layout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.cel")
	ctx, cmd := newInitContext(t, path)

	if err := cmd.Run(ctx); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "{\n" +
		"  \"level\": \"info\",\n" +
		"  \"depth\": 3,\n" +
		"  \"verbose\": true,\n" +
		"  \"tags\": [\"a\", \"b\"],\n" +
		"}\n"

	if string(data) != want {
		t.Errorf("config =\n%s\nwant\n%s", data, want)
	}
}

func TestInitRun_InvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.cel")
	ctx, cmd := newInitContext(t, path)

	if err := cmd.Run(ctx); !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want ErrWriteConfig", err)
	}
}

func TestFlagValue(t *testing.T) {
	b := lang.NewBuilder()

	tests := []struct {
		name string
		val  any
		want string // canonical source, or "" when skipped
	}{
		{"nil", nil, ""},
		{"empty_string", "", ""},
		{"empty_list", []string{}, ""},
		{"string", "x", `"x"`},
		{"int", 5, "5"},
		{"bool", false, "false"},
		{"float", 0.5, "0.5"},
		{"list", []string{"a", "b"}, `["a", "b"]`},
		{"stringer", lang.KindString, `"string"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := flagValue(b, tt.val)
			if err != nil {
				t.Fatalf("flagValue() error = %v", err)
			}

			if tt.want == "" {
				if e != nil {
					t.Errorf("flagValue() = %v, want nil", e)
				}

				return
			}

			if e == nil {
				t.Fatalf("flagValue() = nil, want %s", tt.want)
			}

			if got := b.Program(e).String(); got != tt.want {
				t.Errorf("flagValue() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := flagValue(b, make(chan int)); err == nil {
		t.Error("flagValue(chan) error = nil")
	}
}
