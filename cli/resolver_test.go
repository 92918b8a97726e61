package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/cel/lang"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("CEL_TEST_FORMAT", "text")

	src := `{
		"a": 1,
		"b": 2.5,
		"c": 3u,
		"d": [1, "x"],
		"e": true,
		"log_format": env("CEL_TEST_FORMAT") ?? "json",
	}`

	got, err := loadConfig(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	want := config{
		"a":          "1",
		"b":          "2.5",
		"c":          "3",
		"d":          []any{"1", "x"},
		"e":          true,
		"log_format": "text",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("loadConfig() = %v, want %v", got, want)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"not_map", "[1, 2]", lang.ErrTypeMismatch},
		{"key_type", "{1: 2}", lang.ErrTypeMismatch},
		{"eval", `{"a": missing}`, lang.ErrNoSuchVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(context.Background(), strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("loadConfig(%q) error = %v, want %v", tt.src, err, tt.want)
			}
		})
	}

	_, err := loadConfig(context.Background(), strings.NewReader("{"))

	var ce *lang.CompileError
	if !errors.As(err, &ce) {
		t.Errorf("loadConfig({) error = %v, want *lang.CompileError", err)
	}
}

func TestLoadConfig_Empty(t *testing.T) {
	got, err := loadConfig(context.Background(), strings.NewReader(" \n"))
	if err != nil || len(got) != 0 {
		t.Errorf("loadConfig(blank) = %v, %v", got, err)
	}
}

type resolverCLI struct {
	LogLevel  string   `default:"info" name:"log-level"`
	LogPretty bool     `default:"true" name:"log-pretty" negatable:""`
	Depth     int      `default:"1"`
	Ratio     float64  `default:"0"`
	Tags      []string `name:"tags"`
}

func parseWithConfig(t *testing.T, content string, args ...string) resolverCLI {
	t.Helper()

	path := filepath.Join(t.TempDir(), baseConfig+configExt)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var cli resolverCLI

	parser, err := kong.New(&cli,
		kong.Configuration(resolve(context.Background()), path))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	return cli
}

func TestResolve(t *testing.T) {
	cli := parseWithConfig(t, `{
		"log-level": "debug",
		"log_pretty": false,
		"depth": 7,
		"ratio": 0.25,
		"tags": ["a", "b"],
		"unknown": null,
	}`)

	want := resolverCLI{
		LogLevel:  "debug",
		LogPretty: false,
		Depth:     7,
		Ratio:     0.25,
		Tags:      []string{"a", "b"},
	}

	if !reflect.DeepEqual(cli, want) {
		t.Errorf("parsed = %+v, want %+v", cli, want)
	}
}

func TestResolve_FlagsOverride(t *testing.T) {
	cli := parseWithConfig(t, `{"log-level": "debug", "depth": 7}`, "--depth=2")

	if cli.Depth != 2 || cli.LogLevel != "debug" {
		t.Errorf("parsed = %+v", cli)
	}
}

func TestResolve_InvalidIgnored(t *testing.T) {
	for _, content := range []string{"{", `"not a map"`, `{"a": 1 / 0}`} {
		cli := parseWithConfig(t, content)

		if cli.LogLevel != "info" || cli.Depth != 1 || !cli.LogPretty {
			t.Errorf("config %q: parsed = %+v, want defaults", content, cli)
		}
	}
}

func TestConfigResolve_Names(t *testing.T) {
	r := config{"log-level": "debug", "log_format": "text"}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-format", "text"},
		{"log-caller", nil},
	}

	for _, tt := range tests {
		got, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: tt.flag}})
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %v, %v, want %v", tt.flag, got, err, tt.want)
		}
	}
}
