package lang

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ardnew/cel/log"
)

func TestCompile_Source(t *testing.T) {
	const src = "  1 +  2 // sum\n"

	p, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if p.Source() != src {
		t.Errorf("Source() = %q, want %q", p.Source(), src)
	}

	if got := p.String(); got != "1 + 2" {
		t.Errorf("String() = %q, want %q", got, "1 + 2")
	}
}

func TestCompile_NilOptions(t *testing.T) {
	if _, err := Compile("true", nil, WithMaxDepth(5), nil); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
}

func TestCompile_WithLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false))

	if _, err := CompileContext(context.Background(), "a + 1", WithLogger(logger)); err != nil {
		t.Fatalf("CompileContext() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"lex complete"`, `"token_count":4`, `"root":"Binary"`} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %s:\n%s", want, out)
		}
	}

	buf.Reset()

	if _, err := Compile("a +", WithLogger(logger)); err == nil {
		t.Fatal("Compile() succeeded, want error")
	}

	if !strings.Contains(buf.String(), `"msg":"parse failed"`) {
		t.Errorf("trace output missing parse failure:\n%s", buf.String())
	}
}

func TestExecute_WithContextLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false))

	p, err := Compile("[1][2]")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if _, err := p.Execute(NewContext(WithContextLogger(logger))); err == nil {
		t.Fatal("Execute() succeeded, want error")
	}

	if !strings.Contains(buf.String(), `"msg":"execute failed"`) {
		t.Errorf("trace output missing failure:\n%s", buf.String())
	}
}

func TestCompileReader_ReadError(t *testing.T) {
	cause := errors.New("disk on fire")

	_, err := CompileReader(context.Background(), iotest.ErrReader(cause))
	if !errors.Is(err, ErrReadInput) {
		t.Fatalf("CompileReader() error = %v, want %v", err, ErrReadInput)
	}

	if !errors.Is(err, cause) {
		t.Errorf("CompileReader() error = %v, want wrapped %v", err, cause)
	}
}

func TestBuilder_Program(t *testing.T) {
	b := NewBuilder()

	p := b.Program(b.Map(
		b.Entry(b.String("level"), b.String("info")),
		b.Entry(b.String("depth"), b.Value(Int(100))),
		b.Entry(b.String("tags"), b.List(b.Bool(true), b.Value(nil))),
		b.Entry(b.String("sum"), b.Binary(OpMul,
			b.Binary(OpAdd, b.Ident("a"), b.Value(Int(1))), b.Value(Int(2)))),
		b.Entry(b.String("ok"), b.Binary(OpAnd,
			b.Call(b.Select(b.Ident("m"), "k"), "startsWith", b.String("x")),
			b.Call(nil, "f"))),
	))

	const want = `{"level": "info", "depth": 100, "tags": [true, null], ` +
		`"sum": (a + 1) * 2, "ok": m.k.startsWith("x") && f()}`

	if got := p.String(); got != want {
		t.Errorf("String() = %s\nwant       %s", got, want)
	}

	if p.Source() != want {
		t.Errorf("Source() = %s, want %s", p.Source(), want)
	}

	q, err := Compile(p.Source())
	if err != nil {
		t.Fatalf("Compile(Source()) error = %v", err)
	}

	if q.String() != want {
		t.Errorf("reparsed String() = %s, want %s", q.String(), want)
	}

	if _, ok := b.Binary(OpCoalesce, b.Ident("a"), b.Ident("b")).(*Logical); !ok {
		t.Error("Binary(OpCoalesce) did not build a Logical node")
	}
}
