package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram_StringReparses(t *testing.T) {
	c := demoContext()
	c.AddVariable("xs", List{Int(1), Int(2), Int(3)})
	c.AddVariable("m", mustValueOf(t, map[string]any{"k": "v"}))

	for _, src := range []string{
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"10 - (4 - 3)",
		"-(-1)",
		"- -1",
		"!(true && false) || false",
		"xs[1] + size(xs) * -xs[0]",
		"m.k + TestString.TestFunction()",
		"null ?? (false ? 1 : 2) ?? 3",
		"{'a': [1, 2u, 3.5], 2: {true: b'\\x00'}}",
		"(true ? xs : [0])[0]",
		"-9223372036854775808",
		"(-9223372036854775808).size",
	} {
		t.Run(src, func(t *testing.T) {
			p := mustCompile(t, src)
			q := mustCompile(t, p.String())

			assert.Equal(t, p.String(), q.String(), "canonical form is stable")

			want, werr := p.Execute(c)
			got, gerr := q.Execute(c)

			if werr != nil {
				assert.ErrorIs(t, gerr, werr.(*Error).Sentinel())

				return
			}

			require.NoError(t, gerr)
			assert.True(t, Equal(want, got), "%s vs %s", Repr(want), Repr(got))
		})
	}
}

func TestProgram_Format(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, mustCompile(t, "1+2*(3)").Format(context.Background(), &buf))
	assert.Equal(t, "1 + 2 * 3\n", buf.String())
}

func TestProgram_FormatIndent(t *testing.T) {
	tests := []struct {
		src    string
		indent int
		want   string
	}{
		{`{"a": 1, "b": [1,2]}`, 2, "{\n  \"a\": 1,\n  \"b\": [1, 2],\n}\n"},
		{`[x ?? 1]`, 4, "[\n    x ?? 1,\n]\n"},
		{`{"a": 1}`, 0, "{\"a\": 1}\n"},
		{`{}`, 2, "{}\n"},
		{`1 + 1`, 2, "1 + 1\n"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		p := mustCompile(t, tt.src)
		require.NoError(t, p.FormatIndent(context.Background(), &buf, tt.indent))
		assert.Equal(t, tt.want, buf.String(), tt.src)

		// The indented form parses back to the same program.
		assert.Equal(t, p.String(), mustCompile(t, buf.String()).String())
	}
}

func TestProgram_Print(t *testing.T) {
	var buf bytes.Buffer

	mustCompile(t, "x ? f(1) : [a, {}]").Print(&buf)

	want := strings.Join([]string{
		"Conditional",
		"  ? Ident: x",
		"  then Call: f",
		"    Literal: 1",
		"  else List",
		"    Ident: a",
		"    Map: (empty)",
		"",
	}, "\n")

	assert.Equal(t, want, buf.String())
}

func TestProgram_FormatJSON(t *testing.T) {
	var buf bytes.Buffer

	p := mustCompile(t, "1 + x")
	require.NoError(t, p.FormatJSON(context.Background(), &buf, 0))

	assert.JSONEq(t, `{
		"node": "Binary", "pos": "1:3", "op": "+",
		"left": {"node": "Literal", "pos": "1:1", "type": "int", "value": "1"},
		"right": {"node": "Ident", "pos": "1:5", "name": "x"}
	}`, buf.String())

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, buf.String(), string(data))
}

func TestProgram_FormatYAML(t *testing.T) {
	var buf bytes.Buffer

	p := mustCompile(t, "'a'.startsWith(s)")
	require.NoError(t, p.FormatYAML(context.Background(), &buf, 2))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "Call", got["node"])
	assert.Equal(t, "startsWith", got["name"])

	recv, ok := got["receiver"].(map[string]any)
	require.True(t, ok, "receiver is %T", got["receiver"])
	assert.Equal(t, `"a"`, recv["value"])
}

func TestFormatValue(t *testing.T) {
	ctx := context.Background()
	v := mustRun(t, NewContext(),
		`{"list": [1, 2.5, "x", null], 1: true, "nan": double("NaN"), "f": size}`)

	var buf bytes.Buffer

	require.NoError(t, FormatValue(ctx, &buf, v, FormatNative, 0))
	assert.Equal(t, Repr(v)+"\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatValue(ctx, &buf, v, FormatJSON, 0))
	assert.JSONEq(t,
		`{"list": [1, 2.5, "x", null], "1": true, "nan": "double(\"NaN\")", "f": "size"}`,
		buf.String())

	buf.Reset()
	require.NoError(t, FormatValue(ctx, &buf, v, FormatJSON, 2))
	assert.Contains(t, buf.String(), "\n  \"1\": true")

	buf.Reset()
	require.NoError(t, FormatValue(ctx, &buf,
		mustRun(t, NewContext(), `{"name": "x", "f": size, "tags": ["a"]}`),
		FormatYAML, 2))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "x", got["name"])
	assert.Equal(t, "size", got["f"])
	assert.Equal(t, []any{"a"}, got["tags"])

	buf.Reset()
	require.NoError(t, FormatValue(ctx, &buf, Int(3), FormatYAML, 0))
	assert.Equal(t, "3\n", buf.String())

	assert.Error(t, FormatValue(ctx, &buf, v, "xml", 0))
	assert.Equal(t, []string{"native", "json", "yaml"}, Formats())
}

func TestWalk(t *testing.T) {
	var kinds []string

	Walk(mustCompile(t, "a.b(c[0], -d)").Root(), func(e Expr) bool {
		kinds = append(kinds, e.Kind().String())

		return true
	})

	assert.Equal(t,
		[]string{"Call", "Ident", "Index", "Ident", "Literal", "Unary", "Ident"},
		kinds)
}
