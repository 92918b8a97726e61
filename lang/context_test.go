package lang

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constFunc(v Value) Func {
	return func(Value, []Value, *Context) (Value, error) { return v, nil }
}

func TestContext_ReceiverBeatsFree(t *testing.T) {
	register := map[string]func(c *Context){
		"free": func(c *Context) {
			c.AddFunction("f", constFunc(String("free")), WithoutReceiver())
		},
		"receiver": func(c *Context) {
			c.AddFunction("f", constFunc(String("receiver")), WithReceiver())
		},
	}

	for _, order := range [][]string{{"free", "receiver"}, {"receiver", "free"}} {
		t.Run(order[0]+" first", func(t *testing.T) {
			c := NewContext(WithoutBuiltins())
			for _, name := range order {
				register[name](c)
			}

			assert.Equal(t, String("receiver"), mustRun(t, c, "1.f()"))
			assert.Equal(t, String("free"), mustRun(t, c, "f()"))
		})
	}
}

func TestContext_Specificity(t *testing.T) {
	c := NewContext(WithoutBuiltins())
	c.AddFunction("g", constFunc(String("anything")))
	c.AddFunction("g", constFunc(String("one arg")), WithArity(1))
	c.AddFunction("g", constFunc(String("one int")), WithParams(KindInt))
	c.AddFunction("g", constFunc(String("string recv")), WithReceiver(KindString))

	tests := []struct {
		src  string
		want Value
	}{
		{"g()", String("anything")},
		{"g(1, 2)", String("anything")},
		{"g('x')", String("one arg")},
		{"g(1)", String("one int")},
		{"'s'.g(1)", String("string recv")},
		{"1.g(1)", String("one int")},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRun(t, c, tt.src))
		})
	}
}

func TestContext_TieGoesToEarliest(t *testing.T) {
	c := NewContext(WithoutBuiltins())
	c.AddFunction("h", constFunc(Int(1)), WithParams(KindInt, KindAny))
	c.AddFunction("h", constFunc(Int(2)), WithParams(KindAny, KindInt))

	assert.Equal(t, Int(1), mustRun(t, c, "h(1, 1)"))
	assert.Equal(t, Int(2), mustRun(t, c, "h('a', 1)"))
}

func TestContext_Replace(t *testing.T) {
	c := NewContext(WithoutBuiltins())
	c.AddFunction("f", constFunc(Int(1)), WithParams(KindInt))
	c.AddFunction("f", constFunc(Int(2)), WithParams(KindString))
	c.AddFunction("f", constFunc(Int(3)), WithParams(KindInt))

	assert.Equal(t, Int(3), mustRun(t, c, "f(0)"))
	assert.Equal(t, Int(2), mustRun(t, c, "f('')"))
	assert.Len(t, c.Signatures("f"), 2)

	c.AddVariable("x", Int(1))
	c.AddVariable("x", String("y"))

	v, ok := c.Variable("x")
	require.True(t, ok)
	assert.Equal(t, String("y"), v)
}

func TestContext_FunctionErrors(t *testing.T) {
	c := NewContext(WithoutBuiltins())
	c.AddFunction("boom", func(Value, []Value, *Context) (Value, error) {
		panic("kaboom")
	})
	c.AddFunction("fail", func(Value, []Value, *Context) (Value, error) {
		return nil, errors.New("plain failure")
	})
	c.AddFunction("missing", func(Value, []Value, *Context) (Value, error) {
		return nil, ErrNoSuchKey
	})
	c.AddFunction("void", func(Value, []Value, *Context) (Value, error) {
		return nil, nil
	})

	_, err := run(t, c, "boom()")
	require.ErrorIs(t, err, ErrFunction)
	assert.Contains(t, err.Error(), "kaboom")

	_, err = run(t, c, "fail()")
	require.ErrorIs(t, err, ErrFunction)
	assert.Contains(t, err.Error(), "plain failure")

	_, err = run(t, c, "missing()")
	assert.ErrorIs(t, err, ErrNoSuchKey)
	assert.NotErrorIs(t, err, ErrFunction)

	assert.Equal(t, Null{}, mustRun(t, c, "void()"))
}

func TestContext_FunctionRefs(t *testing.T) {
	c := NewContext()
	c.AddFunction("twice", func(_ Value, args []Value, c *Context) (Value, error) {
		ref, ok := args[0].(Function)
		if !ok {
			return nil, ErrTypeMismatch
		}

		v, err := c.Call(ref.Name, ref.Receiver != nil, ref.Receiver, args[1])
		if err != nil {
			return nil, err
		}

		return c.Call(ref.Name, ref.Receiver != nil, ref.Receiver, v)
	}, WithArity(2))
	c.AddFunction("inc", func(_ Value, args []Value, _ *Context) (Value, error) {
		return args[0].(Int) + 1, nil
	}, WithParams(KindInt))

	assert.Equal(t, Int(3), mustRun(t, c, "twice(inc, 1)"))

	bound := mustRun(t, c, "'abc'.startsWith")
	assert.Equal(t, Function{Name: "startsWith", Receiver: String("abc")}, bound)
	assert.Equal(t, `"abc".startsWith`, Repr(bound))

	c.AddVariable("pre", bound)
	assert.Equal(t, Bool(true), mustRun(t, c, "pre('ab')"))
	assert.Equal(t, Bool(false), mustRun(t, c, "pre('b')"))

	c.AddVariable("alias", Function{Name: "inc"})
	assert.Equal(t, Int(8), mustRun(t, c, "alias(7)"))

	c.AddVariable("dangling", Function{Name: "nope"})
	_, err := run(t, c, "dangling()")
	assert.ErrorIs(t, err, ErrNoMatchingOverload)

	_, err = run(t, c, "1.startsWith")
	assert.ErrorIs(t, err, ErrNotIndexable)
}

func TestContext_CallShapeInError(t *testing.T) {
	_, err := run(t, NewContext(), "'a'.startsWith(1)")
	require.ErrorIs(t, err, ErrNoMatchingOverload)

	var e *Error
	require.ErrorAs(t, err, &e)

	attrs := map[string]string{}
	for _, a := range e.Attrs() {
		attrs[a.Key] = a.Value.String()
	}

	assert.Equal(t, "string.startsWith(int)", attrs["call"])
	assert.Equal(t, "1:5", attrs["pos"])
}

func TestContext_NamesAndClone(t *testing.T) {
	c := NewContext(WithoutBuiltins())
	c.AddVariable("b", Int(1))
	c.AddVariable("a", Int(2))
	c.AddFunction("z", constFunc(Null{}))
	c.AddFunction("a", constFunc(Null{}))

	assert.Equal(t, []string{"a", "b", "z"}, c.Names())
	assert.Equal(t, []string{"a", "b"}, c.Variables())
	assert.True(t, c.HasFunction("z"))
	assert.False(t, c.HasFunction("b"))

	d := c.Clone()
	d.AddVariable("c", Int(3))
	d.AddFunction("z", constFunc(Int(9)))

	_, ok := c.Variable("c")
	assert.False(t, ok)
	assert.Equal(t, Null{}, mustRun(t, c, "z()"))
	assert.Equal(t, Int(9), mustRun(t, d, "z()"))
}

func TestContext_AddVariables(t *testing.T) {
	c := NewContext()
	require.NoError(t, c.AddVariables(map[string]any{
		"n":    1,
		"list": []string{"x"},
		"nil":  nil,
	}))

	assert.Equal(t, Bool(true), mustRun(t, c, "n == 1 && list[0] == 'x' && nil == null"))

	err := c.AddVariables(map[string]any{"bad": struct{}{}})
	assert.ErrorIs(t, err, ErrInvalidVariable)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestContext_Signatures(t *testing.T) {
	c := NewContext()

	var got []string
	for _, s := range c.Signatures("size") {
		got = append(got, s.String())
	}

	assert.Equal(t, []string{"size(any)", "string|bytes|list|map.size()"}, got)

	c.AddFunction("v", constFunc(Null{}), WithDoc("anything goes"))
	sig := c.Signatures("v")
	require.Len(t, sig, 1)
	assert.Equal(t, "[any.]v(...)", sig[0].String())
	assert.Equal(t, "anything goes", sig[0].Doc)

	assert.Empty(t, c.Signatures("nothing"))
	assert.Greater(t, len(c.Signatures("")), 10)
}
