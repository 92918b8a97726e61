package lang

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"size('héllo')", Int(5)},
		{"'héllo'.size()", Int(5)},
		{"size(b'h\\xc3\\xa9')", Int(3)},
		{"[1, 2].size()", Int(2)},
		{"size({'a': 1})", Int(1)},
		{"'hello'.contains('ell')", Bool(true)},
		{"b'hello'.contains(b'xx')", Bool(false)},
		{"[1, 'a', 2.0].contains(2u)", Bool(true)},
		{"{'k': 1}.contains('k')", Bool(true)},
		{"{'k': 1}.contains(1)", Bool(false)},
		{"'hello'.startsWith('he')", Bool(true)},
		{"'hello'.endsWith('lo')", Bool(true)},
		{"'hello'.endsWith('he')", Bool(false)},
		{"'abc123'.matches('^[a-z]+[0-9]+$')", Bool(true)},
		{"matches('abc', 'b')", Bool(true)},
		{"matches('abc', '^b')", Bool(false)},
		{"int('-42')", Int(-42)},
		{"int(3.9)", Int(3)},
		{"int(-3.9)", Int(-3)},
		{"int(7u)", Int(7)},
		{"uint(7)", Uint(7)},
		{"uint('18446744073709551615')", Uint(math.MaxUint64)},
		{"uint(2.5)", Uint(2)},
		{"double(1)", Float(1)},
		{"double(2u)", Float(2)},
		{"double('1.5')", Float(1.5)},
		{"double('1e400')", Float(math.Inf(1))},
		{"string(1)", String("1")},
		{"string(1u)", String("1")},
		{"string(1.5)", String("1.5")},
		{"string(true)", String("true")},
		{"string(b'abc')", String("abc")},
		{"bytes('abc')", Bytes("abc")},
		{"bool('true')", Bool(true)},
		{"bool(false)", Bool(false)},
		{"type(1)", String("int")},
		{"type(1u)", String("uint")},
		{"type(1.0)", String("double")},
		{"type(null)", String("null")},
		{"type([])", String("list")},
		{"type({})", String("map")},
		{"type(b'')", String("bytes")},
		{"type(size)", String("function")},
		{"type(type(1))", String("string")},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := mustRun(t, NewContext(), tt.src)
			assert.True(t, Equal(tt.want, got), "got %s", Repr(got))
			assert.Equal(t, tt.want.Kind(), got.Kind())
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"size(1)", ErrNoMatchingOverload},
		{"1.size()", ErrNoMatchingOverload},
		{"'a'.contains(1)", ErrNoMatchingOverload},
		{"'a'.matches('[')", ErrFunction},
		{"int('x')", ErrTypeMismatch},
		{"int('9223372036854775808')", ErrOverflow},
		{"int(18446744073709551615u)", ErrOverflow},
		{"int(1e19)", ErrOverflow},
		{"int(double('NaN'))", ErrOverflow},
		{"uint(-1)", ErrOverflow},
		{"uint(-0.5 - 1.0)", ErrOverflow},
		{"uint('-1')", ErrTypeMismatch},
		{"double('abc')", ErrTypeMismatch},
		{"double(true)", ErrTypeMismatch},
		{"string(b'\\xff')", ErrTypeMismatch},
		{"string([])", ErrTypeMismatch},
		{"bytes(1)", ErrTypeMismatch},
		{"bool('maybe')", ErrTypeMismatch},
		{"bool(1)", ErrTypeMismatch},
		{"int()", ErrNoMatchingOverload},
		{"'a'.int()", ErrNoMatchingOverload},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := run(t, NewContext(), tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuiltins_Deterministic(t *testing.T) {
	c := NewContext()

	for _, src := range []string{
		"'abc'.matches('b+')",
		"string(0.1)",
		"type({'a': [1]})",
	} {
		p := mustCompile(t, src)

		first, err := p.Execute(c)
		require.NoError(t, err)

		second, err := p.Execute(c)
		require.NoError(t, err)

		assert.True(t, Equal(first, second), src)
	}
}

func TestBuiltins_WithoutBuiltins(t *testing.T) {
	c := NewContext(WithoutBuiltins())
	assert.Empty(t, c.Names())

	_, err := run(t, c, "size([])")
	assert.ErrorIs(t, err, ErrNoMatchingOverload)
}
