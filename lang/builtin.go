package lang

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// registerBuiltins installs the deterministic core functions.
func registerBuiltins(c *Context) {
	c.AddFunction("size", builtinSize,
		WithoutReceiver(), WithParams(KindAny),
		WithDoc("length of a string (runes), bytes, list, or map"))
	c.AddFunction("size", builtinSize,
		WithReceiver(KindString, KindBytes, KindList, KindMap), WithArity(0),
		WithDoc("length of a string (runes), bytes, list, or map"))

	c.AddFunction("contains", stringPredicate(strings.Contains),
		WithReceiver(KindString), WithParams(KindString),
		WithDoc("reports whether the substring is present"))
	c.AddFunction("contains", bytesContains,
		WithReceiver(KindBytes), WithParams(KindBytes),
		WithDoc("reports whether the byte sequence is present"))
	c.AddFunction("contains", listContains,
		WithReceiver(KindList), WithParams(KindAny),
		WithDoc("reports whether an equal element is present"))
	c.AddFunction("contains", mapContains,
		WithReceiver(KindMap), WithParams(KindAny),
		WithDoc("reports whether the key is present"))

	c.AddFunction("startsWith", stringPredicate(strings.HasPrefix),
		WithReceiver(KindString), WithParams(KindString),
		WithDoc("reports whether the string begins with the prefix"))
	c.AddFunction("endsWith", stringPredicate(strings.HasSuffix),
		WithReceiver(KindString), WithParams(KindString),
		WithDoc("reports whether the string ends with the suffix"))

	c.AddFunction("matches", builtinMatches,
		WithReceiver(KindString), WithParams(KindString),
		WithDoc("reports whether the string matches the RE2 pattern"))
	c.AddFunction("matches", builtinMatches,
		WithoutReceiver(), WithParams(KindString, KindString),
		WithDoc("reports whether the string matches the RE2 pattern"))

	for _, conv := range []struct {
		fn   func(Value) (Value, error)
		name string
		doc  string
	}{
		{toInt, "int", "converts to int"},
		{toUint, "uint", "converts to uint"},
		{toDouble, "double", "converts to double"},
		{toString, "string", "converts to string"},
		{toBytes, "bytes", "converts to bytes"},
		{toBool, "bool", "converts to bool"},
		{typeOf, "type", "name of the value's type"},
	} {
		c.AddFunction(conv.name, unary(conv.fn),
			WithoutReceiver(), WithParams(KindAny), WithDoc(conv.doc))
	}
}

// target returns the receiver when present, else the first argument.
func target(receiver Value, args []Value) Value {
	if receiver != nil {
		return receiver
	}

	return args[0]
}

func unary(fn func(Value) (Value, error)) Func {
	return func(receiver Value, args []Value, _ *Context) (Value, error) {
		return fn(target(receiver, args))
	}
}

func builtinSize(receiver Value, args []Value, _ *Context) (Value, error) {
	switch v := target(receiver, args).(type) {
	case String:
		return Int(utf8.RuneCountInString(string(v))), nil
	case Bytes:
		return Int(len(v)), nil
	case List:
		return Int(len(v)), nil
	case *Map:
		return Int(v.Len()), nil
	case Value:
		return nil, ErrNoMatchingOverload.With(
			slog.String("function", "size"),
			slog.String("kind", v.Kind().String()),
		)
	}

	return nil, ErrNoMatchingOverload.With(slog.String("function", "size"))
}

func stringPredicate(fn func(s, sub string) bool) Func {
	return func(receiver Value, args []Value, _ *Context) (Value, error) {
		return Bool(fn(string(receiver.(String)), string(args[0].(String)))), nil
	}
}

func bytesContains(receiver Value, args []Value, _ *Context) (Value, error) {
	return Bool(bytes.Contains(receiver.(Bytes), args[0].(Bytes))), nil
}

func listContains(receiver Value, args []Value, _ *Context) (Value, error) {
	return Bool(slices.ContainsFunc(receiver.(List), func(e Value) bool {
		return Equal(e, args[0])
	})), nil
}

func mapContains(receiver Value, args []Value, _ *Context) (Value, error) {
	_, ok := receiver.(*Map).Get(args[0])

	return Bool(ok), nil
}

// patterns caches compiled regular expressions by source.
var patterns sync.Map

func builtinMatches(receiver Value, args []Value, _ *Context) (Value, error) {
	s, pattern := target(receiver, args), args[len(args)-1]

	re, err := compilePattern(string(pattern.(String)))
	if err != nil {
		return nil, err
	}

	return Bool(re.MatchString(string(s.(String)))), nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, ErrFunction.Wrap(err).With(
			slog.String("function", "matches"),
			slog.String("pattern", pattern),
		)
	}

	patterns.Store(pattern, re)

	return re, nil
}

func convMismatch(to Kind, v Value) error {
	return ErrTypeMismatch.With(
		slog.String("conversion", to.String()),
		slog.String("from", kindOf(v).String()),
	)
}

func convOverflow(to Kind, v Value) error {
	return ErrOverflow.With(
		slog.String("conversion", to.String()),
		slog.String("value", Repr(v)),
	)
}

// parseError distinguishes out-of-range input from malformed input.
func parseError(to Kind, v Value, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return convOverflow(to, v)
	}

	return ErrTypeMismatch.Wrap(err).With(
		slog.String("conversion", to.String()),
		slog.String("value", Repr(v)),
	)
}

func toInt(v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		return x, nil

	case Uint:
		if uint64(x) > math.MaxInt64 {
			return nil, convOverflow(KindInt, v)
		}

		return Int(int64(x)), nil

	case Float:
		f := math.Trunc(float64(x))
		if math.IsNaN(f) || f < -twoPow63 || f >= twoPow63 {
			return nil, convOverflow(KindInt, v)
		}

		return Int(int64(f)), nil

	case String:
		i, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return nil, parseError(KindInt, v, err)
		}

		return Int(i), nil
	}

	return nil, convMismatch(KindInt, v)
}

func toUint(v Value) (Value, error) {
	switch x := v.(type) {
	case Uint:
		return x, nil

	case Int:
		if x < 0 {
			return nil, convOverflow(KindUint, v)
		}

		return Uint(uint64(x)), nil

	case Float:
		f := math.Trunc(float64(x))
		if math.IsNaN(f) || f < 0 || f >= twoPow64 {
			return nil, convOverflow(KindUint, v)
		}

		return Uint(uint64(f)), nil

	case String:
		u, err := strconv.ParseUint(string(x), 10, 64)
		if err != nil {
			return nil, parseError(KindUint, v, err)
		}

		return Uint(u), nil
	}

	return nil, convMismatch(KindUint, v)
}

func toDouble(v Value) (Value, error) {
	switch x := v.(type) {
	case Float:
		return x, nil

	case Int:
		return Float(float64(x)), nil

	case Uint:
		return Float(float64(x)), nil

	case String:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, parseError(KindFloat, v, err)
		}

		return Float(f), nil
	}

	return nil, convMismatch(KindFloat, v)
}

func toString(v Value) (Value, error) {
	switch x := v.(type) {
	case String:
		return x, nil

	case Int:
		return String(strconv.FormatInt(int64(x), 10)), nil

	case Uint:
		return String(strconv.FormatUint(uint64(x), 10)), nil

	case Float:
		return String(strconv.FormatFloat(float64(x), 'g', -1, 64)), nil

	case Bool:
		return String(strconv.FormatBool(bool(x))), nil

	case Bytes:
		if !utf8.Valid(x) {
			return nil, ErrTypeMismatch.With(
				slog.String("conversion", KindString.String()),
				slog.String("reason", "invalid UTF-8"),
			)
		}

		return String(x), nil
	}

	return nil, convMismatch(KindString, v)
}

func toBytes(v Value) (Value, error) {
	switch x := v.(type) {
	case Bytes:
		return x, nil

	case String:
		return Bytes(x), nil
	}

	return nil, convMismatch(KindBytes, v)
}

func toBool(v Value) (Value, error) {
	switch x := v.(type) {
	case Bool:
		return x, nil

	case String:
		b, err := strconv.ParseBool(string(x))
		if err != nil {
			return nil, parseError(KindBool, v, err)
		}

		return Bool(b), nil
	}

	return nil, convMismatch(KindBool, v)
}

func typeOf(v Value) (Value, error) {
	return String(kindOf(v).String()), nil
}
