package lang

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant of a [Value]. Its String form is the type name
// used by the type() built-in.
type Kind uint8

const (
	// KindAny matches every kind in function signatures. No value reports it.
	KindAny      Kind = iota // any
	KindNull                 // null
	KindBool                 // bool
	KindInt                  // int
	KindUint                 // uint
	KindFloat                // double
	KindString               // string
	KindBytes                // bytes
	KindList                 // list
	KindMap                  // map
	KindFunction             // function
)

// IsNumeric reports whether k is Int, Uint, or Float.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindUint || k == KindFloat
}

// Value is a runtime value. The set of implementations is closed: [Null],
// [Bool], [Int], [Uint], [Float], [String], [Bytes], [List], [*Map], and
// [Function].
//
// Values are immutable. Composite values own their elements and must not be
// modified after construction.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	// Null is the null value.
	Null struct{}
	// Bool is a boolean.
	Bool bool
	// Int is a signed 64-bit integer.
	Int int64
	// Uint is an unsigned 64-bit integer.
	Uint uint64
	// Float is an IEEE-754 double.
	Float float64
	// String is a UTF-8 string.
	String string
	// Bytes is an arbitrary byte sequence.
	Bytes []byte
	// List is an ordered sequence of values.
	List []Value
)

// Function is a reference to a function registered in a [Context]. Receiver
// is non-nil when the reference was produced by selecting a method on a
// value.
type Function struct {
	Receiver Value
	Name     string
}

func (Null) Kind() Kind     { return KindNull }
func (Bool) Kind() Kind     { return KindBool }
func (Int) Kind() Kind      { return KindInt }
func (Uint) Kind() Kind     { return KindUint }
func (Float) Kind() Kind    { return KindFloat }
func (String) Kind() Kind   { return KindString }
func (Bytes) Kind() Kind    { return KindBytes }
func (List) Kind() Kind     { return KindList }
func (*Map) Kind() Kind     { return KindMap }
func (Function) Kind() Kind { return KindFunction }

func (Null) isValue()     {}
func (Bool) isValue()     {}
func (Int) isValue()      {}
func (Uint) isValue()     {}
func (Float) isValue()    {}
func (String) isValue()   {}
func (Bytes) isValue()    {}
func (List) isValue()     {}
func (*Map) isValue()     {}
func (Function) isValue() {}

// Map is an immutable mapping with unique keys. Keys must be Bool, Int, Uint,
// or String and compare by exact kind and value, so Int(1) and Uint(1) are
// distinct keys. Iteration follows insertion order.
type Map struct {
	index map[mapKey]int
	keys  []Value
	vals  []Value
}

// mapKey is the comparable form of a map key.
type mapKey struct {
	s    string
	bits uint64
	kind Kind
}

func keyOf(v Value) (mapKey, error) {
	switch k := v.(type) {
	case Bool:
		var b uint64
		if k {
			b = 1
		}

		return mapKey{kind: KindBool, bits: b}, nil

	case Int:
		return mapKey{kind: KindInt, bits: uint64(k)}, nil

	case Uint:
		return mapKey{kind: KindUint, bits: uint64(k)}, nil

	case String:
		return mapKey{kind: KindString, s: string(k)}, nil

	default:
		return mapKey{}, ErrTypeMismatch.With(
			slog.String("reason", "invalid map key type"),
			slog.String("kind", kindOf(v).String()),
		)
	}
}

// NewMap builds a map from parallel key and value slices. It fails with
// [ErrDuplicateKey] if two keys are equal, or [ErrTypeMismatch] if a key has
// an unsupported kind.
func NewMap(keys, vals []Value) (*Map, error) {
	if len(keys) != len(vals) {
		return nil, ErrTypeMismatch.With(
			slog.String("reason", "key and value counts differ"),
		)
	}

	m := &Map{
		index: make(map[mapKey]int, len(keys)),
		keys:  make([]Value, 0, len(keys)),
		vals:  make([]Value, 0, len(vals)),
	}

	for i, k := range keys {
		if err := m.insert(k, vals[i]); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// insert appends a new entry. It is only used while a map is under
// construction.
func (m *Map) insert(k, v Value) error {
	mk, err := keyOf(k)
	if err != nil {
		return err
	}

	if _, dup := m.index[mk]; dup {
		return ErrDuplicateKey.With(slog.String("key", Repr(k)))
	}

	m.index[mk] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)

	return nil
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key Value) (Value, bool) {
	if m == nil {
		return nil, false
	}

	mk, err := keyOf(key)
	if err != nil {
		return nil, false
	}

	i, ok := m.index[mk]
	if !ok {
		return nil, false
	}

	return m.vals[i], true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Value {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// All returns an iterator over entries in insertion order.
func (m *Map) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		if m == nil {
			return
		}

		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}

	return v.Kind()
}

// ValueOf converts a native Go value into a [Value].
//
// Supported inputs are nil, Value, bool, all integer and float types, string,
// []byte, slices and arrays of supported values, and maps keyed by bool,
// integers, or strings. Signed integers become Int and unsigned integers
// become Uint.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int(v), nil
	case int16:
		return Int(v), nil
	case int32:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case uint:
		return Uint(v), nil
	case uint8:
		return Uint(v), nil
	case uint16:
		return Uint(v), nil
	case uint32:
		return Uint(v), nil
	case uint64:
		return Uint(v), nil
	case float32:
		return Float(v), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bytes(slices.Clone(v)), nil
	case []any:
		return listOf(len(v), func(i int) any { return v[i] })
	case map[string]any:
		keys := make([]Value, 0, len(v))
		vals := make([]Value, 0, len(v))

		for _, k := range slices.Sorted(maps.Keys(v)) {
			e, err := ValueOf(v[k])
			if err != nil {
				return nil, err
			}

			keys = append(keys, String(k))
			vals = append(vals, e)
		}

		return NewMap(keys, vals)
	}

	return reflectValueOf(reflect.ValueOf(x))
}

func listOf(n int, elem func(int) any) (Value, error) {
	out := make(List, n)

	for i := range n {
		e, err := ValueOf(elem(i))
		if err != nil {
			return nil, err
		}

		out[i] = e
	}

	return out, nil
}

func reflectValueOf(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}

		return ValueOf(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		return listOf(rv.Len(), func(i int) any { return rv.Index(i).Interface() })

	case reflect.Map:
		it := rv.MapRange()
		keys := make([]Value, 0, rv.Len())
		vals := make([]Value, 0, rv.Len())

		for it.Next() {
			k, err := ValueOf(it.Key().Interface())
			if err != nil {
				return nil, err
			}

			v, err := ValueOf(it.Value().Interface())
			if err != nil {
				return nil, err
			}

			keys = append(keys, k)
			vals = append(vals, v)
		}

		sortValues(keys, vals)

		return NewMap(keys, vals)

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil

	case reflect.String:
		return String(rv.String()), nil
	}

	return nil, ErrTypeMismatch.With(
		slog.String("reason", "unsupported Go type"),
		slog.String("type", rv.Type().String()),
	)
}

// sortValues orders map entries built from a Go map so conversion is
// deterministic.
func sortValues(keys, vals []Value) {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		ka, kb := keys[a], keys[b]
		if ka.Kind() != kb.Kind() {
			return int(ka.Kind()) - int(kb.Kind())
		}

		c, _ := Compare(ka, kb)

		return c
	})

	k2 := make([]Value, len(keys))
	v2 := make([]Value, len(vals))

	for i, j := range idx {
		k2[i], v2[i] = keys[j], vals[j]
	}

	copy(keys, k2)
	copy(vals, v2)
}

// Native converts v into a plain Go value: nil, bool, int64, uint64,
// float64, string, []byte, []any, map[string]any (when every key is a
// String) or map[any]any, and the function name for references.
func Native(v Value) any {
	switch v := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Uint:
		return uint64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case Bytes:
		return slices.Clone([]byte(v))
	case List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Native(e)
		}

		return out
	case *Map:
		allStrings := true

		for _, k := range v.keys {
			if k.Kind() != KindString {
				allStrings = false

				break
			}
		}

		if allStrings {
			out := make(map[string]any, v.Len())
			for k, e := range v.All() {
				out[string(k.(String))] = Native(e)
			}

			return out
		}

		out := make(map[any]any, v.Len())
		for k, e := range v.All() {
			out[Native(k)] = Native(e)
		}

		return out
	case Function:
		return v.Name
	}

	return nil
}

// Repr renders v as source text. For every value expressible as a literal,
// compiling and executing the result yields a value equal to v. Non-finite
// doubles render as double() conversions of their string form.
func Repr(v Value) string {
	var sb strings.Builder

	writeRepr(&sb, v)

	return sb.String()
}

func writeRepr(sb *strings.Builder, v Value) {
	switch v := v.(type) {
	case nil, Null:
		sb.WriteString("null")

	case Bool:
		sb.WriteString(strconv.FormatBool(bool(v)))

	case Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))

	case Uint:
		sb.WriteString(strconv.FormatUint(uint64(v), 10))
		sb.WriteByte('u')

	case Float:
		sb.WriteString(formatFloat(float64(v)))

	case String:
		sb.WriteString(strconv.Quote(string(v)))

	case Bytes:
		sb.WriteByte('b')
		sb.WriteString(strconv.Quote(string(v)))

	case List:
		sb.WriteByte('[')

		for i, e := range v {
			if i > 0 {
				sb.WriteString(", ")
			}

			writeRepr(sb, e)
		}

		sb.WriteByte(']')

	case *Map:
		sb.WriteByte('{')

		i := 0
		for k, e := range v.All() {
			if i > 0 {
				sb.WriteString(", ")
			}

			writeRepr(sb, k)
			sb.WriteString(": ")
			writeRepr(sb, e)

			i++
		}

		sb.WriteByte('}')

	case Function:
		if v.Receiver != nil {
			writeRepr(sb, v.Receiver)
			sb.WriteByte('.')
		}

		sb.WriteString(v.Name)

	default:
		fmt.Fprintf(sb, "<%T>", v)
	}
}

// formatFloat renders f so that it lexes as a double literal.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return `double("NaN")`
	case math.IsInf(f, 1):
		return `double("Inf")`
	case math.IsInf(f, -1):
		return `double("-Inf")`
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}
