package lang

import (
	"bytes"
	"cmp"
	"log/slog"
	"math"
	"math/big"
	"strings"
)

// Equal reports whether a and b are equal.
//
// Numeric values compare by mathematical value across Int, Uint, and Float;
// NaN is never equal to anything. Lists compare element-wise in order and
// maps compare entry-wise regardless of order. Values of different
// non-numeric kinds are never equal.
func Equal(a, b Value) bool {
	ka, kb := kindOf(a), kindOf(b)

	if ka.IsNumeric() && kb.IsNumeric() {
		c, ok := compareNumeric(a, b)

		return ok && c == 0
	}

	if ka != kb {
		return false
	}

	switch x := a.(type) {
	case nil, Null:
		return true

	case Bool:
		return x == b.(Bool)

	case String:
		return x == b.(String)

	case Bytes:
		return bytes.Equal(x, b.(Bytes))

	case List:
		y := b.(List)
		if len(x) != len(y) {
			return false
		}

		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}

		return true

	case *Map:
		y := b.(*Map)
		if x.Len() != y.Len() {
			return false
		}

		for k, v := range x.All() {
			w, ok := y.Get(k)
			if !ok || !Equal(v, w) {
				return false
			}
		}

		return true

	case Function:
		y := b.(Function)
		if x.Name != y.Name || (x.Receiver == nil) != (y.Receiver == nil) {
			return false
		}

		return x.Receiver == nil || Equal(x.Receiver, y.Receiver)
	}

	return false
}

// Compare orders a and b, returning -1, 0, or +1. Numeric values order by
// value across kinds, strings and bytes order lexicographically, and false
// orders before true. Any other combination, and any comparison involving
// NaN, fails with [ErrTypeMismatch].
func Compare(a, b Value) (int, error) {
	ka, kb := kindOf(a), kindOf(b)

	if ka.IsNumeric() && kb.IsNumeric() {
		c, ok := compareNumeric(a, b)
		if !ok {
			return 0, ErrTypeMismatch.With(
				slog.String("reason", "NaN is unordered"),
			)
		}

		return c, nil
	}

	if ka == kb {
		switch x := a.(type) {
		case String:
			return strings.Compare(string(x), string(b.(String))), nil

		case Bytes:
			return bytes.Compare(x, b.(Bytes)), nil

		case Bool:
			return cmp.Compare(boolInt(bool(x)), boolInt(bool(b.(Bool)))), nil
		}
	}

	return 0, mismatch("compare", a, b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// compareNumeric compares two numeric values exactly. ok is false if either
// operand is NaN.
func compareNumeric(a, b Value) (c int, ok bool) {
	switch x := a.(type) {
	case Int:
		switch y := b.(type) {
		case Int:
			return cmp.Compare(x, y), true
		case Uint:
			return compareIntUint(int64(x), uint64(y)), true
		case Float:
			return compareIntFloat(int64(x), float64(y))
		}

	case Uint:
		switch y := b.(type) {
		case Int:
			return -compareIntUint(int64(y), uint64(x)), true
		case Uint:
			return cmp.Compare(x, y), true
		case Float:
			return compareUintFloat(uint64(x), float64(y))
		}

	case Float:
		switch y := b.(type) {
		case Int:
			c, ok := compareIntFloat(int64(y), float64(x))

			return -c, ok
		case Uint:
			c, ok := compareUintFloat(uint64(y), float64(x))

			return -c, ok
		case Float:
			if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
				return 0, false
			}

			return cmp.Compare(x, y), true
		}
	}

	return 0, false
}

func compareIntUint(i int64, u uint64) int {
	if i < 0 {
		return -1
	}

	return cmp.Compare(uint64(i), u)
}

const (
	twoPow63 = 9223372036854775808.0
	twoPow64 = 18446744073709551616.0
)

func compareIntFloat(i int64, f float64) (int, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f < -twoPow63:
		return 1, true
	case f >= twoPow63:
		return -1, true
	}

	t := math.Trunc(f)
	if c := cmp.Compare(i, int64(t)); c != 0 {
		return c, true
	}

	// Integer parts match; the fraction decides.
	return cmp.Compare(0, f-t), true
}

func compareUintFloat(u uint64, f float64) (int, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f < 0:
		return 1, true
	case f >= twoPow64:
		return -1, true
	}

	t := math.Trunc(f)
	if c := cmp.Compare(u, uint64(t)); c != 0 {
		return c, true
	}

	return cmp.Compare(0, f-t), true
}

// arithmetic operator identifiers shared by binary evaluation.
type arithOp uint8

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
	opMod
)

var arithNames = [...]string{
	opAdd: "+",
	opSub: "-",
	opMul: "*",
	opDiv: "/",
	opMod: "%",
}

// arith applies a binary arithmetic operator.
func arith(op arithOp, a, b Value) (Value, error) {
	ka, kb := kindOf(a), kindOf(b)

	switch {
	case ka == KindFloat || kb == KindFloat:
		if !ka.IsNumeric() || !kb.IsNumeric() {
			break
		}

		return floatArith(op, toFloat(a), toFloat(b), a, b)

	case ka == KindInt && kb == KindInt:
		return intArith(op, int64(a.(Int)), int64(b.(Int)))

	case ka == KindUint && kb == KindUint:
		return uintArith(op, uint64(a.(Uint)), uint64(b.(Uint)))

	case ka.IsNumeric() && kb.IsNumeric():
		return mixedArith(op, a, b)

	case op == opAdd && ka == kb:
		switch x := a.(type) {
		case String:
			return x + b.(String), nil

		case Bytes:
			y := b.(Bytes)
			out := make(Bytes, 0, len(x)+len(y))

			return append(append(out, x...), y...), nil

		case List:
			y := b.(List)
			out := make(List, 0, len(x)+len(y))

			return append(append(out, x...), y...), nil
		}
	}

	return nil, mismatch(arithNames[op], a, b)
}

func toFloat(v Value) float64 {
	switch x := v.(type) {
	case Int:
		return float64(x)
	case Uint:
		return float64(x)
	case Float:
		return float64(x)
	}

	return math.NaN()
}

func floatArith(op arithOp, x, y float64, a, b Value) (Value, error) {
	switch op {
	case opAdd:
		return Float(x + y), nil
	case opSub:
		return Float(x - y), nil
	case opMul:
		return Float(x * y), nil
	case opDiv:
		return Float(x / y), nil
	}

	return nil, mismatch(arithNames[op], a, b)
}

func intArith(op arithOp, x, y int64) (Value, error) {
	switch op {
	case opAdd:
		r := x + y
		if (r > x) != (y > 0) {
			return nil, overflow("+", Int(x), Int(y))
		}

		return Int(r), nil

	case opSub:
		r := x - y
		if (r < x) != (y > 0) {
			return nil, overflow("-", Int(x), Int(y))
		}

		return Int(r), nil

	case opMul:
		if x == 0 || y == 0 {
			return Int(0), nil
		}

		r := x * y
		if r/y != x || (x == -1 && y == math.MinInt64) ||
			(y == -1 && x == math.MinInt64) {
			return nil, overflow("*", Int(x), Int(y))
		}

		return Int(r), nil

	case opDiv, opMod:
		if y == 0 {
			return nil, ErrDivisionByZero.With(
				slog.String("op", arithNames[op]),
				slog.String("left", Repr(Int(x))),
			)
		}

		if x == math.MinInt64 && y == -1 {
			return nil, overflow(arithNames[op], Int(x), Int(y))
		}

		if op == opDiv {
			return Int(x / y), nil
		}

		return Int(x % y), nil
	}

	return nil, mismatch(arithNames[op], Int(x), Int(y))
}

func uintArith(op arithOp, x, y uint64) (Value, error) {
	switch op {
	case opAdd:
		r := x + y
		if r < x {
			return nil, overflow("+", Uint(x), Uint(y))
		}

		return Uint(r), nil

	case opSub:
		if y > x {
			return nil, overflow("-", Uint(x), Uint(y))
		}

		return Uint(x - y), nil

	case opMul:
		if x == 0 || y == 0 {
			return Uint(0), nil
		}

		r := x * y
		if r/y != x {
			return nil, overflow("*", Uint(x), Uint(y))
		}

		return Uint(r), nil

	case opDiv, opMod:
		if y == 0 {
			return nil, ErrDivisionByZero.With(
				slog.String("op", arithNames[op]),
				slog.String("left", Repr(Uint(x))),
			)
		}

		if op == opDiv {
			return Uint(x / y), nil
		}

		return Uint(x % y), nil
	}

	return nil, mismatch(arithNames[op], Uint(x), Uint(y))
}

// mixedArith computes Int/Uint arithmetic exactly and narrows the result to
// Int when it fits, else Uint.
func mixedArith(op arithOp, a, b Value) (Value, error) {
	x, y := toBig(a), toBig(b)

	r := new(big.Int)

	switch op {
	case opAdd:
		r.Add(x, y)
	case opSub:
		r.Sub(x, y)
	case opMul:
		r.Mul(x, y)
	case opDiv, opMod:
		if y.Sign() == 0 {
			return nil, ErrDivisionByZero.With(
				slog.String("op", arithNames[op]),
				slog.String("left", Repr(a)),
			)
		}

		if op == opDiv {
			r.Quo(x, y)
		} else {
			r.Rem(x, y)
		}
	}

	return narrowBig(r, arithNames[op], a, b)
}

func toBig(v Value) *big.Int {
	switch x := v.(type) {
	case Int:
		return big.NewInt(int64(x))
	case Uint:
		return new(big.Int).SetUint64(uint64(x))
	}

	return new(big.Int)
}

func narrowBig(r *big.Int, op string, a, b Value) (Value, error) {
	if r.IsInt64() {
		return Int(r.Int64()), nil
	}

	if r.IsUint64() {
		return Uint(r.Uint64()), nil
	}

	return nil, overflow(op, a, b)
}

// negate applies unary minus. Negating a Uint yields the Int of equal
// magnitude when it fits.
func negate(v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		if x == math.MinInt64 {
			return nil, ErrOverflow.With(
				slog.String("op", "-"),
				slog.String("operand", Repr(x)),
			)
		}

		return -x, nil

	case Uint:
		r := new(big.Int).Neg(toBig(x))
		if !r.IsInt64() {
			return nil, ErrOverflow.With(
				slog.String("op", "-"),
				slog.String("operand", Repr(x)),
			)
		}

		return Int(r.Int64()), nil

	case Float:
		return -x, nil
	}

	return nil, ErrTypeMismatch.With(
		slog.String("op", "-"),
		slog.String("operand", kindOf(v).String()),
	)
}

func mismatch(op string, a, b Value) *Error {
	return ErrTypeMismatch.With(
		slog.String("op", op),
		slog.String("left", kindOf(a).String()),
		slog.String("right", kindOf(b).String()),
	)
}

func overflow(op string, a, b Value) *Error {
	return ErrOverflow.With(
		slog.String("op", op),
		slog.String("left", Repr(a)),
		slog.String("right", Repr(b)),
	)
}
