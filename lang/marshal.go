package lang

import (
	"encoding/json"
	"math"
)

// MarshalJSON implements json.Marshaler for Program.
func (p *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToMap())
}

// ToMap converts the syntax tree to nested maps and slices.
func (p *Program) ToMap() map[string]any {
	return exprMap(p.root)
}

func exprMap(e Expr) map[string]any {
	if e == nil {
		return nil
	}

	m := map[string]any{
		"node": e.Kind().String(),
		"pos":  e.Pos().String(),
	}

	switch n := e.(type) {
	case *Literal:
		m["type"] = kindOf(n.Value).String()
		m["value"] = Repr(n.Value)

	case *Ident:
		m["name"] = n.Name

	case *Select:
		m["operand"] = exprMap(n.Operand)
		m["field"] = n.Field

	case *Index:
		m["operand"] = exprMap(n.Operand)
		m["index"] = exprMap(n.Index)

	case *Unary:
		m["op"] = n.Op.String()
		m["operand"] = exprMap(n.Operand)

	case *Binary:
		m["op"] = n.Op.String()
		m["left"] = exprMap(n.Left)
		m["right"] = exprMap(n.Right)

	case *Logical:
		m["op"] = n.Op.String()
		m["left"] = exprMap(n.Left)
		m["right"] = exprMap(n.Right)

	case *Conditional:
		m["cond"] = exprMap(n.Cond)
		m["then"] = exprMap(n.Then)
		m["else"] = exprMap(n.Else)

	case *ListExpr:
		m["elems"] = exprList(n.Elems)

	case *MapExpr:
		entries := make([]any, len(n.Entries))
		for i, ent := range n.Entries {
			entries[i] = map[string]any{
				"key":   exprMap(ent.Key),
				"value": exprMap(ent.Value),
			}
		}

		m["entries"] = entries

	case *Call:
		m["name"] = n.Name
		m["args"] = exprList(n.Args)

		if n.Receiver != nil {
			m["receiver"] = exprMap(n.Receiver)
		}
	}

	return m
}

func exprList(exprs []Expr) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = exprMap(e)
	}

	return out
}

// plain converts v into data accepted by the JSON and YAML encoders. Maps
// with non-string keys are keyed by the source form of each key, and
// non-finite doubles become strings.
func plain(v Value) any {
	switch x := v.(type) {
	case Float:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return formatFloat(f)
		}

		return f

	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}

		return out

	case *Map:
		out := make(map[string]any, x.Len())

		for k, e := range x.All() {
			key, ok := k.(String)
			if !ok {
				key = String(Repr(k))
			}

			out[string(key)] = plain(e)
		}

		return out

	case Function:
		return Repr(x)
	}

	return Native(v)
}
