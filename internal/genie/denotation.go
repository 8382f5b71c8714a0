package genie

import (
	"math/big"
	"strconv"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pDenotation parses a literal's source text according to the mode C3
// stamped on it, caching the parsed Value in n.Genie.Constant so a
// denotation inside a loop body is not re-parsed on every iteration
// (spec.md §4.5 "constant-folding cache").
func (e *Engine) pDenotation(n *node.Node) (interface{}, error) {
	if n.Genie.Constant != nil {
		return n.Genie.Constant.(runtime.Value), nil
	}
	m, _ := n.Mode.(*mode.Mode)
	if m == nil {
		m = e.sess.Modes.Standard("INT", 0)
	}
	var v runtime.Value
	if m.Short == mode.ShortFlex && m.Inner != nil && m.Inner.Short == mode.ShortRow && m.Inner.Inner != nil && m.Inner.Inner.Name == "CHAR" {
		charM := m.Inner.Inner
		runes := []rune(n.Text)
		elems := make([]runtime.Value, len(runes))
		for i, r := range runes {
			elems[i] = &runtime.CharValue{M: charM, V: r}
		}
		v = &runtime.RowValue{M: m, Bounds: []runtime.Bound{{Lower: 1, Upper: len(runes)}}, Elements: elems}
		n.Genie.Constant = v
		return v, nil
	}
	switch m.Name {
	case "REAL":
		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return nil, e.runtimeError(n, diag.RUN009, "malformed real denotation "+n.Text)
		}
		v = &runtime.RealValue{M: m, V: f}
	case "BOOL":
		v = &runtime.BoolValue{M: m, V: n.Text == "TRUE" || n.Text == "true"}
	case "CHAR":
		r := rune(0)
		for _, c := range n.Text {
			r = c
			break
		}
		v = &runtime.CharValue{M: m, V: r}
	case "BITS":
		u, err := strconv.ParseUint(n.Text, 2, 64)
		if err != nil {
			return nil, e.runtimeError(n, diag.RUN009, "malformed bits denotation "+n.Text)
		}
		v = &runtime.BitsValue{M: m, V: u}
	default: // INT and its LONG variants
		i, ok := new(big.Int).SetString(n.Text, 10)
		if !ok {
			return nil, e.runtimeError(n, diag.RUN009, "malformed integer denotation "+n.Text)
		}
		v = &runtime.IntValue{M: m, V: i}
	}
	n.Genie.Constant = v
	return v, nil
}
