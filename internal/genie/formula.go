package genie

import (
	"math/big"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pFormula evaluates a dyadic or monadic formula: evaluate the
// operand(s), then apply the operator named by n.Text through
// applyOperator's fixed switch over the operand value types. The
// prelude's operator table is not consulted at run time and nothing is
// cached on the node, so a formula inside a loop body is dispatched
// afresh on every iteration.
func (e *Engine) pFormula(n *node.Node) (interface{}, error) {
	operands := n.Children()
	var lhs, rhs runtime.Value
	var err error
	if n.Attribute == node.MonadicFormula {
		if len(operands) != 1 {
			return nil, e.runtimeError(n, diag.RUN001, "monadic formula with no operand")
		}
		lhs, err = e.Run(operands[0])
	} else {
		if len(operands) != 2 {
			return nil, e.runtimeError(n, diag.RUN001, "dyadic formula without two operands")
		}
		lhs, err = e.Run(operands[0])
		if err == nil {
			rhs, err = e.Run(operands[1])
		}
	}
	if err != nil {
		return nil, err
	}
	m, _ := n.Mode.(*mode.Mode)
	return applyOperator(e, n, n.Text, lhs, rhs, m)
}

// applyOperator implements the built-in operator semantics spec.md §6
// promises the prelude provides over INT/REAL/LONG variants/BOOL/CHAR.
func applyOperator(e *Engine, n *node.Node, name string, lhs, rhs runtime.Value, result *mode.Mode) (runtime.Value, error) {
	switch l := lhs.(type) {
	case *runtime.IntValue:
		if rhs == nil {
			return monadicInt(e, n, name, l, result)
		}
		r, ok := rhs.(*runtime.IntValue)
		if !ok {
			return dyadicMixed(e, n, name, lhs, rhs, result)
		}
		return dyadicInt(e, n, name, l, r, result)
	case *runtime.RealValue:
		if rhs == nil {
			return monadicReal(e, n, name, l, result)
		}
		r, ok := rhs.(*runtime.RealValue)
		if !ok {
			return dyadicMixed(e, n, name, lhs, rhs, result)
		}
		return dyadicReal(e, n, name, l, r, result)
	case *runtime.BoolValue:
		if rhs == nil {
			if name == "NOT" {
				return &runtime.BoolValue{M: l.M, V: !l.V}, nil
			}
			return nil, e.runtimeError(n, diag.RUN001, "unknown monadic BOOL operator "+name)
		}
		r, ok := rhs.(*runtime.BoolValue)
		if !ok {
			return nil, e.runtimeError(n, diag.RUN001, "operand mode mismatch for "+name)
		}
		switch name {
		case "AND":
			return &runtime.BoolValue{M: result, V: l.V && r.V}, nil
		case "OR":
			return &runtime.BoolValue{M: result, V: l.V || r.V}, nil
		case "=":
			return &runtime.BoolValue{M: result, V: l.V == r.V}, nil
		case "/=":
			return &runtime.BoolValue{M: result, V: l.V != r.V}, nil
		}
		return nil, e.runtimeError(n, diag.RUN001, "unknown dyadic BOOL operator "+name)
	case *runtime.CharValue:
		if rhs == nil {
			return nil, e.runtimeError(n, diag.RUN001, "unknown monadic CHAR operator "+name)
		}
		r, ok := rhs.(*runtime.CharValue)
		if !ok {
			return nil, e.runtimeError(n, diag.RUN001, "operand mode mismatch for "+name)
		}
		switch name {
		case "=":
			return &runtime.BoolValue{M: result, V: l.V == r.V}, nil
		case "/=":
			return &runtime.BoolValue{M: result, V: l.V != r.V}, nil
		case "+":
			return &runtime.RowValue{M: result, Bounds: []runtime.Bound{{Lower: 1, Upper: 2}}, Elements: []runtime.Value{l, r}}, nil
		}
		return nil, e.runtimeError(n, diag.RUN001, "unknown dyadic CHAR operator "+name)
	default:
		return nil, e.runtimeError(n, diag.RUN001, "no built-in operator semantics for operand mode")
	}
}

func dyadicMixed(e *Engine, n *node.Node, name string, lhs, rhs runtime.Value, result *mode.Mode) (runtime.Value, error) {
	// One side is INT and the other REAL (coercion insertion normally
	// prevents this, but balance/widening can leave a deferred widen);
	// promote the INT side and retry.
	li, lok := lhs.(*runtime.IntValue)
	rr, rrok := rhs.(*runtime.RealValue)
	if lok && rrok {
		return dyadicReal(e, n, name, widenValue(li, rr.M).(*runtime.RealValue), rr, result)
	}
	lr, lrok := lhs.(*runtime.RealValue)
	ri, riok := rhs.(*runtime.IntValue)
	if lrok && riok {
		return dyadicReal(e, n, name, lr, widenValue(ri, lr.M).(*runtime.RealValue), result)
	}
	return nil, e.runtimeError(n, diag.RUN001, "operand mode mismatch for "+name)
}

func monadicInt(e *Engine, n *node.Node, name string, v *runtime.IntValue, result *mode.Mode) (runtime.Value, error) {
	switch name {
	case "-":
		return &runtime.IntValue{M: result, V: new(big.Int).Neg(v.V)}, nil
	case "ABS":
		return &runtime.IntValue{M: result, V: new(big.Int).Abs(v.V)}, nil
	}
	return nil, e.runtimeError(n, diag.RUN001, "unknown monadic INT operator "+name)
}

func dyadicInt(e *Engine, n *node.Node, name string, l, r *runtime.IntValue, result *mode.Mode) (runtime.Value, error) {
	switch name {
	case "+":
		return &runtime.IntValue{M: result, V: new(big.Int).Add(l.V, r.V)}, nil
	case "-":
		return &runtime.IntValue{M: result, V: new(big.Int).Sub(l.V, r.V)}, nil
	case "*":
		return &runtime.IntValue{M: result, V: new(big.Int).Mul(l.V, r.V)}, nil
	case "/":
		if r.V.Sign() == 0 {
			return nil, e.runtimeError(n, diag.RUN002, "division by zero")
		}
		lf := new(big.Float).SetInt(l.V)
		rf := new(big.Float).SetInt(r.V)
		qf := new(big.Float).Quo(lf, rf)
		f64, _ := qf.Float64()
		return &runtime.RealValue{M: result, V: f64}, nil
	case "=":
		return &runtime.BoolValue{M: result, V: l.V.Cmp(r.V) == 0}, nil
	case "/=":
		return &runtime.BoolValue{M: result, V: l.V.Cmp(r.V) != 0}, nil
	case "<":
		return &runtime.BoolValue{M: result, V: l.V.Cmp(r.V) < 0}, nil
	case ">":
		return &runtime.BoolValue{M: result, V: l.V.Cmp(r.V) > 0}, nil
	case "<=":
		return &runtime.BoolValue{M: result, V: l.V.Cmp(r.V) <= 0}, nil
	case ">=":
		return &runtime.BoolValue{M: result, V: l.V.Cmp(r.V) >= 0}, nil
	}
	return nil, e.runtimeError(n, diag.RUN001, "unknown dyadic INT operator "+name)
}

func monadicReal(e *Engine, n *node.Node, name string, v *runtime.RealValue, result *mode.Mode) (runtime.Value, error) {
	switch name {
	case "-":
		return &runtime.RealValue{M: result, V: -v.V}, nil
	case "ABS":
		abs := v.V
		if abs < 0 {
			abs = -abs
		}
		return &runtime.RealValue{M: result, V: abs}, nil
	}
	return nil, e.runtimeError(n, diag.RUN001, "unknown monadic REAL operator "+name)
}

func dyadicReal(e *Engine, n *node.Node, name string, l, r *runtime.RealValue, result *mode.Mode) (runtime.Value, error) {
	switch name {
	case "+":
		return &runtime.RealValue{M: result, V: l.V + r.V}, nil
	case "-":
		return &runtime.RealValue{M: result, V: l.V - r.V}, nil
	case "*":
		return &runtime.RealValue{M: result, V: l.V * r.V}, nil
	case "/":
		if r.V == 0 {
			return nil, e.runtimeError(n, diag.RUN002, "division by zero")
		}
		return &runtime.RealValue{M: result, V: l.V / r.V}, nil
	case "=":
		return &runtime.BoolValue{M: result, V: l.V == r.V}, nil
	case "/=":
		return &runtime.BoolValue{M: result, V: l.V != r.V}, nil
	case "<":
		return &runtime.BoolValue{M: result, V: l.V < r.V}, nil
	case ">":
		return &runtime.BoolValue{M: result, V: l.V > r.V}, nil
	case "<=":
		return &runtime.BoolValue{M: result, V: l.V <= r.V}, nil
	case ">=":
		return &runtime.BoolValue{M: result, V: l.V >= r.V}, nil
	}
	return nil, e.runtimeError(n, diag.RUN001, "unknown dyadic REAL operator "+name)
}
