package genie

import (
	"math/big"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pDereferencing executes a DEREFERENCING wrapper C4 inserted: evaluate
// the wrapped MORF (yielding a name) and load through it.
func (e *Engine) pDereferencing(n *node.Node) (interface{}, error) {
	inner, err := e.Run(n.Sub)
	if err != nil {
		return nil, err
	}
	ref, err := e.refOf(n, inner)
	if err != nil {
		return nil, err
	}
	return e.loadRef(n, ref)
}

// pDeproceduring calls a nullary PROC value (DEPROCEDURING).
func (e *Engine) pDeproceduring(n *node.Node) (interface{}, error) {
	inner, err := e.Run(n.Sub)
	if err != nil {
		return nil, err
	}
	proc, ok := inner.(*runtime.ProcValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "deproceduring a non-PROC value")
	}
	return e.applyProc(n, proc, nil)
}

// pUniting wraps the child's value in a UnionValue carrying its actual
// (narrower) mode as the Active discriminant.
func (e *Engine) pUniting(n *node.Node) (interface{}, error) {
	inner, err := e.Run(n.Sub)
	if err != nil {
		return nil, err
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.UnionValue{M: m, Active: inner.Mode(), Payload: inner}, nil
}

// pWidening converts a numeric value one step up the widening lattice
// (spec.md §4.4's widening table): INT->REAL, REAL->COMPLEX, or a
// longness bump within the same family.
func (e *Engine) pWidening(n *node.Node) (interface{}, error) {
	inner, err := e.Run(n.Sub)
	if err != nil {
		return nil, err
	}
	target, _ := n.Mode.(*mode.Mode)
	return widenValue(inner, target), nil
}

func widenValue(v runtime.Value, target *mode.Mode) runtime.Value {
	if target == nil {
		return v
	}
	switch src := v.(type) {
	case *runtime.IntValue:
		switch target.Name {
		case "REAL":
			f := new(big.Float).SetInt(src.V)
			fv, _ := f.Float64()
			return &runtime.RealValue{M: target, V: fv}
		case "COMPLEX":
			f := new(big.Float).SetInt(src.V)
			fv, _ := f.Float64()
			return &runtime.ComplexValue{M: target, Re: fv, Im: 0}
		default: // INT -> LONG INT, still exact under big.Int
			return &runtime.IntValue{M: target, V: src.V}
		}
	case *runtime.RealValue:
		switch target.Name {
		case "COMPLEX":
			return &runtime.ComplexValue{M: target, Re: src.V, Im: 0}
		default:
			return &runtime.RealValue{M: target, V: src.V}
		}
	default:
		return v
	}
}

// pRowing lifts a scalar or struct value into a single-element row
// (spec.md §4.4 "Rowing").
func (e *Engine) pRowing(n *node.Node) (interface{}, error) {
	inner, err := e.Run(n.Sub)
	if err != nil {
		return nil, err
	}
	m, _ := n.Mode.(*mode.Mode)
	if rv, ok := inner.(*runtime.RowValue); ok {
		return rv, nil
	}
	return &runtime.RowValue{M: m, Bounds: []runtime.Bound{{Lower: 1, Upper: 1}}, Elements: []runtime.Value{inner}}, nil
}

// pVoiding evaluates the child for effect and discards its value.
func (e *Engine) pVoiding(n *node.Node) (interface{}, error) {
	if _, err := e.Run(n.Sub); err != nil {
		return nil, err
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.VoidValue{M: m}, nil
}

// pCast simply executes the cast's operand; the mode checker already
// verified coercibility and C4 will have wrapped the operand if a
// coercion is actually needed (spec.md §4.3 "Cast").
func (e *Engine) pCast(n *node.Node) (interface{}, error) {
	return e.Run(n.Sub)
}
