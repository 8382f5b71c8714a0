package genie

import (
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pAssignation evaluates the destination name and the source value,
// scope-checks and stores through the name, and yields the
// destination reference itself (an assignment is a unit whose value is
// the assigned-to name, spec.md §3 "Assignation").
func (e *Engine) pAssignation(n *node.Node) (interface{}, error) {
	children := n.Children()
	if len(children) != 2 {
		return nil, e.runtimeError(n, diag.RUN001, "assignation without a destination and a source")
	}
	destV, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	ref, err := e.refOf(n, destV)
	if err != nil {
		return nil, err
	}
	srcV, err := e.Run(children[1])
	if err != nil {
		return nil, err
	}
	if err := e.storeRef(n, ref, srcV); err != nil {
		return nil, err
	}
	return &runtime.RefValue{M: destV.Mode(), R: ref}, nil
}

// pIdentityRelation implements IS/ISNT: both operands must evaluate to
// names (or NIL); the relation holds when they address the same
// handle/frame slot.
func (e *Engine) pIdentityRelation(n *node.Node) (interface{}, error) {
	children := n.Children()
	if len(children) != 2 {
		return nil, e.runtimeError(n, diag.RUN001, "identity relation without two operands")
	}
	lv, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	rv, err := e.Run(children[1])
	if err != nil {
		return nil, err
	}
	lref, err := e.refOf(n, lv)
	if err != nil {
		return nil, err
	}
	rref, err := e.refOf(n, rv)
	if err != nil {
		return nil, err
	}
	same := refsIdentical(lref, rref)
	if n.Text == "ISNT" {
		same = !same
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.BoolValue{M: m, V: same}, nil
}

func refsIdentical(a, b runtime.Reference) bool {
	if a.IsNil() || b.IsNil() {
		return a.IsNil() == b.IsNil()
	}
	if a.HandleIndex >= 0 || b.HandleIndex >= 0 {
		return a.HandleIndex == b.HandleIndex && a.HandleOffset == b.HandleOffset
	}
	return a.FrameIndex == b.FrameIndex && a.Offset == b.Offset
}

// pAndFunction short-circuits: if the left BOOL is false the right
// operand is never evaluated (spec.md §4.3 "AND/OR function").
func (e *Engine) pAndFunction(n *node.Node) (interface{}, error) {
	children := n.Children()
	lv, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	lb, ok := lv.(*runtime.BoolValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "AND operand is not BOOL")
	}
	if !lb.V {
		return lv, nil
	}
	return e.Run(children[1])
}

// pOrFunction short-circuits: if the left BOOL is true the right
// operand is never evaluated.
func (e *Engine) pOrFunction(n *node.Node) (interface{}, error) {
	children := n.Children()
	lv, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	lb, ok := lv.(*runtime.BoolValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "OR operand is not BOOL")
	}
	if lb.V {
		return lv, nil
	}
	return e.Run(children[1])
}

// pAssertion raises RUN007 if its BOOL operand evaluates false.
func (e *Engine) pAssertion(n *node.Node) (interface{}, error) {
	v, err := e.Run(n.Sub)
	if err != nil {
		return nil, err
	}
	b, ok := v.(*runtime.BoolValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "assertion operand is not BOOL")
	}
	if !b.V {
		return nil, e.runtimeError(n, diag.RUN007, "assertion failed")
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.VoidValue{M: m}, nil
}
