package genie

import (
	"math/big"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pLoopClause runs the general `FOR i FROM a BY b TO c WHILE w DO ... OD
// UNTIL u` form (spec.md §4.3: bounds in Strong INT Safe, while/until
// enquiries in Strong BOOL Safe, body in Strong VOID; overall yield
// VOID). The mode checker classifies children generically by
// attribute, so the genie recovers FROM/BY/TO/WHILE/UNTIL structure
// positionally: every bound-shaped child (Denotation, Identifier,
// FormulaNode) before the SerialClause body is a counting bound in
// order, any other child before the body is the while-enquiry, and a
// child after the body is the until-enquiry. A counter identifier is
// carried on n.Tag the same way other genie bindings use it, and
// rebound into its frame slot before each iteration's condition and
// body run.
func (e *Engine) pLoopClause(n *node.Node) (interface{}, error) {
	voidMode := e.sess.Modes.Sentinel(mode.NameVoid)
	intMode := e.sess.Modes.Standard("INT", 0)

	children := n.Children()
	bodyIdx := -1
	for i, c := range children {
		if c.Attribute == node.SerialClause {
			bodyIdx = i
			break
		}
	}
	if bodyIdx < 0 {
		return &runtime.VoidValue{M: voidMode}, nil
	}
	before := children[:bodyIdx]
	body := children[bodyIdx]
	after := children[bodyIdx+1:]

	var bounds []*node.Node
	var whileNode *node.Node
	for _, c := range before {
		switch c.Attribute {
		case node.Denotation, node.Identifier, node.FormulaNode:
			bounds = append(bounds, c)
		default:
			whileNode = c
		}
	}
	var untilNode *node.Node
	if len(after) > 0 {
		untilNode = after[0]
	}

	evalBound := func(bn *node.Node) (*big.Int, error) {
		v, err := e.Run(bn)
		if err != nil {
			return nil, err
		}
		iv, ok := v.(*runtime.IntValue)
		if !ok {
			return nil, e.runtimeError(n, diag.RUN001, "loop bound did not yield INT")
		}
		return iv.V, nil
	}

	var from, by, to *big.Int
	counting := len(bounds) > 0
	switch len(bounds) {
	case 1:
		tv, err := evalBound(bounds[0])
		if err != nil {
			return nil, err
		}
		from, by, to = big.NewInt(1), big.NewInt(1), tv
	case 2:
		fv, err := evalBound(bounds[0])
		if err != nil {
			return nil, err
		}
		tv, err := evalBound(bounds[1])
		if err != nil {
			return nil, err
		}
		from, by, to = fv, big.NewInt(1), tv
	case 3:
		fv, err := evalBound(bounds[0])
		if err != nil {
			return nil, err
		}
		bv, err := evalBound(bounds[1])
		if err != nil {
			return nil, err
		}
		tv, err := evalBound(bounds[2])
		if err != nil {
			return nil, err
		}
		from, by, to = fv, bv, tv
	}

	var i *big.Int
	if counting {
		i = new(big.Int).Set(from)
	}
	top := e.sess.Frames.Top()

	var result runtime.Value = &runtime.VoidValue{M: voidMode}
	for {
		if counting {
			cmp := i.Cmp(to)
			if by.Sign() >= 0 && cmp > 0 {
				break
			}
			if by.Sign() < 0 && cmp < 0 {
				break
			}
			if n.Tag != nil && top != nil {
				top.SetLocal(n.Tag.FrameOffset, &runtime.IntValue{M: intMode, V: new(big.Int).Set(i)})
			}
		}
		if whileNode != nil {
			wv, err := e.Run(whileNode)
			if err != nil {
				return nil, err
			}
			wb, ok := wv.(*runtime.BoolValue)
			if !ok {
				return nil, e.runtimeError(n, diag.RUN001, "while enquiry did not yield BOOL")
			}
			if !wb.V {
				break
			}
		}

		v, err := e.Run(body)
		if err != nil {
			return nil, err
		}
		result = v

		if untilNode != nil {
			uv, err := e.Run(untilNode)
			if err != nil {
				return nil, err
			}
			ub, ok := uv.(*runtime.BoolValue)
			if !ok {
				return nil, e.runtimeError(n, diag.RUN001, "until enquiry did not yield BOOL")
			}
			if ub.V {
				break
			}
		}

		if !counting && whileNode == nil && untilNode == nil {
			// No bound, no while, no until: an unconditional loop body
			// that only a jump out of its scope (not modelled here) or
			// a forced quit can end.
			if e.sess.Abort {
				return nil, &ForcedQuitError{}
			}
		}
		if counting {
			i.Add(i, by)
		}
	}
	return result, nil
}
