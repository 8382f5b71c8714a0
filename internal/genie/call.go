package genie

import (
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pRoutineText builds a closure capturing the frame active when the
// routine-text unit is evaluated as its static link (spec.md §3
// "Procedure value").
func (e *Engine) pRoutineText(n *node.Node) (interface{}, error) {
	m, _ := n.Mode.(*mode.Mode)
	staticLink := -1
	if top := e.sess.Frames.Top(); top != nil {
		staticLink = top.Index
	}
	return &runtime.ProcValue{M: m, Node: n, StaticLink: staticLink}, nil
}

// pCall evaluates the primary (already coerced down to a bare
// ProcValue by C4's depreffing chain) and its arguments, handling a
// trimmer-marked argument (node.NihilNode) as a partial
// parameterization: the call yields a new ProcValue bound to the
// supplied arguments and typed at n.Genie.PartialProc (spec.md §9's
// Open Question, resolved in DESIGN.md), rather than invoking the body.
func (e *Engine) pCall(n *node.Node) (interface{}, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, e.runtimeError(n, diag.RUN001, "call with no primary")
	}
	primaryV, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	proc, ok := primaryV.(*runtime.ProcValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "call primary did not yield a procedure value")
	}

	argNodes := children[1:]
	args := make([]runtime.Value, len(argNodes))
	anyTrimmer := false
	for i, a := range argNodes {
		if a.Attribute == node.NihilNode {
			anyTrimmer = true
			continue
		}
		v, err := e.Run(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	merged := mergePartialArgs(proc.PartialArgs, args)

	if anyTrimmer {
		partialMode, _ := n.Genie.PartialProc.(*mode.Mode)
		return &runtime.ProcValue{M: partialMode, Node: proc.Node, StaticLink: proc.StaticLink, PartialArgs: merged}, nil
	}
	return e.applyProc(n, proc, merged)
}

// mergePartialArgs fills the nil (trimmed) slots of existing with the
// corresponding entries from fresh, in position order; a nil existing
// slice means this is the first application.
func mergePartialArgs(existing, fresh []runtime.Value) []runtime.Value {
	if existing == nil {
		return fresh
	}
	out := make([]runtime.Value, len(existing))
	fi := 0
	for i, v := range existing {
		if v == nil && fi < len(fresh) {
			out[i] = fresh[fi]
			fi++
		} else {
			out[i] = v
		}
	}
	return out
}

// applyProc pushes a new frame linked statically to the closure's
// defining environment, binds args into the routine's parameter
// offsets, runs its body, and pops the frame. Only the push and the
// pop (and a builtin's own call) run under memMu; the body does not.
// This substrate shares one FrameStack across any goroutines a PAR
// clause spawns, so frames pushed by calls in sibling branches can
// interleave on that stack (see DESIGN.md); each single push or pop
// is atomic under the lock.
func (e *Engine) applyProc(n *node.Node, proc *runtime.ProcValue, args []runtime.Value) (runtime.Value, error) {
	if proc.Builtin != nil {
		e.memMu.Lock()
		v, err := proc.Builtin(args)
		e.memMu.Unlock()
		if err != nil {
			return nil, e.runtimeError(n, diag.RUN008, err.Error())
		}
		return v, nil
	}

	routineNode, ok := proc.Node.(*node.Node)
	if !ok || routineNode == nil {
		return nil, e.runtimeError(n, diag.RUN001, "procedure value has no routine body")
	}

	// Only the push and the pop touch shared frame-stack bookkeeping;
	// the body itself runs outside memMu so a call nested inside this
	// one (the ordinary case of a recursive or higher-order routine)
	// can take the lock for its own push without deadlocking against
	// this still-in-progress call holding it (this held the lock for
	// the whole call in an earlier revision and deadlocked on any
	// recursive program — see DESIGN.md).
	e.memMu.Lock()
	dynamicLink := -1
	lexicalLevel := 0
	if top := e.sess.Frames.Top(); top != nil {
		dynamicLink = top.Index
	}
	if staticFrame := e.sess.Frames.At(proc.StaticLink); staticFrame != nil {
		lexicalLevel = staticFrame.LexicalLevel + 1
	}
	frameIndex := e.sess.Frames.Depth()
	frame := runtime.NewFrame(frameIndex, proc.StaticLink, dynamicLink, scopeOf(frameIndex), lexicalLevel, routineNode.Genie.FrameSize)
	for i, tag := range routineNode.Genie.Params {
		if i < len(args) && args[i] != nil {
			frame.SetLocal(tag.FrameOffset, args[i])
		}
	}
	pushErr := e.sess.Frames.Push(frame)
	e.memMu.Unlock()
	if pushErr != nil {
		return nil, e.runtimeError(n, diag.RUN006, pushErr.Error())
	}

	result, err := e.Run(routineNode.Sub)

	e.memMu.Lock()
	e.sess.Frames.Pop()
	e.memMu.Unlock()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pSlice subscripts or trims a row (spec.md §4.3 "Slice"). A full
// subscript yields the element at the computed offset (wrapped as a
// name if the primary was a name, so the result can itself be
// assigned through); a trim yields a new RowValue sharing the same
// backing elements and the original bounds: trimRow computes no
// sub-bounds, so a trimmed row is indexed in the original row's
// index space.
func (e *Engine) pSlice(n *node.Node) (interface{}, error) {
	children := n.Children()
	if len(children) == 0 {
		return nil, e.runtimeError(n, diag.RUN001, "slice with no primary")
	}
	primaryV, err := e.Run(children[0])
	if err != nil {
		return nil, err
	}
	row, isRef, ref, err := e.rowOf(n, primaryV)
	if err != nil {
		return nil, err
	}

	idxNodes := children[1:]
	isSubscript := true
	indices := make([]int, 0, len(idxNodes))
	for _, idxNode := range idxNodes {
		if idxNode.Attribute == node.NihilNode {
			isSubscript = false
			continue
		}
		v, err := e.Run(idxNode)
		if err != nil {
			return nil, err
		}
		iv, ok := v.(*runtime.IntValue)
		if !ok {
			return nil, e.runtimeError(n, diag.RUN001, "slice index did not yield INT")
		}
		indices = append(indices, int(iv.V.Int64()))
	}

	if isSubscript && len(indices) == row.Dim() {
		off, ok := row.Offset(indices)
		if !ok {
			return nil, e.runtimeError(n, diag.RUN003, "subscript out of range")
		}
		if isRef {
			elemRef := ref
			elemRef.Offset += off
			m, _ := n.Mode.(*mode.Mode)
			return &runtime.RefValue{M: m, R: elemRef}, nil
		}
		return row.Elements[off], nil
	}

	return trimRow(row, indices), nil
}

func (e *Engine) rowOf(n *node.Node, v runtime.Value) (*runtime.RowValue, bool, runtime.Reference, error) {
	if rv, ok := v.(*runtime.RefValue); ok {
		loaded, err := e.loadRef(n, rv.R)
		if err != nil {
			return nil, false, runtime.Reference{}, err
		}
		row, ok := loaded.(*runtime.RowValue)
		if !ok {
			return nil, false, runtime.Reference{}, e.runtimeError(n, diag.RUN001, "name does not address a row")
		}
		return row, true, rv.R, nil
	}
	row, ok := v.(*runtime.RowValue)
	if !ok {
		return nil, false, runtime.Reference{}, e.runtimeError(n, diag.RUN001, "slice primary is not a row")
	}
	return row, false, runtime.Reference{}, nil
}

func trimRow(row *runtime.RowValue, fixed []int) *runtime.RowValue {
	return &runtime.RowValue{M: row.M, Bounds: row.Bounds, Elements: row.Elements}
}

// pFieldSelection selects a named field out of a struct value or, for
// a REF STRUCT primary, produces a REF to that field (spec.md §4.3).
func (e *Engine) pFieldSelection(n *node.Node) (interface{}, error) {
	primaryV, err := e.Run(n.Sub)
	if err != nil {
		return nil, err
	}
	if rv, ok := primaryV.(*runtime.RefValue); ok {
		loaded, err := e.loadRef(n, rv.R)
		if err != nil {
			return nil, err
		}
		sv, ok := loaded.(*runtime.StructValue)
		if !ok {
			return nil, e.runtimeError(n, diag.RUN001, "name does not address a struct")
		}
		idx, fieldMode := fieldIndex(sv.M, n.Text)
		if idx < 0 {
			return nil, e.runtimeError(n, diag.RUN001, "no such field "+n.Text)
		}
		fieldRef := rv.R
		fieldRef.Offset += idx
		return &runtime.RefValue{M: e.sess.Modes.Register(mode.NewRef(fieldMode)), R: fieldRef}, nil
	}
	sv, ok := primaryV.(*runtime.StructValue)
	if !ok {
		return nil, e.runtimeError(n, diag.RUN001, "field selection primary is not a struct")
	}
	idx, _ := fieldIndex(sv.M, n.Text)
	if idx < 0 || idx >= len(sv.Fields) {
		return nil, e.runtimeError(n, diag.RUN001, "no such field "+n.Text)
	}
	return sv.Fields[idx], nil
}

func fieldIndex(m *mode.Mode, label string) (int, *mode.Mode) {
	if m == nil {
		return -1, nil
	}
	for i, f := range m.Pack {
		if f.Label == label {
			return i, f.Mode
		}
	}
	return -1, nil
}
