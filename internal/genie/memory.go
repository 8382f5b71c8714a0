package genie

import (
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// loadRef dereferences ref, whether it addresses a frame local or a
// heap handle (spec.md §3 "Reference"), returning a RUN001 runtime
// error on a stale/NIL access.
func (e *Engine) loadRef(n *node.Node, ref runtime.Reference) (runtime.Value, error) {
	if ref.IsNil() {
		return nil, e.runtimeError(n, diag.RUN001, "dereference of NIL")
	}
	if ref.HandleIndex >= 0 {
		e.memMu.Lock()
		v, err := e.sess.Heap.Load(ref.HandleIndex)
		e.memMu.Unlock()
		if err != nil {
			return nil, e.runtimeError(n, diag.RUN001, err.Error())
		}
		return v, nil
	}
	f := e.sess.Frames.At(ref.FrameIndex)
	if f == nil {
		return nil, e.runtimeError(n, diag.RUN001, "dereference through a frame no longer on the stack")
	}
	v, err := f.GetLocal(ref.Offset)
	if err != nil {
		return nil, e.runtimeError(n, diag.RUN001, "uninitialised access through a name")
	}
	return v, nil
}

// storeRef writes v through ref, scope-checking it first when the
// value being stored is itself a name (property P7, spec.md §4.5).
func (e *Engine) storeRef(n *node.Node, ref runtime.Reference, v runtime.Value) error {
	if inner, ok := v.(*runtime.RefValue); ok {
		if err := runtime.CheckScope(inner.R.Scope, ref.Scope); err != nil {
			return e.runtimeError(n, diag.RUN004, err.Error())
		}
	}
	if ref.IsNil() {
		return e.runtimeError(n, diag.RUN001, "assignment through NIL")
	}
	if ref.HandleIndex >= 0 {
		e.memMu.Lock()
		err := e.sess.Heap.Store(ref.HandleIndex, v)
		e.memMu.Unlock()
		if err != nil {
			return e.runtimeError(n, diag.RUN001, err.Error())
		}
		return nil
	}
	f := e.sess.Frames.At(ref.FrameIndex)
	if f == nil {
		return e.runtimeError(n, diag.RUN001, "assignment through a frame no longer on the stack")
	}
	f.SetLocal(ref.Offset, v)
	return nil
}

// refOf extracts the Reference inside a Value that must be a name,
// reporting RUN001 if v is not actually a RefValue (should not occur
// on a tree C3/C4 have already checked).
func (e *Engine) refOf(n *node.Node, v runtime.Value) (runtime.Reference, error) {
	rv, ok := v.(*runtime.RefValue)
	if !ok {
		return runtime.Reference{}, e.runtimeError(n, diag.RUN001, "expected a name, found a value")
	}
	return rv.R, nil
}
