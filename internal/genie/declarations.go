package genie

import (
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pIdentityDeclaration evaluates the defining unit and binds its value
// directly into the declaring Tag's frame slot (spec.md §3 "Identity
// declaration": no storage is generated, the name simply denotes the
// value).
func (e *Engine) pIdentityDeclaration(n *node.Node) (interface{}, error) {
	body := n.Sub
	if body != nil && body.Next != nil {
		body = body.Next
	}
	v, err := e.Run(body)
	if err != nil {
		return nil, err
	}
	if n.Tag != nil {
		if top := e.sess.Frames.Top(); top != nil {
			top.SetLocal(n.Tag.FrameOffset, v)
		}
	}
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.VoidValue{M: m}, nil
}

// pVariableDeclaration runs heap_generator for the variable's storage
// (every generator in this substrate allocates through the handle
// pool, spec.md §4.5 "Smart-pointer-free heap" — a deliberate
// simplification that drops a fast frame-local allocation path a real
// implementation would keep; see DESIGN.md), evaluates the initializer
// if present, and binds the resulting name into the declaring Tag's
// frame slot.
func (e *Engine) pVariableDeclaration(n *node.Node) (interface{}, error) {
	declaredRef, _ := n.Mode.(*mode.Mode)
	if declaredRef == nil || declaredRef.Short != mode.ShortRef {
		return nil, e.runtimeError(n, diag.RUN001, "variable declaration did not yield a REF mode")
	}
	inner := declaredRef.Inner
	top := e.sess.Frames.Top()
	if top == nil {
		return nil, e.runtimeError(n, diag.RUN001, "variable declaration with no active frame")
	}

	var initVal runtime.Value
	if decl := n.Sub; decl != nil && decl.Next != nil {
		v, err := e.Run(decl.Next)
		if err != nil {
			return nil, err
		}
		initVal = v
	}

	ref, err := e.allocate(n, inner, initVal)
	if err != nil {
		return nil, err
	}
	ref.Scope = scopeOf(top.Index)
	ref.Status |= runtime.RefInitialised
	if n.Tag != nil {
		top.SetLocal(n.Tag.FrameOffset, &runtime.RefValue{M: declaredRef, R: ref})
	}
	return &runtime.VoidValue{M: e.sess.Modes.Sentinel(mode.NameVoid)}, nil
}

// allocate wraps Heap.Generator with the collect-and-retry policy
// spec.md §4.5 describes: "Collection is triggered when a generator
// would fail".
func (e *Engine) allocate(n *node.Node, m *mode.Mode, init runtime.Value) (runtime.Reference, error) {
	e.memMu.Lock()
	ref, err := e.sess.Heap.Generator(m, m.Size(), init)
	if err != nil {
		e.sess.Collect()
		ref, err = e.sess.Heap.Generator(m, m.Size(), init)
	}
	e.memMu.Unlock()
	if err != nil {
		return runtime.Reference{}, e.runtimeError(n, diag.RUN005, err.Error())
	}
	return ref, nil
}

// pNoOpDeclaration covers declarations with no runtime effect of their
// own: mode declarations are compile-time only, and operator/procedure
// declarations bind their routine value the same way an identity
// declaration does (the parser desugars `OP`/`PROC` declarations to an
// IdentityDeclaration carrying a RoutineText body, so this case is hit
// only for a bare ModeDeclaration reaching the genie).
func (e *Engine) pNoOpDeclaration(n *node.Node) (interface{}, error) {
	m, _ := n.Mode.(*mode.Mode)
	if m == nil {
		m = e.sess.Modes.Sentinel(mode.NameVoid)
	}
	return &runtime.VoidValue{M: m}, nil
}
