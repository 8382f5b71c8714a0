package genie

import (
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// pIdentifier returns the value currently bound to n in the frame
// stack, chasing static links from the topmost active frame the
// number of lexical levels the precomputed offset (set by Prepare from
// n.Tag) names (spec.md §4.5). A prelude identifier resolves directly
// through n.Tag.Builtin instead, since the standard environment has no
// frame of its own.
func (e *Engine) pIdentifier(n *node.Node) (interface{}, error) {
	if n.Tag != nil && n.Tag.Builtin != nil {
		if v, ok := n.Tag.Builtin.(runtime.Value); ok {
			return v, nil
		}
	}
	top := e.sess.Frames.Top()
	if top == nil {
		return nil, e.runtimeError(n, diag.RUN001, "identifier "+n.Text+" referenced with no active frame")
	}
	levelsUp := top.LexicalLevel - n.Genie.LexicalLevel
	target := e.sess.Frames.StaticChase(top.Index, levelsUp)
	if target == nil {
		return nil, e.runtimeError(n, diag.RUN001, "identifier "+n.Text+" has no enclosing frame at its declared level")
	}
	v, err := target.GetLocal(n.Genie.FrameOffset)
	if err != nil {
		return nil, e.runtimeError(n, diag.RUN001, "uninitialised access to "+n.Text)
	}
	return v, nil
}
