package coerce

import (
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
)

// HoistDenotationWidening implements spec.md §4.4's "Denotation
// widening hoist": a separate walk that collapses a
// WIDENING(DENOTATION) pair into an already-widened denotation when
// the widening is numerically exact, marking the node Optimal. If
// Optimal was not already set, the hoist emits a portability warning
// under --portcheck (spec.md §4.4, §6 --portcheck). Running this pass
// twice is idempotent (property P5): the second pass finds every
// WIDENING node already collapsed to a bare denotation and does nothing.
func (ins *Inserter) HoistDenotationWidening(n *node.Node, portcheck bool) *node.Node {
	if n == nil {
		return nil
	}
	for child := n.Sub; child != nil; child = child.Next {
		hoisted := ins.HoistDenotationWidening(child, portcheck)
		replaceChild(n, child, hoisted)
	}

	if n.Attribute != node.Widening || n.Sub == nil || n.Sub.Attribute != node.Denotation {
		return n
	}
	target, _ := n.Mode.(*mode.Mode)
	denotation := n.Sub
	if target == nil || !exactWiden(denotation, target) {
		return n
	}
	denotation.Mode = target
	wasOptimal := denotation.HasStatus(node.Optimal)
	denotation.SetStatus(node.Optimal)
	if !wasOptimal && portcheck {
		ins.sess.Diag.Emit(diag.New(diag.WRN003, diag.PhaseCoerce, diag.SeverityWarning, denotation,
			"implicit widening of a denotation is not portable", nil))
	}
	return denotation
}

// exactWiden reports whether widening this denotation to target loses
// no information (e.g. an INT literal becoming a LONG INT literal is
// exact; an INT becoming a REAL is exact for representable magnitudes,
// which this implementation assumes for literal denotations).
func exactWiden(denotation *node.Node, target *mode.Mode) bool {
	src, _ := denotation.Mode.(*mode.Mode)
	if src == nil || target == nil {
		return false
	}
	if src.Short != mode.ShortStandard || target.Short != mode.ShortStandard {
		return false
	}
	return src.Name == target.Name || (src.Name == "INT" && target.Name == "REAL") ||
		(src.Name == "REAL" && target.Name == "COMPLEX")
}

// replaceChild swaps old for replacement in n's child list by Sub/Next
// pointer surgery, preserving sibling order.
func replaceChild(n *node.Node, old, replacement *node.Node) {
	if old == replacement {
		return
	}
	replacement.Next = old.Next
	if n.Sub == old {
		n.Sub = replacement
		return
	}
	for c := n.Sub; c != nil; c = c.Next {
		if c.Next == old {
			c.Next = replacement
			return
		}
	}
}
