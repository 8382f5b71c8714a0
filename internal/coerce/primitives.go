// Package coerce implements C4, the coercion inserter (spec.md §4.4).
// It runs only on a successfully mode-checked tree (every node already
// carries its own yielded mode in n.Mode and the soid it was checked
// against in n.Expected, set by internal/modecheck). For each
// producing construct it recurses into children first, then wraps the
// node with the primitive coercions needed to turn its intrinsic mode
// into the mode its context expects.
package coerce

import (
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
)

// wrap builds the fresh parent node a coercion primitive inserts,
// replacing the current node with it (spec.md §4.4 "Insertion primitives").
func wrap(attr node.Attribute, child *node.Node, m *mode.Mode) *node.Node {
	parent := node.New(attr, child.Pos, "")
	parent.Sub = child
	child.Next = nil
	parent.Mode = m
	return parent
}

// Dereferencing wraps child (REF r) with DEREFERENCING, yielding r.
func Dereferencing(child *node.Node, r *mode.Mode) *node.Node {
	return wrap(node.Dereferencing, child, r)
}

// Deproceduring wraps child (PROC() r) with DEPROCEDURING, yielding r.
func Deproceduring(child *node.Node, r *mode.Mode) *node.Node {
	return wrap(node.Deproceduring, child, r)
}

// Uniting wraps child with UNITING, yielding the union mode q.
func Uniting(child *node.Node, q *mode.Mode) *node.Node {
	return wrap(node.Uniting, child, q)
}

// Widening wraps child with one step of the widening table, yielding w.
func Widening(child *node.Node, w *mode.Mode) *node.Node {
	return wrap(node.Widening, child, w)
}

// Rowing wraps child with ROWING, yielding the row/flex mode q.
func Rowing(child *node.Node, q *mode.Mode) *node.Node {
	return wrap(node.Rowing, child, q)
}

// Voiding wraps child with VOIDING, yielding VOID. For MORFs (calls,
// slices, selections, routine-texts, formulas, identifiers) whose mode
// is still a procedure chain, the caller must first descend the chain
// of REF/PROC applying Dereferencing/Deproceduring until a non-proc
// mode remains before calling Voiding (spec.md §4.4).
func Voiding(child *node.Node, voidMode *mode.Mode) *node.Node {
	return wrap(node.Voiding, child, voidMode)
}

// isMorf reports whether n's kind is one of the constructs spec.md
// §4.4 singles out for the "descend the REF/PROC chain before voiding"
// rule: call, slice, selection, routine-text, formula, identifier.
func isMorf(n *node.Node) bool {
	switch n.Attribute {
	case node.Call, node.Slice, node.FieldSelection, node.RoutineText, node.FormulaNode, node.MonadicFormula, node.Identifier:
		return true
	default:
		return false
	}
}
