// Package modecheck implements C3, the mode checker (spec.md §4.3): a
// recursive visitor that, for every producing construct, consumes an
// expected soid from its context and annotates the construct with its
// yielded soid, consulting internal/mode (C1/C2) for coercibility.
package modecheck

import (
	"fmt"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/session"
	"github.com/ga68/genie/internal/soid"
)

// Checker holds the session (for the mode registry and diagnostics
// sink) the checking pass runs against.
type Checker struct {
	sess *session.Session
}

// New creates a Checker bound to sess.
func New(sess *session.Session) *Checker {
	return &Checker{sess: sess}
}

// Check is the top-level entry point: it checks n against the expected
// soid x and returns the yielded soid y, after annotating n.Mode and
// n.Soid. On a mode error it emits a diagnostic to the session's sink
// and returns a soid carrying the Error sentinel mode so the caller's
// own coercibility test short-circuits to true (spec.md §4.3
// "Non-well-formed modes ... short-circuit to true").
func (c *Checker) Check(n *node.Node, x soid.Soid) soid.Soid {
	if n == nil {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
	}
	n.Expected = x
	y := c.dispatch(n, x)
	n.Mode = y.Mode
	n.Soid = y
	n.Cast = y.Cast
	if !c.sess.Modes.Coercible(y.Mode, x.Mode, x.Sort, RegimeFor(n.Attribute)) {
		c.reportModeError(n, x, y)
		y = soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
		n.Mode = y.Mode
	}
	return y
}

// RegimeFor picks the deflexing regime a construct's top-level
// coercibility test runs under (spec.md §4.3 names a regime per
// construct kind). Exported so the coercion inserter (C4) can recompute
// the same regime a node was checked under without re-running C3.
func RegimeFor(a node.Attribute) mode.Deflex {
	switch a {
	case node.VariableDeclaration, node.Assignation:
		return mode.DeflexForce
	case node.IdentityDeclaration, node.LoopClause, node.AndFunction, node.OrFunction, node.ParallelClause:
		return mode.DeflexSafe
	case node.Call:
		return mode.DeflexAlias
	case node.Assertion:
		return mode.DeflexNo
	default:
		return mode.DeflexSkip
	}
}

func (c *Checker) dispatch(n *node.Node, x soid.Soid) soid.Soid {
	switch n.Attribute {
	case node.Denotation:
		return c.checkDenotation(n)
	case node.Identifier:
		return c.checkIdentifier(n)
	case node.Cast:
		return c.checkCast(n, x)
	case node.IdentityDeclaration:
		return c.checkIdentityDeclaration(n)
	case node.VariableDeclaration:
		return c.checkVariableDeclaration(n)
	case node.RoutineText:
		return c.checkRoutineText(n)
	case node.OperatorDeclaration:
		return c.checkOperatorDeclaration(n)
	case node.SerialClause:
		return c.checkSerialClause(n, x)
	case node.CollateralClause:
		return c.checkCollateralClause(n, x)
	case node.ConditionalClause:
		return c.checkConditionalClause(n, x)
	case node.IntegerCaseClause:
		return c.checkIntegerCaseClause(n, x)
	case node.UnitedCaseClause:
		return c.checkUnitedCaseClause(n, x)
	case node.LoopClause:
		return c.checkLoopClause(n)
	case node.ParallelClause:
		return c.checkParallelClause(n)
	case node.FormulaNode, node.MonadicFormula:
		return c.checkFormula(n)
	case node.Assignation:
		return c.checkAssignation(n)
	case node.IdentityRelation:
		return c.checkIdentityRelation(n)
	case node.AndFunction, node.OrFunction:
		return c.checkAndOrFunction(n)
	case node.Assertion:
		return c.checkAssertion(n)
	case node.Call:
		return c.checkCall(n)
	case node.Slice:
		return c.checkSlice(n)
	case node.FieldSelection:
		return c.checkFieldSelection(n)
	case node.Skip:
		return soid.Soid{Sort: x.Sort, Mode: x.Mode}
	default:
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
	}
}

func (c *Checker) reportModeError(n *node.Node, expected, got soid.Soid) {
	msg := fmt.Sprintf("cannot coerce %s to %s in %s context", got.Mode, expected.Mode, expected.Sort)
	msg += explainSeriesStowed(got.Mode, expected.Mode)
	c.sess.Diag.Emit(diag.New(diag.MCK001, diag.PhaseMode, diag.SeverityMode, n, msg, map[string]any{
		"found":    got.Mode.String(),
		"expected": expected.Mode.String(),
	}))
}

// explainSeriesStowed walks into Series/Stowed mismatches recursively,
// stating for each component the mode found and the mode required
// (spec.md §4.3 "Diagnostics").
func explainSeriesStowed(got, want *mode.Mode) string {
	if got == nil || (got.Short != mode.ShortSeries && got.Short != mode.ShortStowed) {
		return ""
	}
	s := ""
	for i, f := range got.Pack {
		s += fmt.Sprintf("; component %d has %s, needs %s", i, f.Mode, want)
	}
	return s
}

func (c *Checker) checkDenotation(n *node.Node) soid.Soid {
	m, _ := n.Mode.(*mode.Mode)
	if m == nil {
		m = c.sess.Modes.Standard("INT", 0)
	}
	return soid.Strong(m)
}

func (c *Checker) checkIdentifier(n *node.Node) soid.Soid {
	if n.Tag == nil {
		c.sess.Diag.Emit(diag.New(diag.MCK003, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("identifier %q is not declared in this scope", n.Text), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	m, _ := n.Tag.Mode.(*mode.Mode)
	return soid.Strong(m)
}
