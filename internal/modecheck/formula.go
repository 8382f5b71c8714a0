package modecheck

import (
	"fmt"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/soid"
)

// checkFormula checks a monadic or dyadic formula: each operand is
// checked in Firm context with no expected mode, then the overloads
// declared at the nearest scope level that has an operator of this
// name are tried in turn (see resolveOperator). Once a nearer level
// declares the name, outer levels and the standard environment are not
// searched, and no balanced mode of the operands is formed.
func (c *Checker) checkFormula(n *node.Node) soid.Soid {
	operands := n.Children()
	if len(operands) == 0 {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	operandYields := make([]soid.Soid, len(operands))
	for i, op := range operands {
		operandYields[i] = c.Check(op, soid.Soid{Sort: mode.Firm, Mode: nil})
	}

	overloads := n.Symbol.FindOperator(n.Text)
	if overloads == nil {
		c.sess.Diag.Emit(diag.New(diag.MCK003, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("operator %q not declared", n.Text), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}

	match := c.resolveOperator(overloads, operandYields)
	if match == nil {
		c.sess.Diag.Emit(diag.New(diag.MCK005, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("no overload of operator %q accepts the given operand modes", n.Text), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	procMode, _ := match.Mode.(*mode.Mode)
	n.Tag = match
	return soid.Strong(procMode.Result)
}

// resolveOperator picks the first overload whose parameter pack is
// Firm-coercible from the matching operand yields, trying each
// operand's own mode first and then that mode dereferenced once.
func (c *Checker) resolveOperator(overloads []*node.Tag, operands []soid.Soid) *node.Tag {
	for _, tag := range overloads {
		procMode, ok := tag.Mode.(*mode.Mode)
		if !ok || len(procMode.Params) != len(operands) {
			continue
		}
		ok = true
		for i, want := range procMode.Params {
			got := operands[i].Mode
			if !c.sess.Modes.Coercible(got, want, mode.Firm, mode.DeflexSafe) {
				depreffed := mode.DeprefOnce(got)
				if depreffed == got || !c.sess.Modes.Coercible(depreffed, want, mode.Firm, mode.DeflexSafe) {
					ok = false
					break
				}
			}
		}
		if ok {
			return tag
		}
	}
	return nil
}

// checkCast checks `M (enclosed)` in Strong M Safe and marks the
// yielded soid cast=true so voiding-warnings are suppressed (spec.md §4.3).
func (c *Checker) checkCast(n *node.Node, _ soid.Soid) soid.Soid {
	castMode, _ := n.Mode.(*mode.Mode)
	enclosed := n.Sub
	c.checkWithRegime(enclosed, soid.Strong(castMode), mode.DeflexSafe)
	return soid.Soid{Sort: mode.Strong, Mode: castMode, Cast: true}
}

// checkAssignation checks `dest := source`: destination in Soft, must
// be a Ref after deprocedure; source in Strong against the target's
// inner mode, regime Force.
func (c *Checker) checkAssignation(n *node.Node) soid.Soid {
	dest := n.Sub
	if dest == nil {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	source := dest.Next
	destY := c.checkWithRegime(dest, soid.Soid{Sort: mode.Soft, Mode: nil}, mode.DeflexSkip)
	destMode := mode.DeprefCompletely(nonRefPrefix(destY.Mode))
	refMode := destY.Mode
	for mode.Deprefable(refMode) && refMode.Short != mode.ShortRef {
		refMode = mode.DeprefOnce(refMode)
	}
	if refMode == nil || refMode.Short != mode.ShortRef {
		c.sess.Diag.Emit(diag.New(diag.MCK006, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("assignation destination yields %s, not a name", destY.Mode), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	_ = destMode
	if source != nil {
		c.checkWithRegime(source, soid.Strong(refMode.Inner), mode.DeflexForce)
	}
	return soid.Strong(refMode)
}

func nonRefPrefix(m *mode.Mode) *mode.Mode { return m }

// checkIdentityRelation checks `a IS b` / `a ISNT b`: both sides in
// Soft, both must be Ref after deprocedure, balanced by strong
// coercion either way (spec.md §4.3).
func (c *Checker) checkIdentityRelation(n *node.Node) soid.Soid {
	children := n.Children()
	if len(children) != 2 {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	lY := c.checkWithRegime(children[0], soid.Soid{Sort: mode.Soft, Mode: nil}, mode.DeflexSkip)
	rY := c.checkWithRegime(children[1], soid.Soid{Sort: mode.Soft, Mode: nil}, mode.DeflexSkip)
	lRef := firstRef(lY.Mode)
	rRef := firstRef(rY.Mode)
	if lRef == nil || rRef == nil {
		c.sess.Diag.Emit(diag.New(diag.MCK007, diag.PhaseMode, diag.SeverityMode, n,
			"identity relation operand is not a name", nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	if !c.sess.Modes.Coercible(lRef, rRef, mode.Strong, mode.DeflexSafe) && !c.sess.Modes.Coercible(rRef, lRef, mode.Strong, mode.DeflexSafe) {
		c.sess.Diag.Emit(diag.New(diag.MCK001, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("identity relation: %s and %s do not balance", lRef, rRef), nil))
	}
	return soid.Strong(c.sess.Modes.Standard("BOOL", 0))
}

func firstRef(m *mode.Mode) *mode.Mode {
	for mode.Deprefable(m) && m.Short != mode.ShortRef {
		m = mode.DeprefOnce(m)
	}
	if m != nil && m.Short == mode.ShortRef {
		return m
	}
	return nil
}

// checkAndOrFunction checks `a ANDF b` / `a ORF b`: operands in Strong
// BOOL Safe (spec.md §4.3).
func (c *Checker) checkAndOrFunction(n *node.Node) soid.Soid {
	boolMode := c.sess.Modes.Standard("BOOL", 0)
	for _, child := range n.Children() {
		c.checkWithRegime(child, soid.Strong(boolMode), mode.DeflexSafe)
	}
	return soid.Strong(boolMode)
}

// checkAssertion checks `ASSERT (bool)` in Meek BOOL No.
func (c *Checker) checkAssertion(n *node.Node) soid.Soid {
	boolMode := c.sess.Modes.Standard("BOOL", 0)
	if body := n.Sub; body != nil {
		c.checkWithRegime(body, soid.Soid{Sort: mode.Meek, Mode: boolMode}, mode.DeflexNo)
	}
	return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
}
