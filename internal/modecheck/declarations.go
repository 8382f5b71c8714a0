package modecheck

import (
	"fmt"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/soid"
)

// checkIdentityDeclaration checks `M x = unit`: expect Strong, M,
// regime Safe; warn UNINTENDED when the body's yielded mode differs
// from the declared mode, since that means a hidden GENERATOR
// introduced a fresh name the programmer may not have intended
// (spec.md §4.3).
func (c *Checker) checkIdentityDeclaration(n *node.Node) soid.Soid {
	declaredMode, _ := n.Mode.(*mode.Mode)
	body := n.Sub
	if body != nil && body.Next != nil {
		body = body.Next // first child is the declarer, second the unit
	}
	y := c.Check(body, soid.Strong(declaredMode))
	if y.Mode != nil && declaredMode != nil && y.Mode != declaredMode {
		c.sess.Diag.Emit(diag.New(diag.WRN001, diag.PhaseMode, diag.SeverityWarning, n,
			fmt.Sprintf("UNINTENDED: identity declaration yields %s, declared %s — a GENERATOR was inserted", y.Mode, declaredMode), nil))
	}
	return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
}

// checkVariableDeclaration checks `M x := unit`: expect Strong, M's
// target (the inner mode of the REF M declared for x), regime Force.
func (c *Checker) checkVariableDeclaration(n *node.Node) soid.Soid {
	declaredRef, _ := n.Mode.(*mode.Mode)
	var inner *mode.Mode
	if declaredRef != nil && declaredRef.Short == mode.ShortRef {
		inner = declaredRef.Inner
	}
	if init := n.Sub; init != nil && init.Next != nil {
		c.checkWithRegime(init.Next, soid.Strong(inner), mode.DeflexForce)
	}
	return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
}

// checkWithRegime is Check but with an explicit regime override,
// needed where spec.md §4.3 pins a regime independent of the node's
// own attribute (e.g. a variable-declaration initializer is checked
// under Force even though VariableDeclaration itself maps to Force by
// default via RegimeFor — kept distinct for constructs that differ).
func (c *Checker) checkWithRegime(n *node.Node, x soid.Soid, regime mode.Deflex) soid.Soid {
	n.Expected = x
	y := c.dispatch(n, x)
	n.Mode = y.Mode
	n.Soid = y
	if !c.sess.Modes.Coercible(y.Mode, x.Mode, x.Sort, regime) {
		c.reportModeError(n, x, y)
		y = soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
		n.Mode = y.Mode
	}
	return y
}

// checkRoutineText checks a PROC declaration: the parameter pack is
// already bound into n's symbol table by the parser; the body is
// checked against the declared result mode under Force.
func (c *Checker) checkRoutineText(n *node.Node) soid.Soid {
	procMode, _ := n.Mode.(*mode.Mode)
	if procMode == nil {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	if body := n.Sub; body != nil {
		c.checkWithRegime(body, soid.Strong(procMode.Result), mode.DeflexForce)
	}
	return soid.Strong(procMode)
}

// checkOperatorDeclaration checks `OP op = (params) M: body`: body
// checked against the declared mode under Safe; when n.Cast is set on
// entry (the brief-op form) the declared and body modes must also be
// exactly equal. internal/parser never sets n.Cast on an operator
// declaration, so parsed programs always take the plain path.
func (c *Checker) checkOperatorDeclaration(n *node.Node) soid.Soid {
	declared, _ := n.Mode.(*mode.Mode)
	body := n.Sub
	y := c.checkWithRegime(body, soid.Strong(declared), mode.DeflexSafe)
	if n.Cast && declared != nil && y.Mode != nil && !c.sess.Modes.ModesEquivalent(declared, y.Mode) {
		c.sess.Diag.Emit(diag.New(diag.MCK001, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("brief operator declaration: body yields %s, declared %s", y.Mode, declared), nil))
	}
	return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
}
