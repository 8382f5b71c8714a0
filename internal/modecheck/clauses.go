package modecheck

import (
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/soid"
)

// checkSerialClause accumulates the yields of each unit, builds a
// canonical Series mode, and tests balance (spec.md §4.3): under
// Strong every unit must be in strong context; otherwise at least one
// unit must yield a non-stowed mode. An empty pack is ill-formed
// (spec.md §8 boundary case: ERROR_NO_UNIQUE_MODE).
func (c *Checker) checkSerialClause(n *node.Node, x soid.Soid) soid.Soid {
	units := n.Children()
	if len(units) == 0 {
		c.sess.Diag.Emit(diag.New(diag.MCK002, diag.PhaseMode, diag.SeverityMode, n,
			"serial clause has no units: no unique mode", nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	yields := make([]*mode.Mode, len(units))
	for i, u := range units {
		sort, want := x.Sort, x.Mode
		if i < len(units)-1 {
			sort = mode.Strong // non-final units in a serial clause are always voided-context producers
			want = c.sess.Modes.Sentinel(mode.NameVoid)
		}
		y := c.Check(u, soid.Soid{Sort: sort, Mode: want})
		yields[i] = y.Mode
	}
	last := yields[len(yields)-1]
	if x.Sort != mode.Strong {
		nonStowed := false
		for _, y := range yields {
			if y != nil && y.Short != mode.ShortStowed && y.Short != mode.ShortSeries {
				nonStowed = true
			}
		}
		if !nonStowed {
			c.sess.Diag.Emit(diag.New(diag.MCK002, diag.PhaseMode, diag.SeverityMode, n,
				"serial clause does not balance: every unit yields a stowed mode", nil))
		}
	}
	return soid.Soid{Sort: x.Sort, Mode: last}
}

// checkCollateralClause checks each component against the element
// mode of the expected row/flex-row/struct/free-form mode.
func (c *Checker) checkCollateralClause(n *node.Node, x soid.Soid) soid.Soid {
	units := n.Children()
	expected := x.Mode
	var pack []mode.Field
	switch {
	case expected != nil && expected.Short == mode.ShortStruct:
		for i, u := range units {
			var want *mode.Mode
			if i < len(expected.Pack) {
				want = expected.Pack[i].Mode
			}
			y := c.Check(u, soid.Strong(want))
			pack = append(pack, mode.Field{Mode: y.Mode})
		}
		return soid.Strong(expected)
	case expected != nil && (expected.Short == mode.ShortRow || expected.Short == mode.ShortFlex):
		inner := expected
		if expected.Short == mode.ShortFlex {
			inner = expected.Inner
		}
		for _, u := range units {
			y := c.Check(u, soid.Strong(inner.Inner))
			pack = append(pack, mode.Field{Mode: y.Mode})
		}
		return soid.Strong(expected)
	default:
		for _, u := range units {
			y := c.Check(u, soid.Soid{Sort: mode.Strong, Mode: x.Mode})
			pack = append(pack, mode.Field{Mode: y.Mode})
		}
		return soid.Strong(c.sess.Modes.Register(mode.NewStowed(pack)))
	}
}

// checkConditionalClause checks enquiry in Strong BOOL, arms in the
// expected context, and balances the arms' yields to a common mode
// (spec.md §4.2 BalancedMode, §4.3).
func (c *Checker) checkConditionalClause(n *node.Node, x soid.Soid) soid.Soid {
	children := n.Children()
	if len(children) == 0 {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
	}
	c.Check(children[0], soid.Strong(c.sess.Modes.Standard("BOOL", 0)))
	var yields []*mode.Mode
	for _, arm := range children[1:] {
		y := c.Check(arm, x)
		yields = append(yields, y.Mode)
	}
	return soid.Soid{Sort: x.Sort, Mode: c.balance(yields, x)}
}

// checkIntegerCaseClause checks enquiry in Strong INT, then balances
// the case arms the same way as a conditional (spec.md §4.3).
func (c *Checker) checkIntegerCaseClause(n *node.Node, x soid.Soid) soid.Soid {
	children := n.Children()
	if len(children) == 0 {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
	}
	c.Check(children[0], soid.Strong(c.sess.Modes.Standard("INT", 0)))
	var yields []*mode.Mode
	for _, arm := range children[1:] {
		y := c.Check(arm, x)
		yields = append(yields, y.Mode)
	}
	return soid.Soid{Sort: x.Sort, Mode: c.balance(yields, x)}
}

// checkUnitedCaseClause checks a united case: the enquiry unit is
// checked Strong against a union built from the specifiers; the
// enquiry mode and specifier modes are reconciled via
// InvestigateFirmRelations, then each arm is checked with its
// specifier's mode bound as the case identifier's mode.
func (c *Checker) checkUnitedCaseClause(n *node.Node, x soid.Soid) soid.Soid {
	children := n.Children()
	if len(children) == 0 {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameVoid))
	}
	enquiry := children[0]
	enqY := c.Check(enquiry, soid.Soid{Sort: mode.Strong, Mode: nil})

	var specMods []*mode.Mode
	arms := children[1:]
	for _, arm := range arms {
		if sm, ok := arm.Mode.(*mode.Mode); ok && sm != nil {
			specMods = append(specMods, sm)
		}
	}
	if enqY.Mode != nil && len(specMods) > 0 {
		if result, resolved := c.sess.Modes.InvestigateFirmRelations(enqY.Mode, specMods, mode.DeflexSafe); resolved {
			enquiry.Mode = result
		}
	}

	var yields []*mode.Mode
	for _, arm := range arms {
		y := c.Check(arm, x)
		yields = append(yields, y.Mode)
	}
	return soid.Soid{Sort: x.Sort, Mode: c.balance(yields, x)}
}

// balance builds a Union out of the yields (when more than one
// distinct mode survives) and resolves the BalancedMode, implementing
// spec.md §4.2's conditional/case/series balancing used throughout §4.3.
func (c *Checker) balance(yields []*mode.Mode, x soid.Soid) *mode.Mode {
	var pack []mode.Field
	for _, y := range yields {
		if y == nil {
			continue
		}
		pack = append(pack, mode.Field{Mode: y})
	}
	if len(pack) == 0 {
		return c.sess.Modes.Sentinel(mode.NameVoid)
	}
	united := c.sess.Modes.MakeUnited(mode.NewSeries(pack))
	if united.Short != mode.ShortUnion {
		return united
	}
	return c.sess.Modes.BalancedMode(united, x.Sort, mode.DeflexSafe)
}

// checkParallelClause checks a PAR clause (spec.md §5): every collateral
// unit runs in Strong VOID context, matching a68g's rule that a parallel
// clause's branches are statements, not expressions. The clause itself
// always yields VOID.
func (c *Checker) checkParallelClause(n *node.Node) soid.Soid {
	voidMode := c.sess.Modes.Sentinel(mode.NameVoid)
	for _, unit := range n.Children() {
		c.checkWithRegime(unit, soid.Strong(voidMode), mode.DeflexSafe)
	}
	return soid.Strong(voidMode)
}

// checkLoopClause checks bounds in Strong INT Safe, while-enquiry in
// Strong BOOL Safe, body in Strong VOID, until-enquiry in Strong BOOL
// Safe. Overall yield is always Void (spec.md §4.3).
func (c *Checker) checkLoopClause(n *node.Node) soid.Soid {
	boolMode := c.sess.Modes.Standard("BOOL", 0)
	intMode := c.sess.Modes.Standard("INT", 0)
	voidMode := c.sess.Modes.Sentinel(mode.NameVoid)
	for _, child := range n.Children() {
		switch child.Attribute {
		case node.Denotation, node.Identifier, node.FormulaNode:
			// bound expressions
			c.checkWithRegime(child, soid.Strong(intMode), mode.DeflexSafe)
		case node.SerialClause:
			c.checkWithRegime(child, soid.Strong(voidMode), mode.DeflexForce)
		default:
			c.checkWithRegime(child, soid.Strong(boolMode), mode.DeflexSafe)
		}
	}
	return soid.Strong(voidMode)
}
