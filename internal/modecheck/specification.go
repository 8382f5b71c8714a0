package modecheck

import (
	"fmt"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/soid"
)

// checkCall checks a call: the primary in Weak, peeled to a Proc; for
// each argument slot in the declared pack, check Strong against the
// slot's mode (regime Alias on the whole). A trimmer (an argument node
// tagged node.NihilNode by the parser to mark an omitted, "@"/"["
// position) becomes a locale void and turns the call into a partial
// parameterization; the yield is the proc's result if fully applied,
// else the partial_proc mode built from the remaining slots (spec.md
// §4.3; the exact partial_locale/partial_proc shape is flagged as an
// Open Question in spec.md §9 — here it is the Proc mode over just the
// trimmed slots, which is the least-surprising reading).
func (c *Checker) checkCall(n *node.Node) soid.Soid {
	children := n.Children()
	if len(children) == 0 {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	primary := children[0]
	args := children[1:]

	primY := c.checkWithRegime(primary, soid.Soid{Sort: mode.Weak, Mode: nil}, mode.DeflexSkip)
	procMode := firstProc(primY.Mode)
	if procMode == nil {
		c.sess.Diag.Emit(diag.New(diag.MCK001, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("call primary yields %s, not a procedure", primY.Mode), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	if len(args) != len(procMode.Params) {
		c.sess.Diag.Emit(diag.New(diag.MCK001, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("call supplies %d arguments, procedure expects %d", len(args), len(procMode.Params)), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}

	var remaining []*mode.Mode
	anyTrimmer := false
	for i, arg := range args {
		want := procMode.Params[i]
		if arg.Attribute == node.NihilNode {
			anyTrimmer = true
			remaining = append(remaining, want)
			continue
		}
		c.checkWithRegime(arg, soid.Strong(want), mode.DeflexAlias)
	}
	if anyTrimmer {
		partial := c.sess.Modes.Register(mode.NewProc(remaining, procMode.Result))
		n.Genie.PartialProc = partial
		return soid.Strong(partial)
	}
	return soid.Strong(procMode.Result)
}

func firstProc(m *mode.Mode) *mode.Mode {
	for mode.Deprefable(m) {
		if m.Short == mode.ShortProc {
			return m
		}
		m = mode.DeprefOnce(m)
	}
	if m != nil && m.Short == mode.ShortProc {
		return m
	}
	return nil
}

// checkSlice resolves a row mode off the primary (Weak context),
// distinguishes subscript (yields the element mode) from trimmer
// (yields a deflexed row mode), and checks each subscript index in
// Strong INT Safe (spec.md §4.3).
func (c *Checker) checkSlice(n *node.Node) soid.Soid {
	children := n.Children()
	if len(children) == 0 {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	primary := children[0]
	indices := children[1:]

	primY := c.checkWithRegime(primary, soid.Soid{Sort: mode.Weak, Mode: nil}, mode.DeflexSkip)
	rowMode := firstRow(primY.Mode)
	if rowMode == nil {
		c.sess.Diag.Emit(diag.New(diag.MCK001, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("slice primary yields %s, not a row", primY.Mode), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}

	isSubscript := true
	subscriptCount := 0
	for _, idx := range indices {
		if idx.Attribute == node.NihilNode { // trimmer marker (":" or "@")
			isSubscript = false
			continue
		}
		subscriptCount++
		c.checkWithRegime(idx, soid.Strong(c.sess.Modes.Standard("INT", 0)), mode.DeflexSafe)
	}

	if isSubscript && subscriptCount == rowMode.Dim {
		return soid.Strong(rowMode.Inner)
	}
	remainingDim := rowMode.Dim - subscriptCount
	if remainingDim <= 0 {
		remainingDim = 1
	}
	return soid.Strong(c.sess.Modes.Register(mode.NewRow(remainingDim, rowMode.Inner)))
}

func firstRow(m *mode.Mode) *mode.Mode {
	for mode.Deprefable(m) {
		if m.Short == mode.ShortRow || m.Short == mode.ShortFlex {
			break
		}
		m = mode.DeprefOnce(m)
	}
	if m == nil {
		return nil
	}
	if m.Short == mode.ShortFlex {
		return m.Inner
	}
	if m.Short == mode.ShortRow {
		return m
	}
	return nil
}

// checkFieldSelection matches the field text against a struct's pack,
// taken directly or through one REF: yields the field mode, or REF
// field-mode for a REF STRUCT primary (spec.md §4.3). A row of structs
// is not accepted as a primary.
func (c *Checker) checkFieldSelection(n *node.Node) soid.Soid {
	primary := n.Sub
	if primary == nil {
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	primY := c.checkWithRegime(primary, soid.Soid{Sort: mode.Weak, Mode: nil}, mode.DeflexSkip)

	isRef := false
	cur := primY.Mode
	if cur != nil && cur.Short == mode.ShortRef {
		isRef = true
		cur = cur.Inner
	}
	cur = mode.DeprefCompletely(cur)
	if cur == nil || cur.Short != mode.ShortStruct {
		c.sess.Diag.Emit(diag.New(diag.MCK004, diag.PhaseMode, diag.SeverityMode, n,
			fmt.Sprintf("field selection primary yields %s, not a struct", primY.Mode), nil))
		return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
	}
	for _, f := range cur.Pack {
		if f.Label == n.Text {
			if isRef {
				return soid.Strong(c.sess.Modes.Register(mode.NewRef(f.Mode)))
			}
			return soid.Strong(f.Mode)
		}
	}
	c.sess.Diag.Emit(diag.New(diag.MCK004, diag.PhaseMode, diag.SeverityMode, n,
		fmt.Sprintf("struct %s has no field %q", cur, n.Text), nil))
	return soid.Strong(c.sess.Modes.Sentinel(mode.NameError))
}
