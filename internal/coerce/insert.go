package coerce

import (
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/modecheck"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/session"
	"github.com/ga68/genie/internal/soid"
)

// Inserter runs C4 over a mode-checked tree.
type Inserter struct {
	sess *session.Session
}

// New creates an Inserter bound to sess's mode registry.
func New(sess *session.Session) *Inserter {
	return &Inserter{sess: sess}
}

// Insert recurses into n's children first, then wraps n with whatever
// coercion chain is needed to bring its intrinsic mode up to the mode
// its parent expects (n.Expected, set by C3). It returns the
// (possibly new, wrapper) node that should replace n in its parent's
// child slot. Running Insert a second time on an already-coerced tree
// is a no-op: Insert clears n.Expected once it has placed n's
// coercions, and a DEREFERENCING/etc. wrapper's own Expected is never
// set (only C3-visited nodes carry one), so a second run finds no
// Expected soid on any node and wraps nothing.
func (ins *Inserter) Insert(n *node.Node) *node.Node {
	if n == nil {
		return nil
	}
	var prev *node.Node
	for child := n.Sub; child != nil; {
		next := child.Next
		newChild := ins.Insert(child)
		newChild.Next = next
		if prev == nil {
			n.Sub = newChild
		} else {
			prev.Next = newChild
		}
		prev = newChild
		child = next
	}

	expected, ok := n.Expected.(soid.Soid)
	if !ok || expected.Mode == nil {
		return n
	}
	p, _ := n.Mode.(*mode.Mode)
	if p == nil {
		return n
	}
	n.Expected = nil
	return ins.makeStrong(n, p, expected)
}

// makeStrong is the entry point spec.md §4.4 names: it voids when q is
// VOID (and p is not), otherwise delegates to the depreffing dispatcher.
func (ins *Inserter) makeStrong(n *node.Node, p *mode.Mode, x soid.Soid) *node.Node {
	q := x.Mode
	regime := modecheckRegime(n)
	if ins.sess.Modes.ModesEquivalent(p, q) {
		return n
	}
	if q.IsVoid() && !p.IsVoid() {
		return ins.voidMorf(n, p)
	}
	return ins.makeDepreffingCoercion(n, p, q, x.Sort, regime)
}

// makeDepreffingCoercion is the dispatcher from spec.md §4.4, tried in
// the documented order: deflex-equal, printable/readable into
// SimplIn/Out (optionally rowed), Rows, widen, unite to derived(q),
// ref-rowing, strong-slice, descend REF/PROC and recurse.
func (ins *Inserter) makeDepreffingCoercion(n *node.Node, p, q *mode.Mode, sort mode.Sort, regime mode.Deflex) *node.Node {
	modes := ins.sess.Modes

	if modes.ModesEqual(p, q, regime) {
		return n
	}
	if (q.Name == mode.NameSimplIn && modes.ReadableMode(p)) || (q.Name == mode.NameSimplOut && modes.PrintableMode(p)) {
		return wrap(node.Uniting, n, q)
	}
	if q.IsRows() && (p.Short == mode.ShortRow || p.Short == mode.ShortFlex) {
		return wrap(node.Uniting, n, q)
	}
	if modes.WidensTo(p, q) {
		return ins.makeStrong(Widening(n, q), q, soid.Soid{Sort: sort, Mode: q})
	}
	if modes.Widenable(p, q) {
		step := widenStep(modes, p, q)
		if step != nil {
			wrapped := Widening(n, step)
			return ins.makeDepreffingCoercion(wrapped, step, q, sort, regime)
		}
	}
	if q.Short == mode.ShortUnion && modes.Unitable(p, q, regime) {
		return Uniting(n, q)
	}
	if modes.StrongName(p, q, regime) {
		return n // structurally equal REF already, nothing to wrap
	}
	if modes.StrongSlice(p, q, regime) {
		return Rowing(n, q)
	}
	if mode.Deprefable(p) {
		var wrapped *node.Node
		inner := mode.DeprefOnce(p)
		if p.Short == mode.ShortRef {
			wrapped = Dereferencing(n, inner)
		} else {
			wrapped = Deproceduring(n, inner)
		}
		return ins.makeDepreffingCoercion(wrapped, inner, q, sort, regime)
	}
	return n
}

func widenStep(modes *mode.Registry, p, q *mode.Mode) *mode.Mode {
	seen := map[*mode.Mode]bool{}
	var dfs func(cur *mode.Mode, path []*mode.Mode) []*mode.Mode
	dfs = func(cur *mode.Mode, path []*mode.Mode) []*mode.Mode {
		if modes.WidensTo(cur, q) {
			return append(path, cur)
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true
		for _, w := range oneStepTargets(cur) {
			if r := dfs(w, append(append([]*mode.Mode{}, path...), cur)); r != nil {
				return r
			}
		}
		return nil
	}
	path := dfs(p, nil)
	if len(path) == 0 {
		return nil
	}
	return path[0]
}

// oneStepTargets re-derives the widening table's one-step targets for
// path search; kept local to avoid exporting mode's internal table.
func oneStepTargets(p *mode.Mode) []*mode.Mode {
	r := mode.NewRegistry()
	var out []*mode.Mode
	candidates := []struct {
		name     string
		longness int
	}{
		{"INT", 1}, {"INT", 2}, {"REAL", 0}, {"REAL", 1}, {"REAL", 2},
		{"COMPLEX", 0}, {"COMPLEX", 1}, {"COMPLEX", 2},
	}
	for _, c := range candidates {
		target := r.Standard(c.name, c.longness)
		if r.WidensTo(p, target) {
			out = append(out, target)
		}
	}
	return out
}

// voidMorf implements spec.md §4.4's MORF voiding rule: for the
// constructs isMorf names, descend the REF/PROC chain applying
// Dereferencing/Deproceduring until a non-proc mode remains, then
// void; non-proc MORFs (and any other node) are voided directly.
func (ins *Inserter) voidMorf(n *node.Node, p *mode.Mode) *node.Node {
	voidMode := ins.sess.Modes.Sentinel(mode.NameVoid)
	if !isMorf(n) {
		return Voiding(n, voidMode)
	}
	cur, curMode := n, p
	for mode.Deprefable(curMode) {
		if curMode.Short == mode.ShortRef {
			cur = Dereferencing(cur, curMode.Inner)
			curMode = curMode.Inner
		} else {
			cur = Deproceduring(cur, curMode.Result)
			curMode = curMode.Result
		}
	}
	return Voiding(cur, voidMode)
}

func modecheckRegime(n *node.Node) mode.Deflex {
	return modecheck.RegimeFor(n.Attribute)
}
