package mode

// Sort is the context lattice spec.md §4.2 names: soft, weak, meek,
// firm, strong (plus NoSort for contexts where no coercion at all is
// legal, e.g. a cast's own bracket or a declarer).
type Sort int

const (
	NoSort Sort = iota
	Soft
	Weak
	Meek
	Firm
	Strong
)

func (s Sort) String() string {
	switch s {
	case Soft:
		return "soft"
	case Weak:
		return "weak"
	case Meek:
		return "meek"
	case Firm:
		return "firm"
	case Strong:
		return "strong"
	default:
		return "none"
	}
}

// Deflex is the deflexing regime under which a predicate runs
// (spec.md §4.2): Skip does no deflexing at all, Force interchanges
// FLEX [] A and [] A freely, Alias deflexes only a has_ref left side,
// Safe escalates to Force when neither side has_ref and otherwise
// restricts, No is strict (never interchange).
type Deflex int

const (
	DeflexSkip Deflex = iota
	DeflexForce
	DeflexAlias
	DeflexSafe
	DeflexNo
)

// deflexOnce strips one FLEX layer under regime r, or returns m unchanged.
func deflexOnce(m *Mode, r Deflex) *Mode {
	if m == nil {
		return m
	}
	if m.Short == ShortFlex && r != DeflexNo {
		return m.Inner
	}
	return m
}

// Deprefable reports whether m is REF _ or a parameterless PROC _
// (spec.md §4.2 "deprefable").
func Deprefable(m *Mode) bool {
	if m == nil {
		return false
	}
	if m.Short == ShortRef {
		return true
	}
	if m.Short == ShortProc && len(m.Params) == 0 {
		return true
	}
	return false
}

// DeprefOnce peels exactly one REF/parameterless-PROC layer.
func DeprefOnce(m *Mode) *Mode {
	if !Deprefable(m) {
		return m
	}
	if m.Short == ShortRef {
		return m.Inner
	}
	return m.Result
}

// DeprefCompletely peels every such layer (idempotent, per spec.md §8
// round-trip: depref_completely(depref_completely(m)) == depref_completely(m)).
func DeprefCompletely(m *Mode) *Mode {
	for Deprefable(m) {
		m = DeprefOnce(m)
	}
	return m
}

// ModesEqual is regime-aware equality: structural equivalence after
// applying the regime's deflexing rule to both sides.
func (r *Registry) ModesEqual(u, v *Mode, regime Deflex) bool {
	if u == v {
		return true
	}
	u2, v2 := applyRegime(u, v, regime)
	return r.ModesEquivalent(u2, v2)
}

func applyRegime(u, v *Mode, regime Deflex) (*Mode, *Mode) {
	switch regime {
	case DeflexForce:
		return deflexFully(u), deflexFully(v)
	case DeflexAlias:
		if u.HasRef() {
			return deflexFully(u), v
		}
		return u, v
	case DeflexSafe:
		if !u.HasRef() && !v.HasRef() {
			return deflexFully(u), deflexFully(v)
		}
		return u, v
	default: // DeflexSkip, DeflexNo
		return u, v
	}
}

func deflexFully(m *Mode) *Mode {
	if m == nil {
		return m
	}
	switch m.Short {
	case ShortFlex:
		return deflexFully(m.Inner)
	case ShortRef:
		return &Mode{Short: ShortRef, Inner: deflexFully(m.Inner), Equivalent: m.Equivalent}
	default:
		return m
	}
}

// MoidInPack reports whether m equals some alternative of pack under regime.
func (r *Registry) MoidInPack(m *Mode, pack []Field, regime Deflex) bool {
	for _, f := range pack {
		if r.ModesEqual(m, f.Mode, regime) {
			return true
		}
	}
	return false
}

// Subset reports whether every alternative of p is present in q
// (both expected to be Union modes; spec.md §4.2 "subset").
func (r *Registry) Subset(p, q *Mode, regime Deflex) bool {
	pp := unionPack(p)
	qp := unionPack(q)
	for _, f := range pp {
		if !r.MoidInPack(f.Mode, qp, regime) {
			return false
		}
	}
	return true
}

func unionPack(m *Mode) []Field {
	if m == nil {
		return nil
	}
	if m.Short == ShortUnion {
		return m.Pack
	}
	return []Field{{Mode: m}}
}

// Unitable reports whether p fits into union q as one alternative, or
// as a subset of q's alternatives (spec.md §4.2 "unitable").
func (r *Registry) Unitable(p, q *Mode, regime Deflex) bool {
	if q == nil || q.Short != ShortUnion {
		return false
	}
	if p.Short == ShortUnion {
		return r.Subset(p, q, regime)
	}
	return r.MoidInPack(p, q.Pack, regime)
}

// widensTo is the one-step widening table from spec.md §4.2.
func widensTo(p *Mode) []*Mode {
	if p == nil || p.Short != ShortStandard {
		return nil
	}
	switch p.Name {
	case "INT":
		switch p.Longness {
		case 0:
			return []*Mode{{Short: ShortStandard, Name: "INT", Longness: 1}, {Short: ShortStandard, Name: "REAL", Longness: 0}}
		case 1:
			return []*Mode{{Short: ShortStandard, Name: "INT", Longness: 2}, {Short: ShortStandard, Name: "REAL", Longness: 1}}
		case 2:
			return []*Mode{{Short: ShortStandard, Name: "REAL", Longness: 2}}
		}
	case "REAL":
		switch p.Longness {
		case 0:
			return []*Mode{{Short: ShortStandard, Name: "REAL", Longness: 1}, {Short: ShortStandard, Name: "COMPLEX", Longness: 0}}
		case 1:
			return []*Mode{{Short: ShortStandard, Name: "REAL", Longness: 2}, {Short: ShortStandard, Name: "COMPLEX", Longness: 1}}
		case 2:
			return []*Mode{{Short: ShortStandard, Name: "COMPLEX", Longness: 2}}
		}
	case "COMPLEX":
		switch p.Longness {
		case 0:
			return []*Mode{{Short: ShortStandard, Name: "COMPLEX", Longness: 1}}
		case 1:
			return []*Mode{{Short: ShortStandard, Name: "COMPLEX", Longness: 2}}
		}
	case "BITS":
		if p.Longness == 0 {
			return []*Mode{{Short: ShortStandard, Name: "BITS", Longness: 1}}
		}
	}
	return nil
}

// WidensTo reports whether p widens to q in exactly one step.
func (r *Registry) WidensTo(p, q *Mode) bool {
	for _, w := range widensTo(p) {
		if p.Short == ShortStandard && w.Name == q.Name && w.Longness == q.Longness {
			return true
		}
	}
	// Row-producing widenings: BITS -> [] BOOL, BYTES -> [] CHAR.
	if p != nil && p.Short == ShortStandard && q != nil && q.Short == ShortRow && q.Dim == 1 {
		if p.Name == "BITS" && q.Inner != nil && q.Inner.Name == "BOOL" {
			return true
		}
		if p.Name == "BYTES" && q.Inner != nil && q.Inner.Name == "CHAR" {
			return true
		}
	}
	return false
}

// Widenable is the transitive closure of WidensTo (BFS over the finite
// widening lattice, so it always terminates).
func (r *Registry) Widenable(p, q *Mode) bool {
	seen := map[*Mode]bool{}
	frontier := []*Mode{p}
	for len(frontier) > 0 {
		var next []*Mode
		for _, m := range frontier {
			if r.WidensTo(m, q) {
				return true
			}
			for _, w := range widensTo(m) {
				if !seen[w] {
					seen[w] = true
					next = append(next, w)
				}
			}
		}
		frontier = next
	}
	return false
}

// StrongName implements strong-name coercion: REF p can strong-coerce
// to REF q when p and q are equal under the regime's deflexing rule
// (ModesEqual on the inner modes; e.g. REF INT used where REF REAL is
// wanted is not legal, but REF [] INT to REF FLEX [] INT under Safe is).
func (r *Registry) StrongName(p, q *Mode, regime Deflex) bool {
	if p.Short != ShortRef || q.Short != ShortRef {
		return false
	}
	return r.ModesEqual(p.Inner, q.Inner, regime)
}

// StrongSlice implements strong-slice coercion for rowing: p (a single
// element, or a lower-dimension row) can appear where q (a row one
// dimension higher) is wanted.
func (r *Registry) StrongSlice(p, q *Mode, regime Deflex) bool {
	if q.Short != ShortRow && q.Short != ShortFlex {
		return false
	}
	inner := q
	if q.Short == ShortFlex {
		inner = q.Inner
	}
	if inner.Short != ShortRow {
		return false
	}
	if inner.Dim == 1 {
		return r.Coercible(p, inner.Inner, Strong, regime)
	}
	lower := &Mode{Short: ShortRow, Dim: inner.Dim - 1, Inner: inner.Inner}
	return r.Coercible(p, lower, Strong, regime)
}

// TransputMode reports whether m is eligible for SIMPLIN ('r') or
// SIMPLOUT ('w') — the standard scalar/row/struct modes the prelude's
// transput accepts (spec.md §4.2).
func (r *Registry) TransputMode(m *Mode, dir byte) bool {
	m = DeprefCompletely(m)
	switch m.Short {
	case ShortStandard:
		return true
	case ShortRow, ShortFlex, ShortStruct:
		return true
	default:
		return false
	}
}

func (r *Registry) PrintableMode(m *Mode) bool { return r.TransputMode(m, 'w') }
func (r *Registry) ReadableMode(m *Mode) bool  { return r.TransputMode(m, 'r') }

// Coercible implements spec.md §4.2's full dispatch table for
// coercible(p, q, context, regime). p is the mode a construct actually
// yields; q is the mode its context expects.
func (r *Registry) Coercible(p, q *Mode, context Sort, regime Deflex) bool {
	if q == nil {
		// No expected mode (the Soft, Weak and Firm contexts the mode
		// checker leaves open): any yield is accepted.
		return p != nil
	}
	if p == nil {
		return false
	}
	if r.ModesEquivalent(p, q) || p.IsHip() || p.IllFormed() || q.IllFormed() {
		return true
	}
	if p.Short == ShortSeries {
		for _, f := range p.Pack {
			if !r.Coercible(f.Mode, q, Strong, regime) {
				return false
			}
		}
		return true
	}
	if p.Short == ShortStowed {
		return r.coerceStowed(p, q, regime)
	}
	if p.IsVacuum() && (q.Short == ShortRow || q.Short == ShortFlex) {
		return true
	}

	switch context {
	case NoSort:
		return r.ModesEqual(p, q, regime)
	case Soft:
		if r.ModesEqual(p, q, regime) {
			return true
		}
		return p.Short == ShortProc && len(p.Params) == 0
	case Weak, Meek:
		cur := p
		for {
			if r.ModesEqual(cur, q, regime) {
				return true
			}
			if !Deprefable(cur) {
				return false
			}
			cur = DeprefOnce(cur)
		}
	case Firm:
		if r.ModesEqual(p, q, regime) {
			return true
		}
		if q.IsRows() && (p.Short == ShortRow || p.Short == ShortFlex) {
			return true
		}
		if r.Unitable(p, q, regime) {
			return true
		}
		if Deprefable(p) {
			return r.Coercible(DeprefOnce(p), q, Firm, regime)
		}
		return false
	case Strong:
		if r.Coercible(p, q, Firm, regime) {
			return true
		}
		if r.Widenable(p, q) {
			return true
		}
		if r.StrongName(p, q, regime) || r.StrongSlice(p, q, regime) {
			return true
		}
		if (q.Name == NameSimplIn && r.ReadableMode(p)) || (q.Name == NameSimplOut && r.PrintableMode(p)) {
			return true
		}
		if q.IsVoid() {
			return true
		}
		if (q.Short == ShortRow || q.Short == ShortFlex) && r.StrongSlice(p, q, regime) {
			return true
		}
		if Deprefable(p) {
			return r.Coercible(DeprefOnce(p), q, Strong, regime)
		}
		return false
	default:
		return false
	}
}

func (r *Registry) coerceStowed(p, q *Mode, regime Deflex) bool {
	var elems []*Mode
	switch q.Short {
	case ShortFlex:
		elems = []*Mode{q.Inner}
	case ShortRow:
		elems = []*Mode{q.Inner}
	case ShortStruct:
		for _, f := range q.Pack {
			elems = append(elems, f.Mode)
		}
	case ShortProc:
		elems = q.Params
	default:
		return false
	}
	if q.Short == ShortStruct {
		if len(p.Pack) != len(elems) {
			return false
		}
		for i, f := range p.Pack {
			if !r.Coercible(f.Mode, elems[i], Strong, regime) {
				return false
			}
		}
		return true
	}
	for _, f := range p.Pack {
		ok := false
		for _, e := range elems {
			if r.Coercible(f.Mode, e, Strong, regime) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// BalancedMode implements spec.md §4.2's balanced-mode search: given a
// candidate Union mode m (or a Series coerced to one via MakeUnited),
// find the alternative every other alternative can be coerced to,
// trying successive depref levels and preferring FLEX variants. It
// returns m unchanged if no level balances.
func (r *Registry) BalancedMode(m *Mode, context Sort, regime Deflex) *Mode {
	if m == nil || m.Short != ShortUnion {
		return m
	}
	var best *Mode
	for level := 0; level < 8; level++ {
		for _, cand := range m.Pack {
			target := peelN(cand.Mode, level)
			if target == nil {
				continue
			}
			ok := true
			for _, other := range m.Pack {
				if other.Mode == cand.Mode {
					continue
				}
				if !r.Coercible(other.Mode, target, context, regime) {
					ok = false
					break
				}
			}
			if ok {
				if target.Short == ShortFlex {
					return target
				}
				if best == nil {
					best = target
				}
			}
		}
		if best != nil {
			return best
		}
	}
	return m
}

func peelN(m *Mode, n int) *Mode {
	for i := 0; i < n; i++ {
		if !Deprefable(m) {
			return nil
		}
		m = DeprefOnce(m)
	}
	return m
}

// InvestigateFirmRelations implements the united-case enquiry/specifier
// reconciliation from spec.md §4.3: if enquiry mode `enq` is firmly
// coercible to every specifier mode and vice versa, the enquiry mode
// wins; if neither direction holds fully, the caller should let the
// coercer resolve (return nil, false); otherwise the firmly related
// subset is absorbed into a union.
func (r *Registry) InvestigateFirmRelations(enq *Mode, specifiers []*Mode, regime Deflex) (result *Mode, resolved bool) {
	enqToAll, allToEnq := true, true
	for _, s := range specifiers {
		if !r.Coercible(enq, s, Firm, regime) {
			enqToAll = false
		}
		if !r.Coercible(s, enq, Firm, regime) {
			allToEnq = false
		}
	}
	if enqToAll && allToEnq {
		return enq, true
	}
	if !enqToAll && !allToEnq {
		return nil, false
	}
	var related []Field
	for _, s := range specifiers {
		if r.Coercible(enq, s, Firm, regime) || r.Coercible(s, enq, Firm, regime) {
			related = append(related, Field{Mode: s})
		}
	}
	return r.MakeUnited(NewSeries(related)), true
}
