package mode

// postulatePair is a frontier entry recording that u and v are
// assumed equal while their structural comparison is in flight
// (spec.md §4.1, §9 "Cyclic mode graphs"). Re-encountering the same
// pair while still inside the original comparison returns true without
// recursing further, which is what makes modes_equivalent terminate on
// cyclic graphs like STRUCT (REF SELF, ...) (testable property P2).
type postulatePair struct{ u, v *Mode }

// postulateSet is a small stack-like set swapped on entry/exit of each
// structural comparison, as spec.md §9 recommends.
type postulateSet struct {
	pairs []postulatePair
}

func (p *postulateSet) has(u, v *Mode) bool {
	for _, pair := range p.pairs {
		if (pair.u == u && pair.v == v) || (pair.u == v && pair.v == u) {
			return true
		}
	}
	return false
}

func (p *postulateSet) push(u, v *Mode) { p.pairs = append(p.pairs, postulatePair{u, v}) }

func (p *postulateSet) pop() { p.pairs = p.pairs[:len(p.pairs)-1] }

// Registry is C1, the mode registry: it canonicalizes modes and
// maintains the global unique-mode table (spec.md §4.1). It is not a
// package-level global — callers own one Registry per session (see
// internal/session), consistent with spec.md §9's "explicit session
// object" design note.
type Registry struct {
	modes []*Mode

	// Cached well-known modes, registered lazily.
	std map[string]*Mode
	sen map[string]*Mode
}

// NewRegistry creates an empty registry and pre-registers the sentinel
// and standard modes every program needs.
func NewRegistry() *Registry {
	r := &Registry{std: map[string]*Mode{}, sen: map[string]*Mode{}}
	for _, name := range []string{NameHip, NameVacuum, NameVoid, NameError, NameUndefined, NameRows, NameSimplIn, NameSimplOut} {
		m := r.Register(sentinel(name))
		r.sen[name] = m
	}
	for _, std := range []struct {
		name     string
		longness int
	}{
		{"INT", 0}, {"INT", 1}, {"INT", 2},
		{"REAL", 0}, {"REAL", 1}, {"REAL", 2},
		{"COMPLEX", 0}, {"COMPLEX", 1}, {"COMPLEX", 2},
		{"BOOL", 0}, {"CHAR", 0}, {"BITS", 0}, {"BITS", 1},
		{"BYTES", 0}, {"BYTES", 1},
	} {
		m := r.Register(stdMode(std.name, std.longness))
		r.std[key(std.name, std.longness)] = m
	}
	return r
}

func key(name string, longness int) string {
	return name + "#" + itoa(longness)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Sentinel returns the registry's canonical instance of a sentinel mode.
func (r *Registry) Sentinel(name string) *Mode { return r.sen[name] }

// Standard returns the registry's canonical instance of a standard
// mode at the given longness, registering it on first use.
func (r *Registry) Standard(name string, longness int) *Mode {
	k := key(name, longness)
	if m, ok := r.std[k]; ok {
		return m
	}
	m := r.Register(stdMode(name, longness))
	r.std[k] = m
	return m
}

// Register interns m: if a structurally equivalent mode already
// exists, m.Equivalent is set to it and the existing canonical mode is
// returned (P1: register(m') == register(m) for any later-registered
// structurally equivalent m'). Otherwise m is appended, its size is
// computed, and it is returned as its own canonical representative.
func (r *Registry) Register(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.Equivalent != nil {
		return m.Equivalent
	}
	for _, existing := range r.modes {
		if r.ModesEquivalent(existing, m) {
			m.Equivalent = existing
			return existing
		}
	}
	m.Equivalent = m
	r.modes = append(r.modes, m)
	m.size = computeSize(m)
	return m
}

// ModesEquivalent is the structural-equivalence test driving Register,
// exposed directly for callers (e.g. the coercion inserter) that need
// to compare two already-registered modes without re-interning them.
// It uses a fresh postulate set per top-level call so cyclic mode
// graphs terminate (spec.md §4.1, P2).
func (r *Registry) ModesEquivalent(u, v *Mode) bool {
	ps := &postulateSet{}
	return modesEquivalentRec(u, v, ps)
}

func modesEquivalentRec(u, v *Mode, ps *postulateSet) bool {
	if u == v {
		return true
	}
	if u == nil || v == nil {
		return false
	}
	if u.Equivalent != nil && v.Equivalent != nil && u.Equivalent == v.Equivalent {
		return true
	}
	if ps.has(u, v) {
		return true
	}
	if u.Short != v.Short {
		return false
	}
	ps.push(u, v)
	defer ps.pop()

	switch u.Short {
	case ShortStandard, ShortSentinel:
		return u.Name == v.Name && u.Longness == v.Longness
	case ShortRef, ShortFlex:
		return modesEquivalentRec(u.Inner, v.Inner, ps)
	case ShortRow:
		return u.Dim == v.Dim && modesEquivalentRec(u.Inner, v.Inner, ps)
	case ShortStruct:
		return packEquivalent(u.Pack, v.Pack, ps, true)
	case ShortUnion, ShortSeries, ShortStowed:
		return packEquivalent(u.Pack, v.Pack, ps, false)
	case ShortProc:
		if len(u.Params) != len(v.Params) {
			return false
		}
		for i := range u.Params {
			if !modesEquivalentRec(u.Params[i], v.Params[i], ps) {
				return false
			}
		}
		return modesEquivalentRec(u.Result, v.Result, ps)
	case ShortFormat, ShortFile, ShortSound:
		return true
	default:
		return false
	}
}

func packEquivalent(a, b []Field, ps *postulateSet, labelled bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if labelled && a[i].Label != b[i].Label {
			return false
		}
		if !modesEquivalentRec(a[i].Mode, b[i].Mode, ps) {
			return false
		}
	}
	return true
}

func computeSize(m *Mode) int {
	switch m.Short {
	case ShortStandard:
		base := map[string]int{"INT": 4, "REAL": 8, "COMPLEX": 16, "BOOL": 1, "CHAR": 1, "BITS": 4, "BYTES": 8}[m.Name]
		if base == 0 {
			base = 8
		}
		if m.Longness > 0 {
			base *= (m.Longness + 1)
		}
		return base
	case ShortRef, ShortProc, ShortFormat, ShortFile:
		return 8 // offset/handle-index width
	case ShortRow, ShortFlex:
		return 24 // descriptor: pointer + dims
	case ShortStruct:
		total := 0
		for _, f := range m.Pack {
			total += f.Mode.size
		}
		return total
	case ShortUnion:
		max := 0
		for _, f := range m.Pack {
			if f.Mode.size > max {
				max = f.Mode.size
			}
		}
		return max + 8 // + discriminant tag
	default:
		return 8
	}
}

// AbsorbSeriesPack flattens a Series pack so no Series sits directly
// inside a Series (invariant I3, spec.md §3): any Field whose Mode is
// itself a Series is replaced by its own pack entries.
func AbsorbSeriesPack(pack []Field) []Field {
	var out []Field
	for _, f := range pack {
		if f.Mode != nil && f.Mode.Short == ShortSeries {
			out = append(out, AbsorbSeriesPack(f.Mode.Pack)...)
		} else {
			out = append(out, f)
		}
	}
	return out
}

// AbsorbUnionPack flattens a Union pack so no Union sits directly
// inside a Union (invariant I4's absorption half, spec.md §3).
func AbsorbUnionPack(pack []Field) []Field {
	var out []Field
	for _, f := range pack {
		if f.Mode != nil && f.Mode.Short == ShortUnion {
			out = append(out, AbsorbUnionPack(f.Mode.Pack)...)
		} else {
			out = append(out, f)
		}
	}
	return out
}

// ContractUnion removes duplicate alternatives from an (already
// absorbed) union pack under the registry's equivalence test
// (invariant I4's contraction half).
func (r *Registry) ContractUnion(pack []Field) []Field {
	var out []Field
	for _, f := range pack {
		dup := false
		for _, g := range out {
			if r.ModesEquivalent(f.Mode, g.Mode) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// MakeSeries builds a canonical Series mode from a list of component
// modes, flattening and registering it.
func (r *Registry) MakeSeries(modes []*Mode) *Mode {
	pack := make([]Field, len(modes))
	for i, m := range modes {
		pack[i] = Field{Mode: m}
	}
	return r.Register(NewSeries(AbsorbSeriesPack(pack)))
}

// MakeUnited takes a Series mode (as produced by united-case or
// collateral analysis) and produces a canonical Union, collapsing a
// single-element union to its bare element (boundary case in spec.md
// §8: "A Union with one alternative collapses to that alternative on
// construction").
func (r *Registry) MakeUnited(series *Mode) *Mode {
	var pack []Field
	if series.Short == ShortSeries || series.Short == ShortUnion {
		pack = series.Pack
	} else {
		pack = []Field{{Mode: series}}
	}
	pack = AbsorbUnionPack(pack)
	pack = r.ContractUnion(pack)
	if len(pack) == 1 {
		return pack[0].Mode
	}
	return r.Register(NewUnion(pack))
}
