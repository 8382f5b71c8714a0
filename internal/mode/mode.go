// Package mode implements the Algol 68 mode system's central entity
// (spec.md §3 "Mode (MOID)") and its canonicalizing registry (C1,
// spec.md §4.1). Modes are built by the out-of-scope parser from
// declarers and by the mode checker/coercion inserter when
// synthesizing series, stowed, and united modes; all modes live until
// program end and are interned through Register so that structurally
// equivalent modes compare equal by pointer.
package mode

import (
	"fmt"
	"strings"
)

// ShortID is the fast discriminant used by predicates to avoid a type
// switch on the hot path (spec.md §3 "short_id").
type ShortID int

const (
	ShortStandard ShortID = iota
	ShortRef
	ShortFlex
	ShortRow
	ShortStruct
	ShortUnion
	ShortProc
	ShortFormat
	ShortFile
	ShortSound
	ShortSeries
	ShortStowed
	ShortSentinel
)

// Sentinel names, used for the Standard variant's Name field when the
// mode itself is one of the sentinel modes (spec.md §3).
const (
	NameHip       = "HIP"
	NameVacuum    = "VACUUM"
	NameVoid      = "VOID"
	NameError     = "ERROR"
	NameUndefined = "UNDEFINED"
	NameRows      = "ROWS"
	NameSimplIn   = "SIMPLIN"
	NameSimplOut  = "SIMPLOUT"
)

// Field is one entry of a struct/union field pack: a mode, an optional
// text label (struct field name; absent for union alternatives), and
// the declaring source node (opaque here to avoid an import cycle —
// callers that need it store *node.Node via SourceNode).
type Field struct {
	Mode       *Mode
	Label      string
	SourceNode interface{}
}

// Mode is the tagged MOID described in spec.md §3. Exactly one of the
// payload fields is meaningful per ShortID; Go has no tagged unions so
// this follows the teacher's "one struct type per interface contract"
// pattern collapsed into a single struct, matching how the registry
// needs to compare and mutate modes uniformly regardless of shape.
type Mode struct {
	Short ShortID

	// Standard: INT, REAL, BOOL, CHAR, ... with longness (0 = plain,
	// 1 = LONG, 2 = LONG LONG, -1 = SHORT, ...). Also used for every
	// sentinel (Name holds NameHip, NameVoid, etc, Longness 0).
	Name     string
	Longness int

	// Ref, Flex: single inner mode.
	Inner *Mode

	// Row: Dim dimensions over Inner.
	Dim int

	// Struct, Union: field pack. Series/Stowed reuse Pack too.
	Pack []Field

	// Proc: Params is the parameter pack (no labels), Result the yield.
	Params []*Mode
	Result *Mode

	// set by Register/modes_equivalent (I1 in spec.md §3).
	Equivalent *Mode

	// Derived/cached attributes (spec.md §3 Attributes).
	hasRef   *bool
	size     int
	deflexed *Mode // REF/VALUE with FLEX stripped per current regime
	trim     *Mode // name-of-flex-row: the Row mode with Flex stripped
	slice    *Mode // one-dimension-lower row
	name     *Mode // for a Row: the corresponding REF ROW mode

	multipleMode bool // rows-of-structs alias: struct-of-rows view exists
}

// Well-known sentinel and standard modes. These are registered lazily
// the first time a Registry is created (see NewRegistry) so every
// Registry gets its own canonical instances — two sessions never share
// mode pointers, matching the session-threaded design in spec.md §9.
func stdMode(name string, longness int) *Mode {
	return &Mode{Short: ShortStandard, Name: name, Longness: longness}
}

func sentinel(name string) *Mode {
	return &Mode{Short: ShortSentinel, Name: name}
}

// String renders a mode the way the a68g-family listing pass would,
// bounded so cyclic modes (via Equivalent self-reference) cannot
// recurse unboundedly (spec.md §7 "bounded width").
func (m *Mode) String() string {
	return m.render(0)
}

const maxRenderDepth = 24

func (m *Mode) render(depth int) string {
	if m == nil {
		return "NIL MODE"
	}
	if depth > maxRenderDepth {
		return "..."
	}
	switch m.Short {
	case ShortStandard, ShortSentinel:
		return longPrefix(m.Longness) + m.Name
	case ShortRef:
		return "REF " + m.Inner.render(depth + 1)
	case ShortFlex:
		return "FLEX " + m.Inner.render(depth + 1)
	case ShortRow:
		bounds := strings.Repeat(", ", m.Dim-1)
		return fmt.Sprintf("[%s] %s", bounds, m.Inner.render(depth+1))
	case ShortStruct:
		return "STRUCT " + packString(m.Pack, depth)
	case ShortUnion:
		return "UNION " + packString(m.Pack, depth)
	case ShortProc:
		parts := make([]string, len(m.Params))
		for i, p := range m.Params {
			parts[i] = p.render(depth + 1)
		}
		if len(parts) == 0 {
			return "PROC " + m.Result.render(depth+1)
		}
		return fmt.Sprintf("PROC (%s) %s", strings.Join(parts, ", "), m.Result.render(depth+1))
	case ShortFormat:
		return "FORMAT"
	case ShortFile:
		return "FILE"
	case ShortSound:
		return "SOUND"
	case ShortSeries:
		return "SERIES " + packString(m.Pack, depth)
	case ShortStowed:
		return "STOWED " + packString(m.Pack, depth)
	default:
		return "?MODE?"
	}
}

func packString(pack []Field, depth int) string {
	parts := make([]string, len(pack))
	for i, f := range pack {
		if f.Label != "" {
			parts[i] = fmt.Sprintf("%s %s", f.Mode.render(depth+1), f.Label)
		} else {
			parts[i] = f.Mode.render(depth + 1)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func longPrefix(longness int) string {
	switch {
	case longness > 0:
		return strings.Repeat("LONG ", longness)
	case longness < 0:
		return strings.Repeat("SHORT ", -longness)
	default:
		return ""
	}
}

// HasRef reports whether m transitively can refer to a name — i.e.
// whether it contains a REF anywhere in its structure (spec.md §3
// "has_ref"). The result is memoized on first computation.
func (m *Mode) HasRef() bool {
	if m.hasRef != nil {
		return *m.hasRef
	}
	seen := map[*Mode]bool{}
	r := m.hasRefRec(seen)
	m.hasRef = &r
	return r
}

func (m *Mode) hasRefRec(seen map[*Mode]bool) bool {
	if m == nil || seen[m] {
		return false
	}
	seen[m] = true
	switch m.Short {
	case ShortRef:
		return true
	case ShortFlex, ShortRow:
		return m.Inner.hasRefRec(seen)
	case ShortStruct, ShortUnion, ShortSeries, ShortStowed:
		for _, f := range m.Pack {
			if f.Mode.hasRefRec(seen) {
				return true
			}
		}
		return false
	case ShortProc:
		return false // a PROC value is not itself a name
	default:
		return false
	}
}

// Size returns the byte footprint Register computed for m (spec.md §3
// "size"), used by the heap generator to size an allocation.
func (m *Mode) Size() int {
	if m == nil {
		return 0
	}
	return m.size
}

// IsHip, IsVoid, IsError, IsUndefined test the sentinel modes by name.
func (m *Mode) IsHip() bool       { return m != nil && m.Short == ShortSentinel && m.Name == NameHip }
func (m *Mode) IsVacuum() bool    { return m != nil && m.Short == ShortSentinel && m.Name == NameVacuum }
func (m *Mode) IsVoid() bool      { return m != nil && m.Short == ShortSentinel && m.Name == NameVoid }
func (m *Mode) IsError() bool     { return m != nil && m.Short == ShortSentinel && m.Name == NameError }
func (m *Mode) IsUndefined() bool { return m != nil && m.Short == ShortSentinel && m.Name == NameUndefined }
func (m *Mode) IsRows() bool      { return m != nil && m.Short == ShortSentinel && m.Name == NameRows }

// IllFormed reports whether diagnostics involving m should short-circuit
// (spec.md §4.3 "Non-well-formed modes ... short-circuit to true").
func (m *Mode) IllFormed() bool {
	return m == nil || m.IsError() || m.IsUndefined()
}

// Constructors. These do NOT register/canonicalize; call Registry.Register
// on the result to get the canonical, size-computed instance.

func NewRef(inner *Mode) *Mode  { return &Mode{Short: ShortRef, Inner: inner} }
func NewFlex(inner *Mode) *Mode { return &Mode{Short: ShortFlex, Inner: inner} }
func NewRow(dim int, inner *Mode) *Mode {
	return &Mode{Short: ShortRow, Dim: dim, Inner: inner}
}
func NewStruct(pack []Field) *Mode { return &Mode{Short: ShortStruct, Pack: pack} }
func NewUnion(pack []Field) *Mode  { return &Mode{Short: ShortUnion, Pack: pack} }
func NewProc(params []*Mode, result *Mode) *Mode {
	return &Mode{Short: ShortProc, Params: params, Result: result}
}
func NewSeries(pack []Field) *Mode { return &Mode{Short: ShortSeries, Pack: pack} }
func NewStowed(pack []Field) *Mode { return &Mode{Short: ShortStowed, Pack: pack} }
