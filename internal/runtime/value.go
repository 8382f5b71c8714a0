package runtime

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ga68/genie/internal/mode"
)

// Value is a runtime value living on the expression stack, in a frame
// local, or inside a heap block. Every Algol 68 mode has a
// corresponding Value variant; Mode() lets GC and transput dispatch on
// layout without a type switch when only the mode is needed.
type Value interface {
	Mode() *mode.Mode
	String() string
}

// IntValue covers INT, LONG INT, LONG LONG INT (arbitrary precision via
// big.Int so the LONG LONG variants are exact).
type IntValue struct {
	M *mode.Mode
	V *big.Int
}

func (v *IntValue) Mode() *mode.Mode { return v.M }
func (v *IntValue) String() string   { return v.V.String() }

// RealValue covers REAL, LONG REAL, LONG LONG REAL.
type RealValue struct {
	M *mode.Mode
	V float64
}

func (v *RealValue) Mode() *mode.Mode { return v.M }
func (v *RealValue) String() string   { return fmt.Sprintf("%g", v.V) }

// ComplexValue covers COMPLEX and its LONG variants.
type ComplexValue struct {
	M        *mode.Mode
	Re, Im   float64
}

func (v *ComplexValue) Mode() *mode.Mode { return v.M }
func (v *ComplexValue) String() string   { return fmt.Sprintf("%g i %g", v.Re, v.Im) }

// BoolValue is TRUE/FALSE.
type BoolValue struct {
	M *mode.Mode
	V bool
}

func (v *BoolValue) Mode() *mode.Mode { return v.M }
func (v *BoolValue) String() string {
	if v.V {
		return "TRUE"
	}
	return "FALSE"
}

// CharValue is a single CHAR.
type CharValue struct {
	M *mode.Mode
	V rune
}

func (v *CharValue) Mode() *mode.Mode { return v.M }
func (v *CharValue) String() string   { return string(v.V) }

// BitsValue is BITS/LONG BITS, stored as a fixed-width bit pattern.
type BitsValue struct {
	M *mode.Mode
	V uint64
}

func (v *BitsValue) Mode() *mode.Mode { return v.M }
func (v *BitsValue) String() string   { return fmt.Sprintf("%b", v.V) }

// VoidValue is the result of evaluating a VOID-yielding unit.
type VoidValue struct{ M *mode.Mode }

func (v *VoidValue) Mode() *mode.Mode { return v.M }
func (v *VoidValue) String() string   { return "" }

// SkipValue is the result of the empty clause SKIP: an unspecified but
// well-typed value, used to satisfy a context without committing to a
// representation.
type SkipValue struct{ M *mode.Mode }

func (v *SkipValue) Mode() *mode.Mode { return v.M }
func (v *SkipValue) String() string   { return "SKIP" }

// RefValue is a name: a Reference wrapped with the REF mode it was
// declared at (spec.md §3 "Reference").
type RefValue struct {
	M *mode.Mode
	R Reference
}

func (v *RefValue) Mode() *mode.Mode { return v.M }
func (v *RefValue) String() string   { return fmt.Sprintf("REF(%s)", v.R) }

// RowValue is a (possibly FLEX, possibly multi-dimensional) row: a
// flat element slice plus per-dimension bounds, matching how the genie
// subscript/slice propagators compute offsets (spec.md §3, §4.3
// "Slice").
type RowValue struct {
	M         *mode.Mode
	Bounds    []Bound
	Elements  []Value
}

// Bound is one dimension's [Lower, Upper] inclusive range.
type Bound struct{ Lower, Upper int }

func (v *RowValue) Mode() *mode.Mode { return v.M }

// Dim reports the row's dimensionality.
func (v *RowValue) Dim() int { return len(v.Bounds) }
func (v *RowValue) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Offset computes the flat index for a multi-dimensional subscript,
// row-major, after range-checking each index against its bound
// (RUN003 range-check failure on violation, handled by the caller).
func (v *RowValue) Offset(indices []int) (int, bool) {
	if len(indices) != len(v.Bounds) {
		return 0, false
	}
	off := 0
	for i, idx := range indices {
		b := v.Bounds[i]
		if idx < b.Lower || idx > b.Upper {
			return 0, false
		}
		stride := 1
		for j := i + 1; j < len(v.Bounds); j++ {
			stride *= v.Bounds[j].Upper - v.Bounds[j].Lower + 1
		}
		off += (idx - b.Lower) * stride
	}
	return off, true
}

// StructValue is a struct value: field order follows the struct
// mode's pack.
type StructValue struct {
	M      *mode.Mode
	Fields []Value
}

func (v *StructValue) Mode() *mode.Mode { return v.M }
func (v *StructValue) String() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// UnionValue is a united value: the discriminant Active mode plus the
// wrapped payload.
type UnionValue struct {
	M      *mode.Mode
	Active *mode.Mode
	Payload Value
}

func (v *UnionValue) Mode() *mode.Mode { return v.M }
func (v *UnionValue) String() string   { return v.Payload.String() }

// ProcValue is a closure: the routine-text node (opaque here as
// interface{} to avoid an import cycle with internal/node), the
// lexical environment it closes over (its static link frame index),
// and its PROC mode.
type ProcValue struct {
	M           *mode.Mode
	Node        interface{} // *node.Node
	StaticLink  int         // frame index captured at routine-text evaluation
	PartialArgs []Value     // bound arguments for a partially-parameterized call

	// Builtin, when set, is a prelude-supplied native implementation
	// (spec.md §6 "Outbound to the prelude"): the genie calls it
	// directly instead of pushing a frame and running a routine body.
	Builtin func(args []Value) (Value, error)
}

func (v *ProcValue) Mode() *mode.Mode { return v.M }
func (v *ProcValue) String() string   { return "PROC" }

// FormatValue wraps a format-text node for deferred transput use.
type FormatValue struct {
	M    *mode.Mode
	Node interface{}
}

func (v *FormatValue) Mode() *mode.Mode { return v.M }
func (v *FormatValue) String() string   { return "$ ... $" }
