// Package soid defines the sort-mode-attribute triple (spec.md §3
// "Soid") that is the currency of the mode checker. Soids describe an
// expectation passed down into a construct, or a yield produced by it;
// the checker stores both on the node (node.Node.Expected and Soid),
// and the coercion inserter reads them back from there.
package soid

import "github.com/ga68/genie/internal/mode"

// Attribute further narrows an expectation the way the source
// distinguishes, e.g., a plain unit's sort-mode pair from one with an
// extra indicant (used by the cast and declaration checks).
type Attribute int

const (
	NoAttribute Attribute = iota
	Generator // identity declaration introduced a GENERATOR — may need UNINTENDED warning
	Parameter
)

// Soid is the {sort, mode, attribute, cast} tuple from spec.md §3.
type Soid struct {
	Sort      mode.Sort
	Mode      *mode.Mode
	Attribute Attribute
	Cast      bool
}

// New builds a soid with NoSort semantics disabled (i.e. a real context).
func New(sort mode.Sort, m *mode.Mode) Soid {
	return Soid{Sort: sort, Mode: m}
}

// Strong is a convenience constructor for the common Strong-context soid.
func Strong(m *mode.Mode) Soid { return Soid{Sort: mode.Strong, Mode: m} }
