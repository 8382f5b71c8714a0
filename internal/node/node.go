// Package node defines the tagged tree cell that the parser
// (internal/parser) hands to the mode checker, and that the mode
// checker, coercion inserter, and runtime substrate annotate in place.
package node

import "fmt"

// Pos is a source position, mirroring the parser's line/column/file
// bookkeeping so diagnostics can be anchored precisely.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Attribute tags the syntactic construct a Node represents. The set is
// intentionally flat (not a Go interface per construct) because the
// mode checker and coercion inserter dispatch on this tag the way the
// genie's propagator table does, and because coercion insertion
// rewrites nodes in place by attribute rather than by Go type.
type Attribute int

const (
	// Producing constructs (yield a soid)
	Denotation Attribute = iota
	Identifier
	Cast
	FormulaNode
	MonadicFormula
	Call
	Slice
	FieldSelection
	RoutineText
	Enclosure
	SerialClause
	CollateralClause
	ConditionalClause
	IntegerCaseClause
	UnitedCaseClause
	LoopClause
	Assignation
	IdentityRelation
	AndFunction
	OrFunction
	Assertion
	FormatText
	FormatPattern
	NihilNode
	ParallelClause

	// Declarations
	IdentityDeclaration
	VariableDeclaration
	OperatorDeclaration
	ProcedureDeclaration
	ModeDeclaration

	// Coercion wrapper nodes inserted by C4 (spec.md §4.4)
	Dereferencing
	Deproceduring
	Uniting
	Widening
	Rowing
	Voiding

	// Leaf/structural helpers
	UnitList
	ParameterPack
	Skip
)

//go:generate stringer -type=Attribute
func (a Attribute) String() string {
	if s, ok := attrNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Attribute(%d)", int(a))
}

var attrNames = map[Attribute]string{
	Denotation:          "DENOTATION",
	Identifier:          "IDENTIFIER",
	Cast:                "CAST",
	FormulaNode:         "FORMULA",
	MonadicFormula:      "MONADIC_FORMULA",
	Call:                "CALL",
	Slice:               "SLICE",
	FieldSelection:      "FIELD_SELECTION",
	RoutineText:         "ROUTINE_TEXT",
	Enclosure:           "ENCLOSURE",
	SerialClause:        "SERIAL_CLAUSE",
	CollateralClause:    "COLLATERAL_CLAUSE",
	ConditionalClause:   "CONDITIONAL_CLAUSE",
	IntegerCaseClause:   "INTEGER_CASE_CLAUSE",
	UnitedCaseClause:    "UNITED_CASE_CLAUSE",
	LoopClause:          "LOOP_CLAUSE",
	Assignation:         "ASSIGNATION",
	IdentityRelation:    "IDENTITY_RELATION",
	AndFunction:         "AND_FUNCTION",
	OrFunction:          "OR_FUNCTION",
	Assertion:           "ASSERTION",
	FormatText:          "FORMAT_TEXT",
	FormatPattern:       "FORMAT_PATTERN",
	NihilNode:           "NIHIL",
	ParallelClause:      "PARALLEL_CLAUSE",
	IdentityDeclaration: "IDENTITY_DECLARATION",
	VariableDeclaration: "VARIABLE_DECLARATION",
	OperatorDeclaration: "OPERATOR_DECLARATION",
	ProcedureDeclaration: "PROCEDURE_DECLARATION",
	ModeDeclaration:     "MODE_DECLARATION",
	Dereferencing:       "DEREFERENCING",
	Deproceduring:       "DEPROCEDURING",
	Uniting:             "UNITING",
	Widening:            "WIDENING",
	Rowing:              "ROWING",
	Voiding:             "VOIDING",
	UnitList:            "UNIT_LIST",
	ParameterPack:       "PARAMETER_PACK",
	Skip:                "SKIP",
}

// Status is a bitmask of interpreter/checker flags attached to a Node.
type Status uint32

const (
	Initialised Status = 1 << iota
	Breakpoint
	Interruptible
	Optimal
	NoSynthesis
)

// Genie holds the side-record the runtime substrate and coercion
// inserter attach to a node during preprocessing: the propagator to
// execute it, a constant-folding cache, whether a name needs
// dereferencing before use, the lexical-level frame offset for
// identifiers/operators, and the partial-parameterization modes used
// by calls with trimmers.
type Genie struct {
	Propagator   Propagator
	Constant     interface{}
	NeedsDNS     bool // needs dynamic-scope check at runtime
	LexicalLevel int
	FrameOffset  int
	PartialLocale interface{} // *mode.Mode; no pass in this module sets it
	PartialProc   interface{} // *mode.Mode

	// FrameSize and Params are meaningful only on a RoutineText node:
	// the number of local slots its own activation frame needs, and
	// the parameter Tags in declaration order so the genie can bind
	// actual arguments into the new frame before running the body.
	FrameSize int
	Params    []*Tag
}

// Propagator is the executor routine associated with a node after
// preprocessing (spec.md §4.5). It is a plain function value, stored
// on the node by internal/genie's Prepare (or lazily by Run); the genie
// does not replace it after the first execution.
type Propagator func(n *Node) (interface{}, error)

// Node is the tagged tree cell. Sub is the first child; Next is the
// sibling link, matching the attribute/sub/next shape spec.md
// mandates so the mode checker and coercion inserter can walk and
// rewrite the tree without a per-construct Go type switch.
type Node struct {
	Attribute Attribute
	Sub       *Node
	Next      *Node

	Pos    Pos
	Text   string // symbol text (operator glyph, identifier name, denotation literal)
	Symbol *SymbolTable

	Mode interface{} // *mode.Mode; interface{} avoids an import cycle with internal/mode
	Tag  *Tag
	Soid interface{} // soid.Soid, the node's own yielded soid as set by the mode checker (C3)

	// Expected is the soid the enclosing construct checked this node
	// against (C3's `x`); the coercion inserter (C4) reads it back to
	// know what to wrap Soid's mode up to, without re-running the
	// checker's recursion.
	Expected interface{} // soid.Soid

	Genie  *Genie
	Status Status

	// Cast marks that this node's yielded soid came from an explicit
	// M(...) cast, suppressing voiding-warnings (spec.md §4.3).
	Cast bool
}

// New creates a leaf node with the given attribute and text.
func New(attr Attribute, pos Pos, text string) *Node {
	return &Node{Attribute: attr, Pos: pos, Text: text, Genie: &Genie{}}
}

// Children returns the node's direct children as a slice, walking Sub/Next.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.Sub; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// AddChild appends c to n's child list (used by the parser/test builders).
func (n *Node) AddChild(c *Node) {
	if n.Sub == nil {
		n.Sub = c
		return
	}
	last := n.Sub
	for last.Next != nil {
		last = last.Next
	}
	last.Next = c
}

// HasStatus reports whether all bits in s are set.
func (n *Node) HasStatus(s Status) bool { return n.Status&s == s }

// SetStatus ORs s into the node's status bitmask.
func (n *Node) SetStatus(s Status) { n.Status |= s }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.Text != "" {
		return fmt.Sprintf("%s(%q)", n.Attribute, n.Text)
	}
	return n.Attribute.String()
}

// Tag is a symbol-table entry: an identifier, indicant, operator,
// priority, or label declaration visible at some lexical level.
type Tag struct {
	Name         string
	Kind         TagKind
	Mode         interface{} // *mode.Mode
	Node         *Node       // declaring node
	LexicalLevel int
	FrameOffset  int
	Heap         bool // allocated via a generator, not a plain local
	Next         *Tag // chain within the same symbol table

	// Builtin, when set, is the runtime.Value (typically a *ProcValue
	// wrapping a native Go function) a prelude identifier resolves to
	// directly, bypassing frame lookup (spec.md §6's "Outbound to the
	// prelude" boundary). interface{} avoids an import cycle with
	// internal/runtime.
	Builtin interface{}
}

// TagKind distinguishes the five symbol-table entry kinds spec.md §6 names.
type TagKind int

const (
	TagIdentifier TagKind = iota
	TagIndicant
	TagOperator
	TagPriority
	TagLabel
)

// SymbolTable is one lexical level's set of tag chains, linked to its
// enclosing level (nil at the top).
type SymbolTable struct {
	Level       int
	Enclosing   *SymbolTable
	Identifiers *Tag
	Indicants   *Tag
	Operators   *Tag
	Priorities  *Tag
	Labels      *Tag
}

// NewSymbolTable creates a fresh table nested inside enclosing.
func NewSymbolTable(enclosing *SymbolTable) *SymbolTable {
	level := 0
	if enclosing != nil {
		level = enclosing.Level + 1
	}
	return &SymbolTable{Level: level, Enclosing: enclosing}
}

// AddIdentifier chains a new identifier tag into the table.
func (s *SymbolTable) AddIdentifier(t *Tag) {
	t.Kind = TagIdentifier
	t.LexicalLevel = s.Level
	t.Next = s.Identifiers
	s.Identifiers = t
}

// FindIdentifier searches this table and its enclosing chain for name.
func (s *SymbolTable) FindIdentifier(name string) *Tag {
	for tbl := s; tbl != nil; tbl = tbl.Enclosing {
		for t := tbl.Identifiers; t != nil; t = t.Next {
			if t.Name == name {
				return t
			}
		}
	}
	return nil
}

// AddOperator chains a new operator tag into the table.
func (s *SymbolTable) AddOperator(t *Tag) {
	t.Kind = TagOperator
	t.LexicalLevel = s.Level
	t.Next = s.Operators
	s.Operators = t
}

// FindOperator searches this table and its enclosing chain for an
// operator with the given name, returning every overload found at the
// nearest level that has one (for the mode checker's Firm search).
func (s *SymbolTable) FindOperator(name string) []*Tag {
	for tbl := s; tbl != nil; tbl = tbl.Enclosing {
		var out []*Tag
		for t := tbl.Operators; t != nil; t = t.Next {
			if t.Name == name {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
