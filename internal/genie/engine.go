// Package genie is the second half of C5 (spec.md §4.5): the
// propagator-driven tree-walker ("the genie") that executes a
// mode-checked, coercion-annotated node.Node tree against a
// session.Session's runtime substrate. Dispatch is by
// node.Propagator — a function value bound to this Engine, assigned
// onto each node's Genie.Propagator field by a preprocessing pass
// (Prepare), exactly as spec.md §4.5 describes: "a preprocessing pass
// assigns each node a propagator". Propagators are not specialized
// after a first execution: every visit of a node runs the generic
// propagator that Prepare (or Run, lazily) assigned to it.
package genie

import (
	"fmt"
	"sync"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
	"github.com/ga68/genie/internal/session"
)

// Engine binds a session and the standard prelude's symbol table
// (operator lookup) to a set of propagator methods. memMu is the
// "shared mutex" spec.md §5 names: PAR branches running concurrently
// serialize through it whenever they touch the frame stack or trigger
// a GC cycle, so compaction and frame push/pop stay a stop-the-world
// section relative to sibling goroutines.
type Engine struct {
	sess    *session.Session
	prelude *node.SymbolTable
	memMu   sync.Mutex

	// Monitor, when set (by --monitor), is invoked before a node
	// carrying node.Breakpoint status is run (spec.md §6's "monitor
	// breakpoint hook" suspension point and §7's "monitor `rerun`
	// command" unwind path). Returning a non-nil error aborts the walk
	// with that error — internal/repl returns a *RerunRequestedError or
	// *ForcedQuitError from its prompt loop to drive those two exits.
	Monitor func(e *Engine, n *node.Node) error
}

// New creates an Engine. prelude is the symbol table internal/prelude
// populated with the built-in operators (spec.md §6 "Outbound to the
// prelude").
func New(sess *session.Session, prelude *node.SymbolTable) *Engine {
	return &Engine{sess: sess, prelude: prelude}
}

// RerunRequestedError is returned when the monitor's `rerun` command
// unwinds execution (spec.md §7 "Rerun request", exit code
// ExitRerunRequested): the driver re-parses the same source text and
// runs the program again from the top.
type RerunRequestedError struct{}

func (e *RerunRequestedError) Error() string { return "rerun requested from monitor" }

// Prepare walks n's tree assigning the generic propagator for each
// node's attribute and, for identifiers, copying the frame-offset
// bookkeeping the mode checker left on the declaring Tag (spec.md
// §4.5: "propagators for identifiers and operators record the
// lexical level plus a precomputed offset into the frame stack").
func (e *Engine) Prepare(n *node.Node) {
	if n == nil {
		return
	}
	if n.Genie == nil {
		n.Genie = &node.Genie{}
	}
	n.Genie.Propagator = e.genericPropagator(n.Attribute)
	if n.Attribute == node.Identifier && n.Tag != nil {
		n.Genie.LexicalLevel = n.Tag.LexicalLevel
		n.Genie.FrameOffset = n.Tag.FrameOffset
		n.Genie.NeedsDNS = n.Tag.Heap
	}
	for c := n.Sub; c != nil; c = c.Next {
		e.Prepare(c)
	}
}

// Run executes n, lazily assigning a propagator if Prepare was never
// run over this subtree (e.g. a node synthesized at runtime by a
// closure call). Returns the runtime.Value n evaluates to.
func (e *Engine) Run(n *node.Node) (runtime.Value, error) {
	if n == nil {
		return &runtime.VoidValue{M: e.sess.Modes.Sentinel(mode.NameVoid)}, nil
	}
	if e.sess.Abort {
		return nil, &ForcedQuitError{}
	}
	if n.Genie == nil {
		n.Genie = &node.Genie{}
	}
	if n.Genie.Propagator == nil {
		n.Genie.Propagator = e.genericPropagator(n.Attribute)
	}
	if n.HasStatus(node.Breakpoint) && e.Monitor != nil {
		if err := e.Monitor(e, n); err != nil {
			return nil, err
		}
	}
	out, err := n.Genie.Propagator(n)
	if err != nil {
		return nil, err
	}
	v, ok := out.(runtime.Value)
	if !ok {
		return nil, fmt.Errorf("propagator for %s returned a non-Value result", n.Attribute)
	}
	return v, nil
}

// ForcedQuitError is returned when the session's cooperative abort
// flag is observed mid-evaluation (spec.md §6 --timelimit, exit code
// ExitForcedQuit).
type ForcedQuitError struct{}

func (e *ForcedQuitError) Error() string { return "execution forced to quit" }

func (e *Engine) genericPropagator(attr node.Attribute) node.Propagator {
	switch attr {
	case node.Denotation:
		return e.pDenotation
	case node.Identifier:
		return e.pIdentifier
	case node.Cast:
		return e.pCast
	case node.FormulaNode, node.MonadicFormula:
		return e.pFormula
	case node.Call:
		return e.pCall
	case node.Slice:
		return e.pSlice
	case node.FieldSelection:
		return e.pFieldSelection
	case node.RoutineText:
		return e.pRoutineText
	case node.SerialClause:
		return e.pSerialClause
	case node.CollateralClause:
		return e.pCollateralClause
	case node.ConditionalClause:
		return e.pConditionalClause
	case node.IntegerCaseClause:
		return e.pIntegerCaseClause
	case node.UnitedCaseClause:
		return e.pUnitedCaseClause
	case node.LoopClause:
		return e.pLoopClause
	case node.ParallelClause:
		return e.pParallelClause
	case node.Assignation:
		return e.pAssignation
	case node.IdentityRelation:
		return e.pIdentityRelation
	case node.AndFunction:
		return e.pAndFunction
	case node.OrFunction:
		return e.pOrFunction
	case node.Assertion:
		return e.pAssertion
	case node.IdentityDeclaration:
		return e.pIdentityDeclaration
	case node.VariableDeclaration:
		return e.pVariableDeclaration
	case node.OperatorDeclaration, node.ProcedureDeclaration, node.ModeDeclaration:
		return e.pNoOpDeclaration
	case node.Dereferencing:
		return e.pDereferencing
	case node.Deproceduring:
		return e.pDeproceduring
	case node.Uniting:
		return e.pUniting
	case node.Widening:
		return e.pWidening
	case node.Rowing:
		return e.pRowing
	case node.Voiding:
		return e.pVoiding
	case node.Skip:
		return e.pSkip
	default:
		return e.pUnsupported
	}
}

func (e *Engine) pUnsupported(n *node.Node) (interface{}, error) {
	return nil, fmt.Errorf("genie: no propagator implemented for %s", n.Attribute)
}

func (e *Engine) pSkip(n *node.Node) (interface{}, error) {
	m, _ := n.Mode.(*mode.Mode)
	return &runtime.SkipValue{M: m}, nil
}

// scopeOf derives the Reference.Scope to stamp on a name taken into
// the frame at index idx, under the convention resolved in DESIGN.md's
// Open Question: scope numbers decrease with nesting depth, so a
// deeper (shorter-lived) frame's names carry a smaller number than an
// outer one's, and CheckScope's "source >= dest" test rejects a
// reference escaping to an enclosing, longer-lived frame.
func scopeOf(frameIndex int) int { return -frameIndex }

// runtimeError wraps err as a diag.Report-bearing error anchored to n,
// tagged with the given runtime error code, and also records it in the
// session's diagnostics sink (spec.md §7).
func (e *Engine) runtimeError(n *node.Node, code string, msg string) error {
	r := diag.New(code, diag.PhaseRuntime, diag.SeverityRuntime, n, msg, nil)
	e.memMu.Lock()
	e.sess.Diag.Emit(r)
	e.memMu.Unlock()
	return diag.Wrap(r)
}
