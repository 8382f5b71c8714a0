package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ga68/genie/internal/lexer"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/session"
)

func newTestParser(src string) *Parser {
	sess := session.New(session.DefaultConfig())
	prelude := node.NewSymbolTable(nil)
	l := lexer.New(src, "<test>")
	return New(l, sess, prelude)
}

func TestParseSimpleIdentityDeclaration(t *testing.T) {
	p := newTestParser(`INT i = 3 + 4`)
	result, err := p.ParseProgram()
	require.NoError(t, err)
	require.NotNil(t, result.Root)

	children := result.Root.Children()
	require.Len(t, children, 1)
	require.Equal(t, node.IdentityDeclaration, children[0].Attribute)
}

func TestParseAssignation(t *testing.T) {
	p := newTestParser(`INT i := 0; i := i + 1`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	children := result.Root.Children()
	require.Len(t, children, 2)
	require.Equal(t, node.VariableDeclaration, children[0].Attribute)
	require.Equal(t, node.Assignation, children[1].Attribute)
}

func TestParseFormulaPrecedence(t *testing.T) {
	// 2 + 3 * 4 should bind as 2 + (3 * 4): the formula's left child is
	// the 2 denotation, its right child is the nested "*" formula.
	p := newTestParser(`2 + 3 * 4`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	unit := result.Root.Children()[0]
	require.Equal(t, node.FormulaNode, unit.Attribute)
	require.Equal(t, "+", unit.Text)

	rhs := unit.Children()[1]
	require.Equal(t, node.FormulaNode, rhs.Attribute)
	require.Equal(t, "*", rhs.Text)
}

func TestParseConditionalClause(t *testing.T) {
	p := newTestParser(`IF 1 > 0 THEN 1 ELSE 0 FI`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	unit := result.Root.Children()[0]
	require.Equal(t, node.ConditionalClause, unit.Attribute)
	require.Len(t, unit.Children(), 3)
}

func TestParseRoutineTextAndCall(t *testing.T) {
	// PROC declarations desugar to an IdentityDeclaration over a
	// RoutineText (parser.go's parseProcDeclaration), not a standalone
	// ProcedureDeclaration node.
	p := newTestParser(`PROC square = (INT n) INT: n * n; square(5)`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	decl := result.Root.Children()[0]
	require.Equal(t, node.IdentityDeclaration, decl.Attribute)
	routine := decl.Children()[1]
	require.Equal(t, node.RoutineText, routine.Attribute)

	call := result.Root.Children()[1]
	require.Equal(t, node.Call, call.Attribute)
}

func TestParseOperatorDeclarationResultModeOnly(t *testing.T) {
	// OP MAX = (INT a, INT b) INT: ... — the declaration node's Mode
	// must be the operator's result mode (INT), not its full PROC type,
	// since modecheck.checkOperatorDeclaration checks the body against
	// Strong(n.Mode) directly.
	p := newTestParser(`OP MAX = (INT a, INT b) INT: IF a > b THEN a ELSE b FI`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	decl := result.Root.Children()[0]
	require.Equal(t, node.OperatorDeclaration, decl.Attribute)

	m, ok := decl.Mode.(*mode.Mode)
	require.True(t, ok)
	require.Equal(t, "INT", m.String())
}

func TestParseLoopClause(t *testing.T) {
	p := newTestParser(`FOR i FROM 1 TO 10 DO i OD`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	unit := result.Root.Children()[0]
	require.Equal(t, node.LoopClause, unit.Attribute)
}

func TestParseCollateralClauseParens(t *testing.T) {
	p := newTestParser(`(1, 2, 3)`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	unit := result.Root.Children()[0]
	require.Equal(t, node.CollateralClause, unit.Attribute)
	require.Len(t, unit.Children(), 3)
}

func TestParseUppercaseIdentIsOperator(t *testing.T) {
	// ANDF/ORF short-circuit forms are out of scope for this grammar
	// (see the package doc comment); a bare uppercase word like AND is
	// just another dyadic operator glyph, producing a FormulaNode.
	p := newTestParser(`TRUE AND FALSE`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	unit := result.Root.Children()[0]
	require.Equal(t, node.FormulaNode, unit.Attribute)
	require.Equal(t, "AND", unit.Text)
}

func TestParseSliceTrim(t *testing.T) {
	p := newTestParser(`[1:4] INT a := (1, 2, 3, 4); a[2:3]`)
	result, err := p.ParseProgram()
	require.NoError(t, err)

	decl := result.Root.Children()[0]
	require.Equal(t, node.VariableDeclaration, decl.Attribute)

	unit := result.Root.Children()[1]
	require.Equal(t, node.Slice, unit.Attribute)
}

func TestParseUnexpectedTokenRecordsDiagnostic(t *testing.T) {
	sess := session.New(session.DefaultConfig())
	prelude := node.NewSymbolTable(nil)
	l := lexer.New(`INT i = )`, "<test>")
	p := New(l, sess, prelude)

	_, err := p.ParseProgram()
	require.Error(t, err)
	require.True(t, sess.Diag.HasErrors())
}
