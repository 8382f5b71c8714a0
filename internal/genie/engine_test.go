package genie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ga68/genie/internal/coerce"
	"github.com/ga68/genie/internal/lexer"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/modecheck"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/parser"
	"github.com/ga68/genie/internal/prelude"
	"github.com/ga68/genie/internal/runtime"
	"github.com/ga68/genie/internal/session"
	"github.com/ga68/genie/internal/soid"
)

// runProgram drives src through the same lexer/parser/modecheck/coerce/
// genie pipeline cmd/ga68 wires up, and returns the value of the
// program's last unit. It is the harness every end-to-end test in this
// file shares.
func runProgram(t *testing.T, src string) runtime.Value {
	t.Helper()
	sess := session.New(session.DefaultConfig())
	preludeTable := node.NewSymbolTable(nil)
	prelude.Install(sess.Modes, preludeTable)

	l := lexer.New(src, "<test>")
	p := parser.New(l, sess, preludeTable)
	result, err := p.ParseProgram()
	require.NoError(t, err)
	require.False(t, sess.Diag.HasErrors())

	root := result.Root
	voidMode := sess.Modes.Sentinel(mode.NameVoid)
	modecheck.New(sess).Check(root, soid.Strong(voidMode))
	require.False(t, sess.Diag.HasErrors())

	root = coerce.New(sess).Insert(root)

	e := New(sess, preludeTable)
	e.Prepare(root)

	global := runtime.NewFrame(0, -1, -1, 0, 0, result.FrameSize)
	require.NoError(t, sess.Frames.Push(global))

	v, err := e.Run(root)
	require.NoError(t, err)
	return v
}

func TestEngineArithmeticFormula(t *testing.T) {
	v := runProgram(t, `2 + 3 * 4`)
	iv, ok := v.(*runtime.IntValue)
	require.True(t, ok)
	require.Equal(t, int64(14), iv.V.Int64())
}

func TestEngineIdentityDeclarationAndIdentifier(t *testing.T) {
	v := runProgram(t, `INT i = 3 + 4; i`)
	iv, ok := v.(*runtime.IntValue)
	require.True(t, ok)
	require.Equal(t, int64(7), iv.V.Int64())
}

func TestEngineVariableAssignment(t *testing.T) {
	v := runProgram(t, `INT i := 0; i := i + 1; i := i + 1; i`)
	iv, ok := v.(*runtime.IntValue)
	require.True(t, ok)
	require.Equal(t, int64(2), iv.V.Int64())
}

func TestEngineConditionalClause(t *testing.T) {
	v := runProgram(t, `IF 1 > 0 THEN 100 ELSE 200 FI`)
	iv, ok := v.(*runtime.IntValue)
	require.True(t, ok)
	require.Equal(t, int64(100), iv.V.Int64())
}

func TestEngineLoopAccumulatesSum(t *testing.T) {
	// 1+2+...+10 = 55, accumulated into a variable across ten iterations.
	v := runProgram(t, `INT sum := 0; FOR i FROM 1 TO 10 DO sum := sum + i OD; sum`)
	iv, ok := v.(*runtime.IntValue)
	require.True(t, ok)
	require.Equal(t, int64(55), iv.V.Int64())
}

func TestEngineRoutineCall(t *testing.T) {
	v := runProgram(t, `PROC square = (INT n) INT: n * n; square(6)`)
	iv, ok := v.(*runtime.IntValue)
	require.True(t, ok)
	require.Equal(t, int64(36), iv.V.Int64())
}

func TestEngineBooleanFormula(t *testing.T) {
	v := runProgram(t, `TRUE AND FALSE`)
	bv, ok := v.(*runtime.BoolValue)
	require.True(t, ok)
	require.False(t, bv.V)
}
