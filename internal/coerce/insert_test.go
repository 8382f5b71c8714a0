package coerce

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/session"
	"github.com/ga68/genie/internal/soid"
)

// checkedDenotation builds a leaf node the way modecheck.Check would
// have left it: Mode set to its intrinsic mode, Expected set to the
// soid its parent checked it against.
func checkedDenotation(m *mode.Mode, expected soid.Soid) *node.Node {
	n := node.New(node.Denotation, node.Pos{}, "3")
	n.Mode = m
	n.Expected = expected
	return n
}

func TestInsertWideningForIntToReal(t *testing.T) {
	sess := session.New(session.DefaultConfig())
	ins := New(sess)
	intMode := sess.Modes.Standard("INT", 0)
	realMode := sess.Modes.Standard("REAL", 0)

	n := checkedDenotation(intMode, soid.Strong(realMode))
	out := ins.Insert(n)

	require.Equal(t, node.Widening, out.Attribute)
	require.Equal(t, realMode, out.Mode)
	require.Equal(t, n, out.Sub)
}

func TestInsertIsNoOpWhenModesAlreadyEqual(t *testing.T) {
	sess := session.New(session.DefaultConfig())
	ins := New(sess)
	intMode := sess.Modes.Standard("INT", 0)

	n := checkedDenotation(intMode, soid.Strong(intMode))
	out := ins.Insert(n)

	require.Equal(t, n, out)
	require.Equal(t, node.Denotation, out.Attribute)
}

func TestInsertVoidsAMorfThroughDepreffing(t *testing.T) {
	sess := session.New(session.DefaultConfig())
	ins := New(sess)
	intMode := sess.Modes.Standard("INT", 0)
	refInt := sess.Modes.Register(mode.NewRef(intMode))
	voidMode := sess.Modes.Sentinel(mode.NameVoid)

	id := node.New(node.Identifier, node.Pos{}, "i")
	id.Mode = refInt
	id.Expected = soid.Soid{Sort: mode.Strong, Mode: voidMode}

	out := ins.Insert(id)
	require.Equal(t, node.Voiding, out.Attribute)
	require.Equal(t, node.Dereferencing, out.Sub.Attribute)
	require.Equal(t, id, out.Sub.Sub)
}

func TestRerunningInsertOnCoercedTreeIsNoOp(t *testing.T) {
	sess := session.New(session.DefaultConfig())
	ins := New(sess)
	intMode := sess.Modes.Standard("INT", 0)
	realMode := sess.Modes.Standard("REAL", 0)

	n := checkedDenotation(intMode, soid.Strong(realMode))
	first := ins.Insert(n)
	second := ins.Insert(first)
	require.Equal(t, first, second)
	require.Equal(t, n, second.Sub)
}

func TestHoistDenotationWideningCollapsesExactWidening(t *testing.T) {
	sess := session.New(session.DefaultConfig())
	ins := New(sess)
	intMode := sess.Modes.Standard("INT", 0)
	realMode := sess.Modes.Standard("REAL", 0)

	n := checkedDenotation(intMode, soid.Strong(realMode))
	widened := ins.Insert(n)

	root := &node.Node{Attribute: node.SerialClause, Sub: widened}
	hoisted := ins.HoistDenotationWidening(root, false)
	require.Equal(t, n, hoisted.Sub)
	require.Equal(t, realMode, hoisted.Sub.Mode)
	require.True(t, hoisted.Sub.HasStatus(node.Optimal))
}
