package modecheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/session"
	"github.com/ga68/genie/internal/soid"
)

func newTestSession() *session.Session {
	return session.New(session.DefaultConfig())
}

func TestCheckDenotationWidensToReal(t *testing.T) {
	sess := newTestSession()
	chk := New(sess)
	intMode := sess.Modes.Standard("INT", 0)
	realMode := sess.Modes.Standard("REAL", 0)

	n := node.New(node.Denotation, node.Pos{}, "3")
	n.Mode = intMode

	// Check accepts the INT yield in a Strong REAL context and returns
	// the yield itself; the widening node is left to the coercion
	// inserter, which reads the expectation back off n.Expected.
	y := chk.Check(n, soid.Strong(realMode))
	require.False(t, sess.Diag.HasErrors())
	require.Equal(t, intMode, y.Mode)
	require.Equal(t, realMode, n.Expected.(soid.Soid).Mode)
}

func TestCheckSerialClauseEmptyIsErrorNoUniqueMode(t *testing.T) {
	sess := newTestSession()
	chk := New(sess)
	n := node.New(node.SerialClause, node.Pos{}, "")

	chk.Check(n, soid.Strong(sess.Modes.Sentinel(mode.NameVoid)))
	require.True(t, sess.Diag.HasErrors())
	require.Equal(t, diagCodeOf(sess), "MCK002")
}

func diagCodeOf(sess *session.Session) string {
	reports := sess.Diag.Reports()
	if len(reports) == 0 {
		return ""
	}
	return reports[0].Code
}

func TestCheckIdentifierUndeclaredIsModeError(t *testing.T) {
	sess := newTestSession()
	chk := New(sess)
	tbl := node.NewSymbolTable(nil)
	n := node.New(node.Identifier, node.Pos{}, "x")
	n.Symbol = tbl

	chk.Check(n, soid.Strong(sess.Modes.Standard("INT", 0)))
	require.True(t, sess.Diag.HasErrors())
}

func TestCheckAssignationRequiresName(t *testing.T) {
	sess := newTestSession()
	chk := New(sess)
	intMode := sess.Modes.Standard("INT", 0)
	refInt := sess.Modes.Register(mode.NewRef(intMode))

	tbl := node.NewSymbolTable(nil)
	destTag := &node.Tag{Name: "i", Mode: refInt}
	tbl.AddIdentifier(destTag)

	dest := node.New(node.Identifier, node.Pos{}, "i")
	dest.Symbol = tbl
	dest.Tag = destTag

	src := node.New(node.Denotation, node.Pos{}, "5")
	src.Mode = intMode
	dest.Next = src

	n := node.New(node.Assignation, node.Pos{}, "")
	n.Sub = dest

	y := chk.Check(n, soid.Strong(sess.Modes.Sentinel(mode.NameVoid)))
	require.False(t, sess.Diag.HasErrors())
	require.Equal(t, refInt, y.Mode)
}

func TestUnionCollapsesSingleAlternative(t *testing.T) {
	sess := newTestSession()
	intMode := sess.Modes.Standard("INT", 0)
	united := sess.Modes.MakeUnited(mode.NewSeries([]mode.Field{{Mode: intMode}}))
	require.Equal(t, intMode, united)
}
