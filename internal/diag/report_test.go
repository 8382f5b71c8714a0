package diag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ga68/genie/internal/node"
)

// wantJSON is compared against a Report's rendered form with cmp.Diff
// rather than a plain string equality check, the way the teacher's
// parser testutil compares golden output: a mismatch prints an
// aligned (-want +got) diff instead of two opaque strings.
func wantJSON(t *testing.T, r *Report, want string) {
	t.Helper()
	got, err := r.ToJSON(true)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Report.ToJSON mismatch (-want +got):\n%s", diff)
	}
}

func TestReportToJSONCompact(t *testing.T) {
	r := New("MCK001", PhaseMode, SeverityMode, nil, "mode mismatch", nil)
	wantJSON(t, r, `{"schema":"ga68.diag/v1","code":"MCK001","phase":"mode","severity":"mode","message":"mode mismatch"}`)
}

func TestReportCarriesNodePosition(t *testing.T) {
	n := node.New(node.FormulaNode, node.Pos{Line: 3, Column: 7}, "+")
	r := New("RUN001", PhaseRuntime, SeverityRuntime, n, "no active frame", nil)

	require.NotNil(t, r.Pos)
	require.Equal(t, 3, r.Pos.Line)
	require.Equal(t, "FORMULA", r.Construct)
}

func TestSinkSuppressesPastMaxErrors(t *testing.T) {
	s := NewSink()
	for i := 0; i < MaxErrors+5; i++ {
		s.Emit(New("MCK001", PhaseMode, SeverityMode, nil, "err", nil))
	}
	require.True(t, s.HasErrors())
	require.Equal(t, MaxErrors+5, s.ErrorCount())
	require.Equal(t, 5, s.Suppressed())
	require.Len(t, s.Reports(), MaxErrors)
}

func TestSinkForLine(t *testing.T) {
	s := NewSink()
	n := node.New(node.FormulaNode, node.Pos{Line: 12, Column: 1}, "+")
	s.Emit(New("WRN002", PhaseMode, SeverityWarning, n, "unused value", nil))

	require.Equal(t, []int{12}, s.Lines())
	require.Len(t, s.ForLine(12), 1)
	require.Empty(t, s.ForLine(99))
}

func TestWrapAndAsReportRoundtrip(t *testing.T) {
	r := New("RUN005", PhaseRuntime, SeverityRuntime, nil, "heap exhausted", nil)
	err := Wrap(r)

	got, ok := AsReport(err)
	require.True(t, ok)
	require.Same(t, r, got)
}
