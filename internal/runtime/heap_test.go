package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ga68/genie/internal/mode"
)

func TestHeapGeneratorAndLoad(t *testing.T) {
	h := NewHeap(1024)
	intMode := mode.NewRegistry().Standard("INT", 0)

	ref, err := h.Generator(intMode, 8, &IntValue{M: intMode})
	require.NoError(t, err)
	require.True(t, ref.Status&RefInHeap != 0)

	v, err := h.Load(ref.HandleIndex)
	require.NoError(t, err)
	require.Equal(t, intMode, v.Mode())
}

func TestHeapExhaustion(t *testing.T) {
	h := NewHeap(8)
	intMode := mode.NewRegistry().Standard("INT", 0)

	_, err := h.Generator(intMode, 8, &IntValue{M: intMode})
	require.NoError(t, err)

	_, err = h.Generator(intMode, 8, &IntValue{M: intMode})
	require.Error(t, err)
	require.IsType(t, &HeapExhaustedError{}, err)
}

func TestCollectPreservesReachableValuesAndCompacts(t *testing.T) {
	h := NewHeap(1024)
	intMode := mode.NewRegistry().Standard("INT", 0)

	keep, err := h.Generator(intMode, 8, &IntValue{M: intMode})
	require.NoError(t, err)
	_, err = h.Generator(intMode, 8, &IntValue{M: intMode}) // unreachable, collected
	require.NoError(t, err)

	keptRef := &RefValue{M: mode.NewRef(intMode), R: keep}
	remap := h.Collect(GCRoots{Global: []Value{keptRef}})

	require.Equal(t, 1, len(h.pool.handles), "unreachable handle should be compacted away")
	require.NotEqual(t, -1, remap[keep.HandleIndex])
	require.Equal(t, keptRef.R.HandleIndex, remap[keep.HandleIndex])

	v, err := h.Load(keptRef.R.HandleIndex)
	require.NoError(t, err)
	require.Equal(t, intMode, v.Mode())
}

func TestCheckScope(t *testing.T) {
	require.NoError(t, CheckScope(5, 3))
	require.NoError(t, CheckScope(3, 3))
	require.Error(t, CheckScope(2, 5))
}

func TestFrameUninitialisedAccess(t *testing.T) {
	f := NewFrame(0, -1, -1, 0, 0, 2)
	_, err := f.GetLocal(0)
	require.Error(t, err)
	require.IsType(t, &UninitialisedAccessError{}, err)

	f.SetLocal(0, &IntValue{})
	v, err := f.GetLocal(0)
	require.NoError(t, err)
	require.NotNil(t, v)
}
