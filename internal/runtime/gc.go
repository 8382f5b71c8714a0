package runtime

// GCRoots bundles the root sets the mark phase walks (spec.md §4.5:
// "frame stack + expression stack + global pool + transput file
// handles").
type GCRoots struct {
	Frames    []*Frame
	ExprStack []Value
	Global    []Value
	Files     []Value
}

// Collect runs one mark-compact cycle over h's handle pool. It is the
// only place handle indices are renumbered, so it returns a remap
// table (old index -> new index, -1 if the handle was collected) that
// callers must apply to any index they cached outside of the values
// Collect itself walks (none should exist in this design, since every
// RefValue is reachable from a root and gets rewritten in place).
func (h *Heap) Collect(roots GCRoots) map[int]int {
	marked := make([]bool, len(h.pool.handles))

	var markValue func(v Value)
	markValue = func(v Value) {
		switch vv := v.(type) {
		case nil:
			return
		case *RefValue:
			if vv.R.HandleIndex >= 0 && vv.R.HandleIndex < len(marked) && !marked[vv.R.HandleIndex] {
				marked[vv.R.HandleIndex] = true
				h.pool.handles[vv.R.HandleIndex].Status |= HandleMarked
				markValue(h.pool.handles[vv.R.HandleIndex].value)
			}
		case *RowValue:
			for _, e := range vv.Elements {
				markValue(e)
			}
		case *StructValue:
			for _, f := range vv.Fields {
				markValue(f)
			}
		case *UnionValue:
			markValue(vv.Payload)
		case *ProcValue:
			for _, a := range vv.PartialArgs {
				markValue(a)
			}
		}
	}

	for _, f := range roots.Frames {
		for _, v := range f.Locals {
			markValue(v)
		}
	}
	for _, v := range roots.ExprStack {
		markValue(v)
	}
	for _, v := range roots.Global {
		markValue(v)
	}
	for _, v := range roots.Files {
		markValue(v)
	}

	// Compact: slide live handles down, building the remap table.
	remap := make(map[int]int, len(h.pool.handles))
	newHandles := make([]Handle, 0, len(h.pool.handles))
	newUsed := 0
	for i, hd := range h.pool.handles {
		if hd.Status&HandleLive == 0 || !marked[i] {
			remap[i] = -1
			continue
		}
		hd.Pointer = newUsed
		hd.Status &^= HandleMarked
		remap[i] = len(newHandles)
		newUsed += hd.Size
		newHandles = append(newHandles, hd)
	}
	h.pool.handles = newHandles
	h.pool.free = nil
	h.used = newUsed

	// Rewrite every surviving RefValue's HandleIndex through remap,
	// preserving observational equivalence (property P6).
	// A RefValue reachable along several paths is the same pointer each
	// time; rewritten makes sure remap is applied to it only once.
	rewritten := map[*RefValue]bool{}
	var rewrite func(v Value)
	rewrite = func(v Value) {
		switch vv := v.(type) {
		case *RefValue:
			if rewritten[vv] {
				return
			}
			rewritten[vv] = true
			if vv.R.HandleIndex >= 0 {
				vv.R.HandleIndex = remap[vv.R.HandleIndex]
			}
		case *RowValue:
			for _, e := range vv.Elements {
				rewrite(e)
			}
		case *StructValue:
			for _, f := range vv.Fields {
				rewrite(f)
			}
		case *UnionValue:
			rewrite(vv.Payload)
		case *ProcValue:
			for _, a := range vv.PartialArgs {
				rewrite(a)
			}
		}
	}
	for _, f := range roots.Frames {
		for _, v := range f.Locals {
			rewrite(v)
		}
	}
	for _, v := range roots.ExprStack {
		rewrite(v)
	}
	for _, v := range roots.Global {
		rewrite(v)
	}
	for _, v := range roots.Files {
		rewrite(v)
	}
	for i := range h.pool.handles {
		rewrite(h.pool.handles[i].value)
	}

	return remap
}
