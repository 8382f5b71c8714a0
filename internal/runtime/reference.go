package runtime

import "fmt"

// RefStatus is a bitmask describing the state of a name (spec.md §3
// "Reference").
type RefStatus uint8

const (
	RefInitialised RefStatus = 1 << iota
	RefInHeap
	RefNil
)

// Reference either points into a frame (Offset valid, HandleIndex < 0)
// or through a handle into the heap (HandleIndex valid, HandleOffset
// adds a byte offset within that block, e.g. for a struct field
// selected through a REF). Scope is the dynamic scope that must
// outlive it; it is checked on every assignment through the name
// (spec.md §4.5 "Static vs dynamic scope").
type Reference struct {
	Status       RefStatus
	Scope        int
	FrameIndex   int // which frame this offset is relative to, or -1 for heap
	Offset       int // slot offset within the frame (a Frame.Locals index)
	HandleIndex  int // index into the handle pool, or -1 if not heap-backed
	HandleOffset int
}

func (r Reference) String() string {
	if r.Status&RefNil != 0 {
		return "NIL"
	}
	if r.HandleIndex >= 0 {
		return fmt.Sprintf("heap#%d+%d@scope%d", r.HandleIndex, r.HandleOffset, r.Scope)
	}
	return fmt.Sprintf("frame#%d+%d@scope%d", r.FrameIndex, r.Offset, r.Scope)
}

// IsNil reports whether this reference is the Algol 68 NIL value.
func (r Reference) IsNil() bool { return r.Status&RefNil != 0 }

// NilReference is the canonical NIL reference.
var NilReference = Reference{Status: RefNil, HandleIndex: -1}

// ScopeError is raised when an assignment would let a reference
// escape its scope (testable property P7, spec.md §4.5 and §7 RUN004).
type ScopeError struct {
	SourceScope, DestScope int
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("scope violation: source scope %d does not outlive destination scope %d", e.SourceScope, e.DestScope)
}

// CheckScope enforces spec.md property P7: scope(source) >= scope(dest).
func CheckScope(sourceScope, destScope int) error {
	if sourceScope < destScope {
		return &ScopeError{SourceScope: sourceScope, DestScope: destScope}
	}
	return nil
}
