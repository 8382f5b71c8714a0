// Package session threads the interpreter's otherwise-global mutable
// state — the mode registry, the diagnostics sink, the three runtime
// segments, and the RNG — through an explicit object, per spec.md §9's
// design note ("Global mutable state ... represent as an explicit
// session object threaded through the API"). Nothing here is a
// package-level var: every entry point takes a *Session.
package session

import (
	"math/rand"
	"time"

	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/runtime"
)

// Config mirrors the CLI surface in spec.md §6.
type Config struct {
	Check           bool // --check / --norun
	Strict          bool // --strict
	PortCheck       bool // --portcheck
	StackSize       int  // --stack
	FrameSize       int  // --frame
	HeapSize        int  // --heap
	HandleCount     int  // --handles
	Trace           bool
	Debug           bool
	Monitor         bool
	TimeLimit       time.Duration // --timelimit
	RegressionTest  bool          // --regression-test: seed RNG from 1
	NoWarnings      bool
	Quiet           bool
	Backtrace       bool
}

// DefaultConfig matches a68g-family default segment sizes, scaled down
// to sane defaults for this implementation.
func DefaultConfig() Config {
	return Config{
		StackSize:   1 << 20,
		FrameSize:   4096, // frame count, not bytes, in this substrate (see runtime.FrameStack)
		HeapSize:    1 << 22,
		HandleCount: 1 << 16,
	}
}

// ExitKind partitions the non-zero exit codes spec.md §6 names.
type ExitKind int

const (
	ExitNormal ExitKind = iota
	ExitRuntimeError
	ExitModeError
	ExitSyntaxError
	ExitForcedQuit
	ExitRerunRequested
)

// Session is the per-run state object.
type Session struct {
	Config Config

	Modes *mode.Registry
	Diag  *diag.Sink

	Frames *runtime.FrameStack
	Exprs  *runtime.ExprStack
	Heap   *runtime.Heap

	Global []runtime.Value // the global (lexical level 0) bindings, a GC root
	Files  []runtime.Value // open transput file objects, a GC root

	RNG *rand.Rand

	// Abort is the cooperative cancellation flag PAR clauses and the
	// time-limit signal handler set (spec.md §5).
	Abort bool

	// collecting is not read or set anywhere; the serialization PAR
	// branches need around collection lives in internal/genie's
	// Engine.memMu.
	collecting bool
}

// New builds a Session, allocating the runtime segments per cfg.
func New(cfg Config) *Session {
	seed := time.Now().UnixNano()
	if cfg.RegressionTest {
		seed = 1
	}
	return &Session{
		Config: cfg,
		Modes:  mode.NewRegistry(),
		Diag:   diag.NewSink(),
		Frames: runtime.NewFrameStack(cfg.FrameSize),
		Exprs:  runtime.NewExprStack(cfg.StackSize),
		Heap:   runtime.NewHeap(cfg.HeapSize),
		RNG:    rand.New(rand.NewSource(seed)),
	}
}

// MaybeCollect runs a GC cycle if the heap has crossed its high-water
// mark (spec.md §4.5). It is idempotent with respect to reachability:
// running it twice in a row with no intervening allocation is a no-op
// beyond the second pass finding nothing new to compact.
func (s *Session) MaybeCollect() {
	if !s.Heap.NeedsCollection() {
		return
	}
	s.Collect()
}

// Collect forces a GC cycle now, gathering roots from every segment
// and the global/file pools (spec.md §4.5 "mark phase walks roots").
func (s *Session) Collect() map[int]int {
	return s.Heap.Collect(runtime.GCRoots{
		Frames:    s.Frames.Frames(),
		ExprStack: s.Exprs.Values(),
		Global:    s.Global,
		Files:     s.Files,
	})
}

// ExitCode maps an ExitKind to the process exit code spec.md §6 promises.
func (k ExitKind) ExitCode() int {
	switch k {
	case ExitNormal:
		return 0
	case ExitRuntimeError:
		return 1
	case ExitModeError:
		return 2
	case ExitSyntaxError:
		return 3
	case ExitForcedQuit:
		return 4
	case ExitRerunRequested:
		return 5
	default:
		return 1
	}
}
