// Package repl is the interactive `--monitor` front end spec.md §6
// names as a CLI flag and §7 describes as having "a local [landing
// pad]" rather than unwinding all the way to the interpreter's
// top-level one. It arms an internal/genie Engine's breakpoint hook
// and, each time execution reaches a node.Breakpoint-tagged node,
// drives a small liner-backed command loop over the session's frame
// stack — the teacher's internal/repl/repl.go drives its own prompt
// loop the same way, over liner.State plus fatih/color for the
// banner and error coloring.
package repl

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/ga68/genie/internal/genie"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/session"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Monitor owns the liner session and the frame-stack view the
// breakpoint hook prints from.
type Monitor struct {
	sess *session.Session
	out  io.Writer
	line *liner.State
}

// New creates a Monitor writing its prompt and stack dumps to out.
func New(sess *session.Session, out io.Writer) *Monitor {
	return &Monitor{sess: sess, out: out}
}

// Break tags every node at the given source line with node.Breakpoint
// (a stand-in for a real monitor's "breakpoint <file>:<line>" command,
// since this module carries no listing/line-index pass of its own —
// spec.md's Node.STATUS already reserves the bit this just sets).
func Break(root *node.Node, line int) {
	var walk func(n *node.Node)
	walk = func(n *node.Node) {
		if n == nil {
			return
		}
		if n.Pos.Line == line {
			n.SetStatus(node.Breakpoint)
		}
		for c := n.Sub; c != nil; c = c.Next {
			walk(c)
		}
	}
	walk(root)
}

// Hook is installed as genie.Engine.Monitor. It is called only when
// the genie reaches a node.Breakpoint-tagged node (single-instruction
// stepping through every node would need the genie to consult the
// monitor unconditionally, which is a follow-up — breakpoints are the
// supported granularity here).
func (m *Monitor) Hook(e *genie.Engine, n *node.Node) error {
	if m.line == nil {
		m.line = liner.NewLiner()
		m.line.SetCtrlCAborts(true)
	}
	fmt.Fprintf(m.out, "%s %s at %s\n", yellow("breakpoint:"), n, n.Pos)
	for {
		input, err := m.line.Prompt(cyan("monitor> "))
		if err != nil {
			if err == io.EOF {
				return &genie.ForcedQuitError{}
			}
			fmt.Fprintf(m.out, "%s: %v\n", red("error"), err)
			continue
		}
		m.line.AppendHistory(input)
		switch input {
		case "", "continue", "c":
			return nil
		case "stack", "bt":
			m.dumpStack()
		case "rerun":
			return &genie.RerunRequestedError{}
		case "exit", "quit", "q":
			return &genie.ForcedQuitError{}
		case "help", "h", "?":
			fmt.Fprintln(m.out, dim("commands: continue|c, stack|bt, rerun, exit|quit"))
		default:
			fmt.Fprintf(m.out, "%s: unknown monitor command %q (try \"help\")\n", red("error"), input)
		}
	}
}

// dumpStack prints the session's current frame stack, newest first
// (spec.md §7 "--backtrace" stack dump at error time, reused here for
// the monitor's `stack` command).
func (m *Monitor) dumpStack() {
	frames := m.sess.Frames.Frames()
	if len(frames) == 0 {
		fmt.Fprintln(m.out, dim("  (empty)"))
		return
	}
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(m.out, "  frame %d: static=%d dynamic=%d level=%d\n",
			f.Index, f.StaticLink, f.DynamicLink, f.LexicalLevel)
	}
}

// Close releases the monitor's line editor.
func (m *Monitor) Close() {
	if m.line != nil {
		m.line.Close()
		m.line = nil
	}
}
