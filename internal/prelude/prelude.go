// Package prelude is the out-of-scope "standard prelude of built-in
// operators and transput" spec.md §1 names, reduced to the minimal
// external-collaborator interface spec.md §6 requires: a lookup by
// (name, lhs-mode, rhs-mode) returning an operator tag whose mode is
// the operator's procedure type, and file objects opaque to the
// mode/coercion core. The mode checker resolves formulas against these
// tags; internal/genie does not consult them at execution time and
// applies built-in operators through its own fixed switch
// (applyOperator).
package prelude

import (
	"fmt"
	"io"
	"strings"

	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/runtime"
)

// Install populates tbl with the standard operators spec.md §6's
// "Outbound to the prelude" interface promises, covering the modes
// named throughout spec.md (INT, REAL, LONG variants, BOOL, CHAR) so
// the §8 end-to-end scenarios run without a real prelude.
func Install(r *mode.Registry, tbl *node.SymbolTable) {
	boolM := r.Standard("BOOL", 0)
	charM := r.Standard("CHAR", 0)

	for _, longness := range []int{0, 1, 2} {
		intM := r.Standard("INT", longness)
		realM := r.Standard("REAL", longness)
		for _, numM := range []*mode.Mode{intM, realM} {
			addDyadic(r, tbl, "+", numM, numM, numM)
			addDyadic(r, tbl, "-", numM, numM, numM)
			addDyadic(r, tbl, "*", numM, numM, numM)
			addDyadic(r, tbl, "/", numM, numM, realM)
			addDyadic(r, tbl, "=", numM, numM, boolM)
			addDyadic(r, tbl, "/=", numM, numM, boolM)
			addDyadic(r, tbl, "<", numM, numM, boolM)
			addDyadic(r, tbl, ">", numM, numM, boolM)
			addDyadic(r, tbl, "<=", numM, numM, boolM)
			addDyadic(r, tbl, ">=", numM, numM, boolM)
			addMonadic(r, tbl, "-", numM, numM)
			addMonadic(r, tbl, "ABS", numM, numM)
		}
	}

	addDyadic(r, tbl, "AND", boolM, boolM, boolM)
	addDyadic(r, tbl, "OR", boolM, boolM, boolM)
	addMonadic(r, tbl, "NOT", boolM, boolM)
	addDyadic(r, tbl, "=", charM, charM, boolM)
	addDyadic(r, tbl, "+", charM, charM, r.Register(mode.NewRow(1, charM)))
}

// InstallTransput wires the minimal file-object stub spec.md §6's
// "Outbound to the prelude / transput" boundary promises: `print` and
// its alias `write` (each call ends its output with a newline), to
// drive the §8 end-to-end scenarios' output to
// out, stowed into a `*runtime.ProcValue` bound directly on the
// identifier's Tag (see node.Tag.Builtin) rather than through a frame,
// since the standard environment has no activation record of its own.
func InstallTransput(r *mode.Registry, tbl *node.SymbolTable, out io.Writer) {
	voidM := r.Sentinel(mode.NameVoid)
	print := &runtime.ProcValue{M: r.Register(mode.NewProc(nil, voidM)), Builtin: func(args []runtime.Value) (runtime.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = stringify(a)
		}
		if _, err := fmt.Fprintln(out, strings.Join(parts, "")); err != nil {
			return nil, err
		}
		return &runtime.VoidValue{M: voidM}, nil
	}}
	tbl.AddIdentifier(&node.Tag{Name: "print", Builtin: print})
	tbl.AddIdentifier(&node.Tag{Name: "write", Builtin: print})
}

// stringify renders a value the way a68g's default (unformatted)
// transput would: a row of CHAR prints as its text, any other row or
// struct (a SIMPLOUT stowed value) prints its elements space-separated.
func stringify(v runtime.Value) string {
	switch vv := v.(type) {
	case *runtime.RowValue:
		allChar := len(vv.Elements) > 0
		for _, e := range vv.Elements {
			if _, ok := e.(*runtime.CharValue); !ok {
				allChar = false
				break
			}
		}
		if allChar {
			var sb strings.Builder
			for _, e := range vv.Elements {
				sb.WriteString(e.String())
			}
			return sb.String()
		}
		parts := make([]string, len(vv.Elements))
		for i, e := range vv.Elements {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, " ")
	case *runtime.StructValue:
		parts := make([]string, len(vv.Fields))
		for i, f := range vv.Fields {
			parts[i] = stringify(f)
		}
		return strings.Join(parts, " ")
	default:
		return v.String()
	}
}

func addDyadic(r *mode.Registry, tbl *node.SymbolTable, name string, lhs, rhs, result *mode.Mode) {
	procMode := r.Register(mode.NewProc([]*mode.Mode{lhs, rhs}, result))
	tbl.AddOperator(&node.Tag{Name: name, Mode: procMode})
}

func addMonadic(r *mode.Registry, tbl *node.SymbolTable, name string, operand, result *mode.Mode) {
	procMode := r.Register(mode.NewProc([]*mode.Mode{operand}, result))
	tbl.AddOperator(&node.Tag{Name: name, Mode: procMode})
}
