// Package diag implements the structured diagnostics spec.md §7
// mandates: every emitted message carries a severity, file, line, a
// byte-offset pointer into the line, a rendered moid string, and the
// enclosing construct's attribute. It is grounded on the teacher's
// internal/errors package (Report/ReportError, JSON encoding with
// sorted keys, a per-phase error-code taxonomy) generalized from
// AILANG's compiler phases to this module's phases.
package diag

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ga68/genie/internal/node"
)

// Severity is one of the kinds spec.md §7 names.
type Severity string

const (
	SeveritySyntax   Severity = "syntax"
	SeverityMode     Severity = "mode"
	SeverityWarning  Severity = "warning"
	SeverityRuntime  Severity = "runtime"
	SeverityForced   Severity = "forced-quit"
	SeverityRerun    Severity = "rerun"
)

// Phase identifies which pass produced the diagnostic.
type Phase string

const (
	PhaseParse   Phase = "parse"
	PhaseMode    Phase = "mode"
	PhaseCoerce  Phase = "coerce"
	PhaseRuntime Phase = "runtime"
)

// Report is the canonical structured diagnostic, modeled directly on
// the teacher's errors.Report (schema, code, phase, message, span,
// data, fix), but anchored to a node.Pos instead of an ast.Span and
// carrying the enclosing construct's attribute per spec.md §7.
type Report struct {
	Schema    string         `json:"schema"`
	Code      string         `json:"code"`
	Phase     Phase          `json:"phase"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Pos       *node.Pos      `json:"pos,omitempty"`
	Construct string         `json:"construct,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As unwrapping.
type ReportError struct{ Rep *Report }

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// AsReport extracts a Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap wraps a Report as an error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders the report with sorted keys (Go's encoding/json sorts
// map keys and struct fields are already declared in a stable order).
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// New builds a Report anchored to n, the node whose coercion/mode
// check failed or warned.
func New(code string, phase Phase, sev Severity, n *node.Node, msg string, data map[string]any) *Report {
	r := &Report{
		Schema:   "ga68.diag/v1",
		Code:     code,
		Phase:    phase,
		Severity: sev,
		Message:  msg,
		Data:     data,
	}
	if n != nil {
		p := n.Pos
		r.Pos = &p
		r.Construct = n.Attribute.String()
	}
	return r
}
