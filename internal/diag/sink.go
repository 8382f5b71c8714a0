package diag

import "sort"

// MaxErrors bounds how many mode errors the checker keeps emitting
// before it suppresses further messages while still counting them
// (spec.md §7: "continue checking other constructs up to MAX_ERRORS;
// then suppress further but keep counting").
const MaxErrors = 25

// Sink accumulates diagnostics per source line so a listing pass can
// render carets under offending tokens and number the messages
// (spec.md §7).
type Sink struct {
	byLine  map[int][]*Report
	order   []*Report
	errors  int
	suppressed int
}

// NewSink creates an empty diagnostics sink.
func NewSink() *Sink {
	return &Sink{byLine: map[int][]*Report{}}
}

// Emit records r, unless it is a mode/syntax/runtime error and the
// sink has already reached MaxErrors, in which case it is counted in
// Suppressed but not rendered.
func (s *Sink) Emit(r *Report) {
	if r == nil {
		return
	}
	isHardError := r.Severity == SeverityMode || r.Severity == SeveritySyntax || r.Severity == SeverityRuntime
	if isHardError {
		s.errors++
		if s.errors > MaxErrors {
			s.suppressed++
			return
		}
	}
	s.order = append(s.order, r)
	if r.Pos != nil {
		s.byLine[r.Pos.Line] = append(s.byLine[r.Pos.Line], r)
	}
}

// Reports returns every recorded diagnostic in emission order.
func (s *Sink) Reports() []*Report { return s.order }

// ErrorCount returns the total number of hard errors seen, including
// suppressed ones (spec.md §7's "keep counting").
func (s *Sink) ErrorCount() int { return s.errors }

// Suppressed returns how many hard errors were dropped past MaxErrors.
func (s *Sink) Suppressed() int { return s.suppressed }

// HasErrors reports whether any mode/syntax/runtime error was emitted.
func (s *Sink) HasErrors() bool { return s.errors > 0 }

// Lines returns the sorted set of source lines carrying diagnostics,
// for a listing pass to iterate in order.
func (s *Sink) Lines() []int {
	lines := make([]int, 0, len(s.byLine))
	for l := range s.byLine {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// ForLine returns the diagnostics attached to a given source line.
func (s *Sink) ForLine(line int) []*Report { return s.byLine[line] }
