package diag

// Error code constants, organized by phase, mirroring the teacher's
// internal/errors/codes.go taxonomy (PAR###, MOD###, ... → here
// PAR###, MCK###, COE###, RUN###).
const (
	// Parse errors (out of scope in depth, but the minimal parser
	// still needs a few codes to report its own failures).
	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // missing closing delimiter

	// Mode checker errors (C3, spec.md §4.3).
	MCK001 = "MCK001" // no coercion exists from inferred to expected soid
	MCK002 = "MCK002" // ERROR_NO_UNIQUE_MODE: empty series pack
	MCK003 = "MCK003" // identifier/operator not declared
	MCK004 = "MCK004" // field not found in struct
	MCK005 = "MCK005" // ambiguous operator resolution
	MCK006 = "MCK006" // assignation destination is not a name
	MCK007 = "MCK007" // identity relation operand is not a name

	// Warnings (spec.md §7).
	WRN001 = "WRN001" // UNINTENDED: hidden GENERATOR in identity declaration
	WRN002 = "WRN002" // voided non-trivial value
	WRN003 = "WRN003" // widening not portable (portcheck)
	WRN004 = "WRN004" // language extension used under --strict/--portcheck

	// Coercion inserter errors (C4, spec.md §4.4) — should not occur
	// on a successfully mode-checked tree; reported as internal errors.
	COE001 = "COE001" // no depreffing coercion found for an already-checked pair

	// Runtime errors (spec.md §7).
	RUN001 = "RUN001" // uninitialized access
	RUN002 = "RUN002" // division by zero
	RUN003 = "RUN003" // range check failure
	RUN004 = "RUN004" // scope violation
	RUN005 = "RUN005" // heap exhaustion
	RUN006 = "RUN006" // stack overflow
	RUN007 = "RUN007" // assertion failure
	RUN008 = "RUN008" // system error from transput
	RUN009 = "RUN009" // malformed literal reaching the genie (should not occur post-check)
)
