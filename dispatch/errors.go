package dispatch

import "errors"

// Sentinel errors named after the ClickHouse error codes they replace
// (see spec.md §7), wrapped with fmt.Errorf's %w at each call site rather
// than carried as bespoke error types - the same convention
// compute/exec/functions/exec.go uses for ErrNotImplemented.
var (
	// ErrArityMismatch is returned when a call's argument count does not
	// satisfy a function's Arity, or when the constants default is asked
	// to run over a call whose every argument is in AlwaysConstantArgs,
	// leaving nothing to unwrap.
	ErrArityMismatch = errors.New("dispatch: number of arguments doesn't match")

	// ErrIllegalColumn is returned when a column violates a structural
	// requirement the dispatch engine or a kernel depends on - most
	// commonly an AlwaysConstantArgs position that was not passed a Const.
	ErrIllegalColumn = errors.New("dispatch: illegal column")

	// ErrLogicError marks a condition dispatch itself should never reach
	// given a well-formed Function and Block - e.g. more than one
	// dictionary-encoded argument in a single call.
	ErrLogicError = errors.New("dispatch: logic error")
)
