package models

import "errors"

// Error taxonomy. Per-holding failures wrap one of these and are reported as
// annotations on the holding's result rather than aborting an analysis.
var (
	// ErrNotFound means an identifier could not be resolved by its provider.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means no positive price could be obtained.
	ErrUnavailable = errors.New("price unavailable")
	// ErrUnresolved means a holding has no derivable unit count.
	ErrUnresolved = errors.New("unresolved")
	// ErrNotApplicable means a return metric has no defined value.
	ErrNotApplicable = errors.New("not applicable")
	// ErrInvalidHolding rejects malformed user input.
	ErrInvalidHolding = errors.New("invalid holding")
	// ErrHoldingNotFound means no stored holding has the requested ID.
	ErrHoldingNotFound = errors.New("holding not found")
)
