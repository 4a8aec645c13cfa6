package search

import "errors"

var (
	// ErrInvalidArgument is returned when search parameters fail validation.
	// No I/O happens before this check.
	ErrInvalidArgument = errors.New("invalid search argument")

	// ErrSearchUnavailable is returned when every hybrid branch failed and
	// there is nothing left to degrade to.
	ErrSearchUnavailable = errors.New("search unavailable")
)
