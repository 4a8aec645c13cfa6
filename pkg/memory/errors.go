package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage is returned when the underlying database is unreachable
	// or produced a corrupt response. It is never retried here.
	ErrStorage = errors.New("memory storage failure")

	// ErrNotFound is returned when a memory key does not resolve to an
	// active record in the given user scope.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidRecord is returned when a record fails validation before
	// any write is attempted.
	ErrInvalidRecord = errors.New("invalid memory record")

	// ErrInvalidWeight is returned when a keyword weight falls outside [0,1].
	ErrInvalidWeight = errors.New("keyword weight must be within [0,1]")
)

// wrapStorage tags err as a storage failure while keeping the driver error
// inspectable through errors.Is and errors.As.
func wrapStorage(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}
