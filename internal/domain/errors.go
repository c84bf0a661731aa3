package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL          = errors.New("invalid target url")
	ErrInvalidCodeFormat   = errors.New("code must be 6-8 alphanumeric characters")
	ErrCodeConflict        = errors.New("code already exists")
	ErrAllocationExhausted = errors.New("no free code found within attempt budget")
	ErrNotFound            = errors.New("link not found")
	ErrStoreUnavailable    = errors.New("link store unavailable")
)

// ConflictError is returned by LinkStore.InsertIfAbsent when the code is
// already taken. It is the only store signal the domain translates.
type ConflictError struct {
	Code string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("code %q already exists", e.Code)
}

// Is lets errors.Is(err, ErrCodeConflict) match a store conflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrCodeConflict
}

// IsConflict reports whether err carries a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// unavailable tags a store failure so callers can match ErrStoreUnavailable
// while keeping the cause in the chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
