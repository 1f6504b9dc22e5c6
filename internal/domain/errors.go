package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrUnauthenticated   = errors.New("unauthenticated")    // 401
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrNotFound          = errors.New("not found")          // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrInvalidState      = errors.New("invalid state")      // 409
	ErrConflict          = errors.New("conflict")           // 409
	ErrPersistence       = errors.New("persistence")        // 500
)

var kinds = []error{
	ErrValidation,
	ErrUnauthenticated,
	ErrForbidden,
	ErrNotFound,
	ErrInsufficientStock,
	ErrInvalidState,
	ErrConflict,
	ErrPersistence,
}

// IsKind reports whether err already carries one of the domain kinds.
func IsKind(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Persistence tags a store failure unless it is already classified.
func Persistence(op string, err error) error {
	if err == nil || IsKind(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
