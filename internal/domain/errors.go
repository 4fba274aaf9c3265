package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("concurrent modification")
	ErrInvalidState        = errors.New("invalid state")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrForbidden           = errors.New("forbidden")

	// ErrNegativeAmount is a validation error.
	ErrNegativeAmount = fmt.Errorf("%w: amount must not be negative", ErrValidation)
	// ErrAmountOverflow is a validation error for sums that do not fit in int64.
	ErrAmountOverflow = fmt.Errorf("%w: amount is too large", ErrValidation)
)
