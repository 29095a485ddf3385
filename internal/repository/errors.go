package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrValidation is wrapped by every input validation error.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidName is returned when a driver name is empty.
	ErrInvalidName = fmt.Errorf("%w: name is required", ErrValidation)

	// ErrInvalidPhone is returned when a phone number has fewer than ten digits.
	ErrInvalidPhone = fmt.Errorf("%w: phone must contain at least 10 digits", ErrValidation)
)
