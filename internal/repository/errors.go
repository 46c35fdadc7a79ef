package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientPending is returned when a commission payment
	// exceeds the driver's pending commission.
	ErrInsufficientPending = errors.New("payment exceeds pending commission")
)
