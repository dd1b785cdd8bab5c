package orders

import "errors"

var (
	// ErrNotFound indicates no order exists for the given identifier.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition indicates a status update that the lifecycle
	// does not permit, such as a terminal order moving back to running.
	ErrInvalidTransition = errors.New("invalid status transition")
)
