package session

import "errors"

var (
	// ErrMissingInput indicates neither a note nor any log text was provided
	ErrMissingInput = errors.New("no order log or note text provided")

	// ErrSessionNotFound indicates the session expired or never existed
	ErrSessionNotFound = errors.New("session not found")

	// ErrItemNotFound indicates the item is not in the pool or staging section
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidItem indicates an unknown item kind or section
	ErrInvalidItem = errors.New("invalid item kind or section")

	// ErrProblemNotFound indicates no live problem carries the requested title
	ErrProblemNotFound = errors.New("problem not found")

	// ErrDuplicateTitle indicates a new problem would repeat an existing title
	ErrDuplicateTitle = errors.New("duplicate problem title")
)
