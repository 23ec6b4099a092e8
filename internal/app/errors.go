package app

import (
	"errors"

	"donationRegistry/internal/auth"
	"donationRegistry/repository"
)

var (
	// ErrMissingFields is returned when a required input is empty.
	ErrMissingFields = errors.New("missing required fields")
	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrRegistrationFailed wraps any persistence failure during registration
	// other than a duplicate username.
	ErrRegistrationFailed = errors.New("registration failed")

	ErrDuplicateUsername = repository.ErrDuplicateUsername
	ErrInvalidQuantity   = repository.ErrInvalidQuantity
	ErrUnauthenticated   = auth.ErrUnauthenticated
)
