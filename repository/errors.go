package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrDuplicateUsername is returned when the users.username constraint rejects an insert.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidQuantity is returned when a donation quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint && se.ExtendedCode == code
	}
	return false
}

func isUniqueViolation(err error) bool { return isConstraint(err, sqlite3.ErrConstraintUnique) }

func isCheckViolation(err error) bool { return isConstraint(err, sqlite3.ErrConstraintCheck) }
