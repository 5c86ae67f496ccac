package repository

import "errors"

var (
	// ErrNotFound marks a lookup whose subject does not exist. Reads over
	// series data treat it as "empty result"; rule deletion surfaces it.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a rule operation by a caller who is not the owner.
	ErrForbidden = errors.New("forbidden")
)
