package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyResolved = errors.New("game already resolved")
	ErrClockBackwards  = errors.New("universe clock cannot move backwards")
	ErrInvalidLeague   = errors.New("invalid league")
)
