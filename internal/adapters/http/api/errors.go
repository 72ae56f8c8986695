package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrNotReady   = errors.New("not ready")
)

// NewKind tags a sentinel kind with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags err with op and kind so callers can match either.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Wrap adds op context to err.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
