package random

import "errors"

// Sentinel kinds for primitive misuse. These are programmer or configuration
// errors and are never retried.
var (
	ErrInvalidWeight = errors.New("invalid weight")
	ErrInvalidRange  = errors.New("invalid range")
)
