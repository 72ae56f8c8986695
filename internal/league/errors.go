package league

import "errors"

var (
	// ErrInvalidConfig is returned when a generator option is out of range.
	ErrInvalidConfig = errors.New("invalid league config")
	// ErrVerification is returned when a driven run does not add up.
	ErrVerification = errors.New("verification failed")
)
