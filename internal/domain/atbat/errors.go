package atbat

import "errors"

// Sentinel kinds for at-bat resolution.
var (
	ErrResolved  = errors.New("at-bat already resolved")
	ErrPitchCap  = errors.New("at-bat exceeded pitch cap")
	ErrNoPitches = errors.New("pitcher has no usable pitches")
)
