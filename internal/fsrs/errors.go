package fsrs

import "errors"

// Sentinel errors. Check with errors.Is.
var (
	ErrInvalidRating = errors.New("fsrs: invalid rating")
	ErrInvalidState  = errors.New("fsrs: invalid state")
)
