package handicap

import "errors"

// Sentinel kinds for handicap computation errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
