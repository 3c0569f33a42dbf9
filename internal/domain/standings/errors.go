package standings

import "errors"

// Sentinel kinds for standings errors.
var (
	ErrUnknownSort = errors.New("unknown sort mode")
)
