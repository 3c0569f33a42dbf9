package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("round not found")
	ErrAlreadyPosted = errors.New("round already posted")
)
