package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("shot not found")
	ErrDuplicateID = errors.New("shot id already exists")
	ErrEmptyID     = errors.New("shot id is empty")
)
