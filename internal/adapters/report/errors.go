package report

import "errors"

// Sentinel kinds for report errors.
var (
	ErrUnknownFormat = errors.New("unknown report format")
	ErrInvalidLocale = errors.New("invalid currency locale")
)
