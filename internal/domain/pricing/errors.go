package pricing

import "errors"

// Sentinel kinds for pricing errors.
var (
	ErrInvalidTier = errors.New("invalid pricing tier")
)
