package analyzer

import "errors"

// Sentinel kinds for analyzer errors.
var (
	ErrAnalyzerDisabled = errors.New("image analysis is not configured")
	ErrAnalysisFailed   = errors.New("image analysis failed")
	ErrEmptyImage       = errors.New("image is empty")
	ErrMissingAPIKey    = errors.New("analyzer api key is required")
)
