package service

import (
	"errors"

	"github.com/okian/framecount/internal/adapters/analyzer"
	"github.com/okian/framecount/internal/adapters/mq/queue"
)

// Sentinel kinds for service errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateName    = errors.New("shot name already exists")
	ErrInvalidName      = errors.New("shot name is empty")
	ErrInvalidFrames    = errors.New("frames must be >= 0")
	ErrInvalidTiers     = errors.New("invalid pricing tiers")
	ErrTierInUse        = errors.New("pricing tier is in use by existing shots")
	ErrNotStarted       = errors.New("service not started")
	ErrUnsupportedImage = errors.New("unsupported image type")

	ErrAnalyzerDisabled = analyzer.ErrAnalyzerDisabled
	ErrEmptyImage       = analyzer.ErrEmptyImage
	ErrQueueFull        = queue.ErrQueueFull
)
