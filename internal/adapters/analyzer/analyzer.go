// Package analyzer extracts shot candidates from screenshots of file listings.
package analyzer

import (
	"context"

	"github.com/okian/framecount/internal/domain/model"
)

// Analyzer turns an image into (name, frames) candidates.
//
// An empty result is not an error. Errors mean the analysis itself failed and
// no candidate should be applied.
type Analyzer interface {
	Analyze(ctx context.Context, img model.Image) ([]model.Candidate, error)
}

// Disabled is used when no analysis backend is configured.
type Disabled struct{}

// Analyze implements Analyzer.
func (Disabled) Analyze(context.Context, model.Image) ([]model.Candidate, error) {
	return nil, ErrAnalyzerDisabled
}

// Enabled reports whether a is backed by a real analysis service.
func Enabled(a Analyzer) bool {
	_, disabled := a.(Disabled)
	return a != nil && !disabled
}

// New returns a Gemini analyzer, or Disabled when analysis is switched off
// or no API key is configured.
func New(ctx context.Context, enabled bool, apiKey string, opts ...Option) (Analyzer, error) {
	if !enabled || apiKey == "" {
		return Disabled{}, nil
	}
	return NewGemini(ctx, apiKey, opts...)
}
