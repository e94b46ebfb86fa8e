// Package model contains domain models passed between layers.
package model

import "time"

// Shot is one priced line of the estimate. Price is derived from Frames and
// the current tiers; it is recomputed whenever either changes.
type Shot struct {
	ID         string // opaque unique identifier
	Name       string // normalized name
	Frames     int
	Price      int64
	PreviewRef string // optional reference to a preview image
	CreatedAt  time.Time
}

// Candidate is an unvalidated (name, frames) pair, typically extracted from an image.
type Candidate struct {
	Name   string `json:"name"`
	Frames int    `json:"frames"`
}

// Image is an uploaded picture handed to the analyzer.
type Image struct {
	Data     []byte
	MIMEType string
}

// ImportJob is a queued image analysis request.
type ImportJob struct {
	ID          string
	Image       Image
	SubmittedAt time.Time
}

// ReportConfig carries presentation-only report fields.
type ReportConfig struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Period   string `json:"period"`
	ReportID string `json:"report_id"`
	Notes    string `json:"notes"`
}
