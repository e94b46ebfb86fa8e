// Package types contains common types used across the application
package types

// ShotView is the read shape of a shot.
type ShotView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Frames         int    `json:"frames"`
	Price          int64  `json:"price"`
	PriceFormatted string `json:"price_formatted"`
	TierLabel      string `json:"tier_label,omitempty"`
	TierIndex      int    `json:"tier_index"`
	PreviewRef     string `json:"preview_ref,omitempty"`
}

// TierView is the read shape of a pricing tier.
type TierView struct {
	Index          int    `json:"index"`
	Min            int    `json:"min"`
	Max            int    `json:"max"`
	Price          int64  `json:"price"`
	Label          string `json:"label"`
	RangeLabel     string `json:"range_label"`
	PriceFormatted string `json:"price_formatted"`
	ShotCount      int    `json:"shot_count"`
}

// Summary aggregates the current estimate.
type Summary struct {
	ShotCount      int    `json:"shot_count"`
	TotalFrames    int    `json:"total_frames"`
	TotalPrice     int64  `json:"total_price"`
	TotalFormatted string `json:"total_formatted"`
}

// BatchResult reports the outcome of a batch add.
type BatchResult struct {
	Added      int        `json:"added"`
	Duplicates int        `json:"duplicates"`
	Skipped    int        `json:"skipped"`
	Shots      []ShotView `json:"shots"`
}

// ImportStatus reports the state of an image import job.
type ImportStatus struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	Candidates int    `json:"candidates"`
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
	Submitted  string `json:"submitted_at"`
	Finished   string `json:"finished_at,omitempty"`
}
