// Package pricing classifies frame counts into price tiers.
//
// Tiers are evaluated in list order and the first tier whose inclusive
// [Min, Max] range contains the frame count wins. Overlaps and gaps are
// allowed: an overlap resolves to the earlier tier, a gap prices at zero.
package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultUnboundedThreshold is the Max above which a tier is displayed as
// open-ended ("∞"). Classification itself never looks at it.
const DefaultUnboundedThreshold = 90_000

// Tier is one row of the pricing table.
type Tier struct {
	Min   int    `json:"min" koanf:"min" validate:"gte=0"`
	Max   int    `json:"max" koanf:"max" validate:"gtefield=Min"`
	Price int64  `json:"price" koanf:"price" validate:"gte=0"`
	Label string `json:"label" koanf:"label" validate:"required"`
}

// Contains reports whether frames falls inside the inclusive tier range.
func (t Tier) Contains(frames int) bool {
	return frames >= t.Min && frames <= t.Max
}

// Unbounded reports whether the tier should be rendered as open-ended.
func (t Tier) Unbounded(threshold int) bool {
	return t.Max > threshold
}

// RangeLabel renders the tier range, e.g. "0 - 100 frames" or "201 - ∞ frames".
func (t Tier) RangeLabel(threshold int) string {
	upper := strconv.Itoa(t.Max)
	if t.Unbounded(threshold) {
		upper = "∞"
	}
	return fmt.Sprintf("%d - %s frames", t.Min, upper)
}

// DefaultTiers returns the stock three-category table.
func DefaultTiers() []Tier {
	return []Tier{
		{Min: 0, Max: 100, Price: 125_000, Label: "Kategori 1"},
		{Min: 101, Max: 200, Price: 150_000, Label: "Kategori 2"},
		{Min: 201, Max: 999, Price: 225_000, Label: "Kategori 3"},
	}
}

// Classify returns the price of the first tier containing frames.
// Negative frame counts, an empty tier list and uncovered frame counts all
// price at zero.
func Classify(frames int, tiers []Tier) int64 {
	tier, _, ok := Find(frames, tiers)
	if !ok {
		return 0
	}
	return tier.Price
}

// Find returns the first tier containing frames along with its index.
func Find(frames int, tiers []Tier) (Tier, int, bool) {
	if frames < 0 {
		return Tier{}, -1, false
	}
	for i, t := range tiers {
		if t.Contains(frames) {
			return t, i, true
		}
	}
	return Tier{}, -1, false
}

// Clone returns an independent copy of tiers.
func Clone(tiers []Tier) []Tier {
	if tiers == nil {
		return nil
	}
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Validate checks each tier's own shape. It deliberately does not reject
// overlapping or gapped tables.
func Validate(tiers []Tier) error {
	for i, t := range tiers {
		switch {
		case t.Min < 0:
			return fmt.Errorf("tier %d: %w: min must be >= 0", i, ErrInvalidTier)
		case t.Max < t.Min:
			return fmt.Errorf("tier %d: %w: max must be >= min", i, ErrInvalidTier)
		case t.Price < 0:
			return fmt.Errorf("tier %d: %w: price must be >= 0", i, ErrInvalidTier)
		case strings.TrimSpace(t.Label) == "":
			return fmt.Errorf("tier %d: %w: label is required", i, ErrInvalidTier)
		}
	}
	return nil
}
