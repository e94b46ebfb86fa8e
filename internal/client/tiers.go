package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/framecount/internal/domain/pricing"
)

// ParseTier reads "MIN-MAX:PRICE:LABEL", e.g. "0-100:125000:Kategori 1".
// MAX may be "inf" for an open-ended tier.
func ParseTier(spec string) (pricing.Tier, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return pricing.Tier{}, fmt.Errorf("%w: %q: want MIN-MAX:PRICE:LABEL", ErrInvalidTier, spec)
	}
	lo, hi, ok := strings.Cut(parts[0], "-")
	if !ok {
		return pricing.Tier{}, fmt.Errorf("%w: %q: range must be MIN-MAX", ErrInvalidTier, spec)
	}

	minFrames, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return pricing.Tier{}, fmt.Errorf("%w: %q: min: %w", ErrInvalidTier, spec, err)
	}
	maxFrames := openEndedMax
	if h := strings.TrimSpace(hi); !strings.EqualFold(h, "inf") {
		if maxFrames, err = strconv.Atoi(h); err != nil {
			return pricing.Tier{}, fmt.Errorf("%w: %q: max: %w", ErrInvalidTier, spec, err)
		}
	}
	price, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return pricing.Tier{}, fmt.Errorf("%w: %q: price: %w", ErrInvalidTier, spec, err)
	}

	tier := pricing.Tier{Min: minFrames, Max: maxFrames, Price: price, Label: strings.TrimSpace(parts[2])}
	if err := pricing.Validate([]pricing.Tier{tier}); err != nil {
		return pricing.Tier{}, fmt.Errorf("%w: %w", ErrInvalidTier, err)
	}
	return tier, nil
}

// openEndedMax is used for "inf"; it sits above the default display
// threshold so the range renders as "∞".
const openEndedMax = 999_999_999
