package report

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Default currency presentation.
const (
	DefaultLocale = "id-ID"
	DefaultSymbol = "Rp"
)

// Currency formats whole-unit amounts for one fixed locale.
type Currency struct {
	printer *message.Printer
	symbol  string
}

// NewCurrency builds a formatter for locale (a BCP 47 tag) and symbol.
func NewCurrency(locale, symbol string) (*Currency, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidLocale, locale, err)
	}
	return &Currency{printer: message.NewPrinter(tag), symbol: symbol}, nil
}

// DefaultCurrency formats Indonesian rupiah, e.g. "Rp 125.000".
func DefaultCurrency() *Currency {
	return &Currency{printer: message.NewPrinter(language.Indonesian), symbol: DefaultSymbol}
}

// Format renders amount with locale digit grouping and no fraction digits.
func (c *Currency) Format(amount int64) string {
	if amount < 0 {
		return "-" + c.symbol + " " + c.printer.Sprintf("%d", -amount)
	}
	return c.symbol + " " + c.printer.Sprintf("%d", amount)
}
