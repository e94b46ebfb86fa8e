// Package report turns the current estimate into an exportable document.
package report

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/pricing"
)

// DefaultTitle is used when the report config leaves the title empty.
const DefaultTitle = "Estimasi Biaya Shot"

const (
	reportIDAlphabet = "0123456789"
	reportIDLength   = 5
)

// Row is one shot line of the report, numbered from 1.
type Row struct {
	No             int    `json:"no"`
	Name           string `json:"name"`
	Frames         int    `json:"frames"`
	Price          int64  `json:"price"`
	PriceFormatted string `json:"price_formatted"`
	Tier           string `json:"tier,omitempty"`
}

// LegendRow describes one pricing tier.
type LegendRow struct {
	Label          string `json:"label"`
	Range          string `json:"range"`
	Price          int64  `json:"price"`
	PriceFormatted string `json:"price_formatted"`
}

// Document is a fully computed report, independent of output format.
type Document struct {
	Title          string      `json:"title"`
	Author         string      `json:"author"`
	Period         string      `json:"period,omitempty"`
	ReportID       string      `json:"report_id"`
	Date           time.Time   `json:"date"`
	Rows           []Row       `json:"rows"`
	TotalFrames    int         `json:"total_frames"`
	TotalPrice     int64       `json:"total_price"`
	TotalFormatted string      `json:"total_formatted"`
	Legend         []LegendRow `json:"legend"`
	Notes          string      `json:"notes,omitempty"`
}

// Builder assembles Documents.
type Builder struct {
	currency  *Currency
	threshold int
	title     string
	newID     func() string
}

// NewBuilder creates a Builder with the default currency and display threshold.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		currency:  DefaultCurrency(),
		threshold: pricing.DefaultUnboundedThreshold,
		title:     DefaultTitle,
		newID:     randomReportID,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Currency returns the formatter used for amounts.
func (b *Builder) Currency() *Currency {
	return b.currency
}

// Build computes a Document. Shot prices are taken as stored; tier labels
// come from first-match classification against tiers.
func (b *Builder) Build(shots []model.Shot, tiers []pricing.Tier, cfg model.ReportConfig, now time.Time) Document {
	doc := Document{
		Title:    cfg.Title,
		Author:   cfg.Author,
		Period:   cfg.Period,
		ReportID: cfg.ReportID,
		Date:     now,
		Notes:    cfg.Notes,
		Rows:     make([]Row, 0, len(shots)),
		Legend:   make([]LegendRow, 0, len(tiers)),
	}
	if doc.Title == "" {
		doc.Title = b.title
	}
	if doc.ReportID == "" {
		doc.ReportID = b.newID()
	}

	for i, shot := range shots {
		row := Row{
			No:             i + 1,
			Name:           shot.Name,
			Frames:         shot.Frames,
			Price:          shot.Price,
			PriceFormatted: b.currency.Format(shot.Price),
		}
		if tier, _, ok := pricing.Find(shot.Frames, tiers); ok {
			row.Tier = tier.Label
		}
		doc.Rows = append(doc.Rows, row)
		doc.TotalFrames += shot.Frames
		doc.TotalPrice += shot.Price
	}
	doc.TotalFormatted = b.currency.Format(doc.TotalPrice)

	for _, tier := range tiers {
		doc.Legend = append(doc.Legend, LegendRow{
			Label:          tier.Label,
			Range:          tier.RangeLabel(b.threshold),
			Price:          tier.Price,
			PriceFormatted: b.currency.Format(tier.Price),
		})
	}

	return doc
}

func randomReportID() string {
	id, err := gonanoid.Generate(reportIDAlphabet, reportIDLength)
	if err != nil {
		return "00000"
	}
	return id
}
