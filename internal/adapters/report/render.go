package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Format selects the output encoding of a report.
type Format string

// Supported formats.
const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or common alias; empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	default:
		return "md"
	}
}

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Render writes doc to w in the requested format.
func Render(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(w, doc)
	case FormatCSV:
		return renderCSV(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// dateLayout matches the day/month/year order used in Indonesian dates.
const dateLayout = "2/1/2006"

func renderMarkdown(w io.Writer, doc Document) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "Tanggal: %s  \n", doc.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Artist: %s  \n", orDash(doc.Author))
	if doc.Period != "" {
		fmt.Fprintf(&b, "Periode: %s  \n", doc.Period)
	}
	fmt.Fprintf(&b, "ID Laporan: #%s\n\n", doc.ReportID)

	b.WriteString("| No | Nama Shot | Jumlah Frame | Harga (IDR) |\n")
	b.WriteString("|---:|---|---:|---:|\n")
	for _, r := range doc.Rows {
		fmt.Fprintf(&b, "| %d | %s | %d | %s |\n", r.No, escapeCell(r.Name), r.Frames, r.PriceFormatted)
	}

	fmt.Fprintf(&b, "\n**Total Frame:** %d  \n", doc.TotalFrames)
	fmt.Fprintf(&b, "**Total Estimasi:** %s\n", doc.TotalFormatted)

	if len(doc.Legend) > 0 {
		b.WriteString("\n## Keterangan Kategori Harga\n\n")
		b.WriteString("| Kategori | Range Frame | Harga Satuan |\n")
		b.WriteString("|---|---|---:|\n")
		for _, l := range doc.Legend {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(l.Label), l.Range, l.PriceFormatted)
		}
	}

	if doc.Notes != "" {
		fmt.Fprintf(&b, "\n_Catatan: %s_\n", strings.TrimSpace(doc.Notes))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// csvWidth is the column count of every CSV record; shorter records are
// padded so spreadsheet imports and strict readers see one rectangle.
const csvWidth = 5

func renderCSV(w io.Writer, doc Document) error {
	var records [][]string
	add := func(fields ...string) {
		rec := make([]string, csvWidth)
		copy(rec, fields)
		records = append(records, rec)
	}

	add(doc.Title)
	add("Tanggal", doc.Date.Format(dateLayout))
	add("Artist", orDash(doc.Author))
	if doc.Period != "" {
		add("Periode", doc.Period)
	}
	add("ID Laporan", "#"+doc.ReportID)
	add()

	add("No", "Nama Shot", "Jumlah Frame", "Harga (IDR)", "Kategori")
	for _, r := range doc.Rows {
		add(strconv.Itoa(r.No), r.Name, strconv.Itoa(r.Frames), strconv.FormatInt(r.Price, 10), r.Tier)
	}
	add("", "Total", strconv.Itoa(doc.TotalFrames), strconv.FormatInt(doc.TotalPrice, 10))

	if len(doc.Legend) > 0 {
		add()
		add("Kategori", "Range Frame", "Harga Satuan (IDR)")
		for _, l := range doc.Legend {
			add(l.Label, l.Range, strconv.FormatInt(l.Price, 10))
		}
	}

	if notes := strings.TrimSpace(doc.Notes); notes != "" {
		add()
		add("Catatan", notes)
	}

	if err := csv.NewWriter(w).WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[/\\:*?"<>|]+`)
)

// Filename derives a download name from the report title: whitespace runs
// become "-" and the result is lowercased, e.g. "Estimasi Biaya" -> "estimasi-biaya.md".
func Filename(title, ext string) string {
	s := norm.NFKD.String(strings.TrimSpace(title))
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = unsafeChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.ToLower(s)
	if s == "" {
		s = "report"
	}
	return s + "." + ext
}
