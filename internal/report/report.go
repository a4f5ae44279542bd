// Package report renders quote proposals as documents districts can forward
// to their purchasing office.
package report

import (
	"context"
	"io"
	"time"

	"github.com/DukeRupert/busroute/internal/domain"
)

// =============================================================================
// Generator Interface
// =============================================================================

// Generator renders a quote document and writes it to w, returning the
// number of bytes written.
type Generator interface {
	Generate(ctx context.Context, doc *QuoteDocument, w io.Writer) (int64, error)

	// ContentType is the MIME type of the rendered output.
	ContentType() string
}

// QuoteDocument is everything a proposal shows.
type QuoteDocument struct {
	Quote       *domain.Quote
	CompanyName string
	ContactURL  string // Printed under the totals, optional
	GeneratedAt time.Time
}

// =============================================================================
// Brand Colors
// =============================================================================

// BrandColors defines the color palette for documents.
var BrandColors = struct {
	Navy       string
	Yellow     string // School-bus accent
	TextDark   string
	TextMuted  string
	Border     string
	Background string
}{
	Navy:       "#1E3A5F",
	Yellow:     "#F5B700",
	TextDark:   "#1F2937",
	TextMuted:  "#6B7280",
	Border:     "#E5E7EB",
	Background: "#F9FAFB",
}

// HexToRGB converts "#RRGGBB" or "RRGGBB" to RGB components.
// Malformed input yields black.
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	return hexToDec(hex[0:2]), hexToDec(hex[2:4]), hexToDec(hex[4:6])
}

func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// FormatDate formats a date for display in documents.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// FormatSubmittedDate renders a YYYY-MM-DD date for people, returning the
// input unchanged when it does not parse.
func FormatSubmittedDate(date string) string {
	t, err := time.Parse(domain.SubmittedDateLayout, date)
	if err != nil {
		return date
	}
	return FormatDate(t)
}
