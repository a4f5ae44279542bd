package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/go-pdf/fpdf"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator renders quote proposals with fpdf.
type PDFGenerator struct {
	// Page dimensions (US Letter in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	contentWidth float64

	// compress is off only in tests that inspect page text
	compress bool
}

// NewPDFGenerator creates a PDF generator with default page settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 18.0
	pageWidth := 215.9
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   279.4,
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
		compress:     true,
	}
}

// ContentType returns application/pdf.
func (g *PDFGenerator) ContentType() string {
	return "application/pdf"
}

// Generate renders doc and writes the PDF to w.
func (g *PDFGenerator) Generate(ctx context.Context, doc *QuoteDocument, w io.Writer) (int64, error) {
	if doc == nil || doc.Quote == nil {
		return 0, errors.New("quote document has no quote")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	q := doc.Quote
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(g.compress)

	// Core fonts are cp1252; district and contact names arrive as UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Quote "+q.ID+" - "+q.DistrictName, true)
	pdf.SetAuthor(doc.CompanyName, true)
	pdf.SetCreator(doc.CompanyName+" Quote Service", true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, tr, doc)
	})

	pdf.AddPage()
	g.addHeader(pdf, doc)
	g.addDistrict(pdf, tr, q)
	g.addPricing(pdf, q)
	g.addTerms(pdf, tr, doc)

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Sections
// =============================================================================

func (g *PDFGenerator) addHeader(pdf *fpdf.Fpdf, doc *QuoteDocument) {
	q := doc.Quote

	r, gr, b := HexToRGB(BrandColors.Navy)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 50, "F")

	r, gr, b = HexToRGB(BrandColors.Yellow)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 50, g.pageWidth, 3, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetXY(g.margin, 16)
	pdf.Cell(0, 12, "Fleet Subscription Quote")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(g.margin, 32)
	pdf.Cell(0, 8, fmt.Sprintf("%s  |  %s plan  |  %s",
		q.ID, q.Tier.DisplayName(), FormatSubmittedDate(q.SubmittedDate)))

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetY(65)
}

func (g *PDFGenerator) addDistrict(pdf *fpdf.Fpdf, tr func(string) string, q *domain.Quote) {
	g.addSectionHeader(pdf, "Prepared For")

	g.addLabelValue(pdf, "District", tr(q.DistrictName))
	g.addLabelValue(pdf, "Contact", tr(q.ContactName))
	g.addLabelValue(pdf, "Role", tr(q.ContactRole))
	g.addLabelValue(pdf, "Email", tr(q.Email))
	g.addLabelValue(pdf, "Students", strconv.Itoa(q.StudentCount))
	g.addLabelValue(pdf, "Fleet", fmt.Sprintf("%d buses (%d legacy, %d new)",
		q.BusCount, q.LegacyBusCount, q.NewBusCount))
	pdf.Ln(6)
}

func (g *PDFGenerator) addPricing(pdf *fpdf.Fpdf, q *domain.Quote) {
	g.addSectionHeader(pdf, "Pricing")

	bd := q.Breakdown
	descWidth := g.contentWidth - 45

	r, gr, b := HexToRGB(BrandColors.Background)
	pdf.SetFillColor(r, gr, b)
	r, gr, b = HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(descWidth, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 8, "Amount", "1", 1, "R", true, 0, "")

	rows := []struct {
		label  string
		amount domain.Money
	}{
		{q.Tier.DisplayName() + " plan base fee (annual)", bd.BaseAnnualFee},
		{"List price per bus (annual)", bd.PerBusAnnualFee},
		{"Volume discount per bus", bd.DiscountPerBus},
		{"Adjusted price per bus (annual)", bd.AdjustedPerBusPrice},
		{fmt.Sprintf("Annual fleet fee (%d buses)", q.BusCount), bd.AnnualFleetFee},
		{fmt.Sprintf("Hardware kits (%d legacy buses)", q.LegacyBusCount), q.HardwareCost},
		{"One-time setup fee", q.SetupFee},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		amount := row.amount.Display()
		if row.label == "Volume discount per bus" && row.amount > 0 {
			amount = "-" + amount
		}
		pdf.CellFormat(descWidth, 8, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 8, amount, "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(descWidth, 10, "Total (first year)", "1", 0, "L", true, 0, "")
	pdf.CellFormat(45, 10, q.Amount.Display(), "1", 1, "R", true, 0, "")
	pdf.Ln(8)
}

func (g *PDFGenerator) addTerms(pdf *fpdf.Fpdf, tr func(string) string, doc *QuoteDocument) {
	g.addSectionHeader(pdf, "Terms")

	pdf.SetFont("Helvetica", "", 10)
	terms := "Annual fees renew each year at the adjusted per-bus rate. Hardware kits " +
		"are required only for legacy buses without built-in telematics. The setup fee " +
		"is charged once. Prices are in US dollars and exclude applicable taxes."
	pdf.MultiCell(g.contentWidth, 5, terms, "", "L", false)

	if doc.ContactURL != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(g.contentWidth, 5, "Questions or ready to proceed? "+tr(doc.ContactURL), "", "L", false)
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	r, gr, b := HexToRGB(BrandColors.Navy)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 15)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 10, title)
	pdf.Ln(11)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(6)

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetLineWidth(0.2)
}

func (g *PDFGenerator) addLabelValue(pdf *fpdf.Fpdf, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(35, 6, label+":")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth-35, 6, value, "", "L", false)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, tr func(string) string, doc *QuoteDocument) {
	pdf.SetY(-15)

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)

	pdf.Cell(0, 10, tr(doc.CompanyName)+"  |  Generated "+FormatDate(doc.GeneratedAt))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}
