// Package handler contains the HTTP handlers of the quote API.
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/service"
	"github.com/DukeRupert/busroute/internal/storage"
)

// =============================================================================
// Request DTOs
// =============================================================================

// quoteRequestBody is the body of POST /api/quotes.
type quoteRequestBody struct {
	DistrictName   string `json:"district_name" validate:"notblank,singleline,max=255"`
	ContactName    string `json:"contact_name" validate:"singleline,max=255"`
	ContactRole    string `json:"contact_role" validate:"singleline,max=255"`
	Email          string `json:"email" validate:"required,email,max=255"`
	StudentCount   int    `json:"student_count" validate:"gte=0,lte=2147483647"`
	BusCount       int    `json:"bus_count" validate:"gte=0,lte=2147483647"`
	LegacyBusCount int    `json:"legacy_bus_count" validate:"gte=0,lte=2147483647"`
	NewBusCount    int    `json:"new_bus_count" validate:"gte=0,lte=2147483647"`
	Tier           string `json:"tier" validate:"required,tier"`
}

func (b quoteRequestBody) toDomain() domain.QuoteRequest {
	return domain.QuoteRequest{
		DistrictName:   b.DistrictName,
		ContactName:    b.ContactName,
		ContactRole:    b.ContactRole,
		Email:          b.Email,
		StudentCount:   b.StudentCount,
		BusCount:       b.BusCount,
		LegacyBusCount: b.LegacyBusCount,
		NewBusCount:    b.NewBusCount,
		Tier:           domain.ParseTier(b.Tier),
	}
}

// previewRequestBody is the body of POST /api/quotes/preview. Contact
// details are optional because the calculator runs before the form is filled.
type previewRequestBody struct {
	StudentCount   int    `json:"student_count" validate:"gte=0,lte=2147483647"`
	BusCount       int    `json:"bus_count" validate:"gte=0,lte=2147483647"`
	LegacyBusCount int    `json:"legacy_bus_count" validate:"gte=0,lte=2147483647"`
	NewBusCount    int    `json:"new_bus_count" validate:"gte=0,lte=2147483647"`
	Tier           string `json:"tier" validate:"required,tier"`
}

func (b previewRequestBody) toDomain() domain.QuoteRequest {
	return domain.QuoteRequest{
		StudentCount:   b.StudentCount,
		BusCount:       b.BusCount,
		LegacyBusCount: b.LegacyBusCount,
		NewBusCount:    b.NewBusCount,
		Tier:           domain.ParseTier(b.Tier),
	}
}

// =============================================================================
// Response DTOs
// =============================================================================

// BreakdownResponse is the JSON form of a pricing breakdown.
type BreakdownResponse struct {
	BaseAnnualFee       domain.Money `json:"base_annual_fee"`
	PerBusAnnualFee     domain.Money `json:"per_bus_annual_fee"`
	DiscountPerBus      domain.Money `json:"discount_per_bus"`
	AdjustedPerBusPrice domain.Money `json:"adjusted_per_bus_price"`
	AnnualFleetFee      domain.Money `json:"annual_fleet_fee"`
	HardwareCost        domain.Money `json:"hardware_cost"`
	SetupFee            domain.Money `json:"setup_fee"`
	Amount              domain.Money `json:"amount"`
}

func newBreakdownResponse(b domain.PricingBreakdown) BreakdownResponse {
	return BreakdownResponse{
		BaseAnnualFee:       b.BaseAnnualFee,
		PerBusAnnualFee:     b.PerBusAnnualFee,
		DiscountPerBus:      b.DiscountPerBus,
		AdjustedPerBusPrice: b.AdjustedPerBusPrice,
		AnnualFleetFee:      b.AnnualFleetFee,
		HardwareCost:        b.HardwareCost,
		SetupFee:            b.SetupFee,
		Amount:              b.Amount,
	}
}

// QuoteResponse is the JSON form of a stored quote.
type QuoteResponse struct {
	ID             string            `json:"id"`
	DistrictName   string            `json:"district_name"`
	ContactName    string            `json:"contact_name"`
	ContactRole    string            `json:"contact_role"`
	Email          string            `json:"email"`
	StudentCount   int               `json:"student_count"`
	BusCount       int               `json:"bus_count"`
	LegacyBusCount int               `json:"legacy_bus_count"`
	NewBusCount    int               `json:"new_bus_count"`
	Tier           domain.Tier       `json:"tier"`
	Amount         domain.Money      `json:"amount"`
	HardwareCost   domain.Money      `json:"hardware_cost"`
	SetupFee       domain.Money      `json:"setup_fee"`
	Status         string            `json:"status"`
	SubmittedDate  string            `json:"submitted_date"`
	SubmittedAt    *time.Time        `json:"submitted_at,omitempty"`
	DecidedAt      *time.Time        `json:"decided_at,omitempty"`
	DocumentURL    string            `json:"document_url,omitempty"`
	Breakdown      BreakdownResponse `json:"breakdown"`
}

func newQuoteResponse(q *domain.Quote) QuoteResponse {
	resp := QuoteResponse{
		ID:             q.ID,
		DistrictName:   q.DistrictName,
		ContactName:    q.ContactName,
		ContactRole:    q.ContactRole,
		Email:          q.Email,
		StudentCount:   q.StudentCount,
		BusCount:       q.BusCount,
		LegacyBusCount: q.LegacyBusCount,
		NewBusCount:    q.NewBusCount,
		Tier:           q.Tier,
		Amount:         q.Amount,
		HardwareCost:   q.HardwareCost,
		SetupFee:       q.SetupFee,
		Status:         q.Status.String(),
		SubmittedDate:  q.SubmittedDate,
		DecidedAt:      q.DecidedAt,
		Breakdown:      newBreakdownResponse(q.Breakdown),
	}
	if !q.SubmittedAt.IsZero() {
		t := q.SubmittedAt
		resp.SubmittedAt = &t
	}
	if q.HasDocument() {
		resp.DocumentURL = "/api/quotes/" + q.ID + "/document"
	}
	return resp
}

// =============================================================================
// Quote Handler
// =============================================================================

// QuoteHandler serves the public quote API used by the marketing site.
type QuoteHandler struct {
	quotes service.QuoteService
	logger *slog.Logger
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quotes service.QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		logger: logger,
	}
}

// RegisterRoutes registers the public quote routes. submitLimit wraps quote
// submission only; reads and previews are not rate limited.
func (h *QuoteHandler) RegisterRoutes(mux *http.ServeMux, submitLimit func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/quotes/preview", h.Preview)
	mux.Handle("POST /api/quotes", submitLimit(http.HandlerFunc(h.Submit)))
	mux.HandleFunc("GET /api/quotes/{id}", h.Get)
	mux.HandleFunc("GET /api/quotes/{id}/document", h.Document)
}

// Preview handles POST /api/quotes/preview.
func (h *QuoteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	const op = "handler.quote.preview"

	var body previewRequestBody
	if err := decodeJSON(w, r, op, &body); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	breakdown, err := h.quotes.Preview(r.Context(), body.toDomain())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newBreakdownResponse(*breakdown))
}

// Submit handles POST /api/quotes.
func (h *QuoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handler.quote.submit"

	var body quoteRequestBody
	if err := decodeJSON(w, r, op, &body); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	quote, err := h.quotes.Submit(r.Context(), body.toDomain())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/quotes/"+quote.ID)
	writeJSON(w, http.StatusCreated, newQuoteResponse(quote))
}

// Get handles GET /api/quotes/{id}.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quotes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newQuoteResponse(quote))
}

// Document handles GET /api/quotes/{id}/document by streaming the PDF.
func (h *QuoteHandler) Document(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rc, info, err := h.quotes.Document(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = storage.ContentTypePDF
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(id)+`.pdf"`)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are sent; all that is left is to log
		h.logger.Warn("failed to stream quote document", "quote_id", id, "error", err)
	}
}

// sanitizeFilename keeps only characters safe inside a quoted header value.
func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, s)
}
