package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/service"
)

// AdminHandler serves the sales pipeline: listing, deciding, and totalling
// quotes.
type AdminHandler struct {
	quotes service.QuoteService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(quotes service.QuoteService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		quotes: quotes,
		logger: logger,
	}
}

// RegisterRoutes registers admin routes behind requireAdmin.
func (h *AdminHandler) RegisterRoutes(
	mux *http.ServeMux,
	requireAdmin func(http.Handler) http.Handler,
) {
	mux.Handle("GET /admin/quotes", requireAdmin(http.HandlerFunc(h.List)))
	mux.Handle("GET /admin/quotes/summary", requireAdmin(http.HandlerFunc(h.Summary)))
	mux.Handle("GET /admin/quotes/{id}", requireAdmin(http.HandlerFunc(h.Get)))
	mux.Handle("POST /admin/quotes/{id}/approve", requireAdmin(http.HandlerFunc(h.Approve)))
	mux.Handle("POST /admin/quotes/{id}/reject", requireAdmin(http.HandlerFunc(h.Reject)))
	mux.Handle("POST /admin/quotes/{id}/document", requireAdmin(http.HandlerFunc(h.RegenerateDocument)))
}

// QuoteListResponse is one page of the pipeline listing.
type QuoteListResponse struct {
	Quotes []QuoteResponse `json:"quotes"`
	Total  int64           `json:"total"`
	Limit  int32           `json:"limit"`
	Offset int32           `json:"offset"`
}

// List handles GET /admin/quotes?status=PENDING,APPROVED&limit=20&offset=0.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.admin.list"

	params, err := parseListParams(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.quotes.List(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := QuoteListResponse{
		Quotes: make([]QuoteResponse, 0, len(result.Quotes)),
		Total:  result.Total,
		Limit:  result.Limit,
		Offset: result.Offset,
	}
	for i := range result.Quotes {
		resp.Quotes = append(resp.Quotes, newQuoteResponse(&result.Quotes[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseListParams reads the listing filters. Status accepts a comma-separated
// list or repeated parameters.
func parseListParams(op string, r *http.Request) (domain.ListQuotesParams, error) {
	q := r.URL.Query()
	var params domain.ListQuotesParams

	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				params.Statuses = append(params.Statuses, domain.QuoteStatus(s))
			}
		}
	}

	var err error
	if params.Limit, err = parseInt32(q.Get("limit")); err != nil {
		return params, domain.Invalid(op, "limit must be an integer")
	}
	if params.Offset, err = parseInt32(q.Get("offset")); err != nil {
		return params, domain.Invalid(op, "offset must be an integer")
	}
	return params, nil
}

func parseInt32(s string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}

// StatusTotalResponse is the count and amount of quotes in one status.
type StatusTotalResponse struct {
	Status string       `json:"status"`
	Count  int64        `json:"count"`
	Amount domain.Money `json:"amount"`
}

// SummaryResponse is the body of GET /admin/quotes/summary.
type SummaryResponse struct {
	Statuses []StatusTotalResponse `json:"statuses"`
	Count    int64                 `json:"count"`
	Amount   domain.Money          `json:"amount"`
}

// Summary handles GET /admin/quotes/summary.
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.quotes.Summary(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := SummaryResponse{
		Statuses: make([]StatusTotalResponse, 0, len(summary.Statuses)),
		Count:    summary.Count,
		Amount:   summary.Amount,
	}
	for _, st := range summary.Statuses {
		resp.Statuses = append(resp.Statuses, StatusTotalResponse{
			Status: st.Status.String(),
			Count:  st.Count,
			Amount: st.Amount,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /admin/quotes/{id}.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quotes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(quote))
}

// Approve handles POST /admin/quotes/{id}/approve.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quotes.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(quote))
}

// Reject handles POST /admin/quotes/{id}/reject.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quotes.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(quote))
}

// RegenerateDocument handles POST /admin/quotes/{id}/document.
func (h *AdminHandler) RegenerateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.quotes.RegenerateDocument(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "quote_id": id})
}
