// Package service contains the business logic layer.
//
// This file implements the quote service: pricing district requests,
// storing them, and moving them through the sales pipeline.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/metrics"
	"github.com/DukeRupert/busroute/internal/pricing"
	"github.com/DukeRupert/busroute/internal/repository"
	"github.com/DukeRupert/busroute/internal/storage"
	"github.com/DukeRupert/busroute/internal/worker"
	"github.com/sqlc-dev/pqtype"
)

// Pagination bounds for the admin listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NotificationDelay gives the document job a head start so the emailed
// proposal link resolves.
const NotificationDelay = 30 * time.Second

// =============================================================================
// Interface Definition
// =============================================================================

// QuoteService defines the quote operations used by handlers and jobs.
type QuoteService interface {
	// Preview prices a request without storing it or issuing an ID.
	// Returns domain.EINVALID for bad counts or tiers.
	Preview(ctx context.Context, req domain.QuoteRequest) (*domain.PricingBreakdown, error)

	// Submit prices and stores a request, then queues its document and
	// notification jobs. Returns domain.EINVALID for validation errors.
	Submit(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error)

	// GetByID returns domain.ENOTFOUND if the quote does not exist.
	GetByID(ctx context.Context, id string) (*domain.Quote, error)

	// List returns one page of quotes, newest first.
	List(ctx context.Context, params domain.ListQuotesParams) (*domain.ListQuotesResult, error)

	// Approve and Reject decide a pending quote. Returns domain.ECONFLICT
	// if the quote was already decided.
	Approve(ctx context.Context, id string) (*domain.Quote, error)
	Reject(ctx context.Context, id string) (*domain.Quote, error)

	// Summary totals the pipeline per status.
	Summary(ctx context.Context) (*domain.PipelineSummary, error)

	// Document opens the rendered PDF. The caller must close the reader.
	// Returns domain.ENOTFOUND until the document job has run.
	Document(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error)

	// AttachDocument records the storage key of a rendered PDF.
	AttachDocument(ctx context.Context, id, key string) error

	// RegenerateDocument queues a new document job for an existing quote.
	RegenerateDocument(ctx context.Context, id string) error
}

// QuoteStore is the persistence the quote service needs.
// *repository.Queries satisfies it.
type QuoteStore interface {
	worker.Enqueuer
	CreateQuote(ctx context.Context, arg repository.CreateQuoteParams) (repository.Quote, error)
	GetQuoteByID(ctx context.Context, id string) (repository.Quote, error)
	ListQuotes(ctx context.Context, arg repository.ListQuotesParams) ([]repository.Quote, error)
	CountQuotes(ctx context.Context, statuses []string) (int64, error)
	UpdateQuoteStatus(ctx context.Context, arg repository.UpdateQuoteStatusParams) (repository.Quote, error)
	SetQuoteDocumentKey(ctx context.Context, id, key string) error
	SummarizeQuotes(ctx context.Context) ([]repository.QuoteStatusTotal, error)
}

// =============================================================================
// Implementation
// =============================================================================

type quoteService struct {
	store   QuoteStore
	engine  *pricing.Engine
	storage storage.Storage
	logger  *slog.Logger
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(
	store QuoteStore,
	engine *pricing.Engine,
	docs storage.Storage,
	logger *slog.Logger,
) QuoteService {
	return &quoteService{
		store:   store,
		engine:  engine,
		storage: docs,
		logger:  logger,
	}
}

// =============================================================================
// Preview / Submit
// =============================================================================

// Preview prices a request for the live calculator.
func (s *quoteService) Preview(ctx context.Context, req domain.QuoteRequest) (*domain.PricingBreakdown, error) {
	breakdown, err := s.engine.Price(req)
	if err != nil {
		metrics.QuoteRefused(refusalReason(err))
		return nil, err
	}

	metrics.QuotesPreviewed.WithLabelValues(req.Tier.String()).Inc()
	return &breakdown, nil
}

// Submit prices, stores, and queues follow-up work for a request.
func (s *quoteService) Submit(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	const op = "quote.submit"

	req = normalizeRequest(req)
	if err := validateRequest(req); err != nil {
		metrics.QuoteRefused("validation")
		return nil, err
	}

	quote, err := s.engine.Compute(req)
	if err != nil {
		metrics.QuoteRefused(refusalReason(err))
		return nil, err
	}

	snapshot, err := json.Marshal(newPricingSnapshot(quote.Breakdown))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode pricing snapshot")
	}

	row, err := s.store.CreateQuote(ctx, repository.CreateQuoteParams{
		ID:                quote.ID,
		DistrictName:      quote.DistrictName,
		ContactName:       quote.ContactName,
		ContactRole:       quote.ContactRole,
		Email:             quote.Email,
		StudentCount:      int32(quote.StudentCount),
		BusCount:          int32(quote.BusCount),
		LegacyBusCount:    int32(quote.LegacyBusCount),
		NewBusCount:       int32(quote.NewBusCount),
		Tier:              quote.Tier.String(),
		AmountCents:       quote.Amount.Cents(),
		HardwareCostCents: quote.HardwareCost.Cents(),
		SetupFeeCents:     quote.SetupFee.Cents(),
		Status:            quote.Status.String(),
		SubmittedDate:     quote.SubmittedDate,
		PricingSnapshot:   pqtype.NullRawMessage{RawMessage: snapshot, Valid: true},
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store quote")
	}

	stored := rowToQuote(row)
	metrics.QuoteSubmitted(stored.Tier, stored.Amount)

	s.logger.Info("quote submitted",
		"quote_id", stored.ID,
		"district", stored.DistrictName,
		"tier", stored.Tier,
		"bus_count", stored.BusCount,
		"amount", stored.Amount.String(),
	)

	// The quote is stored either way; a missing document can be regenerated
	// from the admin pipeline.
	if _, err := worker.EnqueueGenerateQuoteDocument(ctx, s.store, stored.ID,
		worker.WithPriority(worker.PriorityHigh)); err != nil {
		s.logger.Error("failed to enqueue quote document job", "quote_id", stored.ID, "error", err)
	}
	if _, err := worker.EnqueueSendQuoteNotification(ctx, s.store, stored.ID,
		worker.WithDelay(NotificationDelay)); err != nil {
		s.logger.Error("failed to enqueue quote notification job", "quote_id", stored.ID, "error", err)
	}

	return stored, nil
}

// normalizeRequest trims free-text fields and lowercases the email.
func normalizeRequest(req domain.QuoteRequest) domain.QuoteRequest {
	req.DistrictName = strings.TrimSpace(req.DistrictName)
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.ContactRole = strings.TrimSpace(req.ContactRole)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return req
}

// validateRequest checks what the pricing engine does not: the free-text
// fields and that counts fit their columns.
func validateRequest(req domain.QuoteRequest) error {
	const op = "quote.validate"

	ve := &domain.ValidationError{Op: op}

	text := []struct {
		field string
		value string
	}{
		{"district_name", req.DistrictName},
		{"contact_name", req.ContactName},
		{"contact_role", req.ContactRole},
		{"email", req.Email},
	}
	for _, f := range text {
		if domain.HasControlChars(f.value) {
			ve.Add(f.field, "Must not contain line breaks or control characters")
		}
	}

	if req.DistrictName == "" {
		ve.Add("district_name", "District name is required")
	} else if len(req.DistrictName) > 255 {
		ve.Add("district_name", "District name must be 255 characters or less")
	}
	if len(req.ContactName) > 255 {
		ve.Add("contact_name", "Contact name must be 255 characters or less")
	}
	if len(req.ContactRole) > 255 {
		ve.Add("contact_role", "Contact role must be 255 characters or less")
	}
	if req.Email == "" {
		ve.Add("email", "Email is required")
	} else if len(req.Email) > 255 || !strings.Contains(req.Email, "@") {
		ve.Add("email", "Email must be a valid address")
	}

	counts := []struct {
		field string
		value int
	}{
		{"student_count", req.StudentCount},
		{"bus_count", req.BusCount},
		{"legacy_bus_count", req.LegacyBusCount},
		{"new_bus_count", req.NewBusCount},
	}
	for _, c := range counts {
		if c.value > pricing.MaxCount {
			ve.Add(c.field, "Value is too large")
		}
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// refusalReason labels an engine or validation error for metrics.
func refusalReason(err error) string {
	switch {
	case errors.Is(err, pricing.ErrInvalidTier):
		return "invalid_tier"
	case errors.Is(err, pricing.ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, pricing.ErrInvalidPricingState):
		return "pricing_state"
	default:
		return "other"
	}
}

// =============================================================================
// Read
// =============================================================================

// GetByID retrieves a quote by ID.
func (s *quoteService) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	const op = "quote.get"

	row, err := s.store.GetQuoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "quote", id)
		}
		return nil, domain.Internal(err, op, "failed to get quote")
	}
	return rowToQuote(row), nil
}

// List retrieves a page of quotes.
func (s *quoteService) List(ctx context.Context, params domain.ListQuotesParams) (*domain.ListQuotesResult, error) {
	const op = "quote.list"

	if params.Limit <= 0 {
		params.Limit = DefaultPageSize
	}
	if params.Limit > MaxPageSize {
		params.Limit = MaxPageSize
	}
	if params.Offset < 0 {
		return nil, domain.Invalid(op, "offset must not be negative")
	}

	statuses := make([]string, 0, len(params.Statuses))
	for _, st := range params.Statuses {
		if !st.IsValid() {
			return nil, domain.Invalid(op, fmt.Sprintf("unknown quote status %q", st))
		}
		statuses = append(statuses, st.String())
	}

	total, err := s.store.CountQuotes(ctx, statuses)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count quotes")
	}

	rows, err := s.store.ListQuotes(ctx, repository.ListQuotesParams{
		Statuses: statuses,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list quotes")
	}

	quotes := make([]domain.Quote, 0, len(rows))
	for _, row := range rows {
		quotes = append(quotes, *rowToQuote(row))
	}

	return &domain.ListQuotesResult{
		Quotes: quotes,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// Summary totals the pipeline. Every status is present, zero-filled.
func (s *quoteService) Summary(ctx context.Context) (*domain.PipelineSummary, error) {
	const op = "quote.summary"

	rows, err := s.store.SummarizeQuotes(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to summarize quotes")
	}

	byStatus := make(map[domain.QuoteStatus]repository.QuoteStatusTotal, len(rows))
	for _, row := range rows {
		byStatus[domain.QuoteStatus(row.Status)] = row
	}

	summary := &domain.PipelineSummary{}
	for _, st := range []domain.QuoteStatus{domain.QuoteStatusPending, domain.QuoteStatusApproved, domain.QuoteStatusRejected} {
		row := byStatus[st]
		total := domain.StatusTotal{Status: st, Count: row.Count, Amount: domain.Cents(row.AmountCents)}
		summary.Statuses = append(summary.Statuses, total)
		summary.Count += total.Count
		summary.Amount = summary.Amount.Add(total.Amount)
	}
	return summary, nil
}

// =============================================================================
// Decisions
// =============================================================================

// Approve marks a pending quote approved.
func (s *quoteService) Approve(ctx context.Context, id string) (*domain.Quote, error) {
	return s.decide(ctx, "quote.approve", id, domain.QuoteStatusApproved)
}

// Reject marks a pending quote rejected.
func (s *quoteService) Reject(ctx context.Context, id string) (*domain.Quote, error) {
	return s.decide(ctx, "quote.reject", id, domain.QuoteStatusRejected)
}

func (s *quoteService) decide(ctx context.Context, op, id string, to domain.QuoteStatus) (*domain.Quote, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, domain.Conflict(op, fmt.Sprintf("quote %s is already %s", id, strings.ToLower(current.Status.String())))
	}

	// The status guard in the update loses to a concurrent decision.
	row, err := s.store.UpdateQuoteStatus(ctx, repository.UpdateQuoteStatusParams{
		ID:         id,
		FromStatus: current.Status.String(),
		ToStatus:   to.String(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Conflict(op, fmt.Sprintf("quote %s was decided concurrently", id))
		}
		return nil, domain.Internal(err, op, "failed to update quote status")
	}

	quote := rowToQuote(row)
	metrics.QuoteDecided(quote.Status)
	s.logger.Info("quote decided",
		"quote_id", quote.ID,
		"status", quote.Status,
		"amount", quote.Amount.String(),
	)
	return quote, nil
}

// =============================================================================
// Documents
// =============================================================================

// Document opens the stored PDF of a quote.
func (s *quoteService) Document(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	const op = "quote.document"

	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	if !quote.HasDocument() {
		return nil, storage.ObjectInfo{}, domain.Errorf(domain.ENOTFOUND, op, "document for quote %q is not ready yet", id)
	}

	rc, info, err := s.storage.Get(ctx, quote.DocumentKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, storage.ObjectInfo{}, domain.Errorf(domain.ENOTFOUND, op, "document for quote %q is missing", id)
		}
		return nil, storage.ObjectInfo{}, domain.Internal(err, op, "failed to open quote document")
	}
	return rc, info, nil
}

// AttachDocument records where a quote's PDF was stored.
func (s *quoteService) AttachDocument(ctx context.Context, id, key string) error {
	const op = "quote.attach_document"

	if key == "" {
		return domain.Invalid(op, "document key is required")
	}
	if err := s.store.SetQuoteDocumentKey(ctx, id, key); err != nil {
		return domain.Internal(err, op, "failed to record quote document")
	}

	s.logger.Info("quote document attached", "quote_id", id, "key", key)
	return nil
}

// RegenerateDocument queues a fresh document job.
func (s *quoteService) RegenerateDocument(ctx context.Context, id string) error {
	const op = "quote.regenerate_document"

	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if _, err := worker.EnqueueGenerateQuoteDocument(ctx, s.store, id,
		worker.WithPriority(worker.PriorityHigh)); err != nil {
		return domain.Internal(err, op, "failed to enqueue document job")
	}

	s.logger.Info("quote document regeneration queued", "quote_id", id)
	return nil
}

// =============================================================================
// Conversion Helpers
// =============================================================================

// pricingSnapshot is the JSON stored in quotes.pricing_snapshot.
type pricingSnapshot struct {
	BaseAnnualFee       domain.Money `json:"base_annual_fee"`
	PerBusAnnualFee     domain.Money `json:"per_bus_annual_fee"`
	DiscountPerBus      domain.Money `json:"discount_per_bus"`
	AdjustedPerBusPrice domain.Money `json:"adjusted_per_bus_price"`
	AnnualFleetFee      domain.Money `json:"annual_fleet_fee"`
}

func newPricingSnapshot(b domain.PricingBreakdown) pricingSnapshot {
	return pricingSnapshot{
		BaseAnnualFee:       b.BaseAnnualFee,
		PerBusAnnualFee:     b.PerBusAnnualFee,
		DiscountPerBus:      b.DiscountPerBus,
		AdjustedPerBusPrice: b.AdjustedPerBusPrice,
		AnnualFleetFee:      b.AnnualFleetFee,
	}
}

// rowToQuote converts a repository row to a domain Quote. A missing or
// unreadable snapshot leaves only the stored totals in the breakdown.
func rowToQuote(row repository.Quote) *domain.Quote {
	q := &domain.Quote{
		ID: row.ID,
		QuoteRequest: domain.QuoteRequest{
			DistrictName:   row.DistrictName,
			ContactName:    row.ContactName,
			ContactRole:    row.ContactRole,
			Email:          row.Email,
			StudentCount:   int(row.StudentCount),
			BusCount:       int(row.BusCount),
			LegacyBusCount: int(row.LegacyBusCount),
			NewBusCount:    int(row.NewBusCount),
			Tier:           domain.Tier(row.Tier),
		},
		Amount:        domain.Cents(row.AmountCents),
		HardwareCost:  domain.Cents(row.HardwareCostCents),
		SetupFee:      domain.Cents(row.SetupFeeCents),
		Status:        domain.QuoteStatus(row.Status),
		SubmittedDate: row.SubmittedDate,
		SubmittedAt:   row.SubmittedAt,
		UpdatedAt:     row.UpdatedAt,
	}

	if row.DecidedAt.Valid {
		t := row.DecidedAt.Time
		q.DecidedAt = &t
	}
	if row.DocumentKey.Valid {
		q.DocumentKey = row.DocumentKey.String
	}

	var snap pricingSnapshot
	if row.PricingSnapshot.Valid && json.Unmarshal(row.PricingSnapshot.RawMessage, &snap) == nil {
		q.Breakdown = domain.PricingBreakdown{
			BaseAnnualFee:       snap.BaseAnnualFee,
			PerBusAnnualFee:     snap.PerBusAnnualFee,
			DiscountPerBus:      snap.DiscountPerBus,
			AdjustedPerBusPrice: snap.AdjustedPerBusPrice,
			AnnualFleetFee:      snap.AnnualFleetFee,
		}
	}
	q.Breakdown.HardwareCost = q.HardwareCost
	q.Breakdown.SetupFee = q.SetupFee
	q.Breakdown.Amount = q.Amount

	return q
}
