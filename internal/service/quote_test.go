package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/pricing"
	"github.com/DukeRupert/busroute/internal/storage"
	"github.com/DukeRupert/busroute/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQuoteService(t *testing.T) (*quoteService, *memStore, storage.Storage) {
	t.Helper()

	store := newMemStore()
	clock := pricing.ClockFunc(func() time.Time {
		return time.Date(2024, 6, 20, 15, 0, 0, 0, time.UTC)
	})
	engine := pricing.NewEngine(pricing.WithClock(clock))

	docs, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()}, newTestLogger())
	require.NoError(t, err)

	svc := NewQuoteService(store, engine, docs, newTestLogger()).(*quoteService)
	return svc, store, docs
}

func validRequest() domain.QuoteRequest {
	return domain.QuoteRequest{
		DistrictName:   "Springfield USD",
		ContactName:    "Edna Krabappel",
		ContactRole:    "Transportation Director",
		Email:          "edna@springfield.k12.us",
		StudentCount:   5000,
		BusCount:       120,
		LegacyBusCount: 20,
		NewBusCount:    100,
		Tier:           domain.TierBasic,
	}
}

// =============================================================================
// Submit
// =============================================================================

func TestQuoteService_Submit(t *testing.T) {
	svc, store, _ := newTestQuoteService(t)

	q, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(q.ID, "Q-"))
	assert.Equal(t, domain.Dollars(27700), q.Amount)
	assert.Equal(t, domain.Dollars(4000), q.HardwareCost)
	assert.Equal(t, domain.Dollars(3000), q.SetupFee)
	assert.Equal(t, domain.QuoteStatusPending, q.Status)
	assert.Equal(t, "2024-06-20", q.SubmittedDate)
	assert.False(t, q.SubmittedAt.IsZero())

	// Breakdown survives the round trip through the snapshot column
	assert.Equal(t, domain.Dollars(3000), q.Breakdown.BaseAnnualFee)
	assert.Equal(t, domain.Dollars(150), q.Breakdown.PerBusAnnualFee)
	assert.Equal(t, domain.Cents(250), q.Breakdown.DiscountPerBus)
	assert.Equal(t, domain.Dollars(20700), q.Breakdown.AnnualFleetFee)
	assert.Equal(t, q.Amount, q.Breakdown.Amount)

	assert.Equal(t, []string{worker.JobTypeGenerateQuoteDocument, worker.JobTypeSendQuoteNotification}, store.jobTypes())
}

func TestQuoteService_Submit_Normalizes(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)

	req := validRequest()
	req.DistrictName = "  Springfield USD  "
	req.Email = " Edna@Springfield.K12.us "

	q, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Springfield USD", q.DistrictName)
	assert.Equal(t, "edna@springfield.k12.us", q.Email)
}

func TestQuoteService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.QuoteRequest)
		field  string
	}{
		{"empty district", func(r *domain.QuoteRequest) { r.DistrictName = "   " }, "district_name"},
		{"long district", func(r *domain.QuoteRequest) { r.DistrictName = strings.Repeat("a", 256) }, "district_name"},
		{"missing email", func(r *domain.QuoteRequest) { r.Email = "" }, "email"},
		{"bad email", func(r *domain.QuoteRequest) { r.Email = "not-an-email" }, "email"},
		{"header injection in district", func(r *domain.QuoteRequest) {
			r.DistrictName = "Springfield\r\nBcc: victim@evil.example"
		}, "district_name"},
		{"line break in contact", func(r *domain.QuoteRequest) { r.ContactName = "Edna\nKrabappel" }, "contact_name"},
		{"control char in role", func(r *domain.QuoteRequest) { r.ContactRole = "Director\x00" }, "contact_role"},
		{"line break in email", func(r *domain.QuoteRequest) { r.Email = "edna@springfield.k12.us\r\nBcc: x@y.example" }, "email"},
		{"oversized fleet", func(r *domain.QuoteRequest) { r.BusCount = pricing.MaxCount + 1 }, "bus_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestQuoteService(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
			assert.Empty(t, store.quotes)
			assert.Empty(t, store.jobs)
		})
	}
}

func TestQuoteService_Submit_EngineErrors(t *testing.T) {
	svc, store, _ := newTestQuoteService(t)

	req := validRequest()
	req.Tier = "PLATINUM"
	_, err := svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, pricing.ErrInvalidTier)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	req = validRequest()
	req.LegacyBusCount = -1
	_, err = svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, pricing.ErrInvalidCount)

	assert.Empty(t, store.quotes)
}

func TestQuoteService_Submit_StoreError(t *testing.T) {
	svc, store, _ := newTestQuoteService(t)
	store.createErr = errors.New("connection reset")

	_, err := svc.Submit(context.Background(), validRequest())
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Empty(t, store.jobs)
}

func TestQuoteService_Submit_EnqueueErrorKeepsQuote(t *testing.T) {
	svc, store, _ := newTestQuoteService(t)
	store.enqueueErr = errors.New("jobs table locked")

	q, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), q.ID)
	assert.NoError(t, err)
}

func TestQuoteService_Submit_DistinctIDs(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		q, err := svc.Submit(context.Background(), validRequest())
		require.NoError(t, err)
		assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
		seen[q.ID] = true
	}
}

// =============================================================================
// Preview
// =============================================================================

func TestQuoteService_Preview(t *testing.T) {
	svc, store, _ := newTestQuoteService(t)

	req := validRequest()
	req.DistrictName = ""
	req.Tier = domain.TierEnterprise

	b, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.Dollars(71900), b.Amount)
	assert.Empty(t, store.quotes)
	assert.Empty(t, store.jobs)

	req.Tier = ""
	_, err = svc.Preview(context.Background(), req)
	assert.ErrorIs(t, err, pricing.ErrInvalidTier)
}

func TestQuoteService_Preview_RejectsOversizedCounts(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)

	req := validRequest()
	req.BusCount = 1 << 50

	b, err := svc.Preview(context.Background(), req)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, pricing.ErrInvalidCount)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

// =============================================================================
// Read
// =============================================================================

func TestQuoteService_GetByID_NotFound(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)

	_, err := svc.GetByID(context.Background(), "Q-0-0")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestQuoteService_List(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		q, err := svc.Submit(ctx, validRequest())
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	_, err := svc.Approve(ctx, ids[0])
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListQuotesParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
	assert.Equal(t, int32(DefaultPageSize), all.Limit)
	require.Len(t, all.Quotes, 5)
	assert.Equal(t, ids[4], all.Quotes[0].ID, "newest first")

	page, err := svc.List(ctx, domain.ListQuotesParams{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page.Quotes, 2)
	assert.Equal(t, int64(5), page.Total)

	pending, err := svc.List(ctx, domain.ListQuotesParams{Statuses: []domain.QuoteStatus{domain.QuoteStatusPending}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), pending.Total)

	capped, err := svc.List(ctx, domain.ListQuotesParams{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, int32(MaxPageSize), capped.Limit)
}

func TestQuoteService_List_InvalidParams(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)

	_, err := svc.List(context.Background(), domain.ListQuotesParams{Statuses: []domain.QuoteStatus{"SHIPPED"}})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = svc.List(context.Background(), domain.ListQuotesParams{Offset: -1})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestQuoteService_Summary(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)
	ctx := context.Background()

	a, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)
	req := validRequest()
	req.Tier = domain.TierProfessional
	b, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, b.ID)
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)

	require.Len(t, sum.Statuses, 3)
	assert.Equal(t, domain.QuoteStatusPending, sum.Statuses[0].Status)
	assert.Equal(t, int64(1), sum.Statuses[0].Count)
	assert.Equal(t, a.Amount, sum.Statuses[0].Amount)
	assert.Equal(t, int64(0), sum.Statuses[1].Count)
	assert.Equal(t, domain.Money(0), sum.Statuses[1].Amount)
	assert.Equal(t, domain.Dollars(48900), sum.Statuses[2].Amount)
	assert.Equal(t, int64(2), sum.Count)
	assert.Equal(t, domain.Dollars(27700+48900), sum.Amount)
}

// =============================================================================
// Decisions
// =============================================================================

func TestQuoteService_ApproveReject(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)
	ctx := context.Background()

	q, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusApproved, approved.Status)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, q.Amount, approved.Amount)

	_, err = svc.Reject(ctx, q.ID)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	_, err = svc.Approve(ctx, q.ID)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	_, err = svc.Approve(ctx, "Q-0-0")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

// =============================================================================
// Documents
// =============================================================================

func TestQuoteService_Document(t *testing.T) {
	svc, _, docs := newTestQuoteService(t)
	ctx := context.Background()

	q, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	_, _, err = svc.Document(ctx, q.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err), "not rendered yet")

	key := storage.QuoteDocumentKey(q.ID, q.SubmittedDate)
	require.NoError(t, docs.Put(ctx, key, strings.NewReader("%PDF-1.3"), storage.PutOptions{ContentType: storage.ContentTypePDF}))
	require.NoError(t, svc.AttachDocument(ctx, q.ID, key))

	rc, info, err := svc.Document(ctx, q.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-1.3", string(body))
	assert.Equal(t, storage.ContentTypePDF, info.ContentType)
}

func TestQuoteService_Document_MissingBlob(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)
	ctx := context.Background()

	q, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)
	require.NoError(t, svc.AttachDocument(ctx, q.ID, "quotes/gone.pdf"))

	_, _, err = svc.Document(ctx, q.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestQuoteService_AttachDocument_EmptyKey(t *testing.T) {
	svc, _, _ := newTestQuoteService(t)
	err := svc.AttachDocument(context.Background(), "Q-1-1", "")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestQuoteService_RegenerateDocument(t *testing.T) {
	svc, store, _ := newTestQuoteService(t)
	ctx := context.Background()

	q, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.RegenerateDocument(ctx, q.ID))
	assert.Equal(t, []string{
		worker.JobTypeGenerateQuoteDocument,
		worker.JobTypeSendQuoteNotification,
		worker.JobTypeGenerateQuoteDocument,
	}, store.jobTypes())

	err = svc.RegenerateDocument(ctx, "Q-0-0")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
