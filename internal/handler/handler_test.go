package handler

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/pricing"
	"github.com/DukeRupert/busroute/internal/service"
	"github.com/DukeRupert/busroute/internal/storage"
)

var _ service.QuoteService = (*fakeQuoteService)(nil)

// fakeQuoteService prices with the real engine and keeps quotes in a map.
type fakeQuoteService struct {
	engine      *pricing.Engine
	quotes      map[string]*domain.Quote
	documents   map[string]string
	regenerated []string
	lastList    domain.ListQuotesParams
	err         error
}

func newFakeQuoteService() *fakeQuoteService {
	now := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	return &fakeQuoteService{
		engine: pricing.NewEngine(
			pricing.WithClock(pricing.ClockFunc(func() time.Time { return now })),
		),
		quotes:    make(map[string]*domain.Quote),
		documents: make(map[string]string),
	}
}

func (f *fakeQuoteService) Preview(ctx context.Context, req domain.QuoteRequest) (*domain.PricingBreakdown, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := f.engine.Price(req)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (f *fakeQuoteService) Submit(ctx context.Context, req domain.QuoteRequest) (*domain.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	q, err := f.engine.Compute(req)
	if err != nil {
		return nil, err
	}
	f.quotes[q.ID] = q
	return q, nil
}

func (f *fakeQuoteService) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	q, ok := f.quotes[id]
	if !ok {
		return nil, domain.NotFound("quote.get", "quote", id)
	}
	return q, nil
}

func (f *fakeQuoteService) List(ctx context.Context, params domain.ListQuotesParams) (*domain.ListQuotesResult, error) {
	f.lastList = params
	if f.err != nil {
		return nil, f.err
	}
	result := &domain.ListQuotesResult{Limit: params.Limit, Offset: params.Offset}
	for _, q := range f.quotes {
		result.Quotes = append(result.Quotes, *q)
	}
	result.Total = int64(len(result.Quotes))
	return result, nil
}

func (f *fakeQuoteService) Approve(ctx context.Context, id string) (*domain.Quote, error) {
	return f.decide(id, domain.QuoteStatusApproved)
}

func (f *fakeQuoteService) Reject(ctx context.Context, id string) (*domain.Quote, error) {
	return f.decide(id, domain.QuoteStatusRejected)
}

func (f *fakeQuoteService) decide(id string, to domain.QuoteStatus) (*domain.Quote, error) {
	q, err := f.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if !q.Status.CanTransitionTo(to) {
		return nil, domain.Conflict("quote.decide", "quote has already been decided")
	}
	q.Status = to
	return q, nil
}

func (f *fakeQuoteService) Summary(ctx context.Context) (*domain.PipelineSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &domain.PipelineSummary{}
	for _, status := range []domain.QuoteStatus{domain.QuoteStatusPending, domain.QuoteStatusApproved, domain.QuoteStatusRejected} {
		st := domain.StatusTotal{Status: status}
		for _, q := range f.quotes {
			if q.Status == status {
				st.Count++
				st.Amount = st.Amount.Add(q.Amount)
			}
		}
		s.Statuses = append(s.Statuses, st)
		s.Count += st.Count
		s.Amount = s.Amount.Add(st.Amount)
	}
	return s, nil
}

func (f *fakeQuoteService) Document(ctx context.Context, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	if _, err := f.GetByID(ctx, id); err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	body, ok := f.documents[id]
	if !ok {
		return nil, storage.ObjectInfo{}, domain.Errorf(domain.ENOTFOUND, "quote.document", "document for quote %q is not ready yet", id)
	}
	return io.NopCloser(strings.NewReader(body)), storage.ObjectInfo{
		Key:         "quotes/2026-03-02/" + id + ".pdf",
		Size:        int64(len(body)),
		ContentType: storage.ContentTypePDF,
	}, nil
}

func (f *fakeQuoteService) AttachDocument(ctx context.Context, id, key string) error {
	q, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	q.DocumentKey = key
	return nil
}

func (f *fakeQuoteService) RegenerateDocument(ctx context.Context, id string) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}
	f.regenerated = append(f.regenerated, id)
	return nil
}
