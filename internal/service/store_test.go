package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/DukeRupert/busroute/internal/repository"
	"github.com/google/uuid"
)

// memStore is an in-memory QuoteStore.
type memStore struct {
	mu     sync.Mutex
	quotes map[string]repository.Quote
	jobs   []repository.EnqueueJobParams
	now    time.Time

	createErr  error
	enqueueErr error
}

func newMemStore() *memStore {
	return &memStore{
		quotes: make(map[string]repository.Quote),
		now:    time.Date(2024, 6, 20, 15, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memStore) EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return repository.Job{}, m.enqueueErr
	}
	m.jobs = append(m.jobs, arg)
	return repository.Job{ID: uuid.New(), JobType: arg.JobType, Payload: arg.Payload, Status: "pending"}, nil
}

func (m *memStore) CreateQuote(ctx context.Context, arg repository.CreateQuoteParams) (repository.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return repository.Quote{}, m.createErr
	}
	if _, exists := m.quotes[arg.ID]; exists {
		return repository.Quote{}, errors.New("duplicate key value violates unique constraint")
	}
	now := m.tick()
	row := repository.Quote{
		ID:                arg.ID,
		DistrictName:      arg.DistrictName,
		ContactName:       arg.ContactName,
		ContactRole:       arg.ContactRole,
		Email:             arg.Email,
		StudentCount:      arg.StudentCount,
		BusCount:          arg.BusCount,
		LegacyBusCount:    arg.LegacyBusCount,
		NewBusCount:       arg.NewBusCount,
		Tier:              arg.Tier,
		AmountCents:       arg.AmountCents,
		HardwareCostCents: arg.HardwareCostCents,
		SetupFeeCents:     arg.SetupFeeCents,
		Status:            arg.Status,
		SubmittedDate:     arg.SubmittedDate,
		PricingSnapshot:   arg.PricingSnapshot,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}
	m.quotes[row.ID] = row
	return row, nil
}

func (m *memStore) GetQuoteByID(ctx context.Context, id string) (repository.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.quotes[id]
	if !ok {
		return repository.Quote{}, sql.ErrNoRows
	}
	return row, nil
}

func (m *memStore) filtered(statuses []string) []repository.Quote {
	var rows []repository.Quote
	for _, row := range m.quotes {
		if len(statuses) == 0 || contains(statuses, row.Status) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].SubmittedAt.Equal(rows[j].SubmittedAt) {
			return rows[i].SubmittedAt.After(rows[j].SubmittedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	return rows
}

func (m *memStore) ListQuotes(ctx context.Context, arg repository.ListQuotesParams) ([]repository.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.filtered(arg.Statuses)
	start := int(arg.Offset)
	if start > len(rows) {
		start = len(rows)
	}
	end := start + int(arg.Limit)
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (m *memStore) CountQuotes(ctx context.Context, statuses []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filtered(statuses))), nil
}

func (m *memStore) UpdateQuoteStatus(ctx context.Context, arg repository.UpdateQuoteStatusParams) (repository.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.quotes[arg.ID]
	if !ok || row.Status != arg.FromStatus {
		return repository.Quote{}, sql.ErrNoRows
	}
	now := m.tick()
	row.Status = arg.ToStatus
	row.DecidedAt = sql.NullTime{Time: now, Valid: true}
	row.UpdatedAt = now
	m.quotes[arg.ID] = row
	return row, nil
}

func (m *memStore) SetQuoteDocumentKey(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.quotes[id]
	if !ok {
		return nil
	}
	row.DocumentKey = sql.NullString{String: key, Valid: true}
	m.quotes[id] = row
	return nil
}

func (m *memStore) SummarizeQuotes(ctx context.Context) ([]repository.QuoteStatusTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[string]*repository.QuoteStatusTotal{}
	for _, row := range m.quotes {
		t, ok := totals[row.Status]
		if !ok {
			t = &repository.QuoteStatusTotal{Status: row.Status}
			totals[row.Status] = t
		}
		t.Count++
		t.AmountCents += row.AmountCents
	}
	out := make([]repository.QuoteStatusTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memStore) jobTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		types = append(types, j.JobType)
	}
	return types
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var _ QuoteStore = (*memStore)(nil)
var _ QuoteStore = (*repository.Queries)(nil)
