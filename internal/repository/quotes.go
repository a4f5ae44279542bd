package repository

import (
	"context"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const quoteColumns = `id, district_name, contact_name, contact_role, email,
	student_count, bus_count, legacy_bus_count, new_bus_count, tier,
	amount_cents, hardware_cost_cents, setup_fee_cents, status, submitted_date,
	pricing_snapshot, document_key, submitted_at, decided_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (Quote, error) {
	var i Quote
	err := row.Scan(
		&i.ID,
		&i.DistrictName,
		&i.ContactName,
		&i.ContactRole,
		&i.Email,
		&i.StudentCount,
		&i.BusCount,
		&i.LegacyBusCount,
		&i.NewBusCount,
		&i.Tier,
		&i.AmountCents,
		&i.HardwareCostCents,
		&i.SetupFeeCents,
		&i.Status,
		&i.SubmittedDate,
		&i.PricingSnapshot,
		&i.DocumentKey,
		&i.SubmittedAt,
		&i.DecidedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createQuote = `-- name: CreateQuote :one
INSERT INTO quotes (
	id, district_name, contact_name, contact_role, email,
	student_count, bus_count, legacy_bus_count, new_bus_count, tier,
	amount_cents, hardware_cost_cents, setup_fee_cents, status, submitted_date,
	pricing_snapshot
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + quoteColumns

// CreateQuoteParams holds the columns of a new quote row.
type CreateQuoteParams struct {
	ID                string
	DistrictName      string
	ContactName       string
	ContactRole       string
	Email             string
	StudentCount      int32
	BusCount          int32
	LegacyBusCount    int32
	NewBusCount       int32
	Tier              string
	AmountCents       int64
	HardwareCostCents int64
	SetupFeeCents     int64
	Status            string
	SubmittedDate     string
	PricingSnapshot   pqtype.NullRawMessage
}

func (q *Queries) CreateQuote(ctx context.Context, arg CreateQuoteParams) (Quote, error) {
	row := q.db.QueryRowContext(ctx, createQuote,
		arg.ID,
		arg.DistrictName,
		arg.ContactName,
		arg.ContactRole,
		arg.Email,
		arg.StudentCount,
		arg.BusCount,
		arg.LegacyBusCount,
		arg.NewBusCount,
		arg.Tier,
		arg.AmountCents,
		arg.HardwareCostCents,
		arg.SetupFeeCents,
		arg.Status,
		arg.SubmittedDate,
		arg.PricingSnapshot,
	)
	return scanQuote(row)
}

const getQuoteByID = `-- name: GetQuoteByID :one
SELECT ` + quoteColumns + `
FROM quotes
WHERE id = $1`

func (q *Queries) GetQuoteByID(ctx context.Context, id string) (Quote, error) {
	return scanQuote(q.db.QueryRowContext(ctx, getQuoteByID, id))
}

const listQuotes = `-- name: ListQuotes :many
SELECT ` + quoteColumns + `
FROM quotes
WHERE cardinality($1::text[]) = 0 OR status = ANY($1::text[])
ORDER BY submitted_at DESC, id DESC
LIMIT $2 OFFSET $3`

// ListQuotesParams filters by status; an empty Statuses matches every quote.
type ListQuotesParams struct {
	Statuses []string
	Limit    int32
	Offset   int32
}

func (q *Queries) ListQuotes(ctx context.Context, arg ListQuotesParams) ([]Quote, error) {
	rows, err := q.db.QueryContext(ctx, listQuotes, pq.Array(statusFilter(arg.Statuses)), arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Quote
	for rows.Next() {
		i, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countQuotes = `-- name: CountQuotes :one
SELECT COUNT(*)
FROM quotes
WHERE cardinality($1::text[]) = 0 OR status = ANY($1::text[])`

func (q *Queries) CountQuotes(ctx context.Context, statuses []string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countQuotes, pq.Array(statusFilter(statuses))).Scan(&count)
	return count, err
}

const updateQuoteStatus = `-- name: UpdateQuoteStatus :one
UPDATE quotes
SET status = $3, decided_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status = $2
RETURNING ` + quoteColumns

// UpdateQuoteStatusParams moves a quote from FromStatus to ToStatus.
// No row is returned when the quote is not in FromStatus.
type UpdateQuoteStatusParams struct {
	ID         string
	FromStatus string
	ToStatus   string
}

func (q *Queries) UpdateQuoteStatus(ctx context.Context, arg UpdateQuoteStatusParams) (Quote, error) {
	return scanQuote(q.db.QueryRowContext(ctx, updateQuoteStatus, arg.ID, arg.FromStatus, arg.ToStatus))
}

const setQuoteDocumentKey = `-- name: SetQuoteDocumentKey :exec
UPDATE quotes
SET document_key = $2, updated_at = NOW()
WHERE id = $1`

func (q *Queries) SetQuoteDocumentKey(ctx context.Context, id, key string) error {
	_, err := q.db.ExecContext(ctx, setQuoteDocumentKey, id, key)
	return err
}

const summarizeQuotes = `-- name: SummarizeQuotes :many
SELECT status, COUNT(*), COALESCE(SUM(amount_cents), 0)::bigint
FROM quotes
GROUP BY status
ORDER BY status`

func (q *Queries) SummarizeQuotes(ctx context.Context) ([]QuoteStatusTotal, error) {
	rows, err := q.db.QueryContext(ctx, summarizeQuotes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuoteStatusTotal
	for rows.Next() {
		var i QuoteStatusTotal
		if err := rows.Scan(&i.Status, &i.Count, &i.AmountCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// statusFilter never returns nil so the array parameter encodes as '{}'.
func statusFilter(statuses []string) []string {
	if statuses == nil {
		return []string{}
	}
	return statuses
}
