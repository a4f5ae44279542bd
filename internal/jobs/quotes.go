// Package jobs contains the background job handlers run by the worker.
package jobs

import (
	"context"

	"github.com/DukeRupert/busroute/internal/domain"
)

// QuoteSource is the slice of the quote service the handlers need.
// service.QuoteService satisfies it.
type QuoteSource interface {
	GetByID(ctx context.Context, id string) (*domain.Quote, error)
	AttachDocument(ctx context.Context, id, key string) error
}
