package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/metrics"
	"github.com/DukeRupert/busroute/internal/report"
	"github.com/DukeRupert/busroute/internal/storage"
	"github.com/DukeRupert/busroute/internal/worker"
)

// MaxDocumentSize bounds a rendered proposal.
const MaxDocumentSize = 10 << 20

// GenerateQuoteDocumentHandler renders a quote's PDF proposal, stores it,
// and records the storage key on the quote.
type GenerateQuoteDocumentHandler struct {
	quotes      QuoteSource
	storage     storage.Storage
	generator   report.Generator
	companyName string
	contactURL  string
	logger      *slog.Logger
	now         func() time.Time
}

// NewGenerateQuoteDocumentHandler creates a handler using the PDF generator.
func NewGenerateQuoteDocumentHandler(
	quotes QuoteSource,
	docs storage.Storage,
	companyName string,
	contactURL string,
	logger *slog.Logger,
) *GenerateQuoteDocumentHandler {
	return &GenerateQuoteDocumentHandler{
		quotes:      quotes,
		storage:     docs,
		generator:   report.NewPDFGenerator(),
		companyName: companyName,
		contactURL:  contactURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Type returns the job type identifier.
func (h *GenerateQuoteDocumentHandler) Type() string {
	return worker.JobTypeGenerateQuoteDocument
}

// Handle executes the document job.
func (h *GenerateQuoteDocumentHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.GenerateQuoteDocumentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}
	if p.QuoteID == "" {
		return worker.NewPermanentError(fmt.Errorf("payload has no quote_id"))
	}

	quote, err := h.quotes.GetByID(ctx, p.QuoteID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return worker.NewPermanentError(fmt.Errorf("quote not found: %s", p.QuoteID))
		}
		return fmt.Errorf("fetch quote: %w", err)
	}

	var buf bytes.Buffer
	size, err := h.generator.Generate(ctx, &report.QuoteDocument{
		Quote:       quote,
		CompanyName: h.companyName,
		ContactURL:  h.contactURL,
		GeneratedAt: h.now(),
	}, &buf)
	if err != nil {
		return fmt.Errorf("generate document: %w", err)
	}

	key := storage.QuoteDocumentKey(quote.ID, quote.SubmittedDate)
	err = h.storage.Put(ctx, key, &buf, storage.PutOptions{
		ContentType: h.generator.ContentType(),
		MaxSize:     MaxDocumentSize,
		Overwrite:   true,
	})
	if err != nil {
		return fmt.Errorf("upload document: %w", err)
	}

	if err := h.quotes.AttachDocument(ctx, quote.ID, key); err != nil {
		return fmt.Errorf("attach document: %w", err)
	}

	metrics.QuoteDocumentsGenerated.Inc()
	h.logger.Info("Quote document generated",
		"quote_id", quote.ID,
		"key", key,
		"size_bytes", size,
	)
	return nil
}
