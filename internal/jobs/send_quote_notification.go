package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/email"
	"github.com/DukeRupert/busroute/internal/worker"
)

// SendQuoteNotificationHandler emails the district a confirmation and the
// sales inbox a notification for a new quote.
type SendQuoteNotificationHandler struct {
	quotes     QuoteSource
	email      email.EmailService
	salesEmail string
	baseURL    string
	logger     *slog.Logger
}

// NewSendQuoteNotificationHandler creates a notification handler. An empty
// salesEmail skips the sales notification.
func NewSendQuoteNotificationHandler(
	quotes QuoteSource,
	emailService email.EmailService,
	salesEmail string,
	baseURL string,
	logger *slog.Logger,
) *SendQuoteNotificationHandler {
	return &SendQuoteNotificationHandler{
		quotes:     quotes,
		email:      emailService,
		salesEmail: salesEmail,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// Type returns the job type identifier.
func (h *SendQuoteNotificationHandler) Type() string {
	return worker.JobTypeSendQuoteNotification
}

// Handle sends both emails. A retry resends both, so the district may get a
// duplicate confirmation when only the sales email failed.
func (h *SendQuoteNotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.SendQuoteNotificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	quote, err := h.quotes.GetByID(ctx, p.QuoteID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return worker.NewPermanentError(fmt.Errorf("quote not found: %s", p.QuoteID))
		}
		return fmt.Errorf("fetch quote: %w", err)
	}

	var errs []error

	documentURL := fmt.Sprintf("%s/api/quotes/%s/document", h.baseURL, quote.ID)
	if err := h.email.SendQuoteConfirmation(ctx, quote, documentURL); err != nil {
		errs = append(errs, fmt.Errorf("send confirmation: %w", err))
	}

	if h.salesEmail != "" {
		adminURL := fmt.Sprintf("%s/admin/quotes/%s", h.baseURL, quote.ID)
		if err := h.email.SendQuoteNotification(ctx, h.salesEmail, quote, adminURL); err != nil {
			errs = append(errs, fmt.Errorf("send sales notification: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	h.logger.Info("Quote notifications sent", "quote_id", quote.ID, "to", quote.Email)
	return nil
}
