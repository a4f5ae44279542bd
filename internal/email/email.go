// Package email sends the transactional messages of the quote pipeline.
//
// SMTPEmailService works against Mailhog in development and any SMTP relay
// in production. LogEmailService only logs and is used when no SMTP host is
// configured.
package email

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/busroute/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService sends quote emails. All methods are context-aware.
type EmailService interface {
	// SendQuoteConfirmation tells the district contact their quote was received.
	SendQuoteConfirmation(ctx context.Context, q *domain.Quote, documentURL string) error

	// SendQuoteNotification alerts the sales inbox to a new quote.
	SendQuoteNotification(ctx context.Context, to string, q *domain.Quote, adminURL string) error
}

// Email represents a single email message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // e.g. "localhost" for Mailhog
	Port     int    // e.g. 1025 for Mailhog
	Username string // Empty for Mailhog
	Password string
	From     string
	FromName string
}

const (
	DefaultFromEmail = "quotes@busroute.example.com"
	DefaultFromName  = "BusRoute"
)

// =============================================================================
// Log-only Implementation
// =============================================================================

// LogEmailService logs emails instead of sending them.
type LogEmailService struct {
	logger *slog.Logger
}

// NewLogEmailService creates a LogEmailService.
func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendQuoteConfirmation(ctx context.Context, q *domain.Quote, documentURL string) error {
	s.logger.Info("email disabled, skipping quote confirmation",
		"quote_id", q.ID,
		"to", q.Email,
		"document_url", documentURL,
	)
	return nil
}

func (s *LogEmailService) SendQuoteNotification(ctx context.Context, to string, q *domain.Quote, adminURL string) error {
	s.logger.Info("email disabled, skipping sales notification",
		"quote_id", q.ID,
		"to", to,
		"amount", q.Amount.String(),
	)
	return nil
}

var (
	_ EmailService = (*SMTPEmailService)(nil)
	_ EmailService = (*LogEmailService)(nil)
)
