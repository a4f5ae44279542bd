package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"
	"unicode"

	"github.com/DukeRupert/busroute/internal/domain"
	"github.com/DukeRupert/busroute/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPEmailService sends emails via SMTP using embedded html/template bodies.
type SMTPEmailService struct {
	config    SMTPConfig
	templates *template.Template
	logger    *slog.Logger
	sendMail  sendFunc
}

// NewSMTPEmailService creates a new SMTP-based email service.
func NewSMTPEmailService(config SMTPConfig, logger *slog.Logger) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		templates: templates,
		logger:    logger,
		sendMail:  smtp.SendMail,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// quoteData is the template context shared by quote emails.
type quoteData struct {
	Quote *domain.Quote
	URL   string
	Year  int
}

// SendQuoteConfirmation tells the district contact their quote was received.
func (s *SMTPEmailService) SendQuoteConfirmation(ctx context.Context, q *domain.Quote, documentURL string) error {
	data := quoteData{Quote: q, URL: documentURL, Year: time.Now().Year()}

	htmlBody, err := s.renderTemplate("quote_confirmation.html", data)
	if err != nil {
		return fmt.Errorf("failed to render quote confirmation template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Thanks for requesting a quote for %s.

Quote:     %s
Plan:      %s
Buses:     %d (%d legacy)
Total:     %s

A sales representative will follow up shortly.
%s
Thanks,
The %s Team
`, greetingName(q), q.DistrictName, q.ID, q.Tier.DisplayName(), q.BusCount,
		q.LegacyBusCount, q.Amount.Display(), linkLine("Download your proposal: ", documentURL), s.config.FromName)

	return s.send(ctx, "quote_confirmation", Email{
		To:       q.Email,
		Subject:  fmt.Sprintf("Your %s quote %s", s.config.FromName, q.ID),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// SendQuoteNotification alerts the sales inbox to a new quote.
func (s *SMTPEmailService) SendQuoteNotification(ctx context.Context, to string, q *domain.Quote, adminURL string) error {
	data := quoteData{Quote: q, URL: adminURL, Year: time.Now().Year()}

	htmlBody, err := s.renderTemplate("quote_notification.html", data)
	if err != nil {
		return fmt.Errorf("failed to render quote notification template: %w", err)
	}

	textBody := fmt.Sprintf(`New quote request %s

District:  %s
Contact:   %s (%s) <%s>
Students:  %d
Fleet:     %d buses (%d legacy, %d new)
Plan:      %s
Total:     %s
%s`, q.ID, q.DistrictName, q.ContactName, q.ContactRole, q.Email, q.StudentCount,
		q.BusCount, q.LegacyBusCount, q.NewBusCount, q.Tier.DisplayName(),
		q.Amount.Display(), linkLine("Review: ", adminURL))

	return s.send(ctx, "quote_notification", Email{
		To:       to,
		Subject:  fmt.Sprintf("New quote: %s (%s)", q.DistrictName, q.Amount.Display()),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// =============================================================================
// Internal Methods
// =============================================================================

// send delivers email via SMTP and records the outcome per message kind.
func (s *SMTPEmailService) send(ctx context.Context, kind string, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if email.To == "" || singleLine(email.To) != email.To {
		return fmt.Errorf("invalid recipient %q", email.To)
	}

	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Mailhog takes no auth
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.sendMail(addr, auth, s.config.From, []string{email.To}, msg); err != nil {
		metrics.EmailsSent.WithLabelValues(kind, "failed").Inc()
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
	s.logger.Info("email sent", "to", email.To, "subject", email.Subject)
	return nil
}

const mimeBoundary = "===============BUSROUTE_BOUNDARY==============="

// buildMessage constructs a multipart/alternative message with text and HTML parts.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", encodeHeader(s.config.FromName), singleLine(s.config.From))
	fmt.Fprintf(&buf, "To: %s\r\n", singleLine(email.To))
	fmt.Fprintf(&buf, "Subject: %s\r\n", encodeHeader(email.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", mimeBoundary)

	writePart := func(contentType, body string) {
		fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&buf, "Content-Type: %s; charset=utf-8\r\n", contentType)
		buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		buf.WriteString(body)
		buf.WriteString("\r\n")
	}
	writePart("text/plain", email.TextBody)
	writePart("text/html", email.HTMLBody)

	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes()
}

// singleLine drops control characters so a value cannot end its header
// line and start another.
func singleLine(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, v)
}

// encodeHeader makes free text safe for a header: single line, and
// RFC 2047 encoded when it is not plain ASCII.
func encodeHeader(v string) string {
	return mime.QEncoding.Encode("utf-8", singleLine(v))
}

func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m domain.Money) string {
			return m.Display()
		},
	}
}

func greetingName(q *domain.Quote) string {
	if name := strings.TrimSpace(q.ContactName); name != "" {
		return name
	}
	return "there"
}

func linkLine(prefix, url string) string {
	if url == "" {
		return ""
	}
	return "\n" + prefix + url + "\n"
}
