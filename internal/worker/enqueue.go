package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DukeRupert/busroute/internal/repository"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeGenerateQuoteDocument = "generate_quote_document"
	JobTypeSendQuoteNotification = "send_quote_notification"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// GenerateQuoteDocumentPayload is the payload for quote PDF rendering jobs.
type GenerateQuoteDocumentPayload struct {
	QuoteID string `json:"quote_id"`
}

// SendQuoteNotificationPayload is the payload for quote email jobs.
type SendQuoteNotificationPayload struct {
	QuoteID string `json:"quote_id"`
}

// Enqueuer is the subset of the repository needed to enqueue jobs.
// *repository.Queries satisfies it.
type Enqueuer interface {
	EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error)
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	queue Enqueuer,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&params)
	}

	job, err := queue.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueGenerateQuoteDocument enqueues rendering and storing the PDF
// proposal for a quote.
func EnqueueGenerateQuoteDocument(
	ctx context.Context,
	queue Enqueuer,
	quoteID string,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := GenerateQuoteDocumentPayload{QuoteID: quoteID}
	return EnqueueJob(ctx, queue, JobTypeGenerateQuoteDocument, payload, opts...)
}

// EnqueueSendQuoteNotification enqueues the sales notification and the
// district confirmation email for a quote.
func EnqueueSendQuoteNotification(
	ctx context.Context,
	queue Enqueuer,
	quoteID string,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := SendQuoteNotificationPayload{QuoteID: quoteID}
	return EnqueueJob(ctx, queue, JobTypeSendQuoteNotification, payload, opts...)
}
