// Package worker runs background jobs from the Postgres jobs table.
//
// Jobs are claimed with FOR UPDATE SKIP LOCKED, so any number of server
// replicas can run workers against the same queue.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/busroute/internal/metrics"
	"github.com/DukeRupert/busroute/internal/repository"
)

// Statuses a failed job can move to.
const (
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Worker claims and executes jobs with a fixed pool of goroutines.
type Worker struct {
	db       *sql.DB
	queries  *repository.Queries
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New validates config and returns a stopped Worker. Register handlers,
// then call Start.
func New(db *sql.DB, queries *repository.Queries, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid worker config: %w", err)
	}

	return &Worker{
		db:       db,
		queries:  queries,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger.With("component", "worker"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a handler. A second handler for the same type replaces the first.
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("Replacing job handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
}

// Start requeues stale jobs and launches the worker goroutines.
func (w *Worker) Start(ctx context.Context) {
	if err := w.recoverStaleJobs(ctx); err != nil {
		w.logger.Error("Failed to recover stale jobs", "error", err)
	}

	for i := 1; i <= w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, w.logger.With("worker_id", i))
	}

	types := make([]string, 0, len(w.handlers))
	for t := range w.handlers {
		types = append(types, t)
	}
	w.logger.Info("Worker started", "concurrency", w.config.Concurrency, "job_types", types)
}

// Stop stops claiming jobs and waits up to ShutdownTimeout for running ones.
// It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timed out with jobs still running", "timeout", w.config.ShutdownTimeout)
	}
}

func (w *Worker) recoverStaleJobs(ctx context.Context) error {
	count, err := w.queries.RecoverStaleJobs(ctx, w.config.StaleJobThreshold.Seconds())
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}
	if count > 0 {
		w.logger.Warn("Requeued stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}
	return nil
}

// loop drains the queue, then sleeps for PollInterval. Draining keeps a
// burst of submissions from waiting one interval per job.
func (w *Worker) loop(ctx context.Context, logger *slog.Logger) {
	defer w.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		for !w.stopping() {
			err := w.processNext(ctx, logger)
			if errors.Is(err, sql.ErrNoRows) {
				break
			}
			if err != nil {
				logger.Error("Failed to process job", "error", err)
				break
			}
		}

		timer.Reset(w.config.PollInterval)
	}
}

func (w *Worker) stopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// processNext claims and runs one job. It returns sql.ErrNoRows when the
// queue has nothing due. A failing job is recorded and is not an error here.
func (w *Worker) processNext(ctx context.Context, logger *slog.Logger) error {
	job, err := w.claim(ctx)
	if err != nil {
		return err
	}

	logger = logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts+1)
	logger.Info("Processing job")

	metrics.JobStarted(job.JobType)
	start := time.Now()

	if err := w.execute(ctx, job); err != nil {
		status := w.markFailed(ctx, job.ID, err, logger)
		metrics.JobFailed(job.JobType, time.Since(start), status == StatusPending)
		logger.Error("Job failed", "error", err, "status", status, "permanent", IsPermanent(err))
		return nil
	}

	metrics.JobCompleted(job.JobType, time.Since(start))
	if err := w.queries.UpdateJobCompleted(ctx, job.ID); err != nil {
		return fmt.Errorf("mark job %s completed: %w", job.ID, err)
	}
	logger.Info("Job completed", "duration", time.Since(start))
	return nil
}

// claim dequeues the next due job and marks it running in one transaction.
func (w *Worker) claim(ctx context.Context) (repository.Job, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Job{}, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	qtx := w.queries.WithTx(tx)

	job, err := qtx.DequeueJob(ctx)
	if err != nil {
		return repository.Job{}, err
	}
	if err := qtx.UpdateJobStarted(ctx, job.ID); err != nil {
		return repository.Job{}, fmt.Errorf("mark job started: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return repository.Job{}, fmt.Errorf("commit claim: %w", err)
	}
	return job, nil
}

// execute runs the job's handler under JobTimeout. A panicking handler
// fails the job instead of the process.
func (w *Worker) execute(ctx context.Context, job repository.Job) (err error) {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler registered for job type %q", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	return handler.Handle(jobCtx, job.Payload)
}

// markFailed records the failure and returns the job's new status:
// StatusPending when a retry is scheduled, StatusFailed otherwise.
func (w *Worker) markFailed(ctx context.Context, jobID uuid.UUID, jobErr error, logger *slog.Logger) string {
	status, err := w.queries.UpdateJobFailed(ctx, repository.UpdateJobFailedParams{
		ID:           jobID,
		ErrorMessage: sql.NullString{String: jobErr.Error(), Valid: true},
		Permanent:    IsPermanent(jobErr),
	})
	if err != nil {
		logger.Error("Failed to record job failure", "error", err)
		return ""
	}
	return status
}
