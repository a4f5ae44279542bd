package worker

import (
	"context"
	"errors"
)

// JobHandler executes one job type.
type JobHandler interface {
	// Type must match the job_type column, e.g. JobTypeGenerateQuoteDocument.
	Type() string

	// Handle runs the job. payload is the JSON stored at enqueue time.
	// Return a PermanentError when retrying cannot help.
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a failure that must not be retried, such as a
// malformed payload or a quote that no longer exists.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError wraps err so the worker fails the job immediately.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err or anything it wraps is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
