package worker

import (
	"errors"
	"fmt"
	"time"
)

// Config tunes the job worker.
type Config struct {
	Concurrency       int           // goroutines claiming jobs, 1-100
	PollInterval      time.Duration // wait after the queue is found empty
	JobTimeout        time.Duration // deadline of a single Handle call
	ShutdownTimeout   time.Duration // how long Stop waits for running jobs
	StaleJobThreshold time.Duration // running jobs older than this are requeued on Start
}

// DefaultConfig suits quote documents and emails: both finish in seconds,
// so a two minute timeout only trips on a hung SMTP or storage call.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

// Validate reports every out-of-range field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 || c.Concurrency > 100 {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and 100, got %d", c.Concurrency))
	}
	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("poll interval must be at least 1s, got %v", c.PollInterval))
	}
	if c.JobTimeout < time.Second {
		errs = append(errs, fmt.Errorf("job timeout must be at least 1s, got %v", c.JobTimeout))
	}
	if c.ShutdownTimeout < time.Second {
		errs = append(errs, fmt.Errorf("shutdown timeout must be at least 1s, got %v", c.ShutdownTimeout))
	}
	if c.StaleJobThreshold < time.Minute {
		errs = append(errs, fmt.Errorf("stale job threshold must be at least 1m, got %v", c.StaleJobThreshold))
	}
	// Requeuing a job that is still inside its timeout would run it twice
	if c.StaleJobThreshold <= c.JobTimeout {
		errs = append(errs, fmt.Errorf("stale job threshold %v must exceed job timeout %v", c.StaleJobThreshold, c.JobTimeout))
	}
	return errors.Join(errs...)
}
