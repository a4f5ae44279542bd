package metrics

import "time"

// JobStarted should be called when a job begins processing.
func JobStarted(jobType string) {
	JobsInFlight.WithLabelValues(jobType).Inc()
}

// JobCompleted records a successful job completion.
func JobCompleted(jobType string, duration time.Duration) {
	JobsInFlight.WithLabelValues(jobType).Dec()
	JobsTotal.WithLabelValues(jobType, "completed").Inc()
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// JobFailed records a failed attempt. retrying is true when the job was
// rescheduled rather than marked failed.
func JobFailed(jobType string, duration time.Duration, retrying bool) {
	JobsInFlight.WithLabelValues(jobType).Dec()
	status := "failed"
	if retrying {
		status = "retrying"
	}
	JobsTotal.WithLabelValues(jobType, status).Inc()
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}
