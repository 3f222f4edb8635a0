// Package jobs polls asynchronous extraction jobs until they reach a terminal status.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

const (
	DefaultInterval    = time.Second
	DefaultMaxAttempts = 40
)

// FetchFunc reads the current state of a job.
type FetchFunc func(ctx context.Context) (*domain.Job, error)

// Poller checks a job at a fixed interval for a bounded number of attempts.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	logger      *observability.Logger
}

// NewPoller creates a poller. Non-positive values fall back to 1s and 40 attempts.
func NewPoller(interval time.Duration, maxAttempts int, logger *observability.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Poller{Interval: interval, MaxAttempts: maxAttempts, logger: logger}
}

// errNotTerminal marks an attempt that saw a non-terminal status.
var errNotTerminal = errors.New("job not terminal")

// Poll waits one interval before every attempt. Fetch errors are logged and use up
// the attempt. It returns the job on DONE, the job and domain.ErrJobFailed on FAILED,
// and the last job seen (possibly nil) with domain.ErrJobTimeout once attempts run out.
func (p *Poller) Poll(ctx context.Context, jobID string, fetch FetchFunc) (*domain.Job, error) {
	var last *domain.Job
	attempt := 0

	operation := func() (*domain.Job, error) {
		attempt++
		job, err := fetch(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Str("job_id", jobID).Int("attempt", attempt).Msg("Job status check failed")
			return nil, err
		}
		last = job
		p.logger.Debug().Str("job_id", jobID).Str("status", string(job.Status)).Int("attempt", attempt).Msg("Job status")

		if job.Status.Terminal() {
			return job, nil
		}
		return nil, errNotTerminal
	}

	// The first check happens one interval after submission, like every later one.
	timer := time.NewTimer(p.Interval)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	job, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Interval)),
		backoff.WithMaxTries(uint(p.MaxAttempts)), // #nosec G115 -- validated positive
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return last, ctxErr
		}
		status := "unknown"
		if last != nil {
			status = string(last.Status)
		}
		return last, fmt.Errorf("job %s still %s after %d attempts: %w", jobID, status, attempt, domain.ErrJobTimeout)
	}

	if job.Status == domain.JobStatusFailed {
		return job, fmt.Errorf("job %s: %w", jobID, domain.ErrJobFailed)
	}
	return job, nil
}
