package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/observability"
)

// scripted returns the statuses in order, repeating the last one.
func scripted(calls *int, steps ...func() (*domain.Job, error)) FetchFunc {
	return func(context.Context) (*domain.Job, error) {
		i := *calls
		*calls++
		if i >= len(steps) {
			i = len(steps) - 1
		}
		return steps[i]()
	}
}

func status(s domain.JobStatus) func() (*domain.Job, error) {
	return func() (*domain.Job, error) { return &domain.Job{ID: "job-1", Status: s}, nil }
}

func failing() (*domain.Job, error) { return nil, errors.New("connection reset") }

func newPoller(attempts int) *Poller {
	return NewPoller(time.Millisecond, attempts, observability.Nop())
}

func TestPoll_StopsOnDone(t *testing.T) {
	calls := 0
	job, err := newPoller(40).Poll(context.Background(), "job-1",
		scripted(&calls, status(domain.JobStatusPending), status(domain.JobStatusRunning), status(domain.JobStatusDone)))

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, 3, calls)
}

func TestPoll_FailedIsTerminal(t *testing.T) {
	calls := 0
	job, err := newPoller(40).Poll(context.Background(), "job-1",
		scripted(&calls, status(domain.JobStatusPending), status(domain.JobStatusFailed)))

	require.ErrorIs(t, err, domain.ErrJobFailed)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, 2, calls)
}

func TestPoll_FetchErrorsConsumeAttempts(t *testing.T) {
	calls := 0
	job, err := newPoller(5).Poll(context.Background(), "job-1",
		scripted(&calls, failing, failing, status(domain.JobStatusDone)))

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, 3, calls)
}

func TestPoll_TimesOutAfterMaxAttempts(t *testing.T) {
	calls := 0
	job, err := newPoller(4).Poll(context.Background(), "job-1",
		scripted(&calls, status(domain.JobStatusRunning)))

	require.ErrorIs(t, err, domain.ErrJobTimeout)
	assert.Equal(t, 4, calls)
	require.NotNil(t, job)
	assert.Equal(t, domain.JobStatusRunning, job.Status)
	assert.Contains(t, err.Error(), "still RUNNING after 4 attempts")
}

func TestPoll_AllErrorsTimeOutWithoutJob(t *testing.T) {
	calls := 0
	job, err := newPoller(3).Poll(context.Background(), "job-1", scripted(&calls, failing))

	require.ErrorIs(t, err, domain.ErrJobTimeout)
	assert.Nil(t, job)
	assert.Equal(t, 3, calls)
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := NewPoller(time.Hour, 40, observability.Nop()).Poll(ctx, "job-1", scripted(&calls, status(domain.JobStatusDone)))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(0, 0, observability.Nop())
	assert.Equal(t, time.Second, p.Interval)
	assert.Equal(t, 40, p.MaxAttempts)
}
