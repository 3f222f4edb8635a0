package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
)

// JobResults stores extraction results keyed by job id.
type JobResults struct {
	client Client
	ttl    time.Duration
}

// NewJobResults wraps client. A nil client disables caching.
func NewJobResults(client Client, ttl time.Duration) *JobResults {
	return &JobResults{client: client, ttl: ttl}
}

// Put stores result under its job id.
func (j *JobResults) Put(ctx context.Context, result *domain.ExtractionResult) error {
	if j == nil || j.client == nil || result == nil || result.JobID == "" {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode job result: %w", err)
	}
	return j.client.Set(ctx, Key("job", result.JobID), data, j.ttl)
}

// Get returns the cached result or ErrCacheMiss.
func (j *JobResults) Get(ctx context.Context, jobID string) (*domain.ExtractionResult, error) {
	if j == nil || j.client == nil {
		return nil, ErrCacheMiss
	}
	data, err := j.client.Get(ctx, Key("job", jobID))
	if err != nil {
		return nil, err
	}
	var result domain.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = j.client.Delete(ctx, Key("job", jobID))
		return nil, ErrCacheMiss
	}
	return &result, nil
}

// Forget drops the cached result of jobID.
func (j *JobResults) Forget(ctx context.Context, jobID string) error {
	if j == nil || j.client == nil {
		return nil
	}
	err := j.client.Delete(ctx, Key("job", jobID))
	if errors.Is(err, ErrCacheMiss) {
		return nil
	}
	return err
}
