// Package corrections keeps the local history of field corrections per extraction job.
package corrections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/domain"
)

// lockTimeout is the maximum time to wait for the file lock
const lockTimeout = 2 * time.Second

// Store defines the correction history operations.
type Store interface {
	Append(ctx context.Context, jobID string, fields json.RawMessage, confirmed bool) (*domain.CorrectionRecord, error)
	History(ctx context.Context, jobID string) ([]domain.CorrectionRecord, error)
	All(ctx context.Context) (map[string][]domain.CorrectionRecord, error)
}

// FileStore is a JSON file mapping job id to its ordered correction records.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path), now: time.Now}
}

// Append adds a record for jobID under the file lock.
func (s *FileStore) Append(ctx context.Context, jobID string, fields json.RawMessage, confirmed bool) (*domain.CorrectionRecord, error) {
	if jobID == "" {
		return nil, domain.ValidationError("jobId is required", nil)
	}

	record := domain.CorrectionRecord{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Fields:    fields,
		Confirmed: confirmed,
		CreatedAt: s.now().UTC(),
	}

	err := s.withLock(ctx, func() error {
		all, err := s.read()
		if err != nil {
			return err
		}
		all[jobID] = append(all[jobID], record)
		return s.write(all)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// History returns the records of one job, oldest first.
func (s *FileStore) History(ctx context.Context, jobID string) ([]domain.CorrectionRecord, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return all[jobID], nil
}

// All returns the whole history.
func (s *FileStore) All(ctx context.Context) (map[string][]domain.CorrectionRecord, error) {
	var all map[string][]domain.CorrectionRecord
	err := s.withLock(ctx, func() error {
		var err error
		all, err = s.read()
		return err
	})
	return all, err
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return domain.IOError("create corrections dir", err)
	}

	fileLock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return domain.IOError("acquire corrections lock", err)
	}
	if !locked {
		return domain.IOError(fmt.Sprintf("acquire corrections lock: timeout after %v", lockTimeout), nil)
	}
	defer fileLock.Unlock()

	return fn()
}

func (s *FileStore) read() (map[string][]domain.CorrectionRecord, error) {
	all := make(map[string][]domain.CorrectionRecord)

	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return all, nil
	}
	if err != nil {
		return nil, domain.IOError("read corrections", err)
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, domain.IOError("parse corrections", err)
	}
	return all, nil
}

// write replaces the file atomically through a temp file in the same directory.
func (s *FileStore) write(all map[string][]domain.CorrectionRecord) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return domain.IOError("encode corrections", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return domain.IOError("create corrections temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.IOError("write corrections", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.IOError("close corrections temp file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return domain.IOError("replace corrections", err)
	}
	return nil
}
