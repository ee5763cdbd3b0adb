package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

// ProgressStore loads and saves progress records. A missing record is
// created in its default state and persisted on first load.
type ProgressStore struct {
	repo  repository.ProgressRepository
	clock func() time.Time
}

// NewProgressStore wraps a progress repository.
func NewProgressStore(repo repository.ProgressRepository) *ProgressStore {
	return &ProgressStore{repo: repo, clock: time.Now}
}

// Load returns the user's record. Repository failures are reported as
// ErrPersistenceUnavailable.
func (s *ProgressStore) Load(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	record, err := s.repo.Find(ctx, userID)
	if errors.Is(err, entity.ErrProgressNotFound) {
		record = entity.NewProgressRecord(userID)
		if err := s.Save(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load progress for %s: %w", entity.ErrPersistenceUnavailable, userID, err)
	}
	record.Normalize()
	return record, nil
}

// Save overwrites the stored record.
func (s *ProgressStore) Save(ctx context.Context, record *entity.ProgressRecord) error {
	record.Normalize()
	record.UpdatedAt = s.clock().UTC()
	if err := s.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("%w: save progress for %s: %w", entity.ErrPersistenceUnavailable, record.UserID, err)
	}
	return nil
}

// Delete removes the stored record. Deleting an unknown user reports
// ErrProgressNotFound.
func (s *ProgressStore) Delete(ctx context.Context, userID string) error {
	err := s.repo.Delete(ctx, userID)
	if err == nil || errors.Is(err, entity.ErrProgressNotFound) {
		return err
	}
	return fmt.Errorf("%w: delete progress for %s: %w", entity.ErrPersistenceUnavailable, userID, err)
}
