package repository

import (
	"context"

	"github.com/eslsoft/finquest/internal/entity"
)

// ListProgressQuery pages through stored progress records.
type ListProgressQuery struct {
	Pagination
}

// ProgressRepository persists one progress record per user. Save is a full
// overwrite with last-write-wins semantics; invariants are enforced by usecases.
type ProgressRepository interface {
	Find(ctx context.Context, userID string) (*entity.ProgressRecord, error)
	Save(ctx context.Context, record *entity.ProgressRecord) error
	List(ctx context.Context, query *ListProgressQuery) ([]entity.ProgressRecord, int64, error)
	Delete(ctx context.Context, userID string) error
}
