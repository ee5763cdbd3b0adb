package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

// MemoryProgressRepository keeps progress records in process memory. It backs
// the "memory" driver and short-lived CLI sessions.
type MemoryProgressRepository struct {
	mu      sync.RWMutex
	records map[string]*entity.ProgressRecord
}

// NewMemoryProgressRepository constructs an empty in-memory store.
func NewMemoryProgressRepository() *MemoryProgressRepository {
	return &MemoryProgressRepository{records: make(map[string]*entity.ProgressRecord)}
}

var _ repository.ProgressRepository = (*MemoryProgressRepository)(nil)

func (r *MemoryProgressRepository) Find(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil, entity.ErrProgressNotFound
	}
	return rec.Clone(), nil
}

func (r *MemoryProgressRepository) Save(ctx context.Context, record *entity.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.UserID] = record.Clone()
	return nil
}

func (r *MemoryProgressRepository) List(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	page := query.Pagination.Normalized(defaultPageSize, maxPageSize)

	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := min(int(page.Offset()), len(ids))
	end := min(start+int(page.PageSize), len(ids))
	out := make([]entity.ProgressRecord, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, *r.records[id].Clone())
	}
	return out, int64(len(ids)), nil
}

func (r *MemoryProgressRepository) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[userID]; !ok {
		return entity.ErrProgressNotFound
	}
	delete(r.records, userID)
	return nil
}
