package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

var errStoreDown = errors.New("store down")

type fakeProgressRepo struct {
	mu       sync.RWMutex
	items    map[string]*entity.ProgressRecord
	saves    int
	failFind bool
	failSave bool
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{items: make(map[string]*entity.ProgressRecord)}
}

func (r *fakeProgressRepo) Find(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failFind {
		return nil, errStoreDown
	}
	item, ok := r.items[userID]
	if !ok {
		return nil, entity.ErrProgressNotFound
	}
	return item.Clone(), nil
}

func (r *fakeProgressRepo) Save(ctx context.Context, record *entity.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errStoreDown
	}
	r.saves++
	r.items[record.UserID] = record.Clone()
	return nil
}

func (r *fakeProgressRepo) List(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]entity.ProgressRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.items[id].Clone())
	}
	return out, int64(len(out)), nil
}

func (r *fakeProgressRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[userID]; !ok {
		return entity.ErrProgressNotFound
	}
	delete(r.items, userID)
	return nil
}

func (r *fakeProgressRepo) stored(userID string) (*entity.ProgressRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[userID]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

func (r *fakeProgressRepo) saveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

type fakeContentRepo struct {
	stages []entity.Stage
}

func (r *fakeContentRepo) ListStages(ctx context.Context) ([]entity.Stage, error) {
	return append([]entity.Stage(nil), r.stages...), nil
}

type fakeBadgeRepo struct {
	badges []entity.Badge
	err    error
}

func (r *fakeBadgeRepo) ListBadges(ctx context.Context) ([]entity.Badge, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]entity.Badge(nil), r.badges...), nil
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func lessons(n, xp int) []entity.Lesson {
	out := make([]entity.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, entity.Lesson{ID: i, Title: "lesson", XPReward: xp})
	}
	return out
}

// testStages is a two-stage curriculum: stage 1 has six 20-XP lessons, stage
// 2 needs 100 XP and has three lessons.
func testStages() []entity.Stage {
	return []entity.Stage{
		{ID: 1, Title: "Money Basics", Lessons: lessons(6, 20)},
		{ID: 2, Title: "Budgeting", RequiredXP: 100, Lessons: lessons(3, 30)},
	}
}

type engineFixture struct {
	repo    *fakeProgressRepo
	badges  *fakeBadgeRepo
	usecase *progressionUsecase
	now     time.Time
}

func newEngineFixture(policy XPPolicy) *engineFixture {
	f := &engineFixture{
		repo:   newFakeProgressRepo(),
		badges: &fakeBadgeRepo{badges: entity.DefaultBadges()},
		now:    time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	ledger, err := NewXPLedger(nil, LevelOverflowExtrapolate)
	if err != nil {
		panic(err)
	}
	evaluator, err := NewBadgeEvaluator(quietLogger())
	if err != nil {
		panic(err)
	}
	clock := TimeSourceFunc(func() time.Time { return f.now })
	uc := NewProgressionUsecase(
		NewProgressStore(f.repo),
		&fakeContentRepo{stages: testStages()},
		f.badges,
		ledger,
		evaluator,
		clock,
		ProgressionConfig{XPPolicy: policy},
		quietLogger(),
	)
	f.usecase = uc.(*progressionUsecase)
	return f
}
