package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

const (
	progressKeyPrefix = "finquest:progress:"
	defaultCacheTTL   = 10 * time.Minute
)

// ProgressKey returns the cache key for a learner's progress record.
func ProgressKey(userID string) string {
	return progressKeyPrefix + userID
}

// CachedProgressRepository is a read-through redis cache in front of another
// progress repository. Cache errors never fail a request; the backing store
// stays authoritative.
type CachedProgressRepository struct {
	next   repository.ProgressRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewCachedProgressRepository decorates next with a redis cache.
func NewCachedProgressRepository(next repository.ProgressRepository, client redis.UniversalClient, ttl time.Duration, logger logrus.FieldLogger) repository.ProgressRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedProgressRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "progress_cache"),
	}
}

func (r *CachedProgressRepository) Find(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	data, err := r.client.Get(ctx, ProgressKey(userID)).Bytes()
	switch {
	case err == nil:
		var rec entity.ProgressRecord
		if err := json.Unmarshal(data, &rec); err == nil {
			rec.Normalize()
			return &rec, nil
		}
		r.logger.WithField("user_id", userID).Warn("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.WithError(err).WithField("user_id", userID).Warn("progress cache read failed")
	}

	rec, err := r.next.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, rec)
	return rec, nil
}

func (r *CachedProgressRepository) Save(ctx context.Context, record *entity.ProgressRecord) error {
	if err := r.next.Save(ctx, record); err != nil {
		r.evict(ctx, record.UserID)
		return err
	}
	r.store(ctx, record)
	return nil
}

func (r *CachedProgressRepository) List(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	return r.next.List(ctx, query)
}

func (r *CachedProgressRepository) Delete(ctx context.Context, userID string) error {
	r.evict(ctx, userID)
	return r.next.Delete(ctx, userID)
}

func (r *CachedProgressRepository) store(ctx context.Context, rec *entity.ProgressRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.WithError(err).Warn("encode progress for cache")
		return
	}
	if err := r.client.Set(ctx, ProgressKey(rec.UserID), data, r.ttl).Err(); err != nil {
		r.logger.WithError(err).WithField("user_id", rec.UserID).Warn("progress cache write failed")
	}
}

func (r *CachedProgressRepository) evict(ctx context.Context, userID string) {
	if err := r.client.Del(ctx, ProgressKey(userID)).Err(); err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Warn("progress cache evict failed")
	}
}
