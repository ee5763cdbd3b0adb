package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

// XPPolicy decides whether replaying a completed lesson awards XP again.
type XPPolicy string

const (
	XPPolicyEveryCompletion XPPolicy = "every_completion"
	XPPolicyFirstCompletion XPPolicy = "first_completion"
)

// ParseXPPolicy accepts the config spelling of an XP policy. Empty means
// every_completion.
func ParseXPPolicy(raw string) (XPPolicy, error) {
	switch XPPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", XPPolicyEveryCompletion:
		return XPPolicyEveryCompletion, nil
	case XPPolicyFirstCompletion:
		return XPPolicyFirstCompletion, nil
	default:
		return "", fmt.Errorf("unknown xp policy %q", raw)
	}
}

// ProgressionConfig tunes the progression rules.
type ProgressionConfig struct {
	XPPolicy   XPPolicy
	Checkpoint Checkpoint
}

// ProgressResult is the outcome of a mutating transaction. Persisted is false
// when the store was unavailable and the change only exists in memory.
type ProgressResult struct {
	Record    *entity.ProgressRecord
	Level     entity.LevelInfo
	NewBadges []entity.Badge
	Persisted bool
}

// CompletionResult is returned by lesson completion.
type CompletionResult struct {
	ProgressResult
	Completion entity.CompletionRecord
}

// LoginResult is returned by RecordLogin. Recorded is false when today was
// already on file.
type LoginResult struct {
	ProgressResult
	Recorded bool
}

// ProgressionUsecase orchestrates every change to a learner's progress.
type ProgressionUsecase interface {
	CompleteLesson(ctx context.Context, userID string, stageID, lessonID, score int) (*CompletionResult, error)
	SubmitLesson(ctx context.Context, userID string, stageID, lessonID int, answers []entity.Answer) (*CompletionResult, error)
	RecordLogin(ctx context.Context, userID string) (*LoginResult, error)
	AwardXP(ctx context.Context, userID string, amount int) (*ProgressResult, error)
	ResetProgress(ctx context.Context, userID string) (*entity.ProgressRecord, error)
	DeleteProgress(ctx context.Context, userID string) error

	GetProgress(ctx context.Context, userID string) (*entity.ProgressRecord, error)
	GetLessonStates(ctx context.Context, userID string, stageID int) ([]entity.LessonState, error)
	GetStageStates(ctx context.Context, userID string) ([]entity.StageState, error)
	GetLevelInfo(ctx context.Context, userID string) (*entity.LevelInfo, error)
	GetEarnedBadges(ctx context.Context, userID string) ([]entity.Badge, error)
	GetLockedBadges(ctx context.Context, userID string) ([]entity.Badge, error)
	ListBadges(ctx context.Context, query *repository.ListBadgeQuery) ([]entity.Badge, error)
}

// NewProgressionUsecase wires the progression rules around a store.
func NewProgressionUsecase(
	store *ProgressStore,
	content repository.ContentRepository,
	badges repository.BadgeRepository,
	ledger *XPLedger,
	evaluator *BadgeEvaluator,
	clock TimeSource,
	cfg ProgressionConfig,
	logger logrus.FieldLogger,
) ProgressionUsecase {
	if cfg.XPPolicy == "" {
		cfg.XPPolicy = XPPolicyEveryCompletion
	}
	if cfg.Checkpoint == (Checkpoint{}) {
		cfg.Checkpoint = DefaultCheckpoint
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := time.Now
	if clock != nil {
		now = clock.Now
	}
	return &progressionUsecase{
		store:     store,
		content:   content,
		badges:    badges,
		ledger:    ledger,
		evaluator: evaluator,
		cfg:       cfg,
		logger:    logger,
		locks:     newUserLocks(),
		clock:     now,
	}
}

type progressionUsecase struct {
	store     *ProgressStore
	content   repository.ContentRepository
	badges    repository.BadgeRepository
	ledger    *XPLedger
	evaluator *BadgeEvaluator
	cfg       ProgressionConfig
	logger    logrus.FieldLogger
	locks     *userLocks
	clock     func() time.Time
}

func (u *progressionUsecase) CompleteLesson(ctx context.Context, userID string, stageID, lessonID, score int) (*CompletionResult, error) {
	userID, err := entity.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: %d", entity.ErrInvalidScore, score)
	}

	stages, err := u.content.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	stage, err := findStage(stages, stageID)
	if err != nil {
		return nil, err
	}
	lesson, err := findLesson(stage, lessonID)
	if err != nil {
		return nil, err
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	record, persisted, err := u.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	xp := lesson.XPReward
	if u.cfg.XPPolicy == XPPolicyFirstCompletion && record.IsCompleted(stageID, lessonID) {
		xp = 0
	}
	if err := u.ledger.Award(record, xp); err != nil {
		return nil, fmt.Errorf("lesson %d/%d reward: %w", stageID, lessonID, err)
	}

	completion := entity.CompletionRecord{
		StageID:     stageID,
		LessonID:    lessonID,
		CompletedAt: u.clock().UTC(),
		Score:       score,
		XPEarned:    xp,
	}
	record.UpsertCompletion(completion)
	advanceStage(stages, record)

	result, err := u.commit(ctx, record, persisted)
	if err != nil {
		return nil, err
	}

	u.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"stage_id":   stageID,
		"lesson_id":  lessonID,
		"score":      score,
		"xp_awarded": xp,
		"new_badges": len(result.NewBadges),
	}).Info("lesson completed")

	return &CompletionResult{ProgressResult: *result, Completion: completion}, nil
}

func (u *progressionUsecase) SubmitLesson(ctx context.Context, userID string, stageID, lessonID int, answers []entity.Answer) (*CompletionResult, error) {
	stages, err := u.content.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	stage, err := findStage(stages, stageID)
	if err != nil {
		return nil, err
	}
	lesson, err := findLesson(stage, lessonID)
	if err != nil {
		return nil, err
	}
	score, err := GradeLesson(*lesson, answers)
	if err != nil {
		return nil, err
	}
	return u.CompleteLesson(ctx, userID, stageID, lessonID, score)
}

func (u *progressionUsecase) RecordLogin(ctx context.Context, userID string) (*LoginResult, error) {
	userID, err := entity.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	record, persisted, err := u.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := entity.FormatDay(u.clock())
	added, err := record.AddLoginDate(today)
	if err != nil {
		return nil, err
	}
	if !added {
		return &LoginResult{ProgressResult: ProgressResult{
			Record:    record,
			Level:     u.ledger.Level(record.XP),
			Persisted: persisted,
		}}, nil
	}
	record.StreakDays = CalculateStreak(record.LoginDates, today)

	result, err := u.commit(ctx, record, persisted)
	if err != nil {
		return nil, err
	}
	u.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"day":         today,
		"streak_days": record.StreakDays,
	}).Debug("login recorded")

	return &LoginResult{ProgressResult: *result, Recorded: true}, nil
}

func (u *progressionUsecase) AwardXP(ctx context.Context, userID string, amount int) (*ProgressResult, error) {
	userID, err := entity.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", entity.ErrInvalidAmount, amount)
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	record, persisted, err := u.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.ledger.Award(record, amount); err != nil {
		return nil, err
	}
	if stages, err := u.content.ListStages(ctx); err == nil {
		advanceStage(stages, record)
	}
	return u.commit(ctx, record, persisted)
}

func (u *progressionUsecase) ResetProgress(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	userID, err := entity.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	record := entity.NewProgressRecord(userID)
	if err := u.store.Save(ctx, record); err != nil {
		return nil, err
	}
	u.logger.WithField("user_id", userID).Info("progress reset")
	return record, nil
}

func (u *progressionUsecase) DeleteProgress(ctx context.Context, userID string) error {
	userID, err := entity.NormalizeUserID(userID)
	if err != nil {
		return err
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	if err := u.store.Delete(ctx, userID); err != nil {
		return err
	}
	u.logger.WithField("user_id", userID).Info("progress deleted")
	return nil
}

func (u *progressionUsecase) GetProgress(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	userID, err := entity.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	record, _, err := u.load(ctx, userID)
	return record, err
}

func (u *progressionUsecase) GetLessonStates(ctx context.Context, userID string, stageID int) ([]entity.LessonState, error) {
	stages, err := u.content.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	stage, err := findStage(stages, stageID)
	if err != nil {
		return nil, err
	}
	record, err := u.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ResolveLessonStates(*stage, record.CompletedLessons, u.cfg.Checkpoint), nil
}

func (u *progressionUsecase) GetStageStates(ctx context.Context, userID string) ([]entity.StageState, error) {
	stages, err := u.content.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	record, err := u.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ResolveStageStates(stages, record), nil
}

func (u *progressionUsecase) GetLevelInfo(ctx context.Context, userID string) (*entity.LevelInfo, error) {
	record, err := u.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := u.ledger.Level(record.XP)
	return &info, nil
}

func (u *progressionUsecase) GetEarnedBadges(ctx context.Context, userID string) ([]entity.Badge, error) {
	return u.ListBadges(ctx, &repository.ListBadgeQuery{UserID: userID, Status: repository.BadgeStatusEarned})
}

func (u *progressionUsecase) GetLockedBadges(ctx context.Context, userID string) ([]entity.Badge, error) {
	return u.ListBadges(ctx, &repository.ListBadgeQuery{UserID: userID, Status: repository.BadgeStatusLocked})
}

func (u *progressionUsecase) ListBadges(ctx context.Context, query *repository.ListBadgeQuery) ([]entity.Badge, error) {
	if query == nil {
		query = &repository.ListBadgeQuery{}
	}
	catalog, err := u.badges.ListBadges(ctx)
	if err != nil {
		return nil, err
	}

	earned := func(string) bool { return false }
	if query.Status != repository.BadgeStatusAll || strings.TrimSpace(query.UserID) != "" {
		record, err := u.GetProgress(ctx, query.UserID)
		if err != nil {
			return nil, err
		}
		earned = record.HasBadge
	}
	return queryBadges(catalog, query, earned)
}

// load returns the user's record. When the store is unavailable it falls
// back to a fresh record that must not be written back.
func (u *progressionUsecase) load(ctx context.Context, userID string) (*entity.ProgressRecord, bool, error) {
	record, err := u.store.Load(ctx, userID)
	if err == nil {
		return record, true, nil
	}
	if errors.Is(err, entity.ErrPersistenceUnavailable) {
		u.logger.WithError(err).WithField("user_id", userID).Warn("progress store unavailable; using default record")
		return entity.NewProgressRecord(userID), false, nil
	}
	return nil, false, err
}

// commit saves the record, evaluates badges and saves again when any were
// earned.
func (u *progressionUsecase) commit(ctx context.Context, record *entity.ProgressRecord, persisted bool) (*ProgressResult, error) {
	if persisted {
		if err := u.store.Save(ctx, record); err != nil {
			return nil, err
		}
	}

	catalog, err := u.badges.ListBadges(ctx)
	if err != nil {
		u.logger.WithError(err).WithField("user_id", record.UserID).Warn("badge catalog unavailable; skipping evaluation")
		return &ProgressResult{Record: record, Level: u.ledger.Level(record.XP), Persisted: persisted}, nil
	}

	newIDs := u.evaluator.Evaluate(record, catalog)
	if len(newIDs) > 0 && persisted {
		if err := u.store.Save(ctx, record); err != nil {
			return nil, err
		}
	}
	if !persisted {
		u.logger.WithField("user_id", record.UserID).Warn("progress change kept in memory only")
	}

	newBadges := lo.Filter(catalog, func(b entity.Badge, _ int) bool {
		return lo.Contains(newIDs, b.ID)
	})
	return &ProgressResult{
		Record:    record,
		Level:     u.ledger.Level(record.XP),
		NewBadges: newBadges,
		Persisted: persisted,
	}, nil
}

// advanceStage moves CurrentStageID forward while the current stage is fully
// complete and the next stage's XP requirement is met.
func advanceStage(stages []entity.Stage, record *entity.ProgressRecord) {
	ordered := append([]entity.Stage(nil), stages...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for i := 0; i+1 < len(ordered); i++ {
		if ordered[i].ID != record.CurrentStageID {
			continue
		}
		next := ordered[i+1]
		if !stageComplete(ordered[i], record) || record.XP < next.RequiredXP {
			return
		}
		record.CurrentStageID = next.ID
	}
}
