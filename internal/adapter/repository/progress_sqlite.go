package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/infrastructure/database/types"
	"github.com/eslsoft/finquest/internal/repository"
)

const (
	defaultPageSize int32 = 50
	maxPageSize     int32 = 500
)

// progressRow mirrors the user_progress table.
type progressRow struct {
	UserID           string            `db:"user_id"`
	XP               int               `db:"xp"`
	CurrentStageID   int               `db:"current_stage_id"`
	CompletedLessons types.Completions `db:"completed_lessons"`
	EarnedBadges     types.StringList  `db:"earned_badges"`
	LoginDates       types.StringList  `db:"login_dates"`
	StreakDays       int               `db:"streak_days"`
	UpdatedAt        time.Time         `db:"updated_at"`
}

func toProgressRow(rec *entity.ProgressRecord) progressRow {
	return progressRow{
		UserID:           rec.UserID,
		XP:               rec.XP,
		CurrentStageID:   rec.CurrentStageID,
		CompletedLessons: types.Completions(rec.CompletedLessons),
		EarnedBadges:     types.StringList(rec.EarnedBadges),
		LoginDates:       types.StringList(rec.LoginDates),
		StreakDays:       rec.StreakDays,
		UpdatedAt:        rec.UpdatedAt.UTC(),
	}
}

func (row progressRow) toEntity() *entity.ProgressRecord {
	rec := &entity.ProgressRecord{
		UserID:           row.UserID,
		XP:               row.XP,
		CurrentStageID:   row.CurrentStageID,
		CompletedLessons: []entity.CompletionRecord(row.CompletedLessons),
		EarnedBadges:     []string(row.EarnedBadges),
		LoginDates:       []string(row.LoginDates),
		StreakDays:       row.StreakDays,
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
	rec.Normalize()
	return rec
}

const (
	sqliteSelectProgress = `SELECT user_id, xp, current_stage_id, completed_lessons, earned_badges,
	login_dates, streak_days, updated_at FROM user_progress`

	sqliteUpsertProgress = `INSERT INTO user_progress (user_id, xp, current_stage_id, completed_lessons,
	earned_badges, login_dates, streak_days, updated_at)
VALUES (:user_id, :xp, :current_stage_id, :completed_lessons, :earned_badges, :login_dates, :streak_days, :updated_at)
ON CONFLICT(user_id) DO UPDATE SET
	xp = excluded.xp,
	current_stage_id = excluded.current_stage_id,
	completed_lessons = excluded.completed_lessons,
	earned_badges = excluded.earned_badges,
	login_dates = excluded.login_dates,
	streak_days = excluded.streak_days,
	updated_at = excluded.updated_at`
)

// SQLiteProgressRepository stores progress rows in sqlite through sqlx.
type SQLiteProgressRepository struct {
	db *sqlx.DB
}

// NewSQLiteProgressRepository constructs a sqlx-backed repository.
func NewSQLiteProgressRepository(db *sqlx.DB) repository.ProgressRepository {
	return &SQLiteProgressRepository{db: db}
}

func (r *SQLiteProgressRepository) Find(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	var row progressRow
	err := r.db.GetContext(ctx, &row, sqliteSelectProgress+` WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SQLiteProgressRepository) Save(ctx context.Context, record *entity.ProgressRecord) error {
	if _, err := r.db.NamedExecContext(ctx, sqliteUpsertProgress, toProgressRow(record)); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepository) List(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	page := query.Pagination.Normalized(defaultPageSize, maxPageSize)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM user_progress`); err != nil {
		return nil, 0, fmt.Errorf("count progress: %w", err)
	}

	var rows []progressRow
	err := r.db.SelectContext(ctx, &rows, sqliteSelectProgress+` ORDER BY user_id LIMIT ? OFFSET ?`, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list progress: %w", err)
	}

	out := make([]entity.ProgressRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toEntity())
	}
	return out, total, nil
}

func (r *SQLiteProgressRepository) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_progress WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if affected == 0 {
		return entity.ErrProgressNotFound
	}
	return nil
}
