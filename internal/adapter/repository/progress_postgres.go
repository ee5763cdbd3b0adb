package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

const (
	pgSelectProgress = `SELECT user_id, xp, current_stage_id, completed_lessons, earned_badges,
	login_dates, streak_days, updated_at FROM user_progress`

	pgUpsertProgress = `INSERT INTO user_progress (user_id, xp, current_stage_id, completed_lessons,
	earned_badges, login_dates, streak_days, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id) DO UPDATE SET
	xp = EXCLUDED.xp,
	current_stage_id = EXCLUDED.current_stage_id,
	completed_lessons = EXCLUDED.completed_lessons,
	earned_badges = EXCLUDED.earned_badges,
	login_dates = EXCLUDED.login_dates,
	streak_days = EXCLUDED.streak_days,
	updated_at = EXCLUDED.updated_at`
)

// PostgresProgressRepository stores progress rows in postgres with jsonb
// collection columns.
type PostgresProgressRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProgressRepository constructs a pgx-backed repository.
func NewPostgresProgressRepository(pool *pgxpool.Pool) repository.ProgressRepository {
	return &PostgresProgressRepository{pool: pool}
}

func (r *PostgresProgressRepository) Find(ctx context.Context, userID string) (*entity.ProgressRecord, error) {
	row, err := scanProgressRow(r.pool.QueryRow(ctx, pgSelectProgress+` WHERE user_id = $1`, userID))
	if err != nil {
		return nil, translateProgressError(err)
	}
	return row.toEntity(), nil
}

func (r *PostgresProgressRepository) Save(ctx context.Context, record *entity.ProgressRecord) error {
	row := toProgressRow(record)
	_, err := r.pool.Exec(ctx, pgUpsertProgress,
		row.UserID,
		row.XP,
		row.CurrentStageID,
		row.CompletedLessons,
		row.EarnedBadges,
		row.LoginDates,
		row.StreakDays,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", translateProgressError(err))
	}
	return nil
}

func (r *PostgresProgressRepository) List(ctx context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	page := query.Pagination.Normalized(defaultPageSize, maxPageSize)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_progress`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count progress: %w", err)
	}

	rows, err := r.pool.Query(ctx, pgSelectProgress+` ORDER BY user_id LIMIT $1 OFFSET $2`, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	out := make([]entity.ProgressRecord, 0, page.PageSize)
	for rows.Next() {
		row, err := scanProgressRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, *row.toEntity())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list progress: %w", err)
	}
	return out, total, nil
}

func (r *PostgresProgressRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_progress WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrProgressNotFound
	}
	return nil
}

func scanProgressRow(row pgx.Row) (progressRow, error) {
	var out progressRow
	err := row.Scan(
		&out.UserID,
		&out.XP,
		&out.CurrentStageID,
		&out.CompletedLessons,
		&out.EarnedBadges,
		&out.LoginDates,
		&out.StreakDays,
		&out.UpdatedAt,
	)
	return out, err
}

func translateProgressError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrProgressNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		return fmt.Errorf("%w: %s", entity.ErrInvalidAmount, pgErr.Message)
	}
	return err
}
