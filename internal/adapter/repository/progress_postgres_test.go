package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/infrastructure/database/types"
)

// stubRow replays column values the way pgx hands jsonb columns to a
// sql.Scanner destination.
type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *string:
			*target = r.values[i].(string)
		case *int:
			*target = r.values[i].(int)
		case *time.Time:
			*target = r.values[i].(time.Time)
		case *types.Completions:
			if err := target.Scan(r.values[i]); err != nil {
				return err
			}
		case *types.StringList:
			if err := target.Scan(r.values[i]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

var _ pgx.Row = stubRow{}

func TestScanProgressRowMapsJSONBColumns(t *testing.T) {
	updated := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	row := stubRow{values: []any{
		"nora",
		145,
		2,
		[]byte(`[{"stage_id":1,"lesson_id":1,"completed_at":"2024-05-09T08:00:00Z","score":90,"xp_earned":20}]`),
		[]byte(`["first_quiz","perfect_score"]`),
		[]byte(`["2024-05-09","2024-05-10"]`),
		2,
		updated,
	}}

	scanned, err := scanProgressRow(row)
	require.NoError(t, err)
	rec := scanned.toEntity()

	assert.Equal(t, "nora", rec.UserID)
	assert.Equal(t, 145, rec.XP)
	assert.Equal(t, 2, rec.CurrentStageID)
	require.Len(t, rec.CompletedLessons, 1)
	assert.Equal(t, 90, rec.CompletedLessons[0].Score)
	assert.Equal(t, 20, rec.CompletedLessons[0].XPEarned)
	assert.Equal(t, []string{"first_quiz", "perfect_score"}, rec.EarnedBadges)
	assert.Equal(t, []string{"2024-05-09", "2024-05-10"}, rec.LoginDates)
	assert.Equal(t, 2, rec.StreakDays)
	assert.True(t, updated.Equal(rec.UpdatedAt))
}

func TestScanProgressRowEmptyCollections(t *testing.T) {
	row := stubRow{values: []any{"ivan", 0, 1, nil, []byte(`[]`), nil, 0, time.Time{}}}

	scanned, err := scanProgressRow(row)
	require.NoError(t, err)
	rec := scanned.toEntity()

	assert.Empty(t, rec.CompletedLessons)
	assert.Empty(t, rec.EarnedBadges)
	assert.Empty(t, rec.LoginDates)
}

func TestScanProgressRowPropagatesScanError(t *testing.T) {
	_, err := scanProgressRow(stubRow{err: pgx.ErrNoRows})
	require.Error(t, err)
	assert.ErrorIs(t, translateProgressError(err), entity.ErrProgressNotFound)
}

func TestTranslateProgressError(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no rows", err: pgx.ErrNoRows, target: entity.ErrProgressNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("query: %w", pgx.ErrNoRows), target: entity.ErrProgressNotFound},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", Message: "xp_non_negative"}, target: entity.ErrInvalidAmount},
		{name: "other pg error", err: &pgconn.PgError{Code: "23505"}, target: nil},
		{name: "passthrough", err: boom, target: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateProgressError(tt.err)
			require.Error(t, got)
			if tt.target == nil {
				assert.NotErrorIs(t, got, entity.ErrProgressNotFound)
				assert.NotErrorIs(t, got, entity.ErrInvalidAmount)
				return
			}
			assert.ErrorIs(t, got, tt.target)
		})
	}
}
