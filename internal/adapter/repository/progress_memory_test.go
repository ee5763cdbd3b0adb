package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

func TestMemoryProgressRepositoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProgressRepository()

	rec := sampleRecord("alice")
	require.NoError(t, repo.Save(ctx, rec))
	rec.AddBadge("mutated_after_save")

	got, err := repo.Find(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"first_quiz"}, got.EarnedBadges)

	got.XP = 9999
	again, _ := repo.Find(ctx, "alice")
	assert.Equal(t, 45, again.XP)
}

func TestMemoryProgressRepositoryListPages(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProgressRepository()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Save(ctx, entity.NewProgressRecord(id)))
	}

	page, total, err := repo.List(ctx, &repository.ListProgressQuery{
		Pagination: repository.Pagination{PageNo: 1, PageSize: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].UserID)
	assert.Equal(t, "b", page[1].UserID)

	page, _, err = repo.List(ctx, &repository.ListProgressQuery{
		Pagination: repository.Pagination{PageNo: 5, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, page)

	require.ErrorIs(t, repo.Delete(ctx, "zzz"), entity.ErrProgressNotFound)
}
