package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

func newFeedbackRepo(t *testing.T) (repository.FeedbackRepository, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	repo := NewFeedbackRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo, db
}

func seedFeedback(t *testing.T, repo repository.FeedbackRepository, id, lecturer, course, owner string, rating *int) *domain.Feedback {
	t.Helper()
	fb := &domain.Feedback{
		ID:           id,
		LecturerName: lecturer,
		Course:       course,
		Text:         "text for " + id,
		Rating:       rating,
		UserID:       owner,
	}
	require.NoError(t, repo.Create(context.Background(), fb))
	return fb
}

func TestFeedbackRepository_ListFiltersAndScope(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFeedbackRepo(t)
	seedFeedback(t, repo, "f1", "Dr. Smith", "CS101", "alice", intPtr(8))
	seedFeedback(t, repo, "f2", "Dr. Jones", "CS101", "bob", intPtr(6))
	seedFeedback(t, repo, "f3", "Dr. Smith", "MA201", "alice", nil)

	all, err := repo.List(ctx, domain.FeedbackFilter{}, domain.Scope{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cs, err := repo.List(ctx, domain.FeedbackFilter{Course: "CS101"}, domain.Scope{})
	require.NoError(t, err)
	assert.Len(t, cs, 2)

	mine, err := repo.List(ctx, domain.FeedbackFilter{Course: "CS101"}, domain.Scope{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "f1", mine[0].ID)
	require.NotNil(t, mine[0].Rating)
	assert.Equal(t, 8, *mine[0].Rating)

	smith, err := repo.List(ctx, domain.FeedbackFilter{LecturerName: "Dr. Smith"}, domain.Scope{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, smith, 2)
	assert.Nil(t, smith[1].Rating)
}

func TestFeedbackRepository_UpdateIsOwnershipFolded(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFeedbackRepo(t)
	seedFeedback(t, repo, "f1", "Dr. Smith", "CS101", "alice", intPtr(8))

	_, err := repo.Update(ctx, "f1", domain.Scope{OwnerID: "bob"}, domain.FeedbackChanges{Rating: intPtr(1)})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	updated, err := repo.Update(ctx, "f1", domain.Scope{OwnerID: "alice"}, domain.FeedbackChanges{
		Text:   strPtr("much better"),
		Rating: intPtr(9),
	})
	require.NoError(t, err)
	assert.Equal(t, "much better", updated.Text)
	assert.Equal(t, "Dr. Smith", updated.LecturerName)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 9, *updated.Rating)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = repo.Update(ctx, "missing", domain.Scope{}, domain.FeedbackChanges{Rating: intPtr(1)})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFeedbackRepository_DeleteIsOwnershipFolded(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFeedbackRepo(t)
	seedFeedback(t, repo, "f1", "Dr. Smith", "CS101", "alice", intPtr(8))

	assert.ErrorIs(t, repo.Delete(ctx, "f1", domain.Scope{OwnerID: "bob"}), repository.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "f1", domain.Scope{OwnerID: "alice"}))
	assert.ErrorIs(t, repo.Delete(ctx, "f1", domain.Scope{}), repository.ErrNotFound)
}

func TestFeedbackRepository_AnonymousScopeMatchesUnownedOnly(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFeedbackRepo(t)
	seedFeedback(t, repo, "f1", "Dr. Smith", "CS101", "alice", intPtr(8))
	seedFeedback(t, repo, "f2", "Dr. Smith", "CS101", "", intPtr(5))

	anon := domain.AnonymousScope()
	assert.False(t, anon.Unscoped())

	_, err := repo.Update(ctx, "f1", anon, domain.FeedbackChanges{Rating: intPtr(1)})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "f1", anon), repository.ErrNotFound)

	list, err := repo.List(ctx, domain.FeedbackFilter{}, anon)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "f2", list[0].ID)

	updated, err := repo.Update(ctx, "f2", anon, domain.FeedbackChanges{Rating: intPtr(6)})
	require.NoError(t, err)
	assert.Equal(t, 6, *updated.Rating)
	require.NoError(t, repo.Delete(ctx, "f2", anon))

	owned, err := repo.List(ctx, domain.FeedbackFilter{}, domain.Scope{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, 8, *owned[0].Rating)
}

func TestFeedbackRepository_AverageRatings(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFeedbackRepo(t)
	seedFeedback(t, repo, "f1", "L1", "CS101", "a", intPtr(8))
	seedFeedback(t, repo, "f2", "L1", "CS101", "a", intPtr(6))
	seedFeedback(t, repo, "f3", "L2", "CS101", "a", intPtr(10))
	seedFeedback(t, repo, "f4", "L3", "CS101", "a", nil)

	ratings, err := repo.AverageRatings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, domain.LecturerRating{LecturerName: "L2", AverageRating: 10, FeedbackCount: 1}, ratings[0])
	assert.Equal(t, domain.LecturerRating{LecturerName: "L1", AverageRating: 7, FeedbackCount: 2}, ratings[1])

	top, err := repo.AverageRatings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "L2", top[0].LecturerName)
}

func TestFeedbackRepository_AverageRatingsTieBreak(t *testing.T) {
	repo, _ := newFeedbackRepo(t)
	seedFeedback(t, repo, "f1", "Zhou", "CS101", "a", intPtr(7))
	seedFeedback(t, repo, "f2", "Adams", "CS101", "a", intPtr(7))

	ratings, err := repo.AverageRatings(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, "Adams", ratings[0].LecturerName)
	assert.Equal(t, "Zhou", ratings[1].LecturerName)
}

func TestFeedbackRepository_RatingTrends(t *testing.T) {
	ctx := context.Background()
	repo, db := newFeedbackRepo(t)
	seedFeedback(t, repo, "f1", "L1", "CS101", "a", intPtr(8))
	seedFeedback(t, repo, "f2", "L1", "CS101", "a", intPtr(6))
	seedFeedback(t, repo, "f3", "L1", "CS101", "a", intPtr(2))
	seedFeedback(t, repo, "f4", "L2", "CS101", "a", intPtr(9))

	day1 := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 23, 59, 0, 0, time.UTC)
	for id, at := range map[string]time.Time{"f1": day1, "f2": day1, "f3": day2, "f4": day1} {
		_, err := db.ExecContext(ctx, `UPDATE feedback SET created_at=? WHERE id=?`, at, id)
		require.NoError(t, err)
	}

	trends, err := repo.RatingTrends(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.RatingTrend{
		{LecturerName: "L1", Date: "2024-03-01", AverageRating: 7},
		{LecturerName: "L2", Date: "2024-03-01", AverageRating: 9},
		{LecturerName: "L1", Date: "2024-03-02", AverageRating: 2},
	}, trends)

	l2, err := repo.RatingTrends(ctx, "L2")
	require.NoError(t, err)
	assert.Equal(t, []domain.RatingTrend{{LecturerName: "L2", Date: "2024-03-01", AverageRating: 9}}, l2)
}
