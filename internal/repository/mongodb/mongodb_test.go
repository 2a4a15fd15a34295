package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

// These tests run against a live server and are skipped unless
// FEEDBACK_TEST_MONGO_URI is set, e.g. mongodb://localhost:27017.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("FEEDBACK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FEEDBACK_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("feedback_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestUserRepository_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testDatabase(t))
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u-1", Username: "alice", PasswordHash: "h", Role: domain.RoleStudent}))
	err := repo.Create(ctx, &domain.User{ID: "u-2", Username: "alice", PasswordHash: "h", Role: domain.RoleStudent})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	approved, err := repo.Approve(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	assert.ErrorIs(t, repo.Delete(ctx, "u-2"), repository.ErrNotFound)
}

func TestFeedbackRepository_ScopeAndAggregates(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedbackRepository(testDatabase(t))
	require.NoError(t, repo.Init(ctx))

	rating := func(v int) *int { return &v }
	for _, fb := range []domain.Feedback{
		{ID: "f1", LecturerName: "L1", Course: "CS101", Text: "a", Rating: rating(8), UserID: "alice"},
		{ID: "f2", LecturerName: "L1", Course: "CS101", Text: "b", Rating: rating(6), UserID: "bob"},
		{ID: "f3", LecturerName: "L2", Course: "MA201", Text: "c", Rating: rating(10), UserID: "alice"},
	} {
		require.NoError(t, repo.Create(ctx, &fb))
	}

	mine, err := repo.List(ctx, domain.FeedbackFilter{Course: "CS101"}, domain.Scope{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "f1", mine[0].ID)

	_, err = repo.Update(ctx, "f2", domain.Scope{OwnerID: "alice"}, domain.FeedbackChanges{Rating: rating(1)})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "f2", domain.Scope{OwnerID: "alice"}), repository.ErrNotFound)

	ratings, err := repo.AverageRatings(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.LecturerRating{
		{LecturerName: "L2", AverageRating: 10, FeedbackCount: 1},
		{LecturerName: "L1", AverageRating: 7, FeedbackCount: 2},
	}, ratings)

	trends, err := repo.RatingTrends(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, 7.0, trends[0].AverageRating)
}
