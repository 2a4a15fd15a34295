package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lecturer-feedback/internal/repository"
	"lecturer-feedback/internal/repository/sqlite"
)

type testRepos struct {
	users    repository.UserRepository
	feedback repository.FeedbackRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := testRepos{
		users:    sqlite.NewUserRepository(db),
		feedback: sqlite.NewFeedbackRepository(db),
	}
	require.NoError(t, repos.users.Init(context.Background()))
	require.NoError(t, repos.feedback.Init(context.Background()))
	return repos
}

func newTestUserService(repo repository.UserRepository) UserService {
	return &userService{users: repo, cost: bcrypt.MinCost}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
