package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

func newUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	repo := NewUserRepository(openTestDB(t))
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	u := &domain.User{ID: "u-1", Username: "alice", PasswordHash: "hash", Role: domain.RoleStudent}
	require.NoError(t, repo.Create(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, domain.RoleStudent, got.Role)
	assert.False(t, got.IsApproved)

	got, err = repo.GetByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u-1", Username: "alice", PasswordHash: "h", Role: domain.RoleStudent}))
	err := repo.Create(ctx, &domain.User{ID: "u-2", Username: "alice", PasswordHash: "h", Role: domain.RoleLecturer})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_GetMissing(t *testing.T) {
	repo := newUserRepo(t)
	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_Approve(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u-1", Username: "bob", PasswordHash: "h", Role: domain.RoleLecturer}))

	got, err := repo.Approve(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, got.IsApproved)

	_, err = repo.Approve(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_ListByRole(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)
	for _, u := range []domain.User{
		{ID: "1", Username: "zed", Role: domain.RoleStudent},
		{ID: "2", Username: "amy", Role: domain.RoleStudent},
		{ID: "3", Username: "lee", Role: domain.RoleLecturer},
	} {
		u.PasswordHash = "h"
		require.NoError(t, repo.Create(ctx, &u))
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "amy", all[0].Username)

	students, err := repo.List(ctx, domain.RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, []string{"amy", "zed"}, []string{students[0].Username, students[1].Username})

	admins, err := repo.List(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo(t)
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u-1", Username: "bob", PasswordHash: "h", Role: domain.RoleStudent}))

	require.NoError(t, repo.Delete(ctx, "u-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u-1"), repository.ErrNotFound)
}

func TestUserRepository_CreateDriverError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("disk I/O error"))

	err = NewUserRepository(db).Create(context.Background(), &domain.User{ID: "u", Username: "x", Role: domain.RoleStudent})
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateConstraintMessage(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("UNIQUE constraint failed: users.username"))

	err = NewUserRepository(db).Create(context.Background(), &domain.User{ID: "u", Username: "x", Role: domain.RoleStudent})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
