package repository

import (
	"context"

	"lecturer-feedback/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	// Create inserts the user and returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Approve marks the user approved and returns the stored record.
	Approve(ctx context.Context, id string) (*domain.User, error)
	// List returns users ordered by username; an empty role matches every role.
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}
