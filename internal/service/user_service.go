package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	CreateUser(ctx context.Context, username, password string, role domain.Role, approved bool) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Approve(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

type credentials struct {
	Username string      `name:"username" validate:"required,max=64"`
	Password string      `name:"password" validate:"required,min=8,max=72"`
	Role     domain.Role `name:"role" validate:"required,oneof=student lecturer admin"`
}

type userService struct {
	users repository.UserRepository
	cost  int
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{
		users: users,
		cost:  bcrypt.DefaultCost,
	}
}

// Register creates a self-service account. Only admins start out approved.
func (s *userService) Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	return s.create(ctx, username, password, role, role == domain.RoleAdmin)
}

// CreateUser is the admin-side variant of Register where the caller picks the approval flag.
func (s *userService) CreateUser(ctx context.Context, username, password string, role domain.Role, approved bool) (*domain.User, error) {
	return s.create(ctx, username, password, role, approved || role == domain.RoleAdmin)
}

func (s *userService) create(ctx context.Context, username, password string, role domain.Role, approved bool) (*domain.User, error) {
	in := credentials{
		Username: strings.TrimSpace(username),
		Password: password,
		Role:     domain.Role(strings.ToLower(strings.TrimSpace(string(role)))),
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		IsApproved:   approved,
	}

	// uniqueness is enforced by the store, not by a prior lookup
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CanLogin() {
		return nil, ErrNotApproved
	}

	return sanitizeUser(user), nil
}

func (s *userService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, userErr(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, userErr(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) Approve(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.Approve(ctx, id)
	if err != nil {
		return nil, userErr(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	role = domain.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("%w: role must be one of [student lecturer admin]", ErrValidation)
	}

	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// Delete removes the account only; feedback the user submitted is kept.
func (s *userService) Delete(ctx context.Context, id string) error {
	return userErr(s.users.Delete(ctx, id))
}

func userErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
