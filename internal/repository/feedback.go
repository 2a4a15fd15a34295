package repository

import (
	"context"

	"lecturer-feedback/internal/domain"
)

// FeedbackRepository stores feedback records. Every lookup by id folds the scope
// into its predicate, so a record owned by someone else is reported as ErrNotFound.
type FeedbackRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, fb *domain.Feedback) error
	List(ctx context.Context, filter domain.FeedbackFilter, scope domain.Scope) ([]domain.Feedback, error)
	Update(ctx context.Context, id string, scope domain.Scope, changes domain.FeedbackChanges) (*domain.Feedback, error)
	Delete(ctx context.Context, id string, scope domain.Scope) error

	// AverageRatings groups rated feedback by lecturer, highest average first and
	// lecturer name ascending on ties. limit <= 0 returns every lecturer.
	AverageRatings(ctx context.Context, limit int) ([]domain.LecturerRating, error)
	// RatingTrends groups rated feedback by lecturer and UTC day of creation,
	// ordered by day then lecturer. An empty lecturerName matches every lecturer.
	RatingTrends(ctx context.Context, lecturerName string) ([]domain.RatingTrend, error)
}
