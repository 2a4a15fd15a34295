package service

import (
	"context"
	"strings"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

// AnalyticsService computes rating aggregates over stored feedback.
type AnalyticsService interface {
	// AverageRatings returns lecturers by descending average rating, ties broken by
	// name, truncated to topN when topN > 0. ErrNoRatings when nothing is rated.
	AverageRatings(ctx context.Context, topN int) ([]domain.LecturerRating, error)
	RatingTrends(ctx context.Context, lecturerName string) ([]domain.RatingTrend, error)
}

type analyticsService struct {
	feedback repository.FeedbackRepository
}

func NewAnalyticsService(feedback repository.FeedbackRepository) AnalyticsService {
	return &analyticsService{feedback: feedback}
}

func (s *analyticsService) AverageRatings(ctx context.Context, topN int) ([]domain.LecturerRating, error) {
	if topN < 0 {
		topN = 0
	}
	ratings, err := s.feedback.AverageRatings(ctx, topN)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, ErrNoRatings
	}
	return ratings, nil
}

func (s *analyticsService) RatingTrends(ctx context.Context, lecturerName string) ([]domain.RatingTrend, error) {
	return s.feedback.RatingTrends(ctx, strings.TrimSpace(lecturerName))
}
