package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/repository"
)

// FeedbackOptions controls which fields a submission carries.
type FeedbackOptions struct {
	// RatingsEnabled makes rating mandatory on submit; when false ratings are rejected.
	RatingsEnabled bool
	RatingMin      int
	RatingMax      int
}

// DefaultFeedbackOptions matches the 1..10 scale with ratings required.
func DefaultFeedbackOptions() FeedbackOptions {
	return FeedbackOptions{RatingsEnabled: true, RatingMin: 1, RatingMax: 10}
}

// SubmitInput is a new piece of feedback as received from a client.
type SubmitInput struct {
	LecturerName string `name:"lecturerName" validate:"required,max=200"`
	Course       string `name:"course" validate:"required,max=100"`
	Text         string `name:"feedback" validate:"required,max=5000"`
	Rating       *int   `name:"rating"`
}

// FeedbackService coordinates feedback operations. Every id-based operation takes a
// scope; a scoped caller only ever sees its own records.
type FeedbackService interface {
	Submit(ctx context.Context, in SubmitInput, ownerID string) (*domain.Feedback, error)
	List(ctx context.Context, filter domain.FeedbackFilter, scope domain.Scope) ([]domain.Feedback, error)
	Update(ctx context.Context, id string, scope domain.Scope, changes domain.FeedbackChanges) (*domain.Feedback, error)
	Remove(ctx context.Context, id string, scope domain.Scope) error
}

type feedbackService struct {
	feedback repository.FeedbackRepository
	opts     FeedbackOptions
}

func NewFeedbackService(feedback repository.FeedbackRepository, opts FeedbackOptions) FeedbackService {
	return &feedbackService{
		feedback: feedback,
		opts:     opts,
	}
}

func (s *feedbackService) Submit(ctx context.Context, in SubmitInput, ownerID string) (*domain.Feedback, error) {
	in.LecturerName = strings.TrimSpace(in.LecturerName)
	in.Course = strings.TrimSpace(in.Course)
	in.Text = strings.TrimSpace(in.Text)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if s.opts.RatingsEnabled && in.Rating == nil {
		return nil, fmt.Errorf("%w: rating is required", ErrValidation)
	}
	if err := s.checkRating(in.Rating); err != nil {
		return nil, err
	}

	fb := &domain.Feedback{
		ID:           uuid.NewString(),
		LecturerName: in.LecturerName,
		Course:       in.Course,
		Text:         in.Text,
		Rating:       in.Rating,
		UserID:       ownerID,
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *feedbackService) List(ctx context.Context, filter domain.FeedbackFilter, scope domain.Scope) ([]domain.Feedback, error) {
	filter.LecturerName = strings.TrimSpace(filter.LecturerName)
	filter.Course = strings.TrimSpace(filter.Course)
	return s.feedback.List(ctx, filter, scope)
}

func (s *feedbackService) Update(ctx context.Context, id string, scope domain.Scope, changes domain.FeedbackChanges) (*domain.Feedback, error) {
	if changes.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	trimmed := domain.FeedbackChanges{Rating: changes.Rating}
	fields := []struct {
		name string
		in   *string
		out  **string
		tag  string
	}{
		{"lecturerName", changes.LecturerName, &trimmed.LecturerName, "required,max=200"},
		{"course", changes.Course, &trimmed.Course, "required,max=100"},
		{"feedback", changes.Text, &trimmed.Text, "required,max=5000"},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if err := validateField(f.name, v, f.tag); err != nil {
			return nil, err
		}
		*f.out = &v
	}
	if err := s.checkRating(trimmed.Rating); err != nil {
		return nil, err
	}

	fb, err := s.feedback.Update(ctx, id, scope, trimmed)
	if err != nil {
		return nil, feedbackErr(err)
	}
	return fb, nil
}

func (s *feedbackService) Remove(ctx context.Context, id string, scope domain.Scope) error {
	return feedbackErr(s.feedback.Delete(ctx, id, scope))
}

func (s *feedbackService) checkRating(rating *int) error {
	if rating == nil {
		return nil
	}
	if !s.opts.RatingsEnabled {
		return fmt.Errorf("%w: ratings are not accepted", ErrValidation)
	}
	if *rating < s.opts.RatingMin || *rating > s.opts.RatingMax {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, s.opts.RatingMin, s.opts.RatingMax)
	}
	return nil
}

func feedbackErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFeedbackNotFound
	}
	return err
}
