package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lecturer-feedback/internal/domain"
)

func seedRatings(t *testing.T, svc FeedbackService, ratings map[string][]int) {
	t.Helper()
	for lecturer, values := range ratings {
		for _, v := range values {
			_, err := svc.Submit(context.Background(), SubmitInput{
				LecturerName: lecturer,
				Course:       "CS101",
				Text:         "ok",
				Rating:       intPtr(v),
			}, "u")
			require.NoError(t, err)
		}
	}
}

func TestAverageRatings(t *testing.T) {
	repos := newTestRepos(t)
	seedRatings(t, NewFeedbackService(repos.feedback, DefaultFeedbackOptions()), map[string][]int{
		"L1": {8, 6},
		"L2": {10},
	})
	svc := NewAnalyticsService(repos.feedback)

	ratings, err := svc.AverageRatings(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.LecturerRating{
		{LecturerName: "L2", AverageRating: 10, FeedbackCount: 1},
		{LecturerName: "L1", AverageRating: 7, FeedbackCount: 2},
	}, ratings)

	top, err := svc.AverageRatings(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	all, err := svc.AverageRatings(context.Background(), -3)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAverageRatings_Empty(t *testing.T) {
	_, err := NewAnalyticsService(newTestRepos(t).feedback).AverageRatings(context.Background(), 2)
	assert.ErrorIs(t, err, ErrNoRatings)
}

func TestRatingTrends_Today(t *testing.T) {
	repos := newTestRepos(t)
	seedRatings(t, NewFeedbackService(repos.feedback, DefaultFeedbackOptions()), map[string][]int{
		"L1": {9, 5},
	})

	trends, err := NewAnalyticsService(repos.feedback).RatingTrends(context.Background(), " L1 ")
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, "L1", trends[0].LecturerName)
	assert.Equal(t, 7.0, trends[0].AverageRating)
	assert.Len(t, trends[0].Date, len("2006-01-02"))

	none, err := NewAnalyticsService(repos.feedback).RatingTrends(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
