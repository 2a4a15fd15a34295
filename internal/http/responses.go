package http

import (
	"time"

	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/storage"
)

type UserResponse struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Role       domain.Role `json:"role"`
	IsApproved bool        `json:"isApproved"`
	CreatedAt  string      `json:"createdAt"`
	UpdatedAt  string      `json:"updatedAt"`
}

type FeedbackResponse struct {
	ID           string `json:"id"`
	LecturerName string `json:"lecturerName"`
	Course       string `json:"course"`
	Feedback     string `json:"feedback"`
	Rating       *int   `json:"rating,omitempty"`
	UserID       string `json:"userId,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type LecturerRatingResponse struct {
	LecturerName  string  `json:"lecturerName"`
	AverageRating float64 `json:"averageRating"`
	FeedbackCount int     `json:"feedbackCount"`
}

type RatingTrendResponse struct {
	LecturerName  string  `json:"lecturerName"`
	Date          string  `json:"date"`
	AverageRating float64 `json:"averageRating"`
}

type ReportResponse struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

type StorageObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Role:       user.Role,
		IsApproved: user.IsApproved,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
}

func feedbackToResponse(fb domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:           fb.ID,
		LecturerName: fb.LecturerName,
		Course:       fb.Course,
		Feedback:     fb.Text,
		Rating:       fb.Rating,
		UserID:       fb.UserID,
		CreatedAt:    fb.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    fb.UpdatedAt.Format(time.RFC3339),
	}
}

func objectToResponse(obj storage.ObjectInfo) StorageObjectResponse {
	resp := StorageObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
