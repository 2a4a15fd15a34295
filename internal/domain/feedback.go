package domain

import "time"

// Feedback is a single comment (and optional rating) about a lecturer.
type Feedback struct {
	ID           string
	LecturerName string
	Course       string
	Text         string
	Rating       *int
	UserID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FeedbackFilter narrows a feedback listing. Empty fields match everything.
type FeedbackFilter struct {
	LecturerName string
	Course       string
}

// FeedbackChanges carries the fields of a partial update; nil means unchanged.
type FeedbackChanges struct {
	LecturerName *string
	Course       *string
	Text         *string
	Rating       *int
}

// Empty reports whether no field is set.
func (c FeedbackChanges) Empty() bool {
	return c.LecturerName == nil && c.Course == nil && c.Text == nil && c.Rating == nil
}

// Scope restricts feedback lookups to a single owner. The zero value is unscoped.
type Scope struct {
	OwnerID string
	// Anonymous restricts the scope to records submitted without an owner.
	Anonymous bool
}

// AnonymousScope matches only feedback that has no owner.
func AnonymousScope() Scope {
	return Scope{Anonymous: true}
}

// Unscoped reports whether the scope matches records of every owner.
func (s Scope) Unscoped() bool {
	return s.OwnerID == "" && !s.Anonymous
}

// LecturerRating is the aggregate of all rated feedback for one lecturer.
type LecturerRating struct {
	LecturerName  string
	AverageRating float64
	FeedbackCount int
}

// RatingTrend is the mean rating of one lecturer on one UTC calendar day.
type RatingTrend struct {
	LecturerName  string
	Date          string
	AverageRating float64
}
