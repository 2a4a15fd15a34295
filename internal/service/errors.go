package service

import "errors"

var (
	// ErrValidation wraps every input rejection; the wrapped message names the field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrNotApproved is returned on login for accounts an admin has not approved yet.
	ErrNotApproved = errors.New("user is not approved")
	ErrUserNotFound = errors.New("user not found")
	// ErrFeedbackNotFound also covers feedback owned by another user.
	ErrFeedbackNotFound = errors.New("feedback not found")
	// ErrNoRatings is returned by average ratings when no rated feedback exists.
	ErrNoRatings = errors.New("no lecturers found")
)
