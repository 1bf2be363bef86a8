package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the base for per-entity lookup failures; handlers
	// match it with errors.Is.
	ErrNotFound = errors.New("not found")

	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrGenreNotFound    = fmt.Errorf("genre %w", ErrNotFound)
	ErrTitleNotFound    = fmt.Errorf("title %w", ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("review %w", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("comment %w", ErrNotFound)

	ErrAuthRequired     = errors.New("authentication required")
	ErrPermissionDenied = errors.New("permission denied")

	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")

	// One review per (title, author)
	ErrReviewExists = errors.New("review for this title already exists")

	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")

	// Confirmation mail could not be dispatched; not retried internally
	ErrCodeDelivery = errors.New("failed to deliver confirmation code")
)

// ValidationError reports a bad request field. It is returned
// synchronously and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
