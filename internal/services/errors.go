package services

import (
	"errors"
	"fmt"

	"github.com/emodiary/apiserver/internal/store"
)

var (
	// ErrUnauthorized means the caller could not be identified.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the caller is identified but lacks the required role.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound      = store.ErrNotFound
	ErrDuplicateDate = store.ErrDuplicateDate
	ErrEmailTaken    = store.ErrEmailTaken
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
