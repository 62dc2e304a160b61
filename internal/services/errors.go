package services

import (
	"errors"
	"fmt"
	"time"

	"rentspace/internal/repos"
	"rentspace/internal/validate"
)

var (
	ErrAuthRequired = errors.New("please sign in to continue")
	ErrForbidden    = errors.New("you do not have access to this resource")
	ErrNotFound     = repos.ErrNotFound
	ErrConflict     = errors.New("conflict")
	ErrBadCreds     = errors.New("invalid email or password")
)

// ValidationError is a user-correctable input problem tied to one form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

func fromFieldError(fe *validate.FieldError) error {
	if fe == nil {
		return nil
	}
	return &ValidationError{Field: fe.Field, Message: fe.Message}
}

func conflict(msg string) error { return fmt.Errorf("%w: %s", ErrConflict, msg) }

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
