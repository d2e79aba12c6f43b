// Package server provides the HTTP REST API for the job application tracker.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/job-pilot/internal/fetch"
	"github.com/jonathan/job-pilot/internal/lifecycle"
	"github.com/jonathan/job-pilot/internal/store"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrAIUnavailable indicates no AI collaborator is configured.
type ErrAIUnavailable struct{}

func (e *ErrAIUnavailable) Error() string {
	return "AI features are not configured"
}

// HTTPStatus maps an error to the appropriate HTTP status code. Domain
// refusals surface as 422 so clients can tell a rejected transition apart
// from a malformed request.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrUserNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrAIUnavailable:
		return http.StatusServiceUnavailable
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateSkill):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrRefused):
		return http.StatusUnprocessableEntity
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
