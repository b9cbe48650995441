package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotAuthenticated is returned when an action needs a session token and none is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnauthorized is returned when the current user does not own the resource.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the server refused access (banned, not a member).
	ErrForbidden = errors.New("access denied")
	// ErrNotFound indicates the room, user or question does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoMoreQuestions signals the game has run past its last question.
	ErrNoMoreQuestions = errors.New("no more questions")
	// ErrBusy is returned when an action is triggered while its previous request is in flight.
	ErrBusy = errors.New("action already in progress")
	// ErrValidation marks input rejected locally before any request.
	ErrValidation = errors.New("invalid input")
	// ErrWireSchema marks a response that does not match the canonical schema.
	ErrWireSchema = errors.New("unexpected response shape")
	// ErrQuestionSetNotFound indicates a library question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
)

// APIError is a business error reported by the quiz API.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

// Unwrap maps the HTTP status onto the closest sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
