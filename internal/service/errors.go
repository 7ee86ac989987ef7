package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/navikt/roombooking/internal/models"
)

var (
	// ErrConflict is matched by every ConflictError
	ErrConflict = errors.New("booking conflicts with an existing booking")
	// ErrNotOwner is returned when a requester acts on someone else's booking
	ErrNotOwner = errors.New("booking belongs to another requester")
	// ErrValidation is matched by ValidationErrors
	ErrValidation = errors.New("validation failed")
)

// ConflictError reports the committed intervals that overlap a rejected candidate
type ConflictError struct {
	RoomID    string
	Date      string
	Candidate models.TimeInterval
	Conflicts []models.TimeInterval
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("room %s on %s is already booked for %s (requested %s)",
		e.RoomID, e.Date, strings.Join(parts, ", "), e.Candidate)
}

// Unwrap lets errors.Is match ErrConflict
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// ValidationError describes one invalid field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors is returned when a request fails struct validation
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Unwrap lets errors.Is match ErrValidation
func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}
