package models

import (
	"errors"
	"fmt"
	"time"
)

// BookingStatus is the lifecycle state of a booking record
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus converts a stored or user supplied string into a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch status := BookingStatus(s); status {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusRejected, BookingStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

func (s BookingStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that allow no further transitions
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCancelled
}

// Occupies returns true if a booking in this state holds the room for conflict purposes
func (s BookingStatus) Occupies() bool {
	return s == BookingStatusPending || s == BookingStatusAccepted
}

// Action is an explicit status change requested by an actor
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// ErrInvalidTransition is matched by every InvalidTransitionError
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports an action that is not allowed from the current status
type InvalidTransitionError struct {
	From   BookingStatus
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s booking", e.Action, e.From)
}

// Unwrap lets errors.Is match ErrInvalidTransition
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// transitions is the complete set of legal edges
var transitions = map[BookingStatus]map[Action]BookingStatus{
	BookingStatusPending: {
		ActionApprove: BookingStatusAccepted,
		ActionReject:  BookingStatusRejected,
		ActionCancel:  BookingStatusCancelled,
	},
	BookingStatusAccepted: {
		ActionCancel: BookingStatusCancelled,
	},
}

// Next returns the status reached by applying action, or an InvalidTransitionError
func (s BookingStatus) Next(action Action) (BookingStatus, error) {
	next, ok := transitions[s][action]
	if !ok {
		return s, &InvalidTransitionError{From: s, Action: action}
	}
	return next, nil
}

// BookingRequest is a candidate booking as submitted by a requester
type BookingRequest struct {
	RoomID      string       `json:"room_id" validate:"required,max=64"`
	Date        string       `json:"date" validate:"required,datetime=2006-01-02"`
	Interval    TimeInterval `json:"interval"`
	RequesterID string       `json:"requester_id" validate:"required,max=128"`
	Notes       string       `json:"notes,omitempty" validate:"max=500"`
}

// BookingRecord is the persisted outcome of a BookingRequest
type BookingRecord struct {
	ID          string        `json:"id"`
	RoomID      string        `json:"room_id"`
	Date        string        `json:"date"`
	Interval    TimeInterval  `json:"interval"`
	RequesterID string        `json:"requester_id"`
	Status      BookingStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
