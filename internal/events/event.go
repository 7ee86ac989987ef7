// Package events publishes booking lifecycle events
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/navikt/roombooking/internal/models"
)

// EventType identifies a booking lifecycle event
type EventType string

const (
	EventBookingSubmitted EventType = "booking.submitted"
	EventBookingAccepted  EventType = "booking.accepted"
	EventBookingRejected  EventType = "booking.rejected"
	EventBookingCancelled EventType = "booking.cancelled"
)

// TypeForStatus returns the event emitted when a booking enters status
func TypeForStatus(status models.BookingStatus) EventType {
	switch status {
	case models.BookingStatusAccepted:
		return EventBookingAccepted
	case models.BookingStatusRejected:
		return EventBookingRejected
	case models.BookingStatusCancelled:
		return EventBookingCancelled
	default:
		return EventBookingSubmitted
	}
}

// BookingEvent is the payload of every published event
type BookingEvent struct {
	ID         string                `json:"id"`
	Type       EventType             `json:"type"`
	OccurredAt time.Time             `json:"occurred_at"`
	Booking    *models.BookingRecord `json:"booking"`
}

// NewBookingEvent creates an event for a booking record
func NewBookingEvent(eventType EventType, booking *models.BookingRecord) BookingEvent {
	return BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Booking:    booking,
	}
}

// Publisher delivers booking events to an external system
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// NopPublisher discards every event
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// Close implements Publisher
func (NopPublisher) Close() error { return nil }
