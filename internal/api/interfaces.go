package api

import (
	"context"

	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/service"
)

// BookingServicer is the booking functionality used by the handlers
type BookingServicer interface {
	Submit(ctx context.Context, req models.BookingRequest) (*models.BookingRecord, error)
	Transition(ctx context.Context, id string, action models.Action) (*models.BookingRecord, error)
	CancelOwn(ctx context.Context, id, requesterID string) (*models.BookingRecord, error)
	GetBooking(ctx context.Context, id string) (*models.BookingRecord, error)
	ListBookings(ctx context.Context, filter service.BookingFilter) ([]*models.BookingRecord, error)
}

// RoomServicer is the room functionality used by the handlers
type RoomServicer interface {
	SaveRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	SearchAvailable(ctx context.Context, query service.RoomQuery) ([]*models.Room, error)
	DaySchedule(ctx context.Context, roomID, date string, now service.Moment) (*service.DayView, error)
	Status(ctx context.Context, roomID, date string, minute int) (*models.RoomStatus, error)
	Week(ctx context.Context, roomID, anyDate string, now service.Moment) ([]*service.DayView, error)
}

// Verify at compile time that the services implement the interfaces
var (
	_ BookingServicer = (*service.BookingService)(nil)
	_ RoomServicer    = (*service.RoomService)(nil)
)
