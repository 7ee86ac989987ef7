// Package repository defines interfaces for data storage
package repository

import (
	"context"

	"github.com/navikt/roombooking/internal/models"
)

// Repository defines the interface for storing rooms and booking records.
// Implementations return models.ErrRoomNotFound, models.ErrBookingNotFound and
// models.ErrStatusChanged so callers can match them with errors.Is.
type Repository interface {
	// Room operations
	SaveRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)

	// Booking operations. Records are never deleted.
	CreatePendingRecord(ctx context.Context, req models.BookingRequest) (*models.BookingRecord, error)
	GetBooking(ctx context.Context, id string) (*models.BookingRecord, error)
	// UpdateStatus sets the status to `to` only if it is currently `from`
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.BookingRecord, error)
	ListBookingsByRoomDate(ctx context.Context, roomID, date string) ([]*models.BookingRecord, error)
	ListBookingsByRequester(ctx context.Context, requesterID string) ([]*models.BookingRecord, error)
	ListBookings(ctx context.Context) ([]*models.BookingRecord, error)

	// LoadDaySchedule materializes the committed intervals for one room and date
	LoadDaySchedule(ctx context.Context, roomID, date string) (models.RoomDaySchedule, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
	Close() error
}
