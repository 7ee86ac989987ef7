// Package memory provides an in-memory implementation of the repository interface
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/navikt/roombooking/internal/models"
)

// Repository implements the repository interface with in-memory storage
type Repository struct {
	mu       sync.RWMutex
	rooms    map[string]models.Room
	bookings map[string]models.BookingRecord
	// order holds booking IDs in insertion order
	order []string
	now   func() time.Time
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		rooms:    make(map[string]models.Room),
		bookings: make(map[string]models.BookingRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SaveRoom creates or replaces a room
func (r *Repository) SaveRoom(ctx context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[room.ID] = *room
	return nil
}

// GetRoom retrieves a room by ID
func (r *Repository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return &room, nil
}

// ListRooms returns all rooms ordered by name
func (r *Repository) ListRooms(ctx context.Context) ([]*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		room := room
		rooms = append(rooms, &room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name != rooms[j].Name {
			return rooms[i].Name < rooms[j].Name
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

// CreatePendingRecord stores a new pending booking for the request
func (r *Repository) CreatePendingRecord(ctx context.Context, req models.BookingRequest) (*models.BookingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	record := models.BookingRecord{
		ID:          uuid.NewString(),
		RoomID:      req.RoomID,
		Date:        req.Date,
		Interval:    req.Interval,
		RequesterID: req.RequesterID,
		Status:      models.BookingStatusPending,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.bookings[record.ID] = record
	r.order = append(r.order, record.ID)

	return &record, nil
}

// GetBooking retrieves a booking by ID
func (r *Repository) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return &record, nil
}

// UpdateStatus changes the status of a booking if it still has the expected status
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.BookingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	if record.Status != from {
		return nil, models.ErrStatusChanged
	}

	record.Status = to
	record.UpdatedAt = r.now()
	r.bookings[id] = record

	return &record, nil
}

// ListBookingsByRoomDate returns every record for a room and date, in any status
func (r *Repository) ListBookingsByRoomDate(ctx context.Context, roomID, date string) ([]*models.BookingRecord, error) {
	return r.filter(func(b *models.BookingRecord) bool {
		return b.RoomID == roomID && b.Date == date
	}), nil
}

// ListBookingsByRequester returns a requester's bookings, newest first
func (r *Repository) ListBookingsByRequester(ctx context.Context, requesterID string) ([]*models.BookingRecord, error) {
	return r.filter(func(b *models.BookingRecord) bool {
		return b.RequesterID == requesterID
	}), nil
}

// ListBookings returns all bookings, newest first
func (r *Repository) ListBookings(ctx context.Context) ([]*models.BookingRecord, error) {
	return r.filter(func(*models.BookingRecord) bool { return true }), nil
}

// LoadDaySchedule materializes the day schedule from the occupying records
func (r *Repository) LoadDaySchedule(ctx context.Context, roomID, date string) (models.RoomDaySchedule, error) {
	records, err := r.ListBookingsByRoomDate(ctx, roomID, date)
	if err != nil {
		return models.RoomDaySchedule{}, err
	}
	return models.ScheduleFromRecords(roomID, date, records), nil
}

// Ping always succeeds
func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *Repository) Close() error {
	return nil
}

// filter walks bookings newest first
func (r *Repository) filter(keep func(*models.BookingRecord) bool) []*models.BookingRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.BookingRecord{}
	for i := len(r.order) - 1; i >= 0; i-- {
		record := r.bookings[r.order[i]]
		if keep(&record) {
			result = append(result, &record)
		}
	}
	return result
}
