package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/navikt/roombooking/internal/availability"
	"github.com/navikt/roombooking/internal/events"
	"github.com/navikt/roombooking/internal/lock"
	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/utils"
	"go.uber.org/zap"
)

const (
	// maxTransitionAttempts bounds re-reads after losing a status compare-and-set
	maxTransitionAttempts = 3
	publishTimeout        = 5 * time.Second
)

// ScheduleSource materializes the committed intervals of a room on a date
type ScheduleSource interface {
	LoadDaySchedule(ctx context.Context, roomID, date string) (models.RoomDaySchedule, error)
}

// RecordStore persists booking records
type RecordStore interface {
	CreatePendingRecord(ctx context.Context, req models.BookingRequest) (*models.BookingRecord, error)
	GetBooking(ctx context.Context, id string) (*models.BookingRecord, error)
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.BookingRecord, error)
	ListBookingsByRequester(ctx context.Context, requesterID string) ([]*models.BookingRecord, error)
	ListBookings(ctx context.Context) ([]*models.BookingRecord, error)
}

// RoomStore persists rooms
type RoomStore interface {
	SaveRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
}

// BookingStore is everything the booking service reads and writes
type BookingStore interface {
	ScheduleSource
	RecordStore
	RoomStore
}

// BookingUpdateCallback is called after a booking is created or changes status
type BookingUpdateCallback func(*models.BookingRecord)

// BookingFilter narrows ListBookings. Empty fields match everything.
type BookingFilter struct {
	Status      models.BookingStatus
	RoomID      string
	Date        string
	RequesterID string
}

func (f BookingFilter) matches(b *models.BookingRecord) bool {
	return (f.Status == "" || b.Status == f.Status) &&
		(f.RoomID == "" || b.RoomID == f.RoomID) &&
		(f.Date == "" || b.Date == f.Date) &&
		(f.RequesterID == "" || b.RequesterID == f.RequesterID)
}

// BookingService admits booking requests and drives their status changes.
// Submit is the only path that creates records; admission is serialized per room and date.
type BookingService struct {
	store           BookingStore
	locker          lock.Locker
	publisher       events.Publisher
	logger          *zap.Logger
	validator       *structValidator
	granularity     int
	updateCallbacks []BookingUpdateCallback
}

// NewBookingService creates a BookingService. A nil publisher disables events.
func NewBookingService(store BookingStore, locker lock.Locker, publisher events.Publisher, logger *zap.Logger, granularity int) *BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if granularity <= 0 {
		granularity = models.DefaultGranularity
	}
	return &BookingService{
		store:           store,
		locker:          locker,
		publisher:       publisher,
		logger:          logger.Named("booking"),
		validator:       newStructValidator(),
		granularity:     granularity,
		updateCallbacks: make([]BookingUpdateCallback, 0),
	}
}

// RegisterUpdateCallback registers a callback function to be called when booking data changes.
// Callbacks must be registered before the service starts handling requests.
func (s *BookingService) RegisterUpdateCallback(callback BookingUpdateCallback) {
	s.updateCallbacks = append(s.updateCallbacks, callback)
}

// notifyUpdate calls all registered callbacks with the updated booking
func (s *BookingService) notifyUpdate(booking *models.BookingRecord) {
	for _, callback := range s.updateCallbacks {
		callback(booking)
	}
}

// Submit validates the request and, if the room is free for the interval, stores it as pending.
// It returns a *ConflictError listing the overlapping intervals when the room is taken.
func (s *BookingService) Submit(ctx context.Context, req models.BookingRequest) (*models.BookingRecord, error) {
	req.Notes = utils.SanitizeNotes(req.Notes)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	interval, err := models.NewTimeInterval(req.Interval.Start, req.Interval.End, s.granularity)
	if err != nil {
		return nil, err
	}
	req.Interval = interval

	if _, err := s.store.GetRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}

	var record *models.BookingRecord
	key := lock.Key{RoomID: req.RoomID, Date: req.Date}
	err = s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		schedule, err := s.store.LoadDaySchedule(ctx, req.RoomID, req.Date)
		if err != nil {
			return fmt.Errorf("failed to load schedule: %w", err)
		}

		if warning := availability.CheckIntegrity(schedule); warning != nil {
			s.logger.Warn("Stored schedule has overlapping bookings",
				zap.String("room_id", utils.SanitizeLogString(req.RoomID)),
				zap.String("date", req.Date),
				zap.Error(warning))
		}

		if !availability.IsAvailable(schedule, interval) {
			return &ConflictError{
				RoomID:    req.RoomID,
				Date:      req.Date,
				Candidate: interval,
				Conflicts: availability.FindConflicts(schedule, interval),
			}
		}

		// The caller gave up while we held the lock; write nothing
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err = s.store.CreatePendingRecord(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.logger.Info("Booking request conflicts",
				zap.String("room_id", utils.SanitizeLogString(req.RoomID)),
				zap.String("date", req.Date),
				zap.Stringer("interval", interval),
				zap.Int("conflicts", len(conflict.Conflicts)))
		}
		return nil, err
	}

	s.logger.Info("Booking submitted",
		zap.String("booking_id", record.ID),
		zap.String("room_id", utils.SanitizeLogString(record.RoomID)),
		zap.String("date", record.Date),
		zap.Stringer("interval", record.Interval))

	s.afterChange(ctx, record, events.EventBookingSubmitted)
	return record, nil
}

// Transition applies action to a booking using a compare-and-set on its status.
// A lost race re-reads the record and re-applies the action.
func (s *BookingService) Transition(ctx context.Context, id string, action models.Action) (*models.BookingRecord, error) {
	return s.transition(ctx, id, action, nil)
}

// Approve accepts a pending booking
func (s *BookingService) Approve(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.Transition(ctx, id, models.ActionApprove)
}

// Reject rejects a pending booking
func (s *BookingService) Reject(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.Transition(ctx, id, models.ActionReject)
}

// Cancel cancels a pending or accepted booking
func (s *BookingService) Cancel(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.Transition(ctx, id, models.ActionCancel)
}

// CancelOwn cancels a booking on behalf of the requester who made it
func (s *BookingService) CancelOwn(ctx context.Context, id, requesterID string) (*models.BookingRecord, error) {
	return s.transition(ctx, id, models.ActionCancel, func(b *models.BookingRecord) error {
		if b.RequesterID != requesterID {
			return ErrNotOwner
		}
		return nil
	})
}

func (s *BookingService) transition(ctx context.Context, id string, action models.Action, check func(*models.BookingRecord) error) (*models.BookingRecord, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		current, err := s.store.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}

		if check != nil {
			if err := check(current); err != nil {
				return nil, err
			}
		}

		next, err := current.Status.Next(action)
		if err != nil {
			return nil, err
		}

		updated, err := s.store.UpdateStatus(ctx, id, current.Status, next)
		if errors.Is(err, models.ErrStatusChanged) {
			s.logger.Debug("Booking status changed concurrently, retrying",
				zap.String("booking_id", id),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update booking status: %w", err)
		}

		s.logger.Info("Booking status changed",
			zap.String("booking_id", id),
			zap.String("from", current.Status.String()),
			zap.String("to", next.String()))

		s.afterChange(ctx, updated, events.TypeForStatus(next))
		return updated, nil
	}

	return nil, models.ErrStatusChanged
}

// afterChange runs once the lock is released. Failures here never fail the caller.
func (s *BookingService) afterChange(ctx context.Context, booking *models.BookingRecord, eventType events.EventType) {
	s.notifyUpdate(booking)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, events.NewBookingEvent(eventType, booking)); err != nil {
		s.logger.Error("Failed to publish booking event",
			zap.String("booking_id", booking.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

// GetBooking returns a booking by ID
func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	return s.store.GetBooking(ctx, id)
}

// ListByRequester returns a requester's bookings, newest first
func (s *BookingService) ListByRequester(ctx context.Context, requesterID string) ([]*models.BookingRecord, error) {
	return s.store.ListBookingsByRequester(ctx, requesterID)
}

// ListBookings returns the bookings matching filter, newest first
func (s *BookingService) ListBookings(ctx context.Context, filter BookingFilter) ([]*models.BookingRecord, error) {
	var (
		all []*models.BookingRecord
		err error
	)
	if filter.RequesterID != "" {
		all, err = s.store.ListBookingsByRequester(ctx, filter.RequesterID)
	} else {
		all, err = s.store.ListBookings(ctx)
	}
	if err != nil {
		return nil, err
	}

	result := make([]*models.BookingRecord, 0, len(all))
	for _, b := range all {
		if filter.matches(b) {
			result = append(result, b)
		}
	}
	return result, nil
}
