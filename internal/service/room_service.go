package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/navikt/roombooking/internal/availability"
	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/utils"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Display text for statuses without a time boundary
const (
	UntilAllDay      = "All day"
	UntilForThisDate = "for this date"
)

// RoomScheduleStore is everything the room service reads and writes
type RoomScheduleStore interface {
	ScheduleSource
	RoomStore
}

// Moment is a calendar date and a minute of that day
type Moment struct {
	Date   string
	Minute int
}

// MomentOf converts a wall clock time to a Moment in its own location
func MomentOf(t time.Time) Moment {
	return Moment{Date: t.Format(dateLayout), Minute: t.Hour()*60 + t.Minute()}
}

// RoomQuery filters rooms for the booking search. When Date and DurationMinutes are
// set, only rooms free for [StartMinute, StartMinute+DurationMinutes) on Date are kept.
type RoomQuery struct {
	Building        string
	Search          string
	MinCapacity     int
	Date            string
	StartMinute     int
	DurationMinutes int
}

// DayView is one room's schedule for one date
type DayView struct {
	RoomID      string                `json:"room_id"`
	Date        string                `json:"date"`
	Weekday     string                `json:"weekday"`
	Entries     []availability.Entry  `json:"entries"`
	FreeWindows []models.TimeInterval `json:"free_windows"`
}

// RoomService answers room search and schedule questions
type RoomService struct {
	store         RoomScheduleStore
	logger        *zap.Logger
	validator     *structValidator
	granularity   int
	openingMinute int
	closingMinute int
}

// RoomOptions configures a RoomService
type RoomOptions struct {
	Granularity   int
	OpeningMinute int
	ClosingMinute int
}

// NewRoomService creates a RoomService
func NewRoomService(store RoomScheduleStore, logger *zap.Logger, opts RoomOptions) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Granularity <= 0 {
		opts.Granularity = models.DefaultGranularity
	}
	if opts.ClosingMinute <= opts.OpeningMinute {
		opts.OpeningMinute, opts.ClosingMinute = 0, models.MinutesPerDay
	}
	return &RoomService{
		store:         store,
		logger:        logger.Named("rooms"),
		validator:     newStructValidator(),
		granularity:   opts.Granularity,
		openingMinute: opts.OpeningMinute,
		closingMinute: opts.ClosingMinute,
	}
}

// SaveRoom validates and stores a room
func (s *RoomService) SaveRoom(ctx context.Context, room *models.Room) error {
	if err := s.validator.Struct(room); err != nil {
		return err
	}
	if err := s.store.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	s.logger.Info("Room saved", zap.String("room_id", utils.SanitizeLogString(room.ID)))
	return nil
}

// GetRoom returns a room by ID
func (s *RoomService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return s.store.GetRoom(ctx, id)
}

// ListRooms returns all rooms
func (s *RoomService) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return s.store.ListRooms(ctx)
}

// SearchAvailable returns the rooms matching the query filters, ordered by name
func (s *RoomService) SearchAvailable(ctx context.Context, query RoomQuery) ([]*models.Room, error) {
	if query.DurationMinutes < 0 {
		return nil, ValidationErrors{{Field: "duration", Message: "duration must be a positive number of minutes"}}
	}

	var candidate *models.TimeInterval
	if query.Date != "" && query.DurationMinutes > 0 {
		if err := validateDate(query.Date); err != nil {
			return nil, err
		}
		iv, err := models.NewTimeInterval(query.StartMinute, query.StartMinute+query.DurationMinutes, s.granularity)
		if err != nil {
			return nil, err
		}
		candidate = &iv
	}

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(query.Search))
	result := make([]*models.Room, 0, len(rooms))
	for _, room := range rooms {
		if query.Building != "" && !strings.EqualFold(room.Building, query.Building) {
			continue
		}
		if query.MinCapacity > 0 && !room.HasCapacity(query.MinCapacity) {
			continue
		}
		if search != "" && !matchesSearch(room, search) {
			continue
		}

		if candidate != nil {
			schedule, err := s.store.LoadDaySchedule(ctx, room.ID, query.Date)
			if err != nil {
				return nil, fmt.Errorf("failed to load schedule for room %s: %w", room.ID, err)
			}
			if !availability.IsAvailable(schedule, *candidate) {
				continue
			}
		}

		result = append(result, room)
	}

	return result, nil
}

func matchesSearch(room *models.Room, search string) bool {
	for _, field := range []string{room.ID, room.Name, room.Building, room.Type} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// DaySchedule returns the room's bookings for date with their phases relative to now,
// plus the free windows inside opening hours
func (s *RoomService) DaySchedule(ctx context.Context, roomID, date string, now Moment) (*DayView, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.dayView(ctx, roomID, date, now)
}

func (s *RoomService) dayView(ctx context.Context, roomID, date string, now Moment) (*DayView, error) {
	schedule, err := s.loadSchedule(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	day, _ := time.Parse(dateLayout, date)
	return &DayView{
		RoomID:      roomID,
		Date:        date,
		Weekday:     day.Weekday().String(),
		Entries:     availability.DayEntries(schedule, now.Date, now.Minute),
		FreeWindows: availability.FreeWindows(schedule, s.openingMinute, s.closingMinute),
	}, nil
}

// Status describes whether the room is occupied at minute on date, and until when
func (s *RoomService) Status(ctx context.Context, roomID, date string, minute int) (*models.RoomStatus, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if minute < 0 || minute >= models.MinutesPerDay {
		return nil, ValidationErrors{{Field: "at", Message: "at must be a time of day between 00:00 and 23:59"}}
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.loadSchedule(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	status := availability.StatusAt(schedule, minute)
	if status.Warning != nil {
		s.logger.Warn("Multiple bookings cover the same minute",
			zap.String("room_id", utils.SanitizeLogString(roomID)),
			zap.String("date", date),
			zap.Error(status.Warning))
	}

	result := &models.RoomStatus{
		RoomID:   room.ID,
		RoomName: room.Name,
		Date:     date,
		At:       models.FormatClock(minute),
		State:    status.State.String(),
		Boundary: status.Boundary,
	}
	switch {
	case status.Boundary != nil:
		result.Until = models.FormatClock(*status.Boundary)
	case status.State == availability.StateNoSchedule:
		result.Until = UntilForThisDate
	default:
		result.Until = UntilAllDay
	}

	return result, nil
}

// Week returns the seven days from the Sunday on or before anyDate
func (s *RoomService) Week(ctx context.Context, roomID, anyDate string, now Moment) ([]*DayView, error) {
	day, err := time.Parse(dateLayout, anyDate)
	if err != nil {
		return nil, ValidationErrors{{Field: "date", Message: "date must be a date formatted as YYYY-MM-DD"}}
	}
	if _, err := s.store.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	sunday := day.AddDate(0, 0, -int(day.Weekday()))
	week := make([]*DayView, 0, 7)
	for i := 0; i < 7; i++ {
		view, err := s.dayView(ctx, roomID, sunday.AddDate(0, 0, i).Format(dateLayout), now)
		if err != nil {
			return nil, err
		}
		week = append(week, view)
	}
	return week, nil
}

func (s *RoomService) loadSchedule(ctx context.Context, roomID, date string) (models.RoomDaySchedule, error) {
	schedule, err := s.store.LoadDaySchedule(ctx, roomID, date)
	if err != nil {
		return models.RoomDaySchedule{}, fmt.Errorf("failed to load schedule: %w", err)
	}
	if warning := availability.CheckIntegrity(schedule); warning != nil {
		s.logger.Warn("Stored schedule has overlapping bookings",
			zap.String("room_id", utils.SanitizeLogString(roomID)),
			zap.String("date", date),
			zap.Error(warning))
	}
	return schedule, nil
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ValidationErrors{{Field: "date", Message: "date must be a date formatted as YYYY-MM-DD"}}
	}
	return nil
}
