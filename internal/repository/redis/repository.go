// Package redis provides a Redis/Valkey implementation of the repository interface
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/navikt/roombooking/internal/config"
	"github.com/navikt/roombooking/internal/lock"
	"github.com/navikt/roombooking/internal/models"
	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries when a watched booking key changes mid-transaction
const maxUpdateAttempts = 3

// bookingState is the internal model for storing a booking record in Redis
type bookingState struct {
	ID          string
	RoomID      string
	Date        string
	StartMinute int
	EndMinute   int
	RequesterID string
	Status      models.BookingStatus
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func stateFromRecord(b *models.BookingRecord) bookingState {
	return bookingState{
		ID:          b.ID,
		RoomID:      b.RoomID,
		Date:        b.Date,
		StartMinute: b.Interval.Start,
		EndMinute:   b.Interval.End,
		RequesterID: b.RequesterID,
		Status:      b.Status,
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (s bookingState) record() *models.BookingRecord {
	return &models.BookingRecord{
		ID:          s.ID,
		RoomID:      s.RoomID,
		Date:        s.Date,
		Interval:    models.TimeInterval{Start: s.StartMinute, End: s.EndMinute},
		RequesterID: s.RequesterID,
		Status:      s.Status,
		Notes:       s.Notes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Repository implements the repository interface with Redis storage
type Repository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRepository creates a new Redis repository
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewClient builds a client from the configuration without connecting
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
		}

		// Use DB from config if not specified in the URI
		if opt.DB == 0 {
			opt.DB = cfg.DB
		}

		// Use password from config if not in URI or if empty in URI
		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}

		return redis.NewClient(opt), nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// Client exposes the underlying connection so the booking lock can share it
func (r *Repository) Client() *redis.Client {
	return r.client
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Repository) roomKey(id string) string {
	return r.keyPrefix + "rooms:" + id
}

func (r *Repository) roomSetKey() string {
	return r.keyPrefix + "rooms"
}

func (r *Repository) bookingKey(id string) string {
	return r.keyPrefix + "bookings:" + id
}

// bookingIndexKey is a sorted set of all booking IDs scored by creation sequence
func (r *Repository) bookingIndexKey() string {
	return r.keyPrefix + "bookings:index"
}

// scheduleKey is the set of booking IDs for one room and date
func (r *Repository) scheduleKey(roomID, date string) string {
	return r.keyPrefix + "schedule:" + roomID + ":" + date
}

// sequenceKey orders bookings by creation
func (r *Repository) sequenceKey() string {
	return r.keyPrefix + "bookings:seq"
}

// requesterKey is a sorted set of a requester's booking IDs scored by creation sequence
func (r *Repository) requesterKey(requesterID string) string {
	return r.keyPrefix + "requesters:" + requesterID + ":bookings"
}

// SaveRoom creates or replaces a room
func (r *Repository) SaveRoom(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.roomKey(room.ID), data, 0)
	pipe.SAdd(ctx, r.roomSetKey(), room.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

// GetRoom retrieves a room by ID
func (r *Repository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	data, err := r.client.Get(ctx, r.roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}

// ListRooms returns all rooms ordered by name
func (r *Repository) ListRooms(ctx context.Context) ([]*models.Room, error) {
	ids, err := r.client.SMembers(ctx, r.roomSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	rooms := make([]*models.Room, 0, len(ids))
	if len(ids) == 0 {
		return rooms, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.roomKey(id)
	}

	// Use MGET to retrieve all room data in a single roundtrip
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room data: %w", err)
	}

	for _, v := range values {
		strData, ok := v.(string)
		if !ok {
			continue
		}
		var room models.Room
		if err := json.Unmarshal([]byte(strData), &room); err != nil {
			continue
		}
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

// CreatePendingRecord stores a new pending booking and indexes it by room/date and requester
func (r *Repository) CreatePendingRecord(ctx context.Context, req models.BookingRequest) (*models.BookingRecord, error) {
	now := time.Now().UTC()
	record := &models.BookingRecord{
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

	data, err := json.Marshal(stateFromRecord(record))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking: %w", err)
	}

	seq, err := r.client.Incr(ctx, r.sequenceKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate booking sequence: %w", err)
	}

	score := float64(seq)
	write := func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.bookingKey(record.ID), data, 0)
		pipe.SAdd(ctx, r.scheduleKey(record.RoomID, record.Date), record.ID)
		pipe.ZAdd(ctx, r.requesterKey(record.RequesterID), redis.Z{Score: score, Member: record.ID})
		pipe.ZAdd(ctx, r.bookingIndexKey(), redis.Z{Score: score, Member: record.ID})
		return nil
	}

	lease, fenced := lock.LeaseFromContext(ctx)
	if !fenced {
		if _, err := r.client.TxPipelined(ctx, write); err != nil {
			return nil, fmt.Errorf("failed to save booking: %w", err)
		}
		return record, nil
	}

	if err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		return commitIfHeld(ctx, tx, lease, write)
	}, lease.Key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, lock.ErrLockLost
		}
		if errors.Is(err, lock.ErrLockLost) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	return record, nil
}

// commitIfHeld runs write in MULTI only while the watched lock key still holds the lease token.
// A change to the key between GET and EXEC aborts the transaction.
func commitIfHeld(ctx context.Context, tx *redis.Tx, lease lock.Lease, write func(redis.Pipeliner) error) error {
	holder, err := tx.Get(ctx, lease.Key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to check booking lock: %w", err)
	}
	if holder != lease.Token {
		return lock.ErrLockLost
	}
	_, err = tx.TxPipelined(ctx, write)
	return err
}

// GetBooking retrieves a booking by ID
func (r *Repository) GetBooking(ctx context.Context, id string) (*models.BookingRecord, error) {
	data, err := r.client.Get(ctx, r.bookingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	var state bookingState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
	}
	return state.record(), nil
}

// UpdateStatus changes the status of a booking if it still has the expected status.
// The booking key is watched so a concurrent writer aborts the transaction.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.BookingRecord, error) {
	key := r.bookingKey(id)
	var updated *models.BookingRecord

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return models.ErrBookingNotFound
			}
			return fmt.Errorf("failed to get booking: %w", err)
		}

		var state bookingState
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("failed to unmarshal booking: %w", err)
		}
		if state.Status != from {
			return models.ErrStatusChanged
		}

		state.Status = to
		state.UpdatedAt = time.Now().UTC()
		newData, err := json.Marshal(&state)
		if err != nil {
			return fmt.Errorf("failed to marshal booking: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = state.record()
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}

	return nil, models.ErrStatusChanged
}

// ListBookingsByRoomDate returns every record for a room and date, in any status
func (r *Repository) ListBookingsByRoomDate(ctx context.Context, roomID, date string) ([]*models.BookingRecord, error) {
	ids, err := r.client.SMembers(ctx, r.scheduleKey(roomID, date)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for room: %w", err)
	}

	records, err := r.getBookings(ctx, ids)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Interval.Start < records[j].Interval.Start
	})
	return records, nil
}

// ListBookingsByRequester returns a requester's bookings, newest first
func (r *Repository) ListBookingsByRequester(ctx context.Context, requesterID string) ([]*models.BookingRecord, error) {
	ids, err := r.client.ZRevRange(ctx, r.requesterKey(requesterID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for requester: %w", err)
	}
	return r.getBookings(ctx, ids)
}

// ListBookings returns all bookings, newest first
func (r *Repository) ListBookings(ctx context.Context) ([]*models.BookingRecord, error) {
	ids, err := r.client.ZRevRange(ctx, r.bookingIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return r.getBookings(ctx, ids)
}

// LoadDaySchedule materializes the day schedule from the occupying records
func (r *Repository) LoadDaySchedule(ctx context.Context, roomID, date string) (models.RoomDaySchedule, error) {
	records, err := r.ListBookingsByRoomDate(ctx, roomID, date)
	if err != nil {
		return models.RoomDaySchedule{}, err
	}
	return models.ScheduleFromRecords(roomID, date, records), nil
}

// getBookings loads records in the order of ids, skipping any that are missing
func (r *Repository) getBookings(ctx context.Context, ids []string) ([]*models.BookingRecord, error) {
	records := make([]*models.BookingRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.bookingKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get booking data: %w", err)
	}

	for _, v := range values {
		strData, ok := v.(string)
		if !ok {
			continue
		}
		var state bookingState
		if err := json.Unmarshal([]byte(strData), &state); err != nil {
			continue
		}
		records = append(records, state.record())
	}

	return records, nil
}
