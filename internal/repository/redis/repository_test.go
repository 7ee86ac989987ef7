// Package redis_test provides tests for the Redis repository
package redis_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/navikt/roombooking/internal/config"
	"github.com/navikt/roombooking/internal/lock"
	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/repository/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestRedis(t *testing.T) (*redis.Repository, *miniredis.Miniredis, func()) {
	// Create a miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	cfg := config.RedisConfig{
		Enabled:   true,
		Host:      mr.Host(),
		Port:      mr.Port(),
		KeyPrefix: "test:",
	}

	repo, err := redis.NewRepository(cfg)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		mr.Close()
	}

	return repo, mr, cleanup
}

func request(room, date string, start, end int, requester string) models.BookingRequest {
	return models.BookingRequest{
		RoomID:      room,
		Date:        date,
		Interval:    models.TimeInterval{Start: start, End: end},
		RequesterID: requester,
		Notes:       "study group",
	}
}

// TestRedisWithURI tests connection with URI format
func TestRedisWithURI(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := config.RedisConfig{
		Enabled:   true,
		URI:       fmt.Sprintf("redis://%s:%s", mr.Host(), mr.Port()),
		KeyPrefix: "test:",
	}

	repo, err := redis.NewRepository(cfg)
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.SaveRoom(ctx, &models.Room{ID: "uri", Name: "URI Test"}))

	room, err := repo.GetRoom(ctx, "uri")
	require.NoError(t, err)
	assert.Equal(t, "URI Test", room.Name)
	assert.NoError(t, repo.Ping(ctx))
}

func TestRoomRepository(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("SaveAndGetRoom", func(t *testing.T) {
		room := &models.Room{ID: "lib-101", Name: "Library 101", Building: "Library", Type: "study", Capacity: 6}
		require.NoError(t, repo.SaveRoom(ctx, room))
		assert.True(t, mr.Exists("test:rooms:lib-101"))

		saved, err := repo.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, room, saved)
	})

	t.Run("ListRooms", func(t *testing.T) {
		require.NoError(t, repo.SaveRoom(ctx, &models.Room{ID: "eng-1", Name: "Engineering 1"}))

		rooms, err := repo.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, "eng-1", rooms[0].ID)
	})

	t.Run("MissingRoom", func(t *testing.T) {
		_, err := repo.GetRoom(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrRoomNotFound)
	})
}

func TestBookingRepository(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	first, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 540, 600, "u1"))
	require.NoError(t, err)
	second, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 600, 660, "u2"))
	require.NoError(t, err)
	third, err := repo.CreatePendingRecord(ctx, request("B", "2025-05-08", 540, 600, "u1"))
	require.NoError(t, err)

	t.Run("CreateIndexesRecord", func(t *testing.T) {
		assert.Equal(t, models.BookingStatusPending, first.Status)
		assert.True(t, mr.Exists("test:bookings:"+first.ID))

		members, err := mr.Members("test:schedule:A:2025-05-08")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{first.ID, second.ID}, members)
	})

	t.Run("GetBookingRoundTrip", func(t *testing.T) {
		got, err := repo.GetBooking(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, first.Interval, got.Interval)
		assert.Equal(t, "u1", got.RequesterID)
		assert.Equal(t, "study group", got.Notes)
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

		_, err = repo.GetBooking(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})

	t.Run("ListingsNewestFirst", func(t *testing.T) {
		all, err := repo.ListBookings(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

		mine, err := repo.ListBookingsByRequester(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, third.ID, mine[0].ID)

		none, err := repo.ListBookingsByRequester(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UpdateStatusCompareAndSet", func(t *testing.T) {
		updated, err := repo.UpdateStatus(ctx, first.ID, models.BookingStatusPending, models.BookingStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusAccepted, updated.Status)

		stored, err := repo.GetBooking(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusAccepted, stored.Status)

		_, err = repo.UpdateStatus(ctx, first.ID, models.BookingStatusPending, models.BookingStatusRejected)
		assert.ErrorIs(t, err, models.ErrStatusChanged)

		_, err = repo.UpdateStatus(ctx, "missing", models.BookingStatusPending, models.BookingStatusRejected)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})

	t.Run("DayScheduleExcludesTerminalRecords", func(t *testing.T) {
		_, err := repo.UpdateStatus(ctx, second.ID, models.BookingStatusPending, models.BookingStatusRejected)
		require.NoError(t, err)

		schedule, err := repo.LoadDaySchedule(ctx, "A", "2025-05-08")
		require.NoError(t, err)
		assert.Equal(t, []models.TimeInterval{{Start: 540, End: 600}}, schedule.Intervals)

		records, err := repo.ListBookingsByRoomDate(ctx, "A", "2025-05-08")
		require.NoError(t, err)
		assert.Len(t, records, 2, "terminal records are kept for audit")
	})
}

func TestConcurrentStatusUpdates(t *testing.T) {
	repo, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	record, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 540, 600, "u1"))
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateStatus(ctx, record.ID, models.BookingStatusPending, models.BookingStatusCancelled)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, models.ErrStatusChanged), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestCreatePendingRecordFencedByLock(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := lock.NewRedisLocker(repo.Client(), lock.RedisOptions{
		KeyPrefix:    "test:",
		TTL:          5 * time.Second,
		Wait:         time.Second,
		PollInterval: 5 * time.Millisecond,
	}, zaptest.NewLogger(t))
	key := lock.Key{RoomID: "A", Date: "2025-05-08"}

	t.Run("WriteWhileHeld", func(t *testing.T) {
		err := locker.WithLock(context.Background(), key, func(ctx context.Context) error {
			_, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 480, 540, "u0"))
			return err
		})
		require.NoError(t, err)
	})

	t.Run("ExpiredHolderCannotCommit", func(t *testing.T) {
		entered := make(chan struct{})
		resume := make(chan struct{})
		firstErr := make(chan error, 1)

		go func() {
			firstErr <- locker.WithLock(context.Background(), key, func(ctx context.Context) error {
				close(entered)
				<-resume
				_, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 540, 600, "u1"))
				return err
			})
		}()

		<-entered
		// The first holder stalls past the lock TTL
		mr.FastForward(6 * time.Second)

		err := locker.WithLock(context.Background(), key, func(ctx context.Context) error {
			_, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 550, 610, "u2"))
			return err
		})
		require.NoError(t, err)

		close(resume)
		assert.ErrorIs(t, <-firstErr, lock.ErrLockLost)

		records, err := repo.ListBookingsByRoomDate(context.Background(), "A", "2025-05-08")
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, r := range records {
			assert.NotEqual(t, "u1", r.RequesterID, "expired holder must not commit")
		}
	})

	t.Run("WriteWithForeignLease", func(t *testing.T) {
		require.NoError(t, mr.Set("test:locks:B:2025-05-08", "someone-else"))
		ctx := lock.WithLease(context.Background(), lock.Lease{Key: "test:locks:B:2025-05-08", Token: "mine"})

		_, err := repo.CreatePendingRecord(ctx, request("B", "2025-05-08", 540, 600, "u3"))
		assert.ErrorIs(t, err, lock.ErrLockLost)

		records, err := repo.ListBookingsByRoomDate(context.Background(), "B", "2025-05-08")
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
