package memory_test

import (
	"context"
	"testing"

	"github.com/navikt/roombooking/internal/models"
	"github.com/navikt/roombooking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(room, date string, start, end int, requester string) models.BookingRequest {
	return models.BookingRequest{
		RoomID:      room,
		Date:        date,
		Interval:    models.TimeInterval{Start: start, End: end},
		RequesterID: requester,
	}
}

func TestRoomRepository(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()

	t.Run("SaveAndGetRoom", func(t *testing.T) {
		room := &models.Room{ID: "lib-101", Name: "Library 101", Building: "Library", Capacity: 6}
		require.NoError(t, repo.SaveRoom(ctx, room))

		saved, err := repo.GetRoom(ctx, "lib-101")
		require.NoError(t, err)
		assert.Equal(t, room, saved)

		room.Capacity = 99
		saved, _ = repo.GetRoom(ctx, "lib-101")
		assert.Equal(t, 6, saved.Capacity, "stored room must not alias the caller's value")
	})

	t.Run("ListRoomsOrderedByName", func(t *testing.T) {
		require.NoError(t, repo.SaveRoom(ctx, &models.Room{ID: "eng-1", Name: "Engineering 1"}))

		rooms, err := repo.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, "eng-1", rooms[0].ID)
		assert.Equal(t, "lib-101", rooms[1].ID)
	})

	t.Run("MissingRoom", func(t *testing.T) {
		_, err := repo.GetRoom(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrRoomNotFound)
	})
}

func TestBookingRepository(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()

	first, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 540, 600, "u1"))
	require.NoError(t, err)
	second, err := repo.CreatePendingRecord(ctx, request("A", "2025-05-08", 600, 660, "u2"))
	require.NoError(t, err)
	other, err := repo.CreatePendingRecord(ctx, request("B", "2025-05-08", 540, 600, "u1"))
	require.NoError(t, err)

	t.Run("CreateAssignsIdentityAndPending", func(t *testing.T) {
		assert.NotEmpty(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, models.BookingStatusPending, first.Status)
		assert.False(t, first.CreatedAt.IsZero())
		assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	})

	t.Run("GetBooking", func(t *testing.T) {
		got, err := repo.GetBooking(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, second, got)

		_, err = repo.GetBooking(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})

	t.Run("Listings", func(t *testing.T) {
		all, err := repo.ListBookings(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, other.ID, all[0].ID, "newest first")

		mine, err := repo.ListBookingsByRequester(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		roomDay, err := repo.ListBookingsByRoomDate(ctx, "A", "2025-05-08")
		require.NoError(t, err)
		assert.Len(t, roomDay, 2)

		none, err := repo.ListBookingsByRequester(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("UpdateStatusCompareAndSet", func(t *testing.T) {
		updated, err := repo.UpdateStatus(ctx, first.ID, models.BookingStatusPending, models.BookingStatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusAccepted, updated.Status)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

		_, err = repo.UpdateStatus(ctx, first.ID, models.BookingStatusPending, models.BookingStatusRejected)
		assert.ErrorIs(t, err, models.ErrStatusChanged)

		_, err = repo.UpdateStatus(ctx, "missing", models.BookingStatusPending, models.BookingStatusRejected)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})

	t.Run("DayScheduleExcludesTerminalRecords", func(t *testing.T) {
		_, err := repo.UpdateStatus(ctx, second.ID, models.BookingStatusPending, models.BookingStatusCancelled)
		require.NoError(t, err)

		schedule, err := repo.LoadDaySchedule(ctx, "A", "2025-05-08")
		require.NoError(t, err)
		assert.Equal(t, []models.TimeInterval{{Start: 540, End: 600}}, schedule.Intervals)

		empty, err := repo.LoadDaySchedule(ctx, "A", "2025-05-09")
		require.NoError(t, err)
		assert.True(t, empty.IsEmpty())
	})
}
