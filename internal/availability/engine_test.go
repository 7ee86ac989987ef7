package availability_test

import (
	"encoding/json"
	"testing"

	"github.com/navikt/roombooking/internal/availability"
	"github.com/navikt/roombooking/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedule(intervals ...models.TimeInterval) models.RoomDaySchedule {
	return models.RoomDaySchedule{RoomID: "R", Date: "2025-05-08", Intervals: intervals}
}

func iv(start, end int) models.TimeInterval {
	return models.TimeInterval{Start: start, End: end}
}

func TestIsAvailable(t *testing.T) {
	existing := schedule(iv(540, 600))

	t.Run("OverlappingCandidateConflicts", func(t *testing.T) {
		candidate := iv(570, 630)
		assert.False(t, availability.IsAvailable(existing, candidate))
		assert.Equal(t, []models.TimeInterval{iv(540, 600)}, availability.FindConflicts(existing, candidate))
	})

	t.Run("TouchingBoundaryIsFree", func(t *testing.T) {
		candidate := iv(600, 660)
		assert.True(t, availability.IsAvailable(existing, candidate))
		assert.Empty(t, availability.FindConflicts(existing, candidate))
	})

	t.Run("EmptyScheduleIsFree", func(t *testing.T) {
		assert.True(t, availability.IsAvailable(schedule(), iv(0, 1440)))
	})
}

func TestFindConflictsOrdering(t *testing.T) {
	s := schedule(iv(720, 780), iv(540, 600), iv(630, 690), iv(900, 960))

	conflicts := availability.FindConflicts(s, iv(560, 750))

	assert.Equal(t, []models.TimeInterval{iv(540, 600), iv(630, 690), iv(720, 780)}, conflicts)
	assert.Equal(t, 720, s.Intervals[0].Start, "schedule must not be reordered")
}

func TestIsAvailableMatchesFindConflicts(t *testing.T) {
	s := schedule(iv(480, 540), iv(600, 690), iv(720, 750), iv(900, 1020))

	for start := 420; start < 1100; start += 15 {
		for _, length := range []int{15, 30, 60, 120} {
			candidate := iv(start, start+length)
			available := availability.IsAvailable(s, candidate)
			conflicts := availability.FindConflicts(s, candidate)
			assert.Equal(t, available, len(conflicts) == 0, "candidate %s", candidate)
		}
	}
}

func TestStatusAt(t *testing.T) {
	t.Run("EmptyScheduleHasNoSchedule", func(t *testing.T) {
		status := availability.StatusAt(schedule(), 700)
		assert.Equal(t, availability.StateNoSchedule, status.State)
		assert.Nil(t, status.Boundary)
		assert.Nil(t, status.Warning)
	})

	t.Run("OccupiedUntilEndOfCurrentInterval", func(t *testing.T) {
		status := availability.StatusAt(schedule(iv(540, 600)), 570)
		assert.Equal(t, availability.StateOccupied, status.State)
		require.NotNil(t, status.Boundary)
		assert.Equal(t, 600, *status.Boundary)
	})

	t.Run("StartMinuteIsOccupied", func(t *testing.T) {
		status := availability.StatusAt(schedule(iv(540, 600)), 540)
		assert.Equal(t, availability.StateOccupied, status.State)
	})

	t.Run("EndMinuteIsNotOccupied", func(t *testing.T) {
		status := availability.StatusAt(schedule(iv(540, 600), iv(660, 720)), 600)
		assert.Equal(t, availability.StateAvailable, status.State)
		require.NotNil(t, status.Boundary)
		assert.Equal(t, 660, *status.Boundary)
	})

	t.Run("AvailableUntilNextInterval", func(t *testing.T) {
		status := availability.StatusAt(schedule(iv(900, 960), iv(660, 720)), 480)
		assert.Equal(t, availability.StateAvailable, status.State)
		require.NotNil(t, status.Boundary)
		assert.Equal(t, 660, *status.Boundary)
	})

	t.Run("AvailableRestOfDay", func(t *testing.T) {
		status := availability.StatusAt(schedule(iv(540, 600)), 700)
		assert.Equal(t, availability.StateAvailable, status.State)
		assert.Nil(t, status.Boundary)
	})

	t.Run("OverlappingStoredIntervalsWarn", func(t *testing.T) {
		status := availability.StatusAt(schedule(iv(560, 620), iv(540, 600)), 570)
		assert.Equal(t, availability.StateOccupied, status.State)
		require.NotNil(t, status.Boundary)
		assert.Equal(t, 600, *status.Boundary, "earliest start wins")
		require.NotNil(t, status.Warning)
		assert.Equal(t, "R", status.Warning.RoomID)
		assert.Len(t, status.Warning.Overlaps, 1)
		assert.Contains(t, status.Warning.Error(), "09:00-10:00")
	})
}

func TestCheckIntegrity(t *testing.T) {
	assert.Nil(t, availability.CheckIntegrity(schedule()))
	assert.Nil(t, availability.CheckIntegrity(schedule(iv(540, 600), iv(600, 660))))

	warning := availability.CheckIntegrity(schedule(iv(540, 600), iv(590, 660), iv(650, 700)))
	require.NotNil(t, warning)
	assert.Equal(t, [][2]models.TimeInterval{
		{iv(540, 600), iv(590, 660)},
		{iv(590, 660), iv(650, 700)},
	}, warning.Overlaps)
}

func TestFreeWindows(t *testing.T) {
	t.Run("EmptyDay", func(t *testing.T) {
		assert.Equal(t, []models.TimeInterval{iv(480, 1080)}, availability.FreeWindows(schedule(), 480, 1080))
	})

	t.Run("GapsBetweenBookings", func(t *testing.T) {
		s := schedule(iv(600, 660), iv(540, 570), iv(660, 720))
		assert.Equal(t, []models.TimeInterval{
			iv(480, 540),
			iv(570, 600),
			iv(720, 1080),
		}, availability.FreeWindows(s, 480, 1080))
	})

	t.Run("BookingsOutsideOpeningHours", func(t *testing.T) {
		s := schedule(iv(420, 510), iv(1050, 1200))
		assert.Equal(t, []models.TimeInterval{iv(510, 1050)}, availability.FreeWindows(s, 480, 1080))
	})

	t.Run("FullyBooked", func(t *testing.T) {
		s := schedule(iv(480, 1080))
		assert.Empty(t, availability.FreeWindows(s, 480, 1080))
	})
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(availability.Status{State: availability.StateOccupied})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"occupied"}`, string(data))
}
