package models_test

import (
	"errors"
	"testing"

	"github.com/navikt/roombooking/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeInterval(t *testing.T) {
	t.Run("ValidInterval", func(t *testing.T) {
		iv, err := models.NewTimeInterval(540, 600, 5)
		require.NoError(t, err)
		assert.Equal(t, 540, iv.Start)
		assert.Equal(t, 600, iv.End)
		assert.Equal(t, 60, iv.Duration())
	})

	t.Run("WholeDay", func(t *testing.T) {
		iv, err := models.NewTimeInterval(0, models.MinutesPerDay, 5)
		require.NoError(t, err)
		assert.Equal(t, models.MinutesPerDay, iv.Duration())
	})

	t.Run("DefaultGranularity", func(t *testing.T) {
		_, err := models.NewTimeInterval(540, 545, 0)
		assert.NoError(t, err)

		_, err = models.NewTimeInterval(540, 543, 0)
		assert.ErrorIs(t, err, models.ErrInvalidInterval)
	})

	cases := []struct {
		name        string
		start, end  int
		granularity int
	}{
		{"StartEqualsEnd", 600, 600, 5},
		{"StartAfterEnd", 660, 600, 5},
		{"NegativeStart", -5, 60, 5},
		{"EndPastMidnight", 1400, 1445, 5},
		{"NotMultipleOfGranularity", 540, 547, 5},
		{"NotMultipleOfCoarseGranularity", 540, 585, 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := models.NewTimeInterval(tc.start, tc.end, tc.granularity)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidInterval)

			var ivErr *models.InvalidIntervalError
			require.True(t, errors.As(err, &ivErr))
			assert.Equal(t, tc.start, ivErr.Start)
			assert.Equal(t, tc.end, ivErr.End)
			assert.NotEmpty(t, ivErr.Reason)
		})
	}
}

func TestTimeIntervalOverlaps(t *testing.T) {
	nineToTen := models.TimeInterval{Start: 540, End: 600}

	assert.True(t, nineToTen.Overlaps(models.TimeInterval{Start: 570, End: 630}), "partial overlap")
	assert.True(t, nineToTen.Overlaps(models.TimeInterval{Start: 550, End: 560}), "contained")
	assert.True(t, nineToTen.Overlaps(models.TimeInterval{Start: 500, End: 700}), "containing")
	assert.True(t, nineToTen.Overlaps(nineToTen), "identical")
	assert.False(t, nineToTen.Overlaps(models.TimeInterval{Start: 600, End: 660}), "touching after")
	assert.False(t, nineToTen.Overlaps(models.TimeInterval{Start: 480, End: 540}), "touching before")
	assert.False(t, nineToTen.Overlaps(models.TimeInterval{Start: 700, End: 760}), "disjoint")
}

func TestTimeIntervalOverlapsIsSymmetric(t *testing.T) {
	var intervals []models.TimeInterval
	for start := 0; start < 240; start += 15 {
		for end := start + 15; end <= 240; end += 45 {
			intervals = append(intervals, models.TimeInterval{Start: start, End: end})
		}
	}

	for _, a := range intervals {
		for _, b := range intervals {
			assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "%s vs %s", a, b)
		}
	}
}

func TestTimeIntervalContains(t *testing.T) {
	iv := models.TimeInterval{Start: 540, End: 600}

	assert.True(t, iv.Contains(540))
	assert.True(t, iv.Contains(599))
	assert.False(t, iv.Contains(600))
	assert.False(t, iv.Contains(539))
}

func TestParseClock(t *testing.T) {
	minute, err := models.ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minute)

	minute, err = models.ParseClock("13:05:00")
	require.NoError(t, err)
	assert.Equal(t, 785, minute)

	minute, err = models.ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, models.MinutesPerDay, minute)

	minute, err = models.ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 545, minute)

	for _, bad := range []string{
		"", "9", "aa:10", "10:bb", "25:00", "24:30", "10:60", "1:2:3:4",
		"+9:00", "-1:00", "09:+5", "9:5", "009:00", " 9:00x", "10:00:zz", "10:00:60", "10:00:5", "24:00:01",
	} {
		_, err := models.ParseClock(bad)
		assert.ErrorIs(t, err, models.ErrInvalidInterval, bad)
	}
}
