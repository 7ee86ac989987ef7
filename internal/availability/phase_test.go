package availability_test

import (
	"testing"

	"github.com/navikt/roombooking/internal/availability"
	"github.com/stretchr/testify/assert"
)

func TestPhaseOf(t *testing.T) {
	slot := iv(540, 600)

	assert.Equal(t, availability.PhaseCompleted, availability.PhaseOf(slot, "2025-05-07", "2025-05-08", 0))
	assert.Equal(t, availability.PhaseUpcoming, availability.PhaseOf(slot, "2025-05-09", "2025-05-08", 1439))
	assert.Equal(t, availability.PhaseUpcoming, availability.PhaseOf(slot, "2025-05-08", "2025-05-08", 539))
	assert.Equal(t, availability.PhaseOngoing, availability.PhaseOf(slot, "2025-05-08", "2025-05-08", 540))
	assert.Equal(t, availability.PhaseOngoing, availability.PhaseOf(slot, "2025-05-08", "2025-05-08", 599))
	assert.Equal(t, availability.PhaseCompleted, availability.PhaseOf(slot, "2025-05-08", "2025-05-08", 600))
}

func TestDayEntries(t *testing.T) {
	s := schedule(iv(720, 780), iv(540, 600), iv(600, 660))

	entries := availability.DayEntries(s, "2025-05-08", 610)

	assert.Len(t, entries, 3)
	assert.Equal(t, iv(540, 600), entries[0].Interval)
	assert.Equal(t, availability.PhaseCompleted, entries[0].Phase)
	assert.Equal(t, availability.PhaseOngoing, entries[1].Phase)
	assert.Equal(t, availability.PhaseUpcoming, entries[2].Phase)
	assert.Equal(t, "upcoming", entries[2].Phase.String())
}
