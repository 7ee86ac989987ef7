package availability

import (
	"encoding/json"

	"github.com/navikt/roombooking/internal/models"
)

// Phase places a scheduled interval relative to the current moment
type Phase int

const (
	PhaseUpcoming Phase = iota
	PhaseOngoing
	PhaseCompleted
)

// String returns the string representation of a phase
func (p Phase) String() string {
	return [...]string{"upcoming", "ongoing", "completed"}[p]
}

// MarshalJSON encodes the phase as its string form
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Entry is a scheduled interval with its phase
type Entry struct {
	Interval models.TimeInterval `json:"interval"`
	Phase    Phase               `json:"phase"`
}

// PhaseOf compares an interval on scheduleDate against nowMinute on today.
// Dates are YYYY-MM-DD strings, which order lexically.
func PhaseOf(iv models.TimeInterval, scheduleDate, today string, nowMinute int) Phase {
	switch {
	case scheduleDate < today:
		return PhaseCompleted
	case scheduleDate > today:
		return PhaseUpcoming
	case nowMinute < iv.Start:
		return PhaseUpcoming
	case iv.Contains(nowMinute):
		return PhaseOngoing
	default:
		return PhaseCompleted
	}
}

// DayEntries returns the schedule's intervals ordered by start, each with its phase
func DayEntries(schedule models.RoomDaySchedule, today string, nowMinute int) []Entry {
	sorted := schedule.Sorted()
	entries := make([]Entry, 0, len(sorted))
	for _, iv := range sorted {
		entries = append(entries, Entry{
			Interval: iv,
			Phase:    PhaseOf(iv, schedule.Date, today, nowMinute),
		})
	}
	return entries
}
