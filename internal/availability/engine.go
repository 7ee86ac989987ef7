// Package availability decides whether a room is free and describes its occupancy over a day.
//
// Every function is pure: schedules are passed by value and never modified. Schedules hold a
// handful of bookings per room per day, so all operations are linear scans over the intervals
// rather than an interval tree.
package availability

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/navikt/roombooking/internal/models"
)

// State is the occupancy of a room at a point in time
type State int

const (
	StateNoSchedule State = iota
	StateAvailable
	StateOccupied
)

// String returns the string representation of a state
func (s State) String() string {
	return [...]string{"no_schedule", "available", "occupied"}[s]
}

// MarshalJSON encodes the state as its string form
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Status is the result of StatusAt
type Status struct {
	State State `json:"state"`
	// Boundary is the end of the containing interval when occupied, or the start of
	// the next interval when available. Nil when there is no boundary for the day.
	Boundary *int `json:"boundary_minute,omitempty"`
	// Warning is set when stored intervals overlap; the status is still usable
	Warning *ScheduleIntegrityWarning `json:"-"`
}

// ScheduleIntegrityWarning signals that a stored schedule violates the non-overlap invariant.
// It never aborts a read.
type ScheduleIntegrityWarning struct {
	RoomID   string
	Date     string
	Overlaps [][2]models.TimeInterval
}

func (w *ScheduleIntegrityWarning) Error() string {
	pairs := make([]string, 0, len(w.Overlaps))
	for _, pair := range w.Overlaps {
		pairs = append(pairs, pair[0].String()+" / "+pair[1].String())
	}
	return fmt.Sprintf("schedule integrity violated for room %s on %s: %s",
		w.RoomID, w.Date, strings.Join(pairs, ", "))
}

// IsAvailable returns true if candidate overlaps none of the committed intervals
func IsAvailable(schedule models.RoomDaySchedule, candidate models.TimeInterval) bool {
	for _, iv := range schedule.Intervals {
		if iv.Overlaps(candidate) {
			return false
		}
	}
	return true
}

// FindConflicts returns every committed interval that overlaps candidate, ordered by start
func FindConflicts(schedule models.RoomDaySchedule, candidate models.TimeInterval) []models.TimeInterval {
	var conflicts []models.TimeInterval
	for _, iv := range schedule.Sorted() {
		if iv.Overlaps(candidate) {
			conflicts = append(conflicts, iv)
		}
	}
	return conflicts
}

// StatusAt describes the room at nowMinute
func StatusAt(schedule models.RoomDaySchedule, nowMinute int) Status {
	if schedule.IsEmpty() {
		return Status{State: StateNoSchedule}
	}

	sorted := schedule.Sorted()

	var containing []models.TimeInterval
	for _, iv := range sorted {
		if iv.Contains(nowMinute) {
			containing = append(containing, iv)
		}
	}

	if len(containing) > 0 {
		status := Status{State: StateOccupied, Boundary: intPtr(containing[0].End)}
		if len(containing) > 1 {
			warning := &ScheduleIntegrityWarning{RoomID: schedule.RoomID, Date: schedule.Date}
			for _, other := range containing[1:] {
				warning.Overlaps = append(warning.Overlaps, [2]models.TimeInterval{containing[0], other})
			}
			status.Warning = warning
		}
		return status
	}

	for _, iv := range sorted {
		if iv.Start > nowMinute {
			return Status{State: StateAvailable, Boundary: intPtr(iv.Start)}
		}
	}

	return Status{State: StateAvailable}
}

// CheckIntegrity returns a warning listing every overlapping pair, or nil
func CheckIntegrity(schedule models.RoomDaySchedule) *ScheduleIntegrityWarning {
	sorted := schedule.Sorted()

	var overlaps [][2]models.TimeInterval
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted) && sorted[j].Start < sorted[i].End; j++ {
			overlaps = append(overlaps, [2]models.TimeInterval{sorted[i], sorted[j]})
		}
	}

	if len(overlaps) == 0 {
		return nil
	}
	return &ScheduleIntegrityWarning{RoomID: schedule.RoomID, Date: schedule.Date, Overlaps: overlaps}
}

// FreeWindows returns the gaps between committed intervals inside [dayStart, dayEnd)
func FreeWindows(schedule models.RoomDaySchedule, dayStart, dayEnd int) []models.TimeInterval {
	windows := []models.TimeInterval{}
	cursor := dayStart

	for _, iv := range schedule.Sorted() {
		if iv.End <= cursor {
			continue
		}
		if iv.Start >= dayEnd {
			break
		}
		if iv.Start > cursor {
			windows = append(windows, models.TimeInterval{Start: cursor, End: iv.Start})
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}

	if cursor < dayEnd {
		windows = append(windows, models.TimeInterval{Start: cursor, End: dayEnd})
	}

	return windows
}

func intPtr(v int) *int {
	return &v
}
