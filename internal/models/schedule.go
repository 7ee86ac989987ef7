package models

import "sort"

// RoomDaySchedule is the set of committed intervals for one room on one date.
// It is materialized from booking records and treated as a read-only value.
type RoomDaySchedule struct {
	RoomID    string         `json:"room_id"`
	Date      string         `json:"date"`
	Intervals []TimeInterval `json:"intervals"`
}

// IsEmpty returns true if nothing is committed for the day
func (s RoomDaySchedule) IsEmpty() bool {
	return len(s.Intervals) == 0
}

// Sorted returns a copy of the intervals ordered by start, then end
func (s RoomDaySchedule) Sorted() []TimeInterval {
	sorted := make([]TimeInterval, len(s.Intervals))
	copy(sorted, s.Intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	return sorted
}

// ScheduleFromRecords builds the day schedule from the records that occupy the room
func ScheduleFromRecords(roomID, date string, records []*BookingRecord) RoomDaySchedule {
	schedule := RoomDaySchedule{
		RoomID:    roomID,
		Date:      date,
		Intervals: make([]TimeInterval, 0, len(records)),
	}

	for _, record := range records {
		if record == nil || record.RoomID != roomID || record.Date != date {
			continue
		}
		if !record.Status.Occupies() {
			continue
		}
		schedule.Intervals = append(schedule.Intervals, record.Interval)
	}

	return schedule
}
