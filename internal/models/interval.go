package models

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinutesPerDay is the upper bound for interval ends
	MinutesPerDay = 24 * 60

	// DefaultGranularity is the booking alignment unit in minutes
	DefaultGranularity = 5
)

// ErrInvalidInterval is matched by every InvalidIntervalError
var ErrInvalidInterval = errors.New("invalid interval")

// InvalidIntervalError describes why a candidate interval was rejected
type InvalidIntervalError struct {
	Start       int
	End         int
	Granularity int
	Reason      string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval [%d, %d): %s", e.Start, e.End, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInterval
func (e *InvalidIntervalError) Unwrap() error {
	return ErrInvalidInterval
}

// TimeInterval is a half-open range [Start, End) of minutes since midnight
type TimeInterval struct {
	Start int `json:"start_minute"`
	End   int `json:"end_minute"`
}

// NewTimeInterval validates bounds and granularity and returns the interval.
// A granularity <= 0 falls back to DefaultGranularity.
func NewTimeInterval(start, end, granularity int) (TimeInterval, error) {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	invalid := func(reason string) error {
		return &InvalidIntervalError{Start: start, End: end, Granularity: granularity, Reason: reason}
	}

	if start < 0 || start > MinutesPerDay || end < 0 || end > MinutesPerDay {
		return TimeInterval{}, invalid(fmt.Sprintf("bounds must be within [0, %d]", MinutesPerDay))
	}
	if start >= end {
		return TimeInterval{}, invalid("start must be before end")
	}
	if (end-start)%granularity != 0 {
		return TimeInterval{}, invalid(fmt.Sprintf("duration must be a multiple of %d minutes", granularity))
	}

	return TimeInterval{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open intervals share at least one minute
func (a TimeInterval) Overlaps(b TimeInterval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Contains reports whether minute falls inside the interval
func (a TimeInterval) Contains(minute int) bool {
	return a.Start <= minute && minute < a.End
}

// Duration returns the length of the interval in minutes
func (a TimeInterval) Duration() int {
	return a.End - a.Start
}

func (a TimeInterval) String() string {
	return FormatClock(a.Start) + "-" + FormatClock(a.End)
}

// ParseClock converts "HH:MM" (or "HH:MM:SS", seconds ignored) into minutes since midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrInvalidInterval, s)
	}

	hours, ok := clockField(parts[0], 1)
	if !ok {
		return 0, fmt.Errorf("%w: malformed hour in %q", ErrInvalidInterval, s)
	}
	minutes, ok := clockField(parts[1], 2)
	if !ok {
		return 0, fmt.Errorf("%w: malformed minute in %q", ErrInvalidInterval, s)
	}
	seconds := 0
	if len(parts) == 3 {
		if seconds, ok = clockField(parts[2], 2); !ok {
			return 0, fmt.Errorf("%w: malformed second in %q", ErrInvalidInterval, s)
		}
	}

	if hours > 24 || minutes > 59 || seconds > 59 || (hours == 24 && (minutes != 0 || seconds != 0)) {
		return 0, fmt.Errorf("%w: clock time %q out of range", ErrInvalidInterval, s)
	}

	return hours*60 + minutes, nil
}

// clockField parses a field of minWidth or two ASCII digits
func clockField(s string, minWidth int) (int, bool) {
	if len(s) < minWidth || len(s) > 2 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// FormatClock renders minutes since midnight as "HH:MM"
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
