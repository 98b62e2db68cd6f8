package models

import (
	"fmt"
	"time"
)

// feedTimeLayout is the 12-hour clock-with-seconds format the registrar
// feed uses for meeting times, e.g. "9:05:00 AM".
const feedTimeLayout = "3:04:05 PM"

// ClockTime is a wall-clock time of day with no date attached, stored as
// seconds since midnight. It maps to a Postgres TIME column.
type ClockTime int32

// ParseClockTime parses a feed time string into a ClockTime.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse(feedTimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// ClockTimeOf builds a ClockTime from hour, minute and second.
func ClockTimeOf(hour, minute, second int) ClockTime {
	return ClockTime(hour*3600 + minute*60 + second)
}

// Hour returns the hour in 24-hour form.
func (c ClockTime) Hour() int { return int(c) / 3600 }

// Minute returns the minute within the hour.
func (c ClockTime) Minute() int { return int(c) / 60 % 60 }

// Second returns the second within the minute.
func (c ClockTime) Second() int { return int(c) % 60 }

// Microseconds returns the time as microseconds since midnight, the unit
// pgtype.Time uses for TIME columns.
func (c ClockTime) Microseconds() int64 {
	return int64(c) * 1_000_000
}

// ClockTimeFromMicroseconds converts a TIME column value back to a ClockTime.
func ClockTimeFromMicroseconds(us int64) ClockTime {
	return ClockTime(us / 1_000_000)
}

// String renders the time in the feed's 12-hour format.
func (c ClockTime) String() string {
	t := time.Date(0, 1, 1, c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
	return t.Format(feedTimeLayout)
}
