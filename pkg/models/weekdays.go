package models

import "strings"

// Weekdays is a bit-set of the seven weekdays a meeting occurs on.
type Weekdays uint8

const (
	Monday Weekdays = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayLabels = []struct {
	day   Weekdays
	label string
}{
	{Monday, "Mo"},
	{Tuesday, "Tu"},
	{Wednesday, "We"},
	{Thursday, "Th"},
	{Friday, "Fr"},
	{Saturday, "Sa"},
	{Sunday, "Su"},
}

// Has reports whether day is set.
func (w Weekdays) Has(day Weekdays) bool {
	return w&day != 0
}

// With returns w with day added.
func (w Weekdays) With(day Weekdays) Weekdays {
	return w | day
}

// IsZero reports whether no day is set.
func (w Weekdays) IsZero() bool {
	return w == 0
}

// String renders the set in schedule notation, e.g. "MoWeFr".
func (w Weekdays) String() string {
	var b strings.Builder
	for _, wl := range weekdayLabels {
		if w.Has(wl.day) {
			b.WriteString(wl.label)
		}
	}
	return b.String()
}
