package domain

import "time"

// DayLayout is the wire format of a calendar day.
const DayLayout = "2006-01-02"

// Calendar extracts calendar days from instants in a single fixed location.
// Every component that buckets workouts by day must use the same Calendar.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a Calendar for loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's time reference.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Day returns the calendar day of t, for example "2024-01-10".
func (c Calendar) Day(t time.Time) string {
	return t.In(c.Location()).Format(DayLayout)
}

// SameDay reports whether a and b fall on the same calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.Day(a) == c.Day(b)
}

// Parse parses a "2006-01-02" day string as midnight in the calendar's
// location.
func (c Calendar) Parse(day string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, day, c.Location())
}

// Range returns the instant range covering the calendar day of t. The end is
// the next midnight, not start+24h, so DST transitions are handled.
func (c Calendar) Range(t time.Time) DayRange {
	lt := t.In(c.Location())
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.Location())
	return DayRange{
		Day:   start.Format(DayLayout),
		Start: start,
		End:   start.AddDate(0, 0, 1),
	}
}
