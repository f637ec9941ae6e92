package app

import (
	"sort"
	"time"

	"fittrack/internal/domain"
)

// DateIndex answers calendar questions over a workout collection. It holds no
// state of its own beyond the calendar and never mutates its input, so it is
// always computed from whatever collection the caller passes in.
type DateIndex struct {
	cal domain.Calendar
}

// NewDateIndex creates a DateIndex that buckets workouts with cal.
func NewDateIndex(cal domain.Calendar) DateIndex {
	return DateIndex{cal: cal}
}

// Calendar returns the calendar used for day extraction.
func (ix DateIndex) Calendar() domain.Calendar {
	return ix.cal
}

// ByDay returns every workout on the same calendar day as date, in the
// collection's original order.
func (ix DateIndex) ByDay(date time.Time, ws []domain.Workout) []domain.Workout {
	day := ix.cal.Day(date)
	out := make([]domain.Workout, 0)
	for _, w := range ws {
		if ix.cal.Day(w.Date) == day {
			out = append(out, w)
		}
	}
	return out
}

// Past returns workouts on calendar days before now's day, most recent first.
// Since their day ends before now's day begins they are all strictly before
// now.
func (ix DateIndex) Past(ws []domain.Workout, now time.Time) []domain.Workout {
	today := ix.cal.Day(now)
	out := ix.filter(ws, func(w domain.Workout) bool { return ix.cal.Day(w.Date) < today })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// Current returns workouts on now's calendar day, earliest first. A workout
// scheduled exactly at now belongs here and nowhere else.
func (ix DateIndex) Current(ws []domain.Workout, now time.Time) []domain.Workout {
	today := ix.cal.Day(now)
	out := ix.filter(ws, func(w domain.Workout) bool { return ix.cal.Day(w.Date) == today })
	sortAscending(out)
	return out
}

// Future returns workouts on calendar days after now's day, soonest first.
func (ix DateIndex) Future(ws []domain.Workout, now time.Time) []domain.Workout {
	today := ix.cal.Day(now)
	out := ix.filter(ws, func(w domain.Workout) bool { return ix.cal.Day(w.Date) > today })
	sortAscending(out)
	return out
}

// Recommended is a placeholder selection: the first limit upcoming workouts.
// It is not a recommendation algorithm.
func (ix DateIndex) Recommended(ws []domain.Workout, now time.Time, limit int) []domain.Workout {
	future := ix.Future(ws, now)
	if limit < 0 {
		limit = 0
	}
	if len(future) > limit {
		future = future[:limit]
	}
	return future
}

// DayBucket summarises one calendar day for the month grid.
type DayBucket struct {
	Day       string `json:"day"`
	Workouts  int    `json:"workouts"`
	Completed int    `json:"completed"`
}

// Month returns one bucket per day of the given month, in day order.
func (ix DateIndex) Month(ws []domain.Workout, year int, month time.Month) []DayBucket {
	first := time.Date(year, month, 1, 0, 0, 0, 0, ix.cal.Location())
	days := first.AddDate(0, 1, -1).Day()

	buckets := make([]DayBucket, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := first.AddDate(0, 0, i).Format(domain.DayLayout)
		buckets[i] = DayBucket{Day: d}
		index[d] = i
	}
	for _, w := range ws {
		i, ok := index[ix.cal.Day(w.Date)]
		if !ok {
			continue
		}
		buckets[i].Workouts++
		if w.Completed {
			buckets[i].Completed++
		}
	}
	return buckets
}

func (ix DateIndex) filter(ws []domain.Workout, keep func(domain.Workout) bool) []domain.Workout {
	out := make([]domain.Workout, 0)
	for _, w := range ws {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

func sortAscending(ws []domain.Workout) {
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].Date.Before(ws[j].Date) })
}
