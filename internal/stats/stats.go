// Package stats holds the date arithmetic behind the dashboard counters:
// day windows, today-vs-yesterday and the Monday..Sunday weekly chart.
package stats

import (
	"time"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

// WeekdayLabels are the chart labels, Monday first.
var WeekdayLabels = [7]string{"T2", "T3", "T4", "T5", "T6", "T7", "CN"}

// DayBounds returns the first and last millisecond of t's calendar day in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

func YesterdayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	start, end := DayBounds(now, loc)
	return start.AddDate(0, 0, -1), end.AddDate(0, 0, -1)
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}

// WeekStart returns Monday 00:00 of the ISO week containing now.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	start, _ := DayBounds(now, loc)
	return start.AddDate(0, 0, -(ISOWeekday(start) - 1))
}

func InDay(ts, day time.Time, loc *time.Location) bool {
	start, end := DayBounds(day, loc)
	return !ts.Before(start) && !ts.After(end)
}

// CountInDay counts timestamps that fall on day's calendar day in loc.
func CountInDay(ts []time.Time, day time.Time, loc *time.Location) int {
	n := 0
	for _, t := range ts {
		if InDay(t, day, loc) {
			n++
		}
	}
	return n
}

// BucketWeekly counts timestamps per ISO weekday. Callers pass only the
// current week; older timestamps would fold onto the same weekdays.
func BucketWeekly(ts []time.Time, loc *time.Location) []domain.DayCount {
	var counts [7]int
	for _, t := range ts {
		counts[ISOWeekday(t.In(loc))-1]++
	}
	out := make([]domain.DayCount, 7)
	for i := range out {
		out[i] = domain.DayCount{Name: WeekdayLabels[i], Amount: counts[i]}
	}
	return out
}

func Compare(today, yesterday int) domain.TodayVsYesterday {
	return domain.TodayVsYesterday{Today: today, Yesterday: yesterday, Diff: today - yesterday}
}

// Timestamps extracts event times, preserving order.
func Timestamps(docs []domain.EventDoc) []time.Time {
	out := make([]time.Time, len(docs))
	for i, d := range docs {
		out[i] = d.TS
	}
	return out
}
