// internal/pkg/datewindow/datewindow.go
package datewindow

import (
	"math"
	"time"
)

// Window is a contiguous date range used as an aggregation bucket.
// Begin is midnight of the first day, End is the last instant of the
// last day.
type Window struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, inclusive on
// both ends.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Begin) && !t.After(w.End)
}

// Truncate drops the time-of-day component, keeping t's location.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayCountdown returns the difference in whole calendar days between
// expire and ref. Both are truncated to midnight first, so the result
// does not depend on time of day; rounding absorbs DST shifts.
func DayCountdown(expire, ref time.Time) int {
	diff := Truncate(expire).Sub(Truncate(ref))
	return int(math.Round(diff.Hours() / 24))
}

// WeekWindows partitions a calendar month into consecutive 7-day
// windows starting at day 1. The final window is clipped to the last
// day of the month, so months not divisible by 7 end with a short
// window of 1-6 days.
func WeekWindows(month time.Month, year int) []Window {
	begin := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := begin.AddDate(0, 1, -1)

	var windows []Window
	for cur := begin; !cur.After(last); cur = cur.AddDate(0, 0, 7) {
		end := cur.AddDate(0, 0, 6)
		if end.After(last) {
			end = last
		}
		windows = append(windows, Window{Begin: cur, End: EndOfDay(end)})
	}
	return windows
}

// WindowsFor returns the week windows of t's month.
func WindowsFor(t time.Time) []Window {
	return WeekWindows(t.Month(), t.Year())
}

// CurrentWindow returns the window of windows that contains today.
// The second return value is false when no window matches; callers
// must treat that as "no active window", not as an error.
func CurrentWindow(today time.Time, windows []Window) (Window, bool) {
	for _, w := range windows {
		if w.Contains(today) {
			return w, true
		}
	}
	return Window{}, false
}

// ISOWeekNumber returns the ISO-8601 week number of t (week 1 is the
// week containing the year's first Thursday).
func ISOWeekNumber(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// ISOWeekYear returns the ISO-8601 week-numbering year of t, which
// differs from the calendar year around new year.
func ISOWeekYear(t time.Time) int {
	year, _ := t.ISOWeek()
	return year
}

// MonthRange returns the first instant and the last instant of t's
// calendar month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	to := EndOfDay(from.AddDate(0, 1, -1))
	return from, to
}
