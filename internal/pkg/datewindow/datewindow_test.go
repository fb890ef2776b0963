package datewindow

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestDayCountdown(t *testing.T) {
	tests := []struct {
		name   string
		expire time.Time
		ref    time.Time
		want   int
	}{
		{"same day", date(2024, time.June, 10), date(2024, time.June, 10), 0},
		{"expires tomorrow", date(2024, time.June, 11), date(2024, time.June, 10), 1},
		{"expired yesterday", date(2024, time.June, 9), date(2024, time.June, 10), -1},
		{"thirty days out", date(2024, time.July, 10), date(2024, time.June, 10), 30},
		{"across month end", date(2024, time.July, 2), date(2024, time.June, 28), 4},
		{
			"time of day ignored",
			time.Date(2024, time.June, 11, 1, 0, 0, 0, time.Local),
			time.Date(2024, time.June, 10, 23, 59, 0, 0, time.Local),
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayCountdown(tt.expire, tt.ref); got != tt.want {
				t.Errorf("DayCountdown() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWeekWindows(t *testing.T) {
	// July 2024 has 31 days: four full weeks plus a 3-day tail.
	windows := WeekWindows(time.July, 2024)

	if len(windows) != 5 {
		t.Fatalf("expected 5 windows, got %d", len(windows))
	}

	wantDays := []int{7, 7, 7, 7, 3}
	for i, w := range windows {
		days := DayCountdown(w.End, w.Begin) + 1
		if days != wantDays[i] {
			t.Errorf("window %d spans %d days, want %d", i, days, wantDays[i])
		}
	}

	if !windows[0].Begin.Equal(date(2024, time.July, 1)) {
		t.Errorf("first window begins at %v, want July 1", windows[0].Begin)
	}
	if !SameDay(windows[4].End, date(2024, time.July, 31)) {
		t.Errorf("last window ends on %v, want July 31", windows[4].End)
	}

	// Consecutive windows must not overlap and must not leave gaps.
	for i := 1; i < len(windows); i++ {
		prevEnd := windows[i-1].End
		begin := windows[i].Begin
		if !begin.After(prevEnd) {
			t.Errorf("window %d begins before window %d ends", i, i-1)
		}
		if DayCountdown(begin, prevEnd) != 1 {
			t.Errorf("gap between window %d and %d", i-1, i)
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Begin: date(2024, time.June, 8), End: EndOfDay(date(2024, time.June, 14))}

	if !w.Contains(date(2024, time.June, 8)) {
		t.Error("window should contain its begin day")
	}
	if !w.Contains(time.Date(2024, time.June, 14, 23, 0, 0, 0, time.Local)) {
		t.Error("window should contain the evening of its last day")
	}
	if w.Contains(date(2024, time.June, 15)) {
		t.Error("window should not contain the day after its end")
	}
}

func TestCurrentWindow(t *testing.T) {
	windows := WeekWindows(time.June, 2024)

	w, ok := CurrentWindow(date(2024, time.June, 10), windows)
	if !ok {
		t.Fatal("expected a window for June 10")
	}
	if !w.Begin.Equal(date(2024, time.June, 8)) {
		t.Errorf("June 10 resolved to window beginning %v, want June 8", w.Begin)
	}

	if _, ok := CurrentWindow(date(2024, time.July, 1), windows); ok {
		t.Error("July 1 should not match any June window")
	}
}

func TestISOWeek(t *testing.T) {
	tests := []struct {
		day      time.Time
		wantWeek int
		wantYear int
	}{
		{date(2024, time.January, 1), 1, 2024},
		{date(2023, time.January, 1), 52, 2022},
		{date(2024, time.June, 10), 24, 2024},
		{date(2024, time.December, 30), 1, 2025},
	}

	for _, tt := range tests {
		if got := ISOWeekNumber(tt.day); got != tt.wantWeek {
			t.Errorf("ISOWeekNumber(%v) = %d, want %d", tt.day, got, tt.wantWeek)
		}
		if got := ISOWeekYear(tt.day); got != tt.wantYear {
			t.Errorf("ISOWeekYear(%v) = %d, want %d", tt.day, got, tt.wantYear)
		}
	}
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(date(2024, time.February, 15))

	if !from.Equal(date(2024, time.February, 1)) {
		t.Errorf("month begins at %v, want February 1", from)
	}
	if !SameDay(to, date(2024, time.February, 29)) {
		t.Errorf("month ends on %v, want February 29", to)
	}
}

func TestSameDayAcrossMonths(t *testing.T) {
	// Day-of-month alone is not enough: the 7th of two different
	// months must not compare equal.
	if SameDay(date(2024, time.June, 7), date(2024, time.July, 7)) {
		t.Error("June 7 and July 7 must not be the same day")
	}
}
