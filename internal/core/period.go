package core

import (
	"fmt"
	"strings"
	"time"
)

// Period is a named report window relative to today.
type Period string

const (
	Last7Days   Period = "last_7_days"
	Last30Days  Period = "last_30_days"
	Last3Months Period = "last_3_months"
	ThisYear    Period = "this_year"
)

// Window is an inclusive yyyy-MM-dd date range with a display label.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

var ErrInvalidPeriod = fmt.Errorf("invalid period")

// Periods returns the predefined periods.
func Periods() []Period {
	return []Period{Last7Days, Last30Days, Last3Months, ThisYear}
}

// ParsePeriod accepts the identifier ("last_7_days") or the label ("7 Days").
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	for _, p := range Periods() {
		if strings.EqualFold(string(p), s) || strings.EqualFold(p.Label(), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Label is the human name of the period.
func (p Period) Label() string {
	switch p {
	case Last7Days:
		return "7 Days"
	case Last30Days:
		return "30 Days"
	case Last3Months:
		return "3 Months"
	case ThisYear:
		return "This Year"
	default:
		return string(p)
	}
}

// Window returns the period's range ending on now's date.
func (p Period) Window(now time.Time) Window {
	start := now
	switch p {
	case Last7Days:
		start = now.AddDate(0, 0, -7)
	case Last30Days:
		start = now.AddDate(0, 0, -30)
	case Last3Months:
		start = addMonthsClamped(now, -3)
	case ThisYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	}
	return Window{Start: DateOf(start), End: DateOf(now), Label: p.Label()}
}

// addMonthsClamped moves t by months, pinning the day to the end of the
// target month instead of overflowing into the next one (May 31 - 3 months
// is Feb 28, not Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	return target.AddDate(0, 0, min(t.Day(), lastDay)-1)
}

// NewWindow validates an explicit date range. An empty label becomes
// "start to end".
func NewWindow(start, end, label string) (Window, error) {
	if !ValidDate(start) {
		return Window{}, fmt.Errorf("%w: start %q", ErrInvalidDate, start)
	}
	if !ValidDate(end) {
		return Window{}, fmt.Errorf("%w: end %q", ErrInvalidDate, end)
	}
	if start > end {
		return Window{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidDate, start, end)
	}
	if label == "" {
		label = start + " to " + end
	}
	return Window{Start: start, End: end, Label: label}, nil
}

// Contains reports whether date falls inside the window. The fixed-width
// layout makes string comparison match calendar order.
func (w Window) Contains(date string) bool {
	return date >= w.Start && date <= w.End
}

// Key identifies the window for caching.
func (w Window) Key() string {
	return w.Start + ".." + w.End
}
