// Package planner holds the capacity and selection rules used while a
// timetable is generated, and the projection of stored timetables onto a
// calendar. Everything here is pure and synchronous.
package planner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

const day = 24 * time.Hour

// Window is a validated, inclusive range of calendar days. The zero value
// means no window was ever validated.
type Window struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// IsZero reports whether the window was never validated.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero() && w.Duration == 0
}

// ValidateWindow parses two YYYY-MM-DD dates and returns the usable
// capacity between them. Both boundary days count, so a single-day window
// holds 24h. Dates are compared against now at day granularity in now's
// location.
func ValidateWindow(start, end string, now time.Time) (Window, error) {
	s, err := parseDate("start date", start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseDate("end date", end)
	if err != nil {
		return Window{}, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if s.Before(today) {
		return Window{}, appErrors.Clone(appErrors.ErrStartInPast, fmt.Sprintf("start date %s is before today", start))
	}
	if e.Before(s) {
		return Window{}, appErrors.Clone(appErrors.ErrRangeInverted, fmt.Sprintf("end date %s is before start date %s", end, start))
	}

	days := int64(e.Sub(s)/day) + 1
	return Window{Start: s, End: e, Duration: time.Duration(days) * day}, nil
}

// StoredWindow rebuilds the window of a persisted timetable from its
// boundary dates. Unlike ValidateWindow it does not compare against today,
// so an inverted range yields a zero duration.
func StoredWindow(start, end time.Time) Window {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	w := Window{Start: s, End: e}
	if !e.Before(s) {
		w.Duration = time.Duration(int64(e.Sub(s)/day)+1) * day
	}
	return w
}

// parseDate rebuilds the date from its components and rejects values whose
// components do not survive the round trip, such as 2024-02-30.
func parseDate(field, raw string) (time.Time, error) {
	malformed := func() error {
		return appErrors.Clone(appErrors.ErrMalformedDate, fmt.Sprintf("%s %q is not a valid YYYY-MM-DD date", field, raw))
	}

	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) == 0 || len(parts[1]) > 2 || len(parts[2]) == 0 || len(parts[2]) > 2 {
		return time.Time{}, malformed()
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || strings.ContainsAny(p, "+-") {
			return time.Time{}, malformed()
		}
		nums[i] = n
	}

	year, month, dayOfMonth := nums[0], nums[1], nums[2]
	t := time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != dayOfMonth {
		return time.Time{}, malformed()
	}
	return t, nil
}
