package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

var testNow = time.Date(2024, time.January, 10, 15, 30, 0, 0, time.UTC)

func TestValidateWindowDuration(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		days  int64
	}{
		{name: "single day", start: "2024-01-10", end: "2024-01-10", days: 1},
		{name: "two days", start: "2024-01-10", end: "2024-01-11", days: 2},
		{name: "leap february", start: "2024-02-01", end: "2024-02-29", days: 29},
		{name: "across year", start: "2024-12-31", end: "2025-01-01", days: 2},
		{name: "unpadded components", start: "2024-3-5", end: "2024-03-07", days: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := ValidateWindow(tc.start, tc.end, testNow)
			require.NoError(t, err)
			assert.Equal(t, time.Duration(tc.days*86400)*time.Second, w.Duration)
			assert.False(t, w.IsZero())
			assert.Equal(t, time.UTC, w.Start.Location())
		})
	}
}

func TestValidateWindowMalformed(t *testing.T) {
	for _, raw := range []string{"", "2024-02-30", "2023-02-29", "2024-13-01", "2024-00-10", "24-01-10", "2024/01/10", "2024-01", "2024-01-1x", "2024-+1-10", "20245-01-10"} {
		_, err := ValidateWindow(raw, "2030-01-01", testNow)
		assert.ErrorIs(t, err, appErrors.ErrMalformedDate, raw)

		_, err = ValidateWindow("2030-01-01", raw, testNow)
		assert.ErrorIs(t, err, appErrors.ErrMalformedDate, raw)
	}
}

func TestValidateWindowStartInPast(t *testing.T) {
	_, err := ValidateWindow("2024-01-09", "2024-01-20", testNow)
	assert.ErrorIs(t, err, appErrors.ErrStartInPast)

	// earlier today is still today
	_, err = ValidateWindow("2024-01-10", "2024-01-10", testNow)
	assert.NoError(t, err)
}

func TestValidateWindowUsesLocalDay(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, time.January, 11, 1, 0, 0, 0, zone) // still Jan 10 in UTC

	_, err := ValidateWindow("2024-01-10", "2024-01-12", now)
	assert.ErrorIs(t, err, appErrors.ErrStartInPast)

	_, err = ValidateWindow("2024-01-11", "2024-01-12", now)
	assert.NoError(t, err)
}

func TestValidateWindowRangeInverted(t *testing.T) {
	_, err := ValidateWindow("2024-02-10", "2024-02-09", testNow)
	assert.ErrorIs(t, err, appErrors.ErrRangeInverted)
}

func TestValidateWindowCheckOrder(t *testing.T) {
	// a past start with an inverted range reports the past start
	_, err := ValidateWindow("2024-01-01", "2023-12-01", testNow)
	assert.ErrorIs(t, err, appErrors.ErrStartInPast)

	// malformed beats everything
	_, err = ValidateWindow("2024-01-01", "2023-02-30", testNow)
	assert.ErrorIs(t, err, appErrors.ErrMalformedDate)
}

func TestWindowZeroValue(t *testing.T) {
	assert.True(t, Window{}.IsZero())
}

func TestStoredWindow(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)

	w := StoredWindow(start, start.AddDate(0, 0, 6).Add(5*time.Hour))
	assert.Equal(t, 7*day, w.Duration)
	assert.Equal(t, start.AddDate(0, 0, 6), w.End)

	assert.Equal(t, day, StoredWindow(start, start).Duration)
	assert.Zero(t, StoredWindow(start, start.AddDate(0, 0, -1)).Duration)
}
