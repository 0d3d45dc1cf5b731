// Package format holds the date and number conventions shared by the
// commission engine and the API responses.
//
// Stored timestamps are skewed by the upstream: every conversion from a
// stored value to a calendar date or display string first adds
// StoredOffset to the parsed instant and then reads it in UTC.
package format

import (
	"regexp"
	"strconv"
	"time"
)

// StoredOffset is added to parsed timestamps before reading the calendar
// date.
const StoredOffset = 3 * time.Hour

var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Zone-less layouts are interpreted as UTC by time.Parse. Fractional
// seconds are accepted after the seconds field even when the layout has
// none.
var storedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseStored parses a stored date or timestamp.
func ParseStored(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range storedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CalendarDate returns the YYYY-MM-DD form of a stored value. Date-only
// values are returned untouched; timestamps are shifted by StoredOffset.
// Unparseable input yields "".
func CalendarDate(value string) string {
	if dateOnly.MatchString(value) {
		return value
	}
	t, ok := ParseStored(value)
	if !ok {
		return ""
	}
	return t.Add(StoredOffset).UTC().Format("2006-01-02")
}

// YearOf extracts the calendar year of a stored value, or 0.
func YearOf(value string) int {
	d := CalendarDate(value)
	if len(d) < 4 {
		return 0
	}
	y, err := strconv.Atoi(d[:4])
	if err != nil {
		return 0
	}
	return y
}

// DateDisplay renders dd/mm/yyyy, or "" when value is unparseable.
func DateDisplay(value string) string {
	t, ok := ParseStored(value)
	if !ok {
		return ""
	}
	return t.Add(StoredOffset).UTC().Format("02/01/2006")
}

// DateTimeDisplay renders dd/mm/yyyy HH:MM:SS.
func DateTimeDisplay(value string) string {
	t, ok := ParseStored(value)
	if !ok {
		return ""
	}
	return t.Add(StoredOffset).UTC().Format("02/01/2006 15:04:05")
}
