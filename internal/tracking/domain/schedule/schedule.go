// Package schedule converts between stored calendar dates, "HH:mm" wall-clock
// strings and absolute instants.
//
// The wall-clock basis is always an explicit *time.Location. Two deployments
// configured with different locations resolve the same stored strings to
// different instants.
package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted by ParseDate.
const DateLayout = "2006-01-02"

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidTimeString reports whether s is a strict 24-hour "HH:mm" string.
func ValidTimeString(s string) bool {
	return timeOfDayPattern.MatchString(s)
}

// ParseDate parses "2006-01-02" or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return NormalizeDate(ts, time.UTC), true
	}
	return time.Time{}, false
}

// NormalizeDate returns midnight UTC of the calendar date t falls on in loc.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(location(loc)).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CombineDateAndTime places the "HH:mm" timeString on the calendar date of
// date (read in UTC, where stored dates live) in loc. Seconds and smaller
// units are zero. It returns false if date is zero or timeString is malformed.
func CombineDateAndTime(date time.Time, timeString string, loc *time.Location) (time.Time, bool) {
	if date.IsZero() || !ValidTimeString(timeString) {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(timeString[:2])
	minute, _ := strconv.Atoi(timeString[3:])

	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, hour, minute, 0, 0, location(loc)), true
}

// CombineDateStringAndTime is CombineDateAndTime for a textual date.
func CombineDateStringAndTime(date, timeString string, loc *time.Location) (time.Time, bool) {
	d, ok := ParseDate(date)
	if !ok {
		return time.Time{}, false
	}
	return CombineDateAndTime(d, timeString, loc)
}

// ExtractTimeString formats t as zero-padded "HH:mm" in loc.
// The zero time yields an empty string.
func ExtractTimeString(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(location(loc)).Format("15:04")
}

// TruncateToMinute drops seconds and sub-second parts of t's wall clock in loc.
func TruncateToMinute(t time.Time, loc *time.Location) time.Time {
	l := t.In(location(loc))
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), 0, 0, l.Location())
}

// LoadLocation resolves an IANA zone name. Empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
