package task

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

// RepeatRule controls whether completing a task schedules another occurrence.
type RepeatRule string

const (
	RepeatNone    RepeatRule = "none"
	RepeatDaily   RepeatRule = "daily"
	RepeatWeekly  RepeatRule = "weekly"
	RepeatMonthly RepeatRule = "monthly"
)

// ParseRepeatRule accepts none, daily, weekly or monthly. Empty means none.
func ParseRepeatRule(s string) (RepeatRule, error) {
	switch r := RepeatRule(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RepeatNone, nil
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return r, nil
	}
	return "", domain.Validationf(ErrInvalidRepeatRule, "invalid repeat rule %q: allowed values are none, daily, weekly, monthly", s)
}

// Repeats reports whether the rule produces further occurrences.
func (r RepeatRule) Repeats() bool {
	return r == RepeatDaily || r == RepeatWeekly || r == RepeatMonthly
}

// NextDate returns the calendar date of the occurrence after date.
// Monthly recurrence clamps to the last day of shorter months.
func (r RepeatRule) NextDate(date time.Time) (time.Time, bool) {
	y, m, d := date.UTC().Date()
	switch r {
	case RepeatDaily:
		return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC), true
	case RepeatWeekly:
		return time.Date(y, m, d+7, 0, 0, 0, 0, time.UTC), true
	case RepeatMonthly:
		last := time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC).Day()
		return time.Date(y, m+1, min(d, last), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func (r RepeatRule) String() string { return string(r) }
