// Package recurrence computes when a weekly recurring schedule fires next.
package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// ErrInvalidArgument is returned for rules that cannot produce a date.
var ErrInvalidArgument = errors.New("invalid argument")

// weekdays maps time.Weekday (0=Sunday) to rrule weekdays.
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// NextRun is NextRunDate evaluated at the current local time.
func NextRun(rule models.RecurrenceRule) (time.Time, error) {
	return NextRunDate(rule, time.Now())
}

// NextRunDate returns the first time after the day of now that falls on one
// of rule.DaysOfWeek at rule.Time, in now's location.
//
// The current day is never a candidate, even when the time of day has not
// passed yet: a rule for today's weekday fires a week from today.
func NextRunDate(rule models.RecurrenceRule, now time.Time) (time.Time, error) {
	if err := Validate(rule); err != nil {
		return time.Time{}, err
	}
	hour, minute, _ := ParseTimeOfDay(rule.Time)

	days := make([]int, len(rule.DaysOfWeek))
	copy(days, rule.DaysOfWeek)
	sort.Ints(days)

	byday := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byday = append(byday, weekdays[d])
	}

	// Start the rule tomorrow so today can never match; a weekly rule then
	// yields the first listed weekday within the following seven days.
	start := time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: byday,
		Count:     1,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("build weekly rule: %w", err)
	}

	occurrences := r.All()
	if len(occurrences) == 0 {
		return time.Time{}, fmt.Errorf("%w: rule %v produced no occurrence", ErrInvalidArgument, days)
	}
	return occurrences[0], nil
}

// Validate checks that a rule has at least one weekday in [0,6] and a
// well-formed time of day.
func Validate(rule models.RecurrenceRule) error {
	if len(rule.DaysOfWeek) == 0 {
		return fmt.Errorf("%w: daysOfWeek must be non-empty", ErrInvalidArgument)
	}
	for _, d := range rule.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day %d out of range 0-6", ErrInvalidArgument, d)
		}
	}
	if _, _, err := ParseTimeOfDay(rule.Time); err != nil {
		return err
	}
	return nil
}

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidArgument, s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour in %q out of range", ErrInvalidArgument, s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute in %q out of range", ErrInvalidArgument, s)
	}
	return hour, minute, nil
}
