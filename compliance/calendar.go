/*
Package compliance implements the labor-compliance rule engine.

PURPOSE:
  Guarantees that a submitted work week complies with child-labor statutes
  before payroll is ever computed: hour caps by age band, time-of-day
  windows (including school-hour and school-night restrictions), and
  documentation requirements.

KEY CONCEPTS:
  - Calendar/Age Classifier (calendar.go): pure date math - age on a date,
    statutory age bands, the summer period, wall-clock minutes.
  - Context (context.go): everything the rules need for one employee-week,
    assembled once, immutable, deterministic.
  - Rule (rule.go): one statute check. Closed, versioned set - no plugins.
  - Engine (engine.go): runs the applicable rules, returns the complete
    result list, never short-circuits.

DESIGN PRINCIPLES:
  1. Purity: rules and the builder touch no storage and keep no state.
  2. Per-day classification: a week can span a birthday, so the age band is
     computed for every day, never once per week.
  3. Failures are values: a violation is a Result, not an error.

SEE ALSO:
  - labor/: the record types consumed here
  - payroll/: runs only after this engine has passed a week
*/
package compliance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harvestrow/labor-engine/labor"
)

// =============================================================================
// AGE CLASSIFICATION
// =============================================================================

// AgeBand is one of the four statutory buckets that determine which rules
// apply. Boundaries are fixed at 14, 16, and 18.
type AgeBand string

const (
	Band12To13 AgeBand = "12-13"
	Band14To15 AgeBand = "14-15"
	Band16To17 AgeBand = "16-17"
	BandAdult  AgeBand = "18+"
)

// AgeOn returns whole years elapsed between dateOfBirth and date,
// decrementing when the month/day of date precedes the birthday.
func AgeOn(dateOfBirth, date time.Time) int {
	age := date.Year() - dateOfBirth.Year()
	if date.Month() < dateOfBirth.Month() ||
		(date.Month() == dateOfBirth.Month() && date.Day() < dateOfBirth.Day()) {
		age--
	}
	return age
}

// BandFor maps an age to its statutory band. Ages below 12 fall into the
// 12-13 band for rule purposes; task-code minimum ages keep them off the
// schedule in the first place.
func BandFor(age int) AgeBand {
	switch {
	case age < 14:
		return Band12To13
	case age < 16:
		return Band14To15
	case age < 18:
		return Band16To17
	default:
		return BandAdult
	}
}

// IsMinor reports whether a band is subject to any child-labor rule.
func IsMinor(band AgeBand) bool { return band != BandAdult }

// =============================================================================
// CALENDAR
// =============================================================================

// LaborDay returns the first Monday of September for a year.
func LaborDay(year int) time.Time {
	d := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// IsSummer reports whether a date falls in the summer period: June 1 through
// the day before Labor Day of that date's year.
func IsSummer(date time.Time) bool {
	day := labor.DateOnly(date)
	juneFirst := time.Date(day.Year(), time.June, 1, 0, 0, 0, 0, time.UTC)
	return !day.Before(juneFirst) && day.Before(LaborDay(day.Year()))
}

// TimeToMinutes converts an "HH:MM" wall-clock string to minutes since
// midnight. All times are local to a fixed organizational timezone; no
// conversion occurs anywhere in the engine.
func TimeToMinutes(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// minutesOrZero is used by rules on times already validated at the boundary.
func minutesOrZero(s string) int {
	m, err := TimeToMinutes(s)
	if err != nil {
		return 0
	}
	return m
}
