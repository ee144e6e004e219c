/*
context.go - Compliance context assembly

PURPOSE:
  Builds the single immutable snapshot every rule evaluates against: per-day
  summed hours, per-day age and age band, per-day ordered entries, the
  school-week flag, and the employee's documents. Building the context twice
  from the same inputs yields the same context - rules stay deterministic
  and trivially testable.

GUARANTEES:
  - No mutation of inputs, no side effects, no storage access.
  - Dates are normalized to calendar days (UTC midnight).
  - Entries within a day are ordered by start time, so "first chronological
    violation" is well defined.
*/
package compliance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/labor"
)

// Context carries everything the rules need for one employee and one week.
type Context struct {
	Employee  labor.Employee
	WeekStart time.Time
	CheckDate time.Time

	// Per-day views, keyed by calendar date.
	DailyHours   map[time.Time]decimal.Decimal
	DailyAges    map[time.Time]int
	DailyBands   map[time.Time]AgeBand
	DailyEntries map[time.Time][]labor.WorkEntry

	IsSchoolWeek bool
	SchoolDays   []time.Time

	Documents []labor.ComplianceDocument
}

// BuildContext assembles a Context for one employee-week. Inputs are assumed
// already validated (well-formed times, entries within the week span).
func BuildContext(emp labor.Employee, weekStart time.Time, entries []labor.WorkEntry,
	docs []labor.ComplianceDocument, checkDate time.Time) *Context {

	ctx := &Context{
		Employee:     emp,
		WeekStart:    labor.DateOnly(weekStart),
		CheckDate:    labor.DateOnly(checkDate),
		DailyHours:   make(map[time.Time]decimal.Decimal),
		DailyAges:    make(map[time.Time]int),
		DailyBands:   make(map[time.Time]AgeBand),
		DailyEntries: make(map[time.Time][]labor.WorkEntry),
		Documents:    docs,
	}

	schoolDays := make(map[time.Time]bool)
	for _, e := range entries {
		day := labor.DateOnly(e.WorkDate)
		ctx.DailyHours[day] = ctx.DailyHours[day].Add(e.Hours)
		ctx.DailyEntries[day] = append(ctx.DailyEntries[day], e)
		if e.IsSchoolDay {
			ctx.IsSchoolWeek = true
			schoolDays[day] = true
		}
	}

	// Age and band for every day of the span, not just worked days: the
	// school-night rule looks at the day after a worked date.
	for i := 0; i < 7; i++ {
		day := ctx.WeekStart.AddDate(0, 0, i)
		age := AgeOn(emp.DateOfBirth, day)
		ctx.DailyAges[day] = age
		ctx.DailyBands[day] = BandFor(age)
	}

	for day := range ctx.DailyEntries {
		es := ctx.DailyEntries[day]
		sort.SliceStable(es, func(i, j int) bool {
			return minutesOrZero(es[i].StartTime) < minutesOrZero(es[j].StartTime)
		})
	}

	for day := range schoolDays {
		ctx.SchoolDays = append(ctx.SchoolDays, day)
	}
	sort.Slice(ctx.SchoolDays, func(i, j int) bool { return ctx.SchoolDays[i].Before(ctx.SchoolDays[j]) })

	return ctx
}

// WorkedDays returns the dates with at least one entry, in order.
func (c *Context) WorkedDays() []time.Time {
	days := make([]time.Time, 0, len(c.DailyEntries))
	for day := range c.DailyEntries {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// IsSchoolDay reports whether any entry on the date is flagged school-day.
func (c *Context) IsSchoolDay(day time.Time) bool {
	for _, e := range c.DailyEntries[labor.DateOnly(day)] {
		if e.IsSchoolDay {
			return true
		}
	}
	return false
}

// IsSchoolNight reports whether the night of `day` precedes a school day.
// True when the next calendar date has any entry flagged school-day; when the
// next day has no entries at all, falls back to: school week and the date's
// weekday is Sunday through Thursday.
func (c *Context) IsSchoolNight(day time.Time) bool {
	next := labor.DateOnly(day).AddDate(0, 0, 1)
	if entries, ok := c.DailyEntries[next]; ok {
		for _, e := range entries {
			if e.IsSchoolDay {
				return true
			}
		}
		return false
	}
	// Sunday(0) through Thursday(4) nights precede weekdays.
	return c.IsSchoolWeek && labor.DateOnly(day).Weekday() <= time.Thursday
}

// HasBand reports whether any day of the week falls in one of the bands.
func (c *Context) HasBand(bands ...AgeBand) bool {
	for _, day := range c.weekDays() {
		for _, b := range bands {
			if c.DailyBands[day] == b {
				return true
			}
		}
	}
	return false
}

func (c *Context) weekDays() []time.Time {
	days := make([]time.Time, 7)
	for i := 0; i < 7; i++ {
		days[i] = c.WeekStart.AddDate(0, 0, i)
	}
	return days
}
