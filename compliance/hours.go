/*
hours.go - Hour-cap rules by age band

THRESHOLDS (hard statutory constants):
  12-13: 4h/day, 24h/week
  14-15: 3h on school days, 8h on non-school days;
         18h in school weeks, 40h otherwise
  16-17: 9h/day, 48h/week, at most 6 worked days per week

A week can span a birthday, so every rule inspects only the days whose age
band matches; the same week can legitimately be checked against two bands'
caps at once. Limits are inclusive: exactly at the cap passes, anything
above fails.
*/
package compliance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAILY LIMITS
// =============================================================================

// dailyLimitRule caps summed hours on any single day in its band.
type dailyLimitRule struct {
	id    string
	name  string
	bands []AgeBand
	limit decimal.Decimal
}

func (r *dailyLimitRule) ID() string           { return r.id }
func (r *dailyLimitRule) Name() string         { return r.name }
func (r *dailyLimitRule) Category() Category   { return CategoryHours }
func (r *dailyLimitRule) AppliesTo() []AgeBand { return r.bands }

func (r *dailyLimitRule) Evaluate(ctx *Context) Result {
	var violations []time.Time
	var entryIDs []string
	var firstActual decimal.Decimal

	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) {
			continue
		}
		hours := ctx.DailyHours[day]
		if hours.GreaterThan(r.limit) {
			if len(violations) == 0 {
				firstActual = hours
			}
			violations = append(violations, day)
			for _, e := range ctx.DailyEntries[day] {
				entryIDs = append(entryIDs, e.ID)
			}
		}
	}

	if len(violations) == 0 {
		return pass(r, ctx, map[string]any{"limitHours": r.limit.String()})
	}
	return fail(r, ctx,
		fmt.Sprintf("worked %s hours on %s; daily limit for ages %s is %s",
			firstActual.String(), violations[0].Format("2006-01-02"), r.bands[0], r.limit.String()),
		"Split or shorten shifts so no single day exceeds the daily cap for this age.",
		violations, entryIDs,
		map[string]any{
			"limitHours":  r.limit.String(),
			"actualValue": firstActual.String(),
		})
}

// schoolDayLimitRule caps hours on days flagged as school days (14-15).
// Not applicable when the week has no school days in its bands.
type schoolDayLimitRule struct {
	id    string
	bands []AgeBand
	limit decimal.Decimal
}

func (r *schoolDayLimitRule) ID() string           { return r.id }
func (r *schoolDayLimitRule) Name() string         { return "School-day daily hour limit (14-15)" }
func (r *schoolDayLimitRule) Category() Category   { return CategoryHours }
func (r *schoolDayLimitRule) AppliesTo() []AgeBand { return r.bands }

func (r *schoolDayLimitRule) Evaluate(ctx *Context) Result {
	var violations []time.Time
	var entryIDs []string
	var firstActual decimal.Decimal
	sawSchoolDay := false

	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) || !ctx.IsSchoolDay(day) {
			continue
		}
		sawSchoolDay = true
		hours := ctx.DailyHours[day]
		if hours.GreaterThan(r.limit) {
			if len(violations) == 0 {
				firstActual = hours
			}
			violations = append(violations, day)
			for _, e := range ctx.DailyEntries[day] {
				entryIDs = append(entryIDs, e.ID)
			}
		}
	}

	if !sawSchoolDay {
		return notApplicable(r, ctx, "no school days worked this week")
	}
	if len(violations) == 0 {
		return pass(r, ctx, map[string]any{"limitHours": r.limit.String()})
	}
	return fail(r, ctx,
		fmt.Sprintf("worked %s hours on school day %s; limit is %s",
			firstActual.String(), violations[0].Format("2006-01-02"), r.limit.String()),
		"Keep school-day shifts at or under 3 hours for 14-15 year olds.",
		violations, entryIDs,
		map[string]any{
			"limitHours":  r.limit.String(),
			"actualValue": firstActual.String(),
		})
}

// nonSchoolDayLimitRule caps hours worked on non-school days (14-15).
type nonSchoolDayLimitRule struct {
	id    string
	bands []AgeBand
	limit decimal.Decimal
}

func (r *nonSchoolDayLimitRule) ID() string           { return r.id }
func (r *nonSchoolDayLimitRule) Name() string         { return "Non-school-day daily hour limit (14-15)" }
func (r *nonSchoolDayLimitRule) Category() Category   { return CategoryHours }
func (r *nonSchoolDayLimitRule) AppliesTo() []AgeBand { return r.bands }

func (r *nonSchoolDayLimitRule) Evaluate(ctx *Context) Result {
	var violations []time.Time
	var entryIDs []string
	var firstActual decimal.Decimal

	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) || ctx.IsSchoolDay(day) {
			continue
		}
		hours := ctx.DailyHours[day]
		if hours.GreaterThan(r.limit) {
			if len(violations) == 0 {
				firstActual = hours
			}
			violations = append(violations, day)
			for _, e := range ctx.DailyEntries[day] {
				entryIDs = append(entryIDs, e.ID)
			}
		}
	}

	if len(violations) == 0 {
		return pass(r, ctx, map[string]any{"limitHours": r.limit.String()})
	}
	return fail(r, ctx,
		fmt.Sprintf("worked %s hours on %s; non-school-day limit is %s",
			firstActual.String(), violations[0].Format("2006-01-02"), r.limit.String()),
		"Keep non-school-day shifts at or under 8 hours for 14-15 year olds.",
		violations, entryIDs,
		map[string]any{
			"limitHours":  r.limit.String(),
			"actualValue": firstActual.String(),
		})
}

// =============================================================================
// WEEKLY LIMITS
// =============================================================================

// weeklyLimitRule caps total hours across the days belonging to its band.
// An optional schoolWeek gate makes the rule N/A outside its week type,
// which is how the 14-15 18h/40h split is expressed.
type weeklyLimitRule struct {
	id         string
	name       string
	bands      []AgeBand
	limit      decimal.Decimal
	schoolWeek *bool // nil = applies to any week
}

func (r *weeklyLimitRule) ID() string           { return r.id }
func (r *weeklyLimitRule) Name() string         { return r.name }
func (r *weeklyLimitRule) Category() Category   { return CategoryHours }
func (r *weeklyLimitRule) AppliesTo() []AgeBand { return r.bands }

func (r *weeklyLimitRule) Evaluate(ctx *Context) Result {
	if r.schoolWeek != nil && *r.schoolWeek != ctx.IsSchoolWeek {
		if *r.schoolWeek {
			return notApplicable(r, ctx, "not a school week")
		}
		return notApplicable(r, ctx, "school week; non-school weekly limit does not apply")
	}

	total := decimal.Zero
	var bandDays []time.Time
	var entryIDs []string
	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) {
			continue
		}
		total = total.Add(ctx.DailyHours[day])
		bandDays = append(bandDays, day)
		for _, e := range ctx.DailyEntries[day] {
			entryIDs = append(entryIDs, e.ID)
		}
	}

	if !total.GreaterThan(r.limit) {
		return pass(r, ctx, map[string]any{
			"limitHours": r.limit.String(),
			"totalHours": total.String(),
		})
	}
	return fail(r, ctx,
		fmt.Sprintf("worked %s hours this week; limit for ages %s is %s",
			total.String(), r.bands[0], r.limit.String()),
		"Reduce total scheduled hours for the week to the statutory cap.",
		bandDays, entryIDs,
		map[string]any{
			"limitHours":  r.limit.String(),
			"actualValue": total.String(),
		})
}

// maxWorkDaysRule caps the number of distinct worked days (16-17: six).
type maxWorkDaysRule struct {
	id      string
	bands   []AgeBand
	maxDays int
}

func (r *maxWorkDaysRule) ID() string           { return r.id }
func (r *maxWorkDaysRule) Name() string         { return "Maximum worked days per week (16-17)" }
func (r *maxWorkDaysRule) Category() Category   { return CategoryHours }
func (r *maxWorkDaysRule) AppliesTo() []AgeBand { return r.bands }

func (r *maxWorkDaysRule) Evaluate(ctx *Context) Result {
	var bandDays []time.Time
	var entryIDs []string
	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) {
			continue
		}
		bandDays = append(bandDays, day)
		for _, e := range ctx.DailyEntries[day] {
			entryIDs = append(entryIDs, e.ID)
		}
	}

	if len(bandDays) <= r.maxDays {
		return pass(r, ctx, map[string]any{
			"maxDays":    r.maxDays,
			"workedDays": len(bandDays),
		})
	}
	return fail(r, ctx,
		fmt.Sprintf("worked %d days this week; maximum is %d", len(bandDays), r.maxDays),
		"Schedule at least one full rest day in every work week.",
		bandDays, entryIDs,
		map[string]any{
			"maxDays":     r.maxDays,
			"actualValue": len(bandDays),
		})
}
