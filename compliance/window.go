/*
window.go - Time-of-day window rules

WINDOWS (minutes since midnight, local wall clock):
  under 16:  no work during school hours, 7:00-15:00, on school days.
             An entry overlaps school hours unless it ends by 7:00 or
             starts at or after 15:00.
  14-15:     workable window 7:00-19:00, extended to 21:00 for dates in
             the summer period.
  16-17:     workable window 6:00-23:30, cut to a 22:00 finish on school
             nights (the night before a school day).
*/
package compliance

import (
	"fmt"
	"time"
)

const (
	schoolStartMin = 7 * 60  // 7:00
	schoolEndMin   = 15 * 60 // 15:00
)

// entryWindow is one violating entry kept for the representative message.
type entryWindow struct {
	day   time.Time
	id    string
	start int
	end   int
}

// =============================================================================
// SCHOOL HOURS PROHIBITION (under 16)
// =============================================================================

type schoolHoursRule struct {
	id    string
	bands []AgeBand
}

func (r *schoolHoursRule) ID() string           { return r.id }
func (r *schoolHoursRule) Name() string         { return "No work during school hours" }
func (r *schoolHoursRule) Category() Category   { return CategoryTimeWindow }
func (r *schoolHoursRule) AppliesTo() []AgeBand { return r.bands }

func (r *schoolHoursRule) Evaluate(ctx *Context) Result {
	sawSchoolDay := false
	var violations []entryWindow

	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) || !ctx.IsSchoolDay(day) {
			continue
		}
		sawSchoolDay = true
		for _, e := range ctx.DailyEntries[day] {
			start, end := minutesOrZero(e.StartTime), minutesOrZero(e.EndTime)
			// Overlap unless the shift ends by 7:00 or starts at/after 15:00.
			if end <= schoolStartMin || start >= schoolEndMin {
				continue
			}
			violations = append(violations, entryWindow{day: day, id: e.ID, start: start, end: end})
		}
	}

	if !sawSchoolDay {
		return notApplicable(r, ctx, "no school days worked this week")
	}
	if len(violations) == 0 {
		return pass(r, ctx, map[string]any{"schoolHours": "07:00-15:00"})
	}
	return failWindows(r, ctx, violations,
		fmt.Sprintf("shift %s-%s on %s overlaps school hours (07:00-15:00)",
			formatMinutes(violations[0].start), formatMinutes(violations[0].end),
			violations[0].day.Format("2006-01-02")),
		"School-day shifts must end by 7:00 AM or start at 3:00 PM or later.",
		map[string]any{"schoolHours": "07:00-15:00"})
}

// =============================================================================
// DAILY WORK WINDOW (14-15)
// =============================================================================

type minorWindowRule struct {
	id    string
	bands []AgeBand
}

func (r *minorWindowRule) ID() string           { return r.id }
func (r *minorWindowRule) Name() string         { return "Permitted work window (14-15)" }
func (r *minorWindowRule) Category() Category   { return CategoryTimeWindow }
func (r *minorWindowRule) AppliesTo() []AgeBand { return r.bands }

func (r *minorWindowRule) Evaluate(ctx *Context) Result {
	const windowStart = 7 * 60 // 7:00
	var violations []entryWindow
	var firstLimit int

	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) {
			continue
		}
		windowEnd := 19 * 60 // 7:00 PM
		if IsSummer(day) {
			windowEnd = 21 * 60 // 9:00 PM during summer
		}
		for _, e := range ctx.DailyEntries[day] {
			start, end := minutesOrZero(e.StartTime), minutesOrZero(e.EndTime)
			if start >= windowStart && end <= windowEnd {
				continue
			}
			if len(violations) == 0 {
				firstLimit = windowEnd
			}
			violations = append(violations, entryWindow{day: day, id: e.ID, start: start, end: end})
		}
	}

	if len(violations) == 0 {
		return pass(r, ctx, map[string]any{"window": "07:00-19:00 (21:00 in summer)"})
	}
	return failWindows(r, ctx, violations,
		fmt.Sprintf("shift %s-%s on %s is outside the permitted window 07:00-%s",
			formatMinutes(violations[0].start), formatMinutes(violations[0].end),
			violations[0].day.Format("2006-01-02"), formatMinutes(firstLimit)),
		"Schedule 14-15 year olds between 7:00 AM and 7:00 PM (9:00 PM June 1 through Labor Day).",
		map[string]any{"window": "07:00-19:00 (21:00 in summer)"})
}

// =============================================================================
// DAILY WORK WINDOW (16-17)
// =============================================================================

type olderMinorWindowRule struct {
	id    string
	bands []AgeBand
}

func (r *olderMinorWindowRule) ID() string           { return r.id }
func (r *olderMinorWindowRule) Name() string         { return "Permitted work window (16-17)" }
func (r *olderMinorWindowRule) Category() Category   { return CategoryTimeWindow }
func (r *olderMinorWindowRule) AppliesTo() []AgeBand { return r.bands }

func (r *olderMinorWindowRule) Evaluate(ctx *Context) Result {
	const windowStart = 6 * 60 // 6:00
	var violations []entryWindow
	var firstLimit int

	for _, day := range ctx.WorkedDays() {
		if !bandsContain(r.bands, ctx.DailyBands[day]) {
			continue
		}
		windowEnd := 23*60 + 30 // 11:30 PM
		if ctx.IsSchoolNight(day) {
			windowEnd = 22 * 60 // 10:00 PM before a school day
		}
		for _, e := range ctx.DailyEntries[day] {
			start, end := minutesOrZero(e.StartTime), minutesOrZero(e.EndTime)
			if start >= windowStart && end <= windowEnd {
				continue
			}
			if len(violations) == 0 {
				firstLimit = windowEnd
			}
			violations = append(violations, entryWindow{day: day, id: e.ID, start: start, end: end})
		}
	}

	if len(violations) == 0 {
		return pass(r, ctx, map[string]any{"window": "06:00-23:30 (22:00 on school nights)"})
	}
	return failWindows(r, ctx, violations,
		fmt.Sprintf("shift %s-%s on %s is outside the permitted window 06:00-%s",
			formatMinutes(violations[0].start), formatMinutes(violations[0].end),
			violations[0].day.Format("2006-01-02"), formatMinutes(firstLimit)),
		"Schedule 16-17 year olds between 6:00 AM and 11:30 PM, ending by 10:00 PM before a school day.",
		map[string]any{"window": "06:00-23:30 (22:00 on school nights)"})
}

// =============================================================================
// HELPERS
// =============================================================================

func failWindows(r Rule, ctx *Context, violations []entryWindow, msg, remediation string, detail map[string]any) Result {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	var entryIDs []string
	for _, v := range violations {
		if !seen[v.day] {
			seen[v.day] = true
			dates = append(dates, v.day)
		}
		entryIDs = append(entryIDs, v.id)
	}
	detail["violations"] = len(violations)
	return fail(r, ctx, msg, remediation, dates, entryIDs, detail)
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
