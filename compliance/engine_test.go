package compliance_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/compliance"
	"github.com/harvestrow/labor-engine/labor"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Week of Sunday 2025-10-05: an ordinary school-year week.
var schoolYearWeek = time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC)

// Week of Sunday 2025-07-06: squarely inside the summer period.
var summerWeek = time.Date(2025, time.July, 6, 0, 0, 0, 0, time.UTC)

func employeeAged(dob time.Time) labor.Employee {
	return labor.Employee{
		ID:          "emp-1",
		Name:        "Test Minor",
		DateOfBirth: dob,
		Status:      labor.EmployeeActive,
	}
}

// shift builds an entry on weekStart+dayOffset. Hours are given directly so
// tests can probe exact boundary values like 4.01.
func shift(weekStart time.Time, dayOffset int, start, end, hours string, schoolDay bool) labor.WorkEntry {
	return labor.WorkEntry{
		ID:          fmt.Sprintf("e-%d-%s", dayOffset, start),
		TimesheetID: "ts-1",
		WorkDate:    weekStart.AddDate(0, 0, dayOffset),
		StartTime:   start,
		EndTime:     end,
		TaskCodeID:  "tc-1",
		Hours:       decimal.RequireFromString(hours),
		IsSchoolDay: schoolDay,
	}
}

func allDocs() []labor.ComplianceDocument {
	expires := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []labor.ComplianceDocument{
		{ID: "d1", EmployeeID: "emp-1", Type: labor.DocParentalConsent},
		{ID: "d2", EmployeeID: "emp-1", Type: labor.DocWorkPermit, ExpiresAt: &expires},
		{ID: "d3", EmployeeID: "emp-1", Type: labor.DocSafetyTraining},
	}
}

func evaluate(emp labor.Employee, weekStart time.Time, entries []labor.WorkEntry,
	docs []labor.ComplianceDocument) []compliance.Result {

	ctx := compliance.BuildContext(emp, weekStart, entries, docs, weekStart.AddDate(0, 0, 7))
	return compliance.NewDefaultEngine().EvaluateWeek(ctx)
}

func findResult(t *testing.T, results []compliance.Result, ruleID string) compliance.Result {
	t.Helper()
	for _, r := range results {
		if r.RuleID == ruleID {
			return r
		}
	}
	t.Fatalf("rule %s not in results", ruleID)
	return compliance.Result{}
}

// =============================================================================
// DAILY AND WEEKLY HOUR CAPS
// =============================================================================

func TestDailyLimit_ExactlyAtCapPasses(t *testing.T) {
	// GIVEN: A 13-year-old working exactly 4.00 hours in one day
	// WHEN: The week is evaluated
	// THEN: The daily cap passes; limits are inclusive

	emp := employeeAged(date(2012, time.March, 1)) // 13 in Oct 2025
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 6, "08:00", "12:00", "4.00", false),
	}

	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	r := findResult(t, results, "daily-hours-12-13")
	if r.Outcome != compliance.OutcomePass {
		t.Errorf("4.00 hours at the 4h cap: outcome = %s, want pass (%s)", r.Outcome, r.ErrorMessage)
	}
}

func TestDailyLimit_JustOverCapFails(t *testing.T) {
	// GIVEN: A 13-year-old working 4.01 hours in one day
	// WHEN: The week is evaluated
	// THEN: The daily cap fails and the detail carries the exact actual value

	emp := employeeAged(date(2012, time.March, 1))
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 6, "08:00", "12:01", "4.01", false),
	}

	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	r := findResult(t, results, "daily-hours-12-13")
	if r.Outcome != compliance.OutcomeFail {
		t.Fatalf("4.01 hours over the 4h cap: outcome = %s, want fail", r.Outcome)
	}
	if r.Detail["actualValue"] != "4.01" {
		t.Errorf("detail actualValue = %v, want 4.01", r.Detail["actualValue"])
	}
	if len(r.AffectedDates) != 1 {
		t.Errorf("AffectedDates = %v, want exactly the violating day", r.AffectedDates)
	}
	if r.RemediationGuidance == "" {
		t.Error("failures must carry remediation guidance")
	}
}

func TestSchoolDayLimit_SplitsOnSchoolFlag(t *testing.T) {
	// GIVEN: A 15-year-old working 3.5 hours, once flagged school day, once not
	// WHEN: Each week is evaluated
	// THEN: The school-day 3h cap fails only for the flagged day; the same
	//       hours on a non-school day sit comfortably under the 8h cap

	emp := employeeAged(date(2010, time.March, 1)) // 15 in Oct 2025

	schoolEntries := []labor.WorkEntry{
		shift(schoolYearWeek, 1, "15:30", "19:00", "3.5", true),
	}
	results := evaluate(emp, schoolYearWeek, schoolEntries, allDocs())
	if r := findResult(t, results, "school-day-hours-14-15"); r.Outcome != compliance.OutcomeFail {
		t.Errorf("3.5h on a school day: outcome = %s, want fail", r.Outcome)
	}

	freeEntries := []labor.WorkEntry{
		shift(schoolYearWeek, 6, "08:00", "11:30", "3.5", false),
	}
	results = evaluate(emp, schoolYearWeek, freeEntries, allDocs())
	if r := findResult(t, results, "school-day-hours-14-15"); r.Outcome != compliance.OutcomeNotApplicable {
		t.Errorf("no school days worked: outcome = %s, want not_applicable", r.Outcome)
	}
	if r := findResult(t, results, "non-school-day-hours-14-15"); r.Outcome != compliance.OutcomePass {
		t.Errorf("3.5h on a free day: outcome = %s, want pass", r.Outcome)
	}
}

func TestWeeklyLimit_SchoolWeekGate(t *testing.T) {
	// GIVEN: A 15-year-old with 19 total hours in a school week
	// WHEN: The week is evaluated
	// THEN: The 18h school-week cap fails and the 40h non-school cap is N/A

	emp := employeeAged(date(2010, time.March, 1))
	var entries []labor.WorkEntry
	for day := 1; day <= 5; day++ { // Mon-Fri 3h flagged school
		entries = append(entries, shift(schoolYearWeek, day, "15:30", "18:30", "3", true))
	}
	entries = append(entries, shift(schoolYearWeek, 6, "08:00", "12:00", "4", false)) // Sat 4h

	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	if r := findResult(t, results, "weekly-hours-school-14-15"); r.Outcome != compliance.OutcomeFail {
		t.Errorf("19h in a school week: outcome = %s, want fail", r.Outcome)
	}
	if r := findResult(t, results, "weekly-hours-non-school-14-15"); r.Outcome != compliance.OutcomeNotApplicable {
		t.Errorf("non-school weekly cap in a school week: outcome = %s, want not_applicable", r.Outcome)
	}
}

func TestMaxWorkDays_SevenDaysFails(t *testing.T) {
	// GIVEN: A 17-year-old working all seven days
	// WHEN: The week is evaluated
	// THEN: The six-day cap fails

	emp := employeeAged(date(2008, time.March, 1)) // 17 in Oct 2025
	var entries []labor.WorkEntry
	for day := 0; day < 7; day++ {
		entries = append(entries, shift(schoolYearWeek, day, "16:00", "18:00", "2", false))
	}

	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	if r := findResult(t, results, "max-work-days-16-17"); r.Outcome != compliance.OutcomeFail {
		t.Errorf("7 worked days: outcome = %s, want fail", r.Outcome)
	}
}

// =============================================================================
// MID-WEEK BIRTHDAY
// =============================================================================

func TestMidWeekBirthday_EachDayAgainstItsOwnBand(t *testing.T) {
	// GIVEN: An employee turning 14 on Wednesday of the week
	// WHEN: They work 5 hours on Thursday (age 14) and 3 on Monday (age 13)
	// THEN: Neither band's daily cap fails: Thursday is judged against the
	//       14-15 8h non-school cap, Monday against the 12-13 4h cap

	emp := employeeAged(date(2011, time.October, 8)) // 14th birthday Wed 2025-10-08
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 1, "09:00", "12:00", "3", false), // Mon, age 13
		shift(schoolYearWeek, 4, "09:00", "14:00", "5", false), // Thu, age 14
	}

	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	if r := findResult(t, results, "daily-hours-12-13"); r.Outcome != compliance.OutcomePass {
		t.Errorf("5h day belongs to the 14-15 band, 12-13 cap should pass: got %s (%s)",
			r.Outcome, r.ErrorMessage)
	}
	if r := findResult(t, results, "non-school-day-hours-14-15"); r.Outcome != compliance.OutcomePass {
		t.Errorf("5h under the 8h cap: got %s (%s)", r.Outcome, r.ErrorMessage)
	}

	// And the 12-13 weekly cap counts only the days worked at 13.
	r := findResult(t, results, "weekly-hours-12-13")
	if r.Outcome != compliance.OutcomePass {
		t.Errorf("weekly 12-13 cap: got %s", r.Outcome)
	}
	if r.Detail["totalHours"] != "3" {
		t.Errorf("12-13 weekly total = %v, want only Monday's 3", r.Detail["totalHours"])
	}
}

// =============================================================================
// TIME WINDOWS
// =============================================================================

func TestMinorWindow_SummerEvening(t *testing.T) {
	// GIVEN: A 15-year-old working until 21:00 in July
	// WHEN: The week is evaluated
	// THEN: The extended summer window allows it; 21:30 does not

	emp := employeeAged(date(2010, time.March, 1))

	okEntries := []labor.WorkEntry{
		shift(summerWeek, 2, "17:00", "21:00", "4", false),
	}
	results := evaluate(emp, summerWeek, okEntries, allDocs())
	if r := findResult(t, results, "work-window-14-15"); r.Outcome != compliance.OutcomePass {
		t.Errorf("summer shift ending 21:00: got %s (%s)", r.Outcome, r.ErrorMessage)
	}

	lateEntries := []labor.WorkEntry{
		shift(summerWeek, 2, "17:30", "21:30", "4", false),
	}
	results = evaluate(emp, summerWeek, lateEntries, allDocs())
	if r := findResult(t, results, "work-window-14-15"); r.Outcome != compliance.OutcomeFail {
		t.Errorf("summer shift ending 21:30: got %s, want fail", r.Outcome)
	}
}

func TestMinorWindow_SchoolYearEvening(t *testing.T) {
	// GIVEN: The same 20:00 finish outside the summer period
	// WHEN: The week is evaluated
	// THEN: The 19:00 cutoff applies and the shift fails

	emp := employeeAged(date(2010, time.March, 1))
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 6, "16:00", "20:00", "4", false),
	}
	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	if r := findResult(t, results, "work-window-14-15"); r.Outcome != compliance.OutcomeFail {
		t.Errorf("20:00 finish in October: got %s, want fail", r.Outcome)
	}
}

func TestOlderMinorWindow_SchoolNightCutoff(t *testing.T) {
	// GIVEN: A 17-year-old working until 22:30 on a night before a school day
	// WHEN: The week is evaluated
	// THEN: The 22:00 school-night cutoff fails it, while the same finish on
	//       Friday (no school next day) is fine

	emp := employeeAged(date(2008, time.March, 1))

	// Tuesday 18:00-22:30; Wednesday has a school-flagged entry.
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 2, "18:00", "22:30", "4.5", false),
		shift(schoolYearWeek, 3, "16:00", "18:00", "2", true),
	}
	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	if r := findResult(t, results, "work-window-16-17"); r.Outcome != compliance.OutcomeFail {
		t.Errorf("22:30 before a school day: got %s, want fail", r.Outcome)
	}

	// Friday 18:00-22:30; Saturday has an entry without the school flag, so
	// Friday night is not a school night.
	entries = []labor.WorkEntry{
		shift(schoolYearWeek, 5, "18:00", "22:30", "4.5", false),
		shift(schoolYearWeek, 6, "09:00", "11:00", "2", false),
	}
	results = evaluate(emp, schoolYearWeek, entries, allDocs())
	if r := findResult(t, results, "work-window-16-17"); r.Outcome != compliance.OutcomePass {
		t.Errorf("22:30 Friday finish: got %s (%s), want pass", r.Outcome, r.ErrorMessage)
	}
}

func TestSchoolHours_Under16Prohibited(t *testing.T) {
	// GIVEN: A 15-year-old with a shift inside 07:00-15:00 on a school day
	// WHEN: The week is evaluated
	// THEN: The school-hours prohibition fails; an after-school shift passes

	emp := employeeAged(date(2010, time.March, 1))

	during := []labor.WorkEntry{
		shift(schoolYearWeek, 1, "10:00", "12:00", "2", true),
	}
	results := evaluate(emp, schoolYearWeek, during, allDocs())
	if r := findResult(t, results, "school-hours-under-16"); r.Outcome != compliance.OutcomeFail {
		t.Errorf("mid-morning school-day shift: got %s, want fail", r.Outcome)
	}

	after := []labor.WorkEntry{
		shift(schoolYearWeek, 1, "15:00", "17:00", "2", true),
	}
	results = evaluate(emp, schoolYearWeek, after, allDocs())
	if r := findResult(t, results, "school-hours-under-16"); r.Outcome != compliance.OutcomePass {
		t.Errorf("15:00 start on a school day: got %s (%s), want pass", r.Outcome, r.ErrorMessage)
	}
}

// =============================================================================
// DOCUMENTATION
// =============================================================================

func TestDocuments_MissingConsentFails(t *testing.T) {
	// GIVEN: A working minor with no parental consent on file
	// WHEN: The week is evaluated
	// THEN: The consent rule fails with status missing

	emp := employeeAged(date(2010, time.March, 1))
	docs := allDocs()[1:] // drop consent
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 6, "09:00", "12:00", "3", false),
	}

	results := evaluate(emp, schoolYearWeek, entries, docs)
	r := findResult(t, results, "doc-parental-consent")
	if r.Outcome != compliance.OutcomeFail {
		t.Fatalf("missing consent: got %s, want fail", r.Outcome)
	}
	if r.Detail["status"] != "missing" {
		t.Errorf("detail status = %v, want missing", r.Detail["status"])
	}
}

func TestDocuments_RevokedAndExpired(t *testing.T) {
	// GIVEN: A revoked consent and a work permit that expired before the check
	// WHEN: The week is evaluated
	// THEN: Both rules fail with their distinct statuses

	emp := employeeAged(date(2010, time.March, 1))
	revokedAt := date(2025, time.September, 1)
	expired := date(2025, time.October, 1) // before the check date
	docs := []labor.ComplianceDocument{
		{ID: "d1", EmployeeID: "emp-1", Type: labor.DocParentalConsent, InvalidatedAt: &revokedAt},
		{ID: "d2", EmployeeID: "emp-1", Type: labor.DocWorkPermit, ExpiresAt: &expired},
		{ID: "d3", EmployeeID: "emp-1", Type: labor.DocSafetyTraining},
	}
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 6, "09:00", "12:00", "3", false),
	}

	results := evaluate(emp, schoolYearWeek, entries, docs)
	if r := findResult(t, results, "doc-parental-consent"); r.Detail["status"] != "revoked" {
		t.Errorf("consent status = %v, want revoked", r.Detail["status"])
	}
	if r := findResult(t, results, "doc-work-permit"); r.Detail["status"] != "expired" {
		t.Errorf("permit status = %v, want expired", r.Detail["status"])
	}
	// Expiry never blocks the consent rule; only the permit checks it.
	if r := findResult(t, results, "doc-safety-training"); r.Outcome != compliance.OutcomePass {
		t.Errorf("safety training on file: got %s, want pass", r.Outcome)
	}
}

// =============================================================================
// ENGINE-LEVEL BEHAVIOR
// =============================================================================

func TestAdultWeek_NoRulesApply(t *testing.T) {
	// GIVEN: An adult working a heavy week with no documents at all
	// WHEN: The week is evaluated
	// THEN: No rules run and the week is trivially submit-eligible

	emp := employeeAged(date(1990, time.January, 1))
	var entries []labor.WorkEntry
	for day := 0; day < 7; day++ {
		entries = append(entries, shift(schoolYearWeek, day, "06:00", "18:00", "12", false))
	}

	results := evaluate(emp, schoolYearWeek, entries, nil)
	if len(results) != 0 {
		t.Errorf("adult week produced %d results, want 0", len(results))
	}
	if !compliance.SubmitEligible(results) {
		t.Error("adult week must be submit-eligible")
	}
}

func TestEvaluateWeek_NeverShortCircuits(t *testing.T) {
	// GIVEN: A week violating several rules at once
	// WHEN: The week is evaluated
	// THEN: Every applicable rule reports, and Failures collects them all

	emp := employeeAged(date(2012, time.March, 1)) // 13
	entries := []labor.WorkEntry{
		// 6 hours during school hours: breaks the daily cap, the school-hours
		// prohibition, and (with no documents) all three document rules.
		shift(schoolYearWeek, 1, "08:00", "14:00", "6", true),
	}

	results := evaluate(emp, schoolYearWeek, entries, nil)
	fails := compliance.Failures(results)
	if len(fails) < 4 {
		t.Errorf("got %d failures, want at least 4 (daily cap, school hours, consent, safety training)", len(fails))
	}
	if compliance.SubmitEligible(results) {
		t.Error("violating week must not be submit-eligible")
	}

	// The full result list still includes passing rules.
	if len(results) <= len(fails) {
		t.Errorf("results (%d) should also carry non-failing rules", len(results))
	}
}

func TestSubmitEligible_ZeroFailuresOnly(t *testing.T) {
	// GIVEN: A fully compliant minor week
	// WHEN: The week is evaluated
	// THEN: Zero failures and the week is eligible

	emp := employeeAged(date(2010, time.March, 1))
	entries := []labor.WorkEntry{
		shift(schoolYearWeek, 1, "15:30", "17:30", "2", true),
		shift(schoolYearWeek, 6, "08:00", "12:00", "4", false),
	}

	results := evaluate(emp, schoolYearWeek, entries, allDocs())
	if fails := compliance.Failures(results); len(fails) != 0 {
		for _, f := range fails {
			t.Logf("unexpected failure: %s: %s", f.RuleID, f.ErrorMessage)
		}
		t.Fatalf("compliant week produced %d failures", len(fails))
	}
	if !compliance.SubmitEligible(results) {
		t.Error("compliant week must be submit-eligible")
	}
}
