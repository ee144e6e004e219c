package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestrow/labor-engine/compliance"
	"github.com/harvestrow/labor-engine/labor"
	"github.com/harvestrow/labor-engine/payroll"
)

func newTestStore(t *testing.T) *Store {
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployeeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := labor.Employee{
		ID:          "emp-1",
		Name:        "Maya Torres",
		DateOfBirth: day(2010, time.June, 15),
		Status:      labor.EmployeeActive,
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Maya Torres", got.Name)
	assert.True(t, got.DateOfBirth.Equal(emp.DateOfBirth))
	assert.Equal(t, labor.EmployeeActive, got.Status)

	_, err = store.GetEmployee(ctx, "missing")
	assert.ErrorIs(t, err, labor.ErrNotFound)
}

func TestSaveEmployee_UpsertKeepsDateOfBirth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := labor.Employee{ID: "emp-1", Name: "Before", DateOfBirth: day(2010, time.June, 15), Status: labor.EmployeeActive}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	emp.Name = "After"
	emp.DateOfBirth = day(1999, time.January, 1) // must be ignored on update
	require.NoError(t, store.SaveEmployee(ctx, emp))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.True(t, got.DateOfBirth.Equal(day(2010, time.June, 15)), "date of birth is immutable")
}

// =============================================================================
// TASK CODES AND RATES
// =============================================================================

func TestCreateTaskCode_DuplicateCodeIsAlreadyExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tc := labor.TaskCode{ID: "tc-1", Code: "CASH-01", Supervision: labor.SupervisionNone}
	require.NoError(t, store.CreateTaskCode(ctx, tc))

	dup := labor.TaskCode{ID: "tc-2", Code: "CASH-01", Supervision: labor.SupervisionNone}
	err := store.CreateTaskCode(ctx, dup)
	assert.ErrorIs(t, err, labor.ErrAlreadyExists)

	// The original is still retrievable by code for the re-fetch path.
	got, err := store.GetTaskCodeByCode(ctx, "CASH-01")
	require.NoError(t, err)
	assert.Equal(t, "tc-1", got.ID)
}

func TestListRates_OrderedByEffectiveThenCreated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateTaskCode(ctx, labor.TaskCode{ID: "tc-1", Code: "SORT-01", Supervision: labor.SupervisionNone}))

	// Insert newest first; listing must come back oldest first.
	newer := labor.TaskCodeRate{ID: "r2", TaskCodeID: "tc-1", HourlyRate: decimal.RequireFromString("9.00"), EffectiveDate: day(2025, time.June, 1)}
	older := labor.TaskCodeRate{ID: "r1", TaskCodeID: "tc-1", HourlyRate: decimal.RequireFromString("8.00"), EffectiveDate: day(2025, time.January, 1)}
	require.NoError(t, store.AddRate(ctx, newer))
	require.NoError(t, store.AddRate(ctx, older))

	rates, err := store.ListRates(ctx, "tc-1")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "r1", rates[0].ID)
	assert.Equal(t, "r2", rates[1].ID)
	assert.Equal(t, "8.00", rates[0].HourlyRate.StringFixed(2))
}

// =============================================================================
// TIMESHEETS AND ENTRIES
// =============================================================================

func TestCreateTimesheet_OnePerEmployeeWeek(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "emp-1", Name: "A", DateOfBirth: day(2008, time.March, 1), Status: labor.EmployeeActive,
	}))

	weekStart := day(2025, time.October, 5)
	ts := labor.Timesheet{ID: "ts-1", EmployeeID: "emp-1", WeekStart: weekStart, Status: labor.WeekOpen}
	require.NoError(t, store.CreateTimesheet(ctx, ts))

	dup := labor.Timesheet{ID: "ts-2", EmployeeID: "emp-1", WeekStart: weekStart, Status: labor.WeekOpen}
	assert.ErrorIs(t, store.CreateTimesheet(ctx, dup), labor.ErrAlreadyExists)

	got, err := store.GetTimesheetByWeek(ctx, "emp-1", weekStart)
	require.NoError(t, err)
	assert.Equal(t, "ts-1", got.ID)

	// A different week is fine.
	other := labor.Timesheet{ID: "ts-3", EmployeeID: "emp-1", WeekStart: weekStart.AddDate(0, 0, 7), Status: labor.WeekOpen}
	assert.NoError(t, store.CreateTimesheet(ctx, other))
}

func TestUpdateTimesheetStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "emp-1", Name: "A", DateOfBirth: day(2008, time.March, 1), Status: labor.EmployeeActive,
	}))
	require.NoError(t, store.CreateTimesheet(ctx, labor.Timesheet{
		ID: "ts-1", EmployeeID: "emp-1", WeekStart: day(2025, time.October, 5), Status: labor.WeekOpen,
	}))

	require.NoError(t, store.UpdateTimesheetStatus(ctx, "ts-1", labor.WeekSubmitted))
	got, err := store.GetTimesheet(ctx, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, labor.WeekSubmitted, got.Status)

	assert.ErrorIs(t, store.UpdateTimesheetStatus(ctx, "missing", labor.WeekApproved), labor.ErrNotFound)
}

func TestListEntries_OrderedByDateThenStart(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "emp-1", Name: "A", DateOfBirth: day(2008, time.March, 1), Status: labor.EmployeeActive,
	}))
	require.NoError(t, store.CreateTaskCode(ctx, labor.TaskCode{ID: "tc-1", Code: "CASH-01", Supervision: labor.SupervisionNone}))
	require.NoError(t, store.CreateTimesheet(ctx, labor.Timesheet{
		ID: "ts-1", EmployeeID: "emp-1", WeekStart: day(2025, time.October, 5), Status: labor.WeekOpen,
	}))

	mk := func(id string, d time.Time, start, end string) labor.WorkEntry {
		return labor.WorkEntry{
			ID: id, TimesheetID: "ts-1", WorkDate: d,
			StartTime: start, EndTime: end, TaskCodeID: "tc-1",
			Hours: decimal.RequireFromString("2"),
		}
	}
	require.NoError(t, store.AddEntry(ctx, mk("e3", day(2025, time.October, 7), "15:00", "17:00")))
	require.NoError(t, store.AddEntry(ctx, mk("e2", day(2025, time.October, 6), "15:00", "17:00")))
	require.NoError(t, store.AddEntry(ctx, mk("e1", day(2025, time.October, 6), "08:00", "10:00")))

	entries, err := store.ListEntries(ctx, "ts-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestRevokeDocument_SoftAndOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "emp-1", Name: "A", DateOfBirth: day(2010, time.June, 15), Status: labor.EmployeeActive,
	}))
	require.NoError(t, store.AddDocument(ctx, labor.ComplianceDocument{
		ID: "doc-1", EmployeeID: "emp-1", Type: labor.DocParentalConsent,
	}))

	require.NoError(t, store.RevokeDocument(ctx, "doc-1", day(2025, time.October, 1)))

	docs, err := store.ListDocuments(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, docs, 1, "revoked documents stay on file")
	assert.True(t, docs[0].Revoked())

	// Second revocation finds no un-revoked row.
	assert.ErrorIs(t, store.RevokeDocument(ctx, "doc-1", day(2025, time.October, 2)), labor.ErrNotFound)
}

// =============================================================================
// CHECK RESULTS
// =============================================================================

func TestCheckResults_LatestSubmissionWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "emp-1", Name: "A", DateOfBirth: day(2010, time.June, 15), Status: labor.EmployeeActive,
	}))
	require.NoError(t, store.CreateTimesheet(ctx, labor.Timesheet{
		ID: "ts-1", EmployeeID: "emp-1", WeekStart: day(2025, time.October, 5), Status: labor.WeekOpen,
	}))

	first := []compliance.Result{
		{
			RuleID: "daily-hours-12-13", RuleName: "Daily hour limit (12-13)",
			Category: compliance.CategoryHours, Outcome: compliance.OutcomeFail,
			ErrorMessage:        "worked 5 hours on 2025-10-06; daily limit for ages 12-13 is 4",
			RemediationGuidance: "Shorten the shift.",
			AffectedDates:       []string{"2025-10-06"},
			AffectedEntries:     []string{"e1"},
			Detail:              map[string]any{"limitHours": "4", "actualValue": "5"},
			AgeAtCheck:          13,
		},
	}
	require.NoError(t, store.SaveCheckResults(ctx, "ts-1", day(2025, time.October, 10), first))

	// Resubmission after correction.
	second := []compliance.Result{
		{
			RuleID: "daily-hours-12-13", RuleName: "Daily hour limit (12-13)",
			Category: compliance.CategoryHours, Outcome: compliance.OutcomePass,
			Detail:     map[string]any{"limitHours": "4"},
			AgeAtCheck: 13,
		},
		{
			RuleID: "weekly-hours-12-13", RuleName: "Weekly hour limit (12-13)",
			Category: compliance.CategoryHours, Outcome: compliance.OutcomePass,
			AgeAtCheck: 13,
		},
	}
	require.NoError(t, store.SaveCheckResults(ctx, "ts-1", day(2025, time.October, 11), second))

	got, err := store.LatestCheckResults(ctx, "ts-1")
	require.NoError(t, err)
	require.Len(t, got, 2, "only the latest submission's rows")
	assert.Equal(t, compliance.OutcomePass, got[0].Outcome)
	assert.Equal(t, 13, got[0].AgeAtCheck)
	assert.Equal(t, "4", got[0].Detail["limitHours"])
}

// =============================================================================
// PAYROLL RECORDS
// =============================================================================

func payrollRecord(id, timesheetID string) payroll.Record {
	return payroll.Record{
		ID:               id,
		TimesheetID:      timesheetID,
		PeriodStart:      day(2025, time.October, 5),
		PeriodEnd:        day(2025, time.October, 11),
		AgHours:          decimal.RequireFromString("4.00"),
		AgEarnings:       decimal.RequireFromString("44.00"),
		NonAgHours:       decimal.RequireFromString("40.00"),
		NonAgEarnings:    decimal.RequireFromString("500.00"),
		OvertimeHours:    decimal.Zero,
		OvertimeEarnings: decimal.Zero,
		TotalEarnings:    decimal.RequireFromString("544.00"),
		CalculatedAt:     time.Date(2025, time.October, 13, 9, 0, 0, 0, time.UTC),
	}
}

func seedApprovedWeek(t *testing.T, store *Store, ctx context.Context) {
	t.Helper()
	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "emp-1", Name: "A", DateOfBirth: day(1990, time.January, 1), Status: labor.EmployeeActive,
	}))
	require.NoError(t, store.CreateTimesheet(ctx, labor.Timesheet{
		ID: "ts-1", EmployeeID: "emp-1", WeekStart: day(2025, time.October, 5), Status: labor.WeekApproved,
	}))
}

func TestInsertPayroll_OneRecordPerWeek(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedApprovedWeek(t, store, ctx)

	require.NoError(t, store.InsertPayroll(ctx, payrollRecord("pay-1", "ts-1")))

	// The check-then-insert race loser lands here.
	err := store.InsertPayroll(ctx, payrollRecord("pay-2", "ts-1"))
	assert.ErrorIs(t, err, labor.ErrAlreadyExists)

	got, err := store.GetPayrollByTimesheet(ctx, "ts-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.ID)
	assert.Equal(t, "544.00", got.TotalEarnings.StringFixed(2))
	assert.Nil(t, got.ExportedAt)
}

func TestDeletePayroll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedApprovedWeek(t, store, ctx)

	require.NoError(t, store.InsertPayroll(ctx, payrollRecord("pay-1", "ts-1")))
	require.NoError(t, store.DeletePayroll(ctx, "ts-1"))

	_, err := store.GetPayrollByTimesheet(ctx, "ts-1")
	assert.ErrorIs(t, err, labor.ErrNotFound)
	assert.ErrorIs(t, store.DeletePayroll(ctx, "ts-1"), labor.ErrNotFound)
}

func TestMarkExported_StampsOnlyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedApprovedWeek(t, store, ctx)

	require.NoError(t, store.InsertPayroll(ctx, payrollRecord("pay-1", "ts-1")))

	firstExport := time.Date(2025, time.October, 14, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkExported(ctx, []string{"pay-1"}, firstExport))

	got, err := store.GetPayrollByTimesheet(ctx, "ts-1")
	require.NoError(t, err)
	require.NotNil(t, got.ExportedAt)
	assert.True(t, got.ExportedAt.Equal(firstExport))

	// Re-export keeps the original stamp.
	require.NoError(t, store.MarkExported(ctx, []string{"pay-1"}, firstExport.AddDate(0, 0, 1)))
	got, err = store.GetPayrollByTimesheet(ctx, "ts-1")
	require.NoError(t, err)
	assert.True(t, got.ExportedAt.Equal(firstExport), "exported_at is write-once")
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedApprovedWeek(t, store, ctx)
	require.NoError(t, store.InsertPayroll(ctx, payrollRecord("pay-1", "ts-1")))

	require.NoError(t, store.Reset(ctx))

	_, err := store.GetEmployee(ctx, "emp-1")
	assert.ErrorIs(t, err, labor.ErrNotFound)
	_, err = store.GetPayrollByTimesheet(ctx, "ts-1")
	assert.ErrorIs(t, err, labor.ErrNotFound)
}
