/*
engine.go - Payroll calculation

ALGORITHM (decimal arithmetic throughout, 2-place rounding only at output):
  1. Resolve each entry's effective rate as of its work date; entry
     earnings = rate x hours.
  2. Accumulate hours and earnings into two buckets by the task code's
     agricultural flag.
  3. Validate each resolved rate against the statutory floor for its
     bucket; below-floor rates log a warning, payroll still computes.
  4. Overtime applies only to the non-agricultural bucket above 40h/week.
     The premium is overtimeHours x (weightedAvgNonAgRate x 0.5): regular
     earnings already carry the 1.0x component, only the extra half is
     added.
  5. Total = agricultural + non-agricultural + overtime premium.
  6. Persist one record; period is the week's Sunday through Saturday.

IDEMPOTENCY:
  Calculate on a week that already has a record returns that record
  unchanged. Two concurrent calculations race past the existence check; the
  database's one-record-per-week unique index decides the winner, and the
  loser re-fetches. Recalculate deletes the record and reruns, and is only
  legal on approved weeks.
*/
package payroll

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/labor"
)

// =============================================================================
// RECORD
// =============================================================================

// Record is one immutable payroll result per approved week.
type Record struct {
	ID          string
	TimesheetID string
	PeriodStart time.Time
	PeriodEnd   time.Time

	AgHours          decimal.Decimal
	AgEarnings       decimal.Decimal
	NonAgHours       decimal.Decimal
	NonAgEarnings    decimal.Decimal
	OvertimeHours    decimal.Decimal
	OvertimeEarnings decimal.Decimal
	TotalEarnings    decimal.Decimal

	CalculatedAt time.Time
	ExportedAt   *time.Time
}

// Floors are the statutory minimum wages per bucket. Rates below the floor
// produce warnings, never calculation failures.
type Floors struct {
	Agricultural    decimal.Decimal
	NonAgricultural decimal.Decimal
}

// Warning is a non-blocking discrepancy found during calculation, logged for
// operator follow-up.
type Warning struct {
	TaskCodeID string
	WorkDate   time.Time
	Rate       decimal.Decimal
	Floor      decimal.Decimal
}

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store is the persistence the engine needs. The sqlite store satisfies it.
type Store interface {
	GetTimesheet(ctx context.Context, id string) (*labor.Timesheet, error)
	ListEntries(ctx context.Context, timesheetID string) ([]labor.WorkEntry, error)
	GetTaskCode(ctx context.Context, id string) (*labor.TaskCode, error)
	ListRates(ctx context.Context, taskCodeID string) ([]labor.TaskCodeRate, error)

	// GetPayrollByTimesheet returns labor.ErrNotFound when absent.
	GetPayrollByTimesheet(ctx context.Context, timesheetID string) (*Record, error)

	// InsertPayroll returns labor.ErrAlreadyExists when the week already has
	// a record (unique index on timesheet_id).
	InsertPayroll(ctx context.Context, rec Record) error

	DeletePayroll(ctx context.Context, timesheetID string) error
}

// =============================================================================
// ENGINE
// =============================================================================

var overtimeThreshold = decimal.NewFromInt(40)

// Engine calculates payroll for approved weeks. Stateless between calls; the
// injectable clock keeps tests deterministic.
type Engine struct {
	Store  Store
	Floors Floors
	Now    func() time.Time
}

func NewEngine(store Store, floors Floors) *Engine {
	return &Engine{Store: store, Floors: floors, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Calculate produces the payroll record for an approved week. If a record
// already exists it is returned unchanged.
func (e *Engine) Calculate(ctx context.Context, timesheetID string) (*Record, error) {
	ts, err := e.Store.GetTimesheet(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts.Status != labor.WeekApproved {
		return nil, &labor.WeekStateError{
			TimesheetID: ts.ID, Current: ts.Status, Required: labor.WeekApproved, Op: "calculate payroll",
		}
	}

	existing, err := e.Store.GetPayrollByTimesheet(ctx, timesheetID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, labor.ErrNotFound) {
		return nil, err
	}

	rec, warnings, err := e.compute(ctx, ts)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Printf("payroll: rate %s below minimum wage %s for task code %s on %s (timesheet %s)",
			w.Rate.StringFixed(2), w.Floor.StringFixed(2), w.TaskCodeID,
			w.WorkDate.Format("2006-01-02"), timesheetID)
	}

	if err := e.Store.InsertPayroll(ctx, *rec); err != nil {
		if errors.Is(err, labor.ErrAlreadyExists) {
			// Lost the check-then-insert race: another request persisted
			// first. Return theirs.
			return e.Store.GetPayrollByTimesheet(ctx, timesheetID)
		}
		return nil, err
	}
	return rec, nil
}

// Recalculate deletes the existing record and reruns the calculation from
// scratch. Used after rate corrections; refused on non-approved weeks.
func (e *Engine) Recalculate(ctx context.Context, timesheetID string) (*Record, error) {
	ts, err := e.Store.GetTimesheet(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	if ts.Status != labor.WeekApproved {
		return nil, &labor.WeekStateError{
			TimesheetID: ts.ID, Current: ts.Status, Required: labor.WeekApproved, Op: "recalculate payroll",
		}
	}
	if err := e.Store.DeletePayroll(ctx, timesheetID); err != nil && !errors.Is(err, labor.ErrNotFound) {
		return nil, err
	}
	return e.Calculate(ctx, timesheetID)
}

// compute runs steps 1-5 over the week's entries.
func (e *Engine) compute(ctx context.Context, ts *labor.Timesheet) (*Record, []Warning, error) {
	entries, err := e.Store.ListEntries(ctx, ts.ID)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	agHours, agEarnings := decimal.Zero, decimal.Zero
	nonAgHours, nonAgEarnings := decimal.Zero, decimal.Zero

	// Per-run caches: one task-code and one rate-history fetch per code.
	codes := make(map[string]*labor.TaskCode)
	histories := make(map[string][]labor.TaskCodeRate)

	for _, entry := range entries {
		code, ok := codes[entry.TaskCodeID]
		if !ok {
			code, err = e.Store.GetTaskCode(ctx, entry.TaskCodeID)
			if err != nil {
				return nil, nil, err
			}
			codes[entry.TaskCodeID] = code
			histories[entry.TaskCodeID], err = e.Store.ListRates(ctx, entry.TaskCodeID)
			if err != nil {
				return nil, nil, err
			}
		}

		rate, err := ResolveRate(histories[entry.TaskCodeID], entry.WorkDate)
		if err != nil {
			return nil, nil, &NoRateError{TaskCodeID: entry.TaskCodeID, WorkDate: labor.DateOnly(entry.WorkDate)}
		}

		floor := e.Floors.NonAgricultural
		if code.IsAgricultural {
			floor = e.Floors.Agricultural
		}
		if rate.LessThan(floor) {
			warnings = append(warnings, Warning{
				TaskCodeID: entry.TaskCodeID,
				WorkDate:   labor.DateOnly(entry.WorkDate),
				Rate:       rate,
				Floor:      floor,
			})
		}

		earnings := rate.Mul(entry.Hours)
		if code.IsAgricultural {
			agHours = agHours.Add(entry.Hours)
			agEarnings = agEarnings.Add(earnings)
		} else {
			nonAgHours = nonAgHours.Add(entry.Hours)
			nonAgEarnings = nonAgEarnings.Add(earnings)
		}
	}

	// Overtime premium: non-agricultural bucket only, above 40h. Regular
	// earnings already include the 1.0x component; add only the 0.5x.
	otHours, otEarnings := decimal.Zero, decimal.Zero
	if nonAgHours.GreaterThan(overtimeThreshold) {
		otHours = nonAgHours.Sub(overtimeThreshold)
		avgRate := nonAgEarnings.Div(nonAgHours)
		otEarnings = otHours.Mul(avgRate).Mul(decimal.NewFromFloat(0.5))
	}

	total := agEarnings.Add(nonAgEarnings).Add(otEarnings)

	return &Record{
		ID:               uuid.NewString(),
		TimesheetID:      ts.ID,
		PeriodStart:      labor.DateOnly(ts.WeekStart),
		PeriodEnd:        labor.DateOnly(ts.WeekEnd()),
		AgHours:          agHours.Round(2),
		AgEarnings:       agEarnings.Round(2),
		NonAgHours:       nonAgHours.Round(2),
		NonAgEarnings:    nonAgEarnings.Round(2),
		OvertimeHours:    otHours.Round(2),
		OvertimeEarnings: otEarnings.Round(2),
		TotalEarnings:    total.Round(2),
		CalculatedAt:     e.now().UTC(),
	}, warnings, nil
}
