/*
Package payroll computes earnings for approved work weeks.

PURPOSE:
  Consumes an approved week's entries plus the effective-dated rate history
  and produces one immutable earnings record: regular agricultural, regular
  non-agricultural, and the overtime premium. All arithmetic is
  decimal.Decimal; rounding to 2 places happens only at output.

KEY CONCEPTS:
  - Effective-rate resolution (rates.go): the rate in force on a date is
    the most recent rate with EffectiveDate <= date. No rate is a hard
    error - silently paying $0 is unacceptable.
  - Calculation (engine.go): bucket by agricultural flag, overtime premium
    on the non-agricultural bucket above 40h, idempotent per week.

SEE ALSO:
  - compliance/: gates weeks before they can ever reach approval
  - labor/: the record types consumed here
*/
package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/labor"
)

// ErrNoRateFound is returned when a task code has no rate in force on a work
// date. This is a hard error, never a zero-rate fallback.
var ErrNoRateFound = errors.New("no rate found")

// NoRateError carries the lookup that failed.
type NoRateError struct {
	TaskCodeID string
	WorkDate   time.Time
}

func (e *NoRateError) Error() string {
	return fmt.Sprintf("no rate found for task code %s on %s",
		e.TaskCodeID, e.WorkDate.Format("2006-01-02"))
}

func (e *NoRateError) Unwrap() error { return ErrNoRateFound }

// ResolveRate selects from a task code's rate history the rate with the
// maximum effective date that is <= workDate. The history may arrive in any
// order; ties on effective date resolve to the later-created rate, matching
// append-only history semantics.
func ResolveRate(rates []labor.TaskCodeRate, workDate time.Time) (decimal.Decimal, error) {
	day := labor.DateOnly(workDate)
	found := false
	var best labor.TaskCodeRate
	for _, r := range rates {
		eff := labor.DateOnly(r.EffectiveDate)
		if eff.After(day) {
			continue
		}
		if !found || eff.After(labor.DateOnly(best.EffectiveDate)) ||
			(eff.Equal(labor.DateOnly(best.EffectiveDate)) && r.CreatedAt.After(best.CreatedAt)) {
			best = r
			found = true
		}
	}
	if !found {
		taskCodeID := ""
		if len(rates) > 0 {
			taskCodeID = rates[0].TaskCodeID
		}
		return decimal.Zero, &NoRateError{TaskCodeID: taskCodeID, WorkDate: day}
	}
	return best.HourlyRate, nil
}
