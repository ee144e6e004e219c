/*
errors.go - Shared sentinel errors

PURPOSE:
  Typed, caller-handled outcomes for expected conditions. Storage
  implementations map database-level failures (missing rows, unique
  constraint violations) onto these so callers can branch with errors.Is
  instead of string matching. Unknown storage errors propagate unmodified.

USAGE:
    if errors.Is(err, labor.ErrAlreadyExists) {
        // re-fetch and return the existing record
    }
*/
package labor

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned when an insert trips a uniqueness
	// constraint (duplicate task code, second payroll record for a week,
	// second timesheet for an employee-week). Callers treat this as
	// "already exists, re-fetch", never as a crash.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrRateInPast is returned when a new rate carries an effective date
	// before today. Rate history is append-only and forward-dated.
	ErrRateInPast = errors.New("rate effective date must not be in the past")
)
