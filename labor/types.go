/*
Package labor defines the records the compliance and payroll engines operate on.

PURPOSE:
  This package contains the domain types shared by every other package:
  employees, task codes and their effective-dated wage rates, weekly
  timesheets with their work entries, and compliance documents. It holds no
  business rules beyond structural invariants (week span, state machine,
  entry duration) - the interesting logic lives in the compliance and
  payroll packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: identity + date of birth. Age is NEVER stored; it is always
    derived from the date of birth as of a specific date, because a single
    week can span a birthday.
  - TaskCode: a labor classification (agricultural flag, hazard flag,
    minimum age, supervision level, cash/driving/machinery flags).
  - TaskCodeRate: an append-only, effective-dated hourly wage.
  - WorkEntry: one contiguous shift at minute precision.
  - ComplianceDocument: parental consent / work permit / safety training,
    soft-revocable, never hard-deleted.

DESIGN PRINCIPLES:
  1. Immutability: rates and payroll records are append-only; entries freeze
     once their week leaves the open state.
  2. Precision: decimal.Decimal for every hour and dollar quantity.
  3. Derived-not-stored: age and age band are computed per target date.

SEE ALSO:
  - week.go: Timesheet state machine and week-span invariants
  - compliance/: rule evaluation over these records
  - payroll/: earnings calculation over these records
*/
package labor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeArchived EmployeeStatus = "archived"
)

type Employee struct {
	ID           string
	Name         string
	DateOfBirth  time.Time
	IsSupervisor bool
	Status       EmployeeStatus
	CreatedAt    time.Time
}

// =============================================================================
// TASK CODES AND RATES
// =============================================================================

// SupervisionLevel states when a supervisor must attest an entry for this task.
type SupervisionLevel string

const (
	SupervisionNone      SupervisionLevel = "none"
	SupervisionForMinors SupervisionLevel = "for_minors"
	SupervisionAlways    SupervisionLevel = "always"
)

// TaskCode is a labor classification. The code itself is immutable identity
// once created; rates attach to it over time via TaskCodeRate.
type TaskCode struct {
	ID               string
	Code             string
	Description      string
	IsAgricultural   bool
	IsHazardous      bool
	MinAge           int
	Supervision      SupervisionLevel
	SoloCashHandling bool
	Driving          bool
	PowerMachinery   bool
	CreatedAt        time.Time
}

// TaskCodeRate is one effective-dated hourly wage for a task code.
// Rates are append-only: never edited, never deleted. The rate in force on a
// date is the most recent one with EffectiveDate <= date.
type TaskCodeRate struct {
	ID            string
	TaskCodeID    string
	HourlyRate    decimal.Decimal
	EffectiveDate time.Time
	CreatedAt     time.Time
}

// =============================================================================
// WORK ENTRIES
// =============================================================================

// WorkEntry is one contiguous shift. Start/end are wall-clock "HH:MM" strings
// in the organization's timezone; no timezone conversion happens anywhere.
// Immutable once the parent timesheet is no longer open.
type WorkEntry struct {
	ID                 string
	TimesheetID        string
	WorkDate           time.Time
	StartTime          string
	EndTime            string
	TaskCodeID         string
	Hours              decimal.Decimal
	IsSchoolDay        bool
	OverrideNote       string
	SupervisorName     string
	MealBreakConfirmed bool
	CreatedAt          time.Time
}

// EntryHours computes the decimal duration of a shift from its minute-precision
// times, rounded to 2 places. End must be after start; overnight shifts are
// not representable as a single entry.
func EntryHours(startMinutes, endMinutes int) (decimal.Decimal, error) {
	if endMinutes <= startMinutes {
		return decimal.Zero, fmt.Errorf("end time must be after start time")
	}
	return decimal.NewFromInt(int64(endMinutes - startMinutes)).
		Div(decimal.NewFromInt(60)).
		Round(2), nil
}

// =============================================================================
// COMPLIANCE DOCUMENTS
// =============================================================================

type DocumentType string

const (
	DocParentalConsent DocumentType = "parental_consent"
	DocWorkPermit      DocumentType = "work_permit"
	DocSafetyTraining  DocumentType = "safety_training"
)

// ComplianceDocument is a typed record belonging to an employee. Revocation is
// soft (InvalidatedAt set); documents are kept forever for audit.
type ComplianceDocument struct {
	ID            string
	EmployeeID    string
	Type          DocumentType
	ExpiresAt     *time.Time
	InvalidatedAt *time.Time
	UploadedAt    time.Time
}

// Revoked reports whether the document has been invalidated.
func (d ComplianceDocument) Revoked() bool { return d.InvalidatedAt != nil }

// ExpiredOn reports whether the document is expired as of the given date.
// Documents without an expiration never expire.
func (d ComplianceDocument) ExpiredOn(date time.Time) bool {
	return d.ExpiresAt != nil && d.ExpiresAt.Before(date)
}
