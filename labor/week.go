/*
week.go - Timesheet state machine and week-span invariants

PURPOSE:
  A Timesheet is one employee x one Sunday-aligned 7-day period. This file
  owns the lifecycle (open -> submitted -> approved, with submitted -> open
  on rejection) and the invariant that every entry's work date falls inside
  the week's span.

STATE TRANSITIONS:
  open      --submit-->   submitted   (only when zero compliance failures)
  submitted --approve-->  approved
  submitted --reject-->   open        (returned for correction)

  Anything else is a WeekStateError. Entries can only be added while open.

SEE ALSO:
  - compliance/engine.go: produces the pass/fail gate for submit
  - payroll/engine.go: consumes approved weeks only
*/
package labor

import (
	"fmt"
	"time"
)

// =============================================================================
// TIMESHEET
// =============================================================================

type WeekStatus string

const (
	WeekOpen      WeekStatus = "open"
	WeekSubmitted WeekStatus = "submitted"
	WeekApproved  WeekStatus = "approved"
)

type Timesheet struct {
	ID         string
	EmployeeID string
	WeekStart  time.Time // always a Sunday
	Status     WeekStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WeekEnd returns the Saturday closing the 7-day span.
func (t Timesheet) WeekEnd() time.Time { return t.WeekStart.AddDate(0, 0, 6) }

// ContainsDate reports whether a work date falls within the week's span.
func (t Timesheet) ContainsDate(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(t.WeekStart)) && !day.After(DateOnly(t.WeekEnd()))
}

// WeekStartFor returns the Sunday of the week containing d.
func WeekStartFor(d time.Time) time.Time {
	day := DateOnly(d)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DateOnly truncates a time to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// STATE MACHINE
// =============================================================================

// WeekStateError is returned when an operation requires a week state it is
// not in (e.g., calculating payroll on a submitted week).
type WeekStateError struct {
	TimesheetID string
	Current     WeekStatus
	Required    WeekStatus
	Op          string
}

func (e *WeekStateError) Error() string {
	return fmt.Sprintf("%s: timesheet %s is %s, requires %s",
		e.Op, e.TimesheetID, e.Current, e.Required)
}

// Submit transitions open -> submitted. The caller is responsible for having
// run the compliance gate first; this only enforces the state machine.
func (t *Timesheet) Submit() error {
	if t.Status != WeekOpen {
		return &WeekStateError{TimesheetID: t.ID, Current: t.Status, Required: WeekOpen, Op: "submit"}
	}
	t.Status = WeekSubmitted
	return nil
}

// Approve transitions submitted -> approved.
func (t *Timesheet) Approve() error {
	if t.Status != WeekSubmitted {
		return &WeekStateError{TimesheetID: t.ID, Current: t.Status, Required: WeekSubmitted, Op: "approve"}
	}
	t.Status = WeekApproved
	return nil
}

// Reject transitions submitted -> open, returning the week for correction.
func (t *Timesheet) Reject() error {
	if t.Status != WeekSubmitted {
		return &WeekStateError{TimesheetID: t.ID, Current: t.Status, Required: WeekSubmitted, Op: "reject"}
	}
	t.Status = WeekOpen
	return nil
}

// ValidateEntryDate checks the week-span invariant and that the week still
// accepts changes. Entries are immutable once the week leaves open.
func (t Timesheet) ValidateEntryDate(workDate time.Time) error {
	if t.Status != WeekOpen {
		return &WeekStateError{TimesheetID: t.ID, Current: t.Status, Required: WeekOpen, Op: "add entry"}
	}
	if !t.ContainsDate(workDate) {
		return fmt.Errorf("work date %s outside week %s..%s",
			workDate.Format("2006-01-02"),
			t.WeekStart.Format("2006-01-02"),
			t.WeekEnd().Format("2006-01-02"))
	}
	return nil
}
