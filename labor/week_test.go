package labor

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStartFor_SnapsToSunday(t *testing.T) {
	sunday := day(2025, time.October, 5)

	tests := []struct {
		name string
		in   time.Time
	}{
		{"sunday itself", sunday},
		{"monday", day(2025, time.October, 6)},
		{"wednesday", day(2025, time.October, 8)},
		{"saturday", day(2025, time.October, 11)},
	}
	for _, tt := range tests {
		if got := WeekStartFor(tt.in); !got.Equal(sunday) {
			t.Errorf("%s: WeekStartFor = %s, want %s", tt.name, got, sunday)
		}
	}

	// The next Sunday starts a new week.
	if got := WeekStartFor(day(2025, time.October, 12)); !got.Equal(day(2025, time.October, 12)) {
		t.Errorf("next sunday: got %s", got)
	}
}

func TestTimesheet_ContainsDate(t *testing.T) {
	ts := Timesheet{WeekStart: day(2025, time.October, 5)}

	if !ts.ContainsDate(day(2025, time.October, 5)) {
		t.Error("week start is inside the span")
	}
	if !ts.ContainsDate(day(2025, time.October, 11)) {
		t.Error("week end is inside the span")
	}
	if ts.ContainsDate(day(2025, time.October, 4)) {
		t.Error("day before the week is outside")
	}
	if ts.ContainsDate(day(2025, time.October, 12)) {
		t.Error("day after the week is outside")
	}
}

func TestTimesheet_StateMachine(t *testing.T) {
	// GIVEN: An open week
	// WHEN: It is submitted, rejected, resubmitted, and approved
	// THEN: Each legal transition succeeds and each illegal one is a
	//       WeekStateError naming the required state

	ts := Timesheet{ID: "ts-1", Status: WeekOpen}

	if err := ts.Approve(); err == nil {
		t.Fatal("approving an open week must fail")
	}
	if err := ts.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ts.Status != WeekSubmitted {
		t.Fatalf("status = %s, want submitted", ts.Status)
	}

	if err := ts.Submit(); err == nil {
		t.Fatal("double submit must fail")
	} else {
		var stateErr *WeekStateError
		if !errors.As(err, &stateErr) {
			t.Fatalf("expected WeekStateError, got %T", err)
		}
		if stateErr.Required != WeekOpen {
			t.Errorf("required = %s, want open", stateErr.Required)
		}
	}

	if err := ts.Reject(); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if ts.Status != WeekOpen {
		t.Fatalf("rejected week returns to open, got %s", ts.Status)
	}

	if err := ts.Submit(); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if err := ts.Approve(); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ts.Reject(); err == nil {
		t.Fatal("rejecting an approved week must fail")
	}
}

func TestValidateEntryDate(t *testing.T) {
	ts := Timesheet{ID: "ts-1", WeekStart: day(2025, time.October, 5), Status: WeekOpen}

	if err := ts.ValidateEntryDate(day(2025, time.October, 8)); err != nil {
		t.Errorf("in-span date on open week: %v", err)
	}
	if err := ts.ValidateEntryDate(day(2025, time.October, 12)); err == nil {
		t.Error("out-of-span date must fail")
	}

	ts.Status = WeekSubmitted
	err := ts.ValidateEntryDate(day(2025, time.October, 8))
	if err == nil {
		t.Fatal("submitted week must not accept entries")
	}
	var stateErr *WeekStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected WeekStateError, got %T", err)
	}
}

func TestEntryHours(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		want     string
		wantErr  bool
	}{
		{"two hours", 8 * 60, 10 * 60, "2", false},
		{"quarter hour rounds", 8 * 60, 8*60 + 15, "0.25", false},
		{"one minute", 8 * 60, 8*60 + 1, "0.02", false},
		{"end equals start", 8 * 60, 8 * 60, "", true},
		{"end before start", 10 * 60, 8 * 60, "", true},
	}
	for _, tt := range tests {
		got, err := EntryHours(tt.start, tt.end)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("%s: hours = %s, want %s", tt.name, got, tt.want)
		}
	}
}
