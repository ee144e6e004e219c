/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates employees, task codes
	with rate histories, compliance documents, and a week of entries that
	demonstrates a specific compliance or payroll behavior.

AVAILABLE SCENARIOS:

	clean-minor:      15-year-old with a compliant school week, all documents
	over-limit:       15-year-old exceeding school-day hour caps
	summer-window:    13-year-old using the extended summer evening window
	adult-overtime:   Adult picker past 40 non-agricultural hours

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create task codes and wage rates
 3. Create employees with documents
 4. Open a week and add entries

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Submission and payroll handlers these feed into
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/compliance"
	"github.com/harvestrow/labor-engine/labor"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		Name:        "clean-minor",
		Description: "15-year-old cashier, compliant school week, all documents on file",
	},
	{
		Name:        "over-limit",
		Description: "15-year-old exceeding the 3h school-day cap and 18h school-week cap",
	},
	{
		Name:        "summer-window",
		Description: "13-year-old berry sorter working summer evenings until 21:00",
	},
	{
		Name:        "adult-overtime",
		Description: "Adult worker past 40 non-agricultural hours, overtime premium due",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.Name {
	case "clean-minor":
		err = h.loadCleanMinorScenario(ctx)
	case "over-limit":
		err = h.loadOverLimitScenario(ctx)
	case "summer-window":
		err = h.loadSummerWindowScenario(ctx)
	case "adult-overtime":
		err = h.loadAdultOvertimeScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.Name), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.Name
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.Name})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seed bundles the shared task codes every scenario uses.
type seed struct {
	cashier labor.TaskCode // non-agricultural
	sorter  labor.TaskCode // agricultural
	picker  labor.TaskCode // agricultural
}

func (h *Handler) seedTaskCodes(ctx context.Context) (*seed, error) {
	s := &seed{
		cashier: labor.TaskCode{
			ID:          uuid.NewString(),
			Code:        "CASH-01",
			Description: "Farm stand cashier",
			Supervision: labor.SupervisionForMinors,
		},
		sorter: labor.TaskCode{
			ID:             uuid.NewString(),
			Code:           "SORT-01",
			Description:    "Berry sorting",
			IsAgricultural: true,
			MinAge:         12,
		},
		picker: labor.TaskCode{
			ID:             uuid.NewString(),
			Code:           "PICK-01",
			Description:    "Field picking",
			IsAgricultural: true,
			MinAge:         14,
		},
	}

	today := h.today()
	for _, tc := range []labor.TaskCode{s.cashier, s.sorter, s.picker} {
		if err := h.Store.CreateTaskCode(ctx, tc); err != nil {
			return nil, err
		}
	}
	rates := []labor.TaskCodeRate{
		{ID: uuid.NewString(), TaskCodeID: s.cashier.ID, HourlyRate: decimal.RequireFromString("12.50"), EffectiveDate: today},
		{ID: uuid.NewString(), TaskCodeID: s.sorter.ID, HourlyRate: decimal.RequireFromString("9.00"), EffectiveDate: today},
		{ID: uuid.NewString(), TaskCodeID: s.picker.ID, HourlyRate: decimal.RequireFromString("11.00"), EffectiveDate: today},
	}
	for _, rt := range rates {
		if err := h.Store.AddRate(ctx, rt); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (h *Handler) seedEmployee(ctx context.Context, name string, age int, docs ...labor.DocumentType) (*labor.Employee, error) {
	dob := h.today().AddDate(-age, 0, -30) // birthday about a month ago
	emp := labor.Employee{
		ID:          uuid.NewString(),
		Name:        name,
		DateOfBirth: dob,
		Status:      labor.EmployeeActive,
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return nil, err
	}
	for _, dt := range docs {
		doc := labor.ComplianceDocument{
			ID:         uuid.NewString(),
			EmployeeID: emp.ID,
			Type:       dt,
			UploadedAt: h.now(),
		}
		if dt == labor.DocWorkPermit {
			expires := h.today().AddDate(1, 0, 0)
			doc.ExpiresAt = &expires
		}
		if err := h.Store.AddDocument(ctx, doc); err != nil {
			return nil, err
		}
	}
	return &emp, nil
}

func (h *Handler) seedWeek(ctx context.Context, employeeID string) (*labor.Timesheet, error) {
	ts := labor.Timesheet{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		WeekStart:  labor.WeekStartFor(h.today()),
		Status:     labor.WeekOpen,
	}
	if err := h.Store.CreateTimesheet(ctx, ts); err != nil {
		return nil, err
	}
	return &ts, nil
}

func (h *Handler) seedEntry(ctx context.Context, ts *labor.Timesheet, dayOffset int,
	start, end string, taskCodeID string, schoolDay bool) error {

	startMin, err := compliance.TimeToMinutes(start)
	if err != nil {
		return err
	}
	endMin, err := compliance.TimeToMinutes(end)
	if err != nil {
		return err
	}
	hours, err := labor.EntryHours(startMin, endMin)
	if err != nil {
		return err
	}

	return h.Store.AddEntry(ctx, labor.WorkEntry{
		ID:          uuid.NewString(),
		TimesheetID: ts.ID,
		WorkDate:    ts.WeekStart.AddDate(0, 0, dayOffset),
		StartTime:   start,
		EndTime:     end,
		TaskCodeID:  taskCodeID,
		Hours:       hours,
		IsSchoolDay: schoolDay,
	})
}

// loadCleanMinorScenario: a 15-year-old cashier with every document on file,
// two short after-school shifts and one Saturday shift. Submits clean.
func (h *Handler) loadCleanMinorScenario(ctx context.Context) error {
	s, err := h.seedTaskCodes(ctx)
	if err != nil {
		return err
	}
	emp, err := h.seedEmployee(ctx, "Maya Torres", 15,
		labor.DocParentalConsent, labor.DocWorkPermit, labor.DocSafetyTraining)
	if err != nil {
		return err
	}
	ts, err := h.seedWeek(ctx, emp.ID)
	if err != nil {
		return err
	}

	// Mon and Wed after school, Sat morning. 2 + 2 + 4 = 8 hours.
	if err := h.seedEntry(ctx, ts, 1, "15:30", "17:30", s.cashier.ID, true); err != nil {
		return err
	}
	if err := h.seedEntry(ctx, ts, 3, "15:30", "17:30", s.cashier.ID, true); err != nil {
		return err
	}
	return h.seedEntry(ctx, ts, 6, "08:00", "12:00", s.cashier.ID, false)
}

// loadOverLimitScenario: same profile but every school day runs 4 hours,
// breaking both the 3h school-day cap and the 18h school-week cap.
func (h *Handler) loadOverLimitScenario(ctx context.Context) error {
	s, err := h.seedTaskCodes(ctx)
	if err != nil {
		return err
	}
	emp, err := h.seedEmployee(ctx, "Jordan Pike", 15,
		labor.DocParentalConsent, labor.DocWorkPermit, labor.DocSafetyTraining)
	if err != nil {
		return err
	}
	ts, err := h.seedWeek(ctx, emp.ID)
	if err != nil {
		return err
	}

	for day := 1; day <= 5; day++ { // Mon-Fri, 4h each
		if err := h.seedEntry(ctx, ts, day, "15:30", "19:30", s.cashier.ID, true); err != nil {
			return err
		}
	}
	return nil
}

// loadSummerWindowScenario: a 13-year-old sorting berries on summer evenings.
// Legal until 21:00 in summer, a violation any other time of year.
func (h *Handler) loadSummerWindowScenario(ctx context.Context) error {
	s, err := h.seedTaskCodes(ctx)
	if err != nil {
		return err
	}
	emp, err := h.seedEmployee(ctx, "Sam Okafor", 13,
		labor.DocParentalConsent, labor.DocSafetyTraining)
	if err != nil {
		return err
	}
	ts, err := h.seedWeek(ctx, emp.ID)
	if err != nil {
		return err
	}

	// Three evening shifts, no school days.
	for _, day := range []int{1, 3, 5} {
		if err := h.seedEntry(ctx, ts, day, "18:00", "21:00", s.sorter.ID, false); err != nil {
			return err
		}
	}
	return nil
}

// loadAdultOvertimeScenario: an adult splitting the week between the field
// and the register, with 44 register hours pushing past the overtime line.
func (h *Handler) loadAdultOvertimeScenario(ctx context.Context) error {
	s, err := h.seedTaskCodes(ctx)
	if err != nil {
		return err
	}
	emp, err := h.seedEmployee(ctx, "Dana Whitfield", 34)
	if err != nil {
		return err
	}
	ts, err := h.seedWeek(ctx, emp.ID)
	if err != nil {
		return err
	}

	// Mon-Fri 8h at the register, Sat 4h more: 44 non-agricultural hours.
	for day := 1; day <= 5; day++ {
		if err := h.seedEntry(ctx, ts, day, "08:00", "16:00", s.cashier.ID, false); err != nil {
			return err
		}
	}
	if err := h.seedEntry(ctx, ts, 6, "08:00", "12:00", s.cashier.ID, false); err != nil {
		return err
	}
	// Plus a Sunday morning in the field for the agricultural bucket.
	return h.seedEntry(ctx, ts, 0, "07:00", "11:00", s.picker.ID, false)
}
