/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes for the REST API. Domain types never cross the HTTP boundary
  directly: every date is a "YYYY-MM-DD" string, every timestamp RFC3339,
  and every hour/dollar quantity a fixed-point decimal string with exactly
  two fraction digits. Clients never see floats.

SEE ALSO:
  - handlers.go: Where these are populated and parsed
*/
package api

// =============================================================================
// REQUESTS
// =============================================================================

type CreateEmployeeRequest struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	DateOfBirth  string `json:"date_of_birth"` // YYYY-MM-DD
	IsSupervisor bool   `json:"is_supervisor"`
}

type CreateTaskCodeRequest struct {
	Code             string `json:"code"`
	Description      string `json:"description"`
	IsAgricultural   bool   `json:"is_agricultural"`
	IsHazardous      bool   `json:"is_hazardous"`
	MinAge           int    `json:"min_age"`
	Supervision      string `json:"supervision"`
	SoloCashHandling bool   `json:"solo_cash_handling"`
	Driving          bool   `json:"driving"`
	PowerMachinery   bool   `json:"power_machinery"`
}

type AddRateRequest struct {
	HourlyRate    string `json:"hourly_rate"`    // decimal string
	EffectiveDate string `json:"effective_date"` // YYYY-MM-DD, today or later
}

type CreateTimesheetRequest struct {
	EmployeeID string `json:"employee_id"`
	WeekStart  string `json:"week_start"` // any date; snapped to its Sunday
}

type AddEntryRequest struct {
	WorkDate           string `json:"work_date"`  // YYYY-MM-DD
	StartTime          string `json:"start_time"` // HH:MM
	EndTime            string `json:"end_time"`   // HH:MM
	TaskCode           string `json:"task_code"`
	IsSchoolDay        bool   `json:"is_school_day"`
	OverrideNote       string `json:"override_note,omitempty"`
	SupervisorName     string `json:"supervisor_name,omitempty"`
	MealBreakConfirmed bool   `json:"meal_break_confirmed"`
}

type AddDocumentRequest struct {
	Type      string `json:"type"`                 // parental_consent | work_permit | safety_training
	ExpiresAt string `json:"expires_at,omitempty"` // YYYY-MM-DD
}

type ExportPayrollRequest struct {
	RecordIDs []string `json:"record_ids,omitempty"` // empty = all unexported
}

type LoadScenarioRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type EmployeeDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DateOfBirth  string `json:"date_of_birth"`
	Age          int    `json:"age"`      // as of today
	AgeBand      string `json:"age_band"` // as of today
	IsSupervisor bool   `json:"is_supervisor"`
	Status       string `json:"status"`
}

type TaskCodeDTO struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	Description      string `json:"description"`
	IsAgricultural   bool   `json:"is_agricultural"`
	IsHazardous      bool   `json:"is_hazardous"`
	MinAge           int    `json:"min_age"`
	Supervision      string `json:"supervision"`
	SoloCashHandling bool   `json:"solo_cash_handling"`
	Driving          bool   `json:"driving"`
	PowerMachinery   bool   `json:"power_machinery"`
}

type RateDTO struct {
	ID            string `json:"id"`
	TaskCodeID    string `json:"task_code_id"`
	HourlyRate    string `json:"hourly_rate"`
	EffectiveDate string `json:"effective_date"`
}

type EffectiveRateDTO struct {
	TaskCodeID string `json:"task_code_id"`
	Date       string `json:"date"`
	HourlyRate string `json:"hourly_rate"`
}

type TimesheetDTO struct {
	ID         string         `json:"id"`
	EmployeeID string         `json:"employee_id"`
	WeekStart  string         `json:"week_start"`
	WeekEnd    string         `json:"week_end"`
	Status     string         `json:"status"`
	TotalHours string         `json:"total_hours"`
	Entries    []WorkEntryDTO `json:"entries"`
}

type WorkEntryDTO struct {
	ID                 string `json:"id"`
	WorkDate           string `json:"work_date"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	TaskCode           string `json:"task_code"`
	TaskCodeID         string `json:"task_code_id"`
	Hours              string `json:"hours"`
	IsSchoolDay        bool   `json:"is_school_day"`
	OverrideNote       string `json:"override_note,omitempty"`
	SupervisorName     string `json:"supervisor_name,omitempty"`
	MealBreakConfirmed bool   `json:"meal_break_confirmed"`
}

type DocumentDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	Revoked    bool   `json:"revoked"`
	UploadedAt string `json:"uploaded_at"`
}

// RuleDTO describes one statutory rule, in evaluation order.
type RuleDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	AppliesTo []string `json:"applies_to"`
}

type CheckResultDTO struct {
	RuleID          string         `json:"rule_id"`
	RuleName        string         `json:"rule_name"`
	Category        string         `json:"category"`
	Result          string         `json:"result"` // pass | fail | not_applicable
	ErrorMessage    string         `json:"error_message,omitempty"`
	Remediation     string         `json:"remediation,omitempty"`
	AffectedDates   []string       `json:"affected_dates,omitempty"`
	AffectedEntries []string       `json:"affected_entries,omitempty"`
	Detail          map[string]any `json:"detail,omitempty"`
	AgeAtCheck      int            `json:"age_at_check"`
}

// SubmitResponse carries the full result list whether or not the submit
// succeeded; on failure the client shows every violation at once.
type SubmitResponse struct {
	TimesheetID string           `json:"timesheet_id"`
	Status      string           `json:"status"`
	Eligible    bool             `json:"eligible"`
	Results     []CheckResultDTO `json:"results"`
}

type PayrollRecordDTO struct {
	ID               string `json:"id"`
	TimesheetID      string `json:"timesheet_id"`
	PeriodStart      string `json:"period_start"`
	PeriodEnd        string `json:"period_end"`
	AgHours          string `json:"ag_hours"`
	AgEarnings       string `json:"ag_earnings"`
	NonAgHours       string `json:"non_ag_hours"`
	NonAgEarnings    string `json:"non_ag_earnings"`
	OvertimeHours    string `json:"overtime_hours"`
	OvertimeEarnings string `json:"overtime_earnings"`
	TotalEarnings    string `json:"total_earnings"`
	CalculatedAt     string `json:"calculated_at"`
	ExportedAt       string `json:"exported_at,omitempty"`
}

type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
