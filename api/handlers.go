/*
handlers.go - HTTP API handlers for the labor compliance engine

PURPOSE:
  Exposes the compliance and payroll engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                 List all employees
    POST   /api/employees                 Create employee
    GET    /api/employees/{id}            Get employee details
    GET    /api/employees/{id}/documents  List compliance documents
    POST   /api/employees/{id}/documents  Record a compliance document
    GET    /api/employees/{id}/timesheets List weeks

  Task codes:
    GET    /api/taskcodes                 List task codes
    POST   /api/taskcodes                 Create task code
    POST   /api/taskcodes/{id}/rates      Append a wage rate
    GET    /api/taskcodes/{id}/rate       Effective rate on a date

  Timesheets:
    POST   /api/timesheets                Open a week
    POST   /api/timesheets/{id}/entries   Add a work entry
    POST   /api/timesheets/{id}/submit    Run compliance gate, submit
    POST   /api/timesheets/{id}/approve   Approve and calculate payroll
    POST   /api/timesheets/{id}/reject    Return week for correction
    GET    /api/timesheets/{id}/results   Latest compliance results

  Payroll:
    GET    /api/payroll                   List payroll records
    POST   /api/payroll/export            CSV export, stamps exported_at

REQUEST FLOW (submission, the interesting one):
  1. Load timesheet, employee, entries, documents
  2. Build the compliance Context (pure, in memory)
  3. Evaluate the full rule set (never short-circuits)
  4. Persist the complete result list, stamped with submission time
  5. Transition open -> submitted only on zero failures
  6. Return every result either way, so the UI shows all violations at once

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (week state, duplicate code, compliance failures)
  - 422: No rate in force for a work date
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/compliance"
	"github.com/harvestrow/labor-engine/labor"
	"github.com/harvestrow/labor-engine/payroll"
	"github.com/harvestrow/labor-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Compliance *compliance.Engine
	Payroll    *payroll.Engine

	// Injectable clock for deterministic tests.
	Now func() time.Time

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and wage floors.
func NewHandler(store *sqlite.Store, floors payroll.Floors) *Handler {
	return &Handler{
		Store:      store,
		Compliance: compliance.NewDefaultEngine(),
		Payroll:    payroll.NewEngine(store, floors),
		Now:        time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) today() time.Time {
	return labor.DateOnly(h.now())
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = h.toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_of_birth format (use YYYY-MM-DD)", err)
		return
	}

	emp := labor.Employee{
		ID:           req.ID,
		Name:         req.Name,
		DateOfBirth:  dob,
		IsSupervisor: req.IsSupervisor,
		Status:       labor.EmployeeActive,
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toEmployeeDTO(emp))
}

func (h *Handler) toEmployeeDTO(e labor.Employee) EmployeeDTO {
	age := compliance.AgeOn(e.DateOfBirth, h.today())
	return EmployeeDTO{
		ID:           e.ID,
		Name:         e.Name,
		DateOfBirth:  e.DateOfBirth.Format("2006-01-02"),
		Age:          age,
		AgeBand:      string(compliance.BandFor(age)),
		IsSupervisor: e.IsSupervisor,
		Status:       string(e.Status),
	}
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// ListDocuments returns an employee's compliance documents, revoked included.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), employeeID); err != nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	docs, err := h.Store.ListDocuments(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	dtos := make([]DocumentDTO, len(docs))
	for i, d := range docs {
		dtos[i] = toDocumentDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddDocument records a compliance document for an employee.
func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), employeeID); err != nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	var req AddDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	docType := labor.DocumentType(req.Type)
	switch docType {
	case labor.DocParentalConsent, labor.DocWorkPermit, labor.DocSafetyTraining:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown document type %q", req.Type), nil)
		return
	}

	doc := labor.ComplianceDocument{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Type:       docType,
		UploadedAt: h.now(),
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse("2006-01-02", req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid expires_at format (use YYYY-MM-DD)", err)
			return
		}
		doc.ExpiresAt = &expires
	}

	if err := h.Store.AddDocument(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add document", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc))
}

// RevokeDocument soft-revokes a document. The record stays for audit.
func (h *Handler) RevokeDocument(w http.ResponseWriter, r *http.Request) {
	err := h.Store.RevokeDocument(r.Context(), chi.URLParam(r, "id"), h.now())
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Document not found or already revoked", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to revoke document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toDocumentDTO(d labor.ComplianceDocument) DocumentDTO {
	dto := DocumentDTO{
		ID:         d.ID,
		EmployeeID: d.EmployeeID,
		Type:       string(d.Type),
		Revoked:    d.Revoked(),
		UploadedAt: d.UploadedAt.Format(time.RFC3339),
	}
	if d.ExpiresAt != nil {
		dto.ExpiresAt = d.ExpiresAt.Format("2006-01-02")
	}
	return dto
}

// =============================================================================
// TASK CODE HANDLERS
// =============================================================================

// ListTaskCodes returns all task codes.
func (h *Handler) ListTaskCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.Store.ListTaskCodes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list task codes", err)
		return
	}
	dtos := make([]TaskCodeDTO, len(codes))
	for i, tc := range codes {
		dtos[i] = toTaskCodeDTO(tc)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTaskCode returns a single task code.
func (h *Handler) GetTaskCode(w http.ResponseWriter, r *http.Request) {
	tc, err := h.Store.GetTaskCode(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task code not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get task code", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskCodeDTO(*tc))
}

func toTaskCodeDTO(tc labor.TaskCode) TaskCodeDTO {
	return TaskCodeDTO{
		ID:               tc.ID,
		Code:             tc.Code,
		Description:      tc.Description,
		IsAgricultural:   tc.IsAgricultural,
		IsHazardous:      tc.IsHazardous,
		MinAge:           tc.MinAge,
		Supervision:      string(tc.Supervision),
		SoloCashHandling: tc.SoloCashHandling,
		Driving:          tc.Driving,
		PowerMachinery:   tc.PowerMachinery,
	}
}

// CreateTaskCode creates a task code. The code column carries a unique index,
// so two concurrent creations race to the insert; the loser re-fetches and
// returns the existing record instead of failing.
func (h *Handler) CreateTaskCode(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", nil)
		return
	}

	supervision := labor.SupervisionLevel(req.Supervision)
	switch supervision {
	case "":
		supervision = labor.SupervisionNone
	case labor.SupervisionNone, labor.SupervisionForMinors, labor.SupervisionAlways:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown supervision level %q", req.Supervision), nil)
		return
	}

	tc := labor.TaskCode{
		ID:               uuid.NewString(),
		Code:             req.Code,
		Description:      req.Description,
		IsAgricultural:   req.IsAgricultural,
		IsHazardous:      req.IsHazardous,
		MinAge:           req.MinAge,
		Supervision:      supervision,
		SoloCashHandling: req.SoloCashHandling,
		Driving:          req.Driving,
		PowerMachinery:   req.PowerMachinery,
	}

	err := h.Store.CreateTaskCode(r.Context(), tc)
	if errors.Is(err, labor.ErrAlreadyExists) {
		existing, getErr := h.Store.GetTaskCodeByCode(r.Context(), req.Code)
		if getErr != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load existing task code", getErr)
			return
		}
		writeJSON(w, http.StatusOK, toTaskCodeDTO(*existing))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create task code", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskCodeDTO(tc))
}

// ListRates returns a task code's full wage history, oldest first.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	taskCodeID := chi.URLParam(r, "id")
	if _, err := h.Store.GetTaskCode(r.Context(), taskCodeID); err != nil {
		writeError(w, http.StatusNotFound, "Task code not found", nil)
		return
	}

	rates, err := h.Store.ListRates(r.Context(), taskCodeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}

	dtos := make([]RateDTO, len(rates))
	for i, rt := range rates {
		dtos[i] = RateDTO{
			ID:            rt.ID,
			TaskCodeID:    rt.TaskCodeID,
			HourlyRate:    rt.HourlyRate.StringFixed(2),
			EffectiveDate: rt.EffectiveDate.Format("2006-01-02"),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddRate appends a wage rate. Effective dates in the past are rejected:
// history is append-only and already-calculated payroll must stay stable.
func (h *Handler) AddRate(w http.ResponseWriter, r *http.Request) {
	taskCodeID := chi.URLParam(r, "id")
	if _, err := h.Store.GetTaskCode(r.Context(), taskCodeID); err != nil {
		writeError(w, http.StatusNotFound, "Task code not found", nil)
		return
	}

	var req AddRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || rate.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "hourly_rate must be a positive decimal string", err)
		return
	}

	effective, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date format (use YYYY-MM-DD)", err)
		return
	}
	if labor.DateOnly(effective).Before(h.today()) {
		writeError(w, http.StatusBadRequest, labor.ErrRateInPast.Error(), nil)
		return
	}

	rt := labor.TaskCodeRate{
		ID:            uuid.NewString(),
		TaskCodeID:    taskCodeID,
		HourlyRate:    rate,
		EffectiveDate: labor.DateOnly(effective),
	}
	if err := h.Store.AddRate(r.Context(), rt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add rate", err)
		return
	}

	writeJSON(w, http.StatusCreated, RateDTO{
		ID:            rt.ID,
		TaskCodeID:    rt.TaskCodeID,
		HourlyRate:    rt.HourlyRate.StringFixed(2),
		EffectiveDate: rt.EffectiveDate.Format("2006-01-02"),
	})
}

// GetEffectiveRate resolves the rate in force on a date (default today).
// GET /api/taskcodes/{id}/rate?date=YYYY-MM-DD
func (h *Handler) GetEffectiveRate(w http.ResponseWriter, r *http.Request) {
	taskCodeID := chi.URLParam(r, "id")
	if _, err := h.Store.GetTaskCode(r.Context(), taskCodeID); err != nil {
		writeError(w, http.StatusNotFound, "Task code not found", nil)
		return
	}

	date := h.today()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = labor.DateOnly(parsed)
	}

	rates, err := h.Store.ListRates(r.Context(), taskCodeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}

	rate, err := payroll.ResolveRate(rates, date)
	if errors.Is(err, payroll.ErrNoRateFound) {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("No rate in force for task code on %s", date.Format("2006-01-02")), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve rate", err)
		return
	}

	writeJSON(w, http.StatusOK, EffectiveRateDTO{
		TaskCodeID: taskCodeID,
		Date:       date.Format("2006-01-02"),
		HourlyRate: rate.StringFixed(2),
	})
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// CreateTimesheet opens a week for an employee. Any date in the request is
// snapped to its Sunday; a duplicate employee-week is a 409.
func (h *Handler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	var req CreateTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := h.Store.GetEmployee(r.Context(), req.EmployeeID); err != nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	day, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start format (use YYYY-MM-DD)", err)
		return
	}

	ts := labor.Timesheet{
		ID:         uuid.NewString(),
		EmployeeID: req.EmployeeID,
		WeekStart:  labor.WeekStartFor(day),
		Status:     labor.WeekOpen,
	}

	err = h.Store.CreateTimesheet(r.Context(), ts)
	if errors.Is(err, labor.ErrAlreadyExists) {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("Timesheet already exists for week of %s", ts.WeekStart.Format("2006-01-02")), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create timesheet", err)
		return
	}

	dto, err := h.toTimesheetDTO(r, ts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load timesheet", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// GetTimesheet returns a week with its entries.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Store.GetTimesheet(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet", err)
		return
	}

	dto, err := h.toTimesheetDTO(r, *ts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListTimesheets returns an employee's weeks, newest first.
func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), employeeID); err != nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	sheets, err := h.Store.ListTimesheetsByEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list timesheets", err)
		return
	}

	dtos := make([]TimesheetDTO, 0, len(sheets))
	for _, ts := range sheets {
		dto, err := h.toTimesheetDTO(r, ts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
			return
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddEntry adds a work entry to an open week. Hours derive from the
// minute-precision times; the client never supplies them.
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Store.GetTimesheet(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet", err)
		return
	}

	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	workDate, err := time.Parse("2006-01-02", req.WorkDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid work_date format (use YYYY-MM-DD)", err)
		return
	}

	if err := ts.ValidateEntryDate(workDate); err != nil {
		var stateErr *labor.WeekStateError
		if errors.As(err, &stateErr) {
			writeError(w, http.StatusConflict, "Week no longer accepts entries", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Work date outside week", err)
		return
	}

	startMin, err := compliance.TimeToMinutes(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_time (use HH:MM)", err)
		return
	}
	endMin, err := compliance.TimeToMinutes(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_time (use HH:MM)", err)
		return
	}
	hours, err := labor.EntryHours(startMin, endMin)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift times", err)
		return
	}

	tc, err := h.Store.GetTaskCodeByCode(r.Context(), req.TaskCode)
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown task code %q", req.TaskCode), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up task code", err)
		return
	}

	entry := labor.WorkEntry{
		ID:                 uuid.NewString(),
		TimesheetID:        ts.ID,
		WorkDate:           labor.DateOnly(workDate),
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		TaskCodeID:         tc.ID,
		Hours:              hours,
		IsSchoolDay:        req.IsSchoolDay,
		OverrideNote:       req.OverrideNote,
		SupervisorName:     req.SupervisorName,
		MealBreakConfirmed: req.MealBreakConfirmed,
	}
	if err := h.Store.AddEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, WorkEntryDTO{
		ID:                 entry.ID,
		WorkDate:           entry.WorkDate.Format("2006-01-02"),
		StartTime:          entry.StartTime,
		EndTime:            entry.EndTime,
		TaskCode:           tc.Code,
		TaskCodeID:         tc.ID,
		Hours:              entry.Hours.StringFixed(2),
		IsSchoolDay:        entry.IsSchoolDay,
		OverrideNote:       entry.OverrideNote,
		SupervisorName:     entry.SupervisorName,
		MealBreakConfirmed: entry.MealBreakConfirmed,
	})
}

// =============================================================================
// SUBMISSION FLOW
// =============================================================================

// SubmitTimesheet runs the full compliance gate. The week transitions to
// submitted only with zero failures; the complete result list is persisted
// and returned either way.
func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ts, err := h.Store.GetTimesheet(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet", err)
		return
	}
	if ts.Status != labor.WeekOpen {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("Timesheet is %s, only open weeks can be submitted", ts.Status), nil)
		return
	}

	emp, err := h.Store.GetEmployee(ctx, ts.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	entries, err := h.Store.ListEntries(ctx, ts.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	docs, err := h.Store.ListDocuments(ctx, ts.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	checkedAt := h.now()
	weekCtx := compliance.BuildContext(*emp, ts.WeekStart, entries, docs, checkedAt)
	results := h.Compliance.EvaluateWeek(weekCtx)

	if err := h.Store.SaveCheckResults(ctx, ts.ID, checkedAt, results); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist check results", err)
		return
	}

	eligible := compliance.SubmitEligible(results)
	if eligible {
		if err := ts.Submit(); err != nil {
			writeError(w, http.StatusConflict, "Week state changed during submission", err)
			return
		}
		if err := h.Store.UpdateTimesheetStatus(ctx, ts.ID, ts.Status); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update timesheet", err)
			return
		}
	}

	status := http.StatusOK
	if !eligible {
		status = http.StatusConflict
	}
	writeJSON(w, status, SubmitResponse{
		TimesheetID: ts.ID,
		Status:      string(ts.Status),
		Eligible:    eligible,
		Results:     toCheckResultDTOs(results),
	})
}

// ApproveTimesheet transitions submitted -> approved and calculates payroll.
// Payroll is idempotent per week; concurrent approvals both succeed, one
// record wins.
func (h *Handler) ApproveTimesheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ts, err := h.Store.GetTimesheet(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet", err)
		return
	}

	if err := ts.Approve(); err != nil {
		writeError(w, http.StatusConflict, "Cannot approve", err)
		return
	}
	if err := h.Store.UpdateTimesheetStatus(ctx, ts.ID, ts.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update timesheet", err)
		return
	}

	rec, err := h.Payroll.Calculate(ctx, ts.ID)
	if err != nil {
		var noRate *payroll.NoRateError
		if errors.As(err, &noRate) {
			writeError(w, http.StatusUnprocessableEntity, "Payroll calculation failed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Payroll calculation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollDTO(*rec))
}

// RejectTimesheet transitions submitted -> open, returning the week for
// correction. Its check results stay on record.
func (h *Handler) RejectTimesheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ts, err := h.Store.GetTimesheet(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get timesheet", err)
		return
	}

	if err := ts.Reject(); err != nil {
		writeError(w, http.StatusConflict, "Cannot reject", err)
		return
	}
	if err := h.Store.UpdateTimesheetStatus(ctx, ts.ID, ts.Status); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update timesheet", err)
		return
	}

	dto, err := h.toTimesheetDTO(r, *ts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListRules returns the statutory rule catalog in evaluation order, so the
// frontend can render the full check list before any week is submitted.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules := h.Compliance.Rules()
	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		bands := rule.AppliesTo()
		applies := make([]string, len(bands))
		for j, b := range bands {
			applies[j] = string(b)
		}
		dtos[i] = RuleDTO{
			ID:        rule.ID(),
			Name:      rule.Name(),
			Category:  string(rule.Category()),
			AppliesTo: applies,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCheckResults returns the latest submission's compliance results.
func (h *Handler) GetCheckResults(w http.ResponseWriter, r *http.Request) {
	timesheetID := chi.URLParam(r, "id")
	if _, err := h.Store.GetTimesheet(r.Context(), timesheetID); err != nil {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}

	results, err := h.Store.LatestCheckResults(r.Context(), timesheetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load check results", err)
		return
	}
	writeJSON(w, http.StatusOK, toCheckResultDTOs(results))
}

func (h *Handler) toTimesheetDTO(r *http.Request, ts labor.Timesheet) (TimesheetDTO, error) {
	entries, err := h.Store.ListEntries(r.Context(), ts.ID)
	if err != nil {
		return TimesheetDTO{}, err
	}

	// Cache code lookups; a week rarely touches more than a few codes.
	codes := map[string]string{}
	total := decimal.Zero
	dtos := make([]WorkEntryDTO, len(entries))
	for i, e := range entries {
		code, ok := codes[e.TaskCodeID]
		if !ok {
			tc, err := h.Store.GetTaskCode(r.Context(), e.TaskCodeID)
			if err == nil {
				code = tc.Code
			}
			codes[e.TaskCodeID] = code
		}
		total = total.Add(e.Hours)
		dtos[i] = WorkEntryDTO{
			ID:                 e.ID,
			WorkDate:           e.WorkDate.Format("2006-01-02"),
			StartTime:          e.StartTime,
			EndTime:            e.EndTime,
			TaskCode:           code,
			TaskCodeID:         e.TaskCodeID,
			Hours:              e.Hours.StringFixed(2),
			IsSchoolDay:        e.IsSchoolDay,
			OverrideNote:       e.OverrideNote,
			SupervisorName:     e.SupervisorName,
			MealBreakConfirmed: e.MealBreakConfirmed,
		}
	}

	return TimesheetDTO{
		ID:         ts.ID,
		EmployeeID: ts.EmployeeID,
		WeekStart:  ts.WeekStart.Format("2006-01-02"),
		WeekEnd:    ts.WeekEnd().Format("2006-01-02"),
		Status:     string(ts.Status),
		TotalHours: total.StringFixed(2),
		Entries:    dtos,
	}, nil
}

func toCheckResultDTOs(results []compliance.Result) []CheckResultDTO {
	dtos := make([]CheckResultDTO, len(results))
	for i, res := range results {
		dtos[i] = CheckResultDTO{
			RuleID:          res.RuleID,
			RuleName:        res.RuleName,
			Category:        string(res.Category),
			Result:          string(res.Outcome),
			ErrorMessage:    res.ErrorMessage,
			Remediation:     res.RemediationGuidance,
			AffectedDates:   res.AffectedDates,
			AffectedEntries: res.AffectedEntries,
			Detail:          res.Detail,
			AgeAtCheck:      res.AgeAtCheck,
		}
	}
	return dtos
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GetPayroll returns the payroll record for a week.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	timesheetID := chi.URLParam(r, "id")
	if _, err := h.Store.GetTimesheet(r.Context(), timesheetID); err != nil {
		writeError(w, http.StatusNotFound, "Timesheet not found", nil)
		return
	}

	rec, err := h.Store.GetPayrollByTimesheet(r.Context(), timesheetID)
	if errors.Is(err, labor.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No payroll record for this week", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payroll record", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTO(*rec))
}

// RecalculatePayroll deletes the week's record and recomputes from scratch.
// Used after rate corrections; refused on non-approved weeks.
func (h *Handler) RecalculatePayroll(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Payroll.Recalculate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		var stateErr *labor.WeekStateError
		if errors.As(err, &stateErr) {
			writeError(w, http.StatusConflict, "Week is not approved", err)
			return
		}
		if errors.Is(err, labor.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Timesheet not found", nil)
			return
		}
		var noRate *payroll.NoRateError
		if errors.As(err, &noRate) {
			writeError(w, http.StatusUnprocessableEntity, "Payroll calculation failed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Payroll recalculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollDTO(*rec))
}

// ListPayrollRecords returns all payroll records, newest period first.
func (h *Handler) ListPayrollRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPayrollRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payroll records", err)
		return
	}
	dtos := make([]PayrollRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toPayrollDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportPayrollCSV streams payroll records as CSV and stamps exported_at.
// Totals are immutable, so re-export reproduces identical monetary strings.
func (h *Handler) ExportPayrollCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ExportPayrollRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	records, err := h.Store.ListPayrollRecords(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payroll records", err)
		return
	}

	// Default to every unexported record.
	selected := records
	if len(req.RecordIDs) > 0 {
		wanted := make(map[string]bool, len(req.RecordIDs))
		for _, id := range req.RecordIDs {
			wanted[id] = true
		}
		selected = nil
		for _, rec := range records {
			if wanted[rec.ID] {
				selected = append(selected, rec)
			}
		}
	} else {
		selected = nil
		for _, rec := range records {
			if rec.ExportedAt == nil {
				selected = append(selected, rec)
			}
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="payroll.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{
		"record_id", "timesheet_id", "period_start", "period_end",
		"ag_hours", "ag_earnings", "non_ag_hours", "non_ag_earnings",
		"overtime_hours", "overtime_earnings", "total_earnings",
	})
	var ids []string
	for _, rec := range selected {
		cw.Write([]string{
			rec.ID, rec.TimesheetID,
			rec.PeriodStart.Format("2006-01-02"), rec.PeriodEnd.Format("2006-01-02"),
			rec.AgHours.StringFixed(2), rec.AgEarnings.StringFixed(2),
			rec.NonAgHours.StringFixed(2), rec.NonAgEarnings.StringFixed(2),
			rec.OvertimeHours.StringFixed(2), rec.OvertimeEarnings.StringFixed(2),
			rec.TotalEarnings.StringFixed(2),
		})
		ids = append(ids, rec.ID)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		// Headers are already out; the broken connection is the client's
		// signal. Do not stamp records the client never received.
		log.Printf("payroll export: write failed: %v", err)
		return
	}

	if len(ids) > 0 {
		if err := h.Store.MarkExported(ctx, ids, h.now()); err != nil {
			// Response is already streaming; log-and-continue is all we can do.
			log.Printf("payroll export: failed to mark %d records exported: %v", len(ids), err)
		}
	}
}

func toPayrollDTO(rec payroll.Record) PayrollRecordDTO {
	dto := PayrollRecordDTO{
		ID:               rec.ID,
		TimesheetID:      rec.TimesheetID,
		PeriodStart:      rec.PeriodStart.Format("2006-01-02"),
		PeriodEnd:        rec.PeriodEnd.Format("2006-01-02"),
		AgHours:          rec.AgHours.StringFixed(2),
		AgEarnings:       rec.AgEarnings.StringFixed(2),
		NonAgHours:       rec.NonAgHours.StringFixed(2),
		NonAgEarnings:    rec.NonAgEarnings.StringFixed(2),
		OvertimeHours:    rec.OvertimeHours.StringFixed(2),
		OvertimeEarnings: rec.OvertimeEarnings.StringFixed(2),
		TotalEarnings:    rec.TotalEarnings.StringFixed(2),
		CalculatedAt:     rec.CalculatedAt.Format(time.RFC3339),
	}
	if rec.ExportedAt != nil {
		dto.ExportedAt = rec.ExportedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
