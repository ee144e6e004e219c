/*
Package sqlite provides the SQLite-backed store for the labor engine.

PURPOSE:
  Persists every record the core operates on: employees, task codes and
  their append-only rate histories, weekly timesheets with work entries,
  compliance documents, compliance check results, and payroll records.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

UNIQUENESS INVARIANTS (enforced here, not in application code):
  task_codes.code                      one classification per code
  timesheets(employee_id, week_start)  one week per employee
  payroll_records.timesheet_id         at most one payroll record per week

  Two concurrent approvals can both pass a "does a record exist?" check;
  the unique index decides the winner and the loser's insert surfaces as
  labor.ErrAlreadyExists, which callers treat as "re-fetch and return the
  existing row". Never a crash.

APPEND-ONLY TABLES:
  task_code_rates:           wage history is never edited or deleted
  compliance_check_results:  one row per (week, rule, submission), immutable
  compliance_documents:      revocation sets invalidated_at; no deletes

CONCURRENCY:
  sync.RWMutex around the handle, WAL journal mode. Rule evaluation and
  rate resolution are read-only and take the read lock only.

USAGE:
  store, err := sqlite.New("./data/labor.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/harvestrow/labor-engine/compliance"
	"github.com/harvestrow/labor-engine/labor"
	"github.com/harvestrow/labor-engine/payroll"
)

const dateLayout = "2006-01-02"

// Store implements all persistence for the labor engine.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date_of_birth TEXT NOT NULL,
		is_supervisor BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_codes (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		description TEXT,
		is_agricultural BOOLEAN NOT NULL,
		is_hazardous BOOLEAN NOT NULL DEFAULT FALSE,
		min_age INTEGER NOT NULL DEFAULT 0,
		supervision TEXT NOT NULL DEFAULT 'none',
		solo_cash_handling BOOLEAN NOT NULL DEFAULT FALSE,
		driving BOOLEAN NOT NULL DEFAULT FALSE,
		power_machinery BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Code is immutable identity: one classification per code, ever.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_task_codes_code ON task_codes(code);

	-- Append-only wage history. No UPDATE or DELETE statements exist for
	-- this table.
	CREATE TABLE IF NOT EXISTS task_code_rates (
		id TEXT PRIMARY KEY,
		task_code_id TEXT NOT NULL REFERENCES task_codes(id),
		hourly_rate TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Effective-rate resolution hot path.
	CREATE INDEX IF NOT EXISTS idx_rates_code_effective
		ON task_code_rates(task_code_id, effective_date DESC);

	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		week_start TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One timesheet per employee-week.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_timesheets_employee_week
		ON timesheets(employee_id, week_start);

	CREATE TABLE IF NOT EXISTS work_entries (
		id TEXT PRIMARY KEY,
		timesheet_id TEXT NOT NULL REFERENCES timesheets(id),
		work_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		task_code_id TEXT NOT NULL REFERENCES task_codes(id),
		hours TEXT NOT NULL,
		is_school_day BOOLEAN NOT NULL DEFAULT FALSE,
		override_note TEXT,
		supervisor_name TEXT,
		meal_break_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_timesheet
		ON work_entries(timesheet_id, work_date);

	-- Soft-revoked via invalidated_at, kept forever for audit.
	CREATE TABLE IF NOT EXISTS compliance_documents (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		doc_type TEXT NOT NULL,
		expires_at TEXT,
		invalidated_at TEXT,
		uploaded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_employee
		ON compliance_documents(employee_id, doc_type);

	-- One row per (week, rule, submission). Written once, never mutated;
	-- the current result set for a week is its latest submission's rows.
	CREATE TABLE IF NOT EXISTS compliance_check_results (
		id TEXT PRIMARY KEY,
		timesheet_id TEXT NOT NULL REFERENCES timesheets(id),
		rule_id TEXT NOT NULL,
		rule_name TEXT NOT NULL,
		category TEXT NOT NULL,
		result TEXT NOT NULL,
		error_message TEXT,
		remediation TEXT,
		affected_dates_json TEXT,
		affected_entries_json TEXT,
		detail_json TEXT,
		age_at_check INTEGER NOT NULL,
		checked_at TEXT NOT NULL,
		UNIQUE(timesheet_id, rule_id, checked_at)
	);

	CREATE INDEX IF NOT EXISTS idx_check_results_timesheet
		ON compliance_check_results(timesheet_id, checked_at DESC);

	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		timesheet_id TEXT NOT NULL REFERENCES timesheets(id),
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		ag_hours TEXT NOT NULL,
		ag_earnings TEXT NOT NULL,
		non_ag_hours TEXT NOT NULL,
		non_ag_earnings TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		overtime_earnings TEXT NOT NULL,
		total_earnings TEXT NOT NULL,
		calculated_at TEXT NOT NULL,
		exported_at TEXT
	);

	-- CRITICAL: at most one payroll record per week. Concurrent approvals
	-- race here; the loser gets a constraint violation mapped to
	-- labor.ErrAlreadyExists and re-fetches.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payroll_timesheet
		ON payroll_records(timesheet_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or updates an employee record. Date of birth is
// immutable after creation: ages must stay derivable from history.
func (s *Store) SaveEmployee(ctx context.Context, emp labor.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, date_of_birth, is_supervisor, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_supervisor = excluded.is_supervisor,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name,
		emp.DateOfBirth.Format(dateLayout),
		emp.IsSupervisor, emp.Status,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*labor.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp labor.Employee
	var dob, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, date_of_birth, is_supervisor, status, created_at FROM employees WHERE id = ?",
		id,
	).Scan(&emp.ID, &emp.Name, &dob, &emp.IsSupervisor, &emp.Status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, labor.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	emp.DateOfBirth, _ = time.Parse(dateLayout, dob)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]labor.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, date_of_birth, is_supervisor, status, created_at FROM employees ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []labor.Employee
	for rows.Next() {
		var emp labor.Employee
		var dob, createdAt string
		if err := rows.Scan(&emp.ID, &emp.Name, &dob, &emp.IsSupervisor, &emp.Status, &createdAt); err != nil {
			return nil, err
		}
		emp.DateOfBirth, _ = time.Parse(dateLayout, dob)
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// TASK CODES
// =============================================================================

// CreateTaskCode inserts a new task code. Returns labor.ErrAlreadyExists
// when the code is taken (unique index); callers re-fetch by code.
func (s *Store) CreateTaskCode(ctx context.Context, tc labor.TaskCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO task_codes
		(id, code, description, is_agricultural, is_hazardous, min_age,
		 supervision, solo_cash_handling, driving, power_machinery, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		tc.ID, tc.Code, tc.Description, tc.IsAgricultural, tc.IsHazardous,
		tc.MinAge, tc.Supervision, tc.SoloCashHandling, tc.Driving,
		tc.PowerMachinery, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return labor.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert task code: %w", err)
	}
	return nil
}

// GetTaskCode retrieves a task code by ID.
func (s *Store) GetTaskCode(ctx context.Context, id string) (*labor.TaskCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTaskCodeWhere(ctx, "id = ?", id)
}

// GetTaskCodeByCode retrieves a task code by its immutable code.
func (s *Store) GetTaskCodeByCode(ctx context.Context, code string) (*labor.TaskCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTaskCodeWhere(ctx, "code = ?", code)
}

func (s *Store) getTaskCodeWhere(ctx context.Context, where string, arg any) (*labor.TaskCode, error) {
	var tc labor.TaskCode
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, description, is_agricultural, is_hazardous, min_age,
		        supervision, solo_cash_handling, driving, power_machinery, created_at
		 FROM task_codes WHERE `+where, arg,
	).Scan(&tc.ID, &tc.Code, &tc.Description, &tc.IsAgricultural, &tc.IsHazardous,
		&tc.MinAge, &tc.Supervision, &tc.SoloCashHandling, &tc.Driving,
		&tc.PowerMachinery, &createdAt)

	if err == sql.ErrNoRows {
		return nil, labor.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	tc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &tc, nil
}

// ListTaskCodes returns all task codes ordered by code.
func (s *Store) ListTaskCodes(ctx context.Context) ([]labor.TaskCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, description, is_agricultural, is_hazardous, min_age,
		        supervision, solo_cash_handling, driving, power_machinery, created_at
		 FROM task_codes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []labor.TaskCode
	for rows.Next() {
		var tc labor.TaskCode
		var createdAt string
		if err := rows.Scan(&tc.ID, &tc.Code, &tc.Description, &tc.IsAgricultural,
			&tc.IsHazardous, &tc.MinAge, &tc.Supervision, &tc.SoloCashHandling,
			&tc.Driving, &tc.PowerMachinery, &createdAt); err != nil {
			return nil, err
		}
		tc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		codes = append(codes, tc)
	}
	return codes, rows.Err()
}

// =============================================================================
// RATE HISTORY (append-only)
// =============================================================================

// AddRate appends a rate to a task code's history.
func (s *Store) AddRate(ctx context.Context, rate labor.TaskCodeRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO task_code_rates (id, task_code_id, hourly_rate, effective_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rate.ID, rate.TaskCodeID,
		rate.HourlyRate.String(),
		rate.EffectiveDate.Format(dateLayout),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate: %w", err)
	}
	return nil
}

// ListRates returns a task code's full wage history, oldest first.
func (s *Store) ListRates(ctx context.Context, taskCodeID string) ([]labor.TaskCodeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_code_id, hourly_rate, effective_date, created_at
		 FROM task_code_rates WHERE task_code_id = ?
		 ORDER BY effective_date ASC, created_at ASC`, taskCodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []labor.TaskCodeRate
	for rows.Next() {
		var r labor.TaskCodeRate
		var rateStr, effective, createdAt string
		if err := rows.Scan(&r.ID, &r.TaskCodeID, &rateStr, &effective, &createdAt); err != nil {
			return nil, err
		}
		r.HourlyRate = mustDecimal(rateStr)
		r.EffectiveDate, _ = time.Parse(dateLayout, effective)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// =============================================================================
// TIMESHEETS
// =============================================================================

// CreateTimesheet inserts a new week. Returns labor.ErrAlreadyExists when
// the employee already has a timesheet for that week start.
func (s *Store) CreateTimesheet(ctx context.Context, ts labor.Timesheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO timesheets (id, employee_id, week_start, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ts.ID, ts.EmployeeID, ts.WeekStart.Format(dateLayout), ts.Status, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return labor.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert timesheet: %w", err)
	}
	return nil
}

// GetTimesheet retrieves a timesheet by ID.
func (s *Store) GetTimesheet(ctx context.Context, id string) (*labor.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTimesheetWhere(ctx, "id = ?", id)
}

// GetTimesheetByWeek retrieves the timesheet for an employee-week.
func (s *Store) GetTimesheetByWeek(ctx context.Context, employeeID string, weekStart time.Time) (*labor.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTimesheetWhere(ctx, "employee_id = ? AND week_start = ?",
		employeeID, weekStart.Format(dateLayout))
}

func (s *Store) getTimesheetWhere(ctx context.Context, where string, args ...any) (*labor.Timesheet, error) {
	var ts labor.Timesheet
	var weekStart, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, employee_id, week_start, status, created_at, updated_at FROM timesheets WHERE "+where,
		args...,
	).Scan(&ts.ID, &ts.EmployeeID, &weekStart, &ts.Status, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, labor.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ts.WeekStart, _ = time.Parse(dateLayout, weekStart)
	ts.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	ts.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &ts, nil
}

// UpdateTimesheetStatus persists a state transition.
func (s *Store) UpdateTimesheetStatus(ctx context.Context, id string, status labor.WeekStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE timesheets SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return labor.ErrNotFound
	}
	return nil
}

// ListTimesheetsByEmployee returns an employee's weeks, newest first.
func (s *Store) ListTimesheetsByEmployee(ctx context.Context, employeeID string) ([]labor.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, week_start, status, created_at, updated_at
		 FROM timesheets WHERE employee_id = ? ORDER BY week_start DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sheets []labor.Timesheet
	for rows.Next() {
		var ts labor.Timesheet
		var weekStart, createdAt, updatedAt string
		if err := rows.Scan(&ts.ID, &ts.EmployeeID, &weekStart, &ts.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		ts.WeekStart, _ = time.Parse(dateLayout, weekStart)
		ts.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		ts.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		sheets = append(sheets, ts)
	}
	return sheets, rows.Err()
}

// =============================================================================
// WORK ENTRIES
// =============================================================================

// AddEntry inserts a work entry. The caller has already validated the week
// state and span via labor.Timesheet.ValidateEntryDate.
func (s *Store) AddEntry(ctx context.Context, e labor.WorkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO work_entries
		(id, timesheet_id, work_date, start_time, end_time, task_code_id, hours,
		 is_school_day, override_note, supervisor_name, meal_break_confirmed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.TimesheetID, e.WorkDate.Format(dateLayout),
		e.StartTime, e.EndTime, e.TaskCodeID, e.Hours.String(),
		e.IsSchoolDay, nullString(e.OverrideNote), nullString(e.SupervisorName),
		e.MealBreakConfirmed, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert work entry: %w", err)
	}
	return nil
}

// ListEntries returns a week's entries ordered by date then start time.
func (s *Store) ListEntries(ctx context.Context, timesheetID string) ([]labor.WorkEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timesheet_id, work_date, start_time, end_time, task_code_id, hours,
		        is_school_day, override_note, supervisor_name, meal_break_confirmed, created_at
		 FROM work_entries WHERE timesheet_id = ?
		 ORDER BY work_date ASC, start_time ASC`, timesheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []labor.WorkEntry
	for rows.Next() {
		var e labor.WorkEntry
		var workDate, hours, createdAt string
		var note, supervisor sql.NullString
		if err := rows.Scan(&e.ID, &e.TimesheetID, &workDate, &e.StartTime, &e.EndTime,
			&e.TaskCodeID, &hours, &e.IsSchoolDay, &note, &supervisor,
			&e.MealBreakConfirmed, &createdAt); err != nil {
			return nil, err
		}
		e.WorkDate, _ = time.Parse(dateLayout, workDate)
		e.Hours = mustDecimal(hours)
		e.OverrideNote = note.String
		e.SupervisorName = supervisor.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// COMPLIANCE DOCUMENTS
// =============================================================================

// AddDocument records a compliance document for an employee.
func (s *Store) AddDocument(ctx context.Context, d labor.ComplianceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expires, invalidated *string
	if d.ExpiresAt != nil {
		v := d.ExpiresAt.Format(dateLayout)
		expires = &v
	}
	if d.InvalidatedAt != nil {
		v := d.InvalidatedAt.Format(time.RFC3339)
		invalidated = &v
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO compliance_documents (id, employee_id, doc_type, expires_at, invalidated_at, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.EmployeeID, d.Type, expires, invalidated,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// RevokeDocument soft-revokes a document. The row is never deleted.
func (s *Store) RevokeDocument(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE compliance_documents SET invalidated_at = ? WHERE id = ? AND invalidated_at IS NULL",
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return labor.ErrNotFound
	}
	return nil
}

// ListDocuments returns all of an employee's documents, revoked included.
func (s *Store) ListDocuments(ctx context.Context, employeeID string) ([]labor.ComplianceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, doc_type, expires_at, invalidated_at, uploaded_at
		 FROM compliance_documents WHERE employee_id = ? ORDER BY uploaded_at ASC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []labor.ComplianceDocument
	for rows.Next() {
		var d labor.ComplianceDocument
		var expires, invalidated sql.NullString
		var uploaded string
		if err := rows.Scan(&d.ID, &d.EmployeeID, &d.Type, &expires, &invalidated, &uploaded); err != nil {
			return nil, err
		}
		if expires.Valid {
			t, _ := time.Parse(dateLayout, expires.String)
			d.ExpiresAt = &t
		}
		if invalidated.Valid {
			t, _ := time.Parse(time.RFC3339, invalidated.String)
			d.InvalidatedAt = &t
		}
		d.UploadedAt, _ = time.Parse(time.RFC3339, uploaded)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// =============================================================================
// COMPLIANCE CHECK RESULTS (append-only)
// =============================================================================

// SaveCheckResults appends one submission's full result list atomically.
// Rows are never mutated; rejected-and-resubmitted weeks accumulate one
// result set per submission for audit.
func (s *Store) SaveCheckResults(ctx context.Context, timesheetID string, checkedAt time.Time, results []compliance.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	stamp := checkedAt.UTC().Format(time.RFC3339)
	for _, r := range results {
		datesJSON, _ := json.Marshal(r.AffectedDates)
		entriesJSON, _ := json.Marshal(r.AffectedEntries)
		detailJSON, _ := json.Marshal(r.Detail)

		_, err := sqlTx.ExecContext(ctx,
			`INSERT INTO compliance_check_results
			 (id, timesheet_id, rule_id, rule_name, category, result, error_message,
			  remediation, affected_dates_json, affected_entries_json, detail_json,
			  age_at_check, checked_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(),
			timesheetID, r.RuleID, r.RuleName, r.Category, r.Outcome,
			nullString(r.ErrorMessage), nullString(r.RemediationGuidance),
			string(datesJSON), string(entriesJSON), string(detailJSON),
			r.AgeAtCheck, stamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert check result: %w", err)
		}
	}
	return sqlTx.Commit()
}

// LatestCheckResults returns the most recent submission's result rows.
func (s *Store) LatestCheckResults(ctx context.Context, timesheetID string) ([]compliance.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, rule_name, category, result, error_message, remediation,
		        affected_dates_json, affected_entries_json, detail_json, age_at_check
		 FROM compliance_check_results
		 WHERE timesheet_id = ?
		   AND checked_at = (SELECT MAX(checked_at) FROM compliance_check_results WHERE timesheet_id = ?)
		 ORDER BY rule_id ASC`, timesheetID, timesheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []compliance.Result
	for rows.Next() {
		var r compliance.Result
		var msg, remediation, datesJSON, entriesJSON, detailJSON sql.NullString
		if err := rows.Scan(&r.RuleID, &r.RuleName, &r.Category, &r.Outcome,
			&msg, &remediation, &datesJSON, &entriesJSON, &detailJSON, &r.AgeAtCheck); err != nil {
			return nil, err
		}
		r.ErrorMessage = msg.String
		r.RemediationGuidance = remediation.String
		if datesJSON.Valid {
			json.Unmarshal([]byte(datesJSON.String), &r.AffectedDates)
		}
		if entriesJSON.Valid {
			json.Unmarshal([]byte(entriesJSON.String), &r.AffectedEntries)
		}
		if detailJSON.Valid {
			json.Unmarshal([]byte(detailJSON.String), &r.Detail)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// =============================================================================
// PAYROLL RECORDS (payroll.Store interface)
// =============================================================================

// InsertPayroll inserts a payroll record. Returns labor.ErrAlreadyExists
// when the week already has one (unique index on timesheet_id).
func (s *Store) InsertPayroll(ctx context.Context, rec payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payroll_records
		(id, timesheet_id, period_start, period_end, ag_hours, ag_earnings,
		 non_ag_hours, non_ag_earnings, overtime_hours, overtime_earnings,
		 total_earnings, calculated_at, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.TimesheetID,
		rec.PeriodStart.Format(dateLayout), rec.PeriodEnd.Format(dateLayout),
		rec.AgHours.String(), rec.AgEarnings.String(),
		rec.NonAgHours.String(), rec.NonAgEarnings.String(),
		rec.OvertimeHours.String(), rec.OvertimeEarnings.String(),
		rec.TotalEarnings.String(),
		rec.CalculatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return labor.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert payroll record: %w", err)
	}
	return nil
}

// GetPayrollByTimesheet returns the week's record or labor.ErrNotFound.
func (s *Store) GetPayrollByTimesheet(ctx context.Context, timesheetID string) (*payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, payrollSelect+" WHERE timesheet_id = ?", timesheetID)
	rec, err := scanPayroll(row)
	if err == sql.ErrNoRows {
		return nil, labor.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeletePayroll removes a week's record ahead of recalculation.
func (s *Store) DeletePayroll(ctx context.Context, timesheetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM payroll_records WHERE timesheet_id = ?", timesheetID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return labor.ErrNotFound
	}
	return nil
}

// ListPayrollRecords returns all records, newest period first.
func (s *Store) ListPayrollRecords(ctx context.Context) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, payrollSelect+" ORDER BY period_start DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		rec, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// MarkExported stamps records as exported. Totals never change afterwards,
// so re-export reproduces byte-identical monetary strings.
func (s *Store) MarkExported(ctx context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := at.UTC().Format(time.RFC3339)
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE payroll_records SET exported_at = ? WHERE id = ? AND exported_at IS NULL",
			stamp, id); err != nil {
			return err
		}
	}
	return nil
}

const payrollSelect = `
	SELECT id, timesheet_id, period_start, period_end, ag_hours, ag_earnings,
	       non_ag_hours, non_ag_earnings, overtime_hours, overtime_earnings,
	       total_earnings, calculated_at, exported_at
	FROM payroll_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayroll(row rowScanner) (*payroll.Record, error) {
	var rec payroll.Record
	var periodStart, periodEnd, calculatedAt string
	var agH, agE, nonAgH, nonAgE, otH, otE, total string
	var exportedAt sql.NullString

	err := row.Scan(&rec.ID, &rec.TimesheetID, &periodStart, &periodEnd,
		&agH, &agE, &nonAgH, &nonAgE, &otH, &otE, &total,
		&calculatedAt, &exportedAt)
	if err != nil {
		return nil, err
	}

	rec.PeriodStart, _ = time.Parse(dateLayout, periodStart)
	rec.PeriodEnd, _ = time.Parse(dateLayout, periodEnd)
	rec.AgHours = mustDecimal(agH)
	rec.AgEarnings = mustDecimal(agE)
	rec.NonAgHours = mustDecimal(nonAgH)
	rec.NonAgEarnings = mustDecimal(nonAgE)
	rec.OvertimeHours = mustDecimal(otH)
	rec.OvertimeEarnings = mustDecimal(otE)
	rec.TotalEarnings = mustDecimal(total)
	rec.CalculatedAt, _ = time.Parse(time.RFC3339, calculatedAt)
	if exportedAt.Valid {
		t, _ := time.Parse(time.RFC3339, exportedAt.String)
		rec.ExportedAt = &t
	}
	return &rec, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for tests and demo seeding).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"payroll_records", "compliance_check_results", "work_entries",
		"timesheets", "compliance_documents", "task_code_rates",
		"task_codes", "employees",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
