/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*    Employee and document management
  /api/documents/*    Document revocation
  /api/taskcodes/*    Task codes and wage rate history
  /api/rules          Statutory rule catalog
  /api/timesheets/*   Weekly timesheet lifecycle and compliance results
  /api/payroll/*      Payroll records and CSV export
  /api/scenarios/*    Demo scenarios and database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/documents", h.ListDocuments)
			r.Post("/{id}/documents", h.AddDocument)
			r.Get("/{id}/timesheets", h.ListTimesheets)
		})

		// Document routes
		r.Route("/documents", func(r chi.Router) {
			r.Post("/{id}/revoke", h.RevokeDocument)
		})

		// Task code routes
		r.Route("/taskcodes", func(r chi.Router) {
			r.Get("/", h.ListTaskCodes)
			r.Post("/", h.CreateTaskCode)
			r.Get("/{id}", h.GetTaskCode)
			r.Get("/{id}/rates", h.ListRates)
			r.Post("/{id}/rates", h.AddRate)
			r.Get("/{id}/rate", h.GetEffectiveRate) // ?date=YYYY-MM-DD
		})

		// Rule catalog
		r.Get("/rules", h.ListRules)

		// Timesheet routes
		r.Route("/timesheets", func(r chi.Router) {
			r.Post("/", h.CreateTimesheet)
			r.Get("/{id}", h.GetTimesheet)
			r.Post("/{id}/entries", h.AddEntry)
			r.Post("/{id}/submit", h.SubmitTimesheet)
			r.Post("/{id}/approve", h.ApproveTimesheet)
			r.Post("/{id}/reject", h.RejectTimesheet)
			r.Get("/{id}/results", h.GetCheckResults)
			r.Get("/{id}/payroll", h.GetPayroll)
			r.Post("/{id}/payroll/recalculate", h.RecalculatePayroll)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.ListPayrollRecords)
			r.Post("/export", h.ExportPayrollCSV)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
