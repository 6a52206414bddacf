/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:       Request logging
  2. Recoverer:    Panic recovery (500 instead of crash)
  3. RequestID:    Unique ID per request for tracing
  4. CORS:         Cross-origin requests for the register frontend
  5. Authenticate: Bearer JWT -> ledger.Actor (all /api routes)

ROLE GATES:
  Any authenticated role: safe balance, drops, open shift, clock in/out,
  employee expenses, cash sales lookup.
  Manager/admin: withdrawals, counts, shift close, daily close, vendor
  expenses, deposits, bank reconciliation.
  Admin only: payroll view, paychecks, audit queries.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Authenticate / RequireManager / RequireAdmin
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth *Authenticator) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		// Safe custody routes
		r.Route("/safe", func(r chi.Router) {
			r.Get("/balance", h.GetSafeBalance)
			r.Post("/drops", h.RecordDrop)

			r.Group(func(r chi.Router) {
				r.Use(RequireManager)
				r.Post("/withdrawals", h.RecordWithdrawal)
				r.Post("/counts", h.RecordCount)
			})
		})

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.OpenShift)
			r.Get("/{id}", h.GetShift)

			r.Group(func(r chi.Router) {
				r.Use(RequireManager)
				r.Post("/{id}/close", h.CloseShift)
			})
		})

		// Sales routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/cash", h.GetCashSales)

			r.Group(func(r chi.Router) {
				r.Use(RequireManager)
				r.Post("/close", h.CloseDay)
			})
		})

		// Money-out routes (manager)
		r.Group(func(r chi.Router) {
			r.Use(RequireManager)
			r.Post("/expenses", h.RecordExpense)
			r.Post("/deposits", h.RecordDeposit)
			r.Get("/bank/reconcile", h.ReconcileBank)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/clock-in", h.ClockIn)
			r.Post("/clock-out", h.ClockOut)
			r.Post("/expenses", h.LogEmployeeExpense)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/", h.GetPayroll)
				r.Post("/paychecks", h.RecordPaycheck)
			})
		})

		// Audit routes (admin)
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/audit", h.QueryAudit)
		})
	})

	return r
}
