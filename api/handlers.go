/*
handlers.go - HTTP API handlers for the cash custody ledger

PURPOSE:
  Exposes the ledger components via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Safe:
    GET    /api/safe/balance      Replayed safe balance
    POST   /api/safe/drops        Record a cash drop
    POST   /api/safe/withdrawals  Record a withdrawal (manager)
    POST   /api/safe/counts       Record a manual count (manager)

  Shifts:
    POST   /api/shifts            Open a shift
    GET    /api/shifts/{id}       Get a shift
    POST   /api/shifts/{id}/close Close a shift (manager)

  Sales:
    GET    /api/sales/cash        Derived cash sales for a date
    POST   /api/sales/close       Close a business day (manager)
    GET    /api/bank/reconcile    Bank deposit reconciliation (manager)
    POST   /api/expenses          Record vendor expense (manager)
    POST   /api/deposits          Record bank deposit (manager)

  Payroll:
    POST   /api/payroll/clock-in  Clock in
    POST   /api/payroll/clock-out Clock out
    POST   /api/payroll/expenses  Log employee expense
    GET    /api/payroll           Weekly payroll view (admin)
    POST   /api/payroll/paychecks Record a paycheck (admin)

  Audit:
    GET    /api/audit             Query the audit stream (admin)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (vault, reconciler, sales, payroll)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Business conflicts (insufficient balance, duplicate paycheck,
         shift state violations)
  - 503: Transient store failures that survived the retry
  - 500: Everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Actor extraction and role gates
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/custody-ledger/audit"
	"github.com/warp/custody-ledger/ledger"
	"github.com/warp/custody-ledger/payroll"
	"github.com/warp/custody-ledger/safe"
	"github.com/warp/custody-ledger/sales"
	"github.com/warp/custody-ledger/shift"
)

const dateLayout = "2006-01-02"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Vault    *safe.Vault
	Shifts   *shift.Reconciler
	Sales    *sales.Service
	Payroll  *payroll.Calculator
	AuditLog *audit.Log
	Clock    ledger.Clock
}

// NewHandler wires the domain components into one handler set.
func NewHandler(store ledger.TxStore, clock ledger.Clock) *Handler {
	rec := audit.NewRecorder(store, clock)
	return &Handler{
		Vault:    safe.NewVault(store, clock, rec),
		Shifts:   shift.NewReconciler(store, clock, rec),
		Sales:    sales.NewService(store, clock, rec),
		Payroll:  payroll.NewCalculator(store, clock, rec),
		AuditLog: audit.NewLog(store),
		Clock:    clock,
	}
}

// =============================================================================
// SAFE HANDLERS
// =============================================================================

// GetSafeBalance returns the balance replayed from the drop and
// withdrawal streams.
// GET /api/safe/balance
func (h *Handler) GetSafeBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Vault.Balance(r.Context())
	if err != nil {
		handleError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		Balance: balance,
		AsOf:    h.Clock.Now().Format(time.RFC3339),
	})
}

// RecordDrop records cash placed into the safe by the authenticated actor.
// POST /api/safe/drops
func (h *Handler) RecordDrop(w http.ResponseWriter, r *http.Request) {
	var req RecordDropRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	actor, _ := ActorFrom(r.Context())

	receipt, err := h.Vault.RecordDrop(r.Context(), actor.ID, amount, req.Notes)
	if err != nil {
		handleError(w, "Failed to record drop", err)
		return
	}
	writeJSON(w, http.StatusCreated, DropDTO{ReceiptNumber: receipt})
}

// RecordWithdrawal removes cash from the safe. The authenticated manager
// is both the acting and approving party.
// POST /api/safe/withdrawals
func (h *Handler) RecordWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req RecordWithdrawalRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	actor, _ := ActorFrom(r.Context())

	id, err := h.Vault.RecordWithdrawal(r.Context(), actor.ID, actor.ID, amount, req.Reason)
	if err != nil {
		handleError(w, "Failed to record withdrawal", err)
		return
	}
	writeJSON(w, http.StatusCreated, WithdrawalDTO{ID: id})
}

// RecordCount reconciles a physical count against the replayed balance.
// POST /api/safe/counts
func (h *Handler) RecordCount(w http.ResponseWriter, r *http.Request) {
	var req RecordCountRequest
	if !decode(w, r, &req) {
		return
	}
	actual, ok := parseAmount(w, "actual", req.Actual)
	if !ok {
		return
	}
	actor, _ := ActorFrom(r.Context())

	result, err := h.Vault.RecordManualCount(r.Context(), actor.ID, actual, req.Notes)
	if err != nil {
		handleError(w, "Failed to record count", err)
		return
	}
	writeJSON(w, http.StatusCreated, CountResultDTO{
		Expected: result.Expected,
		Actual:   result.Actual,
		Variance: result.Variance,
	})
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// OpenShift starts a shift for the authenticated actor.
// POST /api/shifts
func (h *Handler) OpenShift(w http.ResponseWriter, r *http.Request) {
	var req OpenShiftRequest
	if !decode(w, r, &req) {
		return
	}
	startingCash, ok := parseAmount(w, "starting_cash", req.StartingCash)
	if !ok {
		return
	}
	actor, _ := ActorFrom(r.Context())

	id, err := h.Shifts.Open(r.Context(), actor.ID, startingCash)
	if err != nil {
		handleError(w, "Failed to open shift", err)
		return
	}
	sh, err := h.Shifts.Get(r.Context(), id)
	if err != nil {
		handleError(w, "Failed to load shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(sh))
}

// GetShift returns one shift by ID.
// GET /api/shifts/{id}
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Shifts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, "Failed to get shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(sh))
}

// CloseShift applies the single open -> closed transition and returns
// the reconciliation summary.
// POST /api/shifts/{id}/close
func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	var req CloseShiftRequest
	if !decode(w, r, &req) {
		return
	}
	endingCash, ok := parseAmount(w, "ending_cash", req.EndingCash)
	if !ok {
		return
	}

	summary, err := h.Shifts.Close(r.Context(), chi.URLParam(r, "id"), endingCash, req.Notes)
	if err != nil {
		handleError(w, "Failed to close shift", err)
		return
	}
	writeJSON(w, http.StatusOK, ShiftSummaryDTO{
		ShiftID:        summary.ShiftID,
		StartingCash:   summary.StartingCash,
		EndingCash:     summary.EndingCash,
		TotalDrops:     summary.TotalDrops,
		TotalExpenses:  summary.TotalExpenses,
		ExpectedEnding: summary.ExpectedEnding,
		Variance:       summary.Variance,
	})
}

func toShiftDTO(sh ledger.Shift) ShiftDTO {
	dto := ShiftDTO{
		ID:            sh.ID,
		ActorID:       sh.ActorID,
		StartTime:     sh.StartTime.Format(time.RFC3339),
		StartingCash:  sh.StartingCash,
		TotalDrops:    sh.TotalDrops,
		TotalExpenses: sh.TotalExpenses,
		Variance:      sh.Variance,
		Notes:         sh.Notes,
	}
	if sh.EndTime != nil {
		s := sh.EndTime.Format(time.RFC3339)
		dto.EndTime = &s
	}
	if sh.EndingCash != nil {
		m := *sh.EndingCash
		dto.EndingCash = &m
	}
	return dto
}

// =============================================================================
// SALES HANDLERS
// =============================================================================

// GetCashSales returns the cash total derived for one date.
// GET /api/sales/cash?date=2024-01-10
func (h *Handler) GetCashSales(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDateParam(w, "date", r.URL.Query().Get("date"))
	if !ok {
		return
	}
	cash, err := h.Sales.DeriveCashSales(r.Context(), date)
	if err != nil {
		handleError(w, "Failed to derive cash sales", err)
		return
	}
	writeJSON(w, http.StatusOK, CashSalesDTO{
		Date:      date.Format(dateLayout),
		CashSales: cash,
	})
}

// CloseDay finalizes a business day. Re-closing the same date replaces
// the record.
// POST /api/sales/close
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	var req CloseDayRequest
	if !decode(w, r, &req) {
		return
	}
	date, ok := parseDateParam(w, "date", req.Date)
	if !ok {
		return
	}
	cardSales, ok := parseAmount(w, "card_sales", req.CardSales)
	if !ok {
		return
	}
	var reported *ledger.Money
	if req.ReportedTotal != nil {
		m, ok := parseAmount(w, "reported_total", *req.ReportedTotal)
		if !ok {
			return
		}
		reported = &m
	}
	actor, _ := ActorFrom(r.Context())

	close, err := h.Sales.CloseDay(r.Context(), sales.CloseDayParams{
		Date:          date,
		CardSales:     cardSales,
		ReportedTotal: reported,
		ActorID:       actor.ID,
		Notes:         req.Notes,
	})
	if err != nil {
		handleError(w, "Failed to close day", err)
		return
	}
	writeJSON(w, http.StatusOK, DailySalesDTO{
		Date:      close.Date.Format(dateLayout),
		CardSales: close.CardSales,
		CashSales: close.CashSales,
		Total:     close.Total,
		Variance:  close.Variance,
		ClosedBy:  actor.ID,
		Notes:     req.Notes,
		ClosedAt:  h.Clock.Now().Format(time.RFC3339),
	})
}

// RecordExpense records money paid out to a vendor.
// POST /api/expenses
func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	var req RecordExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	date, ok := parseDateParam(w, "date", req.Date)
	if !ok {
		return
	}
	actor, _ := ActorFrom(r.Context())

	id, err := h.Sales.RecordExpense(r.Context(), req.VendorID, actor.ID, amount,
		ledger.PaymentType(req.PaymentType), date, req.Notes, req.ReceiptRef)
	if err != nil {
		handleError(w, "Failed to record expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedDTO{ID: id})
}

// RecordDeposit records cash/checks taken to the bank.
// POST /api/deposits
func (h *Handler) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	var req RecordDepositRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	date, ok := parseDateParam(w, "date", req.Date)
	if !ok {
		return
	}
	actor, _ := ActorFrom(r.Context())

	id, err := h.Sales.RecordDeposit(r.Context(), req.VendorID, actor.ID, amount, date)
	if err != nil {
		handleError(w, "Failed to record deposit", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedDTO{ID: id})
}

// ReconcileBank compares expected vs actual deposits over a date range.
// GET /api/bank/reconcile?start=2024-01-01&end=2024-01-31
func (h *Handler) ReconcileBank(w http.ResponseWriter, r *http.Request) {
	start, ok := parseDateParam(w, "start", r.URL.Query().Get("start"))
	if !ok {
		return
	}
	end, ok := parseDateParam(w, "end", r.URL.Query().Get("end"))
	if !ok {
		return
	}
	report, err := h.Sales.ReconcileBank(r.Context(), start, end)
	if err != nil {
		handleError(w, "Failed to reconcile bank deposits", err)
		return
	}
	writeJSON(w, http.StatusOK, BankReportDTO{
		StartDate:        start.Format(dateLayout),
		EndDate:          end.Format(dateLayout),
		ExpectedDeposits: report.ExpectedDeposits,
		ActualDeposits:   report.ActualDeposits,
		Variance:         report.Variance,
	})
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// employeeID resolves the target employee: the request body when set,
// otherwise the authenticated actor.
func employeeID(r *http.Request, requested string) string {
	if requested != "" {
		return requested
	}
	actor, _ := ActorFrom(r.Context())
	return actor.ID
}

// ClockIn opens a time entry.
// POST /api/payroll/clock-in
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Payroll.ClockIn(r.Context(), employeeID(r, req.EmployeeID))
	if err != nil {
		handleError(w, "Failed to clock in", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedDTO{ID: id})
}

// ClockOut closes the employee's open time entry.
// POST /api/payroll/clock-out
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Payroll.ClockOut(r.Context(), employeeID(r, req.EmployeeID))
	if err != nil {
		handleError(w, "Failed to clock out", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordedDTO{ID: id})
}

// LogEmployeeExpense records a reimbursable employee expense.
// POST /api/payroll/expenses
func (h *Handler) LogEmployeeExpense(w http.ResponseWriter, r *http.Request) {
	var req EmployeeExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	id, err := h.Payroll.LogExpense(r.Context(), employeeID(r, req.EmployeeID), amount, req.Description)
	if err != nil {
		handleError(w, "Failed to log expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedDTO{ID: id})
}

// GetPayroll returns the weekly payroll aggregation.
// GET /api/payroll?week_start=2024-01-01&week_end=2024-01-07
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	weekStart, ok := parseDateParam(w, "week_start", r.URL.Query().Get("week_start"))
	if !ok {
		return
	}
	weekEnd, ok := parseDateParam(w, "week_end", r.URL.Query().Get("week_end"))
	if !ok {
		return
	}
	rows, err := h.Payroll.WeeklyPayroll(r.Context(), weekStart, weekEnd)
	if err != nil {
		handleError(w, "Failed to compute payroll", err)
		return
	}

	dtos := make([]PayrollRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = PayrollRowDTO{
			EmployeeID:    row.EmployeeID,
			TotalHours:    row.TotalHours,
			ExpensesTotal: row.ExpensesTotal,
			Paid:          row.Paid,
		}
		if row.PaidAt != nil {
			s := row.PaidAt.Format(time.RFC3339)
			dtos[i].PaidAt = &s
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordPaycheck records one payroll disbursement. A second submission
// for the same (employee, week) fails with 409.
// POST /api/payroll/paychecks
func (h *Handler) RecordPaycheck(w http.ResponseWriter, r *http.Request) {
	var req RecordPaycheckRequest
	if !decode(w, r, &req) {
		return
	}
	weekStart, ok := parseDateParam(w, "week_start", req.WeekStart)
	if !ok {
		return
	}
	weekEnd, ok := parseDateParam(w, "week_end", req.WeekEnd)
	if !ok {
		return
	}
	rate, ok := parseAmount(w, "hourly_rate", req.HourlyRate)
	if !ok {
		return
	}

	id, err := h.Payroll.RecordPay(r.Context(), req.EmployeeID, weekStart, weekEnd, req.Hours, rate)
	if err != nil {
		handleError(w, "Failed to record paycheck", err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordedDTO{ID: id})
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// QueryAudit returns a cursor page of the audit stream.
// GET /api/audit?table=withdrawals&actor_id=mgr-1&cursor=0&limit=100
func (h *Handler) QueryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.AuditFilter{
		Table:   q.Get("table"),
		Action:  ledger.AuditAction(q.Get("action")),
		ActorID: q.Get("actor_id"),
	}
	if v := q.Get("cursor"); v != "" {
		var cursor int64
		if _, err := jsonNumber(v, &cursor); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cursor", err)
			return
		}
		filter.Cursor = cursor
	}
	if v := q.Get("limit"); v != "" {
		var limit int64
		if _, err := jsonNumber(v, &limit); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = int(limit)
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from timestamp", err)
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to timestamp", err)
			return
		}
		filter.To = &t
	}

	page, err := h.AuditLog.Query(r.Context(), filter)
	if err != nil {
		handleError(w, "Failed to query audit log", err)
		return
	}

	dto := AuditPageDTO{NextCursor: page.NextCursor}
	dto.Entries = make([]AuditEntryDTO, len(page.Entries))
	for i, e := range page.Entries {
		dto.Entries[i] = AuditEntryDTO{
			ID:        e.ID,
			Table:     e.Table,
			RecordID:  e.RecordID,
			Action:    string(e.Action),
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			ActorID:   e.ActorID,
			ChangedAt: e.ChangedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func parseAmount(w http.ResponseWriter, field, value string) (ledger.Money, bool) {
	if value == "" {
		writeError(w, http.StatusBadRequest, field+" is required", nil)
		return ledger.Money{}, false
	}
	m, err := ledger.ParseMoney(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+field, err)
		return ledger.Money{}, false
	}
	return m, true
}

func parseDateParam(w http.ResponseWriter, field, value string) (time.Time, bool) {
	if value == "" {
		writeError(w, http.StatusBadRequest, field+" is required", nil)
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+field+", want YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return t.UTC(), true
}

func jsonNumber(s string, dst *int64) (int64, error) {
	err := json.Unmarshal([]byte(s), dst)
	return *dst, err
}

// handleError maps the ledger error taxonomy onto HTTP statuses.
func handleError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsClientError(err):
		// Business conflicts: insufficient balance, duplicate paycheck,
		// shift state violations.
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

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
