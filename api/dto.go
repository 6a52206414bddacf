/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  All amounts cross the wire as decimal strings ("123.45"), never JSON
  numbers. ledger.Money marshals that way; request DTOs carry strings
  and handlers parse them with ledger.ParseMoney.

DATES:
  Day-granularity fields use "2006-01-02". Instants use RFC3339.

VALIDATION:
  Validation is done in handlers and domain components, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/money.go: Money JSON encoding
*/
package api

import (
	"github.com/warp/custody-ledger/ledger"
)

// =============================================================================
// SAFE
// =============================================================================

// BalanceDTO is the replayed safe balance.
type BalanceDTO struct {
	Balance ledger.Money `json:"balance"`
	AsOf    string       `json:"as_of"`
}

// RecordDropRequest records cash placed into the safe.
type RecordDropRequest struct {
	Amount string `json:"amount"`
	Notes  string `json:"notes,omitempty"`
}

// DropDTO is the receipt returned for a recorded drop.
type DropDTO struct {
	ReceiptNumber string `json:"receipt_number"`
}

// RecordWithdrawalRequest removes cash from the safe under manager authority.
type RecordWithdrawalRequest struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// WithdrawalDTO is the receipt returned for a recorded withdrawal.
type WithdrawalDTO struct {
	ID string `json:"id"`
}

// RecordCountRequest reconciles a physical safe count.
type RecordCountRequest struct {
	Actual string `json:"actual"`
	Notes  string `json:"notes,omitempty"`
}

// CountResultDTO reports expected vs actual at count time.
type CountResultDTO struct {
	Expected ledger.Money `json:"expected"`
	Actual   ledger.Money `json:"actual"`
	Variance ledger.Money `json:"variance"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// OpenShiftRequest starts a cashier session.
type OpenShiftRequest struct {
	StartingCash string `json:"starting_cash"`
}

// ShiftDTO represents a shift in API responses.
type ShiftDTO struct {
	ID            string        `json:"id"`
	ActorID       string        `json:"actor_id"`
	StartTime     string        `json:"start_time"`
	EndTime       *string       `json:"end_time,omitempty"`
	StartingCash  ledger.Money  `json:"starting_cash"`
	EndingCash    *ledger.Money `json:"ending_cash,omitempty"`
	TotalDrops    ledger.Money  `json:"total_drops"`
	TotalExpenses ledger.Money  `json:"total_expenses"`
	Variance      ledger.Money  `json:"variance"`
	Notes         string        `json:"notes,omitempty"`
}

// CloseShiftRequest ends a cashier session with a counted drawer.
type CloseShiftRequest struct {
	EndingCash string `json:"ending_cash"`
	Notes      string `json:"notes,omitempty"`
}

// ShiftSummaryDTO is the reconciliation returned on close.
type ShiftSummaryDTO struct {
	ShiftID        string       `json:"shift_id"`
	StartingCash   ledger.Money `json:"starting_cash"`
	EndingCash     ledger.Money `json:"ending_cash"`
	TotalDrops     ledger.Money `json:"total_drops"`
	TotalExpenses  ledger.Money `json:"total_expenses"`
	ExpectedEnding ledger.Money `json:"expected_ending"`
	Variance       ledger.Money `json:"variance"`
}

// =============================================================================
// SALES / EXPENSES / DEPOSITS
// =============================================================================

// CashSalesDTO is the derived cash total for one day.
type CashSalesDTO struct {
	Date      string       `json:"date"`
	CashSales ledger.Money `json:"cash_sales"`
}

// CloseDayRequest finalizes a business day.
type CloseDayRequest struct {
	Date          string  `json:"date"`
	CardSales     string  `json:"card_sales"`
	ReportedTotal *string `json:"reported_total,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// DailySalesDTO represents the end-of-day record.
type DailySalesDTO struct {
	Date      string       `json:"date"`
	CardSales ledger.Money `json:"card_sales"`
	CashSales ledger.Money `json:"cash_sales"`
	Total     ledger.Money `json:"total"`
	Variance  ledger.Money `json:"variance"`
	ClosedBy  string       `json:"closed_by"`
	Notes     string       `json:"notes,omitempty"`
	ClosedAt  string       `json:"closed_at"`
}

// RecordExpenseRequest records money paid to a vendor.
type RecordExpenseRequest struct {
	VendorID    string `json:"vendor_id"`
	Amount      string `json:"amount"`
	PaymentType string `json:"payment_type"` // "cash" or "check"
	Date        string `json:"date"`
	Notes       string `json:"notes,omitempty"`
	ReceiptRef  string `json:"receipt_ref,omitempty"`
}

// RecordDepositRequest records cash/checks taken to the bank.
type RecordDepositRequest struct {
	VendorID string `json:"vendor_id,omitempty"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
}

// RecordedDTO carries the generated identifier for a new fact row.
type RecordedDTO struct {
	ID string `json:"id"`
}

// BankReportDTO compares expected vs actual bank deposits over a range.
type BankReportDTO struct {
	StartDate        string       `json:"start_date"`
	EndDate          string       `json:"end_date"`
	ExpectedDeposits ledger.Money `json:"expected_deposits"`
	ActualDeposits   ledger.Money `json:"actual_deposits"`
	Variance         ledger.Money `json:"variance"`
}

// =============================================================================
// PAYROLL
// =============================================================================

// ClockRequest clocks an employee in or out. EmployeeID defaults to the
// authenticated actor when omitted.
type ClockRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
}

// EmployeeExpenseRequest logs a reimbursable employee expense.
type EmployeeExpenseRequest struct {
	EmployeeID  string `json:"employee_id,omitempty"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// PayrollRowDTO is one employee's line in the weekly payroll view.
type PayrollRowDTO struct {
	EmployeeID    string       `json:"employee_id"`
	TotalHours    float64      `json:"total_hours"`
	ExpensesTotal ledger.Money `json:"expenses_total"`
	Paid          bool         `json:"paid"`
	PaidAt        *string      `json:"paid_at,omitempty"`
}

// RecordPaycheckRequest records one payroll disbursement.
type RecordPaycheckRequest struct {
	EmployeeID string  `json:"employee_id"`
	WeekStart  string  `json:"week_start"`
	WeekEnd    string  `json:"week_end"`
	Hours      float64 `json:"hours"`
	HourlyRate string  `json:"hourly_rate"`
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditEntryDTO is one audit row in API responses.
type AuditEntryDTO struct {
	ID        int64  `json:"id"`
	Table     string `json:"table"`
	RecordID  string `json:"record_id"`
	Action    string `json:"action"`
	OldValue  string `json:"old_value,omitempty"`
	NewValue  string `json:"new_value,omitempty"`
	ActorID   string `json:"actor_id"`
	ChangedAt string `json:"changed_at"`
}

// AuditPageDTO is a cursor page of audit entries.
type AuditPageDTO struct {
	Entries    []AuditEntryDTO `json:"entries"`
	NextCursor int64           `json:"next_cursor,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
