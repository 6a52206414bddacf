/*
Package ledger defines the core types of the cash custody & reconciliation
ledger: the immutable fact records, the store interfaces that persist them,
and the error taxonomy components surface to callers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Fact records: SafeDrop, Withdrawal, ManualCount, Expense, Deposit,
    DailySales, Shift, TimeEntry, EmployeeExpense, Paycheck
  - Actor: authenticated identity + role handed in by the upstream
    identity provider
  - Receipt identifiers: opaque, unique, lexically creation-ordered

DESIGN PRINCIPLES:
  1. Immutability: facts are created once and never mutated. The two
     bounded exceptions are DailySales (upsert keyed by date) and Shift
     (a single open -> closed transition).
  2. Precision: Money (decimal) everywhere, never float64.
  3. Derivation: balances and variances are recomputed from the streams
     on every call. No record carries a cached running total.

SEE ALSO:
  - store.go: persistence interfaces
  - audit.go: audit stream types
*/
package ledger

import (
	"fmt"
	"sync/atomic"
	"time"
)

// =============================================================================
// ACTORS
// =============================================================================

type Role string

const (
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Actor is the authenticated identity attached to every mutating call.
// Verification happens upstream; the ledger core trusts what it is handed.
type Actor struct {
	ID   string
	Role Role
}

// CanAuthorize reports whether the role carries manager-level authority
// (withdrawals, vendor expenses, daily close).
func (r Role) CanAuthorize() bool { return r == RoleManager || r == RoleAdmin }

// =============================================================================
// FACT RECORDS
// =============================================================================

// SafeDrop is cash physically placed into the safe. Append-only.
type SafeDrop struct {
	ReceiptNumber string
	ActorID       string
	Amount        Money
	Timestamp     time.Time
	Confirmed     bool
	Notes         string
}

// Withdrawal is cash removed from the safe under manager authority.
// Append-only; authorization is checked against the replayed balance
// in the same store transaction that appends the row.
type Withdrawal struct {
	ID         string
	ActorID    string
	ApproverID string
	Amount     Money
	Reason     string
	Timestamp  time.Time
}

// ManualCount reconciles expected vs actual safe contents at a point
// in time. Variance = Actual - Expected.
type ManualCount struct {
	ID        string
	ActorID   string
	Expected  Money
	Actual    Money
	Variance  Money
	Timestamp time.Time
	Notes     string
}

type PaymentType string

const (
	PayCash  PaymentType = "cash"
	PayCheck PaymentType = "check"
)

// Expense is money paid to a vendor. Corrections are new rows, not edits.
type Expense struct {
	ID          string
	VendorID    string
	ActorID     string
	Amount      Money
	PaymentType PaymentType
	Date        time.Time // day granularity
	Notes       string
	ReceiptRef  string
}

// Deposit is cash/checks moved to the bank.
type Deposit struct {
	ID       string
	VendorID string // deposit destination (bank account source record)
	ActorID  string
	Amount   Money
	Date     time.Time
}

// DailySales is the end-of-day record, keyed uniquely by date.
// CashSales is always derived from drops + cash expenses, never typed in.
// Re-closing a day overwrites the record (the one sanctioned upsert).
type DailySales struct {
	Date      time.Time // day granularity, unique key
	CardSales Money
	CashSales Money
	Total     Money
	Variance  Money
	ClosedBy  string
	Notes     string
	ClosedAt  time.Time
}

// Shift is one cashier session: created open, closed exactly once.
type Shift struct {
	ID            string
	ActorID       string
	StartTime     time.Time
	EndTime       *time.Time
	StartingCash  Money
	EndingCash    *Money
	TotalDrops    Money
	TotalExpenses Money
	Variance      Money
	Notes         string
}

func (s Shift) Closed() bool { return s.EndTime != nil }

// TimeEntry is an employee clock-in, with ClockOut set exactly once.
type TimeEntry struct {
	ID         string
	EmployeeID string
	ClockIn    time.Time
	ClockOut   *time.Time
}

// Hours returns the worked duration in hours. Open entries contribute zero:
// they are excluded from payroll, not estimated.
func (te TimeEntry) Hours() float64 {
	if te.ClockOut == nil {
		return 0
	}
	return te.ClockOut.Sub(te.ClockIn).Hours()
}

// EmployeeExpense is a reimbursable expense logged by an employee.
type EmployeeExpense struct {
	ID          string
	EmployeeID  string
	Amount      Money
	Description string
	Timestamp   time.Time
}

// Paycheck is one recorded payroll disbursement. At most one exists per
// (EmployeeID, WeekStart, WeekEnd); the store enforces that.
// Gross/Net are fixed at persistence and never re-derived.
type Paycheck struct {
	ID            string
	EmployeeID    string
	WeekStart     time.Time
	WeekEnd       time.Time
	Hours         float64
	HourlyRate    Money
	GrossPay      Money
	ExpensesTotal Money
	NetPay        Money
	CreatedAt     time.Time
}

// =============================================================================
// RECEIPT IDENTIFIERS
// =============================================================================

var receiptSeq atomic.Uint64

// ReceiptNumber generates an identifier that is unique within a stream and
// lexically ordered by creation time, so printed receipts sort naturally.
// The suffix is a process-wide counter: two calls in the same nanosecond
// still produce distinct receipts.
// Format: PREFIX-<unix nanos, zero padded>-<counter mod 1e6>.
func ReceiptNumber(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%019d-%06d", prefix, at.UnixNano(), receiptSeq.Add(1)%1000000)
}
