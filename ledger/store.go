/*
store.go - Persistence interfaces for the fact streams

PURPOSE:
  Defines the boundary between ledger components and the record store.
  The store is the only shared mutable resource in the system; all
  components reach it through these interfaces, and only the store is
  responsible for transactional boundaries.

APPEND-ONLY CONTRACT:
  Fact streams expose Append* and range queries. No Update or Delete
  methods exist for them. The two bounded exceptions are explicit:
  - UpsertDailySales: one record per date, re-closing overwrites
  - CloseShift: the single open -> closed transition

RANGE CONVENTION:
  All *InRange queries take a half-open window [from, to) in UTC,
  produced by DayWindow / WeekWindow. One cutoff rule everywhere.

ATOMICITY:
  TxStore.WithTx is the single multi-step boundary. The withdrawal
  check-then-append and the one-open-shift check run inside it;
  everything else is a commutative single append.

IMPLEMENTATIONS:
  - ledger/store: in-memory (tests, dev)
  - store/sqlite: SQLite, WAL
  - store/postgres: Postgres via sqlx
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// FACT STREAM STORES
// =============================================================================

type DropStore interface {
	AppendDrop(ctx context.Context, d SafeDrop) error

	// ConfirmedDrops returns every confirmed drop, lifetime. Balance replay.
	ConfirmedDrops(ctx context.Context) ([]SafeDrop, error)

	// DropsInRange returns drops with Timestamp in [from, to).
	DropsInRange(ctx context.Context, from, to time.Time) ([]SafeDrop, error)

	// DropsByActorInRange narrows DropsInRange to one actor. Shift close.
	DropsByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]SafeDrop, error)
}

type WithdrawalStore interface {
	AppendWithdrawal(ctx context.Context, w Withdrawal) error

	// Withdrawals returns every withdrawal, lifetime. Balance replay.
	Withdrawals(ctx context.Context) ([]Withdrawal, error)
}

type ManualCountStore interface {
	AppendManualCount(ctx context.Context, c ManualCount) error
	ManualCountsInRange(ctx context.Context, from, to time.Time) ([]ManualCount, error)
}

type ExpenseStore interface {
	AppendExpense(ctx context.Context, e Expense) error

	// ExpensesInRange returns expenses with Date in [from, to).
	ExpensesInRange(ctx context.Context, from, to time.Time) ([]Expense, error)

	ExpensesByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]Expense, error)
}

type DepositStore interface {
	AppendDeposit(ctx context.Context, d Deposit) error
	DepositsInRange(ctx context.Context, from, to time.Time) ([]Deposit, error)
}

type DailySalesStore interface {
	// UpsertDailySales atomically inserts or replaces the record for
	// rec.Date and returns the previous record when this was a re-close,
	// so the audit entry can carry the old value.
	UpsertDailySales(ctx context.Context, rec DailySales) (old *DailySales, err error)

	DailySalesInRange(ctx context.Context, from, to time.Time) ([]DailySales, error)
}

type ShiftStore interface {
	CreateShift(ctx context.Context, s Shift) error
	GetShift(ctx context.Context, id string) (Shift, error)

	// OpenShiftForActor returns the actor's open shift, or nil.
	OpenShiftForActor(ctx context.Context, actorID string) (*Shift, error)

	// CloseShift applies the single open -> closed transition. Fails with
	// ErrShiftClosed if the shift is already closed, ErrNotFound if absent.
	CloseShift(ctx context.Context, closed Shift) error
}

type TimeEntryStore interface {
	AppendTimeEntry(ctx context.Context, te TimeEntry) error
	GetTimeEntry(ctx context.Context, id string) (TimeEntry, error)

	// OpenTimeEntryForEmployee returns the employee's open entry, or nil.
	OpenTimeEntryForEmployee(ctx context.Context, employeeID string) (*TimeEntry, error)

	// SetClockOut sets ClockOut exactly once. A second clock-out on the
	// same entry is a validation error.
	SetClockOut(ctx context.Context, id string, at time.Time) error

	// TimeEntriesInRange returns entries with ClockIn in [from, to).
	TimeEntriesInRange(ctx context.Context, from, to time.Time) ([]TimeEntry, error)
}

type EmployeeExpenseStore interface {
	AppendEmployeeExpense(ctx context.Context, e EmployeeExpense) error
	EmployeeExpensesInRange(ctx context.Context, from, to time.Time) ([]EmployeeExpense, error)
}

type PaycheckStore interface {
	// AppendPaycheck persists a paycheck. Uniqueness on
	// (EmployeeID, WeekStart, WeekEnd) is enforced HERE, at the store
	// layer, so concurrent double-submission from two admin sessions
	// cannot both land. Fails with a DuplicatePaymentError.
	AppendPaycheck(ctx context.Context, p Paycheck) error

	// PaycheckForWeek returns the paycheck for the period, or nil.
	PaycheckForWeek(ctx context.Context, employeeID string, weekStart, weekEnd time.Time) (*Paycheck, error)
}

// =============================================================================
// AUDIT STREAM - segregated write and read sides
// =============================================================================

// AuditAppender is the ONLY write surface of the audit stream.
// There is deliberately no interface anywhere with audit update/delete.
type AuditAppender interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
}

// AuditQuerier is the read-only, paginated query surface.
type AuditQuerier interface {
	QueryAudit(ctx context.Context, filter AuditFilter) (AuditPage, error)
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store is the full adapter surface over the fact streams.
type Store interface {
	DropStore
	WithdrawalStore
	ManualCountStore
	ExpenseStore
	DepositStore
	DailySalesStore
	ShiftStore
	TimeEntryStore
	EmployeeExpenseStore
	PaycheckStore
	AuditAppender
	AuditQuerier
}

// TxStore adds the transactional boundary. WithTx executes fn atomically:
// if fn returns an error nothing it wrote is visible. Reads inside fn see
// a stable view, which is what makes "replay balance, then append
// withdrawal" safe under concurrent managers.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
