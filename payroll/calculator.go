/*
Package payroll aggregates employee time and expenses into weekly pay and
records paycheck disbursements.

DOUBLE-PAYMENT GUARD:
  RecordPay is idempotent per (employee, weekStart, weekEnd). The
  uniqueness check lives at the store layer - a unique index in the SQL
  stores, an in-transaction scan in memory - so two admin sessions
  submitting concurrently cannot both land a paycheck. An "already paid"
  flag in application memory would not survive that race.

OPEN TIME ENTRIES:
  Entries without a clock-out contribute zero hours. They are excluded
  from the aggregation, never estimated.
*/
package payroll

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/custody-ledger/audit"
	"github.com/warp/custody-ledger/ledger"
)

type Calculator struct {
	store ledger.TxStore
	clock ledger.Clock
	audit *audit.Recorder
}

func NewCalculator(store ledger.TxStore, clock ledger.Clock, rec *audit.Recorder) *Calculator {
	return &Calculator{store: store, clock: clock, audit: rec}
}

// Row is one employee's aggregation for a payroll week.
type Row struct {
	EmployeeID    string
	TotalHours    float64
	ExpensesTotal ledger.Money
	Paid          bool
	PaidAt        *time.Time
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

// ClockIn opens a time entry. An employee with an open entry cannot clock
// in again.
func (c *Calculator) ClockIn(ctx context.Context, employeeID string) (string, error) {
	if employeeID == "" {
		return "", ledger.Validationf("employee_id", "is required")
	}

	te := ledger.TimeEntry{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		ClockIn:    c.clock.Now(),
	}

	err := c.store.WithTx(ctx, func(s ledger.Store) error {
		open, err := s.OpenTimeEntryForEmployee(ctx, employeeID)
		if err != nil {
			return ledger.TransientError(err)
		}
		if open != nil {
			return ledger.Validationf("employee_id", "already clocked in")
		}
		if err := s.AppendTimeEntry(ctx, te); err != nil {
			return ledger.TransientError(err)
		}
		return c.audit.WithAppender(s).Insert(ctx, "time_entries", te.ID, employeeID, te)
	})
	if err != nil {
		return "", err
	}
	return te.ID, nil
}

// ClockOut closes the employee's open time entry. ClockOut is set exactly
// once; with no open entry the call fails with ErrNotFound.
func (c *Calculator) ClockOut(ctx context.Context, employeeID string) (string, error) {
	if employeeID == "" {
		return "", ledger.Validationf("employee_id", "is required")
	}

	now := c.clock.Now()
	var entryID string

	err := c.store.WithTx(ctx, func(s ledger.Store) error {
		open, err := s.OpenTimeEntryForEmployee(ctx, employeeID)
		if err != nil {
			return ledger.TransientError(err)
		}
		if open == nil {
			return ledger.ErrNotFound
		}
		if err := s.SetClockOut(ctx, open.ID, now); err != nil {
			return err
		}
		entryID = open.ID

		closed := *open
		closed.ClockOut = &now
		return c.audit.WithAppender(s).Update(ctx, "time_entries", open.ID, employeeID, *open, closed)
	})
	if err != nil {
		return "", err
	}
	return entryID, nil
}

// LogExpense appends a reimbursable employee expense.
func (c *Calculator) LogExpense(ctx context.Context, employeeID string, amount ledger.Money, description string) (string, error) {
	if employeeID == "" {
		return "", ledger.Validationf("employee_id", "is required")
	}
	if !amount.IsPositive() {
		return "", ledger.Validationf("amount", "must be greater than zero")
	}
	if strings.TrimSpace(description) == "" {
		return "", ledger.Validationf("description", "is required")
	}

	e := ledger.EmployeeExpense{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		Amount:      amount.Round2(),
		Description: description,
		Timestamp:   c.clock.Now(),
	}

	err := c.store.WithTx(ctx, func(s ledger.Store) error {
		if err := s.AppendEmployeeExpense(ctx, e); err != nil {
			return ledger.TransientError(err)
		}
		return c.audit.WithAppender(s).Insert(ctx, "employee_expenses", e.ID, employeeID, e)
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// =============================================================================
// WEEKLY AGGREGATION
// =============================================================================

// WeeklyPayroll groups hours and expenses per employee over the week
// window [weekStart, weekEnd+1d). Employees appear if they have any time
// entry or expense in the window.
func (c *Calculator) WeeklyPayroll(ctx context.Context, weekStart, weekEnd time.Time) ([]Row, error) {
	if weekStart.IsZero() || weekEnd.IsZero() {
		return nil, ledger.Validationf("week", "start and end are required")
	}
	if ledger.Date(weekEnd).Before(ledger.Date(weekStart)) {
		return nil, ledger.Validationf("week", "end before start")
	}

	var rows []Row
	err := ledger.RetryOnce(ctx, func() error {
		var aerr error
		rows, aerr = c.weeklyPayroll(ctx, weekStart, weekEnd)
		return aerr
	})
	return rows, err
}

func (c *Calculator) weeklyPayroll(ctx context.Context, weekStart, weekEnd time.Time) ([]Row, error) {
	from, to := ledger.WeekWindow(weekStart, weekEnd)

	entries, err := c.store.TimeEntriesInRange(ctx, from, to)
	if err != nil {
		return nil, ledger.TransientError(err)
	}
	expenses, err := c.store.EmployeeExpensesInRange(ctx, from, to)
	if err != nil {
		return nil, ledger.TransientError(err)
	}

	byEmployee := make(map[string]*Row)
	row := func(id string) *Row {
		r, ok := byEmployee[id]
		if !ok {
			r = &Row{EmployeeID: id, ExpensesTotal: ledger.Zero()}
			byEmployee[id] = r
		}
		return r
	}

	for _, te := range entries {
		row(te.EmployeeID).TotalHours += te.Hours()
	}
	for _, e := range expenses {
		r := row(e.EmployeeID)
		r.ExpensesTotal = r.ExpensesTotal.Add(e.Amount)
	}

	rows := make([]Row, 0, len(byEmployee))
	for _, r := range byEmployee {
		existing, err := c.store.PaycheckForWeek(ctx, r.EmployeeID, from, ledger.Date(weekEnd))
		if err != nil {
			return nil, ledger.TransientError(err)
		}
		if existing != nil {
			r.Paid = true
			paidAt := existing.CreatedAt
			r.PaidAt = &paidAt
		}
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].EmployeeID < rows[j].EmployeeID })
	return rows, nil
}

// =============================================================================
// RECORD PAY
// =============================================================================

// RecordPay computes gross/net from the stated hours and rate plus the
// week's logged expenses, rounds everything to cents at persistence, and
// appends the paycheck. Fails with DuplicatePayment if the period is
// already paid; the existing paycheck is never overwritten.
func (c *Calculator) RecordPay(ctx context.Context, employeeID string, weekStart, weekEnd time.Time, hours float64, hourlyRate ledger.Money) (string, error) {
	if employeeID == "" {
		return "", ledger.Validationf("employee_id", "is required")
	}
	if weekStart.IsZero() || weekEnd.IsZero() {
		return "", ledger.Validationf("week", "start and end are required")
	}
	if ledger.Date(weekEnd).Before(ledger.Date(weekStart)) {
		return "", ledger.Validationf("week", "end before start")
	}
	if hours < 0 {
		return "", ledger.Validationf("hours", "must not be negative")
	}
	if hourlyRate.IsNegative() {
		return "", ledger.Validationf("hourly_rate", "must not be negative")
	}

	from, to := ledger.WeekWindow(weekStart, weekEnd)
	gross := hourlyRate.Mul(decimal.NewFromFloat(hours)).Round2()

	var paycheckID string
	err := c.store.WithTx(ctx, func(s ledger.Store) error {
		expenses, err := s.EmployeeExpensesInRange(ctx, from, to)
		if err != nil {
			return ledger.TransientError(err)
		}
		expensesTotal := ledger.Zero()
		for _, e := range expenses {
			if e.EmployeeID == employeeID {
				expensesTotal = expensesTotal.Add(e.Amount)
			}
		}
		expensesTotal = expensesTotal.Round2()

		p := ledger.Paycheck{
			ID:            uuid.NewString(),
			EmployeeID:    employeeID,
			WeekStart:     from,
			WeekEnd:       ledger.Date(weekEnd),
			Hours:         hours,
			HourlyRate:    hourlyRate.Round2(),
			GrossPay:      gross,
			ExpensesTotal: expensesTotal,
			NetPay:        gross.Sub(expensesTotal).Round2(),
			CreatedAt:     c.clock.Now(),
		}

		// The store enforces (employee, week) uniqueness.
		if err := s.AppendPaycheck(ctx, p); err != nil {
			return err
		}
		paycheckID = p.ID
		return c.audit.WithAppender(s).Insert(ctx, "paychecks", p.ID, employeeID, p)
	})
	if err != nil {
		return "", err
	}
	return paycheckID, nil
}
