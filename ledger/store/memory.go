// Package store provides the in-memory TxStore implementation, used by
// tests and dev mode. Transactions are simulated with a deep snapshot
// taken under the store lock and restored on rollback.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/custody-ledger/ledger"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	st state
}

var (
	_ ledger.TxStore = (*Memory)(nil)
	_ ledger.Store   = (*txView)(nil)
)

// state holds every fact stream. Methods on *state do no locking; Memory
// and the transactional view own the lock discipline.
type state struct {
	drops       []ledger.SafeDrop
	withdrawals []ledger.Withdrawal
	counts      []ledger.ManualCount
	expenses    []ledger.Expense
	deposits    []ledger.Deposit
	sales       map[string]ledger.DailySales // keyed by date, one row each
	shifts      map[string]ledger.Shift
	timeEntries []ledger.TimeEntry
	empExpenses []ledger.EmployeeExpense
	paychecks   []ledger.Paycheck
	audit       []ledger.AuditEntry
	auditSeq    int64
}

func NewMemory() *Memory {
	return &Memory{st: state{
		sales:  make(map[string]ledger.DailySales),
		shifts: make(map[string]ledger.Shift),
	}}
}

func dateKey(t time.Time) string { return ledger.Date(t).Format("2006-01-02") }

// =============================================================================
// DROPS / WITHDRAWALS / COUNTS
// =============================================================================

func (s *state) appendDrop(d ledger.SafeDrop) error {
	// The SQL stores reject a reused receipt through the primary key;
	// the same fact can never enter the stream twice here either.
	for _, prev := range s.drops {
		if prev.ReceiptNumber == d.ReceiptNumber {
			return ledger.Validationf("receipt_number", "receipt %s already recorded", d.ReceiptNumber)
		}
	}
	s.drops = append(s.drops, d)
	return nil
}

func (s *state) confirmedDrops() []ledger.SafeDrop {
	var out []ledger.SafeDrop
	for _, d := range s.drops {
		if d.Confirmed {
			out = append(out, d)
		}
	}
	return out
}

func (s *state) dropsInRange(from, to time.Time) []ledger.SafeDrop {
	var out []ledger.SafeDrop
	for _, d := range s.drops {
		if ledger.InWindow(d.Timestamp, from, to) {
			out = append(out, d)
		}
	}
	return out
}

func (s *state) dropsByActorInRange(actorID string, from, to time.Time) []ledger.SafeDrop {
	var out []ledger.SafeDrop
	for _, d := range s.dropsInRange(from, to) {
		if d.ActorID == actorID {
			out = append(out, d)
		}
	}
	return out
}

func (s *state) appendWithdrawal(w ledger.Withdrawal) error {
	s.withdrawals = append(s.withdrawals, w)
	return nil
}

func (s *state) appendManualCount(c ledger.ManualCount) error {
	s.counts = append(s.counts, c)
	return nil
}

func (s *state) manualCountsInRange(from, to time.Time) []ledger.ManualCount {
	var out []ledger.ManualCount
	for _, c := range s.counts {
		if ledger.InWindow(c.Timestamp, from, to) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// EXPENSES / DEPOSITS / DAILY SALES
// =============================================================================

func (s *state) appendExpense(e ledger.Expense) error {
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *state) expensesInRange(from, to time.Time) []ledger.Expense {
	var out []ledger.Expense
	for _, e := range s.expenses {
		if ledger.InWindow(e.Date, from, to) {
			out = append(out, e)
		}
	}
	return out
}

func (s *state) expensesByActorInRange(actorID string, from, to time.Time) []ledger.Expense {
	var out []ledger.Expense
	for _, e := range s.expensesInRange(from, to) {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out
}

func (s *state) appendDeposit(d ledger.Deposit) error {
	s.deposits = append(s.deposits, d)
	return nil
}

func (s *state) depositsInRange(from, to time.Time) []ledger.Deposit {
	var out []ledger.Deposit
	for _, d := range s.deposits {
		if ledger.InWindow(d.Date, from, to) {
			out = append(out, d)
		}
	}
	return out
}

func (s *state) upsertDailySales(rec ledger.DailySales) (*ledger.DailySales, error) {
	k := dateKey(rec.Date)
	var old *ledger.DailySales
	if prev, ok := s.sales[k]; ok {
		cp := prev
		old = &cp
	}
	s.sales[k] = rec
	return old, nil
}

func (s *state) dailySalesInRange(from, to time.Time) []ledger.DailySales {
	var out []ledger.DailySales
	for _, rec := range s.sales {
		if ledger.InWindow(rec.Date, from, to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// =============================================================================
// SHIFTS
// =============================================================================

func (s *state) createShift(sh ledger.Shift) error {
	s.shifts[sh.ID] = sh
	return nil
}

func (s *state) getShift(id string) (ledger.Shift, error) {
	sh, ok := s.shifts[id]
	if !ok {
		return ledger.Shift{}, ledger.ErrNotFound
	}
	return sh, nil
}

func (s *state) openShiftForActor(actorID string) *ledger.Shift {
	for _, sh := range s.shifts {
		if sh.ActorID == actorID && !sh.Closed() {
			cp := sh
			return &cp
		}
	}
	return nil
}

func (s *state) closeShift(closed ledger.Shift) error {
	cur, ok := s.shifts[closed.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if cur.Closed() {
		return ledger.ErrShiftClosed
	}
	s.shifts[closed.ID] = closed
	return nil
}

// =============================================================================
// TIME ENTRIES / EMPLOYEE EXPENSES / PAYCHECKS
// =============================================================================

func (s *state) appendTimeEntry(te ledger.TimeEntry) error {
	s.timeEntries = append(s.timeEntries, te)
	return nil
}

func (s *state) getTimeEntry(id string) (ledger.TimeEntry, error) {
	for _, te := range s.timeEntries {
		if te.ID == id {
			return te, nil
		}
	}
	return ledger.TimeEntry{}, ledger.ErrNotFound
}

func (s *state) openTimeEntryForEmployee(employeeID string) *ledger.TimeEntry {
	for _, te := range s.timeEntries {
		if te.EmployeeID == employeeID && te.ClockOut == nil {
			cp := te
			return &cp
		}
	}
	return nil
}

func (s *state) setClockOut(id string, at time.Time) error {
	for i, te := range s.timeEntries {
		if te.ID != id {
			continue
		}
		if te.ClockOut != nil {
			return ledger.Validationf("time_entry", "already clocked out")
		}
		out := at
		s.timeEntries[i].ClockOut = &out
		return nil
	}
	return ledger.ErrNotFound
}

func (s *state) timeEntriesInRange(from, to time.Time) []ledger.TimeEntry {
	var out []ledger.TimeEntry
	for _, te := range s.timeEntries {
		if ledger.InWindow(te.ClockIn, from, to) {
			out = append(out, te)
		}
	}
	return out
}

func (s *state) appendEmployeeExpense(e ledger.EmployeeExpense) error {
	s.empExpenses = append(s.empExpenses, e)
	return nil
}

func (s *state) employeeExpensesInRange(from, to time.Time) []ledger.EmployeeExpense {
	var out []ledger.EmployeeExpense
	for _, e := range s.empExpenses {
		if ledger.InWindow(e.Timestamp, from, to) {
			out = append(out, e)
		}
	}
	return out
}

func (s *state) appendPaycheck(p ledger.Paycheck) error {
	// Uniqueness on (employee, week) is enforced here, same as the SQL
	// stores do with a unique index.
	if existing := s.paycheckForWeek(p.EmployeeID, p.WeekStart, p.WeekEnd); existing != nil {
		return &ledger.DuplicatePaymentError{
			EmployeeID: p.EmployeeID,
			WeekStart:  existing.WeekStart,
			WeekEnd:    existing.WeekEnd,
			PaidAt:     existing.CreatedAt,
		}
	}
	s.paychecks = append(s.paychecks, p)
	return nil
}

func (s *state) paycheckForWeek(employeeID string, weekStart, weekEnd time.Time) *ledger.Paycheck {
	for _, p := range s.paychecks {
		if p.EmployeeID == employeeID &&
			ledger.SameDay(p.WeekStart, weekStart) &&
			ledger.SameDay(p.WeekEnd, weekEnd) {
			cp := p
			return &cp
		}
	}
	return nil
}

// =============================================================================
// AUDIT
// =============================================================================

func (s *state) appendAudit(entry ledger.AuditEntry) error {
	s.auditSeq++
	entry.ID = s.auditSeq
	s.audit = append(s.audit, entry)
	return nil
}

func (s *state) queryAudit(filter ledger.AuditFilter) (ledger.AuditPage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var page ledger.AuditPage
	for _, e := range s.audit {
		if e.ID <= filter.Cursor {
			continue
		}
		if !auditMatches(e, filter) {
			continue
		}
		if len(page.Entries) == limit {
			page.NextCursor = page.Entries[limit-1].ID
			return page, nil
		}
		page.Entries = append(page.Entries, e)
	}
	return page, nil
}

func auditMatches(e ledger.AuditEntry, f ledger.AuditFilter) bool {
	if f.Table != "" && e.Table != f.Table {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.From != nil && e.ChangedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.ChangedAt.Before(*f.To) {
		return false
	}
	return true
}

// =============================================================================
// SNAPSHOT / RESTORE - transaction simulation
// =============================================================================

func (s *state) clone() state {
	cp := state{
		drops:       append([]ledger.SafeDrop(nil), s.drops...),
		withdrawals: append([]ledger.Withdrawal(nil), s.withdrawals...),
		counts:      append([]ledger.ManualCount(nil), s.counts...),
		expenses:    append([]ledger.Expense(nil), s.expenses...),
		deposits:    append([]ledger.Deposit(nil), s.deposits...),
		sales:       make(map[string]ledger.DailySales, len(s.sales)),
		shifts:      make(map[string]ledger.Shift, len(s.shifts)),
		timeEntries: append([]ledger.TimeEntry(nil), s.timeEntries...),
		empExpenses: append([]ledger.EmployeeExpense(nil), s.empExpenses...),
		paychecks:   append([]ledger.Paycheck(nil), s.paychecks...),
		audit:       append([]ledger.AuditEntry(nil), s.audit...),
		auditSeq:    s.auditSeq,
	}
	for k, v := range s.sales {
		cp.sales[k] = v
	}
	for k, v := range s.shifts {
		cp.shifts[k] = v
	}
	return cp
}

// =============================================================================
// MEMORY - locked ledger.Store implementation
// =============================================================================

func (m *Memory) AppendDrop(_ context.Context, d ledger.SafeDrop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendDrop(d)
}

func (m *Memory) ConfirmedDrops(_ context.Context) ([]ledger.SafeDrop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.confirmedDrops(), nil
}

func (m *Memory) DropsInRange(_ context.Context, from, to time.Time) ([]ledger.SafeDrop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.dropsInRange(from, to), nil
}

func (m *Memory) DropsByActorInRange(_ context.Context, actorID string, from, to time.Time) ([]ledger.SafeDrop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.dropsByActorInRange(actorID, from, to), nil
}

func (m *Memory) AppendWithdrawal(_ context.Context, w ledger.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendWithdrawal(w)
}

func (m *Memory) Withdrawals(_ context.Context) ([]ledger.Withdrawal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ledger.Withdrawal(nil), m.st.withdrawals...), nil
}

func (m *Memory) AppendManualCount(_ context.Context, c ledger.ManualCount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendManualCount(c)
}

func (m *Memory) ManualCountsInRange(_ context.Context, from, to time.Time) ([]ledger.ManualCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.manualCountsInRange(from, to), nil
}

func (m *Memory) AppendExpense(_ context.Context, e ledger.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendExpense(e)
}

func (m *Memory) ExpensesInRange(_ context.Context, from, to time.Time) ([]ledger.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.expensesInRange(from, to), nil
}

func (m *Memory) ExpensesByActorInRange(_ context.Context, actorID string, from, to time.Time) ([]ledger.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.expensesByActorInRange(actorID, from, to), nil
}

func (m *Memory) AppendDeposit(_ context.Context, d ledger.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendDeposit(d)
}

func (m *Memory) DepositsInRange(_ context.Context, from, to time.Time) ([]ledger.Deposit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.depositsInRange(from, to), nil
}

func (m *Memory) UpsertDailySales(_ context.Context, rec ledger.DailySales) (*ledger.DailySales, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.upsertDailySales(rec)
}

func (m *Memory) DailySalesInRange(_ context.Context, from, to time.Time) ([]ledger.DailySales, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.dailySalesInRange(from, to), nil
}

func (m *Memory) CreateShift(_ context.Context, sh ledger.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.createShift(sh)
}

func (m *Memory) GetShift(_ context.Context, id string) (ledger.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getShift(id)
}

func (m *Memory) OpenShiftForActor(_ context.Context, actorID string) (*ledger.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.openShiftForActor(actorID), nil
}

func (m *Memory) CloseShift(_ context.Context, closed ledger.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.closeShift(closed)
}

func (m *Memory) AppendTimeEntry(_ context.Context, te ledger.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendTimeEntry(te)
}

func (m *Memory) GetTimeEntry(_ context.Context, id string) (ledger.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.getTimeEntry(id)
}

func (m *Memory) OpenTimeEntryForEmployee(_ context.Context, employeeID string) (*ledger.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.openTimeEntryForEmployee(employeeID), nil
}

func (m *Memory) SetClockOut(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.setClockOut(id, at)
}

func (m *Memory) TimeEntriesInRange(_ context.Context, from, to time.Time) ([]ledger.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.timeEntriesInRange(from, to), nil
}

func (m *Memory) AppendEmployeeExpense(_ context.Context, e ledger.EmployeeExpense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendEmployeeExpense(e)
}

func (m *Memory) EmployeeExpensesInRange(_ context.Context, from, to time.Time) ([]ledger.EmployeeExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.employeeExpensesInRange(from, to), nil
}

func (m *Memory) AppendPaycheck(_ context.Context, p ledger.Paycheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendPaycheck(p)
}

func (m *Memory) PaycheckForWeek(_ context.Context, employeeID string, weekStart, weekEnd time.Time) (*ledger.Paycheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.paycheckForWeek(employeeID, weekStart, weekEnd), nil
}

func (m *Memory) AppendAudit(_ context.Context, entry ledger.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.appendAudit(entry)
}

func (m *Memory) QueryAudit(_ context.Context, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.queryAudit(filter)
}

// =============================================================================
// TRANSACTIONS - whole-store lock + snapshot rollback
// =============================================================================

// WithTx executes fn atomically. The store lock is held for the duration,
// so fn sees a stable view; on error the pre-transaction snapshot is
// restored and nothing fn wrote is visible.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(&txView{st: &m.st}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// txView gives fn direct access to the state while Memory's lock is held.
type txView struct {
	st *state
}

func (v *txView) AppendDrop(_ context.Context, d ledger.SafeDrop) error { return v.st.appendDrop(d) }
func (v *txView) ConfirmedDrops(_ context.Context) ([]ledger.SafeDrop, error) {
	return v.st.confirmedDrops(), nil
}
func (v *txView) DropsInRange(_ context.Context, from, to time.Time) ([]ledger.SafeDrop, error) {
	return v.st.dropsInRange(from, to), nil
}
func (v *txView) DropsByActorInRange(_ context.Context, actorID string, from, to time.Time) ([]ledger.SafeDrop, error) {
	return v.st.dropsByActorInRange(actorID, from, to), nil
}
func (v *txView) AppendWithdrawal(_ context.Context, w ledger.Withdrawal) error {
	return v.st.appendWithdrawal(w)
}
func (v *txView) Withdrawals(_ context.Context) ([]ledger.Withdrawal, error) {
	return append([]ledger.Withdrawal(nil), v.st.withdrawals...), nil
}
func (v *txView) AppendManualCount(_ context.Context, c ledger.ManualCount) error {
	return v.st.appendManualCount(c)
}
func (v *txView) ManualCountsInRange(_ context.Context, from, to time.Time) ([]ledger.ManualCount, error) {
	return v.st.manualCountsInRange(from, to), nil
}
func (v *txView) AppendExpense(_ context.Context, e ledger.Expense) error {
	return v.st.appendExpense(e)
}
func (v *txView) ExpensesInRange(_ context.Context, from, to time.Time) ([]ledger.Expense, error) {
	return v.st.expensesInRange(from, to), nil
}
func (v *txView) ExpensesByActorInRange(_ context.Context, actorID string, from, to time.Time) ([]ledger.Expense, error) {
	return v.st.expensesByActorInRange(actorID, from, to), nil
}
func (v *txView) AppendDeposit(_ context.Context, d ledger.Deposit) error {
	return v.st.appendDeposit(d)
}
func (v *txView) DepositsInRange(_ context.Context, from, to time.Time) ([]ledger.Deposit, error) {
	return v.st.depositsInRange(from, to), nil
}
func (v *txView) UpsertDailySales(_ context.Context, rec ledger.DailySales) (*ledger.DailySales, error) {
	return v.st.upsertDailySales(rec)
}
func (v *txView) DailySalesInRange(_ context.Context, from, to time.Time) ([]ledger.DailySales, error) {
	return v.st.dailySalesInRange(from, to), nil
}
func (v *txView) CreateShift(_ context.Context, sh ledger.Shift) error { return v.st.createShift(sh) }
func (v *txView) GetShift(_ context.Context, id string) (ledger.Shift, error) {
	return v.st.getShift(id)
}
func (v *txView) OpenShiftForActor(_ context.Context, actorID string) (*ledger.Shift, error) {
	return v.st.openShiftForActor(actorID), nil
}
func (v *txView) CloseShift(_ context.Context, closed ledger.Shift) error {
	return v.st.closeShift(closed)
}
func (v *txView) AppendTimeEntry(_ context.Context, te ledger.TimeEntry) error {
	return v.st.appendTimeEntry(te)
}
func (v *txView) GetTimeEntry(_ context.Context, id string) (ledger.TimeEntry, error) {
	return v.st.getTimeEntry(id)
}
func (v *txView) OpenTimeEntryForEmployee(_ context.Context, employeeID string) (*ledger.TimeEntry, error) {
	return v.st.openTimeEntryForEmployee(employeeID), nil
}
func (v *txView) SetClockOut(_ context.Context, id string, at time.Time) error {
	return v.st.setClockOut(id, at)
}
func (v *txView) TimeEntriesInRange(_ context.Context, from, to time.Time) ([]ledger.TimeEntry, error) {
	return v.st.timeEntriesInRange(from, to), nil
}
func (v *txView) AppendEmployeeExpense(_ context.Context, e ledger.EmployeeExpense) error {
	return v.st.appendEmployeeExpense(e)
}
func (v *txView) EmployeeExpensesInRange(_ context.Context, from, to time.Time) ([]ledger.EmployeeExpense, error) {
	return v.st.employeeExpensesInRange(from, to), nil
}
func (v *txView) AppendPaycheck(_ context.Context, p ledger.Paycheck) error {
	return v.st.appendPaycheck(p)
}
func (v *txView) PaycheckForWeek(_ context.Context, employeeID string, weekStart, weekEnd time.Time) (*ledger.Paycheck, error) {
	return v.st.paycheckForWeek(employeeID, weekStart, weekEnd), nil
}
func (v *txView) AppendAudit(_ context.Context, entry ledger.AuditEntry) error {
	return v.st.appendAudit(entry)
}
func (v *txView) QueryAudit(_ context.Context, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	return v.st.queryAudit(filter)
}
