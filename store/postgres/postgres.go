/*
Package postgres provides the PostgreSQL-backed implementation of the
ledger storage interfaces, built on sqlx and lib/pq.

Unlike the SQLite adapter there is no process-wide writer mutex here:
the database owns concurrency control. WithTx runs serializable, and
serialization failures surface as transient errors so callers retry.

The schema mirrors store/sqlite with native types: NUMERIC for amounts,
TIMESTAMPTZ for instants, DATE for day-granularity facts, BIGSERIAL for
the audit sequence. The uniqueness guards are the same three indexes:
paychecks (employee, week), one open shift per actor, one open time
entry per employee.
*/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/warp/custody-ledger/ledger"
)

// Store implements ledger.TxStore over PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ ledger.TxStore = (*Store)(nil)

// New connects to the database at dsn and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS safe_drops (
		receipt_number TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		confirmed BOOLEAN NOT NULL DEFAULT TRUE,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_drops_ts ON safe_drops(ts);
	CREATE INDEX IF NOT EXISTS idx_drops_actor_ts ON safe_drops(actor_id, ts);

	CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		approver_id TEXT,
		amount NUMERIC(12,2) NOT NULL,
		reason TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS manual_counts (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		expected NUMERIC(12,2) NOT NULL,
		actual NUMERIC(12,2) NOT NULL,
		variance NUMERIC(12,2) NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		notes TEXT
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		payment_type TEXT NOT NULL,
		expense_date DATE NOT NULL,
		notes TEXT,
		receipt_ref TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(expense_date);
	CREATE INDEX IF NOT EXISTS idx_expenses_actor_date ON expenses(actor_id, expense_date);

	CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		vendor_id TEXT,
		actor_id TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		deposit_date DATE NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deposits_date ON deposits(deposit_date);

	CREATE TABLE IF NOT EXISTS daily_sales (
		sales_date DATE PRIMARY KEY,
		card_sales NUMERIC(12,2) NOT NULL,
		cash_sales NUMERIC(12,2) NOT NULL,
		total_sales NUMERIC(12,2) NOT NULL,
		variance NUMERIC(12,2) NOT NULL,
		closed_by TEXT NOT NULL,
		notes TEXT,
		closed_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		starting_cash NUMERIC(12,2) NOT NULL,
		ending_cash NUMERIC(12,2),
		total_drops NUMERIC(12,2) NOT NULL DEFAULT 0,
		total_expenses NUMERIC(12,2) NOT NULL DEFAULT 0,
		variance NUMERIC(12,2) NOT NULL DEFAULT 0,
		notes TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_open_per_actor
		ON shifts(actor_id) WHERE end_time IS NULL;

	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		clock_in TIMESTAMPTZ NOT NULL,
		clock_out TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_time_entries_clock_in ON time_entries(clock_in);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_one_open_per_employee
		ON time_entries(employee_id) WHERE clock_out IS NULL;

	CREATE TABLE IF NOT EXISTS employee_expenses (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		amount NUMERIC(12,2) NOT NULL,
		description TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employee_expenses_ts ON employee_expenses(ts);

	CREATE TABLE IF NOT EXISTS paychecks (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		week_start DATE NOT NULL,
		week_end DATE NOT NULL,
		hours DOUBLE PRECISION NOT NULL,
		hourly_rate NUMERIC(12,2) NOT NULL,
		gross_pay NUMERIC(12,2) NOT NULL,
		expenses_total NUMERIC(12,2) NOT NULL,
		net_pay NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT paychecks_one_per_week UNIQUE(employee_id, week_start, week_end)
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		action TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT,
		actor_id TEXT NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_table ON audit_log(table_name);
	CREATE INDEX IF NOT EXISTS idx_audit_changed_at ON audit_log(changed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROW TYPES AND HELPERS
// =============================================================================

// asMoney refuses malformed amounts instead of coercing them to zero.
// A balance built from unreadable rows is worse than no balance at all.
func asMoney(s string) (ledger.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ledger.Money{}, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return ledger.Money{Value: d}, nil
}

func pqErr(err error) *pq.Error {
	var e *pq.Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func isUniqueViolation(err error) bool {
	e := pqErr(err)
	return e != nil && e.Code == "23505"
}

func isSerializationFailure(err error) bool {
	e := pqErr(err)
	return e != nil && (e.Code == "40001" || e.Code == "40P01")
}

type dropRow struct {
	ReceiptNumber string         `db:"receipt_number"`
	ActorID       string         `db:"actor_id"`
	Amount        string         `db:"amount"`
	Timestamp     time.Time      `db:"ts"`
	Confirmed     bool           `db:"confirmed"`
	Notes         sql.NullString `db:"notes"`
}

func (r dropRow) fact() (ledger.SafeDrop, error) {
	amount, err := asMoney(r.Amount)
	if err != nil {
		return ledger.SafeDrop{}, err
	}
	return ledger.SafeDrop{
		ReceiptNumber: r.ReceiptNumber,
		ActorID:       r.ActorID,
		Amount:        amount,
		Timestamp:     r.Timestamp.UTC(),
		Confirmed:     r.Confirmed,
		Notes:         r.Notes.String,
	}, nil
}

type withdrawalRow struct {
	ID         string         `db:"id"`
	ActorID    string         `db:"actor_id"`
	ApproverID sql.NullString `db:"approver_id"`
	Amount     string         `db:"amount"`
	Reason     string         `db:"reason"`
	Timestamp  time.Time      `db:"ts"`
}

func (r withdrawalRow) fact() (ledger.Withdrawal, error) {
	amount, err := asMoney(r.Amount)
	if err != nil {
		return ledger.Withdrawal{}, err
	}
	return ledger.Withdrawal{
		ID:         r.ID,
		ActorID:    r.ActorID,
		ApproverID: r.ApproverID.String,
		Amount:     amount,
		Reason:     r.Reason,
		Timestamp:  r.Timestamp.UTC(),
	}, nil
}

type manualCountRow struct {
	ID        string         `db:"id"`
	ActorID   string         `db:"actor_id"`
	Expected  string         `db:"expected"`
	Actual    string         `db:"actual"`
	Variance  string         `db:"variance"`
	Timestamp time.Time      `db:"ts"`
	Notes     sql.NullString `db:"notes"`
}

func (r manualCountRow) fact() (ledger.ManualCount, error) {
	expected, err := asMoney(r.Expected)
	if err != nil {
		return ledger.ManualCount{}, err
	}
	actual, err := asMoney(r.Actual)
	if err != nil {
		return ledger.ManualCount{}, err
	}
	variance, err := asMoney(r.Variance)
	if err != nil {
		return ledger.ManualCount{}, err
	}
	return ledger.ManualCount{
		ID:        r.ID,
		ActorID:   r.ActorID,
		Expected:  expected,
		Actual:    actual,
		Variance:  variance,
		Timestamp: r.Timestamp.UTC(),
		Notes:     r.Notes.String,
	}, nil
}

type expenseRow struct {
	ID          string         `db:"id"`
	VendorID    string         `db:"vendor_id"`
	ActorID     string         `db:"actor_id"`
	Amount      string         `db:"amount"`
	PaymentType string         `db:"payment_type"`
	Date        time.Time      `db:"expense_date"`
	Notes       sql.NullString `db:"notes"`
	ReceiptRef  sql.NullString `db:"receipt_ref"`
}

func (r expenseRow) fact() (ledger.Expense, error) {
	amount, err := asMoney(r.Amount)
	if err != nil {
		return ledger.Expense{}, err
	}
	return ledger.Expense{
		ID:          r.ID,
		VendorID:    r.VendorID,
		ActorID:     r.ActorID,
		Amount:      amount,
		PaymentType: ledger.PaymentType(r.PaymentType),
		Date:        ledger.Date(r.Date),
		Notes:       r.Notes.String,
		ReceiptRef:  r.ReceiptRef.String,
	}, nil
}

type depositRow struct {
	ID       string         `db:"id"`
	VendorID sql.NullString `db:"vendor_id"`
	ActorID  string         `db:"actor_id"`
	Amount   string         `db:"amount"`
	Date     time.Time      `db:"deposit_date"`
}

func (r depositRow) fact() (ledger.Deposit, error) {
	amount, err := asMoney(r.Amount)
	if err != nil {
		return ledger.Deposit{}, err
	}
	return ledger.Deposit{
		ID:       r.ID,
		VendorID: r.VendorID.String,
		ActorID:  r.ActorID,
		Amount:   amount,
		Date:     ledger.Date(r.Date),
	}, nil
}

type dailySalesRow struct {
	Date      time.Time      `db:"sales_date"`
	CardSales string         `db:"card_sales"`
	CashSales string         `db:"cash_sales"`
	Total     string         `db:"total_sales"`
	Variance  string         `db:"variance"`
	ClosedBy  string         `db:"closed_by"`
	Notes     sql.NullString `db:"notes"`
	ClosedAt  time.Time      `db:"closed_at"`
}

func (r dailySalesRow) fact() (ledger.DailySales, error) {
	card, err := asMoney(r.CardSales)
	if err != nil {
		return ledger.DailySales{}, err
	}
	cash, err := asMoney(r.CashSales)
	if err != nil {
		return ledger.DailySales{}, err
	}
	total, err := asMoney(r.Total)
	if err != nil {
		return ledger.DailySales{}, err
	}
	variance, err := asMoney(r.Variance)
	if err != nil {
		return ledger.DailySales{}, err
	}
	return ledger.DailySales{
		Date:      ledger.Date(r.Date),
		CardSales: card,
		CashSales: cash,
		Total:     total,
		Variance:  variance,
		ClosedBy:  r.ClosedBy,
		Notes:     r.Notes.String,
		ClosedAt:  r.ClosedAt.UTC(),
	}, nil
}

type shiftRow struct {
	ID            string         `db:"id"`
	ActorID       string         `db:"actor_id"`
	StartTime     time.Time      `db:"start_time"`
	EndTime       *time.Time     `db:"end_time"`
	StartingCash  string         `db:"starting_cash"`
	EndingCash    sql.NullString `db:"ending_cash"`
	TotalDrops    string         `db:"total_drops"`
	TotalExpenses string         `db:"total_expenses"`
	Variance      string         `db:"variance"`
	Notes         sql.NullString `db:"notes"`
}

func (r shiftRow) fact() (ledger.Shift, error) {
	starting, err := asMoney(r.StartingCash)
	if err != nil {
		return ledger.Shift{}, err
	}
	drops, err := asMoney(r.TotalDrops)
	if err != nil {
		return ledger.Shift{}, err
	}
	expenses, err := asMoney(r.TotalExpenses)
	if err != nil {
		return ledger.Shift{}, err
	}
	variance, err := asMoney(r.Variance)
	if err != nil {
		return ledger.Shift{}, err
	}
	sh := ledger.Shift{
		ID:            r.ID,
		ActorID:       r.ActorID,
		StartTime:     r.StartTime.UTC(),
		StartingCash:  starting,
		TotalDrops:    drops,
		TotalExpenses: expenses,
		Variance:      variance,
		Notes:         r.Notes.String,
	}
	if r.EndTime != nil {
		t := r.EndTime.UTC()
		sh.EndTime = &t
	}
	if r.EndingCash.Valid {
		m, err := asMoney(r.EndingCash.String)
		if err != nil {
			return ledger.Shift{}, err
		}
		sh.EndingCash = &m
	}
	return sh, nil
}

type timeEntryRow struct {
	ID         string     `db:"id"`
	EmployeeID string     `db:"employee_id"`
	ClockIn    time.Time  `db:"clock_in"`
	ClockOut   *time.Time `db:"clock_out"`
}

func (r timeEntryRow) fact() ledger.TimeEntry {
	te := ledger.TimeEntry{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		ClockIn:    r.ClockIn.UTC(),
	}
	if r.ClockOut != nil {
		t := r.ClockOut.UTC()
		te.ClockOut = &t
	}
	return te
}

type employeeExpenseRow struct {
	ID          string    `db:"id"`
	EmployeeID  string    `db:"employee_id"`
	Amount      string    `db:"amount"`
	Description string    `db:"description"`
	Timestamp   time.Time `db:"ts"`
}

func (r employeeExpenseRow) fact() (ledger.EmployeeExpense, error) {
	amount, err := asMoney(r.Amount)
	if err != nil {
		return ledger.EmployeeExpense{}, err
	}
	return ledger.EmployeeExpense{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		Amount:      amount,
		Description: r.Description,
		Timestamp:   r.Timestamp.UTC(),
	}, nil
}

type paycheckRow struct {
	ID            string    `db:"id"`
	EmployeeID    string    `db:"employee_id"`
	WeekStart     time.Time `db:"week_start"`
	WeekEnd       time.Time `db:"week_end"`
	Hours         float64   `db:"hours"`
	HourlyRate    string    `db:"hourly_rate"`
	GrossPay      string    `db:"gross_pay"`
	ExpensesTotal string    `db:"expenses_total"`
	NetPay        string    `db:"net_pay"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r paycheckRow) fact() (ledger.Paycheck, error) {
	rate, err := asMoney(r.HourlyRate)
	if err != nil {
		return ledger.Paycheck{}, err
	}
	gross, err := asMoney(r.GrossPay)
	if err != nil {
		return ledger.Paycheck{}, err
	}
	expenses, err := asMoney(r.ExpensesTotal)
	if err != nil {
		return ledger.Paycheck{}, err
	}
	net, err := asMoney(r.NetPay)
	if err != nil {
		return ledger.Paycheck{}, err
	}
	return ledger.Paycheck{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		WeekStart:     ledger.Date(r.WeekStart),
		WeekEnd:       ledger.Date(r.WeekEnd),
		Hours:         r.Hours,
		HourlyRate:    rate,
		GrossPay:      gross,
		ExpensesTotal: expenses,
		NetPay:        net,
		CreatedAt:     r.CreatedAt.UTC(),
	}, nil
}

type auditRow struct {
	ID        int64          `db:"id"`
	Table     string         `db:"table_name"`
	RecordID  string         `db:"record_id"`
	Action    string         `db:"action"`
	OldValue  sql.NullString `db:"old_value"`
	NewValue  sql.NullString `db:"new_value"`
	ActorID   string         `db:"actor_id"`
	ChangedAt time.Time      `db:"changed_at"`
}

func (r auditRow) fact() ledger.AuditEntry {
	return ledger.AuditEntry{
		ID:        r.ID,
		Table:     r.Table,
		RecordID:  r.RecordID,
		Action:    ledger.AuditAction(r.Action),
		OldValue:  r.OldValue.String,
		NewValue:  r.NewValue.String,
		ActorID:   r.ActorID,
		ChangedAt: r.ChangedAt.UTC(),
	}
}

// =============================================================================
// QUERIES - shared between *sqlx.DB and *sqlx.Tx via sqlx.ExtContext
// =============================================================================

func appendDrop(ctx context.Context, q sqlx.ExtContext, d ledger.SafeDrop) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO safe_drops (receipt_number, actor_id, amount, ts, confirmed, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ReceiptNumber, d.ActorID, d.Amount.String(), d.Timestamp.UTC(), d.Confirmed, d.Notes)
	if err != nil {
		return fmt.Errorf("failed to append drop: %w", err)
	}
	return nil
}

func selectDrops(ctx context.Context, q sqlx.ExtContext, query string, args ...any) ([]ledger.SafeDrop, error) {
	var rows []dropRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query drops: %w", err)
	}
	out := make([]ledger.SafeDrop, 0, len(rows))
	for _, r := range rows {
		d, err := r.fact()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func confirmedDrops(ctx context.Context, q sqlx.ExtContext) ([]ledger.SafeDrop, error) {
	return selectDrops(ctx, q,
		`SELECT * FROM safe_drops WHERE confirmed ORDER BY ts ASC`)
}

func dropsInRange(ctx context.Context, q sqlx.ExtContext, from, to time.Time) ([]ledger.SafeDrop, error) {
	return selectDrops(ctx, q,
		`SELECT * FROM safe_drops WHERE ts >= $1 AND ts < $2 ORDER BY ts ASC`,
		from.UTC(), to.UTC())
}

func dropsByActorInRange(ctx context.Context, q sqlx.ExtContext, actorID string, from, to time.Time) ([]ledger.SafeDrop, error) {
	return selectDrops(ctx, q,
		`SELECT * FROM safe_drops WHERE actor_id = $1 AND ts >= $2 AND ts < $3 ORDER BY ts ASC`,
		actorID, from.UTC(), to.UTC())
}

func appendWithdrawal(ctx context.Context, q sqlx.ExtContext, w ledger.Withdrawal) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO withdrawals (id, actor_id, approver_id, amount, reason, ts)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.ActorID, w.ApproverID, w.Amount.String(), w.Reason, w.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to append withdrawal: %w", err)
	}
	return nil
}

func withdrawals(ctx context.Context, q sqlx.ExtContext) ([]ledger.Withdrawal, error) {
	var rows []withdrawalRow
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT * FROM withdrawals ORDER BY ts ASC`); err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	out := make([]ledger.Withdrawal, 0, len(rows))
	for _, r := range rows {
		w, err := r.fact()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func appendManualCount(ctx context.Context, q sqlx.ExtContext, c ledger.ManualCount) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO manual_counts (id, actor_id, expected, actual, variance, ts, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ActorID, c.Expected.String(), c.Actual.String(), c.Variance.String(),
		c.Timestamp.UTC(), c.Notes)
	if err != nil {
		return fmt.Errorf("failed to append manual count: %w", err)
	}
	return nil
}

func manualCountsInRange(ctx context.Context, q sqlx.ExtContext, from, to time.Time) ([]ledger.ManualCount, error) {
	var rows []manualCountRow
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT * FROM manual_counts WHERE ts >= $1 AND ts < $2 ORDER BY ts ASC`,
		from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("failed to query manual counts: %w", err)
	}
	out := make([]ledger.ManualCount, 0, len(rows))
	for _, r := range rows {
		c, err := r.fact()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func appendExpense(ctx context.Context, q sqlx.ExtContext, e ledger.Expense) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO expenses (id, vendor_id, actor_id, amount, payment_type, expense_date, notes, receipt_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.VendorID, e.ActorID, e.Amount.String(), string(e.PaymentType),
		ledger.Date(e.Date), e.Notes, e.ReceiptRef)
	if err != nil {
		return fmt.Errorf("failed to append expense: %w", err)
	}
	return nil
}

func selectExpenses(ctx context.Context, q sqlx.ExtContext, query string, args ...any) ([]ledger.Expense, error) {
	var rows []expenseRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	out := make([]ledger.Expense, 0, len(rows))
	for _, r := range rows {
		e, err := r.fact()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func expensesInRange(ctx context.Context, q sqlx.ExtContext, from, to time.Time) ([]ledger.Expense, error) {
	return selectExpenses(ctx, q,
		`SELECT * FROM expenses WHERE expense_date >= $1 AND expense_date < $2 ORDER BY expense_date ASC`,
		ledger.Date(from), ledger.Date(to))
}

func expensesByActorInRange(ctx context.Context, q sqlx.ExtContext, actorID string, from, to time.Time) ([]ledger.Expense, error) {
	return selectExpenses(ctx, q,
		`SELECT * FROM expenses WHERE actor_id = $1 AND expense_date >= $2 AND expense_date < $3 ORDER BY expense_date ASC`,
		actorID, ledger.Date(from), ledger.Date(to))
}

func appendDeposit(ctx context.Context, q sqlx.ExtContext, d ledger.Deposit) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO deposits (id, vendor_id, actor_id, amount, deposit_date)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.VendorID, d.ActorID, d.Amount.String(), ledger.Date(d.Date))
	if err != nil {
		return fmt.Errorf("failed to append deposit: %w", err)
	}
	return nil
}

func depositsInRange(ctx context.Context, q sqlx.ExtContext, from, to time.Time) ([]ledger.Deposit, error) {
	var rows []depositRow
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT * FROM deposits WHERE deposit_date >= $1 AND deposit_date < $2 ORDER BY deposit_date ASC`,
		ledger.Date(from), ledger.Date(to)); err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	out := make([]ledger.Deposit, 0, len(rows))
	for _, r := range rows {
		d, err := r.fact()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func upsertDailySales(ctx context.Context, q sqlx.ExtContext, rec ledger.DailySales) (*ledger.DailySales, error) {
	var prev []dailySalesRow
	if err := sqlx.SelectContext(ctx, q, &prev,
		`SELECT * FROM daily_sales WHERE sales_date = $1`, ledger.Date(rec.Date)); err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO daily_sales (sales_date, card_sales, cash_sales, total_sales, variance, closed_by, notes, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sales_date) DO UPDATE SET
			card_sales = EXCLUDED.card_sales,
			cash_sales = EXCLUDED.cash_sales,
			total_sales = EXCLUDED.total_sales,
			variance = EXCLUDED.variance,
			closed_by = EXCLUDED.closed_by,
			notes = EXCLUDED.notes,
			closed_at = EXCLUDED.closed_at`,
		ledger.Date(rec.Date), rec.CardSales.String(), rec.CashSales.String(),
		rec.Total.String(), rec.Variance.String(), rec.ClosedBy, rec.Notes, rec.ClosedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily sales: %w", err)
	}

	if len(prev) == 0 {
		return nil, nil
	}
	old, err := prev[0].fact()
	if err != nil {
		return nil, err
	}
	return &old, nil
}

func dailySalesInRange(ctx context.Context, q sqlx.ExtContext, from, to time.Time) ([]ledger.DailySales, error) {
	var rows []dailySalesRow
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT * FROM daily_sales WHERE sales_date >= $1 AND sales_date < $2 ORDER BY sales_date ASC`,
		ledger.Date(from), ledger.Date(to)); err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	out := make([]ledger.DailySales, 0, len(rows))
	for _, r := range rows {
		ds, err := r.fact()
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

func createShift(ctx context.Context, q sqlx.ExtContext, sh ledger.Shift) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO shifts (id, actor_id, start_time, starting_cash, total_drops, total_expenses, variance, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sh.ID, sh.ActorID, sh.StartTime.UTC(), sh.StartingCash.String(),
		sh.TotalDrops.String(), sh.TotalExpenses.String(), sh.Variance.String(), sh.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrShiftAlreadyOpen
		}
		return fmt.Errorf("failed to create shift: %w", err)
	}
	return nil
}

func getShift(ctx context.Context, q sqlx.ExtContext, id string) (ledger.Shift, error) {
	var row shiftRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT * FROM shifts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Shift{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return row.fact()
}

func openShiftForActor(ctx context.Context, q sqlx.ExtContext, actorID string) (*ledger.Shift, error) {
	var row shiftRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT * FROM shifts WHERE actor_id = $1 AND end_time IS NULL`, actorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open shift: %w", err)
	}
	sh, err := row.fact()
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

func closeShift(ctx context.Context, q sqlx.ExtContext, closed ledger.Shift) error {
	if closed.EndTime == nil || closed.EndingCash == nil {
		return ledger.Validationf("shift", "close requires end time and ending cash")
	}
	res, err := q.ExecContext(ctx, `
		UPDATE shifts
		SET end_time = $1, ending_cash = $2, total_drops = $3, total_expenses = $4, variance = $5, notes = $6
		WHERE id = $7 AND end_time IS NULL`,
		closed.EndTime.UTC(), closed.EndingCash.String(), closed.TotalDrops.String(),
		closed.TotalExpenses.String(), closed.Variance.String(), closed.Notes, closed.ID)
	if err != nil {
		return fmt.Errorf("failed to close shift: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := getShift(ctx, q, closed.ID); gerr != nil {
			return gerr
		}
		return ledger.ErrShiftClosed
	}
	return nil
}

func appendTimeEntry(ctx context.Context, q sqlx.ExtContext, te ledger.TimeEntry) error {
	var clockOut any
	if te.ClockOut != nil {
		clockOut = te.ClockOut.UTC()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO time_entries (id, employee_id, clock_in, clock_out)
		VALUES ($1, $2, $3, $4)`,
		te.ID, te.EmployeeID, te.ClockIn.UTC(), clockOut)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.Validationf("employee_id", "already clocked in")
		}
		return fmt.Errorf("failed to append time entry: %w", err)
	}
	return nil
}

func getTimeEntry(ctx context.Context, q sqlx.ExtContext, id string) (ledger.TimeEntry, error) {
	var row timeEntryRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT * FROM time_entries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.TimeEntry{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.TimeEntry{}, fmt.Errorf("failed to get time entry: %w", err)
	}
	return row.fact(), nil
}

func openTimeEntryForEmployee(ctx context.Context, q sqlx.ExtContext, employeeID string) (*ledger.TimeEntry, error) {
	var row timeEntryRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT * FROM time_entries WHERE employee_id = $1 AND clock_out IS NULL`, employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open time entry: %w", err)
	}
	te := row.fact()
	return &te, nil
}

func setClockOut(ctx context.Context, q sqlx.ExtContext, id string, at time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE time_entries SET clock_out = $1 WHERE id = $2 AND clock_out IS NULL`,
		at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set clock out: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := getTimeEntry(ctx, q, id); gerr != nil {
			return gerr
		}
		return ledger.Validationf("time_entry", "already clocked out")
	}
	return nil
}

func timeEntriesInRange(ctx context.Context, q sqlx.ExtContext, from, to time.Time) ([]ledger.TimeEntry, error) {
	var rows []timeEntryRow
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT * FROM time_entries WHERE clock_in >= $1 AND clock_in < $2 ORDER BY clock_in ASC`,
		from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	out := make([]ledger.TimeEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.fact())
	}
	return out, nil
}

func appendEmployeeExpense(ctx context.Context, q sqlx.ExtContext, e ledger.EmployeeExpense) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO employee_expenses (id, employee_id, amount, description, ts)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.EmployeeID, e.Amount.String(), e.Description, e.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to append employee expense: %w", err)
	}
	return nil
}

func employeeExpensesInRange(ctx context.Context, q sqlx.ExtContext, from, to time.Time) ([]ledger.EmployeeExpense, error) {
	var rows []employeeExpenseRow
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT * FROM employee_expenses WHERE ts >= $1 AND ts < $2 ORDER BY ts ASC`,
		from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("failed to query employee expenses: %w", err)
	}
	out := make([]ledger.EmployeeExpense, 0, len(rows))
	for _, r := range rows {
		e, err := r.fact()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func appendPaycheck(ctx context.Context, q sqlx.ExtContext, p ledger.Paycheck) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO paychecks (id, employee_id, week_start, week_end, hours, hourly_rate,
			gross_pay, expenses_total, net_pay, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.EmployeeID, ledger.Date(p.WeekStart), ledger.Date(p.WeekEnd), p.Hours,
		p.HourlyRate.String(), p.GrossPay.String(), p.ExpensesTotal.String(),
		p.NetPay.String(), p.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			existing, gerr := paycheckForWeek(ctx, q, p.EmployeeID, p.WeekStart, p.WeekEnd)
			if gerr == nil && existing != nil {
				return &ledger.DuplicatePaymentError{
					EmployeeID: p.EmployeeID,
					WeekStart:  existing.WeekStart,
					WeekEnd:    existing.WeekEnd,
					PaidAt:     existing.CreatedAt,
				}
			}
			return &ledger.DuplicatePaymentError{
				EmployeeID: p.EmployeeID, WeekStart: p.WeekStart, WeekEnd: p.WeekEnd,
			}
		}
		return fmt.Errorf("failed to append paycheck: %w", err)
	}
	return nil
}

func paycheckForWeek(ctx context.Context, q sqlx.ExtContext, employeeID string, weekStart, weekEnd time.Time) (*ledger.Paycheck, error) {
	var row paycheckRow
	err := sqlx.GetContext(ctx, q, &row, `
		SELECT * FROM paychecks
		WHERE employee_id = $1 AND week_start = $2 AND week_end = $3`,
		employeeID, ledger.Date(weekStart), ledger.Date(weekEnd))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query paycheck: %w", err)
	}
	p, err := row.fact()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func appendAudit(ctx context.Context, q sqlx.ExtContext, entry ledger.AuditEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (table_name, record_id, action, old_value, new_value, actor_id, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.Table, entry.RecordID, string(entry.Action), entry.OldValue,
		entry.NewValue, entry.ActorID, entry.ChangedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func queryAudit(ctx context.Context, q sqlx.ExtContext, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT * FROM audit_log WHERE id > $1`
	args := []any{filter.Cursor}

	if filter.Table != "" {
		args = append(args, filter.Table)
		query += fmt.Sprintf(" AND table_name = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, string(filter.Action))
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		query += fmt.Sprintf(" AND actor_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, filter.From.UTC())
		query += fmt.Sprintf(" AND changed_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, filter.To.UTC())
		query += fmt.Sprintf(" AND changed_at < $%d", len(args))
	}
	// One extra row tells us whether another page exists.
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d", len(args))

	var rows []auditRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return ledger.AuditPage{}, fmt.Errorf("failed to query audit log: %w", err)
	}

	var page ledger.AuditPage
	for _, r := range rows {
		page.Entries = append(page.Entries, r.fact())
	}
	if len(page.Entries) > limit {
		page.Entries = page.Entries[:limit]
		page.NextCursor = page.Entries[limit-1].ID
	}
	return page, nil
}

// =============================================================================
// STORE - ledger.Store implementation over *sqlx.DB
// =============================================================================

func (s *Store) AppendDrop(ctx context.Context, d ledger.SafeDrop) error {
	return appendDrop(ctx, s.db, d)
}
func (s *Store) ConfirmedDrops(ctx context.Context) ([]ledger.SafeDrop, error) {
	return confirmedDrops(ctx, s.db)
}
func (s *Store) DropsInRange(ctx context.Context, from, to time.Time) ([]ledger.SafeDrop, error) {
	return dropsInRange(ctx, s.db, from, to)
}
func (s *Store) DropsByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]ledger.SafeDrop, error) {
	return dropsByActorInRange(ctx, s.db, actorID, from, to)
}
func (s *Store) AppendWithdrawal(ctx context.Context, w ledger.Withdrawal) error {
	return appendWithdrawal(ctx, s.db, w)
}
func (s *Store) Withdrawals(ctx context.Context) ([]ledger.Withdrawal, error) {
	return withdrawals(ctx, s.db)
}
func (s *Store) AppendManualCount(ctx context.Context, c ledger.ManualCount) error {
	return appendManualCount(ctx, s.db, c)
}
func (s *Store) ManualCountsInRange(ctx context.Context, from, to time.Time) ([]ledger.ManualCount, error) {
	return manualCountsInRange(ctx, s.db, from, to)
}
func (s *Store) AppendExpense(ctx context.Context, e ledger.Expense) error {
	return appendExpense(ctx, s.db, e)
}
func (s *Store) ExpensesInRange(ctx context.Context, from, to time.Time) ([]ledger.Expense, error) {
	return expensesInRange(ctx, s.db, from, to)
}
func (s *Store) ExpensesByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]ledger.Expense, error) {
	return expensesByActorInRange(ctx, s.db, actorID, from, to)
}
func (s *Store) AppendDeposit(ctx context.Context, d ledger.Deposit) error {
	return appendDeposit(ctx, s.db, d)
}
func (s *Store) DepositsInRange(ctx context.Context, from, to time.Time) ([]ledger.Deposit, error) {
	return depositsInRange(ctx, s.db, from, to)
}
func (s *Store) UpsertDailySales(ctx context.Context, rec ledger.DailySales) (*ledger.DailySales, error) {
	return upsertDailySales(ctx, s.db, rec)
}
func (s *Store) DailySalesInRange(ctx context.Context, from, to time.Time) ([]ledger.DailySales, error) {
	return dailySalesInRange(ctx, s.db, from, to)
}
func (s *Store) CreateShift(ctx context.Context, sh ledger.Shift) error {
	return createShift(ctx, s.db, sh)
}
func (s *Store) GetShift(ctx context.Context, id string) (ledger.Shift, error) {
	return getShift(ctx, s.db, id)
}
func (s *Store) OpenShiftForActor(ctx context.Context, actorID string) (*ledger.Shift, error) {
	return openShiftForActor(ctx, s.db, actorID)
}
func (s *Store) CloseShift(ctx context.Context, closed ledger.Shift) error {
	return closeShift(ctx, s.db, closed)
}
func (s *Store) AppendTimeEntry(ctx context.Context, te ledger.TimeEntry) error {
	return appendTimeEntry(ctx, s.db, te)
}
func (s *Store) GetTimeEntry(ctx context.Context, id string) (ledger.TimeEntry, error) {
	return getTimeEntry(ctx, s.db, id)
}
func (s *Store) OpenTimeEntryForEmployee(ctx context.Context, employeeID string) (*ledger.TimeEntry, error) {
	return openTimeEntryForEmployee(ctx, s.db, employeeID)
}
func (s *Store) SetClockOut(ctx context.Context, id string, at time.Time) error {
	return setClockOut(ctx, s.db, id, at)
}
func (s *Store) TimeEntriesInRange(ctx context.Context, from, to time.Time) ([]ledger.TimeEntry, error) {
	return timeEntriesInRange(ctx, s.db, from, to)
}
func (s *Store) AppendEmployeeExpense(ctx context.Context, e ledger.EmployeeExpense) error {
	return appendEmployeeExpense(ctx, s.db, e)
}
func (s *Store) EmployeeExpensesInRange(ctx context.Context, from, to time.Time) ([]ledger.EmployeeExpense, error) {
	return employeeExpensesInRange(ctx, s.db, from, to)
}
func (s *Store) AppendPaycheck(ctx context.Context, p ledger.Paycheck) error {
	return appendPaycheck(ctx, s.db, p)
}
func (s *Store) PaycheckForWeek(ctx context.Context, employeeID string, weekStart, weekEnd time.Time) (*ledger.Paycheck, error) {
	return paycheckForWeek(ctx, s.db, employeeID, weekStart, weekEnd)
}
func (s *Store) AppendAudit(ctx context.Context, entry ledger.AuditEntry) error {
	return appendAudit(ctx, s.db, entry)
}
func (s *Store) QueryAudit(ctx context.Context, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	return queryAudit(ctx, s.db, filter)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn in a serializable transaction. A serialization
// failure rolls back and surfaces as a transient error so callers can
// retry; this is how two concurrent withdrawal checks against the same
// balance resolve to exactly one append.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		if isSerializationFailure(err) {
			return ledger.TransientError(err)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return ledger.TransientError(err)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore is the ledger.Store view handed to WithTx callbacks.
type txStore struct {
	q sqlx.ExtContext
}

var _ ledger.Store = (*txStore)(nil)

func (t *txStore) AppendDrop(ctx context.Context, d ledger.SafeDrop) error {
	return appendDrop(ctx, t.q, d)
}
func (t *txStore) ConfirmedDrops(ctx context.Context) ([]ledger.SafeDrop, error) {
	return confirmedDrops(ctx, t.q)
}
func (t *txStore) DropsInRange(ctx context.Context, from, to time.Time) ([]ledger.SafeDrop, error) {
	return dropsInRange(ctx, t.q, from, to)
}
func (t *txStore) DropsByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]ledger.SafeDrop, error) {
	return dropsByActorInRange(ctx, t.q, actorID, from, to)
}
func (t *txStore) AppendWithdrawal(ctx context.Context, w ledger.Withdrawal) error {
	return appendWithdrawal(ctx, t.q, w)
}
func (t *txStore) Withdrawals(ctx context.Context) ([]ledger.Withdrawal, error) {
	return withdrawals(ctx, t.q)
}
func (t *txStore) AppendManualCount(ctx context.Context, c ledger.ManualCount) error {
	return appendManualCount(ctx, t.q, c)
}
func (t *txStore) ManualCountsInRange(ctx context.Context, from, to time.Time) ([]ledger.ManualCount, error) {
	return manualCountsInRange(ctx, t.q, from, to)
}
func (t *txStore) AppendExpense(ctx context.Context, e ledger.Expense) error {
	return appendExpense(ctx, t.q, e)
}
func (t *txStore) ExpensesInRange(ctx context.Context, from, to time.Time) ([]ledger.Expense, error) {
	return expensesInRange(ctx, t.q, from, to)
}
func (t *txStore) ExpensesByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]ledger.Expense, error) {
	return expensesByActorInRange(ctx, t.q, actorID, from, to)
}
func (t *txStore) AppendDeposit(ctx context.Context, d ledger.Deposit) error {
	return appendDeposit(ctx, t.q, d)
}
func (t *txStore) DepositsInRange(ctx context.Context, from, to time.Time) ([]ledger.Deposit, error) {
	return depositsInRange(ctx, t.q, from, to)
}
func (t *txStore) UpsertDailySales(ctx context.Context, rec ledger.DailySales) (*ledger.DailySales, error) {
	return upsertDailySales(ctx, t.q, rec)
}
func (t *txStore) DailySalesInRange(ctx context.Context, from, to time.Time) ([]ledger.DailySales, error) {
	return dailySalesInRange(ctx, t.q, from, to)
}
func (t *txStore) CreateShift(ctx context.Context, sh ledger.Shift) error {
	return createShift(ctx, t.q, sh)
}
func (t *txStore) GetShift(ctx context.Context, id string) (ledger.Shift, error) {
	return getShift(ctx, t.q, id)
}
func (t *txStore) OpenShiftForActor(ctx context.Context, actorID string) (*ledger.Shift, error) {
	return openShiftForActor(ctx, t.q, actorID)
}
func (t *txStore) CloseShift(ctx context.Context, closed ledger.Shift) error {
	return closeShift(ctx, t.q, closed)
}
func (t *txStore) AppendTimeEntry(ctx context.Context, te ledger.TimeEntry) error {
	return appendTimeEntry(ctx, t.q, te)
}
func (t *txStore) GetTimeEntry(ctx context.Context, id string) (ledger.TimeEntry, error) {
	return getTimeEntry(ctx, t.q, id)
}
func (t *txStore) OpenTimeEntryForEmployee(ctx context.Context, employeeID string) (*ledger.TimeEntry, error) {
	return openTimeEntryForEmployee(ctx, t.q, employeeID)
}
func (t *txStore) SetClockOut(ctx context.Context, id string, at time.Time) error {
	return setClockOut(ctx, t.q, id, at)
}
func (t *txStore) TimeEntriesInRange(ctx context.Context, from, to time.Time) ([]ledger.TimeEntry, error) {
	return timeEntriesInRange(ctx, t.q, from, to)
}
func (t *txStore) AppendEmployeeExpense(ctx context.Context, e ledger.EmployeeExpense) error {
	return appendEmployeeExpense(ctx, t.q, e)
}
func (t *txStore) EmployeeExpensesInRange(ctx context.Context, from, to time.Time) ([]ledger.EmployeeExpense, error) {
	return employeeExpensesInRange(ctx, t.q, from, to)
}
func (t *txStore) AppendPaycheck(ctx context.Context, p ledger.Paycheck) error {
	return appendPaycheck(ctx, t.q, p)
}
func (t *txStore) PaycheckForWeek(ctx context.Context, employeeID string, weekStart, weekEnd time.Time) (*ledger.Paycheck, error) {
	return paycheckForWeek(ctx, t.q, employeeID, weekStart, weekEnd)
}
func (t *txStore) AppendAudit(ctx context.Context, entry ledger.AuditEntry) error {
	return appendAudit(ctx, t.q, entry)
}
func (t *txStore) QueryAudit(ctx context.Context, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	return queryAudit(ctx, t.q, filter)
}
