/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.TxStore using SQLite. In production the same
  patterns apply to PostgreSQL - see store/postgres for that adapter.

APPEND-ONLY ENFORCEMENT:
  Fact stream tables see INSERT and SELECT only. The two sanctioned
  mutations are explicit single statements:
  - daily_sales: INSERT .. ON CONFLICT(date) DO UPDATE (one row per date)
  - shifts / time_entries: UPDATE .. WHERE <open> IS NULL, the single
    close transition
  The audit_log table has no UPDATE or DELETE statement anywhere in this
  package; its query surface is read-only by construction.

UNIQUENESS CONSTRAINTS:
  - paychecks UNIQUE(employee_id, week_start, week_end): the double
    payment guard lives in the schema, not in application memory
  - shifts partial unique index on (actor_id) WHERE end_time IS NULL:
    one open shift per actor survives concurrent opens
  - time_entries partial unique index: one open entry per employee

AMOUNTS:
  Stored as decimal strings, never REAL. Timestamps as fixed-width UTC
  strings with all nine fractional digits, so lexical ordering matches
  time ordering. RFC3339Nano would not: it trims trailing fractional
  zeros, and "T00:00:00.5Z" sorts before "T00:00:00Z" ('.' < 'Z'),
  which silently drops sub-second facts out of their day window.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery
  A process-wide mutex serializes writers and WithTx blocks.

USAGE:
  store, err := sqlite.New("./data/custody.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
  - store/postgres: PostgreSQL adapter
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/custody-ledger/ledger"
)

// Store implements ledger.TxStore over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ ledger.TxStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

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
	-- Safe drops (append-only)
	CREATE TABLE IF NOT EXISTS safe_drops (
		receipt_number TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		confirmed INTEGER NOT NULL DEFAULT 1,
		notes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_drops_timestamp ON safe_drops(timestamp);
	CREATE INDEX IF NOT EXISTS idx_drops_actor_timestamp ON safe_drops(actor_id, timestamp);

	-- Withdrawals (append-only)
	CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		approver_id TEXT,
		amount TEXT NOT NULL,
		reason TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	-- Manual safe counts (append-only)
	CREATE TABLE IF NOT EXISTS manual_counts (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		expected TEXT NOT NULL,
		actual TEXT NOT NULL,
		variance TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		notes TEXT
	);

	-- Vendor expenses (append-only; corrections are new rows)
	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		date TEXT NOT NULL,
		notes TEXT,
		receipt_ref TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date);
	CREATE INDEX IF NOT EXISTS idx_expenses_actor_date ON expenses(actor_id, date);

	-- Bank deposits (append-only)
	CREATE TABLE IF NOT EXISTS deposits (
		id TEXT PRIMARY KEY,
		vendor_id TEXT,
		actor_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deposits_date ON deposits(date);

	-- Daily sales: ONE row per date, re-close overwrites
	CREATE TABLE IF NOT EXISTS daily_sales (
		date TEXT PRIMARY KEY,
		card_sales TEXT NOT NULL,
		cash_sales TEXT NOT NULL,
		total_sales TEXT NOT NULL,
		variance TEXT NOT NULL,
		closed_by TEXT NOT NULL,
		notes TEXT,
		closed_at TEXT NOT NULL
	);

	-- Shifts: created open, closed exactly once
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		starting_cash TEXT NOT NULL,
		ending_cash TEXT,
		total_drops TEXT NOT NULL DEFAULT '0',
		total_expenses TEXT NOT NULL DEFAULT '0',
		variance TEXT NOT NULL DEFAULT '0',
		notes TEXT
	);
	-- One open shift per actor, enforced in the schema
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_open_per_actor
		ON shifts(actor_id) WHERE end_time IS NULL;

	-- Time entries: clock_out set exactly once
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_time_entries_clock_in ON time_entries(clock_in);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_one_open_per_employee
		ON time_entries(employee_id) WHERE clock_out IS NULL;

	-- Employee expenses (append-only)
	CREATE TABLE IF NOT EXISTS employee_expenses (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employee_expenses_timestamp
		ON employee_expenses(timestamp);

	-- Paychecks: at most one per (employee, week). The double-payment
	-- guard is THIS index.
	CREATE TABLE IF NOT EXISTS paychecks (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		week_start TEXT NOT NULL,
		week_end TEXT NOT NULL,
		hours REAL NOT NULL,
		hourly_rate TEXT NOT NULL,
		gross_pay TEXT NOT NULL,
		expenses_total TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, week_start, week_end)
	);

	-- Audit log: INSERT and SELECT only. No code path updates or deletes.
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		action TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT,
		actor_id TEXT NOT NULL,
		changed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_table ON audit_log(table_name);
	CREATE INDEX IF NOT EXISTS idx_audit_changed_at ON audit_log(changed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// dbtx abstracts *sql.DB and *sql.Tx so every query runs identically
// inside and outside WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// timeLayout always renders nine fractional digits, so every stored
// timestamp has the same width and TEXT comparison equals time
// comparison. Never store RFC3339Nano here: it trims trailing zeros and
// breaks that equivalence at range boundaries.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }
func fmtDate(t time.Time) string { return ledger.Date(t).Format("2006-01-02") }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseMoney(s string) (ledger.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ledger.Money{}, err
	}
	return ledger.Money{Value: d}, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// =============================================================================
// DROPS
// =============================================================================

func appendDrop(ctx context.Context, q dbtx, d ledger.SafeDrop) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO safe_drops (receipt_number, actor_id, amount, timestamp, confirmed, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ReceiptNumber, d.ActorID, d.Amount.String(), fmtTime(d.Timestamp), d.Confirmed, d.Notes)
	if err != nil {
		return fmt.Errorf("failed to append drop: %w", err)
	}
	return nil
}

const dropCols = "receipt_number, actor_id, amount, timestamp, confirmed, notes"

func queryDrops(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.SafeDrop, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drops: %w", err)
	}
	defer rows.Close()

	var out []ledger.SafeDrop
	for rows.Next() {
		var (
			d         ledger.SafeDrop
			amount    string
			timestamp string
			notes     sql.NullString
		)
		if err := rows.Scan(&d.ReceiptNumber, &d.ActorID, &amount, &timestamp, &d.Confirmed, &notes); err != nil {
			return nil, err
		}
		if d.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		if d.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		d.Notes = notes.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func confirmedDrops(ctx context.Context, q dbtx) ([]ledger.SafeDrop, error) {
	return queryDrops(ctx, q, `
		SELECT `+dropCols+` FROM safe_drops
		WHERE confirmed = 1 ORDER BY timestamp ASC`)
}

func dropsInRange(ctx context.Context, q dbtx, from, to time.Time) ([]ledger.SafeDrop, error) {
	return queryDrops(ctx, q, `
		SELECT `+dropCols+` FROM safe_drops
		WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp ASC`,
		fmtTime(from), fmtTime(to))
}

func dropsByActorInRange(ctx context.Context, q dbtx, actorID string, from, to time.Time) ([]ledger.SafeDrop, error) {
	return queryDrops(ctx, q, `
		SELECT `+dropCols+` FROM safe_drops
		WHERE actor_id = ? AND timestamp >= ? AND timestamp < ? ORDER BY timestamp ASC`,
		actorID, fmtTime(from), fmtTime(to))
}

// =============================================================================
// WITHDRAWALS / MANUAL COUNTS
// =============================================================================

func appendWithdrawal(ctx context.Context, q dbtx, w ledger.Withdrawal) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO withdrawals (id, actor_id, approver_id, amount, reason, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.ActorID, w.ApproverID, w.Amount.String(), w.Reason, fmtTime(w.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append withdrawal: %w", err)
	}
	return nil
}

func withdrawals(ctx context.Context, q dbtx) ([]ledger.Withdrawal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, actor_id, approver_id, amount, reason, timestamp
		FROM withdrawals ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var out []ledger.Withdrawal
	for rows.Next() {
		var (
			w         ledger.Withdrawal
			approver  sql.NullString
			amount    string
			timestamp string
		)
		if err := rows.Scan(&w.ID, &w.ActorID, &approver, &amount, &w.Reason, &timestamp); err != nil {
			return nil, err
		}
		w.ApproverID = approver.String
		if w.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		if w.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func appendManualCount(ctx context.Context, q dbtx, c ledger.ManualCount) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO manual_counts (id, actor_id, expected, actual, variance, timestamp, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ActorID, c.Expected.String(), c.Actual.String(), c.Variance.String(),
		fmtTime(c.Timestamp), c.Notes)
	if err != nil {
		return fmt.Errorf("failed to append manual count: %w", err)
	}
	return nil
}

func manualCountsInRange(ctx context.Context, q dbtx, from, to time.Time) ([]ledger.ManualCount, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, actor_id, expected, actual, variance, timestamp, notes
		FROM manual_counts
		WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp ASC`,
		fmtTime(from), fmtTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query manual counts: %w", err)
	}
	defer rows.Close()

	var out []ledger.ManualCount
	for rows.Next() {
		var (
			c                          ledger.ManualCount
			expected, actual, variance string
			timestamp                  string
			notes                      sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.ActorID, &expected, &actual, &variance, &timestamp, &notes); err != nil {
			return nil, err
		}
		if c.Expected, err = parseMoney(expected); err != nil {
			return nil, err
		}
		if c.Actual, err = parseMoney(actual); err != nil {
			return nil, err
		}
		if c.Variance, err = parseMoney(variance); err != nil {
			return nil, err
		}
		if c.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		c.Notes = notes.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// EXPENSES / DEPOSITS
// =============================================================================

func appendExpense(ctx context.Context, q dbtx, e ledger.Expense) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO expenses (id, vendor_id, actor_id, amount, payment_type, date, notes, receipt_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.VendorID, e.ActorID, e.Amount.String(), string(e.PaymentType),
		fmtDate(e.Date), e.Notes, e.ReceiptRef)
	if err != nil {
		return fmt.Errorf("failed to append expense: %w", err)
	}
	return nil
}

const expenseCols = "id, vendor_id, actor_id, amount, payment_type, date, notes, receipt_ref"

func queryExpenses(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.Expense, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var out []ledger.Expense
	for rows.Next() {
		var (
			e                 ledger.Expense
			amount, pt, date  string
			notes, receiptRef sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.VendorID, &e.ActorID, &amount, &pt, &date, &notes, &receiptRef); err != nil {
			return nil, err
		}
		if e.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		if e.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		e.PaymentType = ledger.PaymentType(pt)
		e.Notes = notes.String
		e.ReceiptRef = receiptRef.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func expensesInRange(ctx context.Context, q dbtx, from, to time.Time) ([]ledger.Expense, error) {
	return queryExpenses(ctx, q, `
		SELECT `+expenseCols+` FROM expenses
		WHERE date >= ? AND date < ? ORDER BY date ASC`,
		fmtDate(from), fmtDate(to))
}

func expensesByActorInRange(ctx context.Context, q dbtx, actorID string, from, to time.Time) ([]ledger.Expense, error) {
	return queryExpenses(ctx, q, `
		SELECT `+expenseCols+` FROM expenses
		WHERE actor_id = ? AND date >= ? AND date < ? ORDER BY date ASC`,
		actorID, fmtDate(from), fmtDate(to))
}

func appendDeposit(ctx context.Context, q dbtx, d ledger.Deposit) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO deposits (id, vendor_id, actor_id, amount, date)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.VendorID, d.ActorID, d.Amount.String(), fmtDate(d.Date))
	if err != nil {
		return fmt.Errorf("failed to append deposit: %w", err)
	}
	return nil
}

func depositsInRange(ctx context.Context, q dbtx, from, to time.Time) ([]ledger.Deposit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, vendor_id, actor_id, amount, date FROM deposits
		WHERE date >= ? AND date < ? ORDER BY date ASC`,
		fmtDate(from), fmtDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer rows.Close()

	var out []ledger.Deposit
	for rows.Next() {
		var (
			d            ledger.Deposit
			vendor       sql.NullString
			amount, date string
		)
		if err := rows.Scan(&d.ID, &vendor, &d.ActorID, &amount, &date); err != nil {
			return nil, err
		}
		d.VendorID = vendor.String
		if d.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		if d.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// =============================================================================
// DAILY SALES
// =============================================================================

func upsertDailySales(ctx context.Context, q dbtx, rec ledger.DailySales) (*ledger.DailySales, error) {
	old, err := getDailySales(ctx, q, rec.Date)
	if err != nil {
		return nil, err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO daily_sales (date, card_sales, cash_sales, total_sales, variance, closed_by, notes, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			card_sales = excluded.card_sales,
			cash_sales = excluded.cash_sales,
			total_sales = excluded.total_sales,
			variance = excluded.variance,
			closed_by = excluded.closed_by,
			notes = excluded.notes,
			closed_at = excluded.closed_at`,
		fmtDate(rec.Date), rec.CardSales.String(), rec.CashSales.String(),
		rec.Total.String(), rec.Variance.String(), rec.ClosedBy, rec.Notes, fmtTime(rec.ClosedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily sales: %w", err)
	}
	return old, nil
}

func getDailySales(ctx context.Context, q dbtx, date time.Time) (*ledger.DailySales, error) {
	recs, err := queryDailySales(ctx, q, `
		SELECT date, card_sales, cash_sales, total_sales, variance, closed_by, notes, closed_at
		FROM daily_sales WHERE date = ?`, fmtDate(date))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func dailySalesInRange(ctx context.Context, q dbtx, from, to time.Time) ([]ledger.DailySales, error) {
	return queryDailySales(ctx, q, `
		SELECT date, card_sales, cash_sales, total_sales, variance, closed_by, notes, closed_at
		FROM daily_sales WHERE date >= ? AND date < ? ORDER BY date ASC`,
		fmtDate(from), fmtDate(to))
}

func queryDailySales(ctx context.Context, q dbtx, query string, args ...any) ([]ledger.DailySales, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	defer rows.Close()

	var out []ledger.DailySales
	for rows.Next() {
		var (
			rec                        ledger.DailySales
			date, card, cash, total, v string
			notes                      sql.NullString
			closedAt                   string
		)
		if err := rows.Scan(&date, &card, &cash, &total, &v, &rec.ClosedBy, &notes, &closedAt); err != nil {
			return nil, err
		}
		if rec.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if rec.CardSales, err = parseMoney(card); err != nil {
			return nil, err
		}
		if rec.CashSales, err = parseMoney(cash); err != nil {
			return nil, err
		}
		if rec.Total, err = parseMoney(total); err != nil {
			return nil, err
		}
		if rec.Variance, err = parseMoney(v); err != nil {
			return nil, err
		}
		rec.Notes = notes.String
		if rec.ClosedAt, err = parseTime(closedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// SHIFTS
// =============================================================================

const shiftCols = "id, actor_id, start_time, end_time, starting_cash, ending_cash, total_drops, total_expenses, variance, notes"

func createShift(ctx context.Context, q dbtx, sh ledger.Shift) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO shifts (id, actor_id, start_time, starting_cash, total_drops, total_expenses, variance, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.ActorID, fmtTime(sh.StartTime), sh.StartingCash.String(),
		sh.TotalDrops.String(), sh.TotalExpenses.String(), sh.Variance.String(), sh.Notes)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrShiftAlreadyOpen
		}
		return fmt.Errorf("failed to create shift: %w", err)
	}
	return nil
}

func scanShift(row interface{ Scan(...any) error }) (ledger.Shift, error) {
	var (
		sh                    ledger.Shift
		startTime             string
		endTime               sql.NullString
		startingCash          string
		endingCash            sql.NullString
		drops, expenses, vari string
		notes                 sql.NullString
	)
	err := row.Scan(&sh.ID, &sh.ActorID, &startTime, &endTime, &startingCash,
		&endingCash, &drops, &expenses, &vari, &notes)
	if err != nil {
		return ledger.Shift{}, err
	}
	if sh.StartTime, err = parseTime(startTime); err != nil {
		return ledger.Shift{}, err
	}
	if endTime.Valid {
		t, err := parseTime(endTime.String)
		if err != nil {
			return ledger.Shift{}, err
		}
		sh.EndTime = &t
	}
	if sh.StartingCash, err = parseMoney(startingCash); err != nil {
		return ledger.Shift{}, err
	}
	if endingCash.Valid {
		m, err := parseMoney(endingCash.String)
		if err != nil {
			return ledger.Shift{}, err
		}
		sh.EndingCash = &m
	}
	if sh.TotalDrops, err = parseMoney(drops); err != nil {
		return ledger.Shift{}, err
	}
	if sh.TotalExpenses, err = parseMoney(expenses); err != nil {
		return ledger.Shift{}, err
	}
	if sh.Variance, err = parseMoney(vari); err != nil {
		return ledger.Shift{}, err
	}
	sh.Notes = notes.String
	return sh, nil
}

func getShift(ctx context.Context, q dbtx, id string) (ledger.Shift, error) {
	row := q.QueryRowContext(ctx, `SELECT `+shiftCols+` FROM shifts WHERE id = ?`, id)
	sh, err := scanShift(row)
	if err == sql.ErrNoRows {
		return ledger.Shift{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return sh, nil
}

func openShiftForActor(ctx context.Context, q dbtx, actorID string) (*ledger.Shift, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+shiftCols+` FROM shifts
		WHERE actor_id = ? AND end_time IS NULL`, actorID)
	sh, err := scanShift(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open shift: %w", err)
	}
	return &sh, nil
}

func closeShift(ctx context.Context, q dbtx, closed ledger.Shift) error {
	if closed.EndTime == nil || closed.EndingCash == nil {
		return ledger.Validationf("shift", "close requires end time and ending cash")
	}
	res, err := q.ExecContext(ctx, `
		UPDATE shifts
		SET end_time = ?, ending_cash = ?, total_drops = ?, total_expenses = ?, variance = ?, notes = ?
		WHERE id = ? AND end_time IS NULL`,
		fmtTime(*closed.EndTime), closed.EndingCash.String(), closed.TotalDrops.String(),
		closed.TotalExpenses.String(), closed.Variance.String(), closed.Notes, closed.ID)
	if err != nil {
		return fmt.Errorf("failed to close shift: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the shift never existed or it was already closed.
		if _, gerr := getShift(ctx, q, closed.ID); gerr != nil {
			return gerr
		}
		return ledger.ErrShiftClosed
	}
	return nil
}

// =============================================================================
// TIME ENTRIES / EMPLOYEE EXPENSES / PAYCHECKS
// =============================================================================

func appendTimeEntry(ctx context.Context, q dbtx, te ledger.TimeEntry) error {
	var clockOut any
	if te.ClockOut != nil {
		clockOut = fmtTime(*te.ClockOut)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO time_entries (id, employee_id, clock_in, clock_out)
		VALUES (?, ?, ?, ?)`,
		te.ID, te.EmployeeID, fmtTime(te.ClockIn), clockOut)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.Validationf("employee_id", "already clocked in")
		}
		return fmt.Errorf("failed to append time entry: %w", err)
	}
	return nil
}

func scanTimeEntry(row interface{ Scan(...any) error }) (ledger.TimeEntry, error) {
	var (
		te       ledger.TimeEntry
		clockIn  string
		clockOut sql.NullString
	)
	err := row.Scan(&te.ID, &te.EmployeeID, &clockIn, &clockOut)
	if err != nil {
		return ledger.TimeEntry{}, err
	}
	if te.ClockIn, err = parseTime(clockIn); err != nil {
		return ledger.TimeEntry{}, err
	}
	if clockOut.Valid {
		t, err := parseTime(clockOut.String)
		if err != nil {
			return ledger.TimeEntry{}, err
		}
		te.ClockOut = &t
	}
	return te, nil
}

func getTimeEntry(ctx context.Context, q dbtx, id string) (ledger.TimeEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, employee_id, clock_in, clock_out FROM time_entries WHERE id = ?`, id)
	te, err := scanTimeEntry(row)
	if err == sql.ErrNoRows {
		return ledger.TimeEntry{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.TimeEntry{}, fmt.Errorf("failed to get time entry: %w", err)
	}
	return te, nil
}

func openTimeEntryForEmployee(ctx context.Context, q dbtx, employeeID string) (*ledger.TimeEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, employee_id, clock_in, clock_out FROM time_entries
		WHERE employee_id = ? AND clock_out IS NULL`, employeeID)
	te, err := scanTimeEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open time entry: %w", err)
	}
	return &te, nil
}

func setClockOut(ctx context.Context, q dbtx, id string, at time.Time) error {
	res, err := q.ExecContext(ctx, `
		UPDATE time_entries SET clock_out = ?
		WHERE id = ? AND clock_out IS NULL`,
		fmtTime(at), id)
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

func timeEntriesInRange(ctx context.Context, q dbtx, from, to time.Time) ([]ledger.TimeEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, clock_in, clock_out FROM time_entries
		WHERE clock_in >= ? AND clock_in < ? ORDER BY clock_in ASC`,
		fmtTime(from), fmtTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.TimeEntry
	for rows.Next() {
		te, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, te)
	}
	return out, rows.Err()
}

func appendEmployeeExpense(ctx context.Context, q dbtx, e ledger.EmployeeExpense) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO employee_expenses (id, employee_id, amount, description, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.EmployeeID, e.Amount.String(), e.Description, fmtTime(e.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append employee expense: %w", err)
	}
	return nil
}

func employeeExpensesInRange(ctx context.Context, q dbtx, from, to time.Time) ([]ledger.EmployeeExpense, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_id, amount, description, timestamp FROM employee_expenses
		WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp ASC`,
		fmtTime(from), fmtTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query employee expenses: %w", err)
	}
	defer rows.Close()

	var out []ledger.EmployeeExpense
	for rows.Next() {
		var (
			e                 ledger.EmployeeExpense
			amount, timestamp string
		)
		if err := rows.Scan(&e.ID, &e.EmployeeID, &amount, &e.Description, &timestamp); err != nil {
			return nil, err
		}
		if e.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		if e.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func appendPaycheck(ctx context.Context, q dbtx, p ledger.Paycheck) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO paychecks (id, employee_id, week_start, week_end, hours, hourly_rate,
			gross_pay, expenses_total, net_pay, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EmployeeID, fmtDate(p.WeekStart), fmtDate(p.WeekEnd), p.Hours,
		p.HourlyRate.String(), p.GrossPay.String(), p.ExpensesTotal.String(),
		p.NetPay.String(), fmtTime(p.CreatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
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

func paycheckForWeek(ctx context.Context, q dbtx, employeeID string, weekStart, weekEnd time.Time) (*ledger.Paycheck, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, employee_id, week_start, week_end, hours, hourly_rate,
			gross_pay, expenses_total, net_pay, created_at
		FROM paychecks
		WHERE employee_id = ? AND week_start = ? AND week_end = ?`,
		employeeID, fmtDate(weekStart), fmtDate(weekEnd))

	var (
		p                          ledger.Paycheck
		weekStartS, weekEndS       string
		rate, gross, expenses, net string
		createdAt                  string
	)
	err := row.Scan(&p.ID, &p.EmployeeID, &weekStartS, &weekEndS, &p.Hours,
		&rate, &gross, &expenses, &net, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query paycheck: %w", err)
	}
	if p.WeekStart, err = parseDate(weekStartS); err != nil {
		return nil, err
	}
	if p.WeekEnd, err = parseDate(weekEndS); err != nil {
		return nil, err
	}
	if p.HourlyRate, err = parseMoney(rate); err != nil {
		return nil, err
	}
	if p.GrossPay, err = parseMoney(gross); err != nil {
		return nil, err
	}
	if p.ExpensesTotal, err = parseMoney(expenses); err != nil {
		return nil, err
	}
	if p.NetPay, err = parseMoney(net); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// AUDIT
// =============================================================================

func appendAudit(ctx context.Context, q dbtx, entry ledger.AuditEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (table_name, record_id, action, old_value, new_value, actor_id, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Table, entry.RecordID, string(entry.Action), entry.OldValue,
		entry.NewValue, entry.ActorID, fmtTime(entry.ChangedAt))
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func queryAudit(ctx context.Context, q dbtx, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, table_name, record_id, action, old_value, new_value, actor_id, changed_at
		FROM audit_log WHERE id > ?`
	args := []any{filter.Cursor}

	if filter.Table != "" {
		query += " AND table_name = ?"
		args = append(args, filter.Table)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, string(filter.Action))
	}
	if filter.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, filter.ActorID)
	}
	if filter.From != nil {
		query += " AND changed_at >= ?"
		args = append(args, fmtTime(*filter.From))
	}
	if filter.To != nil {
		query += " AND changed_at < ?"
		args = append(args, fmtTime(*filter.To))
	}
	// One extra row tells us whether another page exists.
	query += " ORDER BY id ASC LIMIT ?"
	args = append(args, limit+1)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return ledger.AuditPage{}, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var page ledger.AuditPage
	for rows.Next() {
		var (
			e                  ledger.AuditEntry
			action, changedAt  string
			oldValue, newValue sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Table, &e.RecordID, &action, &oldValue, &newValue, &e.ActorID, &changedAt); err != nil {
			return ledger.AuditPage{}, err
		}
		e.Action = ledger.AuditAction(action)
		e.OldValue = oldValue.String
		e.NewValue = newValue.String
		if e.ChangedAt, err = parseTime(changedAt); err != nil {
			return ledger.AuditPage{}, err
		}
		page.Entries = append(page.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return ledger.AuditPage{}, err
	}
	if len(page.Entries) > limit {
		page.Entries = page.Entries[:limit]
		page.NextCursor = page.Entries[limit-1].ID
	}
	return page, nil
}

// =============================================================================
// STORE - locked ledger.Store implementation over *sql.DB
// =============================================================================

func (s *Store) AppendDrop(ctx context.Context, d ledger.SafeDrop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendDrop(ctx, s.db, d)
}

func (s *Store) ConfirmedDrops(ctx context.Context) ([]ledger.SafeDrop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return confirmedDrops(ctx, s.db)
}

func (s *Store) DropsInRange(ctx context.Context, from, to time.Time) ([]ledger.SafeDrop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dropsInRange(ctx, s.db, from, to)
}

func (s *Store) DropsByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]ledger.SafeDrop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dropsByActorInRange(ctx, s.db, actorID, from, to)
}

func (s *Store) AppendWithdrawal(ctx context.Context, w ledger.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendWithdrawal(ctx, s.db, w)
}

func (s *Store) Withdrawals(ctx context.Context) ([]ledger.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return withdrawals(ctx, s.db)
}

func (s *Store) AppendManualCount(ctx context.Context, c ledger.ManualCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendManualCount(ctx, s.db, c)
}

func (s *Store) ManualCountsInRange(ctx context.Context, from, to time.Time) ([]ledger.ManualCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return manualCountsInRange(ctx, s.db, from, to)
}

func (s *Store) AppendExpense(ctx context.Context, e ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendExpense(ctx, s.db, e)
}

func (s *Store) ExpensesInRange(ctx context.Context, from, to time.Time) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return expensesInRange(ctx, s.db, from, to)
}

func (s *Store) ExpensesByActorInRange(ctx context.Context, actorID string, from, to time.Time) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return expensesByActorInRange(ctx, s.db, actorID, from, to)
}

func (s *Store) AppendDeposit(ctx context.Context, d ledger.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendDeposit(ctx, s.db, d)
}

func (s *Store) DepositsInRange(ctx context.Context, from, to time.Time) ([]ledger.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return depositsInRange(ctx, s.db, from, to)
}

func (s *Store) UpsertDailySales(ctx context.Context, rec ledger.DailySales) (*ledger.DailySales, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertDailySales(ctx, s.db, rec)
}

func (s *Store) DailySalesInRange(ctx context.Context, from, to time.Time) ([]ledger.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dailySalesInRange(ctx, s.db, from, to)
}

func (s *Store) CreateShift(ctx context.Context, sh ledger.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createShift(ctx, s.db, sh)
}

func (s *Store) GetShift(ctx context.Context, id string) (ledger.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getShift(ctx, s.db, id)
}

func (s *Store) OpenShiftForActor(ctx context.Context, actorID string) (*ledger.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return openShiftForActor(ctx, s.db, actorID)
}

func (s *Store) CloseShift(ctx context.Context, closed ledger.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return closeShift(ctx, s.db, closed)
}

func (s *Store) AppendTimeEntry(ctx context.Context, te ledger.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendTimeEntry(ctx, s.db, te)
}

func (s *Store) GetTimeEntry(ctx context.Context, id string) (ledger.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTimeEntry(ctx, s.db, id)
}

func (s *Store) OpenTimeEntryForEmployee(ctx context.Context, employeeID string) (*ledger.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return openTimeEntryForEmployee(ctx, s.db, employeeID)
}

func (s *Store) SetClockOut(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setClockOut(ctx, s.db, id, at)
}

func (s *Store) TimeEntriesInRange(ctx context.Context, from, to time.Time) ([]ledger.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return timeEntriesInRange(ctx, s.db, from, to)
}

func (s *Store) AppendEmployeeExpense(ctx context.Context, e ledger.EmployeeExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEmployeeExpense(ctx, s.db, e)
}

func (s *Store) EmployeeExpensesInRange(ctx context.Context, from, to time.Time) ([]ledger.EmployeeExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return employeeExpensesInRange(ctx, s.db, from, to)
}

func (s *Store) AppendPaycheck(ctx context.Context, p ledger.Paycheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendPaycheck(ctx, s.db, p)
}

func (s *Store) PaycheckForWeek(ctx context.Context, employeeID string, weekStart, weekEnd time.Time) (*ledger.Paycheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paycheckForWeek(ctx, s.db, employeeID, weekStart, weekEnd)
}

func (s *Store) AppendAudit(ctx context.Context, entry ledger.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, entry)
}

func (s *Store) QueryAudit(ctx context.Context, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryAudit(ctx, s.db, filter)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn inside one SQL transaction under the writer mutex,
// so fn's reads see a stable view and its writes commit or roll back as
// a unit. This is where "replay balance, then append withdrawal" becomes
// a serializable check-then-append.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the ledger.Store view handed to WithTx callbacks.
type txStore struct {
	q dbtx
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
