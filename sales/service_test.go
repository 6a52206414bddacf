package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/custody-ledger/audit"
	"github.com/warp/custody-ledger/ledger"
	"github.com/warp/custody-ledger/ledger/store"
	"github.com/warp/custody-ledger/safe"
	"github.com/warp/custody-ledger/sales"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var businessDay = time.Date(2024, time.March, 5, 14, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, at time.Time) (*sales.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	clock := ledger.FixedClock{At: at}
	return sales.NewService(mem, clock, audit.NewRecorder(mem, clock)), mem
}

func newTestVault(mem *store.Memory, at time.Time) *safe.Vault {
	clock := ledger.FixedClock{At: at}
	return safe.NewVault(mem, clock, audit.NewRecorder(mem, clock))
}

func money(t *testing.T, s string) ledger.Money {
	t.Helper()
	m, err := ledger.ParseMoney(s)
	require.NoError(t, err)
	return m
}

// =============================================================================
// CASH-SALES DERIVATION TESTS
// =============================================================================

func TestService_DeriveCashSales_DropsPlusCashExpenses(t *testing.T) {
	// GIVEN: A 300.00 drop and a 20.00 cash expense on the day
	// WHEN: Deriving the day's cash sales
	// THEN: 320.00 — the figure is never typed in

	svc, mem := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := newTestVault(mem, businessDay).RecordDrop(ctx, "cashier-1", money(t, "300.00"), "")
	require.NoError(t, err)
	_, err = svc.RecordExpense(ctx, "vendor-1", "cashier-1", money(t, "20.00"), ledger.PayCash, businessDay, "", "")
	require.NoError(t, err)

	cash, err := svc.DeriveCashSales(ctx, businessDay)
	require.NoError(t, err)
	assert.Equal(t, "320.00", cash.String())
}

func TestService_DeriveCashSales_ExcludesCheckExpenses(t *testing.T) {
	// GIVEN: Only a check expense on the day
	// WHEN: Deriving cash sales
	// THEN: Zero; checks never touched the drawer

	svc, _ := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := svc.RecordExpense(ctx, "vendor-1", "cashier-1", money(t, "50.00"), ledger.PayCheck, businessDay, "", "")
	require.NoError(t, err)

	cash, err := svc.DeriveCashSales(ctx, businessDay)
	require.NoError(t, err)
	assert.True(t, cash.IsZero())
}

func TestService_DeriveCashSales_ExcludesOtherDays(t *testing.T) {
	// GIVEN: A drop the day before
	// WHEN: Deriving cash sales for the target day
	// THEN: The previous day's drop is outside the window

	svc, mem := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := newTestVault(mem, businessDay.AddDate(0, 0, -1)).RecordDrop(ctx, "cashier-1", money(t, "100.00"), "")
	require.NoError(t, err)

	cash, err := svc.DeriveCashSales(ctx, businessDay)
	require.NoError(t, err)
	assert.True(t, cash.IsZero())
}

func TestService_DeriveCashSales_Idempotent(t *testing.T) {
	// GIVEN: A day with facts
	// WHEN: Deriving twice with no new facts in between
	// THEN: Same figure both times

	svc, mem := newTestService(t, businessDay)
	ctx := context.Background()
	_, err := newTestVault(mem, businessDay).RecordDrop(ctx, "cashier-1", money(t, "123.45"), "")
	require.NoError(t, err)

	first, err := svc.DeriveCashSales(ctx, businessDay)
	require.NoError(t, err)
	second, err := svc.DeriveCashSales(ctx, businessDay)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

// =============================================================================
// DAILY CLOSE TESTS
// =============================================================================

func TestService_CloseDay_TotalsAndVariance(t *testing.T) {
	// GIVEN: Derived cash of 320.00 and card sales of 1000.00, register
	//        reporting 1315.00
	// WHEN: Closing the day
	// THEN: Total 1320.00, variance -5.00 (register short)

	svc, mem := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := newTestVault(mem, businessDay).RecordDrop(ctx, "cashier-1", money(t, "300.00"), "")
	require.NoError(t, err)
	_, err = svc.RecordExpense(ctx, "vendor-1", "cashier-1", money(t, "20.00"), ledger.PayCash, businessDay, "", "")
	require.NoError(t, err)

	reported := money(t, "1315.00")
	day, err := svc.CloseDay(ctx, sales.CloseDayParams{
		Date:          businessDay,
		CardSales:     money(t, "1000.00"),
		ReportedTotal: &reported,
		ActorID:       "mgr-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "320.00", day.CashSales.String())
	assert.Equal(t, "1320.00", day.Total.String())
	assert.Equal(t, "-5.00", day.Variance.String())
}

func TestService_CloseDay_NoReportedTotalZeroVariance(t *testing.T) {
	// GIVEN: No register figure supplied
	// WHEN: Closing the day
	// THEN: Variance is zero, not an error

	svc, _ := newTestService(t, businessDay)
	day, err := svc.CloseDay(context.Background(), sales.CloseDayParams{
		Date:      businessDay,
		CardSales: money(t, "400.00"),
		ActorID:   "mgr-1",
	})
	require.NoError(t, err)
	assert.True(t, day.Variance.IsZero())
}

func TestService_CloseDay_RecloseOverwritesSingleRecord(t *testing.T) {
	// GIVEN: A day closed once
	// WHEN: It is closed again after a late drop
	// THEN: One record per date, the re-close's figures, and an update
	//       audit entry carrying the old record

	svc, mem := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := svc.CloseDay(ctx, sales.CloseDayParams{Date: businessDay, CardSales: money(t, "400.00"), ActorID: "mgr-1"})
	require.NoError(t, err)

	_, err = newTestVault(mem, businessDay).RecordDrop(ctx, "cashier-1", money(t, "60.00"), "")
	require.NoError(t, err)
	_, err = svc.CloseDay(ctx, sales.CloseDayParams{Date: businessDay, CardSales: money(t, "400.00"), ActorID: "mgr-1"})
	require.NoError(t, err)

	from, to := ledger.DayWindow(businessDay)
	rows, err := mem.DailySalesInRange(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "460.00", rows[0].Total.String())

	page, err := mem.QueryAudit(ctx, ledger.AuditFilter{Table: "daily_sales"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, ledger.AuditInsert, page.Entries[0].Action)
	assert.Equal(t, ledger.AuditUpdate, page.Entries[1].Action)
	assert.NotEmpty(t, page.Entries[1].OldValue)
}

func TestService_CloseDay_Validation(t *testing.T) {
	// GIVEN: Missing actor, zero date, negative card sales
	// WHEN: Closing the day
	// THEN: Each rejected with a validation error

	svc, _ := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := svc.CloseDay(ctx, sales.CloseDayParams{Date: businessDay, CardSales: money(t, "1.00")})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.CloseDay(ctx, sales.CloseDayParams{CardSales: money(t, "1.00"), ActorID: "mgr-1"})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.CloseDay(ctx, sales.CloseDayParams{Date: businessDay, CardSales: money(t, "-1.00"), ActorID: "mgr-1"})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// EXPENSE / DEPOSIT TESTS
// =============================================================================

func TestService_RecordExpense_Validation(t *testing.T) {
	// GIVEN: Bad payment type, missing vendor, non-positive amount
	// WHEN: Recording an expense
	// THEN: All rejected

	svc, _ := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := svc.RecordExpense(ctx, "vendor-1", "mgr-1", money(t, "10.00"), "wire", businessDay, "", "")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.RecordExpense(ctx, "", "mgr-1", money(t, "10.00"), ledger.PayCash, businessDay, "", "")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.RecordExpense(ctx, "vendor-1", "mgr-1", money(t, "0.00"), ledger.PayCash, businessDay, "", "")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestService_RecordExpense_WritesAudit(t *testing.T) {
	// GIVEN: A valid vendor expense
	// WHEN: It is recorded
	// THEN: An insert lands in the audit stream under the expense's ID

	svc, mem := newTestService(t, businessDay)
	ctx := context.Background()

	id, err := svc.RecordExpense(ctx, "vendor-1", "mgr-1", money(t, "75.00"), ledger.PayCheck, businessDay, "supplies", "rcpt-9")
	require.NoError(t, err)

	page, err := mem.QueryAudit(ctx, ledger.AuditFilter{Table: "expenses"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, id, page.Entries[0].RecordID)
	assert.Equal(t, "mgr-1", page.Entries[0].ActorID)
}

func TestService_RecordDeposit_RejectsNonPositive(t *testing.T) {
	// GIVEN: A zero deposit
	// WHEN: Recording it
	// THEN: Validation error

	svc, _ := newTestService(t, businessDay)
	_, err := svc.RecordDeposit(context.Background(), "bank", "mgr-1", ledger.Zero(), businessDay)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// BANK RECONCILIATION TESTS
// =============================================================================

func TestService_ReconcileBank_ShortDeposit(t *testing.T) {
	// GIVEN: A closed day with 1000.00 card sales, a 150.00 check expense,
	//        and 1100.00 actually deposited
	// WHEN: Reconciling the range
	// THEN: Expected 1150.00, actual 1100.00, variance -50.00

	svc, _ := newTestService(t, businessDay)
	ctx := context.Background()

	_, err := svc.CloseDay(ctx, sales.CloseDayParams{Date: businessDay, CardSales: money(t, "1000.00"), ActorID: "mgr-1"})
	require.NoError(t, err)
	_, err = svc.RecordExpense(ctx, "vendor-1", "mgr-1", money(t, "150.00"), ledger.PayCheck, businessDay, "", "")
	require.NoError(t, err)
	_, err = svc.RecordDeposit(ctx, "bank", "mgr-1", money(t, "1100.00"), businessDay)
	require.NoError(t, err)

	report, err := svc.ReconcileBank(ctx, businessDay, businessDay)
	require.NoError(t, err)
	assert.Equal(t, "1150.00", report.ExpectedDeposits.String())
	assert.Equal(t, "1100.00", report.ActualDeposits.String())
	assert.Equal(t, "-50.00", report.Variance.String())
}

func TestService_ReconcileBank_EmptyRangeIsZero(t *testing.T) {
	// GIVEN: No facts in the range
	// WHEN: Reconciling
	// THEN: All-zero report, not an error

	svc, _ := newTestService(t, businessDay)
	report, err := svc.ReconcileBank(context.Background(), businessDay, businessDay.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.True(t, report.ExpectedDeposits.IsZero())
	assert.True(t, report.ActualDeposits.IsZero())
	assert.True(t, report.Variance.IsZero())
}

func TestService_ReconcileBank_RejectsInvertedRange(t *testing.T) {
	// GIVEN: End date before start date
	// WHEN: Reconciling
	// THEN: Validation error

	svc, _ := newTestService(t, businessDay)
	_, err := svc.ReconcileBank(context.Background(), businessDay, businessDay.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ledger.ErrValidation)
}
