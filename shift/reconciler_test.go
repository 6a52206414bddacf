package shift_test

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
	"github.com/warp/custody-ledger/shift"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	mem   *store.Memory
	clock ledger.FixedClock
}

func newFixture(at time.Time) fixture {
	return fixture{mem: store.NewMemory(), clock: ledger.FixedClock{At: at}}
}

func (f fixture) reconciler() *shift.Reconciler {
	return shift.NewReconciler(f.mem, f.clock, audit.NewRecorder(f.mem, f.clock))
}

func (f fixture) vault() *safe.Vault {
	return safe.NewVault(f.mem, f.clock, audit.NewRecorder(f.mem, f.clock))
}

func (f fixture) sales() *sales.Service {
	return sales.NewService(f.mem, f.clock, audit.NewRecorder(f.mem, f.clock))
}

func money(t *testing.T, s string) ledger.Money {
	t.Helper()
	m, err := ledger.ParseMoney(s)
	require.NoError(t, err)
	return m
}

var shiftStart = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestReconciler_Open_RejectsSecondOpenShift(t *testing.T) {
	// GIVEN: An actor with an open shift
	// WHEN: The same actor opens another shift
	// THEN: Rejected; one open shift per actor

	f := newFixture(shiftStart)
	rec := f.reconciler()
	ctx := context.Background()

	_, err := rec.Open(ctx, "cashier-1", money(t, "200.00"))
	require.NoError(t, err)

	_, err = rec.Open(ctx, "cashier-1", money(t, "200.00"))
	assert.ErrorIs(t, err, ledger.ErrShiftAlreadyOpen)
}

func TestReconciler_Open_DifferentActorsAllowed(t *testing.T) {
	// GIVEN: cashier-1 has an open shift
	// WHEN: cashier-2 opens one
	// THEN: Both shifts are open

	f := newFixture(shiftStart)
	rec := f.reconciler()
	ctx := context.Background()

	_, err := rec.Open(ctx, "cashier-1", money(t, "200.00"))
	require.NoError(t, err)
	_, err = rec.Open(ctx, "cashier-2", money(t, "150.00"))
	require.NoError(t, err)
}

func TestReconciler_Open_RejectsNegativeStartingCash(t *testing.T) {
	// GIVEN: A negative drawer float
	// WHEN: Opening a shift
	// THEN: Validation error

	f := newFixture(shiftStart)
	_, err := f.reconciler().Open(context.Background(), "cashier-1", money(t, "-1.00"))
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// CLOSE TESTS
// =============================================================================

func TestReconciler_Close_ReconcilesDrawer(t *testing.T) {
	// GIVEN: Shift opened with 200.00, a 150.00 drop during the shift
	// WHEN: Closing with a counted drawer of 45.00
	// THEN: Expected ending = 200 - 150 = 50.00, variance = -5.00

	f := newFixture(shiftStart)
	ctx := context.Background()

	shiftID, err := f.reconciler().Open(ctx, "cashier-1", money(t, "200.00"))
	require.NoError(t, err)

	// Drop an hour into the shift.
	during := f
	during.clock = ledger.FixedClock{At: shiftStart.Add(time.Hour)}
	_, err = during.vault().RecordDrop(ctx, "cashier-1", money(t, "150.00"), "")
	require.NoError(t, err)

	closeTime := f
	closeTime.clock = ledger.FixedClock{At: shiftStart.Add(8 * time.Hour)}
	summary, err := closeTime.reconciler().Close(ctx, shiftID, money(t, "45.00"), "")
	require.NoError(t, err)

	assert.Equal(t, "200.00", summary.StartingCash.String())
	assert.Equal(t, "150.00", summary.TotalDrops.String())
	assert.Equal(t, "50.00", summary.ExpectedEnding.String())
	assert.Equal(t, "45.00", summary.EndingCash.String())
	assert.Equal(t, "-5.00", summary.Variance.String())
}

func TestReconciler_Close_IgnoresOtherActorsDrops(t *testing.T) {
	// GIVEN: Drops from two cashiers during the same hours
	// WHEN: cashier-1's shift closes
	// THEN: Only cashier-1's drops count toward the shift totals

	f := newFixture(shiftStart)
	ctx := context.Background()

	shiftID, err := f.reconciler().Open(ctx, "cashier-1", money(t, "100.00"))
	require.NoError(t, err)

	during := f
	during.clock = ledger.FixedClock{At: shiftStart.Add(time.Hour)}
	_, err = during.vault().RecordDrop(ctx, "cashier-1", money(t, "30.00"), "")
	require.NoError(t, err)
	_, err = during.vault().RecordDrop(ctx, "cashier-2", money(t, "500.00"), "")
	require.NoError(t, err)

	closeTime := f
	closeTime.clock = ledger.FixedClock{At: shiftStart.Add(8 * time.Hour)}
	summary, err := closeTime.reconciler().Close(ctx, shiftID, money(t, "70.00"), "")
	require.NoError(t, err)
	assert.Equal(t, "30.00", summary.TotalDrops.String())
}

func TestReconciler_Close_ExcludesDropsBeforeShift(t *testing.T) {
	// GIVEN: A drop recorded before the shift opened
	// WHEN: The shift closes
	// THEN: That drop is outside the shift span

	pre := newFixture(shiftStart.Add(-time.Hour))
	ctx := context.Background()
	_, err := pre.vault().RecordDrop(ctx, "cashier-1", money(t, "75.00"), "")
	require.NoError(t, err)

	f := pre
	f.clock = ledger.FixedClock{At: shiftStart}
	shiftID, err := f.reconciler().Open(ctx, "cashier-1", money(t, "100.00"))
	require.NoError(t, err)

	closeTime := f
	closeTime.clock = ledger.FixedClock{At: shiftStart.Add(4 * time.Hour)}
	summary, err := closeTime.reconciler().Close(ctx, shiftID, money(t, "100.00"), "")
	require.NoError(t, err)
	assert.True(t, summary.TotalDrops.IsZero())
}

func TestReconciler_Close_CountsCashExpenses(t *testing.T) {
	// GIVEN: A cash expense and a check expense logged by the cashier
	//        on the shift day
	// WHEN: The shift closes
	// THEN: Only the cash expense lands in TotalExpenses; the expected
	//       ending is still starting minus drops

	f := newFixture(shiftStart)
	ctx := context.Background()

	shiftID, err := f.reconciler().Open(ctx, "cashier-1", money(t, "200.00"))
	require.NoError(t, err)

	_, err = f.sales().RecordExpense(ctx, "vendor-1", "cashier-1", money(t, "20.00"), ledger.PayCash, shiftStart, "", "")
	require.NoError(t, err)
	_, err = f.sales().RecordExpense(ctx, "vendor-2", "cashier-1", money(t, "80.00"), ledger.PayCheck, shiftStart, "", "")
	require.NoError(t, err)

	closeTime := f
	closeTime.clock = ledger.FixedClock{At: shiftStart.Add(8 * time.Hour)}
	summary, err := closeTime.reconciler().Close(ctx, shiftID, money(t, "200.00"), "")
	require.NoError(t, err)

	assert.Equal(t, "20.00", summary.TotalExpenses.String())
	assert.Equal(t, "200.00", summary.ExpectedEnding.String())
}

func TestReconciler_Close_SecondCloseRejected(t *testing.T) {
	// GIVEN: A closed shift
	// WHEN: Closing it again
	// THEN: ErrShiftClosed; the first close's figures stand

	f := newFixture(shiftStart)
	ctx := context.Background()

	shiftID, err := f.reconciler().Open(ctx, "cashier-1", money(t, "100.00"))
	require.NoError(t, err)

	closeTime := f
	closeTime.clock = ledger.FixedClock{At: shiftStart.Add(8 * time.Hour)}
	_, err = closeTime.reconciler().Close(ctx, shiftID, money(t, "100.00"), "")
	require.NoError(t, err)

	_, err = closeTime.reconciler().Close(ctx, shiftID, money(t, "90.00"), "")
	assert.ErrorIs(t, err, ledger.ErrShiftClosed)

	sh, err := f.reconciler().Get(ctx, shiftID)
	require.NoError(t, err)
	require.NotNil(t, sh.EndingCash)
	assert.Equal(t, "100.00", sh.EndingCash.String())
}

func TestReconciler_Close_UnknownShift(t *testing.T) {
	// GIVEN: No such shift
	// WHEN: Closing it
	// THEN: ErrNotFound

	f := newFixture(shiftStart)
	_, err := f.reconciler().Close(context.Background(), "missing", money(t, "10.00"), "")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestReconciler_Close_WritesUpdateAudit(t *testing.T) {
	// GIVEN: An open shift
	// WHEN: It closes
	// THEN: The audit stream holds the insert from open and an update
	//       from close carrying both snapshots

	f := newFixture(shiftStart)
	ctx := context.Background()

	shiftID, err := f.reconciler().Open(ctx, "cashier-1", money(t, "100.00"))
	require.NoError(t, err)
	_, err = f.reconciler().Close(ctx, shiftID, money(t, "100.00"), "")
	require.NoError(t, err)

	page, err := f.mem.QueryAudit(ctx, ledger.AuditFilter{Table: "shifts"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, ledger.AuditInsert, page.Entries[0].Action)
	assert.Equal(t, ledger.AuditUpdate, page.Entries[1].Action)
	assert.NotEmpty(t, page.Entries[1].OldValue)
	assert.NotEmpty(t, page.Entries[1].NewValue)
}
