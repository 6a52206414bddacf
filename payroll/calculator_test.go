package payroll_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/custody-ledger/audit"
	"github.com/warp/custody-ledger/ledger"
	"github.com/warp/custody-ledger/ledger/store"
	"github.com/warp/custody-ledger/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	weekStart = time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC) // Monday
	weekEnd   = weekStart.AddDate(0, 0, 6)
)

func newTestCalculator(t *testing.T, at time.Time) (*payroll.Calculator, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	clock := ledger.FixedClock{At: at}
	return payroll.NewCalculator(mem, clock, audit.NewRecorder(mem, clock)), mem
}

func calcAt(mem *store.Memory, at time.Time) *payroll.Calculator {
	clock := ledger.FixedClock{At: at}
	return payroll.NewCalculator(mem, clock, audit.NewRecorder(mem, clock))
}

func money(t *testing.T, s string) ledger.Money {
	t.Helper()
	m, err := ledger.ParseMoney(s)
	require.NoError(t, err)
	return m
}

// =============================================================================
// CLOCK IN / CLOCK OUT TESTS
// =============================================================================

func TestCalculator_ClockIn_RejectsDoubleClockIn(t *testing.T) {
	// GIVEN: An employee already clocked in
	// WHEN: They clock in again
	// THEN: Rejected; one open entry per employee

	calc, _ := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	_, err := calc.ClockIn(ctx, "emp-1")
	require.NoError(t, err)
	_, err = calc.ClockIn(ctx, "emp-1")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestCalculator_ClockOut_ClosesOpenEntry(t *testing.T) {
	// GIVEN: An employee clocked in at 09:00
	// WHEN: They clock out at 17:00
	// THEN: The entry is closed with 8 hours and the employee can clock
	//       in again

	calc, mem := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	entryID, err := calc.ClockIn(ctx, "emp-1")
	require.NoError(t, err)

	outID, err := calcAt(mem, weekStart.Add(17*time.Hour)).ClockOut(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, entryID, outID)

	te, err := mem.GetTimeEntry(ctx, entryID)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, te.Hours(), 1e-9)

	_, err = calcAt(mem, weekStart.Add(18*time.Hour)).ClockIn(ctx, "emp-1")
	require.NoError(t, err)
}

func TestCalculator_ClockOut_NoOpenEntry(t *testing.T) {
	// GIVEN: No open entry for the employee
	// WHEN: They clock out
	// THEN: ErrNotFound

	calc, _ := newTestCalculator(t, weekStart)
	_, err := calc.ClockOut(context.Background(), "emp-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// WEEKLY AGGREGATION TESTS
// =============================================================================

func TestCalculator_WeeklyPayroll_GroupsHoursAndExpenses(t *testing.T) {
	// GIVEN: emp-1 works two closed stints (8h + 4h) and logs 42.30 of
	//        expenses; emp-2 only logs an expense
	// WHEN: Aggregating the week
	// THEN: Rows per employee, sorted by employee ID

	calc, mem := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	_, err := calc.ClockIn(ctx, "emp-1")
	require.NoError(t, err)
	_, err = calcAt(mem, weekStart.Add(17*time.Hour)).ClockOut(ctx, "emp-1")
	require.NoError(t, err)

	day2 := weekStart.AddDate(0, 0, 1)
	_, err = calcAt(mem, day2.Add(10*time.Hour)).ClockIn(ctx, "emp-1")
	require.NoError(t, err)
	_, err = calcAt(mem, day2.Add(14*time.Hour)).ClockOut(ctx, "emp-1")
	require.NoError(t, err)

	_, err = calc.LogExpense(ctx, "emp-1", money(t, "42.30"), "mileage")
	require.NoError(t, err)
	_, err = calc.LogExpense(ctx, "emp-2", money(t, "5.00"), "parking")
	require.NoError(t, err)

	rows, err := calc.WeeklyPayroll(ctx, weekStart, weekEnd)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "emp-1", rows[0].EmployeeID)
	assert.InDelta(t, 12.0, rows[0].TotalHours, 1e-9)
	assert.Equal(t, "42.30", rows[0].ExpensesTotal.String())
	assert.False(t, rows[0].Paid)

	assert.Equal(t, "emp-2", rows[1].EmployeeID)
	assert.Zero(t, rows[1].TotalHours)
	assert.Equal(t, "5.00", rows[1].ExpensesTotal.String())
}

func TestCalculator_WeeklyPayroll_OpenEntryContributesZeroHours(t *testing.T) {
	// GIVEN: An employee still clocked in
	// WHEN: Aggregating the week
	// THEN: The open entry adds no hours - never estimated

	calc, _ := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	_, err := calc.ClockIn(ctx, "emp-1")
	require.NoError(t, err)

	rows, err := calc.WeeklyPayroll(ctx, weekStart, weekEnd)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].TotalHours)
}

func TestCalculator_WeeklyPayroll_MarksPaidWeeks(t *testing.T) {
	// GIVEN: A paycheck already recorded for the week
	// WHEN: Aggregating
	// THEN: The row carries Paid and PaidAt

	calc, mem := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	_, err := calc.ClockIn(ctx, "emp-1")
	require.NoError(t, err)
	_, err = calcAt(mem, weekStart.Add(17*time.Hour)).ClockOut(ctx, "emp-1")
	require.NoError(t, err)
	_, err = calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, 8, money(t, "15.00"))
	require.NoError(t, err)

	rows, err := calc.WeeklyPayroll(ctx, weekStart, weekEnd)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Paid)
	require.NotNil(t, rows[0].PaidAt)
}

// =============================================================================
// RECORD PAY TESTS
// =============================================================================

func TestCalculator_RecordPay_ComputesGrossAndNet(t *testing.T) {
	// GIVEN: 38.5 hours at 15.00/h and 42.30 of week expenses
	// WHEN: Recording pay
	// THEN: Gross 577.50, net 535.20, all rounded to cents

	calc, mem := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	_, err := calc.LogExpense(ctx, "emp-1", money(t, "42.30"), "mileage")
	require.NoError(t, err)

	_, err = calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, 38.5, money(t, "15.00"))
	require.NoError(t, err)

	p, err := mem.PaycheckForWeek(ctx, "emp-1", ledger.Date(weekStart), ledger.Date(weekEnd))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "577.50", p.GrossPay.String())
	assert.Equal(t, "42.30", p.ExpensesTotal.String())
	assert.Equal(t, "535.20", p.NetPay.String())
}

func TestCalculator_RecordPay_DuplicateWeekRejected(t *testing.T) {
	// GIVEN: A week already paid for the employee
	// WHEN: Recording pay again
	// THEN: DuplicatePaymentError naming the paid period

	calc, _ := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	_, err := calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, 40, money(t, "15.00"))
	require.NoError(t, err)

	_, err = calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, 40, money(t, "15.00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrDuplicatePayment)

	var dup *ledger.DuplicatePaymentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "emp-1", dup.EmployeeID)
}

func TestCalculator_RecordPay_ConcurrentSubmissionsSingleCheck(t *testing.T) {
	// GIVEN: Two admin sessions submitting the same week at once
	// WHEN: Both RecordPay calls race
	// THEN: Exactly one paycheck lands

	calc, mem := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, 40, money(t, "15.00"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ledger.ErrDuplicatePayment)
		}
	}
	assert.Equal(t, 1, succeeded)

	p, err := mem.PaycheckForWeek(ctx, "emp-1", ledger.Date(weekStart), ledger.Date(weekEnd))
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestCalculator_RecordPay_DifferentWeeksAllowed(t *testing.T) {
	// GIVEN: A paid week
	// WHEN: Paying the following week
	// THEN: Allowed

	calc, _ := newTestCalculator(t, weekStart.Add(9*time.Hour))
	ctx := context.Background()

	_, err := calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, 40, money(t, "15.00"))
	require.NoError(t, err)
	_, err = calc.RecordPay(ctx, "emp-1", weekStart.AddDate(0, 0, 7), weekEnd.AddDate(0, 0, 7), 40, money(t, "15.00"))
	require.NoError(t, err)
}

func TestCalculator_RecordPay_Validation(t *testing.T) {
	// GIVEN: Negative hours, negative rate, inverted week
	// WHEN: Recording pay
	// THEN: Each rejected

	calc, _ := newTestCalculator(t, weekStart)
	ctx := context.Background()

	_, err := calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, -1, money(t, "15.00"))
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = calc.RecordPay(ctx, "emp-1", weekStart, weekEnd, 40, money(t, "-1.00"))
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = calc.RecordPay(ctx, "emp-1", weekEnd, weekStart, 40, money(t, "15.00"))
	assert.ErrorIs(t, err, ledger.ErrValidation)
}
