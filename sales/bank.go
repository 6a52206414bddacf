package sales

import (
	"context"
	"time"

	"github.com/warp/custody-ledger/ledger"
)

// BankReport compares what should have reached the bank against what was
// actually logged as deposited over a date range.
type BankReport struct {
	ExpectedDeposits ledger.Money
	ActualDeposits   ledger.Money
	Variance         ledger.Money // actual - expected; negative = short
}

// ReconcileBank aggregates over [startDate, endDate] (whole days):
//
//	expected = sum(card sales) + sum(check expenses)
//	actual   = sum(deposits)
//
// Read-only, no persisted side effect. An empty range yields an all-zero
// report, not an error.
func (s *Service) ReconcileBank(ctx context.Context, startDate, endDate time.Time) (BankReport, error) {
	if startDate.IsZero() || endDate.IsZero() {
		return BankReport{}, ledger.Validationf("range", "start and end dates are required")
	}
	if ledger.Date(endDate).Before(ledger.Date(startDate)) {
		return BankReport{}, ledger.Validationf("range", "end before start")
	}

	var report BankReport
	err := ledger.RetryOnce(ctx, func() error {
		var rerr error
		report, rerr = s.reconcileBank(ctx, startDate, endDate)
		return rerr
	})
	return report, err
}

func (s *Service) reconcileBank(ctx context.Context, startDate, endDate time.Time) (BankReport, error) {
	from := ledger.Date(startDate)
	to := ledger.Date(endDate).AddDate(0, 0, 1)

	salesRows, err := s.store.DailySalesInRange(ctx, from, to)
	if err != nil {
		return BankReport{}, ledger.TransientError(err)
	}
	expenseRows, err := s.store.ExpensesInRange(ctx, from, to)
	if err != nil {
		return BankReport{}, ledger.TransientError(err)
	}
	depositRows, err := s.store.DepositsInRange(ctx, from, to)
	if err != nil {
		return BankReport{}, ledger.TransientError(err)
	}

	expected := ledger.Zero()
	for _, rec := range salesRows {
		expected = expected.Add(rec.CardSales)
	}
	for _, e := range expenseRows {
		if e.PaymentType == ledger.PayCheck {
			expected = expected.Add(e.Amount)
		}
	}

	actual := ledger.Zero()
	for _, d := range depositRows {
		actual = actual.Add(d.Amount)
	}

	return BankReport{
		ExpectedDeposits: expected.Round2(),
		ActualDeposits:   actual.Round2(),
		Variance:         actual.Sub(expected).Round2(),
	}, nil
}
