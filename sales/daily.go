/*
Package sales derives the cash-sales figure from the custody streams,
closes the daily sales record, reconciles bank deposits, and records the
vendor expense and deposit facts those derivations read.

CASH SALES ARE NEVER TYPED IN:
  cashSales(date) = sum(drops in the date's window)
                  + sum(cash expenses dated that day)

  The figure is recomputed from the ledger every time a day is closed,
  so the declared cash number can always be regenerated and audited
  against the underlying facts. The day window is the one canonical
  ledger.DayWindow - the same cutoff the shift reconciler uses.

DAILY CLOSE:
  One record per date. Re-closing a day overwrites it via an atomic
  upsert; the audit entry for a re-close is an update carrying the old
  record.
*/
package sales

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/custody-ledger/audit"
	"github.com/warp/custody-ledger/ledger"
)

type Service struct {
	store ledger.TxStore
	clock ledger.Clock
	audit *audit.Recorder
}

func NewService(store ledger.TxStore, clock ledger.Clock, rec *audit.Recorder) *Service {
	return &Service{store: store, clock: clock, audit: rec}
}

// =============================================================================
// CASH-SALES DERIVER
// =============================================================================

// DeriveCashSales computes the cash-sales figure for the date. Pure
// read-only aggregation; calling it twice without new facts returns the
// same value.
func (s *Service) DeriveCashSales(ctx context.Context, date time.Time) (ledger.Money, error) {
	var total ledger.Money
	err := ledger.RetryOnce(ctx, func() error {
		var derr error
		total, derr = deriveCashSales(ctx, s.store, date)
		return derr
	})
	return total, err
}

func deriveCashSales(ctx context.Context, st ledger.Store, date time.Time) (ledger.Money, error) {
	from, to := ledger.DayWindow(date)

	drops, err := st.DropsInRange(ctx, from, to)
	if err != nil {
		return ledger.Money{}, ledger.TransientError(err)
	}
	expenses, err := st.ExpensesInRange(ctx, from, to)
	if err != nil {
		return ledger.Money{}, ledger.TransientError(err)
	}

	total := ledger.Zero()
	for _, d := range drops {
		total = total.Add(d.Amount)
	}
	for _, e := range expenses {
		if e.PaymentType == ledger.PayCash {
			total = total.Add(e.Amount)
		}
	}
	return total.Round2(), nil
}

// =============================================================================
// DAILY CLOSE
// =============================================================================

// CloseDayParams carries the operator-declared side of a daily close.
// ReportedTotal is the register's own total-sales figure, when available;
// the variance compares it against the ledger-derived total.
type CloseDayParams struct {
	Date          time.Time
	CardSales     ledger.Money
	ReportedTotal *ledger.Money
	ActorID       string
	Notes         string
}

// DayClose is the persisted outcome of closing a day.
type DayClose struct {
	Date      time.Time
	CardSales ledger.Money
	CashSales ledger.Money
	Total     ledger.Money
	Variance  ledger.Money
}

// CloseDay re-derives cash sales, records the daily sales row, and
// returns the figures. The cash figure is never accepted as input.
// Closing the same date again overwrites the previous record.
func (s *Service) CloseDay(ctx context.Context, p CloseDayParams) (DayClose, error) {
	if p.ActorID == "" {
		return DayClose{}, ledger.Validationf("actor_id", "is required")
	}
	if p.Date.IsZero() {
		return DayClose{}, ledger.Validationf("date", "is required")
	}
	if p.CardSales.IsNegative() {
		return DayClose{}, ledger.Validationf("card_sales", "must not be negative")
	}

	var out DayClose
	err := s.store.WithTx(ctx, func(st ledger.Store) error {
		cash, err := deriveCashSales(ctx, st, p.Date)
		if err != nil {
			return err
		}

		card := p.CardSales.Round2()
		total := card.Add(cash).Round2()
		variance := ledger.Zero()
		if p.ReportedTotal != nil {
			variance = p.ReportedTotal.Sub(total).Round2()
		}

		rec := ledger.DailySales{
			Date:      ledger.Date(p.Date),
			CardSales: card,
			CashSales: cash,
			Total:     total,
			Variance:  variance,
			ClosedBy:  p.ActorID,
			Notes:     p.Notes,
			ClosedAt:  s.clock.Now(),
		}

		old, err := st.UpsertDailySales(ctx, rec)
		if err != nil {
			return ledger.TransientError(err)
		}

		out = DayClose{Date: rec.Date, CardSales: card, CashSales: cash, Total: total, Variance: variance}

		recID := rec.Date.Format("2006-01-02")
		rc := s.audit.WithAppender(st)
		if old != nil {
			return rc.Update(ctx, "daily_sales", recID, p.ActorID, *old, rec)
		}
		return rc.Insert(ctx, "daily_sales", recID, p.ActorID, rec)
	})
	if err != nil {
		return DayClose{}, err
	}
	return out, nil
}

// =============================================================================
// EXPENSES / DEPOSITS
// =============================================================================

// RecordExpense appends a vendor expense. Corrections are new rows.
func (s *Service) RecordExpense(ctx context.Context, vendorID, actorID string, amount ledger.Money, paymentType ledger.PaymentType, date time.Time, notes, receiptRef string) (string, error) {
	if vendorID == "" {
		return "", ledger.Validationf("vendor_id", "is required")
	}
	if actorID == "" {
		return "", ledger.Validationf("actor_id", "is required")
	}
	if !amount.IsPositive() {
		return "", ledger.Validationf("amount", "must be greater than zero")
	}
	if paymentType != ledger.PayCash && paymentType != ledger.PayCheck {
		return "", ledger.Validationf("payment_type", "must be cash or check")
	}
	if date.IsZero() {
		return "", ledger.Validationf("date", "is required")
	}

	e := ledger.Expense{
		ID:          uuid.NewString(),
		VendorID:    vendorID,
		ActorID:     actorID,
		Amount:      amount.Round2(),
		PaymentType: paymentType,
		Date:        ledger.Date(date),
		Notes:       notes,
		ReceiptRef:  receiptRef,
	}

	err := s.store.WithTx(ctx, func(st ledger.Store) error {
		if err := st.AppendExpense(ctx, e); err != nil {
			return ledger.TransientError(err)
		}
		return s.audit.WithAppender(st).Insert(ctx, "expenses", e.ID, actorID, e)
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// RecordDeposit appends a bank deposit fact.
func (s *Service) RecordDeposit(ctx context.Context, vendorID, actorID string, amount ledger.Money, date time.Time) (string, error) {
	if actorID == "" {
		return "", ledger.Validationf("actor_id", "is required")
	}
	if !amount.IsPositive() {
		return "", ledger.Validationf("amount", "must be greater than zero")
	}
	if date.IsZero() {
		return "", ledger.Validationf("date", "is required")
	}

	d := ledger.Deposit{
		ID:       uuid.NewString(),
		VendorID: vendorID,
		ActorID:  actorID,
		Amount:   amount.Round2(),
		Date:     ledger.Date(date),
	}

	err := s.store.WithTx(ctx, func(st ledger.Store) error {
		if err := st.AppendDeposit(ctx, d); err != nil {
			return ledger.TransientError(err)
		}
		return s.audit.WithAppender(st).Insert(ctx, "deposits", d.ID, actorID, d)
	})
	if err != nil {
		return "", err
	}
	return d.ID, nil
}
