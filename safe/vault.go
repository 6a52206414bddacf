/*
Package safe implements cash custody: the safe balance calculation and
the drop / withdrawal / manual-count operations.

THE ONE FORMULA:
  SafeBalance = sum(confirmed drop amounts) - sum(withdrawal amounts)

  The balance is replayed from the two streams on every call. There is
  no cached running total anywhere in this module: a counter updated on
  each write is exactly the drift bug this ledger exists to prevent. If
  performance ever demands one, it must be a periodically-reconciled
  materialized total validated against full recomputation, never
  trusted blindly.

WITHDRAWAL AUTHORIZATION:
  A withdrawal must never exceed the balance computed at authorization
  time. Replaying the balance and appending the withdrawal happen inside
  one store transaction; a naive read-then-write in two calls would let
  two concurrent managers overdraw the safe.
*/
package safe

import (
	"context"
	"strings"

	"github.com/warp/custody-ledger/audit"
	"github.com/warp/custody-ledger/ledger"
)

const (
	dropPrefix       = "DROP"
	withdrawalPrefix = "WDR"
	countPrefix      = "CNT"
)

// Vault exposes the custody operations over the fact streams.
type Vault struct {
	store ledger.TxStore
	clock ledger.Clock
	audit *audit.Recorder
}

func NewVault(store ledger.TxStore, clock ledger.Clock, rec *audit.Recorder) *Vault {
	return &Vault{store: store, clock: clock, audit: rec}
}

// CountResult is the outcome of a manual safe count.
type CountResult struct {
	Expected ledger.Money
	Actual   ledger.Money
	Variance ledger.Money
}

// =============================================================================
// BALANCE
// =============================================================================

// Balance replays the drop and withdrawal streams and returns
// drops - withdrawals. Lifetime totals, no date bound, no side effects.
// Store failures surface as transient errors after one internal retry.
func (v *Vault) Balance(ctx context.Context) (ledger.Money, error) {
	var bal ledger.Money
	err := ledger.RetryOnce(ctx, func() error {
		var berr error
		bal, berr = replayBalance(ctx, v.store)
		return berr
	})
	return bal, err
}

// ExpectedBalance is currently defined as identical to Balance. It exists
// as a named alias because the expected figure is a distinct product
// concept (a future definition may be "previous count + today's deltas");
// callers that mean "expected" should say so.
func (v *Vault) ExpectedBalance(ctx context.Context) (ledger.Money, error) {
	return v.Balance(ctx)
}

func replayBalance(ctx context.Context, s ledger.Store) (ledger.Money, error) {
	drops, err := s.ConfirmedDrops(ctx)
	if err != nil {
		return ledger.Money{}, ledger.TransientError(err)
	}
	withdrawals, err := s.Withdrawals(ctx)
	if err != nil {
		return ledger.Money{}, ledger.TransientError(err)
	}

	total := ledger.Zero()
	for _, d := range drops {
		total = total.Add(d.Amount)
	}
	for _, w := range withdrawals {
		total = total.Sub(w.Amount)
	}
	return total, nil
}

// =============================================================================
// DROPS
// =============================================================================

// RecordDrop appends a confirmed safe drop and returns its receipt number.
func (v *Vault) RecordDrop(ctx context.Context, actorID string, amount ledger.Money, notes string) (string, error) {
	if actorID == "" {
		return "", ledger.Validationf("actor_id", "is required")
	}
	if !amount.IsPositive() {
		return "", ledger.Validationf("amount", "must be greater than zero")
	}

	now := v.clock.Now()
	drop := ledger.SafeDrop{
		ReceiptNumber: ledger.ReceiptNumber(dropPrefix, now),
		ActorID:       actorID,
		Amount:        amount.Round2(),
		Timestamp:     now,
		Confirmed:     true,
		Notes:         notes,
	}

	err := v.store.WithTx(ctx, func(s ledger.Store) error {
		if err := s.AppendDrop(ctx, drop); err != nil {
			return ledger.TransientError(err)
		}
		return v.audit.WithAppender(s).Insert(ctx, "safe_drops", drop.ReceiptNumber, actorID, drop)
	})
	if err != nil {
		return "", err
	}
	return drop.ReceiptNumber, nil
}

// =============================================================================
// WITHDRAWALS
// =============================================================================

// RecordWithdrawal authorizes and appends a withdrawal as one atomic unit:
// the balance is replayed and checked inside the same store transaction
// that appends the row. Fails with InsufficientSafeBalance (carrying the
// current balance) when the amount exceeds it.
func (v *Vault) RecordWithdrawal(ctx context.Context, actorID, approverID string, amount ledger.Money, reason string) (string, error) {
	if actorID == "" {
		return "", ledger.Validationf("actor_id", "is required")
	}
	if !amount.IsPositive() {
		return "", ledger.Validationf("amount", "must be greater than zero")
	}
	if strings.TrimSpace(reason) == "" {
		return "", ledger.Validationf("reason", "is required")
	}

	now := v.clock.Now()
	w := ledger.Withdrawal{
		ID:         ledger.ReceiptNumber(withdrawalPrefix, now),
		ActorID:    actorID,
		ApproverID: approverID,
		Amount:     amount.Round2(),
		Reason:     reason,
		Timestamp:  now,
	}

	err := v.store.WithTx(ctx, func(s ledger.Store) error {
		bal, err := replayBalance(ctx, s)
		if err != nil {
			return err
		}
		if w.Amount.GreaterThan(bal) {
			return &ledger.InsufficientSafeBalanceError{Requested: w.Amount, Balance: bal}
		}
		if err := s.AppendWithdrawal(ctx, w); err != nil {
			return ledger.TransientError(err)
		}
		return v.audit.WithAppender(s).Insert(ctx, "withdrawals", w.ID, actorID, w)
	})
	if err != nil {
		return "", err
	}
	return w.ID, nil
}

// =============================================================================
// MANUAL COUNTS
// =============================================================================

// RecordManualCount reconciles a physical count against the replayed
// balance and appends the immutable count record. The expected figure is
// computed in the same transaction, so the variance is exact for the
// moment of the count.
func (v *Vault) RecordManualCount(ctx context.Context, actorID string, actual ledger.Money, notes string) (CountResult, error) {
	if actorID == "" {
		return CountResult{}, ledger.Validationf("actor_id", "is required")
	}
	if actual.IsNegative() {
		return CountResult{}, ledger.Validationf("actual_amount", "must not be negative")
	}

	var result CountResult
	now := v.clock.Now()

	err := v.store.WithTx(ctx, func(s ledger.Store) error {
		expected, err := replayBalance(ctx, s)
		if err != nil {
			return err
		}
		count := ledger.ManualCount{
			ID:        ledger.ReceiptNumber(countPrefix, now),
			ActorID:   actorID,
			Expected:  expected.Round2(),
			Actual:    actual.Round2(),
			Variance:  actual.Sub(expected).Round2(),
			Timestamp: now,
			Notes:     notes,
		}
		if err := s.AppendManualCount(ctx, count); err != nil {
			return ledger.TransientError(err)
		}
		result = CountResult{Expected: count.Expected, Actual: count.Actual, Variance: count.Variance}
		return v.audit.WithAppender(s).Insert(ctx, "manual_counts", count.ID, actorID, count)
	})
	if err != nil {
		return CountResult{}, err
	}
	return result, nil
}
