/*
errors.go - Centralized error taxonomy for the custody ledger

ERROR CATEGORIES:
  1. Validation errors  - rejected before any store access
  2. Business-rule errors - insufficient balance, duplicate payment,
     shift state violations; terminal, surfaced verbatim with context
  3. Store errors - NotFound and transient I/O failures; transient
     reads are safe to retry because every aggregation is a pure
     re-replay with no cached intermediate state

USAGE:
  Callers match with errors.Is / errors.As:

    var ib *ledger.InsufficientSafeBalanceError
    if errors.As(err, &ib) {
        show(ib.Balance)
    }
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrValidation is the root of all pre-store input rejections.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientSafeBalance is returned when a withdrawal exceeds the
	// balance replayed at authorization time.
	ErrInsufficientSafeBalance = errors.New("insufficient safe balance")

	// ErrDuplicatePayment is returned when a paycheck already exists for
	// the (employee, week) pair. Enforced at the store layer.
	ErrDuplicatePayment = errors.New("payroll already recorded for period")

	// ErrNotFound is returned when a referenced shift, entry, or record
	// does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrShiftClosed is returned when closing an already-closed shift.
	ErrShiftClosed = errors.New("shift already closed")

	// ErrShiftAlreadyOpen is returned when the actor already has an open
	// shift. One open shift per actor.
	ErrShiftAlreadyOpen = errors.New("actor already has an open shift")

	// ErrTransientStore wraps I/O failures talking to the fact-stream
	// store. Safe to retry: reads are pure re-aggregation.
	ErrTransientStore = errors.New("transient store error")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a rejected input. Never partially applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientSafeBalanceError carries the balance computed at
// authorization time so the operator can adjust the request.
type InsufficientSafeBalanceError struct {
	Requested Money
	Balance   Money
}

func (e *InsufficientSafeBalanceError) Error() string {
	return fmt.Sprintf("insufficient safe balance: requested %s, available %s",
		e.Requested, e.Balance)
}

func (e *InsufficientSafeBalanceError) Unwrap() error { return ErrInsufficientSafeBalance }

// DuplicatePaymentError carries the existing paycheck's creation time so
// the operator sees when the period was already paid.
type DuplicatePaymentError struct {
	EmployeeID string
	WeekStart  time.Time
	WeekEnd    time.Time
	PaidAt     time.Time
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("payroll for employee %s week %s already recorded at %s",
		e.EmployeeID, e.WeekStart.Format("2006-01-02"), e.PaidAt.Format(time.RFC3339))
}

func (e *DuplicatePaymentError) Unwrap() error { return ErrDuplicatePayment }

// TransientError wraps a store failure that may succeed on retry.
func TransientError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransientStore, err)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether the error might succeed on retry.
func IsRetryable(err error) bool { return errors.Is(err, ErrTransientStore) }

// IsClientError reports whether the error is the caller's fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientSafeBalance) ||
		errors.Is(err, ErrDuplicatePayment) ||
		errors.Is(err, ErrShiftClosed) ||
		errors.Is(err, ErrShiftAlreadyOpen)
}

// RetryOnce runs fn, and on a transient store error retries exactly once
// after a short backoff. Aggregations are pure replays, so a retry can
// never observe partial state.
func RetryOnce(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !IsRetryable(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}
	return fn()
}
