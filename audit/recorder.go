/*
Package audit records an immutable change entry for every mutation across
the ledger components and exposes a read-only, paginated query over the
stream.

The write and read sides are segregated by interface: Recorder holds only
a ledger.AuditAppender, Log holds only a ledger.AuditQuerier. No type in
this module exposes audit update or delete, at any layer - the store
adapters simply have no such methods.
*/
package audit

import (
	"context"
	"encoding/json"

	"github.com/warp/custody-ledger/ledger"
)

// =============================================================================
// RECORDER - write side
// =============================================================================

type Recorder struct {
	appender ledger.AuditAppender
	clock    ledger.Clock
}

func NewRecorder(appender ledger.AuditAppender, clock ledger.Clock) *Recorder {
	return &Recorder{appender: appender, clock: clock}
}

// WithAppender returns a Recorder bound to a different appender, keeping
// the clock. Components use this inside WithTx so the audit entry lands
// in the same store transaction as the fact it records.
func (r *Recorder) WithAppender(appender ledger.AuditAppender) *Recorder {
	return &Recorder{appender: appender, clock: r.clock}
}

// Insert appends the audit entry for a fact append.
func (r *Recorder) Insert(ctx context.Context, table, recordID, actorID string, newValue any) error {
	return r.append(ctx, table, recordID, actorID, ledger.AuditInsert, nil, newValue)
}

// Update appends the audit entry for one of the two sanctioned updates
// (daily-sales re-close, shift close). OldValue is populated only here.
func (r *Recorder) Update(ctx context.Context, table, recordID, actorID string, oldValue, newValue any) error {
	return r.append(ctx, table, recordID, actorID, ledger.AuditUpdate, oldValue, newValue)
}

func (r *Recorder) append(ctx context.Context, table, recordID, actorID string, action ledger.AuditAction, oldValue, newValue any) error {
	entry := ledger.AuditEntry{
		Table:     table,
		RecordID:  recordID,
		Action:    action,
		ActorID:   actorID,
		ChangedAt: r.clock.Now(),
	}
	if oldValue != nil {
		b, err := json.Marshal(oldValue)
		if err != nil {
			return err
		}
		entry.OldValue = string(b)
	}
	if newValue != nil {
		b, err := json.Marshal(newValue)
		if err != nil {
			return err
		}
		entry.NewValue = string(b)
	}
	return r.appender.AppendAudit(ctx, entry)
}

// =============================================================================
// LOG - read side
// =============================================================================

const maxPageSize = 500

type Log struct {
	querier ledger.AuditQuerier
}

func NewLog(querier ledger.AuditQuerier) *Log {
	return &Log{querier: querier}
}

// Query returns one bounded page of the stream. The returned cursor feeds
// the next call; pagination restarts cleanly because entries are never
// deleted or renumbered.
func (l *Log) Query(ctx context.Context, filter ledger.AuditFilter) (ledger.AuditPage, error) {
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return ledger.AuditPage{}, ledger.Validationf("range", "end before start")
	}

	var page ledger.AuditPage
	err := ledger.RetryOnce(ctx, func() error {
		var qerr error
		page, qerr = l.querier.QueryAudit(ctx, filter)
		return qerr
	})
	return page, err
}
