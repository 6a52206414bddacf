/*
audit.go - Append-only audit stream types

The audit stream is a single-writer, multi-reader event log: an arena of
immutable records keyed by an autoincrementing id. Interface segregation
keeps it honest - the write side (AuditAppender) and the read side
(AuditQuerier) are separate interfaces, and neither exposes update or
delete at any layer. See store.go.
*/
package ledger

import "time"

type AuditAction string

const (
	AuditInsert AuditAction = "insert"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditEntry records one insert/update/delete on one fact stream.
// OldValue is populated only for updates. Immutable once appended.
type AuditEntry struct {
	ID        int64 // assigned by the store, monotonically increasing
	Table     string
	RecordID  string
	Action    AuditAction
	OldValue  string // JSON snapshot, empty unless Action == update
	NewValue  string // JSON snapshot
	ActorID   string
	ChangedAt time.Time
}

// AuditFilter narrows an audit query. Nil/zero fields match everything.
type AuditFilter struct {
	Table   string
	Action  AuditAction
	ActorID string
	From    *time.Time
	To      *time.Time

	// Cursor is the last-seen entry ID from the previous page; zero starts
	// from the beginning. Pagination is restartable: the cursor stays valid
	// because entries are never deleted.
	Cursor int64
	Limit  int
}

// AuditPage is one bounded slice of the stream plus the cursor for the next.
type AuditPage struct {
	Entries    []AuditEntry
	NextCursor int64 // zero when the stream is exhausted
}
