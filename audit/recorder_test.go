package audit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/custody-ledger/audit"
	"github.com/warp/custody-ledger/ledger"
	"github.com/warp/custody-ledger/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var changedAt = time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC)

func newTestAudit(t *testing.T) (*audit.Recorder, *audit.Log, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	rec := audit.NewRecorder(mem, ledger.FixedClock{At: changedAt})
	return rec, audit.NewLog(mem), mem
}

// =============================================================================
// RECORDER TESTS
// =============================================================================

func TestRecorder_Insert_SnapshotsNewValue(t *testing.T) {
	// GIVEN: A fact value
	// WHEN: Recording its insert
	// THEN: The entry carries a JSON snapshot, no old value, and the
	//       recorder's clock time

	rec, log, _ := newTestAudit(t)
	ctx := context.Background()

	type fact struct {
		Amount string `json:"amount"`
	}
	require.NoError(t, rec.Insert(ctx, "safe_drops", "DROP-1", "cashier-1", fact{Amount: "50.00"}))

	page, err := log.Query(ctx, ledger.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)

	e := page.Entries[0]
	assert.Equal(t, "safe_drops", e.Table)
	assert.Equal(t, "DROP-1", e.RecordID)
	assert.Equal(t, ledger.AuditInsert, e.Action)
	assert.Equal(t, "cashier-1", e.ActorID)
	assert.Empty(t, e.OldValue)
	assert.True(t, e.ChangedAt.Equal(changedAt))

	var got fact
	require.NoError(t, json.Unmarshal([]byte(e.NewValue), &got))
	assert.Equal(t, "50.00", got.Amount)
}

func TestRecorder_Update_CarriesBothSnapshots(t *testing.T) {
	// GIVEN: An old and a new record state
	// WHEN: Recording the update
	// THEN: Both snapshots land on the entry

	rec, log, _ := newTestAudit(t)
	ctx := context.Background()

	require.NoError(t, rec.Update(ctx, "shifts", "sh-1", "mgr-1",
		map[string]string{"state": "open"}, map[string]string{"state": "closed"}))

	page, err := log.Query(ctx, ledger.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, ledger.AuditUpdate, page.Entries[0].Action)
	assert.JSONEq(t, `{"state":"open"}`, page.Entries[0].OldValue)
	assert.JSONEq(t, `{"state":"closed"}`, page.Entries[0].NewValue)
}

// =============================================================================
// QUERY TESTS
// =============================================================================

func seedEntries(t *testing.T, rec *audit.Recorder, n int, table string) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, rec.Insert(context.Background(), table, fmt.Sprintf("rec-%03d", i), "actor-1", nil))
	}
}

func TestLog_Query_FiltersByTableAndAction(t *testing.T) {
	// GIVEN: Entries across two tables with mixed actions
	// WHEN: Querying by table, then by action
	// THEN: Only matching entries return

	rec, log, _ := newTestAudit(t)
	ctx := context.Background()

	require.NoError(t, rec.Insert(ctx, "safe_drops", "d-1", "cashier-1", nil))
	require.NoError(t, rec.Insert(ctx, "withdrawals", "w-1", "mgr-1", nil))
	require.NoError(t, rec.Update(ctx, "shifts", "sh-1", "mgr-1", nil, nil))

	page, err := log.Query(ctx, ledger.AuditFilter{Table: "withdrawals"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "w-1", page.Entries[0].RecordID)

	page, err = log.Query(ctx, ledger.AuditFilter{Action: ledger.AuditUpdate})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "shifts", page.Entries[0].Table)
}

func TestLog_Query_FiltersByActor(t *testing.T) {
	// GIVEN: Entries from two actors
	// WHEN: Filtering by one
	// THEN: Only that actor's entries return

	rec, log, _ := newTestAudit(t)
	ctx := context.Background()

	require.NoError(t, rec.Insert(ctx, "safe_drops", "d-1", "cashier-1", nil))
	require.NoError(t, rec.Insert(ctx, "safe_drops", "d-2", "cashier-2", nil))

	page, err := log.Query(ctx, ledger.AuditFilter{ActorID: "cashier-2"})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "d-2", page.Entries[0].RecordID)
}

func TestLog_Query_CursorWalksWholeStream(t *testing.T) {
	// GIVEN: 7 entries and a page size of 3
	// WHEN: Following NextCursor until it is zero
	// THEN: Every entry appears exactly once, in id order

	rec, log, _ := newTestAudit(t)
	ctx := context.Background()
	seedEntries(t, rec, 7, "safe_drops")

	var seen []int64
	filter := ledger.AuditFilter{Limit: 3}
	for {
		page, err := log.Query(ctx, filter)
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Entries), 3)
		for _, e := range page.Entries {
			seen = append(seen, e.ID)
		}
		if page.NextCursor == 0 {
			break
		}
		filter.Cursor = page.NextCursor
	}

	require.Len(t, seen, 7)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestLog_Query_NoCursorOnFinalPage(t *testing.T) {
	// GIVEN: Exactly as many entries as the limit
	// WHEN: Querying one page
	// THEN: NextCursor is zero - no phantom next page

	rec, log, _ := newTestAudit(t)
	seedEntries(t, rec, 3, "safe_drops")

	page, err := log.Query(context.Background(), ledger.AuditFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	assert.Zero(t, page.NextCursor)
}

func TestLog_Query_RejectsInvertedTimeRange(t *testing.T) {
	// GIVEN: From after To
	// WHEN: Querying
	// THEN: Validation error

	_, log, _ := newTestAudit(t)
	from := changedAt
	to := changedAt.Add(-time.Hour)
	_, err := log.Query(context.Background(), ledger.AuditFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestLog_Query_TimeRange(t *testing.T) {
	// GIVEN: Entries recorded at two distinct times
	// WHEN: Querying a window covering only the later one
	// THEN: The earlier entry is excluded

	mem := store.NewMemory()
	log := audit.NewLog(mem)
	ctx := context.Background()

	early := audit.NewRecorder(mem, ledger.FixedClock{At: changedAt})
	require.NoError(t, early.Insert(ctx, "safe_drops", "d-1", "cashier-1", nil))
	late := audit.NewRecorder(mem, ledger.FixedClock{At: changedAt.Add(2 * time.Hour)})
	require.NoError(t, late.Insert(ctx, "safe_drops", "d-2", "cashier-1", nil))

	from := changedAt.Add(time.Hour)
	page, err := log.Query(ctx, ledger.AuditFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "d-2", page.Entries[0].RecordID)
}
