package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/custody-ledger/ledger"
	"github.com/warp/custody-ledger/ledger/store"
)

var dropAt = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

func TestMemory_AppendDrop_RejectsReusedReceipt(t *testing.T) {
	// GIVEN: A recorded drop
	mem := store.NewMemory()
	ctx := context.Background()
	first := ledger.SafeDrop{
		ReceiptNumber: "DROP-001",
		ActorID:       "cashier-1",
		Amount:        ledger.Cents(15000),
		Timestamp:     dropAt,
		Confirmed:     true,
	}
	require.NoError(t, mem.AppendDrop(ctx, first))

	// WHEN: A second drop reuses the receipt number
	second := first
	second.Amount = ledger.Cents(2500)
	second.Timestamp = dropAt.Add(time.Hour)
	err := mem.AppendDrop(ctx, second)

	// THEN: It is rejected, matching the primary key in the SQL stores,
	// and the stream still holds only the original fact
	require.ErrorIs(t, err, ledger.ErrValidation)

	drops, err := mem.ConfirmedDrops(ctx)
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, "150.00", drops[0].Amount.String())
}

func TestMemory_AppendDrop_DistinctReceiptsAccepted(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	for i, receipt := range []string{"DROP-001", "DROP-002", "DROP-003"} {
		d := ledger.SafeDrop{
			ReceiptNumber: receipt,
			ActorID:       "cashier-1",
			Amount:        ledger.Cents(1000),
			Timestamp:     dropAt.Add(time.Duration(i) * time.Minute),
			Confirmed:     true,
		}
		require.NoError(t, mem.AppendDrop(ctx, d))
	}

	drops, err := mem.ConfirmedDrops(ctx)
	require.NoError(t, err)
	assert.Len(t, drops, 3)
}
