package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/custody-ledger/ledger"
)

func TestMoney_LongStreamSumsExactly(t *testing.T) {
	// GIVEN: A thousand 0.10 drops
	// WHEN: Replayed into a total
	// THEN: Exactly 100.00 - the drift float64 would accumulate

	total := ledger.Zero()
	dime := ledger.Cents(10)
	for i := 0; i < 1000; i++ {
		total = total.Add(dime)
	}
	assert.Equal(t, "100.00", total.String())
	assert.True(t, total.Equal(ledger.Cents(10000)))
}

func TestMoney_JSONIsQuotedString(t *testing.T) {
	// GIVEN: A Money value
	// WHEN: Marshalled and unmarshalled
	// THEN: The wire form is a quoted decimal string, never a number

	m, err := ledger.ParseMoney("1234.5")
	require.NoError(t, err)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"1234.50"`, string(b))

	var back ledger.Money
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, m.Equal(back))
}

func TestMoney_Round2HalfUp(t *testing.T) {
	// GIVEN: A derived value with sub-cent precision
	// WHEN: Rounded at persistence
	// THEN: Cents, half away from zero

	m, err := ledger.ParseMoney("10.005")
	require.NoError(t, err)
	assert.Equal(t, "10.01", m.Round2().String())
}

func TestParseMoney_RejectsGarbage(t *testing.T) {
	_, err := ledger.ParseMoney("12.3.4")
	assert.Error(t, err)
}

func TestDayWindow_HalfOpen(t *testing.T) {
	// GIVEN: An afternoon instant
	// WHEN: Its day window is computed
	// THEN: [midnight, next midnight); the upper bound is excluded

	at := time.Date(2024, time.January, 10, 14, 30, 0, 0, time.UTC)
	from, to := ledger.DayWindow(at)

	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), from)
	assert.True(t, ledger.InWindow(at, from, to))
	assert.True(t, ledger.InWindow(from, from, to))
	assert.False(t, ledger.InWindow(to, from, to))
}

func TestDayWindow_NormalizesZones(t *testing.T) {
	// GIVEN: The same instant expressed in a non-UTC zone
	// WHEN: Windowed
	// THEN: Bounds are the UTC day's

	zone := time.FixedZone("plus5", 5*3600)
	local := time.Date(2024, time.January, 11, 2, 0, 0, 0, zone) // Jan 10 21:00 UTC
	from, _ := ledger.DayWindow(local)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), from)
}

func TestWeekWindow_CoversInclusiveEndDate(t *testing.T) {
	// GIVEN: A Monday-Sunday payroll week
	// WHEN: Windowed
	// THEN: Sunday's last instant is inside, next Monday midnight is not

	weekStart := time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 6)
	from, to := ledger.WeekWindow(weekStart, weekEnd)

	sundayNight := weekEnd.Add(23*time.Hour + 59*time.Minute)
	assert.True(t, ledger.InWindow(sundayNight, from, to))
	assert.False(t, ledger.InWindow(weekEnd.AddDate(0, 0, 1), from, to))
}

func TestTimeEntry_OpenEntryHasZeroHours(t *testing.T) {
	te := ledger.TimeEntry{
		ID:         "te-1",
		EmployeeID: "emp-1",
		ClockIn:    time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC),
	}
	assert.Zero(t, te.Hours())

	out := te.ClockIn.Add(7*time.Hour + 30*time.Minute)
	te.ClockOut = &out
	assert.InDelta(t, 7.5, te.Hours(), 1e-9)
}

func TestReceiptNumber_DistinctWithinSameNanosecond(t *testing.T) {
	// GIVEN: Many receipts stamped at the exact same instant
	at := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)

	// WHEN: Generated back to back
	for i := 0; i < 1000; i++ {
		r := ledger.ReceiptNumber("DROP", at)
		// THEN: No two collide
		require.False(t, seen[r], "receipt %s issued twice", r)
		seen[r] = true
	}
}
