package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkview-commons/rental-booking-backend/internal/item"
)

// stubLedger returns a fixed committed quantity and records the exclusion it
// was asked for.
type stubLedger struct {
	committed   int
	err         error
	gotExcluded string
}

func (s *stubLedger) CommittedQuantity(_ context.Context, _ string, _, _ time.Time, _ []Status, excludeBookingID string) (int, error) {
	s.gotExcluded = excludeBookingID
	return s.committed, s.err
}

func testPolicy(now time.Time) *Policy {
	p := NewPolicy()
	p.now = func() time.Time { return now }
	return p
}

func testItem(total int) *item.Item {
	return &item.Item{
		ID:            "item-1",
		Name:          "Community Hall",
		TotalQuantity: total,
		Active:        true,
	}
}

func TestPolicyValidate_Success(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)

	err := p.Validate(context.Background(), &stubLedger{committed: 0}, PolicyRequest{
		Item:     testItem(3),
		Start:    now.Add(1 * time.Hour),
		End:      now.Add(3 * time.Hour),
		Quantity: 1,
	})
	assert.NoError(t, err)
}

func TestPolicyValidate_QuantityTooLow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)

	err := p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:     testItem(3),
		Start:    now.Add(time.Hour),
		End:      now.Add(2 * time.Hour),
		Quantity: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPolicyValidate_InvalidTimeRange(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)

	// end == start
	err := p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:     testItem(3),
		Start:    now.Add(time.Hour),
		End:      now.Add(time.Hour),
		Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestPolicyValidate_StartInPast(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)

	err := p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:     testItem(3),
		Start:    now.Add(-time.Minute),
		End:      now.Add(time.Hour),
		Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrStartTimePast)
}

func TestPolicyValidate_InactiveItem(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)

	it := testItem(3)
	it.Active = false

	err := p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:     it,
		Start:    now.Add(time.Hour),
		End:      now.Add(2 * time.Hour),
		Quantity: 1,
	})
	assert.ErrorIs(t, err, item.ErrInactive)
}

func TestPolicyValidate_SpanCeilingResident(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)
	start := now.Add(time.Hour)

	// Exactly 48 hours is within the two-day resident ceiling.
	err := p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:     testItem(3),
		Start:    start,
		End:      start.Add(48 * time.Hour),
		Quantity: 1,
	})
	assert.NoError(t, err)

	// One second more rounds up to a third day.
	err = p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:     testItem(3),
		Start:    start,
		End:      start.Add(48*time.Hour + time.Second),
		Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrRangeTooLong)
}

func TestPolicyValidate_SpanCeilingTeam(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)
	start := now.Add(time.Hour)

	// A span illegal for residents is fine for the rental team.
	err := p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:      testItem(3),
		Start:     start,
		End:       start.Add(10 * 24 * time.Hour),
		Quantity:  1,
		TeamActor: true,
	})
	assert.NoError(t, err)

	err = p.Validate(context.Background(), &stubLedger{}, PolicyRequest{
		Item:      testItem(3),
		Start:     start,
		End:       start.Add(15 * 24 * time.Hour),
		Quantity:  1,
		TeamActor: true,
	})
	assert.ErrorIs(t, err, ErrRangeTooLong)
}

func TestPolicyValidate_InsufficientAvailability(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)

	// 2 of 3 units committed; asking for 2 more must fail, 1 must pass.
	ledger := &stubLedger{committed: 2}

	req := PolicyRequest{
		Item:     testItem(3),
		Start:    now.Add(time.Hour),
		End:      now.Add(3 * time.Hour),
		Quantity: 2,
	}
	err := p.Validate(context.Background(), ledger, req)
	assert.ErrorIs(t, err, ErrInsufficientAvailability)

	req.Quantity = 1
	assert.NoError(t, p.Validate(context.Background(), ledger, req))
}

func TestPolicyValidate_PassesExclusionToLedger(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testPolicy(now)
	ledger := &stubLedger{}

	err := p.Validate(context.Background(), ledger, PolicyRequest{
		Item:             testItem(3),
		Start:            now.Add(time.Hour),
		End:              now.Add(2 * time.Hour),
		Quantity:         1,
		ExcludeBookingID: "booking-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "booking-42", ledger.gotExcluded)
}

func TestSpanDays(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"two hours", 2 * time.Hour, 1},
		{"exactly one day", 24 * time.Hour, 1},
		{"one day and a second", 24*time.Hour + time.Second, 2},
		{"exactly two days", 48 * time.Hour, 2},
		{"two weeks", 14 * 24 * time.Hour, 14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, spanDays(start, start.Add(tc.d)))
		})
	}
}
