package booking

import (
	"context"
	"time"

	"github.com/parkview-commons/rental-booking-backend/internal/item"
)

// Ledger reports how many units of an item are already committed during an
// interval. Implemented by the booking repository; read-only.
type Ledger interface {
	// CommittedQuantity sums Quantity over bookings of itemID whose
	// [start_time, end_time) overlaps [start, end) and whose status is in
	// statuses. excludeBookingID, when non-empty, removes one booking from
	// the sum so that edits do not collide with themselves.
	CommittedQuantity(ctx context.Context, itemID string, start, end time.Time, statuses []Status, excludeBookingID string) (int, error)
}

const (
	// MaxUserSpanDays caps ordinary residents at "today plus the
	// following day".
	MaxUserSpanDays = 2
	// MaxTeamSpanDays gives the rental team room for block scheduling.
	MaxTeamSpanDays = 14
)

// PolicyRequest carries everything Validate needs to judge one candidate
// reservation.
type PolicyRequest struct {
	Item      *item.Item
	Start     time.Time
	End       time.Time
	Quantity  int
	TeamActor bool
	// ExcludeBookingID removes the booking itself from the capacity sum
	// when re-validating an edit.
	ExcludeBookingID string
}

// Policy holds the pure booking validation rules. The rules run in a fixed
// order and stop at the first failure; only the capacity rule touches
// storage, through the Ledger.
type Policy struct {
	now func() time.Time
}

func NewPolicy() *Policy {
	return &Policy{now: time.Now}
}

// Validate applies the booking rules to one candidate reservation.
func (p *Policy) Validate(ctx context.Context, ledger Ledger, req PolicyRequest) error {
	if req.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if !req.End.After(req.Start) {
		return ErrInvalidTimeRange
	}
	if req.Start.Before(p.now().UTC()) {
		return ErrStartTimePast
	}
	if !req.Item.Active {
		return item.ErrInactive
	}

	limit := MaxUserSpanDays
	if req.TeamActor {
		limit = MaxTeamSpanDays
	}
	if spanDays(req.Start, req.End) > limit {
		return ErrRangeTooLong
	}

	committed, err := ledger.CommittedQuantity(ctx, req.Item.ID, req.Start, req.End, CommittedStatuses, req.ExcludeBookingID)
	if err != nil {
		return err
	}
	if committed+req.Quantity > req.Item.TotalQuantity {
		return ErrInsufficientAvailability
	}

	return nil
}

// spanDays measures a booking span in whole days, rounding any partial day
// up. The same rule applies on create and on edit: exactly 48h passes for a
// resident, one second more does not.
func spanDays(start, end time.Time) int {
	d := end.Sub(start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
