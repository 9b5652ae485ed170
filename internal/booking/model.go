package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/parkview-commons/rental-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound                 = apperror.NotFound("booking not found")
	ErrItemNotFound             = apperror.NotFound("item not found")
	ErrInvalidTimeRange         = apperror.BadRequest("start time must be before end time")
	ErrStartTimePast            = apperror.BadRequest("cannot book a time in the past")
	ErrRangeTooLong             = apperror.BadRequest("booking range is too long")
	ErrInvalidQuantity          = apperror.BadRequest("quantity must be at least 1")
	ErrInsufficientAvailability = apperror.BadRequest("insufficient availability")
	ErrInvalidStatus            = apperror.BadRequest("invalid booking status")
	ErrPermissionDenied         = apperror.Forbidden("permission denied")
	ErrNotEditable              = apperror.BadRequest("only requested or accepted bookings can be edited")
	ErrNotCancellable           = apperror.BadRequest("only requested or accepted bookings can be cancelled")
	ErrNotYetStarted            = apperror.BadRequest("booking cannot be completed before it begins")
	ErrDeclineReasonRequired    = apperror.BadRequest("decline reason is required")
	ErrInvalidRecurrence        = apperror.BadRequest("invalid recurrence rule")
)

func illegalTransition(from, to Status) *apperror.AppError {
	return apperror.BadRequest(fmt.Sprintf("cannot change booking status from %s to %s", from, to))
}

// Status is the booking lifecycle state.
type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusBorrowed  Status = "borrowed"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
)

// CommittedStatuses is the default status set for capacity checks: only
// approved inventory counts against an item's total quantity. REQUESTED
// bookings are provisional and may still be declined.
var CommittedStatuses = []Status{StatusAccepted, StatusBorrowed}

// ActiveStatuses are the statuses shown on availability calendars.
var ActiveStatuses = []Status{StatusRequested, StatusAccepted, StatusBorrowed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusBorrowed,
		StatusCompleted, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// BlockNotePrefix tags the first annotation of an administrative block.
const BlockNotePrefix = "[block] "

// Booking is a reservation of Quantity units of one item for
// [StartTime, EndTime). Bookings are never deleted; terminal statuses are
// kept for history.
type Booking struct {
	ID            string
	ItemID        string
	ItemName      string
	RequesterID   string
	RequesterName string
	// AssignedToID is the rental-team member who took custody of the
	// booking. Set on the first BORROWED transition; never implies
	// ownership.
	AssignedToID *string
	Quantity     int
	StartTime    time.Time
	EndTime      time.Time
	Status       Status
	// LatestNote is the newest annotation body, loaded for list previews.
	LatestNote *string
	// Notes is the full append-only annotation log, loaded on detail reads.
	Notes     []Note
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBlock reports whether the booking is an administrative block, identified
// by the note-tagging convention. Only meaningful when notes are loaded.
func (b *Booking) IsBlock() bool {
	if len(b.Notes) > 0 {
		return strings.HasPrefix(b.Notes[0].Body, BlockNotePrefix)
	}
	return b.LatestNote != nil && strings.HasPrefix(*b.LatestNote, BlockNotePrefix)
}

// Note is a single timestamped annotation on a booking. The note log is
// append-only; entries are never edited or removed.
type Note struct {
	ID        string
	BookingID string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// Filter defines parameters for listing bookings.
type Filter struct {
	ItemID      string
	RequesterID string
	Statuses    []Status
	// From/To select bookings overlapping [From, To).
	From *time.Time
	To   *time.Time

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
