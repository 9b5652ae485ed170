package booking

import "time"

// Actor captures who is attempting an operation on a booking.
type Actor struct {
	ID string
	// Team is true for rental-team members and admins.
	Team bool
}

type gate int

const (
	teamOnly gate = iota
	ownerOrTeam
)

type edge struct {
	from, to Status
}

// transitions is the complete booking state machine. Anything not listed
// here is illegal. The owner-update path (REQUESTED/ACCEPTED back to
// REQUESTED) is not a transition; it goes through UserUpdate.
var transitions = map[edge]gate{
	{StatusRequested, StatusAccepted}:  teamOnly,
	{StatusRequested, StatusDeclined}:  teamOnly,
	{StatusRequested, StatusCancelled}: ownerOrTeam,
	{StatusAccepted, StatusBorrowed}:   teamOnly,
	{StatusAccepted, StatusCancelled}:  ownerOrTeam,
	{StatusBorrowed, StatusCompleted}:  teamOnly,
	{StatusBorrowed, StatusCancelled}:  teamOnly,
}

// CanTransition checks whether actor may move b to target at instant now.
// It returns nil if the edge exists and the actor clears its gate, otherwise
// the error describing why the transition is rejected.
func CanTransition(b *Booking, target Status, actor Actor, now time.Time) error {
	if !target.Valid() {
		return ErrInvalidStatus
	}

	g, ok := transitions[edge{b.Status, target}]
	if !ok {
		return illegalTransition(b.Status, target)
	}

	switch g {
	case teamOnly:
		if !actor.Team {
			return ErrPermissionDenied
		}
	case ownerOrTeam:
		if !actor.Team && actor.ID != b.RequesterID {
			return ErrPermissionDenied
		}
	}

	// A booking cannot be completed before it begins.
	if target == StatusCompleted && now.Before(b.StartTime) {
		return ErrNotYetStarted
	}

	return nil
}
