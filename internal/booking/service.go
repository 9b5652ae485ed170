package booking

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parkview-commons/rental-booking-backend/internal/item"
	"github.com/parkview-commons/rental-booking-backend/internal/metrics"
	"github.com/parkview-commons/rental-booking-backend/internal/notify"
	"github.com/parkview-commons/rental-booking-backend/internal/pkg/apperror"
	"github.com/parkview-commons/rental-booking-backend/internal/user"
)

type CreateRequest struct {
	ItemID      string
	RequesterID string
	Quantity    int
	StartTime   time.Time
	EndTime     time.Time
	Note        string
}

type UpdateRequest struct {
	StartTime *time.Time
	EndTime   *time.Time
	Quantity  *int
	Note      string
}

type BlockRequest struct {
	ItemID    string
	ActorID   string
	StartTime time.Time
	EndTime   time.Time
	// Quantity of units to block out; zero means the item's full quantity.
	Quantity   int
	Reason     string
	Recurrence Recurrence
}

type BlockResult struct {
	// Item is the blocked item, present even when every candidate was
	// skipped.
	Item    *item.Item
	Created []*Booking
	Skipped int
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// UserUpdate lets the requester edit their own booking while it is
	// still REQUESTED or ACCEPTED. The edit is re-validated and the
	// booking drops back to REQUESTED for re-approval.
	UserUpdate(ctx context.Context, id string, req UpdateRequest, actorID string) (*Booking, error)

	// Cancel withdraws a REQUESTED or ACCEPTED booking. Allowed for the
	// owner and for team members.
	Cancel(ctx context.Context, id string, actorID string) (*Booking, error)

	// Transition moves a booking along the state machine on behalf of a
	// rental-team member. Declines require a reason note.
	Transition(ctx context.Context, id string, actorID string, target Status, note string) (*Booking, error)

	// Block creates administrative block bookings for every
	// non-conflicting occurrence of the recurrence and counts the rest.
	Block(ctx context.Context, req BlockRequest) (*BlockResult, error)

	// Availability returns the active bookings of an item overlapping
	// [from, to), for calendar rendering.
	Availability(ctx context.Context, itemID string, from, to time.Time) ([]*Booking, error)
}

type service struct {
	repo     Repository
	items    item.Service
	users    user.Service
	policy   *Policy
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, items item.Service, users user.Service, notifier notify.Notifier, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		items:    items,
		users:    users,
		policy:   NewPolicy(),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// actorFor resolves the acting user into a state-machine actor through the
// single role capability predicate.
func (s *service) actorFor(ctx context.Context, actorID string) (Actor, error) {
	role, err := s.users.RoleOf(ctx, actorID)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: actorID, Team: role.TeamCapable()}, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	it, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	actor, err := s.actorFor(ctx, req.RequesterID)
	if err != nil {
		return nil, err
	}

	var created *Booking
	err = s.repo.InTx(ctx, func(r Repository) error {
		// The item row lock serializes the capacity check against
		// concurrent creates for the same item.
		if err := r.LockItem(ctx, it.ID); err != nil {
			return err
		}

		if err := s.policy.Validate(ctx, r, PolicyRequest{
			Item:      it,
			Start:     req.StartTime,
			End:       req.EndTime,
			Quantity:  req.Quantity,
			TeamActor: actor.Team,
		}); err != nil {
			return err
		}

		b := &Booking{
			ItemID:      it.ID,
			ItemName:    it.Name,
			RequesterID: req.RequesterID,
			Quantity:    req.Quantity,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Status:      StatusRequested,
		}
		if err := r.Create(ctx, b); err != nil {
			return err
		}

		if note := strings.TrimSpace(req.Note); note != "" {
			n := &Note{BookingID: b.ID, AuthorID: req.RequesterID, Body: note}
			if err := r.AppendNote(ctx, n); err != nil {
				return err
			}
			b.Notes = append(b.Notes, *n)
		}

		created = b
		return nil
	})
	if err != nil {
		countRejection(err)
		return nil, err
	}

	metrics.BookingsTotal.WithLabelValues(string(StatusRequested)).Inc()
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := s.repo.ListNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Notes = notes
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) UserUpdate(ctx context.Context, id string, req UpdateRequest, actorID string) (*Booking, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.RequesterID != actorID {
		return nil, ErrPermissionDenied
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	it, err := s.items.GetByID(ctx, existing.ItemID)
	if err != nil {
		return nil, err
	}

	var updated *Booking
	err = s.repo.InTx(ctx, func(r Repository) error {
		if err := r.LockItem(ctx, it.ID); err != nil {
			return err
		}

		// Fresh read under the item lock.
		b, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusRequested && b.Status != StatusAccepted {
			return ErrNotEditable
		}

		if req.StartTime != nil {
			b.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			b.EndTime = *req.EndTime
		}
		if req.Quantity != nil {
			b.Quantity = *req.Quantity
		}

		if err := s.policy.Validate(ctx, r, PolicyRequest{
			Item:             it,
			Start:            b.StartTime,
			End:              b.EndTime,
			Quantity:         b.Quantity,
			TeamActor:        actor.Team,
			ExcludeBookingID: b.ID,
		}); err != nil {
			return err
		}

		// Editing an accepted booking sends it back for re-approval.
		b.Status = StatusRequested

		if err := r.Update(ctx, b); err != nil {
			return err
		}

		if note := strings.TrimSpace(req.Note); note != "" {
			n := &Note{BookingID: b.ID, AuthorID: actorID, Body: note}
			if err := r.AppendNote(ctx, n); err != nil {
				return err
			}
		}

		updated = b
		return nil
	})
	if err != nil {
		countRejection(err)
		return nil, err
	}

	return s.GetByID(ctx, updated.ID)
}

func (s *service) Cancel(ctx context.Context, id string, actorID string) (*Booking, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Team && actor.ID != existing.RequesterID {
		return nil, ErrPermissionDenied
	}

	var cancelled *Booking
	err = s.repo.InTx(ctx, func(r Repository) error {
		if err := r.LockItem(ctx, existing.ItemID); err != nil {
			return err
		}

		b, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusRequested && b.Status != StatusAccepted {
			return ErrNotCancellable
		}

		if err := CanTransition(b, StatusCancelled, actor, s.now().UTC()); err != nil {
			return err
		}

		b.Status = StatusCancelled
		if err := r.Update(ctx, b); err != nil {
			return err
		}

		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingsTotal.WithLabelValues(string(StatusCancelled)).Inc()
	s.notifyStatusChange(ctx, cancelled, "")
	return cancelled, nil
}

func (s *service) Transition(ctx context.Context, id string, actorID string, target Status, note string) (*Booking, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Team {
		return nil, ErrPermissionDenied
	}

	note = strings.TrimSpace(note)
	if target == StatusDeclined && note == "" {
		return nil, ErrDeclineReasonRequired
	}

	var transitioned *Booking
	err = s.repo.InTx(ctx, func(r Repository) error {
		if err := r.LockItem(ctx, existing.ItemID); err != nil {
			return err
		}

		b, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := CanTransition(b, target, actor, s.now().UTC()); err != nil {
			return err
		}

		// The first hand-over records who took custody.
		if target == StatusBorrowed && b.AssignedToID == nil {
			b.AssignedToID = &actor.ID
		}

		b.Status = target
		if err := r.Update(ctx, b); err != nil {
			return err
		}

		if note != "" {
			n := &Note{BookingID: b.ID, AuthorID: actorID, Body: note}
			if err := r.AppendNote(ctx, n); err != nil {
				return err
			}
		}

		transitioned = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingsTotal.WithLabelValues(string(target)).Inc()
	s.notifyStatusChange(ctx, transitioned, note)
	return transitioned, nil
}

func (s *service) Block(ctx context.Context, req BlockRequest) (*BlockResult, error) {
	actor, err := s.actorFor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.Team {
		return nil, ErrPermissionDenied
	}

	it, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	if !req.Recurrence.Frequency.Valid() {
		return nil, ErrInvalidRecurrence
	}

	qty := req.Quantity
	if qty <= 0 {
		qty = it.TotalQuantity
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "maintenance"
	}
	noteBody := BlockNotePrefix + reason

	result := &BlockResult{Item: it}

	// Candidates run sequentially, one transaction each, so every capacity
	// check observes the blocks created earlier in the same series.
	for _, iv := range Occurrences(req.StartTime, req.EndTime, req.Recurrence) {
		var b *Booking
		err := s.repo.InTx(ctx, func(r Repository) error {
			if err := r.LockItem(ctx, it.ID); err != nil {
				return err
			}

			if err := s.policy.Validate(ctx, r, PolicyRequest{
				Item:      it,
				Start:     iv.Start,
				End:       iv.End,
				Quantity:  qty,
				TeamActor: true,
			}); err != nil {
				return err
			}

			// Blocks commit inventory immediately; a block waiting for
			// approval would not remove availability.
			b = &Booking{
				ItemID:      it.ID,
				ItemName:    it.Name,
				RequesterID: req.ActorID,
				Quantity:    qty,
				StartTime:   iv.Start,
				EndTime:     iv.End,
				Status:      StatusAccepted,
			}
			if err := r.Create(ctx, b); err != nil {
				return err
			}

			n := &Note{BookingID: b.ID, AuthorID: req.ActorID, Body: noteBody}
			if err := r.AppendNote(ctx, n); err != nil {
				return err
			}
			b.Notes = append(b.Notes, *n)
			return nil
		})
		if err != nil {
			if isSkippable(err) {
				result.Skipped++
				metrics.BlockOccurrencesTotal.WithLabelValues("skipped").Inc()
				continue
			}
			return nil, err
		}

		result.Created = append(result.Created, b)
		metrics.BlockOccurrencesTotal.WithLabelValues("created").Inc()
	}

	s.logger.Info("block expansion finished",
		zap.String("item_id", it.ID),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *service) Availability(ctx context.Context, itemID string, from, to time.Time) ([]*Booking, error) {
	if !to.After(from) {
		return nil, ErrInvalidTimeRange
	}
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	bookings, _, err := s.repo.List(ctx, Filter{
		ItemID:    itemID,
		Statuses:  ActiveStatuses,
		From:      &from,
		To:        &to,
		PageSize:  500,
		SortBy:    "start_time",
		SortOrder: "ASC",
	})
	return bookings, err
}

// notifyStatusChange tells the owner and the assignee about a status change.
// Failures are logged and suppressed; they never fail the operation.
func (s *service) notifyStatusChange(ctx context.Context, b *Booking, note string) {
	recipients := []string{b.RequesterID}
	if b.AssignedToID != nil && *b.AssignedToID != b.RequesterID {
		recipients = append(recipients, *b.AssignedToID)
	}

	ev := notify.Event{
		BookingID:  b.ID,
		ItemName:   b.ItemName,
		Status:     string(b.Status),
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Note:       note,
		Recipients: recipients,
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("failed to send booking notification",
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
		return
	}
	metrics.NotificationsTotal.WithLabelValues("ok").Inc()
}

// isSkippable classifies a per-candidate failure during block expansion:
// validation and capacity rejections count as skips, anything else aborts
// the whole series.
func isSkippable(err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == http.StatusBadRequest || appErr.Code == http.StatusConflict
}

func countRejection(err error) {
	switch {
	case errors.Is(err, ErrInsufficientAvailability):
		metrics.BookingRejectionsTotal.WithLabelValues("capacity").Inc()
	case errors.Is(err, ErrRangeTooLong):
		metrics.BookingRejectionsTotal.WithLabelValues("range").Inc()
	case errors.Is(err, ErrStartTimePast), errors.Is(err, ErrInvalidTimeRange):
		metrics.BookingRejectionsTotal.WithLabelValues("interval").Inc()
	}
}
