package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Event describes a booking status change worth telling someone about.
type Event struct {
	BookingID  string
	ItemName   string
	Status     string
	StartTime  time.Time
	EndTime    time.Time
	Note       string
	Recipients []string // user IDs
}

// Notifier is the notification collaborator. Calls are fire-and-forget from
// the booking engine's point of view: a failed notification never rolls back
// the status change that triggered it.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a Notifier that records one notification per recipient
// and logs the event. Actual delivery (email, push) is handled by downstream
// consumers of the notifications table.
func NewService(repo Repository, logger *zap.Logger) Notifier {
	return &service{repo: repo, logger: logger}
}

func (s *service) Notify(ctx context.Context, ev Event) error {
	body := fmt.Sprintf("%s: booking is now %s (%s - %s)",
		ev.ItemName, ev.Status,
		ev.StartTime.Format(time.RFC3339), ev.EndTime.Format(time.RFC3339))
	if ev.Note != "" {
		body += " - " + ev.Note
	}

	for _, recipient := range ev.Recipients {
		n := &Notification{
			BookingID:   ev.BookingID,
			RecipientID: recipient,
			Status:      ev.Status,
			Body:        body,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("record notification failed: %w", err)
		}
	}

	s.logger.Info("booking notification",
		zap.String("booking_id", ev.BookingID),
		zap.String("status", ev.Status),
		zap.Int("recipients", len(ev.Recipients)),
	)
	return nil
}
