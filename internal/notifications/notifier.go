package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motorhub/internal/events"
	"motorhub/pkg/docstore"
	"motorhub/pkg/kafka"
	"motorhub/pkg/logger"
	"motorhub/pkg/model"

	"github.com/google/uuid"
)

// Notifier consumes events and writes one notification per recipient.
type Notifier struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

func NewNotifier(repo Repository, log *logger.Logger) *Notifier {
	return &Notifier{repo: repo, log: log, now: time.Now}
}

// Handle is a kafka.MessageHandler. Redelivered events do not duplicate
// notifications.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	e, err := events.Decode(msg)
	if err != nil {
		return err
	}

	text, ok := Message(e)
	if !ok {
		return nil
	}
	eventID := msg.GetEventID()
	if eventID == "" {
		eventID = fmt.Sprintf("%s:%s:%d", e.Type, e.RecordID, e.OccurredAt.UnixNano())
	}
	createdAt := e.OccurredAt
	if createdAt.IsZero() {
		createdAt = n.now().UTC()
	}

	for _, userID := range e.Recipients {
		note := &model.Notification{
			ID:        notificationID(eventID, userID),
			UserID:    userID,
			Kind:      e.Type,
			Message:   text,
			RecordID:  e.RecordID,
			CreatedAt: createdAt,
		}
		added, err := n.repo.Add(ctx, note)
		if err != nil {
			if errors.Is(err, docstore.ErrUnavailable) {
				return kafka.NewTransientError("notification store unavailable", err)
			}
			return fmt.Errorf("failed to store notification: %w", err)
		}
		if added {
			n.log.Debug("Notification stored", "user_id", userID, "kind", e.Type, "record_id", e.RecordID)
		}
	}
	return nil
}

// Message is the user-facing text for an event. Events nobody needs to hear
// about return false.
func Message(e events.Event) (string, bool) {
	switch e.Type {
	case events.JobAccepted:
		return "A technician accepted your job", true
	case events.JobReleased:
		return "Your job is open again, the technician released it", true
	case events.JobStatusChanged:
		return fmt.Sprintf("Your job is now %s", e.Status), true
	case events.BookingCreated:
		return "You have a new booking", true
	case events.BookingUpdated:
		return "A booking was updated", true
	case events.BookingStatusChanged:
		return fmt.Sprintf("Your booking is now %s", e.Status), true
	case events.RecordDegraded:
		if e.Notice != "" {
			return e.Notice, true
		}
		return "Saved offline, will sync later", true
	default:
		return "", false
	}
}

func notificationID(eventID, userID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(eventID+"/"+userID)).String()
}
