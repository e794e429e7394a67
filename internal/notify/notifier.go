// Package notify turns reservation lifecycle events into member notifications.
// Delivery itself (mail, push) belongs to whoever consumes the notifications topic.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/kafka"
	"github.com/Domenick1991/aeroclub/internal/logging"
)

const (
	KindDeferred  = "deferred"
	KindRegressed = "regressed"
	KindPreempted = "preempted"
)

type Notification struct {
	MemberID      string    `json:"member_id"`
	DisplayName   string    `json:"display_name,omitempty"`
	Kind          string    `json:"kind"`
	ReservationID string    `json:"reservation_id"`
	ResourceID    string    `json:"resource_id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Message       string    `json:"message"`
}

type Directory interface {
	GetByID(ctx context.Context, id string) (*domain.Member, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type Notifier struct {
	members   Directory
	publisher Publisher
	topic     string
}

func NewNotifier(members Directory, publisher Publisher, topic string) *Notifier {
	return &Notifier{members: members, publisher: publisher, topic: topic}
}

// Handle is a kafka.Consumer handler. Events that carry nothing the requester
// must act on are ignored.
func (n *Notifier) Handle(ctx context.Context, event kafka.ReservationEvent) error {
	notification, ok := build(event)
	if !ok {
		return nil
	}

	if n.members != nil {
		member, err := n.members.GetByID(ctx, event.RequesterID)
		switch {
		case err == nil:
			notification.DisplayName = member.DisplayName
		case errors.Is(err, domain.ErrNotFound):
		default:
			return fmt.Errorf("lookup member %s: %w", event.RequesterID, err)
		}
	}

	logging.FromContext(ctx).Info().
		Str("member_id", notification.MemberID).
		Str("kind", notification.Kind).
		Str("reservation_id", notification.ReservationID).
		Msg(notification.Message)

	if n.publisher == nil || n.topic == "" {
		return nil
	}
	return n.publisher.Publish(ctx, n.topic, notification.MemberID, notification)
}

func build(event kafka.ReservationEvent) (Notification, bool) {
	var kind, message string
	window := fmt.Sprintf("%s on %s from %s to %s", event.ReservationID, event.ResourceID,
		event.StartsAt.Format(time.RFC3339), event.EndsAt.Format(time.RFC3339))

	switch {
	case event.Type == kafka.EventReservationDemoted:
		kind = KindPreempted
		message = fmt.Sprintf("reservation %s was deferred by priority reservation %s", window, event.PreemptedBy)
	case event.Advisory == string(domain.AdvisoryRegressed):
		kind = KindRegressed
		message = fmt.Sprintf("reservation %s now overlaps a confirmed one and was deferred", window)
	case event.Advisory == string(domain.AdvisoryDeferred):
		kind = KindDeferred
		message = fmt.Sprintf("reservation %s is recorded but deferred behind a confirmed one", window)
	default:
		return Notification{}, false
	}

	return Notification{
		MemberID:      event.RequesterID,
		Kind:          kind,
		ReservationID: event.ReservationID,
		ResourceID:    event.ResourceID,
		StartsAt:      event.StartsAt,
		EndsAt:        event.EndsAt,
		Message:       message,
	}, true
}
