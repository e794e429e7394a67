package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/logging"
	"github.com/segmentio/kafka-go"
)

const (
	EventReservationCreated   = "reservation_created"
	EventReservationUpdated   = "reservation_updated"
	EventReservationDemoted   = "reservation_demoted"
	EventReservationCancelled = "reservation_cancelled"
)

type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	ResourceID    string    `json:"resource_id"`
	RequesterID   string    `json:"requester_id"`
	ActorID       string    `json:"actor_id,omitempty"`
	Status        string    `json:"status"`
	Advisory      string    `json:"advisory,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	// PreemptedBy is set on demotion events.
	PreemptedBy string    `json:"preempted_by,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r domain.Reservation, actorID string, advisory domain.Advisory, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		ResourceID:    r.ResourceID,
		RequesterID:   r.RequesterID,
		ActorID:       actorID,
		Status:        string(r.Status),
		Advisory:      string(advisory),
		StartsAt:      r.Interval.Start,
		EndsAt:        r.Interval.End,
		OccurredAt:    at,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	brokers []string
	writer  messageWriter
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

// Publish keys messages by the given key so events for one aircraft stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	logging.FromContext(ctx).Debug().Str("topic", topic).Str("key", key).Msg("published event")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}
	return nil
}
