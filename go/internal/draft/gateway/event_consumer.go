package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/rs/zerolog/log"
)

// EventConsumer feeds domain events to WebSocket clients. It reads them
// from JetStream, or accepts them directly as an outbox publisher.
type EventConsumer struct {
	connectionManager *ConnectionManager
	now               func() time.Time
}

// NewEventConsumer creates an event consumer broadcasting through cm
func NewEventConsumer(cm *ConnectionManager) *EventConsumer {
	return &EventConsumer{connectionManager: cm, now: time.Now}
}

// Start consumes new events from the stream until ctx ends. Every gateway
// instance needs every event, so each one reads through its own ordered
// consumer instead of sharing a durable one.
func (ec *EventConsumer) Start(ctx context.Context, js jetstream.JetStream, cfg natsutil.Config) error {
	consumer, err := js.OrderedConsumer(ctx, cfg.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{cfg.SubjectPrefix + ".>"},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create ordered consumer: %w", err)
	}

	log.Info().
		Str("stream", cfg.StreamName).
		Str("subjects", cfg.SubjectPrefix+".>").
		Msg("starting JetStream event consumer")

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := ec.processMessage(msg.Data()); err != nil {
			log.Error().
				Err(err).
				Str("subject", msg.Subject()).
				Msg("failed to process message")
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	<-ctx.Done()
	log.Info().Msg("event consumer shutting down")
	return nil
}

func (ec *EventConsumer) processMessage(data []byte) error {
	var envelope events.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	return ec.broadcast(envelope)
}

// Publish broadcasts an outbox event without going through the bus.
func (ec *EventConsumer) Publish(ctx context.Context, event events.OutboxEvent) error {
	return ec.broadcast(events.NewEnvelope(event, ec.now()))
}

func (ec *EventConsumer) broadcast(envelope events.Envelope) error {
	draftID, wsEvent, err := FromEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("convert to WebSocket event: %w", err)
	}

	ec.connectionManager.BroadcastToDraft(draftID, wsEvent)

	log.Debug().
		Str("event_id", envelope.EventID).
		Str("draft_id", envelope.DraftID).
		Str("event_type", string(envelope.EventType)).
		Msg("event broadcasted to WebSocket clients")
	return nil
}
