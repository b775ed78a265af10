package orchestrator

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

const (
	consumerName          = "draft-orchestrator"
	consumerMaxDeliver    = 5
	consumerAckWait       = 30 * time.Second
	consumerMaxAckPending = 100
)

// AttachJetStream makes Run consume draft events from the stream. Instances
// share one durable consumer. History is not replayed; Recover covers
// drafts that were live before the consumer existed.
func (o *Orchestrator) AttachJetStream(ctx context.Context, js jetstream.JetStream, cfg natsutil.Config) error {
	consumer, err := natsutil.EnsureConsumer(ctx, js, cfg, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		Description:   "Draft orchestrator event consumer",
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    consumerMaxDeliver,
		AckWait:       consumerAckWait,
		MaxAckPending: consumerMaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return err
	}
	o.consumer = consumer
	return nil
}

// processEvent processes a single JetStream event
func (o *Orchestrator) processEvent(ctx context.Context, msg jetstream.Msg) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	log.Debug().
		Str("subject", msg.Subject()).
		Str("event_id", env.EventID).
		Str("draft_id", env.DraftID).
		Str("event_type", string(env.EventType)).
		Msg("processing orchestrator event")

	return o.HandleDomainEvent(ctx, env)
}
