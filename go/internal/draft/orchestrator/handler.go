package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

// HandleDomainEvent keeps the draft's timer in line with an event.
func (o *Orchestrator) HandleDomainEvent(ctx context.Context, env events.Envelope) error {
	draftID, err := uuid.Parse(env.DraftID)
	if err != nil {
		return fmt.Errorf("parse draft ID: %w", err)
	}

	log.Debug().
		Str("event_type", string(env.EventType)).
		Str("draft_id", env.DraftID).
		Msg("handling domain event")

	switch env.EventType {
	case events.EventTypePickStarted, events.EventTypeDraftResumed,
		events.EventTypeDraftPaused, events.EventTypeDraftCompleted:
	default:
		// DraftStarted and PickMade are always followed by a PickStarted or DraftCompleted.
		return nil
	}

	payload, err := env.Decode()
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case *events.PickStartedPayload:
		if p.TimeoutAt == nil {
			o.cancelTimer(draftID)
			return nil
		}
		o.scheduleAt(draftID, *p.TimeoutAt)

	case *events.DraftResumedPayload:
		if p.TimeoutAt == nil {
			return nil
		}
		o.scheduleAt(draftID, *p.TimeoutAt)

	case *events.DraftPausedPayload:
		log.Info().Str("draft_id", draftID.String()).Str("reason", p.Reason).Msg("draft paused - cancelling timer")
		o.cancelTimer(draftID)

	case *events.DraftCompletedPayload:
		log.Info().Str("draft_id", draftID.String()).Int("total_picks", p.TotalPicks).Msg("draft completed - cancelling timer")
		o.cancelTimer(draftID)
	}
	return nil
}

// Publish lets the outbox relay feed events straight in when no bus runs.
func (o *Orchestrator) Publish(ctx context.Context, event events.OutboxEvent) error {
	return o.HandleDomainEvent(ctx, events.NewEnvelope(event, o.clock.Now()))
}
