package outbox

import (
	"context"
	"errors"

	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

// LogPublisher only logs events. Used when no bus is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event events.OutboxEvent) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", string(event.EventType)).
		Str("draft_id", event.DraftID.String()).
		Msg("publishing event")
	return nil
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event events.OutboxEvent) error

func (f PublisherFunc) Publish(ctx context.Context, event events.OutboxEvent) error {
	return f(ctx, event)
}

// Fanout delivers each event to every publisher. It fails if any of them
// fails, so the relay retries the event for all of them.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event events.OutboxEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
