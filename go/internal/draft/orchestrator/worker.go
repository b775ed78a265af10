package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/rs/zerolog/log"
)

// enqueue hands a draft to the worker pool unless it is already queued or running.
func (o *Orchestrator) enqueue(draftID uuid.UUID) {
	o.inFlightMu.Lock()
	if o.inFlight[draftID] {
		o.inFlightMu.Unlock()
		log.Debug().Str("draft_id", draftID.String()).Str("instance", o.instanceID).Msg("skipping draft already in flight")
		return
	}
	o.inFlight[draftID] = true
	o.inFlightMu.Unlock()

	select {
	case o.workCh <- draftID:
		log.Debug().Str("draft_id", draftID.String()).Msg("timer fired - enqueued for processing")
	default:
		o.finish(draftID)
		log.Warn().Str("draft_id", draftID.String()).Msg("timer fired but work channel full")
	}
}

func (o *Orchestrator) finish(draftID uuid.UUID) {
	o.inFlightMu.Lock()
	delete(o.inFlight, draftID)
	o.inFlightMu.Unlock()
}

// worker processes draft timeouts from the work channel
func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case draftID := <-o.workCh:
			log.Info().
				Str("draft_id", draftID.String()).
				Str("instance", o.instanceID).
				Int("worker_id", workerID).
				Msg("worker handling timeout")

			if err := o.handleTimeout(ctx, draftID); err != nil {
				log.Error().
					Err(err).
					Str("draft_id", draftID.String()).
					Str("instance", o.instanceID).
					Int("worker_id", workerID).
					Msg("worker timeout handling failed")
			}
			o.finish(draftID)
		}
	}
}

func (o *Orchestrator) handleTimeout(ctx context.Context, draftID uuid.UUID) error {
	res, err := o.picker.AutoPick(ctx, draftID)
	switch {
	case errors.Is(err, engine.ErrNoSelectionAvailable):
		log.Warn().Str("draft_id", draftID.String()).Msg("auto-pick found nothing to select")
		o.cancelTimer(draftID)
		return nil
	case err != nil:
		if ctx.Err() == nil {
			o.scheduleAt(draftID, o.clock.Now().Add(retryDelay))
		}
		return fmt.Errorf("auto-pick failed: %w", err)
	case res != nil:
		o.scheduleFromState(res.Draft)
		return nil
	}

	// Nothing committed: the turn moved on or is not due yet. Follow the stored deadline.
	d, err := o.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return fmt.Errorf("failed to refresh draft: %w", err)
	}
	if engine.Expired(d, o.clock.Now()) {
		o.scheduleAt(draftID, o.clock.Now().Add(retryDelay))
		return nil
	}
	o.scheduleFromState(d)
	return nil
}
