package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Remaining returns max(0, deadline-now) for a timed, in-progress draft.
// ok is false when the draft has no timer or is not in progress.
func Remaining(d *models.Draft, now time.Time) (time.Duration, bool) {
	if !d.HasTimer() || d.Status != models.DraftStatusInProgress || d.TimerDeadline == nil {
		return 0, false
	}
	r := d.TimerDeadline.Sub(now)
	if r < 0 {
		r = 0
	}
	return r, true
}

// Expired reports whether the current turn's window has closed.
func Expired(d *models.Draft, now time.Time) bool {
	r, ok := Remaining(d, now)
	return ok && r == 0
}

// TimerCoordinator turns an expired deadline into exactly one committed
// auto-pick. Any number of processes may call AutoPick for the same turn;
// the compare-and-commit in Apply lets only the first one through.
type TimerCoordinator struct {
	engine *Engine
	policy AutoPickPolicy
}

// NewTimerCoordinator creates a coordinator that picks with policy.
func NewTimerCoordinator(e *Engine, policy AutoPickPolicy) *TimerCoordinator {
	return &TimerCoordinator{engine: e, policy: policy}
}

// AutoPick submits a pick on the current picker's behalf if their window
// has closed. It returns (nil, nil) when there is nothing to do or another
// caller already advanced the turn.
func (t *TimerCoordinator) AutoPick(ctx context.Context, draftID uuid.UUID) (*PickResult, error) {
	d, err := t.engine.CurrentState(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if !Expired(d, t.engine.clock.Now()) {
		log.Debug().Str("draft_id", draftID.String()).Msg("auto-pick skipped - turn not expired")
		return nil, nil
	}

	sel, err := t.policy.Choose(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("auto-pick policy failed: %w", err)
	}

	res, err := t.engine.Apply(ctx, PickRequest{
		DraftID:             draftID,
		RequesterID:         d.CurrentPickerID,
		SelectionID:         sel.ID,
		Category:            sel.Category,
		ExpectedOverallPick: d.CurrentOverallPick,
		IsAutoPick:          true,
	})
	switch {
	case errors.Is(err, ErrStaleTurn), errors.Is(err, ErrDraftNotActive):
		log.Debug().
			Err(err).
			Str("draft_id", draftID.String()).
			Int("overall_pick", d.CurrentOverallPick).
			Msg("auto-pick dropped - turn already resolved")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("auto-pick apply failed: %w", err)
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Int("overall_pick", res.Pick.OverallPick).
		Str("participant_id", res.Pick.ParticipantID).
		Str("selection_id", res.Pick.SelectionID).
		Msg("auto-pick committed")
	return res, nil
}
