package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/standings"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Store is the persistence the engine needs. Update must run its func and
// write the result as one atomic read-validate-write.
type Store interface {
	CreateDraft(ctx context.Context, d *models.Draft, evts ...events.OutboxEvent) error
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	ListPicks(ctx context.Context, id uuid.UUID) ([]models.DraftPick, error)
	Update(ctx context.Context, id uuid.UUID, fn store.UpdateFunc) (*models.Draft, error)
	Subscribe(ctx context.Context, id uuid.UUID) (<-chan *models.Draft, func())
}

// Clock is the time source. clockwork.Clock satisfies it.
type Clock interface {
	Now() time.Time
}

// Engine owns every transition of a draft record.
type Engine struct {
	store Store
	clock Clock
}

// New creates an engine. A nil clock means the wall clock.
func New(s Store, clock Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{store: s, clock: clock}
}

// CreateDraftRequest carries a commissioner's draft configuration.
type CreateDraftRequest struct {
	ID               uuid.UUID // generated when zero
	Mode             models.DraftMode
	Settings         models.DraftSettings
	ParticipantOrder []string // may be left empty until start
	ScheduledAt      *time.Time
}

// PickResult is a committed pick and the snapshot it produced.
type PickResult struct {
	Pick  models.DraftPick
	Draft *models.Draft
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

// Create persists a new draft in PENDING, or SCHEDULED when a start time is given.
func (e *Engine) Create(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := e.now()
	d := &models.Draft{
		ID:               req.ID,
		Mode:             req.Mode,
		Settings:         req.Settings,
		ParticipantOrder: append([]string(nil), req.ParticipantOrder...),
		Status:           models.DraftStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC()
		d.ScheduledAt = &at
		d.Status = models.DraftStatusScheduled
	}
	d.ApplyDefaults()

	if err := e.store.CreateDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("mode", string(d.Mode)).
		Int("participants", len(d.ParticipantOrder)).
		Int("units", d.Settings.UnitsPerParticipant).
		Msg("draft created")
	return d, nil
}

func validateCreate(req CreateDraftRequest) error {
	switch req.Mode {
	case "", models.DraftModeMovie, models.DraftModeOscar:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, req.Mode)
	}
	switch req.Settings.TurnStyle {
	case "", models.TurnStyleLinear, models.TurnStyleSerpentine:
	default:
		return fmt.Errorf("%w: unknown turn style %q", ErrInvalidConfiguration, req.Settings.TurnStyle)
	}
	if req.Settings.UnitsPerParticipant <= 0 {
		return fmt.Errorf("%w: units per participant must be positive", ErrInvalidConfiguration)
	}
	if req.Settings.PickTimerSeconds < 0 {
		return fmt.Errorf("%w: pick timer cannot be negative", ErrInvalidConfiguration)
	}
	if len(req.ParticipantOrder) > 0 {
		if err := ValidateConfiguration(req.ParticipantOrder, req.Settings.UnitsPerParticipant); err != nil {
			return err
		}
	}

	cats := req.Settings.Categories
	if req.Mode == models.DraftModeOscar && len(cats) > 0 {
		if len(cats) < req.Settings.UnitsPerParticipant {
			return fmt.Errorf("%w: %d categories cannot fill %d picks per participant",
				ErrInvalidConfiguration, len(cats), req.Settings.UnitsPerParticipant)
		}
		seen := make(map[string]struct{}, len(cats))
		for _, c := range cats {
			if _, dup := seen[c]; dup || c == "" {
				return fmt.Errorf("%w: categories must be unique and non-empty", ErrInvalidConfiguration)
			}
			seen[c] = struct{}{}
		}
	}
	return nil
}

// Schedule sets or moves the planned start of a draft that has not started.
func (e *Engine) Schedule(ctx context.Context, id uuid.UUID, at time.Time) (*models.Draft, error) {
	d, err := e.update(ctx, id, func(d *models.Draft) (*store.Mutation, error) {
		if d.Status != models.DraftStatusPending && d.Status != models.DraftStatusScheduled {
			return nil, ErrAlreadyStarted
		}
		when := at.UTC()
		d.ScheduledAt = &when
		d.Status = models.DraftStatusScheduled
		d.UpdatedAt = e.now()
		return &store.Mutation{}, nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Start fixes the participant order and opens pick 1. An empty order uses
// the order stored at creation.
func (e *Engine) Start(ctx context.Context, id uuid.UUID, participantOrder []string) (*models.Draft, error) {
	d, err := e.update(ctx, id, func(d *models.Draft) (*store.Mutation, error) {
		if d.Status != models.DraftStatusPending && d.Status != models.DraftStatusScheduled {
			return nil, ErrAlreadyStarted
		}
		order := participantOrder
		if len(order) == 0 {
			order = d.ParticipantOrder
		}
		if err := ValidateConfiguration(order, d.Settings.UnitsPerParticipant); err != nil {
			return nil, err
		}

		now := e.now()
		d.ParticipantOrder = slices.Clone(order)
		d.Status = models.DraftStatusInProgress
		d.StartedAt = &now
		d.UpdatedAt = now
		d.CurrentOverallPick = 1
		beginTurn(d, now)

		started, err := draftStartedEvent(d, now)
		if err != nil {
			return nil, err
		}
		turn, err := pickStartedEvent(d, now)
		if err != nil {
			return nil, err
		}
		return &store.Mutation{Events: []events.OutboxEvent{started, turn}}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", id.String()).
		Strs("participant_order", d.ParticipantOrder).
		Int("total_picks", d.TotalPicks()).
		Msg("draft started")
	return d, nil
}

// Apply validates and commits one pick as a single atomic transition.
func (e *Engine) Apply(ctx context.Context, req PickRequest) (*PickResult, error) {
	var committed models.DraftPick

	d, err := e.update(ctx, req.DraftID, func(d *models.Draft) (*store.Mutation, error) {
		if err := Validate(d, req); err != nil {
			return nil, err
		}

		now := e.now()
		// An auto-pick only applies to the turn whose window has closed.
		if req.IsAutoPick && d.HasTimer() && d.TimerDeadline != nil && now.Before(*d.TimerDeadline) {
			return nil, ErrStaleTurn
		}

		turn := TurnFor(d.Settings.TurnStyle, len(d.ParticipantOrder), d.CurrentOverallPick)
		committed = models.DraftPick{
			DraftID:       d.ID,
			OverallPick:   d.CurrentOverallPick,
			ParticipantID: d.ParticipantOrder[turn.ParticipantIndex],
			SelectionID:   req.SelectionID,
			Round:         turn.Unit,
			Pick:          turn.Position,
			CommittedAt:   now,
			WasAutoPick:   req.IsAutoPick,
		}
		if d.Mode == models.DraftModeOscar {
			committed.Category = req.Category
		}
		if d.HasTimer() && d.TurnStartedAt != nil {
			secs := int(now.Sub(*d.TurnStartedAt) / time.Second)
			if secs < 0 {
				secs = 0
			}
			committed.SecondsTaken = &secs
		}

		d.Picks = append(d.Picks, committed)
		d.CurrentOverallPick++
		d.UpdatedAt = now

		made, err := pickMadeEvent(d.ID, committed)
		if err != nil {
			return nil, err
		}
		evts := []events.OutboxEvent{made}

		if d.CurrentOverallPick > d.TotalPicks() {
			complete(d, now)
			done, err := draftCompletedEvent(d, now)
			if err != nil {
				return nil, err
			}
			evts = append(evts, done)
		} else {
			beginTurn(d, now)
			next, err := pickStartedEvent(d, now)
			if err != nil {
				return nil, err
			}
			evts = append(evts, next)
		}

		pick := committed
		return &store.Mutation{Pick: &pick, Events: evts}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", req.DraftID.String()).
		Int("overall_pick", committed.OverallPick).
		Str("participant_id", committed.ParticipantID).
		Str("selection_id", committed.SelectionID).
		Bool("auto_pick", committed.WasAutoPick).
		Msg("pick committed")

	if d.Status == models.DraftStatusCompleted {
		log.Info().Str("draft_id", d.ID.String()).Int("total_picks", len(d.Picks)).Msg("draft completed")
	}

	return &PickResult{Pick: committed, Draft: d}, nil
}

// Pause stops the clock on an in-progress draft. Pausing a paused draft is a no-op.
func (e *Engine) Pause(ctx context.Context, id uuid.UUID, reason string) (*models.Draft, error) {
	return e.update(ctx, id, func(d *models.Draft) (*store.Mutation, error) {
		switch d.Status {
		case models.DraftStatusPaused:
			return nil, nil
		case models.DraftStatusInProgress:
		default:
			return nil, ErrDraftNotActive
		}

		now := e.now()
		d.Status = models.DraftStatusPaused
		d.CurrentPickerID = ""
		d.UpdatedAt = now

		evt, err := events.NewOutboxEvent(d.ID, events.EventTypeDraftPaused, events.DraftPausedPayload{
			DraftID:     d.ID.String(),
			PausedAt:    now,
			Reason:      reason,
			OverallPick: d.CurrentOverallPick,
		}, now)
		if err != nil {
			return nil, err
		}
		return &store.Mutation{Events: []events.OutboxEvent{evt}}, nil
	})
}

// Resume reopens a paused draft with a full pick window for the current
// turn. Resuming an in-progress draft is a no-op.
func (e *Engine) Resume(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return e.update(ctx, id, func(d *models.Draft) (*store.Mutation, error) {
		switch d.Status {
		case models.DraftStatusInProgress:
			return nil, nil
		case models.DraftStatusPaused:
		default:
			return nil, ErrDraftNotActive
		}

		now := e.now()
		d.Status = models.DraftStatusInProgress
		d.UpdatedAt = now
		beginTurn(d, now)

		evt, err := events.NewOutboxEvent(d.ID, events.EventTypeDraftResumed, events.DraftResumedPayload{
			DraftID:     d.ID.String(),
			ResumedAt:   now,
			OverallPick: d.CurrentOverallPick,
			TimeoutAt:   d.TimerDeadline,
		}, now)
		if err != nil {
			return nil, err
		}
		return &store.Mutation{Events: []events.OutboxEvent{evt}}, nil
	})
}

// CurrentState returns the latest committed snapshot.
func (e *Engine) CurrentState(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	d, err := e.store.GetDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

// ListPicks returns the pick log ordered by overall pick.
func (e *Engine) ListPicks(ctx context.Context, id uuid.UUID) ([]models.DraftPick, error) {
	picks, err := e.store.ListPicks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	return picks, nil
}

// RemainingTime reports time left on the current turn. ok is false when
// the turn is untimed or the draft is not in progress.
func (e *Engine) RemainingTime(ctx context.Context, id uuid.UUID) (time.Duration, bool, error) {
	d, err := e.CurrentState(ctx, id)
	if err != nil {
		return 0, false, err
	}
	r, ok := Remaining(d, e.clock.Now())
	return r, ok, nil
}

// Standings ranks participants by the scores of their picks.
func (e *Engine) Standings(ctx context.Context, id uuid.UUID, score standings.Scorer) ([]standings.Entry, error) {
	d, err := e.CurrentState(ctx, id)
	if err != nil {
		return nil, err
	}
	return standings.Compute(d.ParticipantOrder, d.Picks, score), nil
}

// Subscribe streams committed snapshots of a draft until cancel is called or ctx ends.
func (e *Engine) Subscribe(ctx context.Context, id uuid.UUID) (<-chan *models.Draft, func()) {
	return e.store.Subscribe(ctx, id)
}

// update runs fn through the store and maps a lost race to ErrStaleTurn.
func (e *Engine) update(ctx context.Context, id uuid.UUID, fn store.UpdateFunc) (*models.Draft, error) {
	d, err := e.store.Update(ctx, id, fn)
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrStaleTurn
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func beginTurn(d *models.Draft, now time.Time) {
	d.CurrentPickerID = PickerFor(d, d.CurrentOverallPick)
	d.TurnStartedAt = &now
	d.TimerDeadline = nil
	if d.HasTimer() {
		deadline := now.Add(d.PickTimeout())
		d.TimerDeadline = &deadline
	}
}

func complete(d *models.Draft, now time.Time) {
	d.Status = models.DraftStatusCompleted
	d.CurrentPickerID = ""
	d.TurnStartedAt = nil
	d.TimerDeadline = nil
	d.CompletedAt = &now
}
