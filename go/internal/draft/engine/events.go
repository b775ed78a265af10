package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

func draftStartedEvent(d *models.Draft, now time.Time) (events.OutboxEvent, error) {
	return events.NewOutboxEvent(d.ID, events.EventTypeDraftStarted, events.DraftStartedPayload{
		DraftID:          d.ID.String(),
		Mode:             string(d.Mode),
		TurnStyle:        string(d.Settings.TurnStyle),
		ParticipantOrder: d.ParticipantOrder,
		StartedAt:        now,
		TotalUnits:       d.Settings.UnitsPerParticipant,
		TotalPicks:       d.TotalPicks(),
	}, now)
}

func pickStartedEvent(d *models.Draft, now time.Time) (events.OutboxEvent, error) {
	turn := TurnFor(d.Settings.TurnStyle, len(d.ParticipantOrder), d.CurrentOverallPick)
	return events.NewOutboxEvent(d.ID, events.EventTypePickStarted, events.PickStartedPayload{
		OverallPick:      d.CurrentOverallPick,
		Round:            turn.Unit,
		Pick:             turn.Position,
		ParticipantID:    d.CurrentPickerID,
		StartedAt:        now,
		TimeoutAt:        d.TimerDeadline,
		PickTimerSeconds: d.Settings.PickTimerSeconds,
	}, now)
}

func pickMadeEvent(draftID uuid.UUID, p models.DraftPick) (events.OutboxEvent, error) {
	return events.NewOutboxEvent(draftID, events.EventTypePickMade, events.PickMadePayload{
		OverallPick:   p.OverallPick,
		Round:         p.Round,
		Pick:          p.Pick,
		ParticipantID: p.ParticipantID,
		SelectionID:   p.SelectionID,
		Category:      p.Category,
		WasAutoPick:   p.WasAutoPick,
		SecondsTaken:  p.SecondsTaken,
		MadeAt:        p.CommittedAt,
	}, p.CommittedAt)
}

func draftCompletedEvent(d *models.Draft, now time.Time) (events.OutboxEvent, error) {
	var took time.Duration
	if d.StartedAt != nil {
		took = now.Sub(*d.StartedAt)
	}
	return events.NewOutboxEvent(d.ID, events.EventTypeDraftCompleted, events.DraftCompletedPayload{
		DraftID:     d.ID.String(),
		CompletedAt: now,
		Duration:    took.String(),
		TotalPicks:  len(d.Picks),
	}, now)
}
