package service

import (
	"time"

	"github.com/robwizzie/FantasyFlicks/go/internal/draft/standings"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Messages are plain structs carried with the JSON codec.

type CreateDraftRequest struct {
	Mode                models.DraftMode `json:"mode"`
	TurnStyle           models.TurnStyle `json:"turn_style"`
	UnitsPerParticipant int              `json:"units_per_participant"`
	PickTimerSeconds    int              `json:"pick_timer_seconds"`
	Categories          []string         `json:"categories,omitempty"`
	ParticipantOrder    []string         `json:"participant_order,omitempty"`
	ScheduledAt         *time.Time       `json:"scheduled_at,omitempty"`
}

type ScheduleDraftRequest struct {
	DraftID     string    `json:"draft_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

type StartDraftRequest struct {
	DraftID string `json:"draft_id"`
	// Empty keeps the order given at creation.
	ParticipantOrder []string `json:"participant_order,omitempty"`
}

type MakePickRequest struct {
	DraftID             string `json:"draft_id"`
	RequesterID         string `json:"requester_id"`
	SelectionID         string `json:"selection_id"`
	Category            string `json:"category,omitempty"`
	ExpectedOverallPick int    `json:"expected_overall_pick,omitempty"`
}

type MakePickResponse struct {
	Pick  models.DraftPick `json:"pick"`
	Draft *models.Draft    `json:"draft"`
}

type PauseDraftRequest struct {
	DraftID string `json:"draft_id"`
	Reason  string `json:"reason,omitempty"`
}

// DraftRequest addresses a draft by id. ResumeDraft, GetDraft, ListPicks,
// GetStandings and GetRemainingTime take it.
type DraftRequest struct {
	DraftID string `json:"draft_id"`
}

type DraftResponse struct {
	Draft *models.Draft `json:"draft"`
}

type ListPicksResponse struct {
	Picks []models.DraftPick `json:"picks"`
}

type GetStandingsResponse struct {
	Standings []standings.Entry `json:"standings"`
}

type GetRemainingTimeResponse struct {
	// Timed is false for untimed turns or drafts not in progress.
	Timed            bool    `json:"timed"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}
