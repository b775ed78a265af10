package events

import (
	"time"
)

// Event payload types that are shared between the engine, orchestrator and gateway packages

// PickStartedPayload is the payload for a PickStarted event
type PickStartedPayload struct {
	OverallPick      int        `json:"overall_pick"`
	Round            int        `json:"round"`
	Pick             int        `json:"pick"`
	ParticipantID    string     `json:"participant_id"`
	StartedAt        time.Time  `json:"started_at"`
	TimeoutAt        *time.Time `json:"timeout_at,omitempty"`
	PickTimerSeconds int        `json:"pick_timer_seconds"`
}

// PickMadePayload is the payload for a PickMade event
type PickMadePayload struct {
	OverallPick   int       `json:"overall_pick"`
	Round         int       `json:"round"`
	Pick          int       `json:"pick"`
	ParticipantID string    `json:"participant_id"`
	SelectionID   string    `json:"selection_id"`
	Category      string    `json:"category,omitempty"`
	WasAutoPick   bool      `json:"was_auto_pick"`
	SecondsTaken  *int      `json:"seconds_taken,omitempty"`
	MadeAt        time.Time `json:"made_at"`
}

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftID          string    `json:"draft_id"`
	Mode             string    `json:"mode"`
	TurnStyle        string    `json:"turn_style"`
	ParticipantOrder []string  `json:"participant_order"`
	StartedAt        time.Time `json:"started_at"`
	TotalUnits       int       `json:"total_units"`
	TotalPicks       int       `json:"total_picks"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	DraftID     string    `json:"draft_id"`
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftPausedPayload is the payload for a DraftPaused event
type DraftPausedPayload struct {
	DraftID     string    `json:"draft_id"`
	PausedAt    time.Time `json:"paused_at"`
	Reason      string    `json:"reason"`
	OverallPick int       `json:"overall_pick"`
}

// DraftResumedPayload is the payload for a DraftResumed event
type DraftResumedPayload struct {
	DraftID     string     `json:"draft_id"`
	ResumedAt   time.Time  `json:"resumed_at"`
	OverallPick int        `json:"overall_pick"`
	TimeoutAt   *time.Time `json:"timeout_at,omitempty"`
}
