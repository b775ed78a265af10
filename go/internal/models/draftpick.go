package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPick represents one committed selection.
type DraftPick struct {
	DraftID       uuid.UUID `json:"draft_id"`
	OverallPick   int       `json:"overall_pick"` // identity within the draft
	ParticipantID string    `json:"participant_id"`
	SelectionID   string    `json:"selection_id"`
	Category      string    `json:"category,omitempty"` // oscar mode only
	Round         int       `json:"round"`              // unit index, 1-based
	Pick          int       `json:"pick"`               // position in unit, 0-based
	CommittedAt   time.Time `json:"committed_at"`
	SecondsTaken  *int      `json:"seconds_taken,omitempty"` // nil when the timer is unlimited
	WasAutoPick   bool      `json:"was_auto_pick"`
}

func (p DraftPick) clone() DraftPick {
	if p.SecondsTaken != nil {
		s := *p.SecondsTaken
		p.SecondsTaken = &s
	}
	return p
}
