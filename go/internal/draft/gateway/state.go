package gateway

import (
	"time"

	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// DraftState is the snapshot a client needs to render a draft, sent on
// connect and served by the state endpoint.
type DraftState struct {
	Draft          *models.Draft `json:"draft"`
	CurrentTurn    *TurnState    `json:"current_turn,omitempty"`
	TotalPicks     int           `json:"total_picks"`
	CompletedPicks int           `json:"completed_picks"`
	// ServerTime lets clients correct for clock skew when counting down.
	ServerTime time.Time `json:"server_time"`
}

// TurnState describes the turn on the clock.
type TurnState struct {
	OverallPick      int        `json:"overall_pick"`
	Round            int        `json:"round"`
	Pick             int        `json:"pick"`
	ParticipantID    string     `json:"participant_id"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	TimeoutAt        *time.Time `json:"timeout_at,omitempty"`
	TimeRemainingSec *int       `json:"time_remaining_sec,omitempty"` // nil when untimed
}

// NewDraftState derives the client view of d at now.
func NewDraftState(d *models.Draft, now time.Time) *DraftState {
	st := &DraftState{
		Draft:          d,
		TotalPicks:     d.TotalPicks(),
		CompletedPicks: len(d.Picks),
		ServerTime:     now.UTC(),
	}

	picker, ok := engine.CurrentPicker(d)
	if !ok {
		return st
	}
	turn := engine.TurnFor(d.Settings.TurnStyle, len(d.ParticipantOrder), d.CurrentOverallPick)
	st.CurrentTurn = &TurnState{
		OverallPick:   d.CurrentOverallPick,
		Round:         turn.Unit,
		Pick:          turn.Position,
		ParticipantID: picker,
		StartedAt:     d.TurnStartedAt,
		TimeoutAt:     d.TimerDeadline,
	}
	if remaining, timed := engine.Remaining(d, now); timed {
		secs := int(remaining.Round(time.Second) / time.Second)
		st.CurrentTurn.TimeRemainingSec = &secs
	}
	return st
}
