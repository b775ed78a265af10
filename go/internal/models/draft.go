package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftSchemaVersion is the current version of the persisted draft record.
const DraftSchemaVersion = 1

// DraftMode defines what participants pick from.
type DraftMode string

const (
	DraftModeMovie DraftMode = "MOVIE_DRAFT"
	DraftModeOscar DraftMode = "OSCAR_PREDICTION"
)

// TurnStyle defines how picking order evolves between units.
type TurnStyle string

const (
	TurnStyleLinear     TurnStyle = "LINEAR"
	TurnStyleSerpentine TurnStyle = "SERPENTINE"
)

// DraftStatus defines the status of a draft.
type DraftStatus string

const (
	DraftStatusPending    DraftStatus = "PENDING"
	DraftStatusScheduled  DraftStatus = "SCHEDULED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
)

// DraftSettings holds the configuration fixed when a draft is created.
type DraftSettings struct {
	TurnStyle TurnStyle `json:"turn_style"`
	// Rounds in movie mode, required category count in oscar mode.
	UnitsPerParticipant int `json:"units_per_participant"`
	PickTimerSeconds    int `json:"pick_timer_seconds"` // 0 means unlimited
	// Categories optionally restricts which oscar categories may be picked.
	Categories []string `json:"categories,omitempty"`
}

// Draft is the authoritative record of one drafting session.
type Draft struct {
	ID               uuid.UUID     `json:"id"`
	Version          int           `json:"version"`
	Mode             DraftMode     `json:"mode"`
	Status           DraftStatus   `json:"status"`
	Settings         DraftSettings `json:"settings"`
	ParticipantOrder []string      `json:"participant_order"`

	CurrentOverallPick int        `json:"current_overall_pick"`
	CurrentPickerID    string     `json:"current_picker_id,omitempty"` // empty unless IN_PROGRESS
	TurnStartedAt      *time.Time `json:"turn_started_at,omitempty"`
	TimerDeadline      *time.Time `json:"timer_deadline,omitempty"`

	Picks    []DraftPick `json:"picks"`
	Revision int64       `json:"revision"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TotalPicks is the number of turns in the draft.
func (d *Draft) TotalPicks() int {
	return len(d.ParticipantOrder) * d.Settings.UnitsPerParticipant
}

// HasTimer reports whether turns are time limited.
func (d *Draft) HasTimer() bool {
	return d.Settings.PickTimerSeconds > 0
}

// PickTimeout returns the length of one turn, zero when unlimited.
func (d *Draft) PickTimeout() time.Duration {
	return time.Duration(d.Settings.PickTimerSeconds) * time.Second
}

// Clone returns a deep copy safe to hand to another goroutine.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	c.ParticipantOrder = append([]string(nil), d.ParticipantOrder...)
	c.Settings.Categories = append([]string(nil), d.Settings.Categories...)
	c.Picks = make([]DraftPick, len(d.Picks))
	for i, p := range d.Picks {
		c.Picks[i] = p.clone()
	}
	c.TurnStartedAt = cloneTime(d.TurnStartedAt)
	c.TimerDeadline = cloneTime(d.TimerDeadline)
	c.ScheduledAt = cloneTime(d.ScheduledAt)
	c.StartedAt = cloneTime(d.StartedAt)
	c.CompletedAt = cloneTime(d.CompletedAt)
	return &c
}

// ApplyDefaults fills optional fields missing from older or sparse records.
func (d *Draft) ApplyDefaults() {
	if d.Version == 0 {
		d.Version = DraftSchemaVersion
	}
	if d.Mode == "" {
		d.Mode = DraftModeMovie
	}
	if d.Settings.TurnStyle == "" {
		d.Settings.TurnStyle = TurnStyleSerpentine
	}
	if d.Status == "" {
		d.Status = DraftStatusPending
	}
	if d.Picks == nil {
		d.Picks = []DraftPick{}
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
