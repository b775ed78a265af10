package store

import (
	"errors"

	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

var (
	// ErrNotFound is returned when a draft or outbox event does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a concurrent write committed first.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrAlreadyExists is returned when creating a draft whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Mutation describes what an update writes besides the draft row itself.
type Mutation struct {
	// Pick is the pick appended by this update, if any.
	Pick   *models.DraftPick
	Events []events.OutboxEvent
}

// UpdateFunc validates and mutates a private copy of the draft. Returning a
// nil mutation commits nothing; returning an error aborts the update.
type UpdateFunc func(d *models.Draft) (*Mutation, error)
