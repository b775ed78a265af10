package engine

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// PickRequest is a proposed pick for the current turn.
type PickRequest struct {
	DraftID     uuid.UUID
	RequesterID string
	SelectionID string
	// Category is required in oscar mode and ignored otherwise.
	Category string
	// ExpectedOverallPick is the pick number the caller believes is current.
	// It is the idempotency key: resubmitting with the same value is safe.
	ExpectedOverallPick int
	IsAutoPick          bool
}

// Validate checks a pick against a snapshot without touching storage.
// It returns the same errors Apply would, in the same order, so callers can
// reject early. Apply re-checks everything at commit time.
func Validate(d *models.Draft, req PickRequest) error {
	if d.Status != models.DraftStatusInProgress {
		return ErrDraftNotActive
	}
	if req.ExpectedOverallPick != d.CurrentOverallPick {
		return ErrStaleTurn
	}
	picker, ok := CurrentPicker(d)
	if !ok {
		return ErrDraftNotActive
	}
	if !req.IsAutoPick && req.RequesterID != picker {
		return ErrNotYourTurn
	}
	if err := validateShape(d, req); err != nil {
		return err
	}
	return checkSelection(d, picker, req)
}

func validateShape(d *models.Draft, req PickRequest) error {
	if req.SelectionID == "" {
		return fmt.Errorf("%w: selection id is required", ErrInvalidSelection)
	}
	if d.Mode != models.DraftModeOscar {
		return nil
	}
	if req.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidSelection)
	}
	if len(d.Settings.Categories) > 0 && !slices.Contains(d.Settings.Categories, req.Category) {
		return fmt.Errorf("%w: category %q is not part of this draft", ErrInvalidSelection, req.Category)
	}
	return nil
}

func checkSelection(d *models.Draft, picker string, req PickRequest) error {
	for _, p := range d.Picks {
		switch d.Mode {
		case models.DraftModeOscar:
			if p.ParticipantID == picker && p.Category == req.Category {
				return ErrCategoryAlreadyPicked
			}
		default:
			if p.SelectionID == req.SelectionID {
				return ErrDuplicateSelection
			}
		}
	}
	return nil
}

// ValidateConfiguration checks a participant order and unit count.
func ValidateConfiguration(order []string, units int) error {
	if len(order) < 2 {
		return fmt.Errorf("%w: need at least 2 participants, got %d", ErrInvalidConfiguration, len(order))
	}
	if units <= 0 {
		return fmt.Errorf("%w: units per participant must be positive", ErrInvalidConfiguration)
	}
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if id == "" {
			return fmt.Errorf("%w: empty participant id", ErrInvalidConfiguration)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate participant %q", ErrInvalidConfiguration, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
