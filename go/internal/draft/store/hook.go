package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Backend is everything the draft processes use from a store. *Memory and
// *SQL implement it.
type Backend interface {
	CreateDraft(ctx context.Context, d *models.Draft, evts ...events.OutboxEvent) error
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	ListPicks(ctx context.Context, id uuid.UUID) ([]models.DraftPick, error)
	ListDrafts(ctx context.Context, statuses ...models.DraftStatus) ([]*models.Draft, error)
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Draft, error)
	Subscribe(ctx context.Context, id uuid.UUID) (<-chan *models.Draft, func())

	FetchUnsent(ctx context.Context, limit int) ([]events.OutboxEvent, error)
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*events.OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// WithCommitHook calls hook after every successful write to b.
func WithCommitHook(b Backend, hook func()) Backend {
	return &hooked{Backend: b, hook: hook}
}

type hooked struct {
	Backend
	hook func()
}

func (h *hooked) CreateDraft(ctx context.Context, d *models.Draft, evts ...events.OutboxEvent) error {
	if err := h.Backend.CreateDraft(ctx, d, evts...); err != nil {
		return err
	}
	h.hook()
	return nil
}

func (h *hooked) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Draft, error) {
	d, err := h.Backend.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	h.hook()
	return d, nil
}
