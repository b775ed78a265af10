package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/feed"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Memory is an in-process transactional store. Every update runs under one
// mutex, which makes read-validate-write atomic per store.
type Memory struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]*models.Draft
	outbox []events.OutboxEvent
	hub    *feed.Hub
}

// NewMemory creates an empty memory store
func NewMemory() *Memory {
	return &Memory{
		drafts: make(map[uuid.UUID]*models.Draft),
		hub:    feed.NewHub(),
	}
}

func (m *Memory) CreateDraft(ctx context.Context, d *models.Draft, evts ...events.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.drafts[d.ID]; exists {
		return ErrAlreadyExists
	}
	m.drafts[d.ID] = d.Clone()
	m.outbox = append(m.outbox, evts...)
	return nil
}

func (m *Memory) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m *Memory) ListPicks(ctx context.Context, id uuid.UUID) ([]models.DraftPick, error) {
	d, err := m.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(d.Picks, func(i, j int) bool { return d.Picks[i].OverallPick < d.Picks[j].OverallPick })
	return d.Picks, nil
}

// ListDrafts returns drafts in the given statuses, or all drafts when none are given.
func (m *Memory) ListDrafts(ctx context.Context, statuses ...models.DraftStatus) ([]*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Draft
	for _, d := range m.drafts {
		if len(statuses) == 0 || hasStatus(statuses, d.Status) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := current.Clone()
	mutation, err := fn(next)
	if err != nil {
		return nil, err
	}
	if mutation == nil {
		return current.Clone(), nil
	}

	if mutation.Pick != nil {
		for _, p := range current.Picks {
			if p.OverallPick == mutation.Pick.OverallPick {
				return nil, ErrConflict
			}
		}
	}

	next.Revision = current.Revision + 1
	m.drafts[id] = next
	m.outbox = append(m.outbox, mutation.Events...)
	m.hub.Publish(next)

	return next.Clone(), nil
}

func (m *Memory) Subscribe(ctx context.Context, id uuid.UUID) (<-chan *models.Draft, func()) {
	return m.hub.Subscribe(ctx, id)
}

// FetchUnsent returns up to limit unsent outbox events in insertion order.
func (m *Memory) FetchUnsent(ctx context.Context, limit int) ([]events.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []events.OutboxEvent
	for _, e := range m.outbox {
		if e.SentAt != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*events.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.outbox {
		if e.ID == id {
			ev := e
			return &ev, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) MarkSent(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.outbox {
		if m.outbox[i].ID == id {
			now := time.Now().UTC()
			m.outbox[i].SentAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func hasStatus(statuses []models.DraftStatus, s models.DraftStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
