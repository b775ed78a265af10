package availability

import (
	"sync"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Tracker derives the selectable pool: every fetched item minus every picked id.
// The pool grows one page at a time and keeps first-seen order.
type Tracker struct {
	mu     sync.RWMutex
	pool   []models.CatalogItem
	seen   map[string]struct{}
	picked map[string]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		seen:   make(map[string]struct{}),
		picked: make(map[string]struct{}),
	}
}

// SetPicks replaces the picked set with the selections in picks.
func (t *Tracker) SetPicks(picks []models.DraftPick) {
	picked := make(map[string]struct{}, len(picks))
	for _, p := range picks {
		picked[p.SelectionID] = struct{}{}
	}

	t.mu.Lock()
	t.picked = picked
	t.mu.Unlock()
}

// MarkPicked adds one selection to the picked set.
func (t *Tracker) MarkPicked(selectionID string) {
	t.mu.Lock()
	t.picked[selectionID] = struct{}{}
	t.mu.Unlock()
}

// AddPage appends newly fetched items. Items already in the pool, already
// picked, or repeated within the page are dropped. It returns how many were added.
func (t *Tracker) AddPage(items []models.CatalogItem) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	added := 0
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if _, dup := t.seen[it.ID]; dup {
			continue
		}
		if _, taken := t.picked[it.ID]; taken {
			continue
		}
		t.seen[it.ID] = struct{}{}
		t.pool = append(t.pool, it)
		added++
	}
	return added
}

// Available returns pool items that have not been picked.
func (t *Tracker) Available() []models.CatalogItem {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.CatalogItem, 0, len(t.pool))
	for _, it := range t.pool {
		if _, taken := t.picked[it.ID]; !taken {
			out = append(out, it)
		}
	}
	return out
}

// IsAvailable reports whether id is in the pool and not picked.
func (t *Tracker) IsAvailable(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, inPool := t.seen[id]
	_, taken := t.picked[id]
	return inPool && !taken
}

// PoolSize is the number of distinct items fetched so far.
func (t *Tracker) PoolSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pool)
}
