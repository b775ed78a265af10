package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Hub fans committed draft snapshots out to in-process subscribers.
//
// Each subscriber channel holds at most one pending snapshot. A newer snapshot
// replaces an unread one, so a slow reader skips intermediate states but never
// observes them out of order.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[uint64]chan *models.Draft
	nextID uint64
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[uint64]chan *models.Draft)}
}

// Subscribe registers for snapshots of one draft. The returned cancel func
// releases the subscription and closes the channel; it is also called when
// ctx is done. Calling cancel more than once is safe.
func (h *Hub) Subscribe(ctx context.Context, draftID uuid.UUID) (<-chan *models.Draft, func()) {
	ch := make(chan *models.Draft, 1)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[draftID] == nil {
		h.subs[draftID] = make(map[uint64]chan *models.Draft)
	}
	h.subs[draftID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subs[draftID]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subs, draftID)
				}
			}
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of its draft without blocking.
func (h *Hub) Publish(d *models.Draft) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[d.ID] {
		snapshot := d.Clone()
		select {
		case ch <- snapshot:
		default:
			// Drop the stale pending snapshot and replace it.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Subscribers returns the number of live subscriptions for a draft.
func (h *Hub) Subscribers(draftID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[draftID])
}
