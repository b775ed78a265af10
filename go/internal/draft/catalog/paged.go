package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/availability"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PagedRetryDelay is how long Paged waits after a failed page before
// asking the upstream source again.
const PagedRetryDelay = 30 * time.Second

// Paged serves movies fetched page by page from an upstream source. Pages
// are loaded lazily and kept for the life of the catalog.
type Paged struct {
	mu sync.Mutex
	// tracker never has picks set, so its Available is the whole pool.
	tracker *availability.Tracker
	loader  *availability.Loader
	clock   clockwork.Clock
	loaded  bool

	failedAt time.Time
	lastErr  error
}

// NewPaged creates a catalog that loads at most maxPages pages from source.
func NewPaged(source availability.PageSource, maxPages int, clock clockwork.Clock) *Paged {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	tracker := availability.NewTracker()
	return &Paged{
		tracker: tracker,
		loader:  availability.NewLoader(source, tracker, maxPages),
		clock:   clock,
	}
}

// Items returns every movie fetched so far with d's picks removed. The
// fetched pool is shared by all drafts.
func (p *Paged) Items(ctx context.Context, d *models.Draft) ([]models.CatalogItem, error) {
	pool, err := p.pool(ctx)
	if err != nil {
		return nil, err
	}

	t := availability.NewTracker()
	t.SetPicks(d.Picks)
	t.AddPage(pool)
	return t.Available(), nil
}

// Pool returns every movie fetched so far. Paged has no nominees.
func (p *Paged) Pool(ctx context.Context, mode models.DraftMode) ([]models.CatalogItem, error) {
	if mode == models.DraftModeOscar {
		return nil, nil
	}
	return p.pool(ctx)
}

func (p *Paged) pool(ctx context.Context) ([]models.CatalogItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded && (p.lastErr == nil || p.clock.Since(p.failedAt) >= PagedRetryDelay) {
		if err := p.loader.LoadAll(ctx); err != nil {
			p.failedAt, p.lastErr = p.clock.Now(), err
			if p.tracker.PoolSize() > 0 {
				log.Warn().Err(err).Int("pool_size", p.tracker.PoolSize()).Msg("catalog partially loaded")
			}
		} else {
			p.loaded, p.lastErr = true, nil
		}
	}

	// A partial pool is still usable.
	if !p.loaded && p.tracker.PoolSize() == 0 {
		return nil, p.lastErr
	}
	return p.tracker.Available(), nil
}
