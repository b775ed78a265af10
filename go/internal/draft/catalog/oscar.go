package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/matcher"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

// QuoteSource supplies market probabilities for oscar outcomes.
type QuoteSource interface {
	Quotes(ctx context.Context) ([]models.MarketQuote, error)
}

// Oscar serves nominees ranked by live market odds. Quotes are refetched
// at most once per ttl. If the market is unreachable the last good ranking
// is kept, or the nominees' own popularity before the first success.
type Oscar struct {
	nominees []models.Nominee
	quotes   QuoteSource
	fallback float64
	ttl      time.Duration
	clock    clockwork.Clock

	mu        sync.Mutex
	ranked    []models.CatalogItem
	fetchedAt time.Time
}

// NewOscar creates an odds-ranked nominee catalog. Nominees no quote matches
// get fallback as their probability.
func NewOscar(nominees []models.Nominee, quotes QuoteSource, fallback float64, ttl time.Duration, clock clockwork.Clock) *Oscar {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Oscar{
		nominees: nominees,
		quotes:   quotes,
		fallback: fallback,
		ttl:      ttl,
		clock:    clock,
	}
}

// Items returns the ranked nominees for an oscar draft and nothing otherwise.
func (o *Oscar) Items(ctx context.Context, d *models.Draft) ([]models.CatalogItem, error) {
	return o.Pool(ctx, d.Mode)
}

func (o *Oscar) Pool(ctx context.Context, mode models.DraftMode) ([]models.CatalogItem, error) {
	if mode != models.DraftModeOscar {
		return nil, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock.Now()
	if o.ranked != nil && now.Sub(o.fetchedAt) < o.ttl {
		return o.ranked, nil
	}

	quotes, err := o.quotes.Quotes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch oscar odds")
		if o.ranked != nil {
			return o.ranked, nil
		}
		return NomineeItems(o.nominees), nil
	}

	o.ranked = NomineeItems(matcher.Enrich(o.nominees, quotes, o.fallback))
	o.fetchedAt = now
	return o.ranked, nil
}

// Source is a catalog usable for both picking and scoring.
type Source interface {
	Items(ctx context.Context, d *models.Draft) ([]models.CatalogItem, error)
	Pool(ctx context.Context, mode models.DraftMode) ([]models.CatalogItem, error)
}

// Router sends movie drafts to Movies and oscar drafts to Nominees.
type Router struct {
	Movies   Source
	Nominees Source
}

func (r Router) Items(ctx context.Context, d *models.Draft) ([]models.CatalogItem, error) {
	src := r.pick(d.Mode)
	if src == nil {
		return nil, nil
	}
	return src.Items(ctx, d)
}

func (r Router) Pool(ctx context.Context, mode models.DraftMode) ([]models.CatalogItem, error) {
	src := r.pick(mode)
	if src == nil {
		return nil, nil
	}
	return src.Pool(ctx, mode)
}

func (r Router) pick(mode models.DraftMode) Source {
	if mode == models.DraftModeOscar {
		return r.Nominees
	}
	return r.Movies
}
