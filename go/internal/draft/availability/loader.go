package availability

import (
	"context"
	"fmt"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Page is one page of catalog results. Pages are 1-based.
type Page struct {
	Items      []models.CatalogItem
	Page       int
	TotalPages int
}

// PageSource fetches catalog pages, e.g. a movie database client.
type PageSource interface {
	FetchPage(ctx context.Context, page int) (Page, error)
}

// Loader walks a PageSource into a Tracker.
type Loader struct {
	source   PageSource
	tracker  *Tracker
	maxPages int
	next     int
	done     bool
}

// NewLoader creates a loader that stops after maxPages (0 means no limit).
func NewLoader(source PageSource, tracker *Tracker, maxPages int) *Loader {
	return &Loader{source: source, tracker: tracker, maxPages: maxPages, next: 1}
}

// LoadNext fetches one more page. more is false once the source is exhausted
// or the page limit is reached.
func (l *Loader) LoadNext(ctx context.Context) (more bool, err error) {
	if l.done {
		return false, nil
	}

	page, err := l.source.FetchPage(ctx, l.next)
	if err != nil {
		return true, fmt.Errorf("failed to fetch catalog page %d: %w", l.next, err)
	}
	added := l.tracker.AddPage(page.Items)

	log.Debug().
		Int("page", l.next).
		Int("total_pages", page.TotalPages).
		Int("added", added).
		Int("pool_size", l.tracker.PoolSize()).
		Msg("catalog page loaded")

	l.next++
	if len(page.Items) == 0 || (page.TotalPages > 0 && l.next > page.TotalPages) ||
		(l.maxPages > 0 && l.next > l.maxPages) {
		l.done = true
	}
	return !l.done, nil
}

// LoadAll fetches pages until the source is exhausted or the limit is reached.
func (l *Loader) LoadAll(ctx context.Context) error {
	for {
		more, err := l.LoadNext(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
