package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/availability"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
movies:
  - id: movie_693134
    title: "Dune: Part Two"
    popularity: 312.5
    score: 714.4
  - id: movie_1022789
    title: Inside Out 2
    popularity: 280
nominees:
  - id: bp_oppenheimer
    category: Best Picture
    name: Oppenheimer
    popularity: 0.9
  - id: ba_stone
    category: Best Actress
    name: Emma Stone
    work_title: Poor Things
`

func TestDecodeStatic(t *testing.T) {
	s, err := DecodeStatic(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	movies, err := s.Items(context.Background(), &models.Draft{Mode: models.DraftModeMovie})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Dune: Part Two", movies[0].Title)
	assert.Equal(t, 714.4, movies[0].Score)

	nominees, err := s.Items(context.Background(), &models.Draft{Mode: models.DraftModeOscar})
	require.NoError(t, err)
	require.Len(t, nominees, 2)
	assert.Equal(t, "Best Actress", nominees[1].Category)
	assert.Equal(t, "Emma Stone", nominees[1].Title)
}

func TestLoadStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	s, err := LoadStatic(path)
	require.NoError(t, err)
	movies, err := s.Items(context.Background(), &models.Draft{})
	require.NoError(t, err)
	assert.Len(t, movies, 2)

	_, err = LoadStatic(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type flakySource struct {
	pages [][]models.CatalogItem
	fail  map[int]int // page -> remaining failures
	calls int
}

func (f *flakySource) FetchPage(ctx context.Context, page int) (availability.Page, error) {
	f.calls++
	if f.fail[page] > 0 {
		f.fail[page]--
		return availability.Page{}, errors.New("upstream unavailable")
	}
	return availability.Page{Items: f.pages[page-1], Page: page, TotalPages: len(f.pages)}, nil
}

func TestPagedRemovesPicksAndRetriesFailedPages(t *testing.T) {
	src := &flakySource{
		pages: [][]models.CatalogItem{
			{{ID: "m1"}, {ID: "m2"}},
			{{ID: "m3"}, {ID: "m4"}},
		},
		fail: map[int]int{2: 1},
	}
	clock := clockwork.NewFakeClock()
	p := NewPaged(src, 0, clock)
	d := &models.Draft{Picks: []models.DraftPick{{SelectionID: "m1"}}}

	items, err := p.Items(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []models.CatalogItem{{ID: "m2"}}, items)

	clock.Advance(PagedRetryDelay)
	items, err = p.Items(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []models.CatalogItem{{ID: "m2"}, {ID: "m3"}, {ID: "m4"}}, items)

	calls := src.calls
	_, err = p.Items(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, calls, src.calls, "complete catalogs are not refetched")
}

func TestPagedFailsWithEmptyPool(t *testing.T) {
	src := &flakySource{pages: [][]models.CatalogItem{{{ID: "m1"}}}, fail: map[int]int{1: 1}}
	_, err := NewPaged(src, 0, nil).Items(context.Background(), &models.Draft{})
	assert.Error(t, err)
}

func TestPagedBacksOffAfterFailedPage(t *testing.T) {
	src := &flakySource{
		pages: [][]models.CatalogItem{{{ID: "m1"}}, {{ID: "m2"}}},
		fail:  map[int]int{1: 1, 2: 1},
	}
	clock := clockwork.NewFakeClock()
	p := NewPaged(src, 0, clock)
	ctx := context.Background()

	_, err := p.Pool(ctx, models.DraftModeMovie)
	require.Error(t, err)
	_, err = p.Pool(ctx, models.DraftModeMovie)
	require.Error(t, err)
	assert.Equal(t, 1, src.calls, "an empty pool keeps its last error until the delay passes")

	clock.Advance(PagedRetryDelay)
	pool, err := p.Pool(ctx, models.DraftModeMovie)
	require.NoError(t, err)
	assert.Equal(t, []models.CatalogItem{{ID: "m1"}}, pool)
	assert.Equal(t, 3, src.calls)

	for range 5 {
		pool, err = p.Items(ctx, &models.Draft{})
		require.NoError(t, err)
		assert.Len(t, pool, 1)
	}
	assert.Equal(t, 3, src.calls, "a partial pool is served without refetching")

	clock.Advance(PagedRetryDelay)
	pool, err = p.Pool(ctx, models.DraftModeMovie)
	require.NoError(t, err)
	assert.Len(t, pool, 2)
	assert.Equal(t, 4, src.calls)
}

func TestPagedPoolKeepsPickedMovies(t *testing.T) {
	src := &flakySource{pages: [][]models.CatalogItem{{{ID: "m1"}, {ID: "m2"}}}}
	p := NewPaged(src, 0, nil)

	pool, err := p.Pool(context.Background(), models.DraftModeMovie)
	require.NoError(t, err)
	assert.Len(t, pool, 2)

	nominees, err := p.Pool(context.Background(), models.DraftModeOscar)
	require.NoError(t, err)
	assert.Empty(t, nominees)
}

type quoteFunc func() ([]models.MarketQuote, error)

func (f quoteFunc) Quotes(ctx context.Context) ([]models.MarketQuote, error) { return f() }

func TestOscarRanksByOddsAndCaches(t *testing.T) {
	nominees := []models.Nominee{
		{ID: "bp_oppenheimer", Category: "Best Picture", Name: "Oppenheimer", Popularity: 0.2},
		{ID: "bp_barbie", Category: "Best Picture", Name: "Barbie", Popularity: 0.7},
	}
	calls := 0
	fail := false
	quotes := quoteFunc(func() ([]models.MarketQuote, error) {
		calls++
		if fail {
			return nil, errors.New("market closed")
		}
		return []models.MarketQuote{{Title: "Oppenheimer", Probability: 0.93}}, nil
	})
	clock := clockwork.NewFakeClock()
	o := NewOscar(nominees, quotes, 0.01, time.Minute, clock)
	oscar := &models.Draft{Mode: models.DraftModeOscar}

	items, err := o.Items(context.Background(), oscar)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0.93, items[0].Popularity)
	assert.Equal(t, 0.01, items[1].Popularity)
	assert.Equal(t, "Best Picture", items[0].Category)

	_, err = o.Items(context.Background(), oscar)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// After the ttl a failed refresh keeps the last good ranking.
	clock.Advance(2 * time.Minute)
	fail = true
	items, err = o.Items(context.Background(), oscar)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0.93, items[0].Popularity)

	movies, err := o.Items(context.Background(), &models.Draft{Mode: models.DraftModeMovie})
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestOscarFallsBackToNomineePopularity(t *testing.T) {
	nominees := []models.Nominee{{ID: "ba_stone", Category: "Best Actress", Name: "Emma Stone", Popularity: 0.6}}
	down := quoteFunc(func() ([]models.MarketQuote, error) { return nil, errors.New("timeout") })

	items, err := NewOscar(nominees, down, 0, time.Minute, nil).Pool(context.Background(), models.DraftModeOscar)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0.6, items[0].Popularity)
}

func TestRouter(t *testing.T) {
	movies := NewStatic([]models.CatalogItem{{ID: "m1"}}, nil)
	nominees := NewStatic(nil, []models.Nominee{{ID: "n1", Category: "Best Picture", Name: "Oppenheimer"}})
	r := Router{Movies: movies, Nominees: nominees}

	got, err := r.Items(context.Background(), &models.Draft{Mode: models.DraftModeMovie})
	require.NoError(t, err)
	assert.Equal(t, "m1", got[0].ID)

	got, err = r.Pool(context.Background(), models.DraftModeOscar)
	require.NoError(t, err)
	assert.Equal(t, "n1", got[0].ID)

	got, err = Router{}.Items(context.Background(), &models.Draft{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
