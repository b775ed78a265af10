package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog []models.CatalogItem

func (c staticCatalog) Items(ctx context.Context, d *models.Draft) ([]models.CatalogItem, error) {
	return c, nil
}

var movies = staticCatalog{
	{ID: "movie_1", Title: "Dune: Part Two", Popularity: 91},
	{ID: "movie_2", Title: "Inside Out 2", Popularity: 97},
	{ID: "movie_3", Title: "Wicked", Popularity: 97},
	{ID: "movie_4", Title: "Nosferatu", Popularity: 60},
}

func TestRemaining(t *testing.T) {
	deadline := t0.Add(time.Minute)
	d := &models.Draft{
		Status:        models.DraftStatusInProgress,
		Settings:      models.DraftSettings{PickTimerSeconds: 60},
		TimerDeadline: &deadline,
	}

	r, ok := Remaining(d, t0.Add(10*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 50*time.Second, r)
	assert.False(t, Expired(d, t0.Add(10*time.Second)))

	r, ok = Remaining(d, t0.Add(2*time.Minute))
	assert.True(t, ok)
	assert.Zero(t, r)
	assert.True(t, Expired(d, t0.Add(2*time.Minute)))

	d.Status = models.DraftStatusPaused
	_, ok = Remaining(d, t0)
	assert.False(t, ok)
}

func TestAutoPickWaitsForDeadline(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	coord := NewTimerCoordinator(e, NewHighestRankedPolicy(movies))
	d := startDraft(t, e, movieRequest(2, 30, "A", "B"))

	clock.Advance(29 * time.Second)
	res, err := coord.AutoPick(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Nil(t, res)

	// A direct auto-pick inside the window is refused at commit.
	_, err = e.Apply(context.Background(), PickRequest{
		DraftID: d.ID, SelectionID: "movie_4", ExpectedOverallPick: 1, IsAutoPick: true,
	})
	assert.ErrorIs(t, err, ErrStaleTurn)

	clock.Advance(time.Second)
	res, err = coord.AutoPick(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Pick.WasAutoPick)
	assert.Equal(t, "A", res.Pick.ParticipantID)
	assert.Equal(t, "movie_2", res.Pick.SelectionID)
	assert.Equal(t, "B", res.Draft.CurrentPickerID)
	require.NotNil(t, res.Draft.TimerDeadline)
	assert.Equal(t, clock.Now().Add(30*time.Second), *res.Draft.TimerDeadline)
}

func TestManyObserversCommitOneAutoPick(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	coord := NewTimerCoordinator(e, NewHighestRankedPolicy(movies))
	d := startDraft(t, e, movieRequest(2, 30, "A", "B"))
	clock.Advance(31 * time.Second)

	var wg sync.WaitGroup
	results := make(chan *PickResult, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := coord.AutoPick(context.Background(), d.ID)
			assert.NoError(t, err)
			if res != nil {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	var committed []*PickResult
	for r := range results {
		committed = append(committed, r)
	}
	assert.Len(t, committed, 1)

	after, err := e.CurrentState(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Len(t, after.Picks, 1)
	assert.Equal(t, 2, after.CurrentOverallPick)
}

func TestAutoPickAfterResumeUsesFreshWindow(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	ctx := context.Background()
	coord := NewTimerCoordinator(e, NewHighestRankedPolicy(movies))
	d := startDraft(t, e, movieRequest(2, 30, "A", "B"))

	clock.Advance(10 * time.Second)
	_, err := e.Pause(ctx, d.ID, "")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	res, err := coord.AutoPick(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, res, "paused drafts never auto-pick")

	_, err = e.Resume(ctx, d.ID)
	require.NoError(t, err)
	res, err = coord.AutoPick(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, res, "resume grants a full window")

	clock.Advance(30 * time.Second)
	res, err = coord.AutoPick(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Pick.OverallPick)
}
