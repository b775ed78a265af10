package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/catalog"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/outbox"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil/natstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)

type fixture struct {
	clock  *clockwork.FakeClock
	mem    *store.Memory
	engine *engine.Engine
	coord  *engine.TimerCoordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	mem := store.NewMemory()
	e := engine.New(mem, clock)
	movies := catalog.NewStatic([]models.CatalogItem{
		{ID: "movie_1", Popularity: 10},
		{ID: "movie_2", Popularity: 50},
		{ID: "movie_3", Popularity: 30},
	}, nil)
	return &fixture{
		clock:  clock,
		mem:    mem,
		engine: e,
		coord:  engine.NewTimerCoordinator(e, engine.NewHighestRankedPolicy(movies)),
	}
}

func (f *fixture) orchestrator(drafts DraftLister) *Orchestrator {
	if drafts == nil {
		drafts = f.mem
	}
	return New(f.coord, drafts, f.clock, Config{NumWorkers: 2})
}

func (f *fixture) start(t *testing.T, timer int) *models.Draft {
	t.Helper()
	ctx := context.Background()
	d, err := f.engine.Create(ctx, engine.CreateDraftRequest{
		Mode: models.DraftModeMovie,
		Settings: models.DraftSettings{
			TurnStyle:           models.TurnStyleSerpentine,
			UnitsPerParticipant: 1,
			PickTimerSeconds:    timer,
		},
		ParticipantOrder: []string{"A", "B"},
	})
	require.NoError(t, err)
	d, err = f.engine.Start(ctx, d.ID, nil)
	require.NoError(t, err)
	return d
}

// deliver relays pending outbox events straight into o.
func (f *fixture) deliver(t *testing.T, o *Orchestrator) {
	t.Helper()
	relay := outbox.NewRelay(f.mem, o, outbox.DefaultConfig(), nil)
	_, err := relay.ProcessUnsent(context.Background())
	require.NoError(t, err)
}

func (f *fixture) picks(t *testing.T, d *models.Draft) int {
	current, err := f.engine.CurrentState(context.Background(), d.ID)
	require.NoError(t, err)
	return len(current.Picks)
}

func runInBackground(t *testing.T, o *Orchestrator) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, o.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctx
}

type noRecovery struct{ *store.Memory }

func (noRecovery) ListDrafts(ctx context.Context, statuses ...models.DraftStatus) ([]*models.Draft, error) {
	return nil, nil
}

func TestExpiredTurnIsAutoPicked(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(noRecovery{f.mem})
	runInBackground(t, o)

	d := f.start(t, 30)
	f.deliver(t, o)
	require.Equal(t, 1, o.ActiveTimers())
	deadline, ok := o.Deadline(d.ID)
	require.True(t, ok)
	assert.Equal(t, t0.Add(30*time.Second), deadline)

	f.clock.Advance(29 * time.Second)
	assert.Never(t, func() bool { return f.picks(t, d) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	f.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return f.picks(t, d) == 1 }, time.Second, 5*time.Millisecond)

	// The next turn is armed from the committed result.
	require.Eventually(t, func() bool {
		next, ok := o.Deadline(d.ID)
		return ok && next.Equal(t0.Add(60*time.Second))
	}, time.Second, 5*time.Millisecond)

	current, err := f.engine.CurrentState(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "movie_2", current.Picks[0].SelectionID)
	assert.True(t, current.Picks[0].WasAutoPick)
}

func TestDuplicateEventsKeepOneTimer(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(nil)
	d := f.start(t, 30)

	unsent, err := f.mem.FetchUnsent(context.Background(), 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for _, e := range unsent {
			require.NoError(t, o.Publish(context.Background(), e))
		}
	}
	assert.Equal(t, 1, o.ActiveTimers())
	_, ok := o.Deadline(d.ID)
	assert.True(t, ok)
}

func TestPauseCancelsAndResumeRearms(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(noRecovery{f.mem})
	runInBackground(t, o)
	ctx := context.Background()

	d := f.start(t, 30)
	f.deliver(t, o)
	require.Equal(t, 1, o.ActiveTimers())

	f.clock.Advance(10 * time.Second)
	_, err := f.engine.Pause(ctx, d.ID, "intermission")
	require.NoError(t, err)
	f.deliver(t, o)
	assert.Equal(t, 0, o.ActiveTimers())

	f.clock.Advance(time.Minute)
	assert.Never(t, func() bool { return f.picks(t, d) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	_, err = f.engine.Resume(ctx, d.ID)
	require.NoError(t, err)
	f.deliver(t, o)
	deadline, ok := o.Deadline(d.ID)
	require.True(t, ok)
	assert.Equal(t, f.clock.Now().Add(30*time.Second), deadline)
}

func TestCompletionCancelsTimer(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(nil)
	ctx := context.Background()

	d := f.start(t, 30)
	f.deliver(t, o)
	require.Equal(t, 1, o.ActiveTimers())

	for _, picker := range []string{"A", "B"} {
		current, err := f.engine.CurrentState(ctx, d.ID)
		require.NoError(t, err)
		_, err = f.engine.Apply(ctx, engine.PickRequest{
			DraftID:             d.ID,
			RequesterID:         picker,
			SelectionID:         "pick_" + picker,
			ExpectedOverallPick: current.CurrentOverallPick,
		})
		require.NoError(t, err)
	}
	f.deliver(t, o)
	assert.Equal(t, 0, o.ActiveTimers())
}

func TestRecoverArmsLiveDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	live := f.start(t, 30)
	paused := f.start(t, 30)
	_, err := f.engine.Pause(ctx, paused.ID, "")
	require.NoError(t, err)
	f.start(t, 0) // untimed

	o := f.orchestrator(nil)
	require.NoError(t, o.Recover(ctx))
	assert.Equal(t, 1, o.ActiveTimers())
	deadline, ok := o.Deadline(live.ID)
	require.True(t, ok)
	assert.Equal(t, t0.Add(30*time.Second), deadline)
}

func TestOverdueDraftIsPickedOnStartup(t *testing.T) {
	f := newFixture(t)
	d := f.start(t, 30)
	f.clock.Advance(45 * time.Second)

	runInBackground(t, f.orchestrator(nil))
	require.Eventually(t, func() bool { return f.picks(t, d) == 1 }, time.Second, 5*time.Millisecond)
}

func TestJetStreamConsumer(t *testing.T) {
	cfg := natstest.Config(natstest.RunServer(t))
	ctx := context.Background()

	pub, err := outbox.NewJetStreamPublisher(ctx, cfg)
	require.NoError(t, err)
	defer pub.Close()

	nc, js, err := natsutil.Connect(cfg)
	require.NoError(t, err)
	defer nc.Close()

	f := newFixture(t)
	o := f.orchestrator(noRecovery{f.mem})
	require.NoError(t, o.AttachJetStream(ctx, js, cfg))
	runInBackground(t, o)

	d := f.start(t, 30)
	_, err = outbox.NewRelay(f.mem, pub, outbox.DefaultConfig(), nil).ProcessUnsent(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := o.Deadline(d.ID)
		return ok
	}, 5*time.Second, 10*time.Millisecond)
}
