package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/catalog"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/outbox"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/standings"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil/natstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 20, 19, 0, 0, 0, time.UTC)

var movies = []models.CatalogItem{
	{ID: "barbie", Title: "Barbie", Popularity: 9, Score: 1441.8},
	{ID: "oppenheimer", Title: "Oppenheimer", Popularity: 8, Score: 975.8},
	{ID: "wonka", Title: "Wonka", Popularity: 6, Score: 634.5},
	{ID: "napoleon", Title: "Napoleon", Popularity: 5, Score: 221.4},
}

type fixture struct {
	clock  *clockwork.FakeClock
	mem    *store.Memory
	engine *engine.Engine
	svc    *Service
	srv    *httptest.Server
	draft  *models.Draft
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	mem := store.NewMemory()
	e := engine.New(mem, clock)
	provider := NewEngineStateProvider(e, standings.Rules{Catalog: catalog.NewStatic(movies, nil)}, clock.Now)

	svc := NewService(DefaultConfig(), provider)
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	d, err := e.Create(ctx, engine.CreateDraftRequest{
		Mode: models.DraftModeMovie,
		Settings: models.DraftSettings{
			TurnStyle:           models.TurnStyleSerpentine,
			UnitsPerParticipant: 2,
			PickTimerSeconds:    60,
		},
		ParticipantOrder: []string{"ana", "ben"},
	})
	require.NoError(t, err)
	d, err = e.Start(ctx, d.ID, nil)
	require.NoError(t, err)

	return &fixture{clock: clock, mem: mem, engine: e, svc: svc, srv: srv, draft: d}
}

func (f *fixture) pick(t *testing.T, selection string) *models.Draft {
	t.Helper()
	d, err := f.engine.CurrentState(context.Background(), f.draft.ID)
	require.NoError(t, err)
	res, err := f.engine.Apply(context.Background(), engine.PickRequest{
		DraftID:             d.ID,
		RequesterID:         d.CurrentPickerID,
		SelectionID:         selection,
		ExpectedOverallPick: d.CurrentOverallPick,
	})
	require.NoError(t, err)
	return res.Draft
}

// flush relays unsent outbox events to pub.
func (f *fixture) flush(t *testing.T, pub outbox.Publisher) {
	t.Helper()
	_, err := outbox.NewRelay(f.mem, pub, outbox.DefaultConfig(), nil).ProcessUnsent(context.Background())
	require.NoError(t, err)
}

func (f *fixture) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/draft?draft_id=" + f.draft.ID.String() + "&user_id=" + user
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) DraftEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev DraftEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// readUntil skips events until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want events.EventType) DraftEvent {
	t.Helper()
	for {
		ev := readEvent(t, conn)
		if ev.Type == want {
			return ev
		}
	}
}

func runService(t *testing.T, svc *Service, start func(ctx context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestNewDraftState(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(20 * time.Second)

	d, err := f.engine.CurrentState(context.Background(), f.draft.ID)
	require.NoError(t, err)
	st := NewDraftState(d, f.clock.Now())

	require.NotNil(t, st.CurrentTurn)
	assert.Equal(t, 4, st.TotalPicks)
	assert.Equal(t, 0, st.CompletedPicks)
	assert.Equal(t, "ana", st.CurrentTurn.ParticipantID)
	assert.Equal(t, 1, st.CurrentTurn.Round)
	require.NotNil(t, st.CurrentTurn.TimeRemainingSec)
	assert.Equal(t, 40, *st.CurrentTurn.TimeRemainingSec)

	paused, err := f.engine.Pause(context.Background(), f.draft.ID, "break")
	require.NoError(t, err)
	assert.Nil(t, NewDraftState(paused, f.clock.Now()).CurrentTurn)
}

func TestStateEndpoints(t *testing.T) {
	f := newFixture(t)
	f.pick(t, "barbie")
	f.pick(t, "oppenheimer")

	resp, err := http.Get(f.srv.URL + "/api/drafts/" + f.draft.ID.String() + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st DraftState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 2, st.CompletedPicks)
	require.NotNil(t, st.CurrentTurn)
	assert.Equal(t, "ben", st.CurrentTurn.ParticipantID)
	assert.Equal(t, 2, st.CurrentTurn.Round)

	resp, err = http.Get(f.srv.URL + "/api/drafts/" + f.draft.ID.String() + "/standings")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Standings []standings.Entry `json:"standings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Standings, 2)
	assert.Equal(t, "ana", body.Standings[0].ParticipantID)
	assert.InDelta(t, 1441.8, body.Standings[0].Total, 0.001)

	resp, err = http.Get(f.srv.URL + "/api/drafts/" + uuid.NewString() + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "/api/drafts/nope/standings")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketReceivesSyncAndEvents(t *testing.T) {
	f := newFixture(t)
	runService(t, f.svc, func(ctx context.Context) error { return f.svc.Start(ctx, nil, natsutil.Config{}) })

	conn := f.dial(t, "ben")
	sync := readEvent(t, conn)
	require.Equal(t, EventTypeStateSync, sync.Type)
	payload, err := ParseEventPayload(&sync)
	require.NoError(t, err)
	st := payload.(*DraftState)
	assert.Equal(t, f.draft.ID, st.Draft.ID)
	assert.Equal(t, "ana", st.CurrentTurn.ParticipantID)

	require.Eventually(t, func() bool { return f.svc.GetStats().TotalConnections == 1 }, 2*time.Second, 10*time.Millisecond)

	f.flush(t, f.svc.Consumer())
	f.pick(t, "wonka")
	f.flush(t, f.svc.Consumer())

	made := readUntil(t, conn, events.EventTypePickMade)
	payload, err = ParseEventPayload(&made)
	require.NoError(t, err)
	pm := payload.(*events.PickMadePayload)
	assert.Equal(t, "wonka", pm.SelectionID)
	assert.Equal(t, "ana", pm.ParticipantID)

	next := readUntil(t, conn, events.EventTypePickStarted)
	assert.Equal(t, f.draft.ID.String(), next.DraftID)

	// A client can ask for a fresh snapshot at any time.
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "sync"}))
	again := readUntil(t, conn, EventTypeStateSync)
	payload, err = ParseEventPayload(&again)
	require.NoError(t, err)
	assert.Equal(t, 1, payload.(*DraftState).CompletedPicks)
}

func TestWebSocketRejectsUnknownDraft(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/draft?draft_id=" + uuid.NewString()
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 0, stats.TotalConnections)
}

func TestJetStreamEventsReachClients(t *testing.T) {
	f := newFixture(t)
	cfg := natstest.Config(natstest.RunServer(t))
	ctx := context.Background()

	pub, err := outbox.NewJetStreamPublisher(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { pub.Close() })

	nc, js, err := natsutil.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	runService(t, f.svc, func(ctx context.Context) error { return f.svc.Start(ctx, js, cfg) })

	stream, err := js.Stream(ctx, cfg.StreamName)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		info, err := stream.Info(ctx)
		return err == nil && info.State.Consumers > 0
	}, 5*time.Second, 20*time.Millisecond)

	conn := f.dial(t, "ana")
	require.Equal(t, EventTypeStateSync, readEvent(t, conn).Type)
	require.Eventually(t, func() bool { return f.svc.GetStats().TotalConnections == 1 }, 2*time.Second, 10*time.Millisecond)

	f.pick(t, "napoleon")
	f.flush(t, pub)

	made := readUntil(t, conn, events.EventTypePickMade)
	payload, err := ParseEventPayload(&made)
	require.NoError(t, err)
	assert.Equal(t, "napoleon", payload.(*events.PickMadePayload).SelectionID)
}
