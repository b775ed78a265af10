package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robwizzie/FantasyFlicks/go/internal/dbconfig"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQL {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=immediate&_busy_timeout=5000", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := NewSQL(db, "sqlite3")
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func backends(t *testing.T) map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend { return NewMemory() },
		"sqlite": func(t *testing.T) Backend { return newSQLiteStore(t) },
	}
}

func sampleDraft() *models.Draft {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	d := &models.Draft{
		ID:     uuid.New(),
		Mode:   models.DraftModeMovie,
		Status: models.DraftStatusInProgress,
		Settings: models.DraftSettings{
			TurnStyle:           models.TurnStyleSerpentine,
			UnitsPerParticipant: 2,
			PickTimerSeconds:    60,
		},
		ParticipantOrder:   []string{"alice", "bob"},
		CurrentOverallPick: 1,
		CurrentPickerID:    "alice",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	d.ApplyDefaults()
	return d
}

func appendPick(selection string) UpdateFunc {
	return func(d *models.Draft) (*Mutation, error) {
		p := models.DraftPick{
			DraftID:       d.ID,
			OverallPick:   d.CurrentOverallPick,
			ParticipantID: d.CurrentPickerID,
			SelectionID:   selection,
			Round:         1,
			CommittedAt:   time.Date(2026, 3, 1, 18, 0, 30, 0, time.UTC),
		}
		d.Picks = append(d.Picks, p)
		d.CurrentOverallPick++
		evt, err := events.NewOutboxEvent(d.ID, events.EventTypePickMade, events.PickMadePayload{SelectionID: selection}, p.CommittedAt)
		if err != nil {
			return nil, err
		}
		return &Mutation{Pick: &p, Events: []events.OutboxEvent{evt}}, nil
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			d := sampleDraft()

			require.NoError(t, s.CreateDraft(ctx, d))
			assert.ErrorIs(t, s.CreateDraft(ctx, d), ErrAlreadyExists)

			got, err := s.GetDraft(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, d.ParticipantOrder, got.ParticipantOrder)
			assert.Equal(t, d.Settings, got.Settings)
			assert.Equal(t, models.DraftStatusInProgress, got.Status)
			assert.Equal(t, "alice", got.CurrentPickerID)
			assert.Empty(t, got.Picks)

			_, err = s.GetDraft(ctx, uuid.New())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreUpdateAppendsPickAndOutbox(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			d := sampleDraft()
			require.NoError(t, s.CreateDraft(ctx, d))

			updated, err := s.Update(ctx, d.ID, appendPick("movie_42"))
			require.NoError(t, err)
			assert.Equal(t, int64(1), updated.Revision)
			assert.Equal(t, 2, updated.CurrentOverallPick)

			picks, err := s.ListPicks(ctx, d.ID)
			require.NoError(t, err)
			require.Len(t, picks, 1)
			assert.Equal(t, "movie_42", picks[0].SelectionID)
			assert.Equal(t, 1, picks[0].OverallPick)

			unsent, err := s.FetchUnsent(ctx, 10)
			require.NoError(t, err)
			require.Len(t, unsent, 1)
			assert.Equal(t, events.EventTypePickMade, unsent[0].EventType)

			byID, err := s.FetchOutboxByID(ctx, unsent[0].ID)
			require.NoError(t, err)
			assert.JSONEq(t, string(unsent[0].Payload), string(byID.Payload))

			require.NoError(t, s.MarkSent(ctx, unsent[0].ID))
			unsent, err = s.FetchUnsent(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, unsent)
		})
	}
}

func TestStoreUpdateAbortsOnError(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			d := sampleDraft()
			require.NoError(t, s.CreateDraft(ctx, d))

			boom := errors.New("boom")
			_, err := s.Update(ctx, d.ID, func(d *models.Draft) (*Mutation, error) {
				d.Status = models.DraftStatusCompleted
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := s.GetDraft(ctx, d.ID)
			require.NoError(t, err)
			assert.Equal(t, models.DraftStatusInProgress, got.Status)
			assert.Equal(t, int64(0), got.Revision)
		})
	}
}

func TestStoreNilMutationWritesNothing(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			d := sampleDraft()
			require.NoError(t, s.CreateDraft(ctx, d))

			got, err := s.Update(ctx, d.ID, func(d *models.Draft) (*Mutation, error) { return nil, nil })
			require.NoError(t, err)
			assert.Equal(t, int64(0), got.Revision)
		})
	}
}

func TestStoreConcurrentUpdatesSerialize(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			d := sampleDraft()
			require.NoError(t, s.CreateDraft(ctx, d))

			errTaken := errors.New("turn taken")
			var wg sync.WaitGroup
			results := make(chan error, 2)
			for _, sel := range []string{"movie_1", "movie_2"} {
				wg.Add(1)
				go func(sel string) {
					defer wg.Done()
					_, err := s.Update(ctx, d.ID, func(d *models.Draft) (*Mutation, error) {
						if len(d.Picks) > 0 {
							return nil, errTaken
						}
						return appendPick(sel)(d)
					})
					results <- err
				}(sel)
			}
			wg.Wait()
			close(results)

			var ok, taken int
			for err := range results {
				switch {
				case err == nil:
					ok++
				case errors.Is(err, errTaken):
					taken++
				default:
					t.Fatalf("unexpected error: %v", err)
				}
			}
			assert.Equal(t, 1, ok)
			assert.Equal(t, 1, taken)

			picks, err := s.ListPicks(ctx, d.ID)
			require.NoError(t, err)
			assert.Len(t, picks, 1)
		})
	}
}

func TestStoreRejectsDuplicatePickNumber(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			d := sampleDraft()
			require.NoError(t, s.CreateDraft(ctx, d))

			_, err := s.Update(ctx, d.ID, appendPick("movie_1"))
			require.NoError(t, err)

			// A writer that ignores the advanced counter still cannot reuse pick 1.
			_, err = s.Update(ctx, d.ID, func(d *models.Draft) (*Mutation, error) {
				d.CurrentOverallPick = 1
				return appendPick("movie_2")(d)
			})
			assert.ErrorIs(t, err, ErrConflict)

			picks, err := s.ListPicks(ctx, d.ID)
			require.NoError(t, err)
			require.Len(t, picks, 1)
			assert.Equal(t, "movie_1", picks[0].SelectionID)
		})
	}
}

func TestStoreSubscribeReceivesCommittedSnapshots(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			d := sampleDraft()
			require.NoError(t, s.CreateDraft(ctx, d))

			ch, cancel := s.Subscribe(ctx, d.ID)
			defer cancel()

			_, err := s.Update(ctx, d.ID, appendPick("movie_9"))
			require.NoError(t, err)

			select {
			case snap := <-ch:
				require.Len(t, snap.Picks, 1)
				assert.Equal(t, "movie_9", snap.Picks[0].SelectionID)
			case <-time.After(time.Second):
				t.Fatal("no snapshot delivered")
			}
		})
	}
}

func TestStoreListDraftsByStatus(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			active := sampleDraft()
			pending := sampleDraft()
			pending.Status = models.DraftStatusPending
			pending.CreatedAt = active.CreatedAt.Add(time.Minute)
			require.NoError(t, s.CreateDraft(ctx, active))
			require.NoError(t, s.CreateDraft(ctx, pending))

			got, err := s.ListDrafts(ctx, models.DraftStatusInProgress)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, active.ID, got[0].ID)

			all, err := s.ListDrafts(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestSQLRevisionGuard(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	d := sampleDraft()
	require.NoError(t, s.CreateDraft(ctx, d))

	q := s.newQueries(s.db)
	d.Revision = 1
	require.NoError(t, q.updateDraft(ctx, d, 0))

	d.Revision = 2
	assert.ErrorIs(t, q.updateDraft(ctx, d, 0), ErrConflict)
}

func TestWithCommitHook(t *testing.T) {
	ctx := context.Background()
	var commits int
	s := WithCommitHook(NewMemory(), func() { commits++ })
	d := sampleDraft()

	require.NoError(t, s.CreateDraft(ctx, d))
	assert.Error(t, s.CreateDraft(ctx, d))
	assert.Equal(t, 1, commits)

	_, err := s.Update(ctx, d.ID, appendPick("barbie"))
	require.NoError(t, err)
	_, err = s.Update(ctx, d.ID, func(*models.Draft) (*Mutation, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, 2, commits)

	unsent, err := s.FetchUnsent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, unsent, 1)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, db, err := Open(ctx, dbconfig.Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.IsType(t, &Memory{}, s)

	s, db, err = Open(ctx, dbconfig.Config{Driver: "sqlite3", Path: t.TempDir() + "/drafts.db"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	d := sampleDraft()
	require.NoError(t, s.CreateDraft(ctx, d))
	_, err = s.GetDraft(ctx, d.ID)
	assert.NoError(t, err)
}
