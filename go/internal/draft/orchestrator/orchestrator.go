// Package orchestrator keeps one timer per live draft and turns expired
// pick windows into auto-picks.
//
// It is driven by domain events (from JetStream or handed over in-process)
// and by periodic recovery from the store, so a restarted or extra instance
// converges on the same deadlines. Committing an auto-pick is safe from any
// number of instances because the engine lets only one commit per turn.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	eventChannelBufferSize = 100
	retryDelay             = time.Second
)

// AutoPicker commits the auto-pick for an expired turn. *engine.TimerCoordinator satisfies it.
type AutoPicker interface {
	AutoPick(ctx context.Context, draftID uuid.UUID) (*engine.PickResult, error)
}

// DraftLister reads drafts for recovery.
type DraftLister interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	ListDrafts(ctx context.Context, statuses ...models.DraftStatus) ([]*models.Draft, error)
}

type Config struct {
	NumWorkers int `yaml:"num_workers"`
	// RecoverInterval is how often timers are rebuilt from the store. 0 disables polling.
	RecoverInterval time.Duration `yaml:"recover_interval"`
}

func DefaultConfig() Config {
	return Config{
		NumWorkers:      10,
		RecoverInterval: 30 * time.Second,
	}
}

type Orchestrator struct {
	picker     AutoPicker
	drafts     DraftLister
	clock      clockwork.Clock
	cfg        Config
	instanceID string // short id for logging

	workCh chan uuid.UUID

	// Track in-flight work to prevent duplicate processing
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex

	activeTimers   map[uuid.UUID]*pendingTimer
	activeTimersMu sync.Mutex

	consumer jetstream.Consumer
}

// New creates an orchestrator. A nil clock means the wall clock.
func New(picker AutoPicker, drafts DraftLister, clock clockwork.Clock, cfg Config) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	return &Orchestrator{
		picker:       picker,
		drafts:       drafts,
		clock:        clock,
		cfg:          cfg,
		instanceID:   uuid.New().String()[:8],
		workCh:       make(chan uuid.UUID, cfg.NumWorkers*2),
		inFlight:     make(map[uuid.UUID]bool),
		activeTimers: make(map[uuid.UUID]*pendingTimer),
	}
}

// Run starts the worker pool and, when attached, the JetStream consumer. It
// recovers timers from the store on start and every RecoverInterval.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().
		Str("instance", o.instanceID).
		Int("workers", o.cfg.NumWorkers).
		Bool("jetstream", o.consumer != nil).
		Msg("orchestrator started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	for i := 0; i < o.cfg.NumWorkers; i++ {
		wg.Add(1)
		go o.worker(workerCtx, &wg, i)
	}
	defer func() {
		log.Info().Str("instance", o.instanceID).Msg("shutting down workers")
		o.cancelAll()
		cancelWorkers()
		wg.Wait()
		log.Info().Str("instance", o.instanceID).Msg("all workers shut down")
	}()

	var eventCh chan jetstream.Msg
	if o.consumer != nil {
		eventCh = make(chan jetstream.Msg, eventChannelBufferSize)
		consumeCtx, err := o.consumer.Consume(func(msg jetstream.Msg) {
			select {
			case eventCh <- msg:
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return err
		}
		defer consumeCtx.Stop()
	}

	if err := o.Recover(ctx); err != nil {
		log.Error().Err(err).Str("instance", o.instanceID).Msg("initial recovery failed")
	}

	var recoverCh <-chan time.Time
	if o.cfg.RecoverInterval > 0 {
		ticker := o.clock.NewTicker(o.cfg.RecoverInterval)
		defer ticker.Stop()
		recoverCh = ticker.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("instance", o.instanceID).Msg("orchestrator shutdown requested")
			return nil
		case msg := <-eventCh:
			if err := o.processEvent(ctx, msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process event")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
			} else if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		case <-recoverCh:
			if err := o.Recover(ctx); err != nil {
				log.Error().Err(err).Str("instance", o.instanceID).Msg("recovery failed")
			}
		}
	}
}

// Recover schedules a timer for every in-progress draft with a deadline.
func (o *Orchestrator) Recover(ctx context.Context) error {
	drafts, err := o.drafts.ListDrafts(ctx, models.DraftStatusInProgress)
	if err != nil {
		return err
	}
	for _, d := range drafts {
		o.scheduleFromState(d)
	}
	log.Debug().Str("instance", o.instanceID).Int("drafts", len(drafts)).Msg("recovered draft timers")
	return nil
}

func (o *Orchestrator) scheduleFromState(d *models.Draft) {
	if d.Status != models.DraftStatusInProgress || !d.HasTimer() || d.TimerDeadline == nil {
		o.cancelTimer(d.ID)
		return
	}
	o.scheduleAt(d.ID, *d.TimerDeadline)
}
