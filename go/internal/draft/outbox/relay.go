package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

type Config struct {
	FallbackInterval time.Duration `yaml:"fallback_interval"` // How often to poll for missed events
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	BatchSize        int           `yaml:"batch_size"` // Max events to fetch per batch
}

func DefaultConfig() Config {
	return Config{
		FallbackInterval: 30 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Repository is the outbox side of the draft store.
type Repository interface {
	FetchUnsent(ctx context.Context, limit int) ([]events.OutboxEvent, error)
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*events.OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Publisher delivers one outbox event to the bus.
type Publisher interface {
	Publish(ctx context.Context, event events.OutboxEvent) error
}

// Notifier delivers event ids as they are committed. An empty id asks for
// the whole backlog. A nil Notifier leaves the relay on fallback polling alone.
type Notifier interface {
	Notifications() <-chan string
	Ping() error
	Close() error
}

// Relay moves committed outbox events to a publisher and marks them sent.
// Delivery is at least once; consumers dedupe by event id.
type Relay struct {
	repo      Repository
	publisher Publisher
	metrics   MetricsCollector
	cfg       Config

	mu sync.Mutex // serializes batches so events go out in commit order

	statsMu   sync.Mutex
	processed uint64
	lastEvent time.Time
	running   bool
}

func NewRelay(repo Repository, publisher Publisher, cfg Config, metrics MetricsCollector) *Relay {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &Relay{repo: repo, publisher: publisher, metrics: metrics, cfg: cfg}
}

// Run relays until ctx ends. It drains the backlog first, then reacts to
// notifications and polls every FallbackInterval for anything missed.
func (r *Relay) Run(ctx context.Context, notifier Notifier) error {
	log.Info().
		Dur("ping_interval", r.cfg.PingInterval).
		Dur("fallback_interval", r.cfg.FallbackInterval).
		Bool("notifications", notifier != nil).
		Msg("outbox relay started")

	r.setRunning(true)
	defer r.setRunning(false)

	if _, err := r.ProcessUnsent(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}

	fallbackTicker := time.NewTicker(r.cfg.FallbackInterval)
	defer fallbackTicker.Stop()

	var notes <-chan string
	var pings <-chan time.Time
	if notifier != nil {
		notes = notifier.Notifications()
		pingTicker := time.NewTicker(r.cfg.PingInterval)
		defer pingTicker.Stop()
		pings = pingTicker.C
		defer notifier.Close()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay shutting down")
			return nil
		case id, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			if id == "" {
				if _, err := r.ProcessUnsent(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process unsent events")
				}
				continue
			}
			if err := r.HandleNotification(ctx, id); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.C:
			if _, err := r.ProcessUnsent(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent events")
			}
		case <-pings:
			if err := notifier.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// HandleNotification publishes the event named by a notification payload.
// Any older unsent events are flushed first so order is kept.
func (r *Relay) HandleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	event, err := r.repo.FetchOutboxByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}
	if event.SentAt != nil {
		return nil
	}

	if _, err := r.processBatch(ctx); err != nil {
		return err
	}
	log.Debug().Str("event_id", id.String()).Msg("notification handled")
	return nil
}

// ProcessUnsent publishes every unsent event in commit order and returns how
// many were sent. It stops at the first event that cannot be published so
// later events are not delivered ahead of it.
func (r *Relay) ProcessUnsent(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processBatch(ctx)
}

func (r *Relay) processBatch(ctx context.Context) (int, error) {
	start := time.Now()
	sent := 0
	defer func() {
		if sent > 0 {
			r.metrics.RecordBatchProcessed(sent, time.Since(start))
		}
	}()

	for {
		unsent, err := r.repo.FetchUnsent(ctx, r.cfg.BatchSize)
		if err != nil {
			return sent, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
		}
		r.metrics.RecordOutboxLag(len(unsent))
		if len(unsent) == 0 {
			return sent, nil
		}

		for _, event := range unsent {
			if err := r.publishWithRetry(ctx, event); err != nil {
				return sent, fmt.Errorf("failed to publish event %s: %w", event.ID, err)
			}
			if err := r.repo.MarkSent(ctx, event.ID); err != nil {
				return sent, fmt.Errorf("failed to mark outbox event %s as sent: %w", event.ID, err)
			}
			sent++
			r.statsMu.Lock()
			r.processed++
			r.lastEvent = time.Now()
			r.statsMu.Unlock()
			log.Debug().
				Str("event_id", event.ID.String()).
				Str("event_type", string(event.EventType)).
				Str("draft_id", event.DraftID.String()).
				Msg("published and marked event as sent")
		}

		if r.cfg.BatchSize <= 0 || len(unsent) < r.cfg.BatchSize {
			return sent, nil
		}
	}
}

// publishWithRetry attempts to publish an outbox event with a linear backoff.
func (r *Relay) publishWithRetry(ctx context.Context, event events.OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		started := time.Now()
		err := r.publisher.Publish(ctx, event)
		r.metrics.RecordPublishAttempt(string(event.EventType), attempt+1, err == nil)
		r.metrics.RecordEventProcessed(string(event.EventType), err == nil, time.Since(started))
		if err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

// Stats returns how many events were relayed and when the last one went out.
func (r *Relay) Stats() (uint64, time.Time) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.processed, r.lastEvent
}

// Running reports whether Run is active.
func (r *Relay) Running() bool {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.running
}

func (r *Relay) setRunning(v bool) {
	r.statsMu.Lock()
	r.running = v
	r.statsMu.Unlock()
}
