package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/robwizzie/FantasyFlicks/go/internal/config"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/gateway"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/orchestrator"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/outbox"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/service"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Store   store.Backend
	Engine  *engine.Engine
	Draft   *service.Service
	Gateway *gateway.Service

	// Set only when the workers run in this process.
	Orchestrator *orchestrator.Orchestrator
	Relay        *outbox.Relay
	Health       *outbox.HealthChecker

	cfg      config.Config
	notifier outbox.Notifier
	js       jetstream.JetStream
	closers  []func() error
}

func setupServices(ctx context.Context, cfg config.Config) (s *Services, err error) {
	s = &Services{cfg: cfg}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	// Database layer → Store → Engine → RPC and gateway
	backend, db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return s, err
	}
	if db != nil {
		s.closers = append(s.closers, db.Close)
	}

	embedded := !cfg.Server.StandaloneWorkers
	if embedded && !cfg.Database.IsPostgres() {
		// No LISTEN/NOTIFY here, so the store wakes the relay itself.
		local := outbox.NewLocalNotifier()
		backend = store.WithCommitHook(backend, local.Notify)
		s.notifier = local
	}
	s.Store = backend

	src, err := cfg.Catalog.Build()
	if err != nil {
		return s, fmt.Errorf("build catalog: %w", err)
	}
	rules, err := cfg.Catalog.Rules(src)
	if err != nil {
		return s, err
	}

	s.Engine = engine.New(backend, clockwork.NewRealClock())
	s.Draft = service.NewService(s.Engine, rules)
	s.Gateway = gateway.NewService(
		gateway.Config{
			ConnectionConfig: gateway.DefaultConnectionConfig(),
			AllowedOrigins:   cfg.Server.AllowedOrigins,
		},
		gateway.NewEngineStateProvider(s.Engine, rules, time.Now),
	)

	if !embedded {
		if cfg.NATS.Enabled {
			nc, js, err := natsutil.Connect(cfg.NATS.Config)
			if err != nil {
				return s, err
			}
			s.closers = append(s.closers, func() error { nc.Close(); return nil })
			s.js = js
		} else {
			log.Warn().Msg("standalone workers without NATS: WebSocket clients get no live events")
		}
		return s, nil
	}

	coordinator := engine.NewTimerCoordinator(s.Engine, engine.NewHighestRankedPolicy(src))
	s.Orchestrator = orchestrator.New(coordinator, backend, nil, cfg.Orchestrator)

	publishers := outbox.Fanout{s.Orchestrator, s.Gateway.Consumer()}
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		pub, err := outbox.NewJetStreamPublisher(ctx, cfg.NATS.Config)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, pub.Close)
		natsConn = pub.Conn()
		publishers = append(publishers, pub)
	}

	if cfg.Database.IsPostgres() {
		listener, err := outbox.NewPGListener(cfg.Database.DSN(), store.NotifyChannel)
		if err != nil {
			return s, err
		}
		s.notifier = listener
	}

	counters := outbox.NewCounters()
	s.Relay = outbox.NewRelay(backend, publishers, cfg.Outbox, counters)
	s.Health = outbox.NewHealthChecker(s.Relay, backend, pinger(db), natsConn, counters, 2*cfg.Outbox.FallbackInterval)
	return s, nil
}

// pinger keeps a nil *sql.DB from becoming a non-nil interface.
func pinger(db *sql.DB) outbox.Pinger {
	if db == nil {
		return nil
	}
	return db
}

// Start runs the background loops until ctx ends. The returned channel
// closes once they have all stopped.
func (s *Services) Start(ctx context.Context) <-chan struct{} {
	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error().Err(err).Str("component", name).Msg("component failed")
			}
		}()
	}

	run("gateway", func(ctx context.Context) error {
		return s.Gateway.Start(ctx, s.js, s.cfg.NATS.Config)
	})
	if s.Orchestrator != nil {
		run("orchestrator", s.Orchestrator.Run)
	}
	if s.Relay != nil {
		run("outbox relay", func(ctx context.Context) error {
			return s.Relay.Run(ctx, s.notifier)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Error().Err(err).Msg("failed to close resource")
		}
	}
}
