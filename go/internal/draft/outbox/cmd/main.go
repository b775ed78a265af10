// Command outbox relays committed draft events from the store to JetStream.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robwizzie/FantasyFlicks/go/internal/config"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/outbox"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load("")
	config.SetupLogging(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Database.Driver == store.DriverMemory {
		log.Fatal().Msg("the relay needs a shared database; the memory store only works inside the API server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	log.Info().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.Database).
		Msg("connected to database")

	publisher, err := outbox.NewJetStreamPublisher(ctx, cfg.NATS.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("create JetStream publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close publisher")
		}
	}()

	var notifier outbox.Notifier
	if cfg.Database.IsPostgres() {
		listener, err := outbox.NewPGListener(cfg.Database.DSN(), store.NotifyChannel)
		if err != nil {
			log.Fatal().Err(err).Msg("create outbox listener")
		}
		notifier = listener
	} else {
		log.Warn().Dur("interval", cfg.Outbox.FallbackInterval).Msg("no LISTEN/NOTIFY for this driver, polling only")
	}

	counters := outbox.NewCounters()
	relay := outbox.NewRelay(backend, publisher, cfg.Outbox, counters)
	health := outbox.NewHealthChecker(relay, backend, db, publisher.Conn(), counters, 2*cfg.Outbox.FallbackInterval)

	mux := http.NewServeMux()
	mux.Handle("GET /health", health)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HealthPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- relay.Run(ctx, notifier)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		<-errCh
	case err := <-errCh:
		log.Error().Err(err).Msg("relay exited unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health check server shutdown failed")
	}
	log.Info().Msg("outbox relay shutdown complete")
}
