// Command orchestrator runs pick timers for live drafts and commits
// auto-picks when a turn expires. Any number of instances may run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robwizzie/FantasyFlicks/go/internal/config"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/engine"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/orchestrator"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load("")
	config.SetupLogging(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Database.Driver == store.DriverMemory {
		log.Fatal().Msg("the orchestrator needs a shared database; the memory store only works inside the API server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	src, err := cfg.Catalog.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("build catalog")
	}

	clock := clockwork.NewRealClock()
	coordinator := engine.NewTimerCoordinator(engine.New(backend, clock), engine.NewHighestRankedPolicy(src))
	orch := orchestrator.New(coordinator, backend, clock, cfg.Orchestrator)

	nc, js, err := natsutil.Connect(cfg.NATS.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to NATS")
	}
	defer nc.Close()
	if err := natsutil.EnsureStream(ctx, js, cfg.NATS.Config); err != nil {
		log.Fatal().Err(err).Msg("ensure stream")
	}
	if err := orch.AttachJetStream(ctx, js, cfg.NATS.Config); err != nil {
		log.Fatal().Err(err).Msg("attach event consumer")
	}

	log.Info().
		Str("database", cfg.Database.Database).
		Str("nats_url", cfg.NATS.URL).
		Int("workers", cfg.Orchestrator.NumWorkers).
		Msg("starting draft orchestrator")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		if !nc.IsConnected() {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"nats_connected": nc.IsConnected(),
			"active_timers":  orch.ActiveTimers(),
		})
	})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HealthPort),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- orch.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		<-errCh
	case err := <-errCh:
		log.Error().Err(err).Msg("orchestrator exited unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health check server shutdown failed")
	}
	log.Info().Msg("draft orchestrator shutdown complete")
}
