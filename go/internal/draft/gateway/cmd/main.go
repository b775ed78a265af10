// Command gateway serves draft WebSocket clients. State comes from the draft
// API over RPC and live events from JetStream, so instances scale freely.
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
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/gateway"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/service"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load("")
	config.SetupLogging(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, js, err := natsutil.Connect(cfg.NATS.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to NATS")
	}
	defer nc.Close()
	if err := natsutil.EnsureStream(ctx, js, cfg.NATS.Config); err != nil {
		log.Fatal().Err(err).Msg("ensure stream")
	}

	log.Info().
		Str("api_url", cfg.Server.APIURL).
		Str("nats_url", cfg.NATS.URL).
		Str("port", cfg.Server.GatewayPort).
		Msg("starting draft gateway")

	client := service.NewClient(&http.Client{Timeout: 30 * time.Second}, cfg.Server.APIURL)
	gatewayService := gateway.NewService(
		gateway.Config{
			ConnectionConfig: gateway.DefaultConnectionConfig(),
			AllowedOrigins:   cfg.Server.AllowedOrigins,
		},
		gateway.NewDraftStateProvider(client),
	)

	mux := http.NewServeMux()
	gatewayService.RegisterRoutes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if !nc.IsConnected() {
			http.Error(w, "NATS disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.GatewayPort),
		Handler:     gateway.NewCORS(cfg.Server.AllowedOrigins...).Handler(mux),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gatewayService.Start(ctx, js, cfg.NATS.Config)
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		<-errCh
	case err := <-errCh:
		log.Error().Err(err).Msg("gateway service exited unexpectedly")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("draft gateway shutdown complete")
}
