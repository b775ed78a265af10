package main

import (
	"fmt"
	"net/http"

	"github.com/robwizzie/FantasyFlicks/go/internal/config"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/gateway"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/service"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	registerServices(mux, services)
	setupHealthCheck(mux, services)

	handler := gateway.NewCORS(cfg.Server.AllowedOrigins...).Handler(mux)

	// HTTP/2 without TLS so gRPC clients can reach the Connect handlers.
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	draftPath, draftHandler := service.NewHandler(services.Draft)
	mux.Handle(draftPath, draftHandler)

	services.Gateway.RegisterRoutes(mux)
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
	if services.Health != nil {
		mux.Handle("GET /health/outbox", services.Health)
	}
}
