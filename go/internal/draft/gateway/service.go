package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
	"github.com/rs/zerolog/log"
)

// Service is the main draft gateway service that handles WebSocket connections and event broadcasting
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
	stateHandler      *StateHandler
	allowedOrigins    []string
}

// Config holds configuration for the draft gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	AllowedOrigins   []string
}

// DefaultConfig returns default configuration for the draft gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new draft gateway service
func NewService(config Config, stateProvider StateProvider) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, stateProvider),
		eventConsumer:     NewEventConsumer(connectionManager),
		stateHandler:      NewStateHandler(stateProvider),
		allowedOrigins:    config.AllowedOrigins,
	}
}

// Start runs the broadcast loop until ctx ends. With a non-nil js it also
// consumes the event stream; otherwise events arrive through Consumer().Publish.
// A consumer failure returns early and the caller should cancel ctx.
func (s *Service) Start(ctx context.Context, js jetstream.JetStream, cfg natsutil.Config) error {
	log.Info().Msg("starting draft gateway service")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.connectionManager.Start(ctx)
	}()

	if js != nil {
		if err := s.eventConsumer.Start(ctx, js, cfg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	<-done

	log.Info().Msg("draft gateway service stopped")
	return nil
}

// Consumer is the in-process event sink.
func (s *Service) Consumer() *EventConsumer {
	return s.eventConsumer
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("draft gateway routes registered")
}

// Handler returns the gateway routes wrapped in the CORS policy.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return NewCORS(s.allowedOrigins...).Handler(mux)
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}

// BroadcastEvent sends an event to every client of a draft
func (s *Service) BroadcastEvent(draftID uuid.UUID, event *DraftEvent) {
	s.connectionManager.BroadcastToDraft(draftID, event)
}
