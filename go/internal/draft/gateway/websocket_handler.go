package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for draft connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	stateProvider     StateProvider
}

// NewWebSocketHandler creates a new WebSocket handler. With a provider, each
// client gets a StateSync message first and may request another with
// {"type":"sync"}.
func NewWebSocketHandler(cm *ConnectionManager, provider StateProvider) *WebSocketHandler {
	h := &WebSocketHandler{
		connectionManager: cm,
		stateProvider:     provider,
	}
	if provider != nil {
		cm.SetSyncFunc(h.stateSync)
	}
	return h
}

func (h *WebSocketHandler) stateSync(ctx context.Context, draftID uuid.UUID) (*DraftEvent, error) {
	state, err := h.stateProvider.GetDraftState(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return NewStateSyncEvent(state)
}

// HandleDraftConnection handles WebSocket connections for a specific draft
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	draftIDStr := r.URL.Query().Get("draft_id")
	if draftIDStr == "" {
		http.Error(w, "draft_id is required", http.StatusBadRequest)
		return
	}

	draftID, err := uuid.Parse(draftIDStr)
	if err != nil {
		http.Error(w, "invalid draft_id format", http.StatusBadRequest)
		return
	}

	// Identity is issued upstream; the gateway trusts the query parameter.
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	var initial *DraftEvent
	if h.stateProvider != nil {
		initial, err = h.stateSync(r.Context(), draftID)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("connecting without state sync")
		}
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID, draftID, initial); err != nil {
		// The upgrader has already replied to the client.
		log.Error().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/draft", h.HandleDraftConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
