package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/store"
	"github.com/rs/zerolog/log"
)

// StateHandler handles HTTP requests for draft state
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetDraftState handles GET /api/drafts/{id}/state
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	draftID, ok := draftIDFromPath(w, r)
	if !ok {
		return
	}

	state, err := h.stateProvider.GetDraftState(r.Context(), draftID)
	if err != nil {
		writeLookupError(w, err, draftID, "failed to get draft state")
		return
	}
	writeJSON(w, state)
}

// HandleGetStandings handles GET /api/drafts/{id}/standings
func (h *StateHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	draftID, ok := draftIDFromPath(w, r)
	if !ok {
		return
	}

	entries, err := h.stateProvider.GetStandings(r.Context(), draftID)
	if err != nil {
		writeLookupError(w, err, draftID, "failed to get standings")
		return
	}
	writeJSON(w, map[string]any{"draft_id": draftID.String(), "standings": entries})
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/drafts/{id}/state", h.HandleGetDraftState)
	mux.HandleFunc("GET /api/drafts/{id}/standings", h.HandleGetStandings)
}

func draftIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid draft ID format", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return draftID, true
}

func writeLookupError(w http.ResponseWriter, err error, draftID uuid.UUID, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Draft not found", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Str("draft_id", draftID.String()).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
