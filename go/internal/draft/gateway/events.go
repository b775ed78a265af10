package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robwizzie/FantasyFlicks/go/internal/draft/events"
)

// EventTypeStateSync carries a DraftState to a client that just connected.
const EventTypeStateSync events.EventType = "StateSync"

// DraftEvent is the message pushed to websocket clients
type DraftEvent struct {
	ID        string           `json:"id"`
	DraftID   string           `json:"draft_id"`
	Type      events.EventType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Data      json.RawMessage  `json:"data"`
}

// FromEnvelope converts a bus envelope into a client message.
func FromEnvelope(env events.Envelope) (uuid.UUID, *DraftEvent, error) {
	draftID, err := uuid.Parse(env.DraftID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("parse draft ID: %w", err)
	}
	if _, err := env.Decode(); err != nil {
		return uuid.Nil, nil, err
	}
	return draftID, &DraftEvent{
		ID:        env.EventID,
		DraftID:   env.DraftID,
		Type:      env.EventType,
		Timestamp: env.Timestamp,
		Data:      env.Payload,
	}, nil
}

// NewStateSyncEvent wraps a snapshot for a single client.
func NewStateSyncEvent(state *DraftState) (*DraftEvent, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal draft state: %w", err)
	}
	return &DraftEvent{
		ID:        uuid.NewString(),
		DraftID:   state.Draft.ID.String(),
		Type:      EventTypeStateSync,
		Timestamp: state.ServerTime,
		Data:      data,
	}, nil
}

// ParseEventPayload decodes event data into the payload struct for its type
func ParseEventPayload(event *DraftEvent) (any, error) {
	if event.Type == EventTypeStateSync {
		var state DraftState
		if err := json.Unmarshal(event.Data, &state); err != nil {
			return nil, err
		}
		return &state, nil
	}
	return events.Envelope{EventType: event.Type, Payload: event.Data}.Decode()
}
