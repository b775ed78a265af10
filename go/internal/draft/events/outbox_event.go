package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event emitted by a draft mutation.
type EventType string

const (
	EventTypeDraftStarted   EventType = "DraftStarted"
	EventTypePickStarted    EventType = "PickStarted"
	EventTypePickMade       EventType = "PickMade"
	EventTypeDraftPaused    EventType = "DraftPaused"
	EventTypeDraftResumed   EventType = "DraftResumed"
	EventTypeDraftCompleted EventType = "DraftCompleted"
)

// OutboxEvent is a domain event persisted in the same transaction as the state change that produced it.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	EventType EventType       `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// NewOutboxEvent marshals payload into a fresh unsent event.
func NewOutboxEvent(draftID uuid.UUID, eventType EventType, payload any, at time.Time) (OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return OutboxEvent{
		ID:        uuid.New(),
		DraftID:   draftID,
		EventType: eventType,
		Payload:   data,
		CreatedAt: at,
	}, nil
}

// Envelope is the wire format published to the event bus.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType EventType       `json:"eventType"`
	DraftID   string          `json:"draftId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an outbox event for publishing.
func NewEnvelope(event OutboxEvent, at time.Time) Envelope {
	return Envelope{
		EventID:   event.ID.String(),
		EventType: event.EventType,
		DraftID:   event.DraftID.String(),
		Timestamp: at.UTC(),
		Payload:   event.Payload,
	}
}

// Decode unmarshals the envelope payload into the struct matching its event type.
func (e Envelope) Decode() (any, error) {
	var target any
	switch e.EventType {
	case EventTypeDraftStarted:
		target = &DraftStartedPayload{}
	case EventTypePickStarted:
		target = &PickStartedPayload{}
	case EventTypePickMade:
		target = &PickMadePayload{}
	case EventTypeDraftPaused:
		target = &DraftPausedPayload{}
	case EventTypeDraftResumed:
		target = &DraftResumedPayload{}
	case EventTypeDraftCompleted:
		target = &DraftCompletedPayload{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.EventType)
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", e.EventType, err)
	}
	return target, nil
}
