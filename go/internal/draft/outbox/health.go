package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
)

// pendingAlertThreshold is the backlog size reported as a warning.
const pendingAlertThreshold = 1000

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	LastEventTime     time.Time `json:"last_event_time"`
	EventsProcessed   uint64    `json:"events_processed"`
	PendingEvents     int       `json:"pending_events"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	RelayActive       bool      `json:"relay_active"`
	Metrics           *Snapshot `json:"metrics,omitempty"`
	Errors            []string  `json:"errors"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthChecker struct {
	relay     *Relay
	repo      Repository
	db        Pinger     // optional
	natsConn  *nats.Conn // optional
	counters  *Counters  // optional
	threshold time.Duration
}

// NewHealthChecker reports on relay. threshold is how long pending events may
// wait before the relay counts as stalled.
func NewHealthChecker(relay *Relay, repo Repository, db Pinger, natsConn *nats.Conn, counters *Counters, threshold time.Duration) *HealthChecker {
	return &HealthChecker{
		relay:     relay,
		repo:      repo,
		db:        db,
		natsConn:  natsConn,
		counters:  counters,
		threshold: threshold,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:           true,
		DatabaseConnected: true,
		Errors:            []string{},
	}

	status.EventsProcessed, status.LastEventTime = h.relay.Stats()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			status.DatabaseConnected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
	}

	if h.natsConn != nil {
		status.NATSConnected = h.natsConn.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	status.RelayActive = h.relay.Running()
	if !status.RelayActive {
		status.Healthy = false
		status.Errors = append(status.Errors, "relay not active")
	}

	if status.DatabaseConnected {
		pending, err := h.repo.FetchUnsent(ctx, pendingAlertThreshold+1)
		if err != nil {
			status.Errors = append(status.Errors, fmt.Sprintf("failed to count pending events: %v", err))
		} else {
			status.PendingEvents = len(pending)
			if status.PendingEvents > pendingAlertThreshold {
				status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", status.PendingEvents))
			}
			if len(pending) > 0 && time.Since(pending[0].CreatedAt) > h.threshold {
				status.Healthy = false
				status.Errors = append(status.Errors, fmt.Sprintf("oldest pending event waiting for %s", time.Since(pending[0].CreatedAt).Round(time.Second)))
			}
		}
	}

	if h.counters != nil {
		snap := h.counters.Snapshot()
		status.Metrics = &snap
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
