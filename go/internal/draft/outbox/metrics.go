package outbox

import (
	"sync"
	"time"
)

// MetricsCollector defines the interface for collecting outbox metrics
type MetricsCollector interface {
	RecordEventProcessed(eventType string, success bool, duration time.Duration)
	RecordBatchProcessed(count int, duration time.Duration)
	RecordOutboxLag(lag int)
	RecordPublishAttempt(eventType string, attempt int, success bool)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
}
func (NoOpMetricsCollector) RecordBatchProcessed(count int, duration time.Duration)           {}
func (NoOpMetricsCollector) RecordOutboxLag(lag int)                                          {}
func (NoOpMetricsCollector) RecordPublishAttempt(eventType string, attempt int, success bool) {}

// Counters keeps metrics in memory and serves them on the health endpoint.
type Counters struct {
	mu        sync.Mutex
	succeeded map[string]uint64
	failed    map[string]uint64
	retries   uint64
	batches   uint64
	lag       int
	slowest   time.Duration
}

func NewCounters() *Counters {
	return &Counters{succeeded: make(map[string]uint64), failed: make(map[string]uint64)}
}

func (c *Counters) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.succeeded[eventType]++
	} else {
		c.failed[eventType]++
	}
	if duration > c.slowest {
		c.slowest = duration
	}
}

func (c *Counters) RecordBatchProcessed(count int, duration time.Duration) {
	c.mu.Lock()
	c.batches++
	c.mu.Unlock()
}

func (c *Counters) RecordOutboxLag(lag int) {
	c.mu.Lock()
	c.lag = lag
	c.mu.Unlock()
}

func (c *Counters) RecordPublishAttempt(eventType string, attempt int, success bool) {
	if attempt > 1 {
		c.mu.Lock()
		c.retries++
		c.mu.Unlock()
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Succeeded      map[string]uint64 `json:"succeeded"`
	Failed         map[string]uint64 `json:"failed"`
	Retries        uint64            `json:"retries"`
	Batches        uint64            `json:"batches"`
	Lag            int               `json:"lag"`
	SlowestPublish string            `json:"slowest_publish"`
}

func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Succeeded:      make(map[string]uint64, len(c.succeeded)),
		Failed:         make(map[string]uint64, len(c.failed)),
		Retries:        c.retries,
		Batches:        c.batches,
		Lag:            c.lag,
		SlowestPublish: c.slowest.String(),
	}
	for k, v := range c.succeeded {
		s.Succeeded[k] = v
	}
	for k, v := range c.failed {
		s.Failed[k] = v
	}
	return s
}
