package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// Subscriber receives serialized events. Send must not block indefinitely;
// a returned error removes the subscriber from the hub.
type Subscriber interface {
	ID() string
	Send(payload []byte) error
}

// Event is a broadcast notification about ingestion progress
type Event struct {
	Type      string            `json:"type"`
	ProjectID string            `json:"project_id,omitempty"`
	JobID     string            `json:"job_id,omitempty"`
	Status    string            `json:"status,omitempty"`
	Message   string            `json:"message,omitempty"`
	Data      map[string]any    `json:"data,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Hub fans events out to connected subscribers. Publishing never blocks
// the caller: events go through a buffered channel drained by Run, and a
// full buffer drops the event rather than stalling the pipeline.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]Subscriber
	events      chan Event
	logger      *zap.Logger
}

// NewHub creates a hub with the given publish buffer size
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subscribers: make(map[string]Subscriber),
		events:      make(chan Event, buffer),
		logger:      logger.Get(),
	}
}

// Connect registers a subscriber. A subscriber reusing an existing ID
// replaces the previous registration.
func (h *Hub) Connect(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub.ID()] = sub
	h.logger.Debug("Subscriber connected", zap.String("subscriber_id", sub.ID()), zap.Int("total", len(h.subscribers)))
}

// Disconnect removes a subscriber. Unknown IDs are a no-op.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, id)
}

// SubscriberCount returns the current number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Publish queues an event for broadcast. If the buffer is full the event
// is dropped and logged.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.events <- event:
	default:
		h.logger.Warn("Event buffer full, dropping event", zap.String("type", event.Type), zap.String("job_id", event.JobID))
	}
}

// Run drains the publish channel and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-h.events:
			h.Broadcast(event)
		}
	}
}

// Broadcast serializes the event once and delivers it to a snapshot of
// the subscriber set. Subscribers whose Send fails are removed.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	snapshot := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		snapshot = append(snapshot, sub)
	}
	h.mu.Unlock()

	var failed []string
	for _, sub := range snapshot {
		if err := sub.Send(payload); err != nil {
			h.logger.Warn("Subscriber delivery failed, removing", zap.String("subscriber_id", sub.ID()), zap.Error(err))
			failed = append(failed, sub.ID())
		}
	}
	for _, id := range failed {
		h.Disconnect(id)
	}
}
