// Package stream refreshes watchlist quotes on a schedule and fans the
// snapshots out to subscribers.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockdash/internal/models"
)

// HubConfig holds configuration for the Hub.
type HubConfig struct {
	// BufferSize is the size of the internal update channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           64,
		SubscriberBufferSize: 8,
	}
}

// Hub distributes watchlist snapshots from a single producer to many
// subscribers. Slow subscribers miss updates instead of blocking others.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	updates     chan models.WatchlistUpdate
	done        chan struct{}
	started     bool
	last        *models.WatchlistUpdate

	metricsMu        sync.RWMutex
	updatesReceived  uint64
	updatesDelivered uint64
	updatesDropped   uint64
}

// Subscriber is a registered receiver.
type Subscriber struct {
	ID           string
	Channel      chan models.WatchlistUpdate
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[string]*Subscriber),
		updates:     make(chan models.WatchlistUpdate, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start runs the distribution loop until ctx is done or Stop is called.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case u := <-h.updates:
			h.metricsMu.Lock()
			h.updatesReceived++
			h.metricsMu.Unlock()

			h.broadcast(u)
		}
	}
}

// Stop ends the loop and closes every subscriber channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for id, sub := range h.subscribers {
		close(sub.Channel)
		delete(h.subscribers, id)
	}
}

// Subscribe registers a receiver. The returned ID is used to unsubscribe.
// If a snapshot has already been published, it is delivered first.
func (h *Hub) Subscribe() (string, <-chan models.WatchlistUpdate) {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		Channel:   make(chan models.WatchlistUpdate, h.config.SubscriberBufferSize),
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	if h.last != nil {
		sub.Channel <- *h.last
	}
	h.mu.Unlock()

	return sub.ID, sub.Channel
}

// Unsubscribe removes a receiver and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[id]; ok {
		close(sub.Channel)
		delete(h.subscribers, id)
	}
}

// Publish queues an update for distribution. It never blocks; when the
// queue is full the update is dropped.
func (h *Hub) Publish(u models.WatchlistUpdate) {
	select {
	case h.updates <- u:
	default:
		h.metricsMu.Lock()
		h.updatesDropped++
		h.metricsMu.Unlock()
	}
}

func (h *Hub) broadcast(u models.WatchlistUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &u
	for _, sub := range h.subscribers {
		select {
		case sub.Channel <- u:
			h.metricsMu.Lock()
			h.updatesDelivered++
			h.metricsMu.Unlock()
		default:
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.updatesDropped++
			h.metricsMu.Unlock()
		}
	}
}

// Last returns the most recently distributed snapshot.
func (h *Hub) Last() (models.WatchlistUpdate, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return models.WatchlistUpdate{}, false
	}
	return *h.last, true
}

// SubscriberCount returns the number of registered receivers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// HubMetrics contains hub counters.
type HubMetrics struct {
	UpdatesReceived  uint64 `json:"updatesReceived"`
	UpdatesDelivered uint64 `json:"updatesDelivered"`
	UpdatesDropped   uint64 `json:"updatesDropped"`
	Subscribers      int    `json:"subscribers"`
}

// GetMetrics returns hub counters. Locks are always taken mu first, then
// metricsMu, so the subscriber count is read before the counters.
func (h *Hub) GetMetrics() HubMetrics {
	subscribers := h.SubscriberCount()

	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()

	return HubMetrics{
		UpdatesReceived:  h.updatesReceived,
		UpdatesDelivered: h.updatesDelivered,
		UpdatesDropped:   h.updatesDropped,
		Subscribers:      subscribers,
	}
}
