package stream

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
)

// Signal tells a connected board client why it should re-render.
type Signal struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	// KindOrders means the order set changed and columns must rebuild.
	KindOrders = "orders"
	// KindUrgency means only elapsed-time severity may have moved.
	KindUrgency = "urgency"
)

// Hub fans board refresh signals out to SSE subscribers. Slow
// subscribers drop signals instead of blocking the broadcaster; a
// dropped signal is safe because the next one triggers the same
// re-render from cache.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Signal
	logger      apt.Logger

	urgencyInterval time.Duration
	cancel          context.CancelFunc
	done            chan struct{}
}

// NewHub creates a hub that additionally emits an urgency signal every
// urgencyInterval so elapsed-time badges move without data changes.
func NewHub(urgencyInterval time.Duration, logger apt.Logger) *Hub {
	if urgencyInterval <= 0 {
		urgencyInterval = 30 * time.Second
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		subscribers:     make(map[string]chan Signal),
		urgencyInterval: urgencyInterval,
		logger:          logger,
	}
}

// Start launches the urgency ticker.
func (h *Hub) Start(ctx context.Context) error {
	tickCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan struct{})

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(h.urgencyInterval)
		defer ticker.Stop()

		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				h.Broadcast(Signal{Kind: KindUrgency, OccurredAt: time.Now()})
			}
		}
	}()

	return nil
}

// Stop halts the urgency ticker and closes all subscriber channels.
func (h *Hub) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
		select {
		case <-h.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	return nil
}

// Subscribe registers a subscriber and returns its signal channel.
func (h *Hub) Subscribe(subscriberID string) <-chan Signal {
	ch := make(chan Signal, 8)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[subscriberID] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[subscriberID]; ok {
		close(ch)
		delete(h.subscribers, subscriberID)
	}
}

// Broadcast sends a signal to every subscriber without blocking.
func (h *Hub) Broadcast(sig Signal) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- sig:
		default:
			h.logger.Debug("subscriber lagging, signal dropped", "subscriber_id", id)
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
