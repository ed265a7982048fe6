package messaging

import (
	"sync"

	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

// Subscriber is one listener on the event stream. Events arrive on C until
// the subscriber is removed.
type Subscriber struct {
	C         <-chan CacheEvent
	ch        chan CacheEvent
	backendID string
}

// EventBroadcaster fans cache events out to subscribers. Slow subscribers
// lose events instead of blocking writers.
type EventBroadcaster struct {
	subscribers map[*Subscriber]struct{}
	mu          sync.Mutex
	logger      *logging.ChanneledLogger
	buffer      int
}

// NewEventBroadcaster creates a broadcaster whose subscribers buffer up to
// buffer events.
func NewEventBroadcaster(logger *logging.ChanneledLogger, buffer int) *EventBroadcaster {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if buffer <= 0 {
		buffer = 32
	}
	return &EventBroadcaster{
		subscribers: make(map[*Subscriber]struct{}),
		logger:      logger,
		buffer:      buffer,
	}
}

// Subscribe registers a listener. An empty backendID receives every event;
// otherwise only events of that backend and global clears are delivered.
func (b *EventBroadcaster) Subscribe(backendID string) *Subscriber {
	ch := make(chan CacheEvent, b.buffer)
	sub := &Subscriber{C: ch, ch: ch, backendID: backendID}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	count := len(b.subscribers)
	b.mu.Unlock()

	b.logger.Cache().Debug("Event subscriber registered", "backendId", backendID, "subscribers", count)
	return sub
}

// Unsubscribe removes a listener and closes its channel.
func (b *EventBroadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub.ch)
	b.logger.Cache().Debug("Event subscriber unregistered", "backendId", sub.backendID)
}

// Publish delivers event to every matching subscriber without blocking.
func (b *EventBroadcaster) Publish(event CacheEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subscribers {
		if sub.backendID != "" && event.BackendID != "" && sub.backendID != event.BackendID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Cache().Warn("Event subscriber channel full, event dropped", "backendId", sub.backendID, "type", event.Type)
		}
	}
}

// SubscriberCount returns the number of registered listeners.
func (b *EventBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close removes every subscriber.
func (b *EventBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		delete(b.subscribers, sub)
		close(sub.ch)
	}
}
