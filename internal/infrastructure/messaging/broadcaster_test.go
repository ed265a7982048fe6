package messaging

import (
	"testing"
	"time"
)

func TestPublishFiltersByBackend(t *testing.T) {
	t.Parallel()

	b := NewEventBroadcaster(nil, 4)
	all := b.Subscribe("")
	alpha := b.Subscribe("alpha")
	defer b.Close()

	b.Publish(CacheEvent{Type: EventWrite, Category: "sites", BackendID: "beta", At: time.Now()})
	b.Publish(CacheEvent{Type: EventWrite, Category: "sites", BackendID: "alpha", At: time.Now()})
	b.Publish(CacheEvent{Type: EventClear, At: time.Now()})

	if got := len(all.C); got != 3 {
		t.Fatalf("all subscriber got %d events, want 3", got)
	}
	if got := len(alpha.C); got != 2 {
		t.Fatalf("alpha subscriber got %d events, want 2", got)
	}
	first := <-alpha.C
	if first.BackendID != "alpha" {
		t.Fatalf("first event backend = %q, want %q", first.BackendID, "alpha")
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	t.Parallel()

	b := NewEventBroadcaster(nil, 1)
	sub := b.Subscribe("")
	b.Publish(CacheEvent{Type: EventWrite})
	b.Publish(CacheEvent{Type: EventWrite})

	if got := len(sub.C); got != 1 {
		t.Fatalf("buffered events = %d, want 1", got)
	}
	b.Unsubscribe(sub)
	if _, open := <-sub.C; !open {
		return
	}
	if _, open := <-sub.C; open {
		t.Fatal("channel still open after unsubscribe")
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	t.Parallel()

	b := NewEventBroadcaster(nil, 1)
	sub := b.Subscribe("alpha")
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	if b.SubscriberCount() != 0 {
		t.Fatalf("subscribers = %d, want 0", b.SubscriberCount())
	}
}
