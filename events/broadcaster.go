// Package events fans hotfolder activity out to live listeners.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/hotfolder"
	"github.com/ebogdum/hotfs/internal/logutil"
	"github.com/ebogdum/hotfs/metrics"
)

const (
	EventArrival = "arrival"
	EventRelease = "release"
)

// Event describes one hotfolder occurrence.
type Event struct {
	Type      string `json:"type"`
	Hotfolder string `json:"hotfolder"`
	URI       string `json:"uri"`
	Name      string `json:"name,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Modified  int64  `json:"modified,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster manages event subscribers and publishes events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]string // channel -> hotfolder filter, "" for all
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]string),
	}
}

// Subscribe adds a subscriber for the events of one hotfolder, or of every
// hotfolder when id is empty. The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe(id string) chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = id
	count := len(b.subscribers)
	b.mu.Unlock()
	metrics.EventSubscribers.Set(float64(count))
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	count := len(b.subscribers)
	b.mu.Unlock()
	metrics.EventSubscribers.Set(float64(count))
}

// Publish sends an event to all matching subscribers. Non-blocking: drops
// events for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, id := range b.subscribers {
		if id != "" && id != event.Hotfolder {
			continue
		}
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Subscriber returns a hotfolder subscriber publishing an arrival event for
// every settled file of hotfolder id. Files stay launched until released.
func (b *Broadcaster) Subscriber(id string) hotfolder.Subscriber {
	return hotfolder.SubscriberFunc(func(ctx context.Context, f backends.File, release hotfolder.Release) error {
		event := Event{
			Type:      EventArrival,
			Hotfolder: id,
			URI:       logutil.RedactURI(f.URI()),
			Name:      f.Name(),
		}
		// Size and mtime are informational; the hotfolder already read them
		event.Size, _ = f.Length(ctx)
		event.Modified, _ = f.LastModified(ctx)
		b.Publish(event)
		return nil
	})
}

// MarshalEvent serializes an event to JSON.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}
