package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ebogdum/hotfs/backends/memory"
)

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe("")
	ch2 := b.Subscribe("inbox")

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch1)
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}

	b.Unsubscribe(ch2)
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
	if _, ok := <-ch2; ok {
		t.Fatal("expected channel to be closed")
	}
}

func TestBroadcasterFiltersByHotfolder(t *testing.T) {
	b := NewBroadcaster()
	all := b.Subscribe("")
	defer b.Unsubscribe(all)
	inbox := b.Subscribe("inbox")
	defer b.Unsubscribe(inbox)

	b.Publish(Event{Type: EventArrival, Hotfolder: "outbox", URI: "mem:///out/a"})
	b.Publish(Event{Type: EventArrival, Hotfolder: "inbox", URI: "mem:///in/b"})

	if got := len(all); got != 2 {
		t.Errorf("expected 2 events for unfiltered subscriber, got %d", got)
	}
	if got := len(inbox); got != 1 {
		t.Fatalf("expected 1 event for inbox subscriber, got %d", got)
	}
	if e := <-inbox; e.URI != "mem:///in/b" || e.Timestamp == 0 {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: EventArrival})
	}
	if got := len(ch); got != 64 {
		t.Fatalf("expected buffer of 64 events, got %d", got)
	}
}

func TestSubscriberPublishesArrival(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	mem.WriteFile("/in/scan.pdf", []byte("12345"))
	f, _ := mem.ResolvePath("/in/scan.pdf")

	b := NewBroadcaster()
	ch := b.Subscribe("inbox")
	defer b.Unsubscribe(ch)

	released := false
	if err := b.Subscriber("inbox").OnAdded(ctx, f, func() { released = true }); err != nil {
		t.Fatalf("OnAdded failed: %v", err)
	}
	if released {
		t.Error("arrival subscriber must not release the file")
	}

	select {
	case e := <-ch:
		if e.Type != EventArrival || e.URI != "mem:///in/scan.pdf" || e.Name != "scan.pdf" || e.Size != 5 {
			t.Errorf("unexpected event %+v", e)
		}
		data, err := MarshalEvent(e)
		if err != nil {
			t.Fatalf("MarshalEvent failed: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil || decoded["hotfolder"] != "inbox" {
			t.Errorf("unexpected JSON %s", data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}
