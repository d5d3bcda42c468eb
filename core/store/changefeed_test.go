package store

import "testing"

func TestFeedHubFanOut(t *testing.T) {
	hub := NewFeedHub()
	a := hub.Subscribe(4)
	b := hub.Subscribe(4)
	defer a.Close()
	defer b.Close()

	hub.Publish(ChangeEvent{Type: ChangeInsert, Incident: &Incident{ID: "x"}})

	for _, sub := range []*FeedSub{a, b} {
		select {
		case ev := <-sub.Events():
			if ev.Type != ChangeInsert || ev.Incident == nil || ev.Incident.ID != "x" {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			t.Fatal("expected buffered event")
		}
	}
}

func TestFeedHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewFeedHub()
	sub := hub.Subscribe(1)
	defer sub.Close()

	hub.Publish(ChangeEvent{Type: ChangeInsert, Incident: &Incident{ID: "1"}})
	hub.Publish(ChangeEvent{Type: ChangeInsert, Incident: &Incident{ID: "2"}})

	ev := <-sub.Events()
	if ev.Incident.ID != "1" {
		t.Fatalf("expected first event kept, got %s", ev.Incident.ID)
	}
	select {
	case extra := <-sub.Events():
		t.Fatalf("expected overflow dropped, got %+v", extra)
	default:
	}
}

func TestFeedSubCloseUnsubscribes(t *testing.T) {
	hub := NewFeedHub()
	sub := hub.Subscribe(1)
	sub.Close()
	if n := hub.SubscriberCount(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
	// Publishing after close must not panic on the closed channel.
	hub.Publish(ChangeEvent{Type: ChangeDelete, OldID: "x"})
	sub.Close()
}
