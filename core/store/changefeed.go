package store

import (
	"sync"

	"github.com/gofrs/uuid/v5"
)

const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// ChangeEvent describes a single row mutation. For deletes only OldID is set.
type ChangeEvent struct {
	Type     string    `json:"type"`
	Incident *Incident `json:"incident,omitempty"`
	OldID    string    `json:"old_id,omitempty"`
}

// FeedHub fans change events out to subscribers. Delivery is best effort:
// a subscriber whose buffer is full misses the event and is expected to
// reconcile with a full reload.
type FeedHub struct {
	mu   sync.Mutex
	subs map[string]*FeedSub
}

type FeedSub struct {
	id  string
	hub *FeedHub
	ch  chan ChangeEvent
}

func NewFeedHub() *FeedHub {
	return &FeedHub{subs: map[string]*FeedSub{}}
}

func (h *FeedHub) Subscribe(buffer int) *FeedSub {
	if buffer <= 0 {
		buffer = 64
	}
	id, _ := uuid.NewV4()
	sub := &FeedSub{id: id.String(), hub: h, ch: make(chan ChangeEvent, buffer)}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

func (h *FeedHub) Publish(ev ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

func (h *FeedHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *FeedSub) Events() <-chan ChangeEvent {
	return s.ch
}

func (s *FeedSub) ID() string {
	return s.id
}

func (s *FeedSub) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.hub.mu.Lock()
	if _, ok := s.hub.subs[s.id]; ok {
		delete(s.hub.subs, s.id)
		close(s.ch)
	}
	s.hub.mu.Unlock()
}
