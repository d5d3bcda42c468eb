package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"siaga-desk/config"
	"siaga-desk/core/store"
	"siaga-desk/core/utils"
)

type EventsHandler struct {
	cfg    *config.AppConfig
	feed   *store.FeedHub
	logger *utils.Logger
}

func NewEventsHandler(cfg *config.AppConfig, feed *store.FeedHub, logger *utils.Logger) *EventsHandler {
	return &EventsHandler{cfg: cfg, feed: feed, logger: logger}
}

// Stream serves the incident change feed over SSE. Each mutation becomes an
// event named INSERT, UPDATE or DELETE with the row (or deleted id) as data.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if h.feed == nil {
		http.Error(w, "change feed unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	buffer := 64
	keepalive := 30 * time.Second
	if h.cfg != nil {
		if h.cfg.Feed.SubscriberBuffer > 0 {
			buffer = h.cfg.Feed.SubscriberBuffer
		}
		if h.cfg.Feed.KeepaliveInterval > 0 {
			keepalive = h.cfg.Feed.KeepaliveInterval
		}
	}
	sub := h.feed.Subscribe(buffer)
	defer sub.Close()
	if h.logger != nil {
		h.logger.Printf("SSE connect conn=%s", sub.ID())
	}

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			if h.logger != nil {
				h.logger.Printf("SSE disconnect conn=%s", sub.ID())
			}
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			data, err := marshalFeedEvent(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func marshalFeedEvent(ev store.ChangeEvent) ([]byte, error) {
	if ev.Type == store.ChangeDelete {
		return json.Marshal(map[string]string{"id": ev.OldID})
	}
	return json.Marshal(ev.Incident)
}
