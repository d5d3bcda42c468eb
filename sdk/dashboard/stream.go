package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"siaga-desk/core/store"
)

// Stream subscribes to the service's SSE change feed and delivers parsed
// events on a channel. It reconnects with backoff until the context ends.
type Stream struct {
	baseURL    string
	httpClient *http.Client
	events     chan store.ChangeEvent
	backoffMin time.Duration
	backoffMax time.Duration
}

func NewStream(baseURL string, opts ...StreamOption) *Stream {
	s := &Stream{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: the stream is long lived.
		httpClient: &http.Client{},
		events:     make(chan store.ChangeEvent, 64),
		backoffMin: time.Second,
		backoffMax: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type StreamOption func(*Stream)

func WithStreamHTTPClient(hc *http.Client) StreamOption {
	return func(s *Stream) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

func (s *Stream) Events() <-chan store.ChangeEvent {
	return s.events
}

// Run blocks, consuming the feed until ctx is cancelled. The events channel
// is closed on return.
func (s *Stream) Run(ctx context.Context) {
	defer close(s.events)
	backoff := s.backoffMin
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		_ = err
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.backoffMax {
			backoff = s.backoffMax
		}
	}
}

func (s *Stream) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/events/incidents", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if ev, ok := parseFeedEvent(eventName, data); ok {
				select {
				case s.events <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			eventName, data = "", ""
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	return scanner.Err()
}

func parseFeedEvent(eventName, data string) (store.ChangeEvent, bool) {
	if eventName == "" || data == "" {
		return store.ChangeEvent{}, false
	}
	switch eventName {
	case store.ChangeDelete:
		var ref struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal([]byte(data), &ref); err != nil || ref.ID == "" {
			return store.ChangeEvent{}, false
		}
		return store.ChangeEvent{Type: store.ChangeDelete, OldID: ref.ID}, true
	case store.ChangeInsert, store.ChangeUpdate:
		var inc store.Incident
		if err := json.Unmarshal([]byte(data), &inc); err != nil || inc.ID == "" {
			return store.ChangeEvent{}, false
		}
		return store.ChangeEvent{Type: eventName, Incident: &inc}, true
	}
	return store.ChangeEvent{}, false
}
