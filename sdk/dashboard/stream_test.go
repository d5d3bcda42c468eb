package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"siaga-desk/core/store"
)

func TestStreamConsumesFeedFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events/incidents" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)

		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: INSERT\ndata: {\"id\":\"row-1\",\"incident_id\":\"INC-1\",\"status\":\"New\"}\n\n")
		fmt.Fprint(w, "event: UPDATE\ndata: {\"id\":\"row-1\",\"incident_id\":\"INC-1\",\"status\":\"Resolved\"}\n\n")
		fmt.Fprint(w, "event: DELETE\ndata: {\"id\":\"row-1\"}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := NewStream(srv.URL)
	go stream.Run(ctx)

	want := []struct {
		typ    string
		id     string
		status string
	}{
		{store.ChangeInsert, "row-1", "New"},
		{store.ChangeUpdate, "row-1", "Resolved"},
		{store.ChangeDelete, "row-1", ""},
	}
	for _, w := range want {
		select {
		case ev := <-stream.Events():
			if ev.Type != w.typ {
				t.Fatalf("expected %s event, got %s", w.typ, ev.Type)
			}
			if w.typ == store.ChangeDelete {
				if ev.OldID != w.id {
					t.Fatalf("delete OldID = %q, want %q", ev.OldID, w.id)
				}
				continue
			}
			if ev.Incident == nil || ev.Incident.ID != w.id || ev.Incident.Status != w.status {
				t.Fatalf("unexpected event payload: %+v", ev.Incident)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s event", w.typ)
		}
	}
}

func TestStreamSkipsMalformedFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "event: INSERT\ndata: not-json\n\n")
		fmt.Fprint(w, "event: DELETE\ndata: {}\n\n")
		fmt.Fprint(w, "event: INSERT\ndata: {\"id\":\"ok\",\"incident_id\":\"INC-OK\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := NewStream(srv.URL)
	go stream.Run(ctx)

	select {
	case ev := <-stream.Events():
		if ev.Type != store.ChangeInsert || ev.Incident == nil || ev.Incident.ID != "ok" {
			t.Fatalf("expected the valid insert only, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for valid event")
	}
}

func TestStreamClosesEventsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream := NewStream(srv.URL)
	done := make(chan struct{})
	go func() {
		stream.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, open := <-stream.Events(); open {
		// Drain any buffered event; the channel must eventually close.
		for range stream.Events() {
		}
	}
}
