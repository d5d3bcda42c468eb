package dashboard

import (
	"context"
	"sync"

	"siaga-desk/core/store"
)

// incidentAPI is the slice of Client the view depends on, split out so tests
// can fake the server.
type incidentAPI interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	UpdateStatus(ctx context.Context, id, status string) (*store.Incident, error)
	Delete(ctx context.Context, id string) error
}

// View is the authoritative in-memory incident list behind a dashboard.
// It applies optimistic status updates immediately and reconciles against
// the server whenever an update fails or a full reload runs.
type View struct {
	api incidentAPI

	mu        sync.RWMutex
	incidents []store.Incident
	loadErr   error
}

func NewView(api incidentAPI) *View {
	return &View{api: api}
}

// Load replaces the list with a full fetch. On failure the previous list is
// kept and the error recorded.
func (v *View) Load(ctx context.Context) error {
	res, err := v.api.List(ctx, ListOptions{})
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.loadErr = err
		return err
	}
	v.incidents = res.Incidents
	v.loadErr = nil
	return nil
}

// Apply merges a change-feed event into the list: inserts prepend, updates
// replace in place, deletes remove. Events for unknown rows during update
// are ignored; duplicate inserts are idempotent.
func (v *View) Apply(ev store.ChangeEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch ev.Type {
	case store.ChangeInsert:
		if ev.Incident == nil {
			return
		}
		for _, inc := range v.incidents {
			if inc.ID == ev.Incident.ID {
				return
			}
		}
		v.incidents = append([]store.Incident{*ev.Incident}, v.incidents...)
	case store.ChangeUpdate:
		if ev.Incident == nil {
			return
		}
		for i := range v.incidents {
			if v.incidents[i].ID == ev.Incident.ID {
				v.incidents[i] = *ev.Incident
				return
			}
		}
	case store.ChangeDelete:
		for i := range v.incidents {
			if v.incidents[i].ID == ev.OldID {
				v.incidents = append(v.incidents[:i], v.incidents[i+1:]...)
				return
			}
		}
	}
}

// UpdateStatus mutates the local row first so the dashboard reflects the
// change immediately, then persists it. A failed persist reloads the full
// list to drop the optimistic state.
func (v *View) UpdateStatus(ctx context.Context, id, status string) error {
	v.mu.Lock()
	for i := range v.incidents {
		if v.incidents[i].ID == id {
			v.incidents[i].Status = status
			break
		}
	}
	v.mu.Unlock()

	updated, err := v.api.UpdateStatus(ctx, id, status)
	if err != nil {
		_ = v.Load(ctx)
		return err
	}
	if updated != nil {
		v.Apply(store.ChangeEvent{Type: store.ChangeUpdate, Incident: updated})
	}
	return nil
}

// Delete removes the row on the server; the local list drops it right away
// rather than waiting for the feed event.
func (v *View) Delete(ctx context.Context, id string) error {
	if err := v.api.Delete(ctx, id); err != nil {
		return err
	}
	v.Apply(store.ChangeEvent{Type: store.ChangeDelete, OldID: id})
	return nil
}

// Incidents returns a snapshot copy of the current list.
func (v *View) Incidents() []store.Incident {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]store.Incident, len(v.incidents))
	copy(out, v.incidents)
	return out
}

// Err returns the error from the most recent failed load, nil otherwise.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadErr
}
