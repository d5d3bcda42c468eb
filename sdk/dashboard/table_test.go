package dashboard

import (
	"testing"
	"time"

	"siaga-desk/core/store"
)

func tablefixture() []store.Incident {
	t1 := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return []store.Incident{
		{ID: "1", IncidentID: "INC-001", Status: "New", ProjectName: "billing", Impact: "High", PIC: "Andi", Description: "database outage", CreatedAt: t3, WaktuKejadian: &t3},
		{ID: "2", IncidentID: "INC-002", Status: "Resolved", ProjectName: "portal", Impact: "Low", PIC: "Budi", Description: "slow page load", CreatedAt: t2},
		{ID: "3", IncidentID: "INC-003", Status: "New", ProjectName: "billing", Impact: "Low", PIC: "Citra", Description: "login failure", CreatedAt: t1, WaktuKejadian: &t1},
	}
}

func ids(items []store.Incident) []string {
	out := make([]string, len(items))
	for i, inc := range items {
		out[i] = inc.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterSearchCaseInsensitive(t *testing.T) {
	items := tablefixture()
	got := ApplyFilter(items, Filter{Search: "DATABASE"})
	if !equalIDs(ids(got), "1") {
		t.Fatalf("search description: got %v", ids(got))
	}
	got = ApplyFilter(items, Filter{Search: "budi"})
	if !equalIDs(ids(got), "2") {
		t.Fatalf("search pic: got %v", ids(got))
	}
	got = ApplyFilter(items, Filter{Search: "inc-00"})
	if len(got) != 3 {
		t.Fatalf("search incident_id: got %v", ids(got))
	}
}

func TestFilterCombined(t *testing.T) {
	items := tablefixture()
	got := ApplyFilter(items, Filter{Status: "New", Project: "billing", Impact: "Low"})
	if !equalIDs(ids(got), "3") {
		t.Fatalf("combined filter: got %v", ids(got))
	}
	got = ApplyFilter(items, Filter{Status: "all", Project: ""})
	if len(got) != 3 {
		t.Fatalf("all/empty means no filter: got %v", ids(got))
	}
}

func TestSortToggle(t *testing.T) {
	s := DefaultSort()
	if s.Field != FieldCreatedAt || s.Direction != DirectionDesc {
		t.Fatalf("unexpected default: %+v", s)
	}
	s = s.Toggle(FieldCreatedAt)
	if s.Direction != DirectionAsc {
		t.Fatalf("same field should flip to asc: %+v", s)
	}
	s = s.Toggle(FieldPIC)
	if s.Field != FieldPIC || s.Direction != DirectionDesc {
		t.Fatalf("new field should reset to desc: %+v", s)
	}
}

func TestSortLexicographic(t *testing.T) {
	items := tablefixture()
	got := ApplySort(items, Sort{Field: FieldPIC, Direction: DirectionAsc})
	if !equalIDs(ids(got), "1", "2", "3") {
		t.Fatalf("pic asc: got %v", ids(got))
	}
	got = ApplySort(items, Sort{Field: FieldCreatedAt, Direction: DirectionDesc})
	if !equalIDs(ids(got), "1", "2", "3") {
		t.Fatalf("created_at desc: got %v", ids(got))
	}
	got = ApplySort(items, Sort{Field: FieldCreatedAt, Direction: DirectionAsc})
	if !equalIDs(ids(got), "3", "2", "1") {
		t.Fatalf("created_at asc: got %v", ids(got))
	}
}

func TestSortNullPlacement(t *testing.T) {
	items := tablefixture()

	asc := ApplySort(items, Sort{Field: FieldWaktuKejadian, Direction: DirectionAsc})
	if !equalIDs(ids(asc), "3", "1", "2") {
		t.Fatalf("nulls last ascending: got %v", ids(asc))
	}

	desc := ApplySort(items, Sort{Field: FieldWaktuKejadian, Direction: DirectionDesc})
	if !equalIDs(ids(desc), "2", "1", "3") {
		t.Fatalf("nulls first descending: got %v", ids(desc))
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	items := tablefixture()
	_ = ApplySort(items, Sort{Field: FieldPIC, Direction: DirectionDesc})
	if !equalIDs(ids(items), "1", "2", "3") {
		t.Fatalf("input mutated: %v", ids(items))
	}
}

func TestBoardGroupsByLifecycleOrder(t *testing.T) {
	items := append(tablefixture(), store.Incident{ID: "4", IncidentID: "INC-004", Status: "Escalated"})
	cols := Board(items)
	if len(cols) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(cols))
	}
	if cols[0].Status != "New" || len(cols[0].Incidents) != 2 {
		t.Fatalf("unexpected New column: %+v", cols[0])
	}
	if cols[2].Status != "Resolved" || len(cols[2].Incidents) != 1 {
		t.Fatalf("unexpected Resolved column: %+v", cols[2])
	}
	for _, col := range cols {
		for _, inc := range col.Incidents {
			if inc.ID == "4" {
				t.Fatal("unmapped status must not appear on the board")
			}
		}
	}
}
