package dashboard

import (
	"sort"
	"strings"
	"time"

	"siaga-desk/core/incidents"
	"siaga-desk/core/store"
)

// Filter narrows an incident list. Search is a case-insensitive substring
// match over incident_id, description and pic; the other fields are exact
// matches with "" or "all" meaning no filter. All set filters must match.
type Filter struct {
	Search  string
	Status  string
	Impact  string
	Project string
}

func ApplyFilter(items []store.Incident, f Filter) []store.Incident {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]store.Incident, 0, len(items))
	for _, inc := range items {
		if search != "" {
			haystack := strings.ToLower(inc.IncidentID + " " + inc.Description + " " + inc.PIC)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		if !matchExact(inc.Status, f.Status) || !matchExact(inc.Impact, f.Impact) || !matchExact(inc.ProjectName, f.Project) {
			continue
		}
		out = append(out, inc)
	}
	return out
}

func matchExact(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "all") {
		return true
	}
	return value == filter
}

const (
	FieldIncidentID    = "incident_id"
	FieldStatus        = "status"
	FieldProjectName   = "project_name"
	FieldIncidentType  = "incident_type"
	FieldImpact        = "impact"
	FieldPIC           = "pic"
	FieldCreatedAt     = "created_at"
	FieldWaktuKejadian = "waktu_kejadian"
	FieldWaktuChat     = "waktu_chat"
)

const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

type Sort struct {
	Field     string
	Direction string
}

// DefaultSort is newest first, matching the list endpoint's ordering.
func DefaultSort() Sort {
	return Sort{Field: FieldCreatedAt, Direction: DirectionDesc}
}

// Toggle implements column-header clicks: the same field flips direction,
// a new field takes over with descending default.
func (s Sort) Toggle(field string) Sort {
	if s.Field == field {
		if s.Direction == DirectionAsc {
			s.Direction = DirectionDesc
		} else {
			s.Direction = DirectionAsc
		}
		return s
	}
	return Sort{Field: field, Direction: DirectionDesc}
}

// ApplySort returns a sorted copy. Comparison is case-insensitive
// lexicographic on the field's string form; missing values sort after
// present ones ascending and before them descending.
func ApplySort(items []store.Incident, s Sort) []store.Incident {
	out := make([]store.Incident, len(items))
	copy(out, items)
	if s.Field == "" {
		return out
	}
	asc := s.Direction == DirectionAsc
	sort.SliceStable(out, func(i, j int) bool {
		a, aOK := fieldValue(out[i], s.Field)
		b, bOK := fieldValue(out[j], s.Field)
		if aOK != bOK {
			if asc {
				return aOK
			}
			return !aOK
		}
		if !aOK {
			return false
		}
		cmp := strings.Compare(strings.ToLower(a), strings.ToLower(b))
		if cmp == 0 {
			return false
		}
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
	return out
}

func fieldValue(inc store.Incident, field string) (string, bool) {
	switch field {
	case FieldIncidentID:
		return inc.IncidentID, inc.IncidentID != ""
	case FieldStatus:
		return inc.Status, inc.Status != ""
	case FieldProjectName:
		return inc.ProjectName, inc.ProjectName != ""
	case FieldIncidentType:
		return inc.IncidentType, inc.IncidentType != ""
	case FieldImpact:
		return inc.Impact, inc.Impact != ""
	case FieldPIC:
		return inc.PIC, inc.PIC != ""
	case FieldCreatedAt:
		return formatSortTime(&inc.CreatedAt), true
	case FieldWaktuKejadian:
		return formatSortTime(inc.WaktuKejadian), inc.WaktuKejadian != nil
	case FieldWaktuChat:
		return formatSortTime(inc.WaktuChat), inc.WaktuChat != nil
	}
	return "", false
}

// RFC3339 in UTC sorts lexicographically in time order.
func formatSortTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

type BoardColumn struct {
	Status    string
	Incidents []store.Incident
}

// Board groups incidents into the four lifecycle columns, in order. Rows
// with unmapped statuses are left out.
func Board(items []store.Incident) []BoardColumn {
	cols := make([]BoardColumn, 0, len(incidents.StatusOrder))
	for _, status := range incidents.StatusOrder {
		col := BoardColumn{Status: status}
		for _, inc := range items {
			if inc.Status == status {
				col.Incidents = append(col.Incidents, inc)
			}
		}
		cols = append(cols, col)
	}
	return cols
}
