package incidents

import (
	"strings"
	"time"
)

const (
	StatusNew        = "New"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
)

// StatusOrder is the lifecycle order used for board grouping.
var StatusOrder = []string{StatusNew, StatusInProgress, StatusResolved, StatusClosed}

var validStatus = map[string]struct{}{
	StatusNew:        {},
	StatusInProgress: {},
	StatusResolved:   {},
	StatusClosed:     {},
}

func IsValidStatus(status string) bool {
	_, ok := validStatus[status]
	return ok
}

var statusSynonyms = map[string]string{
	"new":         StatusNew,
	"open":        StatusNew,
	"opened":      StatusNew,
	"in progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"progress":    StatusInProgress,
	"ongoing":     StatusInProgress,
	"wip":         StatusInProgress,
	"resolved":    StatusResolved,
	"done":        StatusResolved,
	"fixed":       StatusResolved,
	"selesai":     StatusResolved,
	"closed":      StatusClosed,
	"close":       StatusClosed,
}

// NormalizeStatus maps loosely-typed upstream status labels onto the four
// canonical values. Unknown labels pass through trimmed so nothing is lost.
func NormalizeStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StatusNew
	}
	if canonical, ok := statusSynonyms[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
}

// NormalizeTimestamp parses the loose timestamp formats upstream automations
// send. A bare H:MM or H:MM:SS means that time of day on now's date. Anything
// unparseable falls back to now so a bad field never rejects a report.
func NormalizeTimestamp(raw string, now time.Time) time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return now
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if tod, err := time.ParseInLocation(layout, trimmed, now.Location()); err == nil {
			return time.Date(now.Year(), now.Month(), now.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, now.Location())
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, now.Location()); err == nil {
			return t
		}
	}
	return now
}
