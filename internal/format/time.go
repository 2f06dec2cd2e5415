package format

import (
	"strings"
	"time"
)

var durationUnits = []string{"min", "hr", "hour", "sec", "day"}

var rangeSeparators = []string{"-", "–", " to "}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Time renders a preparation/delivery time for display. Durations and
// ranges ("25 mins", "30-40") pass through, clock values and timestamps are
// shown as "3:04 PM", anything else comes back as given.
func Time(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}

	lower := strings.ToLower(trimmed)
	for _, unit := range durationUnits {
		if strings.Contains(lower, unit) {
			return value
		}
	}

	// RFC3339 timestamps contain '-' too, so try them before range detection.
	for _, layout := range clockLayouts[2:] {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("3:04 PM")
		}
	}

	for _, sep := range rangeSeparators {
		if strings.Contains(trimmed, sep) {
			return value
		}
	}

	for _, layout := range clockLayouts[:2] {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("3:04 PM")
		}
	}

	return value
}
