package documents

import (
	"strings"
	"time"
)

// publishedAtLayouts are the formats accepted for a raw date guess, tried in
// order. Partial dates resolve to the first day of their period.
var publishedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2006-01",
	"2006",
}

// parsePublishedAt validates a raw date string from the extractor or the
// analysis service. Unparseable or out-of-range values report ok=false and
// are treated as "no value offered"; they never surface as errors and never
// overwrite a previously stored date.
func parsePublishedAt(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedAtLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		if parsed.Year() < 1000 || parsed.Year() > 9999 {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	}
	return time.Time{}, false
}
