package trend

import (
	"fmt"
	"time"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
)

// Normalize reshapes one raw record into a Trend. Missing numeric fields are
// zero, missing text is empty; an unknown platform is a configuration error
// because every downstream stage is platform-indexed.
func Normalize(rec source.Record) (*Trend, error) {
	if !rec.Platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q on record %q", rec.Platform, rec.ID)
	}

	metrics := make(map[string]float64, len(rec.Metrics))
	for k, v := range rec.Metrics {
		metrics[k] = v
	}

	// Resolve the recency timestamp: platforms without publish times fall
	// back to the last point of the growth series.
	ts := rec.Timestamp
	if ts.IsZero() && len(rec.History) > 0 {
		ts = rec.History[len(rec.History)-1].Date
	}

	id := rec.ID
	if id == "" {
		id = fmt.Sprintf("%s:%s", rec.Platform, rec.ExternalID)
	}

	return &Trend{
		ID:         id,
		Platform:   rec.Platform,
		EntityType: rec.EntityType,
		Title:      rec.Title,
		URL:        rec.URL,
		Author:     rec.Author,
		Metrics:    metrics,
		History:    rec.History,
		Timestamp:  ts,
		Components: make(map[Component]float64, 5),
	}, nil
}

// FilterWindow keeps entities whose timestamp falls within the window ending
// at now. Entities without a timestamp are kept (assumed recent). A
// non-positive window disables filtering.
func FilterWindow(trends []*Trend, window time.Duration, now time.Time) []*Trend {
	if window <= 0 {
		return trends
	}

	cutoff := now.Add(-window)
	filtered := make([]*Trend, 0, len(trends))
	for _, t := range trends {
		if t.Timestamp.IsZero() || !t.Timestamp.Before(cutoff) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
