package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
	"github.com/madushan-jaya-sri/trendpulse/pkg/trend"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndListRecords(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	recs := []source.Record{
		{
			ID:          "search_trends:query one",
			Platform:    source.PlatformSearchTrends,
			EntityType:  source.EntitySearchQuery,
			ExternalID:  "query one",
			Title:       "query one",
			Metrics:     map[string]float64{source.MetricSearchVolume: 5000},
			Timestamp:   now.Add(-2 * time.Hour),
			CollectedAt: now,
		},
		{
			ID:          "video_platform:vid1",
			Platform:    source.PlatformVideo,
			EntityType:  source.EntityVideo,
			ExternalID:  "vid1",
			Title:       "a video",
			Metrics:     map[string]float64{source.MetricViews: 100},
			History:     []source.HistoryPoint{{Date: now.AddDate(0, 0, -1), Value: 3}},
			Timestamp:   now.Add(-5 * time.Hour),
			CollectedAt: now,
		},
	}

	if err := s.UpsertRecords(ctx, recs); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.ListRecords(ctx, ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d records, want 2", len(got))
	}

	// Metrics and history survive the JSON round trip.
	for _, r := range got {
		if r.ID == "video_platform:vid1" {
			if r.Metric(source.MetricViews) != 100 {
				t.Errorf("views = %v, want 100", r.Metric(source.MetricViews))
			}
			if len(r.History) != 1 || r.History[0].Value != 3 {
				t.Errorf("history = %v", r.History)
			}
		}
	}

	// Upserting the same ID updates in place.
	recs[0].Metrics[source.MetricSearchVolume] = 9000
	if err := s.UpsertRecord(ctx, &recs[0]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err = s.ListRecords(ctx, ListOpts{Platform: source.PlatformSearchTrends})
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("listed %d search records, want 1", len(got))
	}
	if got[0].Metric(source.MetricSearchVolume) != 9000 {
		t.Errorf("volume = %v, want 9000 after upsert", got[0].Metric(source.MetricSearchVolume))
	}

	counts, err := s.CountRecordsByPlatform(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[source.PlatformSearchTrends] != 1 || counts[source.PlatformVideo] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestSaveAndLatestRun(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	ctx := context.Background()

	// No run yet.
	run, previous, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("latest run on empty store: %v", err)
	}
	if run != nil || previous != nil {
		t.Fatal("expected no run on empty store")
	}

	result := &trend.Result{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Strategy:    "minmax",
		TotalCount:  2,
		Trends: []*trend.Trend{
			{
				ID:         "search_trends:hot query",
				Platform:   source.PlatformSearchTrends,
				EntityType: source.EntitySearchQuery,
				Title:      "hot query",
				FinalScore: 91.25,
				Components: map[trend.Component]float64{trend.ComponentVolume: 100},
			},
			{
				ID:         "video_platform:vid1",
				Platform:   source.PlatformVideo,
				EntityType: source.EntityVideo,
				Title:      "a video",
				FinalScore: 55.5,
				Components: map[trend.Component]float64{trend.ComponentVolume: 40},
			},
		},
	}

	if err := s.SaveRun(ctx, "24h0m0s", result); err != nil {
		t.Fatalf("save run: %v", err)
	}

	run, previous, err = s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if run == nil || run.ID != "run-1" {
		t.Fatalf("run = %+v", run)
	}
	if run.Window != "24h0m0s" || run.TotalCount != 2 {
		t.Errorf("run fields = %+v", run)
	}

	// Previous trends come back in rank order with scores intact.
	if len(previous) != 2 {
		t.Fatalf("previous len = %d, want 2", len(previous))
	}
	if previous[0].ID != "search_trends:hot query" || previous[0].FinalScore != 91.25 {
		t.Errorf("previous[0] = %+v", previous[0])
	}
	if previous[1].FinalScore != 55.5 {
		t.Errorf("previous[1] = %+v", previous[1])
	}

	rows, err := s.ListRunTrends(ctx, "run-1")
	if err != nil {
		t.Fatalf("list run trends: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Position != 1 || rows[1].Position != 2 {
		t.Errorf("positions = %d, %d", rows[0].Position, rows[1].Position)
	}
	if rows[0].Components[trend.ComponentVolume] != 100 {
		t.Errorf("components did not round trip: %v", rows[0].Components)
	}
}
