package trend

import (
	"math"
	"testing"
	"time"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
)

const tolerance = 0.01

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func searchTrend(metrics map[string]float64) *Trend {
	return &Trend{
		Platform:   source.PlatformSearchTrends,
		EntityType: source.EntitySearchQuery,
		Metrics:    metrics,
		Components: make(map[Component]float64),
	}
}

func videoTrend(metrics map[string]float64, ts time.Time) *Trend {
	return &Trend{
		Platform:   source.PlatformVideo,
		EntityType: source.EntityVideo,
		Metrics:    metrics,
		Timestamp:  ts,
		Components: make(map[Component]float64),
	}
}

func TestVolume(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(time.Time{})

	tests := []struct {
		name  string
		trend *Trend
		want  float64
	}{
		{
			name:  "search query boosted by 100",
			trend: searchTrend(map[string]float64{source.MetricSearchVolume: 50000}),
			want:  5000000,
		},
		{
			name:  "video uses raw views",
			trend: videoTrend(map[string]float64{source.MetricViews: 1000000}, time.Time{}),
			want:  1000000,
		},
		{
			name: "creator followers boosted by 10",
			trend: &Trend{
				Platform:   source.PlatformShortVideo,
				EntityType: source.EntityCreator,
				Metrics:    map[string]float64{source.MetricFollowers: 20000},
			},
			want: 200000,
		},
		{
			name: "tag uses raw views",
			trend: &Trend{
				Platform:   source.PlatformShortVideo,
				EntityType: source.EntityTag,
				Metrics:    map[string]float64{source.MetricViews: 750000},
			},
			want: 750000,
		},
		{
			name:  "missing metrics score zero",
			trend: searchTrend(nil),
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Volume(tt.trend)
			if !almostEqual(got, tt.want) {
				t.Errorf("Volume() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngagement(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(time.Time{})

	tests := []struct {
		name  string
		trend *Trend
		want  float64
	}{
		{
			name: "video interaction rate scaled",
			trend: videoTrend(map[string]float64{
				source.MetricViews:    1000000,
				source.MetricLikes:    50000,
				source.MetricComments: 5000,
			}, time.Time{}),
			want: 5500, // (55000/1000000)*100*1000
		},
		{
			name:  "video with zero views scores zero",
			trend: videoTrend(map[string]float64{source.MetricLikes: 100}, time.Time{}),
			want:  0,
		},
		{
			name:  "search keeps raw increase percentage",
			trend: searchTrend(map[string]float64{source.MetricIncreasePct: 850}),
			want:  850,
		},
		{
			name: "tag creation ratio",
			trend: &Trend{
				Platform:   source.PlatformShortVideo,
				EntityType: source.EntityTag,
				Metrics: map[string]float64{
					source.MetricViews:  2000000,
					source.MetricVideos: 4000,
				},
			},
			want: 2000, // 4000/2000000*1e6
		},
		{
			name: "creator like ratio",
			trend: &Trend{
				Platform:   source.PlatformShortVideo,
				EntityType: source.EntityCreator,
				Metrics: map[string]float64{
					source.MetricFollowers:  10000,
					source.MetricLikedTotal: 250000,
				},
			},
			want: 2500,
		},
		{
			name: "audio falls back to inverted rank",
			trend: &Trend{
				Platform:   source.PlatformShortVideo,
				EntityType: source.EntityAudio,
				Metrics:    map[string]float64{source.MetricRank: 3},
			},
			want: 970,
		},
		{
			name: "clip without rank scores zero",
			trend: &Trend{
				Platform:   source.PlatformShortVideo,
				EntityType: source.EntityClip,
				Metrics:    map[string]float64{},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Engagement(tt.trend)
			if !almostEqual(got, tt.want) {
				t.Errorf("Engagement() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVelocitySearch(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(time.Time{})

	tests := []struct {
		name    string
		metrics map[string]float64
		want    float64
	}{
		{
			name:    "base multiplier",
			metrics: map[string]float64{source.MetricIncreasePct: 500},
			want:    15000,
		},
		{
			name: "active bonus",
			metrics: map[string]float64{
				source.MetricIncreasePct: 500,
				source.MetricActive:      1,
			},
			want: 22500,
		},
		{
			name:    "breakout bonus at 1000 percent",
			metrics: map[string]float64{source.MetricIncreasePct: 1000},
			want:    36000, // 1000*30*1.2
		},
		{
			name: "active breakout stacks both bonuses",
			metrics: map[string]float64{
				source.MetricIncreasePct: 1500,
				source.MetricActive:      1,
			},
			want: 81000, // 1500*30*1.5*1.2
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Velocity(searchTrend(tt.metrics))
			if !almostEqual(got, tt.want) {
				t.Errorf("Velocity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVelocityVideo(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calc := NewCalculator(now)

	metrics := map[string]float64{
		source.MetricViews:    1000000,
		source.MetricLikes:    50000,
		source.MetricComments: 5000,
	}

	// 12 hours old: 0.7*1000000/12 + 0.3*55000/12
	got := calc.Velocity(videoTrend(metrics, now.Add(-12*time.Hour)))
	if !almostEqual(got, 59708.33) {
		t.Errorf("Velocity(12h) = %v, want 59708.33", got)
	}

	// Under an hour old clamps the age to 1 hour.
	got = calc.Velocity(videoTrend(metrics, now.Add(-10*time.Minute)))
	if !almostEqual(got, 716500) {
		t.Errorf("Velocity(10m) = %v, want 716500", got)
	}

	// No timestamp assumes 24 hours.
	got = calc.Velocity(videoTrend(metrics, time.Time{}))
	if !almostEqual(got, 29854.17) {
		t.Errorf("Velocity(no timestamp) = %v, want 29854.17", got)
	}
}

func TestVelocityShortVideo(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(time.Time{})

	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	growing := &Trend{
		Platform:   source.PlatformShortVideo,
		EntityType: source.EntityTag,
		History: []source.HistoryPoint{
			{Date: day(1), Value: 10},
			{Date: day(2), Value: 18},
			{Date: day(3), Value: 25},
		},
	}
	if got := calc.Velocity(growing); !almostEqual(got, 1500) {
		t.Errorf("Velocity(growing history) = %v, want 1500", got)
	}

	declining := &Trend{
		Platform:   source.PlatformShortVideo,
		EntityType: source.EntityTag,
		History: []source.HistoryPoint{
			{Date: day(1), Value: 25},
			{Date: day(3), Value: 10},
		},
	}
	if got := calc.Velocity(declining); got != 0 {
		t.Errorf("Velocity(declining history) = %v, want 0", got)
	}

	ranked := &Trend{
		Platform:   source.PlatformShortVideo,
		EntityType: source.EntityAudio,
		Metrics:    map[string]float64{source.MetricRank: 5},
	}
	if got := calc.Velocity(ranked); !almostEqual(got, 950) {
		t.Errorf("Velocity(rank fallback) = %v, want 950", got)
	}

	unranked := &Trend{
		Platform:   source.PlatformShortVideo,
		EntityType: source.EntityClip,
	}
	if got := calc.Velocity(unranked); got != 0 {
		t.Errorf("Velocity(no data) = %v, want 0", got)
	}
}

func TestRecency(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calc := NewCalculator(now)

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"just published", 0, 100},
		{"half life at one day", 24 * time.Hour, 50},
		{"twelve hours", 12 * time.Hour, 70.71},
		{"two days", 48 * time.Hour, 25},
		{"one week", 168 * time.Hour, 0.78},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend := videoTrend(nil, now.Add(-tt.age))
			got := calc.Recency(trend)
			if !almostEqual(got, tt.want) {
				t.Errorf("Recency(%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}

	// No timestamp gets the fixed default.
	if got := calc.Recency(videoTrend(nil, time.Time{})); got != 70.0 {
		t.Errorf("Recency(no timestamp) = %v, want 70", got)
	}

	// Monotonic in age.
	prev := 101.0
	for h := 0; h <= 96; h += 6 {
		got := calc.Recency(videoTrend(nil, now.Add(-time.Duration(h)*time.Hour)))
		if got >= prev {
			t.Fatalf("Recency not decreasing at %dh: %v >= %v", h, got, prev)
		}
		prev = got
	}
}

func TestCrossPlatform(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(time.Time{})

	build := func(titles map[source.Platform][]string) ([]*Trend, []termSet) {
		var trends []*Trend
		for _, p := range source.AllPlatforms() {
			for _, title := range titles[p] {
				trends = append(trends, &Trend{Platform: p, Title: title})
			}
		}
		terms := make([]termSet, len(trends))
		for i, tr := range trends {
			terms[i] = significantTerms(tr.Title)
		}
		return trends, terms
	}

	t.Run("single platform scores zero", func(t *testing.T) {
		trends, terms := build(map[source.Platform][]string{
			source.PlatformSearchTrends: {"quantum computing breakthrough", "quantum computing news"},
		})
		if got := calc.CrossPlatform(0, trends, terms); got != 0 {
			t.Errorf("CrossPlatform = %v, want 0", got)
		}
	})

	t.Run("two platforms score fifty", func(t *testing.T) {
		trends, terms := build(map[source.Platform][]string{
			source.PlatformSearchTrends: {"quantum computing breakthrough"},
			source.PlatformVideo:        {"quantum computing breakthrough explained"},
		})
		if got := calc.CrossPlatform(0, trends, terms); got != 50 {
			t.Errorf("CrossPlatform = %v, want 50", got)
		}
	})

	t.Run("three platforms score hundred", func(t *testing.T) {
		trends, terms := build(map[source.Platform][]string{
			source.PlatformSearchTrends: {"quantum computing breakthrough"},
			source.PlatformVideo:        {"quantum computing breakthrough explained"},
			source.PlatformShortVideo:   {"quantum computing breakthrough reaction"},
		})
		if got := calc.CrossPlatform(0, trends, terms); got != 100 {
			t.Errorf("CrossPlatform = %v, want 100", got)
		}
	})

	t.Run("weak overlap does not count", func(t *testing.T) {
		trends, terms := build(map[source.Platform][]string{
			source.PlatformSearchTrends: {"quantum computing breakthrough announced today"},
			source.PlatformVideo:        {"cooking pasta with quantum precision sauce recipes"},
		})
		if got := calc.CrossPlatform(0, trends, terms); got != 0 {
			t.Errorf("CrossPlatform = %v, want 0 for weak overlap", got)
		}
	})

	t.Run("empty title scores zero", func(t *testing.T) {
		trends, terms := build(map[source.Platform][]string{
			source.PlatformSearchTrends: {""},
			source.PlatformVideo:        {"anything at all here"},
		})
		if got := calc.CrossPlatform(0, trends, terms); got != 0 {
			t.Errorf("CrossPlatform = %v, want 0 for empty title", got)
		}
	})
}
