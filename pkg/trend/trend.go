package trend

import (
	"fmt"
	"time"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
)

// Component names one of the five sub-scores that make up a final score.
type Component string

const (
	ComponentVolume        Component = "volume"
	ComponentEngagement    Component = "engagement"
	ComponentVelocity      Component = "velocity"
	ComponentRecency       Component = "recency"
	ComponentCrossPlatform Component = "cross_platform"
)

// AllComponents returns the five components in composition order.
func AllComponents() []Component {
	return []Component{
		ComponentVolume,
		ComponentEngagement,
		ComponentVelocity,
		ComponentRecency,
		ComponentCrossPlatform,
	}
}

// Weights is one platform's component weight table. Each table sums to 1.0.
type Weights struct {
	Volume        float64 `json:"volume"`
	Engagement    float64 `json:"engagement"`
	Velocity      float64 `json:"velocity"`
	Recency       float64 `json:"recency"`
	CrossPlatform float64 `json:"cross_platform"`
}

// Sum returns the total of all five weights.
func (w Weights) Sum() float64 {
	return w.Volume + w.Engagement + w.Velocity + w.Recency + w.CrossPlatform
}

// Platform weight tables. Search trends has few engagement signals, so volume
// and velocity carry more; the short-video platform's strength is engagement.
var platformWeights = map[source.Platform]Weights{
	source.PlatformSearchTrends: {Volume: 0.35, Engagement: 0.15, Velocity: 0.30, Recency: 0.15, CrossPlatform: 0.05},
	source.PlatformVideo:        {Volume: 0.30, Engagement: 0.25, Velocity: 0.20, Recency: 0.15, CrossPlatform: 0.10},
	source.PlatformShortVideo:   {Volume: 0.25, Engagement: 0.30, Velocity: 0.20, Recency: 0.15, CrossPlatform: 0.10},
}

// WeightsFor returns the weight table for a platform.
func WeightsFor(p source.Platform) (Weights, error) {
	w, ok := platformWeights[p]
	if !ok {
		return Weights{}, fmt.Errorf("no weight table for platform %q", p)
	}
	return w, nil
}

// Trend is the unified entity the pipeline operates on. Component scores are
// filled in raw by the calculator, rescaled in place by the selected
// normalization strategy, and composed into FinalScore.
type Trend struct {
	ID         string             `json:"id"`
	Platform   source.Platform    `json:"platform"`
	EntityType source.EntityType  `json:"entity_type,omitempty"`
	Title      string             `json:"title"`
	URL        string             `json:"url,omitempty"`
	Author     string             `json:"author,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`

	History   []source.HistoryPoint `json:"history,omitempty"`
	Timestamp time.Time             `json:"timestamp,omitempty"`

	Components  map[Component]float64 `json:"component_scores"`
	FinalScore  float64               `json:"final_score"`
	WeightsUsed Weights               `json:"weights_used"`

	// Set only when the caller supplies a previous run.
	PreviousScore *float64 `json:"previous_score,omitempty"`
	ScoreChange   *float64 `json:"score_change,omitempty"`
	PreviousRank  *int     `json:"previous_rank,omitempty"`
	New           bool     `json:"new,omitempty"`
}

// Metric returns the named raw metric, or 0 when absent.
func (t *Trend) Metric(key string) float64 {
	if t.Metrics == nil {
		return 0
	}
	return t.Metrics[key]
}
