package trend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
)

// Options controls one ranking run.
type Options struct {
	// Window drops entities with a timestamp older than now-Window.
	// Zero disables the filter.
	Window time.Duration

	// Strategy rescales Volume/Engagement/Velocity; nil selects MinMax.
	Strategy Strategy

	// Limit truncates the ranked output; non-positive keeps everything.
	Limit int

	// Previous is an earlier run's ranked output, in rank order. When set,
	// each result is annotated with its previous score and rank.
	Previous []Trend

	// Now pins the evaluation time for age-based scoring. Zero uses the
	// wall clock.
	Now time.Time
}

// Result is one ranking run's output.
type Result struct {
	RunID          string                  `json:"run_id"`
	GeneratedAt    time.Time               `json:"generated_at"`
	Strategy       string                  `json:"strategy"`
	Trends         []*Trend                `json:"trends"`
	TotalCount     int                     `json:"total_count"`
	PlatformCounts map[source.Platform]int `json:"platform_counts"`
}

// Engine runs the aggregation-and-scoring pipeline: normalize, filter,
// compute raw components, rescale, compose with platform weights, rank.
// Rank is pure and synchronous; concurrent invocations are safe as long as
// each gets its own record slice.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new scoring engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "engine").Logger()}
}

// Rank scores and orders the supplied raw records. An empty input yields an
// empty result; an unknown platform tag is an error because every downstream
// stage is platform-indexed.
func (e *Engine) Rank(records []source.Record, opts Options) (*Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	strategy := opts.Strategy
	if strategy == nil {
		strategy = MinMax{}
	}

	result := &Result{
		RunID:          uuid.NewString(),
		GeneratedAt:    now,
		Strategy:       strategy.Name(),
		PlatformCounts: make(map[source.Platform]int),
	}

	trends := make([]*Trend, 0, len(records))
	for _, rec := range records {
		t, err := Normalize(rec)
		if err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}

	trends = FilterWindow(trends, opts.Window, now)
	if len(trends) == 0 {
		result.Trends = []*Trend{}
		return result, nil
	}

	calc := NewCalculator(now)
	terms := make([]termSet, len(trends))
	for i, t := range trends {
		terms[i] = significantTerms(t.Title)
	}

	for i, t := range trends {
		t.Components[ComponentVolume] = calc.Volume(t)
		t.Components[ComponentEngagement] = calc.Engagement(t)
		t.Components[ComponentVelocity] = calc.Velocity(t)
		t.Components[ComponentRecency] = calc.Recency(t)
		t.Components[ComponentCrossPlatform] = calc.CrossPlatform(i, trends, terms)
	}

	rescaleSearchEngagement(trends)

	for _, component := range []Component{ComponentVolume, ComponentEngagement, ComponentVelocity} {
		applyPerPlatform(trends, component, strategy)
	}

	for _, t := range trends {
		weights, err := WeightsFor(t.Platform)
		if err != nil {
			return nil, err
		}

		score := weights.Volume*t.Components[ComponentVolume] +
			weights.Engagement*t.Components[ComponentEngagement] +
			weights.Velocity*t.Components[ComponentVelocity] +
			weights.Recency*t.Components[ComponentRecency] +
			weights.CrossPlatform*t.Components[ComponentCrossPlatform]

		t.FinalScore = math.Round(score*100) / 100
		t.WeightsUsed = weights
		result.PlatformCounts[t.Platform]++
	}

	annotatePrevious(trends, opts.Previous)

	// Stable on ties so the ranking is deterministic for a given input
	// order.
	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].FinalScore > trends[j].FinalScore
	})

	result.TotalCount = len(trends)
	if opts.Limit > 0 && len(trends) > opts.Limit {
		trends = trends[:opts.Limit]
	}
	result.Trends = trends

	e.log.Debug().
		Str("run_id", result.RunID).
		Str("strategy", result.Strategy).
		Int("ranked", len(trends)).
		Int("total", result.TotalCount).
		Msg("ranking complete")

	return result, nil
}

// applyPerPlatform runs the strategy over one component's raw values,
// grouped by platform so cross-platform scale differences cannot leak
// through.
func applyPerPlatform(trends []*Trend, component Component, strategy Strategy) {
	groups := make(map[source.Platform][]int)
	for i, t := range trends {
		groups[t.Platform] = append(groups[t.Platform], i)
	}

	for _, indices := range groups {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = trends[idx].Components[component]
		}
		strategy.Apply(values)
		for i, idx := range indices {
			trends[idx].Components[component] = values[i]
		}
	}
}

// annotatePrevious attaches previous-run scores and ranks, matched by
// entity ID. Previous is expected in rank order.
func annotatePrevious(trends []*Trend, previous []Trend) {
	if len(previous) == 0 {
		return
	}

	type prior struct {
		score float64
		rank  int
	}
	byID := make(map[string]prior, len(previous))
	for i, p := range previous {
		byID[fmt.Sprintf("%s|%s", p.Platform, p.ID)] = prior{score: p.FinalScore, rank: i + 1}
	}

	for _, t := range trends {
		p, ok := byID[fmt.Sprintf("%s|%s", t.Platform, t.ID)]
		if !ok {
			t.New = true
			continue
		}
		score := p.score
		change := math.Round((t.FinalScore-p.score)*100) / 100
		rank := p.rank
		t.PreviousScore = &score
		t.ScoreChange = &change
		t.PreviousRank = &rank
	}
}
