package trend

import (
	"fmt"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
)

// Strategy rescales one component's raw values onto a common 0-100 range.
// It is selected once per pipeline run and applied independently per
// platform and per component, to Volume, Engagement and Velocity only;
// Recency and CrossPlatform leave the calculator already in [0,100].
type Strategy interface {
	Name() string
	// Apply rewrites values in place. An empty slice is a no-op.
	Apply(values []float64)
}

// MinMax rescales with 100*(raw-min)/(max-min). When every value is equal
// the spread is zero, so all entities get the mid-range value 50.
type MinMax struct{}

func (MinMax) Name() string { return "minmax" }

func (MinMax) Apply(values []float64) {
	if len(values) == 0 {
		return
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for i := range values {
			values[i] = 50.0
		}
		return
	}

	for i, v := range values {
		values[i] = (v - min) / (max - min) * 100
	}
}

// Proportion rescales each value to its share of the component total, so all
// values for one platform and component sum to exactly 100. A zero total is
// distributed equally to preserve the mass.
type Proportion struct{}

func (Proportion) Name() string { return "proportion" }

func (Proportion) Apply(values []float64) {
	if len(values) == 0 {
		return
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	if sum == 0 {
		share := 100 / float64(len(values))
		for i := range values {
			values[i] = share
		}
		return
	}

	for i, v := range values {
		values[i] = v / sum * 100
	}
}

// ParseStrategy resolves a configured strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "minmax", "percentile":
		return MinMax{}, nil
	case "proportion":
		return Proportion{}, nil
	}
	return nil, fmt.Errorf("unknown normalization strategy %q", name)
}

// rescaleSearchEngagement maps the search platform's raw Engagement values
// (percentage increases) onto the range of the other platforms' positive raw
// Engagement values, since the two live on unrelated scales. Linear min-max
// mapping between the two ranges; a no-op when either side is empty.
func rescaleSearchEngagement(trends []*Trend) {
	var search []*Trend
	var otherMin, otherMax float64
	haveOther := false

	for _, t := range trends {
		if t.Platform == source.PlatformSearchTrends {
			search = append(search, t)
			continue
		}
		v := t.Components[ComponentEngagement]
		if v <= 0 {
			continue
		}
		if !haveOther || v < otherMin {
			otherMin = v
		}
		if !haveOther || v > otherMax {
			otherMax = v
		}
		haveOther = true
	}

	if len(search) == 0 || !haveOther {
		return
	}

	searchMin, searchMax := search[0].Components[ComponentEngagement], search[0].Components[ComponentEngagement]
	for _, t := range search[1:] {
		v := t.Components[ComponentEngagement]
		if v < searchMin {
			searchMin = v
		}
		if v > searchMax {
			searchMax = v
		}
	}

	searchRange := searchMax - searchMin
	if searchRange == 0 {
		searchRange = 1
	}
	otherRange := otherMax - otherMin

	for _, t := range search {
		normalized := (t.Components[ComponentEngagement] - searchMin) / searchRange
		t.Components[ComponentEngagement] = otherMin + normalized*otherRange
	}
}
