package trend

import (
	"math"
	"time"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
)

const (
	// Search volumes run 1K-500K while view counts run 100K-10M; the boost
	// brings them onto the same order of magnitude.
	searchVolumeBoost = 100

	// Follower counts are steadier than view counts, so creators get a
	// small lift instead of the search boost.
	followerBoost = 10

	// Recency halves every 24 hours.
	recencyHalfLifeHours = 24

	// Score when no timestamp can be resolved, equivalent to an entity
	// published roughly 12 hours ago.
	recencyDefault = 70.0

	// Minimum Jaccard overlap for a cross-platform term match.
	crossPlatformThreshold = 0.3
)

// Calculator computes the five raw component scores. All methods are pure
// functions of the entity; CrossPlatform additionally reads the candidate
// set.
type Calculator struct {
	now time.Time
}

// NewCalculator creates a calculator evaluating ages against now.
func NewCalculator(now time.Time) *Calculator {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Calculator{now: now}
}

// Volume scores raw reach. Zero input gives a zero score; the result is
// never negative.
func (c *Calculator) Volume(t *Trend) float64 {
	switch t.Platform {
	case source.PlatformSearchTrends:
		return t.Metric(source.MetricSearchVolume) * searchVolumeBoost

	case source.PlatformVideo:
		return t.Metric(source.MetricViews)

	case source.PlatformShortVideo:
		if t.EntityType == source.EntityCreator {
			return t.Metric(source.MetricFollowers) * followerBoost
		}
		return t.Metric(source.MetricViews)
	}
	return 0
}

// Engagement scores interaction quality as a rate rather than an absolute
// count, so equal interaction with different reach is distinguished.
// Search-trends values are raw percentage increases on an unrelated scale;
// they get range-matched against the other platforms before normalization.
func (c *Calculator) Engagement(t *Trend) float64 {
	switch t.Platform {
	case source.PlatformSearchTrends:
		return t.Metric(source.MetricIncreasePct)

	case source.PlatformVideo:
		views := t.Metric(source.MetricViews)
		if views == 0 {
			return 0
		}
		interactions := t.Metric(source.MetricLikes) + t.Metric(source.MetricComments)
		rate := interactions / views * 100
		// Typical engagement rates are 2-5%; scale up for distribution.
		return rate * 1000

	case source.PlatformShortVideo:
		switch t.EntityType {
		case source.EntityTag:
			views := t.Metric(source.MetricViews)
			if views == 0 {
				return 0
			}
			// More videos per view indicates active participation.
			return t.Metric(source.MetricVideos) / views * 1000000

		case source.EntityCreator:
			followers := t.Metric(source.MetricFollowers)
			if followers == 0 {
				return 0
			}
			return t.Metric(source.MetricLikedTotal) / followers * 100

		default:
			// No richer data; invert rank so a better rank scores higher.
			rank := t.Metric(source.MetricRank)
			if rank <= 0 {
				return 0
			}
			return (100 - rank) * 10
		}
	}
	return 0
}

// Velocity scores growth speed.
func (c *Calculator) Velocity(t *Trend) float64 {
	switch t.Platform {
	case source.PlatformSearchTrends:
		pct := t.Metric(source.MetricIncreasePct)
		velocity := pct * 30
		if t.Metric(source.MetricActive) != 0 {
			velocity *= 1.5
		}
		// Convex reward for breakout virality.
		if pct >= 1000 {
			velocity *= 1.2
		}
		return velocity

	case source.PlatformVideo:
		hours := 24.0 // assumed when no publish time is known
		if !t.Timestamp.IsZero() {
			hours = math.Max(1, c.now.Sub(t.Timestamp).Hours())
		}
		viewVelocity := t.Metric(source.MetricViews) / hours
		interactionVelocity := (t.Metric(source.MetricLikes) + t.Metric(source.MetricComments)) / hours
		// Blend so equal view growth with different interaction growth is
		// distinguished.
		return viewVelocity*0.7 + interactionVelocity*0.3

	case source.PlatformShortVideo:
		if len(t.History) >= 2 {
			delta := t.History[len(t.History)-1].Value - t.History[0].Value
			return math.Max(0, delta) * 100
		}
		rank := t.Metric(source.MetricRank)
		if rank <= 0 {
			return 0
		}
		return (100 - rank) * 10
	}
	return 0
}

// Recency decays exponentially with a 24-hour half-life:
// 100 * 0.5^(age_hours/24), clamped to [0,100]. Entities without a resolved
// timestamp score the fixed default.
func (c *Calculator) Recency(t *Trend) float64 {
	if t.Timestamp.IsZero() {
		return recencyDefault
	}

	ageHours := math.Max(0, c.now.Sub(t.Timestamp).Hours())
	score := 100 * math.Pow(0.5, ageHours/recencyHalfLifeHours)
	return math.Max(0, math.Min(100, score))
}

// CrossPlatform scores presence across sources: 0 for one platform, 50 for
// two, 100 for three or more. A platform counts as found when any of its
// candidates' terms overlap the entity's terms with Jaccard >= 0.3; the
// first qualifying candidate wins, and the order among same-platform
// candidates is unspecified (the resulting score does not depend on it).
// This is the pipeline's O(n²) pass and its scaling limit.
func (c *Calculator) CrossPlatform(idx int, trends []*Trend, terms []termSet) float64 {
	own := terms[idx]
	if len(own) == 0 {
		return 0
	}

	found := map[source.Platform]bool{trends[idx].Platform: true}
	for j, other := range trends {
		if j == idx || found[other.Platform] {
			continue
		}
		if jaccard(own, terms[j]) >= crossPlatformThreshold {
			found[other.Platform] = true
		}
	}

	switch len(found) {
	case 1:
		return 0
	case 2:
		return 50
	default:
		return 100
	}
}
