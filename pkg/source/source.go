package source

import (
	"context"
	"time"
)

// Platform identifies which content-ranking feed a record came from.
type Platform string

const (
	PlatformSearchTrends Platform = "search_trends"
	PlatformVideo        Platform = "video_platform"
	PlatformShortVideo   Platform = "short_video_platform"
)

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformSearchTrends, PlatformVideo, PlatformShortVideo:
		return true
	}
	return false
}

// EntityType is the sub-kind of a record for platforms that emit more than
// one kind of item. Single-kind platforms use their only kind.
type EntityType string

const (
	EntitySearchQuery EntityType = "search_query"
	EntityVideo       EntityType = "video"
	EntityTag         EntityType = "tag"
	EntityCreator     EntityType = "creator"
	EntityAudio       EntityType = "audio"
	EntityClip        EntityType = "clip"
)

// Metric keys shared between adapters and the scoring pipeline. Each adapter
// fills only the keys its platform provides; readers treat missing keys as
// zero.
const (
	MetricSearchVolume = "search_volume"
	MetricIncreasePct  = "increase_pct"
	MetricActive       = "active" // 1 = currently trending, 0 = ended
	MetricViews        = "views"
	MetricLikes        = "likes"
	MetricComments     = "comments"
	MetricVideos       = "videos"
	MetricFollowers    = "followers"
	MetricLikedTotal   = "liked_total"
	MetricRank         = "rank"
)

// HistoryPoint is one point of a platform-provided growth series.
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Record is the standardized raw record every adapter emits. The scoring
// pipeline reshapes Records into trend entities; adapters never score.
// A zero Timestamp means the platform did not provide one.
type Record struct {
	ID          string             `json:"id" db:"id"`
	Platform    Platform           `json:"platform" db:"platform"`
	EntityType  EntityType         `json:"entity_type" db:"entity_type"`
	ExternalID  string             `json:"external_id" db:"external_id"`
	Title       string             `json:"title" db:"title"`
	URL         string             `json:"url" db:"url"`
	Author      string             `json:"author" db:"author"`
	Metrics     map[string]float64 `json:"metrics" db:"-"`
	History     []HistoryPoint     `json:"history,omitempty" db:"-"`
	Timestamp   time.Time          `json:"timestamp" db:"timestamp"`
	CollectedAt time.Time          `json:"collected_at" db:"collected_at"`
	MetricsJSON string             `json:"-" db:"metrics"`
	HistoryJSON string             `json:"-" db:"history"`
}

// Metric returns the named metric, or 0 when absent.
func (r *Record) Metric(key string) float64 {
	if r.Metrics == nil {
		return 0
	}
	return r.Metrics[key]
}

// Source is the interface every retrieval adapter implements.
type Source interface {
	Name() Platform
	Collect(ctx context.Context) ([]Record, error)
}

// AllPlatforms returns all known platforms.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformSearchTrends,
		PlatformVideo,
		PlatformShortVideo,
	}
}
