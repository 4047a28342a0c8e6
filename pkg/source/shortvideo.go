package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const shortVideoAPIURL = "https://api.apify.com/v2/acts/trend-scrapers~creative-center/run-sync-get-dataset-items"

// ShortVideo collects trending tags, creators, audio tracks and clips from
// the short-video platform's creative-center rankings via a scraper actor.
type ShortVideo struct {
	client  *http.Client
	apiKey  string
	country string
	limit   int
	filter  *Filter
	log     zerolog.Logger
}

// NewShortVideo creates a new short-video-platform collector.
func NewShortVideo(apiKey, country string, limit int, filter *Filter, log zerolog.Logger) *ShortVideo {
	if country == "" {
		country = "US"
	}
	if limit <= 0 {
		limit = 20
	}
	return &ShortVideo{
		client:  &http.Client{Timeout: 120 * time.Second}, // scraper runs are slow
		apiKey:  apiKey,
		country: country,
		limit:   limit,
		filter:  filter,
		log:     log.With().Str("source", string(PlatformShortVideo)).Logger(),
	}
}

func (s *ShortVideo) Name() Platform { return PlatformShortVideo }

func (s *ShortVideo) Collect(ctx context.Context) ([]Record, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("short video: API token required (set SHORT_VIDEO_API_TOKEN)")
	}

	input := map[string]any{
		"countryCode":    s.country,
		"resultsPerPage": s.limit,
		"rankType":       "popular",
		"scrapeHashtags": true,
		"scrapeCreators": true,
		"scrapeSounds":   true,
		"scrapeVideos":   true,
	}
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode short video input: %w", err)
	}

	params := url.Values{}
	params.Set("token", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		shortVideoAPIURL+"?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create short video request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch short video trends: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("short video status %d", resp.StatusCode)
	}

	var items []shortVideoItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode short video trends: %w", err)
	}

	records := s.mapItems(items)
	s.log.Debug().Int("count", len(records)).Msg("collected short video trends")
	return records, nil
}

// mapItems converts scraped dataset items into Records, one branch per item
// kind.
func (s *ShortVideo) mapItems(items []shortVideoItem) []Record {
	now := time.Now().UTC()
	var records []Record

	for _, item := range items {
		if item.Name == "" {
			continue
		}
		if s.filter != nil && !s.filter.Matches(item.Name) {
			continue
		}

		rec := Record{
			Platform:    PlatformShortVideo,
			Title:       item.Name,
			URL:         item.URL,
			Author:      item.Author,
			History:     item.history(),
			CollectedAt: now,
			Metrics: map[string]float64{
				MetricRank: float64(item.Rank),
			},
		}

		switch item.Type {
		case "hashtag":
			rec.EntityType = EntityTag
			rec.ExternalID = item.Name
			rec.Title = "#" + item.Name
			rec.Metrics[MetricViews] = float64(item.ViewCount)
			rec.Metrics[MetricVideos] = float64(item.VideoCount)
		case "creator":
			rec.EntityType = EntityCreator
			rec.ExternalID = item.URL
			rec.Metrics[MetricFollowers] = float64(item.FollowerCount)
			rec.Metrics[MetricLikedTotal] = float64(item.LikedCount)
		case "sound":
			rec.EntityType = EntityAudio
			rec.ExternalID = item.URL
			rec.Metrics[MetricViews] = float64(item.ViewCount)
		case "video":
			rec.EntityType = EntityClip
			rec.ExternalID = item.URL
			rec.Metrics[MetricViews] = float64(item.ViewCount)
		default:
			continue
		}

		rec.ID = fmt.Sprintf("short_video_platform:%s:%s", rec.EntityType, rec.ExternalID)

		// The rankings carry no publish time; the last histogram point is
		// the closest thing to a recency signal.
		if len(rec.History) > 0 {
			rec.Timestamp = rec.History[len(rec.History)-1].Date
		}

		records = append(records, rec)
	}

	return records
}

type shortVideoItem struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Author        string `json:"author"`
	Rank          int    `json:"rank"`
	ViewCount     int64  `json:"viewCount"`
	VideoCount    int64  `json:"videoCount"`
	FollowerCount int64  `json:"followerCount"`
	LikedCount    int64  `json:"likedCount"`
	Histogram     []struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	} `json:"trendingHistogram"`
}

func (i shortVideoItem) history() []HistoryPoint {
	var points []HistoryPoint
	for _, h := range i.Histogram {
		ts, err := time.Parse(time.RFC3339, h.Date)
		if err != nil {
			ts, err = time.Parse("2006-01-02", h.Date)
			if err != nil {
				continue
			}
		}
		points = append(points, HistoryPoint{Date: ts.UTC(), Value: h.Value})
	}
	return points
}
