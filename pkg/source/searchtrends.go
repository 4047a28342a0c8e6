package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const (
	searchTrendsAPIURL  = "https://serpapi.com/search.json"
	searchTrendsFeedURL = "https://trends.google.com/trending/rss"
)

// SearchTrends collects trending search queries. With an API key it uses the
// trending-now JSON API, which carries search volume, percentage increase and
// the active flag; without one it falls back to the public RSS feed, which
// only exposes approximate traffic.
type SearchTrends struct {
	client *http.Client
	parser *gofeed.Parser
	apiKey string
	geo    string
	filter *Filter
	log    zerolog.Logger
}

// NewSearchTrends creates a new search-trends collector.
func NewSearchTrends(apiKey, geo string, filter *Filter, log zerolog.Logger) *SearchTrends {
	if geo == "" {
		geo = "US"
	}
	return &SearchTrends{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		apiKey: apiKey,
		geo:    geo,
		filter: filter,
		log:    log.With().Str("source", string(PlatformSearchTrends)).Logger(),
	}
}

func (s *SearchTrends) Name() Platform { return PlatformSearchTrends }

func (s *SearchTrends) Collect(ctx context.Context) ([]Record, error) {
	if s.apiKey != "" {
		return s.collectAPI(ctx)
	}
	return s.collectFeed(ctx)
}

func (s *SearchTrends) collectAPI(ctx context.Context) ([]Record, error) {
	params := url.Values{}
	params.Set("engine", "google_trends_trending_now")
	params.Set("geo", s.geo)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchTrendsAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search trends request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch search trends: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search trends status %d", resp.StatusCode)
	}

	var result struct {
		TrendingSearches []struct {
			Query              string  `json:"query"`
			SearchVolume       float64 `json:"search_volume"`
			IncreasePercentage float64 `json:"increase_percentage"`
			Active             bool    `json:"active"`
			StartTimestamp     int64   `json:"start_timestamp"`
			NewsLink           string  `json:"serpapi_news_link"`
		} `json:"trending_searches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search trends: %w", err)
	}

	now := time.Now().UTC()
	var records []Record

	for _, t := range result.TrendingSearches {
		if t.Query == "" {
			continue
		}
		if s.filter != nil && !s.filter.Matches(t.Query) {
			continue
		}

		active := 0.0
		if t.Active {
			active = 1.0
		}

		var started time.Time
		if t.StartTimestamp > 0 {
			started = time.Unix(t.StartTimestamp, 0).UTC()
		}

		records = append(records, Record{
			ID:         fmt.Sprintf("search_trends:%s", t.Query),
			Platform:   PlatformSearchTrends,
			EntityType: EntitySearchQuery,
			ExternalID: t.Query,
			Title:      t.Query,
			URL:        t.NewsLink,
			Metrics: map[string]float64{
				MetricSearchVolume: t.SearchVolume,
				MetricIncreasePct:  t.IncreasePercentage,
				MetricActive:       active,
			},
			Timestamp:   started,
			CollectedAt: now,
		})
	}

	s.log.Debug().Int("count", len(records)).Msg("collected trending searches")
	return records, nil
}

func (s *SearchTrends) collectFeed(ctx context.Context) ([]Record, error) {
	feedURL := searchTrendsFeedURL + "?geo=" + url.QueryEscape(s.geo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create search trends feed request: %w", err)
	}
	req.Header.Set("User-Agent", "trendpulse/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch search trends feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search trends feed status %d", resp.StatusCode)
	}

	parsed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search trends feed: %w", err)
	}

	now := time.Now().UTC()
	var records []Record

	for _, entry := range parsed.Items {
		if entry.Title == "" {
			continue
		}
		if s.filter != nil && !s.filter.Matches(entry.Title) {
			continue
		}

		var started time.Time
		if entry.PublishedParsed != nil {
			started = entry.PublishedParsed.UTC()
		}

		records = append(records, Record{
			ID:         fmt.Sprintf("search_trends:%s", entry.Title),
			Platform:   PlatformSearchTrends,
			EntityType: EntitySearchQuery,
			ExternalID: entry.Title,
			Title:      entry.Title,
			URL:        entry.Link,
			Metrics: map[string]float64{
				MetricSearchVolume: approxTraffic(entry),
				// The feed carries no growth data; the trend is still
				// listed, so treat it as active.
				MetricActive: 1.0,
			},
			Timestamp:   started,
			CollectedAt: now,
		})
	}

	s.log.Debug().Int("count", len(records)).Msg("collected trending searches from feed")
	return records, nil
}

// approxTraffic parses the feed's approximate traffic extension, e.g.
// "200,000+" -> 200000.
func approxTraffic(entry *gofeed.Item) float64 {
	ext, ok := entry.Extensions["ht"]
	if !ok {
		return 0
	}
	values, ok := ext["approx_traffic"]
	if !ok || len(values) == 0 {
		return 0
	}

	raw := strings.TrimSuffix(strings.ReplaceAll(values[0].Value, ",", ""), "+")
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return n
}
