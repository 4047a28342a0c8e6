package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const videoAPIURL = "https://www.googleapis.com/youtube/v3/videos"

// Video collects the most-popular chart from the video platform.
type Video struct {
	client     *http.Client
	apiKey     string
	region     string
	categoryID string
	maxResults int
	filter     *Filter
	log        zerolog.Logger
}

// NewVideo creates a new video-platform collector.
func NewVideo(apiKey, region, categoryID string, maxResults int, filter *Filter, log zerolog.Logger) *Video {
	if region == "" {
		region = "US"
	}
	if maxResults <= 0 || maxResults > 50 {
		maxResults = 50
	}
	return &Video{
		client:     &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		region:     region,
		categoryID: categoryID,
		maxResults: maxResults,
		filter:     filter,
		log:        log.With().Str("source", string(PlatformVideo)).Logger(),
	}
}

func (v *Video) Name() Platform { return PlatformVideo }

func (v *Video) Collect(ctx context.Context) ([]Record, error) {
	if v.apiKey == "" {
		return nil, fmt.Errorf("video: API key required (set VIDEO_API_KEY)")
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("chart", "mostPopular")
	params.Set("regionCode", v.region)
	params.Set("maxResults", fmt.Sprintf("%d", v.maxResults))
	params.Set("key", v.apiKey)
	if v.categoryID != "" {
		params.Set("videoCategoryId", v.categoryID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create video chart request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch video chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video chart status %d", resp.StatusCode)
	}

	var result videoChartResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode video chart: %w", err)
	}

	now := time.Now().UTC()
	var records []Record

	for _, item := range result.Items {
		if item.ID == "" {
			continue
		}
		if v.filter != nil && !v.filter.Matches(item.Snippet.Title+" "+item.Snippet.Description) {
			continue
		}

		records = append(records, Record{
			ID:         fmt.Sprintf("video_platform:%s", item.ID),
			Platform:   PlatformVideo,
			EntityType: EntityVideo,
			ExternalID: item.ID,
			Title:      item.Snippet.Title,
			URL:        fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.ID),
			Author:     item.Snippet.ChannelTitle,
			Metrics: map[string]float64{
				MetricViews:    float64(item.Statistics.ViewCount),
				MetricLikes:    float64(item.Statistics.LikeCount),
				MetricComments: float64(item.Statistics.CommentCount),
			},
			Timestamp:   item.Snippet.PublishedAt,
			CollectedAt: now,
		})
	}

	v.log.Debug().Int("count", len(records)).Msg("collected video chart")
	return records, nil
}

type videoChartResult struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			Description  string    `json:"description"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    int64 `json:"viewCount,string"`
			LikeCount    int64 `json:"likeCount,string"`
			CommentCount int64 `json:"commentCount,string"`
		} `json:"statistics"`
	} `json:"items"`
}
