package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sources  SourcesConfig  `yaml:"sources"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
	Filter   FilterConfig   `yaml:"filter"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures collection and ranking intervals.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
	RankInterval    string `yaml:"rank_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// ParseRankInterval returns the ranking interval as time.Duration.
func (s ScheduleConfig) ParseRankInterval() time.Duration {
	d, err := time.ParseDuration(s.RankInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// SourcesConfig holds configuration for all platform adapters.
type SourcesConfig struct {
	SearchTrends SearchTrendsConfig `yaml:"search_trends"`
	Video        VideoConfig        `yaml:"video"`
	ShortVideo   ShortVideoConfig   `yaml:"short_video"`
}

// SearchTrendsConfig for the search-trends adapter.
type SearchTrendsConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Geo     string `yaml:"geo"`
}

// VideoConfig for the video-platform adapter.
type VideoConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	Region     string `yaml:"region"`
	CategoryID string `yaml:"category_id"`
	MaxResults int    `yaml:"max_results"`
}

// ShortVideoConfig for the short-video-platform adapter.
type ShortVideoConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIToken string `yaml:"api_token"`
	Country  string `yaml:"country"`
	Limit    int    `yaml:"limit"`
}

// ScoringConfig configures the ranking pipeline.
type ScoringConfig struct {
	Strategy   string  `yaml:"strategy"` // minmax | proportion
	Window     string  `yaml:"window"`   // e.g. 24h, 168h; empty = no filter
	Limit      int     `yaml:"limit"`
	AlertScore float64 `yaml:"alert_score"`
}

// ParseWindow returns the configured time window, or zero when unset.
func (s ScoringConfig) ParseWindow() time.Duration {
	if s.Window == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Window)
	if err != nil {
		return 0
	}
	return d
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// FilterConfig restricts collection to topic keywords.
type FilterConfig struct {
	Keywords        []string `yaml:"keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Environment string `yaml:"environment"`
	Level       string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./trendpulse.db"},
		Schedule: ScheduleConfig{
			CollectInterval: "30m",
			RankInterval:    "1h",
		},
		Sources: SourcesConfig{
			SearchTrends: SearchTrendsConfig{Enabled: true, Geo: "US"},
			Video:        VideoConfig{Enabled: true, Region: "US", MaxResults: 50},
			ShortVideo:   ShortVideoConfig{Enabled: false, Country: "US", Limit: 20},
		},
		Scoring: ScoringConfig{
			Strategy:   "minmax",
			Limit:      50,
			AlertScore: 80,
		},
		Alerts:  AlertsConfig{},
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Environment: "local", Level: "info"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRENDPULSE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SEARCH_TRENDS_API_KEY"); v != "" {
		cfg.Sources.SearchTrends.APIKey = v
	}
	if v := os.Getenv("VIDEO_API_KEY"); v != "" {
		cfg.Sources.Video.APIKey = v
	}
	if v := os.Getenv("SHORT_VIDEO_API_TOKEN"); v != "" {
		cfg.Sources.ShortVideo.APIToken = v
		cfg.Sources.ShortVideo.Enabled = true
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
