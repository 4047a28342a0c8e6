package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/madushan-jaya-sri/trendpulse/pkg/trend"
)

// Notification describes one breakout trend sent to alert destinations.
type Notification struct {
	Title       string                      `json:"title"`
	Platform    string                      `json:"platform"`
	EntityType  string                      `json:"entity_type,omitempty"`
	URL         string                      `json:"url,omitempty"`
	Score       float64                     `json:"score"`
	ScoreChange *float64                    `json:"score_change,omitempty"`
	Breakdown   map[trend.Component]float64 `json:"component_scores"`
}

// FromTrend builds a notification from a ranked entity.
func FromTrend(t *trend.Trend) *Notification {
	return &Notification{
		Title:       t.Title,
		Platform:    string(t.Platform),
		EntityType:  string(t.EntityType),
		URL:         t.URL,
		Score:       t.FinalScore,
		ScoreChange: t.ScoreChange,
		Breakdown:   t.Components,
	}
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// breakdownLine renders the five component scores for chat messages.
func breakdownLine(b map[trend.Component]float64) string {
	return fmt.Sprintf("vol %.0f · eng %.0f · vel %.0f · rec %.0f · xp %.0f",
		b[trend.ComponentVolume], b[trend.ComponentEngagement],
		b[trend.ComponentVelocity], b[trend.ComponentRecency],
		b[trend.ComponentCrossPlatform])
}
