package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
	"github.com/madushan-jaya-sri/trendpulse/pkg/trend"
)

// Run is one persisted ranking run.
type Run struct {
	ID          string    `db:"id" json:"id"`
	Strategy    string    `db:"strategy" json:"strategy"`
	Window      string    `db:"time_window" json:"window"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
	TotalCount  int       `db:"total_count" json:"total_count"`
}

// TrendRow is one ranked entity within a run.
type TrendRow struct {
	ID             int64   `db:"id" json:"-"`
	RunID          string  `db:"run_id" json:"run_id"`
	Position       int     `db:"position" json:"position"`
	EntityID       string  `db:"entity_id" json:"entity_id"`
	Platform       string  `db:"platform" json:"platform"`
	EntityType     string  `db:"entity_type" json:"entity_type,omitempty"`
	Title          string  `db:"title" json:"title"`
	URL            string  `db:"url" json:"url,omitempty"`
	FinalScore     float64 `db:"final_score" json:"final_score"`
	ComponentsJSON string  `db:"components" json:"-"`
	WeightsJSON    string  `db:"weights" json:"-"`

	Components map[trend.Component]float64 `db:"-" json:"component_scores"`
	Weights    trend.Weights               `db:"-" json:"weights_used"`
}

// ListOpts controls record listing.
type ListOpts struct {
	Platform source.Platform
	Since    time.Time
	Limit    int
}

// Store is the persistence interface.
type Store interface {
	UpsertRecord(ctx context.Context, rec *source.Record) error
	UpsertRecords(ctx context.Context, recs []source.Record) error
	ListRecords(ctx context.Context, opts ListOpts) ([]source.Record, error)
	CountRecordsByPlatform(ctx context.Context) (map[source.Platform]int, error)

	SaveRun(ctx context.Context, window string, result *trend.Result) error
	LatestRun(ctx context.Context) (*Run, []trend.Trend, error)
	ListRunTrends(ctx context.Context, runID string) ([]TrendRow, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertRecord(ctx context.Context, rec *source.Record) error {
	metricsJSON, _ := json.Marshal(rec.Metrics)
	historyJSON, _ := json.Marshal(rec.History)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, platform, entity_type, external_id, title, url, author, metrics, history, timestamp, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			author = excluded.author,
			metrics = excluded.metrics,
			history = excluded.history,
			timestamp = excluded.timestamp,
			collected_at = excluded.collected_at
	`, rec.ID, rec.Platform, rec.EntityType, rec.ExternalID, rec.Title, rec.URL,
		rec.Author, string(metricsJSON), string(historyJSON), rec.Timestamp, rec.CollectedAt)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertRecords(ctx context.Context, recs []source.Record) error {
	for i := range recs {
		if err := s.UpsertRecord(ctx, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, opts ListOpts) ([]source.Record, error) {
	query := "SELECT * FROM records WHERE 1=1"
	var args []any

	if opts.Platform != "" {
		query += " AND platform = ?"
		args = append(args, opts.Platform)
	}
	if !opts.Since.IsZero() {
		query += " AND collected_at >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY collected_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var recs []source.Record
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	for i := range recs {
		json.Unmarshal([]byte(recs[i].MetricsJSON), &recs[i].Metrics)
		json.Unmarshal([]byte(recs[i].HistoryJSON), &recs[i].History)
	}
	return recs, nil
}

func (s *SQLiteStore) CountRecordsByPlatform(ctx context.Context) (map[source.Platform]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT platform, COUNT(*) as cnt FROM records GROUP BY platform")
	if err != nil {
		return nil, fmt.Errorf("count records by platform: %w", err)
	}
	defer rows.Close()

	counts := make(map[source.Platform]int)
	for rows.Next() {
		var platform string
		var cnt int
		if err := rows.Scan(&platform, &cnt); err != nil {
			return nil, err
		}
		counts[source.Platform(platform)] = cnt
	}
	return counts, rows.Err()
}

// SaveRun persists a ranking run and its ordered trends.
func (s *SQLiteStore) SaveRun(ctx context.Context, window string, result *trend.Result) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, strategy, time_window, generated_at, total_count)
		VALUES (?, ?, ?, ?, ?)
	`, result.RunID, result.Strategy, window, result.GeneratedAt, result.TotalCount)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}

	for i, t := range result.Trends {
		componentsJSON, _ := json.Marshal(t.Components)
		weightsJSON, _ := json.Marshal(t.WeightsUsed)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_trends (run_id, position, entity_id, platform, entity_type, title, url, final_score, components, weights)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, result.RunID, i+1, t.ID, t.Platform, t.EntityType, t.Title, t.URL,
			t.FinalScore, string(componentsJSON), string(weightsJSON))
		if err != nil {
			return fmt.Errorf("insert run trend %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", result.RunID, err)
	}
	return nil
}

// LatestRun returns the most recent run and its ranked trends, shaped for
// the engine's previous-run comparison. Returns nil without error when no
// run exists yet.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, []trend.Trend, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, "SELECT * FROM runs ORDER BY generated_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("latest run: %w", err)
	}

	rows, err := s.ListRunTrends(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}

	trends := make([]trend.Trend, len(rows))
	for i, row := range rows {
		trends[i] = trend.Trend{
			ID:          row.EntityID,
			Platform:    source.Platform(row.Platform),
			EntityType:  source.EntityType(row.EntityType),
			Title:       row.Title,
			URL:         row.URL,
			FinalScore:  row.FinalScore,
			Components:  row.Components,
			WeightsUsed: row.Weights,
		}
	}
	return &run, trends, nil
}

func (s *SQLiteStore) ListRunTrends(ctx context.Context, runID string) ([]TrendRow, error) {
	var rows []TrendRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM run_trends WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("list run trends %s: %w", runID, err)
	}

	for i := range rows {
		json.Unmarshal([]byte(rows[i].ComponentsJSON), &rows[i].Components)
		json.Unmarshal([]byte(rows[i].WeightsJSON), &rows[i].Weights)
	}
	return rows, nil
}
