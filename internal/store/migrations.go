package store

const schema = `
CREATE TABLE IF NOT EXISTS records (
    id           TEXT PRIMARY KEY,
    platform     TEXT NOT NULL,
    entity_type  TEXT NOT NULL DEFAULT '',
    external_id  TEXT NOT NULL,
    title        TEXT NOT NULL,
    url          TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    metrics      TEXT NOT NULL DEFAULT '{}',
    history      TEXT NOT NULL DEFAULT '[]',
    timestamp    DATETIME NOT NULL,
    collected_at DATETIME NOT NULL,
    UNIQUE(platform, entity_type, external_id)
);

CREATE INDEX IF NOT EXISTS idx_records_platform ON records(platform);
CREATE INDEX IF NOT EXISTS idx_records_collected_at ON records(collected_at);

CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    strategy     TEXT NOT NULL,
    time_window  TEXT NOT NULL DEFAULT '',
    generated_at DATETIME NOT NULL,
    total_count  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at);

CREATE TABLE IF NOT EXISTS run_trends (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL REFERENCES runs(id),
    position    INTEGER NOT NULL,
    entity_id   TEXT NOT NULL,
    platform    TEXT NOT NULL,
    entity_type TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    final_score REAL NOT NULL DEFAULT 0,
    components  TEXT NOT NULL DEFAULT '{}',
    weights     TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_run_trends_run ON run_trends(run_id);
CREATE INDEX IF NOT EXISTS idx_run_trends_score ON run_trends(final_score);
`
