// Package db owns the sqlite store shared by the metrics cache and the
// alert query surface. Cache rows are keyed by the full
// (project, character, window range, fingerprint, config hash) tuple with a
// uniqueness constraint, so concurrent writers converge to one row per key.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS speech_metrics_cache (
    project_id   TEXT NOT NULL,
    character_id TEXT NOT NULL,
    start_chapter INTEGER NOT NULL,
    end_chapter   INTEGER NOT NULL,
    fingerprint  TEXT NOT NULL,
    config_hash  TEXT NOT NULL,
    metrics      TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(project_id, character_id, start_chapter, end_chapter, fingerprint, config_hash)
);

CREATE TABLE IF NOT EXISTS speech_alerts (
    id INTEGER PRIMARY KEY,
    project_id    TEXT NOT NULL,
    character_id  TEXT NOT NULL,
    window1_start INTEGER NOT NULL,
    window1_end   INTEGER NOT NULL,
    window2_start INTEGER NOT NULL,
    window2_end   INTEGER NOT NULL,
    confidence    REAL NOT NULL,
    severity      TEXT NOT NULL,
    payload       TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_speech_alerts_character
    ON speech_alerts(project_id, character_id);
`

func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer; sqlite serializes anyway and this avoids SQLITE_BUSY
	// from pooled connections.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return conn, nil
}
