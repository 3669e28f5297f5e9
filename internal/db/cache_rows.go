package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetCachedMetrics returns the serialized metrics for one full cache key, or
// ok=false when no row matches all six fields.
func GetCachedMetrics(conn *sql.DB, project, character string, startChapter, endChapter int, fingerprint, configHash string) ([]byte, bool, error) {
	row := conn.QueryRow(
		`SELECT metrics FROM speech_metrics_cache
		 WHERE project_id = ? AND character_id = ? AND start_chapter = ? AND end_chapter = ?
		   AND fingerprint = ? AND config_hash = ?`,
		project, character, startChapter, endChapter, fingerprint, configHash,
	)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache row: %w", err)
	}
	return []byte(payload), true, nil
}

// PutCachedMetrics upserts one cache row. Last writer wins on conflict.
func PutCachedMetrics(conn *sql.DB, project, character string, startChapter, endChapter int, fingerprint, configHash string, metrics []byte) error {
	_, err := conn.Exec(
		`INSERT INTO speech_metrics_cache
		   (project_id, character_id, start_chapter, end_chapter, fingerprint, config_hash, metrics, created_at)
		 VALUES(?,?,?,?,?,?,?,datetime('now'))
		 ON CONFLICT(project_id, character_id, start_chapter, end_chapter, fingerprint, config_hash)
		 DO UPDATE SET metrics = excluded.metrics, created_at = excluded.created_at`,
		project, character, startChapter, endChapter, fingerprint, configHash, string(metrics),
	)
	if err != nil {
		return fmt.Errorf("write cache row: %w", err)
	}
	return nil
}

// DeleteStaleCache removes every cache row of the project whose fingerprint
// differs from keepFingerprint. Stale rows are orphaned the moment the
// document changes; they are never consulted, only collected here.
func DeleteStaleCache(conn *sql.DB, project, keepFingerprint string) (int64, error) {
	if keepFingerprint == "" {
		return 0, fmt.Errorf("gc: refusing to run with an empty fingerprint")
	}
	res, err := conn.Exec(
		`DELETE FROM speech_metrics_cache WHERE project_id = ? AND fingerprint != ?`,
		project, keepFingerprint,
	)
	if err != nil {
		return 0, fmt.Errorf("delete stale cache rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale cache rows affected: %w", err)
	}
	return n, nil
}
