package db

import (
	"database/sql"
	"fmt"
)

// AlertRow is the persisted shape of one speech-change alert. Payload holds
// the full alert JSON; the scalar columns exist so the UI layer can filter
// without decoding.
type AlertRow struct {
	Character    string
	Window1Start int
	Window1End   int
	Window2Start int
	Window2End   int
	Confidence   float64
	Severity     string
	Payload      []byte
}

// ReplaceAlerts swaps the project's alert set for the given one. Alerts are
// regenerated every run, so writes are whole-project and transactional.
func ReplaceAlerts(conn *sql.DB, project string, alerts []AlertRow) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM speech_alerts WHERE project_id = ?`, project); err != nil {
		return fmt.Errorf("clear alerts: %w", err)
	}
	for _, a := range alerts {
		if _, err := tx.Exec(
			`INSERT INTO speech_alerts
			   (project_id, character_id, window1_start, window1_end, window2_start, window2_end, confidence, severity, payload)
			 VALUES(?,?,?,?,?,?,?,?,?)`,
			project, a.Character, a.Window1Start, a.Window1End, a.Window2Start, a.Window2End, a.Confidence, a.Severity, string(a.Payload),
		); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AlertsFor returns the stored alerts for a project, optionally narrowed to
// one character, ordered by character and first window.
func AlertsFor(conn *sql.DB, project, character string) ([]AlertRow, error) {
	query := `SELECT character_id, window1_start, window1_end, window2_start, window2_end, confidence, severity, payload
	          FROM speech_alerts WHERE project_id = ?`
	args := []any{project}
	if character != "" {
		query += ` AND character_id = ?`
		args = append(args, character)
	}
	query += ` ORDER BY character_id, window1_start, window2_start`

	rows, err := conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRow
	for rows.Next() {
		var a AlertRow
		var payload string
		if err := rows.Scan(&a.Character, &a.Window1Start, &a.Window1End, &a.Window2Start, &a.Window2End, &a.Confidence, &a.Severity, &payload); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Payload = []byte(payload)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}
