package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord is one row of the capture session log.
type SessionRecord struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	PresetName string `json:"preset_name,omitempty"`
	OpenedAt   int64  `json:"opened_at"`
	ClosedAt   *int64 `json:"closed_at,omitempty"`
	Frames     uint64 `json:"frames"`
	Published  uint64 `json:"published"`
	EndReason  string `json:"end_reason,omitempty"`
}

// RecordSessionStart logs a newly opened capture session.
func (db *DB) RecordSessionStart(id, source, preset string, openedAt time.Time) error {
	var presetName sql.NullString
	if preset != "" {
		presetName = sql.NullString{String: preset, Valid: true}
	}
	_, err := db.Exec(`INSERT INTO capture_sessions (session_id, source, preset_name, opened_at)
	          VALUES (?, ?, ?, ?)`, id, source, presetName, openedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

// RecordSessionEnd stores the final counters and why the session ended.
func (db *DB) RecordSessionEnd(id string, closedAt time.Time, frames, published uint64, reason string) error {
	result, err := db.Exec(`UPDATE capture_sessions
	          SET closed_at = ?, frames = ?, published = ?, end_reason = ?
	          WHERE session_id = ?`, closedAt.Unix(), frames, published, reason, id)
	if err != nil {
		return fmt.Errorf("failed to record session end: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown session %q", id)
	}
	return nil
}

// RecentSessions returns up to limit sessions, newest first.
func (db *DB) RecentSessions(limit int) ([]SessionRecord, error) {
	rows, err := db.Query(`SELECT session_id, source, preset_name, opened_at, closed_at, frames, published, end_reason
	          FROM capture_sessions
	          ORDER BY opened_at DESC, rowid DESC
	          LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionRecord{}
	for rows.Next() {
		var s SessionRecord
		var preset sql.NullString
		var closed sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Source, &preset, &s.OpenedAt, &closed, &s.Frames, &s.Published, &s.EndReason); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.PresetName = preset.String
		if closed.Valid {
			s.ClosedAt = &closed.Int64
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
