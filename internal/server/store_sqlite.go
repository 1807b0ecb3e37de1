package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) InsertReport(ctx context.Context, rec StoredReport) (bool, error) {
	cycles, err := json.Marshal(rec.Cycles)
	if err != nil {
		return false, fmt.Errorf("marshaling cycles: %w", err)
	}
	endgame, err := json.Marshal(rec.Endgame)
	if err != nil {
		return false, fmt.Errorf("marshaling endgame: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (report_id, event_key, match_key, station, robot,
			scout_id, scout_name, match_start_time, cycles, endgame)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (report_id) DO NOTHING
	`, rec.ReportID, rec.EventKey, rec.MatchKey, rec.Station, rec.Robot,
		rec.ScoutID, rec.ScoutName, rec.MatchStartTime, string(cycles), string(endgame))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, eventKey, matchKey string, robot int) ([]StoredReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, event_key, match_key, station, robot,
			scout_id, scout_name, match_start_time, cycles, endgame, created_at
		FROM reports
		WHERE event_key = ?
			AND (? = '' OR match_key = ?)
			AND (? = 0 OR robot = ?)
		ORDER BY created_at
	`, eventKey, matchKey, matchKey, robot, robot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var rec StoredReport
		var cycles, endgame string
		if err := rows.Scan(&rec.ReportID, &rec.EventKey, &rec.MatchKey, &rec.Station,
			&rec.Robot, &rec.ScoutID, &rec.ScoutName, &rec.MatchStartTime,
			&cycles, &endgame, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cycles), &rec.Cycles); err != nil {
			return nil, fmt.Errorf("unmarshaling cycles for %s: %w", rec.ReportID, err)
		}
		if err := json.Unmarshal([]byte(endgame), &rec.Endgame); err != nil {
			return nil, fmt.Errorf("unmarshaling endgame for %s: %w", rec.ReportID, err)
		}
		reports = append(reports, rec)
	}
	return reports, rows.Err()
}

func (s *SQLiteStore) SavePending(ctx context.Context, key PendingKey, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_reports (event_key, match_key, station, scout_id, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (event_key, match_key, station, scout_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, key.EventKey, key.MatchKey, key.Station, key.ScoutID, string(payload))
	return err
}

func (s *SQLiteStore) LoadPending(ctx context.Context, key PendingKey) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM pending_reports
		WHERE event_key = ? AND match_key = ? AND station = ? AND scout_id = ?
	`, key.EventKey, key.MatchKey, key.Station, key.ScoutID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) DeletePending(ctx context.Context, key PendingKey) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM pending_reports
		WHERE event_key = ? AND match_key = ? AND station = ? AND scout_id = ?
	`, key.EventKey, key.MatchKey, key.Station, key.ScoutID)
	return err
}
