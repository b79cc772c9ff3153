package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event StoredEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, payload)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var payloadStr string
		err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &payloadStr)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]StoredEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, payload FROM events WHERE session_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]StoredEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, payload FROM events WHERE session_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

func (r *SQLiteEventRepository) GetRecent(ctx context.Context, sessionID string, limit int) ([]StoredEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, payload FROM (
		SELECT id, session_id, timestamp, event_type, payload FROM events
		WHERE session_id = ? ORDER BY timestamp DESC LIMIT ?
	) ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, limit)
}

// ---------------------------------------------------------
// SQLiteStatsRepository
// ---------------------------------------------------------

type SQLiteStatsRepository struct {
	db *sql.DB
}

func NewSQLiteStatsRepository(db *sql.DB) *SQLiteStatsRepository {
	return &SQLiteStatsRepository{db: db}
}

func (r *SQLiteStatsRepository) Upsert(ctx context.Context, stats RunStats) error {
	query := `
		INSERT INTO run_stats (session_id, total_freeze_time, total_accrued, total_repaid, peak_debt, times_bankrupt, waves_survived, waves_penalized, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			total_freeze_time=excluded.total_freeze_time,
			total_accrued=excluded.total_accrued,
			total_repaid=excluded.total_repaid,
			peak_debt=excluded.peak_debt,
			times_bankrupt=excluded.times_bankrupt,
			waves_survived=excluded.waves_survived,
			waves_penalized=excluded.waves_penalized,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		stats.SessionID, stats.TotalFreezeTime, stats.TotalAccrued, stats.TotalRepaid,
		stats.PeakDebt, stats.TimesBankrupt, stats.WavesSurvived, stats.WavesPenalized, time.Now(),
	)
	return err
}

func (r *SQLiteStatsRepository) GetBySessionID(ctx context.Context, sessionID string) (*RunStats, error) {
	query := `SELECT session_id, total_freeze_time, total_accrued, total_repaid, peak_debt, times_bankrupt, waves_survived, waves_penalized, last_updated FROM run_stats WHERE session_id = ?`
	var s RunStats
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.SessionID, &s.TotalFreezeTime, &s.TotalAccrued, &s.TotalRepaid,
		&s.PeakDebt, &s.TimesBankrupt, &s.WavesSurvived, &s.WavesPenalized, &s.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteStatsRepository) GetAll(ctx context.Context) ([]RunStats, error) {
	query := `SELECT session_id, total_freeze_time, total_accrued, total_repaid, peak_debt, times_bankrupt, waves_survived, waves_penalized, last_updated FROM run_stats ORDER BY last_updated DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunStats
	for rows.Next() {
		var s RunStats
		if err := rows.Scan(&s.SessionID, &s.TotalFreezeTime, &s.TotalAccrued, &s.TotalRepaid,
			&s.PeakDebt, &s.TimesBankrupt, &s.WavesSurvived, &s.WavesPenalized, &s.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
