// Package storage provides the persistence layer for the temporal server.
// This package implements the repository pattern to keep the core pure.
package storage

import (
	"context"
	"time"
)

// StoredEvent mirrors the core notification structure for persistence.
// The core package should NOT import this; it sees only the persister
// interface on its bus.
type StoredEvent struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for notification persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event StoredEvent) error

	// GetBySessionID retrieves all events for a session (for replay).
	GetBySessionID(ctx context.Context, sessionID string) ([]StoredEvent, error)

	// GetByEventType retrieves all events of a specific type in a session.
	GetByEventType(ctx context.Context, sessionID string, eventType string) ([]StoredEvent, error)

	// GetRecent retrieves the newest events of a session, oldest first.
	GetRecent(ctx context.Context, sessionID string, limit int) ([]StoredEvent, error)
}

// RunStats is the durable per-session summary written at session end and
// on checkpoints.
type RunStats struct {
	SessionID       string    `json:"session_id" db:"session_id"`
	TotalFreezeTime float64   `json:"total_freeze_time" db:"total_freeze_time"`
	TotalAccrued    float64   `json:"total_accrued" db:"total_accrued"`
	TotalRepaid     float64   `json:"total_repaid" db:"total_repaid"`
	PeakDebt        float64   `json:"peak_debt" db:"peak_debt"`
	TimesBankrupt   int       `json:"times_bankrupt" db:"times_bankrupt"`
	WavesSurvived   int       `json:"waves_survived" db:"waves_survived"`
	WavesPenalized  int       `json:"waves_penalized" db:"waves_penalized"`
	LastUpdated     time.Time `json:"last_updated" db:"last_updated"`
}

// StatsRepository defines the interface for run statistics.
type StatsRepository interface {
	// Upsert updates or inserts a session's stats row.
	Upsert(ctx context.Context, stats RunStats) error

	// GetBySessionID retrieves a specific session's stats.
	GetBySessionID(ctx context.Context, sessionID string) (*RunStats, error)

	// GetAll retrieves every recorded session, newest first.
	GetAll(ctx context.Context) ([]RunStats, error)
}
