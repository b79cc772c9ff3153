package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) (*SQLiteEventRepository, *SQLiteStatsRepository) {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "temporal.db"), 4, 2)
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteEventRepository(db), NewSQLiteStatsRepository(db)
}

func TestInitSQLiteAppliesPoolLimits(t *testing.T) {
	// Setup
	db, err := InitSQLite(filepath.Join(t.TempDir(), "temporal.db"), 7, 3)
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Assert
	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Errorf("expected max open connections 7, got %d", got)
	}
}

func TestInitSQLiteKeepsDefaultsForZeroLimits(t *testing.T) {
	// Setup
	db, err := InitSQLite(filepath.Join(t.TempDir(), "temporal.db"), 0, 0)
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Assert: zero means unlimited, the database/sql default
	if got := db.Stats().MaxOpenConnections; got != 0 {
		t.Errorf("expected unlimited open connections, got %d", got)
	}
}

func storedEvent(id, session, eventType string, at time.Time) StoredEvent {
	return StoredEvent{
		ID:        id,
		SessionID: session,
		Timestamp: at,
		EventType: eventType,
		Payload:   map[string]interface{}{"amount": 1.5},
	}
}

func TestAppendAndReplayBySession(t *testing.T) {
	// Setup
	events, _ := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	// Act: two sessions interleaved
	for i, e := range []StoredEvent{
		storedEvent("e1", "s1", "TIME_FROZEN", base),
		storedEvent("e2", "s2", "TIME_FROZEN", base.Add(1*time.Second)),
		storedEvent("e3", "s1", "DEBT_CHANGED", base.Add(2*time.Second)),
	} {
		if err := events.Append(ctx, e); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	// Assert: only s1, oldest first, payload intact
	got, err := events.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events for s1, got %d", len(got))
	}
	if got[0].ID != "e1" || got[1].ID != "e3" {
		t.Errorf("Expected order e1, e3, got %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Payload["amount"] != 1.5 {
		t.Errorf("Payload lost on round trip: %v", got[0].Payload)
	}
}

func TestGetByEventTypeFilters(t *testing.T) {
	// Setup
	events, _ := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()
	events.Append(ctx, storedEvent("e1", "s1", "TIME_FROZEN", base))
	events.Append(ctx, storedEvent("e2", "s1", "DEBT_CHANGED", base.Add(time.Second)))
	events.Append(ctx, storedEvent("e3", "s1", "TIME_FROZEN", base.Add(2*time.Second)))

	// Act
	got, err := events.GetByEventType(ctx, "s1", "TIME_FROZEN")

	// Assert
	if err != nil {
		t.Fatalf("GetByEventType failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 TIME_FROZEN events, got %d", len(got))
	}
}

func TestGetRecentReturnsNewestOldestFirst(t *testing.T) {
	// Setup: five events, ask for the last two
	events, _ := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		events.Append(ctx, storedEvent(id, "s1", "DEBT_CHANGED", base.Add(time.Duration(i)*time.Second)))
	}

	// Act
	got, err := events.GetRecent(ctx, "s1", 2)

	// Assert: the two newest, re-ordered oldest first
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}
	if got[0].ID != "d" || got[1].ID != "e" {
		t.Errorf("Expected d then e, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestStatsUpsertOverwrites(t *testing.T) {
	// Setup
	_, stats := newTestDB(t)
	ctx := context.Background()

	first := RunStats{SessionID: "s1", TotalFreezeTime: 2.0, PeakDebt: 6.0, LastUpdated: time.Now().UTC()}
	second := first
	second.TotalFreezeTime = 9.0
	second.TimesBankrupt = 1

	// Act
	if err := stats.Upsert(ctx, first); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if err := stats.Upsert(ctx, second); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	// Assert: a single row holding the latest values
	got, err := stats.GetBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySessionID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a stats row, got nil")
	}
	if got.TotalFreezeTime != 9.0 || got.TimesBankrupt != 1 {
		t.Errorf("Expected updated row, got %+v", got)
	}

	all, err := stats.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 session row, got %d", len(all))
	}
}

func TestStatsMissingSessionIsNil(t *testing.T) {
	// Setup
	_, stats := newTestDB(t)

	// Act
	got, err := stats.GetBySessionID(context.Background(), "nope")

	// Assert
	if err != nil {
		t.Fatalf("Expected nil error for missing session, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil stats for missing session, got %+v", got)
	}
}
