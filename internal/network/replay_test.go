package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

func newTestHistoryAPI(t *testing.T) (*HistoryHandler, *events.Bus) {
	t.Helper()
	bus := events.NewBus(nil)
	return NewHistoryHandler(bus, nil, "session-test", logger.NewLogger()), bus
}

func TestHistoryEndpointReturnsFeed(t *testing.T) {
	// Setup
	api, bus := newTestHistoryAPI(t)
	bus.Publish(events.EventTypeTimeFrozen, nil)
	bus.Publish(events.EventTypeDebtChanged, map[string]float64{"amount": 1.5})

	// Act
	rec := httptest.NewRecorder()
	api.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	// Assert
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp.SessionID != "session-test" {
		t.Errorf("Expected session-test, got %s", resp.SessionID)
	}
	if resp.TotalEvents != 2 || len(resp.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d", resp.TotalEvents)
	}
	if resp.Events[0].Type != string(events.EventTypeTimeFrozen) {
		t.Errorf("Expected oldest first, got %s", resp.Events[0].Type)
	}
	if want := bus.History(0)[0].ID; resp.Events[0].ID != want {
		t.Errorf("Expected event ID %s carried through, got %s", want, resp.Events[0].ID)
	}
}

func TestHistoryEndpointFiltersByType(t *testing.T) {
	// Setup
	api, bus := newTestHistoryAPI(t)
	bus.Publish(events.EventTypeTimeFrozen, nil)
	bus.Publish(events.EventTypeDebtChanged, nil)
	bus.Publish(events.EventTypeTimeFrozen, nil)

	// Act
	rec := httptest.NewRecorder()
	api.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?type=TIME_FROZEN", nil))

	// Assert
	var resp HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp.TotalEvents != 2 {
		t.Fatalf("Expected 2 filtered events, got %d", resp.TotalEvents)
	}
	if resp.FilteredBy != "TIME_FROZEN" {
		t.Errorf("Expected filter echo, got %q", resp.FilteredBy)
	}
}

func TestHistoryEndpointHonorsLimit(t *testing.T) {
	// Setup
	api, bus := newTestHistoryAPI(t)
	for i := 0; i < 10; i++ {
		bus.Publish(events.EventTypeDebtChanged, i)
	}

	// Act
	rec := httptest.NewRecorder()
	api.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=3", nil))

	// Assert
	var resp HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp.TotalEvents != 3 {
		t.Errorf("Expected 3 events under limit, got %d", resp.TotalEvents)
	}
}

func TestHistoryEndpointRejectsPost(t *testing.T) {
	// Setup
	api, _ := newTestHistoryAPI(t)

	// Act
	rec := httptest.NewRecorder()
	api.HandleHistory(rec, httptest.NewRequest(http.MethodPost, "/api/history", nil))

	// Assert
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestStatsEndpointCountsByType(t *testing.T) {
	// Setup
	api, bus := newTestHistoryAPI(t)
	bus.Publish(events.EventTypeTimeFrozen, nil)
	bus.Publish(events.EventTypeTimeFrozen, nil)
	bus.Publish(events.EventTypeRewindUsed, nil)

	// Act
	rec := httptest.NewRecorder()
	api.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/api/history/stats", nil))

	// Assert
	var resp struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp.Counts["TIME_FROZEN"] != 2 || resp.Counts["REWIND_USED"] != 1 {
		t.Errorf("Unexpected counts: %v", resp.Counts)
	}
}
