// Package network - replay.go
// Notification history endpoints. The frontend timeline and post-run
// review read the recent feed from here; deep history lives in SQLite
// and is served from the same handler when a repository is attached.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/infra/storage"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
)

// HistoryHandler serves the notification history API.
type HistoryHandler struct {
	bus       *events.Bus
	repo      storage.EventRepository // optional deep history
	sessionID string
	logger    *logger.Logger
}

// NewHistoryHandler creates the history API. repo may be nil, limiting
// responses to the in-memory feed.
func NewHistoryHandler(bus *events.Bus, repo storage.EventRepository, sessionID string, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		bus:       bus,
		repo:      repo,
		sessionID: sessionID,
		logger:    log,
	}
}

// HistoryEvent is the public shape of a notification.
type HistoryEvent struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
}

// HistoryResponse is the API response for the history endpoints.
type HistoryResponse struct {
	SessionID   string         `json:"session_id"`
	TotalEvents int            `json:"total_events"`
	FilteredBy  string         `json:"filtered_by,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Events      []HistoryEvent `json:"events"`
}

// HandleHistory returns the recent notification feed.
// GET /api/history?type=REWIND_USED&limit=50&source=db
func (hh *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		hh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventType := r.URL.Query().Get("type")
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if n, err := strconv.Atoi(ls); err == nil && n > 0 {
			limit = n
		}
	}

	var out []HistoryEvent
	filterDesc := ""

	if r.URL.Query().Get("source") == "db" && hh.repo != nil {
		stored, err := hh.fetchStored(r.Context(), eventType, limit)
		if err != nil {
			hh.logger.Error("History query failed: " + err.Error())
			hh.jsonError(w, "History unavailable", http.StatusInternalServerError)
			return
		}
		for _, e := range stored {
			out = append(out, HistoryEvent{
				ID:        e.ID,
				Timestamp: e.Timestamp.Format(time.RFC3339),
				Type:      e.EventType,
				Payload:   e.Payload,
			})
		}
		filterDesc = "db"
	} else {
		var feed []events.Event
		if eventType != "" {
			feed = hh.bus.HistoryByType(events.EventType(eventType))
			filterDesc = eventType
		} else {
			feed = hh.bus.History(limit)
		}
		if limit > 0 && len(feed) > limit {
			feed = feed[len(feed)-limit:]
		}
		for _, e := range feed {
			out = append(out, HistoryEvent{
				ID:        e.ID,
				Timestamp: e.Timestamp.Format(time.RFC3339),
				Type:      string(e.Type),
				Payload:   e.Payload,
			})
		}
	}

	response := HistoryResponse{
		SessionID:   hh.sessionID,
		TotalEvents: len(out),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      out,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (hh *HistoryHandler) fetchStored(ctx context.Context, eventType string, limit int) ([]storage.StoredEvent, error) {
	if eventType != "" {
		return hh.repo.GetByEventType(ctx, hh.sessionID, eventType)
	}
	if limit > 0 {
		return hh.repo.GetRecent(ctx, hh.sessionID, limit)
	}
	return hh.repo.GetBySessionID(ctx, hh.sessionID)
}

// HandleStats returns aggregate notification counts by type.
// GET /api/history/stats
func (hh *HistoryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		hh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts := make(map[string]int)
	for _, e := range hh.bus.History(0) {
		counts[string(e.Type)]++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session_id":   hh.sessionID,
		"generated_at": time.Now().Format(time.RFC3339),
		"counts":       counts,
	})
}

// RegisterRoutes sets up the history API routes.
func (hh *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/history", hh.HandleHistory)
	mux.HandleFunc("/api/history/stats", hh.HandleStats)
}

// jsonError sends an error response.
func (hh *HistoryHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
