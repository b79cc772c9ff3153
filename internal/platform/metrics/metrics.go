// Package metrics provides observability for the temporal server.
// Counters are cheap atomics sampled on the hot frame path.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Frame metrics
	FrameCount      int64
	FrameLatencySum int64 // nanoseconds
	FrameLatencyMax int64
	LastFrameTime   time.Time

	// Event persistence metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Command metrics
	CommandsAccepted int64
	CommandsRejected int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordFrame records one simulation frame completion.
func (c *Collector) RecordFrame(latency time.Duration) {
	atomic.AddInt64(&c.FrameCount, 1)
	atomic.AddInt64(&c.FrameLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.FrameLatencyMax) {
		atomic.StoreInt64(&c.FrameLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastFrameTime = time.Now()
	c.mu.Unlock()
}

// RecordEventWrite records a notification write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordCommand records a player command outcome.
func (c *Collector) RecordCommand(accepted bool) {
	if accepted {
		atomic.AddInt64(&c.CommandsAccepted, 1)
	} else {
		atomic.AddInt64(&c.CommandsRejected, 1)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	frameCount := atomic.LoadInt64(&c.FrameCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	// Calculate averages
	var frameAvg, eventAvg float64
	if frameCount > 0 {
		frameAvg = float64(atomic.LoadInt64(&c.FrameLatencySum)) / float64(frameCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"frame": map[string]interface{}{
			"count":          frameCount,
			"avg_latency_ms": frameAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.FrameLatencyMax)) / 1e6,
			"last_frame":     c.LastFrameTime.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"commands": map[string]interface{}{
			"accepted": atomic.LoadInt64(&c.CommandsAccepted),
			"rejected": atomic.LoadInt64(&c.CommandsRejected),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		// Frame metrics
		fmt.Fprintf(w, "# HELP temporal_frame_count Total simulation frames\n")
		fmt.Fprintf(w, "# TYPE temporal_frame_count counter\n")
		fmt.Fprintf(w, "temporal_frame_count %d\n\n", atomic.LoadInt64(&c.FrameCount))

		fmt.Fprintf(w, "# HELP temporal_frame_latency_max_ms Maximum frame latency\n")
		fmt.Fprintf(w, "# TYPE temporal_frame_latency_max_ms gauge\n")
		fmt.Fprintf(w, "temporal_frame_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.FrameLatencyMax))/1e6)

		// Event metrics
		fmt.Fprintf(w, "# HELP temporal_events_written Total notifications persisted\n")
		fmt.Fprintf(w, "# TYPE temporal_events_written counter\n")
		fmt.Fprintf(w, "temporal_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP temporal_event_write_errors Total persistence errors\n")
		fmt.Fprintf(w, "# TYPE temporal_event_write_errors counter\n")
		fmt.Fprintf(w, "temporal_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		// WebSocket metrics
		fmt.Fprintf(w, "# HELP temporal_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE temporal_ws_connections gauge\n")
		fmt.Fprintf(w, "temporal_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP temporal_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE temporal_ws_messages_total counter\n")
		fmt.Fprintf(w, "temporal_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "temporal_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		// Command metrics
		fmt.Fprintf(w, "# HELP temporal_commands_total Player commands by outcome\n")
		fmt.Fprintf(w, "# TYPE temporal_commands_total counter\n")
		fmt.Fprintf(w, "temporal_commands_total{outcome=\"accepted\"} %d\n", atomic.LoadInt64(&c.CommandsAccepted))
		fmt.Fprintf(w, "temporal_commands_total{outcome=\"rejected\"} %d\n", atomic.LoadInt64(&c.CommandsRejected))
	}
}
