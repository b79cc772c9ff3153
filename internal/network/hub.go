package network

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/SamirShaikh03/temporal-debt/internal/events"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/logger"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/metrics"
	"github.com/SamirShaikh03/temporal-debt/internal/platform/optimization"
)

// Hub maintains the set of active clients, broadcasts core notifications
// and state frames to them, and funnels their commands to the simulation.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	commands   chan Command
	mu         sync.Mutex
	logger     *logger.Logger
	tuning     *optimization.Config
}

// NewHub initializes a new WebSocket Hub.
func NewHub(log *logger.Logger, tuning *optimization.Config) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, tuning.BroadcastChannelBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan Command, tuning.CommandChannelBuffer),
		clients:    make(map[*Client]bool),
		logger:     log,
		tuning:     tuning,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSError()
					metrics.Get().RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Commands exposes the queue of parsed player commands. The simulation
// loop drains this once per frame.
func (h *Hub) Commands() <-chan Command {
	return h.commands
}

// envelope wraps every outbound message with a kind tag so the frontend
// can route notifications and state frames from one socket.
type envelope struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

// BroadcastNotification serializes a core notification and queues it for
// all connected clients. Drops the message when the queue is saturated;
// notifications are advisory, the state frame carries the truth.
func (h *Hub) BroadcastNotification(event events.Event) {
	payload, err := json.Marshal(envelope{Kind: "event", Data: event})
	if err != nil {
		h.logger.Error("Failed to serialize notification for broadcast: " + err.Error())
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		metrics.Get().RecordWSError()
	}
}

// BroadcastState queues a full state frame for all connected clients.
func (h *Hub) BroadcastState(state interface{}) {
	payload, err := json.Marshal(envelope{Kind: "state", Data: state})
	if err != nil {
		h.logger.Error("Failed to serialize state frame for broadcast: " + err.Error())
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		metrics.Get().RecordWSError()
	}
}

// AttachBus forwards every notification published on the bus to the
// connected clients.
func (h *Hub) AttachBus(bus *events.Bus) {
	bus.SubscribeAll(h.BroadcastNotification)
}
