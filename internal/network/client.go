package network

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SamirShaikh03/temporal-debt/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// CommandType identifies a player command from the frontend.
type CommandType string

const (
	CommandFreeze      CommandType = "freeze"
	CommandUnfreeze    CommandType = "unfreeze"
	CommandMove        CommandType = "move"
	CommandPlaceAnchor CommandType = "place_anchor"
	CommandRecall      CommandType = "recall"
	CommandRewind      CommandType = "rewind"
	CommandSpawnClone  CommandType = "spawn_clone"
	CommandCheckpoint  CommandType = "checkpoint"
	CommandReset       CommandType = "reset"
)

// Command is a parsed player input forwarded to the simulation loop.
type Command struct {
	Type CommandType `json:"type"`

	// Move direction, unit-square components.
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// Recall target slot; -1 means nearest.
	Slot int `json:"slot,omitempty"`
}

// Client represents an active WebSocket connection.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	lastCommand time.Time
	minInterval time.Duration
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	minInterval := time.Duration(0)
	if hub.tuning.MaxMessagesPerSecond > 0 {
		minInterval = time.Second / time.Duration(hub.tuning.MaxMessagesPerSecond)
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, hub.tuning.ClientSendBuffer),
		minInterval: minInterval,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps commands from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("Failed to parse command from WebSocket: " + err.Error())
			metrics.Get().RecordCommand(false)
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd Command) {
	// Rate limiting check. Movement is continuous input and exempt.
	if cmd.Type != CommandMove {
		if time.Since(c.lastCommand) < c.minInterval {
			c.hub.logger.Warn("Rate limit exceeded for command " + string(cmd.Type))
			metrics.Get().RecordCommand(false)
			return
		}
		c.lastCommand = time.Now()
	}

	switch cmd.Type {
	case CommandFreeze, CommandUnfreeze, CommandMove, CommandPlaceAnchor,
		CommandRecall, CommandRewind, CommandSpawnClone, CommandCheckpoint,
		CommandReset:
		select {
		case c.hub.commands <- cmd:
			metrics.Get().RecordCommand(true)
		default:
			// Simulation is behind; shedding input beats stalling the pump.
			metrics.Get().RecordCommand(false)
		}
	default:
		c.hub.logger.Warn("Unknown command type: " + string(cmd.Type))
		metrics.Get().RecordCommand(false)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
