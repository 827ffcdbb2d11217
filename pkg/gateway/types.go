package gateway

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// ChatFrame is an inbound client message.
type ChatFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EventFrame is an outbound progress marker. Tool invocations and lifecycle
// markers use it so the UI can render them apart from answer text.
type EventFrame struct {
	Type      string `json:"type"`
	Stream    string `json:"stream"`
	Phase     string `json:"phase"`
	Tool      string `json:"tool,omitempty"`
	Round     int    `json:"round,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// DoneFrame closes a turn with the assembled answer.
type DoneFrame struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Degraded bool   `json:"degraded,omitempty"`
}

// ErrorFrame reports a per-turn failure. The connection stays open and the
// conversation history survives for the next message.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ClientInfo represents information about a connected client
type ClientInfo struct {
	ID           string    `json:"id"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity"`
	IPAddress    string    `json:"ipAddress"`
	Idle         bool      `json:"idle"`
}

// Client represents a connected WebSocket client. The context covers the
// connection's lifetime: it is cancelled when the read loop exits or the
// server shuts down, stopping any in-flight turn.
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Agent        ChatAgent
	ConnectedAt  time.Time
	LastActivity time.Time
	IPAddress    string

	ctx    context.Context
	cancel context.CancelFunc
}
