// Package gateway serves the conversational WebSocket surface and a
// single-shot HTTP JSON-RPC endpoint over the tool dispatcher. Each
// WebSocket connection owns one conversation; turns on a connection are
// processed one at a time.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gupta-soham/goodfoods/pkg/agent"
	"github.com/gupta-soham/goodfoods/pkg/mcpserver"
)

// ChatAgent is the per-connection conversation loop. *agent.Runner
// satisfies it.
type ChatAgent interface {
	ProcessMessage(ctx context.Context, userMessage string, emit func(agent.Event)) (agent.Result, error)
}

// Config holds server configuration
type Config struct {
	Host       string
	Port       int
	NewAgent   func() (ChatAgent, error)
	Dispatcher *mcpserver.Server
	Logger     zerolog.Logger
}

// Server is the chat gateway server
type Server struct {
	host           string
	port           int
	newAgent       func() (ChatAgent, error)
	dispatcher     *mcpserver.Server
	server         *http.Server
	upgrader       websocket.Upgrader
	clients        *ClientRegistry
	logger         zerolog.Logger
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates a new gateway server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.NewAgent == nil {
		return nil, fmt.Errorf("agent factory is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	return &Server{
		host:       cfg.Host,
		port:       cfg.Port,
		newAgent:   cfg.NewAgent,
		dispatcher: cfg.Dispatcher,
		clients:    NewClientRegistry(),
		logger:     cfg.Logger.With().Str("component", "gateway").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}, nil
}

// addr builds the listen address from the configured host and port.
func (s *Server) addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Handler returns the HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// Start starts the gateway server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr(),
		Handler: s.Handler(),
	}

	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting gateway server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Stop gracefully stops the gateway server
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")

	// Cancel every connection context first so in-flight provider calls
	// stop instead of running out the drain timeout.
	for _, client := range s.clients.GetAll() {
		client.cancel()
	}

	// Wait for in-flight turns with timeout
	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight turns completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	for _, client := range s.clients.GetAll() {
		client.Conn.Close()
	}

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

// Clients exposes connection info for status surfaces.
func (s *Server) Clients() []ClientInfo {
	return s.clients.GetConnectedClients()
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	chatAgent, err := s.newAgent()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create conversation agent")
		http.Error(w, "Failed to start conversation", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:           uuid.NewString(),
		Conn:         conn,
		Agent:        chatAgent,
		ConnectedAt:  time.Now(),
		LastActivity: time.Now(),
		IPAddress:    r.RemoteAddr,
		ctx:          ctx,
		cancel:       cancel,
	}
	s.clients.Add(client)

	s.logger.Info().
		Str("clientId", client.ID).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	go s.handleClient(client)
}

// handleClient reads frames from one connection. Turns run sequentially;
// the read loop does not pick up the next frame until the current turn is
// answered.
func (s *Server) handleClient(client *Client) {
	defer func() {
		client.cancel()
		client.Conn.Close()
		s.clients.Remove(client.ID)
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error().Err(err).Str("clientId", client.ID).Msg("WebSocket error")
			}
			return
		}

		s.clients.UpdateActivity(client.ID)

		var frame ChatFrame
		if err := json.Unmarshal(message, &frame); err != nil || frame.Type != "chat" {
			s.writeFrame(client, ErrorFrame{Type: "error", Message: "expected a chat frame"})
			continue
		}

		s.handleChat(client, frame.Message)
	}
}

// handleChat runs one conversation turn and streams its events back.
func (s *Server) handleChat(client *Client, message string) {
	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	emit := func(ev agent.Event) {
		s.writeFrame(client, EventFrame{
			Type:      "event",
			Stream:    string(ev.Stream),
			Phase:     ev.Phase,
			Tool:      ev.Tool,
			Round:     ev.Round,
			Content:   ev.Content,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	result, err := client.Agent.ProcessMessage(client.ctx, message, emit)
	if err != nil {
		s.logger.Error().Err(err).Str("clientId", client.ID).Msg("Turn failed")
		s.writeFrame(client, ErrorFrame{
			Type:    "error",
			Message: "I couldn't reach the assistant just now. Your conversation is intact, please try again.",
		})
		return
	}

	s.writeFrame(client, DoneFrame{Type: "done", Content: result.Response, Degraded: result.Degraded})
}

func (s *Server) writeFrame(client *Client, frame interface{}) {
	if err := client.Conn.WriteJSON(frame); err != nil {
		s.logger.Error().Err(err).Str("clientId", client.ID).Msg("Failed to send frame")
	}
}

// handleRPC handles single-shot HTTP JSON-RPC requests against the tool
// dispatcher.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	response := s.dispatcher.HandleData(r.Context(), body)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
