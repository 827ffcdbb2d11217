package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta-soham/goodfoods/pkg/agent"
	"github.com/gupta-soham/goodfoods/pkg/mcpserver"
	"github.com/gupta-soham/goodfoods/pkg/reservation"
	"github.com/gupta-soham/goodfoods/pkg/store"
)

// echoAgent emits one tool marker and two text chunks, then answers.
type echoAgent struct {
	fail bool
}

func (a *echoAgent) ProcessMessage(ctx context.Context, userMessage string, emit func(agent.Event)) (agent.Result, error) {
	if a.fail {
		return agent.Result{}, errors.New("provider unreachable")
	}
	emit(agent.Event{Stream: agent.StreamTool, Phase: "start", Tool: "search_restaurants", Round: 1})
	emit(agent.Event{Stream: agent.StreamAssistant, Phase: "delta", Content: "You said: "})
	emit(agent.Event{Stream: agent.StreamAssistant, Phase: "delta", Content: userMessage})
	return agent.Result{Response: "You said: " + userMessage}, nil
}

// hangingAgent blocks until its context is cancelled and reports why.
type hangingAgent struct {
	started chan struct{}
	ctxErr  chan error
}

func (a *hangingAgent) ProcessMessage(ctx context.Context, _ string, _ func(agent.Event)) (agent.Result, error) {
	close(a.started)
	<-ctx.Done()
	a.ctxErr <- ctx.Err()
	return agent.Result{}, ctx.Err()
}

func newTestServer(t *testing.T, chatAgent ChatAgent) (*Server, *httptest.Server) {
	t.Helper()

	s := store.New()
	require.NoError(t, s.AddRestaurant(store.Restaurant{
		ID: "rest_001", Name: "Spice Villa", Cuisine: "North Indian", Location: "Koramangala",
		SeatingCapacity: 40,
		OperatingHours:  map[string]store.OperatingWindow{"monday": {Open: "11:00", Close: "22:00"}},
		PriceRange:      "$$", Rating: 4.5,
	}))
	engine := reservation.New(s, reservation.DefaultConfig(), zerolog.Nop())
	dispatcher, err := mcpserver.NewServer(s, engine, zerolog.Nop())
	require.NoError(t, err)

	srv, err := NewServer(Config{
		Port:       8080,
		NewAgent:   func() (ChatAgent, error) { return chatAgent, nil },
		Dispatcher: dispatcher,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewServer(t *testing.T) {
	t.Run("requires port, agent factory and dispatcher", func(t *testing.T) {
		_, err := NewServer(Config{})
		assert.Error(t, err)

		_, err = NewServer(Config{Port: 8080})
		assert.Error(t, err)

		_, err = NewServer(Config{Port: 8080, NewAgent: func() (ChatAgent, error) { return &echoAgent{}, nil }})
		assert.Error(t, err)
	})
}

func TestChatTurn(t *testing.T) {
	_, ts := newTestServer(t, &echoAgent{})
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(ChatFrame{Type: "chat", Message: "find me a table"}))

	// Events first, then the done frame with the whole answer.
	var frames []map[string]interface{}
	for {
		var frame map[string]interface{}
		require.NoError(t, conn.ReadJSON(&frame))
		frames = append(frames, frame)
		if frame["type"] == "done" {
			break
		}
	}

	require.GreaterOrEqual(t, len(frames), 4)
	assert.Equal(t, "event", frames[0]["type"])
	assert.Equal(t, "tool", frames[0]["stream"])
	assert.Equal(t, "search_restaurants", frames[0]["tool"])
	assert.Equal(t, "assistant", frames[1]["stream"])

	done := frames[len(frames)-1]
	assert.Equal(t, "You said: find me a table", done["content"])
}

func TestChatBadFrame(t *testing.T) {
	_, ts := newTestServer(t, &echoAgent{})
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame["type"])

	// The connection survives a bad frame.
	require.NoError(t, conn.WriteJSON(ChatFrame{Type: "chat", Message: "hello there"}))
	for {
		require.NoError(t, conn.ReadJSON(&frame))
		if frame["type"] == "done" {
			break
		}
	}
}

func TestChatTurnFailure(t *testing.T) {
	_, ts := newTestServer(t, &echoAgent{fail: true})
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(ChatFrame{Type: "chat", Message: "anything"}))

	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame["type"])
	assert.Contains(t, frame["message"], "try again")
}

func TestStopCancelsInFlightTurn(t *testing.T) {
	hung := &hangingAgent{started: make(chan struct{}), ctxErr: make(chan error, 1)}
	srv, ts := newTestServer(t, hung)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(ChatFrame{Type: "chat", Message: "hold the line"}))

	select {
	case <-hung.started:
	case <-time.After(2 * time.Second):
		t.Fatal("turn never started")
	}

	require.NoError(t, srv.Stop())

	select {
	case err := <-hung.ctxErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("turn outlived shutdown")
	}
}

func TestListenAddr(t *testing.T) {
	s := &Server{host: "127.0.0.1", port: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.addr())

	s = &Server{port: 8080}
	assert.Equal(t, ":8080", s.addr())
}

func TestHTTPRPC(t *testing.T) {
	_, ts := newTestServer(t, &echoAgent{})

	t.Run("tools list", func(t *testing.T) {
		body := []byte(`{"jsonrpc":"2.0","id":"1","method":"tools/list"}`)
		resp, err := http.Post(ts.URL+"/rpc", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		var rpcResp mcpserver.RPCResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
		assert.Nil(t, rpcResp.Error)
		assert.Equal(t, "1", rpcResp.ID)
	})

	t.Run("parse error", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/rpc", "application/json", strings.NewReader("{broken"))
		require.NoError(t, err)
		defer resp.Body.Close()

		var rpcResp mcpserver.RPCResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
		require.NotNil(t, rpcResp.Error)
		assert.Equal(t, mcpserver.ParseError, rpcResp.Error.Code)
	})

	t.Run("get only health endpoint", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
