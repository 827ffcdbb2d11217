package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupta-soham/goodfoods/pkg/mcpserver"
	"github.com/gupta-soham/goodfoods/pkg/reservation"
	"github.com/gupta-soham/goodfoods/pkg/store"
)

// scriptedProvider replays a fixed sequence of responses. Each call records
// whether tools were offered so tests can assert the closing turn disables
// them.
type scriptedProvider struct {
	script       []scriptedStep
	calls        int
	toolsPerCall []bool
}

type scriptedStep struct {
	response *Response
	err      error
}

func (p *scriptedProvider) next(request Request) (*Response, error) {
	p.toolsPerCall = append(p.toolsPerCall, len(request.Tools) > 0)
	if p.calls >= len(p.script) {
		return nil, fmt.Errorf("scripted provider exhausted after %d calls", p.calls)
	}
	step := p.script[p.calls]
	p.calls++
	if step.err != nil {
		return nil, step.err
	}
	return step.response, nil
}

func (p *scriptedProvider) Complete(ctx context.Context, request Request) (*Response, error) {
	return p.next(request)
}

func (p *scriptedProvider) Stream(ctx context.Context, request Request, onDelta func(string) error) (*Response, error) {
	response, err := p.next(request)
	if err != nil {
		return nil, err
	}
	if onDelta != nil && response.Content != "" {
		// Two chunks exercise incremental delivery.
		half := len(response.Content) / 2
		if err := onDelta(response.Content[:half]); err != nil {
			return nil, err
		}
		if err := onDelta(response.Content[half:]); err != nil {
			return nil, err
		}
	}
	return response, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func textResponse(content string) *Response {
	return &Response{Content: content, Usage: &TokenUsage{InputTokens: 10, OutputTokens: 5}}
}

func toolResponse(calls ...ToolCall) *Response {
	return &Response{ToolCalls: calls, Usage: &TokenUsage{InputTokens: 10, OutputTokens: 5}}
}

func newTestGateway(t *testing.T) *mcpserver.Server {
	t.Helper()

	s := store.New()
	hours := map[string]store.OperatingWindow{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		hours[day] = store.OperatingWindow{Open: "11:00", Close: "22:00"}
	}
	require.NoError(t, s.AddRestaurant(store.Restaurant{
		ID: "rest_001", Name: "Spice Villa", Cuisine: "North Indian", Location: "Koramangala",
		SeatingCapacity: 40, OperatingHours: hours, PriceRange: "$$", Rating: 4.5,
	}))

	engine := reservation.New(s, reservation.DefaultConfig(), zerolog.Nop())
	srv, err := mcpserver.NewServer(s, engine, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func newTestRunner(t *testing.T, provider Provider) *Runner {
	t.Helper()

	cfg := DefaultConfig()
	runner, err := NewRunner(provider, newTestGateway(t), cfg, zerolog.Nop())
	require.NoError(t, err)
	return runner
}

func TestNewRunner(t *testing.T) {
	t.Run("requires provider and gateway", func(t *testing.T) {
		_, err := NewRunner(nil, newTestGateway(t), DefaultConfig(), zerolog.Nop())
		assert.Error(t, err)

		_, err = NewRunner(&scriptedProvider{}, nil, DefaultConfig(), zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("requires a model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Model = ""
		_, err := NewRunner(&scriptedProvider{}, newTestGateway(t), cfg, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("rejects out-of-range temperature", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Temperature = 1.5
		_, err := NewRunner(&scriptedProvider{}, newTestGateway(t), cfg, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestProcessMessagePlainAnswer(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedStep{
		{response: textResponse("Here is what I found.")},
		{response: textResponse("Here is what I found.")},
	}}
	runner := newTestRunner(t, provider)

	var deltas []string
	result, err := runner.ProcessMessage(context.Background(), "Find me Italian restaurants in Indiranagar", func(ev Event) {
		if ev.Stream == StreamAssistant && ev.Phase == "delta" {
			deltas = append(deltas, ev.Content)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "Here is what I found.", result.Response)
	assert.Empty(t, result.ToolCalls)
	assert.False(t, result.Degraded)

	// First call offers tools, the closing call does not.
	require.Len(t, provider.toolsPerCall, 2)
	assert.True(t, provider.toolsPerCall[0])
	assert.False(t, provider.toolsPerCall[1])

	// Streamed chunks reassemble into the final answer.
	joined := ""
	for _, d := range deltas {
		joined += d
	}
	assert.Equal(t, "Here is what I found.", joined)
}

func TestProcessMessageToolRound(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedStep{
		{response: toolResponse(
			ToolCall{ID: "call_1", Name: "search_restaurants", RawArguments: `{"cuisine":"north indian"}`},
			ToolCall{ID: "call_2", Name: "get_availability", RawArguments: `{"restaurant_id":"rest_001","date":"2026-09-07","time":"19:00","party_size":4}`},
		)},
		{response: textResponse("Spice Villa has room at 19:00.")},
		{response: textResponse("Spice Villa has room at 19:00.")},
	}}
	runner := newTestRunner(t, provider)

	var toolEvents []Event
	result, err := runner.ProcessMessage(context.Background(), "Can four of us eat at Spice Villa tonight at 7?", func(ev Event) {
		if ev.Stream == StreamTool {
			toolEvents = append(toolEvents, ev)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "Spice Villa has room at 19:00.", result.Response)
	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "search_restaurants", result.ToolCalls[0].Name)
	assert.Equal(t, "get_availability", result.ToolCalls[1].Name)

	// Both tools produced start and end markers.
	starts := 0
	for _, ev := range toolEvents {
		if ev.Phase == "start" {
			starts++
		}
	}
	assert.Equal(t, 2, starts)

	// Tool results land in the history in request order, tagged to their
	// originating call.
	messages := runner.Conversation().Messages()
	var toolMsgs []Message
	for _, msg := range messages {
		if msg.Role == "tool" {
			toolMsgs = append(toolMsgs, msg)
		}
	}
	require.Len(t, toolMsgs, 2)
	assert.Equal(t, "call_1", toolMsgs[0].ToolCallID)
	assert.Equal(t, "call_2", toolMsgs[1].ToolCallID)
	assert.Contains(t, toolMsgs[0].Content, "Spice Villa")
}

func TestProcessMessageMalformedArguments(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedStep{
		{response: toolResponse(ToolCall{ID: "call_1", Name: "search_restaurants", RawArguments: `{"cuisine": <broken>`})},
		{response: textResponse("Let me try that again.")},
		{response: textResponse("Let me try that again.")},
	}}
	runner := newTestRunner(t, provider)

	result, err := runner.ProcessMessage(context.Background(), "Find me some North Indian food places", nil)
	require.NoError(t, err, "malformed arguments must not abort the turn")
	assert.Equal(t, "Let me try that again.", result.Response)

	// The synthetic error result went back into the history.
	var toolMsg *Message
	for _, msg := range runner.Conversation().Messages() {
		if msg.Role == "tool" {
			m := msg
			toolMsg = &m
		}
	}
	require.NotNil(t, toolMsg)
	assert.Contains(t, toolMsg.Content, "malformed arguments")
}

func TestProcessMessageRoundCap(t *testing.T) {
	// A provider that always asks for tools must hit the degraded path.
	script := []scriptedStep{}
	for i := 0; i < 10; i++ {
		script = append(script, scriptedStep{response: toolResponse(
			ToolCall{ID: fmt.Sprintf("call_%d", i), Name: "search_restaurants", RawArguments: `{}`},
		)})
	}
	provider := &scriptedProvider{script: script}
	runner := newTestRunner(t, provider)

	result, err := runner.ProcessMessage(context.Background(), "Find me every restaurant you know about", nil)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Response)
	assert.Equal(t, DefaultConfig().MaxRounds, provider.calls)
	assert.Len(t, result.ToolCalls, DefaultConfig().MaxRounds)
}

func TestProcessMessageClosingTurnIgnoresToolCalls(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedStep{
		{response: textResponse("Answering directly.")},
		// Raw output of the closing turn claims a tool call anyway.
		{response: &Response{
			Content:   "Answering directly.",
			ToolCalls: []ToolCall{{ID: "sneak", Name: "search_restaurants", RawArguments: `{}`}},
			Usage:     &TokenUsage{},
		}},
	}}
	runner := newTestRunner(t, provider)

	result, err := runner.ProcessMessage(context.Background(), "Tell me about your Italian restaurants", nil)
	require.NoError(t, err)

	assert.Equal(t, "Answering directly.", result.Response)
	assert.Empty(t, result.ToolCalls)
	assert.Equal(t, 2, provider.calls, "no further provider round after the closing turn")
}

func TestProcessMessageProviderFault(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedStep{
		{err: errors.New("invalid api key")},
	}}
	runner := newTestRunner(t, provider)

	_, err := runner.ProcessMessage(context.Background(), "Find me a table for two somewhere nice", nil)
	require.Error(t, err)

	// The user message survives the failed turn for the retry.
	messages := runner.Conversation().Messages()
	require.NotEmpty(t, messages)
	assert.Equal(t, "user", messages[len(messages)-1].Role)
}

func TestProcessMessageScopeGuard(t *testing.T) {
	t.Run("self-referential question never reaches the provider", func(t *testing.T) {
		provider := &scriptedProvider{}
		runner := newTestRunner(t, provider)

		result, err := runner.ProcessMessage(context.Background(), "Can we have your name for the reservation?", nil)
		require.NoError(t, err)

		assert.Contains(t, result.Response, "don't have a personal name")
		assert.Zero(t, provider.calls)
	})

	t.Run("vague follow-up asks for preferences", func(t *testing.T) {
		provider := &scriptedProvider{}
		runner := newTestRunner(t, provider)

		result, err := runner.ProcessMessage(context.Background(), "Any other recommendations?", nil)
		require.NoError(t, err)

		assert.Contains(t, result.Response, "What kind of recommendations")
		assert.Zero(t, provider.calls)
	})

	t.Run("normal request passes through", func(t *testing.T) {
		provider := &scriptedProvider{script: []scriptedStep{
			{response: textResponse("Sure.")},
			{response: textResponse("Sure.")},
		}}
		runner := newTestRunner(t, provider)

		_, err := runner.ProcessMessage(context.Background(), "Recommend me some Chinese restaurants in Whitefield", nil)
		require.NoError(t, err)
		assert.Equal(t, 2, provider.calls)
	})
}

func TestConversationWindow(t *testing.T) {
	t.Run("drops oldest beyond the limit", func(t *testing.T) {
		conv := NewConversation(4)
		for i := 0; i < 10; i++ {
			conv.Append(Message{Role: "user", Content: fmt.Sprintf("message %d", i)})
		}

		messages := conv.Messages()
		require.Len(t, messages, 4)
		assert.Equal(t, "message 6", messages[0].Content)
		assert.Equal(t, "message 9", messages[3].Content)
	})

	t.Run("never starts with an orphaned tool result", func(t *testing.T) {
		conv := NewConversation(3)
		conv.Append(
			Message{Role: "user", Content: "hi"},
			Message{Role: "assistant", ToolCalls: []ToolCall{{ID: "c1", Name: "search_restaurants"}}},
			Message{Role: "tool", ToolCallID: "c1", Content: "result"},
			Message{Role: "assistant", Content: "done"},
		)

		messages := conv.Messages()
		require.NotEmpty(t, messages)
		assert.NotEqual(t, "tool", messages[0].Role)
	})
}

func TestParseArguments(t *testing.T) {
	t.Run("valid blob", func(t *testing.T) {
		tc := ToolCall{Name: "search_restaurants", RawArguments: `{"cuisine":"Thai"}`}
		args, err := tc.ParseArguments()
		require.NoError(t, err)
		assert.Equal(t, "Thai", args["cuisine"])
	})

	t.Run("empty blob", func(t *testing.T) {
		tc := ToolCall{Name: "get_recommendations"}
		args, err := tc.ParseArguments()
		require.NoError(t, err)
		assert.Empty(t, args)
	})

	t.Run("broken blob", func(t *testing.T) {
		tc := ToolCall{Name: "search_restaurants", RawArguments: `{"cuisine":`}
		_, err := tc.ParseArguments()
		assert.Error(t, err)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(errors.New("invalid api key")))
	assert.True(t, IsRetryableError(errors.New("429 too many requests")))
	assert.True(t, IsRetryableError(errors.New("rate limit exceeded")))
	assert.True(t, IsRetryableError(errors.New("upstream 503")))
	assert.True(t, IsRetryableError(errors.New("read tcp: ECONNRESET")))
}
