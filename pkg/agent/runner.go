// Package agent drives the bounded tool-calling conversation loop between a
// completion provider and the reservation tool gateway.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/gupta-soham/goodfoods/pkg/mcpserver"
)

// ToolGateway dispatches tool calls. *mcpserver.Server satisfies it.
type ToolGateway interface {
	HandleRequest(ctx context.Context, req mcpserver.RPCRequest) mcpserver.RPCResponse
	ListTools() []mcpserver.ToolDefinition
}

// Config holds runner configuration
type Config struct {
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	MaxRounds    int     `json:"max_rounds,omitempty"`
	MaxRetries   int     `json:"max_retries,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	HistoryLimit int     `json:"history_limit,omitempty"`
}

// DefaultConfig returns default runner configuration
func DefaultConfig() Config {
	return Config{
		Model:        "claude-3-5-sonnet-20241022",
		Temperature:  0.7,
		MaxTokens:    4096,
		MaxRounds:    5,
		MaxRetries:   3,
		HistoryLimit: defaultHistoryLimit,
	}
}

// Result contains the outcome of one conversation turn.
type Result struct {
	Response  string     `json:"response"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     TokenUsage `json:"usage"`
	Degraded  bool       `json:"degraded,omitempty"`
}

// Runner owns one conversation and its tool loop.
type Runner struct {
	provider Provider
	gateway  ToolGateway
	conv     *Conversation
	schemas  []ToolSchema
	cfg      Config
	logger   zerolog.Logger
}

// NewRunner creates a runner over a provider and a tool gateway.
func NewRunner(provider Provider, gateway ToolGateway, cfg Config, logger zerolog.Logger) (*Runner, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("tool gateway is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultConfig().MaxRounds
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}

	return &Runner{
		provider: provider,
		gateway:  gateway,
		conv:     NewConversation(cfg.HistoryLimit),
		schemas:  buildSchemas(gateway.ListTools()),
		cfg:      cfg,
		logger:   logger.With().Str("component", "agent").Logger(),
	}, nil
}

// Conversation exposes the bounded history, primarily for inspection.
func (r *Runner) Conversation() *Conversation {
	return r.conv
}

// buildSchemas converts registry definitions into provider tool schemas.
func buildSchemas(defs []mcpserver.ToolDefinition) []ToolSchema {
	schemas := make([]ToolSchema, 0, len(defs))
	for _, def := range defs {
		properties := map[string]interface{}{}
		required := []string{}

		for _, param := range def.Parameters {
			properties[param.Name] = map[string]interface{}{
				"type":        param.Type,
				"description": param.Description,
			}
			if param.Required {
				required = append(required, param.Name)
			}
		}

		inputSchema := map[string]interface{}{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			inputSchema["required"] = required
		}

		schemas = append(schemas, ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: inputSchema,
		})
	}
	return schemas
}

// ProcessMessage runs one conversation turn: tool rounds until the provider
// stops requesting tools, then a final streaming call with tools disabled.
// Events are emitted through emit as the turn progresses; the final answer
// is also returned whole.
func (r *Runner) ProcessMessage(ctx context.Context, userMessage string, emit func(Event)) (Result, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	emit(Event{Stream: StreamLifecycle, Phase: "start"})

	// Cheap local answer for vague follow-ups and self-referential
	// questions; no provider or tool call involved.
	if response, hit := checkScope(userMessage, r.sawRecommendations()); hit {
		r.conv.Append(
			Message{Role: "user", Content: userMessage},
			Message{Role: "assistant", Content: response},
		)
		emit(Event{Stream: StreamAssistant, Phase: "delta", Content: response})
		emit(Event{Stream: StreamLifecycle, Phase: "end"})
		return Result{Response: response}, nil
	}

	r.conv.Append(Message{Role: "user", Content: userMessage})

	result := Result{}

	for round := 1; round <= r.cfg.MaxRounds; round++ {
		response, err := r.completeWithRetry(ctx, r.schemas, nil)
		if err != nil {
			emit(Event{Stream: StreamLifecycle, Phase: "error", Content: err.Error()})
			return Result{}, fmt.Errorf("completion round %d: %w", round, err)
		}
		result.Usage.Add(response.Usage)

		if len(response.ToolCalls) == 0 {
			return r.finishTurn(ctx, result, emit)
		}

		r.logger.Debug().Int("round", round).Int("tool_calls", len(response.ToolCalls)).Msg("Executing tool round")

		// Execute every requested call; independent reads may run in
		// parallel, the engine serializes writes itself.
		toolMessages := r.executeToolCalls(ctx, response.ToolCalls, round, emit)

		// One batch per round so cancellation never half-appends.
		batch := make([]Message, 0, len(toolMessages)+1)
		batch = append(batch, Message{
			Role:      "assistant",
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})
		batch = append(batch, toolMessages...)
		r.conv.Append(batch...)

		result.ToolCalls = append(result.ToolCalls, response.ToolCalls...)
	}

	// Round cap reached with the provider still asking for tools.
	r.logger.Warn().Int("max_rounds", r.cfg.MaxRounds).Msg("Tool round cap reached, degrading answer")

	degraded := "I gathered some information but couldn't complete the request within the allowed number of steps. " +
		"Could you simplify or split your request?"
	r.conv.Append(Message{Role: "assistant", Content: degraded})
	emit(Event{Stream: StreamAssistant, Phase: "delta", Content: degraded})
	emit(Event{Stream: StreamLifecycle, Phase: "end"})

	result.Response = degraded
	result.Degraded = true
	return result, nil
}

// finishTurn makes the closing streaming call with tool-calling disabled.
// Whatever the raw output claims, no tool is dispatched from here.
func (r *Runner) finishTurn(ctx context.Context, result Result, emit func(Event)) (Result, error) {
	onDelta := func(chunk string) error {
		emit(Event{Stream: StreamAssistant, Phase: "delta", Content: chunk})
		return nil
	}

	response, err := r.completeWithRetry(ctx, nil, onDelta)
	if err != nil {
		emit(Event{Stream: StreamLifecycle, Phase: "error", Content: err.Error()})
		return Result{}, fmt.Errorf("final completion: %w", err)
	}
	result.Usage.Add(response.Usage)

	if len(response.ToolCalls) > 0 {
		r.logger.Warn().Int("claimed", len(response.ToolCalls)).Msg("Ignoring tool calls in closing turn")
	}

	r.conv.Append(Message{Role: "assistant", Content: response.Content})
	emit(Event{Stream: StreamLifecycle, Phase: "end"})

	result.Response = response.Content
	return result, nil
}

// executeToolCalls runs all calls of one round, preserving request order in
// the returned tool messages.
func (r *Runner) executeToolCalls(ctx context.Context, calls []ToolCall, round int, emit func(Event)) []Message {
	messages := make([]Message, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		emit(Event{Stream: StreamTool, Phase: "start", Tool: call.Name, Round: round})

		wg.Add(1)
		go func(i int, call ToolCall) {
			defer wg.Done()
			messages[i] = r.executeToolCall(ctx, call)
		}(i, call)
	}
	wg.Wait()

	for i, call := range calls {
		emit(Event{Stream: StreamTool, Phase: "end", Tool: call.Name, Round: round, Content: messages[i].Content})
	}

	return messages
}

// executeToolCall dispatches one call through the gateway. Malformed
// argument blobs and protocol errors both come back as tool-result text so
// the model can self-correct on the next round.
func (r *Runner) executeToolCall(ctx context.Context, call ToolCall) Message {
	msg := Message{Role: "tool", ToolCallID: call.ID}

	args, err := call.ParseArguments()
	if err != nil {
		r.logger.Warn().Str("tool", call.Name).Err(err).Msg("Malformed tool arguments")
		msg.Content = fmt.Sprintf("Error: %v. Please retry with valid JSON arguments.", err)
		return msg
	}

	requestID, err := gonanoid.New()
	if err != nil {
		msg.Content = fmt.Sprintf("Error: could not dispatch %s: %v", call.Name, err)
		return msg
	}

	resp := r.gateway.HandleRequest(ctx, mcpserver.RPCRequest{
		ID:      requestID,
		JSONRPC: "2.0",
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      call.Name,
			"arguments": args,
		},
	})

	if resp.Error != nil {
		msg.Content = fmt.Sprintf("Error executing %s: %s", call.Name, resp.Error.Message)
		return msg
	}

	msg.Content = renderToolResult(resp.Result)
	return msg
}

// renderToolResult flattens a dispatch result into conversation text.
func renderToolResult(result interface{}) string {
	toolResult, ok := result.(*mcpserver.ToolResult)
	if !ok {
		return fmt.Sprintf("%v", result)
	}

	parts := make([]string, 0, len(toolResult.Content))
	for _, item := range toolResult.Content {
		if item.Text != "" {
			parts = append(parts, item.Text)
		}
	}
	if len(parts) == 0 {
		return "No result"
	}
	return strings.Join(parts, "\n")
}

// completeWithRetry calls the provider with exponential backoff. A non-nil
// onDelta selects the streaming path.
func (r *Runner) completeWithRetry(ctx context.Context, tools []ToolSchema, onDelta func(string) error) (*Response, error) {
	request := Request{
		Model:        r.cfg.Model,
		Messages:     r.conv.Messages(),
		Tools:        tools,
		Temperature:  r.cfg.Temperature,
		MaxTokens:    r.cfg.MaxTokens,
		SystemPrompt: r.cfg.SystemPrompt,
	}

	var lastErr error

	for attempt := 0; attempt < r.cfg.MaxRetries; attempt++ {
		var response *Response
		var err error
		if onDelta != nil {
			response, err = r.provider.Stream(ctx, request, onDelta)
		} else {
			response, err = r.provider.Complete(ctx, request)
		}
		if err == nil {
			return response, nil
		}

		lastErr = err

		if !IsRetryableError(err) {
			return nil, err
		}

		if attempt == r.cfg.MaxRetries-1 {
			break
		}

		// Exponential backoff: 1s, 2s, 4s
		delay := time.Duration(1000*(1<<attempt)) * time.Millisecond
		r.logger.Info().
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying after provider error")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", r.cfg.MaxRetries, lastErr)
}

// sawRecommendations reports whether recommendation output already appears
// in the retained history.
func (r *Runner) sawRecommendations() bool {
	for _, msg := range r.conv.Messages() {
		if strings.Contains(strings.ToLower(msg.Content), "recommend") {
			return true
		}
	}
	return false
}
