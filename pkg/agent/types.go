package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message represents a message in the conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a tool invocation requested by the completion provider. The
// argument blob arrives as opaque serialized text and must be parsed
// defensively.
type ToolCall struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RawArguments string `json:"raw_arguments"`
}

// ParseArguments decodes the raw argument blob. An empty blob decodes to an
// empty mapping; anything undecodable is an error for the caller to turn
// into a synthetic tool result.
func (tc ToolCall) ParseArguments() (map[string]interface{}, error) {
	raw := strings.TrimSpace(tc.RawArguments)
	if raw == "" {
		return map[string]interface{}{}, nil
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("malformed arguments for %s: %w", tc.Name, err)
	}
	return args, nil
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// StreamType identifies typed runtime streams surfaced to the caller.
type StreamType string

const (
	StreamTool      StreamType = "tool"
	StreamAssistant StreamType = "assistant"
	StreamLifecycle StreamType = "lifecycle"
)

// Event is one progress marker emitted while a turn runs. Tool events carry
// the tool name, assistant events the text delta.
type Event struct {
	Stream  StreamType `json:"stream"`
	Phase   string     `json:"phase"` // start, delta, end, error
	Tool    string     `json:"tool,omitempty"`
	Round   int        `json:"round,omitempty"`
	Content string     `json:"content,omitempty"`
}

// IsRetryableError checks if an error should be retried
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()

	// Network errors
	if strings.Contains(errMsg, "ECONNRESET") || strings.Contains(errMsg, "ETIMEDOUT") ||
		strings.Contains(errMsg, "connection refused") {
		return true
	}

	// Rate limits
	if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "rate limit") {
		return true
	}

	// Server errors
	if strings.Contains(errMsg, "500") || strings.Contains(errMsg, "502") ||
		strings.Contains(errMsg, "503") || strings.Contains(errMsg, "504") {
		return true
	}

	return false
}
