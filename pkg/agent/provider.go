package agent

import (
	"context"
	"fmt"
)

// Provider is an interface for completion API providers
type Provider interface {
	// Complete makes a blocking completion call
	Complete(ctx context.Context, request Request) (*Response, error)

	// Stream makes a completion call delivering text chunks through onDelta
	// as they arrive; the returned Response carries the accumulated result
	Stream(ctx context.Context, request Request, onDelta func(string) error) (*Response, error)

	// Name returns the provider name
	Name() string
}

// ToolSchema describes one tool offered to the completion provider.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Request contains the request parameters for a completion call
type Request struct {
	Model        string
	Messages     []Message
	Tools        []ToolSchema
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// Response contains the response from the completion provider
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}

// NewProvider creates a provider by name.
func NewProvider(name, apiKey string) (Provider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(apiKey), nil
	case "openai":
		return NewOpenAIProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}
