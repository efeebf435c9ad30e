// Package llm provides chat-completion clients for the AI providers the
// journal calls out to. OpenAI and Anthropic are supported; both speak
// their native HTTP APIs and can be asked for strict-JSON output, which is
// how the import wizard gets structured link suggestions back.
package llm

import (
	"context"
	"time"
)

// Provider represents an LLM provider type.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Role represents a message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies how the model should format its response.
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

// UsageMetrics tracks token usage.
type UsageMetrics struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Provider     Provider     `json:"provider"`
	Created      time.Time    `json:"created"`
	Message      Message      `json:"message"`
	Usage        UsageMetrics `json:"usage"`
	LatencyMs    int64        `json:"latency_ms"`
	FinishReason string       `json:"finish_reason"`
}

// ClientConfig holds configuration for LLM clients.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPTimeout time.Duration
}

// Client is the interface for LLM inference clients.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Provider returns the provider type.
	Provider() Provider

	// Close releases any resources.
	Close() error
}

// NewClient creates a client for the given provider.
func NewClient(provider Provider, config ClientConfig) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderAnthropic:
		return NewAnthropicClient(config), nil
	default:
		return nil, ErrUnsupportedProvider{Provider: provider}
	}
}

// ErrUnsupportedProvider indicates an unsupported provider.
type ErrUnsupportedProvider struct {
	Provider Provider
}

func (e ErrUnsupportedProvider) Error() string {
	return "unsupported provider: " + string(e.Provider)
}
