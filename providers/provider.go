// Package providers defines the Provider interface and shared data types
// used by the LLM backends the assistant can ask for recommendations.
//
// Two backends are implemented: Gemini (the default, a plain REST client)
// and OpenAI (via the official SDK). Core types: Request, Response, Message.
package providers

import "context"

// Message role constants shared by all providers.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of a chat-style prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a completion request in provider-neutral form.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Usage carries token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider-neutral completion result.
type Response struct {
	ID           string `json:"id,omitempty"`
	Model        string `json:"model"`
	Provider     string `json:"provider,omitempty"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// ModelInfo describes one model for listing endpoints.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// Provider defines the interface every LLM backend must implement.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
	SupportedModels() []string
	SupportsModel(model string) bool
	Models() []ModelInfo
}
