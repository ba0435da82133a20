// Package llm defines the generation contract the conversation handlers
// call, plus provider implementations over the OpenAI and Anthropic SDKs.
package llm

import "context"

// Role tags a context turn for the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged entry of the generation context.
type Turn struct {
	Role    Role
	Content string
}

// Prompt is the exact input contract to a provider: an instructions string
// (possibly empty) plus the bounded, role-tagged context window.
type Prompt struct {
	Instructions string
	Turns        []Turn
}

// Options carries the per-chat generation parameters.
type Options struct {
	Model            string
	Temperature      float64
	MaxTokens        int64
	FrequencyPenalty float64
	PresencePenalty  float64
	Seed             *int64
}

// Usage reports token consumption for one generation call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the outcome of one generation call.
type Response struct {
	Text  string
	Usage Usage
}

// Provider generates a reply from a prompt. Implementations apply their own
// timeouts; callers pass a context for cancellation.
type Provider interface {
	Generate(ctx context.Context, prompt Prompt, opts Options) (*Response, error)
}
