package llm

import (
	"context"
	"fmt"
	"strings"
)

// Mux routes generation calls to a provider based on the model id in the
// call options. Chats pick their model per-settings, so one gateway can
// serve OpenAI and Anthropic chats side by side.
type Mux struct {
	byPrefix map[string]Provider
	fallback Provider
}

func NewMux() *Mux {
	return &Mux{byPrefix: make(map[string]Provider)}
}

// RegisterPrefix routes models whose id starts with prefix to p.
func (m *Mux) RegisterPrefix(prefix string, p Provider) {
	m.byPrefix[prefix] = p
}

// SetFallback routes models no prefix matches.
func (m *Mux) SetFallback(p Provider) {
	m.fallback = p
}

func (m *Mux) Generate(ctx context.Context, prompt Prompt, opts Options) (*Response, error) {
	for prefix, p := range m.byPrefix {
		if strings.HasPrefix(opts.Model, prefix) {
			return p.Generate(ctx, prompt, opts)
		}
	}
	if m.fallback != nil {
		return m.fallback.Generate(ctx, prompt, opts)
	}
	return nil, fmt.Errorf("no provider configured for model %q", opts.Model)
}
