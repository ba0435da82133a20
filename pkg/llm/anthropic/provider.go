// Package anthropicprovider implements llm.Provider over the Anthropic
// messages API.
package anthropicprovider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tinyland-inc/waclaw/pkg/llm"
)

const defaultMaxTokens = 4096

type Provider struct {
	client *anthropic.Client
}

func NewProvider(apiKey string) *Provider {
	return NewProviderWithBaseURL(apiKey, "")
}

func NewProviderWithBaseURL(apiKey, apiBase string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if apiBase != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(apiBase, "/")))
	}
	client := anthropic.NewClient(opts...)
	return &Provider{client: &client}
}

func (p *Provider) Generate(ctx context.Context, prompt llm.Prompt, opts llm.Options) (*llm.Response, error) {
	params := buildParams(prompt, opts)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			tb := block.AsText()
			sb.WriteString(tb.Text)
		}
	}

	return &llm.Response{
		Text: sb.String(),
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// buildParams translates the prompt into message params. The Anthropic API
// has no frequency/presence penalty or seed, so those options are dropped.
func buildParams(prompt llm.Prompt, opts llm.Options) anthropic.MessageNewParams {
	var messages []anthropic.MessageParam
	for _, turn := range prompt.Turns {
		switch turn.Role {
		case llm.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}

	maxTokens := int64(defaultMaxTokens)
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.Model),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(opts.Temperature),
	}
	if prompt.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: prompt.Instructions}}
	}
	return params
}
