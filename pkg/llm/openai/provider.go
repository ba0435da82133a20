// Package openaiprovider implements llm.Provider over the OpenAI chat
// completions API.
package openaiprovider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/tinyland-inc/waclaw/pkg/llm"
)

type Provider struct {
	client openai.Client
}

func NewProvider(apiKey string) *Provider {
	return NewProviderWithBaseURL(apiKey, "")
}

func NewProviderWithBaseURL(apiKey, apiBase string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if apiBase != "" {
		opts = append(opts, option.WithBaseURL(apiBase))
	}
	return &Provider{client: openai.NewClient(opts...)}
}

func (p *Provider) Generate(ctx context.Context, prompt llm.Prompt, opts llm.Options) (*llm.Response, error) {
	params := buildParams(prompt, opts)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai API call: empty choices")
	}

	return &llm.Response{
		Text: resp.Choices[0].Message.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func buildParams(prompt llm.Prompt, opts llm.Options) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if prompt.Instructions != "" {
		messages = append(messages, openai.SystemMessage(prompt.Instructions))
	}
	for _, turn := range prompt.Turns {
		switch turn.Role {
		case llm.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:            openai.ChatModel(opts.Model),
		Messages:         messages,
		Temperature:      openai.Float(opts.Temperature),
		FrequencyPenalty: openai.Float(opts.FrequencyPenalty),
		PresencePenalty:  openai.Float(opts.PresencePenalty),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(opts.MaxTokens)
	}
	if opts.Seed != nil {
		params.Seed = openai.Int(*opts.Seed)
	}
	return params
}
