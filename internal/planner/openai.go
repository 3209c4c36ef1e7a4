package planner

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/browser"
)

// OpenAIProvider implements Provider using OpenAI or any server speaking its
// chat completions API (Ollama, vLLM).
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider. A key is optional when
// BaseURL points at a local server.
func NewOpenAIProvider(opts Options) (*OpenAIProvider, error) {
	key := apiKey(opts.APIKey, "STEPSCRIPT_OPENAI_KEY", "OPENAI_API_KEY")
	if key == "" && opts.BaseURL == "" {
		return nil, errors.New("STEPSCRIPT_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}

	cfg := openai.DefaultConfig(key)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// GenerateActions asks the chat model for the steps that fulfil prompt
func (p *OpenAIProvider) GenerateActions(ctx context.Context, pageMap *browser.PageMap, prompt string) ([]action.Action, error) {
	userPrompt, err := buildUserPrompt(pageMap, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from OpenAI")
	}

	responseText := resp.Choices[0].Message.Content
	actions, err := parseActions(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response: %w\nResponse: %s", err, responseText)
	}
	return actions, nil
}
