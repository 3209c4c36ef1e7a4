package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/browser"
)

// ClaudeProvider implements Provider using Anthropic's Claude
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
}

// NewClaudeProvider creates a new Claude provider
func NewClaudeProvider(opts Options) (*ClaudeProvider, error) {
	key := apiKey(opts.APIKey, "STEPSCRIPT_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")
	if key == "" {
		return nil, errors.New("STEPSCRIPT_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(key)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	model := opts.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeProvider{
		client: &client,
		model:  model,
	}, nil
}

// GenerateActions asks Claude for the steps that fulfil prompt on the mapped page
func (p *ClaudeProvider) GenerateActions(ctx context.Context, pageMap *browser.PageMap, prompt string) ([]action.Action, error) {
	userPrompt, err := buildUserPrompt(pageMap, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return nil, errors.New("empty response from Claude")
	}

	actions, err := parseActions(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Claude response: %w\nResponse: %s", err, responseText)
	}
	return actions, nil
}
