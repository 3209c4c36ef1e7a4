package planner

import (
	"context"
	"fmt"
	"os"

	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/browser"
)

// Provider turns a page map and a natural-language request into actions
type Provider interface {
	GenerateActions(ctx context.Context, pageMap *browser.PageMap, prompt string) ([]action.Action, error)
}

// Options selects and configures a provider
type Options struct {
	Model   string
	BaseURL string // OpenAI-compatible or Anthropic-compatible endpoint
	APIKey  string // Overrides the environment
}

// NewProvider creates a provider by name
func NewProvider(name string, opts Options) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(opts)
	case "openai", "gpt":
		return NewOpenAIProvider(opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

// apiKey returns the first non-empty of explicit and the named env vars
func apiKey(explicit string, envs ...string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range envs {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
