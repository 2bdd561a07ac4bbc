package llm

import (
	"context"
	"fmt"

	"github.com/gitmarkprojects/claude-work-agent/internal/config"
)

// Message is one conversational turn sent to a provider.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a single-prompt request (task extraction, summaries).
	Complete(ctx context.Context, prompt string) (*Response, error)
	// Chat sends a system prompt plus conversation turns and returns the
	// assistant reply.
	Chat(ctx context.Context, system string, turns []Message) (*Response, error)
}

// Response holds the result of an LLM call.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewClient creates an LLM client based on the config provider setting.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "claude-cli":
		model := cfg.Model
		if model == "" {
			model = "haiku"
		}
		return NewClaudeCLI(model), nil
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return NewAnthropic(cfg.AnthropicKey, model), nil
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.OllamaModel
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(url, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
