// Package llm holds the chat-completion providers used by the footnote
// extraction worker.
package llm

import (
	"context"
	"fmt"
	"os"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// FromEnv builds the provider selected by LLM_PROVIDER. OpenAI is the
// default; "gemini", "gemini-agent" and "deepseek" select the alternatives.
func FromEnv(ctx context.Context) (Provider, error) {
	switch os.Getenv("LLM_PROVIDER") {
	case "", "openai":
		return &OpenAIProvider{}, nil
	case "gemini":
		return &GeminiProvider{}, nil
	case "gemini-agent":
		return NewGeminiAgentProvider(ctx)
	case "deepseek":
		return &DeepSeekProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", os.Getenv("LLM_PROVIDER"))
	}
}
