package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAgentProvider holds a persistent Gemini client for long extraction
// runs, where recreating the client on every footnote would be wasteful.
type GeminiAgentProvider struct {
	modelName string
	client    *genai.Client
}

var _ Provider = (*GeminiAgentProvider)(nil)

// NewGeminiAgentProvider connects a persistent Gemini client.
func NewGeminiAgentProvider(ctx context.Context) (*GeminiAgentProvider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiAgentProvider{
		modelName: "gemini-1.5-flash",
		client:    client,
	}, nil
}

// Close releases the underlying client.
func (p *GeminiAgentProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiAgentProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	modelName := p.modelName
	if val, ok := options["model"].(string); ok && val != "" {
		modelName = val
	}

	model := p.client.GenerativeModel(modelName)
	model.SetTemperature(0.0)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
