package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Gemini completes prompts with Google's Gemini models.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGemini creates a Gemini completer. Close releases the underlying client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	gm := client.GenerativeModel(model)
	gm.SetTemperature(0)

	return &Gemini{client: client, model: gm, name: "gemini/" + model}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

func (g *Gemini) Name() string {
	return g.name
}

// Close releases the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
