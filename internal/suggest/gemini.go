package suggest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not configured")

const (
	geminiTemperature     float32 = 0.9
	geminiTopP            float32 = 0.95
	geminiMaxOutputTokens int32   = 150
)

// GeminiGenerator calls the Gemini generateContent API. The client is built
// on first use so a missing key only fails suggestion requests.
type GeminiGenerator struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiGenerator(apiKey, model string) *GeminiGenerator {
	return &GeminiGenerator{
		apiKey: apiKey,
		model:  model,
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(geminiTemperature),
		TopP:            genai.Ptr(geminiTopP),
		MaxOutputTokens: geminiMaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	return resp.Text(), nil
}

func (g *GeminiGenerator) getClient(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.client = client
	return client, nil
}
