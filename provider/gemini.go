package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when Config.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiTranslator asks a Gemini model for a JSON array of translations.
// API errors with a client status (bad key, unknown model) are permanent.
type GeminiTranslator struct {
	client *genai.Client
	model  string
	prompt string
}

// NewGemini builds a Gemini translator using the Gemini API backend.
// BaseURL, when set, replaces the public endpoint.
func NewGemini(ctx context.Context, cfg Config, client *http.Client) (*GeminiTranslator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key not set")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  client,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiTranslator{
		client: gc,
		model:  model,
		prompt: resolvedPrompt(cfg.SystemPrompt, cfg.SourceLang, cfg.TargetLang),
	}, nil
}

func (g *GeminiTranslator) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt(texts)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.prompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	text := resp.Text()
	if text == "" {
		return nil, errors.New("gemini: empty response")
	}
	return parseTranslations(text)
}

// classifyGeminiError marks client-side API failures permanent. genai
// returns APIError by value.
func classifyGeminiError(err error) error {
	wrapped := fmt.Errorf("Gemini API error: %w", err)
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && permanentStatus(apiErr.Code) {
		return Permanent(wrapped)
	}
	return wrapped
}
