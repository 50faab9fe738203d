package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAITranslator asks an OpenAI-compatible chat model for a JSON array of
// translations.
type OpenAITranslator struct {
	client *openai.Client
	model  string
	prompt string
}

// NewOpenAI builds an OpenAI translator. BaseURL points it at any
// OpenAI-compatible server.
func NewOpenAI(cfg Config, client *http.Client) (*OpenAITranslator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key not set")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if client != nil {
		oc.HTTPClient = client
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		prompt: resolvedPrompt(cfg.SystemPrompt, cfg.SourceLang, cfg.TargetLang),
	}, nil
}

func (o *OpenAITranslator) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.prompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(texts)},
		},
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices returned")
	}
	return parseTranslations(resp.Choices[0].Message.Content)
}

func classifyOpenAIError(err error) error {
	wrapped := fmt.Errorf("OpenAI API error: %w", err)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && permanentStatus(apiErr.HTTPStatusCode) {
		return Permanent(wrapped)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && permanentStatus(reqErr.HTTPStatusCode) {
		return Permanent(wrapped)
	}
	return wrapped
}
