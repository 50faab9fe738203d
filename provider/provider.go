// Package provider implements the remote translation capabilities the batch
// translator talks to. Every provider takes a batch of texts and returns one
// translation per text, in order; a call may fail as a whole.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Translator translates a batch of texts. Implementations must return
// exactly one result per input on success; callers treat anything else as a
// failed batch.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)
}

// Provider names accepted by New.
const (
	Google = "google"
	OpenAI = "openai"
	Gemini = "gemini"
	Echo   = "echo"
)

// Config selects and configures a provider.
type Config struct {
	// Name is one of Google, OpenAI, Gemini or Echo.
	Name string
	// SourceLang and TargetLang are language codes such as "en" and "zh-CN".
	SourceLang string
	TargetLang string
	// Model, BaseURL and APIKey apply to the LLM providers.
	Model   string
	BaseURL string
	APIKey  string
	// SystemPrompt overrides the built-in prompt for LLM providers.
	SystemPrompt string
}

// Names returns the supported provider names, sorted.
func Names() []string {
	names := []string{Google, OpenAI, Gemini, Echo}
	sort.Strings(names)
	return names
}

// NeedsAPIKey reports whether the named provider requires credentials.
func NeedsAPIKey(name string) bool {
	return name == OpenAI || name == Gemini
}

// New builds the provider named in cfg. client is the HTTP client used for
// remote calls, normally one from resilience.NewClient; nil means
// http.DefaultClient.
func New(ctx context.Context, cfg Config, client *http.Client) (Translator, error) {
	if client == nil {
		client = http.DefaultClient
	}
	switch strings.ToLower(cfg.Name) {
	case Google, "":
		return NewGoogle(client, cfg.SourceLang, cfg.TargetLang), nil
	case OpenAI:
		return NewOpenAI(cfg, client)
	case Gemini:
		return NewGemini(ctx, cfg, client)
	case Echo:
		return EchoTranslator{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", cfg.Name, strings.Join(Names(), ", "))
	}
}

// ---------------------------------------------------------------------------
// Error classification
// ---------------------------------------------------------------------------

// PermanentError marks a failure that will not go away by retrying, such as
// rejected credentials or a malformed request.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err (or anything it wraps) is permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// permanentStatus reports whether an HTTP status means the request itself is
// wrong. Timeouts and rate limits are worth another try.
func permanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
}

// ---------------------------------------------------------------------------
// Echo
// ---------------------------------------------------------------------------

// EchoTranslator returns its input unchanged. It is used for dry runs.
type EchoTranslator struct{}

func (EchoTranslator) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}
