package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GoogleEndpoint is the public web translation endpoint.
const GoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// maxGoogleText is the longest text the web endpoint accepts.
const maxGoogleText = 5000

// GoogleTranslator calls the Google Translate web endpoint, one request per
// text. Retries of individual requests are left to the HTTP client.
type GoogleTranslator struct {
	client   *http.Client
	endpoint string
	source   string
	target   string
}

// NewGoogle returns a Google translator. An empty source means "auto".
func NewGoogle(client *http.Client, source, target string) *GoogleTranslator {
	if source == "" {
		source = "auto"
	}
	return &GoogleTranslator{client: client, endpoint: GoogleEndpoint, source: source, target: target}
}

// WithEndpoint returns a copy that talks to endpoint instead of Google.
func (g *GoogleTranslator) WithEndpoint(endpoint string) *GoogleTranslator {
	c := *g
	c.endpoint = endpoint
	return &c
}

func (g *GoogleTranslator) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		s, err := g.translate(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d of %d: %w", i+1, len(texts), err)
		}
		out[i] = s
	}
	return out, nil
}

func (g *GoogleTranslator) translate(ctx context.Context, text string) (string, error) {
	if len(text) > maxGoogleText {
		return "", Permanent(fmt.Errorf("text is %d bytes, limit is %d", len(text), maxGoogleText))
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", g.source)
	q.Set("tl", g.target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", Permanent(err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("google translate: HTTP %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), 200))
		if permanentStatus(resp.StatusCode) {
			return "", Permanent(err)
		}
		return "", err
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse joins the translated segments of a gtx reply:
//
//	[[["translated","source",null,null,10],["more","..."]],null,"en",...]
func parseGoogleResponse(body []byte) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decoding google response: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("empty google response")
	}

	var segments [][]any
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("decoding google segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	return b.String(), nil
}
