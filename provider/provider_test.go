package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Google
// ---------------------------------------------------------------------------

func gtxServer(t *testing.T, dict map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "en" || q.Get("tl") != "zh-CN" || q.Get("dt") != "t" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		text := q.Get("q")
		tr, ok := dict[text]
		if !ok {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		// Split the reply in two segments like the real endpoint does for
		// longer inputs.
		half := len([]rune(tr)) / 2
		resp := []any{
			[]any{
				[]any{string([]rune(tr)[:half]), text, nil, nil, 10},
				[]any{string([]rune(tr)[half:]), "", nil, nil, 10},
			},
			nil,
			"en",
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleTranslateBatch(t *testing.T) {
	srv := gtxServer(t, map[string]string{
		"fever":      "发热",
		"chest pain": "胸痛",
		"心脏病发作 risk": "心脏病发作风险",
	})
	g := NewGoogle(srv.Client(), "en", "zh-CN").WithEndpoint(srv.URL)

	got, err := g.TranslateBatch(context.Background(), []string{"fever", "chest pain", "心脏病发作 risk"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"发热", "胸痛", "心脏病发作风险"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGoogleErrors(t *testing.T) {
	srv := gtxServer(t, map[string]string{"fever": "发热"})
	g := NewGoogle(srv.Client(), "en", "zh-CN").WithEndpoint(srv.URL)

	_, err := g.TranslateBatch(context.Background(), []string{"fever", "unknown"})
	if err == nil || !IsPermanent(err) {
		t.Fatalf("err = %v, want permanent 403", err)
	}
	if !strings.Contains(err.Error(), "text 2 of 2") {
		t.Errorf("error should name the failing text: %v", err)
	}

	_, err = g.TranslateBatch(context.Background(), []string{strings.Repeat("a", maxGoogleText+1)})
	if !IsPermanent(err) {
		t.Errorf("oversized text should be permanent, got %v", err)
	}
}

func TestGoogleTransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGoogle(srv.Client(), "", "zh-CN").WithEndpoint(srv.URL)
	_, err := g.TranslateBatch(context.Background(), []string{"fever"})
	if err == nil || IsPermanent(err) {
		t.Errorf("429 should be a retryable error, got %v", err)
	}
}

func TestParseGoogleResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"single segment", `[[["发热","fever",null,null,10]],null,"en"]`, "发热", false},
		{"joined segments", `[[["心脏","heart",null],["病","disease",null]],null,"en"]`, "心脏病", false},
		{"empty array", `[]`, "", true},
		{"not json", `<html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGoogleResponse([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// OpenAI
// ---------------------------------------------------------------------------

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "Simplified Chinese") {
			t.Errorf("system prompt should name the target language: %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprintf(w, `{"error":{"message":%q,"type":"invalid_request_error"}}`, content)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAITranslateBatch(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "```json\n[\"发热\", \"咳嗽\"]\n```")
	o, err := NewOpenAI(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", SourceLang: "en", TargetLang: "zh-CN"}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	got, err := o.TranslateBatch(context.Background(), []string{"fever", "cough"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"发热", "咳嗽"}) {
		t.Errorf("got %q", got)
	}
}

func TestOpenAIAuthFailureIsPermanent(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, "Incorrect API key provided")
	o, err := NewOpenAI(Config{APIKey: "sk-bad", BaseURL: srv.URL + "/v1", TargetLang: "zh-CN"}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	_, err = o.TranslateBatch(context.Background(), []string{"fever"})
	if !IsPermanent(err) {
		t.Errorf("401 should be permanent, got %v", err)
	}
}

func TestOpenAIServerErrorIsRetryable(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "overloaded")
	o, _ := NewOpenAI(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", TargetLang: "zh-CN"}, srv.Client())
	_, err := o.TranslateBatch(context.Background(), []string{"fever"})
	if err == nil || IsPermanent(err) {
		t.Errorf("500 should be retryable, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Gemini
// ---------------------------------------------------------------------------

func generateServer(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGeminiTranslateBatch(t *testing.T) {
	srv, calls := generateServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"[\"发热\", \"咳嗽\"]"}]}}]}`)
	g, err := NewGemini(context.Background(), Config{APIKey: "g-test", BaseURL: srv.URL, TargetLang: "zh-CN"}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	got, err := g.TranslateBatch(context.Background(), []string{"fever", "cough"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"发热", "咳嗽"}) {
		t.Errorf("got %q", got)
	}
	if *calls != 1 {
		t.Errorf("calls = %d, want 1", *calls)
	}
}

func TestGeminiAuthFailureIsPermanent(t *testing.T) {
	srv, calls := generateServer(t, http.StatusUnauthorized,
		`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`)
	g, err := NewGemini(context.Background(), Config{APIKey: "g-bad", BaseURL: srv.URL, TargetLang: "zh-CN"}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.TranslateBatch(context.Background(), []string{"fever"})
	if !IsPermanent(err) {
		t.Errorf("401 should be permanent, got %v", err)
	}
	if *calls != 1 {
		t.Errorf("calls = %d, want 1", *calls)
	}
}

func TestGeminiServerErrorIsRetryable(t *testing.T) {
	srv, _ := generateServer(t, http.StatusServiceUnavailable,
		`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
	g, _ := NewGemini(context.Background(), Config{APIKey: "g-test", BaseURL: srv.URL, TargetLang: "zh-CN"}, srv.Client())
	_, err := g.TranslateBatch(context.Background(), []string{"fever"})
	if err == nil || IsPermanent(err) {
		t.Errorf("503 should be retryable, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func TestParseTranslations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{"plain", `["发热","咳嗽"]`, []string{"发热", "咳嗽"}, false},
		{"code block", "```json\n[\"发热\"]\n```", []string{"发热"}, false},
		{"chatter around", "Here you go: [\"发热\"] hope it helps", []string{"发热"}, false},
		{"empty array", "[]", []string{}, false},
		{"garbage", "sorry", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranslations(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvedPrompt(t *testing.T) {
	p := resolvedPrompt("", "en", "zh-CN")
	if strings.Contains(p, "{{") {
		t.Errorf("placeholders left in prompt: %s", p)
	}
	if !strings.Contains(p, "from English into Simplified Chinese") {
		t.Errorf("prompt does not name languages: %s", p)
	}
	if got := resolvedPrompt("to {{targetLang}}", "", "ru"); got != "to Russian" {
		t.Errorf("custom prompt = %q", got)
	}
}

func TestUserPrompt(t *testing.T) {
	got := userPrompt([]string{"fever", "line\nbreak"})
	want := "Translate these entries:\n\n1. \"fever\"\n2. \"line\\nbreak\"\n\nReturn a JSON array with exactly 2 translated strings."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestEscapeForPrompt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`fever`, `"fever"`},
		{`so-called "silent" stroke`, `"so-called \"silent\" stroke"`},
		{`C:\path`, `"C:\\path"`},
		{`\"`, `"\\\""`},
		{"a\tb", `"a\tb"`},
	}
	for _, tt := range tests {
		got := escapeForPrompt(tt.in)
		if got != tt.want {
			t.Errorf("escapeForPrompt(%q) = %s, want %s", tt.in, got, tt.want)
		}
		var back string
		if err := json.Unmarshal([]byte(got), &back); err != nil || back != tt.in {
			t.Errorf("escapeForPrompt(%q) does not decode back: %q, %v", tt.in, back, err)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("fever", 10); got != "fever" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
	// Each CJK rune is three bytes; a cut at byte 4 falls inside the second.
	got := truncate("发热咳嗽", 4)
	if got != "发..." {
		t.Errorf("got %q, want %q", got, "发...")
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate split a rune: %q", got)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tr, err := New(ctx, Config{Name: "echo"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := tr.TranslateBatch(ctx, []string{"a", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("echo = %q", got)
	}

	if tr, err := New(ctx, Config{TargetLang: "zh-CN"}, nil); err != nil {
		t.Errorf("default provider: %v", err)
	} else if _, ok := tr.(*GoogleTranslator); !ok {
		t.Errorf("default provider = %T, want google", tr)
	}

	if _, err := New(ctx, Config{Name: "openai"}, nil); err == nil {
		t.Error("openai without key should fail")
	}
	if _, err := New(ctx, Config{Name: "gemini"}, nil); err == nil {
		t.Error("gemini without key should fail")
	}
	if _, err := New(ctx, Config{Name: "deepl"}, nil); err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("unknown provider err = %v", err)
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	base := errors.New("bad key")
	err := fmt.Errorf("batch 1: %w", Permanent(base))
	if !IsPermanent(err) || !errors.Is(err, base) {
		t.Errorf("wrapped permanent error lost: %v", err)
	}
	if IsPermanent(base) {
		t.Error("plain error reported permanent")
	}
	for code, want := range map[int]bool{400: true, 401: true, 404: true, 408: false, 429: false, 500: false, 200: false} {
		if got := permanentStatus(code); got != want {
			t.Errorf("permanentStatus(%d) = %v, want %v", code, got, want)
		}
	}
}
